package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pos-service/models"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type ListingStreamHandler struct {
	newListing ListingFactory
}

func NewListingStreamHandler(factory ListingFactory) *ListingStreamHandler {
	return &ListingStreamHandler{newListing: factory}
}

// Stream upgrades to a websocket and pushes a listing view every time the
// product set, query or sort changes. Clients send ListingRequest messages.
func (h *ListingStreamHandler) Stream(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	initial := models.ListingRequest{}
	if q, ok := c.GetQuery("q"); ok {
		initial.Query = &q
	}
	if s, ok := c.GetQuery("sort"); ok {
		if _, err := models.ParseSortOption(s); err != nil {
			badRequest(c, err.Error(), err)
			return
		}
		initial.Sort = &s
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("Websocket upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	listing := h.newListing(userID)
	go func() {
		if err := listing.Run(ctx); err != nil && ctx.Err() == nil {
			zap.L().Error("Listing stopped", zap.String("user_id", userID), zap.Error(err))
		}
	}()

	if err := applyListingRequest(ctx, listing, initial); err != nil {
		zap.L().Debug("Initial listing request rejected", zap.Error(err))
	}

	go h.readRequests(ctx, cancel, conn, listing)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case view, ok := <-listing.Views():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(view); err != nil {
				zap.L().Debug("Websocket write failed", zap.String("user_id", userID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *ListingStreamHandler) readRequests(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, listing LiveListing) {
	defer cancel()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Debug("Websocket read failed", zap.Error(err))
			}
			return
		}
		var req models.ListingRequest
		if err := json.Unmarshal(data, &req); err != nil {
			zap.L().Debug("Ignoring malformed listing request", zap.Error(err))
			continue
		}
		if err := applyListingRequest(ctx, listing, req); err != nil {
			if ctx.Err() != nil {
				return
			}
			zap.L().Debug("Listing request rejected", zap.Error(err))
		}
	}
}

func applyListingRequest(ctx context.Context, listing LiveListing, req models.ListingRequest) error {
	if req.Sort != nil {
		opt, err := models.ParseSortOption(*req.Sort)
		if err != nil {
			return err
		}
		if err := listing.SetSort(ctx, opt); err != nil {
			return err
		}
	}
	if req.Query != nil {
		return listing.SetQuery(ctx, *req.Query)
	}
	return nil
}
