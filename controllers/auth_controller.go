package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos-service/auth"
)

// SessionEnder revokes the token behind a session.
type SessionEnder interface {
	SignOut(ctx context.Context, claims *auth.Claims) error
}

type AuthController struct {
	sessions SessionEnder
}

func NewAuthController(sessions SessionEnder) *AuthController {
	return &AuthController{sessions: sessions}
}

// Me reports the signed-in user.
func (ac *AuthController) Me(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID})
}

// SignOut revokes the current token. Requests authenticated by the gateway
// carry no token and have nothing to revoke here.
func (ac *AuthController) SignOut(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if claims, ok := auth.CurrentClaims(c); ok {
		ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultContextTimeout)
		defer cancel()

		if err := ac.sessions.SignOut(ctx, claims); err != nil {
			writeError(c, err)
			return
		}
	}

	c.SetCookie("access_token", "", -1, "/", "", false, true)
	zap.L().Info("User signed out", zap.String("user_id", userID))
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}
