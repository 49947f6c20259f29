package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"pos-service/models"
	"pos-service/repository"
)

var ErrEngineStopped = errors.New("listing engine stopped")

type listingCommand struct {
	query *string
	sort  *models.SortOption
}

// ListingEngine owns one live product listing. A single goroutine (Run) holds all
// listing state; callers talk to it through commands and read published views.
type ListingEngine struct {
	userID string
	feed   repository.ProductFeed
	cache  repository.ProductCache

	commands chan listingCommand
	views    chan models.ListingView
	mirror   chan []models.Product
	done     chan struct{}
}

func NewListingEngine(userID string, feed repository.ProductFeed, cache repository.ProductCache) *ListingEngine {
	return &ListingEngine{
		userID:   userID,
		feed:     feed,
		cache:    cache,
		commands: make(chan listingCommand),
		views:    make(chan models.ListingView, 1),
		mirror:   make(chan []models.Product, 1),
		done:     make(chan struct{}),
	}
}

// Views delivers the latest view. Intermediate views are dropped when the reader
// falls behind. The channel is closed when Run returns.
func (e *ListingEngine) Views() <-chan models.ListingView {
	return e.views
}

func (e *ListingEngine) SetQuery(ctx context.Context, query string) error {
	return e.send(ctx, listingCommand{query: &query})
}

func (e *ListingEngine) SetSort(ctx context.Context, opt models.SortOption) error {
	return e.send(ctx, listingCommand{sort: &opt})
}

func (e *ListingEngine) send(ctx context.Context, cmd listingCommand) error {
	select {
	case e.commands <- cmd:
		return nil
	case <-e.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run subscribes to the user's product feed and serves commands until ctx is
// cancelled or the feed closes. Cancelling ctx releases the feed subscription.
func (e *ListingEngine) Run(ctx context.Context) error {
	defer close(e.views)
	defer close(e.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshots := e.feed.Subscribe(ctx, e.userID)
	go e.runMirror(ctx)

	var (
		original  []models.Product
		published []models.Product
		query     string
		sortOpt   = models.SortNameAsc
		status    models.ListingStatus = models.ListingLoading{}
	)

	derive := func() {
		published = DeriveView(original, query, sortOpt)
		e.publish(models.ListingView{Products: published, Query: query, Sort: sortOpt, Status: status})
	}
	derive()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case cmd := <-e.commands:
			if cmd.query != nil {
				query = *cmd.query
			}
			if cmd.sort != nil {
				sortOpt = *cmd.sort
			}
			derive()

		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			if snap.Err != nil {
				zap.L().Warn("Product listing update failed", zap.String("user_id", e.userID), zap.Error(snap.Err))
				status = models.ListingError{Message: snap.Err.Error()}
				e.publish(models.ListingView{Products: published, Query: query, Sort: sortOpt, Status: status})
				continue
			}

			original = FilterProducts(snap.Products, "")
			e.queueMirror(snap.Products)
			status = models.ListingReady{}
			derive()
		}
	}
}

func (e *ListingEngine) publish(view models.ListingView) {
	select {
	case <-e.views:
	default:
	}
	e.views <- view
}

func (e *ListingEngine) queueMirror(products []models.Product) {
	select {
	case <-e.mirror:
	default:
	}
	e.mirror <- products
}

// runMirror writes snapshots into the local cache off the publish path.
// Only the newest pending snapshot is written.
func (e *ListingEngine) runMirror(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case products := <-e.mirror:
			if err := e.cache.InsertOrReplace(ctx, products); err != nil && ctx.Err() == nil {
				zap.L().Warn("Failed to mirror products into local cache",
					zap.String("user_id", e.userID),
					zap.Int("count", len(products)),
					zap.Error(err),
				)
			}
		}
	}
}
