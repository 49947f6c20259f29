package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pos-service/models"
	awspkg "pos-service/pkg/aws"
	"pos-service/repository"
)

const defaultSessionIdle = 15 * time.Minute

var (
	ErrProductUnavailable = errors.New("product is not available for sale")
	ErrCheckoutStopped    = errors.New("checkout service stopped")
)

// PartialCheckoutError reports a checkout whose transaction was recorded but
// whose stock updates did not all complete. The cart keeps its items and
// remembers the transaction, so the next Checkout writes only the products
// missing from Applied.
type PartialCheckoutError struct {
	TransactionID uint
	Applied       []string
	FailedProduct string
	Err           error
}

func (e *PartialCheckoutError) Error() string {
	return fmt.Sprintf("transaction %d recorded but stock update failed for product %q after %d of the products were updated: %v",
		e.TransactionID, e.FailedProduct, len(e.Applied), e.Err)
}

func (e *PartialCheckoutError) Unwrap() error { return e.Err }

// Inventory is what the sale flow needs from the product write path.
type Inventory interface {
	GetProduct(ctx context.Context, userID, id string) (*models.Product, error)
	ListProducts(ctx context.Context, userID, query string, opt models.SortOption) ([]models.Product, bool, error)
	UpdateQuantity(ctx context.Context, userID, id string, quantity int) error
}

type cartOp func(ctx context.Context, cart models.Cart) (models.Cart, *models.Transaction, error)

type cartCommand struct {
	ctx   context.Context
	op    cartOp
	reply chan cartReply
}

type cartReply struct {
	cart models.Cart
	txn  *models.Transaction
	err  error
}

type cartSession struct {
	commands chan cartCommand
	done     chan struct{}
}

// CheckoutService owns every user's sale cart. Each user gets one goroutine that
// applies cart commands in order, so a cart only ever has a single writer.
type CheckoutService struct {
	carts     repository.CartRepository
	txns      repository.TransactionRepository
	inventory Inventory
	events    *EventPublisher
	metrics   *awspkg.MetricsClient
	idle      time.Duration
	now       func() time.Time

	root     context.Context
	stop     context.CancelFunc
	mu       sync.Mutex
	sessions map[string]*cartSession
	wg       sync.WaitGroup
}

func NewCheckoutService(carts repository.CartRepository, txns repository.TransactionRepository, inventory Inventory, events *EventPublisher, metrics *awspkg.MetricsClient) *CheckoutService {
	root, stop := context.WithCancel(context.Background())
	return &CheckoutService{
		carts:     carts,
		txns:      txns,
		inventory: inventory,
		events:    events,
		metrics:   metrics,
		idle:      defaultSessionIdle,
		now:       time.Now,
		root:      root,
		stop:      stop,
		sessions:  make(map[string]*cartSession),
	}
}

// Shutdown stops all cart sessions after their current command.
func (s *CheckoutService) Shutdown() {
	s.stop()
	s.wg.Wait()
}

func (s *CheckoutService) Cart(ctx context.Context, userID string) (models.Cart, error) {
	cart, _, err := s.do(ctx, userID, nil)
	return cart, err
}

// SelectProduct makes productID the active product with a pending quantity of 1.
func (s *CheckoutService) SelectProduct(ctx context.Context, userID, productID string) (models.Cart, error) {
	cart, _, err := s.do(ctx, userID, func(ctx context.Context, cart models.Cart) (models.Cart, *models.Transaction, error) {
		p, err := s.inventory.GetProduct(ctx, userID, productID)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				return cart, nil, ErrProductUnavailable
			}
			return cart, nil, err
		}
		return SelectProduct(cart, *p), nil, nil
	})
	return cart, err
}

func (s *CheckoutService) IncrementQuantity(ctx context.Context, userID string) (models.Cart, error) {
	cart, _, err := s.do(ctx, userID, func(_ context.Context, cart models.Cart) (models.Cart, *models.Transaction, error) {
		return IncrementQuantity(cart), nil, nil
	})
	return cart, err
}

func (s *CheckoutService) DecrementQuantity(ctx context.Context, userID string) (models.Cart, error) {
	cart, _, err := s.do(ctx, userID, func(_ context.Context, cart models.Cart) (models.Cart, *models.Transaction, error) {
		return DecrementQuantity(cart), nil, nil
	})
	return cart, err
}

func (s *CheckoutService) AddItem(ctx context.Context, userID string) (models.Cart, error) {
	cart, _, err := s.do(ctx, userID, func(_ context.Context, cart models.Cart) (models.Cart, *models.Transaction, error) {
		next, err := AddActive(cart, s.now().UnixMilli())
		return next, nil, err
	})
	return cart, err
}

func (s *CheckoutService) RemoveItem(ctx context.Context, userID string, index int) (models.Cart, error) {
	cart, _, err := s.do(ctx, userID, func(_ context.Context, cart models.Cart) (models.Cart, *models.Transaction, error) {
		next, err := RemoveAt(cart, index)
		return next, nil, err
	})
	return cart, err
}

// Checkout records the cart as one transaction and then writes the new stock
// level of every distinct product sold, one product at a time. An empty cart
// returns a nil transaction and writes nothing. The writes are not cancelled
// when ctx is. Retrying after a PartialCheckoutError reuses the recorded
// transaction and skips the products already written.
func (s *CheckoutService) Checkout(ctx context.Context, userID string) (*models.Transaction, models.Cart, error) {
	cart, txn, err := s.do(ctx, userID, func(ctx context.Context, cart models.Cart) (models.Cart, *models.Transaction, error) {
		return s.checkout(context.WithoutCancel(ctx), userID, cart)
	})
	return txn, cart, err
}

func (s *CheckoutService) checkout(ctx context.Context, userID string, cart models.Cart) (models.Cart, *models.Transaction, error) {
	if len(cart.Items) == 0 {
		return cart, nil, nil
	}

	txn, applied, err := s.beginCheckout(ctx, userID, cart)
	if err != nil {
		return cart, nil, err
	}
	log := zap.L().With(zap.String("user_id", userID), zap.Uint("transaction_id", txn.ID))

	products, _, err := s.inventory.ListProducts(ctx, userID, "", models.SortNameAsc)
	if err != nil {
		recordCount(s.metrics, awspkg.MetricCheckoutsPartial, nil)
		log.Error("Checkout could not load products for stock update", zap.Error(err))
		return withPendingCheckout(cart, txn, applied), nil, &PartialCheckoutError{TransactionID: txn.ID, Applied: applied, Err: err}
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	done := make(map[string]bool, len(applied))
	for _, id := range applied {
		done[id] = true
	}

	var alerts []models.StockAlertEvent
	for _, sold := range aggregateSold(cart.Items) {
		if done[sold.productID] {
			continue
		}
		p, ok := byID[sold.productID]
		if !ok {
			log.Warn("Sold product no longer listed, stock not updated", zap.String("product_id", sold.productID))
			continue
		}
		remaining := p.Quantity - sold.quantity
		if err := s.inventory.UpdateQuantity(ctx, userID, p.ID, remaining); err != nil {
			recordCount(s.metrics, awspkg.MetricCheckoutsPartial, nil)
			log.Error("Checkout stock update failed",
				zap.String("product_id", p.ID),
				zap.Strings("applied", applied),
				zap.Error(err),
			)
			return withPendingCheckout(cart, txn, applied), nil, &PartialCheckoutError{TransactionID: txn.ID, Applied: applied, FailedProduct: p.ID, Err: err}
		}
		applied = append(applied, p.ID)

		if !p.IsLowStock() && float64(remaining) < p.ThresholdValue {
			alerts = append(alerts, models.StockAlertEvent{
				Event:          EventStockLow,
				UserID:         userID,
				ProductID:      p.ID,
				ProductName:    p.Name,
				Quantity:       remaining,
				ThresholdValue: p.ThresholdValue,
				Timestamp:      txn.CreatedOn,
			})
		}
	}

	s.events.Publish(ctx, EventTransactionRecorded, models.TransactionEvent{
		Event:         EventTransactionRecorded,
		TransactionID: txn.ID,
		UserID:        userID,
		TotalAmount:   txn.TotalAmount,
		ItemCount:     len(txn.Items),
		CreatedOn:     txn.CreatedOn,
	})
	for _, alert := range alerts {
		s.events.Publish(ctx, EventStockLow, alert)
		recordCount(s.metrics, awspkg.MetricInventoryLow, nil)
	}
	recordCount(s.metrics, awspkg.MetricCheckouts, nil)

	log.Info("Checkout completed",
		zap.Int("items", len(txn.Items)),
		zap.String("total", txn.TotalAmount.StringFixed(2)),
		zap.Strings("products", applied),
	)
	return ClearCart(cart), txn, nil
}

// beginCheckout records a new transaction for the cart, or rebuilds the one an
// earlier partial checkout already recorded along with the products it wrote.
func (s *CheckoutService) beginCheckout(ctx context.Context, userID string, cart models.Cart) (*models.Transaction, []string, error) {
	txn := &models.Transaction{
		UserID:      userID,
		Items:       append([]models.SaleItem(nil), cart.Items...),
		TotalAmount: cart.Total,
	}
	if pending := cart.Checkout; pending != nil {
		txn.ID = pending.TransactionID
		txn.CreatedOn = pending.CreatedOn
		zap.L().Info("Resuming partial checkout",
			zap.String("user_id", userID),
			zap.Uint("transaction_id", txn.ID),
			zap.Strings("applied", pending.Applied),
		)
		return txn, append([]string(nil), pending.Applied...), nil
	}

	txn.CreatedOn = s.now().UnixMilli()
	if err := s.txns.Create(ctx, txn); err != nil {
		return nil, nil, fmt.Errorf("record transaction: %w", err)
	}
	return txn, nil, nil
}

func withPendingCheckout(cart models.Cart, txn *models.Transaction, applied []string) models.Cart {
	next := cloneCart(cart)
	next.Checkout = &models.PendingCheckout{
		TransactionID: txn.ID,
		CreatedOn:     txn.CreatedOn,
		Applied:       append([]string(nil), applied...),
	}
	return next
}

func (s *CheckoutService) do(ctx context.Context, userID string, op cartOp) (models.Cart, *models.Transaction, error) {
	for {
		sess, err := s.session(userID)
		if err != nil {
			return models.Cart{}, nil, err
		}
		reply := make(chan cartReply, 1)

		select {
		case sess.commands <- cartCommand{ctx: ctx, op: op, reply: reply}:
		case <-sess.done:
			continue
		case <-ctx.Done():
			return models.Cart{}, nil, ctx.Err()
		}

		select {
		case r := <-reply:
			return r.cart, r.txn, r.err
		case <-ctx.Done():
			return models.Cart{}, nil, ctx.Err()
		}
	}
}

func (s *CheckoutService) session(userID string) (*cartSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.root.Err() != nil {
		return nil, ErrCheckoutStopped
	}
	if sess, ok := s.sessions[userID]; ok {
		return sess, nil
	}
	sess := &cartSession{commands: make(chan cartCommand), done: make(chan struct{})}
	s.sessions[userID] = sess
	s.wg.Add(1)
	go s.runSession(userID, sess)
	return sess, nil
}

func (s *CheckoutService) runSession(userID string, sess *cartSession) {
	defer s.wg.Done()
	defer close(sess.done)
	defer func() {
		s.mu.Lock()
		if s.sessions[userID] == sess {
			delete(s.sessions, userID)
		}
		s.mu.Unlock()
	}()

	cart := s.loadCart(userID)
	idle := time.NewTimer(s.idle)
	defer idle.Stop()

	for {
		select {
		case <-s.root.Done():
			return
		case <-idle.C:
			return
		case cmd := <-sess.commands:
			if cmd.op == nil {
				cmd.reply <- cartReply{cart: cart}
			} else {
				next, txn, err := cmd.op(cmd.ctx, cart)
				var partial *PartialCheckoutError
				if err == nil || errors.As(err, &partial) {
					cart = next
					s.saveCart(cart)
				}
				cmd.reply <- cartReply{cart: cart, txn: txn, err: err}
			}

			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(s.idle)
		}
	}
}

func (s *CheckoutService) loadCart(userID string) models.Cart {
	ctx, cancel := context.WithTimeout(s.root, 5*time.Second)
	defer cancel()

	stored, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		zap.L().Warn("Failed to load saved cart, starting empty", zap.String("user_id", userID), zap.Error(err))
	}
	if stored == nil {
		return NewCart(userID)
	}
	if stored.Items == nil {
		stored.Items = []models.SaleItem{}
	}
	if stored.PendingQuantity < 1 {
		stored.PendingQuantity = 1
	}
	stored.UserID = userID
	return *stored
}

func (s *CheckoutService) saveCart(cart models.Cart) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.root), 5*time.Second)
	defer cancel()

	var err error
	if len(cart.Items) == 0 && cart.Active == nil {
		err = s.carts.DeleteCart(ctx, cart.UserID)
	} else {
		err = s.carts.SaveCart(ctx, &cart)
	}
	if err != nil {
		zap.L().Warn("Failed to persist cart", zap.String("user_id", cart.UserID), zap.Error(err))
	}
}
