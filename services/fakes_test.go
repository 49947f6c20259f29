package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"pos-service/models"
	"pos-service/repository"
)

type memStore struct {
	mu         sync.Mutex
	products   map[string]models.Product
	puts       int
	updates    []string
	listErr    error
	failUpdate map[string]error
	failPutAt  int
}

func newMemStore(products ...models.Product) *memStore {
	s := &memStore{products: map[string]models.Product{}, failUpdate: map[string]error{}}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *memStore) ListByUser(ctx context.Context, userID string) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []models.Product{}
	for _, p := range s.products {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedOn < out[j].CreatedOn })
	return out, nil
}

func (s *memStore) FindByID(ctx context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *memStore) Put(ctx context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.failPutAt > 0 && s.puts == s.failPutAt {
		return errors.New("store unavailable")
	}
	s.products[product.ID] = *product
	return nil
}

func (s *memStore) UpdateQuantity(ctx context.Context, id string, quantity int, updatedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failUpdate[id]; err != nil {
		return err
	}
	p, ok := s.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Quantity = quantity
	p.LastUpdated = updatedAt
	s.products[id] = p
	s.updates = append(s.updates, id)
	return nil
}

func (s *memStore) get(id string) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *memStore) updateCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.updates...)
}

type memCache struct {
	mu       sync.Mutex
	products map[string]models.Product
	batches  [][]models.Product
	err      error
}

func newMemCache() *memCache {
	return &memCache{products: map[string]models.Product{}}
}

func (c *memCache) InsertOrReplace(ctx context.Context, products []models.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.batches = append(c.batches, append([]models.Product(nil), products...))
	for _, p := range products {
		c.products[p.ID] = p
	}
	return nil
}

func (c *memCache) GetAll(ctx context.Context, userID string) ([]models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	var out []models.Product
	for _, p := range c.products {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedOn < out[j].CreatedOn })
	return out, nil
}

func (c *memCache) GetByID(ctx context.Context, id string) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (c *memCache) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Quantity = quantity
	c.products[id] = p
	return nil
}

func (c *memCache) lastBatch() []models.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.batches) == 0 {
		return nil
	}
	return c.batches[len(c.batches)-1]
}

type memNotifier struct {
	mu    sync.Mutex
	users []string
}

func (n *memNotifier) NotifyChanged(ctx context.Context, userID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
	return nil
}

type memTxnRepo struct {
	mu     sync.Mutex
	nextID uint
	txns   []models.Transaction
	err    error
}

func (r *memTxnRepo) Create(ctx context.Context, txn *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.nextID++
	txn.ID = r.nextID
	r.txns = append(r.txns, *txn)
	return nil
}

func (r *memTxnRepo) FindByUser(ctx context.Context, userID string, page, limit int) ([]models.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Transaction
	for _, t := range r.txns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memTxnRepo) SummarizeSince(ctx context.Context, userID string, since int64) (*models.SalesSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	summary := &models.SalesSummary{}
	for _, t := range r.txns {
		if t.UserID == userID && t.CreatedOn >= since {
			summary.Count++
			summary.Total = summary.Total.Add(t.TotalAmount)
		}
	}
	return summary, nil
}

func (r *memTxnRepo) all() []models.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Transaction(nil), r.txns...)
}

type memCartRepo struct {
	mu    sync.Mutex
	carts map[string]models.Cart
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: map[string]models.Cart{}}
}

func (r *memCartRepo) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *memCartRepo) SaveCart(ctx context.Context, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[cart.UserID] = *cart
	return nil
}

func (r *memCartRepo) DeleteCart(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
	return nil
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}}
}

func (o *memObjects) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[key] = data
	return nil
}

func (o *memObjects) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	data, ok := o.objects[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (o *memObjects) Delete(ctx context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, key)
	return nil
}

func (o *memObjects) has(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.objects[key]
	return ok
}

type recordedEvent struct {
	topic string
	body  []byte
}

type memSNS struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (m *memSNS) Publish(ctx context.Context, topicArn string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, recordedEvent{topic: topicArn, body: message})
	return nil
}

func (m *memSNS) bodies() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.events {
		out = append(out, string(e.body))
	}
	return out
}

// chanFeed lets tests push snapshots by hand.
type chanFeed struct {
	ch       chan models.Snapshot
	released chan struct{}
}

func newChanFeed() *chanFeed {
	return &chanFeed{ch: make(chan models.Snapshot), released: make(chan struct{})}
}

func (f *chanFeed) Subscribe(ctx context.Context, userID string) <-chan models.Snapshot {
	out := make(chan models.Snapshot)
	go func() {
		defer close(f.released)
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-f.ch:
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
