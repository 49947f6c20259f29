package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pos-service/models"
	awspkg "pos-service/pkg/aws"
	"pos-service/repository"
)

const (
	// DefaultSuccessTTL is how long a finished import reads as Success before it reverts to Idle.
	DefaultSuccessTTL = 3 * time.Second
	// DefaultUploadLease bounds how long an Uploading state survives without a progress
	// write, so an import lost to a crash does not block the user forever.
	DefaultUploadLease = 2 * time.Minute
)

var (
	ErrEmptyImport      = errors.New("file contains no valid product rows")
	ErrImportInProgress = errors.New("an import is already in progress")
	ErrAsyncUnavailable = errors.New("asynchronous import is not configured")
)

// ProductWriter is the add-product write path imports go through.
type ProductWriter interface {
	InsertProduct(ctx context.Context, p *models.Product) error
}

type ImportService struct {
	products   ProductWriter
	states     repository.ImportStateStore
	objects    repository.ObjectStore
	queue      repository.JobQueue
	metrics    *awspkg.MetricsClient
	successTTL  time.Duration
	uploadLease time.Duration
	now         func() time.Time

	mu      sync.Mutex
	active  map[string]bool
	running sync.WaitGroup
}

// NewImportService wires the import workflow. objects and queue may be nil, in
// which case only synchronous imports are available.
func NewImportService(products ProductWriter, states repository.ImportStateStore, objects repository.ObjectStore, queue repository.JobQueue, metrics *awspkg.MetricsClient) *ImportService {
	return &ImportService{
		products:   products,
		states:     states,
		objects:    objects,
		queue:      queue,
		metrics:    metrics,
		successTTL:  DefaultSuccessTTL,
		uploadLease: DefaultUploadLease,
		now:         time.Now,
		active:      make(map[string]bool),
	}
}

func (s *ImportService) State(ctx context.Context, userID string) (models.ImportState, error) {
	return s.states.Get(ctx, userID)
}

// Dismiss returns a finished or failed import to Idle. An Uploading state left
// behind by an import this process is not running is cleared as well.
func (s *ImportService) Dismiss(ctx context.Context, userID string) error {
	if s.isActive(userID) {
		return ErrImportInProgress
	}
	return s.states.Clear(ctx, userID)
}

// Wait blocks until every running import has finished or ctx is done.
func (s *ImportService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Import parses the CSV and writes each product in order, reporting progress after
// every write. The first failed write stops the import; products already written
// stay. The work is not cancelled when ctx is.
func (s *ImportService) Import(ctx context.Context, userID string, r io.Reader) (*models.BulkImportResult, error) {
	ctx = context.WithoutCancel(ctx)

	if err := s.claim(ctx, userID); err != nil {
		return nil, err
	}
	defer s.release(userID)

	s.setState(ctx, userID, models.ImportUploading{Progress: 0}, s.uploadLease)

	parsed, err := ParseProductsCSV(r, userID, s.now())
	if err != nil {
		s.fail(ctx, userID, err.Error())
		return nil, err
	}

	result := &models.BulkImportResult{
		TotalRows:    parsed.TotalRows,
		ParsedCount:  len(parsed.Products),
		SkippedCount: parsed.Skipped,
	}
	if len(parsed.Products) == 0 {
		s.fail(ctx, userID, ErrEmptyImport.Error())
		return result, ErrEmptyImport
	}

	total := len(parsed.Products)
	for i := range parsed.Products {
		p := parsed.Products[i]
		if err := s.products.InsertProduct(ctx, &p); err != nil {
			result.Message = fmt.Sprintf("import stopped after %d of %d products", result.InsertedCount, total)
			s.fail(ctx, userID, fmt.Sprintf("%s: %v", result.Message, err))
			zap.L().Error("Bulk import write failed",
				zap.String("user_id", userID),
				zap.Int("inserted", result.InsertedCount),
				zap.Int("total", total),
				zap.Error(err),
			)
			return result, fmt.Errorf("%s: %w", result.Message, err)
		}
		result.InsertedCount++
		s.setState(ctx, userID, models.ImportUploading{Progress: (i + 1) * 100 / total}, s.uploadLease)
	}

	result.Message = fmt.Sprintf("imported %d products", result.InsertedCount)
	s.setState(ctx, userID, models.ImportSuccess{Inserted: result.InsertedCount}, s.successTTL)
	recordValue(s.metrics, awspkg.MetricProductsImported, float64(result.InsertedCount), nil)

	zap.L().Info("Bulk import completed",
		zap.String("user_id", userID),
		zap.Int("inserted", result.InsertedCount),
		zap.Int("skipped", result.SkippedCount),
	)
	return result, nil
}

// Enqueue stores the CSV in object storage and queues it for the import worker.
func (s *ImportService) Enqueue(ctx context.Context, userID string, r io.Reader) (*models.ImportJob, error) {
	if s.objects == nil || s.queue == nil {
		return nil, ErrAsyncUnavailable
	}
	if s.isActive(userID) {
		return nil, ErrImportInProgress
	}

	jobID := uuid.NewString()
	job := models.ImportJob{
		ID:        jobID,
		UserID:    userID,
		ObjectKey: fmt.Sprintf("imports/%s/%s.csv", userID, jobID),
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.objects.Put(ctx, job.ObjectKey, "text/csv", r); err != nil {
		return nil, fmt.Errorf("store import file: %w", err)
	}
	if err := s.queue.Push(ctx, job); err != nil {
		return nil, fmt.Errorf("queue import job: %w", err)
	}

	zap.L().Info("Bulk import queued", zap.String("job_id", jobID), zap.String("user_id", userID))
	return &job, nil
}

func (s *ImportService) claim(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[userID] {
		return ErrImportInProgress
	}
	state, err := s.states.Get(ctx, userID)
	if err != nil {
		return err
	}
	if _, uploading := state.(models.ImportUploading); uploading {
		return ErrImportInProgress
	}
	s.active[userID] = true
	s.running.Add(1)
	return nil
}

func (s *ImportService) release(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, userID)
	s.running.Done()
}

func (s *ImportService) isActive(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[userID]
}

func (s *ImportService) fail(ctx context.Context, userID, message string) {
	recordCount(s.metrics, awspkg.MetricImportsFailed, nil)
	s.setState(ctx, userID, models.ImportError{Message: message}, 0)
}

func (s *ImportService) setState(ctx context.Context, userID string, state models.ImportState, ttl time.Duration) {
	if err := s.states.Set(ctx, userID, state, ttl); err != nil {
		zap.L().Warn("Failed to store import state", zap.String("user_id", userID), zap.Error(err))
	}
}
