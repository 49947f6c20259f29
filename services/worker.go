package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"pos-service/repository"
)

// ImportWorker consumes queued import jobs and runs them through the ImportService.
type ImportWorker struct {
	queue      repository.JobQueue
	objects    repository.ObjectStore
	imports    *ImportService
	retryDelay time.Duration
	done       chan struct{}
}

func NewImportWorker(queue repository.JobQueue, objects repository.ObjectStore, imports *ImportService) *ImportWorker {
	return &ImportWorker{
		queue:      queue,
		objects:    objects,
		imports:    imports,
		retryDelay: 2 * time.Second,
		done:       make(chan struct{}),
	}
}

// Start runs the worker loop in the background until ctx is cancelled.
func (w *ImportWorker) Start(ctx context.Context) {
	if w.queue == nil || w.objects == nil || w.imports == nil {
		zap.L().Warn("bulk import worker not started: missing dependencies")
		close(w.done)
		return
	}

	go func() {
		defer close(w.done)
		zap.L().Info("bulk import worker started")
		for {
			select {
			case <-ctx.Done():
				zap.L().Info("bulk import worker stopping")
				return
			default:
			}

			err := w.ProcessNext(ctx)
			switch {
			case err == nil, errors.Is(err, repository.ErrQueueEmpty):
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return
			default:
				zap.L().Error("bulk import job failed", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(w.retryDelay):
				}
			}
		}
	}()
}

// Done is closed once the worker loop has returned.
func (w *ImportWorker) Done() <-chan struct{} {
	return w.done
}

// ProcessNext handles one job. A job whose user already has an import running is
// put back on the queue.
func (w *ImportWorker) ProcessNext(ctx context.Context) error {
	job, ack, err := w.queue.Pop(ctx)
	if err != nil {
		return err
	}
	log := zap.L().With(zap.String("job_id", job.ID), zap.String("user_id", job.UserID))

	body, err := w.objects.Get(ctx, job.ObjectKey)
	if err != nil {
		log.Error("Failed to fetch import file", zap.String("key", job.ObjectKey), zap.Error(err))
		w.imports.fail(context.WithoutCancel(ctx), job.UserID, "import file could not be read")
		return ack(ctx)
	}
	defer body.Close()

	_, err = w.imports.Import(ctx, job.UserID, body)
	if errors.Is(err, ErrImportInProgress) {
		log.Info("Import already running, requeueing job")
		if ackErr := ack(ctx); ackErr != nil {
			return ackErr
		}
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
		return w.queue.Push(context.WithoutCancel(ctx), *job)
	}
	if err != nil {
		log.Warn("Bulk import finished with error", zap.Error(err))
	}

	if delErr := w.objects.Delete(ctx, job.ObjectKey); delErr != nil {
		log.Warn("Failed to delete import file", zap.Error(delErr))
	}
	return ack(ctx)
}
