package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"spendlog/internal/amqp"
	"spendlog/internal/kv"
	applog "spendlog/internal/log"

	"golang.org/x/sync/errgroup"
)

// ChangeConsumer delivers storage change messages to a handler until ctx ends.
type ChangeConsumer interface {
	ConsumeChanges(ctx context.Context, handler func(context.Context, *amqp.StorageChangeMessage) error) error
}

// MirrorWorker copies tracked keys from the primary store to a mirror store.
// Changes arrive as messages; a periodic reconcile covers lost messages and
// worker downtime.
type MirrorWorker struct {
	primary  kv.Store
	mirror   kv.Store
	interval time.Duration
	keys     []string
}

func NewMirrorWorker(primary, mirror kv.Store, interval time.Duration) *MirrorWorker {
	return &MirrorWorker{
		primary:  primary,
		mirror:   mirror,
		interval: interval,
		keys:     slices.Clone(kv.TrackedKeys),
	}
}

// HandleChange mirrors the key named by msg. Untracked keys are acknowledged
// and ignored. A returned error requeues the message.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.StorageChangeMessage) error {
	if !slices.Contains(w.keys, msg.Key) {
		slog.WarnContext(ctx, "Ignoring change for untracked key",
			applog.FieldComponent, applog.ComponentWorker,
			applog.FieldKey, msg.Key)
		return nil
	}

	changed, err := w.copyKey(ctx, msg.Key)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Processed change message",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldOperation, applog.OpSync,
		applog.FieldKey, msg.Key,
		"changed", changed,
		"published_at", msg.Timestamp)
	return nil
}

// Reconcile copies every tracked key whose mirror value differs from the
// primary. Failures on one key do not stop the others.
func (w *MirrorWorker) Reconcile(ctx context.Context) error {
	var errs []error
	synced := 0
	for _, key := range w.keys {
		changed, err := w.copyKey(ctx, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if changed {
			synced++
		}
	}

	slog.InfoContext(ctx, "Reconcile completed",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldOperation, applog.OpSync,
		"total", len(w.keys),
		"synced", synced,
		"errors", len(errs))

	return errors.Join(errs...)
}

// Run reconciles once, then consumes change messages and reconciles every
// interval until ctx is cancelled.
func (w *MirrorWorker) Run(ctx context.Context, consumer ChangeConsumer) error {
	if err := w.Reconcile(ctx); err != nil {
		slog.WarnContext(ctx, "Startup reconcile failed",
			applog.FieldComponent, applog.ComponentWorker,
			applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeChanges(gctx, w.HandleChange)
		})
	}
	if w.interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(w.interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := w.Reconcile(gctx); err != nil {
						slog.ErrorContext(gctx, "Periodic reconcile failed",
							applog.FieldComponent, applog.ComponentWorker,
							applog.FieldError, err)
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (w *MirrorWorker) copyKey(ctx context.Context, key string) (bool, error) {
	value, found, err := w.primary.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s from primary: %w", key, err)
	}
	if !found {
		return false, nil
	}

	current, found, err := w.mirror.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s from mirror: %w", key, err)
	}
	if found && bytes.Equal(current, value) {
		return false, nil
	}

	if err := w.mirror.Set(ctx, key, value); err != nil {
		return false, fmt.Errorf("write %s to mirror: %w", key, err)
	}
	return true, nil
}
