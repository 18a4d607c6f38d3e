package backend

import (
	"context"
	"fmt"
	"log/slog"

	"spendlog/internal/adapters"
	"spendlog/internal/amqp"
	"spendlog/internal/kv"
	"spendlog/internal/kv/google"
	"spendlog/internal/kv/memory"
	applog "spendlog/internal/log"
	"spendlog/internal/storage"
)

// Opener turns a Config into a ready Backend.
type Opener struct {
	logger *slog.Logger
}

func NewOpener(logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{logger: logger.With(applog.FieldComponent, applog.ComponentBackend)}
}

// Open validates c and opens the store it describes. A broker that cannot be
// reached is logged and skipped; the store still works without publishing.
func (o *Opener) Open(ctx context.Context, c Config) (*Backend, error) {
	if err := c.check(); err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}

	b := &Backend{}
	store, err := o.openStore(ctx, c, b)
	if err != nil {
		return nil, err
	}

	var publisher adapters.ChangePublisher
	if p := c.Publish; p != nil {
		client, err := amqp.NewClient(p.URL, p.Exchange, p.Queue)
		if err != nil {
			o.logger.Warn("Change publishing disabled, broker unreachable", applog.FieldError, err)
		} else {
			o.logger.Info("Publishing changes", "exchange", p.Exchange, "queue", p.Queue)
			publisher = client
			b.closers = append(b.closers, client.Close)
		}
	}

	b.Store = adapters.NewObservedStore(store, publisher)
	return b, nil
}

func (o *Opener) openStore(ctx context.Context, c Config, b *Backend) (kv.Store, error) {
	switch c.Kind {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(c.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		b.closers = append(b.closers, repo.Close)
		o.logger.Info("Opened SQLite store", "db_path", c.SQLitePath)
		return repo, nil

	case Sheets:
		client, err := google.New(ctx, c.Sheets)
		if err != nil {
			return nil, fmt.Errorf("open sheets store: %w", err)
		}
		o.logger.Info("Opened Google Sheets store", "spreadsheet_id", c.Sheets.SpreadsheetID)
		return client, nil

	default:
		dir := c.DataDirectory
		if dir == "" {
			dir = "data"
		}
		o.logger.Info("Opened memory store", "data_directory", dir)
		return memory.NewFromFiles(dir), nil
	}
}
