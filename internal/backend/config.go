package backend

import (
	"errors"

	"spendlog/internal/config"
	"spendlog/internal/kv/google"
)

// Primary describes the store named by DATA_BACKEND. Its writes are published
// when an AMQP URL is configured.
func Primary(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("nil app config")
	}
	c, err := describe(cfg, cfg.DataBackend)
	if err != nil {
		return Config{}, err
	}
	if cfg.AMQPURL != "" {
		c.Publish = &Publish{URL: cfg.AMQPURL, Exchange: cfg.AMQPExchange, Queue: cfg.AMQPQueue}
	}
	return c, nil
}

// Mirror describes the store named by MIRROR_BACKEND. Mirror writes are never
// published, otherwise the worker would consume its own changes.
func Mirror(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("nil app config")
	}
	return describe(cfg, cfg.MirrorBackend)
}

func describe(cfg *config.Config, name string) (Config, error) {
	kind, err := ParseKind(name)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Kind:          kind,
		DataDirectory: cfg.DataDirectory,
		SQLitePath:    cfg.SQLiteDBPath,
		Sheets: google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		},
	}, nil
}
