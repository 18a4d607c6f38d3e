// Package backend opens the key-value store the journal runs on.
package backend

import (
	"errors"
	"fmt"
	"slices"

	"spendlog/internal/adapters"
	"spendlog/internal/kv/google"
)

// Kind names a storage backend.
type Kind string

const (
	Memory Kind = "memory"
	SQLite Kind = "sqlite"
	Sheets Kind = "sheets"
)

// Kinds returns every accepted backend.
func Kinds() []Kind {
	return []Kind{Memory, SQLite, Sheets}
}

// ParseKind accepts the names used by DATA_BACKEND and MIRROR_BACKEND.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !slices.Contains(Kinds(), k) {
		return "", fmt.Errorf("unknown backend %q: want one of %v", s, Kinds())
	}
	return k, nil
}

// Publish turns on change publishing for writes made through the store.
type Publish struct {
	URL      string
	Exchange string
	Queue    string
}

// Config describes one store. Only the fields of the chosen Kind are read.
type Config struct {
	Kind Kind

	// DataDirectory seeds the memory store; defaults to "data".
	DataDirectory string
	SQLitePath    string
	Sheets        google.Config

	// Publish is nil when writes stay local.
	Publish *Publish
}

func (c Config) check() error {
	switch c.Kind {
	case Memory:
		return nil
	case SQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite backend needs a database path")
		}
	case Sheets:
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("sheets backend needs a spreadsheet id")
		}
		if c.Sheets.CredentialsJSON == "" && c.Sheets.CredentialsFile == "" {
			return errors.New("sheets backend needs service account credentials")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Kind)
	}
	return nil
}

// Backend is an opened store plus whatever must be released with it.
type Backend struct {
	// Store notifies in-process subscribers on every write and publishes the
	// change when Publish was set.
	Store *adapters.ObservedStore

	closers []func() error
}

// Close releases resources in reverse order of acquisition. It is safe on a
// nil Backend.
func (b *Backend) Close() error {
	if b == nil {
		return nil
	}
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
