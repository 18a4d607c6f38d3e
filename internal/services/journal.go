package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"spendlog/internal/core"
	applog "spendlog/internal/log"

	"github.com/google/uuid"
)

// JournalService implements the journal operations: adding records and
// categories, listing with a category filter, and deleting records.
// Mutations are serialized so concurrent requests cannot lose writes.
type JournalService struct {
	mu       sync.Mutex
	accessor *Accessor
	newID    func() string
}

func NewJournalService(accessor *Accessor) *JournalService {
	return &JournalService{
		accessor: accessor,
		newID:    func() string { return uuid.New().String() },
	}
}

// NewForm returns the initial add-record form state.
func (s *JournalService) NewForm(ctx context.Context) core.Form {
	return core.NewForm(s.accessor.LoadCategories(ctx))
}

// AddRecord validates the form and, on success, persists a new record and
// resets the form. A rejected form leaves both storage and form unchanged.
func (s *JournalService) AddRecord(ctx context.Context, form *core.Form) (core.Record, error) {
	record, err := form.Record()
	if err != nil {
		slog.DebugContext(ctx, "Record rejected", applog.NewFields().
			WithComponent(applog.ComponentJournal).
			WithOperation(applog.OpValidate).
			WithError(err).
			Args()...)
		return core.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.accessor.CategoriesForUpdate(ctx)
	if err != nil {
		return core.Record{}, fmt.Errorf("add record: %w", err)
	}
	records, err := s.accessor.RecordsForUpdate(ctx)
	if err != nil {
		return core.Record{}, fmt.Errorf("add record: %w", err)
	}

	if !core.ContainsCategory(categories, record.Category) {
		categories = append(categories, record.Category)
		if err := s.accessor.SaveCategories(ctx, categories); err != nil {
			return core.Record{}, fmt.Errorf("add record: %w", err)
		}
	}

	record.ID = s.newID()
	records = append(records, record)
	if err := s.accessor.SaveRecords(ctx, records); err != nil {
		return core.Record{}, fmt.Errorf("add record: %w", err)
	}

	slog.InfoContext(ctx, "Record created", applog.NewFields().
		WithComponent(applog.ComponentJournal).
		WithOperation(applog.OpCreate).
		WithRecord(record.ID, record.Category, record.Amount).
		Args()...)

	form.Reset(categories)
	return record, nil
}

// AddCategory appends a trimmed category name. Exact duplicates are accepted
// as a no-op and reported with added=false.
func (s *JournalService) AddCategory(ctx context.Context, name string) (added bool, err error) {
	name = strings.TrimSpace(name)
	if err := core.CheckCategory(name); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.accessor.CategoriesForUpdate(ctx)
	if err != nil {
		return false, fmt.Errorf("add category: %w", err)
	}
	if core.ContainsCategory(categories, name) {
		return false, nil
	}
	if err := s.accessor.SaveCategories(ctx, append(categories, name)); err != nil {
		return false, fmt.Errorf("add category: %w", err)
	}

	slog.InfoContext(ctx, "Category added",
		applog.FieldComponent, applog.ComponentJournal,
		applog.FieldOperation, applog.OpCreate,
		applog.FieldCategory, name)
	return true, nil
}

// ListRecords returns persisted records, filtered by category when one is given.
func (s *JournalService) ListRecords(ctx context.Context, category string) []core.Record {
	return core.FilterByCategory(s.accessor.LoadRecords(ctx), category)
}

// Categories returns the persisted category list.
func (s *JournalService) Categories(ctx context.Context) []string {
	return s.accessor.LoadCategories(ctx)
}

// DeleteRecord removes the record with the given id.
func (s *JournalService) DeleteRecord(ctx context.Context, id string) (core.Record, error) {
	if id == "" {
		return core.Record{}, core.ErrRecordNotFound
	}
	return s.deleteMatching(ctx, core.Record{ID: id})
}

// DeleteAt removes the record shown at position in the list filtered by
// category. The position is resolved against the unfiltered list, so exactly
// one record is removed and the others keep their relative order.
func (s *JournalService) DeleteAt(ctx context.Context, position int, category string) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.accessor.RecordsForUpdate(ctx)
	if err != nil {
		return core.Record{}, fmt.Errorf("delete record: %w", err)
	}
	visible := core.FilterByCategory(records, category)
	if position < 0 || position >= len(visible) {
		return core.Record{}, fmt.Errorf("%w: position %d", core.ErrRecordNotFound, position)
	}
	return s.removeLocked(ctx, records, visible[position])
}

func (s *JournalService) deleteMatching(ctx context.Context, target core.Record) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.accessor.RecordsForUpdate(ctx)
	if err != nil {
		return core.Record{}, fmt.Errorf("delete record: %w", err)
	}
	return s.removeLocked(ctx, records, target)
}

func (s *JournalService) removeLocked(ctx context.Context, records []core.Record, target core.Record) (core.Record, error) {
	for i, r := range records {
		if !r.Same(target) {
			continue
		}
		remaining := make([]core.Record, 0, len(records)-1)
		remaining = append(remaining, records[:i]...)
		remaining = append(remaining, records[i+1:]...)
		if err := s.accessor.SaveRecords(ctx, remaining); err != nil {
			return core.Record{}, fmt.Errorf("delete record: %w", err)
		}

		slog.InfoContext(ctx, "Record deleted",
			applog.FieldComponent, applog.ComponentJournal,
			applog.FieldOperation, applog.OpDelete,
			applog.FieldRecordID, r.ID,
			applog.FieldCategory, r.Category)
		return r, nil
	}
	return core.Record{}, core.ErrRecordNotFound
}
