package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar-date format records are stored with.
const DateLayout = "2006-01-02"

// ReservedCategory collides with the period label key of a chart point.
const ReservedCategory = "name"

type (
	// Record is one spending entry as persisted under the records key.
	Record struct {
		ID       string  `json:"id,omitempty"`
		Date     string  `json:"date"`
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Note     string  `json:"note"`
	}
)

var (
	ErrEmptyDate        = errors.New("empty date")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyCategory    = errors.New("empty category")
	ErrReservedCategory = errors.New(`category name "name" is reserved`)
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrRecordNotFound   = errors.New("record not found")
)

var defaultCategories = []string{
	"Food",
	"Transport",
	"Utilities",
	"Entertainment",
	"Health",
	"Shopping",
	"Education",
	"Other",
}

// DefaultCategories returns a fresh copy of the seed category list.
func DefaultCategories() []string {
	return append([]string(nil), defaultCategories...)
}

// CheckCategory validates a category name as it would be stored.
func CheckCategory(name string) error {
	switch strings.TrimSpace(name) {
	case "":
		return ErrEmptyCategory
	case ReservedCategory:
		return ErrReservedCategory
	}
	return nil
}

// Validate checks a record about to be created. Stored records are never
// re-validated.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Date) == "" {
		return ErrEmptyDate
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return ErrInvalidDate
	}
	if err := CheckCategory(r.Category); err != nil {
		return err
	}
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) || r.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Same reports whether two records denote the same entry. Records carrying an
// ID are compared by ID; legacy records without one fall back to value equality.
func (r Record) Same(o Record) bool {
	if r.ID != "" || o.ID != "" {
		return r.ID == o.ID
	}
	return r.Date == o.Date &&
		r.Category == o.Category &&
		r.Amount == o.Amount &&
		r.Note == o.Note
}

// Month returns the "YYYY-MM" prefix of the record date, or "" when the date
// is too short to carry one.
func (r Record) Month() string {
	if len(r.Date) < 7 {
		return ""
	}
	return r.Date[:7]
}

// ContainsCategory reports whether name is present in categories (exact match).
func ContainsCategory(categories []string, name string) bool {
	for _, c := range categories {
		if c == name {
			return true
		}
	}
	return false
}
