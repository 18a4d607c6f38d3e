package core

import (
	"errors"
	"fmt"
	"strings"
)

// Form field names accepted by Form.Set.
const (
	FieldDate     = "date"
	FieldCategory = "category"
	FieldAmount   = "amount"
	FieldNote     = "note"
)

var ErrUnknownField = errors.New("unknown form field")

// Form is the add-record input state. Amount is kept as typed text.
type Form struct {
	Date     string `json:"date"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Note     string `json:"note"`
}

// NewForm returns an empty form with the first category selected.
func NewForm(categories []string) Form {
	var f Form
	f.Reset(categories)
	return f
}

// Set updates one field. Amount input is normalized so that anything not a
// positive number is held as "0".
func (f *Form) Set(field, value string) error {
	switch field {
	case FieldDate:
		f.Date = value
	case FieldCategory:
		f.Category = value
	case FieldAmount:
		f.Amount = NormalizeAmountInput(value)
	case FieldNote:
		f.Note = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// Reset clears the form and selects the first category, or none when the
// list is empty.
func (f *Form) Reset(categories []string) {
	*f = Form{}
	if len(categories) > 0 {
		f.Category = categories[0]
	}
}

// Record converts the form into a validated record (without an ID).
func (f Form) Record() (Record, error) {
	r := Record{
		Date:     strings.TrimSpace(f.Date),
		Category: strings.TrimSpace(f.Category),
		Note:     f.Note,
	}
	// An unparseable amount stays zero and is reported by Validate.
	if amount, err := ParseAmount(f.Amount); err == nil {
		r.Amount = amount.InexactFloat64()
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}
