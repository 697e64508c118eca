// Package validator applies per-field business rules to parsed rows. Every
// field is checked independently so a single pass can report all problems in
// a row, each tagged with a machine-readable code.
package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nullroute-commits/financial-stronghold-sub002/pkg/money"
)

// Machine error codes carried on validation errors
const (
	CodeMissingAmount       = "MISSING_AMOUNT"
	CodeInvalidAmountFormat = "INVALID_AMOUNT_FORMAT"
	CodeZeroAmount          = "ZERO_AMOUNT"
	CodeAmountTooLarge      = "AMOUNT_TOO_LARGE"
	CodeMissingDate         = "MISSING_DATE"
	CodeInvalidDateFormat   = "INVALID_DATE_FORMAT"
	CodeFutureDate          = "FUTURE_DATE"
	CodeDateTooOld          = "DATE_TOO_OLD"
	CodeMissingDescription  = "MISSING_DESCRIPTION"
	CodeDescriptionTooLong  = "DESCRIPTION_TOO_LONG"
	CodeDescriptionTooShort = "DESCRIPTION_TOO_SHORT"
	CodeUnsupportedCurrency = "UNSUPPORTED_CURRENCY"
)

// Business rule limits
const (
	MaxDescriptionLength = 500
	MinDescriptionLength = 2
)

// MaxAmount is the absolute value cap on a single transaction amount.
var MaxAmount = decimal.NewFromInt(10_000_000)

// MinDate is the oldest acceptable transaction date.
var MinDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// dateFormats is attempted in order; the first successful parse wins. The
// ordering resolves MM/DD vs DD/MM ambiguity deliberately in favor of the US
// form, matching documented behavior rather than locale detection.
var dateFormats = []string{
	"2006-01-02", // ISO
	"01/02/2006", // US
	"02/01/2006", // EU
	"2006/01/02",
	"01-02-2006",
	"02-01-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"2 January 2006",
}

// FieldError is one rejected field within a row.
type FieldError struct {
	Field      string
	Code       string
	Message    string
	Suggestion string
	RawValue   string
}

// Warning is a non-blocking field issue; the row still imports.
type Warning struct {
	Field   string
	Code    string
	Message string
}

// RowResult is the outcome of validating one row. When Valid is true the
// typed fields are populated; otherwise Errors explains every failure.
type RowResult struct {
	RowNumber   int
	Valid       bool
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	Currency    string
	Warnings    []Warning
	Errors      []FieldError
}

// Validator checks rows against the import business rules. The clock is
// injectable so date-boundary rules are testable.
type Validator struct {
	now func() time.Time
}

func New() *Validator {
	return &Validator{now: time.Now}
}

func NewWithClock(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// ValidateRow checks the canonical fields of one row. Field checks never
// short-circuit each other; a row can accumulate an error per field.
func (v *Validator) ValidateRow(fields map[string]string, rowNumber int) RowResult {
	result := RowResult{RowNumber: rowNumber}

	amount, amountErrs := v.validateAmount(fields["amount"])
	result.Errors = append(result.Errors, amountErrs...)

	date, dateErrs := v.validateDate(fields["date"])
	result.Errors = append(result.Errors, dateErrs...)

	description, descErrs := v.validateDescription(fields["description"])
	result.Errors = append(result.Errors, descErrs...)

	currency, warning := v.validateCurrency(fields["currency"])
	if warning != nil {
		result.Warnings = append(result.Warnings, *warning)
	}

	if len(result.Errors) > 0 {
		return result
	}

	result.Valid = true
	result.Amount = amount
	result.Date = date
	result.Description = description
	result.Currency = currency
	return result
}

func (v *Validator) validateAmount(raw string) (decimal.Decimal, []FieldError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, []FieldError{{
			Field:   "amount",
			Code:    CodeMissingAmount,
			Message: "amount is required",
		}}
	}

	amount, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, []FieldError{{
			Field:    "amount",
			Code:     CodeInvalidAmountFormat,
			Message:  fmt.Sprintf("could not parse amount %q", raw),
			RawValue: raw,
		}}
	}

	var errs []FieldError
	if amount.IsZero() {
		errs = append(errs, FieldError{
			Field:    "amount",
			Code:     CodeZeroAmount,
			Message:  "amount must be non-zero",
			RawValue: raw,
		})
	}
	if amount.Abs().GreaterThan(MaxAmount) {
		errs = append(errs, FieldError{
			Field:      "amount",
			Code:       CodeAmountTooLarge,
			Message:    fmt.Sprintf("amount exceeds the %s limit", MaxAmount.String()),
			Suggestion: "verify the amount is correct",
			RawValue:   raw,
		})
	}
	return amount, errs
}

func (v *Validator) validateDate(raw string) (time.Time, []FieldError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, []FieldError{{
			Field:   "date",
			Code:    CodeMissingDate,
			Message: "date is required",
		}}
	}

	parsed, ok := parseDate(raw)
	if !ok {
		return time.Time{}, []FieldError{{
			Field:    "date",
			Code:     CodeInvalidDateFormat,
			Message:  fmt.Sprintf("unrecognized date format %q", raw),
			RawValue: raw,
		}}
	}

	today := v.today()
	if parsed.After(today) {
		return time.Time{}, []FieldError{{
			Field:    "date",
			Code:     CodeFutureDate,
			Message:  "date is in the future",
			RawValue: raw,
		}}
	}
	if parsed.Before(MinDate) {
		return time.Time{}, []FieldError{{
			Field:    "date",
			Code:     CodeDateTooOld,
			Message:  fmt.Sprintf("date predates %s", MinDate.Format("2006-01-02")),
			RawValue: raw,
		}}
	}
	return parsed, nil
}

func (v *Validator) validateDescription(raw string) (string, []FieldError) {
	desc := strings.TrimSpace(raw)
	switch {
	case desc == "":
		return "", []FieldError{{
			Field:   "description",
			Code:    CodeMissingDescription,
			Message: "description is required",
		}}
	case len(desc) > MaxDescriptionLength:
		return "", []FieldError{{
			Field:      "description",
			Code:       CodeDescriptionTooLong,
			Message:    fmt.Sprintf("description exceeds %d characters", MaxDescriptionLength),
			Suggestion: fmt.Sprintf("shorten the description to at most %d characters", MaxDescriptionLength),
			RawValue:   desc,
		}}
	case len(desc) < MinDescriptionLength:
		return "", []FieldError{{
			Field:    "description",
			Code:     CodeDescriptionTooShort,
			Message:  fmt.Sprintf("description must be at least %d characters", MinDescriptionLength),
			RawValue: desc,
		}}
	}
	return desc, nil
}

// validateCurrency never fails a row: missing defaults to USD silently and
// an unsupported code downgrades to USD with a warning.
func (v *Validator) validateCurrency(raw string) (string, *Warning) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return money.USD, nil
	}
	if code, ok := money.Normalize(raw); ok {
		return code, nil
	}
	return money.USD, &Warning{
		Field:   "currency",
		Code:    CodeUnsupportedCurrency,
		Message: fmt.Sprintf("currency %q is not supported, defaulting to %s", raw, money.USD),
	}
}

// today returns the current date truncated to midnight UTC.
func (v *Validator) today() time.Time {
	now := v.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseAmount parses a monetary string, stripping currency symbols and
// thousands separators and converting accounting parentheses to a leading
// minus: "(123.45)" parses as -123.45.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.TrimSpace(strings.Trim(s, "()"))
	}
	for _, sym := range []string{"$", "€", "£", "¥"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	return decimal.NewFromString(s)
}

// parseDate walks the fixed format list and returns the first match,
// normalized to midnight UTC.
func parseDate(raw string) (time.Time, bool) {
	for _, format := range dateFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
