package application

import (
	"errors"
	"fmt"

	ingest "adjustment-calculator/internal/ingest/domain"
	reconciliation "adjustment-calculator/internal/reconciliation/domain"
	tariff "adjustment-calculator/internal/tariff/domain"
)

// Validation error codes.
const (
	CodeMissingGenerationFiles  = "missing_generation_files"
	CodeNoSourceEnabled         = "no_source_enabled"
	CodeMissingConsumptionFiles = "missing_consumption_files"
	CodeMissingLoss             = "missing_loss"
	CodeInvalidLoss             = "invalid_loss"
	CodeInvalidFilter           = "invalid_filter"
	CodeInvalidInput            = "invalid_input"
	CodeEmptyAfterFilter        = "empty_after_filter"
	CodeInvalidTier             = "invalid_tier"
	CodeInvalidMultiplier       = "invalid_multiplier"
)

// ValidationError is a rejected request. No partial report accompanies it.
type ValidationError struct {
	Code            string   `json:"code"`
	Field           string   `json:"field,omitempty"`
	Message         string   `json:"message"`
	AvailableDates  []string `json:"available_dates,omitempty"`
	AvailableMonths []string `json:"available_months,omitempty"`
	Err             error    `json:"-"`
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(code, field, message string) *ValidationError {
	return &ValidationError{Code: code, Field: field, Message: message}
}

// toValidationError converts domain validation failures. Other errors pass through.
func toValidationError(err error) error {
	if err == nil || IsValidationError(err) {
		return err
	}

	var emptyErr *reconciliation.EmptyFilterError
	if errors.As(err, &emptyErr) {
		return &ValidationError{
			Code:            CodeEmptyAfterFilter,
			Field:           fieldForSource(emptyErr.Source),
			Message:         emptyErr.Error(),
			AvailableDates:  emptyErr.AvailableDates,
			AvailableMonths: emptyErr.AvailableMonths,
			Err:             err,
		}
	}
	var filterErr *reconciliation.FilterError
	if errors.As(err, &filterErr) {
		return &ValidationError{Code: CodeInvalidFilter, Field: filterErr.Field, Message: filterErr.Error(), Err: err}
	}
	var fileErr *ingest.FileError
	if errors.As(err, &fileErr) {
		return &ValidationError{Code: CodeInvalidInput, Field: fieldForSource(fileErr.Source), Message: fileErr.Error(), Err: err}
	}

	switch {
	case errors.Is(err, reconciliation.ErrNoGenerationSource):
		return &ValidationError{Code: CodeNoSourceEnabled, Message: "enable at least one of IEX and CPP", Err: err}
	case errors.Is(err, reconciliation.ErrInvalidLoss):
		return &ValidationError{Code: CodeInvalidLoss, Message: "loss percentage must be between 0 and 100", Err: err}
	case errors.Is(err, tariff.ErrUnknownTier):
		return &ValidationError{Code: CodeInvalidTier, Field: "tier", Message: "tier must be one of I, II-A, II-B, III", Err: err}
	case errors.Is(err, ingest.ErrInvalidMultiplier):
		return &ValidationError{Code: CodeInvalidMultiplier, Field: "multiplier", Message: "multiplier must be a positive number", Err: err}
	case errors.Is(err, ingest.ErrNoFiles):
		return &ValidationError{Code: CodeInvalidInput, Message: err.Error(), Err: err}
	}
	return err
}

func fieldForSource(source ingest.SourceType) string {
	switch source {
	case ingest.SourceIEX:
		return "iex_files"
	case ingest.SourceCPP:
		return "cpp_files"
	case ingest.SourceConsumption:
		return "consumption_files"
	default:
		return ""
	}
}
