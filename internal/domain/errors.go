package domain

import (
	"errors"
	"fmt"
)

// ReferenceNotFoundError reports a lookup against a reference table with no
// entry for the identifier. It is fatal to the single bid computation that
// hit it and carries enough context to fix the reference data.
type ReferenceNotFoundError struct {
	Table string
	ID    string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("reference not found in %s: %q", e.Table, e.ID)
}

// NewReferenceNotFound creates a ReferenceNotFoundError for the given table and identifier
func NewReferenceNotFound(table, id string) error {
	return &ReferenceNotFoundError{Table: table, ID: id}
}

// IsReferenceNotFound reports whether err wraps a ReferenceNotFoundError
func IsReferenceNotFound(err error) bool {
	var target *ReferenceNotFoundError
	return errors.As(err, &target)
}

// UnparseableTermsError reports payment-terms text from which no credit-day
// count could be extracted. Recoverable: the pipeline applies the default
// credit-day policy and flags the result for operator review.
type UnparseableTermsError struct {
	Raw string
}

func (e *UnparseableTermsError) Error() string {
	return fmt.Sprintf("unparseable payment terms: %q", e.Raw)
}

// NewUnparseableTerms creates an UnparseableTermsError for the given raw text
func NewUnparseableTerms(raw string) error {
	return &UnparseableTermsError{Raw: raw}
}

// IsUnparseableTerms reports whether err wraps an UnparseableTermsError
func IsUnparseableTerms(err error) bool {
	var target *UnparseableTermsError
	return errors.As(err, &target)
}
