package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidfoundry/quotient/internal/domain"
)

func TestParseCreditDays(t *testing.T) {
	tests := []struct {
		terms string
		days  int
	}{
		{"90 Days Credit", 90},
		{"Net 45", 45},
		{"LC at 60 days from dispatch", 60},
		{"30/60 split", 30},
		{"120", 120},
		{"Advance Payment", 0},
		{"ADVANCE against proforma", 0},
	}

	for _, tt := range tests {
		t.Run(tt.terms, func(t *testing.T) {
			days, err := ParseCreditDays(tt.terms)
			require.NoError(t, err)
			assert.Equal(t, tt.days, days)
		})
	}
}

func TestParseCreditDaysUnparseable(t *testing.T) {
	for _, terms := range []string{"", "Negotiable", "As per contract"} {
		t.Run(terms, func(t *testing.T) {
			_, err := ParseCreditDays(terms)
			require.Error(t, err)
			assert.True(t, domain.IsUnparseableTerms(err))
		})
	}
}
