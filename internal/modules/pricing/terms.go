package pricing

import (
	"strconv"
	"strings"

	"github.com/bidfoundry/quotient/internal/domain"
)

// ParseCreditDays extracts a credit-day count from free-text payment terms.
// The first run of digits wins: "90 Days Credit" and "Net 90" both parse to
// 90. Digitless terms that mention an advance payment are a clean zero.
// Anything else returns an UnparseableTerms error so the caller can apply
// its default policy.
func ParseCreditDays(terms string) (int, error) {
	start := -1
	for i, r := range terms {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			days, err := strconv.Atoi(terms[start:i])
			if err != nil {
				return 0, domain.NewUnparseableTerms(terms)
			}
			return days, nil
		}
	}
	if start >= 0 {
		days, err := strconv.Atoi(terms[start:])
		if err != nil {
			return 0, domain.NewUnparseableTerms(terms)
		}
		return days, nil
	}
	if strings.Contains(strings.ToLower(terms), "advance") {
		return 0, nil
	}
	return 0, domain.NewUnparseableTerms(terms)
}
