package autofix

import (
	"erp-finance-backend/internal/models"
)

const (
	MethodTypeMapping = "transaction_type_mapping"
	MethodPrefixMatch = "prefix_match"
)

// Proposal is a candidate replacement for an invalid GL account code.
type Proposal struct {
	OriginalCode  string  `json:"original_code"`
	SuggestedCode string  `json:"suggested_code"`
	SuggestedName string  `json:"suggested_name,omitempty"`
	Method        string  `json:"method"`
	Confidence    float64 `json:"confidence"`
}

// FindBestAccountMatch resolves an invalid code against the chart of
// accounts. Tier one consults the transaction-type preference table; tier
// two falls back to the invalid code's first-character prefix class,
// scanning codes in ascending order so the result is deterministic (the
// lowest code of a class is conventionally its control account).
func FindBestAccountMatch(invalidCode, transactionType string, accounts models.AccountIndex) (string, string, bool) {
	for _, code := range preferredAccounts[transactionType] {
		if accounts.Has(code) {
			return code, MethodTypeMapping, true
		}
	}

	if invalidCode == "" {
		return "", "", false
	}
	prefix := invalidCode[:1]
	for _, code := range accounts.SortedCodes() {
		if code[:1] == prefix {
			return code, MethodPrefixMatch, true
		}
	}
	return "", "", false
}

// MappingConfidence scores a suggested replacement with a weighted additive
// heuristic: base 0.5, +0.3 when the suggestion lands in the prefix class
// expected for the transaction type, +0.1 when it shares the original
// code's prefix, +0.1 when it is a common account. Clamped to 1.0. This is
// a heuristic estimate, not a calibrated probability.
func MappingConfidence(originalCode, suggestedCode, transactionType string) float64 {
	confidence := 0.5

	if prefix, ok := typePrefixes[transactionType]; ok && len(suggestedCode) > 0 && suggestedCode[:1] == prefix {
		confidence += 0.3
	}
	if len(originalCode) > 0 && len(suggestedCode) > 0 && originalCode[:1] == suggestedCode[:1] {
		confidence += 0.1
	}
	if commonAccounts[suggestedCode] {
		confidence += 0.1
	}

	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// Propose combines the two: a replacement candidate with its confidence, or
// ok=false when no fix is available.
func Propose(invalidCode, transactionType string, accounts models.AccountIndex) (Proposal, bool) {
	code, method, ok := FindBestAccountMatch(invalidCode, transactionType, accounts)
	if !ok {
		return Proposal{}, false
	}
	return Proposal{
		OriginalCode:  invalidCode,
		SuggestedCode: code,
		SuggestedName: accounts[code].EntityName,
		Method:        method,
		Confidence:    MappingConfidence(invalidCode, code, transactionType),
	}, true
}
