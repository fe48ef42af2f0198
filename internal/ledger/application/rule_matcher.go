package application

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
)

// TransactionFields carries the descriptive fields of a transaction that
// rules can match against.
type TransactionFields struct {
	Description string
	Merchant    *string
	Amount      decimal.Decimal
}

// MatchRule evaluates rules in ascending priority order (ties broken by
// creation time) and returns the category of the first rule whose conditions
// all match, or nil when no rule matches. It is pure: no I/O, no state.
func MatchRule(fields TransactionFields, rules []domain.CategorizationRule) *uuid.UUID {
	ordered := make([]domain.CategorizationRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	for _, rule := range ordered {
		if ruleMatches(fields, rule) {
			categoryID := rule.CategoryID
			return &categoryID
		}
	}
	return nil
}

func ruleMatches(fields TransactionFields, rule domain.CategorizationRule) bool {
	if len(rule.Conditions) == 0 {
		return false
	}
	for _, condition := range rule.Conditions {
		if !conditionMatches(fields, condition) {
			return false
		}
	}
	return true
}

func conditionMatches(fields TransactionFields, condition domain.Condition) bool {
	switch condition.Field {
	case domain.FieldDescription:
		return stringMatches(fields.Description, condition)
	case domain.FieldMerchant:
		if fields.Merchant == nil {
			return false
		}
		return stringMatches(*fields.Merchant, condition)
	case domain.FieldAmount:
		return amountMatches(fields.Amount, condition)
	}
	return false
}

func stringMatches(value string, condition domain.Condition) bool {
	haystack := strings.ToLower(value)
	needle := strings.ToLower(condition.Value)
	switch condition.Operator {
	case domain.OperatorContains:
		return strings.Contains(haystack, needle)
	case domain.OperatorEquals:
		return haystack == needle
	case domain.OperatorStartsWith:
		return strings.HasPrefix(haystack, needle)
	case domain.OperatorEndsWith:
		return strings.HasSuffix(haystack, needle)
	}
	return false
}

func amountMatches(amount decimal.Decimal, condition domain.Condition) bool {
	threshold, err := decimal.NewFromString(condition.Value)
	if err != nil {
		// Rule validation rejects non-numeric amount conditions at creation;
		// a stored stray value simply never matches.
		return false
	}
	switch condition.Operator {
	case domain.OperatorEquals:
		return amount.Equal(threshold)
	case domain.OperatorGreaterThan:
		return amount.GreaterThan(threshold)
	case domain.OperatorLessThan:
		return amount.LessThan(threshold)
	}
	return false
}
