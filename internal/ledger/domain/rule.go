package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

type ConditionField string

const (
	FieldDescription ConditionField = "description"
	FieldMerchant    ConditionField = "merchant"
	FieldAmount      ConditionField = "amount"
)

type ConditionOperator string

const (
	OperatorContains    ConditionOperator = "contains"
	OperatorEquals      ConditionOperator = "equals"
	OperatorStartsWith  ConditionOperator = "starts_with"
	OperatorEndsWith    ConditionOperator = "ends_with"
	OperatorGreaterThan ConditionOperator = "greater_than"
	OperatorLessThan    ConditionOperator = "less_than"
)

var stringOperators = map[ConditionOperator]bool{
	OperatorContains:   true,
	OperatorEquals:     true,
	OperatorStartsWith: true,
	OperatorEndsWith:   true,
}

var numericOperators = map[ConditionOperator]bool{
	OperatorGreaterThan: true,
	OperatorLessThan:    true,
	OperatorEquals:      true,
}

// Condition is one (field, operator, value) predicate of a rule. Numeric
// operators apply to the amount field only; that is enforced here, at rule
// creation, so matching never has to deal with a malformed condition.
type Condition struct {
	Field    ConditionField    `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value"`
}

func (c Condition) Validate() error {
	switch c.Field {
	case FieldDescription, FieldMerchant:
		if !stringOperators[c.Operator] {
			return ledgerErrors.NewValidationError("Operator " + string(c.Operator) + " cannot be applied to field " + string(c.Field))
		}
	case FieldAmount:
		if !numericOperators[c.Operator] {
			return ledgerErrors.NewValidationError("Operator " + string(c.Operator) + " cannot be applied to the amount field")
		}
		if _, err := decimal.NewFromString(c.Value); err != nil {
			return ledgerErrors.NewValidationError("Amount condition value must be a decimal number")
		}
	default:
		return ledgerErrors.NewValidationError("Unknown condition field: " + string(c.Field))
	}
	if c.Value == "" {
		return ledgerErrors.NewValidationError("Condition value must not be empty")
	}
	return nil
}

// CategorizationRule assigns a category when every condition matches.
// Rules are evaluated in ascending priority order, ties broken by creation
// time, and the first fully matching rule wins.
type CategorizationRule struct {
	ID         uuid.UUID
	UserID     string // user UUID
	CategoryID uuid.UUID
	Priority   int
	Conditions []Condition
	CreatedAt  time.Time
}

func (r *CategorizationRule) Validate() error {
	if r.CategoryID == uuid.Nil {
		return ledgerErrors.NewValidationError("Rule must reference a category")
	}
	if len(r.Conditions) == 0 {
		return ledgerErrors.NewValidationError("Rule must have at least one condition")
	}
	for _, condition := range r.Conditions {
		if err := condition.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type RuleRepository interface {
	Save(ctx context.Context, rule *CategorizationRule) error
	FindByID(ctx context.Context, ruleID uuid.UUID) (*CategorizationRule, error)
	// FindByUser returns rules ordered by priority ascending, then creation
	// time ascending.
	FindByUser(ctx context.Context, userID string) ([]CategorizationRule, error)
	Update(ctx context.Context, rule *CategorizationRule) error
	Delete(ctx context.Context, ruleID uuid.UUID) error
}
