package application

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

// RuleService manages categorization rules. Conditions are validated here,
// at creation time, so the matcher can trust every stored rule.
type RuleService struct {
	ruleRepo     domain.RuleRepository
	categoryRepo domain.CategoryRepository
}

func NewRuleService(ruleRepo domain.RuleRepository, categoryRepo domain.CategoryRepository) *RuleService {
	return &RuleService{ruleRepo: ruleRepo, categoryRepo: categoryRepo}
}

func (s *RuleService) Create(ctx context.Context, rule *domain.CategorizationRule) (*domain.CategorizationRule, error) {
	rule.ID = uuid.New()
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategoryOwnership(ctx, rule); err != nil {
		return nil, err
	}
	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *RuleService) ListByUser(ctx context.Context, userID string) ([]domain.CategorizationRule, error) {
	rules, err := s.ruleRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		return []domain.CategorizationRule{}, nil
	}
	return rules, nil
}

func (s *RuleService) Update(ctx context.Context, userID string, rule *domain.CategorizationRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	existing, err := s.ruleRepo.FindByID(ctx, rule.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledgerErrors.NewNotFoundError("rule")
		}
		return err
	}
	if existing.UserID != userID {
		return ledgerErrors.NewNotFoundError("rule")
	}
	rule.UserID = existing.UserID
	if err := s.checkCategoryOwnership(ctx, rule); err != nil {
		return err
	}
	return s.ruleRepo.Update(ctx, rule)
}

func (s *RuleService) Delete(ctx context.Context, userID string, ruleID uuid.UUID) error {
	existing, err := s.ruleRepo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledgerErrors.NewNotFoundError("rule")
		}
		return err
	}
	if existing.UserID != userID {
		return ledgerErrors.NewNotFoundError("rule")
	}
	return s.ruleRepo.Delete(ctx, ruleID)
}

// checkCategoryOwnership enforces the invariant that a rule's category
// belongs to the rule's owning user.
func (s *RuleService) checkCategoryOwnership(ctx context.Context, rule *domain.CategorizationRule) error {
	category, err := s.categoryRepo.FindByID(ctx, rule.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledgerErrors.NewValidationError("Rule category does not exist")
		}
		return err
	}
	if category.UserID != rule.UserID {
		return ledgerErrors.NewValidationError("Rule category must belong to the rule owner")
	}
	return nil
}
