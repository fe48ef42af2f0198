package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
)

// CategorizationService wraps the rule matcher with rule retrieval. It never
// writes the category itself; callers decide whether and when to persist.
type CategorizationService struct {
	ruleRepo domain.RuleRepository
}

func NewCategorizationService(ruleRepo domain.RuleRepository) *CategorizationService {
	return &CategorizationService{ruleRepo: ruleRepo}
}

// Categorize returns the matching category for the given fields, or nil. In
// batch mode callers pass a pre-fetched rule list via rules to avoid
// re-querying per transaction; pass nil to have the user's rules fetched.
func (s *CategorizationService) Categorize(ctx context.Context, fields TransactionFields, userID string, rules []domain.CategorizationRule) (*uuid.UUID, error) {
	if rules == nil {
		fetched, err := s.ruleRepo.FindByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		rules = fetched
	}
	return MatchRule(fields, rules), nil
}

// RulesForUser exposes the ordered rule list for batch callers.
func (s *CategorizationService) RulesForUser(ctx context.Context, userID string) ([]domain.CategorizationRule, error) {
	return s.ruleRepo.FindByUser(ctx, userID)
}
