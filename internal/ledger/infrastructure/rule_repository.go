package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
)

// RuleRepository stores categorization rules; conditions live in a JSONB
// column as a typed array, validated before they ever get here.
type RuleRepository struct {
	db *sql.DB
}

func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Save(ctx context.Context, rule *domain.CategorizationRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO categorization_rules (id, user_id, category_id, priority, conditions)
         VALUES ($1, $2, $3, $4, $5)`,
		rule.ID, rule.UserID, rule.CategoryID, rule.Priority, conditions,
	)
	return err
}

func (r *RuleRepository) FindByID(ctx context.Context, ruleID uuid.UUID) (*domain.CategorizationRule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, priority, conditions, created_at
         FROM categorization_rules WHERE id = $1`, ruleID)

	var rule domain.CategorizationRule
	var conditions []byte
	if err := row.Scan(&rule.ID, &rule.UserID, &rule.CategoryID, &rule.Priority, &conditions, &rule.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepository) FindByUser(ctx context.Context, userID string) ([]domain.CategorizationRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category_id, priority, conditions, created_at
         FROM categorization_rules WHERE user_id = $1
         ORDER BY priority, created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.CategorizationRule
	for rows.Next() {
		var rule domain.CategorizationRule
		var conditions []byte
		if err := rows.Scan(&rule.ID, &rule.UserID, &rule.CategoryID, &rule.Priority, &conditions, &rule.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *RuleRepository) Update(ctx context.Context, rule *domain.CategorizationRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE categorization_rules SET category_id = $2, priority = $3, conditions = $4 WHERE id = $1`,
		rule.ID, rule.CategoryID, rule.Priority, conditions,
	)
	return err
}

func (r *RuleRepository) Delete(ctx context.Context, ruleID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categorization_rules WHERE id = $1`, ruleID)
	return err
}
