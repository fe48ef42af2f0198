package application

import (
	"context"
	"log"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
)

// ReconcileConfig controls which transactions the batch passes look at.
type ReconcileConfig struct {
	// IncludeManualInAutoPasses lets manually entered transactions take part
	// in automatic categorization and transfer pairing alongside aggregator
	// rows.
	IncludeManualInAutoPasses bool
}

// DefaultReconcileConfig treats manual transactions like any other.
var DefaultReconcileConfig = ReconcileConfig{IncludeManualInAutoPasses: true}

// ReconcileResult reports what one batch reconciliation pass did. Failed
// counts rows that errored and were skipped; a non-zero value never makes
// the batch itself fail.
type ReconcileResult struct {
	CategorizedCount int `json:"categorized_count"`
	TransferCount    int `json:"transfer_count"`
	FailedCount      int `json:"failed_count"`
}

// ReconcileService retroactively categorizes historical transactions and
// pairs up internal transfers across a user's full transaction set.
type ReconcileService struct {
	txRepo      domain.TransactionRepository
	categorizer *CategorizationService
	config      ReconcileConfig
}

func NewReconcileService(txRepo domain.TransactionRepository, categorizer *CategorizationService, config ReconcileConfig) *ReconcileService {
	return &ReconcileService{txRepo: txRepo, categorizer: categorizer, config: config}
}

// ProcessAllTransactions runs the categorization pass and then the
// transfer-detection pass. Individual row failures are counted and skipped;
// both passes run to completion.
func (s *ReconcileService) ProcessAllTransactions(ctx context.Context, userID string) (ReconcileResult, error) {
	var result ReconcileResult

	categorized, failed, err := s.categorizePass(ctx, userID)
	if err != nil {
		return result, err
	}
	result.CategorizedCount = categorized
	result.FailedCount += failed

	transfers, failed, err := s.transferPass(ctx, userID)
	if err != nil {
		return result, err
	}
	result.TransferCount = transfers
	result.FailedCount += failed

	return result, nil
}

// categorizePass assigns categories to uncategorized transactions. Rows that
// already carry a category are never touched.
func (s *ReconcileService) categorizePass(ctx context.Context, userID string) (categorized, failed int, err error) {
	transactions, err := s.txRepo.FindUncategorizedByUser(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	rules, err := s.categorizer.RulesForUser(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	for _, transaction := range transactions {
		if !s.includeInPasses(transaction) {
			continue
		}
		categoryID, err := s.categorizer.Categorize(ctx, TransactionFields{
			Description: transaction.Description,
			Merchant:    transaction.Merchant,
			Amount:      transaction.Amount,
		}, userID, rules)
		if err != nil {
			log.Printf("Categorization failed for transaction %s: %v", transaction.ID, err)
			failed++
			continue
		}
		if categoryID == nil {
			continue
		}
		if err := s.txRepo.UpdateCategory(ctx, transaction.ID, *categoryID); err != nil {
			log.Printf("Persisting category failed for transaction %s: %v", transaction.ID, err)
			failed++
			continue
		}
		categorized++
	}
	return categorized, failed, nil
}

// transferPass pairs unlinked transactions that form internal transfers and
// persists the bidirectional link. Returns the number of pairs created.
func (s *ReconcileService) transferPass(ctx context.Context, userID string) (paired, failed int, err error) {
	transactions, err := s.txRepo.FindUnpairedByUser(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	eligible := transactions[:0:0]
	for _, transaction := range transactions {
		if s.includeInPasses(transaction) {
			eligible = append(eligible, transaction)
		}
	}

	for _, pair := range PairTransfers(eligible) {
		if err := s.txRepo.SetTransferPair(ctx, pair.First, pair.Second); err != nil {
			log.Printf("Pairing transfer %s/%s failed: %v", pair.First, pair.Second, err)
			failed++
			continue
		}
		paired++
	}
	return paired, failed, nil
}

func (s *ReconcileService) includeInPasses(transaction domain.Transaction) bool {
	if transaction.Source == domain.SourceManual && !s.config.IncludeManualInAutoPasses {
		return false
	}
	return true
}
