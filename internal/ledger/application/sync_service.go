package application

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/drewzeee/WealthVue-sub001/internal/aggregator"
	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

// SyncResult reports what one SyncConnection call applied.
type SyncResult struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
}

// ConnectionSyncOutcome is the per-connection result of a full-user sync
// fan-out.
type ConnectionSyncOutcome struct {
	ConnectionID uuid.UUID
	Result       SyncResult
	Err          error
}

// SyncService drives incremental transaction synchronization against the
// aggregator. Each page of changes and the cursor that checkpoints it are
// committed inside a single SQL transaction, so a failed page retries whole
// and the upsert-by-external-id step makes re-application idempotent.
type SyncService struct {
	connectionRepo domain.ConnectionRepository
	accountRepo    domain.AccountRepository
	txRepo         domain.TransactionRepository
	categorizer    *CategorizationService
	client         aggregator.Client
}

func NewSyncService(
	connectionRepo domain.ConnectionRepository,
	accountRepo domain.AccountRepository,
	txRepo domain.TransactionRepository,
	categorizer *CategorizationService,
	client aggregator.Client,
) *SyncService {
	return &SyncService{
		connectionRepo: connectionRepo,
		accountRepo:    accountRepo,
		txRepo:         txRepo,
		categorizer:    categorizer,
		client:         client,
	}
}

// SyncConnection pulls all pending pages of changes for one connection and
// applies them. A nil cursor means the aggregator replays full history.
func (s *SyncService) SyncConnection(ctx context.Context, connectionID uuid.UUID) (SyncResult, error) {
	var result SyncResult

	connection, err := s.connectionRepo.FindByID(ctx, connectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, ledgerErrors.NewNotFoundError("connection")
		}
		return result, err
	}

	// One rule fetch serves every page of this call.
	rules, err := s.categorizer.RulesForUser(ctx, connection.UserID)
	if err != nil {
		return result, err
	}

	cursor := ""
	if connection.SyncCursor != nil {
		cursor = *connection.SyncCursor
	}

	for {
		changes, err := s.client.FetchChanges(ctx, connection.ExternalItemID, cursor)
		if err != nil {
			return result, ledgerErrors.NewUpstreamError("aggregator", err)
		}

		pageResult, err := s.applyPage(ctx, connection, changes, rules)
		if err != nil {
			return result, err
		}
		result.Added += pageResult.Added
		result.Modified += pageResult.Modified
		result.Removed += pageResult.Removed

		cursor = changes.NextCursor
		if !changes.HasMore {
			break
		}
	}
	return result, nil
}

// applyPage writes one page of changes and its cursor in a single SQL
// transaction. Any error rolls the whole page back, leaving the cursor at
// its pre-page value.
func (s *SyncService) applyPage(ctx context.Context, connection *domain.ExternalConnection, changes *aggregator.ChangeSet, rules []domain.CategorizationRule) (SyncResult, error) {
	var result SyncResult

	tx, err := s.txRepo.BeginTx(ctx)
	if err != nil {
		return result, err
	}
	defer safeRollback(tx)

	accountIDs := make(map[string]uuid.UUID, len(changes.Accounts))
	for i := range changes.Accounts {
		account, err := s.upsertAccountTx(ctx, tx, connection, &changes.Accounts[i])
		if err != nil {
			return SyncResult{}, err
		}
		accountIDs[*account.ExternalAccountID] = account.ID
	}

	for _, change := range changes.Added {
		inserted, err := s.upsertTransactionTx(ctx, tx, connection, change, accountIDs, rules)
		if err != nil {
			return SyncResult{}, err
		}
		if inserted {
			result.Added++
		} else {
			// Duplicate push of an already-applied window; the upsert kept
			// the row in place.
			result.Modified++
		}
	}
	for _, change := range changes.Modified {
		if _, err := s.upsertTransactionTx(ctx, tx, connection, change, accountIDs, rules); err != nil {
			return SyncResult{}, err
		}
		result.Modified++
	}
	for _, removed := range changes.Removed {
		deleted, err := s.txRepo.DeleteByExternalIDTx(ctx, tx, connection.ID, removed.ExternalID)
		if err != nil {
			return SyncResult{}, err
		}
		if deleted {
			result.Removed++
		}
	}

	if err := s.connectionRepo.UpdateCursorTx(ctx, tx, connection.ID, changes.NextCursor); err != nil {
		return SyncResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return SyncResult{}, err
	}
	return result, nil
}

func (s *SyncService) upsertAccountTx(ctx context.Context, tx *sql.Tx, connection *domain.ExternalConnection, change *aggregator.AccountChange) (*domain.Account, error) {
	externalAccountID := change.ExternalAccountID
	connectionID := connection.ID
	account := &domain.Account{
		ID:                uuid.New(),
		UserID:            connection.UserID,
		Name:              change.Name,
		Type:              mapAccountType(change.Type),
		CurrentBalance:    change.CurrentBalance,
		AvailableBalance:  change.AvailableBalance,
		CreditLimit:       change.CreditLimit,
		Active:            true,
		ConnectionID:      &connectionID,
		ExternalAccountID: &externalAccountID,
	}
	if err := s.accountRepo.UpsertByExternalIDTx(ctx, tx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *SyncService) upsertTransactionTx(ctx context.Context, tx *sql.Tx, connection *domain.ExternalConnection, change aggregator.TransactionChange, accountIDs map[string]uuid.UUID, rules []domain.CategorizationRule) (bool, error) {
	accountID, ok := accountIDs[change.ExternalAccountID]
	if !ok {
		existing, err := s.accountRepo.FindByConnectionAndExternalID(ctx, connection.ID, change.ExternalAccountID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return false, ledgerErrors.NewUpstreamError("aggregator", errors.New("transaction references unknown account "+change.ExternalAccountID))
			}
			return false, err
		}
		accountID = existing.ID
		accountIDs[change.ExternalAccountID] = accountID
	}

	externalID := change.ExternalID
	connectionID := connection.ID
	transaction := &domain.Transaction{
		ID:             uuid.New(),
		AccountID:      accountID,
		Date:           change.Date,
		AuthorizedDate: change.AuthorizedDate,
		Description:    change.Description,
		Merchant:       change.Merchant,
		Amount:         change.Amount,
		Source:         domain.SourceAggregator,
		Pending:        change.Pending,
		ConnectionID:   &connectionID,
		ExternalID:     &externalID,
	}

	// Categorize fresh rows up front so the insert already carries the
	// category. Existing rows keep whatever category they have.
	categoryID, err := s.categorizer.Categorize(ctx, TransactionFields{
		Description: change.Description,
		Merchant:    change.Merchant,
		Amount:      change.Amount,
	}, connection.UserID, rules)
	if err != nil {
		return false, err
	}
	transaction.CategoryID = categoryID

	return s.txRepo.UpsertByExternalIDTx(ctx, tx, transaction)
}

// SyncAllConnections fans out over every connection of the user, one
// goroutine each, and settles all of them: a failing connection never aborts
// the others.
func (s *SyncService) SyncAllConnections(ctx context.Context, userID string) ([]ConnectionSyncOutcome, error) {
	connections, err := s.connectionRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]ConnectionSyncOutcome, len(connections))
	var wg sync.WaitGroup
	for i, connection := range connections {
		wg.Add(1)
		go func(i int, connectionID uuid.UUID) {
			defer wg.Done()
			result, err := s.SyncConnection(ctx, connectionID)
			outcomes[i] = ConnectionSyncOutcome{ConnectionID: connectionID, Result: result, Err: err}
			if err != nil {
				log.Printf("Sync failed for connection %s: %v", connectionID, err)
			}
		}(i, connection.ID)
	}
	wg.Wait()
	return outcomes, nil
}

// ResetSync clears the connection's cursor so the next sync replays full
// history, exactly like a brand-new connection.
func (s *SyncService) ResetSync(ctx context.Context, connectionID uuid.UUID) error {
	if _, err := s.connectionRepo.FindByID(ctx, connectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledgerErrors.NewNotFoundError("connection")
		}
		return err
	}
	return s.connectionRepo.ClearCursor(ctx, connectionID)
}

func mapAccountType(aggregatorType string) domain.AccountType {
	switch aggregatorType {
	case "depository", "checking":
		return domain.AccountTypeChecking
	case "savings":
		return domain.AccountTypeSavings
	case "credit":
		return domain.AccountTypeCredit
	case "loan":
		return domain.AccountTypeLoan
	case "investment", "brokerage":
		return domain.AccountTypeInvestment
	default:
		return domain.AccountTypeOther
	}
}

func safeRollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Printf("Error during transaction rollback: %v", err)
	}
}
