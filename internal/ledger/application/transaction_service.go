package application

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

// TransactionService covers manual transaction entry and edits. Aggregator
// rows are written by the sync service instead.
type TransactionService struct {
	txRepo       domain.TransactionRepository
	accountRepo  domain.AccountRepository
	categoryRepo domain.CategoryRepository
	categorizer  *CategorizationService
}

func NewTransactionService(txRepo domain.TransactionRepository, accountRepo domain.AccountRepository, categoryRepo domain.CategoryRepository, categorizer *CategorizationService) *TransactionService {
	return &TransactionService{txRepo: txRepo, accountRepo: accountRepo, categoryRepo: categoryRepo, categorizer: categorizer}
}

// CreateManual records a user-entered transaction. Uncategorized entries run
// through the rule engine once before the insert.
func (s *TransactionService) CreateManual(ctx context.Context, userID string, transaction *domain.Transaction) error {
	transaction.ID = uuid.New()
	transaction.Source = domain.SourceManual
	if err := transaction.Validate(); err != nil {
		return err
	}

	account, err := s.accountRepo.FindByID(ctx, transaction.AccountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledgerErrors.NewNotFoundError("account")
		}
		return err
	}
	if account.UserID != userID {
		return ledgerErrors.NewNotFoundError("account")
	}

	if transaction.CategoryID != nil {
		if err := s.checkCategoryOwnership(ctx, userID, *transaction.CategoryID); err != nil {
			return err
		}
	} else {
		categoryID, err := s.categorizer.Categorize(ctx, TransactionFields{
			Description: transaction.Description,
			Merchant:    transaction.Merchant,
			Amount:      transaction.Amount,
		}, userID, nil)
		if err != nil {
			return err
		}
		transaction.CategoryID = categoryID
	}
	return s.txRepo.Save(ctx, transaction)
}

// Update edits a transaction owned by the user. Changing the amount or the
// account of a paired transfer leg breaks the pairing on both sides; the
// next reconcile pass may re-pair.
func (s *TransactionService) Update(ctx context.Context, userID string, updated *domain.Transaction) error {
	if err := updated.Validate(); err != nil {
		return err
	}

	existing, err := s.findOwned(ctx, userID, updated.ID)
	if err != nil {
		return err
	}

	if updated.CategoryID != nil {
		if err := s.checkCategoryOwnership(ctx, userID, *updated.CategoryID); err != nil {
			return err
		}
	}

	if existing.TransferPairID != nil {
		amountChanged := !existing.Amount.Equal(updated.Amount)
		accountChanged := existing.AccountID != updated.AccountID
		if amountChanged || accountChanged {
			if err := s.txRepo.ClearTransferPair(ctx, existing.ID); err != nil {
				return err
			}
			updated.TransferPairID = nil
		} else {
			updated.TransferPairID = existing.TransferPairID
		}
	}
	updated.Source = existing.Source
	updated.ConnectionID = existing.ConnectionID
	updated.ExternalID = existing.ExternalID
	updated.UpdatedAt = time.Now().UTC()
	return s.txRepo.Update(ctx, updated)
}

// Unpair manually breaks a transfer pairing from either leg.
func (s *TransactionService) Unpair(ctx context.Context, userID string, transactionID uuid.UUID) error {
	existing, err := s.findOwned(ctx, userID, transactionID)
	if err != nil {
		return err
	}
	if existing.TransferPairID == nil {
		return ledgerErrors.NewValidationError("Transaction is not part of a transfer pair")
	}
	return s.txRepo.ClearTransferPair(ctx, transactionID)
}

func (s *TransactionService) Delete(ctx context.Context, userID string, transactionID uuid.UUID) error {
	existing, err := s.findOwned(ctx, userID, transactionID)
	if err != nil {
		return err
	}
	if existing.TransferPairID != nil {
		if err := s.txRepo.ClearTransferPair(ctx, transactionID); err != nil {
			return err
		}
	}
	return s.txRepo.Delete(ctx, transactionID)
}

func (s *TransactionService) ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	transactions, err := s.txRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		return []domain.Transaction{}, nil
	}
	return transactions, nil
}

// checkCategoryOwnership enforces the invariant that a caller-chosen
// category belongs to the transaction's user. Rule-assigned categories are
// already scoped to the user by the rule engine.
func (s *TransactionService) checkCategoryOwnership(ctx context.Context, userID string, categoryID uuid.UUID) error {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledgerErrors.NewValidationError("Transaction category does not exist")
		}
		return err
	}
	if category.UserID != userID {
		return ledgerErrors.NewValidationError("Transaction category must belong to the transaction owner")
	}
	return nil
}

func (s *TransactionService) findOwned(ctx context.Context, userID string, transactionID uuid.UUID) (*domain.Transaction, error) {
	existing, err := s.txRepo.FindByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledgerErrors.NewNotFoundError("transaction")
		}
		return nil, err
	}
	account, err := s.accountRepo.FindByID(ctx, existing.AccountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, ledgerErrors.NewNotFoundError("transaction")
	}
	return existing, nil
}
