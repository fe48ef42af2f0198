package networth

import (
	"context"

	"github.com/google/uuid"

	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

// Manually tracked assets and liabilities. All mutations check ownership and
// report a foreign or missing row as not found.

func (s *Service) CreateAsset(ctx context.Context, asset *Asset) error {
	if err := asset.Validate(); err != nil {
		return err
	}
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	return s.assetRepo.Save(ctx, asset)
}

func (s *Service) ListAssets(ctx context.Context, userID string) ([]Asset, error) {
	return s.assetRepo.FindByUser(ctx, userID)
}

func (s *Service) UpdateAsset(ctx context.Context, asset *Asset, userID string) error {
	if err := asset.Validate(); err != nil {
		return err
	}
	if _, err := s.ownedAsset(ctx, asset.ID, userID); err != nil {
		return err
	}
	return s.assetRepo.Update(ctx, asset)
}

func (s *Service) DeleteAsset(ctx context.Context, assetID uuid.UUID, userID string) error {
	if _, err := s.ownedAsset(ctx, assetID, userID); err != nil {
		return err
	}
	return s.assetRepo.Delete(ctx, assetID)
}

func (s *Service) CreateLiability(ctx context.Context, liability *Liability) error {
	if err := liability.Validate(); err != nil {
		return err
	}
	if liability.ID == uuid.Nil {
		liability.ID = uuid.New()
	}
	return s.liabilityRepo.Save(ctx, liability)
}

func (s *Service) ListLiabilities(ctx context.Context, userID string) ([]Liability, error) {
	return s.liabilityRepo.FindByUser(ctx, userID)
}

func (s *Service) UpdateLiability(ctx context.Context, liability *Liability, userID string) error {
	if err := liability.Validate(); err != nil {
		return err
	}
	if _, err := s.ownedLiability(ctx, liability.ID, userID); err != nil {
		return err
	}
	return s.liabilityRepo.Update(ctx, liability)
}

func (s *Service) DeleteLiability(ctx context.Context, liabilityID uuid.UUID, userID string) error {
	if _, err := s.ownedLiability(ctx, liabilityID, userID); err != nil {
		return err
	}
	return s.liabilityRepo.Delete(ctx, liabilityID)
}

func (s *Service) ownedAsset(ctx context.Context, assetID uuid.UUID, userID string) (*Asset, error) {
	asset, err := s.assetRepo.FindByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.UserID != userID {
		return nil, ledgerErrors.NewNotFoundError("Asset")
	}
	return asset, nil
}

func (s *Service) ownedLiability(ctx context.Context, liabilityID uuid.UUID, userID string) (*Liability, error) {
	liability, err := s.liabilityRepo.FindByID(ctx, liabilityID)
	if err != nil {
		return nil, err
	}
	if liability.UserID != userID {
		return nil, ledgerErrors.NewNotFoundError("Liability")
	}
	return liability, nil
}
