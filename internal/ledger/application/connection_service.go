package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/drewzeee/WealthVue-sub001/internal/aggregator"
	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

// ConnectionService handles the aggregator link flow: a link token opens the
// institution picker on the client, the returned public token is exchanged
// for an item id, and that becomes an ExternalConnection with a nil cursor
// (first sync replays full history).
type ConnectionService struct {
	connectionRepo domain.ConnectionRepository
	client         aggregator.Client
}

func NewConnectionService(connectionRepo domain.ConnectionRepository, client aggregator.Client) *ConnectionService {
	return &ConnectionService{connectionRepo: connectionRepo, client: client}
}

func (s *ConnectionService) CreateLinkToken(ctx context.Context, userID string) (*aggregator.LinkToken, error) {
	token, err := s.client.CreateLinkToken(ctx, userID)
	if err != nil {
		return nil, ledgerErrors.NewUpstreamError("aggregator", err)
	}
	return token, nil
}

func (s *ConnectionService) ExchangePublicToken(ctx context.Context, userID, publicToken, institutionName string) (*domain.ExternalConnection, error) {
	externalItemID, err := s.client.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, ledgerErrors.NewUpstreamError("aggregator", err)
	}
	connection := &domain.ExternalConnection{
		ID:              uuid.New(),
		UserID:          userID,
		ExternalItemID:  externalItemID,
		InstitutionName: institutionName,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.connectionRepo.Save(ctx, connection); err != nil {
		return nil, err
	}
	return connection, nil
}

func (s *ConnectionService) ListByUser(ctx context.Context, userID string) ([]domain.ExternalConnection, error) {
	connections, err := s.connectionRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if connections == nil {
		return []domain.ExternalConnection{}, nil
	}
	return connections, nil
}
