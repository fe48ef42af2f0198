package networth

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

// InvestmentValuer is the slice of the holding service net worth needs.
type InvestmentValuer interface {
	TotalValueByUser(ctx context.Context, userID string) (decimal.Decimal, map[string]decimal.Decimal, error)
}

// HouseholdDirectory resolves a user's active household partner. An empty
// partner ID means the user has no active link.
type HouseholdDirectory interface {
	ActivePartner(ctx context.Context, userID string) (string, error)
}

// Breakdown is a point-in-time net worth with its contributing parts.
// NetWorth is always TotalAssets minus TotalLiabilities.
type Breakdown struct {
	NetWorth           decimal.Decimal
	TotalAssets        decimal.Decimal
	TotalLiabilities   decimal.Decimal
	AccountAssets      decimal.Decimal
	AccountLiabilities decimal.Decimal
	InvestmentAssets   decimal.Decimal
	ManualAssets       decimal.Decimal
	ManualLiabilities  decimal.Decimal
	InvestmentByClass  map[string]decimal.Decimal
}

// HistoryPoint is one day on the net worth curve. Live marks the synthetic
// current-moment point, which is computed on read and never persisted.
type HistoryPoint struct {
	Date             time.Time
	NetWorth         decimal.Decimal
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	Live             bool
}

type Service struct {
	accountRepo   domain.AccountRepository
	assetRepo     AssetRepository
	liabilityRepo LiabilityRepository
	snapshotRepo  SnapshotRepository
	investments   InvestmentValuer
	household     HouseholdDirectory
	now           func() time.Time
}

func NewService(
	accountRepo domain.AccountRepository,
	assetRepo AssetRepository,
	liabilityRepo LiabilityRepository,
	snapshotRepo SnapshotRepository,
	investments InvestmentValuer,
	household HouseholdDirectory,
) *Service {
	return &Service{
		accountRepo:   accountRepo,
		assetRepo:     assetRepo,
		liabilityRepo: liabilityRepo,
		snapshotRepo:  snapshotRepo,
		investments:   investments,
		household:     household,
		now:           time.Now,
	}
}

// CalculateCurrentNetWorth values everything the user owns and owes right
// now: active ledger accounts, investment holdings at their latest price, and
// manually tracked assets and liabilities.
func (s *Service) CalculateCurrentNetWorth(ctx context.Context, userID string) (*Breakdown, error) {
	accounts, err := s.accountRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	breakdown := &Breakdown{InvestmentByClass: map[string]decimal.Decimal{}}
	for _, account := range accounts {
		if !account.Active {
			continue
		}
		if account.IsLiability() {
			breakdown.AccountLiabilities = breakdown.AccountLiabilities.Add(account.CurrentBalance)
		} else {
			breakdown.AccountAssets = breakdown.AccountAssets.Add(account.CurrentBalance)
		}
	}

	investmentTotal, byClass, err := s.investments.TotalValueByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	breakdown.InvestmentAssets = investmentTotal
	for class, value := range byClass {
		breakdown.InvestmentByClass[class] = value
	}

	assets, err := s.assetRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, asset := range assets {
		breakdown.ManualAssets = breakdown.ManualAssets.Add(asset.Value)
	}

	liabilities, err := s.liabilityRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, liability := range liabilities {
		breakdown.ManualLiabilities = breakdown.ManualLiabilities.Add(liability.Balance)
	}

	breakdown.TotalAssets = breakdown.AccountAssets.
		Add(breakdown.InvestmentAssets).
		Add(breakdown.ManualAssets)
	breakdown.TotalLiabilities = breakdown.AccountLiabilities.
		Add(breakdown.ManualLiabilities)
	breakdown.NetWorth = breakdown.TotalAssets.Sub(breakdown.TotalLiabilities)
	return breakdown, nil
}

// CalculateHouseholdNetWorth merges the user's breakdown with their active
// partner's, field by field. Requires an active mutual link.
func (s *Service) CalculateHouseholdNetWorth(ctx context.Context, userID string) (*Breakdown, error) {
	partnerID, err := s.household.ActivePartner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if partnerID == "" {
		return nil, ledgerErrors.NewPreconditionError("No active household link")
	}

	own, err := s.CalculateCurrentNetWorth(ctx, userID)
	if err != nil {
		return nil, err
	}
	partner, err := s.CalculateCurrentNetWorth(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	merged := &Breakdown{
		NetWorth:           own.NetWorth.Add(partner.NetWorth),
		TotalAssets:        own.TotalAssets.Add(partner.TotalAssets),
		TotalLiabilities:   own.TotalLiabilities.Add(partner.TotalLiabilities),
		AccountAssets:      own.AccountAssets.Add(partner.AccountAssets),
		AccountLiabilities: own.AccountLiabilities.Add(partner.AccountLiabilities),
		InvestmentAssets:   own.InvestmentAssets.Add(partner.InvestmentAssets),
		ManualAssets:       own.ManualAssets.Add(partner.ManualAssets),
		ManualLiabilities:  own.ManualLiabilities.Add(partner.ManualLiabilities),
		InvestmentByClass:  map[string]decimal.Decimal{},
	}
	for class, value := range own.InvestmentByClass {
		merged.InvestmentByClass[class] = value
	}
	for class, value := range partner.InvestmentByClass {
		merged.InvestmentByClass[class] = merged.InvestmentByClass[class].Add(value)
	}
	return merged, nil
}

// SnapshotUser persists today's breakdown as the user's daily snapshot,
// overwriting an earlier snapshot for the same day.
func (s *Service) SnapshotUser(ctx context.Context, userID string) error {
	breakdown, err := s.CalculateCurrentNetWorth(ctx, userID)
	if err != nil {
		return err
	}
	snapshot := &Snapshot{
		ID:                 uuid.New(),
		UserID:             userID,
		Date:               truncateToDay(s.now()),
		NetWorth:           breakdown.NetWorth,
		TotalAssets:        breakdown.TotalAssets,
		TotalLiabilities:   breakdown.TotalLiabilities,
		AccountAssets:      breakdown.AccountAssets,
		AccountLiabilities: breakdown.AccountLiabilities,
		InvestmentAssets:   breakdown.InvestmentAssets,
		ManualAssets:       breakdown.ManualAssets,
		ManualLiabilities:  breakdown.ManualLiabilities,
	}
	return s.snapshotRepo.Upsert(ctx, snapshot)
}

// GetHistory returns the persisted daily points in [start, end], plus a
// synthetic live point for the current moment when the range reaches today.
// The live point supersedes any snapshot already persisted for today.
func (s *Service) GetHistory(ctx context.Context, userID string, start, end time.Time) ([]HistoryPoint, error) {
	snapshots, err := s.snapshotRepo.FindByUserInRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	today := truncateToDay(s.now())
	points := make([]HistoryPoint, 0, len(snapshots)+1)
	for _, snapshot := range snapshots {
		if !end.Before(today) && sameDay(snapshot.Date, today) {
			continue
		}
		points = append(points, HistoryPoint{
			Date:             snapshot.Date,
			NetWorth:         snapshot.NetWorth,
			TotalAssets:      snapshot.TotalAssets,
			TotalLiabilities: snapshot.TotalLiabilities,
		})
	}

	if !end.Before(today) {
		breakdown, err := s.CalculateCurrentNetWorth(ctx, userID)
		if err != nil {
			return nil, err
		}
		points = append(points, HistoryPoint{
			Date:             today,
			NetWorth:         breakdown.NetWorth,
			TotalAssets:      breakdown.TotalAssets,
			TotalLiabilities: breakdown.TotalLiabilities,
			Live:             true,
		})
	}
	return points, nil
}

// GetHouseholdHistory merges both partners' curves by calendar day. A day
// either side is missing contributes zero for that side.
func (s *Service) GetHouseholdHistory(ctx context.Context, userID string, start, end time.Time) ([]HistoryPoint, error) {
	partnerID, err := s.household.ActivePartner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if partnerID == "" {
		return nil, ledgerErrors.NewPreconditionError("No active household link")
	}

	own, err := s.GetHistory(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	partner, err := s.GetHistory(ctx, partnerID, start, end)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]HistoryPoint)
	for _, point := range append(own, partner...) {
		day := truncateToDay(point.Date)
		merged := byDay[day]
		merged.Date = day
		merged.NetWorth = merged.NetWorth.Add(point.NetWorth)
		merged.TotalAssets = merged.TotalAssets.Add(point.TotalAssets)
		merged.TotalLiabilities = merged.TotalLiabilities.Add(point.TotalLiabilities)
		merged.Live = merged.Live || point.Live
		byDay[day] = merged
	}

	points := make([]HistoryPoint, 0, len(byDay))
	for _, point := range byDay {
		points = append(points, point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return truncateToDay(a).Equal(truncateToDay(b))
}
