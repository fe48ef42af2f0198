package networth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

const (
	testUserID    = "11111111-1111-1111-1111-111111111111"
	testPartnerID = "22222222-2222-2222-2222-222222222222"
)

type mockAccountRepository struct {
	accounts []domain.Account
}

func (m *mockAccountRepository) Save(_ context.Context, account *domain.Account) error {
	m.accounts = append(m.accounts, *account)
	return nil
}

func (m *mockAccountRepository) FindByID(context.Context, uuid.UUID) (*domain.Account, error) {
	panic("implement me")
}

func (m *mockAccountRepository) FindByUser(_ context.Context, userID string) ([]domain.Account, error) {
	var accounts []domain.Account
	for _, account := range m.accounts {
		if account.UserID == userID {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

func (m *mockAccountRepository) FindByConnectionAndExternalID(context.Context, uuid.UUID, string) (*domain.Account, error) {
	panic("implement me")
}

func (m *mockAccountRepository) Update(context.Context, *domain.Account) error {
	panic("implement me")
}

func (m *mockAccountRepository) UpsertByExternalIDTx(context.Context, *sql.Tx, *domain.Account) error {
	panic("implement me")
}

func (m *mockAccountRepository) Delete(context.Context, uuid.UUID) error {
	panic("implement me")
}

type mockAssetRepository struct {
	assets []Asset
}

func (m *mockAssetRepository) Save(_ context.Context, asset *Asset) error {
	m.assets = append(m.assets, *asset)
	return nil
}

func (m *mockAssetRepository) FindByID(context.Context, uuid.UUID) (*Asset, error) {
	panic("implement me")
}

func (m *mockAssetRepository) FindByUser(_ context.Context, userID string) ([]Asset, error) {
	var assets []Asset
	for _, asset := range m.assets {
		if asset.UserID == userID {
			assets = append(assets, asset)
		}
	}
	return assets, nil
}

func (m *mockAssetRepository) Update(context.Context, *Asset) error  { panic("implement me") }
func (m *mockAssetRepository) Delete(context.Context, uuid.UUID) error { panic("implement me") }

type mockLiabilityRepository struct {
	liabilities []Liability
}

func (m *mockLiabilityRepository) Save(_ context.Context, liability *Liability) error {
	m.liabilities = append(m.liabilities, *liability)
	return nil
}

func (m *mockLiabilityRepository) FindByID(context.Context, uuid.UUID) (*Liability, error) {
	panic("implement me")
}

func (m *mockLiabilityRepository) FindByUser(_ context.Context, userID string) ([]Liability, error) {
	var liabilities []Liability
	for _, liability := range m.liabilities {
		if liability.UserID == userID {
			liabilities = append(liabilities, liability)
		}
	}
	return liabilities, nil
}

func (m *mockLiabilityRepository) Update(context.Context, *Liability) error { panic("implement me") }
func (m *mockLiabilityRepository) Delete(context.Context, uuid.UUID) error  { panic("implement me") }

type snapshotKey struct {
	userID string
	day    time.Time
}

type mockSnapshotRepository struct {
	snapshots map[snapshotKey]Snapshot
}

func newMockSnapshotRepository() *mockSnapshotRepository {
	return &mockSnapshotRepository{snapshots: make(map[snapshotKey]Snapshot)}
}

func (m *mockSnapshotRepository) Upsert(_ context.Context, snapshot *Snapshot) error {
	m.snapshots[snapshotKey{snapshot.UserID, snapshot.Date}] = *snapshot
	return nil
}

func (m *mockSnapshotRepository) FindByUserInRange(_ context.Context, userID string, start, end time.Time) ([]Snapshot, error) {
	var result []Snapshot
	for key, snapshot := range m.snapshots {
		if key.userID != userID || snapshot.Date.Before(start) || snapshot.Date.After(end) {
			continue
		}
		result = append(result, snapshot)
	}
	return result, nil
}

type mockInvestments struct {
	totals  map[string]decimal.Decimal
	byClass map[string]map[string]decimal.Decimal
}

func (m *mockInvestments) TotalValueByUser(_ context.Context, userID string) (decimal.Decimal, map[string]decimal.Decimal, error) {
	return m.totals[userID], m.byClass[userID], nil
}

type mockHousehold struct {
	partners map[string]string
}

func (m *mockHousehold) ActivePartner(_ context.Context, userID string) (string, error) {
	return m.partners[userID], nil
}

type serviceFixture struct {
	accountRepo   *mockAccountRepository
	assetRepo     *mockAssetRepository
	liabilityRepo *mockLiabilityRepository
	snapshotRepo  *mockSnapshotRepository
	investments   *mockInvestments
	household     *mockHousehold
	service       *Service
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		accountRepo:   &mockAccountRepository{},
		assetRepo:     &mockAssetRepository{},
		liabilityRepo: &mockLiabilityRepository{},
		snapshotRepo:  newMockSnapshotRepository(),
		investments: &mockInvestments{
			totals:  map[string]decimal.Decimal{},
			byClass: map[string]map[string]decimal.Decimal{},
		},
		household: &mockHousehold{partners: map[string]string{}},
	}
	f.service = NewService(
		f.accountRepo, f.assetRepo, f.liabilityRepo, f.snapshotRepo,
		f.investments, f.household,
	)
	return f
}

func (f *serviceFixture) addAccount(userID string, accountType domain.AccountType, balance string, active bool) {
	_ = f.accountRepo.Save(context.Background(), &domain.Account{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           string(accountType),
		Type:           accountType,
		CurrentBalance: decimal.RequireFromString(balance),
		Active:         active,
	})
}

func TestCalculateCurrentNetWorth_Breakdown(t *testing.T) {
	f := newServiceFixture()
	f.addAccount(testUserID, domain.AccountTypeChecking, "5000.00", true)
	f.addAccount(testUserID, domain.AccountTypeSavings, "12000.00", true)
	f.addAccount(testUserID, domain.AccountTypeCredit, "1200.00", true)
	f.addAccount(testUserID, domain.AccountTypeChecking, "9999.00", false) // closed

	f.investments.totals[testUserID] = decimal.RequireFromString("31000.00")
	f.investments.byClass[testUserID] = map[string]decimal.Decimal{
		"equity": decimal.RequireFromString("1000.00"),
		"crypto": decimal.RequireFromString("30000.00"),
	}
	_ = f.assetRepo.Save(context.Background(), &Asset{
		ID: uuid.New(), UserID: testUserID, Name: "House",
		Value: decimal.RequireFromString("350000.00"),
	})
	_ = f.liabilityRepo.Save(context.Background(), &Liability{
		ID: uuid.New(), UserID: testUserID, Name: "Mortgage",
		Balance: decimal.RequireFromString("250000.00"),
	})

	breakdown, err := f.service.CalculateCurrentNetWorth(context.Background(), testUserID)
	require.NoError(t, err)

	assert.True(t, breakdown.AccountAssets.Equal(decimal.RequireFromString("17000.00")))
	assert.True(t, breakdown.AccountLiabilities.Equal(decimal.RequireFromString("1200.00")))
	assert.True(t, breakdown.InvestmentAssets.Equal(decimal.RequireFromString("31000.00")))
	assert.True(t, breakdown.ManualAssets.Equal(decimal.RequireFromString("350000.00")))
	assert.True(t, breakdown.ManualLiabilities.Equal(decimal.RequireFromString("250000.00")))
	assert.True(t, breakdown.TotalAssets.Equal(decimal.RequireFromString("398000.00")))
	assert.True(t, breakdown.TotalLiabilities.Equal(decimal.RequireFromString("251200.00")))
	assert.True(t, breakdown.NetWorth.Equal(decimal.RequireFromString("146800.00")), "got %s", breakdown.NetWorth)
	assert.True(t, breakdown.InvestmentByClass["crypto"].Equal(decimal.RequireFromString("30000.00")))
}

func TestCalculateHouseholdNetWorth_SumsBothPartners(t *testing.T) {
	f := newServiceFixture()
	f.household.partners[testUserID] = testPartnerID
	f.addAccount(testUserID, domain.AccountTypeChecking, "1000.00", true)
	f.addAccount(testPartnerID, domain.AccountTypeChecking, "2500.00", true)
	f.addAccount(testPartnerID, domain.AccountTypeCredit, "500.00", true)

	own, err := f.service.CalculateCurrentNetWorth(context.Background(), testUserID)
	require.NoError(t, err)
	partner, err := f.service.CalculateCurrentNetWorth(context.Background(), testPartnerID)
	require.NoError(t, err)

	merged, err := f.service.CalculateHouseholdNetWorth(context.Background(), testUserID)
	require.NoError(t, err)
	assert.True(t, merged.NetWorth.Equal(own.NetWorth.Add(partner.NetWorth)))
	assert.True(t, merged.NetWorth.Equal(decimal.RequireFromString("3000.00")))
	assert.True(t, merged.AccountLiabilities.Equal(decimal.RequireFromString("500.00")))
}

func TestCalculateHouseholdNetWorth_RequiresActiveLink(t *testing.T) {
	f := newServiceFixture()
	_, err := f.service.CalculateHouseholdNetWorth(context.Background(), testUserID)
	assert.True(t, ledgerErrors.IsPreconditionError(err))
}

func TestGetHistory_AppendsLivePoint(t *testing.T) {
	f := newServiceFixture()
	now := time.Date(2024, time.August, 15, 14, 30, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }

	f.addAccount(testUserID, domain.AccountTypeChecking, "5000.00", true)
	yesterday := time.Date(2024, time.August, 14, 0, 0, 0, 0, time.UTC)
	_ = f.snapshotRepo.Upsert(context.Background(), &Snapshot{
		ID: uuid.New(), UserID: testUserID, Date: yesterday,
		NetWorth:    decimal.RequireFromString("4800.00"),
		TotalAssets: decimal.RequireFromString("4800.00"),
	})

	points, err := f.service.GetHistory(context.Background(), testUserID,
		yesterday.AddDate(0, 0, -7), now)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.False(t, points[0].Live)
	assert.True(t, points[0].NetWorth.Equal(decimal.RequireFromString("4800.00")))
	assert.True(t, points[1].Live)
	assert.Equal(t, time.Date(2024, time.August, 15, 0, 0, 0, 0, time.UTC), points[1].Date)
	assert.True(t, points[1].NetWorth.Equal(decimal.RequireFromString("5000.00")))
}

func TestGetHistory_LivePointSupersedesTodaysSnapshot(t *testing.T) {
	f := newServiceFixture()
	now := time.Date(2024, time.August, 15, 23, 50, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }
	f.addAccount(testUserID, domain.AccountTypeChecking, "5100.00", true)

	today := time.Date(2024, time.August, 15, 0, 0, 0, 0, time.UTC)
	_ = f.snapshotRepo.Upsert(context.Background(), &Snapshot{
		ID: uuid.New(), UserID: testUserID, Date: today,
		NetWorth: decimal.RequireFromString("5000.00"),
	})

	points, err := f.service.GetHistory(context.Background(), testUserID,
		today.AddDate(0, 0, -7), now)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.True(t, points[0].Live)
	assert.True(t, points[0].NetWorth.Equal(decimal.RequireFromString("5100.00")))
}

func TestGetHistory_PastRangeHasNoLivePoint(t *testing.T) {
	f := newServiceFixture()
	now := time.Date(2024, time.August, 15, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }

	start := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.July, 31, 0, 0, 0, 0, time.UTC)
	_ = f.snapshotRepo.Upsert(context.Background(), &Snapshot{
		ID: uuid.New(), UserID: testUserID,
		Date:     time.Date(2024, time.July, 10, 0, 0, 0, 0, time.UTC),
		NetWorth: decimal.RequireFromString("100.00"),
	})

	points, err := f.service.GetHistory(context.Background(), testUserID, start, end)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.False(t, points[0].Live)
}

func TestGetHouseholdHistory_MergesByDay(t *testing.T) {
	f := newServiceFixture()
	now := time.Date(2024, time.August, 15, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }
	f.household.partners[testUserID] = testPartnerID

	day1 := time.Date(2024, time.August, 12, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, time.August, 13, 0, 0, 0, 0, time.UTC)
	_ = f.snapshotRepo.Upsert(context.Background(), &Snapshot{
		ID: uuid.New(), UserID: testUserID, Date: day1,
		NetWorth: decimal.RequireFromString("100.00"),
	})
	_ = f.snapshotRepo.Upsert(context.Background(), &Snapshot{
		ID: uuid.New(), UserID: testPartnerID, Date: day1,
		NetWorth: decimal.RequireFromString("40.00"),
	})
	// Only the partner has a point on day2; the user's side counts as zero.
	_ = f.snapshotRepo.Upsert(context.Background(), &Snapshot{
		ID: uuid.New(), UserID: testPartnerID, Date: day2,
		NetWorth: decimal.RequireFromString("60.00"),
	})

	end := time.Date(2024, time.August, 13, 0, 0, 0, 0, time.UTC)
	points, err := f.service.GetHouseholdHistory(context.Background(), testUserID, day1, end)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, day1, points[0].Date)
	assert.True(t, points[0].NetWorth.Equal(decimal.RequireFromString("140.00")))
	assert.Equal(t, day2, points[1].Date)
	assert.True(t, points[1].NetWorth.Equal(decimal.RequireFromString("60.00")))
}

func TestSnapshotUser_SameDayOverwrites(t *testing.T) {
	f := newServiceFixture()
	now := time.Date(2024, time.August, 15, 6, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }
	f.addAccount(testUserID, domain.AccountTypeChecking, "5000.00", true)

	require.NoError(t, f.service.SnapshotUser(context.Background(), testUserID))

	// Balance moves during the day, snapshot job runs again.
	f.accountRepo.accounts[0].CurrentBalance = decimal.RequireFromString("5400.00")
	require.NoError(t, f.service.SnapshotUser(context.Background(), testUserID))

	today := time.Date(2024, time.August, 15, 0, 0, 0, 0, time.UTC)
	require.Len(t, f.snapshotRepo.snapshots, 1)
	stored := f.snapshotRepo.snapshots[snapshotKey{testUserID, today}]
	assert.True(t, stored.NetWorth.Equal(decimal.RequireFromString("5400.00")))
}
