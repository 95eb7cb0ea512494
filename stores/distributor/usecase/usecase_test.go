package usecase

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/distributor"
	"github.com/sgx-protocol/goapi/domain/token"
	tokenUC "github.com/sgx-protocol/goapi/stores/token/usecase"
)

type fakeDistRepo struct {
	ledgers map[domain.Address]distributor.Ledger
}

func (r *fakeDistRepo) Get(c bCtx.Ctx, address domain.Address) (*distributor.Ledger, error) {
	l, ok := r.ledgers[address.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

func (r *fakeDistRepo) Upsert(c bCtx.Ctx, l *distributor.Ledger) error {
	r.ledgers[l.Address.ToLower()] = *l
	return nil
}

type fakeTokenRepo struct{}

func (r fakeTokenRepo) GetLedger(c bCtx.Ctx, address domain.Address) (*token.Ledger, error) {
	return nil, domain.ErrNotFound
}
func (r fakeTokenRepo) UpsertLedger(c bCtx.Ctx, l *token.Ledger) error { return nil }
func (r fakeTokenRepo) ListBalances(c bCtx.Ctx, t domain.Address) ([]token.Balance, error) {
	return nil, nil
}
func (r fakeTokenRepo) UpsertBalance(c bCtx.Ctx, b *token.Balance) error { return nil }
func (r fakeTokenRepo) ListAllowances(c bCtx.Ctx, t domain.Address) ([]token.Allowance, error) {
	return nil, nil
}
func (r fakeTokenRepo) UpsertAllowance(c bCtx.Ctx, a *token.Allowance) error { return nil }

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) advance(d time.Duration) { f.now = f.now.Add(d) }

type countingUpdater struct {
	calls int
}

func (u *countingUpdater) UpdateRewards(c bCtx.Ctx) error {
	u.calls++
	return nil
}

const (
	distAddr    = domain.Address("0x00000000000000000000000000000000000000d1")
	wethAddr    = domain.Address("0x00000000000000000000000000000000000000e1")
	trackerAddr = domain.Address("0x00000000000000000000000000000000000000f1")
	adminAddr   = domain.Address("0x00000000000000000000000000000000000000a0")
	strangerBob = domain.Address("0x00000000000000000000000000000000000000b1")
)

type distSuite struct {
	suite.Suite

	ctx      bCtx.Ctx
	clock    *fakeClock
	registry *token.Registry
	weth     token.UseCase
	dist     distributor.UseCase
}

func (ts *distSuite) SetupTest() {
	ts.ctx = bCtx.Background()
	ts.clock = &fakeClock{now: time.Unix(1_700_000_000, 0)}
	ts.registry = token.NewRegistry()

	ts.weth = tokenUC.New(&tokenUC.TokenCfg{
		Repo: fakeTokenRepo{},
		Ledger: &token.Ledger{
			Address:  wethAddr,
			Symbol:   "WETH",
			Decimals: 18,
			Gov:      adminAddr,
			Minters:  []domain.Address{adminAddr},
		},
	})
	ts.Require().NoError(ts.weth.Load(ts.ctx))
	ts.registry.Register(ts.weth)

	ts.dist = New(&DistributorCfg{
		Repo:     &fakeDistRepo{ledgers: map[domain.Address]distributor.Ledger{}},
		Registry: ts.registry,
		Clock:    ts.clock,
		Ledger: &distributor.Ledger{
			Address:           distAddr,
			RewardToken:       wethAddr,
			Tracker:           trackerAddr,
			Admin:             adminAddr,
			TokensPerInterval: "1000",
		},
	})
	ts.Require().NoError(ts.dist.Load(ts.ctx))
}

func TestDistributorSuite(t *testing.T) {
	suite.Run(t, new(distSuite))
}

func (ts *distSuite) TestLoadSeedsConfiguredRates() {
	repo := &fakeDistRepo{ledgers: map[domain.Address]distributor.Ledger{}}
	cfg := &DistributorCfg{
		Repo:     repo,
		Registry: ts.registry,
		Clock:    ts.clock,
		Ledger: &distributor.Ledger{
			Address:            distAddr,
			RewardToken:        wethAddr,
			Tracker:            trackerAddr,
			Admin:              adminAddr,
			TokensPerInterval:  "1000",
			BonusMultiplierBps: "10000",
		},
	}
	dist := New(cfg)
	ts.Require().NoError(dist.Load(ts.ctx))

	// an empty repo must not zero the configured rate
	ts.Equal(big.NewInt(1000), dist.TokensPerInterval(ts.ctx))
	ts.Equal("1000", repo.ledgers[distAddr].TokensPerInterval)
	ts.Equal("10000", repo.ledgers[distAddr].BonusMultiplierBps)

	reloaded := New(cfg)
	ts.Require().NoError(reloaded.Load(ts.ctx))
	ts.Equal(big.NewInt(1000), reloaded.TokensPerInterval(ts.ctx))
}

func (ts *distSuite) TestPendingBeforeInitialization() {
	ts.clock.advance(time.Hour)
	ts.Equal(int64(0), ts.dist.PendingRewards(ts.ctx).Int64())
}

func (ts *distSuite) TestUpdateLastDistributionTimeGated() {
	ts.ErrorIs(ts.dist.UpdateLastDistributionTime(ts.ctx, strangerBob), domain.ErrForbidden)
	ts.NoError(ts.dist.UpdateLastDistributionTime(ts.ctx, adminAddr))
}

func (ts *distSuite) TestPendingAccrues() {
	ts.Require().NoError(ts.dist.UpdateLastDistributionTime(ts.ctx, adminAddr))
	ts.clock.advance(60 * time.Second)
	ts.Equal(big.NewInt(60_000), ts.dist.PendingRewards(ts.ctx))
}

func (ts *distSuite) TestDistributeUnderfunded() {
	ts.Require().NoError(ts.dist.UpdateLastDistributionTime(ts.ctx, adminAddr))
	ts.clock.advance(10 * time.Second)
	_, err := ts.dist.Distribute(ts.ctx)
	ts.ErrorIs(err, domain.ErrInsufficientReserves)
	// the checkpoint must not advance on a failed distribution
	ts.Equal(big.NewInt(10_000), ts.dist.PendingRewards(ts.ctx))
}

func (ts *distSuite) TestDistributeMovesRewards() {
	ts.Require().NoError(ts.weth.Mint(ts.ctx, adminAddr, distAddr, big.NewInt(1_000_000)))
	ts.Require().NoError(ts.dist.UpdateLastDistributionTime(ts.ctx, adminAddr))
	ts.clock.advance(30 * time.Second)

	paid, err := ts.dist.Distribute(ts.ctx)
	ts.Require().NoError(err)
	ts.Equal(big.NewInt(30_000), paid)
	ts.Equal(big.NewInt(30_000), ts.weth.BalanceOf(ts.ctx, trackerAddr))
	ts.Equal(int64(0), ts.dist.PendingRewards(ts.ctx).Int64())
}

func (ts *distSuite) TestDistributeNoopWhenNothingPending() {
	ts.Require().NoError(ts.dist.UpdateLastDistributionTime(ts.ctx, adminAddr))
	paid, err := ts.dist.Distribute(ts.ctx)
	ts.NoError(err)
	ts.Equal(int64(0), paid.Int64())
}

func (ts *distSuite) TestSetTokensPerInterval() {
	ts.ErrorIs(ts.dist.SetTokensPerInterval(ts.ctx, adminAddr, big.NewInt(5)), domain.ErrNotInitialized)
	ts.Require().NoError(ts.dist.UpdateLastDistributionTime(ts.ctx, adminAddr))
	ts.ErrorIs(ts.dist.SetTokensPerInterval(ts.ctx, strangerBob, big.NewInt(5)), domain.ErrForbidden)

	updater := &countingUpdater{}
	ts.dist.SetRewardsUpdater(updater)
	ts.NoError(ts.dist.SetTokensPerInterval(ts.ctx, adminAddr, big.NewInt(5)))
	ts.Equal(1, updater.calls)

	ts.clock.advance(2 * time.Second)
	ts.Equal(big.NewInt(10), ts.dist.PendingRewards(ts.ctx))
}

func (ts *distSuite) TestBonusRateFollowsTrackerSupply() {
	receipt := tokenUC.New(&tokenUC.TokenCfg{
		Repo: fakeTokenRepo{},
		Ledger: &token.Ledger{
			Address: trackerAddr,
			Symbol:  "sSGX",
			Gov:     adminAddr,
			Minters: []domain.Address{adminAddr},
		},
	})
	ts.Require().NoError(receipt.Load(ts.ctx))
	ts.Require().NoError(receipt.Mint(ts.ctx, adminAddr, strangerBob, domain.ExpandDecimals(1000, 18)))
	ts.registry.Register(receipt)

	bonus := NewBonus(&DistributorCfg{
		Repo:     &fakeDistRepo{ledgers: map[domain.Address]distributor.Ledger{}},
		Registry: ts.registry,
		Clock:    ts.clock,
		Ledger: &distributor.Ledger{
			Address:            distAddr,
			RewardToken:        wethAddr,
			Tracker:            trackerAddr,
			Admin:              adminAddr,
			BonusMultiplierBps: "10000",
		},
	})
	ts.Require().NoError(bonus.Load(ts.ctx))
	ts.Require().NoError(bonus.UpdateLastDistributionTime(ts.ctx, adminAddr))

	// at 100% multiplier the full supply streams out over one year
	ts.clock.advance(domain.SecondsPerYear * time.Second)
	ts.Equal(domain.ExpandDecimals(1000, 18), bonus.PendingRewards(ts.ctx))
}
