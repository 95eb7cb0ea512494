package usecase

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/distributor"
	"github.com/sgx-protocol/goapi/domain/router"
	"github.com/sgx-protocol/goapi/domain/token"
	"github.com/sgx-protocol/goapi/domain/tracker"
	"github.com/sgx-protocol/goapi/domain/vester"
	distUC "github.com/sgx-protocol/goapi/stores/distributor/usecase"
	tokenUC "github.com/sgx-protocol/goapi/stores/token/usecase"
	trackerUC "github.com/sgx-protocol/goapi/stores/tracker/usecase"
	vesterUC "github.com/sgx-protocol/goapi/stores/vester/usecase"
)

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

type fakeTrackerRepo struct{}

func (r fakeTrackerRepo) GetLedger(c bCtx.Ctx, address domain.Address) (*tracker.Ledger, error) {
	return nil, domain.ErrNotFound
}
func (r fakeTrackerRepo) UpsertLedger(c bCtx.Ctx, l *tracker.Ledger) error { return nil }
func (r fakeTrackerRepo) ListAccounts(c bCtx.Ctx, t domain.Address) ([]tracker.Account, error) {
	return nil, nil
}
func (r fakeTrackerRepo) UpsertAccount(c bCtx.Ctx, a *tracker.Account) error { return nil }

type fakeVesterRepo struct{}

func (r fakeVesterRepo) GetLedger(c bCtx.Ctx, address domain.Address) (*vester.Ledger, error) {
	return nil, domain.ErrNotFound
}
func (r fakeVesterRepo) UpsertLedger(c bCtx.Ctx, l *vester.Ledger) error { return nil }
func (r fakeVesterRepo) ListAccounts(c bCtx.Ctx, v domain.Address) ([]vester.Account, error) {
	return nil, nil
}
func (r fakeVesterRepo) UpsertAccount(c bCtx.Ctx, a *vester.Account) error { return nil }

type fakeDistRepo struct{}

func (r fakeDistRepo) Get(c bCtx.Ctx, address domain.Address) (*distributor.Ledger, error) {
	return nil, domain.ErrNotFound
}
func (r fakeDistRepo) Upsert(c bCtx.Ctx, l *distributor.Ledger) error { return nil }

type fakeRouterRepo struct {
	transfers map[domain.Address]router.PendingTransfer
}

func (r *fakeRouterRepo) ListPendingTransfers(c bCtx.Ctx) ([]router.PendingTransfer, error) {
	res := []router.PendingTransfer{}
	for _, t := range r.transfers {
		res = append(res, t)
	}
	return res, nil
}

func (r *fakeRouterRepo) UpsertPendingTransfer(c bCtx.Ctx, t *router.PendingTransfer) error {
	r.transfers[t.Sender.ToLower()] = *t
	return nil
}

func (r *fakeRouterRepo) DeletePendingTransfer(c bCtx.Ctx, sender domain.Address) error {
	delete(r.transfers, sender.ToLower())
	return nil
}

// fakeLpManager swaps one-to-one and never rejects.
type fakeLpManager struct{}

func (fakeLpManager) AddLiquidity(c bCtx.Ctx, account, tokenIn domain.Address, amount, minUsdValue, minLp *big.Int) (*big.Int, error) {
	return new(big.Int).Set(amount), nil
}

func (fakeLpManager) RemoveLiquidity(c bCtx.Ctx, account, tokenOut domain.Address, lpAmount, minOut *big.Int, receiver domain.Address) (*big.Int, error) {
	return new(big.Int).Set(lpAmount), nil
}

func (fakeLpManager) GetAum(c bCtx.Ctx) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) advance(d time.Duration) { f.now = f.now.Add(d) }

const (
	sgxAddr   = domain.Address("0x0000000000000000000000000000000000000001")
	esSgxAddr = domain.Address("0x0000000000000000000000000000000000000002")
	bnSgxAddr = domain.Address("0x0000000000000000000000000000000000000003")
	sgxLpAddr = domain.Address("0x0000000000000000000000000000000000000004")
	wethAddr  = domain.Address("0x0000000000000000000000000000000000000005")

	stakedSgxTrackerAddr   = domain.Address("0x0000000000000000000000000000000000000011")
	bonusSgxTrackerAddr    = domain.Address("0x0000000000000000000000000000000000000012")
	feeSgxTrackerAddr      = domain.Address("0x0000000000000000000000000000000000000013")
	feeSgxLpTrackerAddr    = domain.Address("0x0000000000000000000000000000000000000014")
	stakedSgxLpTrackerAddr = domain.Address("0x0000000000000000000000000000000000000015")

	stakedSgxDistAddr   = domain.Address("0x0000000000000000000000000000000000000021")
	bonusSgxDistAddr    = domain.Address("0x0000000000000000000000000000000000000022")
	feeSgxDistAddr      = domain.Address("0x0000000000000000000000000000000000000023")
	feeSgxLpDistAddr    = domain.Address("0x0000000000000000000000000000000000000024")
	stakedSgxLpDistAddr = domain.Address("0x0000000000000000000000000000000000000025")

	sgxVesterAddr   = domain.Address("0x0000000000000000000000000000000000000031")
	sgxLpVesterAddr = domain.Address("0x0000000000000000000000000000000000000032")

	routerAddr = domain.Address("0x0000000000000000000000000000000000000041")
	govAddr    = domain.Address("0x00000000000000000000000000000000000000g0")
	aliceAddr  = domain.Address("0x00000000000000000000000000000000000000a1")
	bobAddr    = domain.Address("0x00000000000000000000000000000000000000b1")
)

const yearSeconds = int64(365 * 24 * 60 * 60)

type routerSuite struct {
	suite.Suite

	ctx      bCtx.Ctx
	clock    *fakeClock
	registry *token.Registry

	sgx   token.UseCase
	esSgx token.UseCase
	bnSgx token.UseCase
	sgxLp token.UseCase
	weth  token.UseCase

	stakedSgxTracker   tracker.UseCase
	bonusSgxTracker    tracker.UseCase
	feeSgxTracker      tracker.UseCase
	feeSgxLpTracker    tracker.UseCase
	stakedSgxLpTracker tracker.UseCase

	sgxVester   vester.UseCase
	sgxLpVester vester.UseCase

	rtr router.UseCase
}

func (ts *routerSuite) newToken(address domain.Address, symbol string, minters, handlers []domain.Address) token.UseCase {
	t := tokenUC.New(&tokenUC.TokenCfg{
		Repo: fakeTokenRepo{},
		Ledger: &token.Ledger{
			Address:  address,
			Symbol:   symbol,
			Decimals: 18,
			Gov:      govAddr,
			Minters:  minters,
			Handlers: handlers,
		},
	})
	ts.Require().NoError(t.Load(ts.ctx))
	ts.registry.Register(t)
	return t
}

func (ts *routerSuite) newDistributor(bonus bool, address, rewardToken, trackerAddr domain.Address, rate string) distributor.UseCase {
	ledger := &distributor.Ledger{
		Address:     address,
		RewardToken: rewardToken,
		Tracker:     trackerAddr,
		Admin:       govAddr,
	}
	cfg := &distUC.DistributorCfg{
		Repo:     fakeDistRepo{},
		Registry: ts.registry,
		Clock:    ts.clock,
		Ledger:   ledger,
	}
	var d distributor.UseCase
	if bonus {
		ledger.BonusMultiplierBps = rate
		d = distUC.NewBonus(cfg)
	} else {
		ledger.TokensPerInterval = rate
		d = distUC.New(cfg)
	}
	ts.Require().NoError(d.Load(ts.ctx))
	ts.Require().NoError(d.UpdateLastDistributionTime(ts.ctx, govAddr))
	return d
}

func (ts *routerSuite) newTracker(address domain.Address, symbol string, dist distributor.UseCase, depositTokens, handlers []domain.Address) tracker.UseCase {
	t := trackerUC.New(&trackerUC.TrackerCfg{
		Repo:        fakeTrackerRepo{},
		Registry:    ts.registry,
		Distributor: dist,
		Ledger: &tracker.Ledger{
			Address:       address,
			Symbol:        symbol,
			Gov:           govAddr,
			Distributor:   dist.DistributorAddress(),
			DepositTokens: depositTokens,
			Handlers:      handlers,
		},
	})
	ts.Require().NoError(t.Load(ts.ctx))
	dist.SetRewardsUpdater(t)
	ts.registry.Register(t)
	return t
}

func (ts *routerSuite) newVester(address domain.Address, symbol string) vester.UseCase {
	v := vesterUC.New(&vesterUC.VesterCfg{
		Repo:     fakeVesterRepo{},
		Registry: ts.registry,
		Clock:    ts.clock,
		Ledger: &vester.Ledger{
			Address:         address,
			Symbol:          symbol,
			Gov:             govAddr,
			VestingDuration: yearSeconds,
			EsToken:         esSgxAddr,
			ClaimableToken:  sgxAddr,
			Handlers:        []domain.Address{routerAddr},
		},
	})
	ts.Require().NoError(v.Load(ts.ctx))
	ts.registry.Register(v)
	return v
}

func (ts *routerSuite) SetupTest() {
	ts.ctx = bCtx.Background()
	ts.clock = &fakeClock{now: time.Unix(1_700_000_000, 0)}
	ts.registry = token.NewRegistry()

	ts.sgx = ts.newToken(sgxAddr, "SGX",
		[]domain.Address{govAddr},
		[]domain.Address{stakedSgxTrackerAddr})
	ts.esSgx = ts.newToken(esSgxAddr, "esSGX",
		[]domain.Address{govAddr, sgxVesterAddr, sgxLpVesterAddr},
		[]domain.Address{routerAddr, stakedSgxTrackerAddr, stakedSgxLpTrackerAddr, sgxVesterAddr, sgxLpVesterAddr})
	// bnSgx moves only through the staking graph, so it runs in private
	// transfer mode with the bonus tracker among its handlers (claims are
	// sent straight from the tracker's own balance)
	ts.bnSgx = ts.newToken(bnSgxAddr, "bnSGX",
		[]domain.Address{govAddr, routerAddr},
		[]domain.Address{routerAddr, bonusSgxTrackerAddr, feeSgxTrackerAddr, bonusSgxDistAddr})
	ts.Require().NoError(ts.bnSgx.SetInPrivateTransferMode(ts.ctx, govAddr, true))
	ts.sgxLp = ts.newToken(sgxLpAddr, "SGXLP",
		[]domain.Address{govAddr, routerAddr},
		[]domain.Address{feeSgxLpTrackerAddr})
	ts.weth = ts.newToken(wethAddr, "WETH",
		[]domain.Address{govAddr},
		nil)

	stakedSgxDist := ts.newDistributor(false, stakedSgxDistAddr, esSgxAddr, stakedSgxTrackerAddr, "0")
	bonusSgxDist := ts.newDistributor(true, bonusSgxDistAddr, bnSgxAddr, bonusSgxTrackerAddr, "10000")
	feeSgxDist := ts.newDistributor(false, feeSgxDistAddr, wethAddr, feeSgxTrackerAddr, "1000")
	feeSgxLpDist := ts.newDistributor(false, feeSgxLpDistAddr, wethAddr, feeSgxLpTrackerAddr, "0")
	stakedSgxLpDist := ts.newDistributor(false, stakedSgxLpDistAddr, esSgxAddr, stakedSgxLpTrackerAddr, "0")

	ts.stakedSgxTracker = ts.newTracker(stakedSgxTrackerAddr, "sSGX", stakedSgxDist,
		[]domain.Address{sgxAddr, esSgxAddr},
		[]domain.Address{routerAddr, bonusSgxTrackerAddr})
	ts.bonusSgxTracker = ts.newTracker(bonusSgxTrackerAddr, "sbSGX", bonusSgxDist,
		[]domain.Address{stakedSgxTrackerAddr},
		[]domain.Address{routerAddr, feeSgxTrackerAddr})
	ts.feeSgxTracker = ts.newTracker(feeSgxTrackerAddr, "sbfSGX", feeSgxDist,
		[]domain.Address{bonusSgxTrackerAddr, bnSgxAddr},
		[]domain.Address{routerAddr})
	ts.feeSgxLpTracker = ts.newTracker(feeSgxLpTrackerAddr, "fSGXLP", feeSgxLpDist,
		[]domain.Address{sgxLpAddr},
		[]domain.Address{routerAddr, stakedSgxLpTrackerAddr})
	ts.stakedSgxLpTracker = ts.newTracker(stakedSgxLpTrackerAddr, "fsSGXLP", stakedSgxLpDist,
		[]domain.Address{feeSgxLpTrackerAddr},
		[]domain.Address{routerAddr})

	ts.sgxVester = ts.newVester(sgxVesterAddr, "vSGX")
	ts.sgxLpVester = ts.newVester(sgxLpVesterAddr, "vSGXLP")

	ts.rtr = New(&RouterCfg{
		Repo:               &fakeRouterRepo{transfers: map[domain.Address]router.PendingTransfer{}},
		Registry:           ts.registry,
		LpManager:          fakeLpManager{},
		Clock:              ts.clock,
		Address:            routerAddr,
		Gov:                govAddr,
		Sgx:                sgxAddr,
		EsSgx:              esSgxAddr,
		BnSgx:              bnSgxAddr,
		SgxLp:              sgxLpAddr,
		Weth:               wethAddr,
		StakedSgxTracker:   ts.stakedSgxTracker,
		BonusSgxTracker:    ts.bonusSgxTracker,
		FeeSgxTracker:      ts.feeSgxTracker,
		FeeSgxLpTracker:    ts.feeSgxLpTracker,
		StakedSgxLpTracker: ts.stakedSgxLpTracker,
		SgxVester:          ts.sgxVester,
		SgxLpVester:        ts.sgxLpVester,
	})
	ts.Require().NoError(ts.rtr.Load(ts.ctx))

	// reward reservoirs
	ts.Require().NoError(ts.bnSgx.Mint(ts.ctx, govAddr, bonusSgxDistAddr, domain.ExpandDecimals(1_000_000, 18)))
	ts.Require().NoError(ts.weth.Mint(ts.ctx, govAddr, feeSgxDistAddr, domain.ExpandDecimals(1000, 18)))
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(routerSuite))
}

func (ts *routerSuite) stakeSgx(account domain.Address, amount *big.Int) {
	ts.Require().NoError(ts.sgx.Mint(ts.ctx, govAddr, account, amount))
	ts.Require().NoError(ts.rtr.StakeSgx(ts.ctx, account, amount))
}

func (ts *routerSuite) TestStakeSgxRunsFullChain() {
	amount := domain.ExpandDecimals(1000, 18)
	ts.stakeSgx(aliceAddr, amount)

	ts.Equal(amount, ts.stakedSgxTracker.DepositBalance(ts.ctx, aliceAddr, sgxAddr))
	ts.Equal(amount, ts.bonusSgxTracker.StakedAmount(ts.ctx, aliceAddr))
	ts.Equal(amount, ts.feeSgxTracker.StakedAmount(ts.ctx, aliceAddr))
	// the spendable receipt sits at the top of the chain
	ts.Equal(amount, ts.feeSgxTracker.BalanceOf(ts.ctx, aliceAddr))
	ts.Equal(int64(0), ts.sgx.BalanceOf(ts.ctx, aliceAddr).Int64())
	ts.Equal(amount, ts.sgx.BalanceOf(ts.ctx, stakedSgxTrackerAddr))
}

func (ts *routerSuite) TestUnstakeReversesChain() {
	amount := domain.ExpandDecimals(1000, 18)
	ts.stakeSgx(aliceAddr, amount)
	ts.Require().NoError(ts.rtr.UnstakeSgx(ts.ctx, aliceAddr, amount))

	ts.Equal(amount, ts.sgx.BalanceOf(ts.ctx, aliceAddr))
	ts.Equal(int64(0), ts.stakedSgxTracker.StakedAmount(ts.ctx, aliceAddr).Int64())
	ts.Equal(int64(0), ts.feeSgxTracker.BalanceOf(ts.ctx, aliceAddr).Int64())
}

func (ts *routerSuite) TestCompoundStakesMultiplierPoints() {
	amount := domain.ExpandDecimals(1000, 18)
	ts.stakeSgx(aliceAddr, amount)
	ts.clock.advance(time.Duration(yearSeconds) * time.Second)

	ts.Require().NoError(ts.rtr.Compound(ts.ctx, aliceAddr))

	// a year at a 100% multiplier earns one point per staked token
	ts.Equal(amount, ts.feeSgxTracker.DepositBalance(ts.ctx, aliceAddr, bnSgxAddr))
	ts.Equal(int64(0), ts.bnSgx.BalanceOf(ts.ctx, aliceAddr).Int64())
}

func (ts *routerSuite) TestUnstakeBurnsProportionalMultiplierPoints() {
	amount := domain.ExpandDecimals(1000, 18)
	ts.stakeSgx(aliceAddr, amount)
	ts.clock.advance(time.Duration(yearSeconds) * time.Second)
	ts.Require().NoError(ts.rtr.Compound(ts.ctx, aliceAddr))

	supplyBefore := ts.bnSgx.TotalSupply(ts.ctx)
	half := domain.ExpandDecimals(500, 18)
	ts.Require().NoError(ts.rtr.UnstakeSgx(ts.ctx, aliceAddr, half))

	ts.Equal(half, ts.sgx.BalanceOf(ts.ctx, aliceAddr))
	ts.Equal(half, ts.stakedSgxTracker.StakedAmount(ts.ctx, aliceAddr))
	ts.Equal(half, ts.feeSgxTracker.DepositBalance(ts.ctx, aliceAddr, bnSgxAddr))
	ts.Equal(new(big.Int).Sub(supplyBefore, half), ts.bnSgx.TotalSupply(ts.ctx))
}

func (ts *routerSuite) TestClaimFees() {
	amount := domain.ExpandDecimals(1000, 18)
	ts.stakeSgx(aliceAddr, amount)
	ts.clock.advance(time.Hour)

	ts.Require().NoError(ts.rtr.ClaimFees(ts.ctx, aliceAddr))
	// sole staker collects the full emission, 1000 wei per second
	ts.Equal(big.NewInt(3_600_000), ts.weth.BalanceOf(ts.ctx, aliceAddr))
}

func (ts *routerSuite) TestMintAndStakeSgxLp() {
	amount := domain.ExpandDecimals(100, 18)
	lpAmount, err := ts.rtr.MintAndStakeSgxLp(ts.ctx, aliceAddr, wethAddr, amount, domain.Big0, domain.Big0)
	ts.Require().NoError(err)
	ts.Equal(amount, lpAmount)

	ts.Equal(amount, ts.feeSgxLpTracker.DepositBalance(ts.ctx, aliceAddr, sgxLpAddr))
	ts.Equal(amount, ts.stakedSgxLpTracker.StakedAmount(ts.ctx, aliceAddr))
	ts.Equal(amount, ts.sgxLp.TotalSupply(ts.ctx))

	out, err := ts.rtr.UnstakeAndRedeemSgxLp(ts.ctx, aliceAddr, wethAddr, amount, domain.Big0, aliceAddr)
	ts.Require().NoError(err)
	ts.Equal(amount, out)
	ts.Equal(int64(0), ts.sgxLp.TotalSupply(ts.ctx).Int64())
	ts.Equal(int64(0), ts.stakedSgxLpTracker.StakedAmount(ts.ctx, aliceAddr).Int64())
}

func (ts *routerSuite) TestHandleRewardsStakesVestedSgx() {
	vestAmount := domain.ExpandDecimals(365, 18)
	ts.Require().NoError(ts.esSgx.Mint(ts.ctx, govAddr, aliceAddr, vestAmount))
	ts.Require().NoError(ts.sgx.Mint(ts.ctx, govAddr, sgxVesterAddr, vestAmount))
	ts.Require().NoError(ts.sgxVester.Deposit(ts.ctx, aliceAddr, vestAmount))

	ts.clock.advance(24 * time.Hour)
	ts.Require().NoError(ts.rtr.HandleRewards(ts.ctx, aliceAddr, router.HandleRewardsFlags{
		ShouldClaimSgx: true,
		ShouldStakeSgx: true,
	}))

	// 365 tokens over a year vest exactly one token per day
	ts.Equal(domain.ExpandDecimals(1, 18), ts.stakedSgxTracker.DepositBalance(ts.ctx, aliceAddr, sgxAddr))
	ts.Equal(int64(0), ts.sgx.BalanceOf(ts.ctx, aliceAddr).Int64())
}

func (ts *routerSuite) TestSignalTransferValidation() {
	ts.ErrorIs(ts.rtr.SignalTransfer(ts.ctx, aliceAddr, ""), domain.ErrZeroAddress)
	ts.ErrorIs(ts.rtr.SignalTransfer(ts.ctx, aliceAddr, aliceAddr), domain.ErrInvalidReceiver)

	vestAmount := domain.ExpandDecimals(10, 18)
	ts.Require().NoError(ts.esSgx.Mint(ts.ctx, govAddr, aliceAddr, vestAmount))
	ts.Require().NoError(ts.sgxVester.Deposit(ts.ctx, aliceAddr, vestAmount))
	ts.ErrorIs(ts.rtr.SignalTransfer(ts.ctx, aliceAddr, bobAddr), domain.ErrSenderHasVested)
}

func (ts *routerSuite) TestAcceptTransferRequiresSignal() {
	ts.ErrorIs(ts.rtr.AcceptTransfer(ts.ctx, bobAddr, aliceAddr), domain.ErrTransferNotSignalled)

	ts.Require().NoError(ts.rtr.SignalTransfer(ts.ctx, aliceAddr, bobAddr))
	// only the signalled receiver may accept
	ts.ErrorIs(ts.rtr.AcceptTransfer(ts.ctx, govAddr, aliceAddr), domain.ErrTransferNotSignalled)
}

func (ts *routerSuite) TestAcceptTransferMovesWholePosition() {
	amount := domain.ExpandDecimals(1000, 18)
	ts.stakeSgx(aliceAddr, amount)
	ts.clock.advance(time.Duration(yearSeconds) * time.Second)
	ts.Require().NoError(ts.rtr.Compound(ts.ctx, aliceAddr))

	ts.Require().NoError(ts.rtr.SignalTransfer(ts.ctx, aliceAddr, bobAddr))
	receiver, ok := ts.rtr.PendingReceiver(ts.ctx, aliceAddr)
	ts.Require().True(ok)
	ts.Equal(bobAddr, receiver)

	ts.Require().NoError(ts.rtr.AcceptTransfer(ts.ctx, bobAddr, aliceAddr))

	ts.Equal(amount, ts.stakedSgxTracker.DepositBalance(ts.ctx, bobAddr, sgxAddr))
	ts.Equal(amount, ts.feeSgxTracker.DepositBalance(ts.ctx, bobAddr, bnSgxAddr))
	ts.Equal(int64(0), ts.stakedSgxTracker.StakedAmount(ts.ctx, aliceAddr).Int64())
	ts.Equal(int64(0), ts.feeSgxTracker.BalanceOf(ts.ctx, aliceAddr).Int64())

	_, ok = ts.rtr.PendingReceiver(ts.ctx, aliceAddr)
	ts.False(ok)
}

func (ts *routerSuite) TestCompoundForAccountGated() {
	ts.ErrorIs(ts.rtr.CompoundForAccount(ts.ctx, aliceAddr, bobAddr), domain.ErrForbidden)
	ts.ErrorIs(ts.rtr.BatchCompoundForAccounts(ts.ctx, aliceAddr, []domain.Address{bobAddr}), domain.ErrForbidden)
}

func (ts *routerSuite) TestBatchCompound() {
	amount := domain.ExpandDecimals(1000, 18)
	ts.stakeSgx(aliceAddr, amount)
	ts.stakeSgx(bobAddr, amount)
	ts.clock.advance(time.Duration(yearSeconds) * time.Second)

	ts.Require().NoError(ts.rtr.BatchCompoundForAccounts(ts.ctx, govAddr, []domain.Address{aliceAddr, bobAddr}))

	ts.True(ts.feeSgxTracker.DepositBalance(ts.ctx, aliceAddr, bnSgxAddr).Sign() > 0)
	ts.True(ts.feeSgxTracker.DepositBalance(ts.ctx, bobAddr, bnSgxAddr).Sign() > 0)
}
