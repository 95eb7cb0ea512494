package usecase

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/token"
	"github.com/sgx-protocol/goapi/domain/tracker"
	"github.com/sgx-protocol/goapi/domain/vester"
	tokenUC "github.com/sgx-protocol/goapi/stores/token/usecase"
)

type fakeVesterRepo struct {
	ledgers  map[domain.Address]vester.Ledger
	accounts map[domain.Address]map[domain.Address]vester.Account
}

func newFakeVesterRepo() *fakeVesterRepo {
	return &fakeVesterRepo{
		ledgers:  map[domain.Address]vester.Ledger{},
		accounts: map[domain.Address]map[domain.Address]vester.Account{},
	}
}

func (r *fakeVesterRepo) GetLedger(c bCtx.Ctx, address domain.Address) (*vester.Ledger, error) {
	l, ok := r.ledgers[address.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

func (r *fakeVesterRepo) UpsertLedger(c bCtx.Ctx, l *vester.Ledger) error {
	r.ledgers[l.Address.ToLower()] = *l
	return nil
}

func (r *fakeVesterRepo) ListAccounts(c bCtx.Ctx, vesterAddr domain.Address) ([]vester.Account, error) {
	res := []vester.Account{}
	for _, a := range r.accounts[vesterAddr.ToLower()] {
		res = append(res, a)
	}
	return res, nil
}

func (r *fakeVesterRepo) UpsertAccount(c bCtx.Ctx, a *vester.Account) error {
	v := a.Vester.ToLower()
	if r.accounts[v] == nil {
		r.accounts[v] = map[domain.Address]vester.Account{}
	}
	r.accounts[v][a.Account.ToLower()] = *a
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

// fakeTracker exposes only the reward-history views the vester consults,
// plus its address so the ledger document round-trips.
type fakeTracker struct {
	tracker.UseCase

	cumulative map[domain.Address]*big.Int
	average    map[domain.Address]*big.Int
}

func (f *fakeTracker) TokenAddress() domain.Address {
	return trackerAddr
}

func (f *fakeTracker) CumulativeReward(c bCtx.Ctx, account domain.Address) *big.Int {
	if n, ok := f.cumulative[account.ToLower()]; ok {
		return new(big.Int).Set(n)
	}
	return new(big.Int)
}

func (f *fakeTracker) AverageStakedAmount(c bCtx.Ctx, account domain.Address) *big.Int {
	if n, ok := f.average[account.ToLower()]; ok {
		return new(big.Int).Set(n)
	}
	return new(big.Int)
}

const (
	esSgxAddr   = domain.Address("0x0000000000000000000000000000000000000002")
	sgxAddr     = domain.Address("0x0000000000000000000000000000000000000001")
	pairAddr    = domain.Address("0x0000000000000000000000000000000000000003")
	vesterAddr  = domain.Address("0x0000000000000000000000000000000000000031")
	trackerAddr = domain.Address("0x0000000000000000000000000000000000000011")
	govAddr     = domain.Address("0x00000000000000000000000000000000000000g0")
	handlerAddr = domain.Address("0x00000000000000000000000000000000000000h0")
	aliceAddr   = domain.Address("0x00000000000000000000000000000000000000a1")
	bobAddr     = domain.Address("0x00000000000000000000000000000000000000b1")
)

const yearSeconds = int64(365 * 24 * 60 * 60)

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big literal: " + s)
	}
	return n
}

type vesterSuite struct {
	suite.Suite

	ctx      bCtx.Ctx
	clock    *fakeClock
	registry *token.Registry
	esSgx    token.UseCase
	sgx      token.UseCase
	pair     token.UseCase
	trk      *fakeTracker
}

func (ts *vesterSuite) SetupTest() {
	ts.ctx = bCtx.Background()
	ts.clock = &fakeClock{now: time.Unix(1_700_000_000, 0)}
	ts.registry = token.NewRegistry()
	ts.trk = &fakeTracker{
		cumulative: map[domain.Address]*big.Int{},
		average:    map[domain.Address]*big.Int{},
	}

	newToken := func(address domain.Address, symbol string) token.UseCase {
		t := tokenUC.New(&tokenUC.TokenCfg{
			Repo: fakeTokenRepo{},
			Ledger: &token.Ledger{
				Address:  address,
				Symbol:   symbol,
				Decimals: 18,
				Gov:      govAddr,
				Minters:  []domain.Address{govAddr, vesterAddr},
				Handlers: []domain.Address{vesterAddr},
			},
		})
		ts.Require().NoError(t.Load(ts.ctx))
		ts.registry.Register(t)
		return t
	}
	ts.esSgx = newToken(esSgxAddr, "esSGX")
	ts.sgx = newToken(sgxAddr, "SGX")
	ts.pair = newToken(pairAddr, "fsSGX")
}

func (ts *vesterSuite) newVester(trk tracker.UseCase, pairToken domain.Address) vester.UseCase {
	v := New(&VesterCfg{
		Repo:     newFakeVesterRepo(),
		Registry: ts.registry,
		Clock:    ts.clock,
		Tracker:  trk,
		Ledger: &vester.Ledger{
			Address:         vesterAddr,
			Name:            "Vested SGX",
			Symbol:          "vSGX",
			Gov:             govAddr,
			VestingDuration: yearSeconds,
			EsToken:         esSgxAddr,
			PairToken:       pairToken,
			ClaimableToken:  sgxAddr,
			RewardTracker:   "",
			Handlers:        []domain.Address{handlerAddr},
		},
	})
	ts.Require().NoError(v.Load(ts.ctx))
	return v
}

func TestVesterSuite(t *testing.T) {
	suite.Run(t, new(vesterSuite))
}

func (ts *vesterSuite) fund(account domain.Address, t token.UseCase, amount *big.Int) {
	ts.Require().NoError(t.Mint(ts.ctx, govAddr, account, amount))
}

func (ts *vesterSuite) TestLinearVestingOverOneDay() {
	v := ts.newVester(nil, "")
	ts.fund(aliceAddr, ts.esSgx, domain.ExpandDecimals(1000, 18))
	ts.fund(vesterAddr, ts.sgx, domain.ExpandDecimals(1000, 18))
	ts.Require().NoError(v.Deposit(ts.ctx, aliceAddr, domain.ExpandDecimals(1000, 18)))

	ts.clock.advance(24 * time.Hour)
	claimable := v.Claimable(ts.ctx, aliceAddr)
	ts.True(claimable.Cmp(mustBig("2730000000000000000")) > 0, claimable.String())
	ts.True(claimable.Cmp(mustBig("2750000000000000000")) < 0, claimable.String())

	esSupplyBefore := ts.esSgx.TotalSupply(ts.ctx)
	paid, err := v.Claim(ts.ctx, aliceAddr, aliceAddr)
	ts.Require().NoError(err)
	ts.Equal(claimable, paid)
	ts.Equal(claimable, ts.sgx.BalanceOf(ts.ctx, aliceAddr))

	// matured escrowed tokens are burned, not recycled
	ts.Equal(new(big.Int).Sub(esSupplyBefore, paid), ts.esSgx.TotalSupply(ts.ctx))
	ts.Equal(new(big.Int).Sub(domain.ExpandDecimals(1000, 18), paid), v.TotalSupply(ts.ctx))
}

func (ts *vesterSuite) TestFullMaturity() {
	v := ts.newVester(nil, "")
	amount := domain.ExpandDecimals(100, 18)
	ts.fund(aliceAddr, ts.esSgx, amount)
	ts.fund(vesterAddr, ts.sgx, amount)
	ts.Require().NoError(v.Deposit(ts.ctx, aliceAddr, amount))

	ts.clock.advance(2 * 365 * 24 * time.Hour)
	ts.Equal(amount, v.Claimable(ts.ctx, aliceAddr))

	paid, err := v.Claim(ts.ctx, aliceAddr, aliceAddr)
	ts.Require().NoError(err)
	ts.Equal(amount, paid)
	ts.Equal(int64(0), v.TotalSupply(ts.ctx).Int64())
}

func (ts *vesterSuite) TestClaimUnderfundedReservoir() {
	v := ts.newVester(nil, "")
	amount := domain.ExpandDecimals(100, 18)
	ts.fund(aliceAddr, ts.esSgx, amount)
	ts.Require().NoError(v.Deposit(ts.ctx, aliceAddr, amount))

	ts.clock.advance(24 * time.Hour)
	_, err := v.Claim(ts.ctx, aliceAddr, aliceAddr)
	ts.ErrorIs(err, domain.ErrInsufficientReserves)
}

func (ts *vesterSuite) TestWithdrawRefundsRemainder() {
	v := ts.newVester(nil, "")
	amount := domain.ExpandDecimals(1000, 18)
	ts.fund(aliceAddr, ts.esSgx, amount)
	ts.fund(vesterAddr, ts.sgx, amount)
	ts.Require().NoError(v.Deposit(ts.ctx, aliceAddr, amount))

	ts.clock.advance(24 * time.Hour)
	ts.Require().NoError(v.Withdraw(ts.ctx, aliceAddr))

	matured := ts.sgx.BalanceOf(ts.ctx, aliceAddr)
	ts.True(matured.Sign() > 0)
	// matured portion pays out in the claim token, the rest comes back escrowed
	ts.Equal(new(big.Int).Sub(amount, matured), ts.esSgx.BalanceOf(ts.ctx, aliceAddr))
	ts.Equal(int64(0), v.BalanceOf(ts.ctx, aliceAddr).Int64())
	ts.False(v.HasVestedAny(ts.ctx, aliceAddr))

	ts.ErrorIs(v.Withdraw(ts.ctx, aliceAddr), domain.ErrInvalidAmount)
}

func (ts *vesterSuite) TestDepositCappedByRewardHistory() {
	ts.trk.cumulative[aliceAddr] = domain.ExpandDecimals(500, 18)
	v := ts.newVester(ts.trk, "")
	ts.Equal(trackerAddr, v.Info(ts.ctx).RewardTracker)
	ts.fund(aliceAddr, ts.esSgx, domain.ExpandDecimals(600, 18))

	err := v.Deposit(ts.ctx, aliceAddr, domain.ExpandDecimals(600, 18))
	ts.ErrorIs(err, domain.ErrMaxVestableExceeded)
	ts.NoError(v.Deposit(ts.ctx, aliceAddr, domain.ExpandDecimals(500, 18)))
}

func (ts *vesterSuite) TestDepositReservesPairTokens() {
	ts.trk.cumulative[aliceAddr] = domain.ExpandDecimals(1000, 18)
	ts.trk.average[aliceAddr] = domain.ExpandDecimals(2000, 18)
	v := ts.newVester(ts.trk, pairAddr)
	ts.fund(aliceAddr, ts.esSgx, domain.ExpandDecimals(500, 18))

	// underfunded pair balance blocks the deposit before any state moves
	err := v.Deposit(ts.ctx, aliceAddr, domain.ExpandDecimals(500, 18))
	ts.ErrorIs(err, domain.ErrInsufficientBalance)
	ts.Equal(int64(0), v.BalanceOf(ts.ctx, aliceAddr).Int64())

	ts.fund(aliceAddr, ts.pair, domain.ExpandDecimals(1000, 18))
	ts.Require().NoError(v.Deposit(ts.ctx, aliceAddr, domain.ExpandDecimals(500, 18)))

	// pairAmount = esAmount * combinedAverage / maxVestable
	ts.Equal(domain.ExpandDecimals(1000, 18), v.PairAmount(ts.ctx, aliceAddr))
	ts.Equal(domain.ExpandDecimals(1000, 18), ts.pair.BalanceOf(ts.ctx, vesterAddr))
	ts.Equal(int64(0), ts.pair.BalanceOf(ts.ctx, aliceAddr).Int64())

	ts.Require().NoError(v.Withdraw(ts.ctx, aliceAddr))
	ts.Equal(domain.ExpandDecimals(1000, 18), ts.pair.BalanceOf(ts.ctx, aliceAddr))
	ts.Equal(int64(0), v.PairAmount(ts.ctx, aliceAddr).Int64())
}

func (ts *vesterSuite) TestTransferStakeValues() {
	ts.trk.cumulative[aliceAddr] = domain.ExpandDecimals(300, 18)
	ts.trk.average[aliceAddr] = domain.ExpandDecimals(900, 18)
	v := ts.newVester(ts.trk, "")
	ts.Require().NoError(v.SetBonusReward(ts.ctx, govAddr, aliceAddr, domain.ExpandDecimals(50, 18)))

	ts.ErrorIs(v.TransferStakeValues(ts.ctx, bobAddr, aliceAddr, bobAddr), domain.ErrForbidden)
	ts.Require().NoError(v.TransferStakeValues(ts.ctx, handlerAddr, aliceAddr, bobAddr))

	// the receiver inherits the tracker history plus the bonus, nothing
	// double counted
	ts.Equal(domain.ExpandDecimals(300, 18), v.TransferredCumulativeReward(ts.ctx, bobAddr))
	ts.Equal(domain.ExpandDecimals(50, 18), v.BonusReward(ts.ctx, bobAddr))
	ts.Equal(domain.ExpandDecimals(350, 18), v.GetMaxVestableAmount(ts.ctx, bobAddr))

	// the sender's on-tracker history is cancelled out by the deduction
	ts.Equal(domain.ExpandDecimals(300, 18), v.CumulativeRewardDeduction(ts.ctx, aliceAddr))
	ts.Equal(int64(0), v.GetMaxVestableAmount(ts.ctx, aliceAddr).Int64())
	ts.Equal(int64(0), v.BonusReward(ts.ctx, aliceAddr).Int64())
}

func (ts *vesterSuite) TestVestingBalanceNotTransferable() {
	v := ts.newVester(nil, "")
	ts.ErrorIs(v.Transfer(ts.ctx, aliceAddr, bobAddr, big.NewInt(1)), domain.ErrForbidden)
	ts.ErrorIs(v.TransferFrom(ts.ctx, handlerAddr, aliceAddr, bobAddr, big.NewInt(1)), domain.ErrForbidden)
	ts.ErrorIs(v.Mint(ts.ctx, govAddr, aliceAddr, big.NewInt(1)), domain.ErrForbidden)
	ts.ErrorIs(v.Burn(ts.ctx, govAddr, aliceAddr, big.NewInt(1)), domain.ErrForbidden)
}
