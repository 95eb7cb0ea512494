package router

import (
	"math/big"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/domain"
)

// PendingTransfer records a signalled account migration awaiting acceptance.
type PendingTransfer struct {
	Sender      domain.Address `bson:"sender"`
	Receiver    domain.Address `bson:"receiver"`
	SignalledAt int64          `bson:"signalledAt"`
}

type Repo interface {
	ListPendingTransfers(c bCtx.Ctx) ([]PendingTransfer, error)
	UpsertPendingTransfer(c bCtx.Ctx, t *PendingTransfer) error
	DeletePendingTransfer(c bCtx.Ctx, sender domain.Address) error
}

// HandleRewardsFlags selects which claim and restake steps a single
// handleRewards call performs.
type HandleRewardsFlags struct {
	ShouldClaimSgx              bool `json:"shouldClaimSgx"`
	ShouldStakeSgx              bool `json:"shouldStakeSgx"`
	ShouldClaimEsSgx            bool `json:"shouldClaimEsSgx"`
	ShouldStakeEsSgx            bool `json:"shouldStakeEsSgx"`
	ShouldStakeMultiplierPoints bool `json:"shouldStakeMultiplierPoints"`
	ShouldClaimWeth             bool `json:"shouldClaimWeth"`
	ShouldConvertWethToEth      bool `json:"shouldConvertWethToEth"`
}

// UseCase orchestrates the tracker chains and vesters. Each operation is a
// single critical section under the registry lock taken by the caller, so
// the claim and restake sequences inside compound and handleRewards are
// all-or-nothing.
type UseCase interface {
	Load(c bCtx.Ctx) error

	StakeSgx(c bCtx.Ctx, account domain.Address, amount *big.Int) error
	StakeSgxForAccount(c bCtx.Ctx, caller, fundingAccount, account domain.Address, amount *big.Int) error
	StakeEsSgx(c bCtx.Ctx, account domain.Address, amount *big.Int) error
	UnstakeSgx(c bCtx.Ctx, account domain.Address, amount *big.Int) error
	UnstakeEsSgx(c bCtx.Ctx, account domain.Address, amount *big.Int) error

	MintAndStakeSgxLp(c bCtx.Ctx, account, tokenIn domain.Address, amount, minUsdg, minSgxLp *big.Int) (*big.Int, error)
	UnstakeAndRedeemSgxLp(c bCtx.Ctx, account, tokenOut domain.Address, sgxLpAmount, minOut *big.Int, receiver domain.Address) (*big.Int, error)

	Claim(c bCtx.Ctx, account domain.Address) error
	ClaimEsSgx(c bCtx.Ctx, account domain.Address) error
	ClaimFees(c bCtx.Ctx, account domain.Address) error
	Compound(c bCtx.Ctx, account domain.Address) error
	CompoundForAccount(c bCtx.Ctx, caller, account domain.Address) error
	// BatchCompoundForAccounts schedules one locked compound per account on
	// the worker pool; unlike the other operations it must be called without
	// the registry lock held.
	BatchCompoundForAccounts(c bCtx.Ctx, caller domain.Address, accounts []domain.Address) error
	HandleRewards(c bCtx.Ctx, account domain.Address, flags HandleRewardsFlags) error

	SignalTransfer(c bCtx.Ctx, account, receiver domain.Address) error
	AcceptTransfer(c bCtx.Ctx, account, sender domain.Address) error
	PendingReceiver(c bCtx.Ctx, sender domain.Address) (domain.Address, bool)
}
