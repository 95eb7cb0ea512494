package vester

import (
	"math/big"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/token"
)

// Ledger is the persisted global state of one vester. The vester is a
// non-transferable token whose balance is the amount still vesting.
type Ledger struct {
	Address         domain.Address   `bson:"address"`
	Name            string           `bson:"name"`
	Symbol          string           `bson:"symbol"`
	Gov             domain.Address   `bson:"gov"`
	VestingDuration int64            `bson:"vestingDuration"`
	EsToken         domain.Address   `bson:"esToken"`
	PairToken       domain.Address   `bson:"pairToken"`
	ClaimableToken  domain.Address   `bson:"claimableToken"`
	RewardTracker   domain.Address   `bson:"rewardTracker"`
	Handlers        []domain.Address `bson:"handlers"`
	TotalSupply     string           `bson:"totalSupply"`
	PairSupply      string           `bson:"pairSupply"`
	HasRewardTracker bool            `bson:"hasRewardTracker"`
}

// Account is the persisted per-account vesting state.
type Account struct {
	Vester                        domain.Address `bson:"vester"`
	Account                       domain.Address `bson:"account"`
	Balance                       string         `bson:"balance"`
	PairAmount                    string         `bson:"pairAmount"`
	CumulativeClaimAmount         string         `bson:"cumulativeClaimAmount"`
	ClaimedAmount                 string         `bson:"claimedAmount"`
	LastVestingTime               int64          `bson:"lastVestingTime"`
	TransferredAverageStakedAmount string        `bson:"transferredAverageStakedAmount"`
	TransferredCumulativeReward   string         `bson:"transferredCumulativeReward"`
	CumulativeRewardDeduction     string         `bson:"cumulativeRewardDeduction"`
	BonusReward                   string         `bson:"bonusReward"`
}

type AccountId struct {
	Vester  domain.Address `bson:"vester"`
	Account domain.Address `bson:"account"`
}

type Repo interface {
	GetLedger(c bCtx.Ctx, address domain.Address) (*Ledger, error)
	UpsertLedger(c bCtx.Ctx, l *Ledger) error
	ListAccounts(c bCtx.Ctx, vester domain.Address) ([]Account, error)
	UpsertAccount(c bCtx.Ctx, a *Account) error
}

// UseCase is one vester instance. Deposited escrowed tokens vest linearly
// over VestingDuration into the claimable token; depositing reserves pair
// tokens in proportion to the account's reward history. Callers hold the
// registry lock.
type UseCase interface {
	token.Token

	Load(c bCtx.Ctx) error

	Deposit(c bCtx.Ctx, account domain.Address, amount *big.Int) error
	DepositForAccount(c bCtx.Ctx, handler, account domain.Address, amount *big.Int) error
	Claim(c bCtx.Ctx, account, receiver domain.Address) (*big.Int, error)
	ClaimForAccount(c bCtx.Ctx, handler, account, receiver domain.Address) (*big.Int, error)
	Withdraw(c bCtx.Ctx, account domain.Address) error

	Info(c bCtx.Ctx) *Ledger
	Claimable(c bCtx.Ctx, account domain.Address) *big.Int
	ClaimedAmount(c bCtx.Ctx, account domain.Address) *big.Int
	CumulativeClaimAmount(c bCtx.Ctx, account domain.Address) *big.Int
	GetVestedAmount(c bCtx.Ctx, account domain.Address) *big.Int
	GetMaxVestableAmount(c bCtx.Ctx, account domain.Address) *big.Int
	GetCombinedAverageStakedAmount(c bCtx.Ctx, account domain.Address) *big.Int
	GetPairAmount(c bCtx.Ctx, account domain.Address, esAmount *big.Int) *big.Int
	PairAmount(c bCtx.Ctx, account domain.Address) *big.Int
	BonusReward(c bCtx.Ctx, account domain.Address) *big.Int
	TransferredCumulativeReward(c bCtx.Ctx, account domain.Address) *big.Int
	CumulativeRewardDeduction(c bCtx.Ctx, account domain.Address) *big.Int
	HasVestedAny(c bCtx.Ctx, account domain.Address) bool

	// Handler operations used by the reward router during account transfers.
	TransferStakeValues(c bCtx.Ctx, handler, sender, receiver domain.Address) error
	SetTransferredAverageStakedAmount(c bCtx.Ctx, handler, account domain.Address, amount *big.Int) error
	SetTransferredCumulativeReward(c bCtx.Ctx, handler, account domain.Address, amount *big.Int) error
	SetCumulativeRewardDeduction(c bCtx.Ctx, handler, account domain.Address, amount *big.Int) error
	SetBonusReward(c bCtx.Ctx, caller, account domain.Address, amount *big.Int) error

	// Gov operations.
	SetHandler(c bCtx.Ctx, caller, handler domain.Address, active bool) error
	SetGov(c bCtx.Ctx, caller, gov domain.Address) error
	WithdrawToken(c bCtx.Ctx, caller, tokenAddr, receiver domain.Address, amount *big.Int) error
}
