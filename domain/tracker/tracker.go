package tracker

import (
	"math/big"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/distributor"
	"github.com/sgx-protocol/goapi/domain/token"
)

// Ledger is the persisted global state of one reward tracker. The tracker is
// itself a fungible token; stakers hold its receipt balance 1:1 against their
// staked amount.
type Ledger struct {
	Address                 domain.Address    `bson:"address"`
	Name                    string            `bson:"name"`
	Symbol                  string            `bson:"symbol"`
	Gov                     domain.Address    `bson:"gov"`
	Distributor             domain.Address    `bson:"distributor"`
	DepositTokens           []domain.Address  `bson:"depositTokens"`
	Handlers                []domain.Address  `bson:"handlers"`
	TotalSupply             string            `bson:"totalSupply"`
	TotalDepositSupplies    map[string]string `bson:"totalDepositSupplies"`
	CumulativeRewardPerToken string           `bson:"cumulativeRewardPerToken"`
	InPrivateTransferMode   bool              `bson:"inPrivateTransferMode"`
	InPrivateStakingMode    bool              `bson:"inPrivateStakingMode"`
	InPrivateClaimingMode   bool              `bson:"inPrivateClaimingMode"`
	IsInitialized           bool              `bson:"isInitialized"`
}

// Account is the persisted per-staker state of one tracker.
type Account struct {
	Tracker                         domain.Address    `bson:"tracker"`
	Account                         domain.Address    `bson:"account"`
	Balance                         string            `bson:"balance"`
	StakedAmount                    string            `bson:"stakedAmount"`
	DepositBalances                 map[string]string `bson:"depositBalances"`
	ClaimableReward                 string            `bson:"claimableReward"`
	PreviousCumulatedRewardPerToken string            `bson:"previousCumulatedRewardPerToken"`
	CumulativeReward                string            `bson:"cumulativeReward"`
	AverageStakedAmount             string            `bson:"averageStakedAmount"`
}

type AccountId struct {
	Tracker domain.Address `bson:"tracker"`
	Account domain.Address `bson:"account"`
}

type Repo interface {
	GetLedger(c bCtx.Ctx, address domain.Address) (*Ledger, error)
	UpsertLedger(c bCtx.Ctx, l *Ledger) error
	ListAccounts(c bCtx.Ctx, tracker domain.Address) ([]Account, error)
	UpsertAccount(c bCtx.Ctx, a *Account) error
}

// UseCase is one tracker instance. It implements token.Token for its receipt
// balances so downstream trackers can stake it. ForAccount variants require
// the caller to be a registered handler; callers hold the registry lock.
type UseCase interface {
	token.Token

	Load(c bCtx.Ctx) error

	// Initialize binds the deposit tokens and the reward source once. A
	// tracker built with both already wired counts as initialized.
	Initialize(c bCtx.Ctx, caller domain.Address, depositTokens []domain.Address, dist distributor.UseCase) error

	Stake(c bCtx.Ctx, account, depositToken domain.Address, amount *big.Int) error
	StakeForAccount(c bCtx.Ctx, handler, fundingAccount, account, depositToken domain.Address, amount *big.Int) error
	Unstake(c bCtx.Ctx, account, depositToken domain.Address, amount *big.Int) error
	UnstakeForAccount(c bCtx.Ctx, handler, account, depositToken domain.Address, amount *big.Int, receiver domain.Address) error
	Claim(c bCtx.Ctx, account, receiver domain.Address) (*big.Int, error)
	ClaimForAccount(c bCtx.Ctx, handler, account, receiver domain.Address) (*big.Int, error)
	UpdateRewards(c bCtx.Ctx) error

	Info(c bCtx.Ctx) *Ledger
	RewardToken(c bCtx.Ctx) domain.Address
	TokensPerInterval(c bCtx.Ctx) *big.Int
	Claimable(c bCtx.Ctx, account domain.Address) *big.Int
	StakedAmount(c bCtx.Ctx, account domain.Address) *big.Int
	DepositBalance(c bCtx.Ctx, account, depositToken domain.Address) *big.Int
	TotalDepositSupply(c bCtx.Ctx, depositToken domain.Address) *big.Int
	AverageStakedAmount(c bCtx.Ctx, account domain.Address) *big.Int
	CumulativeReward(c bCtx.Ctx, account domain.Address) *big.Int
	IsDepositToken(c bCtx.Ctx, depositToken domain.Address) bool

	// Gov operations.
	SetDepositToken(c bCtx.Ctx, caller, depositToken domain.Address, active bool) error
	SetHandler(c bCtx.Ctx, caller, handler domain.Address, active bool) error
	SetInPrivateTransferMode(c bCtx.Ctx, caller domain.Address, on bool) error
	SetInPrivateStakingMode(c bCtx.Ctx, caller domain.Address, on bool) error
	SetInPrivateClaimingMode(c bCtx.Ctx, caller domain.Address, on bool) error
	SetGov(c bCtx.Ctx, caller, gov domain.Address) error
	WithdrawToken(c bCtx.Ctx, caller, tokenAddr, receiver domain.Address, amount *big.Int) error
}
