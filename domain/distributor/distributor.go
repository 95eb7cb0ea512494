package distributor

import (
	"math/big"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/domain"
)

// Ledger is the persisted state of one reward distributor. A fixed-rate
// distributor streams TokensPerInterval each second; a bonus distributor
// derives its rate from the receipt supply of its tracker and
// BonusMultiplierBps instead.
type Ledger struct {
	Address              domain.Address `bson:"address"`
	RewardToken          domain.Address `bson:"rewardToken"`
	Tracker              domain.Address `bson:"tracker"`
	Admin                domain.Address `bson:"admin"`
	TokensPerInterval    string         `bson:"tokensPerInterval"`
	BonusMultiplierBps   string         `bson:"bonusMultiplierBps"`
	LastDistributionTime int64          `bson:"lastDistributionTime"`
}

type Repo interface {
	Get(c bCtx.Ctx, address domain.Address) (*Ledger, error)
	Upsert(c bCtx.Ctx, l *Ledger) error
}

// RewardsUpdater folds pending rewards into the backing tracker at the
// current rate. Wired in after construction since tracker and distributor
// reference each other.
type RewardsUpdater interface {
	UpdateRewards(c bCtx.Ctx) error
}

// UseCase is one distributor instance. Distribute moves the pending rewards
// from the distributor reservoir to its tracker and is invoked by the tracker
// whenever the tracker folds rewards. Callers hold the registry lock.
type UseCase interface {
	Load(c bCtx.Ctx) error
	SetRewardsUpdater(u RewardsUpdater)

	DistributorAddress() domain.Address
	RewardToken() domain.Address
	PendingRewards(c bCtx.Ctx) *big.Int
	TokensPerInterval(c bCtx.Ctx) *big.Int
	Distribute(c bCtx.Ctx) (*big.Int, error)
	Info(c bCtx.Ctx) *Ledger

	// Admin operations.
	UpdateLastDistributionTime(c bCtx.Ctx, caller domain.Address) error
	SetTokensPerInterval(c bCtx.Ctx, caller domain.Address, amount *big.Int) error
	SetBonusMultiplier(c bCtx.Ctx, caller domain.Address, bps *big.Int) error
}
