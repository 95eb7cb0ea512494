package reader

import (
	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/shopspring/decimal"
)

// TrackerInfo is the flattened per-tracker view returned to the frontend.
// Amounts are decimal strings since 1e18 scale overflows json numbers.
type TrackerInfo struct {
	Tracker             domain.Address    `json:"tracker"`
	RewardToken         domain.Address    `json:"rewardToken"`
	Claimable           string            `json:"claimable"`
	TokensPerInterval   string            `json:"tokensPerInterval"`
	StakedAmount        string            `json:"stakedAmount"`
	DepositBalances     map[string]string `json:"depositBalances"`
	AverageStakedAmount string            `json:"averageStakedAmount"`
	CumulativeReward    string            `json:"cumulativeReward"`
	TotalSupply         string            `json:"totalSupply"`
	Apr                 decimal.Decimal   `json:"apr"`
}

type VesterInfo struct {
	Vester                      domain.Address `json:"vester"`
	Balance                     string         `json:"balance"`
	Claimable                   string         `json:"claimable"`
	ClaimedAmount               string         `json:"claimedAmount"`
	VestedAmount                string         `json:"vestedAmount"`
	PairAmount                  string         `json:"pairAmount"`
	MaxVestableAmount           string         `json:"maxVestableAmount"`
	CombinedAverageStakedAmount string         `json:"combinedAverageStakedAmount"`
}

type StakingOverview struct {
	Account  domain.Address            `json:"account"`
	Trackers []TrackerInfo             `json:"trackers"`
	Balances map[string]string         `json:"balances"`
	Pending  map[string]string         `json:"pendingRewards"`
}

type VestingOverview struct {
	Account domain.Address `json:"account"`
	Vesters []VesterInfo   `json:"vesters"`
}

// UseCase batches the view calls the frontend needs into single round-trips.
// Overviews are cached briefly in redis keyed by account.
type UseCase interface {
	GetStakingOverview(c bCtx.Ctx, account domain.Address) (*StakingOverview, error)
	GetVestingOverview(c bCtx.Ctx, account domain.Address) (*VestingOverview, error)
	GetAprs(c bCtx.Ctx) (map[string]decimal.Decimal, error)
}
