package usecase

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/log"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/keys"
	"github.com/sgx-protocol/goapi/domain/reader"
	"github.com/sgx-protocol/goapi/domain/token"
	"github.com/sgx-protocol/goapi/domain/tracker"
	"github.com/sgx-protocol/goapi/domain/vester"
	"github.com/sgx-protocol/goapi/service/cache"
	"github.com/sgx-protocol/goapi/service/cache/provider"
	"github.com/sgx-protocol/goapi/service/cache/provider/compound"
	"github.com/sgx-protocol/goapi/service/cache/provider/primitive"
	redisCache "github.com/sgx-protocol/goapi/service/cache/provider/redis"
	"github.com/sgx-protocol/goapi/service/lpmanager"
	"github.com/sgx-protocol/goapi/service/redis"
)

type ReaderCfg struct {
	Registry  *token.Registry
	Redis     redis.Service
	LpManager lpmanager.Client

	Sgx   domain.Address
	EsSgx domain.Address
	BnSgx domain.Address
	SgxLp domain.Address
	Weth  domain.Address

	Trackers []tracker.UseCase
	Vesters  []vester.UseCase

	// SgxLpTrackers marks which tracker addresses hold lp positions; their
	// apr is quoted against pool aum instead of staked supply.
	SgxLpTrackers []domain.Address
}

type readerImpl struct {
	registry  *token.Registry
	lpManager lpmanager.Client

	tokens        []domain.Address
	trackers      []tracker.UseCase
	vesters       []vester.UseCase
	lpTrackers    map[domain.Address]bool
	overviewCache cache.Service
	aprCache      cache.Service
}

func New(cfg *ReaderCfg) reader.UseCase {
	cacheProviders := []provider.Provider{
		primitive.NewPrimitive("reader", 512),
	}
	if cfg.Redis != nil {
		cacheProviders = append(cacheProviders, redisCache.NewRedis(cfg.Redis))
	}

	lpTrackers := map[domain.Address]bool{}
	for _, t := range cfg.SgxLpTrackers {
		lpTrackers[t.ToLower()] = true
	}

	return &readerImpl{
		registry:   cfg.Registry,
		lpManager:  cfg.LpManager,
		tokens:     []domain.Address{cfg.Sgx.ToLower(), cfg.EsSgx.ToLower(), cfg.BnSgx.ToLower(), cfg.SgxLp.ToLower(), cfg.Weth.ToLower()},
		trackers:   cfg.Trackers,
		vesters:    cfg.Vesters,
		lpTrackers: lpTrackers,
		overviewCache: cache.New(cache.ServiceConfig{
			Ttl:   30 * time.Second,
			Pfx:   keys.PfxStakingOverview,
			Cache: compound.NewCompound(cacheProviders),
		}),
		aprCache: cache.New(cache.ServiceConfig{
			Ttl:   5 * time.Minute,
			Pfx:   keys.PfxApr,
			Cache: compound.NewCompound(cacheProviders),
		}),
	}
}

func (im *readerImpl) GetStakingOverview(c bCtx.Ctx, account domain.Address) (*reader.StakingOverview, error) {
	account = account.ToLower()
	res := &reader.StakingOverview{}

	if err := im.overviewCache.GetByFunc(c, account.ToLowerStr(), res, func() (interface{}, error) {
		return im.getStakingOverview(c, account)
	}); err != nil {
		c.WithFields(log.Fields{
			"account": account,
			"err":     err,
		}).Error("overviewCache.GetByFunc failed")
		return nil, err
	}
	return res, nil
}

func (im *readerImpl) getStakingOverview(c bCtx.Ctx, account domain.Address) (*reader.StakingOverview, error) {
	aprs, err := im.GetAprs(c)
	if err != nil {
		return nil, err
	}

	overview := &reader.StakingOverview{
		Account:  account,
		Trackers: []reader.TrackerInfo{},
		Balances: map[string]string{},
		Pending:  map[string]string{},
	}

	for _, t := range im.trackers {
		addr := t.TokenAddress()
		info := t.Info(c)
		deposits := map[string]string{}
		for _, dt := range info.DepositTokens {
			deposits[dt.ToLowerStr()] = t.DepositBalance(c, account, dt).String()
		}
		overview.Trackers = append(overview.Trackers, reader.TrackerInfo{
			Tracker:             addr,
			RewardToken:         t.RewardToken(c),
			Claimable:           t.Claimable(c, account).String(),
			TokensPerInterval:   t.TokensPerInterval(c).String(),
			StakedAmount:        t.StakedAmount(c, account).String(),
			DepositBalances:     deposits,
			AverageStakedAmount: t.AverageStakedAmount(c, account).String(),
			CumulativeReward:    t.CumulativeReward(c, account).String(),
			TotalSupply:         t.TotalSupply(c).String(),
			Apr:                 aprs[addr.ToLowerStr()],
		})
		overview.Pending[addr.ToLowerStr()] = t.Claimable(c, account).String()
	}

	for _, addr := range im.tokens {
		tok, err := im.registry.Resolve(addr)
		if err != nil {
			return nil, err
		}
		overview.Balances[addr.ToLowerStr()] = tok.BalanceOf(c, account).String()
	}
	return overview, nil
}

func (im *readerImpl) GetVestingOverview(c bCtx.Ctx, account domain.Address) (*reader.VestingOverview, error) {
	account = account.ToLower()
	overview := &reader.VestingOverview{
		Account: account,
		Vesters: []reader.VesterInfo{},
	}
	for _, v := range im.vesters {
		overview.Vesters = append(overview.Vesters, reader.VesterInfo{
			Vester:                      v.TokenAddress(),
			Balance:                     v.BalanceOf(c, account).String(),
			Claimable:                   v.Claimable(c, account).String(),
			ClaimedAmount:               v.ClaimedAmount(c, account).String(),
			VestedAmount:                v.GetVestedAmount(c, account).String(),
			PairAmount:                  v.PairAmount(c, account).String(),
			MaxVestableAmount:           v.GetMaxVestableAmount(c, account).String(),
			CombinedAverageStakedAmount: v.GetCombinedAverageStakedAmount(c, account).String(),
		})
	}
	return overview, nil
}

// GetAprs quotes each tracker's annualized reward rate. Staking trackers are
// quoted in reward tokens per staked token; lp trackers are quoted against
// the pool's aum since their receipt has no supply-relative price.
func (im *readerImpl) GetAprs(c bCtx.Ctx) (map[string]decimal.Decimal, error) {
	res := map[string]decimal.Decimal{}

	if err := im.aprCache.GetByFunc(c, "all", &res, func() (interface{}, error) {
		return im.getAprs(c)
	}); err != nil {
		c.WithFields(log.Fields{
			"err": err,
		}).Error("aprCache.GetByFunc failed")
		return nil, err
	}
	return res, nil
}

func (im *readerImpl) getAprs(c bCtx.Ctx) (map[string]decimal.Decimal, error) {
	res := map[string]decimal.Decimal{}
	hundred := decimal.NewFromInt(100)

	var aum decimal.Decimal
	var aumErr error
	aumLoaded := false

	for _, t := range im.trackers {
		addr := t.TokenAddress()
		annual := new(big.Int).Mul(t.TokensPerInterval(c), big.NewInt(domain.SecondsPerYear))
		annualDec := decimal.NewFromBigInt(annual, -18)

		if im.lpTrackers[addr] {
			if !aumLoaded {
				aum, aumErr = im.lpManager.GetAum(c)
				aumLoaded = true
			}
			if aumErr != nil {
				c.WithFields(log.Fields{
					"tracker": addr,
					"err":     aumErr,
				}).Warn("lpManager.GetAum failed, skipping lp apr")
				res[addr.ToLowerStr()] = decimal.Zero
				continue
			}
			if aum.IsPositive() {
				res[addr.ToLowerStr()] = annualDec.Div(aum).Mul(hundred)
			} else {
				res[addr.ToLowerStr()] = decimal.Zero
			}
			continue
		}

		supply := decimal.NewFromBigInt(t.TotalSupply(c), -18)
		if supply.IsPositive() {
			res[addr.ToLowerStr()] = annualDec.Div(supply).Mul(hundred)
		} else {
			res[addr.ToLowerStr()] = decimal.Zero
		}
	}
	return res, nil
}
