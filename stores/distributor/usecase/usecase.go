package usecase

import (
	"math/big"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/log"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/distributor"
	"github.com/sgx-protocol/goapi/domain/token"
)

type DistributorCfg struct {
	// Ledger seeds the instance when the repo holds no document yet.
	Ledger   *distributor.Ledger
	Repo     distributor.Repo
	Registry *token.Registry
	Clock    domain.Clock
}

type distImpl struct {
	repo     distributor.Repo
	registry *token.Registry
	clock    domain.Clock
	seed     *distributor.Ledger

	address     domain.Address
	rewardToken domain.Address
	tracker     domain.Address
	admin       domain.Address

	rate rateSource

	tokensPerInterval    *big.Int
	bonusMultiplierBps   *big.Int
	lastDistributionTime int64

	updater distributor.RewardsUpdater
}

// rateSource computes the rewards accrued between two checkpoints. The fixed
// variant streams a constant per-second amount; the bonus variant derives the
// rate from the tracker's receipt supply.
type rateSource interface {
	pending(c bCtx.Ctx, elapsed int64) *big.Int
	tokensPerInterval(c bCtx.Ctx) *big.Int
}

type fixedRate struct {
	im *distImpl
}

func (r fixedRate) pending(c bCtx.Ctx, elapsed int64) *big.Int {
	return new(big.Int).Mul(r.im.tokensPerInterval, big.NewInt(elapsed))
}

func (r fixedRate) tokensPerInterval(c bCtx.Ctx) *big.Int {
	return new(big.Int).Set(r.im.tokensPerInterval)
}

type bonusRate struct {
	im *distImpl
}

func (r bonusRate) supply(c bCtx.Ctx) *big.Int {
	t, err := r.im.registry.Resolve(r.im.tracker)
	if err != nil {
		c.WithFields(log.Fields{
			"tracker": r.im.tracker,
			"err":     err,
		}).Error("registry.Resolve failed")
		return new(big.Int)
	}
	return t.TotalSupply(c)
}

func (r bonusRate) pending(c bCtx.Ctx, elapsed int64) *big.Int {
	// supply * bps * elapsed / (365 days * 10000)
	p := new(big.Int).Mul(r.supply(c), r.im.bonusMultiplierBps)
	p.Mul(p, big.NewInt(elapsed))
	p.Div(p, big.NewInt(domain.SecondsPerYear))
	return p.Div(p, domain.BasisPointsDivisor)
}

func (r bonusRate) tokensPerInterval(c bCtx.Ctx) *big.Int {
	p := new(big.Int).Mul(r.supply(c), r.im.bonusMultiplierBps)
	p.Div(p, big.NewInt(domain.SecondsPerYear))
	return p.Div(p, domain.BasisPointsDivisor)
}

// New builds a fixed-rate distributor.
func New(cfg *DistributorCfg) distributor.UseCase {
	im := newImpl(cfg)
	im.rate = fixedRate{im}
	return im
}

// NewBonus builds a distributor whose rate follows the tracker receipt
// supply scaled by the bonus multiplier.
func NewBonus(cfg *DistributorCfg) distributor.UseCase {
	im := newImpl(cfg)
	im.rate = bonusRate{im}
	return im
}

func newImpl(cfg *DistributorCfg) *distImpl {
	return &distImpl{
		repo:               cfg.Repo,
		registry:           cfg.Registry,
		clock:              cfg.Clock,
		seed:               cfg.Ledger,
		address:            cfg.Ledger.Address.ToLower(),
		rewardToken:        cfg.Ledger.RewardToken.ToLower(),
		tracker:            cfg.Ledger.Tracker.ToLower(),
		admin:              cfg.Ledger.Admin.ToLower(),
		tokensPerInterval:  new(big.Int),
		bonusMultiplierBps: new(big.Int),
	}
}

// SetRewardsUpdater wires the tracker back in once both sides exist.
func (im *distImpl) SetRewardsUpdater(u distributor.RewardsUpdater) {
	im.updater = u
}

func (im *distImpl) Load(c bCtx.Ctx) error {
	seeding := false
	ledger, err := im.repo.Get(c, im.address)
	if err == domain.ErrNotFound {
		ledger = im.seed
		seeding = true
	} else if err != nil {
		return err
	}
	if im.tokensPerInterval, err = domain.ParseBig(ledger.TokensPerInterval); err != nil {
		return err
	}
	if im.bonusMultiplierBps, err = domain.ParseBig(ledger.BonusMultiplierBps); err != nil {
		return err
	}
	im.admin = ledger.Admin.ToLower()
	im.lastDistributionTime = ledger.LastDistributionTime
	if seeding {
		return im.persist(c)
	}
	return nil
}

func (im *distImpl) DistributorAddress() domain.Address {
	return im.address
}

func (im *distImpl) RewardToken() domain.Address {
	return im.rewardToken
}

func (im *distImpl) TokensPerInterval(c bCtx.Ctx) *big.Int {
	return im.rate.tokensPerInterval(c)
}

func (im *distImpl) PendingRewards(c bCtx.Ctx) *big.Int {
	if im.lastDistributionTime == 0 {
		return new(big.Int)
	}
	elapsed := im.clock.Now().Unix() - im.lastDistributionTime
	if elapsed <= 0 {
		return new(big.Int)
	}
	return im.rate.pending(c, elapsed)
}

// Distribute moves the pending rewards to the tracker. The checkpoint is
// advanced before the transfer, matching the checks-effects ordering the
// accrual math relies on.
func (im *distImpl) Distribute(c bCtx.Ctx) (*big.Int, error) {
	pending := im.PendingRewards(c)
	if pending.Sign() == 0 {
		return pending, nil
	}

	reward, err := im.registry.Resolve(im.rewardToken)
	if err != nil {
		return nil, err
	}
	if reward.BalanceOf(c, im.address).Cmp(pending) < 0 {
		c.WithFields(log.Fields{
			"distributor": im.address,
			"pending":     pending.String(),
		}).Warn("reward reservoir underfunded")
		return nil, domain.ErrInsufficientReserves
	}

	im.lastDistributionTime = im.clock.Now().Unix()
	if err := im.persist(c); err != nil {
		return nil, err
	}
	if err := reward.Transfer(c, im.address, im.tracker, pending); err != nil {
		return nil, err
	}
	return pending, nil
}

func (im *distImpl) Info(c bCtx.Ctx) *distributor.Ledger {
	return im.ledgerDoc()
}

func (im *distImpl) UpdateLastDistributionTime(c bCtx.Ctx, caller domain.Address) error {
	if !caller.Equals(im.admin) {
		return domain.ErrForbidden
	}
	im.lastDistributionTime = im.clock.Now().Unix()
	return im.persist(c)
}

func (im *distImpl) SetTokensPerInterval(c bCtx.Ctx, caller domain.Address, amount *big.Int) error {
	if !caller.Equals(im.admin) {
		return domain.ErrForbidden
	}
	if im.lastDistributionTime == 0 {
		return domain.ErrNotInitialized
	}
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrInvalidAmount
	}
	if im.updater != nil {
		if err := im.updater.UpdateRewards(c); err != nil {
			return err
		}
	}
	im.tokensPerInterval = new(big.Int).Set(amount)
	return im.persist(c)
}

func (im *distImpl) SetBonusMultiplier(c bCtx.Ctx, caller domain.Address, bps *big.Int) error {
	if !caller.Equals(im.admin) {
		return domain.ErrForbidden
	}
	if im.lastDistributionTime == 0 {
		return domain.ErrNotInitialized
	}
	if bps == nil || bps.Sign() < 0 {
		return domain.ErrInvalidAmount
	}
	if im.updater != nil {
		if err := im.updater.UpdateRewards(c); err != nil {
			return err
		}
	}
	im.bonusMultiplierBps = new(big.Int).Set(bps)
	return im.persist(c)
}

func (im *distImpl) ledgerDoc() *distributor.Ledger {
	return &distributor.Ledger{
		Address:              im.address,
		RewardToken:          im.rewardToken,
		Tracker:              im.tracker,
		Admin:                im.admin,
		TokensPerInterval:    domain.FormatBig(im.tokensPerInterval),
		BonusMultiplierBps:   domain.FormatBig(im.bonusMultiplierBps),
		LastDistributionTime: im.lastDistributionTime,
	}
}

func (im *distImpl) persist(c bCtx.Ctx) error {
	if err := im.repo.Upsert(c, im.ledgerDoc()); err != nil {
		c.WithFields(log.Fields{
			"distributor": im.address,
			"err":         err,
		}).Error("repo.Upsert failed")
		return err
	}
	return nil
}
