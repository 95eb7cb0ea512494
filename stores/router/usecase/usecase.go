package usecase

import (
	"math/big"

	"github.com/viney-shih/goroutines"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/log"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/router"
	"github.com/sgx-protocol/goapi/domain/token"
	"github.com/sgx-protocol/goapi/domain/tracker"
	"github.com/sgx-protocol/goapi/domain/vester"
	"github.com/sgx-protocol/goapi/service/lpmanager"
)

type RouterCfg struct {
	Repo      router.Repo
	Registry  *token.Registry
	LpManager lpmanager.Client
	Clock     domain.Clock

	// Address is the handler identity the router acts under; it must be
	// registered as a handler on every tracker and vester below.
	Address domain.Address
	Gov     domain.Address

	Sgx   domain.Address
	EsSgx domain.Address
	BnSgx domain.Address
	SgxLp domain.Address
	Weth  domain.Address

	StakedSgxTracker   tracker.UseCase
	BonusSgxTracker    tracker.UseCase
	FeeSgxTracker      tracker.UseCase
	FeeSgxLpTracker    tracker.UseCase
	StakedSgxLpTracker tracker.UseCase

	SgxVester   vester.UseCase
	SgxLpVester vester.UseCase
}

type routerImpl struct {
	repo      router.Repo
	registry  *token.Registry
	lpManager lpmanager.Client
	clock     domain.Clock

	address domain.Address
	gov     domain.Address

	sgx   domain.Address
	esSgx domain.Address
	bnSgx domain.Address
	sgxLp domain.Address
	weth  domain.Address

	stakedSgxTracker   tracker.UseCase
	bonusSgxTracker    tracker.UseCase
	feeSgxTracker      tracker.UseCase
	feeSgxLpTracker    tracker.UseCase
	stakedSgxLpTracker tracker.UseCase

	sgxVester   vester.UseCase
	sgxLpVester vester.UseCase

	pendingReceivers map[domain.Address]domain.Address
}

func New(cfg *RouterCfg) router.UseCase {
	return &routerImpl{
		repo:               cfg.Repo,
		registry:           cfg.Registry,
		lpManager:          cfg.LpManager,
		clock:              cfg.Clock,
		address:            cfg.Address.ToLower(),
		gov:                cfg.Gov.ToLower(),
		sgx:                cfg.Sgx.ToLower(),
		esSgx:              cfg.EsSgx.ToLower(),
		bnSgx:              cfg.BnSgx.ToLower(),
		sgxLp:              cfg.SgxLp.ToLower(),
		weth:               cfg.Weth.ToLower(),
		stakedSgxTracker:   cfg.StakedSgxTracker,
		bonusSgxTracker:    cfg.BonusSgxTracker,
		feeSgxTracker:      cfg.FeeSgxTracker,
		feeSgxLpTracker:    cfg.FeeSgxLpTracker,
		stakedSgxLpTracker: cfg.StakedSgxLpTracker,
		sgxVester:          cfg.SgxVester,
		sgxLpVester:        cfg.SgxLpVester,
		pendingReceivers:   map[domain.Address]domain.Address{},
	}
}

func (im *routerImpl) Load(c bCtx.Ctx) error {
	transfers, err := im.repo.ListPendingTransfers(c)
	if err != nil {
		return err
	}
	for _, t := range transfers {
		im.pendingReceivers[t.Sender.ToLower()] = t.Receiver.ToLower()
	}
	return nil
}

// staking

func (im *routerImpl) StakeSgx(c bCtx.Ctx, account domain.Address, amount *big.Int) error {
	account = account.ToLower()
	return im.stakeSgxChain(c, account, account, im.sgx, amount)
}

func (im *routerImpl) StakeSgxForAccount(c bCtx.Ctx, caller, fundingAccount, account domain.Address, amount *big.Int) error {
	if !caller.ToLower().Equals(im.gov) {
		return domain.ErrForbidden
	}
	return im.stakeSgxChain(c, fundingAccount.ToLower(), account.ToLower(), im.sgx, amount)
}

func (im *routerImpl) StakeEsSgx(c bCtx.Ctx, account domain.Address, amount *big.Int) error {
	account = account.ToLower()
	return im.stakeSgxChain(c, account, account, im.esSgx, amount)
}

// stakeSgxChain runs the deposit through all three trackers so the position
// earns escrowed, bonus and fee rewards at once.
func (im *routerImpl) stakeSgxChain(c bCtx.Ctx, fundingAccount, account, depositToken domain.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrInvalidAmount
	}
	if err := im.stakedSgxTracker.StakeForAccount(c, im.address, fundingAccount, account, depositToken, amount); err != nil {
		return err
	}
	if err := im.bonusSgxTracker.StakeForAccount(c, im.address, account, account, im.stakedSgxTracker.TokenAddress(), amount); err != nil {
		return err
	}
	return im.feeSgxTracker.StakeForAccount(c, im.address, account, account, im.bonusSgxTracker.TokenAddress(), amount)
}

func (im *routerImpl) UnstakeSgx(c bCtx.Ctx, account domain.Address, amount *big.Int) error {
	return im.unstakeSgxChain(c, account.ToLower(), im.sgx, amount, true)
}

func (im *routerImpl) UnstakeEsSgx(c bCtx.Ctx, account domain.Address, amount *big.Int) error {
	return im.unstakeSgxChain(c, account.ToLower(), im.esSgx, amount, true)
}

func (im *routerImpl) unstakeSgxChain(c bCtx.Ctx, account, depositToken domain.Address, amount *big.Int, shouldReduceBnSgx bool) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrInvalidAmount
	}
	balance := im.stakedSgxTracker.StakedAmount(c, account)

	if err := im.feeSgxTracker.UnstakeForAccount(c, im.address, account, im.bonusSgxTracker.TokenAddress(), amount, account); err != nil {
		return err
	}
	if err := im.bonusSgxTracker.UnstakeForAccount(c, im.address, account, im.stakedSgxTracker.TokenAddress(), amount, account); err != nil {
		return err
	}
	if err := im.stakedSgxTracker.UnstakeForAccount(c, im.address, account, depositToken, amount, account); err != nil {
		return err
	}

	if !shouldReduceBnSgx {
		return nil
	}
	// multiplier points burn in proportion to the unstaked share so they
	// never outlive the stake that earned them
	bnAmount := im.feeSgxTracker.DepositBalance(c, account, im.bnSgx)
	if bnAmount.Sign() == 0 {
		return nil
	}
	reduction := new(big.Int).Mul(bnAmount, amount)
	reduction.Div(reduction, balance)
	if reduction.Sign() == 0 {
		return nil
	}
	if err := im.feeSgxTracker.UnstakeForAccount(c, im.address, account, im.bnSgx, reduction, account); err != nil {
		return err
	}
	bn, err := im.registry.Resolve(im.bnSgx)
	if err != nil {
		return err
	}
	return bn.Burn(c, im.address, account, reduction)
}

// liquidity

func (im *routerImpl) MintAndStakeSgxLp(c bCtx.Ctx, account, tokenIn domain.Address, amount, minUsdValue, minSgxLp *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	account = account.ToLower()

	lpAmount, err := im.lpManager.AddLiquidity(c, account, tokenIn, amount, minUsdValue, minSgxLp)
	if err != nil {
		return nil, err
	}
	// mirror the lp manager's mint into the local ledger before staking
	lp, err := im.registry.Resolve(im.sgxLp)
	if err != nil {
		return nil, err
	}
	if err := lp.Mint(c, im.address, account, lpAmount); err != nil {
		return nil, err
	}

	if err := im.feeSgxLpTracker.StakeForAccount(c, im.address, account, account, im.sgxLp, lpAmount); err != nil {
		return nil, err
	}
	if err := im.stakedSgxLpTracker.StakeForAccount(c, im.address, account, account, im.feeSgxLpTracker.TokenAddress(), lpAmount); err != nil {
		return nil, err
	}
	return lpAmount, nil
}

func (im *routerImpl) UnstakeAndRedeemSgxLp(c bCtx.Ctx, account, tokenOut domain.Address, sgxLpAmount, minOut *big.Int, receiver domain.Address) (*big.Int, error) {
	if sgxLpAmount == nil || sgxLpAmount.Sign() <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	account = account.ToLower()

	if err := im.stakedSgxLpTracker.UnstakeForAccount(c, im.address, account, im.feeSgxLpTracker.TokenAddress(), sgxLpAmount, account); err != nil {
		return nil, err
	}
	if err := im.feeSgxLpTracker.UnstakeForAccount(c, im.address, account, im.sgxLp, sgxLpAmount, account); err != nil {
		return nil, err
	}

	lp, err := im.registry.Resolve(im.sgxLp)
	if err != nil {
		return nil, err
	}
	if err := lp.Burn(c, im.address, account, sgxLpAmount); err != nil {
		return nil, err
	}
	return im.lpManager.RemoveLiquidity(c, account, tokenOut, sgxLpAmount, minOut, receiver)
}

// claiming

func (im *routerImpl) Claim(c bCtx.Ctx, account domain.Address) error {
	account = account.ToLower()
	if _, err := im.feeSgxTracker.ClaimForAccount(c, im.address, account, account); err != nil {
		return err
	}
	if _, err := im.feeSgxLpTracker.ClaimForAccount(c, im.address, account, account); err != nil {
		return err
	}
	if _, err := im.stakedSgxTracker.ClaimForAccount(c, im.address, account, account); err != nil {
		return err
	}
	_, err := im.stakedSgxLpTracker.ClaimForAccount(c, im.address, account, account)
	return err
}

func (im *routerImpl) ClaimEsSgx(c bCtx.Ctx, account domain.Address) error {
	account = account.ToLower()
	if _, err := im.stakedSgxTracker.ClaimForAccount(c, im.address, account, account); err != nil {
		return err
	}
	_, err := im.stakedSgxLpTracker.ClaimForAccount(c, im.address, account, account)
	return err
}

func (im *routerImpl) ClaimFees(c bCtx.Ctx, account domain.Address) error {
	account = account.ToLower()
	if _, err := im.feeSgxTracker.ClaimForAccount(c, im.address, account, account); err != nil {
		return err
	}
	_, err := im.feeSgxLpTracker.ClaimForAccount(c, im.address, account, account)
	return err
}

// compounding

func (im *routerImpl) Compound(c bCtx.Ctx, account domain.Address) error {
	return im.compound(c, account.ToLower())
}

func (im *routerImpl) CompoundForAccount(c bCtx.Ctx, caller, account domain.Address) error {
	if !caller.ToLower().Equals(im.gov) {
		return domain.ErrForbidden
	}
	return im.compound(c, account.ToLower())
}

func (im *routerImpl) BatchCompoundForAccounts(c bCtx.Ctx, caller domain.Address, accounts []domain.Address) error {
	if !caller.ToLower().Equals(im.gov) {
		return domain.ErrForbidden
	}
	if len(accounts) == 0 {
		return nil
	}

	b := goroutines.NewBatch(10, goroutines.WithBatchSize(len(accounts)))
	defer b.Close()
	for i := 0; i < len(accounts); i++ {
		account := accounts[i].ToLower()
		b.Queue(func() (interface{}, error) {
			err := im.registry.Locked(func() error {
				return im.compound(c, account)
			})
			if err != nil {
				c.WithFields(log.Fields{
					"account": account,
					"err":     err,
				}).Error("compound failed")
			}
			return account, err
		})
	}
	b.QueueComplete()

	var firstErr error
	for ret := range b.Results() {
		if err := ret.Error(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (im *routerImpl) compound(c bCtx.Ctx, account domain.Address) error {
	if err := im.compoundSgx(c, account); err != nil {
		return err
	}
	return im.compoundSgxLp(c, account)
}

func (im *routerImpl) compoundSgx(c bCtx.Ctx, account domain.Address) error {
	esAmount, err := im.stakedSgxTracker.ClaimForAccount(c, im.address, account, account)
	if err != nil {
		return err
	}
	if esAmount.Sign() > 0 {
		if err := im.stakeSgxChain(c, account, account, im.esSgx, esAmount); err != nil {
			return err
		}
	}

	bnAmount, err := im.bonusSgxTracker.ClaimForAccount(c, im.address, account, account)
	if err != nil {
		return err
	}
	if bnAmount.Sign() > 0 {
		return im.feeSgxTracker.StakeForAccount(c, im.address, account, account, im.bnSgx, bnAmount)
	}
	return nil
}

func (im *routerImpl) compoundSgxLp(c bCtx.Ctx, account domain.Address) error {
	esAmount, err := im.stakedSgxLpTracker.ClaimForAccount(c, im.address, account, account)
	if err != nil {
		return err
	}
	if esAmount.Sign() > 0 {
		return im.stakeSgxChain(c, account, account, im.esSgx, esAmount)
	}
	return nil
}

func (im *routerImpl) HandleRewards(c bCtx.Ctx, account domain.Address, flags router.HandleRewardsFlags) error {
	account = account.ToLower()

	sgxAmount := new(big.Int)
	if flags.ShouldClaimSgx {
		a, err := im.sgxVester.ClaimForAccount(c, im.address, account, account)
		if err != nil {
			return err
		}
		b, err := im.sgxLpVester.ClaimForAccount(c, im.address, account, account)
		if err != nil {
			return err
		}
		sgxAmount.Add(a, b)
	}
	if flags.ShouldStakeSgx && sgxAmount.Sign() > 0 {
		if err := im.stakeSgxChain(c, account, account, im.sgx, sgxAmount); err != nil {
			return err
		}
	}

	esAmount := new(big.Int)
	if flags.ShouldClaimEsSgx {
		a, err := im.stakedSgxTracker.ClaimForAccount(c, im.address, account, account)
		if err != nil {
			return err
		}
		b, err := im.stakedSgxLpTracker.ClaimForAccount(c, im.address, account, account)
		if err != nil {
			return err
		}
		esAmount.Add(a, b)
	}
	if flags.ShouldStakeEsSgx && esAmount.Sign() > 0 {
		if err := im.stakeSgxChain(c, account, account, im.esSgx, esAmount); err != nil {
			return err
		}
	}

	if flags.ShouldStakeMultiplierPoints {
		bnAmount, err := im.bonusSgxTracker.ClaimForAccount(c, im.address, account, account)
		if err != nil {
			return err
		}
		if bnAmount.Sign() > 0 {
			if err := im.feeSgxTracker.StakeForAccount(c, im.address, account, account, im.bnSgx, bnAmount); err != nil {
				return err
			}
		}
	}

	if flags.ShouldClaimWeth {
		// weth and native eth share one ledger balance, so the convert
		// flag changes nothing here
		if _, err := im.feeSgxTracker.ClaimForAccount(c, im.address, account, account); err != nil {
			return err
		}
		if _, err := im.feeSgxLpTracker.ClaimForAccount(c, im.address, account, account); err != nil {
			return err
		}
	}
	return nil
}

// account transfer

func (im *routerImpl) SignalTransfer(c bCtx.Ctx, account, receiver domain.Address) error {
	account = account.ToLower()
	receiver = receiver.ToLower()
	if receiver.IsEmpty() {
		return domain.ErrZeroAddress
	}
	if receiver.Equals(account) {
		return domain.ErrInvalidReceiver
	}
	if im.sgxVester.BalanceOf(c, account).Sign() > 0 || im.sgxLpVester.BalanceOf(c, account).Sign() > 0 {
		return domain.ErrSenderHasVested
	}

	im.pendingReceivers[account] = receiver
	return im.repo.UpsertPendingTransfer(c, &router.PendingTransfer{
		Sender:      account,
		Receiver:    receiver,
		SignalledAt: im.clock.Now().Unix(),
	})
}

func (im *routerImpl) AcceptTransfer(c bCtx.Ctx, account, sender domain.Address) error {
	receiver := account.ToLower()
	sender = sender.ToLower()

	if im.sgxVester.BalanceOf(c, sender).Sign() > 0 || im.sgxLpVester.BalanceOf(c, sender).Sign() > 0 {
		return domain.ErrSenderHasVested
	}
	if pending, ok := im.pendingReceivers[sender]; !ok || !pending.Equals(receiver) {
		return domain.ErrTransferNotSignalled
	}
	if err := im.validateFreshReceiver(c, receiver); err != nil {
		return err
	}

	delete(im.pendingReceivers, sender)
	if err := im.repo.DeletePendingTransfer(c, sender); err != nil {
		return err
	}

	if err := im.compound(c, sender); err != nil {
		return err
	}

	stakedSgx := im.stakedSgxTracker.DepositBalance(c, sender, im.sgx)
	if stakedSgx.Sign() > 0 {
		if err := im.unstakeSgxChain(c, sender, im.sgx, stakedSgx, false); err != nil {
			return err
		}
		if err := im.stakeSgxChain(c, sender, receiver, im.sgx, stakedSgx); err != nil {
			return err
		}
	}

	stakedEsSgx := im.stakedSgxTracker.DepositBalance(c, sender, im.esSgx)
	if stakedEsSgx.Sign() > 0 {
		if err := im.unstakeSgxChain(c, sender, im.esSgx, stakedEsSgx, false); err != nil {
			return err
		}
		if err := im.stakeSgxChain(c, sender, receiver, im.esSgx, stakedEsSgx); err != nil {
			return err
		}
	}

	stakedBnSgx := im.feeSgxTracker.DepositBalance(c, sender, im.bnSgx)
	if stakedBnSgx.Sign() > 0 {
		if err := im.feeSgxTracker.UnstakeForAccount(c, im.address, sender, im.bnSgx, stakedBnSgx, sender); err != nil {
			return err
		}
		if err := im.feeSgxTracker.StakeForAccount(c, im.address, sender, receiver, im.bnSgx, stakedBnSgx); err != nil {
			return err
		}
	}

	es, err := im.registry.Resolve(im.esSgx)
	if err != nil {
		return err
	}
	if esBalance := es.BalanceOf(c, sender); esBalance.Sign() > 0 {
		if err := es.TransferFrom(c, im.address, sender, receiver, esBalance); err != nil {
			return err
		}
	}

	sgxLpAmount := im.feeSgxLpTracker.DepositBalance(c, sender, im.sgxLp)
	if sgxLpAmount.Sign() > 0 {
		if err := im.stakedSgxLpTracker.UnstakeForAccount(c, im.address, sender, im.feeSgxLpTracker.TokenAddress(), sgxLpAmount, sender); err != nil {
			return err
		}
		if err := im.feeSgxLpTracker.UnstakeForAccount(c, im.address, sender, im.sgxLp, sgxLpAmount, sender); err != nil {
			return err
		}
		if err := im.feeSgxLpTracker.StakeForAccount(c, im.address, sender, receiver, im.sgxLp, sgxLpAmount); err != nil {
			return err
		}
		if err := im.stakedSgxLpTracker.StakeForAccount(c, im.address, receiver, receiver, im.feeSgxLpTracker.TokenAddress(), sgxLpAmount); err != nil {
			return err
		}
	}

	if err := im.sgxVester.TransferStakeValues(c, im.address, sender, receiver); err != nil {
		return err
	}
	return im.sgxLpVester.TransferStakeValues(c, im.address, sender, receiver)
}

// validateFreshReceiver rejects receivers with any reward or vesting history;
// merging two histories would overstate the receiver's vestable cap.
func (im *routerImpl) validateFreshReceiver(c bCtx.Ctx, receiver domain.Address) error {
	if im.stakedSgxTracker.AverageStakedAmount(c, receiver).Sign() > 0 ||
		im.stakedSgxTracker.CumulativeReward(c, receiver).Sign() > 0 {
		return domain.ErrInvalidReceiver
	}
	if im.stakedSgxLpTracker.AverageStakedAmount(c, receiver).Sign() > 0 ||
		im.stakedSgxLpTracker.CumulativeReward(c, receiver).Sign() > 0 {
		return domain.ErrInvalidReceiver
	}
	if im.sgxVester.TransferredCumulativeReward(c, receiver).Sign() > 0 ||
		im.sgxLpVester.TransferredCumulativeReward(c, receiver).Sign() > 0 {
		return domain.ErrInvalidReceiver
	}
	if im.sgxVester.HasVestedAny(c, receiver) || im.sgxLpVester.HasVestedAny(c, receiver) {
		return domain.ErrInvalidReceiver
	}
	return nil
}

func (im *routerImpl) PendingReceiver(c bCtx.Ctx, sender domain.Address) (domain.Address, bool) {
	receiver, ok := im.pendingReceivers[sender.ToLower()]
	return receiver, ok
}
