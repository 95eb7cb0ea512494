package usecase

import (
	"math/big"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/log"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/token"
	"github.com/sgx-protocol/goapi/domain/tracker"
	"github.com/sgx-protocol/goapi/domain/vester"
)

type VesterCfg struct {
	// Ledger seeds the instance when the repo holds no document yet.
	Ledger   *vester.Ledger
	Repo     vester.Repo
	Registry *token.Registry
	Clock    domain.Clock
	// Tracker bounds each account's vestable amount by its reward history.
	// Nil disables the bound (max vestable is then always zero).
	Tracker tracker.UseCase
}

type accountVesting struct {
	balance                        *big.Int
	pairAmount                     *big.Int
	cumulativeClaimAmount          *big.Int
	claimedAmount                  *big.Int
	lastVestingTime                int64
	transferredAverageStakedAmount *big.Int
	transferredCumulativeReward    *big.Int
	cumulativeRewardDeduction      *big.Int
	bonusReward                    *big.Int
}

func newAccountVesting() *accountVesting {
	return &accountVesting{
		balance:                        new(big.Int),
		pairAmount:                     new(big.Int),
		cumulativeClaimAmount:          new(big.Int),
		claimedAmount:                  new(big.Int),
		transferredAverageStakedAmount: new(big.Int),
		transferredCumulativeReward:    new(big.Int),
		cumulativeRewardDeduction:      new(big.Int),
		bonusReward:                    new(big.Int),
	}
}

// vesterImpl converts escrowed tokens into claimable tokens linearly over the
// vesting duration. The vesting balance is a non-transferable token so the
// rest of the system can read it through the registry.
type vesterImpl struct {
	repo     vester.Repo
	registry *token.Registry
	clock    domain.Clock
	tracker  tracker.UseCase

	address         domain.Address
	name            string
	symbol          string
	gov             domain.Address
	vestingDuration int64
	esToken         domain.Address
	pairToken       domain.Address
	claimableToken  domain.Address

	handlers    map[domain.Address]bool
	totalSupply *big.Int
	pairSupply  *big.Int

	accounts map[domain.Address]*accountVesting
}

func New(cfg *VesterCfg) vester.UseCase {
	im := &vesterImpl{
		repo:            cfg.Repo,
		registry:        cfg.Registry,
		clock:           cfg.Clock,
		tracker:         cfg.Tracker,
		address:         cfg.Ledger.Address.ToLower(),
		name:            cfg.Ledger.Name,
		symbol:          cfg.Ledger.Symbol,
		gov:             cfg.Ledger.Gov.ToLower(),
		vestingDuration: cfg.Ledger.VestingDuration,
		esToken:         cfg.Ledger.EsToken.ToLower(),
		pairToken:       cfg.Ledger.PairToken.ToLower(),
		claimableToken:  cfg.Ledger.ClaimableToken.ToLower(),
		handlers:        map[domain.Address]bool{},
		totalSupply:     new(big.Int),
		pairSupply:      new(big.Int),
		accounts:        map[domain.Address]*accountVesting{},
	}
	for _, h := range cfg.Ledger.Handlers {
		im.handlers[h.ToLower()] = true
	}
	return im
}

func (im *vesterImpl) Load(c bCtx.Ctx) error {
	ledger, err := im.repo.GetLedger(c, im.address)
	if err == domain.ErrNotFound {
		return im.persistLedger(c)
	} else if err != nil {
		return err
	}

	if im.totalSupply, err = domain.ParseBig(ledger.TotalSupply); err != nil {
		return err
	}
	if im.pairSupply, err = domain.ParseBig(ledger.PairSupply); err != nil {
		return err
	}
	im.gov = ledger.Gov.ToLower()
	im.handlers = map[domain.Address]bool{}
	for _, h := range ledger.Handlers {
		im.handlers[h.ToLower()] = true
	}

	accounts, err := im.repo.ListAccounts(c, im.address)
	if err != nil {
		return err
	}
	for i := range accounts {
		state, err := parseAccount(&accounts[i])
		if err != nil {
			c.WithFields(log.Fields{
				"vester":  im.address,
				"account": accounts[i].Account,
				"err":     err,
			}).Error("corrupted vester account document")
			return err
		}
		im.accounts[accounts[i].Account.ToLower()] = state
	}
	return nil
}

func parseAccount(doc *vester.Account) (*accountVesting, error) {
	state := newAccountVesting()
	state.lastVestingTime = doc.LastVestingTime
	var err error
	if state.balance, err = domain.ParseBig(doc.Balance); err != nil {
		return nil, err
	}
	if state.pairAmount, err = domain.ParseBig(doc.PairAmount); err != nil {
		return nil, err
	}
	if state.cumulativeClaimAmount, err = domain.ParseBig(doc.CumulativeClaimAmount); err != nil {
		return nil, err
	}
	if state.claimedAmount, err = domain.ParseBig(doc.ClaimedAmount); err != nil {
		return nil, err
	}
	if state.transferredAverageStakedAmount, err = domain.ParseBig(doc.TransferredAverageStakedAmount); err != nil {
		return nil, err
	}
	if state.transferredCumulativeReward, err = domain.ParseBig(doc.TransferredCumulativeReward); err != nil {
		return nil, err
	}
	if state.cumulativeRewardDeduction, err = domain.ParseBig(doc.CumulativeRewardDeduction); err != nil {
		return nil, err
	}
	if state.bonusReward, err = domain.ParseBig(doc.BonusReward); err != nil {
		return nil, err
	}
	return state, nil
}

func (im *vesterImpl) getAccount(account domain.Address) *accountVesting {
	state, ok := im.accounts[account]
	if !ok {
		state = newAccountVesting()
		im.accounts[account] = state
	}
	return state
}

func (im *vesterImpl) hasRewardTracker() bool {
	return im.tracker != nil
}

func (im *vesterImpl) hasPairToken() bool {
	return !im.pairToken.IsEmpty()
}

// nextClaimableAmount is the portion of the vesting balance that matured
// since the last settlement, capped at the remaining balance.
func (im *vesterImpl) nextClaimableAmount(state *accountVesting) *big.Int {
	if state.balance.Sign() == 0 {
		return new(big.Int)
	}
	elapsed := im.clock.Now().Unix() - state.lastVestingTime
	if elapsed <= 0 {
		return new(big.Int)
	}
	vested := new(big.Int).Add(state.balance, state.cumulativeClaimAmount)
	claimable := vested.Mul(vested, big.NewInt(elapsed))
	claimable.Div(claimable, big.NewInt(im.vestingDuration))
	if claimable.Cmp(state.balance) > 0 {
		return new(big.Int).Set(state.balance)
	}
	return claimable
}

// updateVesting settles the matured portion. The matured escrowed tokens are
// burned from the vester's holdings; the claimable token is only paid out on
// an explicit claim.
func (im *vesterImpl) updateVesting(c bCtx.Ctx, account domain.Address) error {
	state := im.getAccount(account)
	amount := im.nextClaimableAmount(state)
	state.lastVestingTime = im.clock.Now().Unix()
	if amount.Sign() == 0 {
		return im.persistAccount(c, account)
	}

	state.balance = new(big.Int).Sub(state.balance, amount)
	state.cumulativeClaimAmount = new(big.Int).Add(state.cumulativeClaimAmount, amount)
	im.totalSupply = new(big.Int).Sub(im.totalSupply, amount)

	es, err := im.registry.Resolve(im.esToken)
	if err != nil {
		return err
	}
	if err := es.Burn(c, im.address, im.address, amount); err != nil {
		return err
	}
	if err := im.persistLedger(c); err != nil {
		return err
	}
	return im.persistAccount(c, account)
}

func (im *vesterImpl) Deposit(c bCtx.Ctx, account domain.Address, amount *big.Int) error {
	return im.deposit(c, account.ToLower(), amount)
}

func (im *vesterImpl) DepositForAccount(c bCtx.Ctx, handler, account domain.Address, amount *big.Int) error {
	if !im.handlers[handler.ToLower()] {
		return domain.ErrForbidden
	}
	return im.deposit(c, account.ToLower(), amount)
}

func (im *vesterImpl) deposit(c bCtx.Ctx, account domain.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrInvalidAmount
	}

	state := im.getAccount(account)

	// the reward-history cap and funding are checked up front so a failed
	// deposit leaves no partial state behind
	matured := im.nextClaimableAmount(state)
	nextTotalVested := new(big.Int).Add(state.balance, state.cumulativeClaimAmount)
	nextTotalVested.Add(nextTotalVested, amount)
	if im.hasRewardTracker() && nextTotalVested.Cmp(im.GetMaxVestableAmount(c, account)) > 0 {
		return domain.ErrMaxVestableExceeded
	}

	es, err := im.registry.Resolve(im.esToken)
	if err != nil {
		return err
	}
	if es.BalanceOf(c, account).Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}

	var pair token.Token
	var pairDiff *big.Int
	if im.hasPairToken() {
		if pair, err = im.registry.Resolve(im.pairToken); err != nil {
			return err
		}
		nextBalance := new(big.Int).Add(state.balance, amount)
		nextBalance.Sub(nextBalance, matured)
		nextPairAmount := im.GetPairAmount(c, account, nextBalance)
		if nextPairAmount.Cmp(state.pairAmount) > 0 {
			pairDiff = new(big.Int).Sub(nextPairAmount, state.pairAmount)
			if pair.BalanceOf(c, account).Cmp(pairDiff) < 0 {
				return domain.ErrInsufficientBalance
			}
		}
	}

	if err := im.updateVesting(c, account); err != nil {
		return err
	}
	if err := es.TransferFrom(c, im.address, account, im.address, amount); err != nil {
		return err
	}
	state.balance = new(big.Int).Add(state.balance, amount)
	im.totalSupply = new(big.Int).Add(im.totalSupply, amount)

	if pairDiff != nil && pairDiff.Sign() > 0 {
		if err := pair.TransferFrom(c, im.address, account, im.address, pairDiff); err != nil {
			return err
		}
		state.pairAmount = new(big.Int).Add(state.pairAmount, pairDiff)
		im.pairSupply = new(big.Int).Add(im.pairSupply, pairDiff)
	}

	if err := im.persistLedger(c); err != nil {
		return err
	}
	return im.persistAccount(c, account)
}

func (im *vesterImpl) Claim(c bCtx.Ctx, account, receiver domain.Address) (*big.Int, error) {
	return im.claim(c, account.ToLower(), receiver.ToLower())
}

func (im *vesterImpl) ClaimForAccount(c bCtx.Ctx, handler, account, receiver domain.Address) (*big.Int, error) {
	if !im.handlers[handler.ToLower()] {
		return nil, domain.ErrForbidden
	}
	return im.claim(c, account.ToLower(), receiver.ToLower())
}

func (im *vesterImpl) claim(c bCtx.Ctx, account, receiver domain.Address) (*big.Int, error) {
	if err := im.updateVesting(c, account); err != nil {
		return nil, err
	}
	state := im.getAccount(account)
	amount := new(big.Int).Sub(state.cumulativeClaimAmount, state.claimedAmount)
	if amount.Sign() == 0 {
		return new(big.Int), nil
	}

	claimable, err := im.registry.Resolve(im.claimableToken)
	if err != nil {
		return nil, err
	}
	if claimable.BalanceOf(c, im.address).Cmp(amount) < 0 {
		c.WithFields(log.Fields{
			"vester":  im.address,
			"account": account,
			"amount":  amount.String(),
		}).Warn("claimable token reservoir underfunded")
		return nil, domain.ErrInsufficientReserves
	}

	state.claimedAmount = new(big.Int).Set(state.cumulativeClaimAmount)
	if err := im.persistAccount(c, account); err != nil {
		return nil, err
	}
	if err := claimable.Transfer(c, im.address, receiver, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// Withdraw pays out whatever matured, refunds the unvested remainder and the
// reserved pair tokens, and resets the vesting position.
func (im *vesterImpl) Withdraw(c bCtx.Ctx, account domain.Address) error {
	account = account.ToLower()
	if _, err := im.claim(c, account, account); err != nil {
		return err
	}

	state := im.getAccount(account)
	totalVested := new(big.Int).Add(state.balance, state.cumulativeClaimAmount)
	if totalVested.Sign() == 0 {
		return domain.ErrInvalidAmount
	}
	balance := state.balance

	if im.hasPairToken() && state.pairAmount.Sign() > 0 {
		pair, err := im.registry.Resolve(im.pairToken)
		if err != nil {
			return err
		}
		if err := pair.Transfer(c, im.address, account, state.pairAmount); err != nil {
			return err
		}
		im.pairSupply = new(big.Int).Sub(im.pairSupply, state.pairAmount)
		state.pairAmount = new(big.Int)
	}

	if balance.Sign() > 0 {
		es, err := im.registry.Resolve(im.esToken)
		if err != nil {
			return err
		}
		if err := es.Transfer(c, im.address, account, balance); err != nil {
			return err
		}
		im.totalSupply = new(big.Int).Sub(im.totalSupply, balance)
	}

	state.balance = new(big.Int)
	state.cumulativeClaimAmount = new(big.Int)
	state.claimedAmount = new(big.Int)
	state.lastVestingTime = 0

	if err := im.persistLedger(c); err != nil {
		return err
	}
	return im.persistAccount(c, account)
}

// token.Token implementation. The vesting balance is non-transferable.

func (im *vesterImpl) TokenAddress() domain.Address {
	return im.address
}

func (im *vesterImpl) TotalSupply(c bCtx.Ctx) *big.Int {
	return new(big.Int).Set(im.totalSupply)
}

func (im *vesterImpl) BalanceOf(c bCtx.Ctx, account domain.Address) *big.Int {
	return new(big.Int).Set(im.getAccount(account.ToLower()).balance)
}

func (im *vesterImpl) Transfer(c bCtx.Ctx, sender, receiver domain.Address, amount *big.Int) error {
	return domain.ErrForbidden
}

func (im *vesterImpl) TransferFrom(c bCtx.Ctx, spender, from, to domain.Address, amount *big.Int) error {
	return domain.ErrForbidden
}

func (im *vesterImpl) Mint(c bCtx.Ctx, minter, account domain.Address, amount *big.Int) error {
	return domain.ErrForbidden
}

func (im *vesterImpl) Burn(c bCtx.Ctx, burner, account domain.Address, amount *big.Int) error {
	return domain.ErrForbidden
}

// views

func (im *vesterImpl) Info(c bCtx.Ctx) *vester.Ledger {
	return im.ledgerDoc()
}

func (im *vesterImpl) Claimable(c bCtx.Ctx, account domain.Address) *big.Int {
	state := im.getAccount(account.ToLower())
	amount := new(big.Int).Sub(state.cumulativeClaimAmount, state.claimedAmount)
	return amount.Add(amount, im.nextClaimableAmount(state))
}

func (im *vesterImpl) ClaimedAmount(c bCtx.Ctx, account domain.Address) *big.Int {
	return new(big.Int).Set(im.getAccount(account.ToLower()).claimedAmount)
}

func (im *vesterImpl) CumulativeClaimAmount(c bCtx.Ctx, account domain.Address) *big.Int {
	return new(big.Int).Set(im.getAccount(account.ToLower()).cumulativeClaimAmount)
}

func (im *vesterImpl) GetVestedAmount(c bCtx.Ctx, account domain.Address) *big.Int {
	state := im.getAccount(account.ToLower())
	return new(big.Int).Add(state.balance, state.cumulativeClaimAmount)
}

func (im *vesterImpl) GetMaxVestableAmount(c bCtx.Ctx, account domain.Address) *big.Int {
	if !im.hasRewardTracker() {
		return new(big.Int)
	}
	account = account.ToLower()
	state := im.getAccount(account)
	max := im.tracker.CumulativeReward(c, account)
	max.Add(max, state.transferredCumulativeReward)
	max.Add(max, state.bonusReward)
	if max.Cmp(state.cumulativeRewardDeduction) < 0 {
		return new(big.Int)
	}
	return max.Sub(max, state.cumulativeRewardDeduction)
}

func (im *vesterImpl) GetCombinedAverageStakedAmount(c bCtx.Ctx, account domain.Address) *big.Int {
	if !im.hasRewardTracker() {
		return new(big.Int)
	}
	account = account.ToLower()
	state := im.getAccount(account)
	cumulativeReward := im.tracker.CumulativeReward(c, account)
	totalCumulativeReward := new(big.Int).Add(cumulativeReward, state.transferredCumulativeReward)
	if totalCumulativeReward.Sign() == 0 {
		return new(big.Int)
	}
	avg := im.tracker.AverageStakedAmount(c, account)
	avg.Mul(avg, cumulativeReward)
	avg.Div(avg, totalCumulativeReward)
	transferred := new(big.Int).Mul(state.transferredAverageStakedAmount, state.transferredCumulativeReward)
	transferred.Div(transferred, totalCumulativeReward)
	return avg.Add(avg, transferred)
}

func (im *vesterImpl) GetPairAmount(c bCtx.Ctx, account domain.Address, esAmount *big.Int) *big.Int {
	if !im.hasRewardTracker() {
		return new(big.Int)
	}
	combined := im.GetCombinedAverageStakedAmount(c, account)
	if combined.Sign() == 0 {
		return new(big.Int)
	}
	max := im.GetMaxVestableAmount(c, account)
	if max.Sign() == 0 {
		return new(big.Int)
	}
	pair := new(big.Int).Mul(esAmount, combined)
	return pair.Div(pair, max)
}

func (im *vesterImpl) PairAmount(c bCtx.Ctx, account domain.Address) *big.Int {
	return new(big.Int).Set(im.getAccount(account.ToLower()).pairAmount)
}

func (im *vesterImpl) BonusReward(c bCtx.Ctx, account domain.Address) *big.Int {
	return new(big.Int).Set(im.getAccount(account.ToLower()).bonusReward)
}

func (im *vesterImpl) TransferredCumulativeReward(c bCtx.Ctx, account domain.Address) *big.Int {
	return new(big.Int).Set(im.getAccount(account.ToLower()).transferredCumulativeReward)
}

func (im *vesterImpl) CumulativeRewardDeduction(c bCtx.Ctx, account domain.Address) *big.Int {
	return new(big.Int).Set(im.getAccount(account.ToLower()).cumulativeRewardDeduction)
}

func (im *vesterImpl) HasVestedAny(c bCtx.Ctx, account domain.Address) bool {
	state := im.getAccount(account.ToLower())
	return state.balance.Sign() > 0 || state.cumulativeClaimAmount.Sign() > 0
}

// handler operations

func (im *vesterImpl) TransferStakeValues(c bCtx.Ctx, handler, sender, receiver domain.Address) error {
	if !im.handlers[handler.ToLower()] {
		return domain.ErrForbidden
	}
	sender = sender.ToLower()
	receiver = receiver.ToLower()

	from := im.getAccount(sender)
	to := im.getAccount(receiver)

	to.transferredAverageStakedAmount = im.GetCombinedAverageStakedAmount(c, sender)
	cumulativeReward := new(big.Int)
	if im.hasRewardTracker() {
		cumulativeReward = im.tracker.CumulativeReward(c, sender)
	}
	to.transferredCumulativeReward = new(big.Int).Add(from.transferredCumulativeReward, cumulativeReward)
	from.cumulativeRewardDeduction = cumulativeReward

	to.bonusReward = from.bonusReward
	from.bonusReward = new(big.Int)
	from.transferredAverageStakedAmount = new(big.Int)
	from.transferredCumulativeReward = new(big.Int)

	if err := im.persistAccount(c, sender); err != nil {
		return err
	}
	return im.persistAccount(c, receiver)
}

func (im *vesterImpl) SetTransferredAverageStakedAmount(c bCtx.Ctx, handler, account domain.Address, amount *big.Int) error {
	if !im.handlers[handler.ToLower()] {
		return domain.ErrForbidden
	}
	account = account.ToLower()
	im.getAccount(account).transferredAverageStakedAmount = new(big.Int).Set(amount)
	return im.persistAccount(c, account)
}

func (im *vesterImpl) SetTransferredCumulativeReward(c bCtx.Ctx, handler, account domain.Address, amount *big.Int) error {
	if !im.handlers[handler.ToLower()] {
		return domain.ErrForbidden
	}
	account = account.ToLower()
	im.getAccount(account).transferredCumulativeReward = new(big.Int).Set(amount)
	return im.persistAccount(c, account)
}

func (im *vesterImpl) SetCumulativeRewardDeduction(c bCtx.Ctx, handler, account domain.Address, amount *big.Int) error {
	if !im.handlers[handler.ToLower()] {
		return domain.ErrForbidden
	}
	account = account.ToLower()
	im.getAccount(account).cumulativeRewardDeduction = new(big.Int).Set(amount)
	return im.persistAccount(c, account)
}

func (im *vesterImpl) SetBonusReward(c bCtx.Ctx, caller, account domain.Address, amount *big.Int) error {
	caller = caller.ToLower()
	if !im.handlers[caller] && !caller.Equals(im.gov) {
		return domain.ErrForbidden
	}
	account = account.ToLower()
	im.getAccount(account).bonusReward = new(big.Int).Set(amount)
	return im.persistAccount(c, account)
}

// gov operations

func (im *vesterImpl) SetHandler(c bCtx.Ctx, caller, handler domain.Address, active bool) error {
	if !caller.Equals(im.gov) {
		return domain.ErrForbidden
	}
	im.handlers[handler.ToLower()] = active
	return im.persistLedger(c)
}

func (im *vesterImpl) SetGov(c bCtx.Ctx, caller, gov domain.Address) error {
	if !caller.Equals(im.gov) {
		return domain.ErrForbidden
	}
	if gov.IsEmpty() {
		return domain.ErrZeroAddress
	}
	im.gov = gov.ToLower()
	return im.persistLedger(c)
}

func (im *vesterImpl) WithdrawToken(c bCtx.Ctx, caller, tokenAddr, receiver domain.Address, amount *big.Int) error {
	if !caller.Equals(im.gov) {
		return domain.ErrForbidden
	}
	t, err := im.registry.Resolve(tokenAddr.ToLower())
	if err != nil {
		return err
	}
	return t.Transfer(c, im.address, receiver.ToLower(), amount)
}

// persistence

func (im *vesterImpl) ledgerDoc() *vester.Ledger {
	handlers := []domain.Address{}
	for h, ok := range im.handlers {
		if ok {
			handlers = append(handlers, h)
		}
	}
	return &vester.Ledger{
		Address:          im.address,
		Name:             im.name,
		Symbol:           im.symbol,
		Gov:              im.gov,
		VestingDuration:  im.vestingDuration,
		EsToken:          im.esToken,
		PairToken:        im.pairToken,
		ClaimableToken:   im.claimableToken,
		RewardTracker:    im.trackerAddress(),
		Handlers:         handlers,
		TotalSupply:      domain.FormatBig(im.totalSupply),
		PairSupply:       domain.FormatBig(im.pairSupply),
		HasRewardTracker: im.hasRewardTracker(),
	}
}

func (im *vesterImpl) trackerAddress() domain.Address {
	if im.tracker == nil {
		return ""
	}
	return im.tracker.TokenAddress()
}

func (im *vesterImpl) persistLedger(c bCtx.Ctx) error {
	if err := im.repo.UpsertLedger(c, im.ledgerDoc()); err != nil {
		c.WithFields(log.Fields{
			"vester": im.address,
			"err":    err,
		}).Error("repo.UpsertLedger failed")
		return err
	}
	return nil
}

func (im *vesterImpl) persistAccount(c bCtx.Ctx, account domain.Address) error {
	state := im.getAccount(account)
	doc := &vester.Account{
		Vester:                         im.address,
		Account:                        account,
		Balance:                        domain.FormatBig(state.balance),
		PairAmount:                     domain.FormatBig(state.pairAmount),
		CumulativeClaimAmount:          domain.FormatBig(state.cumulativeClaimAmount),
		ClaimedAmount:                  domain.FormatBig(state.claimedAmount),
		LastVestingTime:                state.lastVestingTime,
		TransferredAverageStakedAmount: domain.FormatBig(state.transferredAverageStakedAmount),
		TransferredCumulativeReward:    domain.FormatBig(state.transferredCumulativeReward),
		CumulativeRewardDeduction:      domain.FormatBig(state.cumulativeRewardDeduction),
		BonusReward:                    domain.FormatBig(state.bonusReward),
	}
	if err := im.repo.UpsertAccount(c, doc); err != nil {
		c.WithFields(log.Fields{
			"vester":  im.address,
			"account": account,
			"err":     err,
		}).Error("repo.UpsertAccount failed")
		return err
	}
	return nil
}
