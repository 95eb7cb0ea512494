package usecase

import (
	"math/big"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/log"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/distributor"
	"github.com/sgx-protocol/goapi/domain/token"
	"github.com/sgx-protocol/goapi/domain/tracker"
)

type TrackerCfg struct {
	// Ledger seeds the instance when the repo holds no document yet.
	Ledger      *tracker.Ledger
	Repo        tracker.Repo
	Registry    *token.Registry
	Distributor distributor.UseCase
}

type accountState struct {
	balance                         *big.Int
	stakedAmount                    *big.Int
	depositBalances                 map[domain.Address]*big.Int
	claimableReward                 *big.Int
	previousCumulatedRewardPerToken *big.Int
	cumulativeReward                *big.Int
	averageStakedAmount             *big.Int
}

func newAccountState() *accountState {
	return &accountState{
		balance:                         new(big.Int),
		stakedAmount:                    new(big.Int),
		depositBalances:                 map[domain.Address]*big.Int{},
		claimableReward:                 new(big.Int),
		previousCumulatedRewardPerToken: new(big.Int),
		cumulativeReward:                new(big.Int),
		averageStakedAmount:             new(big.Int),
	}
}

// trackerImpl keeps the canonical staking ledger in memory and writes every
// mutation through to the repo. Reward accrual settles before any supply
// change so balances staked through an interval get the full credit at the
// pre-change ratio.
type trackerImpl struct {
	repo        tracker.Repo
	registry    *token.Registry
	distributor distributor.UseCase

	address domain.Address
	name    string
	symbol  string
	gov     domain.Address

	depositTokens         map[domain.Address]bool
	handlers              map[domain.Address]bool
	inPrivateTransferMode bool
	inPrivateStakingMode  bool
	inPrivateClaimingMode bool

	totalSupply              *big.Int
	totalDepositSupplies     map[domain.Address]*big.Int
	cumulativeRewardPerToken *big.Int
	isInitialized            bool

	accounts map[domain.Address]*accountState
}

func New(cfg *TrackerCfg) tracker.UseCase {
	im := &trackerImpl{
		repo:                     cfg.Repo,
		registry:                 cfg.Registry,
		distributor:              cfg.Distributor,
		address:                  cfg.Ledger.Address.ToLower(),
		name:                     cfg.Ledger.Name,
		symbol:                   cfg.Ledger.Symbol,
		gov:                      cfg.Ledger.Gov.ToLower(),
		depositTokens:            map[domain.Address]bool{},
		handlers:                 map[domain.Address]bool{},
		inPrivateTransferMode:    cfg.Ledger.InPrivateTransferMode,
		inPrivateStakingMode:     cfg.Ledger.InPrivateStakingMode,
		inPrivateClaimingMode:    cfg.Ledger.InPrivateClaimingMode,
		totalSupply:              new(big.Int),
		totalDepositSupplies:     map[domain.Address]*big.Int{},
		cumulativeRewardPerToken: new(big.Int),
		accounts:                 map[domain.Address]*accountState{},
	}
	for _, t := range cfg.Ledger.DepositTokens {
		im.depositTokens[t.ToLower()] = true
	}
	for _, h := range cfg.Ledger.Handlers {
		im.handlers[h.ToLower()] = true
	}
	im.isInitialized = cfg.Distributor != nil && len(cfg.Ledger.DepositTokens) > 0
	return im
}

// Initialize is the two-phase alternative to construction-time wiring.
func (im *trackerImpl) Initialize(c bCtx.Ctx, caller domain.Address, depositTokens []domain.Address, dist distributor.UseCase) error {
	if !caller.Equals(im.gov) {
		return domain.ErrForbidden
	}
	if im.isInitialized {
		return domain.ErrAlreadyInitialized
	}
	im.distributor = dist
	for _, t := range depositTokens {
		im.depositTokens[t.ToLower()] = true
	}
	im.isInitialized = true
	return im.persistLedger(c)
}

func (im *trackerImpl) Load(c bCtx.Ctx) error {
	ledger, err := im.repo.GetLedger(c, im.address)
	if err == domain.ErrNotFound {
		return im.persistLedger(c)
	} else if err != nil {
		return err
	}

	if im.totalSupply, err = domain.ParseBig(ledger.TotalSupply); err != nil {
		return err
	}
	if im.cumulativeRewardPerToken, err = domain.ParseBig(ledger.CumulativeRewardPerToken); err != nil {
		return err
	}
	im.gov = ledger.Gov.ToLower()
	im.inPrivateTransferMode = ledger.InPrivateTransferMode
	im.inPrivateStakingMode = ledger.InPrivateStakingMode
	im.inPrivateClaimingMode = ledger.InPrivateClaimingMode
	im.isInitialized = im.isInitialized || ledger.IsInitialized
	im.depositTokens = map[domain.Address]bool{}
	for _, t := range ledger.DepositTokens {
		im.depositTokens[t.ToLower()] = true
	}
	im.handlers = map[domain.Address]bool{}
	for _, h := range ledger.Handlers {
		im.handlers[h.ToLower()] = true
	}
	im.totalDepositSupplies = map[domain.Address]*big.Int{}
	for t, amount := range ledger.TotalDepositSupplies {
		n, err := domain.ParseBig(amount)
		if err != nil {
			return err
		}
		im.totalDepositSupplies[domain.Address(t).ToLower()] = n
	}

	accounts, err := im.repo.ListAccounts(c, im.address)
	if err != nil {
		return err
	}
	for i := range accounts {
		state, err := parseAccount(&accounts[i])
		if err != nil {
			c.WithFields(log.Fields{
				"tracker": im.address,
				"account": accounts[i].Account,
				"err":     err,
			}).Error("corrupted tracker account document")
			return err
		}
		im.accounts[accounts[i].Account.ToLower()] = state
	}
	return nil
}

func parseAccount(doc *tracker.Account) (*accountState, error) {
	state := newAccountState()
	var err error
	if state.balance, err = domain.ParseBig(doc.Balance); err != nil {
		return nil, err
	}
	if state.stakedAmount, err = domain.ParseBig(doc.StakedAmount); err != nil {
		return nil, err
	}
	if state.claimableReward, err = domain.ParseBig(doc.ClaimableReward); err != nil {
		return nil, err
	}
	if state.previousCumulatedRewardPerToken, err = domain.ParseBig(doc.PreviousCumulatedRewardPerToken); err != nil {
		return nil, err
	}
	if state.cumulativeReward, err = domain.ParseBig(doc.CumulativeReward); err != nil {
		return nil, err
	}
	if state.averageStakedAmount, err = domain.ParseBig(doc.AverageStakedAmount); err != nil {
		return nil, err
	}
	for t, amount := range doc.DepositBalances {
		n, err := domain.ParseBig(amount)
		if err != nil {
			return nil, err
		}
		state.depositBalances[domain.Address(t).ToLower()] = n
	}
	return state, nil
}

func (im *trackerImpl) getAccount(account domain.Address) *accountState {
	state, ok := im.accounts[account]
	if !ok {
		state = newAccountState()
		im.accounts[account] = state
	}
	return state
}

func (im *trackerImpl) depositBalance(state *accountState, depositToken domain.Address) *big.Int {
	if b, ok := state.depositBalances[depositToken]; ok {
		return b
	}
	return domain.Big0
}

func (im *trackerImpl) totalDepositSupply(depositToken domain.Address) *big.Int {
	if s, ok := im.totalDepositSupplies[depositToken]; ok {
		return s
	}
	return domain.Big0
}

// UpdateRewards folds pending distributor rewards into the global ratio.
func (im *trackerImpl) UpdateRewards(c bCtx.Ctx) error {
	return im.updateRewards(c, "")
}

func (im *trackerImpl) updateRewards(c bCtx.Ctx, account domain.Address) error {
	if !im.isInitialized || im.distributor == nil {
		return domain.ErrNotInitialized
	}
	blockReward, err := im.distributor.Distribute(c)
	if err != nil {
		return err
	}

	cumulative := im.cumulativeRewardPerToken
	if im.totalSupply.Sign() > 0 && blockReward.Sign() > 0 {
		delta := new(big.Int).Mul(blockReward, domain.Precision)
		delta.Div(delta, im.totalSupply)
		cumulative = new(big.Int).Add(cumulative, delta)
		im.cumulativeRewardPerToken = cumulative
		if err := im.persistLedger(c); err != nil {
			return err
		}
	}

	// cumulativeRewardPerToken can only increase, so a zero value means
	// there are no rewards to account for yet
	if cumulative.Sign() == 0 || account.IsEmpty() {
		return nil
	}

	state := im.getAccount(account)
	staked := state.stakedAmount
	accountReward := new(big.Int).Sub(cumulative, state.previousCumulatedRewardPerToken)
	accountReward.Mul(accountReward, staked)
	accountReward.Div(accountReward, domain.Precision)
	claimable := new(big.Int).Add(state.claimableReward, accountReward)

	state.claimableReward = claimable
	state.previousCumulatedRewardPerToken = new(big.Int).Set(cumulative)

	if claimable.Sign() > 0 && staked.Sign() > 0 {
		nextCumulativeReward := new(big.Int).Add(state.cumulativeReward, accountReward)
		if nextCumulativeReward.Sign() > 0 {
			// reward-weighted blend keeps the average staked amount
			// representative of when the rewards were actually earned
			avg := new(big.Int).Mul(state.averageStakedAmount, state.cumulativeReward)
			avg.Div(avg, nextCumulativeReward)
			part := new(big.Int).Mul(staked, accountReward)
			part.Div(part, nextCumulativeReward)
			state.averageStakedAmount = avg.Add(avg, part)
			state.cumulativeReward = nextCumulativeReward
		}
	}
	return im.persistAccount(c, account)
}

func (im *trackerImpl) Stake(c bCtx.Ctx, account, depositToken domain.Address, amount *big.Int) error {
	if im.inPrivateStakingMode {
		return domain.ErrForbidden
	}
	account = account.ToLower()
	return im.stake(c, account, account, depositToken.ToLower(), amount)
}

func (im *trackerImpl) StakeForAccount(c bCtx.Ctx, handler, fundingAccount, account, depositToken domain.Address, amount *big.Int) error {
	if !im.handlers[handler.ToLower()] {
		return domain.ErrForbidden
	}
	return im.stake(c, fundingAccount.ToLower(), account.ToLower(), depositToken.ToLower(), amount)
}

func (im *trackerImpl) stake(c bCtx.Ctx, fundingAccount, account, depositToken domain.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrInvalidAmount
	}
	if !im.depositTokens[depositToken] {
		return domain.ErrInvalidDepositToken
	}
	deposit, err := im.registry.Resolve(depositToken)
	if err != nil {
		return err
	}
	if deposit.BalanceOf(c, fundingAccount).Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}

	if err := im.updateRewards(c, account); err != nil {
		return err
	}
	if err := deposit.TransferFrom(c, im.address, fundingAccount, im.address, amount); err != nil {
		return err
	}

	state := im.getAccount(account)
	state.stakedAmount = new(big.Int).Add(state.stakedAmount, amount)
	state.depositBalances[depositToken] = new(big.Int).Add(im.depositBalance(state, depositToken), amount)
	im.totalDepositSupplies[depositToken] = new(big.Int).Add(im.totalDepositSupply(depositToken), amount)

	state.balance = new(big.Int).Add(state.balance, amount)
	im.totalSupply = new(big.Int).Add(im.totalSupply, amount)

	if err := im.persistLedger(c); err != nil {
		return err
	}
	return im.persistAccount(c, account)
}

func (im *trackerImpl) Unstake(c bCtx.Ctx, account, depositToken domain.Address, amount *big.Int) error {
	if im.inPrivateStakingMode {
		return domain.ErrForbidden
	}
	account = account.ToLower()
	return im.unstake(c, account, depositToken.ToLower(), amount, account)
}

func (im *trackerImpl) UnstakeForAccount(c bCtx.Ctx, handler, account, depositToken domain.Address, amount *big.Int, receiver domain.Address) error {
	if !im.handlers[handler.ToLower()] {
		return domain.ErrForbidden
	}
	return im.unstake(c, account.ToLower(), depositToken.ToLower(), amount, receiver.ToLower())
}

func (im *trackerImpl) unstake(c bCtx.Ctx, account, depositToken domain.Address, amount *big.Int, receiver domain.Address) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrInvalidAmount
	}
	if !im.depositTokens[depositToken] {
		return domain.ErrInvalidDepositToken
	}

	if err := im.updateRewards(c, account); err != nil {
		return err
	}

	state := im.getAccount(account)
	if state.stakedAmount.Cmp(amount) < 0 {
		return domain.ErrInsufficientStake
	}
	// withdrawal is scoped to the origin token even when the aggregate
	// staked amount is larger
	if im.depositBalance(state, depositToken).Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}

	state.stakedAmount = new(big.Int).Sub(state.stakedAmount, amount)
	state.depositBalances[depositToken] = new(big.Int).Sub(im.depositBalance(state, depositToken), amount)
	im.totalDepositSupplies[depositToken] = new(big.Int).Sub(im.totalDepositSupply(depositToken), amount)

	state.balance = new(big.Int).Sub(state.balance, amount)
	im.totalSupply = new(big.Int).Sub(im.totalSupply, amount)

	if err := im.persistLedger(c); err != nil {
		return err
	}
	if err := im.persistAccount(c, account); err != nil {
		return err
	}

	deposit, err := im.registry.Resolve(depositToken)
	if err != nil {
		return err
	}
	return deposit.Transfer(c, im.address, receiver, amount)
}

func (im *trackerImpl) Claim(c bCtx.Ctx, account, receiver domain.Address) (*big.Int, error) {
	if im.inPrivateClaimingMode {
		return nil, domain.ErrForbidden
	}
	return im.claim(c, account.ToLower(), receiver.ToLower())
}

func (im *trackerImpl) ClaimForAccount(c bCtx.Ctx, handler, account, receiver domain.Address) (*big.Int, error) {
	if !im.handlers[handler.ToLower()] {
		return nil, domain.ErrForbidden
	}
	return im.claim(c, account.ToLower(), receiver.ToLower())
}

func (im *trackerImpl) claim(c bCtx.Ctx, account, receiver domain.Address) (*big.Int, error) {
	if err := im.updateRewards(c, account); err != nil {
		return nil, err
	}

	state := im.getAccount(account)
	amount := state.claimableReward
	if amount.Sign() == 0 {
		return new(big.Int), nil
	}

	reward, err := im.registry.Resolve(im.distributor.RewardToken())
	if err != nil {
		return nil, err
	}
	// an underfunded reservoir freezes claims instead of short-paying or
	// marking unclaimed rewards as claimed
	if reward.BalanceOf(c, im.address).Cmp(amount) < 0 {
		c.WithFields(log.Fields{
			"tracker": im.address,
			"account": account,
			"amount":  amount.String(),
		}).Warn("reward reservoir underfunded")
		return nil, domain.ErrInsufficientReserves
	}

	state.claimableReward = new(big.Int)
	if err := im.persistAccount(c, account); err != nil {
		return nil, err
	}
	if err := reward.Transfer(c, im.address, receiver, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// token.Token implementation. The receipt balance is itself a fungible token
// so downstream trackers can stake it.

func (im *trackerImpl) TokenAddress() domain.Address {
	return im.address
}

func (im *trackerImpl) TotalSupply(c bCtx.Ctx) *big.Int {
	return new(big.Int).Set(im.totalSupply)
}

func (im *trackerImpl) BalanceOf(c bCtx.Ctx, account domain.Address) *big.Int {
	return new(big.Int).Set(im.getAccount(account.ToLower()).balance)
}

func (im *trackerImpl) Transfer(c bCtx.Ctx, sender, receiver domain.Address, amount *big.Int) error {
	sender = sender.ToLower()
	if im.inPrivateTransferMode && !im.handlers[sender] {
		return domain.ErrForbidden
	}
	return im.transferReceipt(c, sender, receiver.ToLower(), amount)
}

func (im *trackerImpl) TransferFrom(c bCtx.Ctx, spender, from, to domain.Address, amount *big.Int) error {
	if !im.handlers[spender.ToLower()] {
		return domain.ErrForbidden
	}
	return im.transferReceipt(c, from.ToLower(), to.ToLower(), amount)
}

func (im *trackerImpl) transferReceipt(c bCtx.Ctx, sender, receiver domain.Address, amount *big.Int) error {
	if sender.IsEmpty() || receiver.IsEmpty() {
		return domain.ErrZeroAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrInvalidAmount
	}

	if err := im.updateRewards(c, sender); err != nil {
		return err
	}
	if err := im.updateRewards(c, receiver); err != nil {
		return err
	}

	from := im.getAccount(sender)
	if from.balance.Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	to := im.getAccount(receiver)

	// account-to-account transfers carry a pro-rata share of the sender's
	// reward history so a downstream vester bounds the receiver correctly;
	// custodial moves by system handlers keep the history with the staker
	if !im.handlers[sender] && !im.handlers[receiver] &&
		from.balance.Sign() > 0 && from.cumulativeReward.Sign() > 0 {
		moved := new(big.Int).Mul(from.cumulativeReward, amount)
		moved.Div(moved, from.balance)
		if moved.Sign() > 0 {
			nextCumulative := new(big.Int).Add(to.cumulativeReward, moved)
			avg := new(big.Int).Mul(to.averageStakedAmount, to.cumulativeReward)
			avg.Add(avg, new(big.Int).Mul(from.averageStakedAmount, moved))
			to.averageStakedAmount = avg.Div(avg, nextCumulative)
			to.cumulativeReward = nextCumulative
			from.cumulativeReward = new(big.Int).Sub(from.cumulativeReward, moved)
		}
	}

	from.balance = new(big.Int).Sub(from.balance, amount)
	to.balance = new(big.Int).Add(to.balance, amount)

	if err := im.persistAccount(c, sender); err != nil {
		return err
	}
	return im.persistAccount(c, receiver)
}

// Mint and Burn only exist to satisfy the token interface; receipt supply
// moves exclusively through stake and unstake.
func (im *trackerImpl) Mint(c bCtx.Ctx, minter, account domain.Address, amount *big.Int) error {
	return domain.ErrForbidden
}

func (im *trackerImpl) Burn(c bCtx.Ctx, burner, account domain.Address, amount *big.Int) error {
	return domain.ErrForbidden
}

// views

func (im *trackerImpl) Info(c bCtx.Ctx) *tracker.Ledger {
	return im.ledgerDoc()
}

func (im *trackerImpl) RewardToken(c bCtx.Ctx) domain.Address {
	if im.distributor == nil {
		return ""
	}
	return im.distributor.RewardToken()
}

func (im *trackerImpl) TokensPerInterval(c bCtx.Ctx) *big.Int {
	if im.distributor == nil {
		return new(big.Int)
	}
	return im.distributor.TokensPerInterval(c)
}

func (im *trackerImpl) Claimable(c bCtx.Ctx, account domain.Address) *big.Int {
	state := im.getAccount(account.ToLower())
	if state.stakedAmount.Sign() == 0 {
		return new(big.Int).Set(state.claimableReward)
	}
	next := new(big.Int).Set(im.cumulativeRewardPerToken)
	if im.totalSupply.Sign() > 0 {
		pending := new(big.Int).Mul(im.distributor.PendingRewards(c), domain.Precision)
		next.Add(next, pending.Div(pending, im.totalSupply))
	}
	delta := new(big.Int).Sub(next, state.previousCumulatedRewardPerToken)
	delta.Mul(delta, state.stakedAmount)
	delta.Div(delta, domain.Precision)
	return delta.Add(delta, state.claimableReward)
}

func (im *trackerImpl) StakedAmount(c bCtx.Ctx, account domain.Address) *big.Int {
	return new(big.Int).Set(im.getAccount(account.ToLower()).stakedAmount)
}

func (im *trackerImpl) DepositBalance(c bCtx.Ctx, account, depositToken domain.Address) *big.Int {
	return new(big.Int).Set(im.depositBalance(im.getAccount(account.ToLower()), depositToken.ToLower()))
}

func (im *trackerImpl) TotalDepositSupply(c bCtx.Ctx, depositToken domain.Address) *big.Int {
	return new(big.Int).Set(im.totalDepositSupply(depositToken.ToLower()))
}

func (im *trackerImpl) AverageStakedAmount(c bCtx.Ctx, account domain.Address) *big.Int {
	return new(big.Int).Set(im.getAccount(account.ToLower()).averageStakedAmount)
}

func (im *trackerImpl) CumulativeReward(c bCtx.Ctx, account domain.Address) *big.Int {
	return new(big.Int).Set(im.getAccount(account.ToLower()).cumulativeReward)
}

func (im *trackerImpl) IsDepositToken(c bCtx.Ctx, depositToken domain.Address) bool {
	return im.depositTokens[depositToken.ToLower()]
}

// gov operations

func (im *trackerImpl) SetDepositToken(c bCtx.Ctx, caller, depositToken domain.Address, active bool) error {
	if !caller.Equals(im.gov) {
		return domain.ErrForbidden
	}
	im.depositTokens[depositToken.ToLower()] = active
	return im.persistLedger(c)
}

func (im *trackerImpl) SetHandler(c bCtx.Ctx, caller, handler domain.Address, active bool) error {
	if !caller.Equals(im.gov) {
		return domain.ErrForbidden
	}
	im.handlers[handler.ToLower()] = active
	return im.persistLedger(c)
}

func (im *trackerImpl) SetInPrivateTransferMode(c bCtx.Ctx, caller domain.Address, on bool) error {
	if !caller.Equals(im.gov) {
		return domain.ErrForbidden
	}
	im.inPrivateTransferMode = on
	return im.persistLedger(c)
}

func (im *trackerImpl) SetInPrivateStakingMode(c bCtx.Ctx, caller domain.Address, on bool) error {
	if !caller.Equals(im.gov) {
		return domain.ErrForbidden
	}
	im.inPrivateStakingMode = on
	return im.persistLedger(c)
}

func (im *trackerImpl) SetInPrivateClaimingMode(c bCtx.Ctx, caller domain.Address, on bool) error {
	if !caller.Equals(im.gov) {
		return domain.ErrForbidden
	}
	im.inPrivateClaimingMode = on
	return im.persistLedger(c)
}

func (im *trackerImpl) SetGov(c bCtx.Ctx, caller, gov domain.Address) error {
	if !caller.Equals(im.gov) {
		return domain.ErrForbidden
	}
	if gov.IsEmpty() {
		return domain.ErrZeroAddress
	}
	im.gov = gov.ToLower()
	return im.persistLedger(c)
}

func (im *trackerImpl) WithdrawToken(c bCtx.Ctx, caller, tokenAddr, receiver domain.Address, amount *big.Int) error {
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

func (im *trackerImpl) ledgerDoc() *tracker.Ledger {
	depositTokens := []domain.Address{}
	for t, ok := range im.depositTokens {
		if ok {
			depositTokens = append(depositTokens, t)
		}
	}
	handlers := []domain.Address{}
	for h, ok := range im.handlers {
		if ok {
			handlers = append(handlers, h)
		}
	}
	supplies := map[string]string{}
	for t, amount := range im.totalDepositSupplies {
		supplies[t.ToLowerStr()] = domain.FormatBig(amount)
	}
	var distributorAddr domain.Address
	if im.distributor != nil {
		distributorAddr = im.distributor.DistributorAddress()
	}
	return &tracker.Ledger{
		Address:                  im.address,
		Name:                     im.name,
		Symbol:                   im.symbol,
		Gov:                      im.gov,
		Distributor:              distributorAddr,
		DepositTokens:            depositTokens,
		Handlers:                 handlers,
		TotalSupply:              domain.FormatBig(im.totalSupply),
		TotalDepositSupplies:     supplies,
		CumulativeRewardPerToken: domain.FormatBig(im.cumulativeRewardPerToken),
		InPrivateTransferMode:    im.inPrivateTransferMode,
		InPrivateStakingMode:     im.inPrivateStakingMode,
		InPrivateClaimingMode:    im.inPrivateClaimingMode,
		IsInitialized:            im.isInitialized,
	}
}

func (im *trackerImpl) persistLedger(c bCtx.Ctx) error {
	if err := im.repo.UpsertLedger(c, im.ledgerDoc()); err != nil {
		c.WithFields(log.Fields{
			"tracker": im.address,
			"err":     err,
		}).Error("repo.UpsertLedger failed")
		return err
	}
	return nil
}

func (im *trackerImpl) persistAccount(c bCtx.Ctx, account domain.Address) error {
	state := im.getAccount(account)
	deposits := map[string]string{}
	for t, amount := range state.depositBalances {
		deposits[t.ToLowerStr()] = domain.FormatBig(amount)
	}
	doc := &tracker.Account{
		Tracker:                         im.address,
		Account:                         account,
		Balance:                         domain.FormatBig(state.balance),
		StakedAmount:                    domain.FormatBig(state.stakedAmount),
		DepositBalances:                 deposits,
		ClaimableReward:                 domain.FormatBig(state.claimableReward),
		PreviousCumulatedRewardPerToken: domain.FormatBig(state.previousCumulatedRewardPerToken),
		CumulativeReward:                domain.FormatBig(state.cumulativeReward),
		AverageStakedAmount:             domain.FormatBig(state.averageStakedAmount),
	}
	if err := im.repo.UpsertAccount(c, doc); err != nil {
		c.WithFields(log.Fields{
			"tracker": im.address,
			"account": account,
			"err":     err,
		}).Error("repo.UpsertAccount failed")
		return err
	}
	return nil
}
