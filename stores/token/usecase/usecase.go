package usecase

import (
	"math/big"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/log"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/token"
)

type TokenCfg struct {
	// Ledger seeds the instance when the repo holds no document yet.
	Ledger *token.Ledger
	Repo   token.Repo
}

// tokenImpl keeps the canonical ledger in memory and writes every mutation
// through to the repo. Load must run before the instance serves calls.
type tokenImpl struct {
	repo token.Repo

	address  domain.Address
	name     string
	symbol   string
	decimals uint8

	gov                   domain.Address
	totalSupply           *big.Int
	inPrivateTransferMode bool
	minters               map[domain.Address]bool
	handlers              map[domain.Address]bool

	balances   map[domain.Address]*big.Int
	allowances map[domain.Address]map[domain.Address]*big.Int
}

func New(cfg *TokenCfg) token.UseCase {
	return &tokenImpl{
		repo:       cfg.Repo,
		address:    cfg.Ledger.Address.ToLower(),
		name:       cfg.Ledger.Name,
		symbol:     cfg.Ledger.Symbol,
		decimals:   cfg.Ledger.Decimals,
		gov:        cfg.Ledger.Gov.ToLower(),
		totalSupply: new(big.Int),
		inPrivateTransferMode: cfg.Ledger.InPrivateTransferMode,
		minters:    toAddressSet(cfg.Ledger.Minters),
		handlers:   toAddressSet(cfg.Ledger.Handlers),
		balances:   map[domain.Address]*big.Int{},
		allowances: map[domain.Address]map[domain.Address]*big.Int{},
	}
}

func toAddressSet(addrs []domain.Address) map[domain.Address]bool {
	set := map[domain.Address]bool{}
	for _, a := range addrs {
		set[a.ToLower()] = true
	}
	return set
}

func toAddressSlice(set map[domain.Address]bool) []domain.Address {
	addrs := []domain.Address{}
	for a, ok := range set {
		if ok {
			addrs = append(addrs, a)
		}
	}
	return addrs
}

func (im *tokenImpl) Load(c bCtx.Ctx) error {
	ledger, err := im.repo.GetLedger(c, im.address)
	if err == domain.ErrNotFound {
		return im.persistLedger(c)
	} else if err != nil {
		return err
	}

	if im.totalSupply, err = domain.ParseBig(ledger.TotalSupply); err != nil {
		return err
	}
	im.gov = ledger.Gov.ToLower()
	im.inPrivateTransferMode = ledger.InPrivateTransferMode
	im.minters = toAddressSet(ledger.Minters)
	im.handlers = toAddressSet(ledger.Handlers)

	balances, err := im.repo.ListBalances(c, im.address)
	if err != nil {
		return err
	}
	for _, b := range balances {
		amount, err := domain.ParseBig(b.Amount)
		if err != nil {
			c.WithFields(log.Fields{
				"token":   im.address,
				"account": b.Account,
				"err":     err,
			}).Error("corrupted balance document")
			return err
		}
		im.balances[b.Account.ToLower()] = amount
	}

	allowances, err := im.repo.ListAllowances(c, im.address)
	if err != nil {
		return err
	}
	for _, a := range allowances {
		amount, err := domain.ParseBig(a.Amount)
		if err != nil {
			c.WithFields(log.Fields{
				"token": im.address,
				"owner": a.Owner,
				"err":   err,
			}).Error("corrupted allowance document")
			return err
		}
		im.setAllowance(a.Owner.ToLower(), a.Spender.ToLower(), amount)
	}
	return nil
}

func (im *tokenImpl) TokenAddress() domain.Address {
	return im.address
}

func (im *tokenImpl) TotalSupply(c bCtx.Ctx) *big.Int {
	return new(big.Int).Set(im.totalSupply)
}

func (im *tokenImpl) BalanceOf(c bCtx.Ctx, account domain.Address) *big.Int {
	return new(big.Int).Set(im.balanceOf(account.ToLower()))
}

func (im *tokenImpl) balanceOf(account domain.Address) *big.Int {
	if b, ok := im.balances[account]; ok {
		return b
	}
	return domain.Big0
}

func (im *tokenImpl) Info(c bCtx.Ctx) *token.Ledger {
	return im.ledgerDoc()
}

func (im *tokenImpl) Allowance(c bCtx.Ctx, owner, spender domain.Address) *big.Int {
	return new(big.Int).Set(im.allowance(owner.ToLower(), spender.ToLower()))
}

func (im *tokenImpl) allowance(owner, spender domain.Address) *big.Int {
	if m, ok := im.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return a
		}
	}
	return domain.Big0
}

func (im *tokenImpl) setAllowance(owner, spender domain.Address, amount *big.Int) {
	m, ok := im.allowances[owner]
	if !ok {
		m = map[domain.Address]*big.Int{}
		im.allowances[owner] = m
	}
	m[spender] = amount
}

func (im *tokenImpl) IsHandler(c bCtx.Ctx, account domain.Address) bool {
	return im.handlers[account.ToLower()]
}

func (im *tokenImpl) IsMinter(c bCtx.Ctx, account domain.Address) bool {
	return im.minters[account.ToLower()]
}

func (im *tokenImpl) Approve(c bCtx.Ctx, owner, spender domain.Address, amount *big.Int) error {
	owner, spender = owner.ToLower(), spender.ToLower()
	if owner.IsEmpty() || spender.IsEmpty() {
		return domain.ErrZeroAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrInvalidAmount
	}
	im.setAllowance(owner, spender, new(big.Int).Set(amount))
	return im.persistAllowance(c, owner, spender)
}

func (im *tokenImpl) Transfer(c bCtx.Ctx, sender, receiver domain.Address, amount *big.Int) error {
	sender = sender.ToLower()
	if im.inPrivateTransferMode && !im.handlers[sender] {
		return domain.ErrForbidden
	}
	return im.transfer(c, sender, receiver.ToLower(), amount)
}

func (im *tokenImpl) TransferFrom(c bCtx.Ctx, spender, from, to domain.Address, amount *big.Int) error {
	spender, from, to = spender.ToLower(), from.ToLower(), to.ToLower()
	if im.handlers[spender] {
		return im.transfer(c, from, to, amount)
	}
	if err := im.validateTransfer(from, to, amount); err != nil {
		return err
	}
	allowance := im.allowance(from, spender)
	if allowance.Cmp(amount) < 0 {
		return domain.ErrInsufficientAllowance
	}
	im.setAllowance(from, spender, new(big.Int).Sub(allowance, amount))
	if err := im.persistAllowance(c, from, spender); err != nil {
		return err
	}
	return im.transfer(c, from, to, amount)
}

func (im *tokenImpl) validateTransfer(sender, receiver domain.Address, amount *big.Int) error {
	if sender.IsEmpty() || receiver.IsEmpty() {
		return domain.ErrZeroAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrInvalidAmount
	}
	if im.balanceOf(sender).Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}

func (im *tokenImpl) transfer(c bCtx.Ctx, sender, receiver domain.Address, amount *big.Int) error {
	if err := im.validateTransfer(sender, receiver, amount); err != nil {
		return err
	}
	im.balances[sender] = new(big.Int).Sub(im.balanceOf(sender), amount)
	im.balances[receiver] = new(big.Int).Add(im.balanceOf(receiver), amount)
	if err := im.persistBalance(c, sender); err != nil {
		return err
	}
	return im.persistBalance(c, receiver)
}

func (im *tokenImpl) Mint(c bCtx.Ctx, minter, account domain.Address, amount *big.Int) error {
	minter, account = minter.ToLower(), account.ToLower()
	if !im.minters[minter] {
		return domain.ErrForbidden
	}
	if account.IsEmpty() {
		return domain.ErrZeroAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrInvalidAmount
	}
	im.totalSupply = new(big.Int).Add(im.totalSupply, amount)
	im.balances[account] = new(big.Int).Add(im.balanceOf(account), amount)
	if err := im.persistLedger(c); err != nil {
		return err
	}
	return im.persistBalance(c, account)
}

func (im *tokenImpl) Burn(c bCtx.Ctx, burner, account domain.Address, amount *big.Int) error {
	burner, account = burner.ToLower(), account.ToLower()
	if !im.minters[burner] {
		return domain.ErrForbidden
	}
	if account.IsEmpty() {
		return domain.ErrZeroAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrInvalidAmount
	}
	if im.balanceOf(account).Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	im.totalSupply = new(big.Int).Sub(im.totalSupply, amount)
	im.balances[account] = new(big.Int).Sub(im.balanceOf(account), amount)
	if err := im.persistLedger(c); err != nil {
		return err
	}
	return im.persistBalance(c, account)
}

func (im *tokenImpl) SetGov(c bCtx.Ctx, caller, gov domain.Address) error {
	if !caller.Equals(im.gov) {
		return domain.ErrForbidden
	}
	if gov.IsEmpty() {
		return domain.ErrZeroAddress
	}
	im.gov = gov.ToLower()
	return im.persistLedger(c)
}

func (im *tokenImpl) SetMinter(c bCtx.Ctx, caller, minter domain.Address, active bool) error {
	if !caller.Equals(im.gov) {
		return domain.ErrForbidden
	}
	im.minters[minter.ToLower()] = active
	return im.persistLedger(c)
}

func (im *tokenImpl) SetHandler(c bCtx.Ctx, caller, handler domain.Address, active bool) error {
	if !caller.Equals(im.gov) {
		return domain.ErrForbidden
	}
	im.handlers[handler.ToLower()] = active
	return im.persistLedger(c)
}

func (im *tokenImpl) SetInPrivateTransferMode(c bCtx.Ctx, caller domain.Address, on bool) error {
	if !caller.Equals(im.gov) {
		return domain.ErrForbidden
	}
	im.inPrivateTransferMode = on
	return im.persistLedger(c)
}

func (im *tokenImpl) ledgerDoc() *token.Ledger {
	return &token.Ledger{
		Address:               im.address,
		Name:                  im.name,
		Symbol:                im.symbol,
		Decimals:              im.decimals,
		Gov:                   im.gov,
		TotalSupply:           domain.FormatBig(im.totalSupply),
		InPrivateTransferMode: im.inPrivateTransferMode,
		Minters:               toAddressSlice(im.minters),
		Handlers:              toAddressSlice(im.handlers),
	}
}

func (im *tokenImpl) persistLedger(c bCtx.Ctx) error {
	if err := im.repo.UpsertLedger(c, im.ledgerDoc()); err != nil {
		c.WithFields(log.Fields{
			"token": im.address,
			"err":   err,
		}).Error("repo.UpsertLedger failed")
		return err
	}
	return nil
}

func (im *tokenImpl) persistBalance(c bCtx.Ctx, account domain.Address) error {
	doc := &token.Balance{
		Token:   im.address,
		Account: account,
		Amount:  domain.FormatBig(im.balanceOf(account)),
	}
	if err := im.repo.UpsertBalance(c, doc); err != nil {
		c.WithFields(log.Fields{
			"token":   im.address,
			"account": account,
			"err":     err,
		}).Error("repo.UpsertBalance failed")
		return err
	}
	return nil
}

func (im *tokenImpl) persistAllowance(c bCtx.Ctx, owner, spender domain.Address) error {
	doc := &token.Allowance{
		Token:   im.address,
		Owner:   owner,
		Spender: spender,
		Amount:  domain.FormatBig(im.allowance(owner, spender)),
	}
	if err := im.repo.UpsertAllowance(c, doc); err != nil {
		c.WithFields(log.Fields{
			"token":   im.address,
			"owner":   owner,
			"spender": spender,
			"err":     err,
		}).Error("repo.UpsertAllowance failed")
		return err
	}
	return nil
}
