package token

import (
	"math/big"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/domain"
)

// Token is the fungible interface every ledger in the staking graph exposes,
// including reward-tracker receipt balances. Implementations assume the
// registry ledger lock is held by the caller; entry points that originate a
// state change (delivery handlers, router operations) acquire it through
// Registry.Locked / Registry.RLocked.
type Token interface {
	TokenAddress() domain.Address
	TotalSupply(c bCtx.Ctx) *big.Int
	BalanceOf(c bCtx.Ctx, account domain.Address) *big.Int
	Transfer(c bCtx.Ctx, sender, receiver domain.Address, amount *big.Int) error
	TransferFrom(c bCtx.Ctx, spender, from, to domain.Address, amount *big.Int) error
	Mint(c bCtx.Ctx, minter, account domain.Address, amount *big.Int) error
	Burn(c bCtx.Ctx, burner, account domain.Address, amount *big.Int) error
}

// Ledger is the persisted global state of one token instance.
type Ledger struct {
	Address               domain.Address   `bson:"address"`
	Name                  string           `bson:"name"`
	Symbol                string           `bson:"symbol"`
	Decimals              uint8            `bson:"decimals"`
	Gov                   domain.Address   `bson:"gov"`
	TotalSupply           string           `bson:"totalSupply"`
	InPrivateTransferMode bool             `bson:"inPrivateTransferMode"`
	Minters               []domain.Address `bson:"minters"`
	Handlers              []domain.Address `bson:"handlers"`
}

// Balance is the persisted holding of one account for one token.
type Balance struct {
	Token   domain.Address `bson:"token"`
	Account domain.Address `bson:"account"`
	Amount  string         `bson:"amount"`
}

type BalanceId struct {
	Token   domain.Address `bson:"token"`
	Account domain.Address `bson:"account"`
}

// Allowance is the persisted spender approval of one owner for one token.
type Allowance struct {
	Token   domain.Address `bson:"token"`
	Owner   domain.Address `bson:"owner"`
	Spender domain.Address `bson:"spender"`
	Amount  string         `bson:"amount"`
}

type AllowanceId struct {
	Token   domain.Address `bson:"token"`
	Owner   domain.Address `bson:"owner"`
	Spender domain.Address `bson:"spender"`
}

type Repo interface {
	GetLedger(c bCtx.Ctx, address domain.Address) (*Ledger, error)
	UpsertLedger(c bCtx.Ctx, l *Ledger) error
	ListBalances(c bCtx.Ctx, token domain.Address) ([]Balance, error)
	UpsertBalance(c bCtx.Ctx, b *Balance) error
	ListAllowances(c bCtx.Ctx, token domain.Address) ([]Allowance, error)
	UpsertAllowance(c bCtx.Ctx, a *Allowance) error
}

// UseCase is one token instance. Mutating methods persist write-through; the
// in-memory ledger is canonical and reloaded from the repo at startup.
type UseCase interface {
	Token

	Load(c bCtx.Ctx) error

	Info(c bCtx.Ctx) *Ledger
	Allowance(c bCtx.Ctx, owner, spender domain.Address) *big.Int
	Approve(c bCtx.Ctx, owner, spender domain.Address, amount *big.Int) error
	IsHandler(c bCtx.Ctx, account domain.Address) bool
	IsMinter(c bCtx.Ctx, account domain.Address) bool

	SetGov(c bCtx.Ctx, caller, gov domain.Address) error
	SetMinter(c bCtx.Ctx, caller, minter domain.Address, active bool) error
	SetHandler(c bCtx.Ctx, caller, handler domain.Address, active bool) error
	SetInPrivateTransferMode(c bCtx.Ctx, caller domain.Address, on bool) error
}
