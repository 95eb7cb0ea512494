package lpmanager

import (
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/domain"
)

var (
	ErrStatusCodeNotOk = errors.New("http.status != 200")
	ErrBadAmount       = errors.New("lp manager returned invalid amount")
)

// Client talks to the liquidity pool manager, which owns the pool itself and
// mints or burns the lp receipt token. The manager enforces its own cooldown
// on redeem; a rejected request surfaces as a non-200 response.
type Client interface {
	// AddLiquidity deposits tokenIn and returns the minted lp amount.
	AddLiquidity(c bCtx.Ctx, account, tokenIn domain.Address, amount, minUsdValue, minLp *big.Int) (*big.Int, error)
	// RemoveLiquidity burns lpAmount and returns the amount of tokenOut sent
	// to receiver.
	RemoveLiquidity(c bCtx.Ctx, account, tokenOut domain.Address, lpAmount, minOut *big.Int, receiver domain.Address) (*big.Int, error)
	// GetAum returns the pool's assets under management in usd.
	GetAum(c bCtx.Ctx) (decimal.Decimal, error)
}

type ClientCfg struct {
	Url        string
	Apikey     string
	HttpClient http.Client
	Timeout    time.Duration
}

type addLiquidityReq struct {
	Account    string `json:"account"`
	TokenIn    string `json:"tokenIn"`
	Amount     string `json:"amount"`
	MinUsdValue string `json:"minUsdValue"`
	MinLp      string `json:"minLp"`
}

type removeLiquidityReq struct {
	Account  string `json:"account"`
	TokenOut string `json:"tokenOut"`
	LpAmount string `json:"lpAmount"`
	MinOut   string `json:"minOut"`
	Receiver string `json:"receiver"`
}

type liquidityResp struct {
	Amount string `json:"amount"`
}

type aumResp struct {
	Aum decimal.Decimal `json:"aum"`
}
