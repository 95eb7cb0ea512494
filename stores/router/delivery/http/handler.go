package http

import (
	"math/big"
	"net/http"

	"github.com/labstack/echo/v4"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/delivery"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/router"
	"github.com/sgx-protocol/goapi/domain/token"
)

type handler struct {
	router   router.UseCase
	registry *token.Registry
}

// New registers the staking endpoints. Every mutating endpoint requires an
// authenticated wallet; the account always comes from the token, never from
// the payload.
func New(e *echo.Echo, r router.UseCase, registry *token.Registry, authMiddleware echo.MiddlewareFunc, adminMiddleware echo.MiddlewareFunc) {
	h := &handler{router: r, registry: registry}

	g := e.Group("/staking", authMiddleware)
	g.POST("/sgx/stake", h.stakeSgx)
	g.POST("/sgx/unstake", h.unstakeSgx)
	g.POST("/esSgx/stake", h.stakeEsSgx)
	g.POST("/esSgx/unstake", h.unstakeEsSgx)
	g.POST("/sgxlp/mint", h.mintAndStakeSgxLp)
	g.POST("/sgxlp/redeem", h.unstakeAndRedeemSgxLp)
	g.POST("/claim", h.claim)
	g.POST("/claimEsSgx", h.claimEsSgx)
	g.POST("/claimFees", h.claimFees)
	g.POST("/compound", h.compound)
	g.POST("/handleRewards", h.handleRewards)
	g.POST("/signalTransfer", h.signalTransfer)
	g.POST("/acceptTransfer", h.acceptTransfer)

	ga := e.Group("/admin/staking", authMiddleware, adminMiddleware)
	ga.POST("/batchCompound", h.batchCompound)
}

func statusOf(err error) int {
	switch err {
	case domain.ErrInvalidAmount, domain.ErrInvalidDepositToken, domain.ErrZeroAddress,
		domain.ErrInsufficientBalance, domain.ErrInsufficientAllowance, domain.ErrInsufficientStake,
		domain.ErrMaxVestableExceeded, domain.ErrSenderHasVested, domain.ErrInvalidReceiver,
		domain.ErrTransferNotSignalled:
		return http.StatusBadRequest
	case domain.ErrForbidden:
		return http.StatusForbidden
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrInsufficientReserves:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) bindAmount(c echo.Context) (bCtx.Ctx, domain.Address, *big.Int, error) {
	ctx := c.Get("ctx").(bCtx.Ctx)
	account := c.Get("address").(domain.Address)

	type params struct {
		Amount string `json:"amount"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return ctx, account, nil, err
	}
	amount, err := domain.ParseBig(p.Amount)
	if err != nil {
		return ctx, account, nil, err
	}
	return ctx, account, amount, nil
}

func (h *handler) stakeSgx(c echo.Context) error {
	ctx, account, amount, err := h.bindAmount(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := h.registry.Locked(func() error {
		return h.router.StakeSgx(ctx, account, amount)
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) unstakeSgx(c echo.Context) error {
	ctx, account, amount, err := h.bindAmount(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := h.registry.Locked(func() error {
		return h.router.UnstakeSgx(ctx, account, amount)
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) stakeEsSgx(c echo.Context) error {
	ctx, account, amount, err := h.bindAmount(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := h.registry.Locked(func() error {
		return h.router.StakeEsSgx(ctx, account, amount)
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) unstakeEsSgx(c echo.Context) error {
	ctx, account, amount, err := h.bindAmount(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := h.registry.Locked(func() error {
		return h.router.UnstakeEsSgx(ctx, account, amount)
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) mintAndStakeSgxLp(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	account := c.Get("address").(domain.Address)

	type params struct {
		TokenIn     domain.Address `json:"tokenIn"`
		Amount      string         `json:"amount"`
		MinUsdValue string         `json:"minUsdValue"`
		MinSgxLp    string         `json:"minSgxLp"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	nums, err := domain.ToBigInt([]string{p.Amount, p.MinUsdValue, p.MinSgxLp})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	var lpAmount *big.Int
	if err := h.registry.Locked(func() error {
		var err error
		lpAmount, err = h.router.MintAndStakeSgxLp(ctx, account, p.TokenIn, nums[0], nums[1], nums[2])
		return err
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, lpAmount.String())
}

func (h *handler) unstakeAndRedeemSgxLp(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	account := c.Get("address").(domain.Address)

	type params struct {
		TokenOut    domain.Address `json:"tokenOut"`
		SgxLpAmount string         `json:"sgxLpAmount"`
		MinOut      string         `json:"minOut"`
		Receiver    domain.Address `json:"receiver"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	nums, err := domain.ToBigInt([]string{p.SgxLpAmount, p.MinOut})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	receiver := p.Receiver
	if receiver.IsEmpty() {
		receiver = account
	}

	var out *big.Int
	if err := h.registry.Locked(func() error {
		var err error
		out, err = h.router.UnstakeAndRedeemSgxLp(ctx, account, p.TokenOut, nums[0], nums[1], receiver)
		return err
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, out.String())
}

func (h *handler) claim(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	account := c.Get("address").(domain.Address)
	if err := h.registry.Locked(func() error {
		return h.router.Claim(ctx, account)
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) claimEsSgx(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	account := c.Get("address").(domain.Address)
	if err := h.registry.Locked(func() error {
		return h.router.ClaimEsSgx(ctx, account)
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) claimFees(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	account := c.Get("address").(domain.Address)
	if err := h.registry.Locked(func() error {
		return h.router.ClaimFees(ctx, account)
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) compound(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	account := c.Get("address").(domain.Address)
	if err := h.registry.Locked(func() error {
		return h.router.Compound(ctx, account)
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) handleRewards(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	account := c.Get("address").(domain.Address)

	flags := router.HandleRewardsFlags{}
	if err := c.Bind(&flags); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := h.registry.Locked(func() error {
		return h.router.HandleRewards(ctx, account, flags)
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) signalTransfer(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	account := c.Get("address").(domain.Address)

	type params struct {
		Receiver domain.Address `json:"receiver"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := h.registry.Locked(func() error {
		return h.router.SignalTransfer(ctx, account, p.Receiver)
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) acceptTransfer(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	account := c.Get("address").(domain.Address)

	type params struct {
		Sender domain.Address `json:"sender"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	if err := h.registry.Locked(func() error {
		return h.router.AcceptTransfer(ctx, account, p.Sender)
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) batchCompound(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	caller := c.Get("address").(domain.Address)

	type params struct {
		Accounts []domain.Address `json:"accounts"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	// batch compounding locks per account inside the worker pool
	if err := h.router.BatchCompoundForAccounts(ctx, caller, p.Accounts); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}
