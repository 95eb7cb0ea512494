package http

import (
	"math/big"
	"net/http"

	"github.com/labstack/echo/v4"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/delivery"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/token"
	"github.com/sgx-protocol/goapi/domain/vester"
)

type handler struct {
	vesters  map[string]vester.UseCase
	registry *token.Registry
}

// New registers the vesting endpoints. The :pool parameter selects the
// vester, "sgx" or "sgxlp".
func New(e *echo.Echo, sgxVester, sgxLpVester vester.UseCase, registry *token.Registry, authMiddleware echo.MiddlewareFunc) {
	h := &handler{
		vesters: map[string]vester.UseCase{
			"sgx":   sgxVester,
			"sgxlp": sgxLpVester,
		},
		registry: registry,
	}
	g := e.Group("/vesting", authMiddleware)
	g.POST("/:pool/deposit", h.deposit)
	g.POST("/:pool/claim", h.claim)
	g.POST("/:pool/withdraw", h.withdraw)
}

func statusOf(err error) int {
	switch err {
	case domain.ErrInvalidAmount, domain.ErrInsufficientBalance, domain.ErrMaxVestableExceeded:
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

func (h *handler) pool(c echo.Context) (vester.UseCase, bool) {
	v, ok := h.vesters[c.Param("pool")]
	return v, ok
}

func (h *handler) deposit(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	account := c.Get("address").(domain.Address)

	v, ok := h.pool(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusNotFound, domain.ErrNotFound)
	}

	type params struct {
		Amount string `json:"amount"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}
	amount, err := domain.ParseBig(p.Amount)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.registry.Locked(func() error {
		return v.Deposit(ctx, account, amount)
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) claim(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	account := c.Get("address").(domain.Address)

	v, ok := h.pool(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusNotFound, domain.ErrNotFound)
	}

	var amount *big.Int
	if err := h.registry.Locked(func() error {
		var err error
		amount, err = v.Claim(ctx, account, account)
		return err
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, amount.String())
}

func (h *handler) withdraw(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)
	account := c.Get("address").(domain.Address)

	v, ok := h.pool(c)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusNotFound, domain.ErrNotFound)
	}

	if err := h.registry.Locked(func() error {
		return v.Withdraw(ctx, account)
	}); err != nil {
		return delivery.MakeJsonResp(c, statusOf(err), err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}
