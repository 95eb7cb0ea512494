package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/delivery"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/reader"
	"github.com/sgx-protocol/goapi/domain/token"
)

type handler struct {
	reader   reader.UseCase
	registry *token.Registry
}

func New(e *echo.Echo, r reader.UseCase, registry *token.Registry) {
	h := &handler{reader: r, registry: registry}
	g := e.Group("/reader")
	g.GET("/stakingOverview", h.getStakingOverview)
	g.GET("/vestingOverview", h.getVestingOverview)
	g.GET("/aprs", h.getAprs)
}

func (h *handler) getStakingOverview(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)

	account := domain.Address(c.QueryParam("account"))
	if account.IsEmpty() {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrInvalidAddress)
	}

	var res *reader.StakingOverview
	if err := h.registry.RLocked(func() error {
		var err error
		res, err = h.reader.GetStakingOverview(ctx, account)
		return err
	}); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getVestingOverview(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)

	account := domain.Address(c.QueryParam("account"))
	if account.IsEmpty() {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrInvalidAddress)
	}

	var res *reader.VestingOverview
	if err := h.registry.RLocked(func() error {
		var err error
		res, err = h.reader.GetVestingOverview(ctx, account)
		return err
	}); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getAprs(c echo.Context) error {
	ctx := c.Get("ctx").(bCtx.Ctx)

	var res interface{}
	if err := h.registry.RLocked(func() error {
		var err error
		res, err = h.reader.GetAprs(ctx)
		return err
	}); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}
