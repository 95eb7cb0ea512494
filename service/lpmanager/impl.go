package lpmanager

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math/big"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/log"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/service/cache"
	"github.com/sgx-protocol/goapi/service/cache/provider/primitive"
)

func NewClient(cfg *ClientCfg) Client {
	return &client{
		url:     cfg.Url,
		apikey:  cfg.Apikey,
		client:  cfg.HttpClient,
		timeout: cfg.Timeout,
		cache: cache.New(cache.ServiceConfig{
			Ttl:   time.Minute,
			Pfx:   "lpmanager_cache",
			Cache: primitive.NewPrimitive("lpmanager_cache", 4),
		}),
	}
}

type client struct {
	url     string
	apikey  string
	client  http.Client
	timeout time.Duration
	cache   cache.Service
}

func (c *client) AddLiquidity(ctx bCtx.Ctx, account, tokenIn domain.Address, amount, minUsdValue, minLp *big.Int) (*big.Int, error) {
	req := &addLiquidityReq{
		Account:     string(account),
		TokenIn:     string(tokenIn),
		Amount:      amount.String(),
		MinUsdValue: minUsdValue.String(),
		MinLp:       minLp.String(),
	}
	data, err := c.post(ctx, fmt.Sprintf("%s/liquidity/add", c.url), req)
	if err != nil {
		return nil, err
	}
	resp := &liquidityResp{}
	if err := json.Unmarshal(data, resp); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return nil, err
	}
	minted, ok := new(big.Int).SetString(resp.Amount, 10)
	if !ok {
		ctx.WithField("amount", resp.Amount).Error("invalid minted amount")
		return nil, ErrBadAmount
	}
	return minted, nil
}

func (c *client) RemoveLiquidity(ctx bCtx.Ctx, account, tokenOut domain.Address, lpAmount, minOut *big.Int, receiver domain.Address) (*big.Int, error) {
	req := &removeLiquidityReq{
		Account:  string(account),
		TokenOut: string(tokenOut),
		LpAmount: lpAmount.String(),
		MinOut:   minOut.String(),
		Receiver: string(receiver),
	}
	data, err := c.post(ctx, fmt.Sprintf("%s/liquidity/remove", c.url), req)
	if err != nil {
		return nil, err
	}
	resp := &liquidityResp{}
	if err := json.Unmarshal(data, resp); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return nil, err
	}
	out, ok := new(big.Int).SetString(resp.Amount, 10)
	if !ok {
		ctx.WithField("amount", resp.Amount).Error("invalid redeemed amount")
		return nil, ErrBadAmount
	}
	return out, nil
}

func (c *client) GetAum(ctx bCtx.Ctx) (decimal.Decimal, error) {
	var aum decimal.Decimal
	if err := c.cache.GetByFunc(ctx, "aum", &aum, func() (interface{}, error) {
		if res, err := c.getAum(ctx); err != nil {
			return &decimal.Zero, err
		} else {
			return res, nil
		}
	}); err != nil {
		return decimal.Zero, err
	}
	return aum, nil
}

func (c *client) getAum(ctx bCtx.Ctx) (*decimal.Decimal, error) {
	data, err := c.get(ctx, fmt.Sprintf("%s/aum", c.url))
	if err != nil {
		return &decimal.Zero, err
	}
	resp := &aumResp{}
	if err := json.Unmarshal(data, resp); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return &decimal.Zero, err
	}
	return &resp.Aum, nil
}

func (c *client) get(ctx bCtx.Ctx, url string) ([]byte, error) {
	ctx, cancel := bCtx.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("NewRequestWithContext failed")
		return nil, err
	}
	return c.do(ctx, req)
}

func (c *client) post(ctx bCtx.Ctx, url string, body interface{}) ([]byte, error) {
	ctx, cancel := bCtx.WithTimeout(ctx, c.timeout)
	defer cancel()
	payload, err := json.Marshal(body)
	if err != nil {
		ctx.WithField("err", err).Error("json.Marshal failed")
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("NewRequestWithContext failed")
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, req)
}

func (c *client) do(ctx bCtx.Ctx, req *http.Request) ([]byte, error) {
	if c.apikey != "" {
		req.Header.Set("X-API-KEY", c.apikey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": req.URL.String(),
			"err": err,
		}).Error("client.Do failed")
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		ctx.WithFields(log.Fields{
			"url":        req.URL.String(),
			"statusCode": resp.StatusCode,
		}).Error("resp.StatusCode != 200")
		return nil, ErrStatusCodeNotOk
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": req.URL.String(),
			"err": err,
		}).Error("failed to read body")
		return nil, err
	}
	return body, nil
}
