package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/log"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/token"
	"github.com/sgx-protocol/goapi/service/query"
)

type tokenRepoImpl struct {
	q query.Mongo
}

func NewTokenRepo(q query.Mongo) token.Repo {
	return &tokenRepoImpl{q: q}
}

func (r *tokenRepoImpl) GetLedger(ctx bCtx.Ctx, address domain.Address) (*token.Ledger, error) {
	ledger := &token.Ledger{}
	qry := bson.M{"address": address.ToLower()}
	if err := r.q.FindOne(ctx, domain.TableTokens, qry, ledger); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"address": address,
			"err":     err,
		}).Error("q.FindOne failed")
		return nil, err
	}
	return ledger, nil
}

func (r *tokenRepoImpl) UpsertLedger(ctx bCtx.Ctx, l *token.Ledger) error {
	selector := bson.M{"address": l.Address.ToLower()}
	if err := r.q.Upsert(ctx, domain.TableTokens, selector, l); err != nil {
		ctx.WithFields(log.Fields{
			"address": l.Address,
			"err":     err,
		}).Error("q.Upsert failed")
		return err
	}
	return nil
}

func (r *tokenRepoImpl) ListBalances(ctx bCtx.Ctx, tokenAddr domain.Address) ([]token.Balance, error) {
	balances := []token.Balance{}
	qry := bson.M{"token": tokenAddr.ToLower()}
	if err := r.q.Search(ctx, domain.TableTokenBalances, 0, 0, "account", qry, &balances); err != nil {
		ctx.WithFields(log.Fields{
			"token": tokenAddr,
			"err":   err,
		}).Error("q.Search failed")
		return nil, err
	}
	return balances, nil
}

func (r *tokenRepoImpl) UpsertBalance(ctx bCtx.Ctx, b *token.Balance) error {
	selector := bson.M{"token": b.Token.ToLower(), "account": b.Account.ToLower()}
	if err := r.q.Upsert(ctx, domain.TableTokenBalances, selector, b); err != nil {
		ctx.WithFields(log.Fields{
			"token":   b.Token,
			"account": b.Account,
			"err":     err,
		}).Error("q.Upsert failed")
		return err
	}
	return nil
}

func (r *tokenRepoImpl) ListAllowances(ctx bCtx.Ctx, tokenAddr domain.Address) ([]token.Allowance, error) {
	allowances := []token.Allowance{}
	qry := bson.M{"token": tokenAddr.ToLower()}
	if err := r.q.Search(ctx, domain.TableTokenAllowances, 0, 0, "owner", qry, &allowances); err != nil {
		ctx.WithFields(log.Fields{
			"token": tokenAddr,
			"err":   err,
		}).Error("q.Search failed")
		return nil, err
	}
	return allowances, nil
}

func (r *tokenRepoImpl) UpsertAllowance(ctx bCtx.Ctx, a *token.Allowance) error {
	selector := bson.M{"token": a.Token.ToLower(), "owner": a.Owner.ToLower(), "spender": a.Spender.ToLower()}
	if err := r.q.Upsert(ctx, domain.TableTokenAllowances, selector, a); err != nil {
		ctx.WithFields(log.Fields{
			"token":   a.Token,
			"owner":   a.Owner,
			"spender": a.Spender,
			"err":     err,
		}).Error("q.Upsert failed")
		return err
	}
	return nil
}
