package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/log"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/vester"
	"github.com/sgx-protocol/goapi/service/query"
)

type vesterRepoImpl struct {
	q query.Mongo
}

func NewVesterRepo(q query.Mongo) vester.Repo {
	return &vesterRepoImpl{q: q}
}

func (r *vesterRepoImpl) GetLedger(ctx bCtx.Ctx, address domain.Address) (*vester.Ledger, error) {
	ledger := &vester.Ledger{}
	qry := bson.M{"address": address.ToLower()}
	if err := r.q.FindOne(ctx, domain.TableVesters, qry, ledger); err == query.ErrNotFound {
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

func (r *vesterRepoImpl) UpsertLedger(ctx bCtx.Ctx, l *vester.Ledger) error {
	selector := bson.M{"address": l.Address.ToLower()}
	if err := r.q.Upsert(ctx, domain.TableVesters, selector, l); err != nil {
		ctx.WithFields(log.Fields{
			"address": l.Address,
			"err":     err,
		}).Error("q.Upsert failed")
		return err
	}
	return nil
}

func (r *vesterRepoImpl) ListAccounts(ctx bCtx.Ctx, vesterAddr domain.Address) ([]vester.Account, error) {
	accounts := []vester.Account{}
	qry := bson.M{"vester": vesterAddr.ToLower()}
	if err := r.q.Search(ctx, domain.TableVesterAccounts, 0, 0, "account", qry, &accounts); err != nil {
		ctx.WithFields(log.Fields{
			"vester": vesterAddr,
			"err":    err,
		}).Error("q.Search failed")
		return nil, err
	}
	return accounts, nil
}

func (r *vesterRepoImpl) UpsertAccount(ctx bCtx.Ctx, a *vester.Account) error {
	selector := bson.M{"vester": a.Vester.ToLower(), "account": a.Account.ToLower()}
	if err := r.q.Upsert(ctx, domain.TableVesterAccounts, selector, a); err != nil {
		ctx.WithFields(log.Fields{
			"vester":  a.Vester,
			"account": a.Account,
			"err":     err,
		}).Error("q.Upsert failed")
		return err
	}
	return nil
}
