package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/log"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/distributor"
	"github.com/sgx-protocol/goapi/service/query"
)

type distributorRepoImpl struct {
	q query.Mongo
}

func NewDistributorRepo(q query.Mongo) distributor.Repo {
	return &distributorRepoImpl{q: q}
}

func (r *distributorRepoImpl) Get(ctx bCtx.Ctx, address domain.Address) (*distributor.Ledger, error) {
	ledger := &distributor.Ledger{}
	qry := bson.M{"address": address.ToLower()}
	if err := r.q.FindOne(ctx, domain.TableDistributors, qry, ledger); err == query.ErrNotFound {
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

func (r *distributorRepoImpl) Upsert(ctx bCtx.Ctx, l *distributor.Ledger) error {
	selector := bson.M{"address": l.Address.ToLower()}
	if err := r.q.Upsert(ctx, domain.TableDistributors, selector, l); err != nil {
		ctx.WithFields(log.Fields{
			"address": l.Address,
			"err":     err,
		}).Error("q.Upsert failed")
		return err
	}
	return nil
}
