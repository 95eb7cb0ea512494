package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/log"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/router"
	"github.com/sgx-protocol/goapi/service/query"
)

type routerRepoImpl struct {
	q query.Mongo
}

func NewRouterRepo(q query.Mongo) router.Repo {
	return &routerRepoImpl{q: q}
}

func (r *routerRepoImpl) ListPendingTransfers(ctx bCtx.Ctx) ([]router.PendingTransfer, error) {
	transfers := []router.PendingTransfer{}
	if err := r.q.Search(ctx, domain.TablePendingTransfers, 0, 0, "sender", bson.M{}, &transfers); err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
		}).Error("q.Search failed")
		return nil, err
	}
	return transfers, nil
}

func (r *routerRepoImpl) UpsertPendingTransfer(ctx bCtx.Ctx, t *router.PendingTransfer) error {
	selector := bson.M{"sender": t.Sender.ToLower()}
	if err := r.q.Upsert(ctx, domain.TablePendingTransfers, selector, t); err != nil {
		ctx.WithFields(log.Fields{
			"sender":   t.Sender,
			"receiver": t.Receiver,
			"err":      err,
		}).Error("q.Upsert failed")
		return err
	}
	return nil
}

func (r *routerRepoImpl) DeletePendingTransfer(ctx bCtx.Ctx, sender domain.Address) error {
	selector := bson.M{"sender": sender.ToLower()}
	if err := r.q.Remove(ctx, domain.TablePendingTransfers, selector); err != nil && err != query.ErrNotFound {
		ctx.WithFields(log.Fields{
			"sender": sender,
			"err":    err,
		}).Error("q.Remove failed")
		return err
	}
	return nil
}
