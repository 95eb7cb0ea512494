package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/log"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/tracker"
	"github.com/sgx-protocol/goapi/service/query"
)

type trackerRepoImpl struct {
	q query.Mongo
}

func NewTrackerRepo(q query.Mongo) tracker.Repo {
	return &trackerRepoImpl{q: q}
}

func (r *trackerRepoImpl) GetLedger(ctx bCtx.Ctx, address domain.Address) (*tracker.Ledger, error) {
	ledger := &tracker.Ledger{}
	qry := bson.M{"address": address.ToLower()}
	if err := r.q.FindOne(ctx, domain.TableTrackers, qry, ledger); err == query.ErrNotFound {
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

func (r *trackerRepoImpl) UpsertLedger(ctx bCtx.Ctx, l *tracker.Ledger) error {
	selector := bson.M{"address": l.Address.ToLower()}
	if err := r.q.Upsert(ctx, domain.TableTrackers, selector, l); err != nil {
		ctx.WithFields(log.Fields{
			"address": l.Address,
			"err":     err,
		}).Error("q.Upsert failed")
		return err
	}
	return nil
}

func (r *trackerRepoImpl) ListAccounts(ctx bCtx.Ctx, trackerAddr domain.Address) ([]tracker.Account, error) {
	accounts := []tracker.Account{}
	qry := bson.M{"tracker": trackerAddr.ToLower()}
	if err := r.q.Search(ctx, domain.TableTrackerAccounts, 0, 0, "account", qry, &accounts); err != nil {
		ctx.WithFields(log.Fields{
			"tracker": trackerAddr,
			"err":     err,
		}).Error("q.Search failed")
		return nil, err
	}
	return accounts, nil
}

func (r *trackerRepoImpl) UpsertAccount(ctx bCtx.Ctx, a *tracker.Account) error {
	selector := bson.M{"tracker": a.Tracker.ToLower(), "account": a.Account.ToLower()}
	if err := r.q.Upsert(ctx, domain.TableTrackerAccounts, selector, a); err != nil {
		ctx.WithFields(log.Fields{
			"tracker": a.Tracker,
			"account": a.Account,
			"err":     err,
		}).Error("q.Upsert failed")
		return err
	}
	return nil
}
