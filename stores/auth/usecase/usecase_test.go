package usecase_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/suite"

	bCtx "github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/keys"
	"github.com/sgx-protocol/goapi/service/redis"
	"github.com/sgx-protocol/goapi/stores/auth/usecase"
)

const signatureMsg = "Welcome to SGX Earn!\n\nSigning nonce: %s"

type fakeRedis struct {
	values map[string][]byte
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string][]byte{}}
}

func (r *fakeRedis) Get(c bCtx.Ctx, key string) ([]byte, error) {
	v, ok := r.values[key]
	if !ok {
		return nil, redis.ErrNotFound
	}
	return v, nil
}

func (r *fakeRedis) MGet(c bCtx.Ctx, ks []string) ([]redis.MVal, error) {
	res := make([]redis.MVal, len(ks))
	for i, k := range ks {
		v, ok := r.values[k]
		res[i] = redis.MVal{Valid: ok, Value: v}
	}
	return res, nil
}

func (r *fakeRedis) Set(c bCtx.Ctx, key string, val []byte, expire time.Duration) error {
	r.values[key] = val
	return nil
}

func (r *fakeRedis) SetNX(c bCtx.Ctx, key string, val []byte, expire time.Duration) error {
	if _, ok := r.values[key]; !ok {
		r.values[key] = val
	}
	return nil
}

func (r *fakeRedis) Del(c bCtx.Ctx, ks ...string) (int, error) {
	n := 0
	for _, k := range ks {
		if _, ok := r.values[k]; ok {
			delete(r.values, k)
			n++
		}
	}
	return n, nil
}

func (r *fakeRedis) Incrby(c bCtx.Ctx, key string, val int) (int64, error) { return 0, nil }

func (r *fakeRedis) Expire(c bCtx.Ctx, key string, ttl time.Duration) error { return nil }

func (r *fakeRedis) TTL(c bCtx.Ctx, key string) (int, error) { return 0, redis.ErrNoTTL }

func (r *fakeRedis) Exists(c bCtx.Ctx, key string) (bool, error) {
	_, ok := r.values[key]
	return ok, nil
}

type authSuite struct {
	suite.Suite

	ctx   bCtx.Ctx
	redis *fakeRedis
	auth  domain.AuthUsecase
}

func (ts *authSuite) SetupTest() {
	ts.ctx = bCtx.Background()
	ts.redis = newFakeRedis()
	ts.auth = usecase.New("jwt-secret", signatureMsg, ts.redis)
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(authSuite))
}

func (ts *authSuite) signNonce(nonce string) (domain.Address, string) {
	key, err := crypto.GenerateKey()
	ts.Require().NoError(err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	msg := []byte(fmt.Sprintf(signatureMsg, nonce))
	sig, err := crypto.Sign(accounts.TextHash(msg), key)
	ts.Require().NoError(err)
	sig[crypto.RecoveryIDOffset] += 27
	return domain.Address(address), hexutil.Encode(sig)
}

func (ts *authSuite) TestSignAndParseToken() {
	nonce, err := ts.auth.GenerateNonce(ts.ctx, "0xabc")
	ts.Require().NoError(err)
	ts.NotEmpty(nonce)

	address, signature := ts.signNonce(nonce)
	// the nonce is stored per address
	ts.redis.values[keys.RedisKey(keys.PfxNonce, address.ToLowerStr())] = []byte(nonce)

	token, err := ts.auth.SignToken(ts.ctx, address, signature)
	ts.Require().NoError(err)
	ts.NotEmpty(token)

	parsed, err := ts.auth.ParseToken(ts.ctx, token)
	ts.Require().NoError(err)
	ts.Equal(address.ToLowerStr(), parsed)
}

func (ts *authSuite) TestSignTokenWrongSigner() {
	address, _ := ts.signNonce("some-nonce")
	nonce, err := ts.auth.GenerateNonce(ts.ctx, address)
	ts.Require().NoError(err)

	// signed by a different key
	_, signature := ts.signNonce(nonce)
	_, err = ts.auth.SignToken(ts.ctx, address, signature)
	ts.ErrorIs(err, domain.ErrInvalidSignature)
}

func (ts *authSuite) TestNonceIsSingleUse() {
	nonce, err := ts.auth.GenerateNonce(ts.ctx, "0xabc")
	ts.Require().NoError(err)
	address, signature := ts.signNonce(nonce)
	ts.redis.values[keys.RedisKey(keys.PfxNonce, address.ToLowerStr())] = []byte(nonce)

	_, err = ts.auth.SignToken(ts.ctx, address, signature)
	ts.Require().NoError(err)

	_, err = ts.auth.SignToken(ts.ctx, address, signature)
	ts.ErrorIs(err, domain.ErrInvalidSignature)
}

func (ts *authSuite) TestSignTokenWithoutNonce() {
	address, signature := ts.signNonce("never-stored")
	_, err := ts.auth.SignToken(ts.ctx, address, signature)
	ts.ErrorIs(err, domain.ErrInvalidSignature)
}

func (ts *authSuite) TestParseTokenRejectsGarbage() {
	_, err := ts.auth.ParseToken(ts.ctx, "not-a-jwt")
	ts.Error(err)
}
