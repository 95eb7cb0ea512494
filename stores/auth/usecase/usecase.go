package usecase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"github.com/sgx-protocol/goapi/base/ctx"
	"github.com/sgx-protocol/goapi/base/ethereum"
	"github.com/sgx-protocol/goapi/domain"
	"github.com/sgx-protocol/goapi/domain/keys"
	"github.com/sgx-protocol/goapi/service/redis"
)

const nonceTtl = 10 * time.Minute

type impl struct {
	jwtSecret    []byte
	signatureMsg string
	redis        redis.Service
}

func New(jwtSecret, signatureMsg string, redis redis.Service) domain.AuthUsecase {
	return &impl{
		jwtSecret:    []byte(jwtSecret),
		signatureMsg: signatureMsg,
		redis:        redis,
	}
}

func (im *impl) GenerateNonce(c ctx.Ctx, address domain.Address) (string, error) {
	nonce := uuid.NewString()
	key := keys.RedisKey(keys.PfxNonce, address.ToLowerStr())
	if err := im.redis.Set(c, key, []byte(nonce), nonceTtl); err != nil {
		c.WithField("err", err).Error("redis.Set failed")
		return "", err
	}
	return nonce, nil
}

func (im *impl) makeMessageWithNonce(nonce string) []byte {
	return []byte(fmt.Sprintf(im.signatureMsg, nonce))
}

func (im *impl) SignToken(c ctx.Ctx, address domain.Address, signature string) (string, error) {
	key := keys.RedisKey(keys.PfxNonce, address.ToLowerStr())
	nonce, err := im.redis.Get(c, key)
	if err == redis.ErrNotFound {
		return "", domain.ErrInvalidSignature
	} else if err != nil {
		c.WithField("err", err).Error("redis.Get failed")
		return "", err
	}

	// a nonce authorizes exactly one signing attempt
	defer im.redis.Del(c, key)

	msg := im.makeMessageWithNonce(string(nonce))
	if isValid, err := ethereum.ValidateMsgSignature(msg, signature, string(address)); err != nil {
		c.WithField("err", err).Error("ValidateMsgSignature failed")
		return "", err
	} else if !isValid {
		return "", domain.ErrInvalidSignature
	}

	claims := domain.JwtCustomClaims{
		Address: address.ToLowerStr(),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	if ss, err := token.SignedString(im.jwtSecret); err != nil {
		c.WithField("err", err).Error("token.SignedString failed")
		return "", err
	} else {
		return ss, nil
	}
}

func (im *impl) ParseToken(c ctx.Ctx, str string) (string, error) {
	token, err := jwt.ParseWithClaims(str, &domain.JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("Unexpected signing method: %v", token.Header["alg"])
		}
		return im.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(*domain.JwtCustomClaims); ok && token.Valid {
		return claims.Address, nil
	}

	return "", err
}
