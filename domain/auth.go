package domain

import (
	"github.com/golang-jwt/jwt"
	"github.com/sgx-protocol/goapi/base/ctx"
)

type JwtCustomClaims struct {
	Address string `json:"data"`
	jwt.StandardClaims
}

// AuthUsecase issues access tokens for wallet addresses. A caller first
// fetches a nonce, signs the templated message containing it, and exchanges
// the signature for a jwt.
type AuthUsecase interface {
	GenerateNonce(ctx ctx.Ctx, address Address) (string, error)
	SignToken(ctx ctx.Ctx, address Address, signature string) (string, error)
	ParseToken(ctx ctx.Ctx, token string) (address string, err error)
}
