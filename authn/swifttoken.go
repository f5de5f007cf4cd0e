// swifttoken.go issues and verifies the JWT-signed tokens the Swift
// dialect's /auth/ sub-dialect hands out, consumed by the Swift object
// dialect's authorize() via X-Auth-Token.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package authn

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// swiftClaims is the JWT payload for a Swift auth token.
type swiftClaims struct {
	Account string `json:"account"`
	User    string `json:"user"`
	jwt.RegisteredClaims
}

// TokenIssuer issues and verifies Swift auth tokens signed with a shared
// HMAC key (config.Config.JWTSigningKey).
type TokenIssuer struct {
	key []byte
	ttl time.Duration
}

func NewTokenIssuer(key []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: key, ttl: ttl}
}

// Issue mints a signed token for account/user.
func (t *TokenIssuer) Issue(account, user string) (string, error) {
	claims := swiftClaims{
		Account: account,
		User:    user,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.key)
}

// Verify parses and validates a token string, returning the account/user
// it was issued for.
func (t *TokenIssuer) Verify(tokenStr string) (account, user string, err error) {
	claims := &swiftClaims{}
	_, err = jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return t.key, nil
	})
	if err != nil {
		return "", "", err
	}
	return claims.Account, claims.User, nil
}
