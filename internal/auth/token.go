package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aijoy/joyapi/internal/model"
)

// Claims はアクセストークンに埋め込むユーザー識別情報。
type Claims struct {
	UserID string
	Email  string
}

// TokenIssuer はHS256署名のアクセストークンを発行・検証する。
// 署名鍵は起動時に1回注入し、以後イミュータブルとして扱う。
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time // テストで差し替え可能
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(secret string, expiry time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// Issue はユーザーIDとemailを埋め込んだ署名付きトークンを発行する。
// 有効期間は固定で、2番目の戻り値として秒数を返す。
func (i *TokenIssuer) Issue(userID, email string) (string, int, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"id":    userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(i.expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, int(i.expiry.Seconds()), nil
}

// Verify はトークンを検証し、埋め込まれたClaimsを返す。
// 署名不正・構造不正・期限切れ・署名アルゴリズム不一致はすべて
// model.ErrInvalidTokenとして返す。
func (i *TokenIssuer) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr,
		func(t *jwt.Token) (interface{}, error) {
			return i.secret, nil
		},
		// HS256以外の署名アルゴリズムを拒否する（algorithm confusion対策）
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidToken, err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", model.ErrInvalidToken)
	}

	userID, ok := mapClaims["id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: missing id claim", model.ErrInvalidToken)
	}
	email, ok := mapClaims["email"].(string)
	if !ok || email == "" {
		return nil, fmt.Errorf("%w: missing email claim", model.ErrInvalidToken)
	}

	return &Claims{UserID: userID, Email: email}, nil
}
