// Package jwt 签发与解析访问令牌
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer             = "terrasapp"
	accessTokenSubject = "access_token"
)

// ErrWrongTokenType 令牌类型不是 access_token
var ErrWrongTokenType = errors.New("token is not an access token")

// JWTConfig JWT 配置
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// 全局配置，由 Init 初始化
var jwtConfig *JWTConfig

// Init 初始化 JWT 配置
// accessExpiryMinutes <= 0 时使用 24 小时
func Init(secret string, accessExpiryMinutes int) {
	expiry := time.Duration(accessExpiryMinutes) * time.Minute
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	jwtConfig = &JWTConfig{
		Secret:            secret,
		AccessTokenExpiry: expiry,
	}
}

// Claims 自定义 JWT 声明
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateAccessToken 为用户签发访问令牌
func GenerateAccessToken(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtConfig.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   accessTokenSubject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtConfig.Secret))
}

// ParseToken 解析并校验令牌签名、有效期与算法
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtConfig.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// ParseAccessToken 解析令牌并要求其为 access_token
func ParseAccessToken(tokenString string) (*Claims, error) {
	claims, err := ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Subject != accessTokenSubject || claims.UserID == "" {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
