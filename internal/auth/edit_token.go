package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken 表示令牌无法通过校验。
var ErrInvalidToken = errors.New("invalid edit token")

// EditClaims 授权持有者编辑一份简历。
type EditClaims struct {
	ResumeID uint `json:"resume_id"`
	jwt.RegisteredClaims
}

// TokenService 签发与校验编辑令牌（HS256）。
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService 构造服务实例，secret 至少 32 字节。
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 32 {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue 为简历签发新令牌，返回令牌及其 ID（用于吊销旧令牌）。
func (s *TokenService) Issue(resumeID uint) (token, tokenID string, err error) {
	now := s.now()
	tokenID = uuid.NewString()
	claims := EditClaims{
		ResumeID: resumeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(resumeID), 10),
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	return signed, tokenID, nil
}

// Validate 解析并验证令牌。
func (s *TokenService) Validate(tokenString string) (*EditClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &EditClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*EditClaims)
	if !ok || !token.Valid || claims.ResumeID == 0 || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TTL 暴露令牌有效期。
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
