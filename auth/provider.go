package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	UserContextKey  = "userID"
	tokenContextKey = "authToken"

	revokedKeyPrefix = "auth:revoked:"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token revoked")
)

// Claims is the subset of the access token the service relies on.
type Claims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
	raw       string
}

// Provider answers "who is signed in" for a request and handles sign-out.
// Tokens are issued upstream by the auth service after phone or Google sign-in.
type Provider struct {
	secret       []byte
	redis        *redis.Client
	trustGateway bool
	now          func() time.Time
}

func NewProvider(secret string, rdb *redis.Client, trustGateway bool) *Provider {
	return &Provider{
		secret:       []byte(secret),
		redis:        rdb,
		trustGateway: trustGateway,
		now:          time.Now,
	}
}

// GenerateToken signs an HS256 access token for userID. Used by tooling and tests.
func GenerateToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"jti":     fmt.Sprintf("%s-%d", userID, now.UnixNano()),
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates signature, expiry and revocation.
func (p *Provider) ParseToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	claims := &Claims{raw: tokenString}
	if v, ok := mapClaims["user_id"].(string); ok && v != "" {
		claims.UserID = v
	} else if v, ok := mapClaims["sub"].(string); ok {
		claims.UserID = v
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if v, ok := mapClaims["jti"].(string); ok {
		claims.TokenID = v
	}
	if exp, ok := mapClaims["exp"].(float64); ok {
		claims.ExpiresAt = time.Unix(int64(exp), 0)
	}

	revoked, err := p.isRevoked(ctx, claims)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// SignOut revokes the token until it would have expired anyway.
func (p *Provider) SignOut(ctx context.Context, claims *Claims) error {
	if claims == nil {
		return ErrMissingToken
	}
	ttl := claims.ExpiresAt.Sub(p.now())
	if claims.ExpiresAt.IsZero() {
		ttl = 24 * time.Hour
	}
	if ttl <= 0 {
		return nil
	}
	if err := p.redis.Set(ctx, revocationKey(claims), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	zap.L().Info("Signed out", zap.String("user_id", claims.UserID))
	return nil
}

func (p *Provider) isRevoked(ctx context.Context, claims *Claims) (bool, error) {
	n, err := p.redis.Exists(ctx, revocationKey(claims)).Result()
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return n > 0, nil
}

func revocationKey(claims *Claims) string {
	if claims.TokenID != "" {
		return revokedKeyPrefix + claims.TokenID
	}
	sum := sha256.Sum256([]byte(claims.raw))
	return revokedKeyPrefix + hex.EncodeToString(sum[:])
}

// Middleware authenticates the request and stores the user id under UserContextKey.
func (p *Provider) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p.trustGateway {
			if userID := c.GetHeader("X-User-ID"); userID != "" {
				c.Set(UserContextKey, userID)
				c.Next()
				return
			}
		}

		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
			return
		}

		claims, err := p.ParseToken(c.Request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrRevokedToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				return
			}
			zap.L().Error("Token check failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Authentication unavailable"})
			return
		}

		c.Set(UserContextKey, claims.UserID)
		c.Set(tokenContextKey, claims)
		c.Next()
	}
}

// CurrentUserID returns the signed-in user, if any.
func CurrentUserID(c *gin.Context) (string, bool) {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id, true
		}
	}
	return "", false
}

// CurrentClaims returns the parsed token for bearer-authenticated requests.
func CurrentClaims(c *gin.Context) (*Claims, bool) {
	if val, ok := c.Get(tokenContextKey); ok {
		claims, ok := val.(*Claims)
		return claims, ok
	}
	return nil, false
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		if v, err := c.Cookie("access_token"); err == nil {
			return v
		}
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
