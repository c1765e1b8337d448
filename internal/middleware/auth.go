// Package middleware provides authentication, rate limiting, logging and
// tracing middleware for the application.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"roommatch/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenIssuer   = "roommatch-api"
	TokenAudience = "roommatch-client"
)

// Auth failure messages surfaced to clients.
const (
	MsgTokenRequired = "Access token required"
	MsgTokenInvalid  = "Invalid or expired token"
)

// Claims is the JWT payload issued at login and registration.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid subject %q", c.Subject)
	}
	return uint(id), nil
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager returns a TokenManager for the given secret and lifetime.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a signed token for the user.
func (m *TokenManager) Issue(userID uint, email string) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateJTI(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies signature, algorithm, issuer, audience and time claims.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}

func generateJTI(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8])
}

// AuthOptions wires the optional checks AuthRequired performs after the signature.
type AuthOptions struct {
	Tokens *TokenManager
	// IsRevoked reports whether a token id was logged out. Nil skips the check.
	IsRevoked func(ctx context.Context, jti string) (bool, error)
	// UserExists rejects tokens for deleted accounts. Nil skips the check.
	UserExists func(ctx context.Context, userID uint) (bool, error)
	// AllowQueryToken accepts ?token= for WebSocket upgrades.
	AllowQueryToken bool
}

// AuthRequired enforces a valid bearer token and stores the caller in
// c.Locals("userID") and c.Locals("claims").
func AuthRequired(opts AuthOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c.Get("Authorization"))
		if tokenString == "" && opts.AllowQueryToken {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(MsgTokenRequired), false)
		}

		claims, err := opts.Tokens.Parse(tokenString)
		if err != nil {
			return rejectToken(c)
		}
		userID, _ := claims.UserID()
		ctx := c.UserContext()

		if opts.IsRevoked != nil {
			revoked, err := opts.IsRevoked(ctx, claims.ID)
			if err != nil {
				// Redis trouble must not lock everyone out.
				Logger.WarnContext(ctx, "token revocation check failed", "error", err)
			} else if revoked {
				return rejectToken(c)
			}
		}

		if opts.UserExists != nil {
			exists, err := opts.UserExists(ctx, userID)
			if err != nil {
				return models.RespondWithError(c, fiber.StatusInternalServerError,
					models.NewInternalError(err), false)
			}
			if !exists {
				return rejectToken(c)
			}
		}

		c.Locals("userID", userID)
		c.Locals("claims", claims)
		c.SetUserContext(context.WithValue(ctx, UserIDKey, userID))
		return c.Next()
	}
}

func rejectToken(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusForbidden,
		models.NewForbiddenError(MsgTokenInvalid), false)
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// CurrentUserID returns the authenticated user id set by AuthRequired.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok && id != 0
}

// CurrentClaims returns the verified claims set by AuthRequired.
func CurrentClaims(c *fiber.Ctx) (*Claims, bool) {
	claims, ok := c.Locals("claims").(*Claims)
	return claims, ok
}
