package api

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"cra-manager/internal/config"
	"cra-manager/internal/models"
)

const (
	actorKey = "actor"

	signatureAudience = "cra-signature"
	signatureLinkTTL  = 7 * 24 * time.Hour
)

// Claims - полезная нагрузка токена: sub - ID профиля, role - роль
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SignatureClaims - токен ссылки на подпись: sub - консультант, cra_id - отчет
type SignatureClaims struct {
	ReportID string `json:"cra_id"`
	jwt.RegisteredClaims
}

// Authenticator проверяет HS256-токены из заголовка Authorization
// и подписывает ссылки на подпись отчетов
type Authenticator struct {
	secret  []byte
	baseURL string
}

func NewAuthenticator(cfg *config.Config) *Authenticator {
	return &Authenticator{secret: []byte(cfg.JWTSecret), baseURL: cfg.AppBaseURL}
}

func (a *Authenticator) key(*jwt.Token) (any, error) {
	return a.secret, nil
}

// Require - middleware, кладущий models.Actor в контекст запроса
func (a *Authenticator) Require() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return models.Unauthorizedf("authorization header required")
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			return models.Unauthorizedf("invalid authorization header format")
		}

		actor, err := a.Parse(tokenString)
		if err != nil {
			return err
		}

		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// Parse проверяет подпись и срок действия токена и возвращает пользователя
func (a *Authenticator) Parse(tokenString string) (models.Actor, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, a.key, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Actor{}, models.Unauthorizedf("invalid token")
	}
	// токен ссылки на подпись не дает доступа к API
	if len(claims.Audience) > 0 {
		return models.Actor{}, models.Unauthorizedf("token is not an access token")
	}

	if claims.Subject == "" {
		return models.Actor{}, models.Unauthorizedf("token has no subject")
	}
	role, err := models.NormalizeRole(claims.Role)
	if err != nil {
		return models.Actor{}, models.Unauthorizedf("token has unknown role %q", claims.Role)
	}

	return models.Actor{ID: claims.Subject, Role: role}, nil
}

// Issue подписывает токен для профиля
func (a *Authenticator) Issue(actor models.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "cra-manager",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// SignatureLink возвращает ссылку, по которой консультант открывает отчет на подпись
func (a *Authenticator) SignatureLink(consultantID, reportID string) (string, error) {
	now := time.Now()
	claims := SignatureClaims{
		ReportID: reportID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   consultantID,
			Audience:  jwt.ClaimStrings{signatureAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(signatureLinkTTL)),
			Issuer:    "cra-manager",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign signature link: %w", err)
	}

	query := url.Values{"craId": {reportID}, "token": {token}}
	return a.baseURL + "/cra/sign?" + query.Encode(), nil
}

// ParseSignatureToken проверяет токен ссылки на подпись
func (a *Authenticator) ParseSignatureToken(tokenString string) (consultantID, reportID string, err error) {
	claims := &SignatureClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, a.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(signatureAudience),
	)
	if err != nil {
		return "", "", models.Unauthorizedf("invalid signature link")
	}
	if claims.Subject == "" || claims.ReportID == "" {
		return "", "", models.Unauthorizedf("signature link has no report")
	}
	return claims.Subject, claims.ReportID, nil
}

func actorFrom(c *fiber.Ctx) models.Actor {
	actor, _ := c.Locals(actorKey).(models.Actor)
	return actor
}
