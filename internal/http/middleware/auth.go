package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/schoolbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

// Capabilities a route can require.
const (
	CapRunSnapshots   = "mastery:run"
	CapSubmitSnapshot = "mastery:submit"
	CapReviewSnapshot = "mastery:review"
	CapReadMastery    = "mastery:read"
)

var roleCapabilities = map[string][]string{
	"teacher":  {CapRunSnapshots, CapSubmitSnapshot, CapReadMastery},
	"reviewer": {CapReviewSnapshot, CapReadMastery},
	"admin":    {CapRunSnapshots, CapSubmitSnapshot, CapReviewSnapshot, CapReadMastery},
}

// Claims are the bearer-token claims issued by the identity service.
type Claims struct {
	jwt.RegisteredClaims
	OrganizationID string   `json:"org_id"`
	SchoolID       string   `json:"school_id,omitempty"`
	Roles          []string `json:"roles,omitempty"`
}

type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
	parser *jwt.Parser
}

func NewAuthMiddleware(log *logger.Logger, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		log:    log.With("middleware", "AuthMiddleware"),
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		rd, err := am.requestData(tokenString)
		if err != nil {
			am.log.Debug("rejected bearer token", "error", err)
			abort(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

func (am *AuthMiddleware) requestData(tokenString string) (*ctxutil.RequestData, error) {
	claims := &Claims{}
	tok, err := am.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return am.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("token is not valid")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.New("subject is not a user id")
	}
	orgID, err := uuid.Parse(claims.OrganizationID)
	if err != nil {
		return nil, errors.New("org_id claim is not a uuid")
	}
	rd := &ctxutil.RequestData{UserID: userID, OrganizationID: orgID, Roles: claims.Roles}
	if claims.SchoolID != "" {
		schoolID, err := uuid.Parse(claims.SchoolID)
		if err != nil {
			return nil, errors.New("school_id claim is not a uuid")
		}
		rd.SchoolID = &schoolID
	}
	return rd, nil
}

// RequireCapability lets the request through only when one of the caller's
// roles grants capability. It must run after RequireAuth.
func RequireCapability(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserID == uuid.Nil {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		if !HasCapability(rd.Roles, capability) {
			abort(c, http.StatusForbidden, "forbidden", "missing capability "+capability)
			return
		}
		c.Next()
	}
}

func HasCapability(roles []string, capability string) bool {
	for _, role := range roles {
		for _, granted := range roleCapabilities[strings.ToLower(strings.TrimSpace(role))] {
			if granted == capability {
				return true
			}
		}
	}
	return false
}

// SignToken issues an HS256 token for the given caller.
func SignToken(secret string, userID, orgID uuid.UUID, schoolID *uuid.UUID, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		OrganizationID: orgID.String(),
		Roles:          roles,
	}
	if schoolID != nil {
		claims.SchoolID = schoolID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"message": message, "code": code},
	})
}
