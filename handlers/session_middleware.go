package handlers

import (
	"net/http"
	"strings"
	"time"

	"gift_with_purchase/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type CustomerClaims struct {
	CustomerID int64  `json:"customer_id,omitempty"`
	Role       string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken 簽發 token；管理者 token 可以不帶顧客編號
func GenerateToken(secret []byte, customerID int64, role string, ttl time.Duration) (string, error) {
	claims := &CustomerClaims{
		CustomerID: customerID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "gift-with-purchase",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// SessionMiddleware 所有 HTTP 請求都視為前台互動；token 缺少或無效時為匿名顧客
func SessionMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := services.Session{Interactive: true}
		if claims := tryParseClaims(c.GetHeader("Authorization"), secret); claims != nil {
			if claims.CustomerID != 0 {
				id := claims.CustomerID
				session.CustomerID = &id
			}
			session.Role = claims.Role
		}
		ctx := services.WithSession(c.Request.Context(), session)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func tryParseClaims(header string, secret []byte) *CustomerClaims {
	parts := strings.Fields(header)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil
	}
	token, err := jwt.ParseWithClaims(parts[1], &CustomerClaims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(*CustomerClaims)
	if !ok || (claims.CustomerID == 0 && claims.Role == "") {
		return nil
	}
	return claims
}

// RequireAdmin 須放在 SessionMiddleware 之後
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _ := services.SessionFromContext(c.Request.Context())
		if !session.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !session.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}
