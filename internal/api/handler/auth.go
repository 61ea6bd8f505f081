package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// generateJWT issues a short-lived token carrying the agent's client id.
func (h *Handler) generateJWT(agentID string) (string, error) {
	claims := jwt.MapClaims{
		"agent_id": agentID,
		"exp":      time.Now().Add(time.Hour * 12).Unix(),
		"iss":      "crmconsole-service",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

// validateAndGetAgentID checks a bearer token and extracts the agent id.
func (h *Handler) validateAndGetAgentID(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}
	agentID, _ := claims["agent_id"].(string)
	if agentID == "" {
		return "", fmt.Errorf("missing agent_id claim")
	}
	return agentID, nil
}

// GetAgentToken issues a fresh agent identity and its JWT. The console uses
// one identity per browser tab; the engine keys open sessions by it.
func (h *Handler) GetAgentToken(c *gin.Context) {
	agentID := uuid.New().String()

	token, err := h.generateJWT(agentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "agent_id": agentID})
}

// RequireAgent is the gin middleware guarding the console endpoints.
func (h *Handler) RequireAgent(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
		return
	}
	agentID, err := h.validateAndGetAgentID(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
		return
	}
	c.Set("agent_id", agentID)
	c.Next()
}
