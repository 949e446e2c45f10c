package services

import (
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
	"github.com/lozalien/FB-Counter/internal/infrastructure/security"
	"github.com/lozalien/FB-Counter/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

// AuthService validates collector credentials and issues JWTs for the
// ingest endpoint.
type AuthService struct {
	logger *logging.ChanneledLogger
}

// NewAuthService creates a new authentication service.
func NewAuthService(logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{logger: logger}
}

// AuthResult holds authentication result data.
type AuthResult struct {
	Token   string `json:"token"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Authenticate validates the admin password and generates a collector JWT.
// AdminPassword may be stored as a bcrypt hash or, during transition and
// testing, as plaintext.
func (a *AuthService) Authenticate(password string) *AuthResult {
	authorized := false

	if config.AdminPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(config.AdminPassword), []byte(password)); err == nil {
			authorized = true
		}
	}

	// Fallback for plaintext passwords during transition/testing
	if !authorized && config.AdminPassword != "" && password == config.AdminPassword {
		authorized = true
	}

	if !authorized {
		a.logger.Auth().Warn("Collector authentication failed")
		return &AuthResult{
			Success: false,
			Error:   "Invalid credentials",
		}
	}

	token, err := security.GenerateCollectorToken(config.JWTSecret, config.TokenLifetime)
	if err != nil {
		a.logger.Auth().Error("Token generation failed", "error", err)
		return &AuthResult{Success: false, Error: "Token generation failed"}
	}

	a.logger.Auth().Info("Collector authenticated", "lifetime", config.TokenLifetime)
	return &AuthResult{Token: token, Success: true}
}

// ValidateToken checks a bearer token issued by Authenticate.
func (a *AuthService) ValidateToken(tokenString string) bool {
	if tokenString == "" {
		return false
	}
	claims, err := security.ValidateJWT(tokenString, config.JWTSecret)
	if err != nil {
		return false
	}
	return claims["role"] == "collector"
}
