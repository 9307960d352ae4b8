package service

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_forecast/internal/utils"
)

// AuthService resolves bearer tokens issued by the identity provider to user ids.
type AuthService struct {
	verifier *utils.TokenVerifier
}

// NewAuthService constructs a new AuthService.
func NewAuthService(verifier *utils.TokenVerifier) *AuthService {
	return &AuthService{verifier: verifier}
}

// Authenticate returns the subject of a valid token or an error wrapping
// utils.ErrUnauthorized.
func (s *AuthService) Authenticate(token string) (string, error) {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		log.Debug().Err(err).Msg("JWT verification failed")
		return "", fmt.Errorf("%w: %v", utils.ErrUnauthorized, err)
	}
	return claims.Subject, nil
}
