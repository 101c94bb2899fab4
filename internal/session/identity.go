package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lavolpecheprogramma/tanklog/internal/model"
)

// Prompt is the interactivity level requested from the identity service.
type Prompt string

const (
	// PromptSelectAccount lets the user pick an account; consent appears if needed.
	PromptSelectAccount Prompt = "select_account"
	// PromptConsent forces the consent screen.
	PromptConsent Prompt = "consent"
	// PromptNone is a silent request: it fails if user interaction is required.
	PromptNone Prompt = "none"
)

// TokenGrant is a successful token response from the identity service.
type TokenGrant struct {
	AccessToken string
	TokenType   string
	Scope       string
	ExpiresIn   time.Duration
}

// IdentityClient abstracts the externally loaded identity SDK. The SDK loads
// asynchronously from a fixed origin, hence Ready.
type IdentityClient interface {
	// Ready reports whether the SDK has finished loading.
	Ready() bool
	// RequestToken asks for a bearer token at the given interactivity level.
	RequestToken(ctx context.Context, prompt Prompt, hint string) (TokenGrant, error)
	// Revoke invalidates a token upstream, best effort.
	Revoke(ctx context.Context, token string) error
}

// IdentityError is a failure reported by the identity service with a stable
// error code (e.g. "login_required").
type IdentityError struct {
	Code        string
	Description string
}

func (e *IdentityError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("identity: %s (%s)", e.Description, e.Code)
	}
	return "identity: " + e.Code
}

// interactionRequired reports whether the error is the identity service
// telling us a silent request cannot succeed and the user must act.
func interactionRequired(err error) bool {
	var idErr *IdentityError
	if !errors.As(err, &idErr) {
		return false
	}
	switch idErr.Code {
	case "interaction_required", "login_required", "consent_required", "invalid_grant", "access_denied":
		return true
	}
	return false
}

// DecodeCredentialProfile extracts the display profile from a signed
// identity assertion (one-tap credential). The signature is deliberately
// not verified: the result is used for display only and never for
// authorization.
func DecodeCredentialProfile(credential string) (model.UserProfile, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return model.UserProfile{}, fmt.Errorf("decode credential: %w", err)
	}

	str := func(key string) string {
		if v, ok := claims[key].(string); ok {
			return v
		}
		return ""
	}
	profile := model.UserProfile{
		Email:   str("email"),
		Name:    str("name"),
		Picture: str("picture"),
	}
	if profile == (model.UserProfile{}) {
		return model.UserProfile{}, errors.New("credential carries no profile claims")
	}
	return profile, nil
}
