package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/lavolpecheprogramma/tanklog/internal/config"
	"github.com/lavolpecheprogramma/tanklog/internal/session"
)

const oauthScopes = "openid email profile https://www.googleapis.com/auth/spreadsheets https://www.googleapis.com/auth/drive.file"

// deviceIdentity implements session.IdentityClient with the OAuth device
// authorization flow. Interactive prompts print a verification URL and poll
// for approval; silent requests exchange the stored refresh token.
type deviceIdentity struct {
	cfg        config.Config
	httpClient *http.Client
}

var _ session.IdentityClient = (*deviceIdentity)(nil)

func newDeviceIdentity(cfg config.Config) *deviceIdentity {
	return &deviceIdentity{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Ready always holds: there is no asynchronously loaded SDK in a terminal
// client.
func (d *deviceIdentity) Ready() bool { return true }

func (d *deviceIdentity) refreshTokenPath() string {
	return filepath.Join(d.cfg.StateDir, "refresh_token")
}

func (d *deviceIdentity) loadRefreshToken() string {
	b, err := os.ReadFile(d.refreshTokenPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func (d *deviceIdentity) saveRefreshToken(token string) {
	_ = os.MkdirAll(d.cfg.StateDir, 0o700)
	_ = os.WriteFile(d.refreshTokenPath(), []byte(token), 0o600)
}

func (d *deviceIdentity) clearRefreshToken() {
	_ = os.Remove(d.refreshTokenPath())
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`

	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (d *deviceIdentity) postForm(ctx context.Context, endpoint string, form url.Values) (tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return tokenResponse{}, fmt.Errorf("decode identity response: %w", err)
	}
	return out, nil
}

// RequestToken asks for a bearer token. For PromptNone only the refresh
// grant is tried; anything requiring the user's browser is reported as
// login_required so the caller can route to an interactive login.
func (d *deviceIdentity) RequestToken(ctx context.Context, prompt session.Prompt, _ string) (session.TokenGrant, error) {
	if d.cfg.ClientID == "" {
		return session.TokenGrant{}, errors.New("TANKLOG_GOOGLE_CLIENT_ID is not set")
	}

	if prompt == session.PromptNone {
		return d.refreshGrant(ctx)
	}
	return d.deviceGrant(ctx)
}

func (d *deviceIdentity) refreshGrant(ctx context.Context) (session.TokenGrant, error) {
	refresh := d.loadRefreshToken()
	if refresh == "" {
		return session.TokenGrant{}, &session.IdentityError{Code: "login_required", Description: "no stored refresh token"}
	}

	form := url.Values{}
	form.Set("client_id", d.cfg.ClientID)
	form.Set("client_secret", d.cfg.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refresh)

	out, err := d.postForm(ctx, d.cfg.TokenURL, form)
	if err != nil {
		return session.TokenGrant{}, err
	}
	if out.Error != "" {
		if out.Error == "invalid_grant" {
			// Revoked or expired refresh token: drop it so the next silent
			// attempt fails fast instead of retrying a dead credential.
			d.clearRefreshToken()
		}
		return session.TokenGrant{}, &session.IdentityError{Code: out.Error, Description: out.ErrorDescription}
	}
	return grantFromResponse(out), nil
}

type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`

	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (d *deviceIdentity) deviceGrant(ctx context.Context) (session.TokenGrant, error) {
	form := url.Values{}
	form.Set("client_id", d.cfg.ClientID)
	form.Set("scope", oauthScopes)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.DeviceAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return session.TokenGrant{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return session.TokenGrant{}, fmt.Errorf("device authorization: %w", err)
	}
	var dc deviceCodeResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&dc)
	resp.Body.Close()
	if decodeErr != nil {
		return session.TokenGrant{}, fmt.Errorf("decode device authorization: %w", decodeErr)
	}
	if dc.Error != "" {
		return session.TokenGrant{}, &session.IdentityError{Code: dc.Error, Description: dc.ErrorDescription}
	}

	fmt.Fprintf(os.Stderr, "Open %s and enter code %s\n",
		color.CyanString(dc.VerificationURL), color.New(color.Bold).Sprint(dc.UserCode))

	interval := time.Duration(dc.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(time.Duration(dc.ExpiresIn) * time.Second)

	pollForm := url.Values{}
	pollForm.Set("client_id", d.cfg.ClientID)
	pollForm.Set("client_secret", d.cfg.ClientSecret)
	pollForm.Set("device_code", dc.DeviceCode)
	pollForm.Set("grant_type", "urn:ietf:params:oauth:grant-type:device_code")

	for {
		select {
		case <-ctx.Done():
			return session.TokenGrant{}, ctx.Err()
		case <-time.After(interval):
		}
		if time.Now().After(deadline) {
			return session.TokenGrant{}, &session.IdentityError{Code: "access_denied", Description: "device code expired"}
		}

		out, err := d.postForm(ctx, d.cfg.TokenURL, pollForm)
		if err != nil {
			return session.TokenGrant{}, err
		}
		switch out.Error {
		case "":
			if out.RefreshToken != "" {
				d.saveRefreshToken(out.RefreshToken)
			}
			return grantFromResponse(out), nil
		case "authorization_pending":
			continue
		case "slow_down":
			interval += time.Second
		default:
			return session.TokenGrant{}, &session.IdentityError{Code: out.Error, Description: out.ErrorDescription}
		}
	}
}

// Revoke invalidates the access token upstream and drops the stored refresh
// token; revoking either kills the whole grant on Google's side.
func (d *deviceIdentity) Revoke(ctx context.Context, token string) error {
	d.clearRefreshToken()

	form := url.Values{}
	form.Set("token", token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke responded %s", resp.Status)
	}
	return nil
}

func grantFromResponse(out tokenResponse) session.TokenGrant {
	tokenType := out.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return session.TokenGrant{
		AccessToken: out.AccessToken,
		TokenType:   tokenType,
		Scope:       out.Scope,
		ExpiresIn:   time.Duration(out.ExpiresIn) * time.Second,
	}
}
