package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lavolpecheprogramma/tanklog/internal/model"
)

// ProfileFetcher resolves the user profile behind an access token.
type ProfileFetcher interface {
	Fetch(ctx context.Context, accessToken string) (model.UserProfile, error)
}

// HTTPProfileFetcher reads the profile from the OpenID Connect userinfo
// endpoint.
type HTTPProfileFetcher struct {
	url        string
	httpClient *http.Client
}

func NewHTTPProfileFetcher(url string) *HTTPProfileFetcher {
	return &HTTPProfileFetcher{
		url:        url,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (f *HTTPProfileFetcher) Fetch(ctx context.Context, accessToken string) (model.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return model.UserProfile{}, fmt.Errorf("userinfo responded %s", resp.Status)
	}

	var profile model.UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return model.UserProfile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	return profile, nil
}
