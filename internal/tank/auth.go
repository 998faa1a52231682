package tank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Authenticate logs in unless a token is already cached. A cached token is
// trusted until InvalidateToken is called or an authorized request is
// answered with 401.
func (c *Client) Authenticate(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.authenticate(ctx)
}

// TestAuthentication reports whether the configured credentials are
// accepted. Intended for configuration-time validation.
func (c *Client) TestAuthentication(ctx context.Context) bool {
	if err := c.Authenticate(ctx); err != nil {
		c.log.Infow("tank_auth_test_failed", "err", err)
		return false
	}
	return true
}

func (c *Client) authenticate(ctx context.Context) error {
	if c.bearer() != "" {
		c.log.Debugw("tank_token_cached")
		return nil
	}

	var root struct {
		Links halLinks `json:"_links"`
	}
	if err := c.getJSON(ctx, "root", c.cfg.RootURL, false, &root); err != nil {
		return fmt.Errorf("fetch root: %w", err)
	}
	accountURL, err := root.Links.href("account")
	if err != nil {
		return fmt.Errorf("root: %w", err)
	}
	c.log.Debugw("tank_account_url", "url", accountURL)

	var account struct {
		Links halLinks `json:"_links"`
	}
	if err := c.getJSON(ctx, "account", accountURL, false, &account); err != nil {
		return fmt.Errorf("fetch account: %w", err)
	}
	loginURL, err := account.Links.href("login")
	if err != nil {
		return fmt.Errorf("account: %w", err)
	}
	c.log.Debugw("tank_login_url", "url", loginURL)

	status, data, err := c.request(ctx, "login", http.MethodPost, loginURL,
		loginRequest{Username: c.cfg.Username, Password: c.cfg.Password}, false)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if status != http.StatusCreated {
		c.log.Errorw("tank_auth_failed", "status", status)
		return fmt.Errorf("%w: login returned status %d", ErrAuthenticationFailed, status)
	}

	var res loginResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if res.Token == "" {
		return fmt.Errorf("%w: %w", ErrAuthenticationFailed, missing("token"))
	}

	exp, _ := tokenExpiry(res.Token)
	c.mu.Lock()
	c.token = res.Token
	c.tokenExpiry = exp
	c.mu.Unlock()

	if !exp.IsZero() {
		c.log.Infow("tank_authenticated", "token_expires", exp.Format(time.RFC3339))
	} else {
		c.log.Infow("tank_authenticated")
	}
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// token is opaque to us and only the API can validate it.
func tokenExpiry(raw string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
