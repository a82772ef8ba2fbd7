// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package identity forwards sign-up, login, logout and password recovery to the
// identity provider which issues the bearer tokens. It speaks the GoTrue REST dialect.
package identity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/contaconmigo/core/logger"
)

// ErrNotConfigured is returned by all calls of a client without provider URL
var ErrNotConfigured = errors.New("identity provider is not configured")

// ProviderError is an error response of the identity provider
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider returned %d: %s", e.Status, e.Message)
}

// User is a user account of the identity provider
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the result of a successful login
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *User  `json:"user,omitempty"`
}

// Client is a client of the identity provider
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// New returns a client for the provider at url, authenticated with apiKey. An empty
// url returns a client which fails every call with ErrNotConfigured.
func New(url, apiKey string) *Client {
	return &Client{
		url:        strings.TrimSuffix(url, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp creates a new user account
func (c *Client) SignUp(ctx context.Context, email, password string) (User, error) {
	var response struct {
		User
		Nested *User `json:"user"`
	}
	if err := c.post(ctx, "/auth/v1/signup", "", credentials{email, password}, &response); err != nil {
		return User{}, err
	}
	// with auto confirmation the provider answers with a session instead of the user
	if response.Nested != nil {
		return *response.Nested, nil
	}
	return response.User, nil
}

// Login exchanges email and password for a session
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var session Session
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", "", credentials{email, password}, &session); err != nil {
		return session, err
	}
	if session.AccessToken == "" {
		return session, errors.New("identity provider returned no session")
	}
	return session, nil
}

// Logout revokes the refresh tokens of the session of accessToken
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.post(ctx, "/auth/v1/logout", accessToken, nil, nil)
}

// Recover asks the provider to send a password recovery email
func (c *Client) Recover(ctx context.Context, email string) error {
	return c.post(ctx, "/auth/v1/recover", "", struct {
		Email string `json:"email"`
	}{email}, nil)
}

func (c *Client) post(ctx context.Context, path, token string, body interface{}, result interface{}) error {
	if c.url == "" {
		return ErrNotConfigured
	}
	rlog := logger.FromContext(ctx)

	var reader io.Reader
	if body != nil {
		j, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(j)
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, reader)
	if err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("apikey", c.apiKey)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpClient.Do(r)
	if err != nil {
		return fmt.Errorf("cannot reach identity provider: %w", err)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("cannot read identity provider response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		perr := &ProviderError{Status: res.StatusCode, Message: providerMessage(resBody)}
		rlog.Debugln("identity provider rejected", path, perr.Message)
		return perr
	}
	if result != nil && len(resBody) > 0 {
		if err := json.Unmarshal(resBody, result); err != nil {
			return fmt.Errorf("cannot parse identity provider response: %w", err)
		}
	}
	return nil
}

// providerMessage extracts the human readable message of an error response. GoTrue
// uses different fields depending on the endpoint.
func providerMessage(body []byte) string {
	var e struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		for _, m := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
			if m != "" {
				return m
			}
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return http.StatusText(http.StatusBadGateway)
}
