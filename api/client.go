// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

// Package api is the request/response client for the chat server's
// HTTP endpoints: sign-in and profile update. Everything event-driven
// goes over the websocket (package transport); this client covers the
// two calls that happen outside a connection.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/linkup-chat/linkup/lib/secret"
	"github.com/linkup-chat/linkup/state"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the server's base URL (e.g., "http://localhost:8000").
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client performs single-shot calls against the chat server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("api: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("api: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// APIError is a non-2xx response from the server. Callers branch on
// the status code; 401/403 from sign-in means bad credentials.
type APIError struct {
	StatusCode int
	// Detail is the server's error description, or the raw body when
	// the server returned something unstructured.
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Detail)
}

// IsAPIError checks whether err is an *APIError with the given status
// code.
func IsAPIError(err error, statusCode int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == statusCode
	}
	return false
}

// SignInResponse is returned by SignIn.
type SignInResponse struct {
	User   state.User   `json:"user"`
	Tokens state.Tokens `json:"tokens"`
}

// SignIn authenticates with username and password. The password
// buffer is read but not closed — the caller retains ownership. Any
// non-2xx response is an authentication failure, returned as
// *APIError.
func (c *Client) SignIn(ctx context.Context, username string, password *secret.Buffer) (*SignInResponse, error) {
	if username == "" {
		return nil, fmt.Errorf("api: username is required for sign-in")
	}
	if password == nil {
		return nil, fmt.Errorf("api: password is required for sign-in")
	}

	// The password becomes a string at the JSON boundary; the heap
	// copy is request-scoped.
	body, err := c.doRequest(ctx, http.MethodPost, "/chat/signin/", map[string]string{
		"username": username,
		"password": password.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("api: sign-in failed: %w", err)
	}

	var response SignInResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("api: failed to parse sign-in response: %w", err)
	}
	return &response, nil
}

// updateProfileRequest is the PUT body: the credentials prove the
// edit, the embedded patch carries the changed fields.
type updateProfileRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	state.UserPatch
}

// UpdateProfile merges the patch into the remote profile and returns
// the updated user record. The password buffer is read but not
// closed.
func (c *Client) UpdateProfile(ctx context.Context, username string, password *secret.Buffer, patch state.UserPatch) (state.User, error) {
	if username == "" {
		return state.User{}, fmt.Errorf("api: username is required for profile update")
	}
	if password == nil {
		return state.User{}, fmt.Errorf("api: password is required for profile update")
	}

	body, err := c.doRequest(ctx, http.MethodPut, "/chat/signup/", updateProfileRequest{
		Username:  username,
		Password:  password.String(),
		UserPatch: patch,
	})
	if err != nil {
		return state.User{}, fmt.Errorf("api: profile update failed: %w", err)
	}

	var user state.User
	if err := json.Unmarshal(body, &user); err != nil {
		return state.User{}, fmt.Errorf("api: failed to parse profile response: %w", err)
	}
	return user, nil
}

// doRequest performs an HTTP request and returns the response body.
// On 2xx, returns the body. On anything else, returns an *APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	// The server's error shape is {"detail": "..."} — fall back to
	// the raw body when it is anything else.
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(responseBody, &detail); err != nil || detail.Detail == "" {
		detail.Detail = string(responseBody)
	}
	return nil, &APIError{StatusCode: response.StatusCode, Detail: detail.Detail}
}
