// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

// Package client composes the sync core: the session bootstrapper,
// the vault-backed credential lifecycle, the websocket connection,
// and the outbound command surface. A UI embeds a Core, reads from
// the Store, and calls the command methods; everything inbound flows
// through the reconciler.
package client

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/zeebo/blake3"

	"github.com/linkup-chat/linkup/api"
	"github.com/linkup-chat/linkup/lib/secret"
	"github.com/linkup-chat/linkup/reconcile"
	"github.com/linkup-chat/linkup/state"
	"github.com/linkup-chat/linkup/transport"
	"github.com/linkup-chat/linkup/vault"
)

// Vault record keys.
const (
	vaultKeyCredentials = "credentials"
	vaultKeyTokens      = "tokens"
)

// Credentials is the vault record holding the sign-in pair. The vault
// file is encrypted at rest; in memory the password lives here only
// between a vault read and the sign-in call.
type Credentials struct {
	Username string `cbor:"username"`
	Password string `cbor:"password"`
}

// Config holds dependencies for a Core.
type Config struct {
	// API is the HTTP client for sign-in and profile updates.
	// Required.
	API *api.Client
	// Vault stores credentials and tokens encrypted at rest.
	// Required.
	Vault *vault.Vault
	// Store is the state container the reconciler mutates and the UI
	// reads. Required.
	Store *state.Store
	// SocketURL is the websocket base URL, e.g. "ws://localhost:8000".
	SocketURL string
	// Dialer is passed to the transport. If nil, the websocket
	// default dialer is used.
	Dialer *websocket.Dialer
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Core is the client synchronization core.
type Core struct {
	api       *api.Client
	vault     *vault.Vault
	store     *state.Store
	socketURL string
	dialer    *websocket.Dialer
	logger    *slog.Logger

	reconciler *reconcile.Reconciler

	mu      sync.Mutex
	session *transport.Session
	drained chan struct{}
}

// New creates a Core.
func New(config Config) (*Core, error) {
	if config.API == nil {
		return nil, fmt.Errorf("client: API is required")
	}
	if config.Vault == nil {
		return nil, fmt.Errorf("client: Vault is required")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("client: Store is required")
	}
	if config.SocketURL == "" {
		return nil, fmt.Errorf("client: SocketURL is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reconciler, err := reconcile.New(reconcile.Config{
		Store:  config.Store,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	return &Core{
		api:        config.API,
		vault:      config.Vault,
		store:      config.Store,
		socketURL:  config.SocketURL,
		dialer:     config.Dialer,
		logger:     logger,
		reconciler: reconciler,
	}, nil
}

// Outcome is the result of Initialize.
type Outcome struct {
	// Initialized is true once the bootstrap attempt finished,
	// whichever way it went. The UI gates its first render on this.
	Initialized bool
	// Authenticated is true when stored credentials produced a live
	// session.
	Authenticated bool
}

// Initialize performs the silent sign-in: read stored credentials
// from the vault and present them to the server. Every failure mode —
// no stored credentials, rejected credentials, unreachable server —
// lands in the signed-out state with a log line, never an error. The
// caller shows the login screen on !Authenticated and moves on.
func (c *Core) Initialize(ctx context.Context) Outcome {
	signedOut := Outcome{Initialized: true}

	var credentials Credentials
	found, err := c.vault.Get(vaultKeyCredentials, &credentials)
	if err != nil {
		c.logger.Warn("stored credentials unreadable", "error", err)
		return signedOut
	}
	if !found {
		c.logger.Debug("no stored credentials")
		return signedOut
	}

	password, err := secret.NewFromString(credentials.Password)
	if err != nil {
		c.logger.Warn("stored credentials unusable", "error", err)
		return signedOut
	}
	defer password.Close()
	credentials.Password = ""

	response, err := c.api.SignIn(ctx, credentials.Username, password)
	if err != nil {
		c.logger.Warn("silent sign-in failed", "username", credentials.Username, "error", err)
		return signedOut
	}

	if err := c.vault.Set(vaultKeyTokens, response.Tokens); err != nil {
		// The session still works for this run; only the next
		// Connect after a restart is affected.
		c.logger.Warn("persisting tokens failed", "error", err)
	}
	c.store.SetSession(response.User, response.Tokens)
	c.logger.Info("signed in", "username", response.User.Username)
	return Outcome{Initialized: true, Authenticated: true}
}

// Login records the outcome of an interactive sign-in: persist the
// credentials and tokens to the vault and mark the session
// authenticated. The sign-in call itself is the caller's, via
// api.Client. The password buffer is borrowed, not closed.
func (c *Core) Login(username string, password *secret.Buffer, user state.User, tokens state.Tokens) error {
	if username == "" {
		return fmt.Errorf("client: username is required for login")
	}
	if password == nil {
		return fmt.Errorf("client: password is required for login")
	}

	err := c.vault.Set(vaultKeyCredentials, Credentials{
		Username: username,
		Password: password.String(),
	})
	if err != nil {
		return fmt.Errorf("client: persisting credentials: %w", err)
	}
	if err := c.vault.Set(vaultKeyTokens, tokens); err != nil {
		return fmt.Errorf("client: persisting tokens: %w", err)
	}

	c.store.SetSession(user, tokens)
	c.logger.Info("signed in", "username", user.Username)
	return nil
}

// Logout wipes the vault and clears all local state. If a connection
// is open it is closed first.
func (c *Core) Logout() error {
	c.Disconnect()
	if err := c.vault.Wipe(); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	c.store.ClearSession()
	c.logger.Info("signed out")
	return nil
}

// EditProfile sends a partial profile update to the server. The
// stored credentials prove the edit; their absence is an error, not a
// silent fallback. The local user is updated only after the server
// accepts.
func (c *Core) EditProfile(ctx context.Context, patch state.UserPatch) error {
	var credentials Credentials
	found, err := c.vault.Get(vaultKeyCredentials, &credentials)
	if err != nil {
		return fmt.Errorf("client: reading stored credentials: %w", err)
	}
	if !found {
		return fmt.Errorf("client: not signed in")
	}

	password, err := secret.NewFromString(credentials.Password)
	if err != nil {
		return fmt.Errorf("client: stored credentials unusable: %w", err)
	}
	defer password.Close()
	credentials.Password = ""

	if _, err := c.api.UpdateProfile(ctx, credentials.Username, password, patch); err != nil {
		return fmt.Errorf("client: %w", err)
	}

	c.store.MergeUser(patch)
	return nil
}

// Connect opens the websocket connection using the stored access
// token and starts the drain loop feeding the reconciler. The server
// answers the hydration burst with the full working set; from then on
// the store tracks every inbound event until the channel closes.
//
// There is no automatic reconnect. When the connection drops, the
// core returns to the disconnected state and stays there until the
// caller decides to Connect again.
func (c *Core) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return fmt.Errorf("client: already connected")
	}

	var tokens state.Tokens
	found, err := c.vault.Get(vaultKeyTokens, &tokens)
	if err != nil {
		return fmt.Errorf("client: reading stored tokens: %w", err)
	}
	if !found {
		return fmt.Errorf("client: no stored tokens, sign in first")
	}

	c.warnIfExpired(tokens.Access)

	session, err := transport.Open(ctx, transport.Config{
		URL:    c.socketURL,
		Dialer: c.dialer,
		Logger: c.logger,
	}, tokens.Access)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}

	drained := make(chan struct{})
	c.session = session
	c.drained = drained

	go func() {
		defer close(drained)
		for event := range session.Events() {
			c.reconciler.Apply(event)
		}
		c.mu.Lock()
		if c.session == session {
			c.session = nil
		}
		c.mu.Unlock()
	}()

	c.logger.Info("connected", "token", fingerprint(tokens.Access))
	return nil
}

// Disconnect closes the connection and waits for the drain loop to
// finish. A no-op when not connected.
func (c *Core) Disconnect() {
	c.mu.Lock()
	session := c.session
	drained := c.drained
	c.session = nil
	c.mu.Unlock()

	if session == nil {
		return
	}
	session.Close()
	<-drained
}

// Connected reports whether a session is currently open.
func (c *Core) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// warnIfExpired peeks at the access token's expiry claim without
// verifying the signature. Verification is the server's job; the peek
// only exists so a doomed Connect explains itself in the log.
func (c *Core) warnIfExpired(accessToken string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		c.logger.Debug("access token is not a parseable JWT", "error", err)
		return
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return
	}
	if expiry.Before(time.Now()) {
		c.logger.Warn("access token already expired",
			"expired_at", expiry.Time,
			"token", fingerprint(accessToken))
	}
}

// fingerprint returns a short blake3 digest of a token for log
// correlation. The token itself never appears in logs.
func fingerprint(token string) string {
	sum := blake3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:4])
}
