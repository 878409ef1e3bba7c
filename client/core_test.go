// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/linkup-chat/linkup/api"
	"github.com/linkup-chat/linkup/lib/secret"
	"github.com/linkup-chat/linkup/state"
	"github.com/linkup-chat/linkup/vault"
)

// testCore builds a Core against a temp vault and the given HTTP
// handler. The socket URL points at socketHandler when provided, at a
// dead server otherwise.
func testCore(t *testing.T, apiHandler http.Handler, socketHandler func(conn *websocket.Conn)) (*Core, *vault.Vault, *state.Store) {
	t.Helper()

	if apiHandler == nil {
		apiHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected API request: %s %s", r.Method, r.URL.Path)
		})
	}
	apiServer := httptest.NewServer(apiHandler)
	t.Cleanup(apiServer.Close)

	upgrader := websocket.Upgrader{}
	socketServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		if socketHandler != nil {
			socketHandler(conn)
		}
	}))
	t.Cleanup(socketServer.Close)

	identity, err := vault.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity failed: %v", err)
	}
	t.Cleanup(func() { identity.Close() })
	credentialVault, err := vault.Open(filepath.Join(t.TempDir(), "vault"), identity)
	if err != nil {
		t.Fatalf("vault.Open failed: %v", err)
	}

	apiClient, err := api.NewClient(api.ClientConfig{BaseURL: apiServer.URL})
	if err != nil {
		t.Fatalf("api.NewClient failed: %v", err)
	}

	store := state.NewStore()
	core, err := New(Config{
		API:       apiClient,
		Vault:     credentialVault,
		Store:     store,
		SocketURL: "ws" + strings.TrimPrefix(socketServer.URL, "http"),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return core, credentialVault, store
}

// drainBurst consumes the hydration burst on the server side.
func drainBurst(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	for range 3 {
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Errorf("server read failed: %v", err)
			return
		}
	}
}

// waitFor polls condition until it holds or the deadline passes.
func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func storeCredentials(t *testing.T, credentialVault *vault.Vault, username, password string) {
	t.Helper()
	err := credentialVault.Set(vaultKeyCredentials, Credentials{
		Username: username,
		Password: password,
	})
	if err != nil {
		t.Fatalf("storing credentials failed: %v", err)
	}
}

func signInHandler(t *testing.T, wantPassword string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding sign-in body: %v", err)
		}
		if body.Password != wantPassword {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"detail": "invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user":   map[string]any{"username": body.Username, "name": "Mallory Org"},
			"tokens": map[string]any{"access": "access-token", "refresh": "refresh-token"},
		})
	})
}

func TestInitializeNoCredentials(t *testing.T) {
	// The nil handler fails the test on any API call: without stored
	// credentials there must be no network traffic.
	core, _, store := testCore(t, nil, nil)

	outcome := core.Initialize(context.Background())
	if !outcome.Initialized {
		t.Error("Initialized = false, want true")
	}
	if outcome.Authenticated {
		t.Error("Authenticated = true, want false")
	}
	if store.Session().Authenticated {
		t.Error("store session authenticated, want signed out")
	}
}

func TestInitializeRejectedCredentials(t *testing.T) {
	core, credentialVault, store := testCore(t, signInHandler(t, "right"), nil)
	storeCredentials(t, credentialVault, "mallory", "wrong")
	staleTokens := state.Tokens{Access: "stale-access", Refresh: "stale-refresh"}
	if err := credentialVault.Set(vaultKeyTokens, staleTokens); err != nil {
		t.Fatalf("seeding tokens failed: %v", err)
	}

	outcome := core.Initialize(context.Background())
	if outcome.Authenticated {
		t.Error("Authenticated = true, want false after rejection")
	}
	if store.Session().Authenticated {
		t.Error("store session authenticated after rejection")
	}

	// A failed sign-in must not disturb the stored tokens.
	var tokens state.Tokens
	found, err := credentialVault.Get(vaultKeyTokens, &tokens)
	if err != nil || !found {
		t.Fatalf("stored tokens missing after rejection: found=%v err=%v", found, err)
	}
	if tokens != staleTokens {
		t.Errorf("stored tokens = %+v, want untouched %+v", tokens, staleTokens)
	}
}

func TestInitializeSuccess(t *testing.T) {
	core, credentialVault, store := testCore(t, signInHandler(t, "hunter2"), nil)
	storeCredentials(t, credentialVault, "mallory", "hunter2")

	outcome := core.Initialize(context.Background())
	if !outcome.Authenticated {
		t.Fatal("Authenticated = false, want true")
	}

	session := store.Session()
	if !session.Authenticated {
		t.Error("store session not authenticated")
	}
	if session.User.Username != "mallory" {
		t.Errorf("session user = %q, want %q", session.User.Username, "mallory")
	}

	var tokens state.Tokens
	found, err := credentialVault.Get(vaultKeyTokens, &tokens)
	if err != nil || !found {
		t.Fatalf("tokens not persisted: found=%v err=%v", found, err)
	}
	if tokens.Access != "access-token" {
		t.Errorf("persisted access token = %q, want %q", tokens.Access, "access-token")
	}
}

func TestLoginPersists(t *testing.T) {
	core, credentialVault, store := testCore(t, nil, nil)

	password, err := secret.NewFromString("hunter2")
	if err != nil {
		t.Fatalf("NewFromString failed: %v", err)
	}
	defer password.Close()

	user := state.User{Username: "mallory"}
	tokens := state.Tokens{Access: "a", Refresh: "r"}
	if err := core.Login("mallory", password, user, tokens); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if !store.Session().Authenticated {
		t.Error("store session not authenticated after Login")
	}
	var stored Credentials
	found, err := credentialVault.Get(vaultKeyCredentials, &stored)
	if err != nil || !found {
		t.Fatalf("credentials not persisted: found=%v err=%v", found, err)
	}
	if stored.Username != "mallory" || stored.Password != "hunter2" {
		t.Errorf("persisted credentials = %+v, want mallory/hunter2", stored)
	}
}

func TestLogout(t *testing.T) {
	core, credentialVault, store := testCore(t, nil, nil)
	storeCredentials(t, credentialVault, "mallory", "hunter2")
	store.SetSession(state.User{Username: "mallory"}, state.Tokens{Access: "a"})

	if err := core.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if store.Session().Authenticated {
		t.Error("store session still authenticated after Logout")
	}
	var out Credentials
	if found, _ := credentialVault.Get(vaultKeyCredentials, &out); found {
		t.Error("credentials still in vault after Logout")
	}
}

func TestEditProfile(t *testing.T) {
	t.Run("not signed in", func(t *testing.T) {
		core, _, _ := testCore(t, nil, nil)
		name := "Mallory"
		if err := core.EditProfile(context.Background(), state.UserPatch{Name: &name}); err == nil {
			t.Error("EditProfile without credentials succeeded, want error")
		}
	})

	t.Run("rejected leaves user unchanged", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		core, credentialVault, store := testCore(t, handler, nil)
		storeCredentials(t, credentialVault, "mallory", "hunter2")
		store.SetSession(state.User{Username: "mallory", Name: "Mallory"}, state.Tokens{})

		name := "Renamed"
		if err := core.EditProfile(context.Background(), state.UserPatch{Name: &name}); err == nil {
			t.Fatal("EditProfile succeeded, want error")
		}
		if got := store.Session().User.Name; got != "Mallory" {
			t.Errorf("user name = %q after rejected edit, want %q", got, "Mallory")
		}
	})

	t.Run("success merges patch", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut || r.URL.Path != "/chat/signup/" {
				t.Errorf("request = %s %s, want PUT /chat/signup/", r.Method, r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{"username": "mallory", "name": "Renamed"})
		})
		core, credentialVault, store := testCore(t, handler, nil)
		storeCredentials(t, credentialVault, "mallory", "hunter2")
		store.SetSession(state.User{Username: "mallory", Name: "Mallory", Location: "Lagos"}, state.Tokens{})

		name := "Renamed"
		if err := core.EditProfile(context.Background(), state.UserPatch{Name: &name}); err != nil {
			t.Fatalf("EditProfile failed: %v", err)
		}
		user := store.Session().User
		if user.Name != "Renamed" {
			t.Errorf("user name = %q, want %q", user.Name, "Renamed")
		}
		if user.Location != "Lagos" {
			t.Errorf("unpatched field location = %q, want preserved %q", user.Location, "Lagos")
		}
	})
}

func TestConnectWithoutTokens(t *testing.T) {
	core, _, _ := testCore(t, nil, nil)
	if err := core.Connect(context.Background()); err == nil {
		t.Error("Connect without stored tokens succeeded, want error")
	}
}

func connectedCore(t *testing.T, socketHandler func(conn *websocket.Conn)) (*Core, *state.Store) {
	t.Helper()
	core, credentialVault, store := testCore(t, nil, socketHandler)
	if err := credentialVault.Set(vaultKeyTokens, state.Tokens{Access: "access-token"}); err != nil {
		t.Fatalf("seeding tokens failed: %v", err)
	}
	store.SetSession(state.User{Username: "mallory"}, state.Tokens{Access: "access-token"})
	if err := core.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(core.Disconnect)
	return core, store
}

func TestConnectFeedsReconciler(t *testing.T) {
	core, store := connectedCore(t, func(conn *websocket.Conn) {
		drainBurst(t, conn)
		conn.WriteMessage(websocket.TextMessage, []byte(
			`{"source": "friend.list", "data": [{"id": 1, "friend": {"username": "sage"}, "preview": "hi", "updated": "2026-08-30T10:00:00Z"}]}`))
		// Hold the connection open until the client closes it.
		conn.ReadMessage()
	})

	if !core.Connected() {
		t.Error("Connected() = false after Connect")
	}
	waitFor(t, func() bool { return len(store.Friends()) == 1 })
	if friends := store.Friends(); friends[0].Friend.Username != "sage" {
		t.Errorf("friend = %q, want %q", friends[0].Friend.Username, "sage")
	}

	if err := core.Connect(context.Background()); err == nil {
		t.Error("second Connect succeeded, want already-connected error")
	}
}

func TestCommandsReachServer(t *testing.T) {
	frames := make(chan map[string]any, 16)
	core, store := connectedCore(t, func(conn *websocket.Conn) {
		drainBurst(t, conn)
		for {
			var frame map[string]any
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			frames <- frame
		}
	})

	// A blank search clears locally and sends nothing.
	store.SetSearchResults([]state.SearchResult{{User: state.User{Username: "sage"}}})
	if err := core.SearchUsers("   "); err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	if _, active := store.SearchResults(); active {
		t.Error("search results not cleared by blank query")
	}

	if err := core.SearchUsers("sage"); err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	if err := core.SendMessage(7, "hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	frame := <-frames
	if frame["source"] != "search" || frame["query"] != "sage" {
		t.Errorf("first frame = %v, want search for sage", frame)
	}
	frame = <-frames
	if frame["source"] != "message.send" || frame["message"] != "hello" {
		t.Errorf("second frame = %v, want message.send hello", frame)
	}
}

func TestMessageListResetIdempotent(t *testing.T) {
	frames := make(chan map[string]any, 16)
	core, store := connectedCore(t, func(conn *websocket.Conn) {
		drainBurst(t, conn)
		for {
			var frame map[string]any
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			frames <- frame
		}
	})

	next := 1
	store.AppendMessages([]state.Message{{ID: 1, Text: "old"}}, &next, "sage")

	// Opening the conversation twice from page 0 lands in the same
	// blank state both times.
	for range 2 {
		if err := core.MessageList(7, 0); err != nil {
			t.Fatalf("MessageList failed: %v", err)
		}
		messages, cursor, username := store.Conversation()
		if len(messages) != 0 || cursor != nil || username != "" {
			t.Errorf("conversation = (%d messages, cursor %v, user %q), want blank",
				len(messages), cursor, username)
		}
		frame := <-frames
		if frame["source"] != "message.list" || frame["page"] != float64(0) {
			t.Errorf("frame = %v, want message.list page 0", frame)
		}
	}

	// A later page clears only the cursor.
	store.AppendMessages([]state.Message{{ID: 2, Text: "new"}}, &next, "sage")
	if err := core.MessageList(7, 1); err != nil {
		t.Fatalf("MessageList failed: %v", err)
	}
	messages, cursor, _ := store.Conversation()
	if len(messages) != 1 {
		t.Errorf("messages dropped by page request, want kept")
	}
	if cursor != nil {
		t.Error("cursor not cleared by page request")
	}
}

func TestCommandWithoutConnectionPanics(t *testing.T) {
	core, _, _ := testCore(t, nil, nil)
	defer func() {
		if recover() == nil {
			t.Error("SendMessage without connection did not panic")
		}
	}()
	core.SendMessage(7, "hello")
}

func TestDisconnect(t *testing.T) {
	core, _ := connectedCore(t, func(conn *websocket.Conn) {
		drainBurst(t, conn)
		conn.ReadMessage()
	})

	core.Disconnect()
	if core.Connected() {
		t.Error("Connected() = true after Disconnect")
	}
	core.Disconnect() // second call is a no-op
}
