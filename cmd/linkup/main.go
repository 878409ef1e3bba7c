// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

// linkup is the headless chat client. It boots the sync core: load
// config, open the credential vault (minting the identity key on
// first run), silently sign in with stored credentials, optionally
// run an interactive login, then hold the websocket connection open
// until interrupted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/linkup-chat/linkup/api"
	"github.com/linkup-chat/linkup/client"
	"github.com/linkup-chat/linkup/lib/config"
	"github.com/linkup-chat/linkup/lib/secret"
	"github.com/linkup-chat/linkup/state"
	"github.com/linkup-chat/linkup/vault"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "linkup: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var loginUser string
	var verbose bool

	flagSet := pflag.NewFlagSet("linkup", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to linkup.yaml (default: $LINKUP_CONFIG, then built-in defaults)")
	flagSet.StringVar(&loginUser, "login", "", "sign in interactively as this username (prompts for password)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	identity, err := loadOrCreateIdentity(cfg.Vault.IdentityPath, logger)
	if err != nil {
		return err
	}
	defer identity.Close()

	if err := os.MkdirAll(filepath.Dir(cfg.Vault.Path), 0o700); err != nil {
		return fmt.Errorf("creating vault directory: %w", err)
	}
	credentialVault, err := vault.Open(cfg.Vault.Path, identity)
	if err != nil {
		return err
	}

	apiClient, err := api.NewClient(api.ClientConfig{
		BaseURL: cfg.APIBaseURL(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	core, err := client.New(client.Config{
		API:       apiClient,
		Vault:     credentialVault,
		Store:     state.NewStore(),
		SocketURL: cfg.SocketBaseURL(),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcome := core.Initialize(ctx)

	if loginUser != "" {
		if err := interactiveLogin(ctx, apiClient, core, loginUser); err != nil {
			return err
		}
	} else if !outcome.Authenticated {
		return fmt.Errorf("not signed in; run with --login <username>")
	}

	if err := core.Connect(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	core.Disconnect()
	return nil
}

// loadConfig resolves the configuration source: explicit flag, then
// LINKUP_CONFIG, then built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("LINKUP_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

// loadOrCreateIdentity reads the vault identity key, generating and
// persisting a fresh one on first run.
func loadOrCreateIdentity(path string, logger *slog.Logger) (*secret.Buffer, error) {
	identity, err := secret.ReadFromPath(path)
	if err == nil {
		return identity, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading vault identity: %w", err)
	}

	logger.Info("generating vault identity", "path", path)
	identity, err = vault.GenerateIdentity()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		identity.Close()
		return nil, fmt.Errorf("creating identity directory: %w", err)
	}
	if err := secret.WriteToPath(path, identity); err != nil {
		identity.Close()
		return nil, err
	}
	return identity, nil
}

// interactiveLogin prompts for a password without echo, signs in, and
// persists the result through the core.
func interactiveLogin(ctx context.Context, apiClient *api.Client, core *client.Core, username string) error {
	fmt.Fprintf(os.Stderr, "password for %s: ", username)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	password, err := secret.NewFromBytes(raw)
	if err != nil {
		return err
	}
	defer password.Close()

	response, err := apiClient.SignIn(ctx, username, password)
	if err != nil {
		return err
	}
	return core.Login(username, password, response.User, response.Tokens)
}
