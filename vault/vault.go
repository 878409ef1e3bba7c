// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

// Package vault stores credentials and tokens encrypted at rest. A
// vault is a single file holding an age-encrypted CBOR map of named
// records. The identity key that unlocks it lives in a separate file
// (see secret.ReadFromPath); losing the key means losing the vault,
// which is the same as being signed out.
package vault

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"

	"github.com/linkup-chat/linkup/lib/codec"
	"github.com/linkup-chat/linkup/lib/secret"
)

// Vault is an encrypted record store backed by a single file. It is
// not safe for concurrent use; the client serializes access.
type Vault struct {
	path      string
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
	records   map[string]codec.RawMessage
}

// GenerateIdentity generates a new age x25519 identity for encrypting
// a vault. The key is returned in a secret.Buffer; persist it with
// secret.WriteToPath and pass it to Open on later runs.
func GenerateIdentity() (*secret.Buffer, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("vault: generating identity: %w", err)
	}

	// Move the key string into mmap-backed memory immediately. The
	// heap copy made by identity.String() is unavoidable and will be
	// GC'd; the buffer is the durable copy.
	keyBytes := []byte(identity.String())
	buffer, err := secret.NewFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("vault: protecting identity: %w", err)
	}
	return buffer, nil
}

// Open opens the vault at path, decrypting it with identityKey (an
// AGE-SECRET-KEY-1... string in a secret.Buffer, borrowed, not
// closed). A missing file opens as an empty vault — that is the
// first-run state, not an error. A file that exists but cannot be
// decrypted is an error: it means the wrong key, or corruption.
func Open(path string, identityKey *secret.Buffer) (*Vault, error) {
	if identityKey == nil {
		return nil, fmt.Errorf("vault: identity key is required")
	}
	identity, err := age.ParseX25519Identity(identityKey.String())
	if err != nil {
		return nil, fmt.Errorf("vault: parsing identity key: %w", err)
	}

	vault := &Vault{
		path:      path,
		identity:  identity,
		recipient: identity.Recipient(),
		records:   make(map[string]codec.RawMessage),
	}

	ciphertext, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return vault, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vault: reading %s: %w", path, err)
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("vault: decrypting %s: %w", path, err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("vault: reading decrypted vault: %w", err)
	}
	defer secret.Zero(plaintext)

	if err := codec.Unmarshal(plaintext, &vault.records); err != nil {
		return nil, fmt.Errorf("vault: parsing %s: %w", path, err)
	}
	return vault, nil
}

// Get decodes the record stored under key into out. The boolean
// reports whether the record exists.
func (v *Vault) Get(key string, out any) (bool, error) {
	raw, ok := v.records[key]
	if !ok {
		return false, nil
	}
	if err := codec.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("vault: decoding record %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key and writes the vault to disk.
func (v *Vault) Set(key string, value any) error {
	raw, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("vault: encoding record %q: %w", key, err)
	}
	v.records[key] = codec.RawMessage(raw)
	return v.save()
}

// Delete removes the record under key and writes the vault to disk.
// Deleting a missing key is a no-op.
func (v *Vault) Delete(key string) error {
	if _, ok := v.records[key]; !ok {
		return nil
	}
	delete(v.records, key)
	return v.save()
}

// Wipe removes every record and deletes the vault file. Used on
// logout. Wiping a vault that has no file yet is a no-op.
func (v *Vault) Wipe() error {
	v.records = make(map[string]codec.RawMessage)
	if err := os.Remove(v.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("vault: removing %s: %w", v.path, err)
	}
	return nil
}

// save encrypts the record map and atomically replaces the vault
// file with 0600 permissions.
func (v *Vault) save() error {
	plaintext, err := codec.Marshal(v.records)
	if err != nil {
		return fmt.Errorf("vault: encoding vault: %w", err)
	}
	defer secret.Zero(plaintext)

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, v.recipient)
	if err != nil {
		return fmt.Errorf("vault: creating encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return fmt.Errorf("vault: encrypting vault: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("vault: finalizing encryption: %w", err)
	}

	temp, err := os.CreateTemp(filepath.Dir(v.path), ".vault-*")
	if err != nil {
		return fmt.Errorf("vault: creating temp file: %w", err)
	}
	tempPath := temp.Name()
	defer os.Remove(tempPath)

	if err := temp.Chmod(0o600); err != nil {
		temp.Close()
		return fmt.Errorf("vault: setting permissions on %s: %w", tempPath, err)
	}
	if _, err := temp.Write(ciphertext.Bytes()); err != nil {
		temp.Close()
		return fmt.Errorf("vault: writing %s: %w", v.path, err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("vault: closing %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, v.path); err != nil {
		return fmt.Errorf("vault: renaming into place: %w", err)
	}
	return nil
}
