// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// ReadFromPath reads a secret from a file into a protected buffer.
// Leading and trailing whitespace is trimmed (key files conventionally
// end with a newline). The heap copy made by os.ReadFile is zeroed
// before returning. Returns an error if the file is empty after
// trimming.
func ReadFromPath(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		Zero(data)
		return nil, fmt.Errorf("secret: %s is empty", path)
	}

	// NewFromBytes zeros trimmed; zero the surrounding whitespace too.
	buffer, err := NewFromBytes(trimmed)
	Zero(data)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}

// WriteToPath writes a secret to a file with 0600 permissions, for
// secrets that must survive process restarts (the vault identity).
// The write is atomic: a temp file in the same directory is renamed
// over the destination.
func WriteToPath(path string, buffer *Buffer) error {
	temp, err := os.CreateTemp(filepath.Dir(path), ".secret-*")
	if err != nil {
		return fmt.Errorf("secret: creating temp file: %w", err)
	}
	tempPath := temp.Name()
	defer os.Remove(tempPath)

	if err := temp.Chmod(0o600); err != nil {
		temp.Close()
		return fmt.Errorf("secret: setting permissions on %s: %w", tempPath, err)
	}
	if _, err := temp.Write(buffer.Bytes()); err != nil {
		temp.Close()
		return fmt.Errorf("secret: writing %s: %w", path, err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("secret: closing %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("secret: renaming into place: %w", err)
	}
	return nil
}
