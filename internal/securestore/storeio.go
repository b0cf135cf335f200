package securestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteSealedJSON marshals v, seals it under label and replaces path via a temp file rename.
func WriteSealedJSON(path, passphrase, label string, v any, params KDFParams) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", label, err)
	}
	sealed, err := Seal(passphrase, label, payload, params)
	zeroBytes(payload)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, sealed)
}

// ReadSealedJSON opens path and decodes it into v.
func ReadSealedJSON(path, passphrase, label string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	plain, err := Open(passphrase, label, raw)
	if err != nil {
		return err
	}
	defer zeroBytes(plain)
	if err := json.Unmarshal(plain, v); err != nil {
		return fmt.Errorf("decode %s: %w", label, err)
	}
	return nil
}

// WriteFileAtomic writes data with 0600 perms inside a 0700 directory.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
