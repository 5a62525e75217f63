package app

import (
	"bufio"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

const DefaultAuthFile = "auth.secret"

// argonHash is a decoded "$argon2id$v=19$m=...,t=...,p=...$salt$key" string.
type argonHash struct {
	memory  uint32
	passes  uint32
	threads uint8
	salt    []byte
	key     []byte
}

// defaultArgon are the parameters new hashes are created with.
var defaultArgon = argonHash{memory: 64 * 1024, passes: 1, threads: 4}

const (
	argonSaltBytes = 16
	argonKeyBytes  = 32
)

func (h argonHash) derive(password string, keyLen uint32) []byte {
	return argon2.IDKey([]byte(password), h.salt, h.passes, h.memory, h.threads, keyLen)
}

func (h argonHash) String() string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.passes, h.threads,
		enc.EncodeToString(h.salt), enc.EncodeToString(h.key))
}

func parseArgonHash(encoded string) (argonHash, error) {
	var h argonHash
	fields := strings.Split(encoded, "$")
	switch {
	case len(fields) != 6:
		return h, errors.New("invalid hash format")
	case fields[1] != "argon2id":
		return h, errors.New("not an argon2id hash")
	}

	var threads uint32
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &h.memory, &h.passes, &threads); err != nil {
		return h, fmt.Errorf("parsing argon2 parameters: %w", err)
	}
	h.threads = uint8(threads)

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return h, fmt.Errorf("decoding salt: %w", err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil {
		return h, fmt.Errorf("decoding key: %w", err)
	}
	return h, nil
}

// Credentials is the single account allowed to log in.
type Credentials struct {
	User string
	hash string
}

// Check verifies a username and password. The boolean results distinguish
// an unknown user from a wrong password.
func (c *Credentials) Check(user, password string) (knownUser, ok bool) {
	if c == nil {
		return false, false
	}
	if subtle.ConstantTimeCompare([]byte(user), []byte(c.User)) != 1 {
		return false, false
	}
	match, err := VerifyPassword(password, c.hash)
	if err != nil {
		return true, false
	}
	return true, match
}

// DefaultAuthFilePath is auth.secret next to the running binary.
func DefaultAuthFilePath() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), DefaultAuthFile), nil
}

// LoadAuthCredentials reads "username:hash" from path. A missing file is not
// an error: it returns nil credentials and the service runs unprotected.
func LoadAuthCredentials(path string, logger *zap.Logger) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("NO AUTH FILE FOUND - API UNPROTECTED! This is for LOCAL DEVELOPMENT ONLY. Create one with: treatment-calendar hash-password",
				zap.String("expected_file", path))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read auth file: %w", err)
	}

	line := strings.TrimSpace(string(data))
	user, hash, ok := strings.Cut(line, ":")
	if !ok || user == "" || hash == "" {
		return nil, fmt.Errorf("invalid auth file format (expected: username:hash)")
	}

	logger.Info("Token auth enabled", zap.String("user", user), zap.String("file", path))
	return &Credentials{User: user, hash: hash}, nil
}

// HashPassword returns an encoded Argon2id hash with a fresh random salt.
func HashPassword(password string) (string, error) {
	h := defaultArgon
	h.salt = make([]byte, argonSaltBytes)
	if _, err := rand.Read(h.salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	h.key = h.derive(password, argonKeyBytes)
	return h.String(), nil
}

// VerifyPassword reports whether password matches an encoded Argon2id hash.
// The hash's own parameters are used, so older hashes keep verifying.
func VerifyPassword(password, encoded string) (bool, error) {
	h, err := parseArgonHash(encoded)
	if err != nil {
		return false, err
	}
	got := h.derive(password, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(h.key, got) == 1, nil
}

// ErrAborted is returned when the user declines to replace an auth file.
var ErrAborted = errors.New("aborted")

// CreateAuthFile writes "username:hash" to path with mode 0400. When the
// file exists and overwrite is false, the user is asked on in/out.
func CreateAuthFile(path, username, password string, overwrite bool, in io.Reader, out io.Writer) error {
	if _, err := os.Stat(path); err == nil {
		if !overwrite && !confirm(in, out, fmt.Sprintf("Auth file already exists: %s\nOverwrite? (y/N): ", path)) {
			return ErrAborted
		}
		// read-only, so replace rather than truncate
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing existing auth file: %w", err)
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(username+":"+hash+"\n"), 0400); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}

	fmt.Fprintf(out, "✅ Auth file created: %s (mode: 0400 read-only)\n", path)
	fmt.Fprintf(out, "   Username: %s\n", username)
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
