package tokenstore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize = 16

	// argon2id parameters; moderate cost since sealing happens once per
	// login, not per request.
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// FileStore persists the bearer token sealed at rest. The token is encrypted
// with AES-GCM under a key derived from the application secret with argon2id;
// the salt and nonce are stored alongside the ciphertext:
//
//	salt (16) || nonce (12) || ciphertext+tag
//
// All methods are safe for concurrent use.
type FileStore struct {
	path   string
	secret []byte
	mu     sync.Mutex
}

// NewFileStore creates a sealed token store at path. The secret is the
// application-level key material the sealing key is derived from; it must not
// be empty.
func NewFileStore(path string, secret []byte) (*FileStore, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &FileStore{path: path, secret: secret}, nil
}

func (s *FileStore) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", errors.Join(ErrUnsealFailed, err)
	}

	token, err := s.unseal(blob)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *FileStore) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.seal(token)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Join(ErrSealFailed, err)
	}
	if err := os.WriteFile(s.path, blob, 0o600); err != nil {
		return errors.Join(ErrSealFailed, err)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) seal(token string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, errors.Join(ErrSealFailed, err)
	}

	aead, err := s.aead(salt)
	if err != nil {
		return nil, errors.Join(ErrSealFailed, err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrSealFailed, err)
	}

	blob := make([]byte, 0, saltSize+len(nonce)+len(token)+aead.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = aead.Seal(blob, nonce, []byte(token), nil)
	return blob, nil
}

func (s *FileStore) unseal(blob []byte) (string, error) {
	if len(blob) < saltSize {
		return "", ErrUnsealFailed
	}
	salt, rest := blob[:saltSize], blob[saltSize:]

	aead, err := s.aead(salt)
	if err != nil {
		return "", errors.Join(ErrUnsealFailed, err)
	}

	if len(rest) < aead.NonceSize() {
		return "", ErrUnsealFailed
	}
	nonce, ciphertext := rest[:aead.NonceSize()], rest[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrUnsealFailed
	}
	return string(plaintext), nil
}

func (s *FileStore) aead(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(s.secret, salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
