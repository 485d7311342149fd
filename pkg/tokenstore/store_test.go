package tokenstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragonlab/mimokit/pkg/tokenstore"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := tokenstore.NewMemoryStore()

	_, err := s.Token(ctx)
	assert.ErrorIs(t, err, tokenstore.ErrNoToken)

	require.NoError(t, s.SetToken(ctx, "bearer-abc"))
	got, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bearer-abc", got)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Token(ctx)
	assert.ErrorIs(t, err, tokenstore.ErrNoToken)
}

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token.sealed")

	s, err := tokenstore.NewFileStore(path, []byte("app-secret"))
	require.NoError(t, err)

	_, err = s.Token(ctx)
	assert.ErrorIs(t, err, tokenstore.ErrNoToken)

	require.NoError(t, s.SetToken(ctx, "bearer-xyz"))

	// Token must not appear in plaintext on disk.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "bearer-xyz")

	got, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bearer-xyz", got)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Token(ctx)
	assert.ErrorIs(t, err, tokenstore.ErrNoToken)
	// Clearing twice is fine.
	require.NoError(t, s.Clear(ctx))
}

func TestFileStore_WrongSecret(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token.sealed")

	s1, err := tokenstore.NewFileStore(path, []byte("secret-one"))
	require.NoError(t, err)
	require.NoError(t, s1.SetToken(ctx, "bearer-abc"))

	s2, err := tokenstore.NewFileStore(path, []byte("secret-two"))
	require.NoError(t, err)
	_, err = s2.Token(ctx)
	assert.ErrorIs(t, err, tokenstore.ErrUnsealFailed)
}

func TestNewFileStore_Validation(t *testing.T) {
	t.Parallel()

	_, err := tokenstore.NewFileStore("", []byte("secret"))
	assert.ErrorIs(t, err, tokenstore.ErrInvalidPath)

	_, err = tokenstore.NewFileStore("/tmp/x", nil)
	assert.ErrorIs(t, err, tokenstore.ErrEmptySecret)
}
