package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "plan.pdf", "application/pdf", strings.NewReader("%PDF-1.4"), 8))

	rc, contentType, err := store.Open(ctx, "plan.pdf")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "%PDF-1.4", string(body))
	require.Equal(t, "application/pdf", contentType)

	require.NoError(t, store.Delete(ctx, "plan.pdf"))
	_, _, err = store.Open(ctx, "plan.pdf")
	require.ErrorIs(t, err, ErrNotExist)
	require.ErrorIs(t, store.Delete(ctx, "plan.pdf"), ErrNotExist)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../etc/passwd", "a/b.png", "", ".hidden"} {
		_, _, err := store.Open(context.Background(), name)
		require.ErrorIs(t, err, ErrNotExist, name)
	}
}
