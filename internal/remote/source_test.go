package remote_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-jumpgate/internal/remote"
)

func sourceConfig() remote.SourceConfig {
	return remote.SourceConfig{ContentTypeID: docType, DefaultLocale: "en-US"}
}

func TestSourceListsDocumentationForBothVariants(t *testing.T) {
	srv, _ := seededServer(t)
	local, err := remote.NewLocal("source1", "cma-token", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)
	external, err := remote.NewExternal("source1", "cda-token", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)

	for _, api := range []remote.API{local, external} {
		entries := remote.NewSource(api, sourceConfig(), nil).ListDocumentationEntries(context.Background())
		require.Len(t, entries, 2, "variant %s", api.Variant())
		assert.Equal(t, "Button", entries[0].DisplayName)
		assert.Equal(t, "Card", entries[1].DisplayName)
		assert.Equal(t, "Cards group content", entries[1].ShortDescription)
	}
}

func TestSourceListFailsSoft(t *testing.T) {
	srv, _ := seededServer(t)
	bad, err := remote.NewExternal("source1", "revoked", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)

	entries := remote.NewSource(bad, sourceConfig(), nil).ListDocumentationEntries(context.Background())
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	srv.FailPath("/spaces/source1/environments/master/entries", http.StatusInternalServerError)
	local, err := remote.NewLocal("source1", "cma-token", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)
	entries = remote.NewSource(local, sourceConfig(), nil).ListDocumentationEntries(context.Background())
	assert.Empty(t, entries)
}

func TestSourceLookupsReturnNotFound(t *testing.T) {
	srv, _ := seededServer(t)
	external, err := remote.NewExternal("source1", "cda-token", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)
	src := remote.NewSource(external, sourceConfig(), nil)
	ctx := context.Background()

	entry, ok := src.GetDocumentationEntry(ctx, "missing")
	assert.False(t, ok)
	assert.Nil(t, entry)

	asset, ok := src.GetAsset(ctx, "missing")
	assert.False(t, ok)
	assert.Nil(t, asset)

	_, ok = src.GetDocumentationEntry(ctx, "")
	assert.False(t, ok)

	entry, ok = src.GetDocumentationEntry(ctx, "button")
	require.True(t, ok)
	assert.Equal(t, "Button", entry.DisplayName)

	asset, ok = src.GetAsset(ctx, "img1")
	require.True(t, ok)
	assert.Equal(t, "img1", asset.ID)
}

func TestSourceLookupsFailSoftOnNetworkErrors(t *testing.T) {
	srv, _ := seededServer(t)
	external, err := remote.NewExternal("source1", "cda-token", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)
	srv.Close()

	src := remote.NewSource(external, sourceConfig(), nil)
	ctx := context.Background()
	_, ok := src.GetDocumentationEntry(ctx, "button")
	assert.False(t, ok)
	_, ok = src.GetAsset(ctx, "img1")
	assert.False(t, ok)
	assert.Empty(t, src.ListDocumentationEntries(ctx))
}

func TestEmptySource(t *testing.T) {
	src := remote.EmptySource()
	assert.Empty(t, src.ListDocumentationEntries(context.Background()))
	_, ok := src.GetDocumentationEntry(context.Background(), "x")
	assert.False(t, ok)
}

func TestFactory(t *testing.T) {
	f := remote.NewFactory(nil)
	_, err := f.Local()
	assert.ErrorIs(t, err, remote.ErrNoLocalClient)

	client, err := f.External("abc", "tok")
	require.NoError(t, err)
	assert.Equal(t, remote.VariantExternal, client.Variant())
}
