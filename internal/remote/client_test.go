package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-jumpgate/internal/cache"
	"github.com/goliatone/go-jumpgate/internal/locale"
	"github.com/goliatone/go-jumpgate/internal/remote"
	"github.com/goliatone/go-jumpgate/internal/remote/remotetest"
)

const docType = "jumpgateGuideline"

func seededServer(t *testing.T) (*remotetest.Server, *remotetest.Space) {
	t.Helper()
	srv := remotetest.NewServer()
	t.Cleanup(srv.Close)

	space := srv.AddSpace("source1", "Design System", "org1")
	space.AddContentType(docType, "Guideline")
	space.AddEntry("card", docType, map[string]any{"name": "Card", "description": "Cards group content"})
	space.AddEntry("button", docType, map[string]any{
		"name":                 "Button",
		"externalReferenceUrl": "https://storybook.example.com/button",
		"previewImage":         map[string]any{"sys": map[string]any{"id": "img1", "type": "Link", "linkType": "Asset"}},
		"content": map[string]any{
			"nodeType": "document",
			"data":     map[string]any{},
			"content": []any{map[string]any{
				"nodeType": "paragraph",
				"data":     map[string]any{},
				"content":  []any{map[string]any{"nodeType": "text", "value": "Press me", "marks": []any{}, "data": map[string]any{}}},
			}},
		},
	})
	space.AddEntry("other", "article", map[string]any{"name": "Not documentation"})
	space.AddImageAsset("img1", "Button preview", "//images.example.com/button.png", 640, 480)

	srv.AddDeliveryToken("cda-token", "source1")
	srv.AddManagementToken("cma-token", remote.User{Email: "ops@example.com"})
	return srv, space
}

func TestNewExternalRejectsMalformedCredentials(t *testing.T) {
	_, err := remote.NewExternal("", "token")
	assert.ErrorIs(t, err, remote.ErrInvalidSpaceID)

	_, err = remote.NewExternal("Space With Spaces", "token")
	assert.ErrorIs(t, err, remote.ErrInvalidSpaceID)

	_, err = remote.NewExternal("abc123", " ")
	assert.ErrorIs(t, err, remote.ErrInvalidToken)

	_, err = remote.NewExternal("abc123", "tok en")
	assert.ErrorIs(t, err, remote.ErrInvalidToken)

	client, err := remote.NewExternal("  abc123 ", " token ")
	require.NoError(t, err)
	assert.Equal(t, "abc123", client.SpaceID())
	assert.Equal(t, remote.VariantExternal, client.Variant())
}

func TestExternalListEntriesRequestsDocumentationOrderedByName(t *testing.T) {
	srv, _ := seededServer(t)
	client, err := remote.NewExternal("source1", "cda-token", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)

	entries, err := client.ListEntries(context.Background(), remote.Query{
		ContentType: docType,
		Limit:       remote.DefaultListLimit,
		Order:       "fields.name",
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].Localized())

	name := remote.EntryField[string](entries[0], remote.FieldName)
	assert.Equal(t, locale.KindScalar, name.Kind())
	assert.Equal(t, "Button", name.Value("en-US"))

	reqs := srv.Requests()
	last := reqs[len(reqs)-1]
	assert.Equal(t, "/spaces/source1/environments/master/entries", last.Path)
	assert.Contains(t, last.Query, "content_type="+docType)
	assert.Contains(t, last.Query, "limit=1000")
	assert.Contains(t, last.Query, "order=fields.name")
	assert.Equal(t, "Bearer cda-token", last.Header.Get("Authorization"))
}

func TestLocalClientReturnsLocalizedFields(t *testing.T) {
	srv, _ := seededServer(t)
	client, err := remote.NewLocal("source1", "cma-token", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)

	entry, err := client.GetEntry(context.Background(), "button")
	require.NoError(t, err)
	assert.True(t, entry.Localized())
	assert.Equal(t, docType, entry.ContentTypeID())

	name := remote.EntryField[string](entry, remote.FieldName)
	assert.Equal(t, locale.KindLocalized, name.Kind())
	assert.Equal(t, "Button", name.Value("en-US"))
	_, ok := name.Resolve("de-DE")
	assert.False(t, ok)

	doc := remote.DecodeDocumentationEntry(entry, "en-US")
	assert.Equal(t, "Button", doc.DisplayName)
	assert.Equal(t, "img1", doc.PreviewAssetID)
	assert.Equal(t, "https://storybook.example.com/button", doc.PreviewURL)
	require.NotNil(t, doc.Body)
}

func TestDecodeAssetNormalisesURL(t *testing.T) {
	srv, _ := seededServer(t)
	client, err := remote.NewExternal("source1", "cda-token", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)

	asset, err := client.GetAsset(context.Background(), "img1")
	require.NoError(t, err)

	decoded := remote.DecodeAsset(asset, "en-US")
	assert.Equal(t, "https://images.example.com/button.png", decoded.URL)
	assert.Equal(t, 640, decoded.Width)
	assert.Equal(t, 480, decoded.Height)
	assert.Equal(t, "Button preview", decoded.Title)
	assert.True(t, decoded.IsImage())
}

func TestAPIErrorsMatchSentinels(t *testing.T) {
	srv, _ := seededServer(t)

	client, err := remote.NewExternal("source1", "cda-token", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)
	_, err = client.GetEntry(context.Background(), "missing")
	assert.ErrorIs(t, err, remote.ErrNotFound)
	assert.Equal(t, "NotFound", remote.ErrorCode(err))

	bad, err := remote.NewExternal("source1", "wrong", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)
	_, err = bad.GetSpace(context.Background())
	assert.ErrorIs(t, err, remote.ErrUnauthorized)
	assert.Equal(t, "AccessTokenInvalid", remote.ErrorCode(err))

	var apiErr *remote.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestResponseCacheServesRepeatedReads(t *testing.T) {
	srv, _ := seededServer(t)
	mem := cache.NewMemory(cache.DefaultConfig())
	client, err := remote.NewExternal("source1", "cda-token", remote.WithBaseURL(srv.URL), remote.WithCache(mem, 0))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		entry, err := client.GetEntry(ctx, "card")
		require.NoError(t, err)
		assert.Equal(t, "Card", remote.EntryField[string](entry, remote.FieldName).Value("en-US"))
	}
	assert.Equal(t, 1, srv.CountRequests(http.MethodGet, "/spaces/source1/environments/master/entries/card"))

	_, err = client.GetEntry(ctx, "missing")
	assert.Error(t, err)
	_, err = client.GetEntry(ctx, "missing")
	assert.Error(t, err)
	assert.Equal(t, 2, srv.CountRequests(http.MethodGet, "/spaces/source1/environments/master/entries/missing"))
}

func TestFactoryLiveExternalSkipsCache(t *testing.T) {
	srv, _ := seededServer(t)
	mem := cache.NewMemory(cache.DefaultConfig())
	factory := remote.NewFactory(nil, remote.WithBaseURL(srv.URL), remote.WithCache(mem, time.Hour))
	ctx := context.Background()
	path := "/spaces/source1/environments/master/entries/card"

	cached, err := factory.External("source1", "cda-token")
	require.NoError(t, err)
	live, err := factory.LiveExternal("source1", "cda-token")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = cached.GetEntry(ctx, "card")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, srv.CountRequests(http.MethodGet, path))

	for i := 0; i < 2; i++ {
		_, err = live.GetEntry(ctx, "card")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, srv.CountRequests(http.MethodGet, path))
}

func TestExternalClientIsReadOnly(t *testing.T) {
	client, err := remote.NewExternal("source1", "cda-token")
	require.NoError(t, err)

	_, err = client.CreateContentType(context.Background(), &remote.ContentType{Sys: remote.Sys{ID: docType}})
	assert.ErrorIs(t, err, remote.ErrReadOnly)
}

func TestManagementContentTypeLifecycle(t *testing.T) {
	srv, _ := seededServer(t)
	client, err := remote.NewLocal("source1", "cma-token", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)
	ctx := context.Background()

	created, err := client.CreateContentType(ctx, &remote.ContentType{
		Sys:          remote.Sys{ID: "pattern"},
		Name:         "Pattern",
		DisplayField: "name",
		Fields:       []remote.ContentTypeField{{ID: "name", Name: "Name", Type: "Symbol", Required: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Sys.Version)

	published, err := client.PublishContentType(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, 1, published.Sys.PublishedVersion)

	types, err := client.ListContentTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 2)

	_, err = client.PublishContentType(ctx, &remote.ContentType{Sys: remote.Sys{ID: "pattern"}})
	assert.ErrorIs(t, err, remote.ErrVersionRequired)
}

func TestManagementEditorInterfaceAndInstallation(t *testing.T) {
	srv, space := seededServer(t)
	client, err := remote.NewLocal("source1", "cma-token", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)
	ctx := context.Background()

	ei, err := client.GetEditorInterface(ctx, docType)
	require.NoError(t, err)
	ei.Editors = []remote.WidgetRef{{WidgetNamespace: "app", WidgetID: "pattern-reference"}}
	updated, err := client.UpdateEditorInterface(ctx, docType, ei)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Sys.Version)
	assert.Equal(t, "pattern-reference", space.EditorInterfaces[docType].Editors[0].WidgetID)

	params := json.RawMessage(`{"spaceType":"consumer"}`)
	_, err = client.PutAppInstallation(ctx, "app1", params)
	require.NoError(t, err)

	inst, err := client.GetAppInstallation(ctx, "app1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"spaceType":"consumer"}`, string(inst.Parameters))
}

func TestManagementEntryUpsertAndPublish(t *testing.T) {
	srv, space := seededServer(t)
	client, err := remote.NewLocal("source1", "cma-token", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)
	ctx := context.Background()

	entry, err := client.PutEntry(ctx, docType, "tabs", map[string]any{"name": map[string]any{"en-US": "Tabs"}}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Sys.Version)

	published, err := client.PublishEntry(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, 2, published.Sys.Version)
	assert.Equal(t, "Tabs", space.Entries["tabs"].Fields["name"]["en-US"])

	_, err = client.PutEntry(ctx, docType, "tabs", map[string]any{}, 1)
	assert.Error(t, err)
}

func TestAccountFlow(t *testing.T) {
	srv, _ := seededServer(t)
	account, err := remote.NewAccount("cma-token", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)
	ctx := context.Background()

	user, err := account.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", user.Email)

	space, err := account.Space(ctx, "source1")
	require.NoError(t, err)
	assert.Equal(t, "org1", space.OrganizationID())

	def, err := account.CreateAppDefinition(ctx, "org1", remote.AppDefinition{
		Name:      "Jumpgate",
		Src:       "https://jumpgate.example.com",
		Locations: []remote.AppLocation{{Location: "app-config"}, {Location: "entry-editor"}},
	})
	require.NoError(t, err)

	defs, err := account.ListAppDefinitions(ctx, "org1")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, def.Sys.ID, defs[0].Sys.ID)

	_, err = account.InstallApp(ctx, "source1", "", def.Sys.ID, nil)
	require.NoError(t, err)

	invalid, err := remote.NewAccount("nope", remote.WithBaseURL(srv.URL))
	require.NoError(t, err)
	_, err = invalid.CurrentUser(ctx)
	assert.Equal(t, "AccessTokenInvalid", remote.ErrorCode(err))
}
