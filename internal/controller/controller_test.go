package controller_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/secretshelf/secretshelf/internal/catalog"
	"github.com/secretshelf/secretshelf/internal/cerrors"
	"github.com/secretshelf/secretshelf/internal/controller"
	"github.com/secretshelf/secretshelf/internal/models"
)

// fakeRenderer records every render request.
type fakeRenderer struct {
	lists    []string
	controls [][][]catalog.Control
	texts    []string
	photos   []controller.Photo
	groups   [][]controller.Photo
	errs     []string
	photoErr error
}

func (f *fakeRenderer) List(prompt string, controls [][]catalog.Control) error {
	f.lists = append(f.lists, prompt)
	f.controls = append(f.controls, controls)
	return nil
}

func (f *fakeRenderer) Text(msg string) error {
	f.texts = append(f.texts, msg)
	return nil
}

func (f *fakeRenderer) Photo(p controller.Photo) error {
	if f.photoErr != nil {
		return f.photoErr
	}
	f.photos = append(f.photos, p)
	return nil
}

func (f *fakeRenderer) PhotoGroup(photos []controller.Photo) error {
	f.groups = append(f.groups, photos)
	return nil
}

func (f *fakeRenderer) Error(msg string) error {
	f.errs = append(f.errs, msg)
	return nil
}

// fakeStore implements store.MetadataStore over in-memory fixtures.
type fakeStore struct {
	entries   []models.StoreEntry
	listErr   error
	listCalls int
	appID     string
	appIDErr  error
}

func (f *fakeStore) AppendStoreEntry(_ context.Context, _ string, e models.StoreEntry) (models.StoreEntry, error) {
	f.entries = append(f.entries, e)
	return e, nil
}

func (f *fakeStore) ListStoreEntries(context.Context, string) ([]models.StoreEntry, error) {
	f.listCalls++
	return f.entries, f.listErr
}

func (f *fakeStore) RemoveStoreEntry(context.Context, string, string) error { return nil }

func (f *fakeStore) AppendAppID(_ context.Context, _ string, appID string) error {
	f.appID = appID
	return nil
}

func (f *fakeStore) CurrentAppID(context.Context, string) (string, error) {
	return f.appID, f.appIDErr
}

type fakePager struct {
	pages    map[int]catalog.Page
	err      error
	gotPages []int
	gotSize  int
	gotAppID string
}

func (f *fakePager) FetchPage(_ context.Context, appID string, pageIndex, pageSize int) (catalog.Page, error) {
	f.gotAppID = appID
	f.gotPages = append(f.gotPages, pageIndex)
	f.gotSize = pageSize
	if f.err != nil {
		return catalog.Page{}, f.err
	}
	return f.pages[pageIndex], nil
}

type fakeBroker struct {
	secret string
	err    error
	calls  int
}

func (f *fakeBroker) Retrieve(context.Context, string, string, string) (string, error) {
	f.calls++
	return f.secret, f.err
}

func fullPage(index, size int) catalog.Page {
	items := make([]catalog.Item, size)
	for i := range items {
		items[i] = catalog.Item{StoreID: fmt.Sprintf("id-%d", i), SecretName: fmt.Sprintf("name-%d", i)}
	}
	return catalog.Page{Items: items, Index: index, HasNext: true}
}

func newController(st *fakeStore, pager *fakePager, broker *fakeBroker, seed string) *controller.Controller {
	return controller.New(st, pager, broker, zap.NewNop(), "app-1", seed, 5)
}

func TestHandleList_NoUserSeed(t *testing.T) {
	r := &fakeRenderer{}
	pager := &fakePager{}
	newController(&fakeStore{}, pager, &fakeBroker{}, "").HandleList(context.Background(), r)

	require.Equal(t, []string{"Could not identify user"}, r.errs)
	assert.Empty(t, pager.gotPages, "no fetch without a resolvable user")
}

func TestHandleList_EmptyCatalog(t *testing.T) {
	// Scenario: the remote catalog is empty on page 0.
	r := &fakeRenderer{}
	st := &fakeStore{entries: []models.StoreEntry{{StoreID: "x", ContentType: models.ContentTypeImage}}}
	pager := &fakePager{pages: map[int]catalog.Page{0: {Items: []catalog.Item{}, Index: 0}}}

	newController(st, pager, &fakeBroker{}, "seed").HandleList(context.Background(), r)

	require.Equal(t, []string{"No stored items found."}, r.texts)
	assert.Zero(t, st.listCalls, "local-image rendering must be skipped for an empty catalog")
	assert.Empty(t, r.lists)
}

func TestHandleList_RendersPageAndThumbnails(t *testing.T) {
	thumb := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	st := &fakeStore{entries: []models.StoreEntry{
		{StoreID: "img-1", SecretName: "holiday", ContentType: models.ContentTypeImage, Thumbnail: thumb},
		{StoreID: "txt-1", SecretName: "note", ContentType: models.ContentTypeText},
	}}
	pager := &fakePager{pages: map[int]catalog.Page{0: fullPage(0, 5)}}
	r := &fakeRenderer{}

	newController(st, pager, &fakeBroker{}, "seed").HandleList(context.Background(), r)

	require.Equal(t, []string{"📋 Store IDs:"}, r.lists)
	require.Equal(t, []int{0}, pager.gotPages)
	assert.Equal(t, "app-1", pager.gotAppID)

	// Exactly one batched photo render with the cached thumbnail.
	require.Len(t, r.groups, 1)
	require.Len(t, r.groups[0], 1)
	assert.Equal(t, "ID: holiday", r.groups[0][0].Caption)
	assert.Equal(t, []byte("jpeg-bytes"), r.groups[0][0].Data)
	assert.Contains(t, r.texts, "🖼️ Your stored image thumbnails:")
}

func TestHandleList_ImagesWithoutThumbnailsListedByID(t *testing.T) {
	st := &fakeStore{entries: []models.StoreEntry{
		{StoreID: "img-1", SecretName: "one", ContentType: models.ContentTypeImage},
		{StoreID: "img-2", SecretName: "two", ContentType: models.ContentTypeImage},
	}}
	pager := &fakePager{pages: map[int]catalog.Page{0: fullPage(0, 5)}}
	r := &fakeRenderer{}

	newController(st, pager, &fakeBroker{}, "seed").HandleList(context.Background(), r)

	assert.Empty(t, r.groups)
	require.Contains(t, r.texts, "📸 Images without thumbnails:\n- img-1\n- img-2\n")
}

func TestHandleList_CatalogFailure(t *testing.T) {
	pager := &fakePager{err: fmt.Errorf("%w: boom", cerrors.ErrRemoteService)}
	r := &fakeRenderer{}

	newController(&fakeStore{}, pager, &fakeBroker{}, "seed").HandleList(context.Background(), r)

	require.Equal(t, []string{"An error occurred while listing stored items."}, r.errs)
}

func TestHandleCallback_NavigatePastEnd(t *testing.T) {
	// Scenario: page_2 returns fewer than pageSize items (zero here).
	pager := &fakePager{pages: map[int]catalog.Page{2: {Items: []catalog.Item{}, Index: 2}}}
	r := &fakeRenderer{}
	c := newController(&fakeStore{}, pager, &fakeBroker{}, "seed")

	c.HandleCallback(context.Background(), r, "page_2")

	require.Equal(t, []string{"No more items found."}, r.texts)
	assert.Empty(t, r.errs)

	// Further navigation still works.
	pager.pages[0] = fullPage(0, 5)
	c.HandleCallback(context.Background(), r, "page_0")
	require.Equal(t, []string{"📋 Store IDs:"}, r.lists)
}

func TestHandleCallback_NavigateRendersControls(t *testing.T) {
	pager := &fakePager{pages: map[int]catalog.Page{1: fullPage(1, 5)}}
	r := &fakeRenderer{}

	newController(&fakeStore{}, pager, &fakeBroker{}, "seed").HandleCallback(context.Background(), r, "page_1")

	require.Len(t, r.controls, 1)
	rows := r.controls[0]
	nav := rows[len(rows)-1]
	require.Len(t, nav, 2, "page 1 with a next page has prev and next controls")
	assert.Equal(t, "page_0", nav[0].Data)
	assert.Equal(t, "page_2", nav[1].Data)
}

func TestHandleCallback_MalformedPageToken(t *testing.T) {
	r := &fakeRenderer{}
	newController(&fakeStore{}, &fakePager{}, &fakeBroker{}, "seed").HandleCallback(context.Background(), r, "page_xyz")

	require.Equal(t, []string{"An error occurred while navigating pages."}, r.errs)
}

func TestHandleCallback_SelectUnknownStoreID(t *testing.T) {
	// Scenario: no matching local entry; no remote retrieval happens.
	broker := &fakeBroker{secret: "never"}
	r := &fakeRenderer{}

	newController(&fakeStore{}, &fakePager{}, broker, "seed").HandleCallback(context.Background(), r, "store_ghost")

	require.Equal(t, []string{"Store ID not found"}, r.errs)
	assert.Zero(t, broker.calls)
}

func TestHandleCallback_SelectTextTrumpsSniffing(t *testing.T) {
	// Scenario: metadata says text even though the payload looks like
	// an encoded image.
	st := &fakeStore{entries: []models.StoreEntry{
		{StoreID: "s1", SecretName: "note", ContentType: models.ContentTypeText},
	}}
	broker := &fakeBroker{secret: "/9j/looks-like-jpeg"}
	r := &fakeRenderer{}

	newController(st, &fakePager{}, broker, "seed").HandleCallback(context.Background(), r, "store_s1")

	require.Equal(t, []string{"Retrieved text: /9j/looks-like-jpeg"}, r.texts)
	assert.Empty(t, r.photos)
}

func TestHandleCallback_SelectImage(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("raw-image"))
	st := &fakeStore{entries: []models.StoreEntry{
		{StoreID: "s1", SecretName: "pic", ContentType: models.ContentTypeImage},
	}}
	broker := &fakeBroker{secret: payload}
	r := &fakeRenderer{}

	newController(st, &fakePager{}, broker, "seed").HandleCallback(context.Background(), r, "store_s1")

	require.Len(t, r.photos, 1)
	assert.Equal(t, "Retrieved image: pic", r.photos[0].Caption)
	assert.Equal(t, []byte("raw-image"), r.photos[0].Data)
}

func TestHandleCallback_SelectRetrievalNotFound(t *testing.T) {
	st := &fakeStore{entries: []models.StoreEntry{{StoreID: "s1", SecretName: "note"}}}
	broker := &fakeBroker{err: fmt.Errorf("no data found for this store ID: %w", cerrors.ErrNotFound)}
	r := &fakeRenderer{}

	newController(st, &fakePager{}, broker, "seed").HandleCallback(context.Background(), r, "store_s1")

	require.Equal(t, []string{"Error: no data found for this store ID"}, r.errs)
}

func TestHandleCallback_PhotoRenderFailureIsDisplayFailure(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("raw-image"))
	st := &fakeStore{entries: []models.StoreEntry{
		{StoreID: "s1", SecretName: "pic", ContentType: models.ContentTypeImage},
	}}
	broker := &fakeBroker{secret: payload}
	r := &fakeRenderer{photoErr: errors.New("corrupt image bytes")}

	newController(st, &fakePager{}, broker, "seed").HandleCallback(context.Background(), r, "store_s1")

	require.Equal(t, []string{"Error: Could not process the retrieved image"}, r.errs)
	assert.Equal(t, 1, broker.calls, "retrieval itself succeeded")
}

func TestHandleCallback_IgnoresUnknownTokensAndMissingSeed(t *testing.T) {
	r := &fakeRenderer{}
	c := newController(&fakeStore{}, &fakePager{}, &fakeBroker{}, "seed")
	c.HandleCallback(context.Background(), r, "something_else")
	assert.Empty(t, r.errs)
	assert.Empty(t, r.texts)

	c = newController(&fakeStore{}, &fakePager{}, &fakeBroker{}, "")
	c.HandleCallback(context.Background(), r, "page_0")
	assert.Empty(t, r.errs)
}

func TestHandleRetrieve_RequiresRegisteredApp(t *testing.T) {
	broker := &fakeBroker{secret: "value"}
	r := &fakeRenderer{}

	newController(&fakeStore{}, &fakePager{}, broker, "seed").HandleRetrieve(context.Background(), r, "s1", "name")

	require.Equal(t, []string{"Please create an account first"}, r.errs)
	assert.Zero(t, broker.calls)
}

func TestHandleRetrieve_SniffsWithoutMetadata(t *testing.T) {
	st := &fakeStore{appID: "app-1"}

	t.Run("image signature", func(t *testing.T) {
		r := &fakeRenderer{}
		broker := &fakeBroker{secret: "iVBORw0KGgo="}
		newController(st, &fakePager{}, broker, "seed").HandleRetrieve(context.Background(), r, "s1", "pic")
		require.Len(t, r.photos, 1)
		assert.Equal(t, "Retrieved image: pic", r.photos[0].Caption)
	})

	t.Run("plain text", func(t *testing.T) {
		r := &fakeRenderer{}
		broker := &fakeBroker{secret: "just text"}
		newController(st, &fakePager{}, broker, "seed").HandleRetrieve(context.Background(), r, "s1", "note")
		require.Equal(t, []string{"Retrieved text: just text"}, r.texts)
	})
}
