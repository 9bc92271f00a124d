// Package controller orchestrates catalog paging, local metadata, and
// secret retrieval in response to list requests and callback events.
// It is presentation-agnostic: all output goes through the Renderer
// boundary, and every error is converted into a user-visible message
// here rather than crashing the process.
package controller

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/secretshelf/secretshelf/internal/catalog"
	"github.com/secretshelf/secretshelf/internal/cerrors"
	"github.com/secretshelf/secretshelf/internal/models"
	"github.com/secretshelf/secretshelf/internal/retrieve"
	"github.com/secretshelf/secretshelf/internal/store"
)

// Callback token prefixes delivered back from the presentation layer.
const (
	pageTokenPrefix  = "page_"
	storeTokenPrefix = "store_"
)

// Photo is an image payload handed to the presentation layer.
type Photo struct {
	Data    []byte
	Caption string
}

// Renderer is the presentation boundary. The messaging front end turns
// these abstract requests into actual chat messages and controls.
type Renderer interface {
	// List renders a prompt with rows of selectable controls.
	List(prompt string, controls [][]catalog.Control) error
	// Text renders a plain text message.
	Text(msg string) error
	// Photo renders a single captioned photo.
	Photo(p Photo) error
	// PhotoGroup renders a batch of captioned photos.
	PhotoGroup(photos []Photo) error
	// Error renders a user-visible failure message.
	Error(msg string) error
}

// Pager fetches one page of the remote catalog.
type Pager interface {
	FetchPage(ctx context.Context, appID string, pageIndex, pageSize int) (catalog.Page, error)
}

// Broker retrieves a raw secret from the remote service.
type Broker interface {
	Retrieve(ctx context.Context, storeID, secretName, userSeed string) (string, error)
}

// Controller owns the list / navigate / select state transitions.
// Each handled event is independent; the machine always returns to
// idle once the event's output has been rendered.
type Controller struct {
	store    store.MetadataStore
	pager    Pager
	broker   Broker
	log      *zap.Logger
	appID    string
	userSeed string
	pageSize int
}

// New constructs a Controller. userSeed is the stable per-user seed the
// user key is derived from; an empty seed means the user cannot be
// identified.
func New(st store.MetadataStore, pager Pager, broker Broker, log *zap.Logger, appID, userSeed string, pageSize int) *Controller {
	return &Controller{
		store:    st,
		pager:    pager,
		broker:   broker,
		log:      log,
		appID:    appID,
		userSeed: userSeed,
		pageSize: pageSize,
	}
}

// userKey derives the metadata partition key from the user seed.
func (c *Controller) userKey() string { return c.userSeed }

// HandleList handles the initial list request: it renders page 0 of the
// remote catalog and, separately, the user's locally cached image
// thumbnails.
func (c *Controller) HandleList(ctx context.Context, r Renderer) {
	if c.userSeed == "" {
		_ = r.Error("Could not identify user")
		return
	}

	page, err := c.pager.FetchPage(ctx, c.appID, 0, c.pageSize)
	if err != nil {
		c.log.Error("failed to fetch catalog page", zap.Int("page", 0), zap.Error(err))
		_ = r.Error("An error occurred while listing stored items.")
		return
	}

	if len(page.Items) == 0 {
		_ = r.Text("No stored items found.")
		return
	}

	if err := r.List("📋 Store IDs:", page.Controls()); err != nil {
		c.log.Error("failed to render catalog page", zap.Error(err))
		return
	}

	c.renderLocalThumbnails(ctx, r)
}

// renderLocalThumbnails cross-references local metadata and renders all
// cached image thumbnails as one batch, then lists image entries that
// have no thumbnail by id.
func (c *Controller) renderLocalThumbnails(ctx context.Context, r Renderer) {
	entries, err := c.store.ListStoreEntries(ctx, c.userKey())
	if err != nil {
		c.log.Error("failed to list store entries", zap.Error(err))
		_ = r.Error("An error occurred while listing stored items.")
		return
	}

	var images []models.StoreEntry
	for _, e := range entries {
		if e.ContentType == models.ContentTypeImage {
			images = append(images, e)
		}
	}
	if len(images) == 0 {
		return
	}

	_ = r.Text("🖼️ Your stored image thumbnails:")

	var group []Photo
	var withoutThumbnails []models.StoreEntry
	for _, img := range images {
		if img.Thumbnail == "" {
			withoutThumbnails = append(withoutThumbnails, img)
			continue
		}
		data, err := base64.StdEncoding.DecodeString(img.Thumbnail)
		if err != nil {
			c.log.Warn("dropping undecodable thumbnail", zap.String("store_id", img.StoreID), zap.Error(err))
			withoutThumbnails = append(withoutThumbnails, img)
			continue
		}
		group = append(group, Photo{Data: data, Caption: "ID: " + img.SecretName})
	}

	if len(group) > 0 {
		if err := r.PhotoGroup(group); err != nil {
			c.log.Error("failed to render thumbnail group", zap.Error(err))
		}
	}

	if len(withoutThumbnails) > 0 {
		var sb strings.Builder
		sb.WriteString("📸 Images without thumbnails:\n")
		for _, img := range withoutThumbnails {
			fmt.Fprintf(&sb, "- %s\n", img.StoreID)
		}
		_ = r.Text(sb.String())
	}
}

// HandleCallback handles a callback event carrying an opaque action
// token: "page_<n>" navigates, "store_<id>" selects an item. Unknown
// tokens are ignored.
func (c *Controller) HandleCallback(ctx context.Context, r Renderer, data string) {
	if c.userSeed == "" {
		return
	}

	switch {
	case strings.HasPrefix(data, pageTokenPrefix):
		c.handleNavigate(ctx, r, strings.TrimPrefix(data, pageTokenPrefix))
	case strings.HasPrefix(data, storeTokenPrefix):
		c.handleSelect(ctx, r, strings.TrimPrefix(data, storeTokenPrefix))
	}
}

// handleNavigate re-fetches the target page. An empty page means the
// user navigated past the end; it is reported without breaking further
// navigation attempts.
func (c *Controller) handleNavigate(ctx context.Context, r Renderer, token string) {
	page, err := strconv.Atoi(token)
	if err != nil || page < 0 {
		c.log.Warn("malformed page token", zap.String("token", token))
		_ = r.Error("An error occurred while navigating pages.")
		return
	}

	result, err := c.pager.FetchPage(ctx, c.appID, page, c.pageSize)
	if err != nil {
		c.log.Error("failed to fetch catalog page", zap.Int("page", page), zap.Error(err))
		_ = r.Error("An error occurred while navigating pages.")
		return
	}

	if len(result.Items) == 0 {
		_ = r.Text("No more items found.")
		return
	}

	_ = r.List("📋 Store IDs:", result.Controls())
}

// handleSelect looks up local metadata for the chosen store id,
// retrieves the secret, and dispatches it by content type.
func (c *Controller) handleSelect(ctx context.Context, r Renderer, storeID string) {
	entries, err := c.store.ListStoreEntries(ctx, c.userKey())
	if err != nil {
		c.log.Error("failed to list store entries", zap.Error(err))
		_ = r.Error("An error occurred while retrieving the item.")
		return
	}

	var selected *models.StoreEntry
	for i := range entries {
		if entries[i].StoreID == storeID {
			selected = &entries[i]
			break
		}
	}
	if selected == nil {
		_ = r.Error("Store ID not found")
		return
	}

	secret, err := c.broker.Retrieve(ctx, storeID, selected.SecretName, c.userSeed)
	if err != nil {
		if errors.Is(err, cerrors.ErrNotFound) {
			_ = r.Error("Error: no data found for this store ID")
			return
		}
		c.log.Error("failed to retrieve secret", zap.String("store_id", storeID), zap.Error(err))
		_ = r.Error("An error occurred while retrieving the item.")
		return
	}

	c.dispatch(r, secret, selected.SecretName, selected.ContentType)
}

// HandleRetrieve is the direct retrieval entry point: it bypasses the
// catalog, requiring only a store id and secret name. The payload's
// content type is sniffed because no local metadata is consulted.
func (c *Controller) HandleRetrieve(ctx context.Context, r Renderer, storeID, secretName string) {
	if c.userSeed == "" {
		_ = r.Error("Could not identify user")
		return
	}

	appID, err := c.store.CurrentAppID(ctx, c.userKey())
	if err != nil {
		c.log.Error("failed to look up app id", zap.Error(err))
		_ = r.Error("An error occurred while retrieving the item.")
		return
	}
	if appID == "" {
		_ = r.Error("Please create an account first")
		return
	}

	secret, err := c.broker.Retrieve(ctx, storeID, secretName, c.userSeed)
	if err != nil {
		if errors.Is(err, cerrors.ErrNotFound) {
			_ = r.Error("Error: no data found for this store ID")
			return
		}
		c.log.Error("failed to retrieve secret", zap.String("store_id", storeID), zap.Error(err))
		_ = r.Error("An error occurred while retrieving the item.")
		return
	}

	c.dispatch(r, secret, secretName, "")
}

// dispatch renders the retrieved payload. Local metadata's content type
// wins; sniffing is only a fallback when no type was recorded. A failed
// photo render is reported as a display failure, never as a failed
// retrieval.
func (c *Controller) dispatch(r Renderer, secret, secretName string, contentType models.ContentType) {
	if contentType == "" {
		contentType = retrieve.SniffContentType(secret)
	}

	if contentType == models.ContentTypeImage {
		data, err := base64.StdEncoding.DecodeString(secret)
		if err != nil {
			c.log.Error("retrieved image payload is not valid base64",
				zap.Error(fmt.Errorf("%w: %v", cerrors.ErrRender, err)))
			_ = r.Error("Error: Could not process the retrieved image")
			return
		}
		if err := r.Photo(Photo{Data: data, Caption: "Retrieved image: " + secretName}); err != nil {
			c.log.Error("failed to render retrieved image",
				zap.Error(fmt.Errorf("%w: %v", cerrors.ErrRender, err)))
			_ = r.Error("Error: Could not process the retrieved image")
		}
		return
	}

	_ = r.Text("Retrieved text: " + secret)
}
