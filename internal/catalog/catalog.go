// Package catalog fetches pages of the remote store catalog and derives
// pagination state and selectable controls from them.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/secretshelf/secretshelf/internal/cerrors"
	"github.com/secretshelf/secretshelf/internal/models"
)

// Item is one catalog row returned by the remote service.
type Item struct {
	StoreID    string `json:"store_id"`
	SecretName string `json:"secret_name"`
	// ContentType is a hint from the remote service; may be empty.
	ContentType models.ContentType `json:"content_type,omitempty"`
}

// Page is the transient result of one catalog fetch. It is discarded
// after rendering or cross-referencing with local metadata.
type Page struct {
	// Items in the order the remote service returned them.
	Items []Item
	// Index is the 0-indexed page number that was fetched.
	Index int
	// HasNext is a heuristic: true iff the service returned a full page.
	// A full last page therefore still advertises a next page.
	HasNext bool
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Index > 0 }

// Control is one selectable element offered to the presentation layer.
// Data is the opaque callback token delivered back on selection.
type Control struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Controls lays out the page as rows of controls: one row per item,
// keyed "store_<id>", then a navigation row with "page_<n>" tokens.
// Item order is preserved from the remote response.
func (p Page) Controls() [][]Control {
	rows := make([][]Control, 0, len(p.Items)+1)
	for _, item := range p.Items {
		rows = append(rows, []Control{{Label: item.SecretName, Data: "store_" + item.StoreID}})
	}

	var nav []Control
	if p.HasPrev() {
		nav = append(nav, Control{Label: "⬅️ Previous", Data: "page_" + strconv.Itoa(p.Index-1)})
	}
	if p.HasNext {
		nav = append(nav, Control{Label: "➡️ Next", Data: "page_" + strconv.Itoa(p.Index+1)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return rows
}

// Pager fetches catalog pages from the remote storage API.
type Pager struct {
	client  *http.Client
	baseURL string
}

// NewPager creates a Pager talking to the service at baseURL.
func NewPager(client *http.Client, baseURL string) *Pager {
	return &Pager{client: client, baseURL: baseURL}
}

// FetchPage retrieves one page of the catalog for appID. pageIndex is
// 0-indexed; the remote API counts pages from 1. An empty page is a
// valid outcome meaning "no items" or "past the last page".
func (p *Pager) FetchPage(ctx context.Context, appID string, pageIndex, pageSize int) (Page, error) {
	u := fmt.Sprintf("%s/api/apps/%s/store_ids?page=%d&page_size=%d",
		p.baseURL, url.PathEscape(appID), pageIndex+1, pageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Page{}, fmt.Errorf("%w: build catalog request: %v", cerrors.ErrRemoteService, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("%w: fetch catalog page: %v", cerrors.ErrRemoteService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("%w: catalog returned status %d", cerrors.ErrRemoteService, resp.StatusCode)
	}

	var result struct {
		StoreIDs []Item `json:"store_ids"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Page{}, fmt.Errorf("%w: decode catalog response: %v", cerrors.ErrRemoteService, err)
	}

	items := result.StoreIDs
	if items == nil {
		items = []Item{}
	}

	return Page{
		Items:   items,
		Index:   pageIndex,
		HasNext: len(items) == pageSize,
	}, nil
}
