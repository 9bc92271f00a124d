// Package retrieve fetches raw secrets from the remote secret service
// and classifies payloads for display.
package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/secretshelf/secretshelf/internal/cerrors"
	"github.com/secretshelf/secretshelf/internal/models"
)

// Broker retrieves secrets from the remote secret-retrieval endpoint.
type Broker struct {
	client  *http.Client
	baseURL string
}

// NewBroker creates a Broker talking to the service at baseURL.
func NewBroker(client *http.Client, baseURL string) *Broker {
	return &Broker{client: client, baseURL: baseURL}
}

// Retrieve fetches the raw secret stored under storeID. The payload is
// returned as the service transports it (base64 text for images).
func (b *Broker) Retrieve(ctx context.Context, storeID, secretName, userSeed string) (string, error) {
	u := fmt.Sprintf("%s/api/secret/retrieve/%s?retrieve_as_nillion_user_seed=%s&secret_name=%s",
		b.baseURL, url.PathEscape(storeID), url.QueryEscape(userSeed), url.QueryEscape(secretName))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build retrieve request: %v", cerrors.ErrRemoteService, err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: retrieve secret: %v", cerrors.ErrRemoteService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: secret service returned status %d", cerrors.ErrRemoteService, resp.StatusCode)
	}

	var result struct {
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decode retrieve response: %v", cerrors.ErrRemoteService, err)
	}

	if result.Secret == "" {
		return "", fmt.Errorf("no data found for this store ID: %w", cerrors.ErrNotFound)
	}
	return result.Secret, nil
}

// SniffContentType classifies a raw payload by its base64 leading
// signature: JPEG ("/9j/") and PNG ("iVBOR") payloads are images,
// everything else is text. This is a fallback heuristic for entries
// with no recorded content type; the result is never persisted.
func SniffContentType(secret string) models.ContentType {
	if strings.HasPrefix(secret, "/9j/") || strings.HasPrefix(secret, "iVBOR") {
		return models.ContentTypeImage
	}
	return models.ContentTypeText
}
