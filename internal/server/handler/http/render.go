// Package http adapts the broker core to an HTTP presentation boundary:
// controller entry points become endpoints, and abstract render requests
// become the JSON response body.
package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/secretshelf/secretshelf/internal/catalog"
	"github.com/secretshelf/secretshelf/internal/controller"
)

// renderOp is one render request emitted by the core, serialized for
// the front end to replay as an actual chat message.
type renderOp struct {
	// Type is "list", "text", "photo", "photo_group", or "error".
	Type     string              `json:"type"`
	Prompt   string              `json:"prompt,omitempty"`
	Controls [][]catalog.Control `json:"controls,omitempty"`
	Text     string              `json:"text,omitempty"`
	Photos   []photoPayload      `json:"photos,omitempty"`
}

type photoPayload struct {
	// Data is the base64-encoded image bytes.
	Data    string `json:"data"`
	Caption string `json:"caption"`
}

// collector implements controller.Renderer by accumulating render
// operations for a single interaction.
type collector struct {
	ops []renderOp
}

func (c *collector) List(prompt string, controls [][]catalog.Control) error {
	c.ops = append(c.ops, renderOp{Type: "list", Prompt: prompt, Controls: controls})
	return nil
}

func (c *collector) Text(msg string) error {
	c.ops = append(c.ops, renderOp{Type: "text", Text: msg})
	return nil
}

func (c *collector) Photo(p controller.Photo) error {
	c.ops = append(c.ops, renderOp{Type: "photo", Photos: []photoPayload{encodePhoto(p)}})
	return nil
}

func (c *collector) PhotoGroup(photos []controller.Photo) error {
	encoded := make([]photoPayload, 0, len(photos))
	for _, p := range photos {
		encoded = append(encoded, encodePhoto(p))
	}
	c.ops = append(c.ops, renderOp{Type: "photo_group", Photos: encoded})
	return nil
}

func (c *collector) Error(msg string) error {
	c.ops = append(c.ops, renderOp{Type: "error", Text: msg})
	return nil
}

func encodePhoto(p controller.Photo) photoPayload {
	return photoPayload{
		Data:    base64.StdEncoding.EncodeToString(p.Data),
		Caption: p.Caption,
	}
}

// flush writes the collected render operations as the JSON response.
func (c *collector) flush(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"renders": c.ops})
}
