// ABOUTME: HTTP handlers for the access-level query, content metadata and health
// ABOUTME: JSON responses; store failures map to 503, never to a silent anonymous

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openlumi/wpgate/internal/auth"
	"github.com/openlumi/wpgate/internal/wpdb"
)

// ContentGetter is the narrow read the content route needs. The
// shared-state server implements it over its LRU cache.
type ContentGetter interface {
	Content(ctx context.Context, contentID string) (*wpdb.Content, error)
}

// Handlers bundles the route handlers and their dependencies.
type Handlers struct {
	Contents ContentGetter
	Caps     *auth.CapabilityCache
	logger   *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(contents ContentGetter, caps *auth.CapabilityCache) *Handlers {
	return &Handlers{
		Contents: contents,
		Caps:     caps,
		logger:   slog.Default().With("component", "http"),
	}
}

// authDataResponse is the payload of the access-level query endpoint.
// UserID is omitted for anonymous callers.
type authDataResponse struct {
	Level  string `json:"level"`
	UserID string `json:"userId,omitempty"`
}

// AuthData answers the access-level query for a piece of content. Mounted
// with optional auth: an anonymous caller receives {"level":"anonymous"}.
func (h *Handlers) AuthData(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentId")
	identity := auth.IdentityFromContext(r.Context())

	resp := authDataResponse{Level: auth.LevelFor(identity, contentID).String()}
	if !identity.IsAnonymous() {
		resp.UserID = identity.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// contentResponse is the payload of the content metadata route.
type contentResponse struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Library    string          `json:"library"`
	EmbedTypes []string        `json:"embedTypes"`
	Parameters json.RawMessage `json:"parameters"`
}

// Content serves metadata for a single content ID to authenticated callers.
func (h *Handlers) Content(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentId")

	c, err := h.Contents.Content(r.Context(), contentID)
	if errors.Is(err, wpdb.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "content not found"})
		return
	}
	if err != nil {
		h.logger.Error("content lookup failed", "content_id", contentID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "content store unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, contentResponse{
		ID:         c.ID,
		Title:      c.Title,
		Library:    c.Library,
		EmbedTypes: c.EmbedTypes,
		Parameters: json.RawMessage(c.Parameters),
	})
}

// Health reports liveness and whether the capability cache holds data.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":          "ok",
		"capability_data": h.Caps.Ready(),
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
