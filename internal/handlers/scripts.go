// Package handlers implements the HTTP handlers: script lifecycle
// endpoints, the health check, and the index page.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"scriptvault/internal/contextutil"
	"scriptvault/internal/vault"
)

// Body cap for JSON endpoints. Scripts run up to 50000 characters, so
// the cap leaves headroom for the JSON envelope.
const maxRequestBytes = 64 << 10

// Plain-text body served when a script link does not resolve.
const scriptNotFoundBody = "-- Invalid or expired script link!"

// ScriptsHandler serves the script lifecycle endpoints.
type ScriptsHandler struct {
	svc    vault.Service
	logger *slog.Logger
}

// NewScriptsHandler creates a new ScriptsHandler.
func NewScriptsHandler(svc vault.Service) *ScriptsHandler {
	return &ScriptsHandler{
		svc:    svc,
		logger: slog.Default(),
	}
}

// GenerateRequest is the payload for creating a protected script link.
type GenerateRequest struct {
	Script string `json:"script"`
	UserID string `json:"userId"`
}

// GenerateResponse carries the loadstring snippet callers paste into
// their game.
type GenerateResponse struct {
	Loadstring string `json:"loadstring"`
	ID         string `json:"id"`
}

// DuplicateResponse is returned when the owner already stores the same
// script; it points at the existing link instead of minting a new one.
type DuplicateResponse struct {
	Error      string `json:"error"`
	Loadstring string `json:"loadstring"`
	ID         string `json:"id"`
}

// OwnerRequest identifies the caller on list and delete endpoints.
type OwnerRequest struct {
	UserID string `json:"userId"`
}

// UpdateRequest is the payload for replacing a script body.
type UpdateRequest struct {
	Script string `json:"script"`
	UserID string `json:"userId"`
}

// ScriptView is one entry in a my-scripts listing.
type ScriptView struct {
	ID           string     `json:"id"`
	Script       string     `json:"script"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	AccessCount  int64      `json:"accessCount"`
	LastAccessed *time.Time `json:"lastAccessed,omitempty"`
	Loadstring   string     `json:"loadstring"`
}

// MessageResponse acknowledges a mutation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// requestBaseURL reconstructs the externally visible base URL of the
// request, honoring the proxy protocol header.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// loadstringFor builds the snippet a Roblox client executes to pull the
// script with the given id.
func loadstringFor(baseURL, id string) string {
	return fmt.Sprintf("loadstring(game:HttpGet(%q))()", baseURL+"/script.lua?id="+id)
}

// Generate handles POST /generate.
func (h *ScriptsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req GenerateRequest
	if err := h.decode(w, r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.svc.CreateScript(ctx, req.UserID, req.Script)
	if err != nil {
		var dup *vault.DuplicateError
		if errors.As(err, &dup) {
			h.writeJSON(w, http.StatusBadRequest, DuplicateResponse{
				Error:      "You already saved this script",
				Loadstring: loadstringFor(requestBaseURL(r), dup.ExistingID),
				ID:         dup.ExistingID,
			})
			return
		}
		h.handleServiceError(w, ctx, err, "Failed to store script")
		return
	}

	logger.InfoContext(ctx, "script stored", "id", rec.ID, "owner", rec.OwnerID)
	h.writeJSON(w, http.StatusOK, GenerateResponse{
		Loadstring: loadstringFor(requestBaseURL(r), rec.ID),
		ID:         rec.ID,
	})
}

// Fetch handles GET /script.lua. The client gate middleware has already
// rejected non-allow-listed user agents by the time this runs.
func (h *ScriptsHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		h.writePlain(w, http.StatusNotFound, scriptNotFoundBody)
		return
	}

	body, err := h.svc.FetchScript(ctx, id)
	if errors.Is(err, vault.ErrNotFound) {
		h.writePlain(w, http.StatusNotFound, scriptNotFoundBody)
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to fetch script", "id", id, "error", err)
		h.writePlain(w, http.StatusInternalServerError, "-- Failed to load script")
		return
	}

	h.writePlain(w, http.StatusOK, body)
}

// List handles POST /my-scripts.
func (h *ScriptsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req OwnerRequest
	if err := h.decode(w, r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	records, err := h.svc.ListOwnerScripts(ctx, req.UserID)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to list scripts")
		return
	}

	base := requestBaseURL(r)
	views := make([]ScriptView, 0, len(records))
	for _, rec := range records {
		views = append(views, ScriptView{
			ID:           rec.ID,
			Script:       rec.Body,
			CreatedAt:    rec.CreatedAt,
			UpdatedAt:    rec.UpdatedAt,
			AccessCount:  rec.AccessCount,
			LastAccessed: rec.LastAccessedAt,
			Loadstring:   loadstringFor(base, rec.ID),
		})
	}
	h.writeJSON(w, http.StatusOK, views)
}

// Update handles POST /my-scripts/{id}.
func (h *ScriptsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := chi.URLParam(r, "id")

	var req UpdateRequest
	if err := h.decode(w, r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := h.svc.UpdateScript(ctx, id, req.UserID, req.Script); err != nil {
		var dup *vault.DuplicateError
		if errors.As(err, &dup) {
			h.writeError(w, http.StatusBadRequest, "You already saved this script")
			return
		}
		h.handleServiceError(w, ctx, err, "Failed to update script")
		return
	}

	logger.InfoContext(ctx, "script updated", "id", id)
	h.writeJSON(w, http.StatusOK, MessageResponse{Message: "Script updated successfully"})
}

// Delete handles DELETE /my-scripts/{id}.
func (h *ScriptsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := chi.URLParam(r, "id")

	var req OwnerRequest
	if err := h.decode(w, r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.svc.DeleteScript(ctx, id, req.UserID); err != nil {
		h.handleServiceError(w, ctx, err, "Failed to delete script")
		return
	}

	logger.InfoContext(ctx, "script deleted", "id", id)
	h.writeJSON(w, http.StatusOK, MessageResponse{Message: "Script deleted successfully"})
}

// decode reads a JSON body with the request size cap applied.
func (h *ScriptsHandler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// handleServiceError maps vault errors to HTTP status codes.
func (h *ScriptsHandler) handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	var verr *vault.ValidationError
	if errors.As(err, &verr) {
		h.writeError(w, http.StatusBadRequest, verr.Message)
		return
	}
	var lerr *vault.LimitError
	if errors.As(err, &lerr) {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Maximum %d scripts allowed per user", lerr.Max))
		return
	}
	if errors.Is(err, vault.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Script not found")
		return
	}
	if errors.Is(err, vault.ErrForbidden) {
		h.writeError(w, http.StatusForbidden, "You do not own this script")
		return
	}

	logger.ErrorContext(ctx, "service error", "error", err)
	h.writeError(w, http.StatusInternalServerError, defaultMsg)
}

// writeJSON writes a JSON response.
func (h *ScriptsHandler) writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes an error response.
func (h *ScriptsHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	h.writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// writePlain writes a text/plain response.
func (h *ScriptsHandler) writePlain(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}
