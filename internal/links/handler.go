package links

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/linkcut/linkcut/internal/errx"
	"github.com/linkcut/linkcut/internal/httpx"
)

// timestampLayout renders canonical UTC timestamps: millisecond precision,
// explicit Z marker.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// HTTPCreateLinkRequest represents the JSON request body for creating a link.
type HTTPCreateLinkRequest struct {
	LongURL    string `json:"longUrl"`
	CustomCode string `json:"customCode,omitempty"`
}

// CreateLinkResponse represents the JSON response for a created link.
type CreateLinkResponse struct {
	Code      string `json:"code"`
	LongURL   string `json:"longUrl"`
	ShortURL  string `json:"shortUrl"`
	CreatedAt string `json:"createdAt"`
	Existed   bool   `json:"existed"`
}

// LinkListItem represents one entry in the list-all response.
type LinkListItem struct {
	Code        string  `json:"code"`
	LongURL     string  `json:"longUrl"`
	ClickCount  int64   `json:"clickCount"`
	LastClicked *string `json:"lastClicked"`
	CreatedAt   string  `json:"createdAt"`
}

// LinkStatsResponse represents the JSON response for link statistics.
type LinkStatsResponse struct {
	Code        string  `json:"code"`
	LongURL     string  `json:"longUrl"`
	ClickCount  int64   `json:"clickCount"`
	LastClicked *string `json:"lastClicked"`
}

// Handler provides HTTP handlers for the link service.
type Handler struct {
	service Service
	logger  *slog.Logger
	baseURL string
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
	BaseURL string // Base URL for constructing short URLs (e.g., "https://lnk.ct")
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
		baseURL: cfg.BaseURL,
	}
}

// CreateLink handles POST requests to create a new short link.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	req, err := httpx.DecodeJSON[HTTPCreateLinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request",
			"error", err.Error(),
		)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	if req.LongURL == "" {
		logger.WarnContext(ctx, "request validation failed",
			"error", "longUrl is required",
		)
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "longUrl is required", nil)
		return
	}

	result, err := h.service.Create(ctx, CreateLinkRequest{
		LongURL:    req.LongURL,
		CustomCode: req.CustomCode,
	})
	if err != nil {
		h.handleCreateError(ctx, w, err)
		return
	}

	link := result.Link
	resp := CreateLinkResponse{
		Code:      link.Code,
		LongURL:   link.LongURL,
		ShortURL:  fmt.Sprintf("%s/%s", h.baseURL, link.Code),
		CreatedAt: formatTime(link.CreatedAt),
		Existed:   result.Existed,
	}

	logger.InfoContext(ctx, "link created",
		"code", link.Code,
		"existed", result.Existed,
		"custom_code", req.CustomCode != "",
	)

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// ListLinks handles GET requests for the full link listing, newest first.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	all, err := h.service.List(ctx)
	if err != nil {
		h.handleError(ctx, w, err, "failed to list links")
		return
	}

	resp := make([]LinkListItem, 0, len(all))
	for _, link := range all {
		resp = append(resp, LinkListItem{
			Code:        link.Code,
			LongURL:     link.LongURL,
			ClickCount:  link.ClickCount,
			LastClicked: formatTimePtr(link.LastClicked),
			CreatedAt:   formatTime(link.CreatedAt),
		})
	}

	logger.InfoContext(ctx, "links listed", "count", len(resp))

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// GetLinkStats handles GET requests for a single link's usage statistics.
func (h *Handler) GetLinkStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.PathValue("code")
	link, err := h.service.Stats(ctx, code)
	if err != nil {
		h.handleError(ctx, w, err, "failed to get link stats")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, LinkStatsResponse{
		Code:        link.Code,
		LongURL:     link.LongURL,
		ClickCount:  link.ClickCount,
		LastClicked: formatTimePtr(link.LastClicked),
	})
}

// ResolveLink handles GET requests to redirect a code to its original URL.
// This increments the click counter and stamps the click time.
func (h *Handler) ResolveLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	code := r.PathValue("code")
	if code == "" {
		logger.WarnContext(ctx, "missing code in path")
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "code is required", nil)
		return
	}

	longURL, err := h.service.Resolve(ctx, code)
	if err != nil {
		h.handleResolveError(ctx, w, err, code)
		return
	}

	logger.InfoContext(ctx, "code resolved",
		"code", code,
		"long_url", longURL,
		"referer", r.Referer(),
	)

	http.Redirect(w, r, longURL, http.StatusFound)
}

// DeleteLink handles DELETE requests. Success is 204 with an empty body.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	code := r.PathValue("code")
	if err := h.service.Delete(ctx, code); err != nil {
		h.handleError(ctx, w, err, "failed to delete link")
		return
	}

	logger.InfoContext(ctx, "link deleted", "code", code)

	w.WriteHeader(http.StatusNoContent)
}

// handleCreateError handles errors from the Create service method.
func (h *Handler) handleCreateError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.Conflict:
		h.logger.WarnContext(ctx, "code conflict", logAttrs...)
		httpx.WriteError(w, http.StatusConflict, "conflict",
			"This code is already taken by a different URL",
			map[string]string{
				"hint": "Try a different custom code or let us generate one for you",
			})

	case errx.Invalid:
		h.logger.WarnContext(ctx, "invalid link request", logAttrs...)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)

	case errx.Internal:
		// Allocation exhaustion lands here; safe for the caller to retry.
		if errors.Is(err, ErrCodeSpaceExhausted) {
			h.logger.ErrorContext(ctx, "code allocation exhausted", logAttrs...)
		} else {
			h.logger.ErrorContext(ctx, "internal error creating link", logAttrs...)
		}
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"Unable to create short link at this time. Please try again.", nil)

	case errx.Unavailable:
		h.logger.ErrorContext(ctx, "service unavailable", logAttrs...)
		httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
			"Unable to create short link at this time. Please try again.", nil)

	default:
		h.logger.ErrorContext(ctx, "unexpected error creating link", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"Unable to create short link at this time. Please try again.", nil)
	}
}

// handleResolveError handles errors from the Resolve service method.
func (h *Handler) handleResolveError(ctx context.Context, w http.ResponseWriter, err error, code string) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
		"code", code,
	}

	switch kind {
	case errx.NotFound:
		h.logger.WarnContext(ctx, "code not found", logAttrs...)
		httpx.WriteError(w, http.StatusNotFound, "not_found",
			"short link doesn't exist", nil)

	case errx.Invalid:
		h.logger.WarnContext(ctx, "invalid code", logAttrs...)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)

	default:
		h.logger.ErrorContext(ctx, "unexpected error resolving link", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"Unable to resolve this link at this time", nil)
	}
}

// handleError maps service errors by kind for the remaining handlers.
func (h *Handler) handleError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	kind := errx.KindOf(err)

	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	)

	status := httpx.ErrorKindToStatus(kind)
	code := httpx.ErrorKindToCode(kind)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "something went wrong, please try again"
	}

	httpx.WriteError(w, status, code, message, nil)
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
