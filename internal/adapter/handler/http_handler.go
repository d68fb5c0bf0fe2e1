package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rl1809/westock/internal/core/domain"
	"github.com/rl1809/westock/internal/core/service"
	"github.com/rl1809/westock/internal/port"
)

const maxImageBytes = 10 << 20

// Services groups what the local API drives.
type Services struct {
	Repo       *service.Repository
	Sync       *service.SyncService
	Share      *service.ShareService
	Backup     *service.BackupService
	Store      port.LocalStore
	Classifier port.ImageClassifier
}

type HTTPHandler struct {
	svc           Services
	remoteTimeout time.Duration
	log           *slog.Logger
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type sessionRequest struct {
	User string `json:"user"`
}

type sessionResponse struct {
	Identity  string `json:"identity"`
	SignedIn  bool   `json:"signedIn"`
	SyncError string `json:"syncError,omitempty"`
}

type tokenBody struct {
	Token string `json:"token"`
}

type bundleResponse struct {
	Bundle  domain.Bundle          `json:"bundle"`
	Items   []domain.InventoryItem `json:"items"`
	Missing []string               `json:"missing"`
}

type usageResponse struct {
	Bytes    int64  `json:"bytes"`
	Human    string `json:"human"`
	MaxBytes int64  `json:"maxBytes,omitempty"`
}

func NewHTTPHandler(log *slog.Logger, svc Services, remoteTimeout time.Duration) *HTTPHandler {
	return &HTTPHandler{
		svc:           svc,
		remoteTimeout: remoteTimeout,
		log:           log.With("handler", "http"),
	}
}

// Register mounts every route on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /api/document", h.GetDocument)
	mux.HandleFunc("GET /api/usage", h.Usage)

	mux.HandleFunc("POST /api/items", h.CreateItem)
	mux.HandleFunc("GET /api/items/{id}", h.GetItem)
	mux.HandleFunc("PUT /api/items/{id}", h.UpdateItem)
	mux.HandleFunc("DELETE /api/items/{id}", h.DeleteItem)
	mux.HandleFunc("POST /api/classify", h.Classify)

	mux.HandleFunc("POST /api/bundles", h.CreateBundle)
	mux.HandleFunc("GET /api/bundles/{id}", h.GetBundle)
	mux.HandleFunc("PUT /api/bundles/{id}", h.UpdateBundle)
	mux.HandleFunc("DELETE /api/bundles/{id}", h.DeleteBundle)
	mux.HandleFunc("POST /api/bundles/{id}/share", h.ExportShare)
	mux.HandleFunc("POST /api/share/import", h.ImportShare)

	mux.HandleFunc("GET /api/session", h.GetSession)
	mux.HandleFunc("POST /api/session", h.SignIn)
	mux.HandleFunc("DELETE /api/session", h.SignOut)
	mux.HandleFunc("POST /api/sync/{direction}", h.ForceSync)

	mux.HandleFunc("GET /api/backup", h.ExportBackup)
	mux.HandleFunc("PUT /api/backup", h.ImportBackup)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Repo.Document(r.Context()))
}

func (h *HTTPHandler) Usage(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Store.Usage(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usageResponse{Bytes: n, Human: humanize.IBytes(uint64(n))})
}

func (h *HTTPHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var item domain.InventoryItem
	if !decode(w, r, &item) {
		return
	}

	created, err := h.svc.Repo.CreateItem(r.Context(), item)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.svc.Repo.GetItem(r.Context(), r.PathValue("id"))
	if !ok {
		h.fail(w, domain.ErrItemNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var item domain.InventoryItem
	if !decode(w, r, &item) {
		return
	}
	item.ID = r.PathValue("id")

	if item.CreatedAt == 0 {
		if existing, ok := h.svc.Repo.GetItem(r.Context(), item.ID); ok {
			item.CreatedAt = existing.CreatedAt
		}
	}

	if err := h.svc.Repo.UpdateItem(r.Context(), item); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *HTTPHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Repo.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Classify takes the raw image as the request body.
func (h *HTTPHandler) Classify(w http.ResponseWriter, r *http.Request) {
	image, err := io.ReadAll(io.LimitReader(r.Body, maxImageBytes))
	if err != nil || len(image) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "image body required"})
		return
	}

	ctx, cancel := h.remoteContext(r.Context())
	defer cancel()
	writeJSON(w, http.StatusOK, h.svc.Classifier.Classify(ctx, image, r.Header.Get("Content-Type")))
}

func (h *HTTPHandler) CreateBundle(w http.ResponseWriter, r *http.Request) {
	var bundle domain.Bundle
	if !decode(w, r, &bundle) {
		return
	}

	created, err := h.svc.Repo.CreateBundle(r.Context(), bundle)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) GetBundle(w http.ResponseWriter, r *http.Request) {
	bundle, items, missing, ok := h.svc.Repo.BundleItems(r.Context(), r.PathValue("id"))
	if !ok {
		h.fail(w, domain.ErrBundleNotFound)
		return
	}
	if items == nil {
		items = []domain.InventoryItem{}
	}
	if missing == nil {
		missing = []string{}
	}
	writeJSON(w, http.StatusOK, bundleResponse{Bundle: bundle, Items: items, Missing: missing})
}

func (h *HTTPHandler) UpdateBundle(w http.ResponseWriter, r *http.Request) {
	var bundle domain.Bundle
	if !decode(w, r, &bundle) {
		return
	}
	bundle.ID = r.PathValue("id")

	if bundle.CreatedAt == 0 {
		if existing, ok := h.svc.Repo.GetBundle(r.Context(), bundle.ID); ok {
			bundle.CreatedAt = existing.CreatedAt
		}
	}

	if err := h.svc.Repo.UpdateBundle(r.Context(), bundle); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (h *HTTPHandler) DeleteBundle(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Repo.DeleteBundle(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) ExportShare(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.remoteContext(r.Context())
	defer cancel()

	token, err := h.svc.Share.Export(ctx, r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenBody{Token: token})
}

func (h *HTTPHandler) ImportShare(w http.ResponseWriter, r *http.Request) {
	var req tokenBody
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := h.remoteContext(r.Context())
	defer cancel()

	result, err := h.svc.Share.Import(ctx, req.Token)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.svc.Sync.Identity()
	writeJSON(w, http.StatusOK, sessionResponse{Identity: string(identity), SignedIn: ok})
}

// SignIn binds the identity even when the initial pull fails; the failure is
// reported in syncError.
func (h *HTTPHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.User == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "user is required"})
		return
	}

	ctx, cancel := h.remoteContext(r.Context())
	defer cancel()

	resp := sessionResponse{Identity: req.User, SignedIn: true}
	if err := h.svc.Sync.Bind(ctx, domain.Identity(req.User)); err != nil {
		resp.SyncError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.svc.Sync.Unbind()
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) ForceSync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.remoteContext(r.Context())
	defer cancel()

	if err := h.svc.Sync.ForceSync(ctx, domain.SyncDirection(r.PathValue("direction"))); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, errorResponse{Success: true, Message: "sync complete"})
}

func (h *HTTPHandler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.svc.Backup.Filename(time.Now())+`"`)
	if err := h.svc.Backup.Export(r.Context(), w); err != nil {
		h.log.Error("backup export failed", slog.Any("error", err))
	}
}

func (h *HTTPHandler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Backup.Import(r.Context(), r.Body); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, errorResponse{Success: true, Message: "backup restored"})
}

func (h *HTTPHandler) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.remoteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.remoteTimeout)
}

func (h *HTTPHandler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", slog.Int("status", status), slog.Any("error", err))
	}
	writeJSON(w, status, errorResponse{Success: false, Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidItem),
		errors.Is(err, domain.ErrInvalidBundle),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrInvalidBackup),
		errors.Is(err, service.ErrInvalidDirection):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrBundleNotFound),
		errors.Is(err, domain.ErrShareNotFound),
		errors.Is(err, service.ErrNoRemoteDocument):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, service.ErrMalformedShare):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	case errors.Is(err, service.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
