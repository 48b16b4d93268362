package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"docchat/internal/api/response"
	"docchat/internal/domain"
	"docchat/internal/logger"
)

type Handler struct {
	usecase       SessionUsecase
	maxUploadSize int64
}

func NewHandler(usecase SessionUsecase, maxUploadSize int64) *Handler {
	return &Handler{
		usecase:       usecase,
		maxUploadSize: maxUploadSize,
	}
}

// GetSession handles GET /session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.usecase.Info())
}

// ListDocuments handles GET /documents
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	response.Success(w, toDocumentDTOs(h.usecase.ListDocuments()))
}

// LoadDocuments handles POST /documents with one or more "files" parts.
// Each file is loaded independently; the request fails only when none load.
func (h *Handler) LoadDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "LoadDocuments")

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		h.respondError(ctx, w, http.StatusBadRequest, "at least one file is required", nil)
		return
	}

	ctxzap.Info(ctx, "loading documents", zap.Int("file_count", len(files)))

	result := LoadResultDTO{Loaded: []DocumentDTO{}}
	var firstErr error
	for _, fh := range files {
		doc, err := h.loadFile(ctx, fh)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			result.Failed = append(result.Failed, LoadFailureDTO{Name: fh.Filename, Error: err.Error()})
			continue
		}
		result.Loaded = append(result.Loaded, toDocumentDTO(doc))
	}

	if len(result.Loaded) == 0 {
		h.handleUsecaseError(ctx, w, firstErr)
		return
	}
	response.Created(w, result)
}

func (h *Handler) loadFile(ctx context.Context, fh *multipart.FileHeader) (domain.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.Document{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return h.usecase.LoadDocument(ctx, fh.Filename, data)
}

// ClearDocuments handles DELETE /documents
func (h *Handler) ClearDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ClearDocuments")

	if err := h.usecase.ClearDocuments(ctx); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}
	response.NoContent(w)
}

// Ask handles POST /ask. Failed replies are returned with 502 since the
// failure is always upstream of this service.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Ask")

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.respondError(ctx, w, http.StatusBadRequest, domain.ErrEmptyQuery.Error(), domain.ErrEmptyQuery)
		return
	}

	reply := h.usecase.Ask(ctx, req.Query)

	status := http.StatusOK
	if reply.Status == domain.ReplyFailed {
		status = http.StatusBadGateway
	}
	response.JSON(w, status, toReplyDTO(reply))
}

// GetHistory handles GET /history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	response.Success(w, toTurnDTOs(h.usecase.History()))
}

// ClearHistory handles DELETE /history
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ClearHistory")

	if err := h.usecase.ClearHistory(ctx); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Warn(ctx, message, zap.Error(err))
	}
	response.Error(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		ingErr  *domain.IngestionError
		provErr *domain.ProviderError
	)
	switch {
	case errors.As(err, &ingErr):
		h.respondError(ctx, w, http.StatusUnprocessableEntity, err.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		h.respondError(ctx, w, http.StatusGatewayTimeout, "request timed out", err)
	case errors.As(err, &provErr) && provErr.Kind == domain.ProviderQuota:
		h.respondError(ctx, w, http.StatusTooManyRequests, err.Error(), err)
	case errors.As(err, &provErr):
		h.respondError(ctx, w, http.StatusBadGateway, err.Error(), err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
