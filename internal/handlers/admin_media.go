package handlers

import (
	"net/http"
	"strings"

	"github.com/aromelle/api/internal/services"
)

type issueUploadRequest struct {
	Purpose     string `json:"purpose"`
	ProductID   string `json:"product_id"`
	ContentID   string `json:"content_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

type signedMediaPayload struct {
	URL        string            `json:"url"`
	ObjectPath string            `json:"object_path"`
	Method     string            `json:"method"`
	ExpiresAt  string            `json:"expires_at"`
	Headers    map[string]string `json:"headers,omitempty"`
}

func newSignedMediaPayload(media services.SignedMedia) signedMediaPayload {
	return signedMediaPayload{
		URL:        media.URL,
		ObjectPath: media.ObjectPath,
		Method:     media.Method,
		ExpiresAt:  formatTime(media.ExpiresAt),
		Headers:    media.Headers,
	}
}

// IssueUpload signs a staging PUT URL for catalog or content imagery.
func (h *AdminHandlers) IssueUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req issueUploadRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	media, err := h.media.IssueUpload(ctx, services.MediaUploadCommand{
		Purpose:     strings.TrimSpace(req.Purpose),
		ProductID:   strings.TrimSpace(req.ProductID),
		ContentID:   strings.TrimSpace(req.ContentID),
		FileName:    strings.TrimSpace(req.FileName),
		ContentType: strings.TrimSpace(req.ContentType),
		ActorID:     identity.UID,
	})
	if err != nil {
		writeMediaError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, newSignedMediaPayload(media))
}

type promoteUploadRequest struct {
	SourcePath string `json:"source_path"`
	Purpose    string `json:"purpose"`
	ProductID  string `json:"product_id"`
	ContentID  string `json:"content_id"`
	FileName   string `json:"file_name"`
}

// PromoteUpload moves a staged object into its permanent location and
// reports the final object path.
func (h *AdminHandlers) PromoteUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req promoteUploadRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	objectPath, err := h.media.PromoteUpload(ctx, services.PromoteUploadCommand{
		SourcePath: strings.TrimSpace(req.SourcePath),
		Purpose:    strings.TrimSpace(req.Purpose),
		ProductID:  strings.TrimSpace(req.ProductID),
		ContentID:  strings.TrimSpace(req.ContentID),
		FileName:   strings.TrimSpace(req.FileName),
		ActorID:    identity.UID,
	})
	if err != nil {
		writeMediaError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"object_path": objectPath})
}

type issueDownloadRequest struct {
	ObjectPath string `json:"object_path"`
}

func (h *AdminHandlers) IssueDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req issueDownloadRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	media, err := h.media.IssueDownload(ctx, services.MediaDownloadCommand{
		ObjectPath: strings.TrimSpace(req.ObjectPath),
		ActorID:    identity.UID,
	})
	if err != nil {
		writeMediaError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newSignedMediaPayload(media))
}
