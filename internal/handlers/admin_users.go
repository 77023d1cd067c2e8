package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/platform/httpx"
	"github.com/aromelle/api/internal/services"
)

type userListResponse struct {
	Users         []profilePayload `json:"users"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

func (h *AdminHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pager, err := parsePageQuery(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	filter := services.UserListFilter{
		Query:      strings.TrimSpace(r.URL.Query().Get("q")),
		Pagination: pager,
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
		role := domain.Role(strings.ToUpper(raw))
		filter.Role = &role
	}

	page, err := h.users.ListUsers(ctx, filter)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	items := make([]profilePayload, 0, len(page.Items))
	for _, profile := range page.Items {
		items = append(items, newProfilePayload(profile))
	}
	writeJSONResponse(w, http.StatusOK, userListResponse{Users: items, NextPageToken: page.NextPageToken})
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (h *AdminHandlers) SetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "user id is required", http.StatusBadRequest))
		return
	}

	var req setRoleRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	profile, err := h.users.SetRole(ctx, services.SetRoleCommand{
		UserID:  userID,
		Role:    domain.Role(strings.ToUpper(strings.TrimSpace(req.Role))),
		ActorID: identity.UID,
	})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newProfilePayload(profile))
}
