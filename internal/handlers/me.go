package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aromelle/api/internal/platform/auth"
	"github.com/aromelle/api/internal/platform/httpx"
	"github.com/aromelle/api/internal/services"
)

// MeHandlers serves the authenticated account surface: the profile mirrored
// from the identity provider, shipping addresses, and favorites.
type MeHandlers struct {
	authn *auth.Authenticator
	users services.UserService
}

func NewMeHandlers(authn *auth.Authenticator, users services.UserService) *MeHandlers {
	return &MeHandlers{authn: authn, users: users}
}

// Routes registers the /me endpoints. Authentication middleware is skipped
// when no authenticator is configured, which only happens in tests.
func (h *MeHandlers) Routes(r chi.Router) {
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}

	r.Post("/sync", h.SyncProfile)
	r.Get("/", h.GetProfile)
	r.Patch("/", h.UpdateProfile)

	r.Route("/addresses", func(ar chi.Router) {
		ar.Get("/", h.ListAddresses)
		ar.Post("/", h.CreateAddress)
		ar.Put("/{addressID}", h.UpdateAddress)
		ar.Delete("/{addressID}", h.DeleteAddress)
		ar.Post("/{addressID}/default", h.SetDefaultAddress)
	})

	r.Route("/favorites", func(fr chi.Router) {
		fr.Get("/", h.ListFavorites)
		fr.Post("/{productID}", h.ToggleFavorite)
	})
}

type syncProfileRequest struct {
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
	Locale      string `json:"locale"`
}

// SyncProfile upserts the caller's profile from identity-provider claims,
// optionally enriched with client-supplied display data. The request body is
// optional.
func (h *MeHandlers) SyncProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req syncProfileRequest
	body, err := readLimitedBody(r, defaultMaxBodySize)
	switch err {
	case nil:
		if jsonErr := json.Unmarshal(body, &req); jsonErr != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
			return
		}
	case errEmptyBody:
		// claims only
	default:
		writeBodyError(w, r, err)
		return
	}

	locale := strings.TrimSpace(req.Locale)
	if locale == "" {
		locale = identity.Locale
	}

	profile, err := h.users.EnsureProfile(ctx, services.EnsureProfileCommand{
		UserID:      identity.UID,
		Email:       identity.Email,
		DisplayName: strings.TrimSpace(req.DisplayName),
		PhotoURL:    strings.TrimSpace(req.PhotoURL),
		Locale:      locale,
	})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newProfilePayload(profile))
}

func (h *MeHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	profile, err := h.users.GetProfile(ctx, identity.UID)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newProfilePayload(profile))
}

type updateProfileRequest struct {
	DisplayName json.RawMessage `json:"display_name"`
	Locale      json.RawMessage `json:"locale"`
}

func (h *MeHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	cmd := services.UpdateProfileCommand{UserID: identity.UID}
	edited := false

	if len(req.DisplayName) > 0 && !isJSONNull(req.DisplayName) {
		var name string
		if err := json.Unmarshal(req.DisplayName, &name); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "display_name must be a string", http.StatusBadRequest))
			return
		}
		cmd.DisplayName = &name
		edited = true
	}
	if len(req.Locale) > 0 && !isJSONNull(req.Locale) {
		var locale string
		if err := json.Unmarshal(req.Locale, &locale); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "locale must be a string", http.StatusBadRequest))
			return
		}
		cmd.Locale = &locale
		edited = true
	}
	if !edited {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "no editable fields supplied", http.StatusBadRequest))
		return
	}

	profile, err := h.users.UpdateProfile(ctx, cmd)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newProfilePayload(profile))
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
