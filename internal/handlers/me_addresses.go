package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aromelle/api/internal/platform/httpx"
	"github.com/aromelle/api/internal/services"
)

type addressRequest struct {
	Recipient  string `json:"recipient"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	District   string `json:"district"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
	IsDefault  bool   `json:"is_default"`
}

func (h *MeHandlers) ListAddresses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	addresses, err := h.users.ListAddresses(ctx, identity.UID)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	payload := make([]addressPayload, 0, len(addresses))
	for _, addr := range addresses {
		payload = append(payload, newAddressPayload(addr))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"addresses": payload})
}

func (h *MeHandlers) CreateAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req addressRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	address, err := h.users.CreateAddress(ctx, addressCommand(identity.UID, nil, req))
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, newAddressPayload(address))
}

func (h *MeHandlers) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	addressID := strings.TrimSpace(chi.URLParam(r, "addressID"))
	if addressID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "address id is required", http.StatusBadRequest))
		return
	}

	var req addressRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	address, err := h.users.UpdateAddress(ctx, addressCommand(identity.UID, &addressID, req))
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newAddressPayload(address))
}

func (h *MeHandlers) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	addressID := strings.TrimSpace(chi.URLParam(r, "addressID"))
	if addressID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "address id is required", http.StatusBadRequest))
		return
	}

	if err := h.users.DeleteAddress(ctx, services.DeleteAddressCommand{UserID: identity.UID, AddressID: addressID}); err != nil {
		writeUserError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MeHandlers) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	addressID := strings.TrimSpace(chi.URLParam(r, "addressID"))
	if addressID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "address id is required", http.StatusBadRequest))
		return
	}

	address, err := h.users.SetDefaultAddress(ctx, services.SetDefaultAddressCommand{UserID: identity.UID, AddressID: addressID})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newAddressPayload(address))
}

func addressCommand(userID string, addressID *string, req addressRequest) services.UpsertAddressCommand {
	return services.UpsertAddressCommand{
		UserID:     userID,
		AddressID:  addressID,
		Recipient:  strings.TrimSpace(req.Recipient),
		Phone:      strings.TrimSpace(req.Phone),
		Line1:      strings.TrimSpace(req.Line1),
		Line2:      strings.TrimSpace(req.Line2),
		District:   strings.TrimSpace(req.District),
		Province:   strings.TrimSpace(req.Province),
		PostalCode: strings.TrimSpace(req.PostalCode),
		IsDefault:  req.IsDefault,
	}
}
