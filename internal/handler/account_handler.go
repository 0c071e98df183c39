package handler

import (
	"net/http"
	"strings"

	"fitness-tracker/internal/model"
	"fitness-tracker/internal/service"
)

type AccountHandler struct {
	profiles *service.ProfileService
	audit    *service.AuditService
}

func NewAccountHandler(profiles *service.ProfileService, audit *service.AuditService) *AccountHandler {
	return &AccountHandler{profiles: profiles, audit: audit}
}

// Me reports the identity carried by the token, not the stored credential.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	writeSuccess(w, http.StatusOK, model.AccountData{Email: p.Subject, Roles: p.Roles}, nil)
}

func (h *AccountHandler) Activity(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	items, meta, err := h.audit.Query(r.Context(), p, model.AuditQuery{
		Action: strings.TrimSpace(query.Get("action")),
		Page:   parseIntOrDefault(query.Get("page"), 1),
		Limit:  parseIntOrDefault(query.Get("limit"), 50),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.AuditListData{Items: items}, &meta)
}

func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	profile, err := h.profiles.Get(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, nil)
}

func (h *AccountHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var payload model.ProfileRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	profile, err := h.profiles.Upsert(r.Context(), p, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, nil)
}
