package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fitness-tracker/internal/model"
	"fitness-tracker/internal/service"
	"fitness-tracker/pkg/apierror"
)

type TemplateHandler struct {
	service *service.TemplateService
}

func NewTemplateHandler(service *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

func templateID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apierror.BadRequest("template id must be an integer", "id"))
		return 0, false
	}
	return id, true
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var payload model.TemplateRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	created, err := h.service.Create(r.Context(), p, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, created, nil)
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	templates, err := h.service.List(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, templates, nil)
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := templateID(w, r)
	if !ok {
		return
	}

	tpl, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tpl, nil)
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := templateID(w, r)
	if !ok {
		return
	}

	var payload model.TemplateRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	tpl, err := h.service.Update(r.Context(), p, id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tpl, nil)
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := templateID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), p, id); err != nil {
		writeError(w, err)
		return
	}

	writeNoContent(w)
}
