package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fitness-tracker/internal/model"
	"fitness-tracker/internal/service"
	"fitness-tracker/pkg/apierror"
)

type WorkoutHandler struct {
	service *service.WorkoutService
}

func NewWorkoutHandler(service *service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{service: service}
}

func (h *WorkoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var payload model.WorkoutSessionRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	session, err := h.service.Create(r.Context(), p, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, session, nil)
}

func (h *WorkoutHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	sessions, err := h.service.List(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, sessions, nil)
}

func (h *WorkoutHandler) Range(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	sessions, err := h.service.Range(r.Context(), p, query.Get("start"), query.Get("end"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, sessions, nil)
}

func (h *WorkoutHandler) ByTemplate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	templateID, err := strconv.ParseInt(chi.URLParam(r, "templateId"), 10, 64)
	if err != nil {
		writeError(w, apierror.BadRequest("template id must be an integer", "templateId"))
		return
	}

	sessions, err := h.service.ByTemplate(r.Context(), p, templateID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, sessions, nil)
}

func (h *WorkoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	session, err := h.service.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, session, nil)
}

func (h *WorkoutHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var payload model.WorkoutSessionRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	session, err := h.service.Update(r.Context(), p, chi.URLParam(r, "id"), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, session, nil)
}

func (h *WorkoutHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeNoContent(w)
}
