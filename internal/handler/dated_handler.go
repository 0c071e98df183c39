package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fitness-tracker/internal/model"
	"fitness-tracker/internal/service"
)

type datedService[T any, R any] interface {
	Create(ctx context.Context, p model.Principal, req R) (T, error)
	List(ctx context.Context, p model.Principal, window model.DateRange) ([]T, error)
	Range(ctx context.Context, p model.Principal, start string, end string) ([]T, error)
	ByDate(ctx context.Context, p model.Principal, date string) (T, error)
	Get(ctx context.Context, p model.Principal, id string) (T, error)
	Update(ctx context.Context, p model.Principal, id string, req R) (T, error)
	Delete(ctx context.Context, p model.Principal, id string) error
}

// DatedHandler serves a record family that allows one record per owner and date.
type DatedHandler[T any, R any] struct {
	service datedService[T, R]
}

func NewDiaryHandler(svc *service.DiaryService) *DatedHandler[model.DiaryEntry, model.DiaryEntryRequest] {
	return &DatedHandler[model.DiaryEntry, model.DiaryEntryRequest]{service: svc}
}

func NewNutritionHandler(svc *service.NutritionService) *DatedHandler[model.NutritionLog, model.NutritionLogRequest] {
	return &DatedHandler[model.NutritionLog, model.NutritionLogRequest]{service: svc}
}

func (h *DatedHandler[T, R]) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var payload R
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

func (h *DatedHandler[T, R]) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	items, err := h.service.List(r.Context(), p, model.DateRange{})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, items, nil)
}

func (h *DatedHandler[T, R]) Range(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	items, err := h.service.Range(r.Context(), p, query.Get("start"), query.Get("end"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, items, nil)
}

func (h *DatedHandler[T, R]) ByDate(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	item, err := h.service.ByDate(r.Context(), p, chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, item, nil)
}

func (h *DatedHandler[T, R]) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	item, err := h.service.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, item, nil)
}

func (h *DatedHandler[T, R]) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var payload R
	if !decodeJSON(w, r, &payload) {
		return
	}

	updated, err := h.service.Update(r.Context(), p, chi.URLParam(r, "id"), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, nil)
}

func (h *DatedHandler[T, R]) Delete(w http.ResponseWriter, r *http.Request) {
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
