package handler

import (
	"io"
	"net/http"

	"fitness-tracker/internal/model"
	"fitness-tracker/internal/service"
	"fitness-tracker/pkg/apierror"
)

const maxWebhookBytes = 64 << 10

type PaymentHandler struct {
	service *service.PaymentService
}

func NewPaymentHandler(service *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Webhook needs the raw body because the signature covers its exact bytes.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, apierror.BadRequest("webhook body too large", ""))
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get(service.SignatureHeader))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"received": true, "result": result}, nil)
}

func (h *PaymentHandler) Success(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, model.MessageResponse{
		Message: "Payment received. Log in again to activate premium features.",
	}, nil)
}

func (h *PaymentHandler) Cancel(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: "Payment cancelled."}, nil)
}
