package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/senyabanana/rfq-service/internal/models"
	"github.com/senyabanana/rfq-service/internal/services"
	"github.com/senyabanana/rfq-service/internal/utils"

	"go.uber.org/zap"
)

// VendorHandler - структура для обработки HTTP-запросов поставщиков.
// Поставщик идентифицируется только токеном доступа.
type VendorHandler struct {
	Service *services.RFQService
	Logger  *zap.Logger
	Timeout time.Duration
}

// NewVendorHandler создаёт новый экземпляр VendorHandler.
func NewVendorHandler(service *services.RFQService, logger *zap.Logger, timeout time.Duration) *VendorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VendorHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// SubmitBid обрабатывает запросы для подачи предложения.
func (h *VendorHandler) SubmitBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var bidReq models.BidRequest
	if err := utils.DecodeJSON(r, &bidReq, false); err != nil {
		sendServiceError(h.Logger, w, r, err)
		return
	}

	resp, err := h.Service.SubmitBid(ctx, utils.AccessToken(r), bidReq)
	if err != nil {
		sendServiceError(h.Logger, w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, resp)
}

// DeclineInvitation обрабатывает отказ поставщика от участия.
func (h *VendorHandler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	inv, err := h.Service.DeclineInvitation(ctx, utils.AccessToken(r))
	if err != nil {
		sendServiceError(h.Logger, w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, inv)
}
