package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/senyabanana/rfq-service/internal/models"
	"github.com/senyabanana/rfq-service/internal/services"
	"github.com/senyabanana/rfq-service/internal/utils"

	"go.uber.org/zap"
)

// RFQHandler - структура для обработки HTTP-запросов заказчика.
type RFQHandler struct {
	Service *services.RFQService
	Logger  *zap.Logger
	Timeout time.Duration
}

// NewRFQHandler создаёт новый экземпляр RFQHandler.
func NewRFQHandler(service *services.RFQService, logger *zap.Logger, timeout time.Duration) *RFQHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RFQHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// sendServiceError логирует ошибку и отправляет её клиенту.
// Ошибки предметной области пишутся на уровне info, остальные на уровне error.
func sendServiceError(logger *zap.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var errorResponse *models.ErrorResponse
	if errors.As(err, &errorResponse) {
		logger.Info("request rejected",
			zap.String("pattern", r.Pattern),
			zap.String("kind", string(errorResponse.Kind)),
			zap.String("reason", errorResponse.Message))
	} else {
		logger.Error("request failed", zap.String("pattern", r.Pattern), zap.Error(err))
	}
	utils.SendError(w, err)
}

// CreateRFQ обрабатывает запросы для создания запроса на котировку.
func (h *RFQHandler) CreateRFQ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.SolicitationRequest
	if err := utils.DecodeJSON(r, &req, false); err != nil {
		sendServiceError(h.Logger, w, r, err)
		return
	}

	created, err := h.Service.CreateSolicitation(ctx, req)
	if err != nil {
		sendServiceError(h.Logger, w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, created)
}

// GetRFQ обрабатывает запросы для получения запроса на котировку.
func (h *RFQHandler) GetRFQ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	sol, err := h.Service.GetSolicitation(ctx, r.PathValue("rfqId"))
	if err != nil {
		sendServiceError(h.Logger, w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, sol)
}

// CompareBids обрабатывает запросы для сравнения предложений.
// Тело запроса необязательно и может содержать веса критериев.
func (h *RFQHandler) CompareBids(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var weights *models.ScoringWeights
	if err := utils.DecodeJSON(r, &weights, true); err != nil {
		sendServiceError(h.Logger, w, r, err)
		return
	}

	rep, err := h.Service.Compare(ctx, r.PathValue("rfqId"), weights)
	if err != nil {
		sendServiceError(h.Logger, w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, rep)
}

// AwardRFQ обрабатывает запросы для выбора победителя.
func (h *RFQHandler) AwardRFQ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.AwardRequest
	if err := utils.DecodeJSON(r, &req, false); err != nil {
		sendServiceError(h.Logger, w, r, err)
		return
	}

	result, err := h.Service.AwardSolicitation(ctx, r.PathValue("rfqId"), req.VendorID, req.OverridePreCheck)
	if err != nil {
		sendServiceError(h.Logger, w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, result)
}

// CancelRFQ обрабатывает запросы для отмены запроса на котировку.
func (h *RFQHandler) CancelRFQ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	sol, err := h.Service.CancelSolicitation(ctx, r.PathValue("rfqId"))
	if err != nil {
		sendServiceError(h.Logger, w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, sol)
}
