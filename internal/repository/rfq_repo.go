package repository

import (
	"context"
	"time"

	"github.com/senyabanana/rfq-service/internal/models"
)

// RFQRepository - интерфейс для работы с запросами на котировку и предложениями.
// Все изменяющие операции атомарны в пределах одного запроса и не блокируют другие запросы.
type RFQRepository interface {
	GetVendors(ctx context.Context, vendorIds []string) (map[string]models.Vendor, error)
	CreateSolicitation(ctx context.Context, sol *models.Solicitation, now time.Time) (*models.Solicitation, error)
	GetSolicitation(ctx context.Context, solicitationId string) (*models.Solicitation, error)
	RecordBid(ctx context.Context, solicitationId, vendorId string, bidReq models.BidRequest, now time.Time) (*models.Bid, error)
	ListBids(ctx context.Context, solicitationId string) ([]models.Bid, error)
	SaveScoring(ctx context.Context, solicitationId string, offers []models.RankedOffer) error
	TransitionToAwarded(ctx context.Context, solicitationId, vendorId string, now time.Time) (*models.Solicitation, error)
	TransitionToCancelled(ctx context.Context, solicitationId string, now time.Time) (*models.Solicitation, error)
	DeclineInvitation(ctx context.Context, solicitationId, vendorId string, now time.Time) (*models.Solicitation, error)
}

// checkNewSolicitation проверяет запрос перед сохранением: статус, дедлайн и поставщиков.
func checkNewSolicitation(sol *models.Solicitation, vendors map[string]models.Vendor, now time.Time) error {
	if sol.Status != models.OpenSolicitation {
		return models.NewValidationError("status", "solicitation must be persisted as open, got %s", sol.Status)
	}
	if !sol.Deadline.After(now) {
		return models.NewValidationError("deadline", "deadline must be in the future")
	}
	if len(sol.InvitedVendors) == 0 {
		return models.NewValidationError("invitedVendorIds", "at least one vendor must be invited")
	}
	for vendorId := range sol.InvitedVendors {
		if _, ok := vendors[vendorId]; !ok {
			return models.NewValidationError("invitedVendorIds", "unknown vendor %s", vendorId)
		}
	}
	return nil
}

// checkBidAllowed проверяет, может ли поставщик подать предложение в текущий момент.
func checkBidAllowed(sol *models.Solicitation, vendorId string, now time.Time) error {
	inv, ok := sol.InvitedVendors[vendorId]
	if !ok {
		return models.NewForbiddenError("vendor %s is not invited to solicitation %s", vendorId, sol.ID)
	}
	if inv.Status == models.DeclinedVendor {
		return models.NewForbiddenError("vendor %s has declined the invitation", vendorId)
	}
	if sol.Status != models.OpenSolicitation {
		return models.NewExpiredError("solicitation %s is %s and no longer accepts bids", sol.ID, sol.Status)
	}
	if !now.Before(sol.Deadline) {
		return models.NewExpiredError("solicitation %s deadline has passed", sol.ID)
	}
	return nil
}

// checkDeclineAllowed проверяет, может ли поставщик отказаться от приглашения.
func checkDeclineAllowed(sol *models.Solicitation, vendorId string, now time.Time) error {
	inv, ok := sol.InvitedVendors[vendorId]
	if !ok {
		return models.NewForbiddenError("vendor %s is not invited to solicitation %s", vendorId, sol.ID)
	}
	if sol.Status != models.OpenSolicitation || !now.Before(sol.Deadline) {
		return models.NewExpiredError("solicitation %s no longer accepts responses", sol.ID)
	}
	if inv.Status != models.InvitedVendor {
		return models.NewConflictError("invitation is already %s", inv.Status)
	}
	return nil
}

// newBid собирает новое предложение из запроса.
func newBid(id, solicitationId, vendorId string, bidReq models.BidRequest, now time.Time) models.Bid {
	lines := bidReq.Lines
	if lines == nil {
		lines = []models.BidLine{}
	}
	return models.Bid{
		ID:             id,
		SolicitationID: solicitationId,
		VendorID:       vendorId,
		SubmittedAt:    now,
		Status:         models.SubmittedBid,
		Lines:          lines,
		TotalPrice:     bidReq.TotalPrice,
		TotalTime:      bidReq.TotalTime,
		QualityScore:   bidReq.QualityScore,
		Notes:          bidReq.Notes,
	}
}
