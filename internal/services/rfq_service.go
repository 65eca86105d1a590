package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/senyabanana/rfq-service/internal/compliance"
	"github.com/senyabanana/rfq-service/internal/metrics"
	"github.com/senyabanana/rfq-service/internal/models"
	"github.com/senyabanana/rfq-service/internal/report"
	"github.com/senyabanana/rfq-service/internal/repository"
	"github.com/senyabanana/rfq-service/internal/scoring"
	"github.com/senyabanana/rfq-service/internal/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenService - выпуск и проверка токенов доступа поставщиков.
type TokenService interface {
	Issue(solicitationId, vendorId string, expiresAt time.Time) (string, string, error)
	Verify(tokenString string) (*token.AccessClaims, error)
}

// RFQService управляет жизненным циклом запросов на котировку.
type RFQService struct {
	Repo           repository.RFQRepository
	Tokens         TokenService
	Gate           compliance.Gate
	Renderer       report.Renderer
	Logger         *zap.Logger
	AccessLinkBase string
	Now            func() time.Time
}

// NewRFQService создает новый экземпляр RFQService.
func NewRFQService(repo repository.RFQRepository, tokens TokenService, gate compliance.Gate, renderer report.Renderer, logger *zap.Logger, accessLinkBase string) *RFQService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RFQService{
		Repo:           repo,
		Tokens:         tokens,
		Gate:           gate,
		Renderer:       renderer,
		Logger:         logger,
		AccessLinkBase: accessLinkBase,
		Now:            time.Now,
	}
}

func (s *RFQService) now() time.Time {
	return s.Now().UTC()
}

// validateSolicitationRequest проверяет позиции, поставщиков, срок и веса.
func validateSolicitationRequest(req models.SolicitationRequest) error {
	if strings.TrimSpace(req.ProjectID) == "" {
		return models.NewValidationError("projectId", "project id is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return models.NewValidationError("title", "title is required")
	}
	if strings.TrimSpace(req.CreatedBy) == "" {
		return models.NewValidationError("createdBy", "creator is required")
	}
	if req.DeadlineDays <= 0 {
		return models.NewValidationError("deadlineDays", "deadline must be at least one day ahead")
	}
	if len(req.Lines) == 0 {
		return models.NewValidationError("lines", "at least one line item is required")
	}
	for i, line := range req.Lines {
		if strings.TrimSpace(line.Description) == "" {
			return models.NewValidationError(fmt.Sprintf("lines[%d].description", i), "line description is required")
		}
		if line.Quantity <= 0 {
			return models.NewValidationError(fmt.Sprintf("lines[%d].quantity", i), "line quantity must be positive")
		}
	}
	if len(req.InvitedVendorIDs) == 0 {
		return models.NewValidationError("invitedVendorIds", "at least one vendor must be invited")
	}
	seen := make(map[string]bool, len(req.InvitedVendorIDs))
	for _, id := range req.InvitedVendorIDs {
		if strings.TrimSpace(id) == "" {
			return models.NewValidationError("invitedVendorIds", "vendor id must not be empty")
		}
		if seen[id] {
			return models.NewValidationError("invitedVendorIds", "vendor %s is listed more than once", id)
		}
		seen[id] = true
	}
	if req.ScoringWeights != nil {
		return req.ScoringWeights.Validate()
	}
	return nil
}

// accessLink строит ссылку доступа поставщика с токеном.
func (s *RFQService) accessLink(tokenString string) string {
	sep := "?"
	if strings.Contains(s.AccessLinkBase, "?") {
		sep = "&"
	}
	return s.AccessLinkBase + sep + "token=" + url.QueryEscape(tokenString)
}

// CreateSolicitation создает запрос на котировку и выпускает по токену на каждого поставщика.
func (s *RFQService) CreateSolicitation(ctx context.Context, req models.SolicitationRequest) (*models.SolicitationCreated, error) {
	if err := validateSolicitationRequest(req); err != nil {
		return nil, err
	}

	vendors, err := s.Repo.GetVendors(ctx, req.InvitedVendorIDs)
	if err != nil {
		return nil, fmt.Errorf("load vendors: %w", err)
	}
	for _, id := range req.InvitedVendorIDs {
		if _, ok := vendors[id]; !ok {
			return nil, models.NewValidationError("invitedVendorIds", "unknown vendor %s", id)
		}
	}

	now := s.now()
	weights := models.DefaultScoringWeights
	if req.ScoringWeights != nil {
		weights = *req.ScoringWeights
	}
	lines := make([]models.LineItem, len(req.Lines))
	for i, line := range req.Lines {
		if line.ID == "" {
			line.ID = uuid.New().String()
		}
		lines[i] = line
	}

	sol := &models.Solicitation{
		ID:             uuid.New().String(),
		ProjectID:      req.ProjectID,
		Title:          req.Title,
		Description:    req.Description,
		Deadline:       now.AddDate(0, 0, req.DeadlineDays),
		Status:         models.DraftSolicitation,
		Lines:          lines,
		InvitedVendors: make(map[string]models.Invitation, len(req.InvitedVendorIDs)),
		ScoringWeights: weights,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      req.CreatedBy,
	}

	// Токены выпускаются до сохранения, чтобы приглашения сохранялись вместе со ссылкой на токен.
	tokens := make(map[string]string, len(req.InvitedVendorIDs))
	for _, id := range req.InvitedVendorIDs {
		vendor := vendors[id]
		tokenString, tokenRef, err := s.Tokens.Issue(sol.ID, id, sol.Deadline)
		if err != nil {
			return nil, fmt.Errorf("issue access token for vendor %s: %w", id, err)
		}
		tokens[id] = tokenString
		sol.InvitedVendors[id] = models.Invitation{
			VendorID:       id,
			VendorName:     vendor.Name,
			Email:          vendor.Email,
			InvitedAt:      now,
			Status:         models.InvitedVendor,
			ExpiresAt:      sol.Deadline,
			AccessTokenRef: tokenRef,
		}
	}

	if !sol.Status.CanTransition(models.OpenSolicitation) {
		return nil, models.NewConflictError("solicitation cannot be opened from %s", sol.Status)
	}
	sol.Status = models.OpenSolicitation

	created, err := s.Repo.CreateSolicitation(ctx, sol, now)
	if err != nil {
		return nil, err
	}
	metrics.SolicitationsCreated.Inc()
	s.Logger.Info("solicitation created",
		zap.String("solicitation_id", created.ID),
		zap.String("project_id", created.ProjectID),
		zap.Int("vendors", len(created.InvitedVendors)),
		zap.Time("deadline", created.Deadline))

	resp := &models.SolicitationCreated{
		SolicitationID: created.ID,
		InvitedVendors: make([]models.InvitedVendorLink, 0, len(req.InvitedVendorIDs)),
		Deadline:       created.Deadline,
	}
	for _, id := range req.InvitedVendorIDs {
		inv := created.InvitedVendors[id]
		resp.InvitedVendors = append(resp.InvitedVendors, models.InvitedVendorLink{
			VendorID:   id,
			VendorName: inv.VendorName,
			Email:      inv.Email,
			AccessLink: s.accessLink(tokens[id]),
			ExpiresAt:  inv.ExpiresAt,
		})
	}
	return resp, nil
}

// GetSolicitation возвращает запрос на котировку.
func (s *RFQService) GetSolicitation(ctx context.Context, solicitationId string) (*models.Solicitation, error) {
	if solicitationId == "" {
		return nil, models.NewValidationError("solicitationId", "solicitation id is required")
	}
	return s.Repo.GetSolicitation(ctx, solicitationId)
}

// SubmitBid подаёт предложение. Токен - единственная проверка прав поставщика.
func (s *RFQService) SubmitBid(ctx context.Context, tokenString string, bidReq models.BidRequest) (resp *models.SubmitBidResponse, err error) {
	defer func() {
		metrics.BidsSubmitted.WithLabelValues(string(resultKind(err))).Inc()
	}()

	claims, err := s.Tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if bidReq.SolicitationID != "" && bidReq.SolicitationID != claims.SolicitationID {
		return nil, models.NewForbiddenError("access token is not valid for solicitation %s", bidReq.SolicitationID)
	}
	if err := bidReq.Validate(); err != nil {
		return nil, err
	}

	bid, err := s.Repo.RecordBid(ctx, claims.SolicitationID, claims.VendorID, bidReq, s.now())
	if err != nil {
		return nil, err
	}
	s.Logger.Info("bid submitted",
		zap.String("solicitation_id", bid.SolicitationID),
		zap.String("vendor_id", bid.VendorID),
		zap.String("bid_id", bid.ID))

	return &models.SubmitBidResponse{
		OfferID:     bid.ID,
		Status:      bid.Status,
		SubmittedAt: bid.SubmittedAt,
	}, nil
}

// DeclineInvitation фиксирует отказ поставщика по его токену.
func (s *RFQService) DeclineInvitation(ctx context.Context, tokenString string) (*models.Invitation, error) {
	claims, err := s.Tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	sol, err := s.Repo.DeclineInvitation(ctx, claims.SolicitationID, claims.VendorID, s.now())
	if err != nil {
		return nil, err
	}
	inv := sol.InvitedVendors[claims.VendorID]
	s.Logger.Info("invitation declined",
		zap.String("solicitation_id", claims.SolicitationID),
		zap.String("vendor_id", claims.VendorID))
	return &inv, nil
}

// Compare оценивает все предложения, сохраняет оценки в предложения и возвращает отчёт.
// Ошибка отрисовки отчёта только логируется.
func (s *RFQService) Compare(ctx context.Context, solicitationId string, weights *models.ScoringWeights) (*models.ComparisonReport, error) {
	start := time.Now()
	defer func() { metrics.ComparisonDuration.Observe(time.Since(start).Seconds()) }()

	sol, err := s.GetSolicitation(ctx, solicitationId)
	if err != nil {
		return nil, err
	}
	bids, err := s.Repo.ListBids(ctx, solicitationId)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	if len(bids) == 0 {
		return nil, models.NewValidationError("bids", "solicitation %s has no bids to compare", solicitationId)
	}

	used := sol.ScoringWeights
	if weights != nil {
		used = *weights
	}
	rep, err := scoring.Compare(solicitationId, bids, used, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SaveScoring(ctx, solicitationId, rep.Offers); err != nil {
		return nil, fmt.Errorf("save scoring: %w", err)
	}

	if s.Renderer != nil {
		reportURL, err := s.Renderer.RenderComparisonReport(ctx, rep)
		if err != nil {
			s.Logger.Warn("comparison report rendering failed",
				zap.String("solicitation_id", solicitationId),
				zap.String("report_id", rep.ID),
				zap.Error(err))
		} else {
			rep.ReportURL = reportURL
		}
	}
	return rep, nil
}

// AwardSolicitation выбирает победителя после предварительной проверки поставщика.
// Непройденная проверка блокирует выбор, если не задан overridePreCheck.
func (s *RFQService) AwardSolicitation(ctx context.Context, solicitationId, vendorId string, overridePreCheck bool) (result *models.AwardResult, err error) {
	defer func() {
		metrics.Awards.WithLabelValues(string(resultKind(err)), fmt.Sprint(overridePreCheck)).Inc()
	}()

	if vendorId == "" {
		return nil, models.NewValidationError("vendorId", "vendor id is required")
	}
	sol, err := s.GetSolicitation(ctx, solicitationId)
	if err != nil {
		return nil, err
	}
	if !sol.Status.CanTransition(models.AwardedSolicitation) {
		return nil, models.NewConflictError("solicitation %s is %s and cannot be awarded", solicitationId, sol.Status)
	}
	if _, invited := sol.InvitedVendors[vendorId]; !invited {
		return nil, models.NewValidationError("vendorId", "vendor %s is not invited to solicitation %s", vendorId, solicitationId)
	}

	check, err := s.Gate.VerifyCompliance(ctx, vendorId)
	if err != nil {
		return nil, fmt.Errorf("verify compliance for vendor %s: %w", vendorId, err)
	}
	overrideUsed := false
	if !check.Passed {
		failed := compliance.FailedChecks(check)
		if !overridePreCheck {
			s.Logger.Warn("award blocked by compliance pre-check",
				zap.String("solicitation_id", solicitationId),
				zap.String("vendor_id", vendorId),
				zap.Strings("failed_checks", failed))
			return nil, models.NewComplianceError(
				fmt.Sprintf("vendor %s failed the compliance pre-check", vendorId), failed)
		}
		overrideUsed = true
		s.Logger.Warn("compliance pre-check overridden",
			zap.String("solicitation_id", solicitationId),
			zap.String("vendor_id", vendorId),
			zap.Strings("failed_checks", failed))
	}

	awarded, err := s.Repo.TransitionToAwarded(ctx, solicitationId, vendorId, s.now())
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("solicitation awarded to %s", vendorId)
	if overrideUsed {
		message += " with compliance pre-check override"
	}
	s.Logger.Info("solicitation awarded",
		zap.String("solicitation_id", solicitationId),
		zap.String("vendor_id", vendorId),
		zap.Bool("pre_check_passed", check.Passed),
		zap.Bool("override_used", overrideUsed))

	return &models.AwardResult{
		SolicitationID: awarded.ID,
		AwardedTo:      *awarded.AwardedTo,
		AwardedAt:      *awarded.AwardedAt,
		PreCheckPassed: check.Passed,
		OverrideUsed:   overrideUsed,
		Message:        message,
	}, nil
}

// CancelSolicitation отменяет открытый запрос на котировку.
func (s *RFQService) CancelSolicitation(ctx context.Context, solicitationId string) (*models.Solicitation, error) {
	if solicitationId == "" {
		return nil, models.NewValidationError("solicitationId", "solicitation id is required")
	}
	sol, err := s.Repo.TransitionToCancelled(ctx, solicitationId, s.now())
	if err != nil {
		return nil, err
	}
	s.Logger.Info("solicitation cancelled", zap.String("solicitation_id", solicitationId))
	return sol, nil
}

func resultKind(err error) models.ErrorKind {
	if err == nil {
		return "ok"
	}
	return models.KindOf(err)
}
