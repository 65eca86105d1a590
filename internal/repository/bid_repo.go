package repository

import (
	"context"
	"errors"
	"time"

	"github.com/senyabanana/rfq-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const bidColumns = `id, solicitation_id, vendor_id, submitted_at, status, lines, total_price, total_time, quality_score, notes, scoring, rank`

// RecordBid сохраняет предложение поставщика. Строка запроса блокируется на время проверки и вставки.
func (r *PostgresRFQRepository) RecordBid(ctx context.Context, solicitationId, vendorId string, bidReq models.BidRequest, now time.Time) (*models.Bid, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	sol, err := getSolicitation(ctx, tx, solicitationId, true)
	if err != nil {
		return nil, err
	}
	if err := checkBidAllowed(sol, vendorId, now); err != nil {
		return nil, err
	}
	var exists bool
	existsQuery := `SELECT EXISTS(SELECT 1 FROM bid WHERE solicitation_id = $1 AND vendor_id = $2)`
	if err := tx.QueryRow(ctx, existsQuery, solicitationId, vendorId).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewConflictError("vendor %s has already submitted a bid for solicitation %s", vendorId, solicitationId)
	}
	if err := models.ValidateBidLines(sol, bidReq.Lines); err != nil {
		return nil, err
	}

	bid := newBid(uuid.New().String(), solicitationId, vendorId, bidReq, now)
	insertQuery := `INSERT INTO bid (id, solicitation_id, vendor_id, submitted_at, status, lines, total_price, total_time, quality_score, notes)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = tx.Exec(
		ctx,
		insertQuery,
		bid.ID,
		bid.SolicitationID,
		bid.VendorID,
		bid.SubmittedAt,
		bid.Status,
		bid.Lines,
		bid.TotalPrice,
		bid.TotalTime,
		bid.QualityScore,
		bid.Notes)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, models.NewConflictError("vendor %s has already submitted a bid for solicitation %s", vendorId, solicitationId)
		}
		return nil, err
	}

	if err := setInvitationStatus(ctx, tx, solicitationId, vendorId, models.RespondedVendor, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &bid, nil
}

// ListBids возвращает все предложения по запросу в порядке подачи.
func (r *PostgresRFQRepository) ListBids(ctx context.Context, solicitationId string) ([]models.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bid WHERE solicitation_id = $1 ORDER BY submitted_at, id`
	rows, err := r.DB.Query(ctx, query, solicitationId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []models.Bid
	for rows.Next() {
		var bid models.Bid
		if err := rows.Scan(
			&bid.ID,
			&bid.SolicitationID,
			&bid.VendorID,
			&bid.SubmittedAt,
			&bid.Status,
			&bid.Lines,
			&bid.TotalPrice,
			&bid.TotalTime,
			&bid.QualityScore,
			&bid.Notes,
			&bid.Scoring,
			&bid.Rank); err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

// SaveScoring сохраняет результаты оценки и места одним пакетом.
func (r *PostgresRFQRepository) SaveScoring(ctx context.Context, solicitationId string, offers []models.RankedOffer) error {
	batch := &pgx.Batch{}
	for _, offer := range offers {
		batch.Queue(`UPDATE bid SET scoring = $1, rank = $2 WHERE id = $3 AND solicitation_id = $4`,
			offer.Scoring, offer.Rank, offer.Bid.ID, solicitationId)
	}
	return r.DB.SendBatch(ctx, batch).Close()
}
