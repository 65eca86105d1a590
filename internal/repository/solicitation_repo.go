package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/rfq-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// querier - общий интерфейс пула соединений и транзакции.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRFQRepository - реализация RFQRepository для базы данных.
type PostgresRFQRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresRFQRepository создаёт новый экземпляр PostgresRFQRepository.
func NewPostgresRFQRepository(db *pgxpool.Pool) *PostgresRFQRepository {
	return &PostgresRFQRepository{DB: db}
}

// GetVendors возвращает найденных поставщиков по списку ID.
func (r *PostgresRFQRepository) GetVendors(ctx context.Context, vendorIds []string) (map[string]models.Vendor, error) {
	return getVendors(ctx, r.DB, vendorIds)
}

func getVendors(ctx context.Context, q querier, vendorIds []string) (map[string]models.Vendor, error) {
	query := `SELECT id, name, email FROM vendor WHERE id = ANY($1)`
	rows, err := q.Query(ctx, query, pq.Array(vendorIds))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vendors := make(map[string]models.Vendor, len(vendorIds))
	for rows.Next() {
		var vendor models.Vendor
		if err := rows.Scan(&vendor.ID, &vendor.Name, &vendor.Email); err != nil {
			return nil, err
		}
		vendors[vendor.ID] = vendor
	}
	return vendors, rows.Err()
}

// CreateSolicitation сохраняет новый запрос на котировку вместе с приглашениями.
func (r *PostgresRFQRepository) CreateSolicitation(ctx context.Context, sol *models.Solicitation, now time.Time) (*models.Solicitation, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	vendorIds := make([]string, 0, len(sol.InvitedVendors))
	for id := range sol.InvitedVendors {
		vendorIds = append(vendorIds, id)
	}
	vendors, err := getVendors(ctx, tx, vendorIds)
	if err != nil {
		return nil, err
	}
	if err := checkNewSolicitation(sol, vendors, now); err != nil {
		return nil, err
	}

	insertQuery := `INSERT INTO solicitation (id, project_id, title, description, deadline, status, lines,
                   price_weight, time_weight, quality_weight, created_by, created_at, updated_at, version)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)`
	_, err = tx.Exec(
		ctx,
		insertQuery,
		sol.ID,
		sol.ProjectID,
		sol.Title,
		sol.Description,
		sol.Deadline,
		sol.Status,
		sol.Lines,
		sol.ScoringWeights.Price,
		sol.ScoringWeights.Time,
		sol.ScoringWeights.Quality,
		sol.CreatedBy,
		sol.CreatedAt,
		sol.UpdatedAt)
	if err != nil {
		return nil, err
	}

	invitationQuery := `INSERT INTO invitation (solicitation_id, vendor_id, vendor_name, email, invited_at, status, expires_at, access_token_ref)
                       VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, inv := range sol.InvitedVendors {
		_, err = tx.Exec(ctx, invitationQuery, sol.ID, inv.VendorID, inv.VendorName, inv.Email, inv.InvitedAt, inv.Status, inv.ExpiresAt, inv.AccessTokenRef)
		if err != nil {
			return nil, err
		}
	}

	created, err := getSolicitation(ctx, tx, sol.ID, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// GetSolicitation возвращает запрос на котировку с приглашениями.
func (r *PostgresRFQRepository) GetSolicitation(ctx context.Context, solicitationId string) (*models.Solicitation, error) {
	return getSolicitation(ctx, r.DB, solicitationId, false)
}

// getSolicitation читает запрос; forUpdate блокирует строку до конца транзакции.
func getSolicitation(ctx context.Context, q querier, solicitationId string, forUpdate bool) (*models.Solicitation, error) {
	query := `SELECT id, project_id, title, description, deadline, status, lines, price_weight, time_weight, quality_weight,
	          created_by, created_at, updated_at, awarded_to, awarded_at, version
	          FROM solicitation WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var sol models.Solicitation
	err := q.QueryRow(ctx, query, solicitationId).Scan(
		&sol.ID,
		&sol.ProjectID,
		&sol.Title,
		&sol.Description,
		&sol.Deadline,
		&sol.Status,
		&sol.Lines,
		&sol.ScoringWeights.Price,
		&sol.ScoringWeights.Time,
		&sol.ScoringWeights.Quality,
		&sol.CreatedBy,
		&sol.CreatedAt,
		&sol.UpdatedAt,
		&sol.AwardedTo,
		&sol.AwardedAt,
		&sol.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("solicitation %s not found", solicitationId)
	}
	if err != nil {
		return nil, err
	}

	invitationQuery := `SELECT vendor_id, vendor_name, email, invited_at, status, expires_at, access_token_ref
	                    FROM invitation WHERE solicitation_id = $1 ORDER BY vendor_id`
	rows, err := q.Query(ctx, invitationQuery, solicitationId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sol.InvitedVendors = make(map[string]models.Invitation)
	for rows.Next() {
		var inv models.Invitation
		if err := rows.Scan(&inv.VendorID, &inv.VendorName, &inv.Email, &inv.InvitedAt, &inv.Status, &inv.ExpiresAt, &inv.AccessTokenRef); err != nil {
			return nil, err
		}
		sol.InvitedVendors[inv.VendorID] = inv
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &sol, nil
}

// statusConflict различает отсутствующий запрос и запрос в неподходящем статусе после неудачного CAS.
func statusConflict(ctx context.Context, q querier, solicitationId string, target models.SolicitationStatus) error {
	var status models.SolicitationStatus
	err := q.QueryRow(ctx, `SELECT status FROM solicitation WHERE id = $1`, solicitationId).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewNotFoundError("solicitation %s not found", solicitationId)
	}
	if err != nil {
		return err
	}
	return models.NewConflictError("solicitation %s is %s, cannot transition to %s", solicitationId, status, target)
}

// TransitionToAwarded переводит запрос в статус awarded только из open и отмечает выигравшее предложение.
func (r *PostgresRFQRepository) TransitionToAwarded(ctx context.Context, solicitationId, vendorId string, now time.Time) (*models.Solicitation, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	updateQuery := `UPDATE solicitation
	                SET status = $1, awarded_to = $2, awarded_at = $3, updated_at = $3, version = version + 1
	                WHERE id = $4 AND status = $5`
	tag, err := tx.Exec(ctx, updateQuery, models.AwardedSolicitation, vendorId, now, solicitationId, models.OpenSolicitation)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, statusConflict(ctx, tx, solicitationId, models.AwardedSolicitation)
	}

	bidQuery := `UPDATE bid SET status = $1 WHERE solicitation_id = $2 AND vendor_id = $3 AND status = $4`
	tag, err = tx.Exec(ctx, bidQuery, models.AwardedBid, solicitationId, vendorId, models.SubmittedBid)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, models.NewValidationError("vendorId", "vendor %s has no submitted bid for solicitation %s", vendorId, solicitationId)
	}

	awarded, err := getSolicitation(ctx, tx, solicitationId, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return awarded, nil
}

// TransitionToCancelled переводит запрос в статус cancelled только из open.
func (r *PostgresRFQRepository) TransitionToCancelled(ctx context.Context, solicitationId string, now time.Time) (*models.Solicitation, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	updateQuery := `UPDATE solicitation SET status = $1, updated_at = $2, version = version + 1
	                WHERE id = $3 AND status = $4`
	tag, err := tx.Exec(ctx, updateQuery, models.CancelledSolicitation, now, solicitationId, models.OpenSolicitation)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, statusConflict(ctx, tx, solicitationId, models.CancelledSolicitation)
	}

	cancelled, err := getSolicitation(ctx, tx, solicitationId, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return cancelled, nil
}

// DeclineInvitation отмечает отказ поставщика от участия.
func (r *PostgresRFQRepository) DeclineInvitation(ctx context.Context, solicitationId, vendorId string, now time.Time) (*models.Solicitation, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	sol, err := getSolicitation(ctx, tx, solicitationId, true)
	if err != nil {
		return nil, err
	}
	if err := checkDeclineAllowed(sol, vendorId, now); err != nil {
		return nil, err
	}

	if err := setInvitationStatus(ctx, tx, solicitationId, vendorId, models.DeclinedVendor, now); err != nil {
		return nil, err
	}

	declined, err := getSolicitation(ctx, tx, solicitationId, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return declined, nil
}

// setInvitationStatus меняет статус приглашения и версию запроса.
func setInvitationStatus(ctx context.Context, q querier, solicitationId, vendorId string, status models.InvitationStatus, now time.Time) error {
	_, err := q.Exec(ctx, `UPDATE invitation SET status = $1 WHERE solicitation_id = $2 AND vendor_id = $3`, status, solicitationId, vendorId)
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	_, err = q.Exec(ctx, `UPDATE solicitation SET updated_at = $1, version = version + 1 WHERE id = $2`, now, solicitationId)
	if err != nil {
		return fmt.Errorf("bump solicitation version: %w", err)
	}
	return nil
}
