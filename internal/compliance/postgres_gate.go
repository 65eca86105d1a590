package compliance

import (
	"context"
	"time"

	"github.com/senyabanana/rfq-service/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// PostgresGate - проверка по документам из таблицы vendor_document.
type PostgresGate struct {
	DB       *pgxpool.Pool
	required []string
	now      func() time.Time
}

// NewPostgresGate создаёт новый экземпляр PostgresGate.
func NewPostgresGate(db *pgxpool.Pool, required []string) *PostgresGate {
	if len(required) == 0 {
		required = DefaultRequiredDocuments
	}
	return &PostgresGate{DB: db, required: required, now: time.Now}
}

// VerifyCompliance читает документы обязательных типов и оценивает их.
func (g *PostgresGate) VerifyCompliance(ctx context.Context, vendorId string) (*models.ComplianceCheckResult, error) {
	query := `SELECT vendor_id, document_type, verified, expires_at
	          FROM vendor_document
	          WHERE vendor_id = $1 AND document_type = ANY($2)`
	rows, err := g.DB.Query(ctx, query, vendorId, pq.Array(g.required))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.VendorDocument
	for rows.Next() {
		var doc models.VendorDocument
		if err := rows.Scan(&doc.VendorID, &doc.Type, &doc.Verified, &doc.ExpiresAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return Evaluate(vendorId, docs, g.required, g.now()), nil
}
