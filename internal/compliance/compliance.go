// Package compliance проверяет обязательные документы поставщика перед выбором победителя.
package compliance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/senyabanana/rfq-service/internal/models"
)

// ExpiryWarningWindow - документ, истекающий раньше этого срока, даёт предупреждение.
const ExpiryWarningWindow = 30 * 24 * time.Hour

// DefaultRequiredDocuments - типы документов, обязательные для поставщика.
var DefaultRequiredDocuments = []string{"insurance", "license", "tax_certificate"}

// Gate - внешняя предварительная проверка поставщика.
type Gate interface {
	VerifyCompliance(ctx context.Context, vendorId string) (*models.ComplianceCheckResult, error)
}

// Evaluate строит результат проверки по документам поставщика.
// Для каждого типа учитывается документ с самым поздним сроком действия.
func Evaluate(vendorId string, docs []models.VendorDocument, required []string, now time.Time) *models.ComplianceCheckResult {
	latest := make(map[string]models.VendorDocument)
	for _, doc := range docs {
		current, ok := latest[doc.Type]
		if !ok || expiresLater(doc, current) {
			latest[doc.Type] = doc
		}
	}

	result := &models.ComplianceCheckResult{
		VendorID:    vendorId,
		Checks:      make([]models.DocumentCheck, 0, len(required)),
		Warnings:    []string{},
		Errors:      []string{},
		LastChecked: now,
	}

	var total float64
	for _, docType := range required {
		check := checkDocument(docType, latest, now)
		switch check.Status {
		case models.ExpiringDocument:
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", docType, check.Notes))
		case models.ExpiredDocument, models.MissingDocument, models.PendingDocument:
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", docType, check.Notes))
		}
		total += check.Score
		result.Checks = append(result.Checks, check)
	}

	if len(required) > 0 {
		result.OverallScore = total / float64(len(required))
	} else {
		result.OverallScore = 100
	}
	result.Passed = len(result.Errors) == 0
	return result
}

func expiresLater(a, b models.VendorDocument) bool {
	if a.ExpiresAt == nil {
		return true
	}
	if b.ExpiresAt == nil {
		return false
	}
	return a.ExpiresAt.After(*b.ExpiresAt)
}

func checkDocument(docType string, latest map[string]models.VendorDocument, now time.Time) models.DocumentCheck {
	doc, ok := latest[docType]
	switch {
	case !ok:
		return models.DocumentCheck{Type: docType, Status: models.MissingDocument, Score: 0, Notes: "document not provided"}
	case doc.ExpiresAt != nil && !now.Before(*doc.ExpiresAt):
		return models.DocumentCheck{Type: docType, Status: models.ExpiredDocument, Score: 0,
			Notes: fmt.Sprintf("expired on %s", doc.ExpiresAt.Format(time.DateOnly))}
	case !doc.Verified:
		return models.DocumentCheck{Type: docType, Status: models.PendingDocument, Score: 0, Notes: "document awaiting verification"}
	case doc.ExpiresAt != nil && doc.ExpiresAt.Sub(now) < ExpiryWarningWindow:
		return models.DocumentCheck{Type: docType, Status: models.ExpiringDocument, Score: 60,
			Notes: fmt.Sprintf("expires on %s", doc.ExpiresAt.Format(time.DateOnly))}
	default:
		return models.DocumentCheck{Type: docType, Status: models.ValidDocument, Score: 100}
	}
}

// FailedChecks перечисляет все не пройденные проверки в виде строк.
func FailedChecks(result *models.ComplianceCheckResult) []string {
	failed := make([]string, 0, len(result.Errors))
	failed = append(failed, result.Errors...)
	return failed
}

// StaticGate - проверка по документам, хранящимся в памяти.
type StaticGate struct {
	mu       sync.RWMutex
	docs     map[string][]models.VendorDocument
	required []string
	now      func() time.Time
}

// NewStaticGate создаёт новый экземпляр StaticGate.
func NewStaticGate(required []string, now func() time.Time) *StaticGate {
	if required == nil {
		required = DefaultRequiredDocuments
	}
	if now == nil {
		now = time.Now
	}
	return &StaticGate{docs: make(map[string][]models.VendorDocument), required: required, now: now}
}

// AddDocument регистрирует документ поставщика.
func (g *StaticGate) AddDocument(doc models.VendorDocument) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.docs[doc.VendorID] = append(g.docs[doc.VendorID], doc)
}

// VerifyCompliance проверяет документы поставщика.
func (g *StaticGate) VerifyCompliance(_ context.Context, vendorId string) (*models.ComplianceCheckResult, error) {
	g.mu.RLock()
	docs := append([]models.VendorDocument(nil), g.docs[vendorId]...)
	g.mu.RUnlock()
	return Evaluate(vendorId, docs, g.required, g.now()), nil
}
