package models

import "time"

// DocumentStatus - состояние обязательного документа поставщика.
type DocumentStatus string

const (
	ValidDocument    DocumentStatus = "valid"
	ExpiringDocument DocumentStatus = "expiring"
	ExpiredDocument  DocumentStatus = "expired"
	MissingDocument  DocumentStatus = "missing"
	PendingDocument  DocumentStatus = "pending"
)

// VendorDocument - документ поставщика, загруженный во внешнюю систему проверки.
type VendorDocument struct {
	VendorID  string     `json:"vendorId"`
	Type      string     `json:"type"`
	Verified  bool       `json:"verified"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// DocumentCheck - результат проверки одного обязательного документа.
type DocumentCheck struct {
	Type   string         `json:"type"`
	Status DocumentStatus `json:"status"`
	Score  float64        `json:"score"`
	Notes  string         `json:"notes,omitempty"`
}

// ComplianceCheckResult - итог предварительной проверки поставщика.
type ComplianceCheckResult struct {
	VendorID     string          `json:"vendorId"`
	Checks       []DocumentCheck `json:"checks"`
	OverallScore float64         `json:"overallScore"`
	Passed       bool            `json:"passed"`
	Warnings     []string        `json:"warnings"`
	Errors       []string        `json:"errors"`
	LastChecked  time.Time       `json:"lastChecked"`
}

// AwardRequest представляет структуру запроса на выбор победителя.
type AwardRequest struct {
	VendorID         string `json:"vendorId"`
	OverridePreCheck bool   `json:"overridePreCheck"`
}

// AwardResult - результат выбора победителя.
type AwardResult struct {
	SolicitationID string    `json:"solicitationId"`
	AwardedTo      string    `json:"awardedTo"`
	AwardedAt      time.Time `json:"awardedAt"`
	PreCheckPassed bool      `json:"preCheckPassed"`
	OverrideUsed   bool      `json:"overrideUsed"`
	Message        string    `json:"message"`
}
