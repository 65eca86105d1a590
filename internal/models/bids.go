package models

import "time"

// BidStatus - статус предложения.
type BidStatus string

const (
	SubmittedBid BidStatus = "submitted" // Предложение подано
	AwardedBid   BidStatus = "awarded"   // Предложение выиграло
	RejectedBid  BidStatus = "rejected"  // Предложение отклонено
)

// BidLine - цена и срок по одной позиции запроса.
type BidLine struct {
	LineID       string  `json:"lineId"`
	UnitPrice    float64 `json:"unitPrice"`
	DeliveryDays float64 `json:"deliveryDays"`
}

// ScoringResult - результат оценки предложения.
type ScoringResult struct {
	PriceScore    float64 `json:"priceScore"`
	TimeScore     float64 `json:"timeScore"`
	QualityScore  float64 `json:"qualityScore"`
	WeightedScore float64 `json:"weightedScore"`
	Outlier       bool    `json:"outlier"`
	OutlierReason string  `json:"outlierReason,omitempty"`
}

// Bid представляет модель предложения поставщика.
type Bid struct {
	ID             string         `json:"id"`
	SolicitationID string         `json:"solicitationId"`
	VendorID       string         `json:"vendorId"`
	SubmittedAt    time.Time      `json:"submittedAt"`
	Status         BidStatus      `json:"status"`
	Lines          []BidLine      `json:"lines"`
	TotalPrice     float64        `json:"totalPrice"`
	TotalTime      float64        `json:"totalTime"`
	QualityScore   float64        `json:"qualityScore"`
	Notes          string         `json:"notes,omitempty"`
	Scoring        *ScoringResult `json:"scoring,omitempty"`
	Rank           *int           `json:"rank,omitempty"`
}

// BidRequest представляет структуру запроса для подачи предложения.
type BidRequest struct {
	SolicitationID string    `json:"solicitationId,omitempty"`
	Lines          []BidLine `json:"lines"`
	TotalPrice     float64   `json:"totalPrice"`
	TotalTime      float64   `json:"totalTime"`
	QualityScore   float64   `json:"qualityScore"`
	Notes          string    `json:"notes"`
}

// Validate проверяет числовые поля предложения.
func (r BidRequest) Validate() error {
	if r.TotalPrice <= 0 {
		return NewValidationError("totalPrice", "total price must be positive")
	}
	if r.TotalTime <= 0 {
		return NewValidationError("totalTime", "total time must be positive")
	}
	if r.QualityScore < 1 || r.QualityScore > 10 {
		return NewValidationError("qualityScore", "quality score must be between 1 and 10")
	}
	seen := make(map[string]bool, len(r.Lines))
	for _, line := range r.Lines {
		if line.LineID == "" {
			return NewValidationError("lines.lineId", "line id is required")
		}
		if seen[line.LineID] {
			return NewValidationError("lines.lineId", "duplicate line %s", line.LineID)
		}
		seen[line.LineID] = true
		if line.UnitPrice < 0 || line.DeliveryDays < 0 {
			return NewValidationError("lines", "line %s has negative price or delivery days", line.LineID)
		}
	}
	return nil
}

// ValidateBidLines проверяет, что все позиции предложения ссылаются на позиции запроса.
func ValidateBidLines(sol *Solicitation, lines []BidLine) error {
	for _, line := range lines {
		if !sol.HasLine(line.LineID) {
			return NewValidationError("lines.lineId", "unknown solicitation line %s", line.LineID)
		}
	}
	return nil
}

// SubmitBidResponse - ответ на подачу предложения.
type SubmitBidResponse struct {
	OfferID     string    `json:"offerId"`
	Status      BidStatus `json:"status"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Clone возвращает копию предложения, не разделяющую изменяемые поля с оригиналом.
func (b Bid) Clone() Bid {
	c := b
	c.Lines = append([]BidLine(nil), b.Lines...)
	if b.Scoring != nil {
		s := *b.Scoring
		c.Scoring = &s
	}
	if b.Rank != nil {
		r := *b.Rank
		c.Rank = &r
	}
	return c
}
