package models

import "time"

// Recommendation - рекомендация, выводимая из итогового места.
type Recommendation string

const (
	StrongRecommendation     Recommendation = "strong"
	GoodRecommendation       Recommendation = "good"
	AcceptableRecommendation Recommendation = "acceptable"
	WeakRecommendation       Recommendation = "weak"
)

// CriterionRanks - места предложения по отдельным критериям.
type CriterionRanks struct {
	Price   int `json:"price"`
	Time    int `json:"time"`
	Quality int `json:"quality"`
}

// RankedOffer - предложение с результатом оценки и местом.
type RankedOffer struct {
	Bid            Bid            `json:"bid"`
	Scoring        ScoringResult  `json:"scoring"`
	Rank           int            `json:"rank"`
	CriterionRanks CriterionRanks `json:"criterionRanks"`
	Recommendation Recommendation `json:"recommendation"`
}

// CriterionStats - среднее, минимум и максимум одного критерия.
type CriterionStats struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// BidStatistics - сводная статистика по набору предложений.
type BidStatistics struct {
	Price   CriterionStats `json:"price"`
	Time    CriterionStats `json:"time"`
	Quality CriterionStats `json:"quality"`
}

// OutlierNote - предложение с аномальной ценой.
type OutlierNote struct {
	BidID    string `json:"bidId"`
	VendorID string `json:"vendorId"`
	Reason   string `json:"reason"`
}

// ComparisonReport - сравнительный отчёт по предложениям.
type ComparisonReport struct {
	ID             string         `json:"id"`
	SolicitationID string         `json:"solicitationId"`
	GeneratedAt    time.Time      `json:"generatedAt"`
	Offers         []RankedOffer  `json:"offers"`
	Statistics     BidStatistics  `json:"statistics"`
	Outliers       []OutlierNote  `json:"outliers"`
	ScoringWeights ScoringWeights `json:"scoringWeights"`
	ReportURL      string         `json:"reportUrl,omitempty"`
}
