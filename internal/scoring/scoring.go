// Package scoring ранжирует предложения поставщиков по цене, сроку и качеству.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/senyabanana/rfq-service/internal/models"

	"github.com/google/uuid"
)

// OutlierThreshold - отклонение цены от среднего (в долях диапазона), выше которого предложение аномально.
const OutlierThreshold = 0.5

// outlierEpsilon поглощает ошибку округления: отклонение ровно на границе не считается аномальным.
const outlierEpsilon = 1e-9

// criterion - извлекает значение критерия из предложения.
type criterion func(b models.Bid) float64

func price(b models.Bid) float64   { return b.TotalPrice }
func days(b models.Bid) float64    { return b.TotalTime }
func quality(b models.Bid) float64 { return b.QualityScore }

// bounds возвращает минимум и максимум критерия по набору.
func bounds(bids []models.Bid, value criterion) (float64, float64) {
	lo, hi := value(bids[0]), value(bids[0])
	for _, b := range bids[1:] {
		lo = math.Min(lo, value(b))
		hi = math.Max(hi, value(b))
	}
	return lo, hi
}

func average(bids []models.Bid, value criterion) float64 {
	var sum float64
	for _, b := range bids {
		sum += value(b)
	}
	return sum / float64(len(bids))
}

// normalize переводит значение в шкалу 0..100. При нулевом диапазоне все получают 100.
func normalize(v, lo, hi float64, lowerIsBetter bool) float64 {
	if hi == lo {
		return 100
	}
	ratio := (v - lo) / (hi - lo) * 100
	if lowerIsBetter {
		return 100 - ratio
	}
	return ratio
}

// earlier - порядок при равенстве: раньше поданное предложение выше, затем по ID.
func earlier(a, b models.Bid) bool {
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	return a.ID < b.ID
}

// values извлекает значения критерия в порядке предложений.
func values(bids []models.Bid, value criterion) []float64 {
	out := make([]float64, len(bids))
	for i, b := range bids {
		out[i] = value(b)
	}
	return out
}

// rankBy возвращает место каждого предложения (по индексу) при сортировке по значениям.
func rankBy(bids []models.Bid, vals []float64, ascending bool) []int {
	order := make([]int, len(bids))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := bids[order[i]], bids[order[j]]
		va, vb := vals[order[i]], vals[order[j]]
		if va != vb {
			if ascending {
				return va < vb
			}
			return va > vb
		}
		return earlier(a, b)
	})

	ranks := make([]int, len(bids))
	for pos, idx := range order {
		ranks[idx] = pos + 1
	}
	return ranks
}

// RecommendationFor выводит рекомендацию из итогового места среди n предложений.
func RecommendationFor(rank, n int) models.Recommendation {
	switch {
	case rank == 1:
		return models.StrongRecommendation
	case rank == 2:
		return models.GoodRecommendation
	case rank <= (n+1)/2:
		return models.AcceptableRecommendation
	default:
		return models.WeakRecommendation
	}
}

// Score оценивает набор предложений. Результат упорядочен по итоговому месту.
// Итоговый балл - взвешенная сумма, а не взвешенное среднее.
func Score(bids []models.Bid, weights models.ScoringWeights) ([]models.RankedOffer, error) {
	if len(bids) == 0 {
		return nil, models.NewValidationError("bids", "at least one bid is required for comparison")
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	minPrice, maxPrice := bounds(bids, price)
	minTime, maxTime := bounds(bids, days)
	minQuality, maxQuality := bounds(bids, quality)
	avgPrice := average(bids, price)
	priceRange := maxPrice - minPrice

	results := make([]models.ScoringResult, len(bids))
	for i, b := range bids {
		r := models.ScoringResult{
			PriceScore:   normalize(b.TotalPrice, minPrice, maxPrice, true),
			TimeScore:    normalize(b.TotalTime, minTime, maxTime, true),
			QualityScore: normalize(b.QualityScore, minQuality, maxQuality, false),
		}
		r.WeightedScore = r.PriceScore*weights.Price + r.TimeScore*weights.Time + r.QualityScore*weights.Quality

		if priceRange > 0 {
			deviation := math.Abs(b.TotalPrice-avgPrice) / priceRange
			if deviation > OutlierThreshold+outlierEpsilon {
				r.Outlier = true
				direction := "above"
				if b.TotalPrice < avgPrice {
					direction = "below"
				}
				r.OutlierReason = fmt.Sprintf("price %.2f is %.0f%% of the price range %s the average %.2f",
					b.TotalPrice, deviation*100, direction, avgPrice)
			}
		}
		results[i] = r
	}

	weighted := make([]float64, len(results))
	for i, r := range results {
		weighted[i] = r.WeightedScore
	}

	overall := rankBy(bids, weighted, false)
	priceRanks := rankBy(bids, values(bids, price), true)
	timeRanks := rankBy(bids, values(bids, days), true)
	qualityRanks := rankBy(bids, values(bids, quality), false)

	offers := make([]models.RankedOffer, len(bids))
	for i, b := range bids {
		pos := overall[i] - 1
		offers[pos] = models.RankedOffer{
			Bid:     b,
			Scoring: results[i],
			Rank:    overall[i],
			CriterionRanks: models.CriterionRanks{
				Price:   priceRanks[i],
				Time:    timeRanks[i],
				Quality: qualityRanks[i],
			},
			Recommendation: RecommendationFor(overall[i], len(bids)),
		}
	}
	for i := range offers {
		scoring := offers[i].Scoring
		rank := offers[i].Rank
		offers[i].Bid.Scoring = &scoring
		offers[i].Bid.Rank = &rank
	}
	return offers, nil
}

// Statistics считает среднее, минимум и максимум по каждому критерию.
func Statistics(bids []models.Bid) models.BidStatistics {
	if len(bids) == 0 {
		return models.BidStatistics{}
	}
	stats := func(value criterion) models.CriterionStats {
		lo, hi := bounds(bids, value)
		return models.CriterionStats{Average: average(bids, value), Min: lo, Max: hi}
	}
	return models.BidStatistics{
		Price:   stats(price),
		Time:    stats(days),
		Quality: stats(quality),
	}
}

// Compare строит сравнительный отчёт по предложениям запроса.
func Compare(solicitationID string, bids []models.Bid, weights models.ScoringWeights, now time.Time) (*models.ComparisonReport, error) {
	offers, err := Score(bids, weights)
	if err != nil {
		return nil, err
	}

	outliers := make([]models.OutlierNote, 0)
	for _, o := range offers {
		if o.Scoring.Outlier {
			outliers = append(outliers, models.OutlierNote{
				BidID:    o.Bid.ID,
				VendorID: o.Bid.VendorID,
				Reason:   o.Scoring.OutlierReason,
			})
		}
	}

	return &models.ComparisonReport{
		ID:             uuid.New().String(),
		SolicitationID: solicitationID,
		GeneratedAt:    now,
		Offers:         offers,
		Statistics:     Statistics(bids),
		Outliers:       outliers,
		ScoringWeights: weights,
	}, nil
}
