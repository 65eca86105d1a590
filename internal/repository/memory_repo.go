package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/senyabanana/rfq-service/internal/models"

	"github.com/google/uuid"
)

// memoryEntry - запрос на котировку и его предложения под собственной блокировкой.
type memoryEntry struct {
	mu           sync.Mutex
	solicitation *models.Solicitation
	bids         map[string]*models.Bid // по vendorId
}

// MemoryRFQRepository - реализация RFQRepository в памяти.
// Общая блокировка защищает только карту запросов; изменения сериализуются блокировкой записи.
type MemoryRFQRepository struct {
	mu      sync.RWMutex
	vendors map[string]models.Vendor
	entries map[string]*memoryEntry
}

// NewMemoryRFQRepository создаёт новый экземпляр MemoryRFQRepository со справочником поставщиков.
func NewMemoryRFQRepository(vendors ...models.Vendor) *MemoryRFQRepository {
	r := &MemoryRFQRepository{
		vendors: make(map[string]models.Vendor, len(vendors)),
		entries: make(map[string]*memoryEntry),
	}
	for _, v := range vendors {
		r.vendors[v.ID] = v
	}
	return r
}

// AddVendor добавляет поставщика в справочник.
func (r *MemoryRFQRepository) AddVendor(vendor models.Vendor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vendors[vendor.ID] = vendor
}

func (r *MemoryRFQRepository) entry(solicitationId string) (*memoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[solicitationId]
	if !ok {
		return nil, models.NewNotFoundError("solicitation %s not found", solicitationId)
	}
	return e, nil
}

// GetVendors возвращает найденных поставщиков по списку ID.
func (r *MemoryRFQRepository) GetVendors(_ context.Context, vendorIds []string) (map[string]models.Vendor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found := make(map[string]models.Vendor, len(vendorIds))
	for _, id := range vendorIds {
		if v, ok := r.vendors[id]; ok {
			found[id] = v
		}
	}
	return found, nil
}

// CreateSolicitation сохраняет новый запрос на котировку.
func (r *MemoryRFQRepository) CreateSolicitation(_ context.Context, sol *models.Solicitation, now time.Time) (*models.Solicitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := checkNewSolicitation(sol, r.vendors, now); err != nil {
		return nil, err
	}
	if _, exists := r.entries[sol.ID]; exists {
		return nil, models.NewConflictError("solicitation %s already exists", sol.ID)
	}

	stored := sol.Clone()
	stored.Version = 1
	r.entries[sol.ID] = &memoryEntry{solicitation: stored, bids: make(map[string]*models.Bid)}
	return stored.Clone(), nil
}

// GetSolicitation возвращает копию запроса на котировку.
func (r *MemoryRFQRepository) GetSolicitation(_ context.Context, solicitationId string) (*models.Solicitation, error) {
	e, err := r.entry(solicitationId)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.solicitation.Clone(), nil
}

// RecordBid сохраняет предложение; проверка уникальности и вставка выполняются под одной блокировкой.
func (r *MemoryRFQRepository) RecordBid(_ context.Context, solicitationId, vendorId string, bidReq models.BidRequest, now time.Time) (*models.Bid, error) {
	e, err := r.entry(solicitationId)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := checkBidAllowed(e.solicitation, vendorId, now); err != nil {
		return nil, err
	}
	if _, exists := e.bids[vendorId]; exists {
		return nil, models.NewConflictError("vendor %s has already submitted a bid for solicitation %s", vendorId, solicitationId)
	}
	if err := models.ValidateBidLines(e.solicitation, bidReq.Lines); err != nil {
		return nil, err
	}

	bid := newBid(uuid.New().String(), solicitationId, vendorId, bidReq, now)
	stored := bid.Clone()
	e.bids[vendorId] = &stored

	inv := e.solicitation.InvitedVendors[vendorId]
	inv.Status = models.RespondedVendor
	e.solicitation.InvitedVendors[vendorId] = inv
	e.solicitation.UpdatedAt = now
	e.solicitation.Version++
	return &bid, nil
}

// ListBids возвращает копии предложений в порядке подачи.
func (r *MemoryRFQRepository) ListBids(_ context.Context, solicitationId string) ([]models.Bid, error) {
	e, err := r.entry(solicitationId)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	bids := make([]models.Bid, 0, len(e.bids))
	for _, b := range e.bids {
		bids = append(bids, b.Clone())
	}
	sort.Slice(bids, func(i, j int) bool {
		if !bids[i].SubmittedAt.Equal(bids[j].SubmittedAt) {
			return bids[i].SubmittedAt.Before(bids[j].SubmittedAt)
		}
		return bids[i].ID < bids[j].ID
	})
	return bids, nil
}

// SaveScoring сохраняет результаты оценки и места.
func (r *MemoryRFQRepository) SaveScoring(_ context.Context, solicitationId string, offers []models.RankedOffer) error {
	e, err := r.entry(solicitationId)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, offer := range offers {
		stored, ok := e.bids[offer.Bid.VendorID]
		if !ok || stored.ID != offer.Bid.ID {
			continue
		}
		scoring := offer.Scoring
		rank := offer.Rank
		stored.Scoring = &scoring
		stored.Rank = &rank
	}
	return nil
}

// TransitionToAwarded переводит запрос в статус awarded только из open.
func (r *MemoryRFQRepository) TransitionToAwarded(_ context.Context, solicitationId, vendorId string, now time.Time) (*models.Solicitation, error) {
	e, err := r.entry(solicitationId)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	sol := e.solicitation
	if sol.Status != models.OpenSolicitation {
		return nil, models.NewConflictError("solicitation %s is %s, cannot transition to %s", solicitationId, sol.Status, models.AwardedSolicitation)
	}
	winner, ok := e.bids[vendorId]
	if !ok || winner.Status != models.SubmittedBid {
		return nil, models.NewValidationError("vendorId", "vendor %s has no submitted bid for solicitation %s", vendorId, solicitationId)
	}

	awardedTo := vendorId
	awardedAt := now
	sol.Status = models.AwardedSolicitation
	sol.AwardedTo = &awardedTo
	sol.AwardedAt = &awardedAt
	sol.UpdatedAt = now
	sol.Version++
	winner.Status = models.AwardedBid
	return sol.Clone(), nil
}

// TransitionToCancelled переводит запрос в статус cancelled только из open.
func (r *MemoryRFQRepository) TransitionToCancelled(_ context.Context, solicitationId string, now time.Time) (*models.Solicitation, error) {
	e, err := r.entry(solicitationId)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	sol := e.solicitation
	if sol.Status != models.OpenSolicitation {
		return nil, models.NewConflictError("solicitation %s is %s, cannot transition to %s", solicitationId, sol.Status, models.CancelledSolicitation)
	}
	sol.Status = models.CancelledSolicitation
	sol.UpdatedAt = now
	sol.Version++
	return sol.Clone(), nil
}

// DeclineInvitation отмечает отказ поставщика от участия.
func (r *MemoryRFQRepository) DeclineInvitation(_ context.Context, solicitationId, vendorId string, now time.Time) (*models.Solicitation, error) {
	e, err := r.entry(solicitationId)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := checkDeclineAllowed(e.solicitation, vendorId, now); err != nil {
		return nil, err
	}
	inv := e.solicitation.InvitedVendors[vendorId]
	inv.Status = models.DeclinedVendor
	e.solicitation.InvitedVendors[vendorId] = inv
	e.solicitation.UpdatedAt = now
	e.solicitation.Version++
	return e.solicitation.Clone(), nil
}
