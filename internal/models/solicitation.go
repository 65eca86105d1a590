package models

import "time"

type (
	SolicitationStatus string // Статус запроса на котировку
	InvitationStatus   string // Статус приглашения поставщика
)

const (
	DraftSolicitation     SolicitationStatus = "draft"     // Черновик, существует только внутри создания
	OpenSolicitation      SolicitationStatus = "open"      // Приём предложений
	AwardedSolicitation   SolicitationStatus = "awarded"   // Победитель выбран
	CancelledSolicitation SolicitationStatus = "cancelled" // Запрос отменён

	InvitedVendor   InvitationStatus = "invited"   // Приглашение отправлено
	RespondedVendor InvitationStatus = "responded" // Поставщик подал предложение
	DeclinedVendor  InvitationStatus = "declined"  // Поставщик отказался
)

// SolicitationTransitions - допустимые переходы статусов запроса на котировку.
var SolicitationTransitions = map[SolicitationStatus][]SolicitationStatus{
	DraftSolicitation:     {OpenSolicitation},
	OpenSolicitation:      {AwardedSolicitation, CancelledSolicitation},
	AwardedSolicitation:   {},
	CancelledSolicitation: {},
}

// CanTransition проверяет, разрешён ли переход из одного статуса в другой.
func (s SolicitationStatus) CanTransition(to SolicitationStatus) bool {
	for _, valid := range SolicitationTransitions[s] {
		if valid == to {
			return true
		}
	}
	return false
}

// ScoringWeights - веса критериев оценки. Сумма весов не обязана быть равной 1.
type ScoringWeights struct {
	Price   float64 `json:"price"`
	Time    float64 `json:"time"`
	Quality float64 `json:"quality"`
}

// DefaultScoringWeights используются, если веса не заданы при создании.
var DefaultScoringWeights = ScoringWeights{Price: 0.5, Time: 0.3, Quality: 0.2}

// Validate проверяет, что веса неотрицательны.
func (w ScoringWeights) Validate() error {
	switch {
	case w.Price < 0:
		return NewValidationError("scoringWeights.price", "weight must be non-negative")
	case w.Time < 0:
		return NewValidationError("scoringWeights.time", "weight must be non-negative")
	case w.Quality < 0:
		return NewValidationError("scoringWeights.quality", "weight must be non-negative")
	}
	return nil
}

// LineItem - позиция работ в запросе на котировку.
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
}

// Invitation - приглашение поставщика к участию.
type Invitation struct {
	VendorID       string           `json:"vendorId"`
	VendorName     string           `json:"vendorName"`
	Email          string           `json:"email"`
	InvitedAt      time.Time        `json:"invitedAt"`
	Status         InvitationStatus `json:"status"`
	ExpiresAt      time.Time        `json:"expiresAt"`
	AccessTokenRef string           `json:"-"`
}

// Solicitation представляет модель запроса на котировку.
type Solicitation struct {
	ID             string                `json:"id"`
	ProjectID      string                `json:"projectId"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Deadline       time.Time             `json:"deadline"`
	Status         SolicitationStatus    `json:"status"`
	Lines          []LineItem            `json:"lines"`
	InvitedVendors map[string]Invitation `json:"invitedVendors"`
	ScoringWeights ScoringWeights        `json:"scoringWeights"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
	CreatedBy      string                `json:"createdBy"`
	AwardedTo      *string               `json:"awardedTo,omitempty"`
	AwardedAt      *time.Time            `json:"awardedAt,omitempty"`
	Version        int                   `json:"version"`
}

// HasLine проверяет, есть ли позиция с указанным ID.
func (s *Solicitation) HasLine(lineID string) bool {
	for _, line := range s.Lines {
		if line.ID == lineID {
			return true
		}
	}
	return false
}

// Clone возвращает копию, не разделяющую изменяемые поля с оригиналом.
func (s *Solicitation) Clone() *Solicitation {
	c := *s
	c.Lines = append([]LineItem(nil), s.Lines...)
	c.InvitedVendors = make(map[string]Invitation, len(s.InvitedVendors))
	for id, inv := range s.InvitedVendors {
		c.InvitedVendors[id] = inv
	}
	if s.AwardedTo != nil {
		v := *s.AwardedTo
		c.AwardedTo = &v
	}
	if s.AwardedAt != nil {
		v := *s.AwardedAt
		c.AwardedAt = &v
	}
	return &c
}

// Vendor - запись справочника поставщиков.
type Vendor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SolicitationRequest представляет структуру запроса для создания запроса на котировку.
type SolicitationRequest struct {
	ProjectID        string          `json:"projectId"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Lines            []LineItem      `json:"lines"`
	InvitedVendorIDs []string        `json:"invitedVendorIds"`
	DeadlineDays     int             `json:"deadlineDays"`
	ScoringWeights   *ScoringWeights `json:"scoringWeights,omitempty"`
	CreatedBy        string          `json:"createdBy"`
}

// InvitedVendorLink - ссылка доступа, выданная приглашённому поставщику.
type InvitedVendorLink struct {
	VendorID   string    `json:"vendorId"`
	VendorName string    `json:"vendorName"`
	Email      string    `json:"email"`
	AccessLink string    `json:"accessLink"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// SolicitationCreated - ответ на создание запроса на котировку.
type SolicitationCreated struct {
	SolicitationID string              `json:"solicitationId"`
	InvitedVendors []InvitedVendorLink `json:"invitedVendors"`
	Deadline       time.Time           `json:"deadline"`
}
