package season

import (
	"time"
)

type CreateSeasonRequest struct {
	Name      string     `json:"name"       validate:"required,min=1,max=100"`
	CropType  string     `json:"crop_type"  validate:"required,min=1,max=100"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Notes     string     `json:"notes"      validate:"max=2000"`
}

type UpdateSeasonRequest struct {
	Name     *string    `json:"name,omitempty"      validate:"omitempty,min=1,max=100"`
	CropType *string    `json:"crop_type,omitempty" validate:"omitempty,min=1,max=100"`
	EndDate  *time.Time `json:"end_date,omitempty"`
	Status   *string    `json:"status,omitempty"    validate:"omitempty,oneof=planned active closed"`
	Notes    *string    `json:"notes,omitempty"     validate:"omitempty,max=2000"`
}

type SeasonResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CropType  string     `json:"crop_type"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Status    string     `json:"status"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type ListSeasonsParams struct {
	Page     int
	PageSize int
	Status   string
}

func (p *ListSeasonsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListSeasonsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToSeasonResponse(s *Season) SeasonResponse {
	return SeasonResponse{
		ID:        s.ID,
		Name:      s.Name,
		CropType:  s.CropType,
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
		Status:    s.Status,
		Notes:     s.Notes,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
