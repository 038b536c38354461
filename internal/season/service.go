package season

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrEndBeforeStart = errors.New("end date is before start date")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(
	ctx context.Context,
	req CreateSeasonRequest,
) (*SeasonResponse, error) {
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, ErrEndBeforeStart
	}

	season := &Season{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CropType:  req.CropType,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    StatusPlanned,
		Notes:     req.Notes,
	}

	if err := s.repo.Create(ctx, season); err != nil {
		return nil, err
	}

	resp := ToSeasonResponse(season)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*SeasonResponse, error) {
	season, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := ToSeasonResponse(season)
	return &resp, nil
}

func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateSeasonRequest,
) (*SeasonResponse, error) {
	season, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		season.Name = *req.Name
	}
	if req.CropType != nil {
		season.CropType = *req.CropType
	}
	if req.EndDate != nil {
		season.EndDate = req.EndDate
	}
	if req.Status != nil {
		season.Status = *req.Status
	}
	if req.Notes != nil {
		season.Notes = *req.Notes
	}

	if season.EndDate != nil && season.EndDate.Before(season.StartDate) {
		return nil, ErrEndBeforeStart
	}

	if err := s.repo.Update(ctx, season); err != nil {
		return nil, err
	}

	resp := ToSeasonResponse(season)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	params ListSeasonsParams,
) ([]SeasonResponse, int, error) {
	seasons, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]SeasonResponse, 0, len(seasons))
	for i := range seasons {
		responses = append(responses, ToSeasonResponse(&seasons[i]))
	}

	return responses, total, nil
}
