package season

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agrodesk/backoffice/internal/core"
)

type Repository interface {
	Create(ctx context.Context, s *Season) error
	GetByID(ctx context.Context, id string) (*Season, error)
	Update(ctx context.Context, s *Season) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListSeasonsParams) ([]Season, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Season) error {
	query := `
		INSERT INTO seasons (id, name, crop_type, start_date, end_date, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, s, query,
		s.ID,
		s.Name,
		s.CropType,
		s.StartDate,
		s.EndDate,
		s.Status,
		s.Notes,
	)
	if err != nil {
		return fmt.Errorf("create season: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Season, error) {
	query := `
		SELECT id, name, crop_type, start_date, end_date, status, notes,
		       created_at, updated_at
		FROM seasons
		WHERE id = $1`

	var s Season
	err := r.db.GetContext(ctx, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get season: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get season: %w", err)
	}

	return &s, nil
}

func (r *repository) Update(ctx context.Context, s *Season) error {
	query := `
		UPDATE seasons
		SET name = $2, crop_type = $3, end_date = $4, status = $5,
		    notes = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &s.UpdatedAt, query,
		s.ID,
		s.Name,
		s.CropType,
		s.EndDate,
		s.Status,
		s.Notes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update season: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update season: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM seasons WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete season: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete season: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete season: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListSeasonsParams,
) ([]Season, int, error) {
	params.Normalize()

	where := ""
	args := []any{}
	if params.Status != "" {
		where = "WHERE status = $1"
		args = append(args, params.Status)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM seasons %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count seasons: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, crop_type, start_date, end_date, status, notes,
		       created_at, updated_at
		FROM seasons
		%s
		ORDER BY start_date DESC
		LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)

	args = append(args, params.PageSize, params.Offset())

	var seasons []Season
	if err := r.db.SelectContext(ctx, &seasons, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list seasons: %w", err)
	}

	return seasons, total, nil
}
