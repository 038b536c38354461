package season

import (
	"time"
)

// Season is a production cycle on the farm: a named window during
// which plantings, treatments and harvests are recorded.
type Season struct {
	ID        string     `db:"id"`
	Name      string     `db:"name"`
	CropType  string     `db:"crop_type"`
	StartDate time.Time  `db:"start_date"`
	EndDate   *time.Time `db:"end_date"`
	Status    string     `db:"status"`
	Notes     string     `db:"notes"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

const (
	StatusPlanned = "planned"
	StatusActive  = "active"
	StatusClosed  = "closed"
)
