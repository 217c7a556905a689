package writerepo

import (
	"context"

	"homesit/internal/domain/booking"
	"homesit/internal/infra"
	"homesit/internal/infra/db"

	"github.com/google/uuid"
)

type AvailabilityRepository struct {
	db db.DBTX
}

func NewAvailabilityRepository(dbtx db.DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{db: dbtx}
}

// setBookedQuery upserts one row per night. The range is half-open, so the
// generated series stops the day before end_date.
const setBookedQuery = `
INSERT INTO listing_availability (listing_id, day, is_booked)
SELECT $1, d::date, $4
FROM generate_series($2::date, $3::date - interval '1 day', interval '1 day') AS d
ON CONFLICT (listing_id, day)
DO UPDATE SET is_booked = EXCLUDED.is_booked, updated_at = now()`

func (r *AvailabilityRepository) SetBooked(ctx context.Context, listingID uuid.UUID, dates booking.DateRange, booked bool) error {
	_, err := r.db.Exec(ctx, setBookedQuery, listingID, dates.Start(), dates.End(), booked)
	if err != nil {
		return infra.WrapRepoErr("failed to update listing availability", err)
	}
	return nil
}
