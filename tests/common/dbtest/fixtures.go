//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func CreateTestProfile(t *testing.T, db DBLike, name, email string) uuid.UUID {
	t.Helper()

	profileID := uuid.New()
	ctx := context.Background()

	tag, err := db.Exec(ctx,
		"INSERT INTO profiles (id, full_name, email) VALUES ($1, $2, $3) ON CONFLICT (email) DO NOTHING",
		profileID, name, email)
	require.NoError(t, err)

	if tag.RowsAffected() == 0 {
		_ = db.QueryRow(ctx, "SELECT id FROM profiles WHERE email = $1", email).Scan(&profileID)
	}

	return profileID
}

func CreateTestListing(t *testing.T, db DBLike, ownerID uuid.UUID, title string) uuid.UUID {
	t.Helper()

	listingID := uuid.New()
	ctx := context.Background()

	_, err := db.Exec(ctx,
		"INSERT INTO listings (id, owner_id, title) VALUES ($1, $2, $3)",
		listingID, ownerID, title)
	require.NoError(t, err)

	return listingID
}

// CreateTestBooking inserts a booking with a populated fee snapshot at the
// platform test rates (1000/night service, 2000 cleaning, no insurance).
func CreateTestBooking(t *testing.T, db DBLike, listingID, sitterID, hostID uuid.UUID, start, end time.Time, status string) uuid.UUID {
	t.Helper()

	bookingID := uuid.New()
	ctx := context.Background()

	nights := int64(end.Sub(start).Hours() / 24)
	serviceFeeTotal := nights * 1000
	totalFee := serviceFeeTotal + 2000

	_, err := db.Exec(ctx, `
		INSERT INTO bookings (
		    id, listing_id, sitter_id, host_id, requested_by,
		    start_date, end_date, status, payment_status,
		    service_fee_per_night, cleaning_fee, service_fee_total,
		    insurance_cost, total_fee, cash_due
		) VALUES ($1, $2, $3, $4, $3, $5, $6, $7, 'unpaid', 1000, 2000, $8, 0, $9, $9)`,
		bookingID, listingID, sitterID, hostID, start, end, status, serviceFeeTotal, totalFee)
	require.NoError(t, err)

	return bookingID
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables between subtests
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return nil
}
