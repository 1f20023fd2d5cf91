// Package postgres implements the booking store on pgx. Row locking is plain
// SELECT ... FOR UPDATE inside the unit-of-work transaction; the database
// serializes concurrent attempts against the same amenity rows.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"amenity-booking-service/internal/booking"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &queries{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	return fn(ctx, &queries{db: s.pool})
}

// Ready reports whether the schema the service needs is in place.
func (s *Store) Ready(ctx context.Context) error {
	return s.ValidateCompatibility(ctx)
}

// dbconn is the subset of pgx shared by pgxpool.Pool and pgx.Tx.
type dbconn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	db dbconn
}

const amenityColumns = `id, building_id, name, capacity, is_active`

func scanAmenity(row pgx.Row) (*booking.Amenity, error) {
	var a booking.Amenity
	if err := row.Scan(&a.ID, &a.BuildingID, &a.Name, &a.Capacity, &a.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (q *queries) ResolveActiveAmenity(ctx context.Context, name, buildingID string, lock bool) (*booking.Amenity, error) {
	sql := `SELECT ` + amenityColumns + ` FROM amenities WHERE lower(name)=lower($1) AND is_active`
	args := []any{name}
	if buildingID != "" {
		sql += ` AND building_id=$2`
		args = append(args, buildingID)
	}
	sql += ` LIMIT 1`
	if lock {
		sql += ` FOR UPDATE`
	}
	return scanAmenity(q.db.QueryRow(ctx, sql, args...))
}

func (q *queries) AmenityByID(ctx context.Context, id string) (*booking.Amenity, error) {
	return scanAmenity(q.db.QueryRow(ctx, `SELECT `+amenityColumns+` FROM amenities WHERE id=$1`, id))
}

func (q *queries) BuildingByID(ctx context.Context, id string) (*booking.Building, error) {
	var b booking.Building
	err := q.db.QueryRow(ctx, `SELECT id, name, COALESCE(timezone,'') FROM buildings WHERE id=$1`, id).
		Scan(&b.ID, &b.Name, &b.Timezone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (q *queries) RuleByAmenityID(ctx context.Context, amenityID string) (*booking.AmenityRule, error) {
	var (
		r          booking.AmenityRule
		start, end string
	)
	err := q.db.QueryRow(ctx, `SELECT id, building_id, amenity_id, max_capacity, max_duration_minutes,
	       slot_length_minutes, advance_booking_limit_days, operating_start_time, operating_end_time,
	       allow_overlap, created_at, updated_at
	  FROM amenity_rules WHERE amenity_id=$1`, amenityID).
		Scan(&r.ID, &r.BuildingID, &r.AmenityID, &r.MaxCapacity, &r.MaxDurationMinutes,
			&r.SlotLengthMinutes, &r.AdvanceBookingLimitDays, &start, &end,
			&r.AllowOverlap, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if r.OperatingStartTime, err = booking.ParseTimeOfDay(start); err != nil {
		return nil, fmt.Errorf("rule %s operating_start_time: %w", r.ID, err)
	}
	if r.OperatingEndTime, err = booking.ParseTimeOfDay(end); err != nil {
		return nil, fmt.Errorf("rule %s operating_end_time: %w", r.ID, err)
	}
	return &r, nil
}

const bookingColumns = `id, building_id, amenity_id, COALESCE(user_id,''), start_time, end_time, status, created_at`

func scanBookingRows(rows pgx.Rows) ([]booking.Booking, error) {
	defer rows.Close()

	var out []booking.Booking
	for rows.Next() {
		var b booking.Booking
		if err := rows.Scan(&b.ID, &b.BuildingID, &b.AmenityID, &b.UserID,
			&b.StartTime, &b.EndTime, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (q *queries) OverlappingBookings(ctx context.Context, amenityID string, start, end time.Time, lock bool) ([]booking.Booking, error) {
	sql := `SELECT ` + bookingColumns + `
	  FROM bookings
	  WHERE amenity_id=$1 AND status='BOOKED' AND start_time < $2 AND end_time > $3`
	if lock {
		sql += ` FOR UPDATE`
	}
	rows, err := q.db.Query(ctx, sql, amenityID, end, start)
	if err != nil {
		return nil, err
	}
	return scanBookingRows(rows)
}

func (q *queries) CountOverlappingBookings(ctx context.Context, amenityID string, start, end time.Time) (int, error) {
	var count int
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM bookings
	  WHERE amenity_id=$1 AND status='BOOKED' AND start_time < $2 AND end_time > $3`,
		amenityID, end, start).Scan(&count)
	return count, err
}

func (q *queries) BookingByID(ctx context.Context, id string) (*booking.Booking, error) {
	var b booking.Booking
	err := q.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id).
		Scan(&b.ID, &b.BuildingID, &b.AmenityID, &b.UserID,
			&b.StartTime, &b.EndTime, &b.Status, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (q *queries) LatestBookedBooking(ctx context.Context, amenityID string, start time.Time, userID string, lock bool) (*booking.Booking, error) {
	sql := `SELECT ` + bookingColumns + `
	  FROM bookings
	  WHERE amenity_id=$1 AND start_time=$2 AND status='BOOKED'`
	args := []any{amenityID, start}
	if userID != "" {
		sql += ` AND user_id=$3`
		args = append(args, userID)
	}
	sql += ` ORDER BY created_at DESC LIMIT 1`
	if lock {
		sql += ` FOR UPDATE`
	}

	var b booking.Booking
	err := q.db.QueryRow(ctx, sql, args...).
		Scan(&b.ID, &b.BuildingID, &b.AmenityID, &b.UserID,
			&b.StartTime, &b.EndTime, &b.Status, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (q *queries) InsertBooking(ctx context.Context, b *booking.Booking) error {
	_, err := q.db.Exec(ctx, `INSERT INTO bookings
	  (id, building_id, amenity_id, user_id, start_time, end_time, status, created_at)
	  VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8)`,
		b.ID, b.BuildingID, b.AmenityID, b.UserID, b.StartTime, b.EndTime, b.Status, b.CreatedAt)
	return err
}

func (q *queries) UpdateBookingStatus(ctx context.Context, id string, status booking.BookingStatus) error {
	tag, err := q.db.Exec(ctx, `UPDATE bookings SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (q *queries) InsertAmenity(ctx context.Context, a *booking.Amenity) error {
	_, err := q.db.Exec(ctx, `INSERT INTO amenities (id, building_id, name, capacity, is_active)
	  VALUES ($1,$2,$3,$4,$5)`,
		a.ID, a.BuildingID, a.Name, a.Capacity, a.IsActive)
	return err
}

func (q *queries) UpdateAmenity(ctx context.Context, a *booking.Amenity) error {
	tag, err := q.db.Exec(ctx, `UPDATE amenities SET name=$1, capacity=$2, is_active=$3 WHERE id=$4`,
		a.Name, a.Capacity, a.IsActive, a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (q *queries) InsertRule(ctx context.Context, r *booking.AmenityRule) error {
	_, err := q.db.Exec(ctx, `INSERT INTO amenity_rules
	  (id, building_id, amenity_id, max_capacity, max_duration_minutes, slot_length_minutes,
	   advance_booking_limit_days, operating_start_time, operating_end_time, allow_overlap)
	  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.ID, r.BuildingID, r.AmenityID, r.MaxCapacity, r.MaxDurationMinutes, r.SlotLengthMinutes,
		r.AdvanceBookingLimitDays, r.OperatingStartTime.String(), r.OperatingEndTime.String(), r.AllowOverlap)
	return err
}

func (q *queries) UpdateRule(ctx context.Context, r *booking.AmenityRule) error {
	tag, err := q.db.Exec(ctx, `UPDATE amenity_rules
	  SET building_id=$1, max_capacity=$2, max_duration_minutes=$3, slot_length_minutes=$4,
	      advance_booking_limit_days=$5, operating_start_time=$6, operating_end_time=$7,
	      allow_overlap=$8, updated_at=now()
	  WHERE amenity_id=$9`,
		r.BuildingID, r.MaxCapacity, r.MaxDurationMinutes, r.SlotLengthMinutes,
		r.AdvanceBookingLimitDays, r.OperatingStartTime.String(), r.OperatingEndTime.String(),
		r.AllowOverlap, r.AmenityID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (q *queries) ListActiveAmenities(ctx context.Context, buildingID string) ([]booking.Amenity, error) {
	rows, err := q.db.Query(ctx, `SELECT `+amenityColumns+` FROM amenities
	  WHERE building_id=$1 AND is_active ORDER BY name ASC`, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Amenity
	for rows.Next() {
		var a booking.Amenity
		if err := rows.Scan(&a.ID, &a.BuildingID, &a.Name, &a.Capacity, &a.IsActive); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (q *queries) UserBookings(ctx context.Context, userID, buildingID string, history bool, now time.Time) ([]booking.UserBooking, error) {
	sql := `SELECT b.id, b.building_id, b.amenity_id, COALESCE(b.user_id,''),
	       b.start_time, b.end_time, b.status, b.created_at, a.name
	  FROM bookings b
	  JOIN amenities a ON a.id = b.amenity_id
	  WHERE b.user_id=$1`
	args := []any{userID, now}
	if history {
		sql += ` AND (b.status='CANCELLED' OR b.end_time < $2)`
	} else {
		sql += ` AND b.status='BOOKED' AND b.start_time >= $2`
	}
	if buildingID != "" {
		sql += ` AND b.building_id=$3`
		args = append(args, buildingID)
	}
	if history {
		sql += ` ORDER BY b.start_time DESC`
	} else {
		sql += ` ORDER BY b.start_time ASC`
	}

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.UserBooking
	for rows.Next() {
		var ub booking.UserBooking
		if err := rows.Scan(&ub.ID, &ub.BuildingID, &ub.AmenityID, &ub.UserID,
			&ub.StartTime, &ub.EndTime, &ub.Status, &ub.CreatedAt, &ub.AmenityName); err != nil {
			return nil, err
		}
		out = append(out, ub)
	}
	return out, rows.Err()
}
