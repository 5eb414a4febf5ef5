package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	intconfig "teleferico/internal/config"
	intdb "teleferico/internal/db"
	"teleferico/internal/domain"
	"teleferico/internal/domain/models"

	"github.com/go-sql-driver/mysql"
)

const tripLogTable = "trip_log"

const createTripLogSQL = `
CREATE TABLE IF NOT EXISTS trip_log (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id CHAR(36) NOT NULL,
	cabin_id BIGINT NOT NULL,
	kind VARCHAR(16) NOT NULL,
	from_station VARCHAR(16) NOT NULL,
	to_station VARCHAR(16) NOT NULL,
	passengers INT NOT NULL DEFAULT 0,
	recorded_at DATETIME(3) NOT NULL,
	UNIQUE KEY uq_trip_kind (trip_id, kind),
	KEY idx_cabin (cabin_id, recorded_at)
)`

const defaultListLimit = 100

// TripLogRepository journals cabin departures and arrivals in MySQL.
type TripLogRepository struct {
	DB *sql.DB
}

func (r TripLogRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// EnsureTable creates trip_log when missing.
func (r TripLogRepository) EnsureTable(ctx context.Context) error {
	db := r.db()
	if db == nil {
		return fmt.Errorf("db tidak tersedia")
	}
	if _, err := db.ExecContext(ctx, createTripLogSQL); err != nil {
		return fmt.Errorf("create %s: %w", tripLogTable, err)
	}
	return nil
}

// RecordTrip inserts one journal row. A missing table is not an error: the
// event is dropped with a log line.
func (r TripLogRepository) RecordTrip(ctx context.Context, ev models.TripEvent) error {
	db := r.db()
	if db == nil {
		return fmt.Errorf("db tidak tersedia")
	}
	if !intdb.HasTable(db, tripLogTable) {
		log.Printf("[TRIP LOG] tabel %s belum tersedia, event %s/%s dilewati", tripLogTable, ev.TripID, ev.Kind)
		return nil
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO trip_log (trip_id, cabin_id, kind, from_station, to_station, passengers, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.TripID, int64(ev.CabinID), string(ev.Kind), string(ev.From), string(ev.To), ev.Passengers, ev.At.UTC(),
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return domain.ConflictError{Resource: "trip_log", Msg: "event already recorded", Err: domain.ErrDuplicateID}
		}
		return fmt.Errorf("insert trip_log: %w", err)
	}
	return nil
}

// ListByCabin returns the newest events first. cabinID 0 lists all cabins.
func (r TripLogRepository) ListByCabin(ctx context.Context, cabinID domain.ID, limit int) ([]models.TripEvent, error) {
	db := r.db()
	if db == nil || !intdb.HasTable(db, tripLogTable) {
		return []models.TripEvent{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = defaultListLimit
	}

	query := `
		SELECT trip_id, cabin_id, kind, from_station, to_station, passengers, recorded_at
		FROM trip_log`
	args := []any{}
	if cabinID != 0 {
		query += " WHERE cabin_id = ?"
		args = append(args, int64(cabinID))
	}
	query += " ORDER BY recorded_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TripEvent{}
	for rows.Next() {
		var (
			ev       models.TripEvent
			cabin    int64
			kind     string
			from, to string
		)
		if err := rows.Scan(&ev.TripID, &cabin, &kind, &from, &to, &ev.Passengers, &ev.At); err != nil {
			return out, err
		}
		ev.CabinID = domain.ID(cabin)
		ev.Kind = models.TripEventKind(kind)
		ev.From = domain.Station(from)
		ev.To = domain.Station(to)
		out = append(out, ev)
	}
	return out, rows.Err()
}
