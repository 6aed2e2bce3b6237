// Package repository implements the record-store adapters over MySQL.
// Every method is a point read, a single-row patch or an
// attribute-filtered scan; there are no transactions and no
// conditional writes here.  The service layer's read-patch-verify
// protocols are built on exactly this contract.
package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// seatColumns is the select list shared by every seat read.
const seatColumns = `id, event_id, section_id, row_label, seat_number, status, hold_id, hold_expiry, purchase_id, created_at, updated_at`

// SeatRepo provides data access to the seats table.  All timestamps
// are stored and compared in UTC.
type SeatRepo struct {
    db *sql.DB
}

// NewSeatRepo returns a SeatRepo bound to the provided database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// scanSeat reads one seat row from a row scanner shared by point reads
// and scans.
func scanSeat(scan func(dest ...interface{}) error) (*model.Seat, error) {
    var s model.Seat
    var holdID, purchaseID sql.NullString
    var holdExpiry sql.NullTime
    if err := scan(
        &s.ID, &s.EventID, &s.SectionID, &s.RowLabel, &s.SeatNumber,
        &s.Status, &holdID, &holdExpiry, &purchaseID, &s.CreatedAt, &s.UpdatedAt,
    ); err != nil {
        return nil, err
    }
    if holdID.Valid {
        v := holdID.String
        s.HoldID = &v
    }
    if holdExpiry.Valid {
        t := holdExpiry.Time.UTC()
        s.HoldExpiry = &t
    }
    if purchaseID.Valid {
        v := purchaseID.String
        s.PurchaseID = &v
    }
    return &s, nil
}

// GetByID returns a single seat.  service.ErrNoRecord is returned when
// the id is unknown.
func (r *SeatRepo) GetByID(ctx context.Context, id string) (*model.Seat, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+seatColumns+` FROM seats WHERE id = ?`, id)
    seat, err := scanSeat(row.Scan)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, service.ErrNoRecord
    }
    return seat, err
}

// Query scans seats matching the filter.  Zero-valued filter fields
// match anything.  Results are ordered by row and seat number for
// deterministic output.
func (r *SeatRepo) Query(ctx context.Context, f service.SeatFilter) ([]model.Seat, error) {
    q := `SELECT ` + seatColumns + ` FROM seats`
    var conds []string
    var args []interface{}
    if f.EventID != "" {
        conds = append(conds, "event_id = ?")
        args = append(args, f.EventID)
    }
    if f.SectionID != "" {
        conds = append(conds, "section_id = ?")
        args = append(args, f.SectionID)
    }
    if f.Status != "" {
        conds = append(conds, "status = ?")
        args = append(args, f.Status)
    }
    if f.HoldID != "" {
        conds = append(conds, "hold_id = ?")
        args = append(args, f.HoldID)
    }
    if len(conds) > 0 {
        q += " WHERE " + strings.Join(conds, " AND ")
    }
    q += " ORDER BY row_label, seat_number"
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var seats []model.Seat
    for rows.Next() {
        s, err := scanSeat(rows.Scan)
        if err != nil {
            return nil, err
        }
        seats = append(seats, *s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seats, nil
}

// MarkHeld patches a seat into the held state under the given hold.
// The write is unconditional; callers re-read to learn whether it
// survived a concurrent claim.
func (r *SeatRepo) MarkHeld(ctx context.Context, seatID, holdID string, expiresAt time.Time) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE seats SET status = ?, hold_id = ?, hold_expiry = ?, updated_at = UTC_TIMESTAMP(3) WHERE id = ?`,
        model.SeatHeld, holdID, expiresAt.UTC(), seatID,
    )
    return err
}

// MarkAvailable patches a seat back to available, clearing the hold
// and purchase references.
func (r *SeatRepo) MarkAvailable(ctx context.Context, seatID string) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE seats SET status = ?, hold_id = NULL, hold_expiry = NULL, purchase_id = NULL, updated_at = UTC_TIMESTAMP(3) WHERE id = ?`,
        model.SeatAvailable, seatID,
    )
    return err
}

// MarkSold patches a seat into its terminal sold state.
func (r *SeatRepo) MarkSold(ctx context.Context, seatID, purchaseID string) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE seats SET status = ?, purchase_id = ?, hold_id = NULL, hold_expiry = NULL, updated_at = UTC_TIMESTAMP(3) WHERE id = ?`,
        model.SeatSold, purchaseID, seatID,
    )
    return err
}
