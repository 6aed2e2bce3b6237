package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// HoldRepo provides data access to the holds table.  Seat ids are
// stored as a JSON array column since the store is patched one record
// at a time and the list is immutable after creation.
type HoldRepo struct {
    db *sql.DB
}

// NewHoldRepo returns a HoldRepo bound to the provided database.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

// Create inserts a new hold record.
func (r *HoldRepo) Create(ctx context.Context, h *model.Hold) error {
    seatIDs, err := json.Marshal(h.SeatIDs)
    if err != nil {
        return fmt.Errorf("marshal seat ids: %w", err)
    }
    _, err = r.db.ExecContext(ctx,
        `INSERT INTO holds (id, event_id, seat_ids, owner_id, status, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
        h.ID, h.EventID, seatIDs, h.OwnerID, h.Status, h.ExpiresAt.UTC(), h.CreatedAt.UTC(),
    )
    return err
}

// GetByID returns a single hold.  service.ErrNoRecord is returned when
// the id is unknown.
func (r *HoldRepo) GetByID(ctx context.Context, id string) (*model.Hold, error) {
    var h model.Hold
    var seatIDs []byte
    err := r.db.QueryRowContext(ctx,
        `SELECT id, event_id, seat_ids, owner_id, status, expires_at, created_at FROM holds WHERE id = ?`,
        id,
    ).Scan(&h.ID, &h.EventID, &seatIDs, &h.OwnerID, &h.Status, &h.ExpiresAt, &h.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, service.ErrNoRecord
    }
    if err != nil {
        return nil, err
    }
    if err := json.Unmarshal(seatIDs, &h.SeatIDs); err != nil {
        return nil, fmt.Errorf("unmarshal seat ids: %w", err)
    }
    h.ExpiresAt = h.ExpiresAt.UTC()
    h.CreatedAt = h.CreatedAt.UTC()
    return &h, nil
}

// SetStatus patches a hold's status.
func (r *HoldRepo) SetStatus(ctx context.Context, id, status string) error {
    _, err := r.db.ExecContext(ctx, `UPDATE holds SET status = ? WHERE id = ?`, status, id)
    return err
}
