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

// PurchaseRepo provides data access to the purchases table.
type PurchaseRepo struct {
    db *sql.DB
}

// NewPurchaseRepo returns a PurchaseRepo bound to the provided database.
func NewPurchaseRepo(db *sql.DB) *PurchaseRepo { return &PurchaseRepo{db: db} }

// Create inserts a new purchase record.  Seat ids and total price are
// frozen at commit time and never updated afterwards.
func (r *PurchaseRepo) Create(ctx context.Context, p *model.Purchase) error {
    seatIDs, err := json.Marshal(p.SeatIDs)
    if err != nil {
        return fmt.Errorf("marshal seat ids: %w", err)
    }
    _, err = r.db.ExecContext(ctx,
        `INSERT INTO purchases (id, event_id, owner_id, seat_ids, total_price_cents, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
        p.ID, p.EventID, p.OwnerID, seatIDs, p.TotalPriceCents, p.Status, p.CreatedAt.UTC(),
    )
    return err
}

// GetByID returns a single purchase.  service.ErrNoRecord is returned
// when the id is unknown.
func (r *PurchaseRepo) GetByID(ctx context.Context, id string) (*model.Purchase, error) {
    var p model.Purchase
    var seatIDs []byte
    err := r.db.QueryRowContext(ctx,
        `SELECT id, event_id, owner_id, seat_ids, total_price_cents, status, created_at FROM purchases WHERE id = ?`,
        id,
    ).Scan(&p.ID, &p.EventID, &p.OwnerID, &seatIDs, &p.TotalPriceCents, &p.Status, &p.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, service.ErrNoRecord
    }
    if err != nil {
        return nil, err
    }
    if err := json.Unmarshal(seatIDs, &p.SeatIDs); err != nil {
        return nil, fmt.Errorf("unmarshal seat ids: %w", err)
    }
    p.CreatedAt = p.CreatedAt.UTC()
    return &p, nil
}

// SetStatus patches a purchase's status.
func (r *PurchaseRepo) SetStatus(ctx context.Context, id, status string) error {
    _, err := r.db.ExecContext(ctx, `UPDATE purchases SET status = ? WHERE id = ?`, status, id)
    return err
}
