// README: Pickup request store backed by PostgreSQL; persists auction outcomes.
package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"relay/internal/modules/auction"
	"relay/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, r *PickupRequest) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO pickup_requests (
            id, pickup_point_id, state, created_at, deadline
        ) VALUES ($1, $2, $3, $4, $5)`,
		string(r.ID), string(r.PickupPointID), string(r.State), r.CreatedAt, r.Deadline,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("store.Create: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*PickupRequest, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, pickup_point_id, state, assigned_volunteer_id, cost,
               created_at, deadline, closed_at
        FROM pickup_requests
        WHERE id = $1`, string(id),
	)
	var r PickupRequest
	var assigned sql.NullString
	var cost sql.NullFloat64
	var closedAt sql.NullTime

	err := row.Scan(
		&r.ID, &r.PickupPointID, &r.State, &assigned, &cost,
		&r.CreatedAt, &r.Deadline, &closedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store.Get: %w", err)
	}

	if assigned.Valid {
		id := types.ID(assigned.String)
		r.AssignedVolunteerID = &id
	}
	if cost.Valid {
		v := cost.Float64
		r.Cost = &v
	}
	if closedAt.Valid {
		t := closedAt.Time
		r.ClosedAt = &t
	}
	return &r, nil
}

// SaveState persists a non-terminal transition. Terminal rows are
// immutable; the guard makes replays after close a no-op.
func (s *Store) SaveState(ctx context.Context, requestID types.ID, state auction.State) error {
	_, err := s.db.Exec(ctx, `
        UPDATE pickup_requests
        SET state = $2
        WHERE id = $1
          AND state NOT IN ('assigned', 'unassigned', 'failed')`,
		string(requestID), string(state),
	)
	if err != nil {
		return fmt.Errorf("store.SaveState: %w", err)
	}
	return nil
}

// SaveOutcome writes the terminal result. This is the commit write the
// coordinator retries.
func (s *Store) SaveOutcome(ctx context.Context, o auction.Outcome) error {
	var assigned *string
	if o.VolunteerID != nil {
		v := string(*o.VolunteerID)
		assigned = &v
	}
	closedAt := time.Now()
	if o.ClosedAt != nil {
		closedAt = *o.ClosedAt
	}
	tag, err := s.db.Exec(ctx, `
        UPDATE pickup_requests
        SET state = $2,
            assigned_volunteer_id = $3,
            cost = $4,
            closed_at = $5
        WHERE id = $1
          AND state NOT IN ('assigned', 'unassigned', 'failed')`,
		string(o.RequestID), string(o.State), assigned, o.Cost, closedAt,
	)
	if err != nil {
		return fmt.Errorf("store.SaveOutcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Row is gone or already terminal; either way there is nothing
		// left to commit.
		return nil
	}
	return nil
}

func (s *Store) GetOutcome(ctx context.Context, requestID types.ID) (auction.Outcome, error) {
	row := s.db.QueryRow(ctx, `
        SELECT state, assigned_volunteer_id, cost, closed_at
        FROM pickup_requests
        WHERE id = $1`, string(requestID),
	)
	var state string
	var assigned sql.NullString
	var cost sql.NullFloat64
	var closedAt sql.NullTime

	err := row.Scan(&state, &assigned, &cost, &closedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return auction.Outcome{}, auction.ErrNotFound
	}
	if err != nil {
		return auction.Outcome{}, fmt.Errorf("store.GetOutcome: %w", err)
	}

	o := auction.Outcome{RequestID: requestID, State: auction.State(state)}
	if assigned.Valid {
		id := types.ID(assigned.String)
		o.VolunteerID = &id
	}
	if cost.Valid {
		v := cost.Float64
		o.Cost = &v
	}
	if closedAt.Valid {
		t := closedAt.Time
		o.ClosedAt = &t
	}
	return o, nil
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
