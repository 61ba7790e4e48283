package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/storage"
)

const tripColumns = "id, title, destination, description, created_by, is_complete, is_archived, created_at, version"

// CreateTrip persists a new trip with its roster. The creator is always the
// first participant.
func (s *SQLiteStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	// Generate ID if not set
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	if trip.CreatedAt == 0 {
		trip.CreatedAt = time.Now().Unix()
	}
	trip.Version = 1
	trip.Participants = withCreatorFirst(trip.CreatedBy, trip.Participants)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO trips (`+tripColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			trip.ID, trip.Title, trip.Destination, trip.Description, trip.CreatedBy,
			boolToInt(trip.IsComplete), boolToInt(trip.IsArchived), trip.CreatedAt, trip.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trip: %w", err)
		}

		for i, userID := range trip.Participants {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO trip_participants (trip_id, user_id, position) VALUES (?, ?, ?)",
				trip.ID, userID, i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert participant: %w", err)
			}
		}
		return nil
	})
}

// GetTrip retrieves a trip by ID, including its roster.
func (s *SQLiteStore) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	return getTrip(ctx, s.db, tripID)
}

func getTrip(ctx context.Context, q queryer, tripID string) (*models.Trip, error) {
	trip, err := scanTrip(q.QueryRowContext(ctx,
		"SELECT "+tripColumns+" FROM trips WHERE id = ?",
		tripID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trip %s: %w", tripID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	rosters, err := getRosters(ctx, q, []string{trip.ID})
	if err != nil {
		return nil, err
	}
	trip.Participants = rosters[trip.ID]

	return trip, nil
}

// ListTripsByParticipant retrieves the trips a user belongs to, newest first.
func (s *SQLiteStore) ListTripsByParticipant(ctx context.Context, userID string, includeArchived bool) ([]*models.Trip, error) {
	query := `
		SELECT t.id, t.title, t.destination, t.description, t.created_by,
		       t.is_complete, t.is_archived, t.created_at, t.version
		FROM trips t
		JOIN trip_participants p ON p.trip_id = t.id
		WHERE p.user_id = ?`
	if !includeArchived {
		query += " AND t.is_archived = 0"
	}
	query += " ORDER BY t.created_at DESC, t.id"

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}

	var trips []*models.Trip
	var ids []string
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
		ids = append(ids, trip.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}

	rosters, err := getRosters(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for _, trip := range trips {
		trip.Participants = rosters[trip.ID]
	}

	return trips, nil
}

// AddTripParticipants appends users that are not yet on the roster.
func (s *SQLiteStore) AddTripParticipants(ctx context.Context, tripID string, userIDs []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		trip, err := getTrip(ctx, tx, tripID)
		if err != nil {
			return err
		}

		added, err := appendParticipants(ctx, tx, trip, userIDs)
		if err != nil || len(added) == 0 {
			return err
		}
		_, err = bumpVersion(ctx, tx, tripID)
		return err
	})
}

// appendParticipants adds the users missing from trip's roster after its last
// position and returns the ones it added. trip.Participants is updated in place.
func appendParticipants(ctx context.Context, tx *sql.Tx, trip *models.Trip, userIDs []string) ([]string, error) {
	// Removals leave gaps, so append after the highest position
	var position int
	err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), -1) + 1 FROM trip_participants WHERE trip_id = ?",
		trip.ID,
	).Scan(&position)
	if err != nil {
		return nil, fmt.Errorf("failed to get next roster position: %w", err)
	}

	var added []string
	for _, userID := range userIDs {
		if userID == "" || trip.HasParticipant(userID) {
			continue
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO trip_participants (trip_id, user_id, position) VALUES (?, ?, ?)",
			trip.ID, userID, position,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert participant: %w", err)
		}
		trip.Participants = append(trip.Participants, userID)
		added = append(added, userID)
		position++
	}
	return added, nil
}

// RemoveTripParticipant removes a user from the roster.
func (s *SQLiteStore) RemoveTripParticipant(ctx context.Context, tripID, userID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		trip, err := getTrip(ctx, tx, tripID)
		if err != nil {
			return err
		}
		if !trip.HasParticipant(userID) {
			return fmt.Errorf("participant %s in trip %s: %w", userID, tripID, storage.ErrNotFound)
		}
		if userID == trip.CreatedBy {
			return fmt.Errorf("cannot remove the trip creator: %w", storage.ErrConflict)
		}

		var referenced bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM expenses WHERE trip_id = ? AND paid_by = ?)
			    OR EXISTS (
			        SELECT 1 FROM expense_participants ep
			        JOIN expenses e ON e.id = ep.expense_id
			        WHERE e.trip_id = ? AND ep.user_id = ?)
			    OR EXISTS (
			        SELECT 1 FROM payments
			        WHERE trip_id = ? AND (from_user_id = ? OR to_user_id = ?))`,
			tripID, userID, tripID, userID, tripID, userID, userID,
		).Scan(&referenced)
		if err != nil {
			return fmt.Errorf("failed to check participant references: %w", err)
		}
		if referenced {
			return fmt.Errorf("participant %s has expenses or payments: %w", userID, storage.ErrConflict)
		}

		_, err = tx.ExecContext(ctx,
			"DELETE FROM trip_participants WHERE trip_id = ? AND user_id = ?",
			tripID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete participant: %w", err)
		}

		_, err = bumpVersion(ctx, tx, tripID)
		return err
	})
}

// CompleteTrip marks a trip complete. Completing twice is a no-op.
func (s *SQLiteStore) CompleteTrip(ctx context.Context, tripID string) error {
	return s.setTripFlag(ctx, tripID, "is_complete")
}

// ArchiveTrip marks a trip archived. Archiving twice is a no-op.
func (s *SQLiteStore) ArchiveTrip(ctx context.Context, tripID string) error {
	return s.setTripFlag(ctx, tripID, "is_archived")
}

// setTripFlag sets one of the trip boolean columns. column is never user input.
func (s *SQLiteStore) setTripFlag(ctx context.Context, tripID, column string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE trips SET "+column+" = 1 WHERE id = ?",
		tripID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trip: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update trip: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("trip %s: %w", tripID, storage.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*models.Trip, error) {
	trip := &models.Trip{}
	var complete, archived int
	if err := row.Scan(&trip.ID, &trip.Title, &trip.Destination, &trip.Description, &trip.CreatedBy,
		&complete, &archived, &trip.CreatedAt, &trip.Version); err != nil {
		return nil, err
	}
	trip.IsComplete = complete != 0
	trip.IsArchived = archived != 0
	return trip, nil
}

// getRosters returns the ordered participants of each trip.
func getRosters(ctx context.Context, q queryer, tripIDs []string) (map[string][]string, error) {
	rosters := make(map[string][]string, len(tripIDs))
	if len(tripIDs) == 0 {
		return rosters, nil
	}

	args := make([]any, len(tripIDs))
	for i, id := range tripIDs {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx,
		"SELECT trip_id, user_id FROM trip_participants WHERE trip_id IN ("+placeholders(len(tripIDs))+") ORDER BY trip_id, position",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tripID, userID string
		if err := rows.Scan(&tripID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		rosters[tripID] = append(rosters[tripID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return rosters, nil
}

// withCreatorFirst puts the creator at the head of the roster and drops duplicates.
func withCreatorFirst(creator string, participants []string) []string {
	roster := make([]string, 0, len(participants)+1)
	seen := make(map[string]bool, len(participants)+1)
	for _, id := range append([]string{creator}, participants...) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		roster = append(roster, id)
	}
	return roster
}
