package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/shared"
)

// SessionRepository implements [models.Repository] for browser [models.Session] persistence.
type SessionRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Session] = (*SessionRepository)(nil)

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session with a generated ID and sequence
func (r *SessionRepository) Create(session *models.Session) error {
	sequence, err := NextSequence(r.db, "sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	session.SetID(shared.GenerateID())
	session.SetSequence(sequence)

	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sessions (id, sequence, oauth_state, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	cred := session.Credential()
	_, err = r.db.Exec(query,
		session.ID(), sequence, session.State(),
		cred.AccessToken, cred.RefreshToken, cred.ExpiresAt,
		session.CreatedAt(), session.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID. A missing session returns [shared.ErrSessionNotFound].
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	query := `
		SELECT id, sequence, oauth_state, access_token, refresh_token, expires_at, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`

	session, err := scanSession(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return session, nil
}

// Update writes the session's state and credential
func (r *SessionRepository) Update(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	session.SetUpdatedAt(now)

	query := `
		UPDATE sessions
		SET oauth_state = ?, access_token = ?, refresh_token = ?, expires_at = ?, updated_at = ?
		WHERE id = ?
	`

	cred := session.Credential()
	result, err := r.db.Exec(query, session.State(), cred.AccessToken, cred.RefreshToken, cred.ExpiresAt, now, session.ID())
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, session.ID())
	}

	return nil
}

// Delete removes a session by ID
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}

	return nil
}

// List retrieves sessions ordered by sequence.
//
// Supported criteria: "authenticated" (bool) and "updated_before" ([time.Time]).
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	query := `
		SELECT id, sequence, oauth_state, access_token, refresh_token, expires_at, created_at, updated_at
		FROM sessions
		WHERE 1 = 1
	`

	args := []any{}

	if authenticated, ok := criteria["authenticated"].(bool); ok {
		if authenticated {
			query += " AND access_token != ''"
		} else {
			query += " AND access_token = ''"
		}
	}

	if before, ok := criteria["updated_before"].(time.Time); ok {
		query += " AND updated_at < ?"
		args = append(args, before.UTC())
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

// Prune deletes sessions not updated since before and returns how many were removed.
func (r *SessionRepository) Prune(before time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE updated_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		id        string
		sequence  int
		state     string
		cred      models.Credential
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&id, &sequence, &state, &cred.AccessToken, &cred.RefreshToken, &cred.ExpiresAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	session := models.NewSession(sequence)
	session.SetID(id)
	session.SetState(state)
	session.SetCredential(cred)
	session.SetCreatedAt(createdAt)
	session.SetUpdatedAt(updatedAt)
	return session, nil
}
