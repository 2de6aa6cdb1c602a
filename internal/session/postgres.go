package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a durable Store backed by PostgreSQL.
//
// Concurrency: per-session serialization is enforced by the database —
// AppendTurn locks the session row (SELECT ... FOR UPDATE) inside a
// transaction, so sequence numbers never race even across processes.
// Different session ids hit different rows and never contend.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore creates a PostgreSQL-backed session store.
// The schema is managed by the db package migrations.
func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

// GetOrCreate implements Store.
func (s *PostgresStore) GetOrCreate(ctx context.Context, sessionID, userID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	// Upsert keeps the original user_id and created_at on conflict; the id
	// is immutable once created.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, memory, created_at, updated_at)
		VALUES ($1, $2, '{}'::jsonb, now(), now())
		ON CONFLICT (id) DO NOTHING`, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("create session %s: %w", sessionID, err)
	}

	return s.Get(ctx, sessionID)
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	row := s.pool.QueryRow(ctx, `
		SELECT user_id, language, latitude, longitude, memory, turn_count, created_at, updated_at
		FROM sessions WHERE id = $1`, sessionID)

	var (
		sess       = Session{ID: sessionID}
		lat, lon   *float64
		memoryJSON []byte
	)
	err := row.Scan(&sess.UserID, &sess.Language, &lat, &lon, &memoryJSON,
		&sess.TurnCount, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	if lat != nil && lon != nil {
		sess.Location = &Location{Latitude: *lat, Longitude: *lon}
	}
	if err := json.Unmarshal(memoryJSON, &sess.Memory); err != nil {
		s.logger.Warn("failed to unmarshal session memory", "session_id", sessionID, "error", err)
		sess.Memory = make(map[string]string)
	}
	if sess.Memory == nil {
		sess.Memory = make(map[string]string)
	}
	return &sess, nil
}

// SetLanguage implements Store.
func (s *PostgresStore) SetLanguage(ctx context.Context, sessionID, lang string) error {
	return s.update(ctx, sessionID,
		`UPDATE sessions SET language = $2, updated_at = now() WHERE id = $1`, lang)
}

// SetLocation implements Store.
func (s *PostgresStore) SetLocation(ctx context.Context, sessionID string, loc Location) error {
	if !loc.Valid() {
		return ErrInvalidLocation
	}
	return s.update(ctx, sessionID,
		`UPDATE sessions SET latitude = $2, longitude = $3, updated_at = now() WHERE id = $1`,
		loc.Latitude, loc.Longitude)
}

// SetMemory implements Store.
// The jsonb concatenation keeps other keys intact: last-write-wins per key.
func (s *PostgresStore) SetMemory(ctx context.Context, sessionID, key, value string) error {
	patch, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return fmt.Errorf("marshal memory patch: %w", err)
	}
	return s.update(ctx, sessionID,
		`UPDATE sessions SET memory = memory || $2::jsonb, updated_at = now() WHERE id = $1`,
		string(patch))
}

// AppendTurn implements Store.
// The session row is locked for the duration of the transaction so the
// sequence number assignment cannot race with a concurrent append.
func (s *PostgresStore) AppendTurn(ctx context.Context, sessionID string, turn Turn) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if turn.ID == uuid.Nil {
		turn.ID = uuid.New()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", err)
		}
	}()

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM sessions WHERE id = $1 FOR UPDATE`, sessionID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return fmt.Errorf("lock session: %w", err)
	}

	var maxSeq int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) FROM turns WHERE session_id = $1`,
		sessionID).Scan(&maxSeq); err != nil {
		return fmt.Errorf("read max sequence number: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO turns (id, session_id, user_text, assistant_text, sequence_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		turn.ID, sessionID, turn.User, turn.Assistant, maxSeq+1, turn.CreatedAt); err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE sessions SET turn_count = $2, updated_at = now() WHERE id = $1`,
		sessionID, maxSeq+1); err != nil {
		return fmt.Errorf("update session metadata: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Debug("appended turn", "session_id", sessionID, "sequence", maxSeq+1)
	return nil
}

// History implements Store.
func (s *PostgresStore) History(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	if limit <= 0 {
		limit = 1000
	}

	// Select the newest turns, then return them in append order.
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_text, assistant_text, created_at
		FROM turns WHERE session_id = $1
		ORDER BY sequence_number DESC LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.User, &t.Assistant, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// update runs a single-row session update and maps missing rows to
// ErrSessionNotFound.
func (s *PostgresStore) update(ctx context.Context, sessionID, sql string, args ...any) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	tag, err := s.pool.Exec(ctx, sql, append([]any{sessionID}, args...)...)
	if err != nil {
		return fmt.Errorf("update session %s: %w", sessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}
