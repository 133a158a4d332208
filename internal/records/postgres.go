package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/campusride/pkg/logging"
)

// pgxQuerier is the subset of pgxpool.Pool used by the store.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps each list in one row of the record_lists table. The
// payload column is text so a corrupted list survives until the next append.
type PostgresStore struct {
	db     pgxQuerier
	logger *logging.Logger
}

// NewPostgresStore creates a store on a pgx pool (or a compatible mock).
func NewPostgresStore(db pgxQuerier, logger *logging.Logger) *PostgresStore {
	if db == nil {
		panic("records: pgx pool required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

const (
	selectListSQL = `SELECT payload FROM record_lists WHERE key = $1`
	upsertListSQL = `INSERT INTO record_lists (key, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`
	initListSQL = `INSERT INTO record_lists (key, payload, updated_at)
		VALUES ($1, '[]', now())
		ON CONFLICT (key) DO NOTHING`
)

// Append implements Store.
func (s *PostgresStore) Append(ctx context.Context, kind Kind, record any) error {
	key, err := Key(kind)
	if err != nil {
		return err
	}
	data, err := s.read(ctx, key)
	if err != nil {
		return err
	}
	out, recovered, err := appendToList(data, record)
	if err != nil {
		return err
	}
	if recovered {
		s.logger.Warn("unparsable record list replaced", "key", key)
	}
	if _, err := s.db.Exec(ctx, upsertListSQL, key, string(out)); err != nil {
		return fmt.Errorf("records: upsert %s: %w", key, err)
	}
	return nil
}

// EnsureInitialized implements Store.
func (s *PostgresStore) EnsureInitialized(ctx context.Context, kind Kind) error {
	key, err := Key(kind)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, initListSQL, key); err != nil {
		return fmt.Errorf("records: init %s: %w", key, err)
	}
	return nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, kind Kind) ([]json.RawMessage, error) {
	key, err := Key(kind)
	if err != nil {
		return nil, err
	}
	data, err := s.read(ctx, key)
	if err != nil {
		return nil, err
	}
	list, _ := decodeList(data)
	return list, nil
}

func (s *PostgresStore) read(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := s.db.QueryRow(ctx, selectListSQL, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("records: select %s: %w", key, err)
	}
	return []byte(payload), nil
}
