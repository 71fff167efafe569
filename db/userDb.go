package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// SnapshotKey is the fixed slot the whole user record lives under. The value
// matches the storage key the StudyFlow web client used, so existing blobs
// remain readable.
const SnapshotKey = "studyflow_os_v1"

// SnapshotRepository stores the user record as an opaque JSON blob. The
// repository never parses the blob; shape enforcement belongs to the caller.
type SnapshotRepository interface {
	LoadSnapshot() (string, error)
	SaveSnapshot(snapshot string) error
}

type PostgresSnapshotRepository struct {
	db *sql.DB
}

func NewPostgresSnapshotRepository(databaseURL string) (*PostgresSnapshotRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresSnapshotRepository{db: db}, nil
}

func (r *PostgresSnapshotRepository) LoadSnapshot() (string, error) {
	query := `
		SELECT snapshot
		FROM studyflow.user_snapshot
		WHERE id = $1`

	var snapshot string
	row := r.db.QueryRow(query, SnapshotKey)

	err := row.Scan(&snapshot)
	if err != nil {
		if err == sql.ErrNoRows {
			// Create the snapshot slot if it doesn't exist
			return r.createSnapshot()
		}
		return "", fmt.Errorf("failed to load snapshot: %w", err)
	}

	return snapshot, nil
}

func (r *PostgresSnapshotRepository) createSnapshot() (string, error) {
	query := `
		INSERT INTO studyflow.user_snapshot (id, snapshot)
		VALUES ($1, '')
		RETURNING snapshot`

	var snapshot string
	row := r.db.QueryRow(query, SnapshotKey)

	if err := row.Scan(&snapshot); err != nil {
		return "", fmt.Errorf("failed to create snapshot slot: %w", err)
	}

	return snapshot, nil
}

func (r *PostgresSnapshotRepository) SaveSnapshot(snapshot string) error {
	query := `
		UPDATE studyflow.user_snapshot
		SET snapshot = $1, updated_at = NOW()
		WHERE id = $2`

	result, err := r.db.Exec(query, snapshot, SnapshotKey)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("snapshot slot not found")
	}

	return nil
}

func (r *PostgresSnapshotRepository) Close() error {
	return r.db.Close()
}
