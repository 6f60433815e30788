package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses. A run moves pending -> processing -> completed|failed.
const (
	RunStatusPending    = "PENDING"
	RunStatusProcessing = "PROCESSING"
	RunStatusCompleted  = "COMPLETED"
	RunStatusFailed     = "FAILED"
)

// Run is one journal entry per processing request. The session's
// metadata.json stays the source of truth for scene content; the journal
// only records run lifecycle and outcome.
type Run struct {
	ID           string
	VideoName    string
	Source       string
	SessionID    string
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewRun(videoName, source string) *Run {
	now := time.Now()
	return &Run{
		ID:        uuid.New().String(),
		VideoName: videoName,
		Source:    source,
		Status:    RunStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Insert(run *Run) error {
	_, err := r.db.conn.Exec(
		`INSERT INTO runs (id, video_name, source, session_id, status, error_message, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.VideoName, run.Source, run.SessionID, run.Status, run.ErrorMessage,
		run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

func (r *RunRepository) Update(run *Run) error {
	run.UpdatedAt = time.Now()
	_, err := r.db.conn.Exec(
		`UPDATE runs SET session_id = ?, status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		run.SessionID, run.Status, run.ErrorMessage, run.UpdatedAt, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

func (r *RunRepository) GetByID(id string) (*Run, error) {
	row := r.db.conn.QueryRow(
		`SELECT id, video_name, source, session_id, status, error_message, created_at, updated_at
		 FROM runs WHERE id = ?`, id)

	run := &Run{}
	err := row.Scan(&run.ID, &run.VideoName, &run.Source, &run.SessionID,
		&run.Status, &run.ErrorMessage, &run.CreatedAt, &run.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

func (r *RunRepository) List() ([]Run, error) {
	rows, err := r.db.conn.Query(
		`SELECT id, video_name, source, session_id, status, error_message, created_at, updated_at
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.VideoName, &run.Source, &run.SessionID,
			&run.Status, &run.ErrorMessage, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
