package repository

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/pipeline"
)

// Snapshot is one persisted ranked result.
type Snapshot struct {
	ID          int       `json:"id"`
	SessionID   string    `json:"session_id"`
	Source      string    `json:"source"`
	MediaType   string    `json:"media_type"`
	ItemID      int       `json:"item_id"`
	Title       string    `json:"title"`
	Score       float64   `json:"score"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SnapshotRepository persists the outcome of ranking runs so a session can
// review its last recommendations without re-running the pipeline.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a snapshot repository.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// RecordRun replaces the session's snapshots with the given run's results.
// It implements pipeline.Recorder and is invoked off the request path, so
// failures are logged and absorbed.
func (r *SnapshotRepository) RecordRun(sessionID, source string, results []pipeline.Result) {
	if err := r.Clear(sessionID); err != nil {
		slog.Error("failed to clear snapshots", "session", sessionID, "error", err)
		return
	}
	for _, res := range results {
		err := r.upsert(Snapshot{
			SessionID: sessionID,
			Source:    source,
			MediaType: string(res.MediaType),
			ItemID:    res.Item.ID,
			Title:     res.Item.DisplayTitle(),
			Score:     res.Score,
		})
		if err != nil {
			slog.Error("failed to upsert snapshot", "session", sessionID, "item", res.Item.ID, "error", err)
		}
	}
}

func (r *SnapshotRepository) upsert(s Snapshot) error {
	_, err := r.db.Exec(`
		INSERT INTO result_snapshots (session_id, source, media_type, item_id, title, score, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (session_id, media_type, item_id)
		DO UPDATE SET source = EXCLUDED.source, title = EXCLUDED.title,
			score = EXCLUDED.score, generated_at = NOW()
	`, s.SessionID, s.Source, s.MediaType, s.ItemID, s.Title, s.Score)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// List retrieves the top snapshots for a session, best score first.
func (r *SnapshotRepository) List(sessionID string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(`
		SELECT id, session_id, source, media_type, item_id, title, score, generated_at
		FROM result_snapshots
		WHERE session_id = $1
		ORDER BY score DESC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Source, &s.MediaType,
			&s.ItemID, &s.Title, &s.Score, &s.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// Clear removes all snapshots for a session before regeneration.
func (r *SnapshotRepository) Clear(sessionID string) error {
	_, err := r.db.Exec(`DELETE FROM result_snapshots WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	return nil
}
