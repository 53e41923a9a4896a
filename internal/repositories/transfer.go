package repositories

import (
	"database/sql"
	"fmt"

	"github.com/hexiro/spotify-to-musi/internal/models"
	"github.com/hexiro/spotify-to-musi/internal/shared"
)

// TransferRepository persists transfer run summaries to SQLite.
type TransferRepository struct {
	db *sql.DB
}

// NewTransferRepository creates a new TransferRepository with the given database connection
func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create inserts a transfer record, generating an ID when the record has none.
func (r *TransferRepository) Create(record *models.TransferRecord) error {
	if record.ID == "" {
		record.ID = shared.GenerateID()
	}

	query := `
		INSERT INTO transfers (
			id, started_at, completed_at, total_tracks, resolved_tracks,
			unresolved_tracks, cached_tracks, playlists, backup_code
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		record.ID,
		record.StartedAt,
		record.CompletedAt,
		record.TotalTracks,
		record.ResolvedTracks,
		record.UnresolvedTracks,
		record.CachedTracks,
		record.Playlists,
		record.BackupCode,
	)
	if err != nil {
		return fmt.Errorf("failed to create transfer record: %w", err)
	}

	return nil
}

// Get retrieves a transfer record by ID
func (r *TransferRepository) Get(id string) (*models.TransferRecord, error) {
	query := `
		SELECT id, started_at, completed_at, total_tracks, resolved_tracks,
		       unresolved_tracks, cached_tracks, playlists, backup_code
		FROM transfers
		WHERE id = ?
	`

	record := &models.TransferRecord{}
	err := r.db.QueryRow(query, id).Scan(
		&record.ID,
		&record.StartedAt,
		&record.CompletedAt,
		&record.TotalTracks,
		&record.ResolvedTracks,
		&record.UnresolvedTracks,
		&record.CachedTracks,
		&record.Playlists,
		&record.BackupCode,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transfer not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer record: %w", err)
	}

	return record, nil
}

// List returns transfer records ordered newest-first. A limit of 0 returns
// every record.
func (r *TransferRepository) List(limit int) ([]models.TransferRecord, error) {
	query := `
		SELECT id, started_at, completed_at, total_tracks, resolved_tracks,
		       unresolved_tracks, cached_tracks, playlists, backup_code
		FROM transfers
		ORDER BY started_at DESC
	`

	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfer records: %w", err)
	}
	defer rows.Close()

	var records []models.TransferRecord
	for rows.Next() {
		var record models.TransferRecord
		err := rows.Scan(
			&record.ID,
			&record.StartedAt,
			&record.CompletedAt,
			&record.TotalTracks,
			&record.ResolvedTracks,
			&record.UnresolvedTracks,
			&record.CachedTracks,
			&record.Playlists,
			&record.BackupCode,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transfer records: %w", err)
	}

	return records, nil
}
