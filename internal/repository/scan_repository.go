package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hexaosint/api/internal/models"
)

var ErrScanNotFound = errors.New("scan not found")

type ScanRepository struct {
	pool *pgxpool.Pool
}

func NewScanRepository(pool *pgxpool.Pool) *ScanRepository {
	return &ScanRepository{pool: pool}
}

// CreateScan persists a scan record and its result rows in one transaction.
func (r *ScanRepository) CreateScan(ctx context.Context, scan models.ScanHistory, results []models.TargetResult) error {
	metadata, err := json.Marshal(scan.Metadata)
	if err != nil {
		return fmt.Errorf("encode scan metadata: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create scan: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertScan = `
		INSERT INTO scan_history (
			id, user_id, search_type, engine, query, metadata, search_ref, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NOW()
		)
	`
	if _, err := tx.Exec(ctx, insertScan,
		scan.ID,
		scan.UserID,
		scan.SearchType,
		scan.Engine,
		scan.Query,
		metadata,
		scan.SearchRef,
		scan.Status,
	); err != nil {
		return err
	}

	const insertResult = `
		INSERT INTO target_results (
			id, scan_id, title, link, snippet, image_url, source_type, score, processed
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`
	for _, result := range results {
		if _, err := tx.Exec(ctx, insertResult,
			result.ID,
			result.ScanID,
			result.Title,
			result.Link,
			result.Snippet,
			result.ImageURL,
			result.SourceType,
			result.Score,
			result.Processed,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// UpdateStatusByRef flips the status of the scan tracking a provider-side
// search id.
func (r *ScanRepository) UpdateStatusByRef(ctx context.Context, searchRef string, status models.ScanStatus) error {
	const query = `UPDATE scan_history SET status = $2 WHERE search_ref = $1`
	cmd, err := r.pool.Exec(ctx, query, searchRef, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrScanNotFound
	}
	return nil
}

func (r *ScanRepository) ListByUser(ctx context.Context, userID string) ([]models.ScanHistory, error) {
	const query = `
		SELECT id, user_id, search_type, engine, query, metadata, search_ref, status, created_at
		FROM scan_history
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []models.ScanHistory
	for rows.Next() {
		scan, err := scanScan(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}
	return scans, rows.Err()
}

func scanScan(row pgx.Row) (models.ScanHistory, error) {
	var (
		scan     models.ScanHistory
		metadata []byte
	)
	if err := row.Scan(
		&scan.ID,
		&scan.UserID,
		&scan.SearchType,
		&scan.Engine,
		&scan.Query,
		&metadata,
		&scan.SearchRef,
		&scan.Status,
		&scan.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ScanHistory{}, ErrScanNotFound
		}
		return models.ScanHistory{}, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &scan.Metadata); err != nil {
			return models.ScanHistory{}, fmt.Errorf("decode scan metadata: %w", err)
		}
	}
	return scan, nil
}
