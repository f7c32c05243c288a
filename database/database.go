package database

import (
	"database/sql"
	"fmt"
	"time"

	"recolorlab/types"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase initializes and returns a database connection
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		stem TEXT,
		prompt TEXT,
		target_color TEXT,
		width INTEGER,
		height INTEGER,
		box_score REAL,
		grabcut_used INTEGER,
		raw_mask_path TEXT,
		gc_mask_path TEXT,
		raw_out_path TEXT,
		gc_out_path TEXT,
		camera_model TEXT,
		captured_at TEXT,
		created_at TEXT,
		modified_at TEXT,
		size INTEGER,
		UNIQUE(path, target_color, prompt)
	);
	CREATE TABLE IF NOT EXISTS metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		target_color TEXT,
		prompt TEXT,
		ssim REAL,
		psnr_outside REAL,
		delta_e76_raw REAL,
		delta_e76_gc REAL,
		delta_e94_raw REAL,
		delta_e94_gc REAL,
		leakage_raw REAL,
		leakage_gc REAL,
		edge_align_delta REAL,
		created_at TEXT,
		UNIQUE(path, target_color, prompt)
	);
	CREATE INDEX IF NOT EXISTS idx_results_path ON results(path);
	CREATE INDEX IF NOT EXISTS idx_metrics_path ON metrics(path);
	CREATE INDEX IF NOT EXISTS idx_metrics_color ON metrics(target_color);`

	_, err = db.Exec(createTableSQL)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// OpenDatabase opens an existing database connection
func OpenDatabase(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite3", dbPath)
}

// CheckImageProcessed checks if an image was already processed for a
// given target color and prompt, returning the stored modification time
func CheckImageProcessed(db *sql.DB, path, targetColor, prompt string) (bool, string, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM results WHERE path = ? AND target_color = ? AND prompt = ?",
		path, targetColor, prompt).Scan(&count)
	if err != nil {
		return false, "", fmt.Errorf("database error for %s: %v", path, err)
	}

	if count == 0 {
		return false, "", nil
	}

	var storedModTime string
	err = db.QueryRow("SELECT modified_at FROM results WHERE path = ? AND target_color = ? AND prompt = ?",
		path, targetColor, prompt).Scan(&storedModTime)
	if err != nil {
		return true, "", fmt.Errorf("cannot get modified time for %s: %v", path, err)
	}

	return true, storedModTime, nil
}

// StoreResult stores a per-image pipeline result
func StoreResult(db *sql.DB, result types.ImageResult, forceRewrite bool) error {
	now := time.Now().Format(time.RFC3339)

	var stmt *sql.Stmt
	var insertErr error

	if forceRewrite {
		stmt, insertErr = db.Prepare(`
			INSERT OR REPLACE INTO results (
				path, stem, prompt, target_color, width, height, box_score, grabcut_used,
				raw_mask_path, gc_mask_path, raw_out_path, gc_out_path,
				camera_model, captured_at, created_at, modified_at, size
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
	} else {
		stmt, insertErr = db.Prepare(`
			INSERT OR IGNORE INTO results (
				path, stem, prompt, target_color, width, height, box_score, grabcut_used,
				raw_mask_path, gc_mask_path, raw_out_path, gc_out_path,
				camera_model, captured_at, created_at, modified_at, size
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
	}

	if insertErr != nil {
		return fmt.Errorf("cannot prepare statement for %s: %v", result.Path, insertErr)
	}
	defer stmt.Close()

	_, err := stmt.Exec(
		result.Path,
		result.Stem,
		result.Prompt,
		result.TargetColor,
		result.Width,
		result.Height,
		result.BoxScore,
		result.GrabCutUsed,
		result.RawMaskPath,
		result.GCMaskPath,
		result.RawOutPath,
		result.GCOutPath,
		result.CameraModel,
		result.CapturedAt,
		now,
		result.ModifiedAt,
		result.Size,
	)

	if err != nil {
		return fmt.Errorf("cannot insert result for %s: %v", result.Path, err)
	}

	return nil
}

// StoreMetrics stores a metric record for an image
func StoreMetrics(db *sql.DB, record types.MetricRecord, forceRewrite bool) error {
	now := time.Now().Format(time.RFC3339)

	query := `
		INSERT OR IGNORE INTO metrics (
			path, target_color, prompt, ssim, psnr_outside,
			delta_e76_raw, delta_e76_gc, delta_e94_raw, delta_e94_gc,
			leakage_raw, leakage_gc, edge_align_delta, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if forceRewrite {
		query = `
		INSERT OR REPLACE INTO metrics (
			path, target_color, prompt, ssim, psnr_outside,
			delta_e76_raw, delta_e76_gc, delta_e94_raw, delta_e94_gc,
			leakage_raw, leakage_gc, edge_align_delta, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	}

	stmt, err := db.Prepare(query)
	if err != nil {
		return fmt.Errorf("cannot prepare metrics statement for %s: %v", record.Path, err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		record.Path,
		record.TargetColor,
		record.Prompt,
		record.SSIM,
		record.PSNROutside,
		record.DeltaE76Raw,
		record.DeltaE76GC,
		record.DeltaE94Raw,
		record.DeltaE94GC,
		record.LeakageRaw,
		record.LeakageGC,
		record.EdgeAlignDelta,
		now,
	)

	if err != nil {
		return fmt.Errorf("cannot insert metrics for %s: %v", record.Path, err)
	}

	return nil
}

// QueryMetrics retrieves stored metric records, optionally filtered by
// target color
func QueryMetrics(db *sql.DB, targetColor string) ([]types.MetricRecord, error) {
	var rows *sql.Rows
	var err error

	if targetColor != "" {
		rows, err = db.Query(`
			SELECT id, path, target_color, prompt, ssim, psnr_outside,
				delta_e76_raw, delta_e76_gc, delta_e94_raw, delta_e94_gc,
				leakage_raw, leakage_gc, edge_align_delta
			FROM metrics WHERE target_color = ? ORDER BY path`, targetColor)
	} else {
		rows, err = db.Query(`
			SELECT id, path, target_color, prompt, ssim, psnr_outside,
				delta_e76_raw, delta_e76_gc, delta_e94_raw, delta_e94_gc,
				leakage_raw, leakage_gc, edge_align_delta
			FROM metrics ORDER BY path`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %v", err)
	}
	defer rows.Close()

	var records []types.MetricRecord
	for rows.Next() {
		var r types.MetricRecord
		err = rows.Scan(&r.ID, &r.Path, &r.TargetColor, &r.Prompt, &r.SSIM, &r.PSNROutside,
			&r.DeltaE76Raw, &r.DeltaE76GC, &r.DeltaE94Raw, &r.DeltaE94GC,
			&r.LeakageRaw, &r.LeakageGC, &r.EdgeAlignDelta)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metric record: %v", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// RunStatsResult contains aggregate statistics over stored results
type RunStatsResult struct {
	TotalImages  int
	GrabCutCount int
	ColorCount   int
}

// GetRunStats retrieves aggregate statistics about processed images
func GetRunStats(db *sql.DB, targetColor string) (*RunStatsResult, error) {
	var stats RunStatsResult
	var err error

	var totalQuery, gcQuery string
	var args []interface{}

	if targetColor != "" {
		totalQuery = "SELECT COUNT(*) FROM results WHERE target_color = ?"
		gcQuery = "SELECT COUNT(*) FROM results WHERE target_color = ? AND grabcut_used = 1"
		args = append(args, targetColor)
	} else {
		totalQuery = "SELECT COUNT(*) FROM results"
		gcQuery = "SELECT COUNT(*) FROM results WHERE grabcut_used = 1"
	}

	err = db.QueryRow(totalQuery, args...).Scan(&stats.TotalImages)
	if err != nil {
		return nil, fmt.Errorf("failed to get total images: %v", err)
	}

	err = db.QueryRow(gcQuery, args...).Scan(&stats.GrabCutCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get grabcut count: %v", err)
	}

	err = db.QueryRow("SELECT COUNT(DISTINCT target_color) FROM results").Scan(&stats.ColorCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get color count: %v", err)
	}

	return &stats, nil
}
