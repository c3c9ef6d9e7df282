package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BetterCallFirewall/Sentinel/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage persists the store in a single SQLite file
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens (or creates) the database at dbPath and its tables
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// writes are serialized by the controller; one connection keeps :memory: coherent
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{db: db, path: dbPath}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStorage) initTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		files TEXT NOT NULL,
		result TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);

	CREATE TABLE IF NOT EXISTS activity (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		at INTEGER NOT NULL,
		kind TEXT NOT NULL,
		message TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStorage) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("writing setting %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) SaveReport(report *models.Report) error {
	files, err := json.Marshal(report.Files)
	if err != nil {
		return fmt.Errorf("encoding report files: %w", err)
	}
	result, err := json.Marshal(report.Result)
	if err != nil {
		return fmt.Errorf("encoding report result: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO reports (id, created_at, files, result)
		VALUES (?, ?, ?, ?)`,
		report.ID, report.CreatedAt.UnixNano(), string(files), string(result),
	)
	if err != nil {
		return fmt.Errorf("saving report %s: %w", report.ID, err)
	}
	return nil
}

func (s *SQLiteStorage) GetReport(id string) (*models.Report, error) {
	row := s.db.QueryRow(`SELECT id, created_at, files, result FROM reports WHERE id = ?`, id)
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", id, err)
	}
	return report, nil
}

func (s *SQLiteStorage) ListReports(limit int) ([]*models.Report, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, created_at, files, result FROM reports
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("listing reports: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*models.Report, error) {
	var (
		report    models.Report
		createdAt int64
		files     string
		result    string
	)
	if err := row.Scan(&report.ID, &createdAt, &files, &result); err != nil {
		return nil, err
	}
	report.CreatedAt = time.Unix(0, createdAt)
	if err := json.Unmarshal([]byte(files), &report.Files); err != nil {
		return nil, fmt.Errorf("decoding files: %w", err)
	}
	if err := json.Unmarshal([]byte(result), &report.Result); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return &report, nil
}

func (s *SQLiteStorage) AppendActivity(activity models.Activity) error {
	_, err := s.db.Exec(`INSERT INTO activity (id, at, kind, message) VALUES (?, ?, ?, ?)`,
		activity.ID, activity.At.UnixNano(), string(activity.Kind), activity.Message,
	)
	if err != nil {
		return fmt.Errorf("appending activity: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListActivity(limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT id, at, kind, message FROM activity ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var activity []models.Activity
	for rows.Next() {
		var (
			a    models.Activity
			at   int64
			kind string
		)
		if err := rows.Scan(&a.ID, &at, &kind, &a.Message); err != nil {
			return nil, fmt.Errorf("listing activity: %w", err)
		}
		a.At = time.Unix(0, at)
		a.Kind = models.ActivityKind(kind)
		activity = append(activity, a)
	}
	return activity, rows.Err()
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
