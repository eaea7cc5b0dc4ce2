package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/pkg/filesystem"
	"github.com/doeshing/aish/internal/ports"
)

// SQLiteStore persists closed execution records in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// DefaultDBPath returns the history database location under the user's home.
func DefaultDBPath() string {
	return filepath.Join(filesystem.UserHomeDir(), ".aish", "history", "history.db")
}

// NewSQLiteStore creates (or opens) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultDBPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT,
		prompt TEXT,
		command TEXT,
		source TEXT,
		executed INTEGER,
		success INTEGER,
		exit_code INTEGER,
		risk_level TEXT,
		execution_time_ms INTEGER
	);`)
	return err
}

// Save inserts a new record.
func (s *SQLiteStore) Save(record domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO executions
		(timestamp, prompt, command, source, executed, success, exit_code, risk_level, execution_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp.Format(time.RFC3339),
		record.Prompt,
		record.Command,
		record.Source,
		boolToInt(record.Executed),
		boolToInt(record.Success),
		record.ExitCode,
		string(record.RiskLevel),
		record.ExecutionTimeMS,
	)
	return err
}

// Records returns history entries, newest first (limit/search optional).
func (s *SQLiteStore) Records(limit int, search string) ([]domain.HistoryRecord, error) {
	builder := strings.Builder{}
	builder.WriteString("SELECT timestamp, prompt, command, source, executed, success, exit_code, risk_level, execution_time_ms FROM executions")
	var args []interface{}
	if search != "" {
		builder.WriteString(" WHERE prompt LIKE ? OR command LIKE ?")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	builder.WriteString(" ORDER BY datetime(timestamp) DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		var ts, riskLevel string
		var executed, success int
		if err := rows.Scan(&ts, &rec.Prompt, &rec.Command, &rec.Source, &executed, &success, &rec.ExitCode, &riskLevel, &rec.ExecutionTimeMS); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.Timestamp = t
		}
		rec.RiskLevel = domain.RiskLevel(riskLevel)
		rec.Executed = executed == 1
		rec.Success = success == 1
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear deletes all history entries.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM executions")
	return err
}

// PruneOlderThan deletes records older than the given number of days.
func (s *SQLiteStore) PruneOlderThan(days int) error {
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -days).Format(time.RFC3339)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM executions WHERE datetime(timestamp) < datetime(?)", cutoff)
	return err
}

// ExportJSON writes the executions table to a jsonl file.
func (s *SQLiteStore) ExportJSON(dest string) error {
	records, err := s.Records(0, "")
	if err != nil {
		return err
	}
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := file.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
