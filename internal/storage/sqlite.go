package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding the normalized incident archive,
// the category-native archive, and conversation sessions.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "ehsbot.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// DB exposes the underlying connection for components that layer their own
// queries on the same database (session store).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Incidents ---

// SaveIncident writes the normalized record and its category-native archive
// entry in a single transaction, so a crash can never leave the two stores
// disagreeing about which incidents exist.
func (s *Store) SaveIncident(inc Incident, entry ArchiveEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning incident transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO incidents
			(id, category, description, fields_json, hints_json, severe, severe_label, external_report_required, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inc.ID, inc.Category, inc.Description, inc.FieldsJSON, inc.HintsJSON,
		boolToInt(inc.Severe), inc.SevereLabel, boolToInt(inc.ExternalReportRequired),
		inc.Source, inc.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting incident: %w", err)
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO incident_archive (id, category, payload_json, created_at)
		VALUES (?, ?, ?, ?)`,
		entry.ID, entry.Category, entry.PayloadJSON, entry.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting archive entry: %w", err)
	}

	return tx.Commit()
}

func (s *Store) GetIncident(id string) (Incident, error) {
	var inc Incident
	var severe, external int
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, category, description, fields_json, hints_json, severe, severe_label, external_report_required, source, created_at
		FROM incidents WHERE id = ?`, id,
	).Scan(&inc.ID, &inc.Category, &inc.Description, &inc.FieldsJSON, &inc.HintsJSON,
		&severe, &inc.SevereLabel, &external, &inc.Source, &createdAt)
	if err == sql.ErrNoRows {
		return Incident{}, ErrNotFound
	}
	if err != nil {
		return Incident{}, err
	}
	inc.Severe = severe != 0
	inc.ExternalReportRequired = external != 0
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Incident{}, fmt.Errorf("parsing created_at: %w", err)
	}
	inc.CreatedAt = t
	return inc, nil
}

func (s *Store) ListIncidents(limit, offset int) ([]Incident, error) {
	rows, err := s.db.Query(`
		SELECT id, category, description, fields_json, hints_json, severe, severe_label, external_report_required, source, created_at
		FROM incidents ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Incident
	for rows.Next() {
		var inc Incident
		var severe, external int
		var createdAt string
		if err := rows.Scan(&inc.ID, &inc.Category, &inc.Description, &inc.FieldsJSON, &inc.HintsJSON,
			&severe, &inc.SevereLabel, &external, &inc.Source, &createdAt); err != nil {
			return nil, err
		}
		inc.Severe = severe != 0
		inc.ExternalReportRequired = external != 0
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		inc.CreatedAt = t
		results = append(results, inc)
	}
	return results, rows.Err()
}

func (s *Store) CountIncidents() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM incidents").Scan(&n)
	return n, err
}

func (s *Store) GetArchiveEntry(id string) (ArchiveEntry, error) {
	var e ArchiveEntry
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, category, payload_json, created_at FROM incident_archive WHERE id = ?`, id,
	).Scan(&e.ID, &e.Category, &e.PayloadJSON, &createdAt)
	if err == sql.ErrNoRows {
		return ArchiveEntry{}, ErrNotFound
	}
	if err != nil {
		return ArchiveEntry{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return ArchiveEntry{}, fmt.Errorf("parsing created_at: %w", err)
	}
	e.CreatedAt = t
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
