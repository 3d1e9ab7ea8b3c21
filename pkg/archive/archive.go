// Package archive persists completed optimization runs and their evolution
// logs to SQLite so experiments can be inspected and compared after the
// fact.
package archive

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/paretolabs/devo/pkg/errors"
	"github.com/paretolabs/devo/pkg/optimizers"
)

// RunRecord is one archived optimization run.
type RunRecord struct {
	ID             string
	Problem        string
	Dimension      int
	PopulationSize int
	Variant        int
	AdaptVariant   int
	Seed           int64
	Generations    int
	StopReason     string
	BestFitness    float64
	BestVector     []float64
	Log            []optimizers.LogLine
	CreatedAt      time.Time
}

// Archive is a SQLite-backed store of run records.
type Archive struct {
	db *sql.DB
}

// Open opens (creating if necessary) an archive database at path. Pass
// ":memory:" for an ephemeral archive.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ArchiveFailure, "opening archive database")
	}

	a := &Archive{db: db}
	if err := a.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	// WAL improves concurrent reader behavior on file-backed archives.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ArchiveFailure, "enabling WAL mode")
	}
	return a, nil
}

func (a *Archive) initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		problem TEXT NOT NULL,
		dimension INTEGER NOT NULL,
		population_size INTEGER NOT NULL,
		variant INTEGER NOT NULL,
		adapt_variant INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		generations INTEGER NOT NULL,
		stop_reason TEXT NOT NULL,
		best_fitness REAL NOT NULL,
		best_vector TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS log_lines (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		gen INTEGER NOT NULL,
		fevals INTEGER NOT NULL,
		best REAL NOT NULL,
		f REAL NOT NULL,
		cr REAL NOT NULL,
		dx REAL NOT NULL,
		df REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_log_lines_run ON log_lines(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	if _, err := a.db.Exec(schema); err != nil {
		return errors.Wrap(err, errors.ArchiveFailure, "initializing archive schema")
	}
	return nil
}

// SaveRun stores a run and its log lines in one transaction, assigning an ID
// when the record has none. Returns the record ID.
func (a *Archive) SaveRun(rec RunRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	vec, err := json.Marshal(rec.BestVector)
	if err != nil {
		return "", errors.Wrap(err, errors.ArchiveFailure, "encoding best vector")
	}

	tx, err := a.db.Begin()
	if err != nil {
		return "", errors.Wrap(err, errors.ArchiveFailure, "starting transaction")
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, problem, dimension, population_size, variant, adapt_variant,
		 seed, generations, stop_reason, best_fitness, best_vector, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Problem, rec.Dimension, rec.PopulationSize, rec.Variant,
		rec.AdaptVariant, rec.Seed, rec.Generations, rec.StopReason,
		rec.BestFitness, string(vec), rec.CreatedAt)
	if err != nil {
		return "", errors.Wrap(err, errors.ArchiveFailure, "inserting run")
	}

	stmt, err := tx.Prepare(`INSERT INTO log_lines
		(run_id, gen, fevals, best, f, cr, dx, df)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", errors.Wrap(err, errors.ArchiveFailure, "preparing log insert")
	}
	defer stmt.Close()

	for _, line := range rec.Log {
		if _, err := stmt.Exec(rec.ID, line.Gen, line.Fevals, line.Best,
			line.F, line.CR, line.Dx, line.Df); err != nil {
			return "", errors.Wrap(err, errors.ArchiveFailure, "inserting log line")
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, errors.ArchiveFailure, "committing run")
	}
	return rec.ID, nil
}

// GetRun loads a run and its full log by ID.
func (a *Archive) GetRun(id string) (*RunRecord, error) {
	var rec RunRecord
	var vec string
	err := a.db.QueryRow(`SELECT id, problem, dimension, population_size,
		variant, adapt_variant, seed, generations, stop_reason, best_fitness,
		best_vector, created_at FROM runs WHERE id = ?`, id).Scan(
		&rec.ID, &rec.Problem, &rec.Dimension, &rec.PopulationSize,
		&rec.Variant, &rec.AdaptVariant, &rec.Seed, &rec.Generations,
		&rec.StopReason, &rec.BestFitness, &vec, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.WithFields(
			errors.New(errors.RecordNotFound, "no archived run with this id"),
			errors.Fields{"id": id})
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ArchiveFailure, "loading run")
	}
	if err := json.Unmarshal([]byte(vec), &rec.BestVector); err != nil {
		return nil, errors.Wrap(err, errors.ArchiveFailure, "decoding best vector")
	}

	rows, err := a.db.Query(`SELECT gen, fevals, best, f, cr, dx, df
		FROM log_lines WHERE run_id = ? ORDER BY gen`, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.ArchiveFailure, "loading log lines")
	}
	defer rows.Close()

	for rows.Next() {
		var line optimizers.LogLine
		if err := rows.Scan(&line.Gen, &line.Fevals, &line.Best,
			&line.F, &line.CR, &line.Dx, &line.Df); err != nil {
			return nil, errors.Wrap(err, errors.ArchiveFailure, "scanning log line")
		}
		rec.Log = append(rec.Log, line)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ArchiveFailure, "iterating log lines")
	}
	return &rec, nil
}

// RunSummary is the log-free view returned by ListRuns.
type RunSummary struct {
	ID          string
	Problem     string
	Variant     int
	StopReason  string
	BestFitness float64
	CreatedAt   time.Time
}

// ListRuns returns the most recent runs, newest first.
func (a *Archive) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.Query(`SELECT id, problem, variant, stop_reason,
		best_fitness, created_at FROM runs
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ArchiveFailure, "listing runs")
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ID, &s.Problem, &s.Variant, &s.StopReason,
			&s.BestFitness, &s.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ArchiveFailure, "scanning run summary")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ArchiveFailure, "iterating runs")
	}
	return out, nil
}

// Close releases the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}
