package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

// Store persists run history and detects which jobs are new since the
// previous run.
type Store interface {
	// RecordRun persists one run and its jobs, returning the jobs that were
	// never seen in any earlier run.
	RecordRun(result *model.AggregateResult) ([]model.Job, error)
	// IsEmpty reports whether no job has been recorded yet. Used to suppress
	// the notification flood a first run would otherwise produce.
	IsEmpty() (bool, error)
	Close() error
}

// Run is one persisted aggregation run, as listed by the audit views.
type Run struct {
	ID        int64
	StartedAt time.Time
	Status    string
	TotalJobs int
	NewJobs   int
}

// StoredJob is a persisted job with its run bookkeeping.
type StoredJob struct {
	Job         model.Job
	FirstSeenAt time.Time
	FirstRunID  int64
	LastRunID   int64
}

// SQLiteStore keeps runs and jobs in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at DATETIME NOT NULL,
			status     TEXT NOT NULL,
			total_jobs INTEGER NOT NULL,
			new_jobs   INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_streams (
			run_id         INTEGER NOT NULL REFERENCES runs(id),
			label          TEXT NOT NULL,
			job_count      INTEGER NOT NULL,
			reported_total INTEGER NOT NULL,
			status         TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			job_id       TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL,
			city         TEXT NOT NULL,
			state        TEXT NOT NULL,
			postal_code  TEXT NOT NULL,
			country      TEXT NOT NULL,
			remote       INTEGER NOT NULL,
			posted_at    DATETIME,
			detail_url   TEXT NOT NULL,
			emp_type     TEXT NOT NULL,
			pay_min      REAL,
			pay_max      REAL,
			pay_period   TEXT,
			pay_currency TEXT,
			streams      TEXT NOT NULL,
			first_seen   DATETIME NOT NULL,
			first_run_id INTEGER NOT NULL REFERENCES runs(id),
			last_run_id  INTEGER NOT NULL REFERENCES runs(id)
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// RecordRun writes the run, its per-stream stats, and every job in a single
// transaction. Jobs already known from earlier runs are refreshed in place;
// the rest are inserted and returned as new.
func (s *SQLiteStore) RecordRun(result *model.AggregateResult) ([]model.Job, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning run transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO runs (started_at, status, total_jobs, new_jobs) VALUES (?, ?, ?, 0)",
		result.Timestamp, result.Status.String(), len(result.Jobs),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading run id: %w", err)
	}

	for _, st := range result.Streams {
		_, err := tx.Exec(
			"INSERT INTO run_streams (run_id, label, job_count, reported_total, status) VALUES (?, ?, ?, ?, ?)",
			runID, st.Label, st.JobCount, st.ReportedTotal, st.Status.String(),
		)
		if err != nil {
			return nil, fmt.Errorf("inserting stream stats for %s: %w", st.Label, err)
		}
	}

	var newJobs []model.Job
	for _, job := range result.Jobs {
		var exists int
		err := tx.QueryRow("SELECT 1 FROM jobs WHERE job_id = ?", job.ID).Scan(&exists)
		switch {
		case err == sql.ErrNoRows:
			if err := insertJob(tx, job, runID, s.now()); err != nil {
				return nil, err
			}
			newJobs = append(newJobs, job)
		case err != nil:
			return nil, fmt.Errorf("checking job %s: %w", job.ID, err)
		default:
			if err := refreshJob(tx, job, runID); err != nil {
				return nil, err
			}
		}
	}

	if _, err := tx.Exec("UPDATE runs SET new_jobs = ? WHERE id = ?", len(newJobs), runID); err != nil {
		return nil, fmt.Errorf("updating new-job count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing run: %w", err)
	}
	return newJobs, nil
}

func insertJob(tx *sql.Tx, job model.Job, runID int64, now time.Time) error {
	var payMin, payMax sql.NullFloat64
	var payPeriod, payCurrency sql.NullString
	if job.Pay != nil {
		payMin = sql.NullFloat64{Float64: job.Pay.Min, Valid: true}
		payMax = sql.NullFloat64{Float64: job.Pay.Max, Valid: true}
		payPeriod = sql.NullString{String: job.Pay.Period, Valid: true}
		payCurrency = sql.NullString{String: job.Pay.Currency, Valid: true}
	}
	var postedAt any
	if !job.PostedAt.IsZero() {
		postedAt = job.PostedAt
	}

	_, err := tx.Exec(`INSERT INTO jobs
		(job_id, title, description, city, state, postal_code, country, remote, posted_at,
		 detail_url, emp_type, pay_min, pay_max, pay_period, pay_currency,
		 streams, first_seen, first_run_id, last_run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Title, job.Description, job.City, job.State, job.PostalCode, job.Country,
		job.Remote, postedAt, job.DetailURL, job.EmploymentType,
		payMin, payMax, payPeriod, payCurrency,
		strings.Join(job.Streams, ","), now, runID, runID,
	)
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", job.ID, err)
	}
	return nil
}

func refreshJob(tx *sql.Tx, job model.Job, runID int64) error {
	// Postings change over time (pay gets added, titles get edited), so
	// refresh the mutable columns on every sighting.
	var payMin, payMax sql.NullFloat64
	var payPeriod, payCurrency sql.NullString
	if job.Pay != nil {
		payMin = sql.NullFloat64{Float64: job.Pay.Min, Valid: true}
		payMax = sql.NullFloat64{Float64: job.Pay.Max, Valid: true}
		payPeriod = sql.NullString{String: job.Pay.Period, Valid: true}
		payCurrency = sql.NullString{String: job.Pay.Currency, Valid: true}
	}
	_, err := tx.Exec(`UPDATE jobs SET
		title = ?, description = ?, city = ?, state = ?, postal_code = ?, remote = ?,
		pay_min = ?, pay_max = ?, pay_period = ?, pay_currency = ?,
		streams = ?, last_run_id = ?
		WHERE job_id = ?`,
		job.Title, job.Description, job.City, job.State, job.PostalCode, job.Remote,
		payMin, payMax, payPeriod, payCurrency,
		strings.Join(job.Streams, ","), runID, job.ID,
	)
	if err != nil {
		return fmt.Errorf("refreshing job %s: %w", job.ID, err)
	}
	return nil
}

// IsEmpty returns true if no job has ever been recorded.
func (s *SQLiteStore) IsEmpty() (bool, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM jobs").Scan(&count); err != nil {
		return false, fmt.Errorf("checking if store is empty: %w", err)
	}
	return count == 0, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		"SELECT id, started_at, status, total_jobs, new_jobs FROM runs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Status, &r.TotalJobs, &r.NewJobs); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// JobsForRun returns every job seen during the given run, newest posting first.
func (s *SQLiteStore) JobsForRun(runID int64) ([]StoredJob, error) {
	return s.queryJobs("last_run_id = ? OR first_run_id = ?", runID, runID)
}

// NewJobsForRun returns only the jobs first seen during the given run.
func (s *SQLiteStore) NewJobsForRun(runID int64) ([]StoredJob, error) {
	return s.queryJobs("first_run_id = ?", runID)
}

func (s *SQLiteStore) queryJobs(where string, args ...any) ([]StoredJob, error) {
	rows, err := s.db.Query(`SELECT
		job_id, title, description, city, state, postal_code, country, remote, posted_at,
		detail_url, emp_type, pay_min, pay_max, pay_period, pay_currency,
		streams, first_seen, first_run_id, last_run_id
		FROM jobs WHERE `+where+` ORDER BY posted_at DESC, job_id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []StoredJob
	for rows.Next() {
		var sj StoredJob
		var remote int
		var postedAt sql.NullTime
		var payMin, payMax sql.NullFloat64
		var payPeriod, payCurrency sql.NullString
		var streams string
		err := rows.Scan(
			&sj.Job.ID, &sj.Job.Title, &sj.Job.Description, &sj.Job.City, &sj.Job.State,
			&sj.Job.PostalCode, &sj.Job.Country, &remote, &postedAt,
			&sj.Job.DetailURL, &sj.Job.EmploymentType,
			&payMin, &payMax, &payPeriod, &payCurrency,
			&streams, &sj.FirstSeenAt, &sj.FirstRunID, &sj.LastRunID,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		sj.Job.Remote = remote != 0
		if postedAt.Valid {
			sj.Job.PostedAt = postedAt.Time
		}
		if payMin.Valid {
			sj.Job.Pay = &model.PayRange{
				Min:      payMin.Float64,
				Max:      payMax.Float64,
				Period:   payPeriod.String,
				Currency: payCurrency.String,
			}
		}
		if streams != "" {
			sj.Job.Streams = strings.Split(streams, ",")
		}
		jobs = append(jobs, sj)
	}
	return jobs, rows.Err()
}

// Cleanup deletes jobs whose last sighting is older than the given duration,
// judged by the start time of the run that last saw them. Jobs from the most
// recent run always survive.
func (s *SQLiteStore) Cleanup(olderThan time.Duration) error {
	cutoff := s.now().Add(-olderThan)
	_, err := s.db.Exec(`DELETE FROM jobs
		WHERE last_run_id NOT IN (SELECT MAX(id) FROM runs)
		AND last_run_id IN (SELECT id FROM runs WHERE started_at < ?)`, cutoff)
	if err != nil {
		return fmt.Errorf("cleaning up jobs older than %v: %w", olderThan, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
