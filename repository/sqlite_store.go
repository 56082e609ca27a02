package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"loan-eligibility/domain"
	"loan-eligibility/model"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS models (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	metadata   TEXT NOT NULL,
	data       BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS predictions (
	id                TEXT PRIMARY KEY,
	model_id          TEXT NOT NULL,
	income            REAL NOT NULL,
	credit_score      INTEGER NOT NULL,
	employment_status TEXT NOT NULL,
	loan_type         TEXT NOT NULL,
	label             TEXT NOT NULL,
	confidence        REAL NOT NULL,
	model_label       TEXT NOT NULL,
	model_confidence  REAL NOT NULL,
	overridden        INTEGER NOT NULL,
	rule              TEXT NOT NULL DEFAULT '',
	reason            TEXT NOT NULL DEFAULT '',
	created_at        INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
`

// SQLiteStore keeps models and the prediction audit log in one SQLite
// database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn, applies pragmas and
// creates the schema.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Models returns a ModelRepository backed by this store.
func (s *SQLiteStore) Models() ModelRepository { return &sqliteModelRepo{db: s.db} }

// Predictions returns a PredictionRepository backed by this store.
func (s *SQLiteStore) Predictions() PredictionRepository { return &sqlitePredictionRepo{db: s.db} }

type sqliteModelRepo struct {
	db *sql.DB
}

func (r *sqliteModelRepo) Save(ctx context.Context, b *model.Bundle) error {
	data, err := model.Marshal(b)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(b.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO models (id, created_at, metadata, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at, metadata = excluded.metadata, data = excluded.data`,
		b.Metadata.ID, b.Metadata.CreatedAt.UnixNano(), string(meta), data)
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

func (r *sqliteModelRepo) Load(ctx context.Context, id string) (*model.Bundle, error) {
	return r.loadOne(ctx, `SELECT data FROM models WHERE id = ?`, id)
}

func (r *sqliteModelRepo) Latest(ctx context.Context) (*model.Bundle, error) {
	return r.loadOne(ctx, `SELECT data FROM models ORDER BY created_at DESC, rowid DESC LIMIT 1`)
}

func (r *sqliteModelRepo) loadOne(ctx context.Context, query string, args ...any) (*model.Bundle, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return model.Unmarshal(data)
}

func (r *sqliteModelRepo) List(ctx context.Context) ([]model.Metadata, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT metadata FROM models ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var metas []model.Metadata
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		var m model.Metadata
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

type sqlitePredictionRepo struct {
	db *sql.DB
}

func (r *sqlitePredictionRepo) Save(ctx context.Context, input domain.Applicant, p domain.Prediction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO predictions (id, model_id, income, credit_score, employment_status, loan_type,
			label, confidence, model_label, model_confidence, overridden, rule, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ModelID, input.Income, input.CreditScore, string(input.EmploymentStatus), string(input.LoanType),
		string(p.Label), p.Confidence, string(p.ModelLabel), p.ModelConfidence, p.Overridden, p.Rule, p.Reason,
		p.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save prediction: %w", err)
	}
	return nil
}

func (r *sqlitePredictionRepo) List(ctx context.Context, limit int) ([]PredictionRecord, error) {
	query := `SELECT id, model_id, income, credit_score, employment_status, loan_type,
		label, confidence, model_label, model_confidence, overridden, rule, reason, created_at
		FROM predictions ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var out []PredictionRecord
	for rows.Next() {
		var (
			rec                  PredictionRecord
			emp, loan, label, ml string
			createdAt            int64
		)
		err := rows.Scan(&rec.Prediction.ID, &rec.Prediction.ModelID, &rec.Applicant.Income, &rec.Applicant.CreditScore,
			&emp, &loan, &label, &rec.Prediction.Confidence, &ml, &rec.Prediction.ModelConfidence,
			&rec.Prediction.Overridden, &rec.Prediction.Rule, &rec.Prediction.Reason, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		rec.Applicant.EmploymentStatus = domain.EmploymentStatus(emp)
		rec.Applicant.LoanType = domain.LoanType(loan)
		rec.Prediction.Label = domain.Label(label)
		rec.Prediction.ModelLabel = domain.Label(ml)
		rec.Prediction.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
