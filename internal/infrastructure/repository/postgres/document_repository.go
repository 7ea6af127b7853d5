package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/akulagin/docflow/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026060301)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	document_id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	document_type TEXT NOT NULL,
	status TEXT NOT NULL,
	storage_path TEXT NOT NULL DEFAULT '',
	file_type TEXT NOT NULL DEFAULT '',
	file_size BIGINT NOT NULL DEFAULT 0,
	extracted_text TEXT NOT NULL DEFAULT '',
	classification JSONB,
	ai_summary TEXT NOT NULL DEFAULT '',
	risk_score INTEGER,
	reviewer_comments TEXT NOT NULL DEFAULT '',
	uploaded_at TIMESTAMPTZ NOT NULL,
	processed_at TIMESTAMPTZ,
	approved_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents(uploaded_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const documentColumns = `document_id, filename, document_type, status, storage_path, file_type, file_size,
	extracted_text, classification, ai_summary, risk_score, reviewer_comments,
	uploaded_at, processed_at, approved_at`

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	var clsJSON any
	if doc.Classification != nil {
		raw, err := json.Marshal(doc.Classification)
		if err != nil {
			return fmt.Errorf("marshal classification: %w", err)
		}
		clsJSON = raw
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (`+documentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`,
		doc.ID, doc.Filename, doc.DocumentType, string(doc.Status), doc.StoragePath,
		doc.FileType, doc.FileSize, doc.ExtractedText, clsJSON, doc.AISummary,
		doc.RiskScore, doc.ReviewerComments, doc.UploadedAt, doc.ProcessedAt, doc.ApprovedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE document_id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) List(ctx context.Context, status domain.DocumentStatus, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
SELECT ` + documentColumns + `
FROM documents
ORDER BY uploaded_at DESC
LIMIT $1
`
	args := []any{limit}
	if status != "" {
		query = `
SELECT ` + documentColumns + `
FROM documents
WHERE status = $1
ORDER BY uploaded_at DESC
LIMIT $2
`
		args = []any{string(status), limit}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

func (r *DocumentRepository) ListPendingReview(ctx context.Context) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE status = $1
ORDER BY uploaded_at DESC
`, string(domain.StatusPendingReview))
	if err != nil {
		return nil, fmt.Errorf("list pending review: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE document_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete document", fmt.Errorf("id %s", id))
	}
	return nil
}

func (r *DocumentRepository) SaveClassification(ctx context.Context, id string, cls domain.Classification) error {
	raw, err := json.Marshal(cls)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET classification = $2, status = $3
WHERE document_id = $1 AND status = $4 AND classification IS NULL
`, id, raw, string(domain.StatusProcessing), string(domain.StatusUploaded))
	if err != nil {
		return fmt.Errorf("save classification: %w", err)
	}
	return r.requireEffect(ctx, res, id, "save classification")
}

func (r *DocumentRepository) SaveSummary(ctx context.Context, id string, summary string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET ai_summary = $2
WHERE document_id = $1 AND status = $3 AND ai_summary = ''
`, id, summary, string(domain.StatusProcessing))
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return r.requireEffect(ctx, res, id, "save summary")
}

func (r *DocumentRepository) ApplyRiskResult(ctx context.Context, id string, result domain.RiskResult) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET risk_score = $2,
	status = $3,
	reviewer_comments = CASE WHEN $4 <> '' THEN $4 ELSE reviewer_comments END,
	processed_at = $5,
	approved_at = $6
WHERE document_id = $1 AND status = $7 AND risk_score IS NULL
`, id, result.Score, string(result.Status), result.Comment,
		result.ProcessedAt, result.ApprovedAt, string(domain.StatusProcessing))
	if err != nil {
		return fmt.Errorf("apply risk result: %w", err)
	}
	return r.requireEffect(ctx, res, id, "apply risk result")
}

func (r *DocumentRepository) FinalizeReview(ctx context.Context, id string, status domain.DocumentStatus, comment string, decidedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, reviewer_comments = $3, approved_at = $4
WHERE document_id = $1 AND status = $5
`, id, string(status), comment, decidedAt, string(domain.StatusPendingReview))
	if err != nil {
		return fmt.Errorf("finalize review: %w", err)
	}
	return r.requireEffect(ctx, res, id, "finalize review")
}

func (r *DocumentRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	// The exclusion list comes from the state machine so a new terminal
	// status cannot silently become failable here.
	args := []any{id, string(domain.StatusFailed), reason}
	placeholders := make([]string, 0, 3)
	for _, status := range domain.TerminalStatuses() {
		args = append(args, string(status))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	query := fmt.Sprintf(`
UPDATE documents
SET status = $2, reviewer_comments = $3
WHERE document_id = $1 AND status NOT IN (%s)
`, strings.Join(placeholders, ", "))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return r.requireEffect(ctx, res, id, "mark failed")
}

// requireEffect distinguishes a missing row from a conditional update that
// found the row in a different state than the stage expected.
func (r *DocumentRepository) requireEffect(ctx context.Context, res sql.Result, id, operation string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected > 0 {
		return nil
	}

	var status string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM documents WHERE document_id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("id %s", id))
	}
	if err != nil {
		return fmt.Errorf("%s status check: %w", operation, err)
	}
	return domain.WrapError(domain.ErrConflict, operation,
		fmt.Errorf("document %s already in status %s", id, status))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc         domain.Document
		status      string
		clsRaw      []byte
		riskScore   sql.NullInt64
		processedAt sql.NullTime
		approvedAt  sql.NullTime
	)

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.DocumentType, &status, &doc.StoragePath,
		&doc.FileType, &doc.FileSize, &doc.ExtractedText, &clsRaw, &doc.AISummary,
		&riskScore, &doc.ReviewerComments, &doc.UploadedAt, &processedAt, &approvedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Status = domain.DocumentStatus(status)
	if len(clsRaw) > 0 {
		var cls domain.Classification
		if err := json.Unmarshal(clsRaw, &cls); err != nil {
			return nil, fmt.Errorf("unmarshal classification: %w", err)
		}
		doc.Classification = &cls
	}
	if riskScore.Valid {
		score := int(riskScore.Int64)
		doc.RiskScore = &score
	}
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		doc.ApprovedAt = &t
	}
	return &doc, nil
}

func collectDocuments(rows *sql.Rows) ([]domain.Document, error) {
	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document rows: %w", err)
	}
	return docs, nil
}
