package repo

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/yanqian/complaint-intake/internal/domain/intake"
)

// PostgresSubmissionRepository persists submissions in Postgres.
type PostgresSubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSubmissionRepository constructs the repository.
func NewPostgresSubmissionRepository(pool *pgxpool.Pool) *PostgresSubmissionRepository {
	return &PostgresSubmissionRepository{pool: pool}
}

const submissionColumns = `id, category, filename, location, storage_key, size_bytes, mime_type, etag, shape, questions, status, failure_reason, created_at, updated_at`

func (r *PostgresSubmissionRepository) Create(ctx context.Context, sub domain.Submission) error {
	questions, err := json.Marshal(sub.Questions)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO complaint_submissions (`+submissionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, sub.ID, sub.Category, sub.Filename, sub.Location, sub.StorageKey, sub.SizeBytes, sub.MimeType, sub.ETag,
		sub.Shape, questions, sub.Status, sub.FailureReason, sub.CreatedAt, sub.UpdatedAt)
	return err
}

func (r *PostgresSubmissionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SubmissionStatus, failureReason *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE complaint_submissions
		SET status = $1, failure_reason = $2, updated_at = NOW()
		WHERE id = $3
	`, status, failureReason, id)
	return err
}

func (r *PostgresSubmissionRepository) Get(ctx context.Context, id uuid.UUID) (domain.Submission, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+submissionColumns+`
		FROM complaint_submissions
		WHERE id = $1
		LIMIT 1
	`, id)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Submission{}, false, nil
		}
		return domain.Submission{}, false, err
	}
	return sub, true, nil
}

func (r *PostgresSubmissionRepository) List(ctx context.Context, filter domain.SubmissionFilter) ([]domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM complaint_submissions WHERE TRUE`
	var args []any
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += ` AND category = $` + strconv.Itoa(len(args))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			statuses = append(statuses, string(st))
		}
		args = append(args, statuses)
		query += ` AND status = ANY($` + strconv.Itoa(len(args)) + `)`
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func scanSubmission(row pgx.Row) (domain.Submission, error) {
	var (
		sub       domain.Submission
		questions []byte
	)
	if err := row.Scan(&sub.ID, &sub.Category, &sub.Filename, &sub.Location, &sub.StorageKey, &sub.SizeBytes,
		&sub.MimeType, &sub.ETag, &sub.Shape, &questions, &sub.Status, &sub.FailureReason, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return domain.Submission{}, err
	}
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &sub.Questions); err != nil {
			return domain.Submission{}, err
		}
	}
	return sub, nil
}

var _ domain.SubmissionRepository = (*PostgresSubmissionRepository)(nil)

// PostgresAnswerRepository persists answers.
type PostgresAnswerRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAnswerRepository constructs the repository.
func NewPostgresAnswerRepository(pool *pgxpool.Pool) *PostgresAnswerRepository {
	return &PostgresAnswerRepository{pool: pool}
}

// Save upserts on (submission_id, question_index) so reprocessing replaces earlier answers.
func (r *PostgresAnswerRepository) Save(ctx context.Context, answer domain.Answer) error {
	sources, err := json.Marshal(answer.Sources)
	if err != nil {
		return err
	}
	usage, err := json.Marshal(answer.TokenUsage)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO complaint_answers (id, submission_id, question_index, question_id, question_text, answer_text, status, bounding_box_return, sources, token_usage, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (submission_id, question_index) DO UPDATE SET
			id = EXCLUDED.id,
			answer_text = EXCLUDED.answer_text,
			status = EXCLUDED.status,
			sources = EXCLUDED.sources,
			token_usage = EXCLUDED.token_usage,
			error = EXCLUDED.error,
			created_at = EXCLUDED.created_at
	`, answer.ID, answer.SubmissionID, answer.QuestionIndex, answer.QuestionID, answer.QuestionText, answer.AnswerText,
		answer.Status, answer.BoundingBoxReturn, sources, usage, answer.Error, answer.CreatedAt)
	return err
}

func (r *PostgresAnswerRepository) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]domain.Answer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, submission_id, question_index, question_id, question_text, answer_text, status, bounding_box_return, sources, token_usage, error, created_at
		FROM complaint_answers
		WHERE submission_id = $1
		ORDER BY question_index ASC
	`, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var (
			answer  domain.Answer
			sources []byte
			usage   []byte
		)
		if err := rows.Scan(&answer.ID, &answer.SubmissionID, &answer.QuestionIndex, &answer.QuestionID, &answer.QuestionText,
			&answer.AnswerText, &answer.Status, &answer.BoundingBoxReturn, &sources, &usage, &answer.Error, &answer.CreatedAt); err != nil {
			return nil, err
		}
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &answer.Sources); err != nil {
				return nil, err
			}
		}
		if len(usage) > 0 {
			if err := json.Unmarshal(usage, &answer.TokenUsage); err != nil {
				return nil, err
			}
		}
		answers = append(answers, answer)
	}
	return answers, rows.Err()
}

var _ domain.AnswerRepository = (*PostgresAnswerRepository)(nil)
