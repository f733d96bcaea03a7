package postgres

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	repo "github.com/ilindan-dev/sms-sender-bot/internal/domain/repository"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
)

var _ repo.SendRecordRepository = (*RecordRepository)(nil)

const (
	insertRecord = `
INSERT INTO sms_messages (id, job_id, chat_id, destination, success, detail, kind, attempts, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	selectColumns = `id, job_id, chat_id, destination, success, detail, kind, attempts, created_at`

	selectRecordByID = `SELECT ` + selectColumns + ` FROM sms_messages WHERE id = $1`

	selectRecordsByJob = `SELECT ` + selectColumns + ` FROM sms_messages WHERE job_id = $1 ORDER BY created_at, id`
)

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RecordRepository stores the send history in the sms_messages table.
type RecordRepository struct {
	db     Querier
	logger zerolog.Logger
}

func NewRecordRepository(db Querier, logger *zerolog.Logger) *RecordRepository {
	return &RecordRepository{
		db:     db,
		logger: logger.With().Str("layer", "postgres_repository").Logger(),
	}
}

// Save inserts a new record.
func (r *RecordRepository) Save(ctx context.Context, rec *model.SendRecord) error {
	_, err := r.db.Exec(ctx, insertRecord,
		pgtype.UUID{Bytes: rec.ID, Valid: true},
		toPgUUID(rec.JobID),
		rec.ChatID,
		rec.Destination,
		rec.Success,
		rec.Detail,
		string(rec.Kind),
		int16(rec.Attempts),
		pgtype.Timestamptz{Time: rec.CreatedAt, Valid: true},
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return repo.ErrDuplicateRecord
		}
		r.logger.Err(err).Stringer("id", rec.ID).Msg("cannot insert send record")
		return fmt.Errorf("postgres: insert send record failed: %w", err)
	}
	return nil
}

// GetByID retrieves a record by its unique ID.
func (r *RecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SendRecord, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, selectRecordByID, pgtype.UUID{Bytes: id, Valid: true}))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		r.logger.Err(err).Str("method", "GetByID").Msg("cannot get send record")
		return nil, fmt.Errorf("postgres: get send record failed: %w", err)
	}
	return rec, nil
}

// ListByJob returns the records of a bulk job in send order.
func (r *RecordRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*model.SendRecord, error) {
	rows, err := r.db.Query(ctx, selectRecordsByJob, pgtype.UUID{Bytes: jobID, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("postgres: list send records failed: %w", err)
	}
	defer rows.Close()

	var out []*model.SendRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan send record failed: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list send records failed: %w", err)
	}
	return out, nil
}

// === Mapper Functions ===

func toPgUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func scanRecord(row pgx.Row) (*model.SendRecord, error) {
	var (
		id        pgtype.UUID
		jobID     pgtype.UUID
		kind      string
		attempts  int16
		createdAt pgtype.Timestamptz
		rec       model.SendRecord
	)
	if err := row.Scan(&id, &jobID, &rec.ChatID, &rec.Destination, &rec.Success, &rec.Detail, &kind, &attempts, &createdAt); err != nil {
		return nil, err
	}
	rec.ID = id.Bytes
	if jobID.Valid {
		j := uuid.UUID(jobID.Bytes)
		rec.JobID = &j
	}
	rec.Kind = model.ErrorKind(kind)
	rec.Attempts = int(attempts)
	rec.CreatedAt = createdAt.Time
	return &rec, nil
}
