package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"answerhub.dev/scribe/common/id"
	"answerhub.dev/scribe/internal/model"
)

type trackedAnswerStore struct {
	pool *pgxpool.Pool
}

func newTrackedAnswerStore(pool *pgxpool.Pool) TrackedAnswerStore {
	return &trackedAnswerStore{pool: pool}
}

const trackedAnswerColumns = `id, channel, thread_id, answer_message_id, domain_id,
	original_question, bot_answer, evidence, owner_user_ids, document_source_ids,
	status, responding_owner_ids, created_at, first_response_at, process_after,
	resolved_at, outcome, outcome_detail`

func (s *trackedAnswerStore) Create(ctx context.Context, ans *model.TrackedAnswer) error {
	if ans.ID == 0 {
		ans.ID = id.New()
	}
	ans.Status = model.TrackedAnswerStatusActive

	row := s.pool.QueryRow(ctx, `
		INSERT INTO tracked_answers (id, channel, thread_id, answer_message_id,
			domain_id, original_question, bot_answer, evidence, owner_user_ids,
			document_source_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+trackedAnswerColumns,
		ans.ID, ans.Channel, ans.ThreadID, ans.AnswerMessageID,
		ans.DomainID, ans.OriginalQuestion, ans.BotAnswer, ans.Evidence,
		ans.OwnerUserIDs, ans.DocumentSourceIDs)

	created, err := scanTrackedAnswer(row)
	if err != nil {
		return err
	}
	*ans = *created
	return nil
}

func (s *trackedAnswerStore) GetByID(ctx context.Context, ansID int64) (*model.TrackedAnswer, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+trackedAnswerColumns+` FROM tracked_answers WHERE id = $1`, ansID)
	ans, err := scanTrackedAnswer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ans, nil
}

func (s *trackedAnswerStore) FindLiveByThread(ctx context.Context, channel, threadID string) (*model.TrackedAnswer, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+trackedAnswerColumns+` FROM tracked_answers
		WHERE channel = $1 AND thread_id = $2
		  AND status IN ('active', 'pending_correction')`,
		channel, threadID)
	ans, err := scanTrackedAnswer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ans, nil
}

// RecordResponse is a single guarded update: the responder set grows with
// set semantics, while the status flip and deadline arm only happen on the
// first response (record still active). Every right-hand side sees the row's
// pre-update values, so the CASE expressions observe a consistent status.
func (s *trackedAnswerStore) RecordResponse(ctx context.Context, ansID int64, userID string, delay time.Duration) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tracked_answers
		SET responding_owner_ids = CASE
		        WHEN $2 = ANY(responding_owner_ids) THEN responding_owner_ids
		        ELSE array_append(responding_owner_ids, $2) END,
		    first_response_at = COALESCE(first_response_at, now()),
		    process_after = CASE WHEN status = 'active' THEN $3 ELSE process_after END,
		    status = CASE WHEN status = 'active' THEN 'pending_correction' ELSE status END
		WHERE id = $1 AND status IN ('active', 'pending_correction')`,
		ansID, userID, time.Now().Add(delay))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *trackedAnswerStore) ReadyToProcess(ctx context.Context) ([]model.TrackedAnswer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+trackedAnswerColumns+` FROM tracked_answers
		WHERE status = 'pending_correction' AND process_after <= now()
		ORDER BY process_after`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrackedAnswers(rows)
}

func (s *trackedAnswerStore) MarkProcessed(ctx context.Context, ansID int64, outcome, detail string) (bool, error) {
	return s.finalize(ctx, ansID, "processed", outcome, detail)
}

func (s *trackedAnswerStore) MarkCorrected(ctx context.Context, ansID int64, detail string) (bool, error) {
	return s.finalize(ctx, ansID, "corrected", model.OutcomeCorrected, detail)
}

func (s *trackedAnswerStore) finalize(ctx context.Context, ansID int64, status, outcome, detail string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tracked_answers
		SET status = $2, resolved_at = now(), outcome = $3, outcome_detail = $4
		WHERE id = $1 AND status IN ('active', 'pending_correction')`,
		ansID, status, outcome, detail)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *trackedAnswerStore) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM tracked_answers
		WHERE status IN ('corrected', 'processed')
		  AND COALESCE(resolved_at, created_at) < now() - make_interval(days => $1)`,
		days)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *trackedAnswerStore) OpenOlderThan(ctx context.Context, cutoff time.Time) ([]model.TrackedAnswer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+trackedAnswerColumns+` FROM tracked_answers
		WHERE status IN ('active', 'pending_correction')
		  AND created_at < $1
		ORDER BY created_at`,
		cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrackedAnswers(rows)
}

func scanTrackedAnswer(row pgx.Row) (*model.TrackedAnswer, error) {
	var ans model.TrackedAnswer
	err := row.Scan(
		&ans.ID, &ans.Channel, &ans.ThreadID, &ans.AnswerMessageID,
		&ans.DomainID, &ans.OriginalQuestion, &ans.BotAnswer, &ans.Evidence,
		&ans.OwnerUserIDs, &ans.DocumentSourceIDs, &ans.Status,
		&ans.RespondingOwnerIDs, &ans.CreatedAt, &ans.FirstResponseAt,
		&ans.ProcessAfter, &ans.ResolvedAt, &ans.Outcome, &ans.OutcomeDetail)
	if err != nil {
		return nil, err
	}
	return &ans, nil
}

func scanTrackedAnswers(rows pgx.Rows) ([]model.TrackedAnswer, error) {
	var out []model.TrackedAnswer
	for rows.Next() {
		ans, err := scanTrackedAnswer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ans)
	}
	return out, rows.Err()
}
