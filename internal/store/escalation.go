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

type escalationStore struct {
	pool *pgxpool.Pool
}

func newEscalationStore(pool *pgxpool.Pool) EscalationStore {
	return &escalationStore{pool: pool}
}

const escalationColumns = `id, channel, thread_id, origin_message_id, domain_id,
	original_question, owner_user_ids, status, escalated_at, first_response_at,
	synthesize_after, completed_at, skipped_at, document_url, skip_reason`

func (s *escalationStore) Create(ctx context.Context, esc *model.Escalation) error {
	if esc.ID == 0 {
		esc.ID = id.New()
	}
	esc.Status = model.EscalationStatusAwaitingResponse

	row := s.pool.QueryRow(ctx, `
		INSERT INTO escalations (id, channel, thread_id, origin_message_id,
			domain_id, original_question, owner_user_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+escalationColumns,
		esc.ID, esc.Channel, esc.ThreadID, esc.OriginMessageID,
		esc.DomainID, esc.OriginalQuestion, esc.OwnerUserIDs)

	created, err := scanEscalation(row)
	if err != nil {
		return err
	}
	*esc = *created
	return nil
}

func (s *escalationStore) GetByID(ctx context.Context, escID int64) (*model.Escalation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+escalationColumns+` FROM escalations WHERE id = $1`, escID)
	esc, err := scanEscalation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return esc, nil
}

func (s *escalationStore) FindLiveByThread(ctx context.Context, channel, threadID string) (*model.Escalation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+escalationColumns+` FROM escalations
		WHERE channel = $1 AND thread_id = $2
		  AND status IN ('awaiting_response', 'ready_to_synthesize')`,
		channel, threadID)
	esc, err := scanEscalation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return esc, nil
}

func (s *escalationStore) RecordResponse(ctx context.Context, escID int64, delay time.Duration) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE escalations
		SET status = 'ready_to_synthesize',
		    first_response_at = now(),
		    synthesize_after = $2
		WHERE id = $1 AND status = 'awaiting_response'`,
		escID, time.Now().Add(delay))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *escalationStore) ReadyToSynthesize(ctx context.Context) ([]model.Escalation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+escalationColumns+` FROM escalations
		WHERE status = 'ready_to_synthesize' AND synthesize_after <= now()
		ORDER BY synthesize_after`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEscalations(rows)
}

func (s *escalationStore) Complete(ctx context.Context, escID int64, documentURL *string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE escalations
		SET status = 'completed', completed_at = now(), document_url = $2
		WHERE id = $1 AND status IN ('awaiting_response', 'ready_to_synthesize')`,
		escID, documentURL)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *escalationStore) Skip(ctx context.Context, escID int64, reason string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE escalations
		SET status = 'skipped', skipped_at = now(), skip_reason = $2
		WHERE id = $1 AND status IN ('awaiting_response', 'ready_to_synthesize')`,
		escID, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *escalationStore) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM escalations
		WHERE status IN ('completed', 'skipped')
		  AND COALESCE(completed_at, skipped_at, escalated_at)
		      < now() - make_interval(days => $1)`,
		days)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *escalationStore) OpenOlderThan(ctx context.Context, cutoff time.Time) ([]model.Escalation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+escalationColumns+` FROM escalations
		WHERE status IN ('awaiting_response', 'ready_to_synthesize')
		  AND escalated_at < $1
		ORDER BY escalated_at`,
		cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEscalations(rows)
}

func scanEscalation(row pgx.Row) (*model.Escalation, error) {
	var esc model.Escalation
	err := row.Scan(
		&esc.ID, &esc.Channel, &esc.ThreadID, &esc.OriginMessageID,
		&esc.DomainID, &esc.OriginalQuestion, &esc.OwnerUserIDs, &esc.Status,
		&esc.EscalatedAt, &esc.FirstResponseAt, &esc.SynthesizeAfter,
		&esc.CompletedAt, &esc.SkippedAt, &esc.DocumentURL, &esc.SkipReason)
	if err != nil {
		return nil, err
	}
	return &esc, nil
}

func scanEscalations(rows pgx.Rows) ([]model.Escalation, error) {
	var out []model.Escalation
	for rows.Next() {
		esc, err := scanEscalation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *esc)
	}
	return out, rows.Err()
}
