package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// CallsRepository persists the carrier-level lifecycle record for a call
// (spec §3 Call). It implements ports.CallRepository.
type CallsRepository struct {
	BaseRepository
}

func NewCallsRepository(pool *pgxpool.Pool) *CallsRepository {
	return &CallsRepository{BaseRepository: NewBaseRepository(pool)}
}

func (r *CallsRepository) Create(ctx context.Context, call *domain.Call) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO voicecore_calls (
			id, agent_id, lead_id, campaign_id, direction, status, carrier,
			started_at, answered_at, ended_at, recording_url, outcome, final_sentiment
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`

	_, err := r.conn(ctx).Exec(ctx, query,
		call.ID,
		call.AgentID,
		call.LeadID,
		nullString(call.CampaignID),
		call.Direction,
		call.Status,
		call.Carrier,
		call.StartedAt,
		nullTime(call.AnsweredAt),
		nullTime(call.EndedAt),
		nullString(call.RecordingURL),
		nullString(string(call.Outcome)),
		call.FinalSentiment,
	)
	return err
}

func (r *CallsRepository) UpdateStatus(ctx context.Context, callID string, status domain.CallStatus) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE voicecore_calls
		SET status = $2,
			answered_at = CASE WHEN $2 = 'ANSWERED' THEN NOW() ELSE answered_at END
		WHERE id = $1`

	result, err := r.conn(ctx).Exec(ctx, query, callID, status)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CallsRepository) Finalize(ctx context.Context, callID string, outcome domain.CallOutcome, sentiment float64, endedAt time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE voicecore_calls
		SET status = 'COMPLETED', outcome = $2, final_sentiment = $3, ended_at = $4
		WHERE id = $1`

	result, err := r.conn(ctx).Exec(ctx, query, callID, string(outcome), sentiment, endedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CallsRepository) GetByID(ctx context.Context, id string) (*domain.Call, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, agent_id, lead_id, campaign_id, direction, status, carrier,
		       started_at, answered_at, ended_at, recording_url, outcome, final_sentiment
		FROM voicecore_calls
		WHERE id = $1`

	return r.scanCall(r.conn(ctx).QueryRow(ctx, query, id))
}

func (r *CallsRepository) scanCall(row pgx.Row) (*domain.Call, error) {
	var call domain.Call
	var campaignID, recordingURL, outcome sql.NullString
	var answeredAt, endedAt sql.NullTime

	err := row.Scan(
		&call.ID,
		&call.AgentID,
		&call.LeadID,
		&campaignID,
		&call.Direction,
		&call.Status,
		&call.Carrier,
		&call.StartedAt,
		&answeredAt,
		&endedAt,
		&recordingURL,
		&outcome,
		&call.FinalSentiment,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}

	call.CampaignID = getString(campaignID)
	call.RecordingURL = getString(recordingURL)
	call.Outcome = domain.CallOutcome(getString(outcome))
	call.AnsweredAt = getTimePtr(answeredAt)
	call.EndedAt = getTimePtr(endedAt)
	return &call, nil
}
