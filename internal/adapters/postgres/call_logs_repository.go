package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// CallLogsRepository appends carrier-lifecycle and state-transition events
// for a call (spec §3 CallLogEvent, §4.9: "append Call Log event" on every
// transition). It implements ports.CallLogRepository.
type CallLogsRepository struct {
	BaseRepository
}

func NewCallLogsRepository(pool *pgxpool.Pool) *CallLogsRepository {
	return &CallLogsRepository{BaseRepository: NewBaseRepository(pool)}
}

func (r *CallLogsRepository) Append(ctx context.Context, event domain.CallLogEvent) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO voicecore_call_logs (
			call_id, campaign_id, kind, occurred_at, details, payload
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)`

	_, err = r.conn(ctx).Exec(ctx, query,
		event.CallID,
		nullString(event.CampaignID),
		event.Kind,
		event.Timestamp,
		event.Details,
		payload,
	)
	return err
}

// ListByCall returns a call's log events in chronological order, used by
// post-call analytics and debugging tools (spec §6 reporting surface).
func (r *CallLogsRepository) ListByCall(ctx context.Context, callID string) ([]domain.CallLogEvent, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT call_id, campaign_id, kind, occurred_at, details, payload
		FROM voicecore_call_logs
		WHERE call_id = $1
		ORDER BY occurred_at ASC`

	rows, err := r.conn(ctx).Query(ctx, query, callID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.CallLogEvent
	for rows.Next() {
		var event domain.CallLogEvent
		var campaignID sql.NullString
		var payload []byte

		if err := rows.Scan(&event.CallID, &campaignID, &event.Kind, &event.Timestamp, &event.Details, &payload); err != nil {
			return nil, err
		}
		event.CampaignID = getString(campaignID)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &event.Payload); err != nil {
				return nil, err
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
