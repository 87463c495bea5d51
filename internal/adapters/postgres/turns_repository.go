package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// TurnsRepository appends completed conversation turns to a call's
// transcript (spec §4.9 CALL_ENDING: "finalize turn log"). It implements
// ports.TurnRepository.
type TurnsRepository struct {
	BaseRepository
}

func NewTurnsRepository(pool *pgxpool.Pool) *TurnsRepository {
	return &TurnsRepository{BaseRepository: NewBaseRepository(pool)}
}

func (r *TurnsRepository) AppendTurn(ctx context.Context, callID string, turn domain.Turn) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	objections, err := json.Marshal(turn.Objections)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO voicecore_turns (
			call_id, turn_index, user_transcript, agent_response,
			started_at, ended_at, stage, profile, objections, principle,
			filler_id, sentiment, interrupted
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`

	_, err = r.conn(ctx).Exec(ctx, query,
		callID,
		turn.Index,
		turn.UserTranscript,
		turn.AgentResponse,
		turn.StartedAt,
		turn.EndedAt,
		turn.Stage,
		turn.Profile,
		objections,
		turn.Principle,
		nullString(turn.FillerID),
		turn.Sentiment,
		turn.Interrupted,
	)
	return err
}

// ListByCall returns a call's turns in recorded order. The supervisor keeps
// a call's turn history in memory and does not call it.
func (r *TurnsRepository) ListByCall(ctx context.Context, callID string) ([]domain.Turn, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT turn_index, user_transcript, agent_response, started_at, ended_at,
		       stage, profile, objections, principle, filler_id, sentiment, interrupted
		FROM voicecore_turns
		WHERE call_id = $1
		ORDER BY turn_index ASC`

	rows, err := r.conn(ctx).Query(ctx, query, callID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var turn domain.Turn
		var objections []byte
		var fillerID sql.NullString

		if err := rows.Scan(
			&turn.Index,
			&turn.UserTranscript,
			&turn.AgentResponse,
			&turn.StartedAt,
			&turn.EndedAt,
			&turn.Stage,
			&turn.Profile,
			&objections,
			&turn.Principle,
			&fillerID,
			&turn.Sentiment,
			&turn.Interrupted,
		); err != nil {
			return nil, err
		}

		if len(objections) > 0 {
			if err := json.Unmarshal(objections, &turn.Objections); err != nil {
				return nil, err
			}
		}
		turn.FillerID = getString(fillerID)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}
