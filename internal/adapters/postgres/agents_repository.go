package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

// AgentsRepository loads the immutable-per-call Agent configuration (spec
// §3 Agent). The full nested configuration (voice/speech/knowledge/call
// policy) is stored as a single msgpack-encoded blob keyed by agent ID —
// it is read whole at Prewarm and never queried by sub-field, so there is
// no relational benefit to normalizing it into columns. It implements
// ports.AgentRepository.
type AgentsRepository struct {
	BaseRepository
}

func NewAgentsRepository(pool *pgxpool.Pool) *AgentsRepository {
	return &AgentsRepository{BaseRepository: NewBaseRepository(pool)}
}

func (r *AgentsRepository) Get(ctx context.Context, agentID string) (*domain.Agent, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT config FROM voicecore_agents WHERE id = $1`

	var blob []byte
	err := r.conn(ctx).QueryRow(ctx, query, agentID).Scan(&blob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}

	var agent domain.Agent
	if err := msgpack.Unmarshal(blob, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// Upsert stores or replaces an agent's full configuration. There's no
// spec-mandated write path into this table from the call path itself —
// agent configuration is authored upstream of the core — but tests and
// fixture loading need a way to seed rows.
func (r *AgentsRepository) Upsert(ctx context.Context, agent *domain.Agent) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	blob, err := msgpack.Marshal(agent)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO voicecore_agents (id, display_name, config)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET display_name = $2, config = $3`

	_, err = r.conn(ctx).Exec(ctx, query, agent.ID, agent.DisplayName, blob)
	return err
}
