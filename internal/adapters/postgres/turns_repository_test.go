package postgres

import (
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

func TestTurnsRepository_AppendTurn(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &TurnsRepository{BaseRepository: BaseRepository{pool: nil}}

	turn := domain.Turn{
		Index:          0,
		UserTranscript: "I'm interested but need to check budget",
		AgentResponse:  "Totally understand, let's talk numbers",
		StartedAt:      time.Now(),
		EndedAt:        time.Now(),
		Stage:          domain.StageConsideration,
		Profile:        domain.ProfileAnalytical,
		Objections:     []domain.Objection{},
		Principle:      domain.PrincipleReciprocity,
		Sentiment:      0.6,
	}

	mock.ExpectExec("INSERT INTO voicecore_turns").
		WithArgs("call_1", turn.Index, turn.UserTranscript, turn.AgentResponse, turn.StartedAt, turn.EndedAt,
			turn.Stage, turn.Profile, pgxmock.AnyArg(), turn.Principle, pgxmock.AnyArg(), turn.Sentiment, turn.Interrupted).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ctx := setupMockContext(mock)
	if err := repo.AppendTurn(ctx, "call_1", turn); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestTurnsRepository_ListByCall(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &TurnsRepository{BaseRepository: BaseRepository{pool: nil}}
	now := time.Now()

	rows := pgxmock.NewRows([]string{
		"turn_index", "user_transcript", "agent_response", "started_at", "ended_at",
		"stage", "profile", "objections", "principle", "filler_id", "sentiment", "interrupted",
	}).AddRow(0, "hi", "hello", now, now, domain.StageAwareness, domain.ProfileEmotional,
		[]byte(`["PRICE"]`), domain.PrincipleLiking, "filler_1", 0.5, false)

	mock.ExpectQuery("SELECT (.+) FROM voicecore_turns").
		WithArgs("call_1").
		WillReturnRows(rows)

	ctx := setupMockContext(mock)
	turns, err := repo.ListByCall(ctx, "call_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if len(turns[0].Objections) != 1 || turns[0].Objections[0] != domain.ObjectionPrice {
		t.Errorf("expected [PRICE] objection, got %v", turns[0].Objections)
	}
	if turns[0].FillerID != "filler_1" {
		t.Errorf("expected filler_1, got %s", turns[0].FillerID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
