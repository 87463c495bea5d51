package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

func TestCallsRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &CallsRepository{BaseRepository: BaseRepository{pool: nil}}

	call := &domain.Call{
		ID:        "call_1",
		AgentID:   "agent_1",
		LeadID:    "lead_1",
		Direction: domain.DirectionOutbound,
		Status:    domain.CallStatusInitiated,
		Carrier:   domain.CarrierBrowser,
		StartedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO voicecore_calls").
		WithArgs(call.ID, call.AgentID, call.LeadID, pgxmock.AnyArg(), call.Direction, call.Status,
			call.Carrier, call.StartedAt, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), call.FinalSentiment).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ctx := setupMockContext(mock)
	if err := repo.Create(ctx, call); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCallsRepository_UpdateStatus_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &CallsRepository{BaseRepository: BaseRepository{pool: nil}}

	mock.ExpectExec("UPDATE voicecore_calls").
		WithArgs("call_missing", domain.CallStatusAnswered).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ctx := setupMockContext(mock)
	err = repo.UpdateStatus(ctx, "call_missing", domain.CallStatusAnswered)
	if err != pgx.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCallsRepository_Finalize(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &CallsRepository{BaseRepository: BaseRepository{pool: nil}}
	endedAt := time.Now()

	mock.ExpectExec("UPDATE voicecore_calls").
		WithArgs("call_1", string(domain.CallOutcomeMeetingBooked), 0.8, endedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ctx := setupMockContext(mock)
	err = repo.Finalize(ctx, "call_1", domain.CallOutcomeMeetingBooked, 0.8, endedAt)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCallsRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &CallsRepository{BaseRepository: BaseRepository{pool: nil}}
	now := time.Now()

	rows := pgxmock.NewRows([]string{
		"id", "agent_id", "lead_id", "campaign_id", "direction", "status", "carrier",
		"started_at", "answered_at", "ended_at", "recording_url", "outcome", "final_sentiment",
	}).AddRow("call_1", "agent_1", "lead_1", nil, domain.DirectionOutbound, domain.CallStatusCompleted,
		domain.CarrierBrowser, now, nil, nil, nil, nil, 0.0)

	mock.ExpectQuery("SELECT (.+) FROM voicecore_calls").
		WithArgs("call_1").
		WillReturnRows(rows)

	ctx := setupMockContext(mock)
	call, err := repo.GetByID(ctx, "call_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.ID != "call_1" {
		t.Errorf("expected call_1, got %s", call.ID)
	}
	if call.CampaignID != "" {
		t.Errorf("expected empty campaign id, got %s", call.CampaignID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCallsRepository_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &CallsRepository{BaseRepository: BaseRepository{pool: nil}}

	mock.ExpectQuery("SELECT (.+) FROM voicecore_calls").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	ctx := setupMockContext(mock)
	_, err = repo.GetByID(ctx, "missing")
	if err != pgx.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
