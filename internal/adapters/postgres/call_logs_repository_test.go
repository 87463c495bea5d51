package postgres

import (
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/priority-technologies/shreenika-voice-core/internal/domain"
)

func TestCallLogsRepository_Append(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &CallLogsRepository{BaseRepository: BaseRepository{pool: nil}}

	event := domain.CallLogEvent{
		CallID:    "call_1",
		Kind:      domain.CallLogAnswered,
		Timestamp: time.Now(),
		Details:   "LISTENING -> THINKING",
	}

	mock.ExpectExec("INSERT INTO voicecore_call_logs").
		WithArgs(event.CallID, pgxmock.AnyArg(), event.Kind, event.Timestamp, event.Details, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ctx := setupMockContext(mock)
	if err := repo.Append(ctx, event); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCallLogsRepository_ListByCall(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &CallLogsRepository{BaseRepository: BaseRepository{pool: nil}}
	now := time.Now()

	rows := pgxmock.NewRows([]string{"call_id", "campaign_id", "kind", "occurred_at", "details", "payload"}).
		AddRow("call_1", nil, domain.CallLogAnswered, now, "IDLE -> LISTENING", []byte(`{}`))

	mock.ExpectQuery("SELECT (.+) FROM voicecore_call_logs").
		WithArgs("call_1").
		WillReturnRows(rows)

	ctx := setupMockContext(mock)
	events, err := repo.ListByCall(ctx, "call_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Kind != domain.CallLogAnswered {
		t.Errorf("expected ANSWERED, got %s", events[0].Kind)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
