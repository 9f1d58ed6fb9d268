package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sickdaywithferris/booking-ai-platform/internal/agent"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

func TestGetConstraints(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"kind", "value"}).
		AddRow("min_payment", []byte(`{"amount":1500,"duration_hours":3,"hourly_rate":500}`)).
		AddRow("pa_system_fee", []byte(`{"amount":500}`))
	mock.ExpectQuery("SELECT kind, value FROM booking_constraints").WillReturnRows(rows)

	constraints, err := s.GetConstraints(context.Background())
	require.NoError(t, err)
	require.Len(t, constraints, 2)
	assert.Equal(t, "min_payment", constraints[0].Kind)
	assert.Equal(t, float64(1500), constraints[0].Value["amount"])
	assert.Equal(t, "pa_system_fee", constraints[1].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetConstraintsInvalidJSON(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"kind", "value"}).
		AddRow("min_payment", []byte(`{nope`))
	mock.ExpectQuery("SELECT kind, value FROM booking_constraints").WillReturnRows(rows)

	_, err := s.GetConstraints(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_payment")
}

func TestGetRosterMembers(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"email", "name"}).
		AddRow("bass@sickdaywithferris.band", "Jo").
		AddRow("drums@sickdaywithferris.band", "Sam")
	mock.ExpectQuery("SELECT email, name FROM roster_members").WillReturnRows(rows)

	roster, err := s.GetRosterMembers(context.Background())
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "Jo", roster[0].Name)
	assert.Equal(t, "drums@sickdaywithferris.band", roster[1].Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAvailability(t *testing.T) {
	s, mock := newMockStore(t)

	day := time.Date(2026, time.September, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO availability").
		WithArgs(sqlmock.AnyArg(), "Drummer@SickDayWithFerris.band", day, day, "unavailable", "wedding").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.CreateAvailability(context.Background(), agent.AvailabilityBlock{
		MemberEmail: "Drummer@SickDayWithFerris.band",
		Start:       day,
		End:         day,
		Status:      agent.AvailabilityUnavailable,
		Notes:       "wedding",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAvailabilityError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO availability").
		WillReturnError(errors.New("insert failed"))

	err := s.CreateAvailability(context.Background(), agent.AvailabilityBlock{MemberEmail: "drummer@sickdaywithferris.band"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create availability")
}

func TestListAvailabilityOn(t *testing.T) {
	s, mock := newMockStore(t)

	day := time.Date(2026, time.September, 12, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"member_email", "date_range_start", "date_range_end", "status", "notes"}).
		AddRow("bass@sickdaywithferris.band", day, day.AddDate(0, 0, 2), "unavailable", "").
		AddRow("drummer@sickdaywithferris.band", day, day, "tentative", "might travel")
	mock.ExpectQuery("SELECT member_email, date_range_start, date_range_end, status, notes").
		WithArgs(day).
		WillReturnRows(rows)

	blocks, err := s.ListAvailabilityOn(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "bass@sickdaywithferris.band", blocks[0].MemberEmail)
	assert.Equal(t, day.AddDate(0, 0, 2), blocks[0].End)
	assert.Equal(t, agent.AvailabilityTentative, blocks[1].Status)
	assert.Equal(t, "might travel", blocks[1].Notes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetContactByEmail(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "email", "name"}).
		AddRow("c-1", "sarah@thebasement.com", "Sarah Johnson")
	mock.ExpectQuery("SELECT id, email, name FROM contacts").
		WithArgs("Sarah@TheBasement.com").
		WillReturnRows(rows)

	contact, err := s.GetContactByEmail(context.Background(), "Sarah@TheBasement.com")
	require.NoError(t, err)
	require.NotNil(t, contact)
	assert.Equal(t, "c-1", contact.ID)
	assert.Equal(t, "Sarah Johnson", contact.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetContactByEmailNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, email, name FROM contacts").
		WithArgs("nobody@venue.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name"}))

	contact, err := s.GetContactByEmail(context.Background(), "nobody@venue.com")
	require.NoError(t, err)
	assert.Nil(t, contact)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateContactReturnsCanonicalID(t *testing.T) {
	s, mock := newMockStore(t)

	// ON CONFLICT returns the pre-existing row's id, not the candidate one.
	mock.ExpectQuery("INSERT INTO contacts").
		WithArgs(sqlmock.AnyArg(), "sarah@thebasement.com", "Sarah").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-id"))

	id, err := s.CreateContact(context.Background(), "sarah@thebasement.com", "Sarah")
	require.NoError(t, err)
	assert.Equal(t, "existing-id", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateConversation(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO conversations").
		WithArgs(sqlmock.AnyArg(), "email", []byte(`[{"email":"sarah@thebasement.com","name":"Sarah","role":"venue"}]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := s.CreateConversation(context.Background(), "email", []agent.Participant{
		{Email: "sarah@thebasement.com", Name: "Sarah", Role: "venue"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMessage(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO conversation_messages").
		WithArgs(sqlmock.AnyArg(), "conv-1", "assistant", "agent", "booking-agent", "Booking Agent", "hello").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.AppendMessage(context.Background(), agent.MessageAppend{
		ConversationID: "conv-1",
		Role:           "assistant",
		SenderType:     "agent",
		SenderID:       "booking-agent",
		SenderName:     "Booking Agent",
		Content:        "hello",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMessageNullSenderID(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO conversation_messages").
		WithArgs(sqlmock.AnyArg(), "conv-1", "user", "contact", nil, "Sarah", "hi there").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.AppendMessage(context.Background(), agent.MessageAppend{
		ConversationID: "conv-1",
		Role:           "user",
		SenderType:     "contact",
		SenderName:     "Sarah",
		Content:        "hi there",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMessageError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO conversation_messages").
		WillReturnError(errors.New("insert failed"))

	err := s.AppendMessage(context.Background(), agent.MessageAppend{ConversationID: "conv-1", Role: "user"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to append message")
}

func TestListMessages(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "conversation_id", "role", "sender_type", "sender_name", "content", "created_at"}).
		AddRow("m-1", "conv-1", "user", "contact", "Sarah", "hi", now).
		AddRow("m-2", "conv-1", "assistant", "agent", "Booking Agent", "hello", now)
	mock.ExpectQuery("SELECT id, conversation_id, role, sender_type, sender_name, content, created_at").
		WithArgs("conv-1", 50).
		WillReturnRows(rows)

	messages, err := s.ListMessages(context.Background(), "conv-1", 50)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "Booking Agent", messages[1].SenderName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListMessagesDefaultLimit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, conversation_id, role, sender_type, sender_name, content, created_at").
		WithArgs("conv-1", 200).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "sender_type", "sender_name", "content", "created_at"}))

	messages, err := s.ListMessages(context.Background(), "conv-1", 0)
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
	require.NoError(t, mock.ExpectationsWereMet())
}
