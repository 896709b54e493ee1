//go:build integration

package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	audit "datagate/pkg/platform/audit"
	"datagate/pkg/platform/audit/store/postgres"
	"datagate/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events"))
}

func (s *AuditStoreSuite) TestAppendAndList() {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	first := audit.Event{
		ID:        uuid.New(),
		Timestamp: base,
		Action:    "set_application",
		Actor:     "a1",
		Subject:   "1",
		Payload:   json.RawMessage(`{"application_id":"1"}`),
		RequestID: "req-1",
	}
	second := audit.Event{
		ID:        uuid.New(),
		Timestamp: base.Add(time.Minute),
		Action:    "audit_application",
		Actor:     "bank",
		Subject:   "1",
	}
	s.Require().NoError(s.store.Append(ctx, second))
	s.Require().NoError(s.store.Append(ctx, first))
	s.Require().NoError(s.store.Append(ctx, first), "duplicate ids are ignored")

	events, err := s.store.ListBySubject(ctx, "1")
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(first.ID, events[0].ID)
	s.Equal("set_application", events[0].Action)
	s.JSONEq(`{"application_id":"1"}`, string(events[0].Payload))
	s.Equal("req-1", events[0].RequestID)
	s.Equal(second.ID, events[1].ID)
	s.Empty(events[1].Payload)

	none, err := s.store.ListBySubject(ctx, "other")
	s.Require().NoError(err)
	s.Empty(none)
}
