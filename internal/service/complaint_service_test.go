package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/messaging"
	"github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

type recordingPublisher struct {
	tickets []*domain.Ticket
	err     error
}

func (p *recordingPublisher) PublishIncidentReported(_ context.Context, ticket *domain.Ticket) error {
	if p.err != nil {
		return p.err
	}
	p.tickets = append(p.tickets, ticket)
	return nil
}

func strPtr(s string) *string { return &s }

func newTestComplaintService(pub messaging.IncidentPublisher) *ComplaintService {
	svc := NewComplaintService(pub, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	svc.newID = func() string { return "ticket-1" }
	return svc
}

func TestCreateComplaint_PublishesTicket(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestComplaintService(pub)

	ticket, err := svc.CreateComplaint(context.Background(), ComplaintInput{
		LineNumber:   " 555-0100 ",
		Email:        "jane@example.com",
		IncidentType: "NO_SERVICE",
		Description:  strPtr("  "),
	})
	require.NoError(t, err)

	assert.Equal(t, "ticket-1", ticket.TicketID)
	assert.Equal(t, "555-0100", ticket.LineNumber)
	assert.Equal(t, domain.IncidentTypeNoService, ticket.IncidentType)
	assert.Equal(t, domain.TicketStatusReceived, ticket.Status)
	assert.Equal(t, domain.TicketPriorityPending, ticket.Priority)
	assert.Nil(t, ticket.Description)
	require.Len(t, pub.tickets, 1)
	assert.Same(t, ticket, pub.tickets[0])
}

func TestCreateComplaint_ValidationRejectsBeforePublish(t *testing.T) {
	tests := []struct {
		name   string
		input  ComplaintInput
		fields []string
	}{
		{"all missing", ComplaintInput{}, []string{"lineNumber", "email", "incidentType"}},
		{"bad email", ComplaintInput{LineNumber: "1", Email: "jane@", IncidentType: "NO_SERVICE"}, []string{"email"}},
		{"email with space", ComplaintInput{LineNumber: "1", Email: "ja ne@x.io", IncidentType: "NO_SERVICE"}, []string{"email"}},
		{"unknown type", ComplaintInput{LineNumber: "1", Email: "a@b.co", IncidentType: "FIRE"}, []string{"incidentType"}},
		{"other without description", ComplaintInput{LineNumber: "1", Email: "a@b.co", IncidentType: "OTHER"}, []string{"description"}},
		{"other with blank description", ComplaintInput{LineNumber: "1", Email: "a@b.co", IncidentType: "OTHER", Description: strPtr(" ")}, []string{"description"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			_, err := newTestComplaintService(pub).CreateComplaint(context.Background(), tt.input)

			var domainErr *errorutil.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus)
			fields := domainErr.Details["fields"].(map[string]string)
			for _, f := range tt.fields {
				assert.Contains(t, fields, f)
			}
			assert.Len(t, fields, len(tt.fields))
			assert.Empty(t, pub.tickets)
		})
	}
}

func TestCreateComplaint_PublishFailureIsServiceUnavailable(t *testing.T) {
	pub := &recordingPublisher{err: messaging.ErrPublishNotConfirmed}
	_, err := newTestComplaintService(pub).CreateComplaint(context.Background(), ComplaintInput{
		LineNumber:   "1",
		Email:        "a@b.co",
		IncidentType: "OTHER",
		Description:  strPtr("cable cut"),
	})

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, http.StatusServiceUnavailable, domainErr.HTTPStatus)
	assert.Equal(t, "ticket-1", domainErr.Details["ticketId"])
	assert.True(t, errors.Is(err, messaging.ErrPublishNotConfirmed))
}
