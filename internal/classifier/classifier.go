// Package classifier assigns a priority and an initial status to incidents.
package classifier

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// Rule maps a group of incident types to a single priority.
type Rule struct {
	Name     string
	Types    []domain.IncidentType
	Priority domain.TicketPriority
}

var (
	// CriticalServiceRule covers total loss of service.
	CriticalServiceRule = Rule{
		Name:     "critical-service",
		Types:    []domain.IncidentType{domain.IncidentTypeNoService},
		Priority: domain.TicketPriorityHigh,
	}
	// DegradedServiceRule covers partially working service.
	DegradedServiceRule = Rule{
		Name:     "degraded-service",
		Types:    []domain.IncidentType{domain.IncidentTypeIntermittentService, domain.IncidentTypeSlowConnection},
		Priority: domain.TicketPriorityMedium,
	}
	// MinorIssuesRule covers equipment and billing questions.
	MinorIssuesRule = Rule{
		Name:     "minor-issues",
		Types:    []domain.IncidentType{domain.IncidentTypeRouterIssue, domain.IncidentTypeBillingQuestion},
		Priority: domain.TicketPriorityLow,
	}
)

// DefaultRules returns the standard rule set.
func DefaultRules() []Rule {
	return []Rule{CriticalServiceRule, DegradedServiceRule, MinorIssuesRule}
}

// Classifier resolves priorities through a type-keyed rule table.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	rules    map[domain.IncidentType]Rule
	fallback domain.TicketPriority
}

// New builds a classifier from rules. With no rules the default set is used.
// When two rules claim the same type the later one wins.
func New(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	table := make(map[domain.IncidentType]Rule)
	for _, rule := range rules {
		for _, t := range rule.Types {
			table[t] = rule
		}
	}
	return &Classifier{rules: table, fallback: domain.TicketPriorityPending}
}

// ClassifyPriority is total: OTHER and unknown types fall back to PENDING.
func (c *Classifier) ClassifyPriority(t domain.IncidentType) domain.TicketPriority {
	if rule, ok := c.rules[t]; ok {
		return rule.Priority
	}
	return c.fallback
}

// DeriveStatus maps PENDING to RECEIVED and everything else to IN_PROGRESS.
func DeriveStatus(p domain.TicketPriority) domain.TicketStatus {
	if p == domain.TicketPriorityPending {
		return domain.TicketStatusReceived
	}
	return domain.TicketStatusInProgress
}

// Classify returns the (priority, status) pair for t.
func (c *Classifier) Classify(t domain.IncidentType) (domain.TicketPriority, domain.TicketStatus) {
	priority := c.ClassifyPriority(t)
	return priority, DeriveStatus(priority)
}

// Enrich builds the persisted incident from an event payload.
func (c *Classifier) Enrich(event domain.IncidentReported, processedAt time.Time) *domain.Incident {
	priority, status := c.Classify(event.Type)
	return &domain.Incident{
		TicketID:    event.TicketID,
		LineNumber:  event.LineNumber,
		Type:        event.Type,
		Description: event.Description,
		Priority:    priority,
		Status:      status,
		CreatedAt:   domain.ParseCreatedAt(event.CreatedAt),
		ProcessedAt: processedAt,
	}
}
