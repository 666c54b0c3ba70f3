package messaging

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// MaxRetries is the number of redeliveries allowed before a transient
	// failure is routed to the dead-letter queue.
	MaxRetries = 3

	// DeathHeader is the broker-maintained list of prior dead-letter events.
	DeathHeader = "x-death"
	// RetryCountHeader is an explicit retry counter set by publishers.
	RetryCountHeader = "x-retry-count"
)

// RetryCount derives how often a delivery has already been retried.
// When x-death is present its entry counts are summed and x-retry-count is ignored.
func RetryCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	if deaths, ok := headers[DeathHeader]; ok {
		return sumDeathCounts(deaths)
	}
	if raw, ok := headers[RetryCountHeader]; ok {
		if n, ok := toInt(raw); ok && n > 0 {
			return n
		}
	}
	return 0
}

func sumDeathCounts(deaths any) int {
	total := 0
	add := func(entry amqp.Table) {
		if n, ok := toInt(entry["count"]); ok && n > 0 {
			total += n
		}
	}
	switch list := deaths.(type) {
	case []any:
		for _, item := range list {
			switch entry := item.(type) {
			case amqp.Table:
				add(entry)
			case map[string]any:
				add(entry)
			}
		}
	case []amqp.Table:
		for _, entry := range list {
			add(entry)
		}
	}
	return total
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
