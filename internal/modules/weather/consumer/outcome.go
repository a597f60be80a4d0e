package consumer

import (
	"errors"

	"weathersink/internal/modules/weather/repository"
	"weathersink/internal/modules/weather/validate"
)

// Outcome is the terminal acknowledgment action for one message.
type Outcome int

const (
	// OutcomeAck acknowledges a successfully persisted message.
	OutcomeAck Outcome = iota
	// OutcomeDiscard rejects a message without requeue. Poison messages are
	// permanently undeliverable; requeueing them would loop forever. There
	// is no dead-letter destination, so a discarded message is lost.
	OutcomeDiscard
	// OutcomeRequeue returns a message to the queue for redelivery once the
	// store is reachable again.
	OutcomeRequeue
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAck:
		return "ack"
	case OutcomeDiscard:
		return "discard"
	case OutcomeRequeue:
		return "requeue"
	default:
		return "unknown"
	}
}

// Resolve maps a processing error to its terminal action:
//
//	nil                      -> ack
//	validation failure       -> discard (malformed, never retried)
//	operational store error  -> requeue (transient, retried after reconnect)
//	anything else            -> discard (uncategorized, never retried)
func Resolve(err error) Outcome {
	if err == nil {
		return OutcomeAck
	}
	var vErr *validate.Error
	if errors.As(err, &vErr) {
		return OutcomeDiscard
	}
	if repository.IsOperational(err) {
		return OutcomeRequeue
	}
	return OutcomeDiscard
}
