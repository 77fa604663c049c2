package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const Producer = "storefront"

// Envelope wraps every event published by this service.
type Envelope[T any] struct {
	EventName    string    `json:"eventName"`
	EventVersion int       `json:"eventVersion"`
	EventID      string    `json:"eventId"`
	Producer     string    `json:"producer"`
	PartitionKey string    `json:"partitionKey"`
	OccurredAt   time.Time `json:"occurredAt"`
	Payload      T         `json:"payload"`
}

func NewEnvelope[T any](name string, version int, partitionKey string, occurredAt time.Time, payload T) Envelope[T] {
	return Envelope[T]{
		EventName:    name,
		EventVersion: version,
		EventID:      uuid.NewString(),
		Producer:     Producer,
		PartitionKey: partitionKey,
		OccurredAt:   occurredAt.UTC(),
		Payload:      payload,
	}
}

// Validate ensures the envelope carries the expected event identity.
func (e Envelope[T]) Validate(expectedName string, expectedVersion int) error {
	if e.EventName != expectedName {
		return fmt.Errorf("unexpected eventName: %s", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return fmt.Errorf("unexpected eventVersion: %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return fmt.Errorf("missing partitionKey")
	}
	return nil
}
