package store

import (
	"context"
	"fmt"

	"github.com/noah-isme/storefront-engine/internal/events"
)

// InsertDomainEvent appends an event to the domain_events log.
func (s *Store) InsertDomainEvent(ctx context.Context, ev events.Event) (events.Event, error) {
	payload := string(ev.Payload)
	if payload == "" {
		payload = "{}"
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO domain_events (topic, aggregate_id, payload, occurred_at)
		VALUES ($1, $2, $3::jsonb, $4)
		RETURNING id::text, occurred_at`,
		ev.Topic, ev.AggregateID, payload, ev.OccurredAt,
	).Scan(&ev.ID, &ev.OccurredAt)
	if err != nil {
		return events.Event{}, fmt.Errorf("insert domain event: %w", err)
	}
	ev.OccurredAt = ev.OccurredAt.UTC()
	return ev, nil
}

// ListDomainEvents returns the most recent events for an aggregate, newest first.
func (s *Store) ListDomainEvents(ctx context.Context, aggregateID string, limit int) ([]events.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, topic, aggregate_id, payload, occurred_at
		FROM domain_events
		WHERE aggregate_id = $1
		ORDER BY occurred_at DESC, id
		LIMIT $2`, aggregateID, limit)
	if err != nil {
		return nil, fmt.Errorf("list domain events: %w", err)
	}
	defer rows.Close()
	out := []events.Event{}
	for rows.Next() {
		var ev events.Event
		var payload []byte
		if err := rows.Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &payload, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan domain event: %w", err)
		}
		ev.Payload = payload
		ev.OccurredAt = ev.OccurredAt.UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}
