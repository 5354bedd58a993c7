package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"seotrack/pkg/trace"

	"github.com/jackc/pgx/v5"
)

// NewEvent builds a pending event. payload must encode as a JSON object;
// the trace id in ctx, if any, is added as "trace_id" so the dispatcher
// can carry it to the broker.
func NewEvent(ctx context.Context, aggregateType, aggregateID, routingKey string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", routingKey, err)
	}

	if traceID := trace.FromContext(ctx); traceID != "" {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("%s payload is not a JSON object: %w", routingKey, err)
		}
		fields["trace_id"], _ = json.Marshal(traceID)
		if data, err = json.Marshal(fields); err != nil {
			return nil, err
		}
	}

	event := &Event{
		AggregateType: aggregateType,
		RoutingKey:    routingKey,
		Payload:       data,
		Status:        StatusPending,
	}
	if aggregateID != "" {
		event.AggregateID = &aggregateID
	}
	return event, nil
}

// InsertEventInTx 在业务事务中写入 outbox 事件
func InsertEventInTx(ctx context.Context, tx pgx.Tx, repo *Repository, aggregateType, aggregateID, routingKey string, payload any) error {
	event, err := NewEvent(ctx, aggregateType, aggregateID, routingKey, payload)
	if err != nil {
		return err
	}
	return repo.InsertEvent(ctx, tx, event)
}
