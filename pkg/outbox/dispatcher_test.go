package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"seotrack/pkg/trace"

	"go.uber.org/zap"
)

type fakeStore struct {
	events  map[int64]*Event
	pending []int64
	failed  []int64
	sent    []int64
	marked  []int64
}

func newFakeStore(events ...*Event) *fakeStore {
	s := &fakeStore{events: map[int64]*Event{}}
	for _, e := range events {
		s.events[e.ID] = e
		switch e.Status {
		case StatusFailed:
			s.failed = append(s.failed, e.ID)
		default:
			s.pending = append(s.pending, e.ID)
		}
	}
	return s
}

func (s *fakeStore) list(ids []int64, limit int) []*Event {
	var out []*Event
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		out = append(out, s.events[id])
	}
	return out
}

func (s *fakeStore) GetPendingEvents(_ context.Context, limit int) ([]*Event, error) {
	return s.list(s.pending, limit), nil
}

func (s *fakeStore) GetFailedEvents(_ context.Context, limit int) ([]*Event, error) {
	return s.list(s.failed, limit), nil
}

func (s *fakeStore) GetEventByID(_ context.Context, id int64) (*Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return e, nil
}

func (s *fakeStore) MarkAsSent(_ context.Context, id int64) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeStore) MarkAsFailed(_ context.Context, id int64, _ int) error {
	s.marked = append(s.marked, id)
	return nil
}

type published struct {
	routingKey string
	traceID    string
}

type fakePublisher struct {
	fail map[string]bool
	got  []published
}

func (p *fakePublisher) PublishWithContext(ctx context.Context, routingKey string, _ any) error {
	if p.fail[routingKey] {
		return errors.New("broker unavailable")
	}
	p.got = append(p.got, published{routingKey: routingKey, traceID: trace.FromContext(ctx)})
	return nil
}

func event(id int64, routingKey, status string, payload map[string]any) *Event {
	data, _ := json.Marshal(payload)
	return &Event{ID: id, RoutingKey: routingKey, Status: status, Payload: data}
}

func TestProcessPendingEvents(t *testing.T) {
	store := newFakeStore(
		event(1, "project.created", StatusPending, map[string]any{"project_id": "p1", "trace_id": "t-1"}),
		event(2, "achievement.created", StatusPending, map[string]any{"achievement_id": "a1"}),
		event(3, "summary.saved", StatusPending, map[string]any{"year": 2024}),
	)
	pub := &fakePublisher{fail: map[string]bool{"achievement.created": true}}

	sent := NewDispatcher(store, pub, zap.NewNop()).ProcessPendingEvents(context.Background())
	if sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
	if len(store.sent) != 2 || store.sent[0] != 1 || store.sent[1] != 3 {
		t.Errorf("unexpected sent ids %v", store.sent)
	}
	if len(store.marked) != 1 || store.marked[0] != 2 {
		t.Errorf("unexpected failed ids %v", store.marked)
	}
	if pub.got[0].traceID != "t-1" {
		t.Errorf("trace id not propagated, got %q", pub.got[0].traceID)
	}
}

func TestProcessPendingEventsRespectsBatchSize(t *testing.T) {
	store := newFakeStore(
		event(1, "project.created", StatusPending, map[string]any{}),
		event(2, "project.updated", StatusPending, map[string]any{}),
		event(3, "project.deleted", StatusPending, map[string]any{}),
	)
	pub := &fakePublisher{}

	sent := NewDispatcher(store, pub, zap.NewNop()).WithBatchSize(2).ProcessPendingEvents(context.Background())
	if sent != 2 {
		t.Errorf("sent = %d, want 2", sent)
	}
}

func TestCorruptPayloadIsMarkedFailed(t *testing.T) {
	store := newFakeStore(&Event{ID: 7, RoutingKey: "project.created", Payload: json.RawMessage(`{not json`)})
	pub := &fakePublisher{}

	if sent := NewDispatcher(store, pub, zap.NewNop()).ProcessPendingEvents(context.Background()); sent != 0 {
		t.Errorf("sent = %d, want 0", sent)
	}
	if len(store.marked) != 1 || len(pub.got) != 0 {
		t.Errorf("corrupt event should be marked failed without publishing")
	}
}

func TestReplay(t *testing.T) {
	store := newFakeStore(
		event(1, "project.created", StatusFailed, map[string]any{}),
		event(2, "summary.saved", StatusFailed, map[string]any{}),
	)
	pub := &fakePublisher{fail: map[string]bool{"summary.saved": true}}
	replay := NewReplayService(store, pub, zap.NewNop())

	n, err := replay.ReplayFailedEvents(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("replayed = %d, want 1", n)
	}

	if err := replay.ReplayEvent(context.Background(), 99); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}
