package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/trackly/trackly-api/internal/domain/event"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/metrics"
)

// ============================================================================
// Helpers
// ============================================================================

func viewer(role model.Role) model.Identity {
	return model.Identity{UserID: uuid.New(), Name: "viewer", Role: role}
}

func issueEvent(creator uuid.UUID) *event.IssueEvent {
	issue := model.NewIssue("title", "desc", model.SeverityLow, creator, "")
	return event.NewIssueCreated(*issue, model.Identity{UserID: creator, Name: "u1", Role: model.RoleReporter})
}

func recvWithin(t *testing.T, sub *Subscriber, d time.Duration) (event.Delivery, bool) {
	t.Helper()
	select {
	case got, ok := <-sub.Recv():
		return got, ok
	case <-time.After(d):
		t.Fatalf("no delivery within %s", d)
		return event.Delivery{}, false
	}
}

func assertEmpty(t *testing.T, sub *Subscriber) {
	t.Helper()
	select {
	case d, ok := <-sub.Recv():
		if ok {
			t.Fatalf("unexpected delivery %s", d.Event.GetKind())
		}
	default:
	}
}

// ============================================================================
// Scenarios
// ============================================================================

func TestHub_PublishThenUnsubscribe(t *testing.T) {
	h := NewHub()
	u1 := uuid.New()

	sub := h.Subscribe(viewer(model.RoleAdmin))
	first := issueEvent(u1)
	h.Publish(first)

	got, ok := recvWithin(t, sub, time.Second)
	if !ok {
		t.Fatal("queue closed before first delivery")
	}
	if got.Event.GetID() != first.GetID() {
		t.Fatalf("got event %s, want %s", got.Event.GetID(), first.GetID())
	}
	if len(got.Frame) == 0 {
		t.Fatal("delivery has no frame")
	}

	h.Unsubscribe(sub.ID())
	h.Publish(issueEvent(u1))

	if _, ok := <-sub.Recv(); ok {
		t.Fatal("removed subscriber observed a later publish")
	}
	if sub.Reason() != ReasonUnsubscribed {
		t.Errorf("Reason() = %q, want %q", sub.Reason(), ReasonUnsubscribed)
	}
	if h.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d, want 0", h.ActiveCount())
	}
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	h := NewHub()

	if h.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() = %d before publish", h.ActiveCount())
	}
	h.Publish(issueEvent(uuid.New()))
	if h.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() = %d after publish", h.ActiveCount())
	}

	// No replay for late subscribers.
	sub := h.Subscribe(viewer(model.RoleAdmin))
	assertEmpty(t, sub)
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(viewer(model.RoleAdmin))
	other := h.Subscribe(viewer(model.RoleAdmin))

	h.Unsubscribe(sub.ID())
	h.Unsubscribe(sub.ID())
	h.Unsubscribe(uuid.New())

	if got := h.ActiveCount(); got != 1 {
		t.Fatalf("ActiveCount() = %d, want 1", got)
	}
	h.Publish(issueEvent(uuid.New()))
	if _, ok := recvWithin(t, other, time.Second); !ok {
		t.Fatal("remaining subscriber lost its delivery")
	}
}

func TestHub_FIFOPerSubscriber(t *testing.T) {
	h := NewHub(WithQueueSize(64))
	sub := h.Subscribe(viewer(model.RoleAdmin))

	var want []string
	for range 50 {
		ev := issueEvent(uuid.New())
		want = append(want, ev.GetID())
		h.Publish(ev)
	}

	for i, id := range want {
		got, ok := recvWithin(t, sub, time.Second)
		if !ok {
			t.Fatalf("queue closed at %d", i)
		}
		if got.Event.GetID() != id {
			t.Fatalf("delivery %d = %s, want %s", i, got.Event.GetID(), id)
		}
	}
}

func TestHub_FullQueueEvictsOnlyThatSubscriber(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	h := NewHub(WithQueueSize(2), WithMetrics(m))

	stalled := h.Subscribe(viewer(model.RoleAdmin))
	healthy := h.Subscribe(viewer(model.RoleAdmin))

	for range 3 {
		h.Publish(issueEvent(uuid.New()))
		// Keep the healthy queue drained.
		recvWithin(t, healthy, time.Second)
	}

	if got := h.ActiveCount(); got != 1 {
		t.Fatalf("ActiveCount() = %d, want 1", got)
	}
	if got := h.Stats().Dropped; got != 1 {
		t.Errorf("Stats().Dropped = %d, want 1", got)
	}
	if got := testutil.ToFloat64(m.SubscribersDropped); got != 1 {
		t.Errorf("dropped counter = %v, want 1", got)
	}

	// The stalled subscriber still holds its two frames, then sees the close.
	for range 2 {
		if _, ok := recvWithin(t, stalled, time.Second); !ok {
			t.Fatal("buffered frames lost on eviction")
		}
	}
	if _, ok := <-stalled.Recv(); ok {
		t.Fatal("evicted queue still open")
	}
	if stalled.Reason() != ReasonEvicted {
		t.Errorf("Reason() = %q, want %q", stalled.Reason(), ReasonEvicted)
	}

	// Unsubscribing an evicted subscriber is a no-op.
	h.Unsubscribe(stalled.ID())
	if got := h.ActiveCount(); got != 1 {
		t.Fatalf("ActiveCount() after redundant unsubscribe = %d, want 1", got)
	}
}

func TestHub_ConcurrentChurn(t *testing.T) {
	h := NewHub(WithQueueSize(1024))

	const publishers = 4
	const sessions = 16

	stop := make(chan struct{})
	var pubWG sync.WaitGroup
	for range publishers {
		pubWG.Add(1)
		go func() {
			defer pubWG.Done()
			for {
				select {
				case <-stop:
					return
				default:
					h.Publish(issueEvent(uuid.New()))
				}
			}
		}()
	}

	var subWG sync.WaitGroup
	for range sessions {
		subWG.Add(1)
		go func() {
			defer subWG.Done()
			for range 20 {
				sub := h.Subscribe(viewer(model.RoleReporter))
				// Drain a little, then leave.
				for range 3 {
					select {
					case <-sub.Recv():
					case <-time.After(10 * time.Millisecond):
					}
				}
				h.Unsubscribe(sub.ID())
			}
		}()
	}

	subWG.Wait()
	close(stop)
	pubWG.Wait()

	if got := h.ActiveCount(); got != 0 {
		t.Fatalf("ActiveCount() = %d after churn, want 0", got)
	}
}

func TestHub_Shutdown(t *testing.T) {
	h := NewHub()
	a := h.Subscribe(viewer(model.RoleAdmin))
	b := h.Subscribe(viewer(model.RoleReporter))

	h.Shutdown()
	h.Shutdown()

	for _, sub := range []*Subscriber{a, b} {
		if _, ok := <-sub.Recv(); ok {
			t.Fatal("subscriber open after shutdown")
		}
		if sub.Reason() != ReasonShutdown {
			t.Errorf("Reason() = %q, want %q", sub.Reason(), ReasonShutdown)
		}
	}
	if h.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() = %d, want 0", h.ActiveCount())
	}

	late := h.Subscribe(viewer(model.RoleAdmin))
	if _, ok := <-late.Recv(); ok {
		t.Fatal("subscribe after shutdown should yield a closed subscriber")
	}
	if h.ActiveCount() != 0 {
		t.Fatal("subscribe after shutdown must not register")
	}
}

func TestHub_SubscribeRacingShutdownNeverLeaks(t *testing.T) {
	for i := range 500 {
		h := NewHub()
		ready := make(chan struct{})

		var sub *Subscriber
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ready
			sub = h.Subscribe(viewer(model.RoleAdmin))
		}()

		close(ready)
		h.Shutdown()
		wg.Wait()

		if h.ActiveCount() != 0 {
			t.Fatalf("iteration %d: ActiveCount() = %d after shutdown", i, h.ActiveCount())
		}
		select {
		case _, ok := <-sub.Recv():
			if ok {
				t.Fatalf("iteration %d: unexpected delivery", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("iteration %d: subscriber still open after shutdown", i)
		}
		if sub.Reason() != ReasonShutdown {
			t.Errorf("iteration %d: Reason() = %q, want %q", i, sub.Reason(), ReasonShutdown)
		}
	}
}
