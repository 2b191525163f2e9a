package postgres

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestTimelineRepository_PostgresAppendList(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewTimelineRepository(store)

	base := time.Now().UTC().Add(-time.Hour).Round(time.Microsecond)
	events := []domain.TimelineEvent{
		{OrderID: "order-1", Type: "cart_created", Occurred: base},
		{OrderID: "order-1", Type: "checked_out", Occurred: base.Add(time.Minute)},
		{OrderID: "order-1", Type: "paid", Reason: "payment ref pay-1", Occurred: base.Add(2 * time.Minute)},
		{OrderID: "order-2", Type: "cart_created", Occurred: base},
	}
	for _, event := range events {
		if err := repo.Append(event); err != nil {
			t.Fatalf("append %s: %v", event.Type, err)
		}
	}

	got, err := repo.List("order-1")
	if err != nil {
		t.Fatalf("list timeline: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for i, wantType := range []string{"cart_created", "checked_out", "paid"} {
		if got[i].Type != wantType {
			t.Fatalf("event %d: expected %s, got %s", i, wantType, got[i].Type)
		}
	}
	if got[2].Reason != "payment ref pay-1" {
		t.Fatalf("unexpected reason: %q", got[2].Reason)
	}

	empty, err := repo.List("order-unknown")
	if err != nil {
		t.Fatalf("list unknown order: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty timeline, got %d events", len(empty))
	}
}
