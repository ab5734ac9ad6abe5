package notifier

import (
	"errors"
	"strings"
	"testing"
	"time"

	"fuelcontrol/internal/domain"
	"fuelcontrol/internal/store"
	"fuelcontrol/internal/telegram"
)

type captureSender struct {
	chatID int64
	texts  []string
}

func (c *captureSender) SendMessage(chatID int64, text string, _ *telegram.ReplyMarkup) error {
	c.chatID = chatID
	c.texts = append(c.texts, text)
	return nil
}

func intp(v int) *int { return &v }

func seedVehicle(t *testing.T, st *store.MemoryStore, odometer *int) domain.Vehicle {
	t.Helper()
	v := domain.Vehicle{
		ID:                store.NewID(),
		Name:              "GAZelle",
		PlateNumber:       "A123BC",
		IsActive:          true,
		CurrentOdometerKm: odometer,
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	if err := st.SaveVehicle(v); err != nil {
		t.Fatalf("save vehicle: %v", err)
	}
	return v
}

func seedItem(t *testing.T, st *store.MemoryStore, item domain.MaintenanceItem) domain.MaintenanceItem {
	t.Helper()
	item.ID = store.NewID()
	item.Name = "Oil change"
	item.IsActive = true
	item.CreatedAt = time.Now().UTC()
	item.UpdatedAt = time.Now().UTC()
	if err := st.SaveMaintenanceItem(item); err != nil {
		t.Fatalf("save item: %v", err)
	}
	return item
}

func TestDistanceRuleUpcoming(t *testing.T) {
	st := store.NewMemoryStore()
	v := seedVehicle(t, st, intp(14600))
	seedItem(t, st, domain.MaintenanceItem{
		VehicleID:          v.ID,
		LastDoneOdometerKm: intp(10000),
		IntervalKm:         intp(5000),
		NotifyBeforeKm:     500,
	})

	n := New(st, &captureSender{}, 1, 9, time.Minute, nil)
	text, err := n.RunOnce()
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if !strings.Contains(text, "upcoming, 400 km remaining") {
		t.Fatalf("expected upcoming 400 km, got:\n%s", text)
	}
}

func TestDistanceRuleOverdue(t *testing.T) {
	st := store.NewMemoryStore()
	v := seedVehicle(t, st, intp(15100))
	seedItem(t, st, domain.MaintenanceItem{
		VehicleID:          v.ID,
		LastDoneOdometerKm: intp(10000),
		IntervalKm:         intp(5000),
		NotifyBeforeKm:     500,
	})

	n := New(st, &captureSender{}, 1, 9, time.Minute, nil)
	text, err := n.RunOnce()
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if !strings.Contains(text, "overdue by 100 km") {
		t.Fatalf("expected overdue 100 km, got:\n%s", text)
	}
}

func TestDateRule(t *testing.T) {
	lastDone := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC), "upcoming, 6 days"},
		{time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC), "overdue by 5 days"},
	}
	for _, tc := range cases {
		st := store.NewMemoryStore()
		v := seedVehicle(t, st, nil)
		seedItem(t, st, domain.MaintenanceItem{
			VehicleID:        v.ID,
			LastDoneAt:       &lastDone,
			IntervalDays:     intp(90),
			NotifyBeforeDays: 7,
		})
		n := New(st, &captureSender{}, 1, 9, time.Minute, nil)
		n.now = func() time.Time { return tc.now }

		text, err := n.RunOnce()
		if err != nil {
			t.Fatalf("run once at %v: %v", tc.now, err)
		}
		if !strings.Contains(text, tc.want) {
			t.Fatalf("at %v expected %q, got:\n%s", tc.now, tc.want, text)
		}
	}
}

func TestBothRulesFireForOneItem(t *testing.T) {
	st := store.NewMemoryStore()
	v := seedVehicle(t, st, intp(15100))
	lastDone := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedItem(t, st, domain.MaintenanceItem{
		VehicleID:          v.ID,
		LastDoneOdometerKm: intp(10000),
		IntervalKm:         intp(5000),
		NotifyBeforeKm:     500,
		LastDoneAt:         &lastDone,
		IntervalDays:       intp(90),
		NotifyBeforeDays:   7,
	})
	n := New(st, &captureSender{}, 1, 9, time.Minute, nil)
	n.now = func() time.Time { return time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC) }

	text, err := n.RunOnce()
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if !strings.Contains(text, "overdue by 100 km") || !strings.Contains(text, "overdue by 5 days") {
		t.Fatalf("expected both rules in:\n%s", text)
	}
}

func TestNothingDue(t *testing.T) {
	st := store.NewMemoryStore()
	v := seedVehicle(t, st, intp(11000))
	seedItem(t, st, domain.MaintenanceItem{
		VehicleID:          v.ID,
		LastDoneOdometerKm: intp(10000),
		IntervalKm:         intp(5000),
		NotifyBeforeKm:     500,
	})
	n := New(st, &captureSender{}, 1, 9, time.Minute, nil)

	if _, err := n.RunOnce(); !errors.Is(err, ErrNothingDue) {
		t.Fatalf("expected ErrNothingDue, got %v", err)
	}
}

func TestSameDaySuppression(t *testing.T) {
	st := store.NewMemoryStore()
	v := seedVehicle(t, st, intp(15100))
	item := seedItem(t, st, domain.MaintenanceItem{
		VehicleID:          v.ID,
		LastDoneOdometerKm: intp(10000),
		IntervalKm:         intp(5000),
		NotifyBeforeKm:     500,
	})
	n := New(st, &captureSender{}, 1, 9, time.Minute, nil)

	if _, err := n.RunOnce(); err != nil {
		t.Fatalf("first run: %v", err)
	}
	saved, _, _ := st.GetMaintenanceItem(item.ID)
	if saved.LastNotifiedAt == nil {
		t.Fatal("expected lastNotifiedAt to be stamped")
	}

	if _, err := n.RunOnce(); !errors.Is(err, ErrNothingDue) {
		t.Fatalf("second run same day must be silent, got %v", err)
	}

	// Next day the alert fires again.
	n.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	if _, err := n.RunOnce(); err != nil {
		t.Fatalf("next-day run: %v", err)
	}
}

func TestTickGating(t *testing.T) {
	st := store.NewMemoryStore()
	v := seedVehicle(t, st, intp(15100))
	seedItem(t, st, domain.MaintenanceItem{
		VehicleID:          v.ID,
		LastDoneOdometerKm: intp(10000),
		IntervalKm:         intp(5000),
		NotifyBeforeKm:     500,
	})
	sender := &captureSender{}
	n := New(st, sender, 42, 9, time.Minute, nil)

	// Outside the notify hour nothing happens.
	n.now = func() time.Time { return time.Date(2024, 4, 5, 8, 59, 0, 0, time.UTC) }
	n.tick()
	if len(sender.texts) != 0 {
		t.Fatalf("tick outside hour must not send, got %v", sender.texts)
	}

	n.now = func() time.Time { return time.Date(2024, 4, 5, 9, 0, 0, 0, time.UTC) }
	n.tick()
	if len(sender.texts) != 1 {
		t.Fatalf("expected one alert, got %d", len(sender.texts))
	}
	if sender.chatID != 42 {
		t.Fatalf("alert went to chat %d", sender.chatID)
	}

	// A second tick in the same day is a no-op.
	n.now = func() time.Time { return time.Date(2024, 4, 5, 9, 30, 0, 0, time.UTC) }
	n.tick()
	if len(sender.texts) != 1 {
		t.Fatalf("same-day tick must not send again, got %d", len(sender.texts))
	}
}

func TestInactiveItemsIgnored(t *testing.T) {
	st := store.NewMemoryStore()
	v := seedVehicle(t, st, intp(15100))
	item := domain.MaintenanceItem{
		ID:                 store.NewID(),
		VehicleID:          v.ID,
		Name:               "Oil change",
		LastDoneOdometerKm: intp(10000),
		IntervalKm:         intp(5000),
		NotifyBeforeKm:     500,
		IsActive:           false,
	}
	if err := st.SaveMaintenanceItem(item); err != nil {
		t.Fatalf("save: %v", err)
	}
	n := New(st, &captureSender{}, 1, 9, time.Minute, nil)
	if _, err := n.RunOnce(); !errors.Is(err, ErrNothingDue) {
		t.Fatalf("inactive item must not fire, got %v", err)
	}
}
