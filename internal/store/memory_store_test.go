package store

import (
	"testing"
	"time"

	"fuelcontrol/internal/domain"
)

func TestUpsertDriverIsIdempotent(t *testing.T) {
	s := NewMemoryStore()

	first, err := s.UpsertDriver("12345", "Ivan Petrov")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := s.UpsertDriver("12345", "Renamed Later")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same driver, got %s and %s", first.ID, second.ID)
	}
	if second.FullName != "Ivan Petrov" {
		t.Fatalf("full name should not be overwritten, got %q", second.FullName)
	}
	drivers, err := s.ListDrivers()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(drivers) != 1 {
		t.Fatalf("expected 1 driver, got %d", len(drivers))
	}
}

func TestFindReceiptByQR(t *testing.T) {
	s := NewMemoryStore()

	r := domain.Receipt{
		ID:        NewID(),
		DriverID:  "d1",
		VehicleID: "v1",
		ReceiptAt: time.Now().UTC(),
		QRRaw:     "t=20240101T1200&s=1000.00&fn=99",
	}
	if _, err := s.CreateReceipt(r, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, ok, err := s.FindReceiptByQR(r.QRRaw)
	if err != nil || !ok {
		t.Fatalf("expected receipt, ok=%v err=%v", ok, err)
	}
	if got.ID != r.ID {
		t.Fatalf("got %s want %s", got.ID, r.ID)
	}
	if _, ok, _ := s.FindReceiptByQR(""); ok {
		t.Fatal("empty QR must never match")
	}
}

func TestMaxReceiptMileage(t *testing.T) {
	s := NewMemoryStore()

	if max, err := s.MaxReceiptMileage("v1"); err != nil || max != nil {
		t.Fatalf("expected nil for empty store, got %v err=%v", max, err)
	}

	m1, m2 := 14000, 14600
	for _, km := range []*int{&m1, nil, &m2} {
		r := domain.Receipt{ID: NewID(), VehicleID: "v1", ReceiptAt: time.Now().UTC(), Mileage: km}
		if _, err := s.CreateReceipt(r, nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	max, err := s.MaxReceiptMileage("v1")
	if err != nil {
		t.Fatalf("max: %v", err)
	}
	if max == nil || *max != 14600 {
		t.Fatalf("expected 14600, got %v", max)
	}
}

func TestUpdateDraftMissingReturnsNotFound(t *testing.T) {
	s := NewMemoryStore()
	err := s.UpdateDraft("missing", "ODOMETER", domain.NewDraftPayload())
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceRepairWorks(t *testing.T) {
	s := NewMemoryStore()

	e := domain.RepairEvent{
		ID:        NewID(),
		VehicleID: "v1",
		StartedAt: time.Now().UTC(),
		Works: []domain.RepairWork{
			{ID: NewID(), WorkName: "Diagnostics", Cost: 1500},
		},
	}
	if _, err := s.CreateRepairEvent(e); err != nil {
		t.Fatalf("create: %v", err)
	}

	works := []domain.RepairWork{
		{ID: NewID(), WorkName: "Oil change", Cost: 2000},
		{ID: NewID(), WorkName: "Filter replacement", Cost: 800},
	}
	if err := s.ReplaceRepairWorks(e.ID, works); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, ok, err := s.GetRepairEvent(e.ID)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(got.Works) != 2 {
		t.Fatalf("expected 2 works, got %d", len(got.Works))
	}
	for _, w := range got.Works {
		if w.RepairEventID != e.ID {
			t.Fatalf("work not bound to event: %q", w.RepairEventID)
		}
	}
}
