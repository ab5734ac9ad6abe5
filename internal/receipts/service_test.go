package receipts

import (
	"testing"
	"time"

	"fuelcontrol/internal/store"
)

func newDTO(qr string, mileage int) CreateDTO {
	dto := CreateDTO{}
	dto.Driver.TelegramUserID = "777"
	dto.Driver.FullName = "Ivan Petrov"
	dto.Vehicle.PlateNumber = "A123BC"
	dto.Vehicle.Name = "GAZelle"
	dto.Receipt = ReceiptInput{
		StationName: "Lukoil 42",
		TotalAmount: 3500,
		FuelType:    "AI95",
		QRRaw:       qr,
	}
	if mileage > 0 {
		dto.Receipt.Mileage = &mileage
	}
	dto.Items = []ItemInput{{Name: "AI-95"}}
	return dto
}

func TestCreateReceiptIsIdempotentByQR(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewService(st, nil)

	const qr = "t=20240101T1200&s=3500.00&fn=99"
	first, err := svc.Create(newDTO(qr, 14000))
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.Deduped {
		t.Fatal("first ingestion must not dedup")
	}

	second, err := svc.Create(newDTO(qr, 14600))
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if !second.Deduped {
		t.Fatal("expected dedup on same QR")
	}
	if second.Receipt.ID != first.Receipt.ID {
		t.Fatalf("dedup must keep the receipt ID, got %s and %s", first.Receipt.ID, second.Receipt.ID)
	}

	all, err := st.ListReceipts()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(all))
	}
	items, err := st.ListReceiptItems(first.Receipt.ID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected items replaced, got %d", len(items))
	}
}

func TestCreateReceiptRefreshesOdometer(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewService(st, nil)

	res, err := svc.Create(newDTO("qr-1", 14600))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	v, ok, err := st.GetVehicle(res.VehicleID)
	if err != nil || !ok {
		t.Fatalf("vehicle missing: ok=%v err=%v", ok, err)
	}
	if v.CurrentOdometerKm == nil || *v.CurrentOdometerKm != 14600 {
		t.Fatalf("odometer = %v, want 14600", v.CurrentOdometerKm)
	}

	// A lower mileage receipt must not move the odometer backwards.
	if _, err := svc.Create(newDTO("qr-2", 14000)); err != nil {
		t.Fatalf("second create: %v", err)
	}
	v, _, _ = st.GetVehicle(res.VehicleID)
	if v.CurrentOdometerKm == nil || *v.CurrentOdometerKm != 14600 {
		t.Fatalf("odometer = %v after lower mileage, want 14600", v.CurrentOdometerKm)
	}
}

func TestCreateReceiptWithoutMileageKeepsOdometer(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewService(st, nil)

	res, err := svc.Create(newDTO("", 0))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	v, _, _ := st.GetVehicle(res.VehicleID)
	if v.CurrentOdometerKm != nil {
		t.Fatalf("odometer should stay unset, got %v", *v.CurrentOdometerKm)
	}
}

func TestCreateReceiptReusesVehicleByPlate(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewService(st, nil)

	first, err := svc.Create(newDTO("", 0))
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	dto := newDTO("", 0)
	dto.Vehicle.Name = "GAZelle Next"
	second, err := svc.Create(dto)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if first.VehicleID != second.VehicleID {
		t.Fatalf("expected same vehicle, got %s and %s", first.VehicleID, second.VehicleID)
	}
	v, _, _ := st.GetVehicle(second.VehicleID)
	if v.Name != "GAZelle Next" {
		t.Fatalf("vehicle name not updated: %q", v.Name)
	}
}

func TestFuelGroupMapping(t *testing.T) {
	cases := []struct {
		group, fuelType string
		want            string
	}{
		{"", "AI95", "BENZIN"},
		{"", "ai92", "BENZIN"},
		{"", "DIESEL", "DIESEL"},
		{"", "GAS", "GAS"},
		{"", "KEROSENE", "OTHER"},
		{"", "", ""},
		{"DIESEL", "AI95", "DIESEL"},
	}
	for _, tc := range cases {
		if got := string(resolveFuelGroup(tc.group, tc.fuelType)); got != tc.want {
			t.Fatalf("resolveFuelGroup(%q, %q) = %q, want %q", tc.group, tc.fuelType, got, tc.want)
		}
	}
}

func TestCreateReceiptHonorsExplicitTimestamp(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewService(st, nil)

	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	dto := newDTO("", 0)
	dto.Receipt.ReceiptAt = &at
	res, err := svc.Create(dto)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !res.Receipt.ReceiptAt.Equal(at) {
		t.Fatalf("receiptAt = %v, want %v", res.Receipt.ReceiptAt, at)
	}
}
