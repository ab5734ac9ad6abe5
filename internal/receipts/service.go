package receipts

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fuelcontrol/internal/domain"
	"fuelcontrol/internal/store"
)

// ItemInput is one line item of an ingested receipt.
type ItemInput struct {
	Name      string   `json:"name"`
	Quantity  *float64 `json:"quantity,omitempty"`
	UnitPrice *float64 `json:"unitPrice,omitempty"`
	Amount    *float64 `json:"amount,omitempty"`
}

// ReceiptInput carries the parsed receipt fields.
type ReceiptInput struct {
	ReceiptAt      *time.Time `json:"receiptAt,omitempty"`
	Mileage        *int       `json:"mileage,omitempty"`
	StationName    string     `json:"stationName"`
	StationINN     string     `json:"stationInn,omitempty"`
	PaymentMethod  string     `json:"paymentMethod,omitempty"`
	PaymentComment string     `json:"paymentComment,omitempty"`
	Reimbursed     bool       `json:"reimbursed,omitempty"`
	PaidByDriver   bool       `json:"paidByDriver,omitempty"`
	TotalAmount    float64    `json:"totalAmount"`
	Liters         *float64   `json:"liters,omitempty"`
	PricePerLiter  *float64   `json:"pricePerLiter,omitempty"`
	FuelType       string     `json:"fuelType,omitempty"`
	FuelGroup      string     `json:"fuelGroup,omitempty"`
	HasGoods       bool       `json:"hasGoods,omitempty"`
	GoodsAmount    *float64   `json:"goodsAmount,omitempty"`
	AddressShort   string     `json:"addressShort,omitempty"`
	ImagePath      string     `json:"imagePath,omitempty"`
	PDFPath        string     `json:"pdfPath,omitempty"`
	QRRaw          string     `json:"qrRaw,omitempty"`
	DataSource     string     `json:"dataSource,omitempty"`
	Status         string     `json:"status,omitempty"`
	Raw            []byte     `json:"-"`
}

// CreateDTO is the full ingestion payload: who fueled, which vehicle, the
// receipt itself, and its line items.
type CreateDTO struct {
	Driver struct {
		TelegramUserID string `json:"telegramUserId"`
		FullName       string `json:"fullName,omitempty"`
	} `json:"driver"`
	Vehicle struct {
		PlateNumber string `json:"plateNumber,omitempty"`
		Name        string `json:"name,omitempty"`
	} `json:"vehicle"`
	Receipt ReceiptInput `json:"receipt"`
	Items   []ItemInput  `json:"items"`
}

// Result reports what the ingestion did.
type Result struct {
	Receipt    domain.Receipt `json:"receipt"`
	ItemsCount int            `json:"itemsCount"`
	DriverID   string         `json:"driverId"`
	VehicleID  string         `json:"vehicleId"`
	Deduped    bool           `json:"deduped"`
}

// Service ingests fuel receipts and keeps vehicle odometers current.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

func NewService(st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger}
}

// Create registers a receipt. Receipts carrying an already-seen QR payload
// update the stored receipt in place instead of creating a duplicate.
func (s *Service) Create(dto CreateDTO) (Result, error) {
	if strings.TrimSpace(dto.Driver.TelegramUserID) == "" {
		return Result{}, fmt.Errorf("driver telegramUserId is required")
	}
	if strings.TrimSpace(dto.Receipt.StationName) == "" {
		return Result{}, fmt.Errorf("receipt stationName is required")
	}

	driver, err := s.store.UpsertDriver(dto.Driver.TelegramUserID, strings.TrimSpace(dto.Driver.FullName))
	if err != nil {
		return Result{}, fmt.Errorf("upsert driver: %w", err)
	}

	vehicle, err := s.resolveVehicle(dto.Vehicle.PlateNumber, dto.Vehicle.Name)
	if err != nil {
		return Result{}, err
	}

	now := time.Now().UTC()
	receipt := domain.Receipt{
		ID:             store.NewID(),
		DriverID:       driver.ID,
		VehicleID:      vehicle.ID,
		ReceiptAt:      now,
		Mileage:        dto.Receipt.Mileage,
		StationName:    dto.Receipt.StationName,
		StationINN:     dto.Receipt.StationINN,
		PaymentMethod:  mapPayment(dto.Receipt.PaymentMethod),
		PaymentComment: dto.Receipt.PaymentComment,
		Reimbursed:     dto.Receipt.Reimbursed,
		PaidByDriver:   dto.Receipt.PaidByDriver,
		TotalAmount:    dto.Receipt.TotalAmount,
		Liters:         dto.Receipt.Liters,
		PricePerLiter:  dto.Receipt.PricePerLiter,
		FuelType:       strings.ToUpper(strings.TrimSpace(dto.Receipt.FuelType)),
		FuelGroup:      resolveFuelGroup(dto.Receipt.FuelGroup, dto.Receipt.FuelType),
		HasGoods:       dto.Receipt.HasGoods,
		GoodsAmount:    dto.Receipt.GoodsAmount,
		AddressShort:   dto.Receipt.AddressShort,
		ImagePath:      dto.Receipt.ImagePath,
		PDFPath:        dto.Receipt.PDFPath,
		QRRaw:          strings.TrimSpace(dto.Receipt.QRRaw),
		DataSource:     domain.SourceTelegram,
		Status:         domain.ReceiptDone,
		Raw:            dto.Receipt.Raw,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if dto.Receipt.ReceiptAt != nil {
		receipt.ReceiptAt = dto.Receipt.ReceiptAt.UTC()
	}
	if v := domain.DataSource(strings.ToUpper(dto.Receipt.DataSource)); v == domain.SourceAPI || v == domain.SourceManual {
		receipt.DataSource = v
	}
	if v := domain.ReceiptStatus(strings.ToUpper(dto.Receipt.Status)); v == domain.ReceiptPending || v == domain.ReceiptFailed {
		receipt.Status = v
	}

	items := make([]domain.ReceiptItem, 0, len(dto.Items))
	for _, it := range dto.Items {
		items = append(items, domain.ReceiptItem{
			ID:        store.NewID(),
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Amount:    it.Amount,
			CreatedAt: now,
		})
	}

	deduped := false
	if receipt.QRRaw != "" {
		existing, found, err := s.store.FindReceiptByQR(receipt.QRRaw)
		if err != nil {
			return Result{}, fmt.Errorf("dedup lookup: %w", err)
		}
		if found {
			deduped = true
			receipt.ID = existing.ID
			receipt.CreatedAt = existing.CreatedAt
			if err := s.store.UpdateReceipt(receipt); err != nil {
				return Result{}, fmt.Errorf("update receipt: %w", err)
			}
			if err := s.store.ReplaceReceiptItems(receipt.ID, items); err != nil {
				return Result{}, fmt.Errorf("replace items: %w", err)
			}
		}
	}
	if !deduped {
		created, err := s.store.CreateReceipt(receipt, items)
		if err != nil {
			return Result{}, fmt.Errorf("create receipt: %w", err)
		}
		receipt = created
	}

	if err := s.RefreshOdometer(vehicle.ID); err != nil {
		s.logger.Warn("odometer refresh failed", "vehicle_id", vehicle.ID, "error", err)
	}

	s.logger.Info("receipt ingested",
		"receipt_id", receipt.ID,
		"vehicle_id", vehicle.ID,
		"driver_id", driver.ID,
		"deduped", deduped,
		"items", len(items),
	)
	return Result{
		Receipt:    receipt,
		ItemsCount: len(items),
		DriverID:   driver.ID,
		VehicleID:  vehicle.ID,
		Deduped:    deduped,
	}, nil
}

// RefreshOdometer recomputes the vehicle's derived odometer from the highest
// receipt mileage on record. Vehicles without any mileage stay untouched.
func (s *Service) RefreshOdometer(vehicleID string) error {
	max, err := s.store.MaxReceiptMileage(vehicleID)
	if err != nil {
		return err
	}
	if max == nil {
		return nil
	}
	return s.store.SetVehicleOdometer(vehicleID, *max)
}

func (s *Service) resolveVehicle(plate, name string) (domain.Vehicle, error) {
	plate = strings.TrimSpace(plate)
	name = strings.TrimSpace(name)

	var found domain.Vehicle
	var ok bool
	var err error
	if plate != "" {
		found, ok, err = s.store.FindVehicleByPlate(plate)
		if err != nil {
			return domain.Vehicle{}, fmt.Errorf("find vehicle by plate: %w", err)
		}
	}
	if !ok && name != "" {
		found, ok, err = s.store.FindVehicleByName(name)
		if err != nil {
			return domain.Vehicle{}, fmt.Errorf("find vehicle by name: %w", err)
		}
	}

	now := time.Now().UTC()
	if ok {
		if plate != "" {
			found.PlateNumber = plate
		}
		if name != "" {
			found.Name = name
		}
		found.IsActive = true
		found.UpdatedAt = now
		if err := s.store.SaveVehicle(found); err != nil {
			return domain.Vehicle{}, fmt.Errorf("update vehicle: %w", err)
		}
		return found, nil
	}

	displayName := name
	if displayName == "" {
		displayName = plate
	}
	if displayName == "" {
		displayName = "Unknown vehicle"
	}
	vehicle := domain.Vehicle{
		ID:          store.NewID(),
		Name:        displayName,
		PlateNumber: plate,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.SaveVehicle(vehicle); err != nil {
		return domain.Vehicle{}, fmt.Errorf("create vehicle: %w", err)
	}
	return vehicle, nil
}

func mapPayment(pm string) domain.PaymentMethod {
	switch strings.ToUpper(strings.TrimSpace(pm)) {
	case "CARD":
		return domain.PayCard
	case "CASH":
		return domain.PayCash
	case "QR":
		return domain.PayQR
	case "SELF":
		return domain.PaySelf
	}
	return ""
}

func resolveFuelGroup(group, fuelType string) domain.FuelGroup {
	switch domain.FuelGroup(strings.ToUpper(strings.TrimSpace(group))) {
	case domain.FuelBenzin:
		return domain.FuelBenzin
	case domain.FuelDieselGrp:
		return domain.FuelDieselGrp
	case domain.FuelGasGrp:
		return domain.FuelGasGrp
	case domain.FuelOtherGroup:
		return domain.FuelOtherGroup
	}
	switch strings.ToUpper(strings.TrimSpace(fuelType)) {
	case "AI92", "AI95":
		return domain.FuelBenzin
	case "DIESEL":
		return domain.FuelDieselGrp
	case "GAS":
		return domain.FuelGasGrp
	case "":
		return ""
	}
	return domain.FuelOtherGroup
}
