package store

import (
	"errors"
	"time"

	"fuelcontrol/internal/domain"
)

// ErrNotFound is returned by update/delete operations targeting a missing row.
var ErrNotFound = errors.New("record not found")

// RepairFilter narrows repair event listings.
type RepairFilter struct {
	From         *time.Time
	To           *time.Time
	VehicleID    string
	EventType    string
	Status       string
	CategoryCode string
	HasDocs      bool
}

// DraftFilter narrows repair draft listings.
type DraftFilter struct {
	Step        string
	CreatedFrom string
}

// Store defines persistence operations for the fleet entities.
type Store interface {
	// drivers
	UpsertDriver(telegramUserID, fullName string) (domain.Driver, error)
	ListDrivers() ([]domain.Driver, error)
	GetDriver(id string) (domain.Driver, bool, error)
	SetDriverActive(id string, active bool) error
	DeleteDriver(id string) error

	// vehicles
	ListVehicles(activeOnly bool) ([]domain.Vehicle, error)
	GetVehicle(id string) (domain.Vehicle, bool, error)
	FindVehicleByPlate(plate string) (domain.Vehicle, bool, error)
	FindVehicleByName(name string) (domain.Vehicle, bool, error)
	SaveVehicle(v domain.Vehicle) error
	SetVehicleOdometer(id string, km int) error
	DeleteVehicle(id string) error

	// receipts
	CreateReceipt(r domain.Receipt, items []domain.ReceiptItem) (domain.Receipt, error)
	UpdateReceipt(r domain.Receipt) error
	ReplaceReceiptItems(receiptID string, items []domain.ReceiptItem) error
	FindReceiptByQR(qrRaw string) (domain.Receipt, bool, error)
	ListReceipts() ([]domain.Receipt, error)
	GetReceipt(id string) (domain.Receipt, bool, error)
	ListReceiptItems(receiptID string) ([]domain.ReceiptItem, error)
	DeleteReceipts(ids []string) error
	MaxReceiptMileage(vehicleID string) (*int, error)

	// repair drafts
	CreateDraft(d domain.RepairDraft) (domain.RepairDraft, error)
	LatestDraftByChat(chatID string) (domain.RepairDraft, bool, error)
	ListDraftsByChat(chatID string, limit int) ([]domain.RepairDraft, error)
	ListDrafts(f DraftFilter) ([]domain.RepairDraft, error)
	GetDraft(id string) (domain.RepairDraft, bool, error)
	UpdateDraft(id string, step string, payload domain.DraftPayload) error
	DeleteDraft(id string) error

	// repair events (children created alongside the event)
	CreateRepairEvent(e domain.RepairEvent) (domain.RepairEvent, error)
	ListRepairEvents(f RepairFilter) ([]domain.RepairEvent, error)
	GetRepairEvent(id string) (domain.RepairEvent, bool, error)
	UpdateRepairEvent(e domain.RepairEvent) error
	ReplaceRepairWorks(eventID string, works []domain.RepairWork) error
	ReplaceRepairParts(eventID string, parts []domain.RepairPart) error
	DeleteRepairEvent(id string) error

	// repair attachments
	CreateAttachment(a domain.RepairAttachment) (domain.RepairAttachment, error)
	GetAttachment(id string) (domain.RepairAttachment, bool, error)
	DeleteAttachment(id string) error

	// maintenance items
	ListMaintenanceItems(vehicleID string, activeOnly bool) ([]domain.MaintenanceItem, error)
	GetMaintenanceItem(id string) (domain.MaintenanceItem, bool, error)
	SaveMaintenanceItem(m domain.MaintenanceItem) error
	SetMaintenanceNotified(id string, at time.Time) error
	DeleteMaintenanceItem(id string) error

	// accidents
	ListAccidents(vehicleID string) ([]domain.AccidentEvent, error)
	GetAccident(id string) (domain.AccidentEvent, bool, error)
	SaveAccident(a domain.AccidentEvent) error
	DeleteAccident(id string) error

	// vehicle parts specs
	ListPartsSpecs(vehicleID string) ([]domain.VehiclePartsSpec, error)
	GetPartsSpec(id string) (domain.VehiclePartsSpec, bool, error)
	SavePartsSpec(s domain.VehiclePartsSpec) error
	DeletePartsSpec(id string) error
}
