package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type DriverModel struct {
	ID             string `gorm:"primaryKey"`
	TelegramUserID string `gorm:"uniqueIndex;not null"`
	FullName       string `gorm:"not null"`
	IsActive       bool   `gorm:"not null"`
	LastSeenAt     *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (DriverModel) TableName() string { return "drivers" }

type VehicleModel struct {
	ID                string `gorm:"primaryKey"`
	Name              string `gorm:"not null"`
	PlateNumber       string `gorm:"index"`
	IsActive          bool   `gorm:"not null"`
	CurrentOdometerKm *int
	SortOrder         int       `gorm:"not null;default:0"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func (VehicleModel) TableName() string { return "vehicles" }

type ReceiptModel struct {
	ID             string    `gorm:"primaryKey"`
	DriverID       string    `gorm:"not null;index"`
	VehicleID      string    `gorm:"not null;index"`
	ReceiptAt      time.Time `gorm:"not null"`
	Mileage        *int
	StationName    string `gorm:"not null"`
	StationINN     string
	PaymentMethod  string
	PaymentComment string
	Reimbursed     bool    `gorm:"not null"`
	PaidByDriver   bool    `gorm:"not null"`
	TotalAmount    float64 `gorm:"not null"`
	Liters         *float64
	PricePerLiter  *float64
	FuelType       string
	FuelGroup      string
	HasGoods       bool `gorm:"not null"`
	GoodsAmount    *float64
	AddressShort   string
	ImagePath      string
	PDFPath        string
	QRRaw          string         `gorm:"index"`
	DataSource     string         `gorm:"not null"`
	Status         string         `gorm:"not null"`
	Raw            datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"not null"`
	UpdatedAt      time.Time      `gorm:"not null"`
}

func (ReceiptModel) TableName() string { return "receipts" }

type ReceiptItemModel struct {
	ID        string `gorm:"primaryKey"`
	ReceiptID string `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	Quantity  *float64
	UnitPrice *float64
	Amount    *float64
	IsFuel    bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (ReceiptItemModel) TableName() string { return "receipt_items" }

type RepairDraftModel struct {
	ID          string         `gorm:"primaryKey"`
	ChatID      string         `gorm:"not null;index"`
	Step        string         `gorm:"not null"`
	Payload     datatypes.JSON `gorm:"type:jsonb"`
	CreatedFrom string         `gorm:"not null"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null;index"`
}

func (RepairDraftModel) TableName() string { return "repair_drafts" }

type RepairEventModel struct {
	ID             string    `gorm:"primaryKey"`
	VehicleID      string    `gorm:"not null;index"`
	EventType      string    `gorm:"not null"`
	Status         string    `gorm:"not null"`
	StartedAt      time.Time `gorm:"not null;index"`
	FinishedAt     *time.Time
	OdometerKm     int    `gorm:"not null"`
	CategoryCode   string `gorm:"not null;index"`
	SymptomsText   string
	ServiceName    string
	PaymentStatus  string    `gorm:"not null"`
	TotalCostWork  float64   `gorm:"not null"`
	TotalCostParts float64   `gorm:"not null"`
	TotalCost      float64   `gorm:"not null"`
	CreatedFrom    string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`

	Works       []RepairWorkModel       `gorm:"foreignKey:RepairEventID;constraint:OnDelete:CASCADE"`
	Parts       []RepairPartModel       `gorm:"foreignKey:RepairEventID;constraint:OnDelete:CASCADE"`
	Attachments []RepairAttachmentModel `gorm:"foreignKey:RepairEventID;constraint:OnDelete:CASCADE"`
}

func (RepairEventModel) TableName() string { return "repair_events" }

type RepairWorkModel struct {
	ID            string  `gorm:"primaryKey"`
	RepairEventID string  `gorm:"not null;index"`
	WorkName      string  `gorm:"not null"`
	Cost          float64 `gorm:"not null"`
	Comment       string
	CreatedAt     time.Time `gorm:"not null"`
}

func (RepairWorkModel) TableName() string { return "repair_works" }

type RepairPartModel struct {
	ID            string  `gorm:"primaryKey"`
	RepairEventID string  `gorm:"not null;index"`
	PartName      string  `gorm:"not null"`
	Qty           float64 `gorm:"not null"`
	UnitPrice     float64 `gorm:"not null"`
	TotalPrice    float64 `gorm:"not null"`
	Comment       string
	CreatedAt     time.Time `gorm:"not null"`
}

func (RepairPartModel) TableName() string { return "repair_parts" }

type RepairAttachmentModel struct {
	ID            string `gorm:"primaryKey"`
	RepairEventID string `gorm:"not null;index"`
	FileType      string `gorm:"not null"`
	FileName      string `gorm:"not null"`
	MimeType      string `gorm:"not null"`
	Size          int64  `gorm:"not null"`
	StorageKey    string `gorm:"not null"`
	Source        string `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (RepairAttachmentModel) TableName() string { return "repair_attachments" }

type MaintenanceItemModel struct {
	ID                 string `gorm:"primaryKey"`
	VehicleID          string `gorm:"not null;index"`
	Name               string `gorm:"not null"`
	IntervalKm         *int
	IntervalDays       *int
	LastDoneAt         *time.Time
	LastDoneOdometerKm *int
	NotifyBeforeKm     int `gorm:"not null"`
	NotifyBeforeDays   int `gorm:"not null"`
	LastNotifiedAt     *time.Time
	IsActive           bool      `gorm:"not null"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

func (MaintenanceItemModel) TableName() string { return "maintenance_items" }

type AccidentEventModel struct {
	ID            string    `gorm:"primaryKey"`
	VehicleID     string    `gorm:"not null;index"`
	OccurredAt    time.Time `gorm:"not null;index"`
	OdometerKm    *int
	Description   string `gorm:"not null"`
	Damage        string
	Repaired      bool `gorm:"not null"`
	RepairEventID string
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (AccidentEventModel) TableName() string { return "accident_events" }

type VehiclePartsSpecModel struct {
	ID              string `gorm:"primaryKey"`
	VehicleID       string `gorm:"not null;index"`
	GroupCode       string `gorm:"not null"`
	RecommendedText string `gorm:"not null"`
	PreferredBrands datatypes.JSON `gorm:"type:jsonb"`
	AvoidBrands     datatypes.JSON `gorm:"type:jsonb"`
	Notes           string
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (VehiclePartsSpecModel) TableName() string { return "vehicle_parts_specs" }
