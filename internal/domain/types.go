package domain

import "time"

type RepairEventType string

const (
	EventMaintenance RepairEventType = "MAINTENANCE"
	EventRepair      RepairEventType = "REPAIR"
)

type RepairEventStatus string

const (
	RepairDraftStatus RepairEventStatus = "DRAFT"
	RepairInProgress  RepairEventStatus = "IN_PROGRESS"
	RepairDone        RepairEventStatus = "DONE"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

type CreatedFrom string

const (
	FromTelegramBot CreatedFrom = "TELEGRAM_BOT"
	FromWeb         CreatedFrom = "WEB"
)

type AttachmentType string

const (
	AttachmentPhoto AttachmentType = "PHOTO"
	AttachmentOrder AttachmentType = "ORDER"
	AttachmentOther AttachmentType = "OTHER"
)

type ReceiptStatus string

const (
	ReceiptPending ReceiptStatus = "PENDING"
	ReceiptDone    ReceiptStatus = "DONE"
	ReceiptFailed  ReceiptStatus = "FAILED"
)

type PaymentMethod string

const (
	PayCard PaymentMethod = "CARD"
	PayCash PaymentMethod = "CASH"
	PayQR   PaymentMethod = "QR"
	PaySelf PaymentMethod = "SELF"
)

type FuelGroup string

const (
	FuelBenzin     FuelGroup = "BENZIN"
	FuelDieselGrp  FuelGroup = "DIESEL"
	FuelGasGrp     FuelGroup = "GAS"
	FuelOtherGroup FuelGroup = "OTHER"
)

type DataSource string

const (
	SourceTelegram DataSource = "TELEGRAM"
	SourceAPI      DataSource = "API"
	SourceManual   DataSource = "MANUAL"
)

// RepairCategories maps the closed category code set to display labels.
var RepairCategories = map[string]string{
	"ENGINE":       "Engine",
	"COOLING":      "Cooling",
	"FUEL":         "Fuel system",
	"ELECTRICAL":   "Electrical",
	"TRANSMISSION": "Transmission",
	"SUSPENSION":   "Suspension",
	"BRAKES":       "Brakes",
	"STEERING":     "Steering",
	"BODY":         "Body",
	"TIRES":        "Tires and wheels",
	"OTHER":        "Other",
}

// RepairCategoryOrder keeps keyboard and API listings stable.
var RepairCategoryOrder = []string{
	"ENGINE", "COOLING", "FUEL", "ELECTRICAL", "TRANSMISSION",
	"SUSPENSION", "BRAKES", "STEERING", "BODY", "TIRES", "OTHER",
}

type Driver struct {
	ID             string     `json:"id"`
	TelegramUserID string     `json:"telegramUserId"`
	FullName       string     `json:"fullName"`
	IsActive       bool       `json:"isActive"`
	LastSeenAt     *time.Time `json:"lastSeenAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type Vehicle struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	PlateNumber       string    `json:"plateNumber,omitempty"`
	IsActive          bool      `json:"isActive"`
	CurrentOdometerKm *int      `json:"currentOdometerKm,omitempty"`
	SortOrder         int       `json:"sortOrder"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type Receipt struct {
	ID             string        `json:"id"`
	DriverID       string        `json:"driverId"`
	VehicleID      string        `json:"vehicleId"`
	ReceiptAt      time.Time     `json:"receiptAt"`
	Mileage        *int          `json:"mileage,omitempty"`
	StationName    string        `json:"stationName"`
	StationINN     string        `json:"stationInn,omitempty"`
	PaymentMethod  PaymentMethod `json:"paymentMethod,omitempty"`
	PaymentComment string        `json:"paymentComment,omitempty"`
	Reimbursed     bool          `json:"reimbursed"`
	PaidByDriver   bool          `json:"paidByDriver"`
	TotalAmount    float64       `json:"totalAmount"`
	Liters         *float64      `json:"liters,omitempty"`
	PricePerLiter  *float64      `json:"pricePerLiter,omitempty"`
	FuelType       string        `json:"fuelType,omitempty"`
	FuelGroup      FuelGroup     `json:"fuelGroup,omitempty"`
	HasGoods       bool          `json:"hasGoods"`
	GoodsAmount    *float64      `json:"goodsAmount,omitempty"`
	AddressShort   string        `json:"addressShort,omitempty"`
	ImagePath      string        `json:"imagePath,omitempty"`
	PDFPath        string        `json:"pdfPath,omitempty"`
	QRRaw          string        `json:"qrRaw,omitempty"`
	DataSource     DataSource    `json:"dataSource"`
	Status         ReceiptStatus `json:"status"`
	Raw            []byte        `json:"-"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

type ReceiptItem struct {
	ID        string    `json:"id"`
	ReceiptID string    `json:"receiptId"`
	Name      string    `json:"name"`
	Quantity  *float64  `json:"quantity,omitempty"`
	UnitPrice *float64  `json:"unitPrice,omitempty"`
	Amount    *float64  `json:"amount,omitempty"`
	IsFuel    bool      `json:"isFuel"`
	CreatedAt time.Time `json:"createdAt"`
}

// DraftWork is one collected work line inside a draft payload.
type DraftWork struct {
	WorkName string  `json:"workName"`
	Cost     float64 `json:"cost"`
}

// DraftPart is one collected part line inside a draft payload.
type DraftPart struct {
	PartName   string  `json:"partName"`
	Qty        float64 `json:"qty"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

// DraftAttachment describes a stored file collected during the wizard.
type DraftAttachment struct {
	StorageKey string         `json:"storageKey"`
	FileName   string         `json:"fileName"`
	MimeType   string         `json:"mimeType"`
	Size       int64          `json:"size"`
	FileType   AttachmentType `json:"fileType"`
}

// DraftPayload is the typed shape of a draft's accumulated answers.
// Slices are initialized at draft creation and stay non-nil.
type DraftPayload struct {
	VehicleID    string            `json:"vehicleId,omitempty"`
	VehiclePlate string            `json:"vehiclePlate,omitempty"`
	EventType    RepairEventType   `json:"eventType,omitempty"`
	OdometerKm   int               `json:"odometerKm,omitempty"`
	CategoryCode string            `json:"categoryCode,omitempty"`
	SymptomsText string            `json:"symptomsText"`
	Works        []DraftWork       `json:"works"`
	Parts        []DraftPart       `json:"parts"`
	Attachments  []DraftAttachment `json:"attachments"`
}

// NewDraftPayload returns a payload with all collection fields initialized.
func NewDraftPayload() DraftPayload {
	return DraftPayload{
		Works:       []DraftWork{},
		Parts:       []DraftPart{},
		Attachments: []DraftAttachment{},
	}
}

type RepairDraft struct {
	ID          string       `json:"id"`
	ChatID      string       `json:"chatId"`
	Step        string       `json:"step"`
	Payload     DraftPayload `json:"payload"`
	CreatedFrom CreatedFrom  `json:"createdFrom"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type RepairWork struct {
	ID            string    `json:"id"`
	RepairEventID string    `json:"repairEventId"`
	WorkName      string    `json:"workName"`
	Cost          float64   `json:"cost"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type RepairPart struct {
	ID            string    `json:"id"`
	RepairEventID string    `json:"repairEventId"`
	PartName      string    `json:"partName"`
	Qty           float64   `json:"qty"`
	UnitPrice     float64   `json:"unitPrice"`
	TotalPrice    float64   `json:"totalPrice"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type RepairAttachment struct {
	ID            string         `json:"id"`
	RepairEventID string         `json:"repairEventId"`
	FileType      AttachmentType `json:"fileType"`
	FileName      string         `json:"fileName"`
	MimeType      string         `json:"mimeType"`
	Size          int64          `json:"size"`
	StorageKey    string         `json:"storageKey"`
	Source        CreatedFrom    `json:"source"`
	CreatedAt     time.Time      `json:"createdAt"`
}

type RepairEvent struct {
	ID             string             `json:"id"`
	VehicleID      string             `json:"vehicleId"`
	EventType      RepairEventType    `json:"eventType"`
	Status         RepairEventStatus  `json:"status"`
	StartedAt      time.Time          `json:"startedAt"`
	FinishedAt     *time.Time         `json:"finishedAt,omitempty"`
	OdometerKm     int                `json:"odometerKm"`
	CategoryCode   string             `json:"categoryCode"`
	SymptomsText   string             `json:"symptomsText"`
	ServiceName    string             `json:"serviceName,omitempty"`
	PaymentStatus  PaymentStatus      `json:"paymentStatus"`
	TotalCostWork  float64            `json:"totalCostWork"`
	TotalCostParts float64            `json:"totalCostParts"`
	TotalCost      float64            `json:"totalCost"`
	CreatedFrom    CreatedFrom        `json:"createdFrom"`
	Works          []RepairWork       `json:"works,omitempty"`
	Parts          []RepairPart       `json:"parts,omitempty"`
	Attachments    []RepairAttachment `json:"attachments,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

type MaintenanceItem struct {
	ID                 string     `json:"id"`
	VehicleID          string     `json:"vehicleId"`
	Name               string     `json:"name"`
	IntervalKm         *int       `json:"intervalKm,omitempty"`
	IntervalDays       *int       `json:"intervalDays,omitempty"`
	LastDoneAt         *time.Time `json:"lastDoneAt,omitempty"`
	LastDoneOdometerKm *int       `json:"lastDoneOdometerKm,omitempty"`
	NotifyBeforeKm     int        `json:"notifyBeforeKm"`
	NotifyBeforeDays   int        `json:"notifyBeforeDays"`
	LastNotifiedAt     *time.Time `json:"lastNotifiedAt,omitempty"`
	IsActive           bool       `json:"isActive"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type AccidentEvent struct {
	ID            string    `json:"id"`
	VehicleID     string    `json:"vehicleId"`
	OccurredAt    time.Time `json:"occurredAt"`
	OdometerKm    *int      `json:"odometerKm,omitempty"`
	Description   string    `json:"description"`
	Damage        string    `json:"damage,omitempty"`
	Repaired      bool      `json:"repaired"`
	RepairEventID string    `json:"repairEventId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type VehiclePartsSpec struct {
	ID              string    `json:"id"`
	VehicleID       string    `json:"vehicleId"`
	GroupCode       string    `json:"groupCode"`
	RecommendedText string    `json:"recommendedText"`
	PreferredBrands []string  `json:"preferredBrands"`
	AvoidBrands     []string  `json:"avoidBrands"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
