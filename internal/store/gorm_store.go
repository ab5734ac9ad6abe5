package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fuelcontrol/internal/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&DriverModel{}, &VehicleModel{},
		&ReceiptModel{}, &ReceiptItemModel{},
		&RepairDraftModel{}, &RepairEventModel{},
		&RepairWorkModel{}, &RepairPartModel{}, &RepairAttachmentModel{},
		&MaintenanceItemModel{}, &AccidentEventModel{}, &VehiclePartsSpecModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// UpsertDriver registers a driver keyed by telegram user ID. The stored full
// name is never overwritten on conflict so manual edits survive re-ingestion.
func (s *GormStore) UpsertDriver(telegramUserID, fullName string) (domain.Driver, error) {
	now := time.Now().UTC()
	name := fullName
	if name == "" {
		name = telegramUserID
	}
	model := DriverModel{
		ID:             NewID(),
		TelegramUserID: telegramUserID,
		FullName:       name,
		IsActive:       true,
		LastSeenAt:     &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_active", "last_seen_at", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return domain.Driver{}, err
	}
	var saved DriverModel
	if err := s.db.Where("telegram_user_id = ?", telegramUserID).First(&saved).Error; err != nil {
		return domain.Driver{}, err
	}
	return driverFromModel(saved), nil
}

// ListDrivers returns all drivers, newest first.
func (s *GormStore) ListDrivers() ([]domain.Driver, error) {
	var models []DriverModel
	if err := s.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Driver, 0, len(models))
	for _, m := range models {
		res = append(res, driverFromModel(m))
	}
	return res, nil
}

// GetDriver returns a driver by ID.
func (s *GormStore) GetDriver(id string) (domain.Driver, bool, error) {
	var model DriverModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Driver{}, false, nil
		}
		return domain.Driver{}, false, err
	}
	return driverFromModel(model), true, nil
}

// SetDriverActive toggles the active flag.
func (s *GormStore) SetDriverActive(id string, active bool) error {
	res := s.db.Model(&DriverModel{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDriver removes a driver.
func (s *GormStore) DeleteDriver(id string) error {
	return s.db.Delete(&DriverModel{}, "id = ?", id).Error
}

// ListVehicles returns vehicles ordered for keyboard and dashboard use.
func (s *GormStore) ListVehicles(activeOnly bool) ([]domain.Vehicle, error) {
	q := s.db.Order("sort_order DESC, created_at DESC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var models []VehicleModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Vehicle, 0, len(models))
	for _, m := range models {
		res = append(res, vehicleFromModel(m))
	}
	return res, nil
}

// GetVehicle returns a vehicle by ID.
func (s *GormStore) GetVehicle(id string) (domain.Vehicle, bool, error) {
	var model VehicleModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Vehicle{}, false, nil
		}
		return domain.Vehicle{}, false, err
	}
	return vehicleFromModel(model), true, nil
}

// FindVehicleByPlate looks up the first vehicle with the given plate number.
func (s *GormStore) FindVehicleByPlate(plate string) (domain.Vehicle, bool, error) {
	var model VehicleModel
	if err := s.db.Where("plate_number = ?", plate).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Vehicle{}, false, nil
		}
		return domain.Vehicle{}, false, err
	}
	return vehicleFromModel(model), true, nil
}

// FindVehicleByName looks up the first vehicle with the given display name.
func (s *GormStore) FindVehicleByName(name string) (domain.Vehicle, bool, error) {
	var model VehicleModel
	if err := s.db.Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Vehicle{}, false, nil
		}
		return domain.Vehicle{}, false, err
	}
	return vehicleFromModel(model), true, nil
}

// SaveVehicle stores or replaces a vehicle.
func (s *GormStore) SaveVehicle(v domain.Vehicle) error {
	model := vehicleToModel(v)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "plate_number", "is_active", "current_odometer_km", "sort_order", "updated_at",
		}),
	}).Create(&model).Error
}

// SetVehicleOdometer updates the derived current odometer.
func (s *GormStore) SetVehicleOdometer(id string, km int) error {
	res := s.db.Model(&VehicleModel{}).Where("id = ?", id).
		Updates(map[string]any{"current_odometer_km": km, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteVehicle removes a vehicle.
func (s *GormStore) DeleteVehicle(id string) error {
	return s.db.Delete(&VehicleModel{}, "id = ?", id).Error
}

// CreateReceipt stores a receipt and its line items in one transaction.
func (s *GormStore) CreateReceipt(r domain.Receipt, items []domain.ReceiptItem) (domain.Receipt, error) {
	model := receiptToModel(r)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		for _, it := range items {
			im := receiptItemToModel(it)
			im.ReceiptID = model.ID
			if err := tx.Create(&im).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Receipt{}, err
	}
	return receiptFromModel(model), nil
}

// UpdateReceipt replaces a stored receipt row.
func (s *GormStore) UpdateReceipt(r domain.Receipt) error {
	model := receiptToModel(r)
	res := s.db.Model(&ReceiptModel{}).Where("id = ?", r.ID).Select("*").
		Omit("id", "created_at").Updates(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceReceiptItems deletes existing line items and inserts the new set.
func (s *GormStore) ReplaceReceiptItems(receiptID string, items []domain.ReceiptItem) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&ReceiptItemModel{}, "receipt_id = ?", receiptID).Error; err != nil {
			return err
		}
		for _, it := range items {
			im := receiptItemToModel(it)
			im.ReceiptID = receiptID
			if err := tx.Create(&im).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindReceiptByQR looks up a receipt by its scanned QR payload.
func (s *GormStore) FindReceiptByQR(qrRaw string) (domain.Receipt, bool, error) {
	var model ReceiptModel
	if err := s.db.Where("qr_raw = ?", qrRaw).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Receipt{}, false, nil
		}
		return domain.Receipt{}, false, err
	}
	return receiptFromModel(model), true, nil
}

// ListReceipts returns all receipts, newest first.
func (s *GormStore) ListReceipts() ([]domain.Receipt, error) {
	var models []ReceiptModel
	if err := s.db.Order("receipt_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Receipt, 0, len(models))
	for _, m := range models {
		res = append(res, receiptFromModel(m))
	}
	return res, nil
}

// GetReceipt returns a receipt by ID.
func (s *GormStore) GetReceipt(id string) (domain.Receipt, bool, error) {
	var model ReceiptModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Receipt{}, false, nil
		}
		return domain.Receipt{}, false, err
	}
	return receiptFromModel(model), true, nil
}

// ListReceiptItems returns line items of a receipt.
func (s *GormStore) ListReceiptItems(receiptID string) ([]domain.ReceiptItem, error) {
	var models []ReceiptItemModel
	if err := s.db.Where("receipt_id = ?", receiptID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ReceiptItem, 0, len(models))
	for _, m := range models {
		res = append(res, receiptItemFromModel(m))
	}
	return res, nil
}

// DeleteReceipts removes receipts and their line items.
func (s *GormStore) DeleteReceipts(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&ReceiptItemModel{}, "receipt_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Delete(&ReceiptModel{}, "id IN ?", ids).Error
	})
}

// MaxReceiptMileage aggregates the highest recorded receipt mileage for a
// vehicle. Returns nil when no receipt carries a mileage.
func (s *GormStore) MaxReceiptMileage(vehicleID string) (*int, error) {
	var max sql.NullInt64
	err := s.db.Model(&ReceiptModel{}).
		Where("vehicle_id = ? AND mileage IS NOT NULL", vehicleID).
		Select("MAX(mileage)").Scan(&max).Error
	if err != nil {
		return nil, err
	}
	if !max.Valid {
		return nil, nil
	}
	v := int(max.Int64)
	return &v, nil
}

// CreateDraft stores a new repair draft.
func (s *GormStore) CreateDraft(d domain.RepairDraft) (domain.RepairDraft, error) {
	model, err := draftToModel(d)
	if err != nil {
		return domain.RepairDraft{}, err
	}
	if err := s.db.Create(&model).Error; err != nil {
		return domain.RepairDraft{}, err
	}
	return draftFromModel(model)
}

// LatestDraftByChat returns the most recently updated draft for a chat.
func (s *GormStore) LatestDraftByChat(chatID string) (domain.RepairDraft, bool, error) {
	var model RepairDraftModel
	err := s.db.Where("chat_id = ?", chatID).Order("updated_at DESC").First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RepairDraft{}, false, nil
		}
		return domain.RepairDraft{}, false, err
	}
	d, err := draftFromModel(model)
	if err != nil {
		return domain.RepairDraft{}, false, err
	}
	return d, true, nil
}

// ListDraftsByChat returns up to limit drafts for a chat, newest first.
func (s *GormStore) ListDraftsByChat(chatID string, limit int) ([]domain.RepairDraft, error) {
	q := s.db.Where("chat_id = ?", chatID).Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var models []RepairDraftModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.RepairDraft, 0, len(models))
	for _, m := range models {
		d, err := draftFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, nil
}

// ListDrafts returns drafts matching the filter, newest first.
func (s *GormStore) ListDrafts(f DraftFilter) ([]domain.RepairDraft, error) {
	q := s.db.Order("updated_at DESC")
	if f.Step != "" {
		q = q.Where("step = ?", f.Step)
	}
	if f.CreatedFrom != "" {
		q = q.Where("created_from = ?", f.CreatedFrom)
	}
	var models []RepairDraftModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.RepairDraft, 0, len(models))
	for _, m := range models {
		d, err := draftFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, nil
}

// GetDraft returns a draft by ID.
func (s *GormStore) GetDraft(id string) (domain.RepairDraft, bool, error) {
	var model RepairDraftModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RepairDraft{}, false, nil
		}
		return domain.RepairDraft{}, false, err
	}
	d, err := draftFromModel(model)
	if err != nil {
		return domain.RepairDraft{}, false, err
	}
	return d, true, nil
}

// UpdateDraft persists a step transition together with the payload.
func (s *GormStore) UpdateDraft(id string, step string, payload domain.DraftPayload) error {
	raw, err := draftToModel(domain.RepairDraft{Payload: payload})
	if err != nil {
		return err
	}
	res := s.db.Model(&RepairDraftModel{}).Where("id = ?", id).Updates(map[string]any{
		"step":       step,
		"payload":    raw.Payload,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDraft removes a draft.
func (s *GormStore) DeleteDraft(id string) error {
	return s.db.Delete(&RepairDraftModel{}, "id = ?", id).Error
}

// CreateRepairEvent stores an event and its works, parts, and attachments in
// one logical operation.
func (s *GormStore) CreateRepairEvent(e domain.RepairEvent) (domain.RepairEvent, error) {
	model := repairEventToModel(e)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.RepairEvent{}, err
	}
	return repairEventFromModel(model), nil
}

// ListRepairEvents returns events matching the filter, newest first, with
// attachments preloaded for counting.
func (s *GormStore) ListRepairEvents(f RepairFilter) ([]domain.RepairEvent, error) {
	q := s.db.Preload("Attachments").Order("started_at DESC")
	if f.From != nil {
		q = q.Where("started_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("started_at <= ?", *f.To)
	}
	if f.VehicleID != "" {
		q = q.Where("vehicle_id = ?", f.VehicleID)
	}
	if f.EventType != "" {
		q = q.Where("event_type = ?", f.EventType)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CategoryCode != "" {
		q = q.Where("category_code = ?", f.CategoryCode)
	}
	if f.HasDocs {
		q = q.Where("EXISTS (SELECT 1 FROM repair_attachments a WHERE a.repair_event_id = repair_events.id)")
	}
	var models []RepairEventModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.RepairEvent, 0, len(models))
	for _, m := range models {
		res = append(res, repairEventFromModel(m))
	}
	return res, nil
}

// GetRepairEvent returns an event with all children.
func (s *GormStore) GetRepairEvent(id string) (domain.RepairEvent, bool, error) {
	var model RepairEventModel
	err := s.db.Preload("Works").Preload("Parts").Preload("Attachments").
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RepairEvent{}, false, nil
		}
		return domain.RepairEvent{}, false, err
	}
	return repairEventFromModel(model), true, nil
}

// UpdateRepairEvent replaces the event row; children are managed separately.
func (s *GormStore) UpdateRepairEvent(e domain.RepairEvent) error {
	model := repairEventToModel(e)
	model.Works, model.Parts, model.Attachments = nil, nil, nil
	res := s.db.Model(&RepairEventModel{}).Where("id = ?", e.ID).Select("*").
		Omit("id", "created_at").Updates(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceRepairWorks deletes and re-creates the work lines of an event.
func (s *GormStore) ReplaceRepairWorks(eventID string, works []domain.RepairWork) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&RepairWorkModel{}, "repair_event_id = ?", eventID).Error; err != nil {
			return err
		}
		for _, w := range works {
			wm := repairWorkToModel(w)
			wm.RepairEventID = eventID
			if err := tx.Create(&wm).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceRepairParts deletes and re-creates the part lines of an event.
func (s *GormStore) ReplaceRepairParts(eventID string, parts []domain.RepairPart) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&RepairPartModel{}, "repair_event_id = ?", eventID).Error; err != nil {
			return err
		}
		for _, p := range parts {
			pm := repairPartToModel(p)
			pm.RepairEventID = eventID
			if err := tx.Create(&pm).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteRepairEvent removes an event and its children.
func (s *GormStore) DeleteRepairEvent(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&RepairWorkModel{}, "repair_event_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&RepairPartModel{}, "repair_event_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&RepairAttachmentModel{}, "repair_event_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&RepairEventModel{}, "id = ?", id).Error
	})
}

// CreateAttachment stores an attachment record.
func (s *GormStore) CreateAttachment(a domain.RepairAttachment) (domain.RepairAttachment, error) {
	model := attachmentToModel(a)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.RepairAttachment{}, err
	}
	return attachmentFromModel(model), nil
}

// GetAttachment returns an attachment by ID.
func (s *GormStore) GetAttachment(id string) (domain.RepairAttachment, bool, error) {
	var model RepairAttachmentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RepairAttachment{}, false, nil
		}
		return domain.RepairAttachment{}, false, err
	}
	return attachmentFromModel(model), true, nil
}

// DeleteAttachment removes an attachment record.
func (s *GormStore) DeleteAttachment(id string) error {
	return s.db.Delete(&RepairAttachmentModel{}, "id = ?", id).Error
}

// ListMaintenanceItems returns maintenance items, newest first.
func (s *GormStore) ListMaintenanceItems(vehicleID string, activeOnly bool) ([]domain.MaintenanceItem, error) {
	q := s.db.Order("created_at DESC")
	if vehicleID != "" {
		q = q.Where("vehicle_id = ?", vehicleID)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var models []MaintenanceItemModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.MaintenanceItem, 0, len(models))
	for _, m := range models {
		res = append(res, maintenanceFromModel(m))
	}
	return res, nil
}

// GetMaintenanceItem returns a maintenance item by ID.
func (s *GormStore) GetMaintenanceItem(id string) (domain.MaintenanceItem, bool, error) {
	var model MaintenanceItemModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.MaintenanceItem{}, false, nil
		}
		return domain.MaintenanceItem{}, false, err
	}
	return maintenanceFromModel(model), true, nil
}

// SaveMaintenanceItem stores or replaces a maintenance item.
func (s *GormStore) SaveMaintenanceItem(m domain.MaintenanceItem) error {
	model := maintenanceToModel(m)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "interval_km", "interval_days", "last_done_at", "last_done_odometer_km",
			"notify_before_km", "notify_before_days", "last_notified_at", "is_active", "updated_at",
		}),
	}).Create(&model).Error
}

// SetMaintenanceNotified stamps the last alert time for an item.
func (s *GormStore) SetMaintenanceNotified(id string, at time.Time) error {
	res := s.db.Model(&MaintenanceItemModel{}).Where("id = ?", id).
		Updates(map[string]any{"last_notified_at": at, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMaintenanceItem removes a maintenance item.
func (s *GormStore) DeleteMaintenanceItem(id string) error {
	return s.db.Delete(&MaintenanceItemModel{}, "id = ?", id).Error
}

// ListAccidents returns accidents, newest first.
func (s *GormStore) ListAccidents(vehicleID string) ([]domain.AccidentEvent, error) {
	q := s.db.Order("occurred_at DESC")
	if vehicleID != "" {
		q = q.Where("vehicle_id = ?", vehicleID)
	}
	var models []AccidentEventModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.AccidentEvent, 0, len(models))
	for _, m := range models {
		res = append(res, accidentFromModel(m))
	}
	return res, nil
}

// GetAccident returns an accident by ID.
func (s *GormStore) GetAccident(id string) (domain.AccidentEvent, bool, error) {
	var model AccidentEventModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AccidentEvent{}, false, nil
		}
		return domain.AccidentEvent{}, false, err
	}
	return accidentFromModel(model), true, nil
}

// SaveAccident stores or replaces an accident record.
func (s *GormStore) SaveAccident(a domain.AccidentEvent) error {
	model := accidentToModel(a)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"occurred_at", "odometer_km", "description", "damage", "repaired", "repair_event_id", "updated_at",
		}),
	}).Create(&model).Error
}

// DeleteAccident removes an accident record.
func (s *GormStore) DeleteAccident(id string) error {
	return s.db.Delete(&AccidentEventModel{}, "id = ?", id).Error
}

// ListPartsSpecs returns parts specs, newest first.
func (s *GormStore) ListPartsSpecs(vehicleID string) ([]domain.VehiclePartsSpec, error) {
	q := s.db.Order("created_at DESC")
	if vehicleID != "" {
		q = q.Where("vehicle_id = ?", vehicleID)
	}
	var models []VehiclePartsSpecModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.VehiclePartsSpec, 0, len(models))
	for _, m := range models {
		res = append(res, partsSpecFromModel(m))
	}
	return res, nil
}

// GetPartsSpec returns a parts spec by ID.
func (s *GormStore) GetPartsSpec(id string) (domain.VehiclePartsSpec, bool, error) {
	var model VehiclePartsSpecModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.VehiclePartsSpec{}, false, nil
		}
		return domain.VehiclePartsSpec{}, false, err
	}
	return partsSpecFromModel(model), true, nil
}

// SavePartsSpec stores or replaces a parts spec.
func (s *GormStore) SavePartsSpec(spec domain.VehiclePartsSpec) error {
	model, err := partsSpecToModel(spec)
	if err != nil {
		return err
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"group_code", "recommended_text", "preferred_brands", "avoid_brands", "notes", "updated_at",
		}),
	}).Create(&model).Error
}

// DeletePartsSpec removes a parts spec.
func (s *GormStore) DeletePartsSpec(id string) error {
	return s.db.Delete(&VehiclePartsSpecModel{}, "id = ?", id).Error
}
