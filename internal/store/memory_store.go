package store

import (
	"sort"
	"sync"
	"time"

	"fuelcontrol/internal/domain"
)

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu sync.RWMutex

	drivers      map[string]domain.Driver
	vehicles     map[string]domain.Vehicle
	receipts     map[string]domain.Receipt
	receiptItems map[string][]domain.ReceiptItem
	drafts       map[string]domain.RepairDraft
	events       map[string]domain.RepairEvent
	maintenance  map[string]domain.MaintenanceItem
	accidents    map[string]domain.AccidentEvent
	partsSpecs   map[string]domain.VehiclePartsSpec
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drivers:      make(map[string]domain.Driver),
		vehicles:     make(map[string]domain.Vehicle),
		receipts:     make(map[string]domain.Receipt),
		receiptItems: make(map[string][]domain.ReceiptItem),
		drafts:       make(map[string]domain.RepairDraft),
		events:       make(map[string]domain.RepairEvent),
		maintenance:  make(map[string]domain.MaintenanceItem),
		accidents:    make(map[string]domain.AccidentEvent),
		partsSpecs:   make(map[string]domain.VehiclePartsSpec),
	}
}

func (s *MemoryStore) UpsertDriver(telegramUserID, fullName string) (domain.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for id, d := range s.drivers {
		if d.TelegramUserID == telegramUserID {
			d.IsActive = true
			d.LastSeenAt = &now
			d.UpdatedAt = now
			s.drivers[id] = d
			return d, nil
		}
	}
	name := fullName
	if name == "" {
		name = telegramUserID
	}
	d := domain.Driver{
		ID:             NewID(),
		TelegramUserID: telegramUserID,
		FullName:       name,
		IsActive:       true,
		LastSeenAt:     &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.drivers[d.ID] = d
	return d, nil
}

func (s *MemoryStore) ListDrivers() ([]domain.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		res = append(res, d)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (s *MemoryStore) GetDriver(id string) (domain.Driver, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drivers[id]
	return d, ok, nil
}

func (s *MemoryStore) SetDriverActive(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok {
		return ErrNotFound
	}
	d.IsActive = active
	d.UpdatedAt = time.Now().UTC()
	s.drivers[id] = d
	return nil
}

func (s *MemoryStore) DeleteDriver(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drivers, id)
	return nil
}

func (s *MemoryStore) ListVehicles(activeOnly bool) ([]domain.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		if activeOnly && !v.IsActive {
			continue
		}
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].SortOrder != res[j].SortOrder {
			return res[i].SortOrder > res[j].SortOrder
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (s *MemoryStore) GetVehicle(id string) (domain.Vehicle, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	return v, ok, nil
}

func (s *MemoryStore) FindVehicleByPlate(plate string) (domain.Vehicle, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.vehicles {
		if v.PlateNumber == plate {
			return v, true, nil
		}
	}
	return domain.Vehicle{}, false, nil
}

func (s *MemoryStore) FindVehicleByName(name string) (domain.Vehicle, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.vehicles {
		if v.Name == name {
			return v, true, nil
		}
	}
	return domain.Vehicle{}, false, nil
}

func (s *MemoryStore) SaveVehicle(v domain.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID] = v
	return nil
}

func (s *MemoryStore) SetVehicleOdometer(id string, km int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return ErrNotFound
	}
	v.CurrentOdometerKm = &km
	v.UpdatedAt = time.Now().UTC()
	s.vehicles[id] = v
	return nil
}

func (s *MemoryStore) DeleteVehicle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vehicles, id)
	return nil
}

func (s *MemoryStore) CreateReceipt(r domain.Receipt, items []domain.ReceiptItem) (domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[r.ID] = r
	copied := make([]domain.ReceiptItem, len(items))
	copy(copied, items)
	for i := range copied {
		copied[i].ReceiptID = r.ID
	}
	s.receiptItems[r.ID] = copied
	return r, nil
}

func (s *MemoryStore) UpdateReceipt(r domain.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.receipts[r.ID]; !ok {
		return ErrNotFound
	}
	s.receipts[r.ID] = r
	return nil
}

func (s *MemoryStore) ReplaceReceiptItems(receiptID string, items []domain.ReceiptItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]domain.ReceiptItem, len(items))
	copy(copied, items)
	for i := range copied {
		copied[i].ReceiptID = receiptID
	}
	s.receiptItems[receiptID] = copied
	return nil
}

func (s *MemoryStore) FindReceiptByQR(qrRaw string) (domain.Receipt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.receipts {
		if r.QRRaw != "" && r.QRRaw == qrRaw {
			return r, true, nil
		}
	}
	return domain.Receipt{}, false, nil
}

func (s *MemoryStore) ListReceipts() ([]domain.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.Receipt, 0, len(s.receipts))
	for _, r := range s.receipts {
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ReceiptAt.After(res[j].ReceiptAt) })
	return res, nil
}

func (s *MemoryStore) GetReceipt(id string) (domain.Receipt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receipts[id]
	return r, ok, nil
}

func (s *MemoryStore) ListReceiptItems(receiptID string) ([]domain.ReceiptItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.receiptItems[receiptID]
	res := make([]domain.ReceiptItem, len(items))
	copy(res, items)
	return res, nil
}

func (s *MemoryStore) DeleteReceipts(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.receipts, id)
		delete(s.receiptItems, id)
	}
	return nil
}

func (s *MemoryStore) MaxReceiptMileage(vehicleID string) (*int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var max *int
	for _, r := range s.receipts {
		if r.VehicleID != vehicleID || r.Mileage == nil {
			continue
		}
		if max == nil || *r.Mileage > *max {
			v := *r.Mileage
			max = &v
		}
	}
	return max, nil
}

func (s *MemoryStore) CreateDraft(d domain.RepairDraft) (domain.RepairDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ID] = d
	return d, nil
}

func (s *MemoryStore) LatestDraftByChat(chatID string) (domain.RepairDraft, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest domain.RepairDraft
	found := false
	for _, d := range s.drafts {
		if d.ChatID != chatID {
			continue
		}
		if !found || d.UpdatedAt.After(latest.UpdatedAt) {
			latest = d
			found = true
		}
	}
	return latest, found, nil
}

func (s *MemoryStore) ListDraftsByChat(chatID string, limit int) ([]domain.RepairDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.RepairDraft
	for _, d := range s.drafts {
		if d.ChatID == chatID {
			res = append(res, d)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].UpdatedAt.After(res[j].UpdatedAt) })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *MemoryStore) ListDrafts(f DraftFilter) ([]domain.RepairDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.RepairDraft, 0, len(s.drafts))
	for _, d := range s.drafts {
		if f.Step != "" && d.Step != f.Step {
			continue
		}
		if f.CreatedFrom != "" && string(d.CreatedFrom) != f.CreatedFrom {
			continue
		}
		res = append(res, d)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].UpdatedAt.After(res[j].UpdatedAt) })
	return res, nil
}

func (s *MemoryStore) GetDraft(id string) (domain.RepairDraft, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[id]
	return d, ok, nil
}

func (s *MemoryStore) UpdateDraft(id string, step string, payload domain.DraftPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return ErrNotFound
	}
	d.Step = step
	d.Payload = payload
	d.UpdatedAt = time.Now().UTC()
	s.drafts[id] = d
	return nil
}

func (s *MemoryStore) DeleteDraft(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	return nil
}

func (s *MemoryStore) CreateRepairEvent(e domain.RepairEvent) (domain.RepairEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
	return e, nil
}

func (s *MemoryStore) ListRepairEvents(f RepairFilter) ([]domain.RepairEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.RepairEvent, 0, len(s.events))
	for _, e := range s.events {
		if f.From != nil && e.StartedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && e.StartedAt.After(*f.To) {
			continue
		}
		if f.VehicleID != "" && e.VehicleID != f.VehicleID {
			continue
		}
		if f.EventType != "" && string(e.EventType) != f.EventType {
			continue
		}
		if f.Status != "" && string(e.Status) != f.Status {
			continue
		}
		if f.CategoryCode != "" && e.CategoryCode != f.CategoryCode {
			continue
		}
		if f.HasDocs && len(e.Attachments) == 0 {
			continue
		}
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].StartedAt.After(res[j].StartedAt) })
	return res, nil
}

func (s *MemoryStore) GetRepairEvent(id string) (domain.RepairEvent, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	return e, ok, nil
}

func (s *MemoryStore) UpdateRepairEvent(e domain.RepairEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.events[e.ID]
	if !ok {
		return ErrNotFound
	}
	e.Works = existing.Works
	e.Parts = existing.Parts
	e.Attachments = existing.Attachments
	s.events[e.ID] = e
	return nil
}

func (s *MemoryStore) ReplaceRepairWorks(eventID string, works []domain.RepairWork) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return ErrNotFound
	}
	copied := make([]domain.RepairWork, len(works))
	copy(copied, works)
	for i := range copied {
		copied[i].RepairEventID = eventID
	}
	e.Works = copied
	s.events[eventID] = e
	return nil
}

func (s *MemoryStore) ReplaceRepairParts(eventID string, parts []domain.RepairPart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return ErrNotFound
	}
	copied := make([]domain.RepairPart, len(parts))
	copy(copied, parts)
	for i := range copied {
		copied[i].RepairEventID = eventID
	}
	e.Parts = copied
	s.events[eventID] = e
	return nil
}

func (s *MemoryStore) DeleteRepairEvent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, id)
	return nil
}

func (s *MemoryStore) CreateAttachment(a domain.RepairAttachment) (domain.RepairAttachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[a.RepairEventID]
	if !ok {
		return domain.RepairAttachment{}, ErrNotFound
	}
	e.Attachments = append(e.Attachments, a)
	s.events[a.RepairEventID] = e
	return a, nil
}

func (s *MemoryStore) GetAttachment(id string) (domain.RepairAttachment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		for _, a := range e.Attachments {
			if a.ID == id {
				return a, true, nil
			}
		}
	}
	return domain.RepairAttachment{}, false, nil
}

func (s *MemoryStore) DeleteAttachment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for eid, e := range s.events {
		for i, a := range e.Attachments {
			if a.ID == id {
				e.Attachments = append(e.Attachments[:i], e.Attachments[i+1:]...)
				s.events[eid] = e
				return nil
			}
		}
	}
	return nil
}

func (s *MemoryStore) ListMaintenanceItems(vehicleID string, activeOnly bool) ([]domain.MaintenanceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.MaintenanceItem, 0, len(s.maintenance))
	for _, m := range s.maintenance {
		if vehicleID != "" && m.VehicleID != vehicleID {
			continue
		}
		if activeOnly && !m.IsActive {
			continue
		}
		res = append(res, m)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (s *MemoryStore) GetMaintenanceItem(id string) (domain.MaintenanceItem, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.maintenance[id]
	return m, ok, nil
}

func (s *MemoryStore) SaveMaintenanceItem(m domain.MaintenanceItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maintenance[m.ID] = m
	return nil
}

func (s *MemoryStore) SetMaintenanceNotified(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.maintenance[id]
	if !ok {
		return ErrNotFound
	}
	m.LastNotifiedAt = &at
	m.UpdatedAt = time.Now().UTC()
	s.maintenance[id] = m
	return nil
}

func (s *MemoryStore) DeleteMaintenanceItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.maintenance, id)
	return nil
}

func (s *MemoryStore) ListAccidents(vehicleID string) ([]domain.AccidentEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.AccidentEvent, 0, len(s.accidents))
	for _, a := range s.accidents {
		if vehicleID != "" && a.VehicleID != vehicleID {
			continue
		}
		res = append(res, a)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].OccurredAt.After(res[j].OccurredAt) })
	return res, nil
}

func (s *MemoryStore) GetAccident(id string) (domain.AccidentEvent, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accidents[id]
	return a, ok, nil
}

func (s *MemoryStore) SaveAccident(a domain.AccidentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accidents[a.ID] = a
	return nil
}

func (s *MemoryStore) DeleteAccident(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accidents, id)
	return nil
}

func (s *MemoryStore) ListPartsSpecs(vehicleID string) ([]domain.VehiclePartsSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.VehiclePartsSpec, 0, len(s.partsSpecs))
	for _, spec := range s.partsSpecs {
		if vehicleID != "" && spec.VehicleID != vehicleID {
			continue
		}
		res = append(res, spec)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (s *MemoryStore) GetPartsSpec(id string) (domain.VehiclePartsSpec, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	spec, ok := s.partsSpecs[id]
	return spec, ok, nil
}

func (s *MemoryStore) SavePartsSpec(spec domain.VehiclePartsSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partsSpecs[spec.ID] = spec
	return nil
}

func (s *MemoryStore) DeletePartsSpec(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.partsSpecs, id)
	return nil
}
