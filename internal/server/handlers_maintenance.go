package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"fuelcontrol/internal/domain"
	"fuelcontrol/internal/notifier"
	"fuelcontrol/internal/store"
)

type maintenanceRequest struct {
	VehicleID          *string    `json:"vehicleId"`
	Name               *string    `json:"name"`
	IntervalKm         *int       `json:"intervalKm"`
	IntervalDays       *int       `json:"intervalDays"`
	LastDoneAt         *time.Time `json:"lastDoneAt"`
	LastDoneOdometerKm *int       `json:"lastDoneOdometerKm"`
	NotifyBeforeKm     *int       `json:"notifyBeforeKm"`
	NotifyBeforeDays   *int       `json:"notifyBeforeDays"`
	IsActive           *bool      `json:"isActive"`
}

func (s *Server) handleMaintenance(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		items, err := s.store.ListMaintenanceItems(q.Get("vehicleId"), q.Get("active") == "true")
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	case http.MethodPost:
		var req maintenanceRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.VehicleID == nil || *req.VehicleID == "" {
			writeError(w, http.StatusBadRequest, "vehicleId is required")
			return
		}
		if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		if _, found, err := s.store.GetVehicle(*req.VehicleID); err != nil {
			s.writeStoreError(w, err)
			return
		} else if !found {
			writeError(w, http.StatusBadRequest, "unknown vehicle")
			return
		}
		now := time.Now().UTC()
		item := domain.MaintenanceItem{
			ID:                 store.NewID(),
			VehicleID:          *req.VehicleID,
			Name:               strings.TrimSpace(*req.Name),
			IntervalKm:         req.IntervalKm,
			IntervalDays:       req.IntervalDays,
			LastDoneAt:         req.LastDoneAt,
			LastDoneOdometerKm: req.LastDoneOdometerKm,
			NotifyBeforeKm:     500,
			NotifyBeforeDays:   7,
			IsActive:           true,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if req.NotifyBeforeKm != nil {
			item.NotifyBeforeKm = *req.NotifyBeforeKm
		}
		if req.NotifyBeforeDays != nil {
			item.NotifyBeforeDays = *req.NotifyBeforeDays
		}
		if req.IsActive != nil {
			item.IsActive = *req.IsActive
		}
		if err := s.store.SaveMaintenanceItem(item); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	default:
		methodNotAllowed(w)
	}
}

// /api/maintenance/run-once, /api/maintenance/{id} or /api/maintenance/{id}/done
func (s *Server) handleMaintenanceByID(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/api/maintenance/")
	if len(parts) == 0 || len(parts) > 2 {
		notFound(w, "not found")
		return
	}
	if len(parts) == 1 && parts[0] == "run-once" {
		s.handleMaintenanceRunOnce(w, r)
		return
	}
	id := parts[0]
	if len(parts) == 2 {
		if parts[1] != "done" || r.Method != http.MethodPost {
			notFound(w, "not found")
			return
		}
		s.handleMaintenanceDone(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, found, err := s.store.GetMaintenanceItem(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if !found {
			notFound(w, "maintenance item not found")
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodPatch:
		s.handleMaintenancePatch(w, r, id)
	case http.MethodDelete:
		if err := s.store.DeleteMaintenanceItem(id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleMaintenancePatch(w http.ResponseWriter, r *http.Request, id string) {
	var req maintenanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	item, found, err := s.store.GetMaintenanceItem(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !found {
		notFound(w, "maintenance item not found")
		return
	}
	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.IntervalKm != nil {
		item.IntervalKm = req.IntervalKm
	}
	if req.IntervalDays != nil {
		item.IntervalDays = req.IntervalDays
	}
	if req.LastDoneAt != nil {
		item.LastDoneAt = req.LastDoneAt
	}
	if req.LastDoneOdometerKm != nil {
		item.LastDoneOdometerKm = req.LastDoneOdometerKm
	}
	if req.NotifyBeforeKm != nil {
		item.NotifyBeforeKm = *req.NotifyBeforeKm
	}
	if req.NotifyBeforeDays != nil {
		item.NotifyBeforeDays = *req.NotifyBeforeDays
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveMaintenanceItem(item); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleMaintenanceDone records a completed service: refreshes the last-done
// markers, clears the notification stamp and optionally records a finished
// maintenance event.
func (s *Server) handleMaintenanceDone(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		DoneAt      *time.Time `json:"doneAt"`
		OdometerKm  *int       `json:"odometerKm"`
		CreateEvent bool       `json:"createEvent"`
	}
	// An empty body marks the item done right now.
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	item, found, err := s.store.GetMaintenanceItem(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !found {
		notFound(w, "maintenance item not found")
		return
	}

	doneAt := time.Now().UTC()
	if req.DoneAt != nil {
		doneAt = req.DoneAt.UTC()
	}
	odometer := req.OdometerKm
	if odometer == nil {
		vehicle, vfound, err := s.store.GetVehicle(item.VehicleID)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if vfound {
			odometer = vehicle.CurrentOdometerKm
		}
	}
	item.LastDoneAt = &doneAt
	if odometer != nil {
		item.LastDoneOdometerKm = odometer
	}
	item.LastNotifiedAt = nil
	item.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveMaintenanceItem(item); err != nil {
		s.writeStoreError(w, err)
		return
	}

	response := map[string]any{"item": item}
	if req.CreateEvent {
		now := time.Now().UTC()
		event := domain.RepairEvent{
			ID:            store.NewID(),
			VehicleID:     item.VehicleID,
			EventType:     domain.EventMaintenance,
			Status:        domain.RepairDone,
			StartedAt:     doneAt,
			FinishedAt:    &doneAt,
			CategoryCode:  "OTHER",
			SymptomsText:  item.Name,
			PaymentStatus: domain.PaymentUnpaid,
			CreatedFrom:   domain.FromWeb,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if odometer != nil {
			event.OdometerKm = *odometer
		}
		created, err := s.store.CreateRepairEvent(event)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		response["event"] = created
	}
	writeJSON(w, http.StatusOK, response)
}

// handleMaintenanceRunOnce triggers the due scan immediately and returns the
// composed alert text without waiting for the daily schedule.
func (s *Server) handleMaintenanceRunOnce(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.maintenance == nil {
		writeError(w, http.StatusInternalServerError, "notifier not configured")
		return
	}
	text, err := s.maintenance.RunOnce()
	if err != nil {
		if errors.Is(err, notifier.ErrNothingDue) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "nothing due"})
			return
		}
		s.logger.Error("maintenance run-once failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "text": text})
}

type accidentRequest struct {
	VehicleID     *string    `json:"vehicleId"`
	OccurredAt    *time.Time `json:"occurredAt"`
	OdometerKm    *int       `json:"odometerKm"`
	Description   *string    `json:"description"`
	Damage        *string    `json:"damage"`
	Repaired      *bool      `json:"repaired"`
	RepairEventID *string    `json:"repairEventId"`
}

func (s *Server) handleAccidents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		accidents, err := s.store.ListAccidents(r.URL.Query().Get("vehicleId"))
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": accidents, "count": len(accidents)})
	case http.MethodPost:
		var req accidentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.VehicleID == nil || *req.VehicleID == "" {
			writeError(w, http.StatusBadRequest, "vehicleId is required")
			return
		}
		if req.Description == nil || strings.TrimSpace(*req.Description) == "" {
			writeError(w, http.StatusBadRequest, "description is required")
			return
		}
		now := time.Now().UTC()
		accident := domain.AccidentEvent{
			ID:          store.NewID(),
			VehicleID:   *req.VehicleID,
			OccurredAt:  now,
			OdometerKm:  req.OdometerKm,
			Description: strings.TrimSpace(*req.Description),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if req.OccurredAt != nil {
			accident.OccurredAt = req.OccurredAt.UTC()
		}
		if req.Damage != nil {
			accident.Damage = *req.Damage
		}
		if req.Repaired != nil {
			accident.Repaired = *req.Repaired
		}
		if req.RepairEventID != nil {
			accident.RepairEventID = *req.RepairEventID
		}
		if err := s.store.SaveAccident(accident); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, accident)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAccidentByID(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/api/accidents/")
	if len(parts) != 1 {
		notFound(w, "not found")
		return
	}
	id := parts[0]
	switch r.Method {
	case http.MethodGet:
		accident, found, err := s.store.GetAccident(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if !found {
			notFound(w, "accident not found")
			return
		}
		writeJSON(w, http.StatusOK, accident)
	case http.MethodPatch:
		var req accidentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		accident, found, err := s.store.GetAccident(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if !found {
			notFound(w, "accident not found")
			return
		}
		if req.OccurredAt != nil {
			accident.OccurredAt = req.OccurredAt.UTC()
		}
		if req.OdometerKm != nil {
			accident.OdometerKm = req.OdometerKm
		}
		if req.Description != nil {
			accident.Description = strings.TrimSpace(*req.Description)
		}
		if req.Damage != nil {
			accident.Damage = *req.Damage
		}
		if req.Repaired != nil {
			accident.Repaired = *req.Repaired
		}
		if req.RepairEventID != nil {
			accident.RepairEventID = *req.RepairEventID
		}
		accident.UpdatedAt = time.Now().UTC()
		if err := s.store.SaveAccident(accident); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, accident)
	case http.MethodDelete:
		if err := s.store.DeleteAccident(id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

type partsSpecRequest struct {
	VehicleID       *string   `json:"vehicleId"`
	GroupCode       *string   `json:"groupCode"`
	RecommendedText *string   `json:"recommendedText"`
	PreferredBrands *[]string `json:"preferredBrands"`
	AvoidBrands     *[]string `json:"avoidBrands"`
	Notes           *string   `json:"notes"`
}

func (s *Server) handlePartsSpecs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		specs, err := s.store.ListPartsSpecs(r.URL.Query().Get("vehicleId"))
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": specs, "count": len(specs)})
	case http.MethodPost:
		var req partsSpecRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.VehicleID == nil || *req.VehicleID == "" {
			writeError(w, http.StatusBadRequest, "vehicleId is required")
			return
		}
		if req.GroupCode == nil || strings.TrimSpace(*req.GroupCode) == "" {
			writeError(w, http.StatusBadRequest, "groupCode is required")
			return
		}
		now := time.Now().UTC()
		spec := domain.VehiclePartsSpec{
			ID:              store.NewID(),
			VehicleID:       *req.VehicleID,
			GroupCode:       strings.ToUpper(strings.TrimSpace(*req.GroupCode)),
			PreferredBrands: []string{},
			AvoidBrands:     []string{},
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if req.RecommendedText != nil {
			spec.RecommendedText = *req.RecommendedText
		}
		if req.PreferredBrands != nil {
			spec.PreferredBrands = *req.PreferredBrands
		}
		if req.AvoidBrands != nil {
			spec.AvoidBrands = *req.AvoidBrands
		}
		if req.Notes != nil {
			spec.Notes = *req.Notes
		}
		if err := s.store.SavePartsSpec(spec); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, spec)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handlePartsSpecByID(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/api/parts-specs/")
	if len(parts) != 1 {
		notFound(w, "not found")
		return
	}
	id := parts[0]
	switch r.Method {
	case http.MethodGet:
		spec, found, err := s.store.GetPartsSpec(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if !found {
			notFound(w, "parts spec not found")
			return
		}
		writeJSON(w, http.StatusOK, spec)
	case http.MethodPatch:
		var req partsSpecRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		spec, found, err := s.store.GetPartsSpec(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if !found {
			notFound(w, "parts spec not found")
			return
		}
		if req.GroupCode != nil {
			spec.GroupCode = strings.ToUpper(strings.TrimSpace(*req.GroupCode))
		}
		if req.RecommendedText != nil {
			spec.RecommendedText = *req.RecommendedText
		}
		if req.PreferredBrands != nil {
			spec.PreferredBrands = *req.PreferredBrands
		}
		if req.AvoidBrands != nil {
			spec.AvoidBrands = *req.AvoidBrands
		}
		if req.Notes != nil {
			spec.Notes = *req.Notes
		}
		spec.UpdatedAt = time.Now().UTC()
		if err := s.store.SavePartsSpec(spec); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, spec)
	case http.MethodDelete:
		if err := s.store.DeletePartsSpec(id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}
