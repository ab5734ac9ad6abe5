package server

import (
	"net/http"
	"strings"
	"time"

	"fuelcontrol/internal/domain"
	"fuelcontrol/internal/store"
)

func (s *Server) handleDrivers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		drivers, err := s.store.ListDrivers()
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": drivers, "count": len(drivers)})
	case http.MethodPost:
		var req struct {
			TelegramUserID string `json:"telegramUserId"`
			FullName       string `json:"fullName"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.TelegramUserID) == "" {
			writeError(w, http.StatusBadRequest, "telegramUserId is required")
			return
		}
		driver, err := s.store.UpsertDriver(strings.TrimSpace(req.TelegramUserID), strings.TrimSpace(req.FullName))
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, driver)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleDriverByID(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/api/drivers/")
	if len(parts) != 1 {
		notFound(w, "not found")
		return
	}
	id := parts[0]
	switch r.Method {
	case http.MethodGet:
		driver, found, err := s.store.GetDriver(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if !found {
			notFound(w, "driver not found")
			return
		}
		writeJSON(w, http.StatusOK, driver)
	case http.MethodPatch:
		var req struct {
			IsActive *bool `json:"isActive"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.IsActive == nil {
			writeError(w, http.StatusBadRequest, "isActive is required")
			return
		}
		if err := s.store.SetDriverActive(id, *req.IsActive); err != nil {
			s.writeStoreError(w, err)
			return
		}
		driver, _, err := s.store.GetDriver(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, driver)
	case http.MethodDelete:
		if err := s.store.DeleteDriver(id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

type vehicleRequest struct {
	Name              *string `json:"name"`
	PlateNumber       *string `json:"plateNumber"`
	IsActive          *bool   `json:"isActive"`
	CurrentOdometerKm *int    `json:"currentOdometerKm"`
	SortOrder         *int    `json:"sortOrder"`
}

func (s *Server) handleVehicles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		activeOnly := r.URL.Query().Get("active") == "true"
		vehicles, err := s.store.ListVehicles(activeOnly)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": vehicles, "count": len(vehicles)})
	case http.MethodPost:
		var req vehicleRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		now := time.Now().UTC()
		vehicle := domain.Vehicle{
			ID:                store.NewID(),
			Name:              strings.TrimSpace(*req.Name),
			IsActive:          true,
			CurrentOdometerKm: req.CurrentOdometerKm,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if req.PlateNumber != nil {
			vehicle.PlateNumber = strings.TrimSpace(*req.PlateNumber)
		}
		if req.IsActive != nil {
			vehicle.IsActive = *req.IsActive
		}
		if req.SortOrder != nil {
			vehicle.SortOrder = *req.SortOrder
		}
		if err := s.store.SaveVehicle(vehicle); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, vehicle)
	default:
		methodNotAllowed(w)
	}
}

// /api/vehicles/{id} or /api/vehicles/{id}/odometer
func (s *Server) handleVehicleByID(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/api/vehicles/")
	if len(parts) == 0 || len(parts) > 2 {
		notFound(w, "not found")
		return
	}
	id := parts[0]
	if len(parts) == 2 {
		if parts[1] != "odometer" {
			notFound(w, "not found")
			return
		}
		s.handleVehicleOdometer(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		vehicle, found, err := s.store.GetVehicle(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if !found {
			notFound(w, "vehicle not found")
			return
		}
		writeJSON(w, http.StatusOK, vehicle)
	case http.MethodPatch:
		s.handleVehiclePatch(w, r, id)
	case http.MethodDelete:
		if err := s.store.DeleteVehicle(id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleVehiclePatch(w http.ResponseWriter, r *http.Request, id string) {
	var req vehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	vehicle, found, err := s.store.GetVehicle(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !found {
		notFound(w, "vehicle not found")
		return
	}
	if req.Name != nil {
		vehicle.Name = strings.TrimSpace(*req.Name)
	}
	if req.PlateNumber != nil {
		vehicle.PlateNumber = strings.TrimSpace(*req.PlateNumber)
	}
	if req.IsActive != nil {
		vehicle.IsActive = *req.IsActive
	}
	if req.CurrentOdometerKm != nil {
		vehicle.CurrentOdometerKm = req.CurrentOdometerKm
	}
	if req.SortOrder != nil {
		vehicle.SortOrder = *req.SortOrder
	}
	vehicle.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveVehicle(vehicle); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

// GET returns the last-known odometer, POST recomputes it from receipts.
func (s *Server) handleVehicleOdometer(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if s.receipts == nil {
			writeError(w, http.StatusInternalServerError, "receipt service not configured")
			return
		}
		if err := s.receipts.RefreshOdometer(id); err != nil {
			s.writeStoreError(w, err)
			return
		}
	default:
		methodNotAllowed(w)
		return
	}
	vehicle, found, err := s.store.GetVehicle(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !found {
		notFound(w, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"vehicleId":         vehicle.ID,
		"currentOdometerKm": vehicle.CurrentOdometerKm,
	})
}
