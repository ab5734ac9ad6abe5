package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"fuelcontrol/internal/auth"
	"fuelcontrol/internal/config"
	"fuelcontrol/internal/domain"
	"fuelcontrol/internal/store"
	"fuelcontrol/internal/util"
)

type seedVehicle struct {
	name  string
	plate string
	items []seedItem
}

type seedItem struct {
	name         string
	intervalKm   *int
	intervalDays *int
}

func intp(v int) *int { return &v }

var fleet = []seedVehicle{
	{
		name:  "GAZelle Next",
		plate: "A123BC777",
		items: []seedItem{
			{name: "Oil and filter change", intervalKm: intp(10000)},
			{name: "Brake pads inspection", intervalKm: intp(15000)},
			{name: "OSAGO renewal", intervalDays: intp(365)},
		},
	},
	{
		name:  "Lada Largus",
		plate: "B456DE777",
		items: []seedItem{
			{name: "Oil and filter change", intervalKm: intp(8000)},
			{name: "Timing belt", intervalKm: intp(60000)},
		},
	},
}

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config file")
	password := flag.String("hash-password", "", "print a bcrypt hash for the given admin password and exit")
	flag.Parse()

	if *password != "" {
		hash, err := auth.HashPassword(*password)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	for order, sv := range fleet {
		vehicle, err := ensureVehicle(st, sv, len(fleet)-order)
		if err != nil {
			log.Fatalf("seed vehicle %s: %v", sv.plate, err)
		}
		for _, item := range sv.items {
			created, err := ensureMaintenanceItem(st, vehicle.ID, item)
			if err != nil {
				log.Fatalf("seed maintenance %q for %s: %v", item.name, sv.plate, err)
			}
			if created {
				logger.Info("maintenance item created", "vehicle", sv.plate, "name", item.name)
			}
		}
	}
	logger.Info("seed finished", "vehicles", len(fleet))
}

// ensureVehicle creates the vehicle unless one with the same plate exists.
func ensureVehicle(st store.Store, sv seedVehicle, sortOrder int) (domain.Vehicle, error) {
	existing, found, err := st.FindVehicleByPlate(sv.plate)
	if err != nil {
		return domain.Vehicle{}, err
	}
	if found {
		return existing, nil
	}
	now := time.Now().UTC()
	vehicle := domain.Vehicle{
		ID:          store.NewID(),
		Name:        sv.name,
		PlateNumber: sv.plate,
		IsActive:    true,
		SortOrder:   sortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := st.SaveVehicle(vehicle); err != nil {
		return domain.Vehicle{}, err
	}
	return vehicle, nil
}

// ensureMaintenanceItem creates the item unless the vehicle already has one
// with the same name. Reports whether a row was created.
func ensureMaintenanceItem(st store.Store, vehicleID string, item seedItem) (bool, error) {
	existing, err := st.ListMaintenanceItems(vehicleID, false)
	if err != nil {
		return false, err
	}
	for _, e := range existing {
		if e.Name == item.name {
			return false, nil
		}
	}
	now := time.Now().UTC()
	return true, st.SaveMaintenanceItem(domain.MaintenanceItem{
		ID:               store.NewID(),
		VehicleID:        vehicleID,
		Name:             item.name,
		IntervalKm:       item.intervalKm,
		IntervalDays:     item.intervalDays,
		NotifyBeforeKm:   500,
		NotifyBeforeDays: 7,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
}
