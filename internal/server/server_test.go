package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fuelcontrol/internal/auth"
	"fuelcontrol/internal/domain"
	"fuelcontrol/internal/notifier"
	"fuelcontrol/internal/receipts"
	"fuelcontrol/internal/storage"
	"fuelcontrol/internal/store"
	"fuelcontrol/internal/wizard"
)

type testEnv struct {
	ts    *httptest.Server
	store *store.MemoryStore
	token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.NewMemoryStore()
	hash, err := auth.HashPassword("secret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	manager, err := auth.NewManager("test-signing-secret", "admin", hash)
	if err != nil {
		t.Fatalf("auth manager: %v", err)
	}
	blobs, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	svc := receipts.NewService(st, nil)
	srv, err := New(Config{
		Store:       st,
		Auth:        manager,
		Blobs:       blobs,
		Receipts:    svc,
		Maintenance: notifier.New(st, nil, 1, 9, time.Minute, nil),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	env := &testEnv{ts: ts, store: st}
	env.token = env.login(t, "admin", "secret")
	return env
}

func (e *testEnv) login(t *testing.T, login, password string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"login": login, "password": password,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if body["token"] == "" {
		t.Fatal("login returned empty token")
	}
	return body["token"]
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func (e *testEnv) seedVehicle(t *testing.T) domain.Vehicle {
	t.Helper()
	now := time.Now().UTC()
	v := domain.Vehicle{
		ID:          store.NewID(),
		Name:        "GAZelle",
		PlateNumber: "A123BC",
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.SaveVehicle(v); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	return v
}

func TestHealthzNeedsNoAuth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/healthz", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"login": "admin", "password": "wrong",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/vehicles", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMeReturnsLogin(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/auth/me", env.token, nil)
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["login"] != "admin" {
		t.Fatalf("me returned %q", body["login"])
	}
}

func TestVehicleCRUD(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/vehicles", env.token, map[string]any{
		"name": "GAZelle", "plateNumber": "A123BC",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d", resp.StatusCode)
	}
	var vehicle domain.Vehicle
	decodeBody(t, resp, &vehicle)
	if vehicle.ID == "" || !vehicle.IsActive {
		t.Fatalf("unexpected vehicle: %+v", vehicle)
	}

	resp = env.do(t, http.MethodPatch, "/api/vehicles/"+vehicle.ID, env.token, map[string]any{
		"isActive": false, "sortOrder": 5,
	})
	var patched domain.Vehicle
	decodeBody(t, resp, &patched)
	if patched.IsActive || patched.SortOrder != 5 {
		t.Fatalf("patch not applied: %+v", patched)
	}

	resp = env.do(t, http.MethodGet, "/api/vehicles/"+vehicle.ID+"/odometer", env.token, nil)
	var odo map[string]any
	decodeBody(t, resp, &odo)
	if odo["vehicleId"] != vehicle.ID {
		t.Fatalf("odometer for wrong vehicle: %v", odo)
	}

	resp = env.do(t, http.MethodDelete, "/api/vehicles/"+vehicle.ID, env.token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodGet, "/api/vehicles/"+vehicle.ID, env.token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestRepairLifecycle(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t)

	resp := env.do(t, http.MethodPost, "/api/repairs", env.token, map[string]any{
		"vehicleId":    vehicle.ID,
		"eventType":    "REPAIR",
		"odometerKm":   12500,
		"categoryCode": "ENGINE",
		"symptomsText": "Knocking on cold start",
		"works":        []map[string]any{{"workName": "Diagnostics", "cost": 1500}},
		"parts":        []map[string]any{{"partName": "Spark plug", "qty": 4, "unitPrice": 300}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d", resp.StatusCode)
	}
	var event domain.RepairEvent
	decodeBody(t, resp, &event)
	if event.TotalCostWork != 1500 || event.TotalCostParts != 1200 || event.TotalCost != 2700 {
		t.Fatalf("totals wrong: %+v", event)
	}

	// Replacing parts recomputes the stored totals.
	resp = env.do(t, http.MethodPut, "/api/repairs/"+event.ID+"/parts", env.token, []map[string]any{
		{"partName": "Oil filter", "qty": 1, "unitPrice": 700},
	})
	var replaced domain.RepairEvent
	decodeBody(t, resp, &replaced)
	if replaced.TotalCostParts != 700 || replaced.TotalCost != 2200 {
		t.Fatalf("totals not recomputed: %+v", replaced)
	}
	if len(replaced.Parts) != 1 || replaced.Parts[0].PartName != "Oil filter" {
		t.Fatalf("parts not replaced: %+v", replaced.Parts)
	}

	// Closing the event stamps finishedAt.
	resp = env.do(t, http.MethodPatch, "/api/repairs/"+event.ID, env.token, map[string]any{
		"status": "DONE", "paymentStatus": "PAID",
	})
	var closed domain.RepairEvent
	decodeBody(t, resp, &closed)
	if closed.Status != domain.RepairDone || closed.FinishedAt == nil {
		t.Fatalf("event not closed: %+v", closed)
	}
	if closed.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("payment status: %s", closed.PaymentStatus)
	}
}

func TestRepairSummary(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t)
	for i, category := range []string{"ENGINE", "ENGINE", "BRAKES"} {
		resp := env.do(t, http.MethodPost, "/api/repairs", env.token, map[string]any{
			"vehicleId":    vehicle.ID,
			"categoryCode": category,
			"works":        []map[string]any{{"workName": fmt.Sprintf("Work %d", i), "cost": 1000}},
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create %d status %d", i, resp.StatusCode)
		}
	}

	resp := env.do(t, http.MethodGet, "/api/repairs/summary", env.token, nil)
	var summary struct {
		Count      int     `json:"count"`
		TotalCost  float64 `json:"totalCost"`
		ByCategory map[string]struct {
			Count     int     `json:"count"`
			TotalCost float64 `json:"totalCost"`
		} `json:"byCategory"`
	}
	decodeBody(t, resp, &summary)
	if summary.Count != 3 || summary.TotalCost != 3000 {
		t.Fatalf("summary totals: %+v", summary)
	}
	if summary.ByCategory["ENGINE"].Count != 2 || summary.ByCategory["BRAKES"].TotalCost != 1000 {
		t.Fatalf("summary buckets: %+v", summary.ByCategory)
	}
}

func TestReceiptIngestionAndDedup(t *testing.T) {
	env := newTestEnv(t)
	payload := map[string]any{
		"driver":  map[string]any{"telegramUserId": "777", "fullName": "Ivan"},
		"vehicle": map[string]any{"plateNumber": "A123BC"},
		"receipt": map[string]any{
			"stationName": "Lukoil",
			"totalAmount": 3200.5,
			"mileage":     14600,
			"fuelType":    "AI95",
			"qrRaw":       "t=20240810&s=3200.50",
		},
		"items": []map[string]any{{"name": "AI-95", "amount": 3200.5}},
	}

	resp := env.do(t, http.MethodPost, "/api/receipts", env.token, payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first ingest status %d", resp.StatusCode)
	}
	var first receipts.Result
	decodeBody(t, resp, &first)
	if first.Deduped {
		t.Fatal("first ingest must not dedup")
	}
	if first.Receipt.FuelGroup != domain.FuelBenzin {
		t.Fatalf("fuel group: %s", first.Receipt.FuelGroup)
	}

	resp = env.do(t, http.MethodPost, "/api/receipts", env.token, payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second ingest status %d", resp.StatusCode)
	}
	var second receipts.Result
	decodeBody(t, resp, &second)
	if !second.Deduped || second.Receipt.ID != first.Receipt.ID {
		t.Fatalf("dedup failed: first=%s second=%+v", first.Receipt.ID, second)
	}

	// The derived odometer followed the receipt mileage.
	resp = env.do(t, http.MethodGet, "/api/vehicles/"+first.VehicleID+"/odometer", env.token, nil)
	var odo struct {
		CurrentOdometerKm *int `json:"currentOdometerKm"`
	}
	decodeBody(t, resp, &odo)
	if odo.CurrentOdometerKm == nil || *odo.CurrentOdometerKm != 14600 {
		t.Fatalf("odometer not refreshed: %v", odo.CurrentOdometerKm)
	}
}

func TestDraftSubmit(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t)

	payload := domain.NewDraftPayload()
	payload.VehicleID = vehicle.ID
	payload.VehiclePlate = vehicle.PlateNumber
	payload.EventType = domain.EventRepair
	payload.OdometerKm = 12500
	payload.CategoryCode = "BRAKES"
	payload.SymptomsText = "Squeal when braking"
	payload.Works = append(payload.Works, domain.DraftWork{WorkName: "Pad replacement", Cost: 2000})

	now := time.Now().UTC()
	draft, err := env.store.CreateDraft(domain.RepairDraft{
		ID:          store.NewID(),
		ChatID:      "100",
		Step:        wizard.StepPreview,
		Payload:     payload,
		CreatedFrom: domain.FromTelegramBot,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("seed draft: %v", err)
	}

	resp := env.do(t, http.MethodPost, "/api/drafts/"+draft.ID+"/submit", env.token, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status %d", resp.StatusCode)
	}
	var event domain.RepairEvent
	decodeBody(t, resp, &event)
	if event.VehicleID != vehicle.ID || event.CategoryCode != "BRAKES" || event.TotalCost != 2000 {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.CreatedFrom != domain.FromTelegramBot {
		t.Fatalf("createdFrom: %s", event.CreatedFrom)
	}
	if _, found, _ := env.store.GetDraft(draft.ID); found {
		t.Fatal("draft must be deleted after submit")
	}
}

func TestAttachmentUploadAndDownload(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t)

	resp := env.do(t, http.MethodPost, "/api/repairs", env.token, map[string]any{
		"vehicleId": vehicle.ID,
	})
	var event domain.RepairEvent
	decodeBody(t, resp, &event)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "invoice.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 fake invoice")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.WriteField("type", "ORDER"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, env.ts.URL+"/api/repairs/"+event.ID+"/attachments", &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token)
	uploadResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if uploadResp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status %d", uploadResp.StatusCode)
	}
	var attachment domain.RepairAttachment
	decodeBody(t, uploadResp, &attachment)
	if attachment.FileType != domain.AttachmentOrder || attachment.FileName != "invoice.pdf" {
		t.Fatalf("unexpected attachment: %+v", attachment)
	}
	if !strings.HasSuffix(attachment.StorageKey, ".pdf") {
		t.Fatalf("storage key: %s", attachment.StorageKey)
	}

	resp = env.do(t, http.MethodGet, "/api/attachments/"+attachment.ID+"/file", env.token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(data) != "%PDF-1.4 fake invoice" {
		t.Fatalf("download content mismatch: %q", data)
	}

	resp = env.do(t, http.MethodDelete, "/api/attachments/"+attachment.ID, env.token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodGet, "/api/attachments/"+attachment.ID, env.token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestMaintenanceMarkDoneAndRunOnce(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t)

	resp := env.do(t, http.MethodPost, "/api/maintenance", env.token, map[string]any{
		"vehicleId":          vehicle.ID,
		"name":               "Oil change",
		"intervalKm":         5000,
		"lastDoneOdometerKm": 10000,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d", resp.StatusCode)
	}
	var item domain.MaintenanceItem
	decodeBody(t, resp, &item)
	if item.NotifyBeforeKm != 500 || item.NotifyBeforeDays != 7 {
		t.Fatalf("defaults not applied: %+v", item)
	}

	// Nothing is due on a fresh item.
	resp = env.do(t, http.MethodPost, "/api/maintenance/run-once", env.token, nil)
	var runOnce map[string]string
	decodeBody(t, resp, &runOnce)
	if runOnce["status"] != "nothing due" {
		t.Fatalf("expected nothing due, got %v", runOnce)
	}

	// Push the vehicle past the interval and the scan fires.
	if err := env.store.SetVehicleOdometer(vehicle.ID, 15100); err != nil {
		t.Fatalf("set odometer: %v", err)
	}
	resp = env.do(t, http.MethodPost, "/api/maintenance/run-once", env.token, nil)
	decodeBody(t, resp, &runOnce)
	if !strings.Contains(runOnce["text"], "overdue by 100 km") {
		t.Fatalf("expected overdue alert, got %v", runOnce)
	}

	resp = env.do(t, http.MethodPost, "/api/maintenance/"+item.ID+"/done", env.token, map[string]any{
		"odometerKm": 15100, "createEvent": true,
	})
	var done struct {
		Item  domain.MaintenanceItem `json:"item"`
		Event *domain.RepairEvent    `json:"event"`
	}
	decodeBody(t, resp, &done)
	if done.Item.LastDoneOdometerKm == nil || *done.Item.LastDoneOdometerKm != 15100 {
		t.Fatalf("last done odometer: %+v", done.Item)
	}
	if done.Item.LastNotifiedAt != nil {
		t.Fatal("mark done must clear lastNotifiedAt")
	}
	if done.Event == nil || done.Event.EventType != domain.EventMaintenance || done.Event.Status != domain.RepairDone {
		t.Fatalf("expected finished maintenance event, got %+v", done.Event)
	}
}

func TestRepairCategoriesOrdered(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/repair-categories", env.token, nil)
	var body struct {
		Items []struct {
			Code  string `json:"code"`
			Label string `json:"label"`
		} `json:"items"`
	}
	decodeBody(t, resp, &body)
	if len(body.Items) != len(domain.RepairCategoryOrder) {
		t.Fatalf("category count %d", len(body.Items))
	}
	if body.Items[0].Code != "ENGINE" || body.Items[len(body.Items)-1].Code != "OTHER" {
		t.Fatalf("category order broken: %v", body.Items)
	}
}
