package wizard

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"fuelcontrol/internal/domain"
	"fuelcontrol/internal/receipts"
	"fuelcontrol/internal/storage"
	"fuelcontrol/internal/store"
	"fuelcontrol/internal/telegram"
)

type fakeBot struct {
	sent     []string
	markups  []*telegram.ReplyMarkup
	fileData []byte
}

func (f *fakeBot) SendMessage(_ int64, text string, markup *telegram.ReplyMarkup) error {
	f.sent = append(f.sent, text)
	f.markups = append(f.markups, markup)
	return nil
}

func (f *fakeBot) AnswerCallbackQuery(string) error { return nil }

func (f *fakeBot) GetFile(fileID string) (telegram.File, error) {
	return telegram.File{FileID: fileID, FilePath: "documents/invoice.pdf"}, nil
}

func (f *fakeBot) DownloadFile(string) ([]byte, error) {
	return f.fileData, nil
}

func (f *fakeBot) lastMessage() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fixture struct {
	st      *store.MemoryStore
	bot     *fakeBot
	wiz     *Wizard
	vehicle domain.Vehicle
	chatID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	bot := &fakeBot{fileData: []byte("pdf-bytes")}
	blobs, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	vehicle := domain.Vehicle{
		ID:          store.NewID(),
		Name:        "GAZelle",
		PlateNumber: "A123BC",
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := st.SaveVehicle(vehicle); err != nil {
		t.Fatalf("save vehicle: %v", err)
	}
	return &fixture{
		st:      st,
		bot:     bot,
		wiz:     New(st, bot, blobs, receipts.NewService(st, nil), nil),
		vehicle: vehicle,
		chatID:  100,
	}
}

func (f *fixture) text(t *testing.T, text string) {
	t.Helper()
	f.wiz.HandleMessage(telegram.Message{Chat: telegram.Chat{ID: f.chatID}, Text: text})
}

func (f *fixture) callback(t *testing.T, data string) {
	t.Helper()
	f.wiz.HandleCallback(telegram.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &telegram.Message{Chat: telegram.Chat{ID: f.chatID}},
	})
}

func (f *fixture) draft(t *testing.T) domain.RepairDraft {
	t.Helper()
	d, found, err := f.st.LatestDraftByChat(strconv.FormatInt(f.chatID, 10))
	if err != nil || !found {
		t.Fatalf("draft missing: found=%v err=%v", found, err)
	}
	return d
}

// walkToWorks drives a fresh draft up to the WORKS step.
func (f *fixture) walkToWorks(t *testing.T) {
	t.Helper()
	f.text(t, btnNewRepair)
	f.callback(t, "vehicle:"+f.vehicle.ID)
	f.callback(t, "type:REPAIR")
	f.text(t, "12 500")
	f.callback(t, "category:ENGINE")
	f.text(t, "Knocking at idle")
}

func TestHappyPathCreatesEvent(t *testing.T) {
	f := newFixture(t)
	f.walkToWorks(t)

	f.text(t, "Oil change")
	f.text(t, "Done")
	f.text(t, "Fuel filter; 2; 500")
	f.text(t, "done")
	f.text(t, "Skip")

	preview := f.bot.lastMessage()
	for _, want := range []string{"Vehicle: A123BC", "Type: Repair", "Odometer: 12500", "Category: Engine", "Works: 1", "Parts: 1", "Documents: 0"} {
		if !strings.Contains(preview, want) {
			t.Fatalf("preview missing %q:\n%s", want, preview)
		}
	}

	f.callback(t, "submit")

	events, err := f.st.ListRepairEvents(store.RepairFilter{})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e, _, _ := f.st.GetRepairEvent(events[0].ID)
	if e.OdometerKm != 12500 {
		t.Fatalf("odometer = %d", e.OdometerKm)
	}
	if e.Status != domain.RepairInProgress || e.PaymentStatus != domain.PaymentUnpaid {
		t.Fatalf("unexpected status %s/%s", e.Status, e.PaymentStatus)
	}
	if len(e.Parts) != 1 || e.Parts[0].TotalPrice != 1000 {
		t.Fatalf("unexpected parts: %+v", e.Parts)
	}
	if e.TotalCostParts != 1000 || e.TotalCost != 1000 {
		t.Fatalf("totals = %v/%v", e.TotalCostParts, e.TotalCost)
	}

	// The draft is gone after submit.
	if _, found, _ := f.st.LatestDraftByChat(strconv.FormatInt(f.chatID, 10)); found {
		t.Fatal("draft should be deleted after submit")
	}

	// No receipt mileage on record, so the odometer stays unset.
	v, _, _ := f.st.GetVehicle(f.vehicle.ID)
	if v.CurrentOdometerKm != nil {
		t.Fatalf("odometer refresh should be a no-op, got %v", *v.CurrentOdometerKm)
	}
}

func TestSentinelWithEmptyListAdvances(t *testing.T) {
	f := newFixture(t)
	f.walkToWorks(t)

	f.text(t, "Done")
	d := f.draft(t)
	if d.Step != StepParts {
		t.Fatalf("step = %s, want PARTS", d.Step)
	}
	if len(d.Payload.Works) != 0 {
		t.Fatalf("works should stay empty, got %d", len(d.Payload.Works))
	}

	f.text(t, "Done")
	d = f.draft(t)
	if d.Step != StepAttachments {
		t.Fatalf("step = %s, want ATTACHMENTS", d.Step)
	}
	if len(d.Payload.Parts) != 0 {
		t.Fatalf("parts should stay empty, got %d", len(d.Payload.Parts))
	}
}

func TestMalformedPartLineRejected(t *testing.T) {
	f := newFixture(t)
	f.walkToWorks(t)
	f.text(t, "Done")

	f.text(t, "Fuel filter; two; 500")
	d := f.draft(t)
	if d.Step != StepParts {
		t.Fatalf("step = %s, must not advance", d.Step)
	}
	if len(d.Payload.Parts) != 0 {
		t.Fatalf("parts must stay empty, got %+v", d.Payload.Parts)
	}
	if !strings.Contains(f.bot.lastMessage(), "Format:") {
		t.Fatalf("expected format re-prompt, got %q", f.bot.lastMessage())
	}

	f.text(t, "Fuel filter; 1,5; 500")
	d = f.draft(t)
	if len(d.Payload.Parts) != 1 {
		t.Fatalf("comma decimal should parse, got %+v", d.Payload.Parts)
	}
	if d.Payload.Parts[0].TotalPrice != 750 {
		t.Fatalf("total = %v, want 750", d.Payload.Parts[0].TotalPrice)
	}
}

func TestNonNumericOdometerReprompts(t *testing.T) {
	f := newFixture(t)
	f.text(t, btnNewRepair)
	f.callback(t, "vehicle:"+f.vehicle.ID)
	f.callback(t, "type:MAINTENANCE")

	f.text(t, "lots")
	d := f.draft(t)
	if d.Step != StepOdometer {
		t.Fatalf("step = %s, must not advance", d.Step)
	}
	if d.Payload.OdometerKm != 0 {
		t.Fatalf("payload mutated: %d", d.Payload.OdometerKm)
	}

	f.text(t, "14600")
	d = f.draft(t)
	if d.Step != StepCategory || d.Payload.OdometerKm != 14600 {
		t.Fatalf("step=%s odometer=%d", d.Step, d.Payload.OdometerKm)
	}
}

func TestUnknownVehicleStaysInPlace(t *testing.T) {
	f := newFixture(t)
	f.text(t, btnNewRepair)
	f.callback(t, "vehicle:missing")

	d := f.draft(t)
	if d.Step != StepSelectVehicle {
		t.Fatalf("step = %s, must stay in SELECT_VEHICLE", d.Step)
	}
	if !strings.Contains(f.bot.lastMessage(), "not found") {
		t.Fatalf("expected error message, got %q", f.bot.lastMessage())
	}
}

func TestEditWorksResetsList(t *testing.T) {
	f := newFixture(t)
	f.walkToWorks(t)
	f.text(t, "Oil change")
	f.text(t, "Diagnostics")
	f.text(t, "Done")
	f.text(t, "Done")
	f.text(t, "Skip")

	f.callback(t, "edit")
	f.callback(t, "edit:works")

	d := f.draft(t)
	if d.Step != StepWorks {
		t.Fatalf("step = %s, want WORKS", d.Step)
	}
	if len(d.Payload.Works) != 0 {
		t.Fatalf("works must be reset, got %d entries", len(d.Payload.Works))
	}
	// Other fields are preserved for in-place overwrite.
	if d.Payload.OdometerKm != 12500 || d.Payload.CategoryCode != "ENGINE" {
		t.Fatalf("payload lost fields: %+v", d.Payload)
	}
}

func TestAttachmentStoredAndCounted(t *testing.T) {
	f := newFixture(t)
	f.walkToWorks(t)
	f.text(t, "Done")
	f.text(t, "Done")

	f.wiz.HandleMessage(telegram.Message{
		Chat: telegram.Chat{ID: f.chatID},
		Document: &telegram.Document{
			FileID:   "doc-1",
			FileName: "invoice.pdf",
			MimeType: "application/pdf",
		},
	})

	d := f.draft(t)
	if len(d.Payload.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(d.Payload.Attachments))
	}
	att := d.Payload.Attachments[0]
	if att.FileType != domain.AttachmentOrder {
		t.Fatalf("fileType = %s, want ORDER", att.FileType)
	}
	if att.FileName != "invoice.pdf" || att.Size != int64(len("pdf-bytes")) {
		t.Fatalf("unexpected descriptor: %+v", att)
	}
	if !strings.Contains(att.StorageKey, "doc-1") || !strings.HasSuffix(att.StorageKey, ".pdf") {
		t.Fatalf("storage key = %q", att.StorageKey)
	}

	f.text(t, "Skip")
	if !strings.Contains(f.bot.lastMessage(), "Documents: 1") {
		t.Fatalf("preview should count the document:\n%s", f.bot.lastMessage())
	}
}

func TestSubmitRefreshesOdometerFromReceipts(t *testing.T) {
	f := newFixture(t)
	mileage := 14600
	_, err := f.st.CreateReceipt(domain.Receipt{
		ID:        store.NewID(),
		VehicleID: f.vehicle.ID,
		ReceiptAt: time.Now().UTC(),
		Mileage:   &mileage,
	}, nil)
	if err != nil {
		t.Fatalf("seed receipt: %v", err)
	}

	f.walkToWorks(t)
	f.text(t, "Done")
	f.text(t, "Done")
	f.text(t, "Skip")
	f.callback(t, "submit")

	v, _, _ := f.st.GetVehicle(f.vehicle.ID)
	if v.CurrentOdometerKm == nil || *v.CurrentOdometerKm != 14600 {
		t.Fatalf("odometer = %v, want 14600", v.CurrentOdometerKm)
	}
}

func TestNewDraftDoesNotDeleteOldOnes(t *testing.T) {
	f := newFixture(t)
	f.text(t, btnNewRepair)
	f.text(t, btnNewRepair)

	drafts, err := f.st.ListDraftsByChat(strconv.FormatInt(f.chatID, 10), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 coexisting drafts, got %d", len(drafts))
	}
}

func TestParsePartLine(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want domain.DraftPart
	}{
		{"Fuel filter; 2; 500", true, domain.DraftPart{PartName: "Fuel filter", Qty: 2, UnitPrice: 500, TotalPrice: 1000}},
		{"Brake pad;1;1200,50", true, domain.DraftPart{PartName: "Brake pad", Qty: 1, UnitPrice: 1200.5, TotalPrice: 1200.5}},
		{"Fuel filter; two; 500", false, domain.DraftPart{}},
		{"Fuel filter; 2", false, domain.DraftPart{}},
		{"; 2; 500", false, domain.DraftPart{}},
	}
	for _, tc := range cases {
		got, ok := parsePartLine(tc.in)
		if ok != tc.ok {
			t.Fatalf("parsePartLine(%q) ok = %v, want %v", tc.in, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("parsePartLine(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}
