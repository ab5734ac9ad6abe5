package wizard

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fuelcontrol/internal/domain"
	"fuelcontrol/internal/storage"
	"fuelcontrol/internal/store"
	"fuelcontrol/internal/telegram"
)

// Draft steps, in forward order.
const (
	StepSelectVehicle = "SELECT_VEHICLE"
	StepSelectType    = "SELECT_TYPE"
	StepOdometer      = "ODOMETER"
	StepCategory      = "CATEGORY"
	StepSymptoms      = "SYMPTOMS"
	StepWorks         = "WORKS"
	StepParts         = "PARTS"
	StepAttachments   = "ATTACHMENTS"
	StepPreview       = "PREVIEW"
)

// command is the normalized form of a free-text control word. Matching is
// decoupled from the button captions so renaming a button never breaks the
// step loop.
type command int

const (
	cmdNone command = iota
	cmdDone
	cmdSkip
)

func parseCommand(text string) command {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "done", strings.ToLower(btnDone):
		return cmdDone
	case "skip", strings.ToLower(btnSkip):
		return cmdSkip
	}
	return cmdNone
}

// Transport is the part of the bot client the wizard talks to.
type Transport interface {
	SendMessage(chatID int64, text string, markup *telegram.ReplyMarkup) error
	AnswerCallbackQuery(callbackID string) error
	GetFile(fileID string) (telegram.File, error)
	DownloadFile(filePath string) ([]byte, error)
}

// OdometerRefresher recomputes a vehicle's derived odometer after submit.
type OdometerRefresher interface {
	RefreshOdometer(vehicleID string) error
}

// Wizard is the per-chat repair draft state machine. Each chat walks a
// linear sequence of prompts; the draft with all collected answers lives in
// the store, so the conversation survives restarts.
type Wizard struct {
	store    store.Store
	bot      Transport
	blobs    storage.BlobStore
	odometer OdometerRefresher
	logger   *slog.Logger
}

func New(st store.Store, bot Transport, blobs storage.BlobStore, odometer OdometerRefresher, logger *slog.Logger) *Wizard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Wizard{store: st, bot: bot, blobs: blobs, odometer: odometer, logger: logger}
}

// HandleMessage processes a free-text or file message.
func (w *Wizard) HandleMessage(msg telegram.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch {
	case strings.HasPrefix(text, "/start"):
		w.send(chatID, "Choose an action:", mainKeyboard())
		return
	case text == btnNewRepair:
		w.startNewDraft(chatID)
		return
	case text == btnDrafts:
		w.listDrafts(chatID)
		return
	}

	draft, err := w.ensureDraft(chatID)
	if err != nil {
		w.logger.Error("ensure draft failed", "chat_id", chatID, "error", err)
		return
	}

	switch draft.Step {
	case StepOdometer:
		w.handleOdometer(chatID, draft, text)
	case StepSymptoms:
		w.handleSymptoms(chatID, draft, text)
	case StepWorks:
		w.handleWorks(chatID, draft, text)
	case StepParts:
		w.handleParts(chatID, draft, text)
	case StepAttachments:
		w.handleAttachments(chatID, draft, msg, text)
	}
}

// HandleCallback processes an inline button press.
func (w *Wizard) HandleCallback(cb telegram.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data
	if err := w.bot.AnswerCallbackQuery(cb.ID); err != nil {
		w.logger.Warn("answer callback failed", "error", err)
	}
	if data == "" {
		return
	}

	draft, err := w.ensureDraft(chatID)
	if err != nil {
		w.logger.Error("ensure draft failed", "chat_id", chatID, "error", err)
		return
	}

	switch {
	case strings.HasPrefix(data, "vehicle:"):
		w.handleVehicle(chatID, draft, strings.TrimPrefix(data, "vehicle:"))
	case strings.HasPrefix(data, "type:"):
		w.handleType(chatID, draft, strings.TrimPrefix(data, "type:"))
	case strings.HasPrefix(data, "category:"):
		w.handleCategory(chatID, draft, strings.TrimPrefix(data, "category:"))
	case data == "submit":
		w.handleSubmit(chatID, draft)
	case data == "edit":
		w.send(chatID, "What should be changed?", editKeyboard())
	case data == "delete":
		w.handleDelete(chatID, draft)
	case strings.HasPrefix(data, "edit:"):
		w.handleEdit(chatID, draft, strings.TrimPrefix(data, "edit:"))
	}
}

func (w *Wizard) startNewDraft(chatID int64) {
	now := time.Now().UTC()
	draft := domain.RepairDraft{
		ID:          store.NewID(),
		ChatID:      strconv.FormatInt(chatID, 10),
		Step:        StepSelectVehicle,
		Payload:     domain.NewDraftPayload(),
		CreatedFrom: domain.FromTelegramBot,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := w.store.CreateDraft(draft); err != nil {
		w.logger.Error("create draft failed", "chat_id", chatID, "error", err)
		return
	}
	w.sendVehiclePrompt(chatID)
}

func (w *Wizard) listDrafts(chatID int64) {
	drafts, err := w.store.ListDraftsByChat(strconv.FormatInt(chatID, 10), 5)
	if err != nil {
		w.logger.Error("list drafts failed", "chat_id", chatID, "error", err)
		return
	}
	if len(drafts) == 0 {
		w.send(chatID, "No drafts found.", nil)
		return
	}
	var b strings.Builder
	b.WriteString("Drafts:\n")
	for _, d := range drafts {
		fmt.Fprintf(&b, "• %s — step %s\n", d.ID, d.Step)
	}
	w.send(chatID, strings.TrimRight(b.String(), "\n"), nil)
}

// ensureDraft returns the most recently updated draft for the chat, creating
// a fresh one when the chat has none.
func (w *Wizard) ensureDraft(chatID int64) (domain.RepairDraft, error) {
	chat := strconv.FormatInt(chatID, 10)
	draft, found, err := w.store.LatestDraftByChat(chat)
	if err != nil {
		return domain.RepairDraft{}, err
	}
	if found {
		return draft, nil
	}
	now := time.Now().UTC()
	return w.store.CreateDraft(domain.RepairDraft{
		ID:          store.NewID(),
		ChatID:      chat,
		Step:        StepSelectVehicle,
		Payload:     domain.NewDraftPayload(),
		CreatedFrom: domain.FromTelegramBot,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (w *Wizard) handleVehicle(chatID int64, draft domain.RepairDraft, vehicleID string) {
	vehicle, found, err := w.store.GetVehicle(vehicleID)
	if err != nil {
		w.logger.Error("get vehicle failed", "error", err)
		return
	}
	if !found {
		w.send(chatID, "Vehicle not found.", nil)
		return
	}
	draft.Payload.VehicleID = vehicle.ID
	draft.Payload.VehiclePlate = vehicle.PlateNumber
	w.advance(chatID, draft, StepSelectType, "Choose the event type:", typeKeyboard())
}

func (w *Wizard) handleType(chatID int64, draft domain.RepairDraft, raw string) {
	eventType := domain.RepairEventType(raw)
	if eventType != domain.EventMaintenance && eventType != domain.EventRepair {
		w.send(chatID, "Unknown event type.", nil)
		return
	}
	draft.Payload.EventType = eventType
	w.advance(chatID, draft, StepOdometer, "Enter the odometer reading (a number).", removeKeyboard())
}

func (w *Wizard) handleOdometer(chatID int64, draft domain.RepairDraft, text string) {
	compact := strings.Join(strings.Fields(text), "")
	km, err := strconv.ParseFloat(strings.ReplaceAll(compact, ",", "."), 64)
	if err != nil {
		w.send(chatID, "The odometer reading must be a number.", nil)
		return
	}
	draft.Payload.OdometerKm = int(km + 0.5)
	w.advance(chatID, draft, StepCategory, "Choose a category:", categoryKeyboard())
}

func (w *Wizard) handleCategory(chatID int64, draft domain.RepairDraft, code string) {
	if _, ok := domain.RepairCategories[code]; !ok {
		w.send(chatID, "Unknown category.", nil)
		return
	}
	draft.Payload.CategoryCode = code
	w.advance(chatID, draft, StepSymptoms, "Describe the symptoms:", nil)
}

func (w *Wizard) handleSymptoms(chatID int64, draft domain.RepairDraft, text string) {
	draft.Payload.SymptomsText = text
	w.advance(chatID, draft, StepWorks, worksPrompt, doneKeyboard())
}

const (
	worksPrompt = "Add work lines as messages. Press \"Done\" when finished."
	partsPrompt = "Enter parts as: Name; quantity; price. Press \"Done\" when finished."
	filesPrompt = "Attach documents or photos, or press \"Skip\"."
)

func (w *Wizard) handleWorks(chatID int64, draft domain.RepairDraft, text string) {
	if parseCommand(text) == cmdDone {
		w.advance(chatID, draft, StepParts, partsPrompt, doneKeyboard())
		return
	}
	if text == "" {
		return
	}
	draft.Payload.Works = append(draft.Payload.Works, domain.DraftWork{WorkName: text})
	if err := w.store.UpdateDraft(draft.ID, draft.Step, draft.Payload); err != nil {
		w.logger.Error("update draft failed", "error", err)
		return
	}
	w.send(chatID, "Work added.", nil)
}

func (w *Wizard) handleParts(chatID int64, draft domain.RepairDraft, text string) {
	if parseCommand(text) == cmdDone {
		w.advance(chatID, draft, StepAttachments, filesPrompt, skipKeyboard())
		return
	}
	part, ok := parsePartLine(text)
	if !ok {
		w.send(chatID, "Format: Name; quantity; price", nil)
		return
	}
	draft.Payload.Parts = append(draft.Payload.Parts, part)
	if err := w.store.UpdateDraft(draft.ID, draft.Step, draft.Payload); err != nil {
		w.logger.Error("update draft failed", "error", err)
		return
	}
	w.send(chatID, "Part added.", nil)
}

// parsePartLine parses "name; quantity; price" with comma-or-dot decimals.
func parsePartLine(text string) (domain.DraftPart, bool) {
	fields := strings.Split(text, ";")
	if len(fields) != 3 {
		return domain.DraftPart{}, false
	}
	name := strings.TrimSpace(fields[0])
	qtyRaw := strings.ReplaceAll(strings.TrimSpace(fields[1]), ",", ".")
	priceRaw := strings.ReplaceAll(strings.TrimSpace(fields[2]), ",", ".")
	if name == "" || qtyRaw == "" || priceRaw == "" {
		return domain.DraftPart{}, false
	}
	qty, err := strconv.ParseFloat(qtyRaw, 64)
	if err != nil {
		return domain.DraftPart{}, false
	}
	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil {
		return domain.DraftPart{}, false
	}
	return domain.DraftPart{
		PartName:   name,
		Qty:        qty,
		UnitPrice:  price,
		TotalPrice: qty * price,
	}, true
}

func (w *Wizard) handleAttachments(chatID int64, draft domain.RepairDraft, msg telegram.Message, text string) {
	if parseCommand(text) == cmdSkip {
		w.advance(chatID, draft, StepPreview, buildPreview(draft.Payload), previewKeyboard())
		return
	}

	var fileID, fileName, mimeType string
	fileType := domain.AttachmentOther
	switch {
	case msg.Document != nil:
		fileID = msg.Document.FileID
		fileName = msg.Document.FileName
		mimeType = msg.Document.MimeType
		fileType = domain.AttachmentOrder
	case len(msg.Photo) > 0:
		// Telegram sends photo variants smallest first.
		fileID = msg.Photo[len(msg.Photo)-1].FileID
		fileType = domain.AttachmentPhoto
	default:
		return
	}

	attachment, err := w.storeAttachment(fileID, fileName, mimeType, fileType)
	if err != nil {
		w.logger.Error("store attachment failed", "chat_id", chatID, "error", err)
		w.send(chatID, "Could not save the file, try again.", nil)
		return
	}
	draft.Payload.Attachments = append(draft.Payload.Attachments, attachment)
	if err := w.store.UpdateDraft(draft.ID, draft.Step, draft.Payload); err != nil {
		w.logger.Error("update draft failed", "error", err)
		return
	}
	w.send(chatID, "Document added. Attach more or press \"Skip\".", skipKeyboard())
}

func (w *Wizard) storeAttachment(fileID, fileName, mimeType string, fileType domain.AttachmentType) (domain.DraftAttachment, error) {
	info, err := w.bot.GetFile(fileID)
	if err != nil {
		return domain.DraftAttachment{}, fmt.Errorf("get file: %w", err)
	}
	if info.FilePath == "" {
		return domain.DraftAttachment{}, fmt.Errorf("file %s has no path", fileID)
	}
	data, err := w.bot.DownloadFile(info.FilePath)
	if err != nil {
		return domain.DraftAttachment{}, fmt.Errorf("download file: %w", err)
	}
	key := storage.FileKey(fileID, filepath.Base(info.FilePath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if fileName == "" {
		fileName = key
	}
	if err := w.blobs.Put(context.Background(), key, bytes.NewReader(data), int64(len(data)), mimeType); err != nil {
		return domain.DraftAttachment{}, fmt.Errorf("store file: %w", err)
	}
	return domain.DraftAttachment{
		StorageKey: key,
		FileName:   fileName,
		MimeType:   mimeType,
		Size:       int64(len(data)),
		FileType:   fileType,
	}, nil
}

func (w *Wizard) handleSubmit(chatID int64, draft domain.RepairDraft) {
	event := EventFromPayload(draft.Payload, domain.FromTelegramBot)
	created, err := w.store.CreateRepairEvent(event)
	if err != nil {
		w.logger.Error("create repair event failed", "chat_id", chatID, "error", err)
		w.send(chatID, "Could not save the repair, try again.", nil)
		return
	}
	if err := w.store.DeleteDraft(draft.ID); err != nil {
		w.logger.Error("delete draft failed", "draft_id", draft.ID, "error", err)
	}
	if err := w.odometer.RefreshOdometer(created.VehicleID); err != nil {
		w.logger.Warn("odometer refresh failed", "vehicle_id", created.VehicleID, "error", err)
	}
	w.logger.Info("repair submitted", "event_id", created.ID, "vehicle_id", created.VehicleID, "chat_id", chatID)
	w.send(chatID, "✅ Repair submitted.", mainKeyboard())
}

// EventFromPayload turns collected answers into a repair event with its
// children and computed totals. Draft submission from the dashboard reuses
// the same mapping.
func EventFromPayload(p domain.DraftPayload, from domain.CreatedFrom) domain.RepairEvent {
	now := time.Now().UTC()
	event := domain.RepairEvent{
		ID:            store.NewID(),
		VehicleID:     p.VehicleID,
		EventType:     p.EventType,
		Status:        domain.RepairInProgress,
		StartedAt:     now,
		OdometerKm:    p.OdometerKm,
		CategoryCode:  p.CategoryCode,
		SymptomsText:  p.SymptomsText,
		PaymentStatus: domain.PaymentUnpaid,
		CreatedFrom:   from,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if event.EventType == "" {
		event.EventType = domain.EventRepair
	}
	if event.CategoryCode == "" {
		event.CategoryCode = "OTHER"
	}
	for _, work := range p.Works {
		event.Works = append(event.Works, domain.RepairWork{
			ID:            store.NewID(),
			RepairEventID: event.ID,
			WorkName:      work.WorkName,
			Cost:          work.Cost,
			CreatedAt:     now,
		})
	}
	for _, part := range p.Parts {
		event.Parts = append(event.Parts, domain.RepairPart{
			ID:            store.NewID(),
			RepairEventID: event.ID,
			PartName:      part.PartName,
			Qty:           part.Qty,
			UnitPrice:     part.UnitPrice,
			TotalPrice:    part.TotalPrice,
			CreatedAt:     now,
		})
	}
	for _, att := range p.Attachments {
		fileType := att.FileType
		if fileType == "" {
			fileType = domain.AttachmentOther
		}
		event.Attachments = append(event.Attachments, domain.RepairAttachment{
			ID:            store.NewID(),
			RepairEventID: event.ID,
			FileType:      fileType,
			FileName:      att.FileName,
			MimeType:      att.MimeType,
			Size:          att.Size,
			StorageKey:    att.StorageKey,
			Source:        from,
			CreatedAt:     now,
		})
	}
	event.TotalCostWork, event.TotalCostParts, event.TotalCost = domain.EventTotals(event.Works, event.Parts)
	return event
}

func (w *Wizard) handleDelete(chatID int64, draft domain.RepairDraft) {
	if err := w.store.DeleteDraft(draft.ID); err != nil {
		w.logger.Error("delete draft failed", "draft_id", draft.ID, "error", err)
		return
	}
	w.send(chatID, "Draft deleted.", mainKeyboard())
}

func (w *Wizard) handleEdit(chatID int64, draft domain.RepairDraft, field string) {
	switch field {
	case "vehicle":
		if err := w.store.UpdateDraft(draft.ID, StepSelectVehicle, draft.Payload); err != nil {
			w.logger.Error("update draft failed", "error", err)
			return
		}
		w.sendVehiclePrompt(chatID)
	case "type":
		w.advance(chatID, draft, StepSelectType, "Choose the event type:", typeKeyboard())
	case "odometer":
		w.advance(chatID, draft, StepOdometer, "Enter the odometer reading:", nil)
	case "category":
		w.advance(chatID, draft, StepCategory, "Choose a category:", categoryKeyboard())
	case "symptoms":
		w.advance(chatID, draft, StepSymptoms, "Describe the symptoms:", nil)
	case "works":
		// Re-collection starts from scratch.
		draft.Payload.Works = []domain.DraftWork{}
		w.advance(chatID, draft, StepWorks, worksPrompt, doneKeyboard())
	case "parts":
		draft.Payload.Parts = []domain.DraftPart{}
		w.advance(chatID, draft, StepParts, partsPrompt, doneKeyboard())
	}
}

func (w *Wizard) sendVehiclePrompt(chatID int64) {
	vehicles, err := w.store.ListVehicles(true)
	if err != nil {
		w.logger.Error("list vehicles failed", "error", err)
		return
	}
	w.send(chatID, "Choose a vehicle:", vehicleKeyboard(vehicles))
}

// advance persists the step transition and sends the next prompt.
func (w *Wizard) advance(chatID int64, draft domain.RepairDraft, step, prompt string, markup *telegram.ReplyMarkup) {
	if err := w.store.UpdateDraft(draft.ID, step, draft.Payload); err != nil {
		w.logger.Error("update draft failed", "draft_id", draft.ID, "error", err)
		return
	}
	w.send(chatID, prompt, markup)
}

func (w *Wizard) send(chatID int64, text string, markup *telegram.ReplyMarkup) {
	if err := w.bot.SendMessage(chatID, text, markup); err != nil {
		w.logger.Error("send message failed", "chat_id", chatID, "error", err)
	}
}

func buildPreview(p domain.DraftPayload) string {
	plate := p.VehiclePlate
	if plate == "" {
		plate = "—"
	}
	eventType := "Repair"
	if p.EventType == domain.EventMaintenance {
		eventType = "Maintenance"
	}
	odometer := "—"
	if p.OdometerKm > 0 {
		odometer = strconv.Itoa(p.OdometerKm)
	}
	category := domain.RepairCategories[p.CategoryCode]
	if category == "" {
		category = p.CategoryCode
	}
	if category == "" {
		category = "—"
	}
	symptoms := p.SymptomsText
	if symptoms == "" {
		symptoms = "—"
	}
	return strings.Join([]string{
		"Vehicle: " + plate,
		"Type: " + eventType,
		"Odometer: " + odometer,
		"Category: " + category,
		"Symptoms: " + symptoms,
		fmt.Sprintf("Works: %d", len(p.Works)),
		fmt.Sprintf("Parts: %d", len(p.Parts)),
		fmt.Sprintf("Documents: %d", len(p.Attachments)),
	}, "\n")
}
