package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"fuelcontrol/internal/domain"
	"fuelcontrol/internal/storage"
	"fuelcontrol/internal/store"
	"fuelcontrol/internal/wizard"
)

func (s *Server) handleRepairCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	type category struct {
		Code  string `json:"code"`
		Label string `json:"label"`
	}
	items := make([]category, 0, len(domain.RepairCategoryOrder))
	for _, code := range domain.RepairCategoryOrder {
		items = append(items, category{Code: code, Label: domain.RepairCategories[code]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// repairFilterFromQuery builds the listing filter from query parameters.
func repairFilterFromQuery(r *http.Request) (store.RepairFilter, error) {
	q := r.URL.Query()
	f := store.RepairFilter{
		VehicleID:    q.Get("vehicleId"),
		EventType:    strings.ToUpper(q.Get("type")),
		Status:       strings.ToUpper(q.Get("status")),
		CategoryCode: strings.ToUpper(q.Get("category")),
		HasDocs:      q.Get("hasDocs") == "true",
	}
	if raw := q.Get("from"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return store.RepairFilter{}, err
		}
		f.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return store.RepairFilter{}, err
		}
		f.To = &t
	}
	return f, nil
}

type repairWorkInput struct {
	WorkName string  `json:"workName"`
	Cost     float64 `json:"cost"`
	Comment  string  `json:"comment,omitempty"`
}

type repairPartInput struct {
	PartName   string  `json:"partName"`
	Qty        float64 `json:"qty"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
	Comment    string  `json:"comment,omitempty"`
}

type repairCreateRequest struct {
	VehicleID     string            `json:"vehicleId"`
	EventType     string            `json:"eventType"`
	Status        string            `json:"status"`
	StartedAt     *time.Time        `json:"startedAt"`
	FinishedAt    *time.Time        `json:"finishedAt"`
	OdometerKm    int               `json:"odometerKm"`
	CategoryCode  string            `json:"categoryCode"`
	SymptomsText  string            `json:"symptomsText"`
	ServiceName   string            `json:"serviceName"`
	PaymentStatus string            `json:"paymentStatus"`
	Works         []repairWorkInput `json:"works"`
	Parts         []repairPartInput `json:"parts"`
}

func (s *Server) handleRepairs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter, err := repairFilterFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date filter")
			return
		}
		events, err := s.store.ListRepairEvents(filter)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": events, "count": len(events)})
	case http.MethodPost:
		s.handleRepairCreate(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleRepairCreate(w http.ResponseWriter, r *http.Request) {
	var req repairCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.VehicleID) == "" {
		writeError(w, http.StatusBadRequest, "vehicleId is required")
		return
	}
	if _, found, err := s.store.GetVehicle(req.VehicleID); err != nil {
		s.writeStoreError(w, err)
		return
	} else if !found {
		writeError(w, http.StatusBadRequest, "unknown vehicle")
		return
	}

	now := time.Now().UTC()
	event := domain.RepairEvent{
		ID:            store.NewID(),
		VehicleID:     req.VehicleID,
		EventType:     domain.EventRepair,
		Status:        domain.RepairInProgress,
		StartedAt:     now,
		FinishedAt:    req.FinishedAt,
		OdometerKm:    req.OdometerKm,
		CategoryCode:  "OTHER",
		SymptomsText:  req.SymptomsText,
		ServiceName:   req.ServiceName,
		PaymentStatus: domain.PaymentUnpaid,
		CreatedFrom:   domain.FromWeb,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.StartedAt != nil {
		event.StartedAt = req.StartedAt.UTC()
	}
	if t, ok := parseEventType(req.EventType); ok {
		event.EventType = t
	}
	if st, ok := parseEventStatus(req.Status); ok {
		event.Status = st
	}
	if code := strings.ToUpper(strings.TrimSpace(req.CategoryCode)); code != "" {
		if _, known := domain.RepairCategories[code]; !known {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}
		event.CategoryCode = code
	}
	if ps, ok := parsePaymentStatus(req.PaymentStatus); ok {
		event.PaymentStatus = ps
	}
	for _, work := range req.Works {
		event.Works = append(event.Works, workFromInput(event.ID, work, now))
	}
	for _, part := range req.Parts {
		event.Parts = append(event.Parts, partFromInput(event.ID, part, now))
	}
	event.TotalCostWork, event.TotalCostParts, event.TotalCost = domain.EventTotals(event.Works, event.Parts)

	created, err := s.store.CreateRepairEvent(event)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// /api/repairs/summary, /api/repairs/{id} and nested works/parts/attachments
func (s *Server) handleRepairByID(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/api/repairs/")
	if len(parts) == 0 || len(parts) > 2 {
		notFound(w, "not found")
		return
	}
	if len(parts) == 1 && parts[0] == "summary" {
		s.handleRepairSummary(w, r)
		return
	}
	id := parts[0]
	if len(parts) == 2 {
		switch parts[1] {
		case "works":
			s.handleReplaceWorks(w, r, id)
		case "parts":
			s.handleReplaceParts(w, r, id)
		case "attachments":
			s.handleAttachmentUpload(w, r, id)
		default:
			notFound(w, "not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		event, found, err := s.store.GetRepairEvent(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if !found {
			notFound(w, "repair not found")
			return
		}
		writeJSON(w, http.StatusOK, event)
	case http.MethodPatch:
		s.handleRepairPatch(w, r, id)
	case http.MethodDelete:
		if err := s.store.DeleteRepairEvent(id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

type repairPatchRequest struct {
	VehicleID     *string    `json:"vehicleId"`
	EventType     *string    `json:"eventType"`
	Status        *string    `json:"status"`
	StartedAt     *time.Time `json:"startedAt"`
	FinishedAt    *time.Time `json:"finishedAt"`
	OdometerKm    *int       `json:"odometerKm"`
	CategoryCode  *string    `json:"categoryCode"`
	SymptomsText  *string    `json:"symptomsText"`
	ServiceName   *string    `json:"serviceName"`
	PaymentStatus *string    `json:"paymentStatus"`
}

func (s *Server) handleRepairPatch(w http.ResponseWriter, r *http.Request, id string) {
	var req repairPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	event, found, err := s.store.GetRepairEvent(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !found {
		notFound(w, "repair not found")
		return
	}
	if req.VehicleID != nil {
		event.VehicleID = *req.VehicleID
	}
	if req.EventType != nil {
		t, ok := parseEventType(*req.EventType)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown event type")
			return
		}
		event.EventType = t
	}
	if req.Status != nil {
		st, ok := parseEventStatus(*req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
		event.Status = st
		// Closing the event stamps the finish time unless given explicitly.
		if st == domain.RepairDone && event.FinishedAt == nil && req.FinishedAt == nil {
			now := time.Now().UTC()
			event.FinishedAt = &now
		}
	}
	if req.StartedAt != nil {
		event.StartedAt = req.StartedAt.UTC()
	}
	if req.FinishedAt != nil {
		event.FinishedAt = req.FinishedAt
	}
	if req.OdometerKm != nil {
		event.OdometerKm = *req.OdometerKm
	}
	if req.CategoryCode != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.CategoryCode))
		if _, known := domain.RepairCategories[code]; !known {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}
		event.CategoryCode = code
	}
	if req.SymptomsText != nil {
		event.SymptomsText = *req.SymptomsText
	}
	if req.ServiceName != nil {
		event.ServiceName = *req.ServiceName
	}
	if req.PaymentStatus != nil {
		ps, ok := parsePaymentStatus(*req.PaymentStatus)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown payment status")
			return
		}
		event.PaymentStatus = ps
	}
	event.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateRepairEvent(event); err != nil {
		s.writeStoreError(w, err)
		return
	}
	updated, _, err := s.store.GetRepairEvent(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleReplaceWorks(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var inputs []repairWorkInput
	if err := decodeJSON(r, &inputs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	now := time.Now().UTC()
	works := make([]domain.RepairWork, 0, len(inputs))
	for _, in := range inputs {
		works = append(works, workFromInput(id, in, now))
	}
	if err := s.store.ReplaceRepairWorks(id, works); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.recomputeTotals(w, id)
}

func (s *Server) handleReplaceParts(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var inputs []repairPartInput
	if err := decodeJSON(r, &inputs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	now := time.Now().UTC()
	parts := make([]domain.RepairPart, 0, len(inputs))
	for _, in := range inputs {
		parts = append(parts, partFromInput(id, in, now))
	}
	if err := s.store.ReplaceRepairParts(id, parts); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.recomputeTotals(w, id)
}

// recomputeTotals refreshes the stored totals after a children replacement
// and writes the updated event.
func (s *Server) recomputeTotals(w http.ResponseWriter, id string) {
	event, found, err := s.store.GetRepairEvent(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !found {
		notFound(w, "repair not found")
		return
	}
	event.TotalCostWork, event.TotalCostParts, event.TotalCost = domain.EventTotals(event.Works, event.Parts)
	event.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateRepairEvent(event); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleRepairSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	filter, err := repairFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date filter")
		return
	}
	events, err := s.store.ListRepairEvents(filter)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	type bucket struct {
		Count     int     `json:"count"`
		TotalCost float64 `json:"totalCost"`
	}
	summary := struct {
		Count          int               `json:"count"`
		TotalCost      float64           `json:"totalCost"`
		TotalCostWork  float64           `json:"totalCostWork"`
		TotalCostParts float64           `json:"totalCostParts"`
		ByCategory     map[string]bucket `json:"byCategory"`
	}{ByCategory: map[string]bucket{}}
	for _, e := range events {
		summary.Count++
		summary.TotalCost += e.TotalCost
		summary.TotalCostWork += e.TotalCostWork
		summary.TotalCostParts += e.TotalCostParts
		b := summary.ByCategory[e.CategoryCode]
		b.Count++
		b.TotalCost += e.TotalCost
		summary.ByCategory[e.CategoryCode] = b
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAttachmentUpload(w http.ResponseWriter, r *http.Request, eventID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.blobs == nil {
		writeError(w, http.StatusInternalServerError, "file storage not configured")
		return
	}
	if _, found, err := s.store.GetRepairEvent(eventID); err != nil {
		s.writeStoreError(w, err)
		return
	} else if !found {
		notFound(w, "repair not found")
		return
	}
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()

	fileType := domain.AttachmentOther
	switch strings.ToUpper(r.FormValue("type")) {
	case string(domain.AttachmentPhoto):
		fileType = domain.AttachmentPhoto
	case string(domain.AttachmentOrder):
		fileType = domain.AttachmentOrder
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	key := storage.FileKey(store.NewID(), header.Filename)
	if err := s.blobs.Put(r.Context(), key, file, header.Size, mimeType); err != nil {
		s.logger.Error("attachment upload failed", "event_id", eventID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not store file")
		return
	}
	attachment, err := s.store.CreateAttachment(domain.RepairAttachment{
		ID:            store.NewID(),
		RepairEventID: eventID,
		FileType:      fileType,
		FileName:      header.Filename,
		MimeType:      mimeType,
		Size:          header.Size,
		StorageKey:    key,
		Source:        domain.FromWeb,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, attachment)
}

// /api/attachments/{id} or /api/attachments/{id}/file
func (s *Server) handleAttachmentByID(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/api/attachments/")
	if len(parts) == 0 || len(parts) > 2 {
		notFound(w, "not found")
		return
	}
	id := parts[0]
	attachment, found, err := s.store.GetAttachment(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !found {
		notFound(w, "attachment not found")
		return
	}
	if len(parts) == 2 {
		if parts[1] != "file" || r.Method != http.MethodGet {
			notFound(w, "not found")
			return
		}
		s.streamAttachment(w, r, attachment)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, attachment)
	case http.MethodDelete:
		if s.blobs != nil {
			if err := s.blobs.Delete(r.Context(), attachment.StorageKey); err != nil {
				s.logger.Warn("attachment blob delete failed", "attachment_id", id, "error", err)
			}
		}
		if err := s.store.DeleteAttachment(id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) streamAttachment(w http.ResponseWriter, r *http.Request, attachment domain.RepairAttachment) {
	if s.blobs == nil {
		writeError(w, http.StatusInternalServerError, "file storage not configured")
		return
	}
	blob, err := s.blobs.Open(r.Context(), attachment.StorageKey)
	if err != nil {
		notFound(w, "file not found")
		return
	}
	defer blob.Close()
	contentType := attachment.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if attachment.FileName != "" {
		w.Header().Set("Content-Disposition", `inline; filename="`+attachment.FileName+`"`)
	}
	if _, err := io.Copy(w, blob); err != nil {
		s.logger.Warn("attachment stream aborted", "attachment_id", attachment.ID, "error", err)
	}
}

func (s *Server) handleDrafts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		drafts, err := s.store.ListDrafts(store.DraftFilter{
			Step:        strings.ToUpper(q.Get("step")),
			CreatedFrom: strings.ToUpper(q.Get("createdFrom")),
		})
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": drafts, "count": len(drafts)})
	case http.MethodPost:
		var req struct {
			ChatID  string               `json:"chatId"`
			Step    string               `json:"step"`
			Payload *domain.DraftPayload `json:"payload"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		now := time.Now().UTC()
		draft := domain.RepairDraft{
			ID:          store.NewID(),
			ChatID:      req.ChatID,
			Step:        wizard.StepSelectVehicle,
			Payload:     domain.NewDraftPayload(),
			CreatedFrom: domain.FromWeb,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if req.Step != "" {
			draft.Step = strings.ToUpper(req.Step)
		}
		if req.Payload != nil {
			draft.Payload = normalizePayload(*req.Payload)
		}
		created, err := s.store.CreateDraft(draft)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w)
	}
}

// /api/drafts/{id} or /api/drafts/{id}/submit
func (s *Server) handleDraftByID(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/api/drafts/")
	if len(parts) == 0 || len(parts) > 2 {
		notFound(w, "not found")
		return
	}
	id := parts[0]
	if len(parts) == 2 {
		if parts[1] != "submit" || r.Method != http.MethodPost {
			notFound(w, "not found")
			return
		}
		s.handleDraftSubmit(w, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		draft, found, err := s.store.GetDraft(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if !found {
			notFound(w, "draft not found")
			return
		}
		writeJSON(w, http.StatusOK, draft)
	case http.MethodPatch:
		var req struct {
			Step    string               `json:"step"`
			Payload *domain.DraftPayload `json:"payload"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		draft, found, err := s.store.GetDraft(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if !found {
			notFound(w, "draft not found")
			return
		}
		step := draft.Step
		if req.Step != "" {
			step = strings.ToUpper(req.Step)
		}
		payload := draft.Payload
		if req.Payload != nil {
			payload = normalizePayload(*req.Payload)
		}
		if err := s.store.UpdateDraft(id, step, payload); err != nil {
			s.writeStoreError(w, err)
			return
		}
		updated, _, err := s.store.GetDraft(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.store.DeleteDraft(id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

// handleDraftSubmit turns a draft into a repair event the same way the bot
// wizard does, then drops the draft.
func (s *Server) handleDraftSubmit(w http.ResponseWriter, id string) {
	draft, found, err := s.store.GetDraft(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !found {
		notFound(w, "draft not found")
		return
	}
	event := wizard.EventFromPayload(draft.Payload, draft.CreatedFrom)
	created, err := s.store.CreateRepairEvent(event)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if err := s.store.DeleteDraft(id); err != nil {
		s.logger.Error("delete draft failed", "draft_id", id, "error", err)
	}
	if s.receipts != nil {
		if err := s.receipts.RefreshOdometer(created.VehicleID); err != nil {
			s.logger.Warn("odometer refresh failed", "vehicle_id", created.VehicleID, "error", err)
		}
	}
	writeJSON(w, http.StatusCreated, created)
}

func normalizePayload(p domain.DraftPayload) domain.DraftPayload {
	if p.Works == nil {
		p.Works = []domain.DraftWork{}
	}
	if p.Parts == nil {
		p.Parts = []domain.DraftPart{}
	}
	if p.Attachments == nil {
		p.Attachments = []domain.DraftAttachment{}
	}
	return p
}

func workFromInput(eventID string, in repairWorkInput, now time.Time) domain.RepairWork {
	return domain.RepairWork{
		ID:            store.NewID(),
		RepairEventID: eventID,
		WorkName:      in.WorkName,
		Cost:          in.Cost,
		Comment:       in.Comment,
		CreatedAt:     now,
	}
}

func partFromInput(eventID string, in repairPartInput, now time.Time) domain.RepairPart {
	total := in.TotalPrice
	if total == 0 {
		total = in.Qty * in.UnitPrice
	}
	return domain.RepairPart{
		ID:            store.NewID(),
		RepairEventID: eventID,
		PartName:      in.PartName,
		Qty:           in.Qty,
		UnitPrice:     in.UnitPrice,
		TotalPrice:    total,
		Comment:       in.Comment,
		CreatedAt:     now,
	}
}

func parseEventType(raw string) (domain.RepairEventType, bool) {
	switch domain.RepairEventType(strings.ToUpper(strings.TrimSpace(raw))) {
	case domain.EventMaintenance:
		return domain.EventMaintenance, true
	case domain.EventRepair:
		return domain.EventRepair, true
	}
	return "", false
}

func parseEventStatus(raw string) (domain.RepairEventStatus, bool) {
	switch domain.RepairEventStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case domain.RepairDraftStatus:
		return domain.RepairDraftStatus, true
	case domain.RepairInProgress:
		return domain.RepairInProgress, true
	case domain.RepairDone:
		return domain.RepairDone, true
	}
	return "", false
}

func parsePaymentStatus(raw string) (domain.PaymentStatus, bool) {
	switch domain.PaymentStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case domain.PaymentUnpaid:
		return domain.PaymentUnpaid, true
	case domain.PaymentPaid:
		return domain.PaymentPaid, true
	}
	return "", false
}
