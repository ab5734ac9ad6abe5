package server

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"fuelcontrol/internal/receipts"
)

func (s *Server) handleReceipts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.store.ListReceipts()
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": list, "count": len(list)})
	case http.MethodPost:
		if s.receipts == nil {
			writeError(w, http.StatusInternalServerError, "receipt service not configured")
			return
		}
		var dto receipts.CreateDTO
		if err := decodeJSON(r, &dto); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		result, err := s.receipts.Create(dto)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status := http.StatusCreated
		if result.Deduped {
			status = http.StatusOK
		}
		writeJSON(w, status, result)
	default:
		methodNotAllowed(w)
	}
}

// /api/receipts/bulk-delete, /api/receipts/{id} or /api/receipts/{id}/file
func (s *Server) handleReceiptByID(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/api/receipts/")
	if len(parts) == 0 || len(parts) > 2 {
		notFound(w, "not found")
		return
	}
	if len(parts) == 1 && parts[0] == "bulk-delete" {
		s.handleReceiptsBulkDelete(w, r)
		return
	}
	id := parts[0]
	if len(parts) == 2 {
		if parts[1] != "file" || r.Method != http.MethodGet {
			notFound(w, "not found")
			return
		}
		s.handleReceiptFile(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		receipt, found, err := s.store.GetReceipt(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if !found {
			notFound(w, "receipt not found")
			return
		}
		items, err := s.store.ListReceiptItems(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"receipt": receipt, "items": items})
	case http.MethodDelete:
		if err := s.store.DeleteReceipts([]string{id}); err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleReceiptsBulkDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}
	if err := s.store.DeleteReceipts(req.IDs); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "count": len(req.IDs)})
}

// handleReceiptFile streams the stored receipt file. ?kind=image selects the
// photo, the default is the fiscal PDF when present.
func (s *Server) handleReceiptFile(w http.ResponseWriter, r *http.Request, id string) {
	if s.blobs == nil {
		writeError(w, http.StatusInternalServerError, "file storage not configured")
		return
	}
	receipt, found, err := s.store.GetReceipt(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !found {
		notFound(w, "receipt not found")
		return
	}
	key := receipt.PDFPath
	if r.URL.Query().Get("kind") == "image" || key == "" {
		key = receipt.ImagePath
	}
	if key == "" {
		notFound(w, "receipt has no file")
		return
	}
	blob, err := s.blobs.Open(r.Context(), key)
	if err != nil {
		notFound(w, "file not found")
		return
	}
	defer blob.Close()
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, blob); err != nil {
		s.logger.Warn("receipt file stream aborted", "receipt_id", id, "error", err)
	}
}
