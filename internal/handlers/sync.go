package handlers

import (
	"errors"
	"net/http"

	"ProcureAI/internal/domain"
)

type syncResponse struct {
	Success bool `json:"success"`
	domain.SyncResult
}

// SyncEmailsHandler runs the inbox sync synchronously.
func (h *Handler) SyncEmailsHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.Sync.SyncProposals(r.Context())
	if errors.Is(err, domain.ErrSyncInProgress) {
		writeError(w, http.StatusConflict, "Sync already in progress")
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err, "Sync failed")
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{Success: true, SyncResult: result})
}
