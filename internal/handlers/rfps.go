package handlers

import (
	"errors"
	"net/http"

	"ProcureAI/internal/domain"
	"ProcureAI/internal/render"
)

type generateRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

type sendRequest struct {
	VendorIDs []int64 `json:"vendorIds" validate:"dive,gt=0"`
}

// rfpDetail always lists proposals, even when there are none.
type rfpDetail struct {
	*domain.RFP
	Proposals []domain.Proposal `json:"proposals"`
}

type sendResponse struct {
	Success bool `json:"success"`
	domain.SendResult
}

// GenerateRFPHandler structures a free-text request and stores it as a draft RFP.
func (h *Handler) GenerateRFPHandler(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, err, "Invalid JSON format")
		return
	}
	if err := validateRequest(req); err != nil {
		h.writeServiceError(w, r, err, "Invalid request")
		return
	}

	rfp, err := h.Procurement.GenerateRFP(r.Context(), req.Prompt)
	if err != nil {
		var parseErr *domain.AIParseError
		if errors.As(err, &parseErr) {
			h.Logger.Error("generate rfp", "error", err)
			writeError(w, http.StatusInternalServerError, "AI Processing Failed")
			return
		}
		h.writeServiceError(w, r, err, "AI Processing Failed")
		return
	}

	writeJSON(w, http.StatusOK, rfp)
}

// ListRFPsHandler returns every RFP, newest first.
func (h *Handler) ListRFPsHandler(w http.ResponseWriter, r *http.Request) {
	rfps, err := h.Procurement.ListRFPs(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to fetch RFPs")
		return
	}
	if rfps == nil {
		rfps = []domain.RFP{}
	}
	writeJSON(w, http.StatusOK, rfps)
}

// GetRFPHandler returns one RFP with proposals and vendors.
func (h *Handler) GetRFPHandler(w http.ResponseWriter, r *http.Request) {
	rfp, ok := h.loadRFP(w, r)
	if !ok {
		return
	}
	detail := rfpDetail{RFP: rfp, Proposals: rfp.Proposals}
	if detail.Proposals == nil {
		detail.Proposals = []domain.Proposal{}
	}
	writeJSON(w, http.StatusOK, detail)
}

// ViewRFPHandler renders the RFP detail page as HTML.
func (h *Handler) ViewRFPHandler(w http.ResponseWriter, r *http.Request) {
	rfp, ok := h.loadRFP(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.RenderRFP(w, rfp); err != nil {
		h.Logger.Error("render rfp page", "rfp_id", rfp.ID, "error", err)
	}
}

// SendRFPHandler emails the RFP to the selected vendors.
func (h *Handler) SendRFPHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeServiceError(w, r, err, "Invalid ID")
		return
	}

	var req sendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, err, "Invalid JSON format")
		return
	}
	if len(req.VendorIDs) == 0 {
		writeError(w, http.StatusBadRequest, "No vendors selected")
		return
	}
	if err := validateRequest(req); err != nil {
		h.writeServiceError(w, r, err, "Invalid request")
		return
	}

	result, err := h.Procurement.SendRFP(r.Context(), id, req.VendorIDs)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to send RFPs")
		return
	}

	writeJSON(w, http.StatusOK, sendResponse{Success: true, SendResult: result})
}

func (h *Handler) loadRFP(w http.ResponseWriter, r *http.Request) (*domain.RFP, bool) {
	id, err := parseID(r)
	if err != nil {
		h.writeServiceError(w, r, err, "Invalid ID")
		return nil, false
	}

	rfp, err := h.Procurement.GetRFP(r.Context(), id)
	if err != nil {
		if domain.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "RFP not found")
			return nil, false
		}
		h.writeServiceError(w, r, err, "Failed to fetch RFP details")
		return nil, false
	}
	return rfp, true
}
