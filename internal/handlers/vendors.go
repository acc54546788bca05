package handlers

import (
	"net/http"

	"ProcureAI/internal/domain"
)

type createVendorRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	Email         string `json:"email" validate:"required,email,max=255"`
	ContactPerson string `json:"contactPerson" validate:"max=255"`
	Category      string `json:"category" validate:"max=100"`
}

// ListVendorsHandler returns the vendor directory, newest first.
func (h *Handler) ListVendorsHandler(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.Procurement.ListVendors(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to fetch vendors")
		return
	}
	if vendors == nil {
		vendors = []domain.Vendor{}
	}
	writeJSON(w, http.StatusOK, vendors)
}

// CreateVendorHandler registers a vendor.
func (h *Handler) CreateVendorHandler(w http.ResponseWriter, r *http.Request) {
	var req createVendorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, err, "Invalid JSON format")
		return
	}
	if err := validateRequest(req); err != nil {
		h.writeServiceError(w, r, err, "Invalid request")
		return
	}

	vendor, err := h.Procurement.CreateVendor(r.Context(), domain.Vendor{
		Name:          req.Name,
		Email:         req.Email,
		ContactPerson: req.ContactPerson,
		Category:      req.Category,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to create vendor")
		return
	}

	writeJSON(w, http.StatusCreated, vendor)
}
