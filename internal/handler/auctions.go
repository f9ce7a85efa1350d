package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tanh1603/auction-hub-sub000/internal/middleware"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

// CreateAuction handles POST /auctions (admin).
func (h *Handler) CreateAuction(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAuctionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	a, err := h.auctions.Create(r.Context(), req, middleware.GetUserID(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, a)
}

// ListAuctions handles GET /auctions
func (h *Handler) ListAuctions(w http.ResponseWriter, r *http.Request) {
	auctions, err := h.auctions.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if auctions == nil {
		auctions = []model.Auction{}
	}

	writeJSON(w, http.StatusOK, auctions)
}

// GetAuction handles GET /auctions/{auctionID}
func (h *Handler) GetAuction(w http.ResponseWriter, r *http.Request) {
	a, err := h.auctions.Get(r.Context(), chi.URLParam(r, "auctionID"))
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// OverrideStatus handles PATCH /auctions/{auctionID}/status (admin).
// The transition table applies even here: overrides can cancel or advance,
// never rewind.
func (h *Handler) OverrideStatus(w http.ResponseWriter, r *http.Request) {
	var req model.StatusOverrideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	a, err := h.auctions.Override(r.Context(), chi.URLParam(r, "auctionID"), req.Status, middleware.GetUserID(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// Snapshot handles GET /auctions/{auctionID}/snapshot
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.bids.Snapshot(r.Context(), chi.URLParam(r, "auctionID"))
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// AuditLog handles GET /auctions/{auctionID}/audit (admin).
func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.auctions.AuditLog(r.Context(), chi.URLParam(r, "auctionID"))
	if err != nil {
		writeAppError(w, err)
		return
	}

	if entries == nil {
		entries = []model.AuditLog{}
	}

	writeJSON(w, http.StatusOK, entries)
}
