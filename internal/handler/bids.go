package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tanh1603/auction-hub-sub000/internal/middleware"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

// PlaceBid handles POST /auctions/{auctionID}/bids
// Arbitration is atomic: of N concurrent bids at the same amount exactly one
// wins, the rest get a conflict or validation error.
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	var req model.PlaceBidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	placement, err := h.bids.PlaceBid(r.Context(), chi.URLParam(r, "auctionID"), middleware.GetUserID(r.Context()), req.Amount)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, placement)
}

// ListBids handles GET /auctions/{auctionID}/bids
func (h *Handler) ListBids(w http.ResponseWriter, r *http.Request) {
	bids, err := h.bids.ListBids(r.Context(), chi.URLParam(r, "auctionID"))
	if err != nil {
		writeAppError(w, err)
		return
	}

	if bids == nil {
		bids = []model.Bid{}
	}

	writeJSON(w, http.StatusOK, bids)
}

// DenyBid handles POST /bids/{bidID}/deny (admin).
func (h *Handler) DenyBid(w http.ResponseWriter, r *http.Request) {
	var req model.DenyBidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	denial, err := h.bids.DenyBid(r.Context(), chi.URLParam(r, "bidID"), req.Reason, middleware.GetUserID(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, denial)
}

// Finalize handles POST /auctions/{auctionID}/finalize (admin).
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	result, err := h.settlement.Finalize(r.Context(), chi.URLParam(r, "auctionID"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// WinnerDefault handles POST /auctions/{auctionID}/winner-default (admin).
func (h *Handler) WinnerDefault(w http.ResponseWriter, r *http.Request) {
	var req model.WinnerDefaultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.settlement.HandleWinnerDefault(r.Context(), chi.URLParam(r, "auctionID"), req.Reason, middleware.GetUserID(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
