package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tanh1603/auction-hub-sub000/internal/middleware"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

// RequestRefund handles POST /auctions/{auctionID}/refund
func (h *Handler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	var req model.RefundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	p, err := h.refunds.Request(r.Context(), chi.URLParam(r, "auctionID"), middleware.GetUserID(r.Context()), req.Reason)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// RefundAction handles POST /participants/{participantID}/refund/{action} (admin).
// action is one of approve, reject, process.
func (h *Handler) RefundAction(w http.ResponseWriter, r *http.Request) {
	var req model.RefundActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	p, err := h.refunds.Apply(r.Context(),
		chi.URLParam(r, "participantID"),
		chi.URLParam(r, "action"),
		req.Reason,
		middleware.GetUserID(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}
