package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tanh1603/auction-hub-sub000/internal/middleware"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

// Register handles POST /auctions/{auctionID}/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	p, err := h.participants.Register(r.Context(), chi.URLParam(r, "auctionID"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// CheckIn handles POST /auctions/{auctionID}/check-in
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	p, err := h.participants.CheckIn(r.Context(), chi.URLParam(r, "auctionID"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Withdraw handles POST /auctions/{auctionID}/withdraw
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	p, err := h.participants.Withdraw(r.Context(), chi.URLParam(r, "auctionID"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// ConfirmDeposit handles POST /auctions/{auctionID}/deposit
// The payment session is verified with the gateway before anything is recorded.
func (h *Handler) ConfirmDeposit(w http.ResponseWriter, r *http.Request) {
	var req model.DepositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	p, err := h.participants.ConfirmDeposit(r.Context(), chi.URLParam(r, "auctionID"), middleware.GetUserID(r.Context()), req.SessionID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// ListParticipants handles GET /auctions/{auctionID}/participants (admin).
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.participants.List(r.Context(), chi.URLParam(r, "auctionID"))
	if err != nil {
		writeAppError(w, err)
		return
	}

	if participants == nil {
		participants = []model.Participant{}
	}

	writeJSON(w, http.StatusOK, participants)
}

// ConfirmParticipant handles POST /participants/{participantID}/confirm (admin).
func (h *Handler) ConfirmParticipant(w http.ResponseWriter, r *http.Request) {
	p, err := h.participants.Confirm(r.Context(), chi.URLParam(r, "participantID"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// DisqualifyParticipant handles POST /participants/{participantID}/disqualify (admin).
func (h *Handler) DisqualifyParticipant(w http.ResponseWriter, r *http.Request) {
	var req model.DisqualifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "disqualification reason is required")
		return
	}

	p, err := h.participants.Disqualify(r.Context(), chi.URLParam(r, "participantID"), req.Reason, middleware.GetUserID(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}
