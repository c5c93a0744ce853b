package httpapi

import (
	"net/http"
	"time"
)

type usageRequest struct {
	UserID string `json:"userId"`
	Date   string `json:"date"`
}

type usageResponse struct {
	Count int `json:"count"`
}

type userRequest struct {
	DID   string `json:"did"`
	Email string `json:"email"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

type walletResponse struct {
	Address string `json:"address"`
}

func (h *handlers) getPromptUsage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	count, err := h.accounts.PromptUsage(r.Context(), q.Get("userId"), q.Get("date"))
	if err != nil {
		h.fail(w, "Failed to get prompt usage", err, "")
		return
	}
	writeJSON(w, http.StatusOK, usageResponse{Count: count})
}

func (h *handlers) postPromptUsage(w http.ResponseWriter, r *http.Request) {
	var body usageRequest
	if err := decodeJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	count, err := h.accounts.TrackPrompt(r.Context(), body.UserID, body.Date)
	if err != nil {
		h.fail(w, "Failed to track prompt usage", err, "")
		return
	}
	writeJSON(w, http.StatusOK, usageResponse{Count: count})
}

// postUser never returns the private key; clients only see the derived address.
func (h *handlers) postUser(w http.ResponseWriter, r *http.Request) {
	var body userRequest
	if err := decodeJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, created, err := h.accounts.CreateUser(r.Context(), body.DID, body.Email)
	if err != nil {
		h.fail(w, "User creation failed", err, "")
		return
	}
	address, err := h.accounts.WalletAddress(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "User wallet unavailable", err, "User not found")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, userResponse{ID: user.ID, Email: user.Email, Address: address, CreatedAt: user.CreatedAt})
}

func (h *handlers) postWallet(w http.ResponseWriter, r *http.Request) {
	var body userRequest
	if err := decodeJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	address, err := h.accounts.WalletAddress(r.Context(), body.DID)
	if err != nil {
		h.fail(w, "Wallet lookup failed", err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{Address: address})
}
