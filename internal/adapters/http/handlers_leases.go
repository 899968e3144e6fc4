package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/application"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
)

func (h *Handler) actor(r *http.Request) (uuid.UUID, bool) {
	claims, ok := claimsFromContext(r.Context())
	if !ok || claims.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return claims.UserID, true
}

// leaseRequest resolves the caller and path lease id shared by every
// per-lease endpoint. It writes the error response itself on failure.
func (h *Handler) leaseRequest(w http.ResponseWriter, r *http.Request, operation string) (uuid.UUID, uuid.UUID, bool) {
	actor, ok := h.actor(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, operation)
		return uuid.Nil, uuid.Nil, false
	}
	leaseID, err := leaseIDParam(r)
	if err != nil {
		writeValidationError(r.Context(), w, operation, err)
		return uuid.Nil, uuid.Nil, false
	}
	return actor, leaseID, true
}

func (h *Handler) createLease(w http.ResponseWriter, r *http.Request) {
	const op = "create_lease"
	actor, ok := h.actor(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, op)
		return
	}
	var req application.CreateLeaseRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, op, err)
		return
	}
	if err := validateRequest(r.Context(), req); err != nil {
		writeValidationError(r.Context(), w, op, err)
		return
	}
	view, err := h.service.CreateLease(r.Context(), actor, req)
	if err != nil {
		writeMappedError(r.Context(), w, op, err)
		return
	}
	writeSuccess(w, http.StatusCreated, view)
}

func (h *Handler) listMyLeases(w http.ResponseWriter, r *http.Request) {
	const op = "list_my_leases"
	actor, ok := h.actor(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, op)
		return
	}
	query := application.ListLeasesQuery{
		Role:   strings.TrimSpace(r.URL.Query().Get("role")),
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
	}
	if err := validateRequest(r.Context(), query); err != nil {
		writeValidationError(r.Context(), w, op, err)
		return
	}
	views, err := h.service.ListMyLeases(r.Context(), actor, query)
	if err != nil {
		writeMappedError(r.Context(), w, op, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"leases": views,
		"count":  len(views),
	})
}

func (h *Handler) leaseStats(w http.ResponseWriter, r *http.Request) {
	const op = "lease_stats"
	actor, ok := h.actor(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, op)
		return
	}
	stats, err := h.service.Stats(r.Context(), actor)
	if err != nil {
		writeMappedError(r.Context(), w, op, err)
		return
	}
	writeSuccess(w, http.StatusOK, stats)
}

func (h *Handler) getLease(w http.ResponseWriter, r *http.Request) {
	const op = "get_lease"
	actor, leaseID, ok := h.leaseRequest(w, r, op)
	if !ok {
		return
	}
	detail, err := h.service.GetLease(r.Context(), actor, leaseID)
	if err != nil {
		writeMappedError(r.Context(), w, op, err)
		return
	}
	writeSuccess(w, http.StatusOK, detail)
}

func (h *Handler) sendLease(w http.ResponseWriter, r *http.Request) {
	const op = "send_lease"
	actor, leaseID, ok := h.leaseRequest(w, r, op)
	if !ok {
		return
	}
	var req application.SendLeaseRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, op, err)
		return
	}
	if err := validateRequest(r.Context(), req); err != nil {
		writeValidationError(r.Context(), w, op, err)
		return
	}
	view, err := h.service.SendLease(r.Context(), actor, leaseID, req)
	if err != nil {
		writeMappedError(r.Context(), w, op, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) requestChanges(w http.ResponseWriter, r *http.Request) {
	const op = "request_changes"
	actor, leaseID, ok := h.leaseRequest(w, r, op)
	if !ok {
		return
	}
	var req application.RequestChangesRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, op, err)
		return
	}
	if err := validateRequest(r.Context(), req); err != nil {
		writeValidationError(r.Context(), w, op, err)
		return
	}
	view, err := h.service.RequestChanges(r.Context(), actor, leaseID, req)
	if err != nil {
		writeMappedError(r.Context(), w, op, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) updateLease(w http.ResponseWriter, r *http.Request) {
	const op = "update_lease"
	actor, leaseID, ok := h.leaseRequest(w, r, op)
	if !ok {
		return
	}
	var req application.UpdateLeaseRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, op, err)
		return
	}
	if err := validateRequest(r.Context(), req); err != nil {
		writeValidationError(r.Context(), w, op, err)
		return
	}
	view, err := h.service.UpdateAndResend(r.Context(), actor, leaseID, req)
	if err != nil {
		writeMappedError(r.Context(), w, op, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) signLease(w http.ResponseWriter, r *http.Request) {
	const op = "sign_lease"
	actor, leaseID, ok := h.leaseRequest(w, r, op)
	if !ok {
		return
	}
	var req application.SignLeaseRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, op, err)
		return
	}
	if err := validateRequest(r.Context(), req); err != nil {
		writeValidationError(r.Context(), w, op, err)
		return
	}
	req.IPAddress = readIP(r)
	req.UserAgent = r.UserAgent()
	view, err := h.service.SignLease(r.Context(), actor, leaseID, req)
	if err != nil {
		writeMappedError(r.Context(), w, op, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) cancelLease(w http.ResponseWriter, r *http.Request) {
	const op = "cancel_lease"
	actor, leaseID, ok := h.leaseRequest(w, r, op)
	if !ok {
		return
	}
	var req application.CancelLeaseRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, op, err)
		return
	}
	if err := validateRequest(r.Context(), req); err != nil {
		writeValidationError(r.Context(), w, op, err)
		return
	}
	view, err := h.service.CancelLease(r.Context(), actor, leaseID, req)
	if err != nil {
		writeMappedError(r.Context(), w, op, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) deleteLease(w http.ResponseWriter, r *http.Request) {
	const op = "delete_lease"
	actor, leaseID, ok := h.leaseRequest(w, r, op)
	if !ok {
		return
	}
	view, err := h.service.DeleteLease(r.Context(), actor, leaseID)
	if err != nil {
		writeMappedError(r.Context(), w, op, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) restoreLease(w http.ResponseWriter, r *http.Request) {
	const op = "restore_lease"
	actor, leaseID, ok := h.leaseRequest(w, r, op)
	if !ok {
		return
	}
	view, err := h.service.RestoreLease(r.Context(), actor, leaseID)
	if err != nil {
		writeMappedError(r.Context(), w, op, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}

func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	const op = "post_lease_message"
	actor, leaseID, ok := h.leaseRequest(w, r, op)
	if !ok {
		return
	}
	var req application.PostMessageRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, op, err)
		return
	}
	if err := validateRequest(r.Context(), req); err != nil {
		writeValidationError(r.Context(), w, op, err)
		return
	}
	msg, err := h.service.PostMessage(r.Context(), actor, leaseID, req)
	if err != nil {
		writeMappedError(r.Context(), w, op, err)
		return
	}
	writeSuccess(w, http.StatusCreated, msg)
}

func (h *Handler) purgeLease(w http.ResponseWriter, r *http.Request) {
	const op = "purge_lease"
	actor, leaseID, ok := h.leaseRequest(w, r, op)
	if !ok {
		return
	}
	claims, _ := claimsFromContext(r.Context())
	if !domain.UserRole(claims.Role).IsAdmin() {
		writeMappedError(r.Context(), w, op, domain.ErrForbidden)
		return
	}
	if err := h.service.PurgeLease(r.Context(), actor, leaseID); err != nil {
		writeMappedError(r.Context(), w, op, err)
		return
	}
	writeMessage(w, http.StatusOK, "lease purged")
}
