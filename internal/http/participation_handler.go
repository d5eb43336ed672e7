package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/club-scheduler/internal/application"
	"github.com/example/club-scheduler/internal/participation"
)

type participationService interface {
	SetParticipation(ctx context.Context, params application.SetParticipationParams) error
	RemoveParticipation(ctx context.Context, principal application.Principal, scheduleID, userID int64) error
	MyParticipations(ctx context.Context, principal application.Principal) ([]application.MyParticipation, error)
}

// ParticipationHandler serves attendance declarations. Routes without a
// userID path parameter act on the caller's own row.
type ParticipationHandler struct {
	service   participationService
	responder responder
	logger    *slog.Logger
}

func NewParticipationHandler(service participationService, logger *slog.Logger) *ParticipationHandler {
	base := defaultLogger(logger)
	return &ParticipationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ParticipationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ParticipationHandler", operation, attrs...)
}

func (h *ParticipationHandler) Set(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, userID, ok := h.target(w, r)
	if !ok {
		return
	}

	var req participationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Set", "schedule_id", scheduleID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode participation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	// Unknown values reach the service as-is so it reports the field error.
	status, err := participation.ParseStatus(req.Status)
	if err != nil {
		status = participation.Status(req.Status)
	}

	principal, _ := PrincipalFromContext(r.Context())
	err = h.service.SetParticipation(r.Context(), application.SetParticipationParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		UserID:     userID,
		Status:     status,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "참여 상태가 설정되었습니다.", map[string]string{"status": string(status)})
}

func (h *ParticipationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, userID, ok := h.target(w, r)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.RemoveParticipation(r.Context(), principal, scheduleID, userID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	message := "참여 상태가 제거되었습니다."
	if userID != 0 {
		message = "참여자가 제거되었습니다."
	}
	h.responder.writeSuccess(r.Context(), w, http.StatusOK, message, nil)
}

func (h *ParticipationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	rows, err := h.service.MyParticipations(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "참여 일정을 조회했습니다.", toMyParticipationDTOs(rows))
}

// target resolves the schedule and, when present, the member path parameters.
// A zero userID selects the caller.
func (h *ParticipationHandler) target(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	scheduleID, ok := pathID(r, "scheduleID")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return 0, 0, false
	}

	var userID int64
	if hasPathParam(r, "userID") {
		userID, ok = pathID(r, "userID")
		if !ok {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
			return 0, 0, false
		}
	}
	return scheduleID, userID, true
}
