package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/club-scheduler/internal/application"
	"github.com/example/club-scheduler/internal/logging"
)

var (
	errBadRequestBody     = errors.New("잘못된 요청 형식입니다.")
	errInvalidScheduleID  = errors.New("유효하지 않은 일정 ID입니다.")
	errInvalidUserID      = errors.New("유효하지 않은 사용자 ID입니다.")
	errMissingToken       = errors.New("인증 토큰이 필요합니다.")
	errTooManyRequests    = errors.New("요청이 너무 많습니다. 잠시 후 다시 시도해주세요.")
	errRouteNotFound      = errors.New("요청한 경로를 찾을 수 없습니다.")
	errMethodNotSupported = errors.New("허용되지 않은 요청 방식입니다.")
)

// envelope is the wrapper every API response uses.
type envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    any          `json:"data,omitempty"`
	Errors  []fieldError `json:"errors,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload envelope) {
	if w == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeSuccess(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	r.writeJSON(ctx, w, status, envelope{Success: true, Message: message, Data: data})
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, envelope{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var vErr *application.ValidationError
	hasFields := errors.As(err, &vErr)

	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusBadRequest, envelope{Message: "이름 또는 전화번호가 올바르지 않습니다."})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusUnauthorized, envelope{Message: "인증이 만료되었습니다. 다시 로그인해주세요."})
	case errors.Is(err, application.ErrPendingApproval):
		r.writeJSON(ctx, w, http.StatusForbidden, envelope{Message: "관리자 승인 대기 중입니다."})
	case errors.Is(err, application.ErrForbidden):
		r.writeJSON(ctx, w, http.StatusForbidden, envelope{Message: "이 작업을 수행할 권한이 없습니다."})
	case errors.Is(err, application.ErrSelfDeletion):
		r.writeJSON(ctx, w, http.StatusBadRequest, envelope{Message: "자기 자신은 삭제할 수 없습니다."})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, envelope{Message: "요청한 정보를 찾을 수 없습니다."})
	case errors.Is(err, application.ErrConflict):
		r.writeJSON(ctx, w, http.StatusConflict, envelope{
			Message: "이미 등록된 전화번호입니다.",
			Errors:  localizeValidationErrors(vErr),
		})
	case hasFields:
		r.writeJSON(ctx, w, http.StatusBadRequest, envelope{
			Message: "입력값이 올바르지 않습니다.",
			Errors:  localizeValidationErrors(vErr),
		})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, envelope{Message: "서버 내부 오류가 발생했습니다."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "입력값이 올바르지 않습니다."
	case http.StatusUnauthorized:
		return "인증이 필요합니다."
	case http.StatusForbidden:
		return "이 작업을 수행할 권한이 없습니다."
	case http.StatusNotFound:
		return "요청한 정보를 찾을 수 없습니다."
	case http.StatusConflict:
		return "요청이 현재 상태와 충돌합니다."
	case http.StatusTooManyRequests:
		return errTooManyRequests.Error()
	default:
		return "서버 내부 오류가 발생했습니다."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) []fieldError {
	if !vErr.HasErrors() {
		return nil
	}

	fields := vErr.Fields()
	translated := make([]fieldError, 0, len(fields))
	for _, field := range fields {
		translated = append(translated, fieldError{
			Field:   field,
			Message: translateValidationMessage(vErr.FieldErrors[field]),
		})
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "name is required":
		return "이름을 입력해주세요."
	case "name is too long":
		return "이름은 50자 이하로 입력해주세요."
	case "phone is required":
		return "전화번호를 입력해주세요."
	case "phone is invalid":
		return "올바른 전화번호 형식이 아닙니다. (010-XXXX-XXXX)"
	case "phone is already registered":
		return "이미 등록된 전화번호입니다."
	case "title is required":
		return "제목을 입력해주세요."
	case "title is too long":
		return "제목은 100자 이하로 입력해주세요."
	case "date is required":
		return "날짜를 선택해주세요."
	case "date is invalid":
		return "올바른 날짜 형식이 아닙니다. (YYYY-MM-DD)"
	case "start_time is required":
		return "시작 시간을 선택해주세요."
	case "start_time is invalid":
		return "올바른 시작 시간 형식이 아닙니다. (HH:MM)"
	case "end_time is required":
		return "종료 시간을 선택해주세요."
	case "end_time is invalid":
		return "올바른 종료 시간 형식이 아닙니다. (HH:MM)"
	case "end_time must be after start_time":
		return "종료 시간은 시작 시간보다 늦어야 합니다."
	case "status is invalid":
		return "참여 상태는 참여, 불참, 미정 중 하나여야 합니다."
	case "year is invalid":
		return "올바른 연도가 아닙니다."
	case "month is invalid":
		return "올바른 월이 아닙니다."
	case "cannot remove own administrator rights":
		return "자신의 관리자 권한은 해제할 수 없습니다."
	default:
		return message
	}
}
