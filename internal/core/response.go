// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
	NoticeWarning = "warning"
)

// Notice is a transient, user-facing message with an optional navigation
// target the client should follow after showing it.
type Notice struct {
	Level    string `json:"level"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

func Success(message, redirect string) *Notice {
	return &Notice{Level: NoticeSuccess, Message: message, Redirect: redirect}
}

func Failure(message, redirect string) *Notice {
	return &Notice{Level: NoticeError, Message: message, Redirect: redirect}
}

func Info(message string) *Notice {
	return &Notice{Level: NoticeInfo, Message: message}
}

type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
	Notice  *Notice    `json:"notice,omitempty"`
}

type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type Meta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(body)
}

func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func OKWithNotice(w http.ResponseWriter, data any, notice *Notice) {
	WriteJSON(w, http.StatusOK, Response{Success: true, Data: data, Notice: notice})
}

func Created(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Success: true, Data: data})
}

func CreatedWithNotice(w http.ResponseWriter, data any, notice *Notice) {
	WriteJSON(w, http.StatusCreated, Response{Success: true, Data: data, Notice: notice})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Paginated(w http.ResponseWriter, data any, page, pageSize, total int) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

func JSONError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		InternalServerError(w, err)
		return
	}

	WriteJSON(w, appErr.StatusCode, Response{
		Success: false,
		Error: &ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Fields:  appErr.Fields,
		},
		Notice: appErr.Notice,
	})
}

func BadRequest(w http.ResponseWriter, message string) {
	JSONError(w, NewAppError(ErrInvalidInput, message, http.StatusBadRequest, "BAD_REQUEST"))
}

func Unauthorized(w http.ResponseWriter, message string) {
	JSONError(w, UnauthorizedError(message))
}

func Forbidden(w http.ResponseWriter, message string) {
	JSONError(w, ForbiddenError(message))
}

func NotFound(w http.ResponseWriter, resource string) {
	JSONError(w, NotFoundError(resource))
}

func ValidationFailed(w http.ResponseWriter, fields map[string]string) {
	JSONError(w, ValidationError(fields))
}

func InternalServerError(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)
	WriteJSON(w, http.StatusInternalServerError, Response{
		Success: false,
		Error: &ErrorBody{
			Code:    "INTERNAL_ERROR",
			Message: "an unexpected error occurred",
		},
	})
}

// CollaboratorError reports a backing-store failure with the store's own
// message, for admin workflows that show it verbatim.
func CollaboratorError(w http.ResponseWriter, err error) {
	message := CollaboratorMessage(err)
	status := http.StatusInternalServerError
	code := "COLLABORATOR_ERROR"

	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
		code = "NOT_FOUND"
	case IsDuplicateKeyError(err):
		status = http.StatusConflict
		code = "DUPLICATE"
	case IsForeignKeyError(err):
		status = http.StatusConflict
		code = "CONSTRAINT"
	}

	slog.Warn("collaborator error", "error", err, "status", status)
	WriteJSON(w, status, Response{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message},
		Notice:  Failure(message, ""),
	})
}

// FieldErrors maps every failing field (by its json name when a tag-name
// func is registered) to a readable message.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = describeFieldError(fe)
	}
	return fields
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid id", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
