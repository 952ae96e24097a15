// AngelaMos | 2026
// handler.go

package role

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/buildmc/storefront/internal/core"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes expects r to already be behind authentication and the
// admin check.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/roles", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Add)
		r.Put("/{roleID}", h.Update)
		r.Delete("/{roleID}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.List(r.Context())
	if err != nil {
		core.JSONError(w, core.NewAppError(err, "Failed to load users", http.StatusInternalServerError, "COLLABORATOR_ERROR").
			WithNotice(*core.Failure("Failed to load users", "")))
		return
	}

	core.OK(w, ToListResponse(rows))
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if req.UserID == "" {
		core.JSONError(w, core.ValidationError(map[string]string{"user_id": "Please enter a User ID"}).
			WithNotice(*core.Failure("Please enter a User ID", "")))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.ValidationFailed(w, core.FieldErrors(err))
		return
	}

	if _, err := h.service.Add(r.Context(), req.UserID, req.Role); err != nil {
		if errors.Is(err, ErrAlreadyAssigned) {
			core.JSONError(w, core.ConflictError("This user already has a role assigned").
				WithNotice(*core.Failure("This user already has a role assigned", "")))
			return
		}
		core.CollaboratorError(w, err)
		return
	}

	h.respondWithList(w, r, http.StatusCreated,
		core.Success(fmt.Sprintf("User role added successfully as %s", req.Role), ""))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.ValidationFailed(w, core.FieldErrors(err))
		return
	}

	if _, err := h.service.Update(r.Context(), chi.URLParam(r, "roleID"), req.Role); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.JSONError(w, core.NotFoundError("role").
				WithNotice(*core.Failure("Failed to update role", "")))
			return
		}
		core.JSONError(w, core.NewAppError(err, core.CollaboratorMessage(err), http.StatusInternalServerError, "COLLABORATOR_ERROR").
			WithNotice(*core.Failure("Failed to update role", "")))
		return
	}

	h.respondWithList(w, r, http.StatusOK,
		core.Success(fmt.Sprintf("Role updated to %s", req.Role), ""))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "roleID")); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.JSONError(w, core.NotFoundError("role").
				WithNotice(*core.Failure("Failed to delete user role", "")))
			return
		}
		core.JSONError(w, core.NewAppError(err, core.CollaboratorMessage(err), http.StatusInternalServerError, "COLLABORATOR_ERROR").
			WithNotice(*core.Failure("Failed to delete user role", "")))
		return
	}

	h.respondWithList(w, r, http.StatusOK, core.Success("User role deleted", ""))
}

func (h *Handler) respondWithList(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	notice *core.Notice,
) {
	rows, err := h.service.List(r.Context())
	if err != nil {
		core.CollaboratorError(w, err)
		return
	}

	core.WriteJSON(w, status, core.Response{
		Success: true,
		Data:    ToListResponse(rows),
		Notice:  notice,
	})
}
