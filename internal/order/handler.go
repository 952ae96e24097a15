// AngelaMos | 2026
// handler.go

package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/internal/middleware"
)

const (
	revealParam  = "reveal"
	confirmParam = "confirm"
)

type Handler struct {
	service    *Service
	validator  *validator.Validate
	confirmTTL time.Duration
}

func NewHandler(service *Service, confirmTTL time.Duration) *Handler {
	if confirmTTL <= 0 {
		confirmTTL = DefaultConfirmTTL
	}
	return &Handler{
		service:    service,
		validator:  core.NewValidator(),
		confirmTTL: confirmTTL,
	}
}

// RegisterRoutes expects r to already require authentication.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.History)
}

// RegisterAdminRoutes expects r to already be behind the admin check.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.List)
		r.Route("/{orderID}", func(r chi.Router) {
			r.Use(requireOrderID)
			r.Patch("/status", h.UpdateStatus)
			r.Post("/visibility", h.ToggleVisibility)
			r.Post("/delete", h.RequestDelete)
			r.Delete("/delete", h.CancelDelete)
			r.Delete("/", h.ConfirmDelete)
		})
	})
}

// requireOrderID answers 404 for ids that cannot name a stored order.
func requireOrderID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := uuid.Parse(chi.URLParam(r, "orderID")); err != nil {
			core.NotFound(w, "order")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.History(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.CollaboratorError(w, err)
		return
	}

	core.OK(w, orders)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.respondWithList(w, r, nil)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.ValidationFailed(w, core.FieldErrors(err))
		return
	}

	if _, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "orderID"), req.Status); err != nil {
		core.CollaboratorError(w, err)
		return
	}

	h.respondWithList(w, r, core.Success("Order status updated!", ""))
}

// ToggleVisibility flips one order in the caller's reveal set and hands the
// new set back. Nothing is stored server side.
func (h *Handler) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	visible := ParseVisibility(r.URL.Query().Get(revealParam))

	revealed := visible.Toggle(orderID)
	notice := core.Info("PII masked for security")
	if revealed {
		notice = core.Info("Viewing full customer details")
	}

	core.OKWithNotice(w, VisibilityResponse{
		OrderID:  orderID,
		Revealed: revealed,
		Reveal:   visible.IDs(),
	}, notice)
}

func (h *Handler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	token, err := h.service.RequestDelete(r.Context(), orderID)
	if err != nil {
		deleteFailed(w, err)
		return
	}

	core.Created(w, DeleteRequestResponse{
		OrderID:   orderID,
		Token:     token,
		ExpiresAt: time.Now().Add(h.confirmTTL).UTC(),
	})
}

func (h *Handler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelDelete(r.Context(), chi.URLParam(r, "orderID")); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	token := r.URL.Query().Get(confirmParam)

	if err := h.service.ConfirmDelete(r.Context(), orderID, token); err != nil {
		deleteFailed(w, err)
		return
	}

	h.respondWithList(w, r, core.Success("Order deleted successfully!", ""))
}

func (h *Handler) respondWithList(w http.ResponseWriter, r *http.Request, notice *core.Notice) {
	orders, err := h.service.All(r.Context())
	if err != nil {
		core.CollaboratorError(w, err)
		return
	}

	body := ToAdminList(orders, ParseVisibility(r.URL.Query().Get(revealParam)))
	if notice == nil {
		core.OK(w, body)
		return
	}
	core.OKWithNotice(w, body, notice)
}

func deleteFailed(w http.ResponseWriter, err error) {
	notice := *core.Failure("Failed to delete order", "")

	switch {
	case errors.Is(err, ErrConfirmationRequired):
		core.JSONError(w, core.ConflictError("delete confirmation missing or expired").WithNotice(notice))
	case errors.Is(err, core.ErrNotFound):
		core.JSONError(w, core.NotFoundError("order").WithNotice(notice))
	default:
		core.JSONError(w, core.NewAppError(
			err,
			core.CollaboratorMessage(err),
			http.StatusInternalServerError,
			"COLLABORATOR_ERROR",
		).WithNotice(notice))
	}
}
