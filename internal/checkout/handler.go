// AngelaMos | 2026
// handler.go

package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/buildmc/storefront/internal/auth"
	"github.com/buildmc/storefront/internal/catalog"
	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/internal/middleware"
	"github.com/buildmc/storefront/internal/order"
)

const ordersPath = "/orders"

type ProductReader interface {
	Product(ctx context.Context, id string) (*catalog.Product, error)
}

type Accounts interface {
	GetByID(ctx context.Context, id string) (*auth.UserInfo, error)
}

type ProductSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    *string `json:"image_url"`
	Stock       int     `json:"stock"`
	InStock     bool    `json:"in_stock"`
}

type PageResponse struct {
	Product        ProductSummary `json:"product"`
	PaymentMethods []string       `json:"payment_methods"`
	Form           Form           `json:"form"`
}

type ResultResponse struct {
	State  State             `json:"state"`
	Form   Form              `json:"form"`
	Fields map[string]string `json:"fields,omitempty"`
	Order  *order.Order      `json:"order,omitempty"`
}

type Handler struct {
	workflow *Workflow
	products ProductReader
	accounts Accounts
	logger   *slog.Logger
}

func NewHandler(workflow *Workflow, products ProductReader, accounts Accounts, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		workflow: workflow,
		products: products,
		accounts: accounts,
		logger:   logger,
	}
}

// RegisterRoutes expects r to already require authentication.
func (h *Handler) RegisterRoutes(r chi.Router, submitLimit func(http.Handler) http.Handler) {
	r.Route("/checkout/{productID}", func(r chi.Router) {
		r.Get("/", h.Page)
		r.With(submitLimit).Post("/", h.Submit)
	})
}

func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProduct(w, r)
	if !ok {
		return
	}

	form := Form{}
	if info, err := h.accounts.GetByID(r.Context(), middleware.GetUserID(r.Context())); err == nil {
		form.CustomerEmail = info.Email
	}

	core.OK(w, PageResponse{
		Product:        summarize(product),
		PaymentMethods: h.workflow.PaymentMethods(),
		Form:           form,
	})
}

// Submit resolves the product before looking at the form, so a missing
// product always sends the buyer back to the shop. The workflow re-reads it
// inside the order transaction.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProduct(w, r)
	if !ok {
		return
	}

	var form Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	attempt := h.workflow.Submit(r.Context(), middleware.GetUserID(r.Context()), product.ID, form)
	result := ResultResponse{
		State:  attempt.State(),
		Form:   attempt.Form,
		Fields: attempt.Fields,
	}

	switch attempt.State() {
	case StateSuccess:
		result.Order = attempt.Order
		core.CreatedWithNotice(w, result, core.Success("Order placed successfully!", ordersPath))

	case StateValidationFailed:
		core.WriteJSON(w, http.StatusUnprocessableEntity, core.Response{
			Success: false,
			Data:    result,
			Error: &core.ErrorBody{
				Code:    "VALIDATION_FAILED",
				Message: "validation failed",
				Fields:  attempt.Fields,
			},
		})

	default:
		h.submitFailed(w, attempt.Err, result)
	}
}

func (h *Handler) submitFailed(w http.ResponseWriter, err error, result ResultResponse) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		productNotFound(w)
		return
	case errors.Is(err, ErrOutOfStock):
		core.WriteJSON(w, http.StatusConflict, core.Response{
			Success: false,
			Data:    result,
			Error:   &core.ErrorBody{Code: "OUT_OF_STOCK", Message: "Product is out of stock"},
			Notice:  core.Failure("Product is out of stock", ""),
		})
		return
	}

	message := core.CollaboratorMessage(err)
	if message == "" {
		message = "Failed to place order"
	}
	h.logger.Error("order write failed", "error", err)

	core.WriteJSON(w, http.StatusInternalServerError, core.Response{
		Success: false,
		Data:    result,
		Error:   &core.ErrorBody{Code: "COLLABORATOR_ERROR", Message: message},
		Notice:  core.Failure(message, ""),
	})
}

func (h *Handler) loadProduct(w http.ResponseWriter, r *http.Request) (*catalog.Product, bool) {
	productID := chi.URLParam(r, "productID")
	if _, err := uuid.Parse(productID); err != nil {
		productNotFound(w)
		return nil, false
	}

	product, err := h.products.Product(r.Context(), productID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			productNotFound(w)
			return nil, false
		}
		message := core.CollaboratorMessage(err)
		h.logger.Warn("product fetch failed", "product_id", productID, "error", err)
		core.JSONError(w, core.NewAppError(err, message, http.StatusInternalServerError, "COLLABORATOR_ERROR").
			WithNotice(*core.Failure(message, "/")))
		return nil, false
	}
	return product, true
}

func productNotFound(w http.ResponseWriter) {
	core.JSONError(w, core.NotFoundError("product").
		WithNotice(*core.Failure("Product not found", "/")))
}

func summarize(p *catalog.Product) ProductSummary {
	return ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		InStock:     p.InStock(),
	}
}
