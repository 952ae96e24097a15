// AngelaMos | 2026
// handler.go

package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/buildmc/storefront/internal/core"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.ListProducts)
	r.Get("/products/{productID}", h.GetProduct)
	r.Get("/categories", h.ListCategories)
}

// RegisterAdminRoutes expects r to already be behind the admin check.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Put("/{productID}", h.UpdateProduct)
		r.Delete("/{productID}", h.DeleteProduct)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Post("/", h.CreateCategory)
		r.Put("/{categoryID}", h.UpdateCategory)
		r.Delete("/{categoryID}", h.DeleteCategory)
	})
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			core.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	products, err := h.service.Products(r.Context(), limit)
	if err != nil {
		core.CollaboratorError(w, err)
		return
	}

	core.OK(w, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Product(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "product")
			return
		}
		core.CollaboratorError(w, err)
		return
	}

	core.OK(w, product)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		core.CollaboratorError(w, err)
		return
	}

	core.OK(w, categories)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	if _, err := h.service.CreateProduct(r.Context(), in); err != nil {
		core.CollaboratorError(w, err)
		return
	}

	h.respondWithProducts(w, r, http.StatusCreated, "Product created!")
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	if _, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "productID"), in); err != nil {
		core.CollaboratorError(w, err)
		return
	}

	h.respondWithProducts(w, r, http.StatusOK, "Product updated!")
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "productID")); err != nil {
		core.CollaboratorError(w, err)
		return
	}

	h.respondWithProducts(w, r, http.StatusOK, "Product deleted!")
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeCategory(w, r)
	if !ok {
		return
	}

	if _, err := h.service.CreateCategory(r.Context(), in); err != nil {
		core.CollaboratorError(w, err)
		return
	}

	h.respondWithCategories(w, r, http.StatusCreated, "Category created!")
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeCategory(w, r)
	if !ok {
		return
	}

	if _, err := h.service.UpdateCategory(r.Context(), chi.URLParam(r, "categoryID"), in); err != nil {
		core.CollaboratorError(w, err)
		return
	}

	h.respondWithCategories(w, r, http.StatusOK, "Category updated!")
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "categoryID")); err != nil {
		core.CollaboratorError(w, err)
		return
	}

	h.respondWithCategories(w, r, http.StatusOK, "Category deleted!")
}

func (h *Handler) respondWithProducts(w http.ResponseWriter, r *http.Request, status int, message string) {
	products, err := h.service.Products(r.Context(), 0)
	if err != nil {
		core.CollaboratorError(w, err)
		return
	}

	core.WriteJSON(w, status, core.Response{
		Success: true,
		Data:    products,
		Notice:  core.Success(message, ""),
	})
}

func (h *Handler) respondWithCategories(w http.ResponseWriter, r *http.Request, status int, message string) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		core.CollaboratorError(w, err)
		return
	}

	core.WriteJSON(w, status, core.Response{
		Success: true,
		Data:    categories,
		Notice:  core.Success(message, ""),
	})
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (ProductInput, bool) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return ProductInput{}, false
	}

	in, fields := req.Validate()
	if fields != nil {
		rejectFields(w, fields)
		return ProductInput{}, false
	}
	return in, true
}

func decodeCategory(w http.ResponseWriter, r *http.Request) (CategoryInput, bool) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return CategoryInput{}, false
	}

	in, fields := req.Validate()
	if fields != nil {
		rejectFields(w, fields)
		return CategoryInput{}, false
	}
	return in, true
}

// rejectFields uses the image URL message as the notice when that field
// failed.
func rejectFields(w http.ResponseWriter, fields map[string]string) {
	message := "Please fix the highlighted fields"
	if msg, ok := fields["image_url"]; ok {
		message = msg
	}
	core.JSONError(w, core.ValidationError(fields).WithNotice(*core.Failure(message, "")))
}
