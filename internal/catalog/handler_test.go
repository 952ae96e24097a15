// AngelaMos | 2026
// handler_test.go

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmc/storefront/internal/core"
)

type memRepo struct {
	mu         sync.Mutex
	products   map[string]*Product
	categories map[string]*Category
}

func newMemRepo() *memRepo {
	return &memRepo{
		products:   make(map[string]*Product),
		categories: make(map[string]*Category),
	}
}

func (m *memRepo) ListProducts(_ context.Context, limit int) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Product{}
	for _, p := range m.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) GetProduct(_ context.Context, id string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("get product: %w", core.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) CreateProduct(_ context.Context, in ProductInput) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &Product{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
		CreatedAt:   time.Now(),
	}
	m.products[p.ID] = p
	return p, nil
}

func (m *memRepo) UpdateProduct(_ context.Context, id string, in ProductInput) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("update product: %w", core.ErrNotFound)
	}
	p.Name, p.Price, p.Stock = in.Name, in.Price, in.Stock
	return p, nil
}

func (m *memRepo) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("delete product: %w", core.ErrNotFound)
	}
	delete(m.products, id)
	return nil
}

func (m *memRepo) ListCategories(context.Context) ([]Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Category{}
	for _, c := range m.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) CreateCategory(_ context.Context, in CategoryInput) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &Category{ID: uuid.New().String(), Name: in.Name, Description: in.Description}
	m.categories[c.ID] = c
	return c, nil
}

func (m *memRepo) UpdateCategory(_ context.Context, id string, in CategoryInput) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, fmt.Errorf("update category: %w", core.ErrNotFound)
	}
	c.Name, c.Description = in.Name, in.Description
	return c, nil
}

func (m *memRepo) DeleteCategory(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			return fmt.Errorf("delete category: %w", &pgconn.PgError{
				Code:    "23503",
				Message: `update or delete on table "categories" violates foreign key constraint "products_category_id_fkey" on table "products"`,
			})
		}
	}
	delete(m.categories, id)
	return nil
}

func (m *memRepo) CountProducts(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products), nil
}

func (m *memRepo) CountCategories(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.categories), nil
}

func newCatalogRouter(repo Repository) http.Handler {
	h := NewHandler(NewService(repo))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Route("/admin", h.RegisterAdminRoutes)
	return r
}

type envelope[T any] struct {
	Data   T               `json:"data"`
	Notice *core.Notice    `json:"notice"`
	Error  *core.ErrorBody `json:"error"`
}

func call[T any](t *testing.T, h http.Handler, method, path, body string) (int, envelope[T]) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestListProductsHonorsLimit(t *testing.T) {
	repo := newMemRepo()
	for _, name := range []string{"Zombie Egg", "Apple", "Mace"} {
		_, err := repo.CreateProduct(context.Background(), ProductInput{Name: name, Price: 1})
		require.NoError(t, err)
	}
	h := newCatalogRouter(repo)

	code, env := call[[]Product](t, h, http.MethodGet, "/products?limit=2", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Data, 2)
	assert.Equal(t, "Apple", env.Data[0].Name)
	assert.Equal(t, "Mace", env.Data[1].Name)
}

func TestCreateProductRespondsWithList(t *testing.T) {
	h := newCatalogRouter(newMemRepo())

	code, env := call[[]Product](t, h, http.MethodPost, "/admin/products",
		`{"name":"VIP","price":"9.99","stock":"5","image_url":"https://cdn.test/vip.webp"}`)

	require.Equal(t, http.StatusCreated, code)
	require.Len(t, env.Data, 1)
	assert.Equal(t, 9.99, env.Data[0].Price)
	require.NotNil(t, env.Notice)
	assert.Equal(t, "Product created!", env.Notice.Message)
}

func TestCreateProductRejectsNonImageURL(t *testing.T) {
	h := newCatalogRouter(newMemRepo())

	code, env := call[[]Product](t, h, http.MethodPost, "/admin/products",
		`{"name":"VIP","price":"9.99","stock":"5","image_url":"https://cdn.test/vip"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Notice)
	assert.Equal(t, InvalidImageURLMessage, env.Notice.Message)
}

func TestDeleteProductNotice(t *testing.T) {
	repo := newMemRepo()
	p, err := repo.CreateProduct(context.Background(), ProductInput{Name: "VIP", Price: 1})
	require.NoError(t, err)
	h := newCatalogRouter(repo)

	code, env := call[[]Product](t, h, http.MethodDelete, "/admin/products/"+p.ID, "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, env.Data)
	assert.Equal(t, "Product deleted!", env.Notice.Message)
}

func TestDeleteReferencedCategoryReportsStoreMessage(t *testing.T) {
	repo := newMemRepo()
	c, err := repo.CreateCategory(context.Background(), CategoryInput{Name: "Ranks"})
	require.NoError(t, err)
	_, err = repo.CreateProduct(context.Background(), ProductInput{Name: "VIP", CategoryID: &c.ID})
	require.NoError(t, err)
	h := newCatalogRouter(repo)

	code, env := call[[]Category](t, h, http.MethodDelete, "/admin/categories/"+c.ID, "")
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Notice)
	assert.Contains(t, env.Notice.Message, "violates foreign key constraint")
}

func TestCreateCategoryNotice(t *testing.T) {
	h := newCatalogRouter(newMemRepo())

	code, env := call[[]Category](t, h, http.MethodPost, "/admin/categories", `{"name":"Ranks"}`)
	require.Equal(t, http.StatusCreated, code)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "Category created!", env.Notice.Message)
}
