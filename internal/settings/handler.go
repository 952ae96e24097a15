// AngelaMos | 2026
// handler.go

package settings

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/internal/realtime"
)

const (
	streamKeepAlive = 25 * time.Second
	multipartSlack  = 1 << 20
)

type Subscriber interface {
	Subscribe(ctx context.Context, topics ...string) (*realtime.Subscription, error)
}

type SaveQuickLinksRequest struct {
	QuickLinks []QuickLink `json:"quick_links"`
}

type SaveStatBoxesRequest struct {
	StatBoxes []StatBox `json:"stat_boxes"`
}

type QuickLinksResponse struct {
	QuickLinks []QuickLink `json:"quick_links"`
	Dropped    []Dropped   `json:"dropped"`
}

type StatBoxesResponse struct {
	StatBoxes []StatBox `json:"stat_boxes"`
	Dropped   []Dropped `json:"dropped"`
}

type LogoResponse struct {
	URL string `json:"url"`
}

type Handler struct {
	service  *Service
	bus      Subscriber
	maxBytes int64
	logger   *slog.Logger
}

func NewHandler(service *Service, bus Subscriber, maxLogoBytes int64, logger *slog.Logger) *Handler {
	if maxLogoBytes <= 0 {
		maxLogoBytes = DefaultLogoMaxBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:  service,
		bus:      bus,
		maxBytes: maxLogoBytes,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/site", func(r chi.Router) {
		r.Get("/settings", h.Settings)
		r.Get("/quick-links", h.QuickLinks)
		r.Get("/stat-boxes", h.StatBoxes)
		r.Get("/config", h.Config)
		r.Get("/changes", h.Changes)
	})
}

// RegisterAdminRoutes expects r to already be behind the admin check.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Put("/settings", h.SaveSettings)
	r.Put("/quick-links", h.SaveQuickLinks)
	r.Put("/stat-boxes", h.SaveStatBoxes)
	r.Post("/logo", h.UploadLogo)
	r.Delete("/logo", h.RemoveLogo)
}

func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	values, err := h.service.Settings(r.Context())
	if err != nil {
		core.CollaboratorError(w, err)
		return
	}
	core.OK(w, values)
}

func (h *Handler) QuickLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.QuickLinks(r.Context())
	if err != nil {
		core.CollaboratorError(w, err)
		return
	}
	core.OK(w, links)
}

func (h *Handler) StatBoxes(w http.ResponseWriter, r *http.Request) {
	boxes, err := h.service.StatBoxes(r.Context())
	if err != nil {
		core.CollaboratorError(w, err)
		return
	}
	core.OK(w, boxes)
}

func (h *Handler) Config(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.service.SiteConfig())
}

// Changes streams a "change" event whenever site content is saved. Clients
// refetch the named collection.
func (h *Handler) Changes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sub, err := h.bus.Subscribe(ctx, TopicSiteSettings, TopicQuickLinks, TopicStatBoxes)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	defer sub.Close() //nolint:errcheck

	stream, err := realtime.NewStream(w)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := stream.Send("change", ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := stream.KeepAlive(); err != nil {
				return
			}
		}
	}
}

func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.service.SaveSettings(r.Context(), values); err != nil {
		saveFailed(w, err)
		return
	}

	saved, err := h.service.Settings(r.Context())
	if err != nil {
		core.CollaboratorError(w, err)
		return
	}
	core.OKWithNotice(w, saved, core.Success("All settings saved successfully", ""))
}

func (h *Handler) SaveQuickLinks(w http.ResponseWriter, r *http.Request) {
	var req SaveQuickLinksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	dropped, err := h.service.SaveQuickLinks(r.Context(), req.QuickLinks)
	if err != nil {
		saveFailed(w, err)
		return
	}

	links, err := h.service.QuickLinks(r.Context())
	if err != nil {
		core.CollaboratorError(w, err)
		return
	}
	core.OKWithNotice(w, QuickLinksResponse{
		QuickLinks: links,
		Dropped:    nonNil(dropped),
	}, core.Success("Quick links saved successfully", ""))
}

func (h *Handler) SaveStatBoxes(w http.ResponseWriter, r *http.Request) {
	var req SaveStatBoxesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	dropped, err := h.service.SaveStatBoxes(r.Context(), req.StatBoxes)
	if err != nil {
		saveFailed(w, err)
		return
	}

	boxes, err := h.service.StatBoxes(r.Context())
	if err != nil {
		core.CollaboratorError(w, err)
		return
	}
	core.OKWithNotice(w, StatBoxesResponse{
		StatBoxes: boxes,
		Dropped:   nonNil(dropped),
	}, core.Success("Stat boxes saved successfully", ""))
}

func (h *Handler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartSlack)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			logoRejected(w, ErrLogoTooLarge)
			return
		}
		core.BadRequest(w, "file is required")
		return
	}
	defer file.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		core.BadRequest(w, "failed to read file")
		return
	}

	url, err := h.service.UploadLogo(r.Context(), header.Filename, header.Header.Get("Content-Type"), body)
	if err != nil {
		if errors.Is(err, ErrNotImage) || errors.Is(err, ErrLogoTooLarge) {
			logoRejected(w, err)
			return
		}
		h.logger.Error("logo upload failed", "error", err)
		core.CollaboratorError(w, err)
		return
	}

	core.CreatedWithNotice(w, LogoResponse{URL: url}, core.Success("Logo uploaded successfully", ""))
}

func (h *Handler) RemoveLogo(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveLogo(r.Context()); err != nil {
		core.CollaboratorError(w, err)
		return
	}
	core.OKWithNotice(w, LogoResponse{}, core.Success("Logo removed successfully", ""))
}

func saveFailed(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}
	core.CollaboratorError(w, err)
}

func logoRejected(w http.ResponseWriter, err error) {
	title, hint := "Invalid file type", "Please select an image file (PNG, JPG, WEBP, SVG)"
	if errors.Is(err, ErrLogoTooLarge) {
		title, hint = "File too large", "Please select an image under 2MB"
	}

	core.JSONError(w, core.NewAppError(err, title, http.StatusBadRequest, "INVALID_LOGO").
		WithNotice(*core.Failure(hint, "")))
}

func nonNil(d []Dropped) []Dropped {
	if d == nil {
		return []Dropped{}
	}
	return d
}
