// AngelaMos | 2026
// service.go

package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/buildmc/storefront/internal/config"
	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/internal/realtime"
	"github.com/buildmc/storefront/internal/storage"
)

const (
	TopicSiteSettings = "site_settings"
	TopicQuickLinks   = "quick_links"
	TopicStatBoxes    = "stat_boxes"

	EventUpdated = "UPDATED"
)

type SiteConfigResponse struct {
	DefaultTheme    string   `json:"default_theme"`
	ThemeStorageKey string   `json:"theme_storage_key"`
	Icons           []string `json:"icons"`
	DefaultIcon     string   `json:"default_icon"`
}

type Service struct {
	repo    Repository
	bucket  storage.Bucket
	events  realtime.Publisher
	storage config.StorageConfig
	site    config.SiteConfig
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(
	repo Repository,
	bucket storage.Bucket,
	events realtime.Publisher,
	storageCfg config.StorageConfig,
	siteCfg config.SiteConfig,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		bucket:  bucket,
		events:  events,
		storage: storageCfg,
		site:    siteCfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Settings returns every stored setting keyed by setting_key.
func (s *Service) Settings(ctx context.Context) (map[string]string, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Setting returns "" for a key that was never saved.
func (s *Service) Setting(ctx context.Context, key string) (string, error) {
	value, err := s.repo.Get(ctx, key)
	if errors.Is(err, core.ErrNotFound) {
		return "", nil
	}
	return value, err
}

// SaveSettings writes the whole editable key list. Keys missing from values
// are saved empty.
func (s *Service) SaveSettings(ctx context.Context, values map[string]string) error {
	fields := map[string]string{}
	for key := range values {
		if !editable(key) {
			fields[key] = "unknown setting"
		}
	}
	if len(fields) > 0 {
		return core.ValidationError(fields)
	}

	rows := make([]Setting, 0, len(EditableKeys))
	for _, key := range EditableKeys {
		rows = append(rows, Setting{Key: key, Value: values[key]})
	}

	if err := s.repo.Upsert(ctx, rows); err != nil {
		return err
	}

	s.notify(ctx, TopicSiteSettings)
	return nil
}

func (s *Service) QuickLinks(ctx context.Context) ([]QuickLink, error) {
	return s.repo.QuickLinks(ctx)
}

func (s *Service) SaveQuickLinks(ctx context.Context, links []QuickLink) ([]Dropped, error) {
	dropped, err := s.repo.SaveQuickLinks(ctx, links)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, TopicQuickLinks)
	return dropped, nil
}

// StatBoxes resolves unknown stored icons to DefaultIcon.
func (s *Service) StatBoxes(ctx context.Context) ([]StatBox, error) {
	boxes, err := s.repo.StatBoxes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range boxes {
		boxes[i].Icon = ResolveIcon(boxes[i].Icon)
	}
	return boxes, nil
}

// SaveStatBoxes rejects the whole save when any icon is not a known name.
// An empty icon becomes DefaultIcon.
func (s *Service) SaveStatBoxes(ctx context.Context, boxes []StatBox) ([]Dropped, error) {
	fields := map[string]string{}
	for i := range boxes {
		if boxes[i].Icon == "" {
			boxes[i].Icon = DefaultIcon
			continue
		}
		// Incomplete rows are dropped, so their icon is never stored.
		if boxes[i].Complete() && !ValidIcon(boxes[i].Icon) {
			fields[fmt.Sprintf("stat_boxes.%d.icon", i)] = fmt.Sprintf("unknown icon %q", boxes[i].Icon)
		}
	}
	if len(fields) > 0 {
		return nil, core.ValidationError(fields)
	}

	dropped, err := s.repo.SaveStatBoxes(ctx, boxes)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, TopicStatBoxes)
	return dropped, nil
}

// UploadLogo stores the image and points website_logo at its public URL.
func (s *Service) UploadLogo(ctx context.Context, filename, contentType string, body []byte) (string, error) {
	logo, err := PrepareLogo(
		filename,
		contentType,
		body,
		s.storage.LogoMaxBytes,
		s.storage.LogoMaxWidth,
		s.now(),
	)
	if err != nil {
		return "", err
	}

	obj, err := s.bucket.Upload(ctx, logo.Path, bytes.NewReader(logo.Body), storage.UploadOptions{
		ContentType:  logo.ContentType,
		CacheControl: logoCacheSeconds,
		Overwrite:    true,
	})
	if err != nil {
		return "", err
	}

	if err := s.repo.Upsert(ctx, []Setting{{Key: KeyWebsiteLogo, Value: obj.URL}}); err != nil {
		// Nothing references the object yet.
		if delErr := s.bucket.Delete(context.WithoutCancel(ctx), obj.Path); delErr != nil {
			s.logger.Warn("orphaned logo not removed", "path", obj.Path, "error", delErr)
		}
		return "", err
	}

	s.logger.Info("logo uploaded", "path", obj.Path, "bytes", len(logo.Body))
	s.notify(ctx, TopicSiteSettings)
	return obj.URL, nil
}

// RemoveLogo clears the setting. The stored object is left in the bucket.
func (s *Service) RemoveLogo(ctx context.Context) error {
	if err := s.repo.Delete(ctx, KeyWebsiteLogo); err != nil {
		return err
	}

	s.notify(ctx, TopicSiteSettings)
	return nil
}

func (s *Service) SiteConfig() SiteConfigResponse {
	return SiteConfigResponse{
		DefaultTheme:    s.site.DefaultTheme,
		ThemeStorageKey: s.site.ThemeStorageKey,
		Icons:           Icons(),
		DefaultIcon:     DefaultIcon,
	}
}

func (s *Service) notify(ctx context.Context, topic string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, topic, EventUpdated, nil); err != nil {
		s.logger.Warn("failed to publish settings change", "topic", topic, "error", err)
	}
}
