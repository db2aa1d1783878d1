package garden

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

// DefaultImagePrefix is the object-storage folder holding plant art.
const DefaultImagePrefix = "game_assets/plants"

// ObjectStore resolves object keys to download URLs.
type ObjectStore interface {
	DownloadURL(ctx context.Context, key string) (string, error)
}

// Image is a resolved plant picture. When Fallback is set, URL is empty and
// Placeholder should be shown instead.
type Image struct {
	Key         string
	URL         string
	Placeholder string
	Fallback    bool
}

// ImageResolver maps a plant and stage to an image in object storage.
type ImageResolver struct {
	objects ObjectStore
	prefix  string
	logger  *slog.Logger
}

// NewImageResolver returns a resolver. An empty prefix uses DefaultImagePrefix.
func NewImageResolver(objects ObjectStore, prefix string, logger *slog.Logger) *ImageResolver {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultImagePrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageResolver{objects: objects, prefix: prefix, logger: logger}
}

// ImageKey joins the plant folder with the stage's asset filename. The
// plant type's storage folder overrides plantID when set.
func (r *ImageResolver) ImageKey(plantType core.PlantType, plantID string, stage core.Stage) string {
	folder := strings.Trim(strings.TrimSpace(plantType.StorageFolder), "/")
	if folder == "" {
		folder = plantID
	}
	if folder == "" {
		return ""
	}
	return path.Join(r.prefix, folder, stage.Asset())
}

// Resolve returns the stage image for a plant. It never fails: any lookup
// error yields the stage placeholder.
func (r *ImageResolver) Resolve(ctx context.Context, plantType core.PlantType, plantID string, stage core.Stage) Image {
	img := Image{Placeholder: stage.Placeholder()}
	img.Key = r.ImageKey(plantType, plantID, stage)
	if img.Key == "" || r.objects == nil {
		img.Fallback = true
		return img
	}

	url, err := r.objects.DownloadURL(ctx, img.Key)
	if err != nil || url == "" {
		r.logger.Debug("garden: plant image unavailable", "key", img.Key, "err", err)
		img.Fallback = true
		return img
	}
	img.URL = url
	return img
}
