package job

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	types "market-api/internal/shared"
)

// ObjectRemover là phần của storage cần để xóa ảnh
type ObjectRemover interface {
	RemoveObjects(ctx context.Context, keys []string) error
}

// DeleteImagesHandler xóa object ảnh của listing đã bị xóa
// Chỉ xóa key nằm dưới <keyPrefix>/<ownerID>/; key của user khác và URL bên ngoài bị bỏ qua
type DeleteImagesHandler struct {
	store     ObjectRemover
	keyPrefix string
}

func NewDeleteImagesHandler(store ObjectRemover, keyPrefix string) *DeleteImagesHandler {
	return &DeleteImagesHandler{
		store:     store,
		keyPrefix: strings.Trim(keyPrefix, "/"),
	}
}

func (h *DeleteImagesHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload types.DeleteListingImagesPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal DeleteListingImages payload")
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	keys := h.ownedKeys(payload.OwnerID, payload.Images)
	if len(keys) == 0 {
		log.Info().
			Str("listing_id", payload.ListingID).
			Str("owner_id", payload.OwnerID).
			Int("images", len(payload.Images)).
			Msg("No stored images to delete")
		return nil
	}

	if err := h.store.RemoveObjects(ctx, keys); err != nil {
		log.Error().
			Err(err).
			Str("listing_id", payload.ListingID).
			Msg("Failed to delete listing images")
		return fmt.Errorf("delete images: %w", err)
	}

	log.Info().
		Str("listing_id", payload.ListingID).
		Int("deleted", len(keys)).
		Msg("Listing images deleted")
	return nil
}

// ownedKeys lọc và chuẩn hóa các image reference thành object key của ownerID
func (h *DeleteImagesHandler) ownedKeys(ownerID string, images []string) []string {
	ownerID = strings.Trim(ownerID, "/")
	if ownerID == "" || strings.Contains(ownerID, "/") {
		return nil
	}
	ownerPrefix := h.keyPrefix + "/" + ownerID + "/"

	seen := make(map[string]struct{}, len(images))
	keys := make([]string, 0, len(images))
	for _, img := range images {
		key, ok := h.keyFromImage(img)
		if !ok || !strings.HasPrefix(key, ownerPrefix) {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// keyFromImage nhận key trần hoặc URL (virtual-host hoặc path-style /bucket/key)
func (h *DeleteImagesHandler) keyFromImage(img string) (string, bool) {
	img = strings.TrimSpace(img)
	if img == "" || h.keyPrefix == "" {
		return "", false
	}

	path := img
	if strings.Contains(img, "://") {
		u, err := url.Parse(img)
		if err != nil {
			return "", false
		}
		path = u.Path
	}
	path = strings.TrimPrefix(path, "/")
	if strings.Contains("/"+path+"/", "/../") {
		return "", false
	}

	prefix := h.keyPrefix + "/"
	if strings.HasPrefix(path, prefix) {
		return path, true
	}
	if _, rest, ok := strings.Cut(path, "/"); ok && strings.HasPrefix(rest, prefix) {
		return rest, true
	}
	return "", false
}
