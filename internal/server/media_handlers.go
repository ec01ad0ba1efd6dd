package server

import (
	"errors"
	"log/slog"

	"atelier/internal/featureflags"
	"atelier/internal/imaging"
	"atelier/internal/models"
	"atelier/internal/storage"

	"github.com/gofiber/fiber/v2"
)

const mediaCacheControl = "public, max-age=86400"

// GetHome handles GET /api/home
// @Summary Public gallery
// @Description The newest completed designs and the number of requests in progress
// @Tags home
// @Produce json
// @Success 200 {object} service.HomeSummary
// @Router /home [get]
func (s *Server) GetHome(c *fiber.Ctx) error {
	if !s.featureFlags.Enabled(featureflags.PublicGallery, 0) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Page", "home"))
	}

	summary, err := s.requestService.Home(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// ServeMedia handles GET /api/media/*. With ?size=thumb it returns a JPEG
// preview instead of the original.
// @Summary Download a stored image
// @Tags media
// @Param key path string true "Blob key"
// @Param size query string false "thumb"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Router /media/{key} [get]
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	key, err := storage.CleanKey(c.Params("*"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Media", c.Params("*")))
	}

	info, rc, err := s.blobs.Get(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Media", key))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	userID, _ := c.Locals("userID").(uint)
	if c.Query("size") == "thumb" && s.featureFlags.Enabled(featureflags.Thumbnails, userID) {
		defer func() { _ = rc.Close() }()
		thumb, err := imaging.Thumbnail(rc, imaging.ThumbnailSize)
		if err != nil {
			if errors.Is(err, imaging.ErrUndecodable) {
				slog.WarnContext(c.UserContext(), "stored image cannot be thumbnailed",
					"key", key, "err", err)
				return models.RespondWithError(c, fiber.StatusUnsupportedMediaType,
					models.NewValidationError("Image cannot be previewed"))
			}
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
		c.Set(fiber.HeaderContentType, "image/jpeg")
		c.Set(fiber.HeaderCacheControl, mediaCacheControl)
		return c.Send(thumb)
	}

	c.Set(fiber.HeaderContentType, info.ContentType)
	c.Set(fiber.HeaderCacheControl, mediaCacheControl)
	return c.SendStream(rc, int(info.Size))
}
