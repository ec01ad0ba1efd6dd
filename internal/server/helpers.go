package server

import (
	"errors"
	"mime/multipart"

	"atelier/internal/models"
	"atelier/internal/policy"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// respondError writes err with the status its code maps to.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusForError(err), err)
}

// actor loads the authenticated user once per request. When the token's user
// no longer exists it writes a 401 and returns errResponseWritten.
func (s *Server) actor(c *fiber.Ctx) (policy.Actor, error) {
	if a, ok := c.Locals("actor").(policy.Actor); ok {
		return a, nil
	}

	userID, _ := c.Locals("userID").(uint)
	if userID == 0 {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
		return policy.Actor{}, errResponseWritten
	}

	user, err := s.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			err = models.NewUnauthorizedError("Account no longer exists")
		}
		_ = respondError(c, err)
		return policy.Actor{}, errResponseWritten
	}

	a := policy.ActorFor(user)
	c.Locals("actor", a)
	return a, nil
}

// formImage returns the uploaded file under field, or nil when none was
// sent. The caller closes the returned closer.
func formImage(c *fiber.Ctx, field string) (*service.ImageUpload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, func() {}, nil
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*service.ImageUpload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, models.NewValidationError("Unable to read uploaded file")
	}
	upload := &service.ImageUpload{
		Filename:    fh.Filename,
		Length:      fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}
	return upload, func() { _ = f.Close() }, nil
}
