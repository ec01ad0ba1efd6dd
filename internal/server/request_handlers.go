package server

import (
	"strconv"
	"strings"

	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitRequest handles POST /api/requests
// @Summary Submit a design request
// @Tags requests
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param category_id formData int true "Category ID"
// @Param image formData file true "Room photo (jpg, jpeg, png, bmp; at most 2 MiB)"
// @Success 201 {object} models.DesignRequest
// @Failure 403 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /requests [post]
func (s *Server) SubmitRequest(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	image, closeImage, err := formImage(c, "image")
	if err != nil {
		return respondError(c, err)
	}
	defer closeImage()

	// An unparsable category is reported like a missing one.
	categoryID, _ := strconv.ParseUint(strings.TrimSpace(c.FormValue("category_id")), 10, 32)

	req, err := s.requestService.Submit(c.UserContext(), actor, service.SubmitInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		CategoryID:  uint(categoryID),
		Image:       image,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

// GetMyRequests handles GET /api/requests/me
// @Summary List my design requests, newest first
// @Tags requests
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.DesignRequest
// @Router /requests/me [get]
func (s *Server) GetMyRequests(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	reqs, err := s.requestService.ListForOwner(c.UserContext(), actor, actor.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(nonNil(reqs))
}

// GetRequest handles GET /api/requests/:id
// @Summary Get a design request
// @Tags requests
// @Security BearerAuth
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} models.DesignRequest
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /requests/{id} [get]
func (s *Server) GetRequest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	req, err := s.requestService.Get(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(req)
}

// DeleteRequest handles DELETE /api/requests/:id
// @Summary Withdraw a new design request
// @Tags requests
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /requests/{id} [delete]
func (s *Server) DeleteRequest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	if err := s.requestService.Delete(c.UserContext(), actor, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetAllRequests handles GET /api/admin/requests
// @Summary List every design request
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param status query string false "new, accepted or completed"
// @Success 200 {array} models.DesignRequest
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/requests [get]
func (s *Server) GetAllRequests(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	reqs, err := s.requestService.ListAll(c.UserContext(), actor, c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(nonNil(reqs))
}

// TransitionRequest handles POST /api/admin/requests/:id/status
// @Summary Accept or complete a design request
// @Tags admin
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Request ID"
// @Param status formData string true "accepted or completed"
// @Param admin_comment formData string false "Required when accepting"
// @Param design_image formData file false "Required when completing without a stored design"
// @Success 200 {object} models.DesignRequest
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /admin/requests/{id}/status [post]
func (s *Server) TransitionRequest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	design, closeDesign, err := formImage(c, "design_image")
	if err != nil {
		return respondError(c, err)
	}
	defer closeDesign()

	req, err := s.requestService.Transition(c.UserContext(), actor, id, service.TransitionInput{
		Status:       c.FormValue("status"),
		AdminComment: c.FormValue("admin_comment"),
		DesignImage:  design,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(req)
}

// GetDashboard handles GET /api/admin/dashboard
// @Summary Request counts by status
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.Dashboard
// @Router /admin/dashboard [get]
func (s *Server) GetDashboard(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	d, err := s.requestService.Dashboard(c.UserContext(), actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(d)
}

func nonNil(reqs []models.DesignRequest) []models.DesignRequest {
	if reqs == nil {
		return []models.DesignRequest{}
	}
	return reqs
}
