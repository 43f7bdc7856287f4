package server

import (
	"thoughtwave/internal/models"
	"thoughtwave/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetThoughts handles GET /thoughts
// @Summary List thoughts
// @Tags thoughts
// @Produce json
// @Success 200 {array} models.Thought
// @Failure 500 {object} models.ErrorResponse
// @Router /thoughts [get]
func (s *Server) GetThoughts(c *fiber.Ctx) error {
	thoughts, err := s.thoughtService.ListThoughts(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(thoughts)
}

// GetThought handles GET /thoughts/:thoughtId
// @Summary Get thought
// @Tags thoughts
// @Produce json
// @Param thoughtId path string true "Thought ID"
// @Success 200 {object} models.Thought
// @Failure 404 {object} models.ErrorResponse
// @Router /thoughts/{thoughtId} [get]
func (s *Server) GetThought(c *fiber.Ctx) error {
	thought, err := s.thoughtService.GetThought(c.UserContext(), param(c, "thoughtId"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(thought)
}

// CreateThought handles POST /thoughts
// @Summary Create thought
// @Description Stores the thought and links it to the owning user
// @Tags thoughts
// @Accept json
// @Produce json
// @Param request body service.CreateThoughtInput true "New thought"
// @Success 201 {object} models.Thought
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /thoughts [post]
func (s *Server) CreateThought(c *fiber.Ctx) error {
	var req service.CreateThoughtInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	thought, err := s.thoughtService.CreateThought(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(thought)
}

// UpdateThought handles PUT /thoughts/:thoughtId
// @Summary Update thought
// @Tags thoughts
// @Accept json
// @Produce json
// @Param thoughtId path string true "Thought ID"
// @Param request body models.ThoughtPatch true "Fields to change"
// @Success 200 {object} models.Thought
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /thoughts/{thoughtId} [put]
func (s *Server) UpdateThought(c *fiber.Ctx) error {
	var patch models.ThoughtPatch
	if err := parseBody(c, &patch); err != nil {
		return nil
	}

	thought, err := s.thoughtService.UpdateThought(c.UserContext(), param(c, "thoughtId"), patch)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(thought)
}

// DeleteThought handles DELETE /thoughts/:thoughtId
// @Summary Delete thought
// @Description Deletes the thought and unlinks it from its owner
// @Tags thoughts
// @Produce json
// @Param thoughtId path string true "Thought ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /thoughts/{thoughtId} [delete]
func (s *Server) DeleteThought(c *fiber.Ctx) error {
	if _, err := s.thoughtService.DeleteThought(c.UserContext(), param(c, "thoughtId")); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(models.MessageResponse{Message: "Thought deleted"})
}

// AddReaction handles POST /thoughts/:thoughtId/reactions
// @Summary Add reaction
// @Tags reactions
// @Accept json
// @Produce json
// @Param thoughtId path string true "Thought ID"
// @Param request body service.CreateReactionInput true "New reaction"
// @Success 201 {object} models.Thought
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /thoughts/{thoughtId}/reactions [post]
func (s *Server) AddReaction(c *fiber.Ctx) error {
	var req service.CreateReactionInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	thought, err := s.thoughtService.AddReaction(c.UserContext(), param(c, "thoughtId"), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(thought)
}

// RemoveReaction handles DELETE /thoughts/:thoughtId/reactions/:reactionId
// @Summary Remove reaction
// @Description Removing an unknown reaction leaves the thought unchanged
// @Tags reactions
// @Produce json
// @Param thoughtId path string true "Thought ID"
// @Param reactionId path string true "Reaction ID"
// @Success 200 {object} models.Thought
// @Failure 404 {object} models.ErrorResponse
// @Router /thoughts/{thoughtId}/reactions/{reactionId} [delete]
func (s *Server) RemoveReaction(c *fiber.Ctx) error {
	thought, err := s.thoughtService.RemoveReaction(c.UserContext(), param(c, "thoughtId"), param(c, "reactionId"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(thought)
}
