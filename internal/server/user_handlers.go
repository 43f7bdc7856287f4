package server

import (
	"thoughtwave/internal/models"
	"thoughtwave/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUsers handles GET /users
// @Summary List users
// @Description Returns every user with thoughts and friends resolved
// @Tags users
// @Produce json
// @Success 200 {array} models.UserProfile
// @Failure 500 {object} models.ErrorResponse
// @Router /users [get]
func (s *Server) GetUsers(c *fiber.Ctx) error {
	users, err := s.userService.ListUsers(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// GetUser handles GET /users/:userId
// @Summary Get user
// @Tags users
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} models.UserProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{userId} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	user, err := s.userService.GetUser(c.UserContext(), param(c, "userId"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// CreateUser handles POST /users
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.CreateUserInput true "New user"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users [post]
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.CreateUser(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// UpdateUser handles PUT /users/:userId
// @Summary Update user
// @Description Applies the supplied username and email fields
// @Tags users
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param request body models.UserPatch true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{userId} [put]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	var patch models.UserPatch
	if err := parseBody(c, &patch); err != nil {
		return nil
	}

	user, err := s.userService.UpdateUser(c.UserContext(), param(c, "userId"), patch)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// DeleteUser handles DELETE /users/:userId
// @Summary Delete user
// @Description Deletes the user and every thought they own
// @Tags users
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{userId} [delete]
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	if _, err := s.userService.DeleteUser(c.UserContext(), param(c, "userId")); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(models.MessageResponse{Message: "User and associated thoughts deleted"})
}

// AddFriend handles POST /users/:userId/friends/:friendId
// @Summary Add friend
// @Description Links both users. Repeating the call adds the link again.
// @Tags friends
// @Produce json
// @Param userId path string true "User ID"
// @Param friendId path string true "Friend's user ID"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{userId}/friends/{friendId} [post]
func (s *Server) AddFriend(c *fiber.Ctx) error {
	user, err := s.userService.AddFriend(c.UserContext(), param(c, "userId"), param(c, "friendId"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// RemoveFriend handles DELETE /users/:userId/friends/:friendId
// @Summary Remove friend
// @Tags friends
// @Produce json
// @Param userId path string true "User ID"
// @Param friendId path string true "Friend's user ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{userId}/friends/{friendId} [delete]
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	user, err := s.userService.RemoveFriend(c.UserContext(), param(c, "userId"), param(c, "friendId"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}
