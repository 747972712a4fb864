package server

import (
	"chirp/internal/models"
	"chirp/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const suggestedUserCap = 4

// GetUserProfile handles GET /api/users/profile/:username
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	username := c.Params("username")
	user, err := s.userRepo.GetByUsername(c.Context(), username)
	if err != nil {
		return s.respondError(c, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User", username))
	}
	return c.JSON(user)
}

// FollowUnfollowUser handles POST /api/users/follow/:id — toggles the
// caller's follow edge to the target user.
func (s *Server) FollowUnfollowUser(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	targetID, ok := parseID(c, "id")
	if !ok {
		return nil
	}

	if targetID == userID {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("You can't follow/unfollow yourself"))
	}

	// The target must exist before an edge can be toggled.
	if _, err := s.userRepo.GetByID(c.Context(), targetID); err != nil {
		return s.respondError(c, err)
	}

	following, err := s.userRepo.FollowToggle(c.Context(), userID, targetID)
	if err != nil {
		return s.respondError(c, err)
	}

	message := "User unfollowed successfully"
	if following {
		message = "User followed successfully"
	}
	return c.JSON(fiber.Map{"message": message})
}

// GetSuggestedUsers handles GET /api/users/suggested — a random sample of
// users the caller does not already follow, capped at four.
func (s *Server) GetSuggestedUsers(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	followingIDs, err := s.userRepo.ListFollowingIDs(c.Context(), userID)
	if err != nil {
		return s.respondError(c, err)
	}
	following := make(map[uint]struct{}, len(followingIDs))
	for _, id := range followingIDs {
		following[id] = struct{}{}
	}

	candidates, err := s.userRepo.SuggestRandom(c.Context(), userID, 10)
	if err != nil {
		return s.respondError(c, err)
	}

	suggested := []models.User{}
	for _, u := range candidates {
		if _, ok := following[u.ID]; ok {
			continue
		}
		u.Password = ""
		suggested = append(suggested, u)
		if len(suggested) == suggestedUserCap {
			break
		}
	}
	return c.JSON(suggested)
}

// UpdateUser handles POST /api/users/update. Empty fields keep their current
// values; changing the password requires both the current and the new one.
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	user := currentUser(c)

	var req struct {
		FullName        string `json:"full_name"`
		Username        string `json:"username"`
		Email           string `json:"email"`
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
		Bio             string `json:"bio"`
		Link            string `json:"link"`
		ProfileImg      string `json:"profile_img"`
		CoverImg        string `json:"cover_img"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if (req.CurrentPassword == "") != (req.NewPassword == "") {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Please provide both current password and new password"))
	}
	if req.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Current password is incorrect"))
		}
		if err := validation.ValidatePassword(req.NewPassword); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
		user.Password = string(hashed)
	}

	if req.Username != "" && req.Username != user.Username {
		if err := validation.ValidateUsername(req.Username); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		user.Username = req.Username
	}
	if req.Email != "" && req.Email != user.Email {
		if err := validation.ValidateEmail(req.Email); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid email format"))
		}
		user.Email = req.Email
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.Link != "" {
		user.Link = req.Link
	}

	if req.ProfileImg != "" {
		url, err := s.replaceImage(c, user.ProfileImg, req.ProfileImg)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Failed to upload profile image"))
		}
		user.ProfileImg = url
	}
	if req.CoverImg != "" {
		url, err := s.replaceImage(c, user.CoverImg, req.CoverImg)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Failed to upload cover image"))
		}
		user.CoverImg = url
	}

	if err := s.userRepo.Update(c.Context(), user); err != nil {
		return s.respondError(c, err)
	}

	// Never echo the (hashed) password back.
	user.Password = ""
	return c.JSON(user)
}

// replaceImage uploads the new payload and drops the previous hosted asset.
// The old asset is destroyed first so orphans cannot accumulate.
func (s *Server) replaceImage(c *fiber.Ctx, oldURL, payload string) (string, error) {
	if oldURL != "" {
		if err := s.media.Destroy(c.Context(), oldURL); err != nil {
			return "", err
		}
	}
	return s.media.Upload(c.Context(), payload)
}
