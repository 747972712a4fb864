package server

import (
	"strings"

	"chirp/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts/create. A post must carry text, an
// image, or both.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Text string `json:"text"`
		Img  string `json:"img"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	text := strings.TrimSpace(req.Text)
	if text == "" && req.Img == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Post must have text or image"))
	}

	imageURL := ""
	if req.Img != "" {
		url, err := s.media.Upload(c.Context(), req.Img)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Failed to upload image"))
		}
		imageURL = url
	}

	post := &models.Post{
		UserID:   userID,
		Text:     text,
		ImageURL: imageURL,
	}
	if err := s.postRepo.Create(c.Context(), post); err != nil {
		return s.respondError(c, err)
	}

	post.User.Password = ""
	return c.Status(fiber.StatusCreated).JSON(post)
}

// DeletePost handles DELETE /api/posts/:id. Only the owner may delete.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, ok := parseID(c, "id")
	if !ok {
		return nil
	}

	post, err := s.postRepo.GetByID(c.Context(), postID)
	if err != nil {
		return s.respondError(c, err)
	}
	if post.UserID != userID {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("You are not authorized to delete this post"))
	}

	if post.ImageURL != "" {
		// Best effort; a dangling hosted asset must not block the delete.
		_ = s.media.Destroy(c.Context(), post.ImageURL)
	}

	if err := s.postRepo.Delete(c.Context(), postID); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// CommentOnPost handles POST /api/posts/comment/:id
func (s *Server) CommentOnPost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, ok := parseID(c, "id")
	if !ok {
		return nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.Text) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Text field is required"))
	}

	if _, err := s.postRepo.GetByID(c.Context(), postID); err != nil {
		return s.respondError(c, err)
	}

	comment := &models.Comment{
		PostID: postID,
		UserID: userID,
		Text:   strings.TrimSpace(req.Text),
	}
	if err := s.postRepo.AddComment(c.Context(), comment); err != nil {
		return s.respondError(c, err)
	}

	comment.User.Password = ""
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// LikeUnlikePost handles POST /api/posts/like/:id and returns the post's
// liker IDs after the toggle, newest like first.
func (s *Server) LikeUnlikePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	postID, ok := parseID(c, "id")
	if !ok {
		return nil
	}

	_, likerIDs, err := s.postRepo.LikeToggle(c.Context(), userID, postID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(likerIDs)
}

// GetAllPosts handles GET /api/posts/all
func (s *Server) GetAllPosts(c *fiber.Ctx) error {
	posts, err := s.postRepo.ListAll(c.Context())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(scrubPosts(posts))
}

// GetFollowingPosts handles GET /api/posts/following — posts authored by
// accounts the caller follows.
func (s *Server) GetFollowingPosts(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	followingIDs, err := s.userRepo.ListFollowingIDs(c.Context(), userID)
	if err != nil {
		return s.respondError(c, err)
	}

	posts, err := s.postRepo.ListByAuthors(c.Context(), followingIDs)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(scrubPosts(posts))
}

// GetLikedPosts handles GET /api/posts/likes/:id — posts liked by the given user.
func (s *Server) GetLikedPosts(c *fiber.Ctx) error {
	targetID, ok := parseID(c, "id")
	if !ok {
		return nil
	}

	if _, err := s.userRepo.GetByID(c.Context(), targetID); err != nil {
		return s.respondError(c, err)
	}

	posts, err := s.postRepo.ListLikedBy(c.Context(), targetID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(scrubPosts(posts))
}

// GetUserPosts handles GET /api/posts/user/:username
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	username := c.Params("username")

	user, err := s.userRepo.GetByUsername(c.Context(), username)
	if err != nil {
		return s.respondError(c, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User", username))
	}

	posts, err := s.postRepo.ListByUserID(c.Context(), user.ID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(scrubPosts(posts))
}

// scrubPosts blanks embedded password hashes before serialization.
func scrubPosts(posts []*models.Post) []*models.Post {
	for _, p := range posts {
		p.User.Password = ""
		for i := range p.Comments {
			p.Comments[i].User.Password = ""
		}
	}
	return posts
}
