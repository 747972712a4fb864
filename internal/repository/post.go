package repository

import (
	"context"
	"errors"

	"chirp/internal/cache"
	"chirp/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Delete(ctx context.Context, id uint) error
	AddComment(ctx context.Context, comment *models.Comment) error
	LikeToggle(ctx context.Context, userID, postID uint) (bool, []uint, error)
	ListAll(ctx context.Context) ([]*models.Post, error)
	ListByUserID(ctx context.Context, userID uint) ([]*models.Post, error)
	ListLikedBy(ctx context.Context, userID uint) ([]*models.Post, error)
	ListByAuthors(ctx context.Context, authorIDs []uint) ([]*models.Post, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	post.LikerIDs = []uint{}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	return r.db.WithContext(ctx).Preload("User").First(post, post.ID).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Comments.User").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	if err := r.fillLikerIDs(ctx, []*models.Post{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete removes a post together with its comments and likes.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Comment{}, "post_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Like{}, "post_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return r.db.WithContext(ctx).Preload("User").First(comment, comment.ID).Error
}

// LikeToggle flips userID's like on postID. A fresh like and its notification
// to the post owner are written in one transaction. Returns whether the post
// is liked after the call and the post's liker IDs, newest like first.
func (r *postRepository) LikeToggle(ctx context.Context, userID, postID uint) (bool, []uint, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Select("id", "user_id").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, models.NewNotFoundError("Post", postID)
		}
		return false, nil, models.NewInternalError(err)
	}

	var exists bool
	if err := r.db.WithContext(ctx).First(&models.Like{}, "user_id = ? AND post_id = ?", userID, postID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, models.NewInternalError(err)
		}
	} else {
		exists = true
	}

	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if exists {
			return tx.Delete(&models.Like{}, "user_id = ? AND post_id = ?", userID, postID).Error
		}
		like := models.Like{UserID: userID, PostID: postID}
		if err := tx.Create(&like).Error; err != nil {
			if isUniqueConstraintError(err) {
				return nil
			}
			return err
		}
		liked = true
		return insertNotification(tx, userID, post.UserID, models.NotificationLike)
	})
	if err != nil {
		return false, nil, models.NewInternalError(err)
	}

	// The toggle changes the liker's computed liked-post set.
	cache.InvalidateUser(ctx, userID)

	likerIDs := []uint{}
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Pluck("user_id", &likerIDs).Error; err != nil {
		return false, nil, models.NewInternalError(err)
	}
	return liked, likerIDs, nil
}

func (r *postRepository) ListAll(ctx context.Context) ([]*models.Post, error) {
	return r.list(ctx, r.db.WithContext(ctx))
}

func (r *postRepository) ListByUserID(ctx context.Context, userID uint) ([]*models.Post, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("user_id = ?", userID))
}

// ListLikedBy returns the posts a user has liked, newest post first.
func (r *postRepository) ListLikedBy(ctx context.Context, userID uint) ([]*models.Post, error) {
	likedIDs := []uint{}
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ?", userID).
		Pluck("post_id", &likedIDs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(likedIDs) == 0 {
		return []*models.Post{}, nil
	}
	return r.list(ctx, r.db.WithContext(ctx).Where("id IN ?", likedIDs))
}

func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uint) ([]*models.Post, error) {
	if len(authorIDs) == 0 {
		return []*models.Post{}, nil
	}
	return r.list(ctx, r.db.WithContext(ctx).Where("user_id IN ?", authorIDs))
}

func (r *postRepository) list(ctx context.Context, q *gorm.DB) ([]*models.Post, error) {
	var posts []*models.Post
	err := q.
		Preload("User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Comments.User").
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	if err := r.fillLikerIDs(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// fillLikerIDs batch-loads like rows for the given posts and distributes
// them, newest like first, into each post's computed LikerIDs slice.
func (r *postRepository) fillLikerIDs(ctx context.Context, posts []*models.Post) error {
	postIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		p.LikerIDs = []uint{}
		if p.Comments == nil {
			p.Comments = []models.Comment{}
		}
		postIDs = append(postIDs, p.ID)
	}
	if len(postIDs) == 0 {
		return nil
	}

	var likes []models.Like
	if err := r.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("created_at DESC").
		Find(&likes).Error; err != nil {
		return models.NewInternalError(err)
	}

	byPost := make(map[uint][]uint, len(posts))
	for _, l := range likes {
		byPost[l.PostID] = append(byPost[l.PostID], l.UserID)
	}
	for _, p := range posts {
		if ids, ok := byPost[p.ID]; ok {
			p.LikerIDs = ids
		}
	}
	return nil
}
