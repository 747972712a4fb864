// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"chirp/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SharedPassword is the plaintext password given to every seeded account.
const SharedPassword = "password123"

// Seeder builds demo data for development environments.
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewSeeder creates a seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Seeder{db: db, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// ClearAll removes all seeded rows, children first.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	for _, table := range []string{"notifications", "likes", "comments", "follows", "posts", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedSocialMesh creates numUsers accounts and a random follow graph between
// them, follow notifications included.
func (s *Seeder) SeedSocialMesh(numUsers int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(SharedPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}

	users := make([]models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		first := gofakeit.FirstName()
		last := gofakeit.LastName()
		username := strings.ToLower(fmt.Sprintf("%s_%s%d", first, last, s.rng.Intn(1000)))

		user := models.User{
			Username:   username,
			Email:      strings.ToLower(fmt.Sprintf("%s@%s", username, gofakeit.DomainName())),
			FullName:   first + " " + last,
			Password:   string(hash),
			Bio:        gofakeit.Sentence(8),
			Link:       gofakeit.URL(),
			ProfileImg: fmt.Sprintf("https://picsum.photos/seed/%s/200/200", gofakeit.UUID()),
			CoverImg:   fmt.Sprintf("https://picsum.photos/seed/%s/1200/400", gofakeit.UUID()),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %q: %w", username, err)
		}
		users = append(users, user)
	}
	log.Printf("✓ %d users created", len(users))

	edges := 0
	for i := range users {
		// Each user follows a handful of random others.
		for _, j := range s.rng.Perm(len(users))[:min(len(users)-1, 1+s.rng.Intn(6))] {
			if users[j].ID == users[i].ID {
				continue
			}
			edge := models.Follow{FollowerID: users[i].ID, FolloweeID: users[j].ID}
			if err := s.db.Create(&edge).Error; err != nil {
				continue // duplicate edge from a previous round
			}
			edges++
			s.notify(users[i].ID, users[j].ID, models.NotificationFollow)
		}
	}
	log.Printf("✓ %d follow edges created", edges)
	return users, nil
}

// SeedEngagement creates numPosts posts with comments and likes spread over
// the given users.
func (s *Seeder) SeedEngagement(users []models.User, numPosts int) ([]models.Post, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("no users to attach posts to")
	}

	posts := make([]models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		author := users[s.rng.Intn(len(users))]
		post := models.Post{
			UserID:    author.ID,
			Text:      gofakeit.Paragraph(1, 2, 8, " "),
			CreatedAt: time.Now().Add(-time.Duration(s.rng.Intn(90*24)) * time.Hour),
		}
		if s.rng.Intn(3) == 0 {
			post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
		}
		if err := s.db.Create(&post).Error; err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)
	}
	log.Printf("✓ %d posts created", len(posts))

	comments, likes := 0, 0
	for _, post := range posts {
		for _, j := range s.rng.Perm(len(users))[:min(len(users), s.rng.Intn(4))] {
			comment := models.Comment{
				PostID: post.ID,
				UserID: users[j].ID,
				Text:   gofakeit.Sentence(10),
			}
			if err := s.db.Create(&comment).Error; err == nil {
				comments++
			}
		}
		for _, j := range s.rng.Perm(len(users))[:min(len(users), s.rng.Intn(6))] {
			like := models.Like{PostID: post.ID, UserID: users[j].ID}
			if err := s.db.Create(&like).Error; err != nil {
				continue
			}
			likes++
			s.notify(users[j].ID, post.UserID, models.NotificationLike)
		}
	}
	log.Printf("✓ %d comments and %d likes created", comments, likes)
	return posts, nil
}

// notify records a notification, skipping self-events like the live paths do.
func (s *Seeder) notify(actorID, recipientID uint, typ models.NotificationType) {
	if actorID == recipientID {
		return
	}
	s.db.Create(&models.Notification{
		ActorID:     actorID,
		RecipientID: recipientID,
		Type:        typ,
		Read:        s.rng.Intn(2) == 0,
	})
}
