package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"warbler/internal/cache"
	apperrors "warbler/internal/errors"
	"warbler/internal/model"
	"warbler/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// ProfileUpdate holds editable profile fields. Empty Username or Email keep
// the current value; empty image URLs reset to the defaults.
type ProfileUpdate struct {
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Location       string
}

// UserService exposes user and relationship operations.
type UserService interface {
	// Signup builds a user and stages it in sess; nothing is written until sess.Commit.
	Signup(sess *repository.Session, username, email, password, imageURL string) (*model.User, error)
	// Register signs up and commits in one step.
	Register(ctx context.Context, username, email, password, imageURL string) (*model.User, error)
	// Authenticate returns ok=false, with a nil error, for unknown users and wrong passwords.
	Authenticate(ctx context.Context, username, password string) (user *model.User, ok bool, err error)
	NewSession() *repository.Session

	GetUser(ctx context.Context, id uint) (*model.User, error)
	GetProfile(ctx context.Context, id uint) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context, search string) ([]model.User, error)
	UpdateProfile(ctx context.Context, id uint, password string, update ProfileUpdate) (*model.User, error)
	DeleteUser(ctx context.Context, id uint) error

	Follow(ctx context.Context, followerID, followedID uint) error
	Unfollow(ctx context.Context, followerID, followedID uint) error
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
	Following(ctx context.Context, userID uint) ([]model.User, error)
	Followers(ctx context.Context, userID uint) ([]model.User, error)
}

type userService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	cache   cache.Cache
	log     *zap.Logger
}

// NewUserService builds a UserService with repositories and cache. A nil
// userCache disables caching.
func NewUserService(users repository.UserRepository, follows repository.FollowRepository, userCache cache.Cache, log *zap.Logger) UserService {
	if userCache == nil {
		userCache = (*cache.Client)(nil)
	}
	return &userService{
		users:   users,
		follows: follows,
		cache:   userCache,
		log:     log,
	}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *userService) NewSession() *repository.Session {
	return s.users.NewSession()
}

func (s *userService) Signup(sess *repository.Session, username, email, password, imageURL string) (*model.User, error) {
	user, err := model.Signup(username, email, password, imageURL)
	if err != nil {
		return nil, err
	}
	sess.Add(user)
	return user, nil
}

func (s *userService) Register(ctx context.Context, username, email, password, imageURL string) (*model.User, error) {
	sess := s.NewSession()
	user, err := s.Signup(sess, username, email, password, imageURL)
	if err != nil {
		return nil, err
	}
	if err := sess.Commit(ctx); err != nil {
		return nil, fmt.Errorf("register %q: %w", username, err)
	}
	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*model.User, bool, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	if !user.CheckPassword(password) {
		return nil, false, nil
	}
	return user, true, nil
}

// GetUser returns the user without relations, read through the cache.
func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached cachedUser
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached.toModel(), nil
		}
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	if payload, err := json.Marshal(newCachedUser(user)); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

// GetProfile returns the user with messages, following and followers loaded.
func (s *userService) GetProfile(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.FindByIDWithRelations(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, search string) ([]model.User, error) {
	return s.users.List(ctx, search)
}

// UpdateProfile applies update after re-checking the user's password.
func (s *userService) UpdateProfile(ctx context.Context, id uint, password string, update ProfileUpdate) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !user.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if update.Username != "" {
		user.Username = update.Username
	}
	if update.Email != "" {
		user.Email = update.Email
	}
	user.ImageURL = orDefault(update.ImageURL, model.DefaultImageURL)
	user.HeaderImageURL = orDefault(update.HeaderImageURL, model.DefaultHeaderImageURL)
	user.Bio = update.Bio
	user.Location = update.Location

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	s.log.Info("user deleted", zap.Uint("user_id", id))
	return nil
}

func (s *userService) Follow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return apperrors.ErrSelfFollow
	}
	if err := s.requireUsers(ctx, followerID, followedID); err != nil {
		return err
	}
	if err := s.follows.Follow(ctx, followerID, followedID); err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	return nil
}

func (s *userService) Unfollow(ctx context.Context, followerID, followedID uint) error {
	if err := s.requireUsers(ctx, followerID, followedID); err != nil {
		return err
	}
	if err := s.follows.Unfollow(ctx, followerID, followedID); err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	return nil
}

func (s *userService) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.follows.IsFollowing(ctx, followerID, followedID)
}

func (s *userService) Following(ctx context.Context, userID uint) ([]model.User, error) {
	if err := s.requireUsers(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.Following(ctx, userID)
}

func (s *userService) Followers(ctx context.Context, userID uint) ([]model.User, error) {
	if err := s.requireUsers(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.Followers(ctx, userID)
}

func (s *userService) requireUsers(ctx context.Context, ids ...uint) error {
	for _, id := range ids {
		if _, err := s.GetUser(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// cachedUser is the cache representation; model.User hides the password hash from JSON.
type cachedUser struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Password       string    `json:"password"`
	ImageURL       string    `json:"image_url"`
	HeaderImageURL string    `json:"header_image_url"`
	Bio            string    `json:"bio"`
	Location       string    `json:"location"`
	CreatedAt      time.Time `json:"created_at"`
}

func newCachedUser(u *model.User) cachedUser {
	return cachedUser{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Password:       u.Password,
		ImageURL:       u.ImageURL,
		HeaderImageURL: u.HeaderImageURL,
		Bio:            u.Bio,
		Location:       u.Location,
		CreatedAt:      u.CreatedAt,
	}
}

func (c cachedUser) toModel() *model.User {
	return &model.User{
		ID:             c.ID,
		Username:       c.Username,
		Email:          c.Email,
		Password:       c.Password,
		ImageURL:       c.ImageURL,
		HeaderImageURL: c.HeaderImageURL,
		Bio:            c.Bio,
		Location:       c.Location,
		CreatedAt:      c.CreatedAt,
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrUserNotFound
	}
	return err
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
