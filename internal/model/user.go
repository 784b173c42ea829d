package model

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "warbler/internal/errors"
)

const (
	// DefaultImageURL is used when a user signs up without a profile image.
	DefaultImageURL = "/static/images/default-pic.png"
	// DefaultHeaderImageURL is the header image every new profile starts with.
	DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"

	bcryptCost = 10
)

// User represents a registered user of the application.
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"size:255;not null;uniqueIndex;check:username <> ''"`
	Email          string    `json:"email" gorm:"size:255;not null;uniqueIndex;check:email <> ''"`
	Password       string    `json:"-" gorm:"size:255;not null"` // bcrypt hash, never plaintext
	ImageURL       string    `json:"image_url" gorm:"size:512"`
	HeaderImageURL string    `json:"header_image_url" gorm:"size:512"`
	Bio            string    `json:"bio" gorm:"type:text"`
	Location       string    `json:"location" gorm:"size:255"`
	CreatedAt      time.Time `json:"created_at"`

	// Relations
	Messages  []Message `json:"messages,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Following []*User   `json:"-" gorm:"many2many:follows;joinForeignKey:FollowerID;joinReferences:FollowedID"`
	Followers []*User   `json:"-" gorm:"many2many:follows;joinForeignKey:FollowedID;joinReferences:FollowerID"`
}

// Signup hashes password and builds a new, unpersisted user.
//
// An empty password fails immediately with ErrInvalidPassword. Username and
// email are not checked here: presence and uniqueness are enforced by the
// database when the user is committed.
func Signup(username, email, password, imageURL string) (*User, error) {
	if password == "" {
		return nil, apperrors.ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidPassword, err)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if imageURL == "" {
		imageURL = DefaultImageURL
	}

	return &User{
		Username:       username,
		Email:          email,
		Password:       string(hash),
		ImageURL:       imageURL,
		HeaderImageURL: DefaultHeaderImageURL,
	}, nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// IsFollowing reports whether other is in u's loaded Following set.
func (u *User) IsFollowing(other *User) bool {
	return containsUser(u.Following, other)
}

// IsFollowedBy reports whether other is in u's loaded Followers set.
func (u *User) IsFollowedBy(other *User) bool {
	return containsUser(u.Followers, other)
}

// SameAs reports whether u and other denote the same user.
// Two unsaved users are only the same if they are the same pointer.
func (u *User) SameAs(other *User) bool {
	if u == nil || other == nil {
		return false
	}
	if u == other {
		return true
	}
	return u.ID != 0 && u.ID == other.ID
}

func containsUser(set []*User, other *User) bool {
	for _, candidate := range set {
		if candidate.SameAs(other) {
			return true
		}
	}
	return false
}
