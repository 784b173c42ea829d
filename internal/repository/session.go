package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "warbler/internal/errors"
	"warbler/internal/model"
)

// Session is a unit of work. Add, Follow and friends only stage changes;
// nothing reaches the database until Commit, which applies every staged step
// in a single transaction. Constraint violations therefore surface at Commit
// as *errors.IntegrityError, never while staging.
type Session struct {
	db    *gorm.DB
	steps []step
}

type step struct {
	name string
	// apply runs inside the commit transaction.
	apply func(tx *gorm.DB) error
	// undo restores in-memory state when the transaction rolls back.
	undo func()
	// done updates in-memory state once the transaction has committed.
	done func()
}

// NewSession starts an empty unit of work.
func NewSession(db *gorm.DB) *Session {
	return &Session{db: db}
}

// Pending returns the number of staged steps.
func (s *Session) Pending() int {
	return len(s.steps)
}

// Add stages the insert of a new user.
func (s *Session) Add(user *model.User) {
	var (
		prevID        uint
		prevCreatedAt time.Time
	)
	s.steps = append(s.steps, step{
		name: "add user",
		apply: func(tx *gorm.DB) error {
			prevID, prevCreatedAt = user.ID, user.CreatedAt
			return tx.Omit("Following", "Followers").Create(user).Error
		},
		undo: func() {
			user.ID = prevID
			user.CreatedAt = prevCreatedAt
		},
	})
}

// AddMessage stages the insert of a message. If the message has no UserID
// but carries a User, the author's ID is resolved at commit time so a user
// and their first message can be committed together.
func (s *Session) AddMessage(message *model.Message) {
	var (
		prevID, prevUserID uint
		prevTimestamp      time.Time
	)
	s.steps = append(s.steps, step{
		name: "add message",
		apply: func(tx *gorm.DB) error {
			prevID, prevUserID, prevTimestamp = message.ID, message.UserID, message.Timestamp
			if message.UserID == 0 && message.User != nil {
				message.UserID = message.User.ID
			}
			return tx.Omit(clause.Associations).Create(message).Error
		},
		undo: func() {
			message.ID = prevID
			message.UserID = prevUserID
			message.Timestamp = prevTimestamp
		},
	})
}

// Follow stages follower -> followed. Both users may still be unsaved as long
// as they are added earlier in the same session.
func (s *Session) Follow(follower, followed *model.User) error {
	if follower.SameAs(followed) {
		return apperrors.ErrSelfFollow
	}
	s.steps = append(s.steps, step{
		name: "follow",
		apply: func(tx *gorm.DB) error {
			if err := requirePersisted(follower, followed); err != nil {
				return err
			}
			return insertFollow(tx, follower.ID, followed.ID)
		},
		done: func() {
			if !follower.IsFollowing(followed) {
				follower.Following = append(follower.Following, followed)
			}
			if !followed.IsFollowedBy(follower) {
				followed.Followers = append(followed.Followers, follower)
			}
		},
	})
	return nil
}

// Unfollow stages the removal of follower -> followed.
func (s *Session) Unfollow(follower, followed *model.User) {
	s.steps = append(s.steps, step{
		name: "unfollow",
		apply: func(tx *gorm.DB) error {
			if err := requirePersisted(follower, followed); err != nil {
				return err
			}
			return deleteFollow(tx, follower.ID, followed.ID)
		},
		done: func() {
			follower.Following = removeUser(follower.Following, followed)
			followed.Followers = removeUser(followed.Followers, follower)
		},
	})
}

// Like stages user liking message.
func (s *Session) Like(user *model.User, message *model.Message) {
	s.steps = append(s.steps, step{
		name: "like",
		apply: func(tx *gorm.DB) error {
			if user.ID == 0 || message.ID == 0 {
				return fmt.Errorf("like: user and message must be persisted first")
			}
			return tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&model.Like{UserID: user.ID, MessageID: message.ID}).Error
		},
	})
}

// Commit applies every staged step in one transaction. On failure the
// transaction is rolled back, staged in-memory IDs are restored, and the
// error is returned; the staged steps are discarded either way.
func (s *Session) Commit(ctx context.Context) error {
	steps := s.steps
	s.steps = nil
	if len(steps) == 0 {
		return nil
	}

	applied := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, st := range steps {
			applied++
			if err := st.apply(tx); err != nil {
				return fmt.Errorf("%s: %w", st.name, translate(err))
			}
		}
		return nil
	})
	if err != nil {
		for i := applied - 1; i >= 0; i-- {
			if steps[i].undo != nil {
				steps[i].undo()
			}
		}
		return err
	}

	for _, st := range steps {
		if st.done != nil {
			st.done()
		}
	}
	return nil
}

// Rollback discards all staged steps.
func (s *Session) Rollback() {
	s.steps = nil
}

func requirePersisted(users ...*model.User) error {
	for _, u := range users {
		if u == nil || u.ID == 0 {
			return fmt.Errorf("user must be persisted before it can be followed")
		}
	}
	return nil
}

func removeUser(set []*model.User, target *model.User) []*model.User {
	out := set[:0]
	for _, u := range set {
		if !u.SameAs(target) {
			out = append(out, u)
		}
	}
	return out
}
