package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "warbler/internal/errors"
	"warbler/internal/model"
	"warbler/internal/repository"
)

// DefaultTimelineLimit matches the number of messages shown on the home page.
const DefaultTimelineLimit = 100

// MessageService handles posting, deleting, liking and reading messages.
type MessageService interface {
	Post(ctx context.Context, userID uint, text string) (*model.Message, error)
	Get(ctx context.Context, id uint) (*model.Message, error)
	Delete(ctx context.Context, userID, messageID uint) error
	// Timeline returns the user's own messages and those of users they follow, newest first.
	Timeline(ctx context.Context, userID uint, limit int) ([]model.Message, error)
	ToggleLike(ctx context.Context, userID, messageID uint) (liked bool, err error)
	LikedMessageIDs(ctx context.Context, userID uint) ([]uint, error)
}

type messageService struct {
	messages repository.MessageRepository
	follows  repository.FollowRepository
	users    UserService
	log      *zap.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(messages repository.MessageRepository, follows repository.FollowRepository, users UserService, log *zap.Logger) MessageService {
	return &messageService{
		messages: messages,
		follows:  follows,
		users:    users,
		log:      log,
	}
}

func (s *messageService) Post(ctx context.Context, userID uint, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > model.MaxMessageLength {
		return nil, apperrors.ErrInvalidMessage
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	msg := &model.Message{Text: text, UserID: userID}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

func (s *messageService) Get(ctx context.Context, id uint) (*model.Message, error) {
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, err
	}
	return msg, nil
}

// Delete removes a message; only its author may do so.
func (s *messageService) Delete(ctx context.Context, userID, messageID uint) error {
	msg, err := s.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.UserID != userID {
		return apperrors.ErrForbidden
	}
	if err := s.messages.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}
	s.log.Debug("message deleted", zap.Uint("message_id", messageID), zap.Uint("user_id", userID))
	return nil
}

func (s *messageService) Timeline(ctx context.Context, userID uint, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = DefaultTimelineLimit
	}
	ids, err := s.follows.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("following ids: %w", err)
	}
	return s.messages.ListByUsers(ctx, append(ids, userID), limit)
}

// ToggleLike likes the message, or unlikes it if already liked. Users cannot
// like their own messages.
func (s *messageService) ToggleLike(ctx context.Context, userID, messageID uint) (bool, error) {
	msg, err := s.Get(ctx, messageID)
	if err != nil {
		return false, err
	}
	if msg.UserID == userID {
		return false, apperrors.ErrForbidden
	}

	liked, err := s.messages.IsLiked(ctx, userID, messageID)
	if err != nil {
		return false, err
	}
	if liked {
		return false, s.messages.Unlike(ctx, userID, messageID)
	}
	if err := s.messages.Like(ctx, userID, messageID); err != nil {
		return false, fmt.Errorf("like: %w", err)
	}
	return true, nil
}

func (s *messageService) LikedMessageIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.messages.LikedMessageIDs(ctx, userID)
}
