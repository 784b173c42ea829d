package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"warbler/internal/model"
	"warbler/internal/repository"
	"warbler/internal/service"
)

// Row types mirror the CSV headers written by the sample data generator.
type userRow struct {
	Email          string `validate:"required,email"`
	Username       string `validate:"required,max=255"`
	ImageURL       string `validate:"max=512"`
	Password       string `validate:"required,max=72"`
	Bio            string
	HeaderImageURL string `validate:"max=512"`
	Location       string `validate:"max=255"`
}

type messageRow struct {
	Text      string `validate:"required,max=140"`
	Timestamp time.Time
	UserID    int `validate:"gt=0"`
}

type followRow struct {
	FollowedID int `validate:"gt=0"`
	FollowerID int `validate:"gt=0,nefield=FollowedID"`
}

// Stats counts rows staged by a seed run.
type Stats struct {
	Users    int
	Messages int
	Follows  int
	Skipped  int
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

type rowLoader func(sess *repository.Session, fields map[string]string) error

type seeder struct {
	users    service.UserService
	validate *validator.Validate
	log      *zap.Logger

	// created holds users in CSV order; row N is referenced as id N.
	created []*model.User
	stats   Stats
}

func newSeeder(users service.UserService, log *zap.Logger) *seeder {
	return &seeder{
		users:    users,
		validate: validator.New(),
		log:      log,
	}
}

// Run loads users.csv, messages.csv and follows.csv from dir, committing each
// file as one batch. Invalid rows are skipped; their errors are combined with
// any commit failure in the returned error.
func (s *seeder) Run(ctx context.Context, dir string) (Stats, error) {
	files := []struct {
		name string
		load rowLoader
	}{
		{"users.csv", s.loadUser},
		{"messages.csv", s.loadMessage},
		{"follows.csv", s.loadFollow},
	}

	var errs error
	for _, f := range files {
		rowErrs, err := s.loadFile(ctx, filepath.Join(dir, f.name), f.load)
		errs = multierr.Append(errs, rowErrs)
		if err != nil {
			return s.stats, multierr.Append(errs, err)
		}
	}
	return s.stats, errs
}

func (s *seeder) loadFile(ctx context.Context, path string, load rowLoader) (rowErrs error, err error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Warn("seed file missing, skipping", zap.String("file", path))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := filepath.Base(path)
	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}

	sess := s.users.NewSession()
	line := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			sess.Rollback()
			return rowErrs, fmt.Errorf("%s:%d: %w", name, line, err)
		}

		fields := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				fields[strings.TrimSpace(col)] = record[i]
			}
		}
		if err := load(sess, fields); err != nil {
			s.stats.Skipped++
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("%s:%d: %w", name, line, err))
		}
	}

	staged := sess.Pending()
	if err := sess.Commit(ctx); err != nil {
		return rowErrs, fmt.Errorf("commit %s: %w", name, err)
	}
	s.log.Info("seed file committed", zap.String("file", name), zap.Int("rows", staged))
	return rowErrs, nil
}

func (s *seeder) loadUser(sess *repository.Session, fields map[string]string) error {
	row := userRow{
		Email:          fields["email"],
		Username:       fields["username"],
		ImageURL:       fields["image_url"],
		Password:       fields["password"],
		Bio:            fields["bio"],
		HeaderImageURL: fields["header_image_url"],
		Location:       fields["location"],
	}
	if err := s.validate.Struct(row); err != nil {
		// Keep numbering aligned with the generator's ids.
		s.created = append(s.created, nil)
		return err
	}

	user, err := s.users.Signup(sess, row.Username, row.Email, row.Password, row.ImageURL)
	if err != nil {
		s.created = append(s.created, nil)
		return err
	}
	if row.HeaderImageURL != "" {
		user.HeaderImageURL = row.HeaderImageURL
	}
	user.Bio = row.Bio
	user.Location = row.Location

	s.created = append(s.created, user)
	s.stats.Users++
	return nil
}

func (s *seeder) loadMessage(sess *repository.Session, fields map[string]string) error {
	userID, err := strconv.Atoi(fields["user_id"])
	if err != nil {
		return fmt.Errorf("user_id: %w", err)
	}
	row := messageRow{Text: fields["text"], UserID: userID}
	if ts := fields["timestamp"]; ts != "" {
		if row.Timestamp, err = parseTimestamp(ts); err != nil {
			return err
		}
	}
	if err := s.validate.Struct(row); err != nil {
		return err
	}

	author, err := s.user(row.UserID)
	if err != nil {
		return err
	}
	sess.AddMessage(&model.Message{Text: row.Text, Timestamp: row.Timestamp, User: author})
	s.stats.Messages++
	return nil
}

func (s *seeder) loadFollow(sess *repository.Session, fields map[string]string) error {
	followed, err := strconv.Atoi(fields["user_being_followed_id"])
	if err != nil {
		return fmt.Errorf("user_being_followed_id: %w", err)
	}
	follower, err := strconv.Atoi(fields["user_following_id"])
	if err != nil {
		return fmt.Errorf("user_following_id: %w", err)
	}
	row := followRow{FollowedID: followed, FollowerID: follower}
	if err := s.validate.Struct(row); err != nil {
		return err
	}

	a, err := s.user(row.FollowerID)
	if err != nil {
		return err
	}
	b, err := s.user(row.FollowedID)
	if err != nil {
		return err
	}
	if err := sess.Follow(a, b); err != nil {
		return err
	}
	s.stats.Follows++
	return nil
}

func (s *seeder) user(id int) (*model.User, error) {
	if id < 1 || id > len(s.created) || s.created[id-1] == nil {
		return nil, fmt.Errorf("unknown user %d", id)
	}
	return s.created[id-1], nil
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q: unrecognised format", value)
}
