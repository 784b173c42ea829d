//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"warbler/internal/config"
	"warbler/internal/db"
	apperrors "warbler/internal/errors"
	"warbler/internal/repository"
)

var postgresURL string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "warbler_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	postgresURL = fmt.Sprintf("postgres://postgres:password@%s:%s/warbler_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestPostgres_SessionIntegrity(t *testing.T) {
	ctx := context.Background()
	gormDB, err := db.Open(config.Database{URL: postgresURL, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, db.Reset(gormDB))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	users := repository.NewUserRepository(gormDB)
	follows := repository.NewFollowRepository(gormDB)

	sess := users.NewSession()
	u1 := signup(t, "test1", "email1@email.com")
	u2 := signup(t, "test2", "email2@email.com")
	sess.Add(u1)
	sess.Add(u2)
	require.NoError(t, sess.Follow(u1, u2))
	require.NoError(t, sess.Commit(ctx))

	ok, err := follows.IsFollowing(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("duplicate username", func(t *testing.T) {
		sess := users.NewSession()
		sess.Add(signup(t, "test1", "fresh@email.com"))
		err := sess.Commit(ctx)

		var ie *apperrors.IntegrityError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, "idx_users_username", ie.Constraint)

		var pgErr *pgconn.PgError
		require.ErrorAs(t, err, &pgErr)
		assert.Equal(t, "23505", pgErr.Code)
	})

	t.Run("empty email", func(t *testing.T) {
		sess := users.NewSession()
		sess.Add(signup(t, "fresh", ""))
		assert.True(t, apperrors.IsIntegrity(sess.Commit(ctx)))
	})

	t.Run("follow missing user", func(t *testing.T) {
		assert.True(t, apperrors.IsIntegrity(follows.Follow(ctx, u1.ID, 9999)))
	})
}
