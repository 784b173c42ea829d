package db

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"warbler/internal/config"
	"warbler/internal/model"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Models returns every persisted model in dependency order.
// Join tables (follows, likes) are created through their many2many relations
// once setupJoinTables has registered their join models.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Message{},
	}
}

// Open returns a connected GORM DB instance for the configured database.
func Open(cfg config.Database) (*gorm.DB, error) {
	driver, err := Driver(cfg)
	if err != nil {
		return nil, err
	}

	dsn := cfg.URL
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(strings.TrimPrefix(dsn, "mysql://"))
	case DriverSQLite:
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if err := setupJoinTables(gormDB); err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return gormDB, nil
}

func setupJoinTables(gormDB *gorm.DB) error {
	joins := []struct {
		model     interface{}
		field     string
		joinTable interface{}
	}{
		{&model.User{}, "Following", &model.Follow{}},
		{&model.User{}, "Followers", &model.Follow{}},
		{&model.Message{}, "LikedBy", &model.Like{}},
	}
	for _, j := range joins {
		if err := gormDB.SetupJoinTable(j.model, j.field, j.joinTable); err != nil {
			return fmt.Errorf("setup join table for %s: %w", j.field, err)
		}
	}
	return nil
}

// Driver returns the configured driver, or infers it from the URL.
func Driver(cfg config.Database) (string, error) {
	if cfg.Driver != "" {
		return cfg.Driver, nil
	}

	url := cfg.URL
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(url, "mysql://"), strings.Contains(url, "@tcp("):
		return DriverMySQL, nil
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"),
		url == ":memory:", strings.HasSuffix(url, ".db"), strings.HasSuffix(url, ".sqlite"):
		return DriverSQLite, nil
	}

	return "", fmt.Errorf("cannot infer database driver from url %q", url)
}

// Migrate creates or updates every table.
func Migrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Reset drops every table and recreates the schema.
func Reset(gormDB *gorm.DB) error {
	tables := []interface{}{
		&model.Like{},
		&model.Follow{},
		&model.Message{},
		&model.User{},
	}

	var err error
	for _, table := range tables {
		err = multierr.Append(err, gormDB.Migrator().DropTable(table))
	}
	if err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}

	return Migrate(gormDB)
}

func logLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
