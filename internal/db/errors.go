package db

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// MySQL error numbers that signal a rejected write.
const (
	mysqlBadNull         = 1048
	mysqlNoDefault       = 1364
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
	mysqlCheckConstraint = 3819
)

// SQLSTATE class 23 covers every PostgreSQL integrity constraint violation.
const pgIntegrityClassPrefix = "23"

var quoted = regexp.MustCompile(`'([^']+)'`)

// IsIntegrityViolation reports whether err is a unique, not-null, check or
// foreign key violation from any supported driver. The constraint (or column)
// name is returned when the driver reports it.
func IsIntegrityViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if !strings.HasPrefix(pgErr.Code, pgIntegrityClassPrefix) {
			return "", false
		}
		if pgErr.ConstraintName != "" {
			return pgErr.ConstraintName, true
		}
		return pgErr.ColumnName, true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlBadNull, mysqlNoDefault, mysqlCheckConstraint:
			return firstQuoted(myErr.Message), true
		case mysqlDuplicateEntry, mysqlRowIsReferenced, mysqlNoReferencedRow:
			return lastQuoted(myErr.Message), true
		}
		return "", false
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code != sqlite3.ErrConstraint {
			return "", false
		}
		msg := liteErr.Error()
		if i := strings.LastIndex(msg, "failed: "); i >= 0 {
			return msg[i+len("failed: "):], true
		}
		return "", true
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrForeignKeyViolated) ||
		errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return "", true
	}

	return "", false
}

func firstQuoted(s string) string {
	if m := quoted.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

func lastQuoted(s string) string {
	all := quoted.FindAllStringSubmatch(s, -1)
	if len(all) == 0 {
		return ""
	}
	return all[len(all)-1][1]
}
