package repository

import (
	"warbler/internal/db"
	apperrors "warbler/internal/errors"
)

// translate turns driver constraint violations into IntegrityError and leaves
// every other error untouched.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := db.IsIntegrityViolation(err); ok {
		return apperrors.NewIntegrityError(constraint, err)
	}
	return err
}
