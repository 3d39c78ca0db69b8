package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrDatabaseConnection = errors.New("database connection failed")
)

// Database & Storage Specific Errors
var (
	ErrUniqueConstraintViolation = errors.New("unique constraint violation")
	ErrForeignKeyConstraint      = errors.New("foreign key constraint violation")
	ErrTransactionFailed         = errors.New("transaction failed")
	ErrDatabaseTimeout           = errors.New("database timeout")
)

// Domain conflicts surfaced to users as flash notices.
var (
	ErrDuplicateEmail = fmt.Errorf("email %w", ErrAlreadyExists)
	ErrDuplicateTitle = fmt.Errorf("title %w", ErrAlreadyExists)
)

func NewNotFound(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        fmt.Errorf("%s %w", entity, ErrNotFound),
	}
}

func NewDuplicateEmailError(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrDuplicateEmail,
		Field:      "email",
		Cause:      cause,
	}
}

func NewDuplicateTitleError(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrDuplicateTitle,
		Field:      "title",
		Cause:      cause,
	}
}

func NewForeignKeyConstraintError(entity, referencedEntity string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrForeignKeyConstraint,
		Details:    fmt.Sprintf("Foreign key constraint violation: %s references %s", entity, referencedEntity),
		Cause:      cause,
		Field:      "foreign_key",
	}
}

func NewTransactionFailedError(operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrTransactionFailed,
		Details:    fmt.Sprintf("Transaction failed during %s", operation),
		Cause:      cause,
		Field:      "transaction",
	}
}

// TranslateDB classifies a raw gorm/driver error into one of the storage
// sentinels. Errors it does not recognise are returned unchanged.
func TranslateDB(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *ApiErr
	if errors.As(err, &apiErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", ErrUniqueConstraintViolation, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %w", ErrForeignKeyConstraint, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ErrDatabaseTimeout, err)
	}

	// Drivers that do not go through gorm's translator (or that were opened
	// without TranslateError) still carry recognisable messages.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "SQLSTATE 23505"),
		strings.Contains(msg, "Error 1062"):
		return fmt.Errorf("%w: %w", ErrUniqueConstraintViolation, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "foreign key constraint"),
		strings.Contains(msg, "SQLSTATE 23503"),
		strings.Contains(msg, "Error 1452"):
		return fmt.Errorf("%w: %w", ErrForeignKeyConstraint, err)
	case strings.Contains(msg, "connection refused"):
		return fmt.Errorf("%w: %w", ErrDatabaseConnection, err)
	}
	return err
}

func IsUniqueConstraintViolationError(err error) bool {
	return errors.Is(err, ErrUniqueConstraintViolation)
}

func IsForeignKeyConstraintError(err error) bool {
	return errors.Is(err, ErrForeignKeyConstraint)
}

func IsTransactionFailedError(err error) bool {
	return errors.Is(err, ErrTransactionFailed)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsDuplicateEmail(err error) bool {
	return errors.Is(err, ErrDuplicateEmail)
}

func IsDuplicateTitle(err error) bool {
	return errors.Is(err, ErrDuplicateTitle)
}
