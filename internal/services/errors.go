package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/bensuskins/household-hub/internal/events"
	"github.com/bensuskins/household-hub/internal/repository"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidException    = errors.New("invalid exception")
	ErrRecurringTaskStatus = errors.New("recurring tasks track status per occurrence")
	ErrNotASeries          = errors.New("not a recurring series")
)

// ValidationError names the offending field. It unwraps to ErrInvalidInput
// unless a more specific sentinel applies.
type ValidationError struct {
	Field   string
	Message string
	kind    error
}

func (err *ValidationError) Error() string {
	return err.Field + ": " + err.Message
}

func (err *ValidationError) Unwrap() error {
	if err.kind == nil {
		return ErrInvalidInput
	}
	return err.kind
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func invalidException(field, message string) error {
	return &ValidationError{Field: field, Message: message, kind: ErrInvalidException}
}

// asException reclassifies a field error as an invalid exception.
func asException(err error) error {
	var validation *ValidationError
	if errors.As(err, &validation) {
		validation.kind = ErrInvalidException
	}
	return err
}

// notFound maps a missing row onto ErrNotFound and passes anything else on.
func notFound(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

func checkLength(field, value string, minimum, maximum int) error {
	length := utf8.RuneCountInString(value)
	if length < minimum {
		if minimum == 1 {
			return invalid(field, "is required")
		}
		return invalid(field, fmt.Sprintf("must be at least %d characters", minimum))
	}
	if length > maximum {
		return invalid(field, fmt.Sprintf("must be at most %d characters", maximum))
	}
	return nil
}

// checkCategory accepts an empty id or one belonging to householdID.
func checkCategory(ctx context.Context, categories repository.CategoryRepository, householdID string, categoryID string) error {
	if categoryID == "" || categories == nil {
		return nil
	}
	category, err := categories.FindByID(ctx, categoryID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && category.HouseholdID != householdID) {
		return invalid("categoryId", "unknown category")
	}
	return err
}

func trimmed(value string) string {
	return strings.TrimSpace(value)
}

// publish never fails the calling mutation; the change is already stored.
func publish(ctx context.Context, publisher events.Publisher, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "publishing event", "type", event.Type, "error", err)
	}
}
