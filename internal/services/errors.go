package services

import (
	"errors"
	"fmt"
)

// Error classes. Handlers map them to status codes with errors.Is; the
// specific errors below wrap one of them.
var (
	ErrDuplicateRelation    = errors.New("relation already exists")
	ErrRelationNotFound     = errors.New("relation does not exist")
	ErrEntityNotFound       = errors.New("not found")
	ErrAggregateConsistency = errors.New("shopping list is out of sync with the shopping cart")
	ErrForbidden            = errors.New("forbidden")
	ErrValidation           = errors.New("invalid input")
	ErrAlreadyExists        = errors.New("already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
)

var (
	ErrDuplicateCartEntry = fmt.Errorf("%w: recipe is already in the shopping cart", ErrDuplicateRelation)
	ErrDuplicateFavorite  = fmt.Errorf("%w: recipe is already in favorites", ErrDuplicateRelation)
	ErrDuplicateFollow    = fmt.Errorf("%w: already subscribed to this author", ErrDuplicateRelation)
	ErrSelfReference      = fmt.Errorf("%w: cannot subscribe to yourself", ErrDuplicateRelation)

	ErrNotInCart    = fmt.Errorf("%w: recipe is not in the shopping cart", ErrRelationNotFound)
	ErrNotFavorited = fmt.Errorf("%w: recipe is not in favorites", ErrRelationNotFound)
	ErrNotFollowing = fmt.Errorf("%w: not subscribed to this author", ErrRelationNotFound)
)

func notFound(entity string, id uint) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrEntityNotFound)
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
