package services

import (
	"context"
	"errors"

	"foodgram/internal/logger"
	"foodgram/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// inTx runs fn as one transaction. On a store conflict fn runs once more; the
// second pass re-checks relation state, so a lost race comes back as the
// typed duplicate/absent error. A second conflict is returned as is.
func inTx(ctx context.Context, conn *gorm.DB, log *logger.Logger, op string, fn func(tx *gorm.DB) error) error {
	err := conn.WithContext(ctx).Transaction(fn)
	if err == nil || !isStoreConflict(err) || ctx.Err() != nil {
		return err
	}
	StoreRetriesTotal.WithLabelValues(op).Inc()
	log.Warn("Store conflict, retrying once", "op", op, "error", err)
	return conn.WithContext(ctx).Transaction(fn)
}

func isStoreConflict(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "40001", "40P01": // unique_violation, serialization_failure, deadlock_detected
			return true
		}
	}
	return false
}

func requireUser(tx *gorm.DB, userID uint) error {
	return lockUser(tx, userID, "")
}

// lockUser checks the user exists, taking a row lock of the given strength
// unless it is empty.
func lockUser(tx *gorm.DB, userID uint, strength string) error {
	q := tx.Select("id")
	if strength != "" {
		q = q.Clauses(clause.Locking{Strength: strength})
	}
	var user models.User
	if err := q.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("user", userID)
		}
		return err
	}
	return nil
}

// lockRecipe loads the recipe row under a row lock. Cart mutations take a
// shared lock and recipe edits an exclusive one, so an edit never interleaves
// with a cart change reading the same ingredient list. An empty strength
// reads without locking.
func lockRecipe(tx *gorm.DB, recipeID uint, strength string) (*models.Recipe, error) {
	q := tx
	if strength != "" {
		q = q.Clauses(clause.Locking{Strength: strength})
	}
	var recipe models.Recipe
	err := q.First(&recipe, recipeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("recipe", recipeID)
		}
		return nil, err
	}
	return &recipe, nil
}
