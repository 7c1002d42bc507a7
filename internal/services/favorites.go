package services

import (
	"context"

	"foodgram/internal/logger"

	"gorm.io/gorm"
)

type FavoriteService struct {
	db        *gorm.DB
	log       *logger.Logger
	relations relationRegistry
}

func NewFavoriteService(conn *gorm.DB, log *logger.Logger) *FavoriteService {
	return &FavoriteService{db: conn, log: log}
}

// AddFavorite marks the recipe as a favorite of the user and returns it in
// short form.
func (s *FavoriteService) AddFavorite(ctx context.Context, userID, recipeID uint) (*RecipeShort, error) {
	var short RecipeShort
	err := inTx(ctx, s.db, s.log, "favorite.add", func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		recipe, err := lockRecipe(tx, recipeID, "SHARE")
		if err != nil {
			return err
		}
		short = newRecipeShort(recipe)
		return s.relations.add(tx, RelationFavorite, userID, recipeID)
	})
	observeRelation(s.log, RelationFavorite, "add", userID, recipeID, err)
	if err != nil {
		return nil, err
	}
	return &short, nil
}

func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	err := inTx(ctx, s.db, s.log, "favorite.remove", func(tx *gorm.DB) error {
		if _, err := lockRecipe(tx, recipeID, ""); err != nil {
			return err
		}
		return s.relations.remove(tx, RelationFavorite, userID, recipeID)
	})
	observeRelation(s.log, RelationFavorite, "remove", userID, recipeID, err)
	return err
}

func (s *FavoriteService) IsFavorited(ctx context.Context, userID, recipeID uint) (bool, error) {
	return s.relations.exists(s.db.WithContext(ctx), RelationFavorite, userID, recipeID)
}

func observeRelation(log *logger.Logger, kind RelationKind, op string, subject, object uint, err error) {
	result := resultLabel(err)
	RelationMutationsTotal.WithLabelValues(string(kind), op, result).Inc()
	if result == "error" {
		log.Error("Relation mutation failed", "kind", kind, "op", op, "user_id", subject, "object_id", object, "error", err)
	}
}
