package services

import (
	"context"

	"foodgram/internal/logger"

	"gorm.io/gorm"
)

// CartService keeps cart memberships and the shopping list in step: every
// membership change and its aggregate update commit together or not at all.
type CartService struct {
	db        *gorm.DB
	log       *logger.Logger
	relations relationRegistry
	aggregate *shoppingAggregate
}

func NewCartService(conn *gorm.DB, log *logger.Logger) *CartService {
	return &CartService{db: conn, log: log, aggregate: &shoppingAggregate{log: log}}
}

// AddToCart puts the recipe in the user's cart and adds each of its
// ingredient amounts to the user's shopping list.
func (s *CartService) AddToCart(ctx context.Context, userID, recipeID uint) error {
	err := inTx(ctx, s.db, s.log, "cart.add", func(tx *gorm.DB) error {
		if err := lockUser(tx, userID, "SHARE"); err != nil {
			return err
		}
		if _, err := lockRecipe(tx, recipeID, "SHARE"); err != nil {
			return err
		}
		if err := s.relations.add(tx, RelationCart, userID, recipeID); err != nil {
			return err
		}
		deltas, err := recipeDeltas(tx, recipeID)
		if err != nil {
			return err
		}
		return s.aggregate.apply(tx, "cart.add", userID, deltas)
	})
	s.observe("add", userID, recipeID, err)
	return err
}

// RemoveFromCart takes the recipe out of the cart and subtracts its
// ingredient amounts, deleting shopping list entries that reach zero.
func (s *CartService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	err := inTx(ctx, s.db, s.log, "cart.remove", func(tx *gorm.DB) error {
		if err := lockUser(tx, userID, "SHARE"); err != nil {
			return err
		}
		if _, err := lockRecipe(tx, recipeID, "SHARE"); err != nil {
			return err
		}
		if err := s.relations.remove(tx, RelationCart, userID, recipeID); err != nil {
			return err
		}
		deltas, err := recipeDeltas(tx, recipeID)
		if err != nil {
			return err
		}
		return s.aggregate.apply(tx, "cart.remove", userID, negate(deltas))
	})
	s.observe("remove", userID, recipeID, err)
	return err
}

// InCart reports whether the recipe is in the user's cart.
func (s *CartService) InCart(ctx context.Context, userID, recipeID uint) (bool, error) {
	return s.relations.exists(s.db.WithContext(ctx), RelationCart, userID, recipeID)
}

func (s *CartService) observe(op string, userID, recipeID uint, err error) {
	result := resultLabel(err)
	CartMutationsTotal.WithLabelValues(op, result).Inc()
	if result == "error" {
		s.log.Error("Cart mutation failed", "op", op, "user_id", userID, "recipe_id", recipeID, "error", err)
		return
	}
	s.log.Debug("Cart mutation", "op", op, "user_id", userID, "recipe_id", recipeID, "result", result)
}
