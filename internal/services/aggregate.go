package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"foodgram/internal/logger"
	"foodgram/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IngredientDelta is a signed change to one ingredient's shopping list total.
type IngredientDelta struct {
	IngredientID uint
	Amount       int
}

// Drift is one ingredient whose stored total disagrees with the cart.
type Drift struct {
	IngredientID uint `json:"ingredient_id"`
	Expected     int  `json:"expected"`
	Actual       int  `json:"actual"`
}

// recipeDeltas returns the recipe's ingredient lines merged per ingredient,
// ascending by ingredient id.
func recipeDeltas(tx *gorm.DB, recipeID uint) ([]IngredientDelta, error) {
	var deltas []IngredientDelta
	err := tx.Model(&models.RecipeIngredient{}).
		Select("ingredient_id, SUM(amount) AS amount").
		Where("recipe_id = ?", recipeID).
		Group("ingredient_id").
		Order("ingredient_id ASC").
		Scan(&deltas).Error
	return deltas, err
}

func negate(deltas []IngredientDelta) []IngredientDelta {
	out := make([]IngredientDelta, len(deltas))
	for i, d := range deltas {
		out[i] = IngredientDelta{IngredientID: d.IngredientID, Amount: -d.Amount}
	}
	return out
}

// diffDeltas returns next minus prev per ingredient, dropping zeros.
func diffDeltas(prev, next []IngredientDelta) []IngredientDelta {
	net := make(map[uint]int)
	for _, d := range prev {
		net[d.IngredientID] -= d.Amount
	}
	for _, d := range next {
		net[d.IngredientID] += d.Amount
	}
	out := make([]IngredientDelta, 0, len(net))
	for id, amount := range net {
		if amount != 0 {
			out = append(out, IngredientDelta{IngredientID: id, Amount: amount})
		}
	}
	sortDeltas(out)
	return out
}

func sortDeltas(deltas []IngredientDelta) {
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].IngredientID < deltas[j].IngredientID })
}

// shoppingAggregate maintains shopping_list_items. Rows are touched in
// ascending ingredient id so concurrent transactions lock them in one order.
type shoppingAggregate struct {
	log *logger.Logger
}

func (a *shoppingAggregate) apply(tx *gorm.DB, op string, userID uint, deltas []IngredientDelta) error {
	for _, d := range deltas {
		var err error
		switch {
		case d.Amount > 0:
			err = a.increment(tx, userID, d)
		case d.Amount < 0:
			err = a.decrement(tx, op, userID, d)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *shoppingAggregate) increment(tx *gorm.DB, userID uint, d IngredientDelta) error {
	now := time.Now()
	item := models.ShoppingListItem{UserID: userID, IngredientID: d.IngredientID, Amount: d.Amount, UpdatedAt: now}
	return tx.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "ingredient_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount":     gorm.Expr("shopping_list_items.amount + excluded.amount"),
			"updated_at": now,
		}),
	}).Create(&item).Error
}

func (a *shoppingAggregate) decrement(tx *gorm.DB, op string, userID uint, d IngredientDelta) error {
	take := -d.Amount
	res := tx.Model(&models.ShoppingListItem{}).
		Where("user_id = ? AND ingredient_id = ? AND amount >= ?", userID, d.IngredientID, take).
		Update("amount", gorm.Expr("amount - ?", take))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return a.inconsistent(tx, op, userID, d.IngredientID, take)
	}
	return tx.Where("user_id = ? AND ingredient_id = ? AND amount <= 0", userID, d.IngredientID).
		Delete(&models.ShoppingListItem{}).Error
}

func (a *shoppingAggregate) inconsistent(tx *gorm.DB, op string, userID, ingredientID uint, want int) error {
	var have int
	var item models.ShoppingListItem
	err := tx.Select("amount").Where("user_id = ? AND ingredient_id = ?", userID, ingredientID).First(&item).Error
	switch {
	case err == nil:
		have = item.Amount
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	AggregateConsistencyErrorsTotal.WithLabelValues(op).Inc()
	a.log.Error("Shopping list drifted from cart",
		"op", op, "user_id", userID, "ingredient_id", ingredientID, "want", want, "have", have)
	return fmt.Errorf("%w: user %d ingredient %d: need %d, have %d",
		ErrAggregateConsistency, userID, ingredientID, want, have)
}

// expected sums the ingredient lines of every recipe in the user's cart.
func (a *shoppingAggregate) expected(tx *gorm.DB, userID uint) (map[uint]int, error) {
	var rows []IngredientDelta
	err := tx.Table("recipe_ingredients AS ri").
		Select("ri.ingredient_id AS ingredient_id, SUM(ri.amount) AS amount").
		Joins("JOIN shopping_carts AS sc ON sc.recipe_id = ri.recipe_id").
		Where("sc.user_id = ?", userID).
		Group("ri.ingredient_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int, len(rows))
	for _, r := range rows {
		out[r.IngredientID] = r.Amount
	}
	return out, nil
}

func (a *shoppingAggregate) actual(tx *gorm.DB, userID uint) (map[uint]int, error) {
	var items []models.ShoppingListItem
	if err := tx.Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]int, len(items))
	for _, it := range items {
		out[it.IngredientID] = it.Amount
	}
	return out, nil
}

func (a *shoppingAggregate) drift(tx *gorm.DB, userID uint) ([]Drift, error) {
	want, err := a.expected(tx, userID)
	if err != nil {
		return nil, err
	}
	have, err := a.actual(tx, userID)
	if err != nil {
		return nil, err
	}
	drifts := make([]Drift, 0)
	for id, amount := range want {
		if have[id] != amount {
			drifts = append(drifts, Drift{IngredientID: id, Expected: amount, Actual: have[id]})
		}
	}
	for id, amount := range have {
		if _, ok := want[id]; !ok {
			drifts = append(drifts, Drift{IngredientID: id, Expected: 0, Actual: amount})
		}
	}
	sort.Slice(drifts, func(i, j int) bool { return drifts[i].IngredientID < drifts[j].IngredientID })
	return drifts, nil
}

// repair overwrites each drifted entry with its expected total.
func (a *shoppingAggregate) repair(tx *gorm.DB, userID uint, drifts []Drift) error {
	for _, d := range drifts {
		if d.Expected == 0 {
			err := tx.Where("user_id = ? AND ingredient_id = ?", userID, d.IngredientID).
				Delete(&models.ShoppingListItem{}).Error
			if err != nil {
				return err
			}
			continue
		}
		item := models.ShoppingListItem{UserID: userID, IngredientID: d.IngredientID, Amount: d.Expected, UpdatedAt: time.Now()}
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "ingredient_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).Create(&item).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// ShoppingListService reads and audits the per-user shopping list.
type ShoppingListService struct {
	db        *gorm.DB
	log       *logger.Logger
	aggregate *shoppingAggregate
}

func NewShoppingListService(conn *gorm.DB, log *logger.Logger) *ShoppingListService {
	return &ShoppingListService{db: conn, log: log, aggregate: &shoppingAggregate{log: log}}
}

// Verify reports drift between the user's cart and shopping list without
// changing anything. An empty result means the list is exact.
func (s *ShoppingListService) Verify(ctx context.Context, userID uint) ([]Drift, error) {
	var drifts []Drift
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		var err error
		drifts, err = s.aggregate.drift(tx, userID)
		return err
	})
	return drifts, err
}

// Reconcile recomputes the user's shopping list from cart memberships, fixes
// every drifted entry and returns what it fixed.
func (s *ShoppingListService) Reconcile(ctx context.Context, userID uint) ([]Drift, error) {
	var drifts []Drift
	err := inTx(ctx, s.db, s.log, "reconcile", func(tx *gorm.DB) error {
		// Cart mutations hold the user row shared; this waits them out.
		if err := lockUser(tx, userID, "UPDATE"); err != nil {
			return err
		}
		var err error
		drifts, err = s.aggregate.drift(tx, userID)
		if err != nil {
			return err
		}
		return s.aggregate.repair(tx, userID, drifts)
	})
	if err != nil {
		return nil, err
	}
	if len(drifts) > 0 {
		s.log.Warn("Reconciled shopping list", "user_id", userID, "drifted", len(drifts))
	}
	return drifts, nil
}
