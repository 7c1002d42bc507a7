package services

import (
	"context"
	"errors"
	"strings"

	"foodgram/internal/logger"
	"foodgram/internal/models"
	"foodgram/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IngredientAmount is one ingredient line of a recipe write.
type IngredientAmount struct {
	ID     uint `json:"id" binding:"required"`
	Amount int  `json:"amount" binding:"required,min=1"`
}

// RecipeInput is the body of recipe create and update requests.
type RecipeInput struct {
	Name        string             `json:"name" binding:"required,max=200"`
	Text        string             `json:"text" binding:"required"`
	CookingTime int                `json:"cooking_time" binding:"required,min=1"`
	Image       string             `json:"image" binding:"omitempty,max=2048"`
	Tags        []uint             `json:"tags" binding:"required,min=1,unique"`
	Ingredients []IngredientAmount `json:"ingredients" binding:"required,min=1,dive"`
}

// RecipeFilter narrows List. Zero fields do not filter.
type RecipeFilter struct {
	AuthorID         uint
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
}

type RecipeService struct {
	db        *gorm.DB
	log       *logger.Logger
	relations relationRegistry
	aggregate *shoppingAggregate
}

func NewRecipeService(conn *gorm.DB, log *logger.Logger) *RecipeService {
	return &RecipeService{db: conn, log: log, aggregate: &shoppingAggregate{log: log}}
}

// normalize validates the input and merges repeated ingredient ids by summing
// their amounts. The result is ascending by ingredient id.
func (in *RecipeInput) normalize() ([]IngredientDelta, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, validationError("name is required")
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, validationError("text is required")
	}
	if in.CookingTime < 1 {
		return nil, validationError("cooking_time must be at least 1")
	}
	if len(in.Tags) == 0 {
		return nil, validationError("at least one tag is required")
	}
	seen := make(map[uint]bool, len(in.Tags))
	for _, id := range in.Tags {
		if seen[id] {
			return nil, validationError("tag %d is listed twice", id)
		}
		seen[id] = true
	}
	if len(in.Ingredients) == 0 {
		return nil, validationError("at least one ingredient is required")
	}
	merged := make(map[uint]int, len(in.Ingredients))
	for _, line := range in.Ingredients {
		if line.Amount < 1 {
			return nil, validationError("ingredient %d amount must be at least 1", line.ID)
		}
		merged[line.ID] += line.Amount
	}
	deltas := make([]IngredientDelta, 0, len(merged))
	for id, amount := range merged {
		deltas = append(deltas, IngredientDelta{IngredientID: id, Amount: amount})
	}
	sortDeltas(deltas)
	return deltas, nil
}

func loadTags(tx *gorm.DB, ids []uint) ([]models.Tag, error) {
	var tags []models.Tag
	if err := tx.Where("id IN ?", ids).Order("id ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		found := make(map[uint]bool, len(tags))
		for _, t := range tags {
			found[t.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, notFound("tag", id)
			}
		}
	}
	return tags, nil
}

func requireIngredients(tx *gorm.DB, lines []IngredientDelta) error {
	ids := make([]uint, len(lines))
	for i, l := range lines {
		ids[i] = l.IngredientID
	}
	var found []uint
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	if len(found) == len(ids) {
		return nil
	}
	have := make(map[uint]bool, len(found))
	for _, id := range found {
		have[id] = true
	}
	for _, id := range ids {
		if !have[id] {
			return notFound("ingredient", id)
		}
	}
	return nil
}

func ingredientRows(recipeID uint, lines []IngredientDelta) []models.RecipeIngredient {
	rows := make([]models.RecipeIngredient, len(lines))
	for i, l := range lines {
		rows[i] = models.RecipeIngredient{RecipeID: recipeID, IngredientID: l.IngredientID, Amount: l.Amount}
	}
	return rows
}

// Create publishes a recipe authored by authorID.
func (s *RecipeService) Create(ctx context.Context, authorID uint, in RecipeInput) (*RecipeView, error) {
	lines, err := in.normalize()
	if err != nil {
		return nil, err
	}
	var recipeID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, authorID); err != nil {
			return err
		}
		tags, err := loadTags(tx, in.Tags)
		if err != nil {
			return err
		}
		if err := requireIngredients(tx, lines); err != nil {
			return err
		}
		recipe := models.Recipe{
			AuthorID:    authorID,
			Name:        in.Name,
			Image:       in.Image,
			Text:        in.Text,
			CookingTime: in.CookingTime,
		}
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return err
		}
		rows := ingredientRows(recipe.ID, lines)
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Append(tags); err != nil {
			return err
		}
		recipeID = recipe.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Recipe created", "recipe_id", recipeID, "author_id", authorID)
	return s.Get(ctx, authorID, recipeID)
}

func canTouch(actor *models.User, recipe *models.Recipe, c models.Capability) error {
	if actor.ID == recipe.AuthorID || actor.Role.Can(c) {
		return nil
	}
	return ErrForbidden
}

// cartHolders locks and returns, ascending, the users who have the recipe in
// their cart.
func cartHolders(tx *gorm.DB, recipeID uint) ([]uint, error) {
	var userIDs []uint
	err := tx.Model(&models.ShoppingCart{}).
		Where("recipe_id = ?", recipeID).
		Order("user_id ASC").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	for _, id := range userIDs {
		if err := lockUser(tx, id, "SHARE"); err != nil {
			return nil, err
		}
	}
	return userIDs, nil
}

// Update replaces the recipe's fields, tags and ingredient list. Users who
// have the recipe in their cart get the difference between the old and new
// ingredient lists applied to their shopping list.
func (s *RecipeService) Update(ctx context.Context, actor *models.User, recipeID uint, in RecipeInput) (*RecipeView, error) {
	lines, err := in.normalize()
	if err != nil {
		return nil, err
	}
	err = inTx(ctx, s.db, s.log, "recipe.update", func(tx *gorm.DB) error {
		recipe, err := lockRecipe(tx, recipeID, "UPDATE")
		if err != nil {
			return err
		}
		if err := canTouch(actor, recipe, models.CapEditAnyRecipe); err != nil {
			return err
		}
		tags, err := loadTags(tx, in.Tags)
		if err != nil {
			return err
		}
		if err := requireIngredients(tx, lines); err != nil {
			return err
		}

		prev, err := recipeDeltas(tx, recipeID)
		if err != nil {
			return err
		}
		if delta := diffDeltas(prev, lines); len(delta) > 0 {
			holders, err := cartHolders(tx, recipeID)
			if err != nil {
				return err
			}
			for _, userID := range holders {
				if err := s.aggregate.apply(tx, "recipe.update", userID, delta); err != nil {
					return err
				}
			}
			if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return err
			}
			rows := ingredientRows(recipeID, lines)
			if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		return tx.Model(recipe).Omit(clause.Associations).Updates(map[string]interface{}{
			"name":         in.Name,
			"text":         in.Text,
			"image":        in.Image,
			"cooking_time": in.CookingTime,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Recipe updated", "recipe_id", recipeID, "actor_id", actor.ID)
	return s.Get(ctx, actor.ID, recipeID)
}

// Delete removes the recipe. Every shopping list it contributed to is
// decremented first, in the same transaction.
func (s *RecipeService) Delete(ctx context.Context, actor *models.User, recipeID uint) error {
	err := inTx(ctx, s.db, s.log, "recipe.delete", func(tx *gorm.DB) error {
		recipe, err := lockRecipe(tx, recipeID, "UPDATE")
		if err != nil {
			return err
		}
		if err := canTouch(actor, recipe, models.CapDeleteAnyRecipe); err != nil {
			return err
		}
		return deleteRecipe(tx, s.aggregate, recipe)
	})
	if err == nil {
		s.log.Info("Recipe deleted", "recipe_id", recipeID, "actor_id", actor.ID)
	}
	return err
}

// deleteRecipe expects the recipe row to be locked by the caller.
func deleteRecipe(tx *gorm.DB, aggregate *shoppingAggregate, recipe *models.Recipe) error {
	deltas, err := recipeDeltas(tx, recipe.ID)
	if err != nil {
		return err
	}
	holders, err := cartHolders(tx, recipe.ID)
	if err != nil {
		return err
	}
	removal := negate(deltas)
	for _, userID := range holders {
		if err := aggregate.apply(tx, "recipe.delete", userID, removal); err != nil {
			return err
		}
	}
	if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.ShoppingCart{}).Error; err != nil {
		return err
	}
	if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Favorite{}).Error; err != nil {
		return err
	}
	if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return err
	}
	if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
		return err
	}
	return tx.Delete(&models.Recipe{}, recipe.ID).Error
}

// Get returns one recipe as viewerID sees it. viewerID 0 is an anonymous
// visitor.
func (s *RecipeService) Get(ctx context.Context, viewerID, recipeID uint) (*RecipeView, error) {
	var recipe models.Recipe
	err := s.preload(s.db.WithContext(ctx)).First(&recipe, recipeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("recipe", recipeID)
		}
		return nil, err
	}
	views, err := s.views(s.db.WithContext(ctx), viewerID, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns recipes newest first. The favorited and in-cart filters only
// apply to a signed in viewer.
func (s *RecipeService) List(ctx context.Context, viewerID uint, f RecipeFilter) ([]RecipeView, error) {
	q := s.preload(s.db.WithContext(ctx))
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		q = q.Where("id IN (?)", s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs))
	}
	if viewerID != 0 && f.IsFavorited {
		q = q.Where("id IN (?)", s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewerID))
	}
	if viewerID != 0 && f.IsInShoppingCart {
		q = q.Where("id IN (?)", s.db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", viewerID))
	}
	var recipes []models.Recipe
	if err := q.Order("created_at DESC, id DESC").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return s.views(s.db.WithContext(ctx), viewerID, recipes)
}

func (s *RecipeService) preload(q *gorm.DB) *gorm.DB {
	return q.Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id ASC") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.ingredient_id ASC") }).
		Preload("Ingredients.Ingredient")
}

func (s *RecipeService) views(conn *gorm.DB, viewerID uint, recipes []models.Recipe) ([]RecipeView, error) {
	ids := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
		authorIDs[i] = recipes[i].AuthorID
	}
	favorited, err := s.relations.objectsOf(conn, RelationFavorite, viewerID, ids)
	if err != nil {
		return nil, err
	}
	inCart, err := s.relations.objectsOf(conn, RelationCart, viewerID, ids)
	if err != nil {
		return nil, err
	}
	following, err := s.relations.objectsOf(conn, RelationFollow, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]RecipeView, 0, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		lines := make([]IngredientLine, 0, len(r.Ingredients))
		for _, ri := range r.Ingredients {
			lines = append(lines, IngredientLine{
				ID:              ri.IngredientID,
				Name:            ri.Ingredient.Name,
				MeasurementUnit: ri.Ingredient.MeasurementUnit,
				Amount:          ri.Amount,
			})
		}
		tags := r.Tags
		if tags == nil {
			tags = []models.Tag{}
		}
		views = append(views, RecipeView{
			ID:               r.ID,
			Tags:             tags,
			Author:           newUserView(&r.Author, following[r.AuthorID]),
			Ingredients:      lines,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			TextHTML:         string(utils.RenderMarkdown(r.Text)),
			CookingTime:      r.CookingTime,
			CreatedAt:        r.CreatedAt,
		})
	}
	return views, nil
}
