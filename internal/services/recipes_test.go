package services_test

import (
	"context"
	"testing"

	"foodgram/internal/db/dbtest"
	"foodgram/internal/models"
	"foodgram/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recipeInput(tags []uint, lines ...services.IngredientAmount) services.RecipeInput {
	return services.RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix **everything**.\nFry.",
		CookingTime: 15,
		Tags:        tags,
		Ingredients: lines,
	}
}

func TestRecipes_CreateMergesRepeatedIngredients(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u := dbtest.SeedUser(t, e.db, "cook")
	tag := dbtest.SeedTag(t, e.db, "breakfast", "#E26C2D")
	flour := dbtest.SeedIngredient(t, e.db, "Flour", "g")
	milk := dbtest.SeedIngredient(t, e.db, "Milk", "ml")

	view, err := e.recipes.Create(ctx, u.ID, recipeInput([]uint{tag.ID},
		services.IngredientAmount{ID: milk.ID, Amount: 300},
		services.IngredientAmount{ID: flour.ID, Amount: 100},
		services.IngredientAmount{ID: flour.ID, Amount: 50},
	))
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", view.Name)
	assert.Equal(t, u.ID, view.Author.ID)
	require.Len(t, view.Tags, 1)
	assert.Equal(t, "breakfast", view.Tags[0].Slug)
	assert.Equal(t, []services.IngredientLine{
		{ID: flour.ID, Name: "Flour", MeasurementUnit: "g", Amount: 150},
		{ID: milk.ID, Name: "Milk", MeasurementUnit: "ml", Amount: 300},
	}, view.Ingredients)
	assert.Contains(t, view.TextHTML, "<strong>everything</strong>")
	assert.False(t, view.IsInShoppingCart)
}

func TestRecipes_CreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u := dbtest.SeedUser(t, e.db, "cook")
	tag := dbtest.SeedTag(t, e.db, "lunch", "#49B64E")
	flour := dbtest.SeedIngredient(t, e.db, "Flour", "g")
	line := services.IngredientAmount{ID: flour.ID, Amount: 1}

	cases := map[string]struct {
		in   services.RecipeInput
		want error
	}{
		"no ingredients":     {recipeInput([]uint{tag.ID}), services.ErrValidation},
		"zero amount":        {recipeInput([]uint{tag.ID}, services.IngredientAmount{ID: flour.ID}), services.ErrValidation},
		"no tags":            {recipeInput(nil, line), services.ErrValidation},
		"repeated tag":       {recipeInput([]uint{tag.ID, tag.ID}, line), services.ErrValidation},
		"unknown tag":        {recipeInput([]uint{999}, line), services.ErrEntityNotFound},
		"unknown ingredient": {recipeInput([]uint{tag.ID}, services.IngredientAmount{ID: 999, Amount: 1}), services.ErrEntityNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.recipes.Create(ctx, u.ID, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	bad := recipeInput([]uint{tag.ID}, line)
	bad.CookingTime = 0
	_, err := e.recipes.Create(ctx, u.ID, bad)
	assert.ErrorIs(t, err, services.ErrValidation)

	assert.Zero(t, e.countRows(t, &models.Recipe{}, "1 = 1"))
}

func TestRecipes_UpdateAdjustsCartHolders(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cook := dbtest.SeedUser(t, e.db, "cook")
	shopper := dbtest.SeedUser(t, e.db, "shopper")
	tag := dbtest.SeedTag(t, e.db, "dinner", "#8775D2")
	flour := dbtest.SeedIngredient(t, e.db, "Flour", "g")
	sugar := dbtest.SeedIngredient(t, e.db, "Sugar", "g")
	egg := dbtest.SeedIngredient(t, e.db, "Egg", "pcs")

	view, err := e.recipes.Create(ctx, cook.ID, recipeInput([]uint{tag.ID},
		services.IngredientAmount{ID: flour.ID, Amount: 200},
		services.IngredientAmount{ID: sugar.ID, Amount: 50},
	))
	require.NoError(t, err)
	other := dbtest.SeedRecipe(t, e.db, cook, "Bread", map[*models.Ingredient]int{flour: 500})

	require.NoError(t, e.cart.AddToCart(ctx, shopper.ID, view.ID))
	require.NoError(t, e.cart.AddToCart(ctx, shopper.ID, other.ID))
	assert.Equal(t, map[string]int{"Flour": 700, "Sugar": 50}, e.aggregate(t, shopper.ID))

	_, err = e.recipes.Update(ctx, cook, view.ID, recipeInput([]uint{tag.ID},
		services.IngredientAmount{ID: flour.ID, Amount: 150},
		services.IngredientAmount{ID: egg.ID, Amount: 2},
	))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Flour": 650, "Egg": 2}, e.aggregate(t, shopper.ID))

	drift, err := e.list.Verify(ctx, shopper.ID)
	require.NoError(t, err)
	assert.Empty(t, drift)

	require.NoError(t, e.cart.RemoveFromCart(ctx, shopper.ID, view.ID))
	assert.Equal(t, map[string]int{"Flour": 500}, e.aggregate(t, shopper.ID))
}

func TestRecipes_DeleteDecrementsEveryCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cook := dbtest.SeedUser(t, e.db, "cook")
	a := dbtest.SeedUser(t, e.db, "a")
	b := dbtest.SeedUser(t, e.db, "b")
	flour := dbtest.SeedIngredient(t, e.db, "Flour", "g")
	sugar := dbtest.SeedIngredient(t, e.db, "Sugar", "g")
	cake := dbtest.SeedRecipe(t, e.db, cook, "Cake", map[*models.Ingredient]int{flour: 200, sugar: 50})
	bread := dbtest.SeedRecipe(t, e.db, cook, "Bread", map[*models.Ingredient]int{flour: 100})

	require.NoError(t, e.cart.AddToCart(ctx, a.ID, cake.ID))
	require.NoError(t, e.cart.AddToCart(ctx, a.ID, bread.ID))
	require.NoError(t, e.cart.AddToCart(ctx, b.ID, cake.ID))
	_, err := e.favorites.AddFavorite(ctx, b.ID, cake.ID)
	require.NoError(t, err)

	require.NoError(t, e.recipes.Delete(ctx, cook, cake.ID))

	assert.Equal(t, map[string]int{"Flour": 100}, e.aggregate(t, a.ID))
	assert.Empty(t, e.aggregate(t, b.ID))
	assert.Zero(t, e.countRows(t, &models.ShoppingCart{}, "recipe_id = ?", cake.ID))
	assert.Zero(t, e.countRows(t, &models.Favorite{}, "recipe_id = ?", cake.ID))

	_, err = e.recipes.Get(ctx, a.ID, cake.ID)
	assert.ErrorIs(t, err, services.ErrEntityNotFound)
}

func TestRecipes_Permissions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cook := dbtest.SeedUser(t, e.db, "cook")
	stranger := dbtest.SeedUser(t, e.db, "stranger")
	mod := dbtest.SeedUser(t, e.db, "mod")
	require.NoError(t, e.db.Model(mod).Update("role", models.RoleModerator).Error)
	mod.Role = models.RoleModerator

	tag := dbtest.SeedTag(t, e.db, "lunch", "#49B64E")
	flour := dbtest.SeedIngredient(t, e.db, "Flour", "g")
	r := dbtest.SeedRecipe(t, e.db, cook, "Bread", map[*models.Ingredient]int{flour: 100})
	in := recipeInput([]uint{tag.ID}, services.IngredientAmount{ID: flour.ID, Amount: 120})

	_, err := e.recipes.Update(ctx, stranger, r.ID, in)
	assert.ErrorIs(t, err, services.ErrForbidden)
	assert.ErrorIs(t, e.recipes.Delete(ctx, stranger, r.ID), services.ErrForbidden)

	_, err = e.recipes.Update(ctx, mod, r.ID, in)
	require.NoError(t, err)
	require.NoError(t, e.recipes.Delete(ctx, mod, r.ID))
}

func TestRecipes_ListFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cook := dbtest.SeedUser(t, e.db, "cook")
	viewer := dbtest.SeedUser(t, e.db, "viewer")
	breakfast := dbtest.SeedTag(t, e.db, "breakfast", "#E26C2D")
	dinner := dbtest.SeedTag(t, e.db, "dinner", "#8775D2")
	egg := dbtest.SeedIngredient(t, e.db, "Egg", "pcs")

	omelette, err := e.recipes.Create(ctx, cook.ID, recipeInput([]uint{breakfast.ID}, services.IngredientAmount{ID: egg.ID, Amount: 3}))
	require.NoError(t, err)
	stew, err := e.recipes.Create(ctx, cook.ID, recipeInput([]uint{dinner.ID}, services.IngredientAmount{ID: egg.ID, Amount: 1}))
	require.NoError(t, err)
	mine, err := e.recipes.Create(ctx, viewer.ID, recipeInput([]uint{breakfast.ID, dinner.ID}, services.IngredientAmount{ID: egg.ID, Amount: 2}))
	require.NoError(t, err)

	_, err = e.favorites.AddFavorite(ctx, viewer.ID, stew.ID)
	require.NoError(t, err)
	require.NoError(t, e.cart.AddToCart(ctx, viewer.ID, omelette.ID))

	ids := func(views []services.RecipeView) []uint {
		out := make([]uint, len(views))
		for i, v := range views {
			out[i] = v.ID
		}
		return out
	}

	all, err := e.recipes.List(ctx, viewer.ID, services.RecipeFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{omelette.ID, stew.ID, mine.ID}, ids(all))

	byTag, err := e.recipes.List(ctx, viewer.ID, services.RecipeFilter{TagSlugs: []string{"breakfast"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{omelette.ID, mine.ID}, ids(byTag))

	byAuthor, err := e.recipes.List(ctx, viewer.ID, services.RecipeFilter{AuthorID: cook.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{omelette.ID, stew.ID}, ids(byAuthor))

	favs, err := e.recipes.List(ctx, viewer.ID, services.RecipeFilter{IsFavorited: true})
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, stew.ID, favs[0].ID)
	assert.True(t, favs[0].IsFavorited)

	cart, err := e.recipes.List(ctx, viewer.ID, services.RecipeFilter{IsInShoppingCart: true})
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, omelette.ID, cart[0].ID)
	assert.True(t, cart[0].IsInShoppingCart)

	anon, err := e.recipes.List(ctx, 0, services.RecipeFilter{IsFavorited: true})
	require.NoError(t, err)
	assert.Len(t, anon, 3)
}
