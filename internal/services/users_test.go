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

func TestUsers_RegisterAndAuthenticate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	in := services.RegisterInput{
		Email:     "Cook@Example.com",
		Username:  "cook",
		FirstName: "Julia",
		LastName:  "Child",
		Password:  "bouillabaisse",
	}
	u, err := e.users.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "cook@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, in.Password, u.Password)

	_, err = e.users.Register(ctx, in)
	assert.ErrorIs(t, err, services.ErrAlreadyExists)

	short := in
	short.Email, short.Username, short.Password = "x@example.com", "x", "123"
	_, err = e.users.Register(ctx, short)
	assert.ErrorIs(t, err, services.ErrValidation)

	got, err := e.users.Authenticate(ctx, "cook@example.com", "bouillabaisse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = e.users.Authenticate(ctx, "cook@example.com", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, err = e.users.Authenticate(ctx, "nobody@example.com", "bouillabaisse")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	require.NoError(t, e.users.SetPassword(ctx, u.ID, "bouillabaisse", "ratatouille"))
	_, err = e.users.Authenticate(ctx, "cook@example.com", "ratatouille")
	assert.NoError(t, err)
}

func TestUsers_Profile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	fan := dbtest.SeedUser(t, e.db, "fan")
	chef := dbtest.SeedUser(t, e.db, "chef")
	_, err := e.follows.Follow(ctx, fan.ID, chef.ID, 0)
	require.NoError(t, err)

	view, err := e.users.Profile(ctx, fan.ID, chef.ID)
	require.NoError(t, err)
	assert.True(t, view.IsSubscribed)

	view, err = e.users.Profile(ctx, 0, chef.ID)
	require.NoError(t, err)
	assert.False(t, view.IsSubscribed)

	_, err = e.users.Profile(ctx, fan.ID, 999)
	assert.ErrorIs(t, err, services.ErrEntityNotFound)
}

func TestUsers_DeleteKeepsOtherShoppingListsExact(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cook := dbtest.SeedUser(t, e.db, "cook")
	shopper := dbtest.SeedUser(t, e.db, "shopper")
	flour := dbtest.SeedIngredient(t, e.db, "Flour", "g")
	sugar := dbtest.SeedIngredient(t, e.db, "Sugar", "g")
	cake := dbtest.SeedRecipe(t, e.db, cook, "Cake", map[*models.Ingredient]int{flour: 200, sugar: 50})
	bread := dbtest.SeedRecipe(t, e.db, shopper, "Bread", map[*models.Ingredient]int{flour: 100})

	require.NoError(t, e.cart.AddToCart(ctx, shopper.ID, cake.ID))
	require.NoError(t, e.cart.AddToCart(ctx, shopper.ID, bread.ID))
	require.NoError(t, e.cart.AddToCart(ctx, cook.ID, bread.ID))
	_, err := e.follows.Follow(ctx, shopper.ID, cook.ID, 0)
	require.NoError(t, err)
	_, err = e.follows.Follow(ctx, cook.ID, shopper.ID, 0)
	require.NoError(t, err)

	require.NoError(t, e.users.Delete(ctx, cook.ID))

	assert.Equal(t, map[string]int{"Flour": 100}, e.aggregate(t, shopper.ID))
	assert.Zero(t, e.countRows(t, &models.ShoppingListItem{}, "user_id = ?", cook.ID))
	assert.Zero(t, e.countRows(t, &models.ShoppingCart{}, "user_id = ?", cook.ID))
	assert.Zero(t, e.countRows(t, &models.Follow{}, "user_id = ? OR author_id = ?", cook.ID, cook.ID))
	assert.Zero(t, e.countRows(t, &models.Recipe{}, "author_id = ?", cook.ID))
	assert.ErrorIs(t, e.users.Delete(ctx, cook.ID), services.ErrEntityNotFound)

	drift, err := e.list.Verify(ctx, shopper.ID)
	require.NoError(t, err)
	assert.Empty(t, drift)
}
