// Package dbtest opens throwaway in-memory stores for tests.
package dbtest

import (
	"fmt"
	"testing"

	"foodgram/internal/db"
	"foodgram/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB returns a migrated in-memory SQLite store private to the calling test.
// A single connection serializes transactions the way row locks would on Postgres.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	conn, err := db.Open(sqlite.Open(dsn), gormLogger.Silent)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(conn); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return conn
}

func SeedUser(tb testing.TB, conn *gorm.DB, username string) *models.User {
	tb.Helper()
	u := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: "A",
		LastName:  "B",
		Password:  "pw",
		Role:      models.RoleUser,
	}
	if err := conn.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedIngredient(tb testing.TB, conn *gorm.DB, name, unit string) *models.Ingredient {
	tb.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := conn.Create(ing).Error; err != nil {
		tb.Fatalf("seed ingredient: %v", err)
	}
	return ing
}

func SeedTag(tb testing.TB, conn *gorm.DB, slug, color string) *models.Tag {
	tb.Helper()
	tag := &models.Tag{Name: slug, Color: color, Slug: slug}
	if err := conn.Create(tag).Error; err != nil {
		tb.Fatalf("seed tag: %v", err)
	}
	return tag
}

// SeedRecipe creates a recipe for author with the given ingredient amounts.
func SeedRecipe(tb testing.TB, conn *gorm.DB, author *models.User, name string, amounts map[*models.Ingredient]int) *models.Recipe {
	tb.Helper()
	r := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        name,
		CookingTime: 10,
	}
	for ing, amount := range amounts {
		r.Ingredients = append(r.Ingredients, models.RecipeIngredient{IngredientID: ing.ID, Amount: amount})
	}
	if err := conn.Omit("Author").Create(r).Error; err != nil {
		tb.Fatalf("seed recipe: %v", err)
	}
	return r
}
