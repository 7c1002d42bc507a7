package db

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"foodgram/internal/logger"
	"foodgram/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the Postgres connection, migrates and seeds. It sets DB.
func Init(dsn string, log *logger.Logger) error {
	conn, err := Open(postgres.Open(dsn), gormLogger.Warn)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")

	if err := Migrate(conn); err != nil {
		log.Error("Failed to migrate database", "error", err)
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("Database migration completed")

	seedTags(conn, log)
	DB = conn
	return nil
}

// Open wraps gorm.Open with the settings every store connection needs.
// TranslateError turns driver unique violations into gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector, level gormLogger.LogLevel) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(level),
	})
}

func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Ingredient{},
		&models.Tag{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Follow{},
		&models.Favorite{},
		&models.ShoppingCart{},
		&models.ShoppingListItem{},
	)
}

func seedTags(conn *gorm.DB, log *logger.Logger) {
	var count int64
	if err := conn.Model(&models.Tag{}).Count(&count).Error; err != nil {
		log.Warn("Failed to count tags, skipping seed", "error", err)
		return
	}
	if count > 0 {
		log.Debug("Tags already seeded, skipping")
		return
	}

	tags := []models.Tag{
		{Name: "Завтрак", Color: "#E26C2D", Slug: "breakfast"},
		{Name: "Обед", Color: "#49B64E", Slug: "lunch"},
		{Name: "Ужин", Color: "#8775D2", Slug: "dinner"},
	}
	for _, tag := range tags {
		if err := conn.Create(&tag).Error; err != nil {
			log.Warn("Failed to create tag", "slug", tag.Slug, "error", err)
		}
	}
	log.Info("Initial tags created", "count", len(tags))
}

type ingredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// LoadIngredients reads a JSON array of {name, measurement_unit} and inserts
// the ones not yet present. It returns how many rows were inserted.
func LoadIngredients(conn *gorm.DB, path string) (int64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read ingredients file: %w", err)
	}
	var records []ingredientRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return 0, fmt.Errorf("parse ingredients file: %w", err)
	}

	rows := make([]models.Ingredient, 0, len(records))
	seen := make(map[ingredientRecord]bool, len(records))
	for _, r := range records {
		r.Name = strings.TrimSpace(r.Name)
		r.MeasurementUnit = strings.TrimSpace(r.MeasurementUnit)
		if r.Name == "" || r.MeasurementUnit == "" || seen[r] {
			continue
		}
		seen[r] = true
		rows = append(rows, models.Ingredient{Name: r.Name, MeasurementUnit: r.MeasurementUnit})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	res := conn.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, 500)
	if res.Error != nil {
		return 0, fmt.Errorf("insert ingredients: %w", res.Error)
	}
	return res.RowsAffected, nil
}
