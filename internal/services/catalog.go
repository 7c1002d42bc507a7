package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"foodgram/internal/logger"
	"foodgram/internal/models"
	"foodgram/internal/utils"

	"gorm.io/gorm"
)

var (
	hexColorRe = regexp.MustCompile(`^#(?:[0-9A-Fa-f]{3}){1,2}$`)
	slugRe     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// ValidSlug reports whether s may be used as a tag slug.
func ValidSlug(s string) bool {
	return slugRe.MatchString(s)
}

// TagInput is the admin payload for a new tag.
type TagInput struct {
	Name  string `json:"name" binding:"required,max=60"`
	Color string `json:"color" binding:"required,hexcolor"`
	Slug  string `json:"slug" binding:"required,max=50,slug"`
}

type IngredientInput struct {
	Name            string `json:"name" binding:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" binding:"required,max=200"`
}

// CatalogService serves tags and ingredients, the read-mostly reference data.
// Reads go through an LRU cache that writes invalidate.
type CatalogService struct {
	db    *gorm.DB
	log   *logger.Logger
	cache *utils.GlobalCache
	ttl   time.Duration
}

func NewCatalogService(conn *gorm.DB, log *logger.Logger, cache *utils.GlobalCache, ttl time.Duration) *CatalogService {
	return &CatalogService{db: conn, log: log, cache: cache, ttl: ttl}
}

func (s *CatalogService) Tags(ctx context.Context) ([]models.Tag, error) {
	if cached, ok := s.cache.Get("tags:all").([]models.Tag); ok {
		return slices.Clone(cached), nil
	}
	tags := make([]models.Tag, 0)
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	s.cache.Set("tags:all", tags, s.ttl)
	return slices.Clone(tags), nil
}

func (s *CatalogService) Tag(ctx context.Context, id uint) (*models.Tag, error) {
	key := fmt.Sprintf("tags:%d", id)
	if cached, ok := s.cache.Get(key).(models.Tag); ok {
		return &cached, nil
	}
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("tag", id)
		}
		return nil, err
	}
	s.cache.Set(key, tag, s.ttl)
	return &tag, nil
}

// CreateTag requires CapManageCatalog. Name, color and slug are each unique.
func (s *CatalogService) CreateTag(ctx context.Context, actor *models.User, in TagInput) (*models.Tag, error) {
	if !actor.Role.Can(models.CapManageCatalog) {
		return nil, ErrForbidden
	}
	tag := models.Tag{
		Name:  strings.TrimSpace(in.Name),
		Color: strings.ToUpper(in.Color),
		Slug:  strings.TrimSpace(in.Slug),
	}
	if tag.Name == "" {
		return nil, validationError("tag name is required")
	}
	if !hexColorRe.MatchString(tag.Color) {
		return nil, validationError("color %q is not a hex color", in.Color)
	}
	if !ValidSlug(tag.Slug) {
		return nil, validationError("slug %q may only hold letters, digits, - and _", in.Slug)
	}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: tag name, color or slug already used", ErrAlreadyExists)
		}
		return nil, err
	}
	s.cache.DeletePrefix("tags:")
	s.log.Info("Tag created", "tag_id", tag.ID, "slug", tag.Slug)
	return &tag, nil
}

// Ingredients lists ingredients by name. A non-empty name keeps only exact
// (case-insensitive) matches; prefix search is not offered.
func (s *CatalogService) Ingredients(ctx context.Context, name string) ([]models.Ingredient, error) {
	name = strings.TrimSpace(name)
	key := "ingredients:all"
	if name != "" {
		key = "ingredients:name:" + strings.ToLower(name)
	}
	if cached, ok := s.cache.Get(key).([]models.Ingredient); ok {
		return slices.Clone(cached), nil
	}
	q := s.db.WithContext(ctx).Order("name ASC, measurement_unit ASC, id ASC")
	if name != "" {
		q = q.Where("LOWER(name) = ?", strings.ToLower(name))
	}
	ingredients := make([]models.Ingredient, 0)
	if err := q.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	s.cache.Set(key, ingredients, s.ttl)
	return slices.Clone(ingredients), nil
}

func (s *CatalogService) Ingredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	key := fmt.Sprintf("ingredients:%d", id)
	if cached, ok := s.cache.Get(key).(models.Ingredient); ok {
		return &cached, nil
	}
	var ing models.Ingredient
	if err := s.db.WithContext(ctx).First(&ing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("ingredient", id)
		}
		return nil, err
	}
	s.cache.Set(key, ing, s.ttl)
	return &ing, nil
}

// CreateIngredient requires CapManageCatalog. (name, unit) is unique.
func (s *CatalogService) CreateIngredient(ctx context.Context, actor *models.User, in IngredientInput) (*models.Ingredient, error) {
	if !actor.Role.Can(models.CapManageCatalog) {
		return nil, ErrForbidden
	}
	ing := models.Ingredient{
		Name:            strings.TrimSpace(in.Name),
		MeasurementUnit: strings.TrimSpace(in.MeasurementUnit),
	}
	if ing.Name == "" || ing.MeasurementUnit == "" {
		return nil, validationError("name and measurement_unit are required")
	}
	if err := s.db.WithContext(ctx).Create(&ing).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: ingredient %q (%s) already exists", ErrAlreadyExists, ing.Name, ing.MeasurementUnit)
		}
		return nil, err
	}
	s.cache.DeletePrefix("ingredients:")
	s.log.Info("Ingredient created", "ingredient_id", ing.ID)
	return &ing, nil
}
