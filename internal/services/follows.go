package services

import (
	"context"

	"foodgram/internal/logger"
	"foodgram/internal/models"

	"gorm.io/gorm"
)

// DefaultRecipesLimit caps the recipes listed per author in subscription
// responses when the client does not ask for a number.
const DefaultRecipesLimit = 10

type FollowService struct {
	db        *gorm.DB
	log       *logger.Logger
	relations relationRegistry
}

func NewFollowService(conn *gorm.DB, log *logger.Logger) *FollowService {
	return &FollowService{db: conn, log: log}
}

// Follow subscribes userID to authorID and returns the author as the
// subscriber now sees them.
func (s *FollowService) Follow(ctx context.Context, userID, authorID uint, recipesLimit int) (*SubscriptionView, error) {
	err := inTx(ctx, s.db, s.log, "follow.add", func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		if err := requireUser(tx, authorID); err != nil {
			return err
		}
		return s.relations.add(tx, RelationFollow, userID, authorID)
	})
	observeRelation(s.log, RelationFollow, "add", userID, authorID, err)
	if err != nil {
		return nil, err
	}
	views, err := s.subscriptionViews(s.db.WithContext(ctx), userID, []uint{authorID}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *FollowService) Unfollow(ctx context.Context, userID, authorID uint) error {
	err := inTx(ctx, s.db, s.log, "follow.remove", func(tx *gorm.DB) error {
		if err := requireUser(tx, authorID); err != nil {
			return err
		}
		return s.relations.remove(tx, RelationFollow, userID, authorID)
	})
	observeRelation(s.log, RelationFollow, "remove", userID, authorID, err)
	return err
}

func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.relations.exists(s.db.WithContext(ctx), RelationFollow, userID, authorID)
}

// Subscriptions lists the authors userID follows, oldest subscription first,
// each with at most recipesLimit of their newest recipes.
func (s *FollowService) Subscriptions(ctx context.Context, userID uint, recipesLimit int) ([]SubscriptionView, error) {
	conn := s.db.WithContext(ctx)
	if err := requireUser(conn, userID); err != nil {
		return nil, err
	}
	var authorIDs []uint
	err := conn.Model(&models.Follow{}).
		Where("user_id = ?", userID).
		Order("id ASC").
		Pluck("author_id", &authorIDs).Error
	if err != nil {
		return nil, err
	}
	return s.subscriptionViews(conn, userID, authorIDs, recipesLimit)
}

func (s *FollowService) subscriptionViews(conn *gorm.DB, viewerID uint, authorIDs []uint, recipesLimit int) ([]SubscriptionView, error) {
	views := make([]SubscriptionView, 0, len(authorIDs))
	if len(authorIDs) == 0 {
		return views, nil
	}
	if recipesLimit <= 0 {
		recipesLimit = DefaultRecipesLimit
	}

	var authors []models.User
	if err := conn.Where("id IN ?", authorIDs).Find(&authors).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.User, len(authors))
	for i := range authors {
		byID[authors[i].ID] = &authors[i]
	}
	following, err := s.relations.objectsOf(conn, RelationFollow, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	for _, id := range authorIDs {
		author, ok := byID[id]
		if !ok {
			continue
		}
		var recipes []models.Recipe
		err := conn.Where("author_id = ?", id).
			Order("created_at DESC, id DESC").
			Limit(recipesLimit).
			Find(&recipes).Error
		if err != nil {
			return nil, err
		}
		var count int64
		if err := conn.Model(&models.Recipe{}).Where("author_id = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
		view := SubscriptionView{
			UserView:     newUserView(author, following[id]),
			Recipes:      make([]RecipeShort, 0, len(recipes)),
			RecipesCount: count,
		}
		for i := range recipes {
			view.Recipes = append(view.Recipes, newRecipeShort(&recipes[i]))
		}
		views = append(views, view)
	}
	return views, nil
}
