package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodgram/internal/logger"
	"foodgram/internal/models"
	"foodgram/internal/utils"

	"gorm.io/gorm"
)

const minPasswordLength = 6

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=6"`
}

type UserService struct {
	db        *gorm.DB
	log       *logger.Logger
	relations relationRegistry
	aggregate *shoppingAggregate
}

func NewUserService(conn *gorm.DB, log *logger.Logger) *UserService {
	return &UserService{db: conn, log: log, aggregate: &shoppingAggregate{log: log}}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if in.Email == "" || in.Username == "" {
		return nil, validationError("email and username are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationError("password must be at least %d characters", minPasswordLength)
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hash,
		Role:      models.RoleUser,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email or username already registered", ErrAlreadyExists)
		}
		return nil, err
	}
	s.log.Info("User registered", "user_id", user.ID)
	return &user, nil
}

// Authenticate returns the user when email and password match.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) Find(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user", userID)
		}
		return nil, err
	}
	return &user, nil
}

// Profile returns userID as viewerID sees it.
func (s *UserService) Profile(ctx context.Context, viewerID, userID uint) (*UserView, error) {
	user, err := s.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.relations.objectsOf(s.db.WithContext(ctx), RelationFollow, viewerID, []uint{userID})
	if err != nil {
		return nil, err
	}
	view := newUserView(user, following[userID])
	return &view, nil
}

// SetPassword replaces the password after checking the current one.
func (s *UserService) SetPassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.Find(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(current, user.Password) {
		return ErrInvalidCredentials
	}
	if len(next) < minPasswordLength {
		return validationError("password must be at least %d characters", minPasswordLength)
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(user).Update("password", hash).Error
}

// Delete removes the user with everything they own. Their recipes go through
// the normal recipe deletion so other users' shopping lists stay exact.
func (s *UserService) Delete(ctx context.Context, userID uint) error {
	err := inTx(ctx, s.db, s.log, "user.delete", func(tx *gorm.DB) error {
		if err := lockUser(tx, userID, "UPDATE"); err != nil {
			return err
		}
		var recipeIDs []uint
		if err := tx.Model(&models.Recipe{}).Where("author_id = ?", userID).Order("id ASC").Pluck("id", &recipeIDs).Error; err != nil {
			return err
		}
		for _, id := range recipeIDs {
			recipe, err := lockRecipe(tx, id, "UPDATE")
			if err != nil {
				return err
			}
			if err := deleteRecipe(tx, s.aggregate, recipe); err != nil {
				return err
			}
		}
		for _, model := range []interface{}{&models.ShoppingListItem{}, &models.ShoppingCart{}, &models.Favorite{}} {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ? OR author_id = ?", userID, userID).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, userID).Error
	})
	if err == nil {
		s.log.Info("User deleted", "user_id", userID)
	}
	return err
}
