package services

import (
	"fmt"

	"foodgram/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationKind names one of the user-to-thing relation tables.
type RelationKind string

const (
	RelationFollow   RelationKind = "follow"
	RelationFavorite RelationKind = "favorite"
	RelationCart     RelationKind = "shopping_cart"
)

type relationTable struct {
	model        func() interface{}
	newRow       func(subject, object uint) interface{}
	objectColumn string
	duplicate    error
	missing      error
}

var relationTables = map[RelationKind]relationTable{
	RelationFollow: {
		model:        func() interface{} { return &models.Follow{} },
		newRow:       func(s, o uint) interface{} { return &models.Follow{UserID: s, AuthorID: o} },
		objectColumn: "author_id",
		duplicate:    ErrDuplicateFollow,
		missing:      ErrNotFollowing,
	},
	RelationFavorite: {
		model:        func() interface{} { return &models.Favorite{} },
		newRow:       func(s, o uint) interface{} { return &models.Favorite{UserID: s, RecipeID: o} },
		objectColumn: "recipe_id",
		duplicate:    ErrDuplicateFavorite,
		missing:      ErrNotFavorited,
	},
	RelationCart: {
		model:        func() interface{} { return &models.ShoppingCart{} },
		newRow:       func(s, o uint) interface{} { return &models.ShoppingCart{UserID: s, RecipeID: o} },
		objectColumn: "recipe_id",
		duplicate:    ErrDuplicateCartEntry,
		missing:      ErrNotInCart,
	},
}

func tableFor(kind RelationKind) relationTable {
	t, ok := relationTables[kind]
	if !ok {
		panic(fmt.Sprintf("services: unknown relation kind %q", kind))
	}
	return t
}

// relationRegistry owns the (subject, object) uniqueness rules shared by
// follows, favorites and cart memberships. Every method runs on the caller's
// transaction.
type relationRegistry struct{}

func (relationRegistry) exists(tx *gorm.DB, kind RelationKind, subject, object uint) (bool, error) {
	t := tableFor(kind)
	var count int64
	err := tx.Model(t.model()).
		Where("user_id = ? AND "+t.objectColumn+" = ?", subject, object).
		Count(&count).Error
	return count > 0, err
}

// add inserts the pair or fails with the kind's duplicate error. A concurrent
// insert of the same pair surfaces as a unique violation, which inTx retries
// into the duplicate error.
func (r relationRegistry) add(tx *gorm.DB, kind RelationKind, subject, object uint) error {
	if kind == RelationFollow && subject == object {
		return ErrSelfReference
	}
	t := tableFor(kind)
	exists, err := r.exists(tx, kind, subject, object)
	if err != nil {
		return err
	}
	if exists {
		return t.duplicate
	}
	return tx.Omit(clause.Associations).Create(t.newRow(subject, object)).Error
}

func (relationRegistry) remove(tx *gorm.DB, kind RelationKind, subject, object uint) error {
	t := tableFor(kind)
	res := tx.Where("user_id = ? AND "+t.objectColumn+" = ?", subject, object).Delete(t.model())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return t.missing
	}
	return nil
}

// objectsOf returns which of objects the subject is related to.
func (relationRegistry) objectsOf(tx *gorm.DB, kind RelationKind, subject uint, objects []uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if subject == 0 || len(objects) == 0 {
		return set, nil
	}
	t := tableFor(kind)
	var ids []uint
	err := tx.Model(t.model()).
		Where("user_id = ? AND "+t.objectColumn+" IN ?", subject, objects).
		Pluck(t.objectColumn, &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
