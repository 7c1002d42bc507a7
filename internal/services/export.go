package services

import (
	"context"

	"gorm.io/gorm"
)

// ExportRow is one line of a downloadable shopping list.
type ExportRow struct {
	Name            string `json:"name"`
	Amount          int    `json:"amount"`
	MeasurementUnit string `json:"measurement_unit"`
}

// Export lists the user's shopping list by ingredient name, then unit. An
// empty cart gives an empty, non-nil slice.
func (s *ShoppingListService) Export(ctx context.Context, userID uint) ([]ExportRow, error) {
	rows := make([]ExportRow, 0)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		return tx.Table("shopping_list_items AS sli").
			Select("i.name AS name, sli.amount AS amount, i.measurement_unit AS measurement_unit").
			Joins("JOIN ingredients AS i ON i.id = sli.ingredient_id").
			Where("sli.user_id = ?", userID).
			Order("i.name ASC, i.measurement_unit ASC, i.id ASC").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []ExportRow{}
	}
	return rows, nil
}
