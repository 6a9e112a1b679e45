package mysql

import (
	"errors"

	"gorm.io/gorm"

	"tradecore/internal/domain/apperr"
)

// lookup maps gorm's missing-row error onto the domain's not-found error.
func lookup(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	return err
}
