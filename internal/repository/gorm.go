package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// translate maps GORM errors onto the repository sentinels. The DB must be
// opened with TranslateError so that unique violations surface as
// gorm.ErrDuplicatedKey.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicateKey):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
