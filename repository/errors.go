package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrDuplicate is returned when a write violates a unique index
// (user email, favorite pair).
var ErrDuplicate = errors.New("duplicate record")

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
