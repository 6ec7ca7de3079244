package controllers

import (
	"errors"

	"github.com/ostendo-io/wawagardenbar-app-sub002/models"
)

func isEntityNotFound(err error) bool {
	return errors.Is(err, models.ErrEntityNotFound)
}
