package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is the common core embedded by gorm-backed stores such as the
// dataset manifest.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx so query cancellation follows the
// request. A nil ctx yields the raw connection.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
