package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"         json:"id"`
	Title       string          `gorm:"not null"                     json:"title"`
	Description string          `gorm:"not null"                     json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"price"`
	Brand       string          `gorm:"index;not null"               json:"brand"`
	Category    string          `gorm:"index;not null"               json:"category"`
	Stock       int             `gorm:"not null;check:stock >= 0"    json:"stock"`
	CreatedAt   time.Time       `                                    json:"created_at"`
	UpdatedAt   time.Time       `                                    json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
