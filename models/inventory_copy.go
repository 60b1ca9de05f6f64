package models

import (
	"time"
)

// InventoryCopy is one physical, individually tracked unit of a Book
type InventoryCopy struct {
	ID        uint       `gorm:"column:invl_secuencial;primaryKey" json:"id"`
	BookID    uint       `gorm:"column:invl_libro;not null;index" json:"book_id"`
	Status    CopyStatus `gorm:"column:invl_estado;size:2;not null;index" json:"status"`
	CreatedAt time.Time  `gorm:"column:invl_fecha_bd" json:"created_at"`
}

// TableName specifies the table name for the InventoryCopy model
func (InventoryCopy) TableName() string {
	return "inventario_libro"
}
