package models

import (
	"time"
)

// Order represents a loan request (pedido) made by a user
type Order struct {
	ID          uint        `gorm:"column:ped_secuencial;primaryKey" json:"id"`
	UserID      string      `gorm:"column:ped_usuario;size:13;not null;index" json:"user_id"` // cedula of the owner
	RequestDate time.Time   `gorm:"column:ped_fecha_solicitud;type:date;not null" json:"request_date"`
	ReturnDate  *time.Time  `gorm:"column:ped_fecha_devolucion;type:date" json:"return_date"` // nullable
	Status      OrderStatus `gorm:"column:ped_estado;size:2;not null;index" json:"status"`
	CreatedAt   time.Time   `gorm:"column:ped_fecha_bd" json:"created_at"`
	Lines       []OrderLine `gorm:"foreignKey:OrderID;references:ID" json:"lines,omitempty"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "pedido"
}

// OrderLine links an Order to the specific InventoryCopy fulfilling it (libro_pedido)
type OrderLine struct {
	ID           uint       `gorm:"column:lip_secuencial;primaryKey" json:"id"`
	OrderID      uint       `gorm:"column:lip_pedido;not null;index" json:"order_id"`
	BookID       uint       `gorm:"column:lip_libro;not null;index" json:"book_id"`
	CopyID       uint       `gorm:"column:lip_codigo_unico_libro;not null;index" json:"copy_id"`
	DeliveryDate *time.Time `gorm:"column:lip_fecha_entrega_cliente" json:"delivery_date"` // set when the order is accepted
	ReturnDate   *time.Time `gorm:"column:lip_fecha_devolucion" json:"return_date"`        // set when the copy comes back
	Status       LineStatus `gorm:"column:lip_estado;size:2;not null" json:"status"`
	CreatedAt    time.Time  `gorm:"column:lip_fecha_bd" json:"created_at"`
}

// TableName specifies the table name for the OrderLine model
func (OrderLine) TableName() string {
	return "libro_pedido"
}
