package models

import (
	"time"
)

// Book represents a catalog title. Stock counts copies on the shelf.
type Book struct {
	ID              uint       `gorm:"column:li_secuencial;primaryKey" json:"id"`
	Title           string     `gorm:"column:li_titulo;size:500;not null" json:"title"`
	Author          string     `gorm:"column:li_autor;size:250;not null" json:"author"`
	PublicationYear string     `gorm:"column:li_anio_publicacion;size:10;not null" json:"publication_year"`
	Stock           int        `gorm:"column:li_stock;not null;default:0;check:li_stock >= 0" json:"stock"`
	Status          BookStatus `gorm:"column:li_estado;size:2;not null;default:'H'" json:"status"`
	CreatedAt       time.Time  `gorm:"column:li_fecha_bd" json:"created_at"`
}

// TableName specifies the table name for the Book model
func (Book) TableName() string {
	return "libro"
}
