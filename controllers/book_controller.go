package controllers

import (
	"net/http"

	"github.com/aaandrangom/biblioteca-api/models"
	"github.com/aaandrangom/biblioteca-api/services"
	"github.com/gin-gonic/gin"
)

// CreateBookRequest represents the request body for creating a book
type CreateBookRequest struct {
	Title           string `json:"title" binding:"required"`
	Author          string `json:"author" binding:"required"`
	PublicationYear string `json:"publication_year" binding:"required,max=10"`
	Stock           int    `json:"stock" binding:"gte=0"`
}

// UpdateBookRequest represents the request body for updating a book
type UpdateBookRequest struct {
	Title           *string            `json:"title"`
	Author          *string            `json:"author"`
	PublicationYear *string            `json:"publication_year" binding:"omitempty,max=10"`
	Stock           *int               `json:"stock" binding:"omitempty,gte=0"`
	Status          *models.BookStatus `json:"status"`
}

// CreateCopiesRequest represents the request body for registering inventory copies
type CreateCopiesRequest struct {
	Count  int               `json:"count" binding:"required,gt=0"`
	Status models.CopyStatus `json:"status"`
}

// BookController handles the catalog routes
type BookController struct {
	books *services.BookService
}

// NewBookController creates a book controller
func NewBookController(books *services.BookService) *BookController {
	return &BookController{books: books}
}

// ListBooks handles GET /api/v1/books
func (bc *BookController) ListBooks(c *gin.Context) {
	books, err := bc.books.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, books)
}

// SearchBooks handles GET /api/v1/books/search?title=&author=&year=
func (bc *BookController) SearchBooks(c *gin.Context) {
	books, err := bc.books.Search(c.Request.Context(), services.BookSearch{
		Title:  c.Query("title"),
		Author: c.Query("author"),
		Year:   c.Query("year"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, books)
}

// GetBook handles GET /api/v1/books/:id
func (bc *BookController) GetBook(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, book)
}

// CreateBook handles POST /api/v1/books (staff only)
func (bc *BookController) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	book, err := bc.books.Create(c.Request.Context(), services.BookInput{
		Title:           req.Title,
		Author:          req.Author,
		PublicationYear: req.PublicationYear,
		Stock:           req.Stock,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, book)
}

// UpdateBook handles PUT /api/v1/books/:id (staff only)
func (bc *BookController) UpdateBook(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	book, err := bc.books.Update(c.Request.Context(), id, services.BookUpdate{
		Title:           req.Title,
		Author:          req.Author,
		PublicationYear: req.PublicationYear,
		Stock:           req.Stock,
		Status:          req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, book)
}

// DeleteBook handles DELETE /api/v1/books/:id (staff only). The book is disabled, not removed.
func (bc *BookController) DeleteBook(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.Disable(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, book)
}

// ListCopies handles GET /api/v1/books/:id/copies
func (bc *BookController) ListCopies(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	copies, err := bc.books.ListCopies(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, copies)
}

// CreateCopies handles POST /api/v1/books/:id/copies (staff only)
func (bc *BookController) CreateCopies(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateCopiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	copies, err := bc.books.AddCopies(c.Request.Context(), id, req.Count, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, copies)
}
