package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/aaandrangom/biblioteca-api/models"
	"gorm.io/gorm"
)

// MaxCopiesPerRequest bounds how many copies one request may register
const MaxCopiesPerRequest = 100

// BookInput holds the fields of a new book
type BookInput struct {
	Title           string
	Author          string
	PublicationYear string
	Stock           int
}

// BookUpdate holds the fields a book update may change. Nil fields are left as they are.
type BookUpdate struct {
	Title           *string
	Author          *string
	PublicationYear *string
	Stock           *int
	Status          *models.BookStatus
}

// BookSearch holds catalog search criteria; at least one must be set
type BookSearch struct {
	Title  string
	Author string
	Year   string
}

// BookService manages the catalog and its inventory copies
type BookService struct {
	db *gorm.DB
}

// NewBookService creates the catalog service
func NewBookService(db *gorm.DB) *BookService {
	return &BookService{db: db}
}

// List returns every book ordered by title
func (s *BookService) List(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := s.db.WithContext(ctx).Order("li_titulo ASC").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// Get returns one book
func (s *BookService) Get(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, notFoundOr(err, ErrBookNotFound)
	}
	return &book, nil
}

// Create adds an enabled book to the catalog
func (s *BookService) Create(ctx context.Context, in BookInput) (*models.Book, error) {
	if in.Stock < 0 {
		return nil, validationError("INVALID_STOCK", "stock cannot be negative")
	}

	book := models.Book{
		Title:           strings.TrimSpace(in.Title),
		Author:          strings.TrimSpace(in.Author),
		PublicationYear: strings.TrimSpace(in.PublicationYear),
		Stock:           in.Stock,
		Status:          models.BookStatusEnabled,
	}
	if book.Title == "" || book.Author == "" {
		return nil, validationError("INVALID_BOOK", "title and author are required")
	}

	if err := s.db.WithContext(ctx).Create(&book).Error; err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	return &book, nil
}

// Update changes the supplied fields of a book
func (s *BookService) Update(ctx context.Context, id uint, in BookUpdate) (*models.Book, error) {
	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		book.Title = strings.TrimSpace(*in.Title)
	}
	if in.Author != nil {
		book.Author = strings.TrimSpace(*in.Author)
	}
	if in.PublicationYear != nil {
		book.PublicationYear = strings.TrimSpace(*in.PublicationYear)
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, validationError("INVALID_STOCK", "stock cannot be negative")
		}
		book.Stock = *in.Stock
	}
	if in.Status != nil {
		if !in.Status.IsValid() {
			return nil, validationError("INVALID_BOOK_STATUS", "status must be H or D")
		}
		book.Status = *in.Status
	}
	if book.Title == "" || book.Author == "" {
		return nil, validationError("INVALID_BOOK", "title and author are required")
	}

	if err := s.db.WithContext(ctx).Save(book).Error; err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	return book, nil
}

// Disable soft deletes a book
func (s *BookService) Disable(ctx context.Context, id uint) (*models.Book, error) {
	status := models.BookStatusDisabled
	return s.Update(ctx, id, BookUpdate{Status: &status})
}

// Search matches title and author by case-insensitive substring and year exactly
func (s *BookService) Search(ctx context.Context, criteria BookSearch) ([]models.Book, error) {
	title := strings.ToLower(strings.TrimSpace(criteria.Title))
	author := strings.ToLower(strings.TrimSpace(criteria.Author))
	year := strings.TrimSpace(criteria.Year)
	if title == "" && author == "" && year == "" {
		return nil, ErrNoSearchCriteria
	}

	query := s.db.WithContext(ctx).Model(&models.Book{})
	if title != "" {
		query = query.Where("LOWER(li_titulo) LIKE ?", "%"+title+"%")
	}
	if author != "" {
		query = query.Where("LOWER(li_autor) LIKE ?", "%"+author+"%")
	}
	if year != "" {
		query = query.Where("li_anio_publicacion = ?", year)
	}

	var books []models.Book
	if err := query.Order("li_titulo ASC").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	return books, nil
}

// ListCopies returns the inventory copies of a book
func (s *BookService) ListCopies(ctx context.Context, bookID uint) ([]models.InventoryCopy, error) {
	if _, err := s.Get(ctx, bookID); err != nil {
		return nil, err
	}

	var copies []models.InventoryCopy
	if err := s.db.WithContext(ctx).Where("invl_libro = ?", bookID).Order("invl_secuencial").Find(&copies).Error; err != nil {
		return nil, fmt.Errorf("failed to list copies: %w", err)
	}
	return copies, nil
}

// AddCopies registers count new copies of a book in the given status (available by default)
func (s *BookService) AddCopies(ctx context.Context, bookID uint, count int, status models.CopyStatus) ([]models.InventoryCopy, error) {
	if count < 1 || count > MaxCopiesPerRequest {
		return nil, validationError("INVALID_COUNT", fmt.Sprintf("count must be between 1 and %d", MaxCopiesPerRequest))
	}
	if status == "" {
		status = models.CopyStatusAvailable
	}
	if !status.IsValid() {
		return nil, validationError("INVALID_COPY_STATUS", "status must be DI, S, CP or PD")
	}
	if _, err := s.Get(ctx, bookID); err != nil {
		return nil, err
	}

	copies := make([]models.InventoryCopy, count)
	for i := range copies {
		copies[i] = models.InventoryCopy{BookID: bookID, Status: status}
	}
	if err := s.db.WithContext(ctx).Create(&copies).Error; err != nil {
		return nil, fmt.Errorf("failed to create copies: %w", err)
	}
	return copies, nil
}
