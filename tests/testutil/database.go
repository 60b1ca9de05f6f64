package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/aaandrangom/biblioteca-api/config"
	"github.com/aaandrangom/biblioteca-api/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with every table migrated.
// A single connection serializes transactions the way row locks would on Postgres.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db), "failed to migrate test database")

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// TestConfig returns a configuration suitable for tests that never reaches external services
func TestConfig() *config.Config {
	return &config.Config{
		DatabaseDriver:     "sqlite",
		DatabaseURL:        "file::memory:",
		Port:               "0",
		GoEnv:              "test",
		JWTSecret:          "test-secret-for-biblioteca",
		JWTIssuer:          "biblioteca-api",
		JWTAudience:        "biblioteca-client",
		MongoDatabase:      "biblioteca_test",
		RabbitMQQueue:      "order_events",
		UploadDir:          "./uploads",
		OpenLibraryURL:     "https://openlibrary.org",
		CoversBaseURL:      "https://covers.openlibrary.org",
		CORSAllowedOrigins: []string{"*"},
	}
}

// CreateBook inserts an enabled book with the given stock and that many available copies
func CreateBook(t *testing.T, db *gorm.DB, title string, stock int) (models.Book, []models.InventoryCopy) {
	t.Helper()

	book := models.Book{
		Title:           title,
		Author:          "Autor de Prueba",
		PublicationYear: "1999",
		Stock:           stock,
		Status:          models.BookStatusEnabled,
	}
	require.NoError(t, db.Create(&book).Error)

	copies := make([]models.InventoryCopy, 0, stock)
	for i := 0; i < stock; i++ {
		c := models.InventoryCopy{BookID: book.ID, Status: models.CopyStatusAvailable}
		require.NoError(t, db.Create(&c).Error)
		copies = append(copies, c)
	}

	return book, copies
}

// CreateUser inserts a verified, active user whose password is "secret123"
func CreateUser(t *testing.T, db *gorm.DB, cedula string, role models.Role) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Cedula:         cedula,
		FirstName:      "Ana",
		MiddleName:     "Lucia",
		LastName:       "Torres",
		SecondLastName: "Vera",
		Email:          cedula + "@example.com",
		PasswordHash:   string(hash),
		BirthDate:      time.Date(1995, 4, 12, 0, 0, 0, 0, time.UTC),
		Role:           role,
		Status:         models.UserStatusActive,
		Verified:       true,
	}
	user.ApplyDerivedFields()
	require.NoError(t, db.Create(&user).Error)

	return user
}
