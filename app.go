package main

import (
	"context"
	"fmt"
	"log"

	"github.com/aaandrangom/biblioteca-api/config"
	"github.com/aaandrangom/biblioteca-api/controllers"
	"github.com/aaandrangom/biblioteca-api/services"
	"gorm.io/gorm"
)

// Rate limit applied to signup, verification and login
const (
	authRequestsPerSecond = 2
	authBurst             = 4
)

// application owns the services built from configuration and releases their connections
type application struct {
	handlers *controllers.Handlers
	closers  []func()
}

// newApplication builds every service, choosing the external backends that are configured and
// in-process fallbacks for the rest
func newApplication(ctx context.Context, cfg *config.Config, db *gorm.DB) (*application, error) {
	app := &application{}

	notifier, err := services.NewNotifier(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	var events services.EventPublisher = services.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		publisher, err := services.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		events = publisher
		app.onClose(func() {
			if err := publisher.Close(); err != nil {
				log.Printf("Failed to close RabbitMQ publisher: %v", err)
			}
		})
		log.Printf("Publishing order events to queue %s", cfg.RabbitMQQueue)
	}

	var covers services.CoverRepository
	if cfg.MongoURI != "" {
		repo, err := services.NewMongoCoverRepository(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		covers = repo
		app.onClose(func() {
			if err := repo.Close(context.Background()); err != nil {
				log.Printf("Failed to disconnect from MongoDB: %v", err)
			}
		})
	} else {
		log.Println("MONGO_URI not set, keeping covers in memory")
		covers = services.NewMemoryCoverRepository()
	}

	var images services.ImageService
	if cfg.S3Enabled() {
		s3Service, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		images = services.NewS3ImageService(s3Service)
		log.Printf("Storing cover images in bucket %s", cfg.AWSS3Bucket)
	} else {
		images = services.NewLocalImageService(cfg.UploadDir)
		log.Printf("Storing cover images under %s", cfg.UploadDir)
	}

	cache := services.NewCoverCache(cfg.MemcachedHost)
	app.onClose(cache.Stop)

	tokens := services.NewTokenService(cfg)
	users := services.NewUserService(db, notifier, tokens)
	orders := services.NewOrderService(db, notifier, events, cfg.StrictOrderTransitions)
	coverService := services.NewCoverService(covers, cache, services.NewOpenLibraryService(cfg.OpenLibraryURL, cfg.CoversBaseURL), images)

	app.handlers = &controllers.Handlers{
		Books:     controllers.NewBookController(services.NewBookService(db)),
		Users:     controllers.NewUserController(users),
		Auth:      controllers.NewAuthController(users),
		Orders:    controllers.NewOrderController(orders),
		Covers:    controllers.NewCoverController(coverService),
		Uploads:   controllers.NewUploadController(cfg.UploadDir),
		Dashboard: controllers.NewDashboardController(services.NewDashboardService(db)),
	}

	return app, nil
}

func (a *application) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of creation
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
