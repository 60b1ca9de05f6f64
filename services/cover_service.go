package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"

	"github.com/aaandrangom/biblioteca-api/models"
)

// CoverService resolves, stores and decorates book covers
type CoverService struct {
	repo   CoverRepository
	cache  *CoverCache
	finder CoverFinder
	images ImageService
}

// NewCoverService wires the cover lookup chain
func NewCoverService(repo CoverRepository, cache *CoverCache, finder CoverFinder, images ImageService) *CoverService {
	return &CoverService{repo: repo, cache: cache, finder: finder, images: images}
}

// Lookup resolves a cover for title from the cache, then the repository, then Open Library
func (s *CoverService) Lookup(ctx context.Context, title string) (*models.Cover, error) {
	key := models.NormalizeTitle(title)
	if key == "" {
		return nil, validationError("TITLE_REQUIRED", "title is required")
	}

	if cover, ok := s.cache.Get(key); ok {
		return s.decorate(ctx, cover), nil
	}

	cover, err := s.repo.FindByTitleKey(ctx, key)
	if err != nil && !errors.Is(err, ErrCoverNotFound) {
		return nil, err
	}
	if cover == nil {
		if cover, err = s.finder.FindCover(ctx, title); err != nil {
			return nil, err
		}
	}

	s.cache.Set(key, cover)
	return s.decorate(ctx, cover), nil
}

// Save resolves the cover for title and stores it
func (s *CoverService) Save(ctx context.Context, title string) (*models.Cover, error) {
	key := models.NormalizeTitle(title)
	if key == "" {
		return nil, validationError("TITLE_REQUIRED", "title is required")
	}

	found, err := s.finder.FindCover(ctx, title)
	if err != nil {
		return nil, err
	}
	found.TitleKey = key

	saved, err := s.repo.Upsert(ctx, found)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, saved)
	return s.decorate(ctx, saved), nil
}

// List returns stored covers whose title contains title
func (s *CoverService) List(ctx context.Context, title string) ([]models.Cover, error) {
	covers, err := s.repo.Search(ctx, title)
	if err != nil {
		return nil, err
	}
	for i := range covers {
		covers[i] = *s.decorate(ctx, &covers[i])
	}
	return covers, nil
}

// Get returns a stored cover by id
func (s *CoverService) Get(ctx context.Context, id string) (*models.Cover, error) {
	cover, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, cover), nil
}

// UploadImage stores a custom image for the cover, replacing any previous one
func (s *CoverService) UploadImage(ctx context.Context, id string, fileHeader *multipart.FileHeader) (*models.Cover, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	imageKey, err := s.images.UploadImage(ctx, fileHeader)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.SetImageKey(ctx, id, imageKey)
	if err != nil {
		if delErr := s.images.DeleteImage(ctx, imageKey); delErr != nil {
			log.Printf("Failed to remove orphaned image %s: %v", imageKey, delErr)
		}
		return nil, fmt.Errorf("failed to attach image: %w", err)
	}

	if current.ImageKey != nil && *current.ImageKey != imageKey {
		if err := s.images.DeleteImage(ctx, *current.ImageKey); err != nil {
			log.Printf("Failed to remove previous image %s: %v", *current.ImageKey, err)
		}
	}

	s.cache.Delete(updated.TitleKey)
	return s.decorate(ctx, updated), nil
}

// decorate returns a copy of cover with the uploaded image URL filled in
func (s *CoverService) decorate(ctx context.Context, cover *models.Cover) *models.Cover {
	out := *cover
	out.ImageURL = nil
	if out.ImageKey == nil || *out.ImageKey == "" {
		return &out
	}

	url, err := s.images.GetImageURL(ctx, *out.ImageKey)
	if err != nil {
		log.Printf("Failed to resolve image URL for cover %s: %v", out.ID.Hex(), err)
		return &out
	}
	out.ImageURL = &url
	return &out
}
