package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"sync"

	"github.com/aaandrangom/biblioteca-api/utils"
)

// MockImageService stores cover images in memory under predictable keys
type MockImageService struct {
	mu     sync.RWMutex
	images map[string][]byte
	// Deleted lists every key passed to DeleteImage
	Deleted []string
}

func NewMockImageService() *MockImageService {
	return &MockImageService{images: make(map[string][]byte)}
}

// UploadImage keys the image as covers/mock_<filename>
func (m *MockImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}
	body, err := readUpload(fileHeader)
	if err != nil {
		return "", err
	}

	key := "covers/mock_" + fileHeader.Filename
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[key] = body
	return key, nil
}

func (m *MockImageService) GetImageURL(ctx context.Context, imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.images[imageKey]; !ok {
		return "", fmt.Errorf("unknown image %q", imageKey)
	}
	return "https://images.example.com/" + imageKey + "?mock=true", nil
}

func (m *MockImageService) DeleteImage(ctx context.Context, imageKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.images, imageKey)
	m.Deleted = append(m.Deleted, imageKey)
	return nil
}

// GetUploadedImages returns the stored images by key
func (m *MockImageService) GetUploadedImages() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]byte, len(m.images))
	for key, body := range m.images {
		out[key] = body
	}
	return out
}
