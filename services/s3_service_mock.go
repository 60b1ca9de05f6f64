package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sync"
)

// storedObject is one object held by MockS3Service
type storedObject struct {
	body        []byte
	contentType string
}

// MockS3Service keeps bucket objects in memory
type MockS3Service struct {
	mu      sync.RWMutex
	objects map[string]storedObject
	// PutErr, when set, fails every upload
	PutErr error
}

func NewMockS3Service() *MockS3Service {
	return &MockS3Service{objects: make(map[string]storedObject)}
}

func (m *MockS3Service) UploadFile(ctx context.Context, fileHeader *multipart.FileHeader, key, contentType string) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	body, err := readUpload(fileHeader)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = storedObject{body: body, contentType: contentType}
	return nil
}

func (m *MockS3Service) GetPresignedURL(ctx context.Context, s3Key string) (string, error) {
	if s3Key == "" {
		return "", nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[s3Key]; !ok {
		return "", fmt.Errorf("no object %q in bucket", s3Key)
	}
	return "https://biblioteca-covers.s3.amazonaws.com/" + s3Key + "?X-Amz-Expires=3600", nil
}

func (m *MockS3Service) DeleteFile(ctx context.Context, s3Key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, s3Key)
	return nil
}

// GetUploadedFiles returns the body of every stored object by key
func (m *MockS3Service) GetUploadedFiles() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make(map[string][]byte, len(m.objects))
	for key, obj := range m.objects {
		files[key] = obj.body
	}
	return files
}

// ContentTypeOf returns the content type an object was stored with
func (m *MockS3Service) ContentTypeOf(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[key].contentType
}

// readUpload loads a multipart file into memory
func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return body, nil
}
