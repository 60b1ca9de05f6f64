package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aaandrangom/biblioteca-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFileHeader builds a multipart file header holding content
func newFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	require.Len(t, form.File["image"], 1)
	return form.File["image"][0]
}

func TestS3ImageService(t *testing.T) {
	ctx := context.Background()
	s3Mock := NewMockS3Service()
	images := NewS3ImageService(s3Mock)

	key, err := images.UploadImage(ctx, newFileHeader(t, "portada.jpg", []byte("jpeg")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "covers/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.Equal(t, []byte("jpeg"), s3Mock.GetUploadedFiles()[key])
	assert.Equal(t, "image/jpeg", s3Mock.ContentTypeOf(key))

	url, err := images.GetImageURL(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, url, key)

	empty, err := images.GetImageURL(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, images.DeleteImage(ctx, key))
	assert.Empty(t, s3Mock.GetUploadedFiles())

	_, err = images.UploadImage(ctx, newFileHeader(t, "portada.gif", []byte("gif")))
	var uploadErr *utils.FileUploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "INVALID_FILE_FORMAT", uploadErr.Code)

	s3Mock.PutErr = errors.New("bucket unavailable")
	_, err = images.UploadImage(ctx, newFileHeader(t, "portada.png", []byte("png")))
	assert.ErrorIs(t, err, s3Mock.PutErr)
}

func TestLocalImageService(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	images := NewLocalImageService(dir)
	assert.Equal(t, dir, images.Dir())

	key, err := images.UploadImage(ctx, newFileHeader(t, "portada.png", []byte("png")))
	require.NoError(t, err)

	stored, err := os.ReadFile(filepath.Join(dir, key))
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), stored)

	url, err := images.GetImageURL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/uploads/"+key, url)

	require.NoError(t, images.DeleteImage(ctx, key))
	_, err = os.Stat(filepath.Join(dir, key))
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, images.DeleteImage(ctx, "../etc/passwd.png"))
}
