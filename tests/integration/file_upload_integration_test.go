package integration

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aaandrangom/biblioteca-api/models"
	"github.com/aaandrangom/biblioteca-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadImage(t *testing.T, router http.Handler, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCoverImageUpload_LocalStorage(t *testing.T) {
	uploadDir := t.TempDir()
	s := newStack(t, stackOptions{uploadDir: uploadDir})
	router := s.routerAs(librarianID, models.RoleLibrarian)

	w := doJSON(router, http.MethodPost, "/api/v1/covers", "", map[string]string{"title": "Cien Años de Soledad"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cover models.Cover
	decode(t, w, &cover)
	assert.Equal(t, "OL7353617M", cover.EditionID)
	assert.Nil(t, cover.ImageURL)

	imagePath := "/api/v1/covers/" + cover.ID.Hex() + "/image"
	first := []byte("\x89PNG first cover")
	w = uploadImage(t, router, imagePath, "portada.png", first)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &cover)
	require.NotNil(t, cover.ImageKey)
	require.NotNil(t, cover.ImageURL)
	assert.True(t, strings.HasPrefix(*cover.ImageURL, utils.UploadsRoute))
	assert.Equal(t, ".png", filepath.Ext(*cover.ImageKey))
	firstKey := *cover.ImageKey

	w = doJSON(router, http.MethodGet, *cover.ImageURL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, first, w.Body.Bytes())

	t.Run("replacing the image removes the previous file", func(t *testing.T) {
		second := []byte("jpeg second cover")
		w := uploadImage(t, router, imagePath, "portada.jpg", second)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var replaced models.Cover
		decode(t, w, &replaced)
		require.NotNil(t, replaced.ImageKey)
		assert.NotEqual(t, firstKey, *replaced.ImageKey)

		_, err := os.Stat(filepath.Join(uploadDir, firstKey))
		assert.True(t, os.IsNotExist(err))

		stored, err := os.ReadFile(filepath.Join(uploadDir, *replaced.ImageKey))
		require.NoError(t, err)
		assert.Equal(t, second, stored)

		w = doJSON(router, http.MethodGet, utils.UploadsRoute+firstKey, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("rejected format leaves nothing on disk", func(t *testing.T) {
		before, err := os.ReadDir(uploadDir)
		require.NoError(t, err)

		w := uploadImage(t, router, imagePath, "portada.gif", []byte("GIF89a"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_FILE_FORMAT", decode(t, w, nil).Error.Code)

		after, err := os.ReadDir(uploadDir)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("readers cannot upload", func(t *testing.T) {
		reader := s.routerAs(readerID, models.RoleClient)
		w := uploadImage(t, reader, imagePath, "portada.png", first)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
