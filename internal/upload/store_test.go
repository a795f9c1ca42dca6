package upload

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/employee-directory/internal/config"
)

const mib = 1024 * 1024

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(config.UploadConfig{Dir: t.TempDir(), MaxBytes: config.DefaultUploadMaxBytes})
	require.NoError(t, err)
	return store
}

func header(filename, contentType string, size int64) *multipart.FileHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Type", contentType)
	return &multipart.FileHeader{Filename: filename, Header: h, Size: size}
}

// formFile builds a real multipart upload so the header can be opened.
func formFile(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="profile_picture"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["profile_picture"][0]
}

func TestValidateFileType(t *testing.T) {
	store := newTestStore(t)

	assert.ErrorIs(t, store.Validate(header("payload.exe", "application/octet-stream", 10)), ErrInvalidFileType)
	assert.ErrorIs(t, store.Validate(header("payload.exe", "image/jpeg", 10)), ErrInvalidFileType)
	assert.ErrorIs(t, store.Validate(header("photo.png", "text/html", 10)), ErrInvalidFileType)
	assert.ErrorIs(t, store.Validate(header("photo.png", "", 10)), ErrInvalidFileType)

	assert.NoError(t, store.Validate(header("photo.JPG", "image/jpeg", 10)))
	assert.NoError(t, store.Validate(header("anim.gif", "IMAGE/GIF", 10)))
	assert.NoError(t, store.Validate(header("shot.png", "image/png; charset=binary", 10)))
}

func TestValidateSize(t *testing.T) {
	store := newTestStore(t)

	assert.ErrorIs(t, store.Validate(header("big.png", "image/png", 6*mib)), ErrFileTooLarge)
	assert.NoError(t, store.Validate(header("ok.png", "image/png", 4*mib)))
	assert.NoError(t, store.Validate(header("edge.png", "image/png", 5*mib)))
}

func TestSaveStoresUnderGeneratedName(t *testing.T) {
	store := newTestStore(t)
	store.now = func() time.Time { return time.UnixMilli(1735689600000) }
	store.newID = func() string { return "abc" }

	content := bytes.Repeat([]byte{0xFF}, 4*mib)
	name, err := store.Save(context.Background(), formFile(t, "photo.JPG", "image/jpeg", content))
	require.NoError(t, err)
	assert.Equal(t, "1735689600000-abc.JPG", name)

	stored, err := os.ReadFile(filepath.Join(store.Dir(), name))
	require.NoError(t, err)
	assert.Len(t, stored, 4*mib)
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	store := newTestStore(t)

	content := bytes.Repeat([]byte{0x01}, 6*mib)
	_, err := store.Save(context.Background(), formFile(t, "big.png", "image/png", content))
	require.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveNamesAreUnique(t *testing.T) {
	store := newTestStore(t)
	file := formFile(t, "a.png", "image/png", []byte("png"))

	first, err := store.Save(context.Background(), file)
	require.NoError(t, err)
	second, err := store.Save(context.Background(), file)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasSuffix(first, ".png"))
}

func TestSaveWithoutFile(t *testing.T) {
	store := newTestStore(t)
	name, err := store.Save(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)
	name, err := store.Save(context.Background(), formFile(t, "a.gif", "image/gif", []byte("gif")))
	require.NoError(t, err)

	require.NoError(t, store.Remove(name))
	_, err = os.Stat(filepath.Join(store.Dir(), name))
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.NoError(t, store.Remove(name))
	assert.NoError(t, store.Remove(""))
	assert.ErrorIs(t, store.Remove("../etc/passwd"), ErrInvalidName)
}
