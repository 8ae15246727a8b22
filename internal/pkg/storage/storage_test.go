package storage

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	appcfg "github.com/mapa-cultural/core/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "foto-do-artista.png", SanitizeName("Foto do Artista.PNG"))
	assert.Equal(t, "passwd", SanitizeName("../../etc/passwd"))
	assert.Equal(t, "file", SanitizeName("   "))
}

func TestObjectKey(t *testing.T) {
	now := time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)
	key := ObjectKey("Respostas/Imagens", "Minha Obra.jpg", now)
	assert.Regexp(t, regexp.MustCompile(`^respostas/imagens/2025/03/[0-9a-f]{16}-minha-obra\.jpg$`), key)

	a := ObjectKey("", "x.png", now)
	b := ObjectKey("", "x.png", now)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^uploads/`, a)
}

func TestLocalPutAndDelete(t *testing.T) {
	root := t.TempDir()
	st, err := NewLocal(root, "http://localhost:3000/static/")
	require.NoError(t, err)

	url, err := st.Put(context.Background(), "posts/a.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/static/posts/a.png", url)

	data, err := os.ReadFile(filepath.Join(root, "posts", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, st.Delete(context.Background(), "posts/a.png"))
	require.NoError(t, st.Delete(context.Background(), "posts/a.png"))
}

func TestLocalRejectsTraversal(t *testing.T) {
	st, err := NewLocal(t.TempDir(), "")
	require.NoError(t, err)
	_, err = st.Put(context.Background(), "../escape.png", []byte("x"), "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestNewS3RequiresCredentials(t *testing.T) {
	_, err := New(appcfg.StorageConfig{Driver: appcfg.StorageS3, S3: appcfg.S3Options{Bucket: "b"}}, "", "")
	assert.Error(t, err)
}

func TestS3PublicURL(t *testing.T) {
	st, err := NewS3(appcfg.S3Options{
		Endpoint:        "minio.local:9000",
		Bucket:          "mapa",
		Region:          "us-east-1",
		AccessKeyID:     "ak",
		SecretAccessKey: "sk",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local:9000/mapa/posts/a%20b.png", st.PublicURL("posts/a b.png"))

	st, err = NewS3(appcfg.S3Options{
		Bucket:          "mapa",
		Region:          "sa-east-1",
		AccessKeyID:     "ak",
		SecretAccessKey: "sk",
		PublicURL:       "https://cdn.example.org/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.org/x.png", st.PublicURL("x.png"))
}
