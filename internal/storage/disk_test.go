package storage

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndRemove(t *testing.T) {
	d := &Disk{Fs: afero.NewMemMapFs()}

	p, err := d.Put("images", "Roti.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, "images/"))
	assert.True(t, strings.HasSuffix(p, ".png"))

	b, err := afero.ReadFile(d.Fs, p)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))

	require.NoError(t, d.Remove(p))
	ok, _ := afero.Exists(d.Fs, p)
	assert.False(t, ok)

	assert.NoError(t, d.Remove(p), "removing a missing file is not an error")
}

func TestHandlerServesFiles(t *testing.T) {
	d := &Disk{Fs: afero.NewMemMapFs()}
	p, err := d.Put("images", "a.jpg", strings.NewReader("jpeg"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.StripPrefix("/storage", d.Handler()))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/storage/" + p)
	require.NoError(t, err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "jpeg", string(body))
}
