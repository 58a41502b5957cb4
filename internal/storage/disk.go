package storage

import (
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Disk keeps uploaded files under the root of Fs. Paths handed out are
// relative and slash separated, e.g. "images/2b1f....png".
type Disk struct {
	Fs afero.Fs
}

func NewDisk(dir string) *Disk {
	return &Disk{Fs: afero.NewBasePathFs(afero.NewOsFs(), dir)}
}

func (d *Disk) Put(dir, filename string, body io.Reader) (string, error) {
	if err := d.Fs.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "mkdir")
	}
	name := path.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
	f, err := d.Fs.Create(name)
	if err != nil {
		return "", errors.Wrap(err, "create file")
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = d.Fs.Remove(name)
		return "", errors.Wrap(err, "write file")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "close file")
	}
	return name, nil
}

func (d *Disk) Remove(p string) error {
	err := d.Fs.Remove(p)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove file")
	}
	return nil
}

func (d *Disk) Handler() http.Handler {
	return http.FileServer(afero.NewHttpFs(d.Fs))
}
