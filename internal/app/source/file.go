package source

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/gabriel-vasile/mimetype"
)

// FileStore opens sources from the filesystem. It never writes or deletes.
type FileStore struct{}

func (FileStore) Scheme() string {
	return ""
}

func (FileStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	return "", ErrReadOnly
}

func (FileStore) Open(ctx context.Context, ref string) (*Object, error) {
	mtype, err := mimetype.DetectFile(ref)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(ErrNotFound, "path=%s", ref)
		}
		return nil, errors.Wrapf(err, "failed to detect type: path=%s", ref)
	}

	f, err := os.Open(ref)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open: path=%s", ref)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "failed to stat: path=%s", ref)
	}

	return &Object{ReadSeekCloser: f, ContentType: mtype.String(), Size: info.Size()}, nil
}

// Release is a no-op: configured files are not owned by the session.
func (FileStore) Release(ctx context.Context, ref string) error {
	return nil
}
