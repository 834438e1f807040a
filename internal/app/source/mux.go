package source

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Mux dispatches references to stores by scheme.
// Put always goes to the upload store.
type Mux struct {
	upload Store
	stores map[string]Store
}

// NewMux creates a mux that writes uploads to upload and can read from every given store.
func NewMux(upload Store, others ...Store) *Mux {
	m := &Mux{upload: upload, stores: make(map[string]Store)}
	m.stores[upload.Scheme()] = upload
	for _, s := range others {
		m.stores[s.Scheme()] = s
	}
	return m
}

func (m *Mux) Scheme() string {
	return m.upload.Scheme()
}

func (m *Mux) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	ref, err := m.upload.Put(ctx, name, contentType, data)
	if err != nil {
		return "", errors.Wrapf(err, "failed to store %s", name)
	}
	zlog.Debug().Msgf("source: stored: name=%s ref=%s size=%d", name, ref, len(data))
	return ref, nil
}

func (m *Mux) Open(ctx context.Context, ref string) (*Object, error) {
	s, err := m.storeFor(ref)
	if err != nil {
		return nil, err
	}
	return s.Open(ctx, ref)
}

func (m *Mux) Release(ctx context.Context, ref string) error {
	s, err := m.storeFor(ref)
	if err != nil {
		return err
	}
	if err := s.Release(ctx, ref); err != nil {
		return err
	}
	zlog.Debug().Msgf("source: released: ref=%s", ref)
	return nil
}

func (m *Mux) storeFor(ref string) (Store, error) {
	scheme, _ := Split(ref)
	s, ok := m.stores[scheme]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownScheme, "ref=%s", ref)
	}
	return s, nil
}
