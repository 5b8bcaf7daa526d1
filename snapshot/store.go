package snapshot

import (
	"bytes"
	"context"

	"github.com/hupe1980/micego/blobstore"
	"github.com/hupe1980/micego/chain"
)

// SaveToStore writes a snapshot of the state to a blob store under name.
func SaveToStore(ctx context.Context, store blobstore.Store, name string, m *chain.Mids, optFns ...func(o *Options)) error {
	var buf bytes.Buffer
	if err := Save(&buf, m, optFns...); err != nil {
		return err
	}
	return store.Put(ctx, name, &buf)
}

// LoadFromStore reads the named snapshot from a blob store.
func LoadFromStore(ctx context.Context, store blobstore.Store, name string) (*chain.Mids, error) {
	rc, err := store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return Load(rc)
}
