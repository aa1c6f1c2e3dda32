package logstore

import (
	"context"
	"errors"
)

// MultiStore fans every record out to several stores. All stores are
// attempted; errors are joined so the mirror failing does not hide a local
// write failure or vice versa.
type MultiStore struct {
	stores []Store
}

// NewMultiStore constructs a MultiStore.
func NewMultiStore(stores ...Store) *MultiStore {
	return &MultiStore{stores: stores}
}

// Append implements Store.
func (m *MultiStore) Append(ctx context.Context, entry Record) error {
	if m == nil || len(m.stores) == 0 {
		return errors.New("multi store: no stores configured")
	}
	var errs []error
	for _, store := range m.stores {
		if store == nil {
			continue
		}
		if err := store.Append(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
