package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procuregate/gateway/internal/domain/document"
)

func noopSend(ctx context.Context, doc *document.CanonicalDocument) (*document.SendResult, error) {
	return &document.SendResult{Processed: true}, nil
}

func noopFetch(ctx context.Context, id string, dt document.DocumentType) (*document.FetchResult, error) {
	return &document.FetchResult{CrossSystemID: id, Type: dt}, nil
}

func TestRegistry_Register(t *testing.T) {
	t.Run("requires generic send", func(t *testing.T) {
		r := NewRegistry()
		err := r.Register("collmex", document.Capabilities{})
		assert.ErrorIs(t, err, ErrInvalidCapabilities)
	})

	t.Run("requires a name", func(t *testing.T) {
		r := NewRegistry()
		err := r.Register("", document.Capabilities{Send: noopSend})
		assert.ErrorIs(t, err, ErrInvalidCapabilities)
	})

	t.Run("rejects invalid typed entries", func(t *testing.T) {
		r := NewRegistry()
		err := r.Register("collmex", document.Capabilities{
			Send: noopSend,
			SendByType: map[document.DocumentType]document.SendFunc{
				"Invoice": noopSend,
			},
		})
		assert.ErrorIs(t, err, ErrInvalidCapabilities)

		err = r.Register("collmex", document.Capabilities{
			Send: noopSend,
			FetchByType: map[document.DocumentType]document.FetchFunc{
				document.TypeQuote: nil,
			},
		})
		assert.ErrorIs(t, err, ErrInvalidCapabilities)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("collmex", document.Capabilities{Send: noopSend}))
		err := r.Register("collmex", document.Capabilities{Send: noopSend})
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
	})
}

func TestRegistry_ResolveSend(t *testing.T) {
	typedCalled := false
	typed := func(ctx context.Context, doc *document.CanonicalDocument) (*document.SendResult, error) {
		typedCalled = true
		return &document.SendResult{}, nil
	}

	r := NewRegistry()
	require.NoError(t, r.Register("collmex", document.Capabilities{
		Send: noopSend,
		SendByType: map[document.DocumentType]document.SendFunc{
			document.TypePurchaseOrder: typed,
		},
	}))

	t.Run("typed override wins", func(t *testing.T) {
		fn, err := r.ResolveSend("collmex", document.TypePurchaseOrder)
		require.NoError(t, err)
		_, _ = fn(context.Background(), &document.CanonicalDocument{})
		assert.True(t, typedCalled)
	})

	t.Run("falls back to generic send", func(t *testing.T) {
		fn, err := r.ResolveSend("collmex", document.TypeQuote)
		require.NoError(t, err)
		assert.NotNil(t, fn)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := r.ResolveSend("sage", document.TypeQuote)
		assert.ErrorIs(t, err, document.ErrBackendNotFound)
	})
}

func TestRegistry_ResolveFetch(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("odoo", document.Capabilities{
		Send: noopSend,
		FetchByType: map[document.DocumentType]document.FetchFunc{
			document.TypeQuote: noopFetch,
		},
	}))

	t.Run("typed fetch resolves", func(t *testing.T) {
		fn, err := r.ResolveFetch("odoo", document.TypeQuote)
		require.NoError(t, err)
		assert.NotNil(t, fn)
	})

	t.Run("missing capability", func(t *testing.T) {
		_, err := r.ResolveFetch("odoo", document.TypePurchaseOrder)
		assert.ErrorIs(t, err, document.ErrMissingCapability)
	})
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("odoo", document.Capabilities{Send: noopSend}))
	require.NoError(t, r.Register("collmex", document.Capabilities{Send: noopSend}))

	assert.Equal(t, []string{"collmex", "odoo"}, r.Names())
}
