package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerIdentity(t *testing.T) {
	t.Parallel()

	t.Run("valid ordinal", func(t *testing.T) {
		t.Parallel()

		identity, err := NewWorkerIdentity(3)
		require.NoError(t, err)
		assert.Equal(t, 3, identity.Ordinal)
		assert.NotEmpty(t, identity.UUID)
	})

	t.Run("zero ordinal", func(t *testing.T) {
		t.Parallel()

		identity, err := NewWorkerIdentity(0)
		require.NoError(t, err)
		assert.Equal(t, 0, identity.Ordinal)
	})

	t.Run("negative ordinal fails", func(t *testing.T) {
		t.Parallel()

		_, err := NewWorkerIdentity(-1)
		assert.ErrorIs(t, err, ErrInvalidOrdinal)
	})

	t.Run("uuids are distinct", func(t *testing.T) {
		t.Parallel()

		a, err := NewWorkerIdentity(0)
		require.NoError(t, err)
		b, err := NewWorkerIdentity(0)
		require.NoError(t, err)
		assert.NotEqual(t, a.UUID, b.UUID)
	})
}

func TestWorkerIdentity_String(t *testing.T) {
	t.Parallel()

	identity := WorkerIdentity{Ordinal: 2, UUID: "1b9f04c8-0000-0000-0000-000000000000"}
	assert.Equal(t, "worker-2/1b9f04c8", identity.String())
}
