package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG(t *testing.T) {
	t.Run("DeterministicForSeed", func(t *testing.T) {
		a := NewRNG(42)
		b := NewRNG(42)

		for range 100 {
			assert.Equal(t, a.Uint64(), b.Uint64())
		}
	})

	t.Run("StreamsIndependentOfDrawOrder", func(t *testing.T) {
		root := NewRNG(7)
		s0 := root.Stream(0)
		s1 := root.Stream(1)

		// Draw from s1 first, then s0; stream values must match a fresh
		// derivation drawn the other way around.
		v1 := s1.Uint64()
		v0 := s0.Uint64()

		root2 := NewRNG(7)
		assert.Equal(t, v0, root2.Stream(0).Uint64())
		assert.Equal(t, v1, root2.Stream(1).Uint64())
	})

	t.Run("MarshalRoundTrip", func(t *testing.T) {
		r := NewRNG(99)
		for range 10 {
			r.Uint64()
		}

		state, err := r.MarshalBinary()
		require.NoError(t, err)

		restored := &RNG{}
		require.NoError(t, restored.UnmarshalBinary(state))

		assert.Equal(t, uint64(99), restored.Seed())
		for range 100 {
			assert.Equal(t, r.Uint64(), restored.Uint64())
		}
	})

	t.Run("UnmarshalRejectsShortState", func(t *testing.T) {
		r := &RNG{}
		require.Error(t, r.UnmarshalBinary([]byte{1, 2, 3}))
	})

	t.Run("Clone", func(t *testing.T) {
		r := NewRNG(1)
		r.Uint64()

		c, err := r.Clone()
		require.NoError(t, err)

		assert.Equal(t, r.Uint64(), c.Uint64())

		// Diverge the clone; the original must be unaffected. r has consumed
		// two draws at this point, so align the reference before comparing.
		c.Uint64()
		a := NewRNG(1)
		a.Uint64()
		a.Uint64()
		assert.Equal(t, a.Uint64(), r.Uint64())
	})

	t.Run("Bootstrap", func(t *testing.T) {
		r := NewRNG(3)
		src := []float64{1.5, 2.5, 3.5}

		draws := r.Bootstrap(src, 50)
		require.Len(t, draws, 50)
		for _, v := range draws {
			assert.Contains(t, src, v)
		}
	})

	t.Run("IntNBounds", func(t *testing.T) {
		r := NewRNG(5)
		for range 1000 {
			n := r.IntN(7)
			assert.GreaterOrEqual(t, n, 0)
			assert.Less(t, n, 7)
		}
	})
}
