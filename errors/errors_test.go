package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapClassification(t *testing.T) {
	base := New("disk exploded")

	tests := []struct {
		name      string
		err       error
		transient bool
		invalid   bool
		fatal     bool
	}{
		{
			name:      "transient wrap",
			err:       WrapTransient(base, "cache", "Set", "write cache file"),
			transient: true,
		},
		{
			name:    "invalid wrap",
			err:     WrapInvalid(base, "cache", "NewLRU", "validate capacity"),
			invalid: true,
		},
		{
			name:  "fatal wrap",
			err:   WrapFatal(base, "cache", "Get", "decode entry"),
			fatal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, IsTransient(tt.err))
			assert.Equal(t, tt.invalid, IsInvalid(tt.err))
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "cache", "Get", "read"))
	assert.NoError(t, WrapTransient(nil, "cache", "Get", "read"))
	assert.NoError(t, WrapInvalid(nil, "cache", "Get", "read"))
	assert.NoError(t, WrapFatal(nil, "cache", "Get", "read"))
}

func TestWrapPreservesChain(t *testing.T) {
	err := WrapTransient(ErrStorageUnavailable, "cache", "Set", "write cache file")
	require.Error(t, err)

	assert.True(t, Is(err, ErrStorageUnavailable))

	var ce *ClassifiedError
	require.True(t, As(err, &ce))
	assert.Equal(t, "cache", ce.Component)
	assert.Equal(t, "Set", ce.Operation)
	assert.Equal(t, ErrorTransient, ce.Class)
	assert.Contains(t, err.Error(), "cache.Set: write cache file failed")
}

func TestSentinelClassification(t *testing.T) {
	assert.True(t, IsTransient(ErrStorageFull))
	assert.True(t, IsInvalid(ErrInvalidConfig))
	assert.True(t, IsInvalid(fmt.Errorf("loading: %w", ErrMissingConfig)))
	assert.True(t, IsFatal(ErrDataCorrupted))
	assert.False(t, IsTransient(nil))
	assert.False(t, IsInvalid(nil))
	assert.False(t, IsFatal(nil))
}

func TestClassifyDefaultsToTransient(t *testing.T) {
	assert.Equal(t, ErrorTransient, Classify(New("something novel")))
	assert.Equal(t, ErrorInvalid, Classify(ErrInvalidConfig))
	assert.Equal(t, ErrorFatal, Classify(ErrDataCorrupted))
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(99).String())
}
