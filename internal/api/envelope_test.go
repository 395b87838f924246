package api

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeTransformer(t *testing.T) {
	t.Run("success wraps data", func(t *testing.T) {
		out, err := EnvelopeTransformer(nil, "200", map[string]string{"k": "v"})
		require.NoError(t, err)
		env, ok := out.(APIEnvelope)
		require.True(t, ok)
		assert.True(t, env.Success)
		assert.Equal(t, EnvelopeVersion, env.Version)
		assert.Equal(t, map[string]string{"k": "v"}, env.Data)
	})

	t.Run("coded error", func(t *testing.T) {
		out, err := EnvelopeTransformer(nil, "400", &APIError{status: 400, Code: "SESSION_TOO_SHORT", Message: "too short"})
		require.NoError(t, err)
		env, ok := out.(APIErrorEnvelope)
		require.True(t, ok)
		assert.False(t, env.Success)
		assert.Equal(t, "SESSION_TOO_SHORT", env.Code)
		assert.Equal(t, "too short", env.Message)
	})

	t.Run("uncoded error", func(t *testing.T) {
		out, err := EnvelopeTransformer(nil, "500", &APIError{status: 500, Message: "boom"})
		require.NoError(t, err)
		env, ok := out.(APIEnvelope)
		require.True(t, ok)
		assert.Equal(t, "boom", env.Error)
	})

	t.Run("plain error", func(t *testing.T) {
		out, err := EnvelopeTransformer(nil, "500", errors.New("kaput"))
		require.NoError(t, err)
		assert.Equal(t, "kaput", out.(APIEnvelope).Error)
	})

	t.Run("envelope passes through", func(t *testing.T) {
		in := APIEnvelope{Version: EnvelopeVersion, Success: true}
		out, err := EnvelopeTransformer(nil, "200", in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}
