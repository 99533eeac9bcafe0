package upstream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("tronscan", "system/tps", cause)

	assert.Equal(t, KindUnavailable, err.Kind)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "tronscan")
	assert.Contains(t, err.Error(), "unavailable")

	var uerr *Error
	require.True(t, errors.As(error(err), &uerr))
	assert.Equal(t, "system/tps", uerr.Endpoint)
}

func TestMalformed(t *testing.T) {
	err := Malformed("coingecko", "coins", errors.New("missing price"))

	assert.Equal(t, KindMalformed, err.Kind)
	assert.Equal(t, "malformed", err.Kind.String())
}
