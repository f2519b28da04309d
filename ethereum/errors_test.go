package ethereum

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRPCErrorTaxonomy(t *testing.T) {
	cause := errors.New("connection refused")
	reqErr := RequestError(cause)
	assert.True(t, IsRequestError(reqErr))
	assert.Contains(t, reqErr.Error(), "connection refused")

	unkErr := UnknownErr("missing storage result")
	assert.False(t, IsRequestError(unkErr))
	assert.Contains(t, unkErr.Error(), "missing storage result")

	setupErr := SetupErr("bad endpoint")
	assert.False(t, IsRequestError(setupErr))
	assert.Contains(t, setupErr.Error(), "bad endpoint")
}

func TestRPCErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := RequestError(cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}
