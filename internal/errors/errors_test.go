package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"cyberguard/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestWrapDerivesCodeFromDomainErrors(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{core.NewDatasetMissingError("global_threats", ""), CodeDatasetMissing},
		{core.NewInsufficientFeaturesError(1, 2), CodeInsufficientFeatures},
		{core.NewInsufficientSamplesError("group", 1, 2), CodeInsufficientSamples},
		{core.NewUnknownColumnError("x"), CodeInvalidInput},
		{fmt.Errorf("%w: extra", core.ErrSchemaMismatch), CodeSchemaMismatch},
		{stderrors.New("boom"), CodeInternalError},
	}
	for _, tt := range tests {
		wrapped := Wrap(tt.err, "context")
		assert.Equal(t, tt.code, GetCode(wrapped), tt.err.Error())
		assert.True(t, stderrors.Is(wrapped, tt.err))
	}
}

func TestWrapKeepsAppErrorCode(t *testing.T) {
	inner := ConfigInvalid("DATA_DIR is required")
	outer := Wrapf(inner, "load %s", "config")

	assert.Equal(t, CodeConfigInvalid, GetCode(outer))
	assert.Equal(t, "load config: DATA_DIR is required", outer.Error())
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeSourceError, stderrors.New("disk on fire"))
	assert.True(t, IsAppError(err))
	assert.Equal(t, CodeSourceError, GetCode(err))
}

func TestWithCodeKeepsMessage(t *testing.T) {
	cause := stderrors.New("disk on fire")
	err := WithCode(CodeSourceError, cause)
	assert.Equal(t, "disk on fire", err.Error())
	assert.ErrorIs(t, err, cause)
}
