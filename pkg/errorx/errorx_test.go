package errorx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCauseAndCode(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrapf(cause, CodeDBError, "insert message %s", "42")

	assert.Equal(t, "insert message 42: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeDBError, GetCode(err))
}

func TestGetCodeDefaultsToServerBusy(t *testing.T) {
	assert.Equal(t, CodeServerBusy, GetCode(errors.New("boom")))
	assert.Equal(t, CodeNotFound, GetCode(fmt.Errorf("outer: %w", New(CodeNotFound, "x"))))
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("initiate: %w", Wrap(errors.New("x"), CodeRecipientBusy, "busy"))
	require.ErrorIs(t, err, ErrRecipientBusy)
	assert.False(t, errors.Is(err, ErrRecipientOffline))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(CodeNotFound, "missing")))
	assert.True(t, IsNotFound(errors.New("record not found")))
	assert.False(t, IsNotFound(New(CodeForbidden, "no")))
	assert.False(t, IsNotFound(nil))
}
