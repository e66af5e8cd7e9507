package helper

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewError(t *testing.T) {
	t.Run("Wraps the operation and the cause", func(t *testing.T) {
		cause := fmt.Errorf("connection refused")

		err := NewError("connect to database", cause)

		assert.EqualError(t, err, "error in connect to database: connection refused")
		assert.ErrorIs(t, err, cause)
	})

	t.Run("Wrapped sentinel errors stay matchable", func(t *testing.T) {
		sentinel := errors.New("not found")
		err := NewError("outer", NewError("inner", sentinel))

		assert.ErrorIs(t, err, sentinel)
	})
}
