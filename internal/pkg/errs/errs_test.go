package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"logistics/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectNotFoundError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := errs.NewObjectNotFoundError("shipment", "7f1c")

		assert.Equal(t, "shipment", err.ParamName)
		assert.Equal(t, "7f1c", err.ID)
		require.NoError(t, err.Cause)
		assert.Equal(t, "object not found: 7f1c", err.Error())
		assert.Equal(t, errs.ErrObjectNotFound, err.Unwrap())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("transport despawned")
		err := errs.NewObjectNotFoundErrorWithCause("transport", "t-1", cause)

		assert.Equal(t, cause, err.Cause)
		assert.Equal(t,
			"object not found: param is: transport, ID is: t-1 (cause: transport despawned)",
			err.Error())
	})
}

func TestValueIsInvalidError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := errs.NewValueIsInvalidError("status")

		assert.Equal(t, "value is invalid: status", err.Error())
		assert.Equal(t, errs.ErrValueIsInvalid, err.Unwrap())
	})

	t.Run("with cause", func(t *testing.T) {
		err := errs.NewValueIsInvalidErrorWithCause("status", errors.New("Delivered is terminal"))

		assert.Equal(t, "value is invalid: status (cause: Delivered is terminal)", err.Error())
	})
}

func TestValueIsOutOfRangeError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeError("risk", 1.5, 0.0, 1.0)

		assert.Equal(t, "value is invalid: 1.5 is risk, min value is 0, max value is 1", err.Error())
		assert.Equal(t, errs.ErrValueIsOutOfRange, err.Unwrap())
	})

	t.Run("with cause", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeErrorWithCause("slots", -1, 0, 64, errors.New("negative"))

		assert.Equal(t, "value is invalid: -1 is slots, min value is 0, max value is 64 (cause: negative)", err.Error())
	})

	t.Run("newlines are flattened", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeError("name", "north\nyard", 0, 10)

		assert.Contains(t, err.Error(), "north yard")
		assert.NotContains(t, err.Error(), "\n")
	})
}

func TestValueIsRequiredError(t *testing.T) {
	err := errs.NewValueIsRequiredError("resource id")
	assert.Equal(t, "value is required: resource id", err.Error())
	assert.Equal(t, errs.ErrValueIsRequired, err.Unwrap())

	withCause := errs.NewValueIsRequiredErrorWithCause("resource id", errors.New("empty"))
	assert.Equal(t, "value is required: resource id (cause: empty)", withCause.Error())
}

func TestErrorsCanBeUnwrapped(t *testing.T) {
	wrapped := fmt.Errorf("plan orders: %w", errs.NewObjectNotFoundError("node", "n-1"))
	require.ErrorIs(t, wrapped, errs.ErrObjectNotFound)

	require.ErrorIs(t, errs.NewValueIsInvalidError("x"), errs.ErrValueIsInvalid)
	require.ErrorIs(t, errs.NewValueIsOutOfRangeError("x", 1, 0, 0), errs.ErrValueIsOutOfRange)
	require.ErrorIs(t, errs.NewValueIsRequiredError("x"), errs.ErrValueIsRequired)
}
