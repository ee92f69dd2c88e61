// internal/pkg/apperr/errors_test.go
package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "quantity must be positive", Validationf("quantity must be %s", "positive").Error())
	assert.Equal(t, "bouquet not found", NotFound("bouquet").Error())
	assert.Equal(t, "cart is empty", (&EmptyCartError{}).Error())
	assert.Equal(t, "order is already completed", IllegalStatef("order is already %s", "completed").Error())

	stockErr := &InsufficientStockError{BouquetID: 7, Name: "Dozen Roses", Requested: 3, Available: 1}
	assert.Equal(t, `insufficient stock for "Dozen Roses" (id=7): requested 3, available 1`, stockErr.Error())
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("place order: %w", NotFound("order"))

	var notFoundErr *NotFoundError
	require.ErrorAs(t, wrapped, &notFoundErr)
	assert.Equal(t, "order", notFoundErr.Resource)

	var validationErr *ValidationError
	assert.False(t, errors.As(wrapped, &validationErr))
}
