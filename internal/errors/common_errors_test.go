package errors

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewValueError("month out of range", nil),
			want: "[VALUE] month out of range",
		},
		{
			name: "with cause",
			err:  NewIOError("read input", os.ErrNotExist),
			want: "[IO] read input: file does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewIOError("open dataset", os.ErrNotExist)
	wrapped := fmt.Errorf("load: %w", err)

	assert.True(t, errors.Is(wrapped, os.ErrNotExist))

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeIO, appErr.Type)
}

func TestNewSchemaError(t *testing.T) {
	err := NewSchemaError("monthly deliveries", "Year", "Month")

	assert.Equal(t, ErrTypeSchema, err.Type)
	assert.Contains(t, err.Error(), "monthly deliveries")
	assert.Contains(t, err.Error(), "Year")
	assert.Equal(t, []string{"Year", "Month"}, err.Context["missing"])
}

func TestNewMissingColumnError(t *testing.T) {
	err := NewMissingColumnError("Color")

	assert.Equal(t, ErrTypeMissingColumn, err.Type)
	assert.Equal(t, "Color", err.Context["column"])
	assert.Contains(t, err.Error(), "'Color'")
}

func TestIsTypeAndTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"io", NewIOError("x", nil), ErrTypeIO},
		{"schema", NewSchemaError("op", "Region"), ErrTypeSchema},
		{"value", NewValueError("x", nil), ErrTypeValue},
		{"config", NewConfigError("x", nil), ErrTypeConfig},
		{"not found", NewNotFoundError("region"), ErrTypeNotFound},
		{"wrapped", fmt.Errorf("outer: %w", NewValueError("x", nil)), ErrTypeValue},
		{"plain", errors.New("plain"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
			if tt.want != "" {
				assert.True(t, IsType(tt.err, tt.want))
			}
			assert.False(t, IsType(tt.err, "OTHER"))
		})
	}
}

func TestWithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeValue, Message: "bad"}
	err.WithContext("row", 3).WithContext("column", "Month")

	assert.Equal(t, 3, err.Context["row"])
	assert.Equal(t, "Month", err.Context["column"])
}
