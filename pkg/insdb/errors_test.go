package insdb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{
		Kind:       KindQuantity,
		Identifier: "/LFI/bandpass",
		Detail:     "no quantity at this path",
	}

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("query failed: %w", err)))
	assert.Contains(t, err.Error(), "/LFI/bandpass")

	assert.False(t, IsNotFound(errors.New("unrelated")))
}

func TestFormatError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := &FormatError{Path: "/data/schema.json", Message: "cannot decode schema", Err: cause}

	assert.True(t, IsFormatError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "/data/schema.json")
}

func TestConnectionError(t *testing.T) {
	err := &ConnectionError{
		URL:        "https://insdb.example.com/api/login",
		StatusCode: 403,
		Message:    "login failed",
	}

	assert.True(t, IsConnectionError(err))
	assert.Contains(t, err.Error(), "403")
	assert.False(t, IsConnectionError(&NotFoundError{Kind: KindDataFile, Identifier: uuid.Nil.String()}))
}
