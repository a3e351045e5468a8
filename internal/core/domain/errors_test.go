package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Uniqueness(t *testing.T) {
	all := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrInvalidConfig,
		ErrLLMUnavailable,
		ErrEmbeddingUnavailable,
		ErrSearchUnavailable,
		ErrVectorStoreUnavailable,
		ErrDimensionMismatch,
		ErrRateLimited,
	}

	for i := range all {
		for j := range all {
			if i != j {
				assert.NotErrorIs(t, all[i], all[j])
			}
		}
	}
}

func TestErrors_WithWrapping(t *testing.T) {
	wrapped := fmt.Errorf("open store: %w", ErrVectorStoreUnavailable)

	assert.True(t, errors.Is(wrapped, ErrVectorStoreUnavailable))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
}

func TestErrors_ErrorMessages(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.Equal(t, "invalid configuration", ErrInvalidConfig.Error())
	assert.Equal(t, "LLM service unavailable", ErrLLMUnavailable.Error())
}
