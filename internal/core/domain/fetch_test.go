package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchFailure_String(t *testing.T) {
	tests := []struct {
		name     string
		failure  FetchFailure
		expected string
	}{
		{name: "timeout", failure: FetchFailure{Cause: FailureTimeout}, expected: "timeout"},
		{name: "connection", failure: FetchFailure{Cause: FailureConnection}, expected: "connection-error"},
		{name: "http", failure: FetchFailure{Cause: FailureHTTP, StatusCode: 404}, expected: "http-error{404}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.failure.String())
		})
	}
}

func TestFetchFailure_Unwrap(t *testing.T) {
	f := &FetchFailure{URL: "http://b.test", Cause: FailureTimeout, Err: context.DeadlineExceeded}

	assert.ErrorIs(t, f, context.DeadlineExceeded)
	assert.Contains(t, f.Error(), "http://b.test")
	assert.Contains(t, f.Error(), "timeout")

	var target *FetchFailure
	require.True(t, errors.As(error(f), &target))
	assert.Equal(t, FailureTimeout, target.Cause)
}

func TestFetchResult_Partition(t *testing.T) {
	result := FetchResult{Outcomes: []FetchOutcome{
		{URL: "http://a.test", Content: "Hello world"},
		{URL: "http://b.test", Failure: &FetchFailure{URL: "http://b.test", Cause: FailureTimeout}},
	}}

	assert.Equal(t, 2, result.Len())
	require.Len(t, result.Succeeded(), 1)
	assert.Equal(t, "http://a.test", result.Succeeded()[0].URL)
	require.Len(t, result.Failed(), 1)
	assert.Equal(t, "http://b.test", result.Failed()[0].URL)

	a, ok := result.Get("http://a.test")
	require.True(t, ok)
	assert.Equal(t, "Hello world", a.Content)
	assert.True(t, a.OK())

	b, ok := result.Get("http://b.test")
	require.True(t, ok)
	assert.False(t, b.OK())
	assert.Equal(t, "timeout", b.Failure.String())

	_, ok = result.Get("http://c.test")
	assert.False(t, ok)
}
