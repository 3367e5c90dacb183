// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEError(t *testing.T) {
	tests := []struct {
		name string
		err  *E
		want string
	}{
		{
			name: "without cause",
			err:  New(EmptyQuery, "Please enter a query."),
			want: "empty_query: Please enter a query.",
		},
		{
			name: "with cause",
			err:  Wrap(NetworkError, "upload request failed", stderrors.New("connection refused")),
			want: "network_error: upload request failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	inner := Wrap(NetworkError, "process request failed", cause)
	outer := fmt.Errorf("submit: %w", inner)

	assert.Equal(t, NetworkError, KindOf(outer))
	assert.True(t, Is(outer, NetworkError))
	assert.False(t, Is(outer, UploadFailed))
	assert.ErrorIs(t, outer, cause)
	assert.Equal(t, Kind(""), KindOf(cause))
	assert.False(t, Is(nil, NetworkError))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Failed to fetch schema", New(SchemaFetchFailed, "Failed to fetch schema").UserMessage())
	assert.Equal(t, "boom", Wrap(UploadFailed, "", stderrors.New("boom")).UserMessage())
	assert.Equal(t, "busy", (&E{Kind: Busy}).UserMessage())
}

func TestHasWalksNestedKinds(t *testing.T) {
	inner := Wrap(NetworkError, "Network Error: timeout", stderrors.New("deadline exceeded"))
	outer := Wrap(SchemaFetchFailed, inner.UserMessage(), inner)

	assert.True(t, Has(outer, SchemaFetchFailed))
	assert.True(t, Has(outer, NetworkError))
	assert.False(t, Is(outer, NetworkError), "Is only looks at the outermost kind")
	assert.False(t, Has(outer, UploadFailed))
	assert.False(t, Has(nil, NetworkError))
	assert.False(t, Has(fmt.Errorf("plain"), NetworkError))
}
