// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreLifecycle(t *testing.T) {
	var s Store
	assert.False(t, s.Active())
	assert.Equal(t, "no session", s.String())

	s.Set("abc123-secret", "shop.db")
	assert.True(t, s.Active())
	assert.Equal(t, "abc123-secret", s.Token())
	assert.Equal(t, "shop.db", s.FileName())
	assert.NotContains(t, s.String(), "secret")

	s.Clear()
	assert.False(t, s.Active())
	assert.Empty(t, s.Token())
	assert.Empty(t, s.FileName())
}
