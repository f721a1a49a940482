// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyBuilder_EntityKey(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		uid     string
		want    string
		wantErr bool
	}{
		{name: "uuid", uid: "5f0c1f4e-8a0b-4c55-9b3e-0a1d2c3b4e5f", want: "5f0c1f4e-8a0b-4c55-9b3e-0a1d2c3b4e5f"},
		{name: "with prefix", prefix: "v1", uid: "abc", want: "v1.abc"},
		{name: "empty uid", uid: "", wantErr: true},
		{name: "separator in uid", uid: "a.b", wantErr: true},
		{name: "wildcard", uid: "*", wantErr: true},
		{name: "whitespace", uid: "a b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewKeyBuilder(tt.prefix).EntityKey(tt.uid)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, nats.ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyBuilder_ScopedKey(t *testing.T) {
	kb := NewKeyBuilder("")

	key, err := kb.ScopedKey("wb-1", "member-9")
	require.NoError(t, err)
	assert.Equal(t, "wb-1.member-9", key)
	assert.Equal(t, "wb-1.", kb.ScopePrefix("wb-1"))
	assert.Equal(t, "member-9", kb.UID(key))

	_, err = kb.ScopedKey("", "member-9")
	assert.Error(t, err)
}

func TestKeyBuilder_ScopePrefixDoesNotMatchSiblings(t *testing.T) {
	kb := NewKeyBuilder("")

	a, err := kb.ScopedKey("wb-1", "m")
	require.NoError(t, err)
	b, err := kb.ScopedKey("wb-10", "m")
	require.NoError(t, err)

	prefix := kb.ScopePrefix("wb-1")
	assert.True(t, len(a) > len(prefix) && a[:len(prefix)] == prefix)
	assert.False(t, len(b) > len(prefix) && b[:len(prefix)] == prefix)
}

func TestKeyBuilder_UIDWithoutScope(t *testing.T) {
	assert.Equal(t, "abc", NewKeyBuilder("").UID("abc"))
}
