// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nats-io/nats.go"
)

// keySeparator splits the tokens of a KV key.
const keySeparator = "."

// validKeyRe mirrors the key rules of the NATS KV store.
// https://docs.nats.io/nats-concepts/jetstream/key-value-store#notes
var validKeyRe = regexp.MustCompile(`^[-/_=a-zA-Z0-9]+(\.[-/_=a-zA-Z0-9]+)*$`)

// KeyBuilder builds the keys of a bucket, optionally scoped by a parent UID
// (e.g. "<workbody uid>.<member uid>").
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with an optional prefix
func NewKeyBuilder(prefix string) *KeyBuilder {
	return &KeyBuilder{prefix: prefix}
}

// EntityKey builds the key of a top-level entity.
func (kb *KeyBuilder) EntityKey(uid string) (string, error) {
	return kb.build(uid)
}

// ScopedKey builds the key of an entity that belongs to a parent.
func (kb *KeyBuilder) ScopedKey(scope, uid string) (string, error) {
	return kb.build(scope, uid)
}

// ScopePrefix returns the prefix shared by every key of a scope.
func (kb *KeyBuilder) ScopePrefix(scope string) string {
	if scope == "" {
		return kb.join()
	}
	return kb.join(scope) + keySeparator
}

// UID returns the entity UID of a key built by this builder.
func (kb *KeyBuilder) UID(key string) string {
	if i := strings.LastIndex(key, keySeparator); i >= 0 {
		return key[i+1:]
	}
	return key
}

func (kb *KeyBuilder) join(parts ...string) string {
	if kb.prefix != "" {
		parts = append([]string{kb.prefix}, parts...)
	}
	return strings.Join(parts, keySeparator)
}

func (kb *KeyBuilder) build(parts ...string) (string, error) {
	for _, part := range parts {
		if part == "" || strings.Contains(part, keySeparator) {
			return "", fmt.Errorf("%w: %q", nats.ErrInvalidKey, part)
		}
	}
	key := kb.join(parts...)
	if !validKeyRe.MatchString(key) {
		return "", fmt.Errorf("%w: %q", nats.ErrInvalidKey, key)
	}
	return key, nil
}
