// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package sign

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	sig := Request("sk_test_123456", 1706178000, []byte("test request body"))
	assert.True(t, Verify("sk_test_123456", 1706178000, []byte("test request body"), sig))
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	sig := Request("sk_test_123456", 1706178000, []byte("test request body"))
	assert.False(t, Verify("sk_test_123456", 1706178000, []byte("tampered body"), sig))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	sig := Request("sk_test_123456", 1706178000, []byte("test request body"))
	assert.False(t, Verify("wrong_secret", 1706178000, []byte("test request body"), sig))
}

func TestVerifyRejectsShiftedTimestamp(t *testing.T) {
	sig := Request("sk_test_123456", 1706178000, []byte("test request body"))
	assert.False(t, Verify("sk_test_123456", 1706178001, []byte("test request body"), sig))
}
