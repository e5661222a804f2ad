// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

// Package sign implements HMAC-SHA256 request signing for the heartbeat
// channel: the timestamp is folded into the MAC alongside the body so a
// replayed request with a stale timestamp produces a signature mismatch
// once the control plane enforces a freshness window.
//
// HMAC-SHA256 is implemented against crypto/hmac and crypto/sha256
// rather than a third-party package: it is the standard, unreplaced way
// to do this in Go and no dependency in the stack offers anything beyond
// what the standard library already provides here.
package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Request signs body with secret, folding timestamp (unix seconds) into
// the MAC to bind the signature to a point in time. Returns the
// hex-encoded signature, sent as the X-Sennet-Signature header.
func Request(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], uint64(timestamp))
	mac.Write(ts[:])
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the correct HMAC-SHA256 signature
// for (secret, timestamp, body), using a constant-time comparison to
// avoid leaking match-length through timing.
func Verify(secret string, timestamp int64, body []byte, signature string) bool {
	expected := Request(secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
