// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package heartbeat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeartbeatSendsSignedRequest(t *testing.T) {
	var gotAuth, gotSig, gotTimestamp string
	var gotBody Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSig = r.Header.Get("X-Sennet-Signature")
		gotTimestamp = r.Header.Get("X-Sennet-Timestamp")

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"command":"COMMAND_NOOP","latestVersion":"1.0.0","configHash":"abc"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_key")
	resp, err := client.Heartbeat(context.Background(), Request{AgentID: "agent-1", CurrentVersion: "0.9.0"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk_test_key", gotAuth)
	assert.NotEmpty(t, gotSig)
	assert.NotEmpty(t, gotTimestamp)
	assert.Equal(t, "agent-1", gotBody.AgentID)
	assert.Equal(t, CommandNoop, resp.Command)
	assert.Equal(t, "1.0.0", resp.LatestVersion)
}

func TestHeartbeatDefaultsEmptyCommandToNoop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_key")
	resp, err := client.Heartbeat(context.Background(), Request{AgentID: "agent-1"})
	require.NoError(t, err)
	assert.Equal(t, CommandNoop, resp.Command)
}

func TestHeartbeatUpgradeCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"command":"COMMAND_UPGRADE","latestVersion":"2.0.0"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_key")
	resp, err := client.Heartbeat(context.Background(), Request{AgentID: "agent-1"})
	require.NoError(t, err)
	assert.Equal(t, CommandUpgrade, resp.Command)
	assert.Equal(t, "2.0.0", resp.LatestVersion)
}

func TestHeartbeatNonOKStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`unauthorized`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_key")
	_, err := client.Heartbeat(context.Background(), Request{AgentID: "agent-1"})
	assert.Error(t, err)
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	client := NewClient("https://example.com/", "sk_x")
	assert.Equal(t, "https://example.com", client.baseURL)
}
