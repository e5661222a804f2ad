// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

// Package heartbeat implements the control-plane client: a signed HTTP
// request/response cycle and the retrying loop that drives it on an
// interval.
package heartbeat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sennet-io/sennet-agent/pkg/sign"
)

const heartbeatPath = "/sentinel.v1.SentinelService/Heartbeat"

// Client talks to the Sennet control plane over HTTP, signing every
// request body with the configured API key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a Client for serverURL, authenticating with apiKey.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Heartbeat sends a single heartbeat request and decodes the response.
// The request is signed with HMAC-SHA256 over the current timestamp and
// body, carried in the X-Sennet-Signature and X-Sennet-Timestamp
// headers alongside the bearer token.
func (c *Client) Heartbeat(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("heartbeat: marshal request: %w", err)
	}

	timestamp := time.Now().Unix()
	signature := sign.Request(c.apiKey, timestamp, body)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+heartbeatPath, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("heartbeat: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("X-Sennet-Signature", signature)
	httpReq.Header.Set("X-Sennet-Timestamp", fmt.Sprintf("%d", timestamp))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("heartbeat: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("heartbeat: read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("heartbeat: control plane returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out Response
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &out); err != nil {
			return Response{}, fmt.Errorf("heartbeat: parse response: %w", err)
		}
	}
	if out.Command == "" {
		out.Command = CommandNoop
	}
	return out, nil
}
