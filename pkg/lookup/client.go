/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package lookup implements the HTTP client for the overlay index service:
// lookup of anchored outputs by serial number and best-effort submission of
// finalized transactions tagged with their topic.
package lookup

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/mitchellh/mapstructure"

	"github.com/anchorid/anchorid-go/pkg/api"
)

const contentTypeJSON = "application/json"

// Client talks to a single index-service endpoint.
type Client struct {
	endpointURL string
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(c *Client)

// WithHTTPClient overrides the HTTP client used for outbound calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New returns a Client for the given index-service base URL.
func New(endpointURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(endpointURL); err != nil {
		return nil, fmt.Errorf("invalid index service endpoint: %w", err)
	}

	c := &Client{endpointURL: endpointURL, httpClient: http.DefaultClient}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Question is the outbound lookup request body.
type Question struct {
	Service string `json:"service"`
	Query   Query  `json:"query"`
}

// Query identifies the anchored output being looked up.
type Query struct {
	SerialNumber string `json:"serialNumber"`
}

// OutputRef is one entry of a parsed lookup answer. It carries either a
// pre-parsed document or a raw transaction bundle with the output index to
// decode.
type OutputRef struct {
	Document    map[string]interface{} `mapstructure:"document"`
	RawTx       string                 `mapstructure:"rawTx"`
	Beef        string                 `mapstructure:"beef"`
	OutputIndex uint32                 `mapstructure:"outputIndex"`
}

// Answer is the index service's reply. Either Outputs is populated (parsed
// form) or the top-level raw bundle fields are (raw form).
type Answer struct {
	Outputs     []OutputRef `mapstructure:"outputs"`
	RawTx       string      `mapstructure:"rawTx"`
	Beef        string      `mapstructure:"beef"`
	OutputIndex uint32      `mapstructure:"outputIndex"`
}

// DocumentBytes re-serializes a pre-parsed document entry for validation.
func (o *OutputRef) DocumentBytes() ([]byte, error) {
	if o.Document == nil {
		return nil, fmt.Errorf("output entry carries no document")
	}

	return json.Marshal(o.Document)
}

// RawBytes decodes the raw transaction bundle carried by an output entry.
func (o *OutputRef) RawBytes() ([]byte, error) {
	return decodeRawField(o.Beef, o.RawTx)
}

// RawBytes decodes the top-level raw transaction bundle of a raw-form answer.
func (a *Answer) RawBytes() ([]byte, error) {
	return decodeRawField(a.Beef, a.RawTx)
}

func decodeRawField(beef, rawTx string) ([]byte, error) {
	encoded := beef
	if encoded == "" {
		encoded = rawTx
	}

	if encoded == "" {
		return nil, fmt.Errorf("answer carries no raw transaction data")
	}

	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode raw transaction hex: %w", err)
	}

	return raw, nil
}

// Lookup queries the named lookup service for the outputs anchored under a
// serial number. A miss is reported as api.ErrNotFound.
func (c *Client) Lookup(ctx context.Context, service, serialNumber string) (*Answer, error) {
	body, err := json.Marshal(&Question{Service: service, Query: Query{SerialNumber: serialNumber}})
	if err != nil {
		return nil, fmt.Errorf("marshal lookup question: %w", err)
	}

	respBody, status, err := c.post(ctx, "lookup", body)
	if err != nil {
		return nil, err
	}

	if status == http.StatusNotFound {
		return nil, api.ErrNotFound
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected index service response [%d] body [%s]", status, respBody)
	}

	var generic map[string]interface{}
	if err := json.Unmarshal(respBody, &generic); err != nil {
		return nil, fmt.Errorf("unmarshal lookup answer: %w", err)
	}

	answer := &Answer{}
	if err := mapstructure.Decode(generic, answer); err != nil {
		return nil, fmt.Errorf("decode lookup answer: %w", err)
	}

	if len(answer.Outputs) == 0 && answer.RawTx == "" && answer.Beef == "" {
		return nil, api.ErrNotFound
	}

	return answer, nil
}

// Submission is the outbound broadcast body.
type Submission struct {
	Topic string `json:"topic"`
	RawTx string `json:"rawTx"`
}

// Submit broadcasts a finalized transaction to the index service tagged with
// its topic. Submission is best effort; the caller decides whether a failure
// is fatal.
func (c *Client) Submit(ctx context.Context, topic string, rawTx []byte) error {
	body, err := json.Marshal(&Submission{Topic: topic, RawTx: hex.EncodeToString(rawTx)})
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	respBody, status, err := c.post(ctx, "submit", body)
	if err != nil {
		return err
	}

	if status != http.StatusOK && status != http.StatusAccepted {
		return fmt.Errorf("index service rejected submission [%d] body [%s]", status, respBody)
	}

	return nil
}

func (c *Client) post(ctx context.Context, route string, body []byte) ([]byte, int, error) {
	reqURL, err := url.ParseRequestURI(c.endpointURL)
	if err != nil {
		return nil, 0, fmt.Errorf("url parse request uri failed: %w", err)
	}

	reqURL.Path = path.Join(reqURL.Path, route)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP create post request failed: %w", err)
	}

	req.Header.Add("Content-Type", contentTypeJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP POST request failed: %w", err)
	}

	defer closeResponseBody(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response body failed: %w", err)
	}

	return respBody, resp.StatusCode, nil
}
