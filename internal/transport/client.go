package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"rmap/internal/codec"
	"rmap/internal/domain"
)

// Client talks to an RMAP server over HTTP.
type Client struct {
	Base string
	HTTP *http.Client
}

// NewClient returns a client for the server at base.
func NewClient(base string) *Client {
	return &Client{Base: base, HTTP: http.DefaultClient}
}

// Initiate delivers message1 and returns the server's message2 envelope.
func (c *Client) Initiate(ctx context.Context, env codec.Envelope) (codec.Envelope, error) {
	var out codec.Envelope
	if err := c.post(ctx, "/api/rmap-initiate", env, &out); err != nil {
		return codec.Envelope{}, err
	}
	return out, nil
}

// GetLink delivers message3 and returns the issued handle and identity.
func (c *Client) GetLink(ctx context.Context, env codec.Envelope) (domain.IssueResult, error) {
	var out struct {
		Result   domain.Handle `json:"result"`
		Identity string        `json:"identity"`
	}
	if err := c.post(ctx, "/api/rmap-get-link", env, &out); err != nil {
		return domain.IssueResult{}, err
	}
	return domain.IssueResult{Handle: out.Result, Identity: out.Identity}, nil
}

// FetchVersion downloads the personalized artifact for handle.
func (c *Client) FetchVersion(ctx context.Context, handle domain.Handle) ([]byte, error) {
	u := c.Base + "/api/get-version/" + url.PathEscape(handle.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, serverError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return serverError(resp)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func serverError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("server: %s (%s)", body.Error, resp.Status)
	}
	return fmt.Errorf("server: %s", resp.Status)
}
