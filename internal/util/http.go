package util

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func newTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     false,
		DisableKeepAlives:     true,
		MaxIdleConns:          0,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConnsPerHost:   100,
		Proxy:                 http.ProxyFromEnvironment,
	}
}

// Client talks to a solving server rooted at Base.
type Client struct {
	Base string
	http *http.Client
}

func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		Base: strings.TrimSuffix(base, "/") + "/",
		http: &http.Client{Timeout: timeout, Transport: newTransport()},
	}
}

// Response is a fully read server reply.
type Response struct {
	Status int
	Body   []byte
}

func (r *Response) OK() bool {
	return r.Status == http.StatusOK
}

func (r *Response) String() string {
	return string(r.Body)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.Base+strings.TrimPrefix(path, "/"), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, "", nil)
}

func (c *Client) Post(ctx context.Context, path, contentType string, body io.Reader) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, contentType, body)
}

// PostJSON posts a JSON document given as text.
func (c *Client) PostJSON(ctx context.Context, path, doc string) (*Response, error) {
	return c.Post(ctx, path, "application/json; charset=utf-8", strings.NewReader(doc))
}

// GetJSON decodes the body of a successful GET into data.
func (c *Client) GetJSON(ctx context.Context, path string, data interface{}) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return errors.Errorf("get %s: status %d: %s", path, resp.Status, resp.Body)
	}
	if err := json.Unmarshal(resp.Body, data); err != nil {
		log.Debugf("GetJSON %s content:\n %s", path, resp.Body)
		return errors.Wrap(err, "unmarshal")
	}
	return nil
}
