package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://4vesdtyv82.execute-api.us-west-2.amazonaws.com/dev"
	DefaultRemap   = "C40962"
)

// Client talks to the model output data API.
type Client struct {
	BaseURL string
	Remap   string
	HTTP    *http.Client
	Logger  zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Remap:   DefaultRemap,
		HTTP:    &http.Client{Timeout: timeout},
		Logger:  log,
	}
}

func (c *Client) variablePath(v Variable, leaf string) string {
	return fmt.Sprintf("%s/run/%s/variable/%s/%s/%s",
		c.BaseURL, url.PathEscape(v.RunID), url.PathEscape(v.Model), url.PathEscape(v.VarName), leaf)
}

// Runs lists model runs, newest first.
func (c *Client) Runs(ctx context.Context) ([]Run, error) {
	var runs []Run
	if err := c.getJSON(ctx, c.BaseURL+"/runs", &runs); err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].CreatedTime > runs[j].CreatedTime })
	return runs, nil
}

// Info returns the time axis of a variable.
func (c *Client) Info(ctx context.Context, v Variable) (*VariableInfo, error) {
	var info VariableInfo
	if err := c.getJSON(ctx, c.variablePath(v, "info"), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DataURL builds the data endpoint URL for q.
func (c *Client) DataURL(q DataQuery) string {
	params := url.Values{}
	params.Set("time", strconv.FormatFloat(q.Time, 'f', -1, 64))
	remap := c.Remap
	if remap == "" {
		remap = DefaultRemap
	}
	params.Set("remap", remap)
	if q.Level >= 0 {
		params.Set("level", strconv.Itoa(q.Level))
	}
	return c.variablePath(q.Variable, "data") + "?" + params.Encode()
}

// Data returns one snapshot of cell values indexed by gridIndex.
func (c *Client) Data(ctx context.Context, q DataQuery) ([]float64, error) {
	var body dataResponse
	if err := c.getJSON(ctx, c.DataURL(q), &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &FetchError{URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &FetchError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &FetchError{URL: u, StatusCode: resp.StatusCode, Err: ErrStatus}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{URL: u, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	c.Logger.Debug().Str("url", u).Dur("took", time.Since(start)).Msg("fetched")
	return nil
}
