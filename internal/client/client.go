// Package client is a small HTTP client for the ChunkHub REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/chunkhub/internal/api"
)

// APIError is a non-2xx response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Detail)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

// Client talks to one ChunkHub server. The zero Token sends anonymous requests.
type Client struct {
	base  *url.URL
	http  *http.Client
	Token string
}

// New parses baseURL ("http://host:8000") and returns a Client.
func New(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Client{base: u, http: hc}, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = q.Encode()
	return u.String()
}

// do sends a request and decodes a JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, q url.Values, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e api.Error
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e)
		return &APIError{Status: resp.StatusCode, Detail: e.Detail}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, method, path, nil, bytes.NewReader(b), "application/json", out)
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, email, password string) (api.User, error) {
	var u api.User
	err := c.doJSON(ctx, http.MethodPost, "/auth/register",
		api.RegisterRequest{Username: username, Email: email, Password: password}, &u)
	return u, err
}

// Login exchanges credentials for a token and keeps it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (api.Token, error) {
	form := url.Values{"username": {username}, "password": {password}}
	var t api.Token
	err := c.do(ctx, http.MethodPost, "/auth/token", nil, strings.NewReader(form.Encode()),
		"application/x-www-form-urlencoded", &t)
	if err == nil {
		c.Token = t.AccessToken
	}
	return t, err
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (api.User, error) {
	var u api.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, "", &u)
	return u, err
}

// SearchParams narrows a search; zero values are omitted.
type SearchParams struct {
	MCVersion string
	Loader    string
	Skip      int
	Limit     int
}

func (p SearchParams) values() url.Values {
	q := url.Values{}
	if p.MCVersion != "" {
		q.Set("mc_version", p.MCVersion)
	}
	if p.Loader != "" {
		q.Set("loader", p.Loader)
	}
	if p.Skip > 0 {
		q.Set("skip", strconv.Itoa(p.Skip))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

// Search runs a free-text search over published modpacks.
func (c *Client) Search(ctx context.Context, text string, p SearchParams) ([]api.Modpack, error) {
	q := p.values()
	q.Set("q", text)
	var out []api.Modpack
	err := c.do(ctx, http.MethodGet, "/search", q, nil, "", &out)
	return out, err
}

// ListModpacks pages through the catalog.
func (c *Client) ListModpacks(ctx context.Context, p SearchParams, publishedOnly bool) ([]api.Modpack, error) {
	q := p.values()
	if !publishedOnly {
		q.Set("published_only", "false")
	}
	var out []api.Modpack
	err := c.do(ctx, http.MethodGet, "/modpacks", q, nil, "", &out)
	return out, err
}

// Project returns the aggregated project page of slug.
func (c *Client) Project(ctx context.Context, slug string) (api.ProjectDetail, error) {
	var d api.ProjectDetail
	err := c.do(ctx, http.MethodGet, "/projects/"+slug, nil, nil, "", &d)
	return d, err
}

// CreateModpack registers a new modpack owned by the caller.
func (c *Client) CreateModpack(ctx context.Context, in api.ModpackCreate) (api.Modpack, error) {
	var m api.Modpack
	err := c.doJSON(ctx, http.MethodPost, "/modpacks", in, &m)
	return m, err
}

// UpdateModpack applies a partial update; keys absent from patch are untouched.
func (c *Client) UpdateModpack(ctx context.Context, slug string, patch map[string]any) (api.Modpack, error) {
	var m api.Modpack
	err := c.doJSON(ctx, http.MethodPatch, "/modpacks/"+slug, patch, &m)
	return m, err
}

// DeleteModpack removes a modpack with all its versions.
func (c *Client) DeleteModpack(ctx context.Context, slug string) error {
	return c.do(ctx, http.MethodDelete, "/modpacks/"+slug, nil, nil, "", nil)
}

// CreateVersion adds a release to slug.
func (c *Client) CreateVersion(ctx context.Context, slug string, in api.VersionCreate) (api.Version, error) {
	var v api.Version
	err := c.doJSON(ctx, http.MethodPost, "/modpacks/"+slug+"/versions", in, &v)
	return v, err
}

// LatestVersion returns the newest (stable, unless stableOnly is false) release.
func (c *Client) LatestVersion(ctx context.Context, slug string, stableOnly bool) (api.Version, error) {
	q := url.Values{}
	if !stableOnly {
		q.Set("stable_only", "false")
	}
	var v api.Version
	err := c.do(ctx, http.MethodGet, "/modpacks/"+slug+"/versions/latest", q, nil, "", &v)
	return v, err
}

// Upload streams the file at path as the artifact of slug/version.
func (c *Client) Upload(ctx context.Context, slug, version, path string) (api.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return api.UploadResult{}, err
	}
	defer f.Close()
	return c.UploadReader(ctx, slug, version, filepath.Base(path), f)
}

// UploadReader streams r as a multipart "file" part without buffering it.
func (c *Client) UploadReader(ctx context.Context, slug, version, filename string, r io.Reader) (api.UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	var res api.UploadResult
	err := c.do(ctx, http.MethodPost, "/upload/modpack/"+slug,
		url.Values{"version": {version}}, pr, mw.FormDataContentType(), &res)
	_ = pr.Close()
	return res, err
}

// DeleteUpload drops the artifact of slug/version.
func (c *Client) DeleteUpload(ctx context.Context, slug, version string) error {
	return c.do(ctx, http.MethodDelete,
		"/upload/modpack/"+slug+"/"+version, nil, nil, "", nil)
}
