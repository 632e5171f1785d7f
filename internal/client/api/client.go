// Package api is the HTTP client for the filekeeper server. It mirrors the
// server's REST surface and caches the token pair on disk so consecutive CLI
// invocations stay logged in.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/client/config"
	"github.com/dmitrijs2005/filekeeper/internal/common"
)

// ErrNotLoggedIn is returned by asset operations when no session is cached.
var ErrNotLoggedIn = errors.New("not logged in, run 'login' first")

// Asset is the client-side view of a registered file, matching the server's
// JSON rendering.
type Asset struct {
	ContentHash  string    `json:"contentHash"`
	StorageKey   string    `json:"storageKey"`
	OriginalName string    `json:"originalName"`
	SizeBytes    int64     `json:"sizeBytes"`
	MimeType     string    `json:"mimeType"`
	UploadedAt   time.Time `json:"uploadedAt"`
	OwnerEmail   string    `json:"ownerEmail"`
	State        string    `json:"state"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Client talks to one filekeeper server.
type Client struct {
	baseURL     string
	sessionPath string
	session     *Session
	http        *http.Client
}

// New builds a client for cfg and loads any cached session.
func New(cfg *config.Config) (*Client, error) {
	session, err := LoadSession(cfg.SessionPath)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.ServerEndpointAddr, "/"),
		sessionPath: cfg.SessionPath,
		session:     session,
		http:        &http.Client{Timeout: cfg.RequestTimeout},
	}, nil
}

// LoggedIn reports whether a session is cached.
func (c *Client) LoggedIn() bool { return c.session != nil }

// decodeError turns a non-2xx response into an error carrying the matching
// common sentinel, so callers can branch with errors.Is.
func decodeError(resp *http.Response) error {
	var body errorResponse
	msg := resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", common.ErrorValidation, msg)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", common.ErrorUnauthorized, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", common.ErrorConflict, msg)
	default:
		return fmt.Errorf("server error: %s", msg)
	}
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) newAuthedRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if c.session == nil {
		return nil, ErrNotLoggedIn
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(common.AuthHeaderName, common.AuthScheme+" "+c.session.AccessToken)
	return req, nil
}

func (c *Client) doAuthedJSON(ctx context.Context, method, path string, out any) error {
	req, err := c.newAuthedRequest(ctx, method, path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.postJSON(ctx, "/auth/register", map[string]string{"email": email, "password": password}, nil)
}

// Login authenticates and caches the received session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var pair tokenPairResponse
	if err := c.postJSON(ctx, "/auth/login", map[string]string{"email": email, "password": password}, &pair); err != nil {
		return err
	}
	c.session = &Session{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	return c.session.Save(c.sessionPath)
}

// Refresh rotates the cached token pair.
func (c *Client) Refresh(ctx context.Context) error {
	if c.session == nil {
		return ErrNotLoggedIn
	}
	var pair tokenPairResponse
	if err := c.postJSON(ctx, "/auth/refresh", map[string]string{"refreshToken": c.session.RefreshToken}, &pair); err != nil {
		return err
	}
	c.session = &Session{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	return c.session.Save(c.sessionPath)
}

// Logout drops the cached session.
func (c *Client) Logout() error {
	c.session = nil
	return RemoveSession(c.sessionPath)
}

// Upload sends the file at filePath as a multipart form.
func (c *Client) Upload(ctx context.Context, filePath string) (*Asset, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newAuthedRequest(ctx, http.MethodPost, "/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, decodeError(resp)
	}
	asset := &Asset{}
	if err := json.NewDecoder(resp.Body).Decode(asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// List returns every registered asset.
func (c *Client) List(ctx context.Context) ([]*Asset, error) {
	var list []*Asset
	if err := c.doAuthedJSON(ctx, http.MethodGet, "/assets", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Search returns assets matching the given substring filters. Empty filters
// match everything.
func (c *Client) Search(ctx context.Context, filename, hash, uploadedAt string) ([]*Asset, error) {
	q := url.Values{}
	if filename != "" {
		q.Set("filename", filename)
	}
	if hash != "" {
		q.Set("hash", hash)
	}
	if uploadedAt != "" {
		q.Set("uploadedAt", uploadedAt)
	}

	var list []*Asset
	if err := c.doAuthedJSON(ctx, http.MethodGet, "/search?"+q.Encode(), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Download fetches the asset for hash into destDir and returns the written
// path. The filename comes from the server's Content-Disposition header.
func (c *Client) Download(ctx context.Context, hash, destDir string) (string, error) {
	req, err := c.newAuthedRequest(ctx, http.MethodGet, "/download?hash="+url.QueryEscape(hash), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", decodeError(resp)
	}

	name := hash
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if fn := params["filename"]; fn != "" {
			name = filepath.Base(fn)
		}
	}

	dest := filepath.Join(destDir, name)
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dest, nil
}

// Delete retires the asset for hash and returns the server's confirmation.
func (c *Client) Delete(ctx context.Context, hash string) (string, error) {
	req, err := c.newAuthedRequest(ctx, http.MethodDelete, "/delete?hash="+url.QueryEscape(hash), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", decodeError(resp)
	}
	var msg messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return "", err
	}
	return msg.Message, nil
}
