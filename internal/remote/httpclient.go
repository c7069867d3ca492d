package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cuemby/syncctl/internal/syncerr"
)

// httpClient is the only concern in this module with no analogue
// anywhere in the example pack: none of the retrieved repositories
// talk to a document-management REST API, so this speaks a small
// JSON/HTTP protocol directly over net/http rather than adopting a
// library the pack never exercises. See DESIGN.md.
type httpClient struct {
	serverURL  string
	user       string
	deviceID   string
	repository string
	token      string
	password   string
	hc         *http.Client
}

// NewHTTPClient builds a Client bound to serverURL (already normalized
// with a trailing '/'), authenticating with either token or password —
// exactly one must be non-empty, matching ServerBinding's invariant.
func NewHTTPClient(serverURL, user, deviceID, repository, token, password string) Client {
	return &httpClient{
		serverURL:  serverURL,
		user:       user,
		deviceID:   deviceID,
		repository: repository,
		token:      token,
		password:   password,
		hc:         &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *httpClient) ServerURL() string { return c.serverURL }

func (c *httpClient) RequestToken() (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.call(http.MethodPost, "authentication/token", nil, &resp); err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

func (c *httpClient) RevokeToken() error {
	return c.call(http.MethodDelete, "authentication/token", nil, nil)
}

func (c *httpClient) GetInfo(path string, fetchParentUID bool) (*RemoteInfo, error) {
	endpoint := fmt.Sprintf("api/v1/path/%s", url.PathEscape(path))
	if fetchParentUID {
		endpoint += "?fetch-parent-uid=true"
	}
	var info RemoteInfo
	if err := c.call(http.MethodGet, endpoint, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *httpClient) CheckWritable(path string) (bool, error) {
	var resp struct {
		Writable bool `json:"writable"`
	}
	endpoint := fmt.Sprintf("api/v1/path/%s/@permissions", url.PathEscape(path))
	if err := c.call(http.MethodGet, endpoint, nil, &resp); err != nil {
		return false, err
	}
	return resp.Writable, nil
}

func (c *httpClient) IsAddonInstalled() (bool, error) {
	var resp struct {
		Installed bool `json:"installed"`
	}
	if err := c.call(http.MethodGet, "api/v1/addon-status", nil, &resp); err != nil {
		return false, err
	}
	return resp.Installed, nil
}

func (c *httpClient) RegisterAsRoot(uid string) (bool, error) {
	var resp struct {
		OK bool `json:"ok"`
	}
	endpoint := fmt.Sprintf("api/v1/id/%s/@root", url.PathEscape(uid))
	if err := c.call(http.MethodPost, endpoint, nil, &resp); err != nil {
		return false, err
	}
	return resp.OK, nil
}

func (c *httpClient) UnregisterAsRoot(uid string) error {
	endpoint := fmt.Sprintf("api/v1/id/%s/@root", url.PathEscape(uid))
	return c.call(http.MethodDelete, endpoint, nil, nil)
}

func (c *httpClient) call(method, endpoint string, body interface{}, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.serverURL+endpoint, reqBody)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("X-Authentication-Token", c.token)
	} else {
		req.SetBasicAuth(c.user, c.password)
	}
	req.Header.Set("X-Device-Id", c.deviceID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return syncerr.Wrap(syncerr.NetworkError, err, "%s %s", method, endpoint)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return syncerr.New(syncerr.Unauthorized, "%s %s: status %d", method, endpoint, resp.StatusCode)
	case http.StatusNotFound:
		return syncerr.New(syncerr.NoSuchRemoteRoot, "%s %s: status %d", method, endpoint, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return syncerr.New(syncerr.NetworkError, "%s %s: status %d", method, endpoint, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
