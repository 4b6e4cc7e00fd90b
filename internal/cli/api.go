package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/dmitrijs2005/filemill/internal/files"
)

// Client wraps the server's HTTP API. After a successful Login, the
// bearer token is attached to every subsequent request.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	return &Client{http: resty.New().SetBaseURL(baseURL)}
}

type ToolInfo struct {
	Name             string   `json:"name"`
	BriefDescription string   `json:"briefDescription"`
	LongDescription  string   `json:"longDescription"`
	ContentTypes     []string `json:"contentTypes,omitempty"`
}

type ProcessResult struct {
	RequestID   string `json:"requestId"`
	OutputURI   string `json:"outputUri"`
	ContentType string `json:"contentType"`
	Tool        string `json:"tool"`
}

type UserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// apiError extracts the server's error message from a non-2xx response.
func apiError(resp *resty.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		return fmt.Errorf("server: %s (%s)", body.Error, resp.Status())
	}
	return fmt.Errorf("server: %s", resp.Status())
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	resp, err := c.http.R().SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		Post("/api/login")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	c.http.SetAuthToken(out.Token)
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Post("/api/logout")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	c.http.SetAuthToken("")
	return nil
}

func (c *Client) AddUser(ctx context.Context, email, password string, isAdmin bool) (*UserInfo, error) {
	var out UserInfo
	resp, err := c.http.R().SetContext(ctx).
		SetBody(map[string]any{"email": email, "password": password, "isAdmin": isAdmin}).
		SetResult(&out).
		Post("/api/users")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, email string) error {
	resp, err := c.http.R().SetContext(ctx).Delete("/api/users/" + email)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

func (c *Client) Emails(ctx context.Context, admins bool) ([]string, error) {
	path := "/api/users/common"
	if admins {
		path = "/api/users/admins"
	}
	var out []string
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get(path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return out, nil
}

func (c *Client) AddFile(ctx context.Context, name, contentType string, content []byte, overwrite bool) (string, error) {
	var out struct {
		URI string `json:"uri"`
	}
	resp, err := c.http.R().SetContext(ctx).
		SetBody(map[string]any{"name": name, "contentType": contentType, "content": content, "overwrite": overwrite}).
		SetResult(&out).
		Post("/api/files")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", apiError(resp)
	}
	return out.URI, nil
}

func (c *Client) Files(ctx context.Context) ([]files.FileInfo, error) {
	return c.listInfos(ctx, "/api/files")
}

func (c *Client) Outputs(ctx context.Context) ([]files.FileInfo, error) {
	return c.listInfos(ctx, "/api/outputs")
}

func (c *Client) listInfos(ctx context.Context, path string) ([]files.FileInfo, error) {
	var out []files.FileInfo
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get(path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return out, nil
}

func (c *Client) FileContent(ctx context.Context, name string) ([]byte, string, error) {
	return c.content(ctx, "/api/files/content", name)
}

func (c *Client) OutputContent(ctx context.Context, name string) ([]byte, string, error) {
	return c.content(ctx, "/api/outputs/content", name)
}

func (c *Client) content(ctx context.Context, path, name string) ([]byte, string, error) {
	resp, err := c.http.R().SetContext(ctx).SetQueryParam("name", name).Get(path)
	if err != nil {
		return nil, "", err
	}
	if resp.IsError() {
		return nil, "", apiError(resp)
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

func (c *Client) DeleteFile(ctx context.Context, name string) error {
	return c.delete(ctx, "/api/files", name)
}

func (c *Client) DeleteOutput(ctx context.Context, name string) error {
	return c.delete(ctx, "/api/outputs", name)
}

func (c *Client) delete(ctx context.Context, path, name string) error {
	resp, err := c.http.R().SetContext(ctx).SetQueryParam("name", name).Delete(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

func (c *Client) Tools(ctx context.Context, contentType string) ([]ToolInfo, error) {
	var out []ToolInfo
	req := c.http.R().SetContext(ctx).SetResult(&out)
	if contentType != "" {
		req.SetQueryParam("contentType", contentType)
	}
	resp, err := req.Get("/api/tools")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return out, nil
}

func (c *Client) Process(ctx context.Context, name, tool string) (*ProcessResult, error) {
	var out ProcessResult
	resp, err := c.http.R().SetContext(ctx).
		SetBody(map[string]string{"name": name, "tool": tool}).
		SetResult(&out).
		Post("/api/process")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &out, nil
}
