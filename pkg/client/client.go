// Package client is the Go SDK for the Academy HTTP API. It wraps the
// JSON endpoints with typed methods and carries the bearer token issued
// at login.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Client talks to the Academy API server at baseURL.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// ClientOptions configures SDK client construction.
type ClientOptions struct {
	HTTPClient *http.Client
	Token      string
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithToken sets the bearer token used for authenticated calls.
func WithToken(token string) ClientOption {
	return func(opts *ClientOptions) {
		opts.Token = token
	}
}

// NewClient creates an SDK client for the API server at baseURL. An
// http.Client is created automatically when one is not supplied.
func NewClient(baseURL string, optFns ...ClientOption) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Client{
		baseURL: baseURL,
		http:    opts.HTTPClient,
		token:   opts.Token,
	}
}

// SetToken replaces the bearer token, e.g. after login.
func (c *Client) SetToken(token string) { c.token = token }

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody struct {
			Error string `json:"error"`
		}
		message := resp.Status
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Error != "" {
			message = errBody.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Register creates an account and signs it in. The returned token is
// installed on the client.
func (c *Client) Register(ctx context.Context, email, fullName, password string) (string, *User, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"email":     email,
		"full_name": fullName,
		"password":  password,
	}, &resp)
	if err != nil {
		return "", nil, err
	}
	c.token = resp.Token
	return resp.Token, &resp.User, nil
}

// Login authenticates with email and password. The returned token is
// installed on the client.
func (c *Client) Login(ctx context.Context, email, password string) (string, *User, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return "", nil, err
	}
	c.token = resp.Token
	return resp.Token, &resp.User, nil
}

// Logout revokes the current session and drops the client's token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.token = ""
	return err
}

// WhoAmI returns the calling account.
func (c *Client) WhoAmI(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/auth/whoami", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListCourses returns the published catalog with the caller's enrollment
// state and progress rollups.
func (c *Client) ListCourses(ctx context.Context) ([]CourseSummary, error) {
	var courses []CourseSummary
	if err := c.do(ctx, http.MethodGet, "/api/courses", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// GetCourse returns one course with its modules and lessons.
func (c *Client) GetCourse(ctx context.Context, slug string) (*Course, error) {
	var course Course
	if err := c.do(ctx, http.MethodGet, "/api/courses/"+url.PathEscape(slug), nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// RecordProgress upserts the watch position for a lesson.
func (c *Client) RecordProgress(ctx context.Context, lessonID string, position int, completed bool) error {
	return c.do(ctx, http.MethodPut, "/api/progress/"+url.PathEscape(lessonID), map[string]any{
		"position":  position,
		"completed": completed,
	}, nil)
}

// RequestAccess files an access request for a course.
func (c *Client) RequestAccess(ctx context.Context, courseID string) (*AccessRequestReceipt, error) {
	var receipt AccessRequestReceipt
	err := c.do(ctx, http.MethodPost, "/api/courses/"+url.PathEscape(courseID)+"/request-access", nil, &receipt)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}
