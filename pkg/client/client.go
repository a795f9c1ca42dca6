// Package client is a Go client for the employee directory API. Credentials
// are passed explicitly to every call; the client keeps no token state.
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
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://localhost:5000/api"
	// FallbackMessage is reported when an error response carries no message.
	FallbackMessage      = "Something went wrong"
	errorBodyReadLimit   = 64 * 1024
	pictureField         = "profile_picture"
	defaultClientTimeout = 30 * time.Second
)

// ErrUnauthorized is returned on 401 responses. Callers should obtain new
// credentials, typically by logging in again.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response other than 401.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Credentials authenticate a single call. The zero value sends no token.
type Credentials struct {
	Token string
}

// Employee is a directory record as returned by the API.
type Employee struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Position       string    `json:"position"`
	Department     string    `json:"department"`
	Salary         float64   `json:"salary"`
	DateJoined     string    `json:"date_joined"`
	ProfilePicture string    `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// EmployeeForm is the payload of create and update calls.
type EmployeeForm struct {
	FirstName  string
	LastName   string
	Email      string
	Position   string
	Department string
	Salary     float64
	// DateJoined is a YYYY-MM-DD date.
	DateJoined string
}

// Picture is an optional profile picture upload.
type Picture struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// User is the public view of an account.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the result of a login or signup.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Credentials returns credentials carrying the session token.
func (s *Session) Credentials() Credentials {
	return Credentials{Token: s.Token}
}

// Client calls the employee directory API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API base URL, e.g. "https://directory.example.com/api".
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// New builds a client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultClientTimeout},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// List returns every employee, newest first.
func (c *Client) List(ctx context.Context, creds Credentials) ([]Employee, error) {
	var out []Employee
	if err := c.do(ctx, creds, http.MethodGet, "/employees", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a single employee.
func (c *Client) Get(ctx context.Context, creds Credentials, id string) (*Employee, error) {
	var out Employee
	if err := c.do(ctx, creds, http.MethodGet, "/employees/"+url.PathEscape(id), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search returns employees whose department or position contains query.
// An empty query returns everyone.
func (c *Client) Search(ctx context.Context, creds Credentials, query string) ([]Employee, error) {
	path := "/employees/search"
	if query != "" {
		path += "/" + url.PathEscape(query)
	}
	var out []Employee
	if err := c.do(ctx, creds, http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create adds an employee. picture may be nil.
func (c *Client) Create(ctx context.Context, creds Credentials, form EmployeeForm, picture *Picture) (*Employee, error) {
	return c.submit(ctx, creds, http.MethodPost, "/employees", form, picture)
}

// Update overwrites an employee. The stored picture is kept when picture is nil.
func (c *Client) Update(ctx context.Context, creds Credentials, id string, form EmployeeForm, picture *Picture) (*Employee, error) {
	return c.submit(ctx, creds, http.MethodPut, "/employees/"+url.PathEscape(id), form, picture)
}

// Delete removes an employee.
func (c *Client) Delete(ctx context.Context, creds Credentials, id string) error {
	return c.do(ctx, creds, http.MethodDelete, "/employees/"+url.PathEscape(id), nil, "", nil)
}

// Login exchanges an email and password for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

// Signup registers an account and returns its session.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/auth/signup", map[string]string{"name": name, "email": email, "password": password})
}

// Logout revokes the token carried by creds.
func (c *Client) Logout(ctx context.Context, creds Credentials) error {
	return c.do(ctx, creds, http.MethodPost, "/auth/logout", nil, "", nil)
}

func (c *Client) authenticate(ctx context.Context, path string, payload map[string]string) (*Session, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}
	var out Session
	if err := c.do(ctx, Credentials{}, http.MethodPost, path, bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) submit(ctx context.Context, creds Credentials, method, path string, form EmployeeForm, picture *Picture) (*Employee, error) {
	body, contentType, err := encodeForm(form, picture)
	if err != nil {
		return nil, err
	}
	var out struct {
		Employee Employee `json:"employee"`
	}
	if err := c.do(ctx, creds, method, path, body, contentType, &out); err != nil {
		return nil, err
	}
	return &out.Employee, nil
}

func encodeForm(form EmployeeForm, picture *Picture) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"first_name", form.FirstName},
		{"last_name", form.LastName},
		{"email", form.Email},
		{"position", form.Position},
		{"department", form.Department},
		{"salary", strconv.FormatFloat(form.Salary, 'f', -1, 64)},
		{"date_joined", form.DateJoined},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}
	if picture != nil && picture.Content != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, pictureField, picture.Filename))
		contentType := picture.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create picture part: %w", err)
		}
		if _, err := io.Copy(part, picture.Content); err != nil {
			return nil, "", fmt.Errorf("copy picture: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) do(ctx context.Context, creds Credentials, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: FallbackMessage}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	if err != nil {
		return apiErr
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			apiErr.Message = payload.Message
		}
		apiErr.Detail = payload.Error
	}
	return apiErr
}
