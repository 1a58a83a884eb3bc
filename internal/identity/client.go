package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ValidationStatus is the three-way outcome of a user existence check.
// Not-found and transport failure are deliberately distinct even though the
// filter folds both into "do not block the request": only NotFound triggers
// a registration attempt.
type ValidationStatus int

const (
	// StatusFound means a user record exists for the id.
	StatusFound ValidationStatus = iota
	// StatusNotFound means the user service answered and no record exists.
	StatusNotFound
	// StatusUnavailable means the check could not be completed.
	StatusUnavailable
)

// Registration is the payload sent to the user service when a subject is
// seen for the first time.
type Registration struct {
	SubjectID string `json:"subject_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// The user store authenticates through the identity provider, not this
// credential; registration still requires one.
const placeholderPassword = "dummy@123123"

// NewRegistration builds the registration payload from token claims.
func NewRegistration(claims Claims) Registration {
	return Registration{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Password:  placeholderPassword,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}
}

// UserClient talks to the user service over HTTP.
type UserClient struct {
	baseURL string
	client  *http.Client
}

// NewUserClient constructs a UserClient with a bounded per-call timeout.
func NewUserClient(baseURL string, timeout time.Duration) *UserClient {
	return &UserClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Validate reports whether a user record exists for the id. A 404 from the
// user service maps to StatusNotFound, not an error.
func (c *UserClient) Validate(ctx context.Context, userID string) (ValidationStatus, error) {
	url := fmt.Sprintf("%s/api/users/%s/validate", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return StatusUnavailable, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return StatusUnavailable, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return StatusNotFound, nil
	case resp.StatusCode >= 300:
		return StatusUnavailable, fmt.Errorf("validate returned status %d", resp.StatusCode)
	}

	var exists bool
	if err := json.NewDecoder(resp.Body).Decode(&exists); err != nil {
		return StatusUnavailable, fmt.Errorf("decode validate response: %w", err)
	}
	if !exists {
		return StatusNotFound, nil
	}
	return StatusFound, nil
}

// Register creates a user record for the claims. A conflict response means
// another request won the registration race; that counts as success.
func (c *UserClient) Register(ctx context.Context, reg Registration) error {
	body, err := json.Marshal(reg)
	if err != nil {
		return err
	}

	url := c.baseURL + "/api/users/register"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		// Duplicate registration resolved to the existing record.
		return nil
	default:
		return fmt.Errorf("register returned status %d", resp.StatusCode)
	}
}
