// Package userservice is an HTTP client for the marketplace user service,
// which owns user and admin profiles.
package userservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kalado/authentication/internal/core/domain"
)

const defaultTimeout = 5 * time.Second

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("user service returned %d: %s", e.Code, e.Body)
}

// Client implements ports.ProfileService. Calls go through a circuit breaker
// so a failing user service does not stall logins and registrations.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "user-service",
			MaxRequests: 5,
			Interval:    30 * time.Second,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 5 && failureRatio >= 0.6
			},
			// Client errors mean the service is up.
			IsSuccessful: func(err error) bool {
				var se *StatusError
				if errors.As(err, &se) {
					return se.Code < http.StatusInternalServerError
				}
				return err == nil
			},
		}),
	}
}

type userDTO struct {
	ID          int64  `json:"id"`
	Username    string `json:"username,omitempty"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Blocked     bool   `json:"blocked"`
}

type adminDTO struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
}

// GetUserProfile returns (nil, nil) when the user service has no profile.
func (c *Client) GetUserProfile(ctx context.Context, id int64) (*domain.UserProfile, error) {
	q := url.Values{"userId": {strconv.FormatInt(id, 10)}}
	body, err := c.do(ctx, http.MethodGet, "/user/getProfile?"+q.Encode(), nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var dto userDTO
	if err := json.Unmarshal(trimmed, &dto); err != nil {
		return nil, fmt.Errorf("decode user profile: %w", err)
	}
	if dto.ID == 0 {
		dto.ID = id
	}
	return &domain.UserProfile{
		ID:          dto.ID,
		Username:    dto.Username,
		FirstName:   dto.FirstName,
		LastName:    dto.LastName,
		PhoneNumber: dto.PhoneNumber,
		Blocked:     dto.Blocked,
	}, nil
}

func (c *Client) CreateUser(ctx context.Context, p domain.UserProfile) error {
	_, err := c.do(ctx, http.MethodPost, "/user", userDTO{
		ID:          p.ID,
		Username:    p.Username,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		PhoneNumber: p.PhoneNumber,
	})
	return err
}

func (c *Client) CreateAdmin(ctx context.Context, p domain.AdminProfile) error {
	_, err := c.do(ctx, http.MethodPost, "/user/admin", adminDTO{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		PhoneNumber: p.PhoneNumber,
	})
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	out, err := c.cb.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var reader io.Reader
		if payload != nil {
			buf, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("encode request: %w", err)
			}
			reader = bytes.NewReader(buf)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("user service %s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}
