package userservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kalado/authentication/internal/core/domain"
)

func TestClient_GetUserProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/getProfile" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch r.URL.Query().Get("userId") {
		case "1":
			_, _ = w.Write([]byte(`{"id":1,"firstName":"Ada","lastName":"Lovelace","phoneNumber":"+16502530000","blocked":true}`))
		case "2":
			w.WriteHeader(http.StatusNotFound)
		case "3":
			_, _ = w.Write([]byte(`null`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	ctx := context.Background()

	p, err := c.GetUserProfile(ctx, 1)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.FirstName != "Ada" || p.PhoneNumber != "+16502530000" || !p.Blocked {
		t.Fatalf("unexpected profile: %+v", p)
	}

	for _, id := range []int64{2, 3} {
		p, err := c.GetUserProfile(ctx, id)
		if err != nil || p != nil {
			t.Fatalf("id %d: expected (nil, nil), got (%+v, %v)", id, p, err)
		}
	}

	var se *StatusError
	if _, err := c.GetUserProfile(ctx, 4); !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 StatusError, got %v", err)
	}
}

func TestClient_CreateProfiles(t *testing.T) {
	got := map[string]map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		got[r.URL.Path] = body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	if err := c.CreateUser(ctx, domain.UserProfile{ID: 5, Username: "u@x.com", FirstName: "U"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := c.CreateAdmin(ctx, domain.AdminProfile{ID: 6, FirstName: "A", PhoneNumber: "+1"}); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	if u := got["/user"]; u["id"] != float64(5) || u["firstName"] != "U" {
		t.Fatalf("unexpected user payload: %v", u)
	}
	if a := got["/user/admin"]; a["id"] != float64(6) || a["phoneNumber"] != "+1" {
		t.Fatalf("unexpected admin payload: %v", a)
	}
}

func TestClient_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	for i := 0; i < 5; i++ {
		_ = c.CreateUser(context.Background(), domain.UserProfile{ID: 1})
	}
	if err := c.CreateUser(context.Background(), domain.UserProfile{ID: 1}); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if calls.Load() != 5 {
		t.Fatalf("open breaker must not reach the server, got %d calls", calls.Load())
	}
}

func TestClient_ClientErrorsDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	for i := 0; i < 10; i++ {
		err := c.CreateUser(context.Background(), domain.UserProfile{ID: 1})
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("breaker opened on client errors")
		}
	}
}
