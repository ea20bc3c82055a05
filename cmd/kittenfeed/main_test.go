package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		args []string
		want command
	}{
		{nil, commandServe},
		{[]string{"serve"}, commandServe},
		{[]string{"migrate"}, commandMigrate},
		{[]string{"healthcheck"}, commandHealthcheck},
		{[]string{"bogus"}, commandServe},
	}
	for _, tt := range tests {
		if got := parseCommand(tt.args); got != tt.want {
			t.Errorf("parseCommand(%v) = %q; want %q", tt.args, got, tt.want)
		}
	}
}

func TestHealthURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"", "http://localhost:8080/api/health"},
		{":9090", "http://localhost:9090/api/health"},
		{"0.0.0.0:8081", "http://localhost:8081/api/health"},
		{"127.0.0.1:7000", "http://127.0.0.1:7000/api/health"},
	}
	for _, tt := range tests {
		if got := healthURL(tt.addr); got != tt.want {
			t.Errorf("healthURL(%q) = %q; want %q", tt.addr, got, tt.want)
		}
	}
}

func TestRunHealthcheck(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	if err := runHealthcheck(ok.URL); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()
	if err := runHealthcheck(bad.URL); err == nil {
		t.Error("expected error for 503")
	}
}
