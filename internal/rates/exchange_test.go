package rates

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestJPYToUSD_FetchesFromEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"base":"JPY","rates":{"USD":0.0071,"EUR":0.0062}}`)
	}))
	defer srv.Close()

	s := New(srv.URL, 0.0067, time.Hour, nil)
	rate, err := s.JPYToUSD(context.Background())
	if err != nil {
		t.Fatalf("JPYToUSD() error = %v", err)
	}
	if rate != 0.0071 {
		t.Errorf("rate = %v, want 0.0071", rate)
	}
}

func TestJPYToUSD_FallbackOnUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New(srv.URL, 0.0067, time.Hour, nil)
	rate, err := s.JPYToUSD(context.Background())
	if err != nil {
		t.Fatalf("fallback should not surface an error, got %v", err)
	}
	if rate != 0.0067 {
		t.Errorf("rate = %v, want fallback 0.0067", rate)
	}
}

func TestJPYToUSD_NoURLUsesFallback(t *testing.T) {
	s := New("", 0.0067, time.Hour, nil)
	rate, err := s.JPYToUSD(context.Background())
	if err != nil {
		t.Fatalf("JPYToUSD() error = %v", err)
	}
	if rate != 0.0067 {
		t.Errorf("rate = %v, want fallback 0.0067", rate)
	}
}

func TestJPYToUSD_MissingUSDIsAnUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rates":{"EUR":0.0062}}`)
	}))
	defer srv.Close()

	s := New(srv.URL, 0.0067, time.Hour, nil)
	rate, _ := s.JPYToUSD(context.Background())
	if rate != 0.0067 {
		t.Errorf("rate = %v, want fallback 0.0067", rate)
	}
}
