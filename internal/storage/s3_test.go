package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testS3Config(endpoint string) S3Config {
	return S3Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	}
}

func TestNewS3Store(t *testing.T) {
	store, err := NewS3Store(testS3Config("http://localhost:4566"))
	if err != nil {
		t.Fatalf("NewS3Store() error = %v", err)
	}

	if store.bucket != "test-bucket" {
		t.Errorf("bucket = %v, want test-bucket", store.bucket)
	}
	if store.region != "us-east-1" {
		t.Errorf("region = %v, want us-east-1", store.region)
	}
}

func TestS3Store_Put_MockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT method, got %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "/test-key.jpeg") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read body: %v", err)
		}
		if string(body) != "jpeg bytes" {
			t.Errorf("unexpected body: %s", string(body))
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store, err := NewS3Store(testS3Config(server.URL))
	if err != nil {
		t.Fatalf("NewS3Store() error = %v", err)
	}

	if err := store.Put(context.Background(), "test-key.jpeg", []byte("jpeg bytes")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
}

func TestS3Store_Delete_MockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE method, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	store, err := NewS3Store(testS3Config(server.URL))
	if err != nil {
		t.Fatalf("NewS3Store() error = %v", err)
	}

	if err := store.Delete(context.Background(), "test-key.jpeg"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestS3Store_DeleteBatch_MockServer(t *testing.T) {
	var sawPost bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Query().Has("delete") {
			sawPost = true
			body, _ := io.ReadAll(r.Body)
			for _, key := range []string{"a.jpeg", "b.jpeg"} {
				if !strings.Contains(string(body), key) {
					t.Errorf("batch body missing key %s", key)
				}
			}
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></DeleteResult>`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store, err := NewS3Store(testS3Config(server.URL))
	if err != nil {
		t.Fatalf("NewS3Store() error = %v", err)
	}

	if err := store.DeleteBatch(context.Background(), []string{"a.jpeg", "b.jpeg"}); err != nil {
		t.Fatalf("DeleteBatch() error = %v", err)
	}
	if !sawPost {
		t.Error("expected a DeleteObjects POST request")
	}
}

func TestS3Store_DeleteBatch_Empty(t *testing.T) {
	store, err := NewS3Store(testS3Config("http://localhost:4566"))
	if err != nil {
		t.Fatalf("NewS3Store() error = %v", err)
	}

	// Must not issue any request for an empty batch.
	if err := store.DeleteBatch(context.Background(), nil); err != nil {
		t.Fatalf("DeleteBatch(nil) error = %v", err)
	}
}
