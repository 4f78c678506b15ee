package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"soundpack/internal/services"
)

func TestPinFileSendsMultipartForm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kick.wav")
	if err := os.WriteFile(path, []byte("RIFFkick"), 0o644); err != nil {
		t.Fatal(err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if got := r.FormValue("pinataOptions"); got != `{"cidVersion":1}` {
			t.Errorf("pinataOptions = %q", got)
		}
		if got := r.FormValue("pinataMetadata"); got != `{"name":"kick.wav"}` {
			t.Errorf("pinataMetadata = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "kick.wav" || string(data) != "RIFFkick" {
			t.Errorf("file part %q = %q", header.Filename, data)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"IpfsHash": "bafykick", "PinSize": 8, "Timestamp": "2026-01-02T03:04:05Z"})
	}))
	defer server.Close()

	client := NewClient(Config{JWT: "secret", FileURL: server.URL, Gateway: "https://gw.example/ipfs"})
	pin, err := client.PinFile(context.Background(), path, "")
	if err != nil {
		t.Fatalf("PinFile: %v", err)
	}
	if pin.CID != "bafykick" || pin.Size != 8 {
		t.Fatalf("unexpected pin %+v", pin)
	}
	if pin.URL != "https://gw.example/ipfs/bafykick" {
		t.Fatalf("url = %q", pin.URL)
	}
}

func TestPinJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		opts, _ := body["pinataOptions"].(map[string]any)
		if opts["cidVersion"] != float64(1) {
			t.Errorf("options = %v", body["pinataOptions"])
		}
		content, _ := body["pinataContent"].(map[string]any)
		if content["title"] != "Cloud" {
			t.Errorf("content = %v", body["pinataContent"])
		}
		meta, _ := body["pinataMetadata"].(map[string]any)
		if meta["name"] != "cloud.json" {
			t.Errorf("metadata = %v", body["pinataMetadata"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"IpfsHash": "bafyjson"})
	}))
	defer server.Close()

	client := NewClient(Config{JWT: "secret", JSONURL: server.URL})
	pin, err := client.PinJSON(context.Background(), map[string]any{"title": "Cloud"}, "cloud.json")
	if err != nil {
		t.Fatalf("PinJSON: %v", err)
	}
	if pin.URL != defaultGateway+"bafyjson" {
		t.Fatalf("url = %q", pin.URL)
	}
}

func TestPinRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"IpfsHash": "bafyretry"})
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(Config{JWT: "secret", JSONURL: server.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	pin, err := client.PinJSON(context.Background(), []string{"a"}, "")
	if err != nil {
		t.Fatalf("PinJSON: %v", err)
	}
	if pin.CID != "bafyretry" || calls.Load() != 3 {
		t.Fatalf("pin=%+v calls=%d", pin, calls.Load())
	}
	if len(slept) != 2 || slept[0] != 2*time.Second {
		t.Fatalf("unexpected sleeps %v", slept)
	}
}

func TestPinDoesNotRetryAuthFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"invalid jwt"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{JWT: "bad", JSONURL: server.URL}, WithSleeper(func(time.Duration) {}))
	_, err := client.PinJSON(context.Background(), map[string]any{}, "")
	if !errors.Is(err, services.ErrPermission) {
		t.Fatalf("expected ErrPermission, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestPinRequiresJWT(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.PinJSON(context.Background(), map[string]any{}, ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if _, err := client.PinFile(context.Background(), "missing.wav", ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestPinFileMissing(t *testing.T) {
	client := NewClient(Config{JWT: "secret"})
	_, err := client.PinFile(context.Background(), filepath.Join(t.TempDir(), "gone.wav"), "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	client := NewClient(Config{}, WithRetryBackoff(time.Second, 5*time.Second))
	cases := map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 4 * time.Second, 4: 5 * time.Second}
	for attempt, want := range cases {
		if got := client.backoffDelay(attempt); got != want {
			t.Fatalf("attempt %d: got %s want %s", attempt, got, want)
		}
	}
}

func TestCheckAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/testAuthentication" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"message":"Congratulations!"}`))
	}))
	defer server.Close()

	good := NewClient(Config{JWT: "good", FileURL: server.URL + "/pinning/pinFileToIPFS"})
	if err := good.CheckAuth(context.Background()); err != nil {
		t.Fatalf("CheckAuth: %v", err)
	}
	bad := NewClient(Config{JWT: "bad", FileURL: server.URL + "/pinning/pinFileToIPFS"})
	if err := bad.CheckAuth(context.Background()); !errors.Is(err, services.ErrPermission) {
		t.Fatalf("expected ErrPermission, got %v", err)
	}
}
