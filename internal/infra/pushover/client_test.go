package pushover_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"homectl/internal/application"
	"homectl/internal/infra/pushover"
)

func TestClient_Notify(t *testing.T) {
	var form map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = map[string]string{
			"token":    r.PostForm.Get("token"),
			"user":     r.PostForm.Get("user"),
			"message":  r.PostForm.Get("message"),
			"priority": r.PostForm.Get("priority"),
		}
		w.Write([]byte(`{"status":1}`))
	}))
	defer server.Close()

	client := pushover.NewClientWithURL("tok", "usr", server.URL)
	if err := client.Notify(context.Background(), application.LevelWarning, "Failed to connect to device. Using simulation mode."); err != nil {
		t.Fatalf("Notify error: %v", err)
	}

	if form["token"] != "tok" || form["user"] != "usr" {
		t.Errorf("credentials: got %v", form)
	}
	if form["message"] != "Failed to connect to device. Using simulation mode." {
		t.Errorf("message: got %q", form["message"])
	}
	if form["priority"] != "0" {
		t.Errorf("priority: got %q, want 0", form["priority"])
	}
}

func TestClient_NotifyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusBadRequest)
	}))
	defer server.Close()

	client := pushover.NewClientWithURL("tok", "usr", server.URL)
	if err := client.Notify(context.Background(), application.LevelError, "x"); err == nil {
		t.Error("expected error for 400 response")
	}
}

func TestClient_NotConfigured(t *testing.T) {
	client := pushover.NewClientWithURL("", "", "http://127.0.0.1:1")
	if err := client.Notify(context.Background(), application.LevelInfo, "x"); err != nil {
		t.Errorf("unconfigured client should be silent, got %v", err)
	}
}

func TestClient_PriorityByLevel(t *testing.T) {
	tests := []struct {
		level application.Level
		want  string
	}{
		{application.LevelError, "1"},
		{application.LevelWarning, "0"},
		{application.LevelSuccess, "-1"},
		{application.LevelInfo, "-1"},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				r.ParseForm()
				got = r.PostForm.Get("priority")
				w.Write([]byte(`{"status":1}`))
			}))
			defer server.Close()

			client := pushover.NewClientWithURL("tok", "usr", server.URL)
			if err := client.Notify(context.Background(), tt.level, "x"); err != nil {
				t.Fatalf("Notify error: %v", err)
			}
			if got != tt.want {
				t.Errorf("priority: got %q, want %q", got, tt.want)
			}
		})
	}
}
