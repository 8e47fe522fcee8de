package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecognizeSendsEnvelope(t *testing.T) {
	var gotSecret, gotMessage string
	var gotFile []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get("X-OCR-SECRET")
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotMessage = r.FormValue("message")
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			buf := make([]byte, 16)
			n, _ := f.Read(buf)
			gotFile = buf[:n]
			f.Close()
		}
		w.Write([]byte(`{"images":[{"fields":[{"inferText":"이마트"},{"inferText":"7,100"}]}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key")
	res, err := c.Recognize(context.Background(), []byte("fakepng"), "image/png")
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}

	if gotSecret != "secret-key" {
		t.Errorf("secret header = %q", gotSecret)
	}
	if string(gotFile) != "fakepng" {
		t.Errorf("file bytes = %q", gotFile)
	}

	var msg struct {
		Version   string `json:"version"`
		RequestID string `json:"requestId"`
		Timestamp int64  `json:"timestamp"`
		Images    []struct {
			Format string `json:"format"`
			Name   string `json:"name"`
		} `json:"images"`
	}
	if err := json.Unmarshal([]byte(gotMessage), &msg); err != nil {
		t.Fatalf("message field: %v", err)
	}
	if msg.Version != "V2" {
		t.Errorf("version = %q", msg.Version)
	}
	if !strings.HasPrefix(msg.RequestID, "receipt-") {
		t.Errorf("requestId = %q", msg.RequestID)
	}
	if msg.Timestamp == 0 {
		t.Error("timestamp missing")
	}
	if len(msg.Images) != 1 || msg.Images[0].Format != "png" || msg.Images[0].Name != "receipt" {
		t.Errorf("images = %+v", msg.Images)
	}

	if got := res.Text(); got != "이마트\n7,100" {
		t.Errorf("text = %q", got)
	}
}

func TestRecognizeUpstreamErrorPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code":"0011","message":"invalid secret"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wrong")
	_, err := c.Recognize(context.Background(), []byte("x"), "image/jpeg")

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want UpstreamError", err)
	}
	if ue.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d", ue.StatusCode)
	}
	if !strings.Contains(ue.Body, "invalid secret") {
		t.Errorf("body = %q", ue.Body)
	}
}

func TestTextEmptyResult(t *testing.T) {
	if got := (Result{}).Text(); got != "" {
		t.Errorf("text = %q, want empty", got)
	}
}
