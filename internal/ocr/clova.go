// Package ocr calls the CLOVA receipt OCR endpoint and flattens its
// response into plain text for the parser.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "gagyebu/internal/log"
)

// UpstreamError carries the OCR provider's response through unchanged so
// callers can relay status and body verbatim.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ocr upstream returned %d: %s", e.StatusCode, e.Body)
}

// Result is the subset of the CLOVA response the application reads.
type Result struct {
	Images []struct {
		Fields []struct {
			InferText string `json:"inferText"`
		} `json:"fields"`
	} `json:"images"`
}

// Text joins every recognized field with newlines, first image only. The
// parser works line by line on this output.
func (r Result) Text() string {
	if len(r.Images) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.Images[0].Fields))
	for _, f := range r.Images[0].Fields {
		parts = append(parts, f.InferText)
	}
	return strings.Join(parts, "\n")
}

type Client struct {
	url        string
	secret     string
	httpClient *http.Client
	logger     *applog.Logger
}

func NewClient(url, secret string) *Client {
	return &Client{
		url:    url,
		secret: secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentOCR),
	}
}

type message struct {
	Version   string         `json:"version"`
	RequestID string         `json:"requestId"`
	Timestamp int64          `json:"timestamp"`
	Images    []messageImage `json:"images"`
}

type messageImage struct {
	Format string `json:"format"`
	Name   string `json:"name"`
}

// Recognize sends the image as multipart form data alongside the V2
// message envelope the provider expects.
func (c *Client) Recognize(ctx context.Context, image []byte, contentType string) (Result, error) {
	started := time.Now()

	format := "jpg"
	if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "" {
		format = sub
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "receipt."+format)
	if err != nil {
		return Result{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return Result{}, fmt.Errorf("write image: %w", err)
	}

	msg := message{
		Version:   "V2",
		RequestID: "receipt-" + uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Images:    []messageImage{{Format: format, Name: "receipt"}},
	}
	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return Result{}, fmt.Errorf("marshal message: %w", err)
	}
	if err := mw.WriteField("message", string(msgJSON)); err != nil {
		return Result{}, fmt.Errorf("write message field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Result{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-OCR-SECRET", c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call ocr endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read ocr response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return Result{}, fmt.Errorf("parse ocr response: %w", err)
	}

	c.logger.InfoContext(ctx, "receipt recognized",
		applog.FieldOperation, applog.OpRecognize,
		"image_bytes", len(image),
		applog.FieldDuration, time.Since(started).Milliseconds())
	return result, nil
}
