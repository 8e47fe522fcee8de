package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"gagyebu/internal/core"
	applog "gagyebu/internal/log"
	"gagyebu/internal/ocr"
	"gagyebu/internal/receipt"
)

type ocrResponse struct {
	Candidate  core.CandidateTransaction `json:"candidate"`
	Text       string                    `json:"text"`
	ReceiptURL string                    `json:"receipt_url"`
}

// handleOCR runs an uploaded receipt image through recognition and parsing,
// stores the image, and returns the candidate transaction for the user to
// confirm or edit.
func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	if s.recognizer == nil {
		writeError(w, http.StatusServiceUnavailable, "ocr not configured")
		return
	}

	if err := r.ParseMultipartForm(maxReceiptBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxReceiptBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	if len(image) == 0 {
		writeError(w, http.StatusBadRequest, "empty file")
		return
	}
	if len(image) > maxReceiptBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	result, err := s.recognizer.Recognize(r.Context(), image, contentType)
	if err != nil {
		var upstream *ocr.UpstreamError
		if errors.As(err, &upstream) {
			// The recognition service's own status and body go back verbatim.
			w.WriteHeader(upstream.StatusCode)
			_, _ = w.Write([]byte(upstream.Body))
			return
		}
		writeServiceError(w, r, err)
		return
	}

	text := result.Text()
	candidate := receipt.Parse(text)

	receiptURL := ""
	if s.receipts != nil {
		url, err := s.receipts.UploadReceipt(r.Context(), userID(r), extFromContentType(contentType), contentType, image)
		if err != nil {
			// The candidate is still useful without the stored image.
			applog.FromContext(r.Context()).WarnContext(r.Context(), "receipt upload failed",
				applog.FieldError, err.Error())
		} else {
			receiptURL = url
		}
	}

	writeJSON(w, http.StatusOK, ocrResponse{
		Candidate:  candidate,
		Text:       text,
		ReceiptURL: receiptURL,
	})
}

func extFromContentType(contentType string) string {
	if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "" {
		return sub
	}
	return "jpg"
}
