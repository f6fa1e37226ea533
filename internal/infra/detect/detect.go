// Package detect holds the pieces shared by every provider adapter:
// HTTP client construction, timeout classification, multipart encoding
// and the cold-start retry combinator.
package detect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"time"
)

// DefaultTimeout is the per-call provider timeout.
const DefaultTimeout = 15 * time.Second

// NewHTTPClient builds the client used by the adapters. A zero timeout
// falls back to DefaultTimeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// IsTimeout reports whether err is a network timeout or a deadline hit.
// Adapters convert these to UNCERTAIN results instead of failing.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// MultipartFile encodes a single file part plus optional form fields the
// way the detection providers expect their uploads. Returns the encoded
// body and the Content-Type header value to send with it.
func MultipartFile(field, filename, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	fw, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}
