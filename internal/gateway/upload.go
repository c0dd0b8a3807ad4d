package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// ErrInvalidResponse is returned when a 2xx upload response cannot be read.
var ErrInvalidResponse = errors.New("invalid gateway response")

// ProgressFunc receives the number of body bytes sent so far and the total
// body length, or -1 when the length is unknown.
type ProgressFunc func(sent, total int64)

// UploadCSV streams a ledger file to /upload_csv as the multipart field
// "file". size is the file length, or -1 when unknown; with a known size the
// request carries a Content-Length and progress reports a total.
func (c *Client) UploadCSV(ctx context.Context, filename string, r io.Reader, size int64, progress ProgressFunc) (UploadResult, error) {
	var head bytes.Buffer
	mw := multipart.NewWriter(&head)
	if _, err := mw.CreateFormFile("file", filename); err != nil {
		return UploadResult{}, fmt.Errorf("building multipart body: %w", err)
	}
	headLen := head.Len()
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("building multipart body: %w", err)
	}
	// The closing boundary was appended after the part header; the file
	// content is streamed between the two.
	buf := head.Bytes()
	prefix, suffix := buf[:headLen], buf[headLen:]

	total := int64(-1)
	if size >= 0 {
		total = int64(len(prefix)) + size + int64(len(suffix))
	}
	body := &progressReader{
		r:        io.MultiReader(bytes.NewReader(prefix), r, bytes.NewReader(suffix)),
		total:    total,
		progress: progress,
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/upload_csv", body)
	if err != nil {
		return UploadResult{}, err
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", mw.FormDataContentType())

	data, err := c.do(req)
	if err != nil {
		return UploadResult{}, err
	}
	if len(data) == 0 {
		return UploadResult{}, fmt.Errorf("/upload_csv: %w: empty body", ErrInvalidResponse)
	}
	var out UploadResult
	if err := decodeInto("/upload_csv", data, &out); err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return out, nil
}

type progressReader struct {
	r        io.Reader
	sent     int64
	total    int64
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.progress != nil {
			p.progress(p.sent, p.total)
		}
	}
	return n, err
}
