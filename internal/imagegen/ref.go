package imagegen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"teleimage/internal/datauri"
)

const fallbackMIME = "image/png"

// ImageRef points at generated image data. It is either a URLImage or an InlineImage.
type ImageRef interface {
	isImageRef()
}

// URLImage is an image the provider hosts at URL.
type URLImage struct {
	URL string
}

// InlineImage is an image the provider returned in the response body.
type InlineImage struct {
	Data []byte
	MIME string
}

func (URLImage) isImageRef()    {}
func (InlineImage) isImageRef() {}

// DataURI materialises ref as a base64 data URI, downloading it first when needed.
func (c *Client) DataURI(ctx context.Context, ref ImageRef) (string, error) {
	switch r := ref.(type) {
	case InlineImage:
		mime := r.MIME
		if mime == "" {
			mime = sniffMIME(r.Data)
		}
		return datauri.Encode(r.Data, mime), nil
	case URLImage:
		data, mime, err := c.fetch(ctx, r.URL)
		if err != nil {
			return "", err
		}
		return datauri.Encode(data, mime), nil
	default:
		return "", &GenerationError{Err: fmt.Errorf("unsupported image reference %T", ref)}
	}
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", &GenerationError{Err: fmt.Errorf("build image request: %w", err)}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", &GenerationError{Err: fmt.Errorf("fetch image: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", &GenerationError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read image: %w", err)}
	}
	if len(body) > maxImageBytes {
		return nil, "", &GenerationError{StatusCode: resp.StatusCode, Err: fmt.Errorf("image exceeds %d bytes", maxImageBytes)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &GenerationError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			Err:        fmt.Errorf("failed to fetch image from %s", url),
		}
	}

	mime := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.TrimSpace(mime)
	if mime == "" {
		mime = fallbackMIME
	}
	return body, mime, nil
}

func sniffMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return fallbackMIME
	}
	return mime
}
