// Package datauri converts between raw image bytes and RFC 2397 base64 data URIs.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned by Decode when the input is not a base64 data URI
// with a type/subtype media type.
var ErrMalformed = errors.New("malformed data uri")

// Encode returns data as "data:<mime>;base64,<payload>".
func Encode(data []byte, mime string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode splits a data URI into its payload bytes and MIME type. Media type
// parameters are kept, so Decode(Encode(b, m)) returns m unchanged.
func Decode(uri string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || header == "" {
		return nil, "", fmt.Errorf("%w: missing header/payload separator", ErrMalformed)
	}

	// header looks like "data:image/png;base64" or "data:text/plain;charset=utf-8;base64"
	_, mediaType, ok := strings.Cut(header, ":")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing scheme", ErrMalformed)
	}
	mime, ok := strings.CutSuffix(mediaType, ";base64")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing base64 marker", ErrMalformed)
	}
	typ, _, _ := strings.Cut(mime, ";")
	if !validMIME(typ) {
		return nil, "", fmt.Errorf("%w: missing type/subtype segment", ErrMalformed)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return data, mime, nil
}

func validMIME(s string) bool {
	typ, sub, ok := strings.Cut(s, "/")
	return ok && typ != "" && sub != "" && !strings.ContainsAny(s, " \t,")
}
