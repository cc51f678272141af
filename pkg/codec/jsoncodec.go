// pkg/codec/jsoncodec.go
package codec

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Codec encodes response payloads.
type Codec interface {
	Marshal(v any) ([]byte, error)
	ContentType() string
}

type jsonCodec struct{}

var JSON Codec = jsonCodec{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (jsonCodec) ContentType() string { return "application/json; charset=utf-8" }

// Write encodes v with c and writes it with status. contentType, when set,
// replaces the codec's own content type. Raw []byte and string payloads are
// written as-is.
func Write(w http.ResponseWriter, c Codec, status int, contentType string, v any) error {
	var body []byte
	switch p := v.(type) {
	case []byte:
		body = p
	case string:
		body = []byte(p)
		if contentType == "" {
			contentType = "text/plain; charset=utf-8"
		}
	default:
		b, err := c.Marshal(v)
		if err != nil {
			return err
		}
		body = b
	}
	if contentType == "" {
		contentType = c.ContentType()
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}
