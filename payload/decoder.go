package payload

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// Stage names the decode step that failed.
type Stage string

const (
	StageBase64 Stage = "base64" // blob is not standard base64
	StageGzip   Stage = "gzip"   // bytes are not a gzip stream of UTF-8 text
)

// excerptLen bounds the blob excerpt carried in a DecodeError.
const excerptLen = 64

// ErrInvalidUTF8 is returned when the decompressed bytes are not text.
var ErrInvalidUTF8 = errors.New("decompressed payload is not valid UTF-8")

// DecodeError reports a blob that could not be turned into text.
type DecodeError struct {
	Stage   Stage
	Excerpt string
	Length  int
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s (len=%d, %q): %v", e.Stage, e.Length, e.Excerpt, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Kind tags a decoded Message.
type Kind int

const (
	KindStructured Kind = iota // text parsed as JSON
	KindRaw                    // text that is not JSON
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Message is the result of decoding one blob.
type Message struct {
	Kind  Kind
	Value any    // parsed JSON document, set for KindStructured
	Text  string // decompressed text, always set
}

// Structured builds a structured message from decompressed JSON text.
func Structured(value any, text string) Message {
	return Message{Kind: KindStructured, Value: value, Text: text}
}

// Raw builds a message for text that is not JSON.
func Raw(text string) Message {
	return Message{Kind: KindRaw, Text: text}
}

// Decode reverses base64(gzip(text)) and classifies the text.
func Decode(blob string) (Message, error) {
	compressed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return Message{}, newDecodeError(StageBase64, blob, err)
	}

	text, err := gunzip(compressed)
	if err != nil {
		return Message{}, newDecodeError(StageGzip, blob, err)
	}

	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return Raw(text), nil
	}
	return Structured(value, text), nil
}

func gunzip(b []byte) (string, error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	defer func() { _ = zr.Close() }()

	out, err := io.ReadAll(zr)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(out) {
		return "", ErrInvalidUTF8
	}
	return string(out), nil
}

func newDecodeError(stage Stage, blob string, err error) *DecodeError {
	excerpt := blob
	if len(excerpt) > excerptLen {
		excerpt = excerpt[:excerptLen]
	}
	return &DecodeError{Stage: stage, Excerpt: excerpt, Length: len(blob), Err: err}
}

// Encode wraps text the way the feed backend does: base64(gzip(text)).
func Encode(text string) (string, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(text)); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
