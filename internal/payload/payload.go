// Package payload carries JSON documents through string signals.
//
// Signals never look inside their payloads. This package is the encoding
// side for collaborators that want structured data on a Signal[string]:
// Encode builds a document from path/value pairs and Bind connects a slot
// that extracts one path from every emitted document.
package payload

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/sigslot/internal/logging"
	"github.com/dshills/sigslot/internal/signal"
)

// Errors returned by payload operations.
var (
	// ErrOddPairs is returned when Encode gets a path without a value.
	ErrOddPairs = errors.New("payload: odd number of path/value arguments")

	// ErrInvalidPath is returned when a path argument is not a string.
	ErrInvalidPath = errors.New("payload: path must be a string")
)

// Encode builds a JSON document from alternating path and value arguments.
// Paths use sjson syntax, so "user.name" creates nested objects.
//
//	doc, _ := payload.Encode("event", "saved", "file.lines", 42)
//	// {"event":"saved","file":{"lines":42}}
func Encode(pairs ...any) (string, error) {
	if len(pairs)%2 != 0 {
		return "", ErrOddPairs
	}

	doc := "{}"
	for i := 0; i < len(pairs); i += 2 {
		path, ok := pairs[i].(string)
		if !ok {
			return "", fmt.Errorf("%w: argument %d is %T", ErrInvalidPath, i, pairs[i])
		}

		var err error
		doc, err = sjson.Set(doc, path, pairs[i+1])
		if err != nil {
			return "", fmt.Errorf("payload: setting %q: %w", path, err)
		}
	}
	return doc, nil
}

// MustEncode is like Encode but panics on error.
func MustEncode(pairs ...any) string {
	doc, err := Encode(pairs...)
	if err != nil {
		panic(err)
	}
	return doc
}

// Set returns doc with the value at path replaced.
func Set(doc, path string, value any) (string, error) {
	return sjson.Set(doc, path, value)
}

// Get returns the value at path in doc.
func Get(doc, path string) gjson.Result {
	return gjson.Get(doc, path)
}

// Valid reports whether doc is well-formed JSON.
func Valid(doc string) bool {
	return gjson.Valid(doc)
}

// BindOption configures Bind.
type BindOption func(*binding)

type binding struct {
	logger   *logging.Logger
	required bool
}

// WithLogger sets the logger that reports skipped payloads.
func WithLogger(l *logging.Logger) BindOption {
	return func(b *binding) {
		b.logger = l
	}
}

// Required skips documents in which path does not exist.
func Required() BindOption {
	return func(b *binding) {
		b.required = true
	}
}

// Bind connects fn to sig so that it receives the value at path of every
// emitted document. Invalid JSON is skipped and logged at warn level.
func Bind(sig *signal.Signal[string], path string, fn func(gjson.Result), opts ...BindOption) *signal.Connection {
	b := binding{}
	for _, opt := range opts {
		opt(&b)
	}
	if b.logger == nil {
		b.logger = logging.Default().WithComponent("payload")
	}
	logger := b.logger.WithField("signal", sig.Name())

	return sig.ConnectFunc(func(doc string) {
		if !gjson.Valid(doc) {
			logger.Warn("skipping invalid JSON payload (%d bytes)", len(doc))
			return
		}
		res := gjson.Get(doc, path)
		if b.required && !res.Exists() {
			logger.Debug("payload has no %q", path)
			return
		}
		fn(res)
	})
}

// Pretty returns doc indented for display.
func Pretty(doc string) string {
	return string(pretty.Pretty([]byte(doc)))
}
