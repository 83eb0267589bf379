// Package output writes results to where the user asked for them.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

const (
	TargetStdout = "stdout"
	TargetStderr = "stderr"
)

// WriteError is returned when a result could not be encoded or written to
// its target.
type WriteError struct {
	Target string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write output to %s: %v", e.Target, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Encode marshals v as compact json without escaping html characters and
// without a trailing newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Write encodes v and writes it in a single write to stdout, stderr or the
// file named by target, which is created or truncated.
func Write(target string, v any, stdout, stderr io.Writer) error {
	data, err := Encode(v)
	if err != nil {
		return &WriteError{Target: target, Err: err}
	}

	switch target {
	case TargetStdout:
		_, err = stdout.Write(data)
	case TargetStderr:
		_, err = stderr.Write(data)
	default:
		err = os.WriteFile(target, data, 0644)
	}
	if err != nil {
		return &WriteError{Target: target, Err: err}
	}
	return nil
}
