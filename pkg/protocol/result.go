package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

// Envelope keys the Result type owns. Everything else is payload.
const (
	KeySuccess = "success"
	KeyMessage = "message"
	KeyError   = "error"
	KeyKind    = "kind"
	KeyStdout  = "stdout"
	KeyStderr  = "stderr"
)

// Result is the tagged envelope every method returns. It marshals to one
// flat JSON object: the envelope keys next to the payload keys.
type Result struct {
	Success bool
	Message string
	Error   string
	Kind    kicaderr.Kind
	Stdout  string
	Stderr  string

	// Fields holds the payload keys, e.g. board_info or data.
	Fields map[string]json.RawMessage
}

// OK returns a successful result.
func OK(message string) *Result {
	return &Result{Success: true, Message: message}
}

// Failure turns err into a failed result tagged with its kind.
func Failure(err error) *Result {
	return &Result{Error: err.Error(), Kind: kicaderr.KindOf(err)}
}

// Failuref builds a failed result of the given kind.
func Failuref(kind kicaderr.Kind, format string, args ...any) *Result {
	return &Result{Error: fmt.Sprintf(format, args...), Kind: kind}
}

// With sets a payload key. A value that cannot be marshaled turns the
// result into an internal failure.
func (r *Result) With(key string, v any) *Result {
	data, err := json.Marshal(v)
	if err != nil {
		*r = Result{Error: fmt.Sprintf("failed to encode %s: %v", key, err), Kind: kicaderr.KindInternal}
		return r
	}
	if r.Fields == nil {
		r.Fields = map[string]json.RawMessage{}
	}
	r.Fields[key] = data
	return r
}

// Field returns the raw payload value of key.
func (r *Result) Field(key string) (json.RawMessage, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// Err returns nil for a successful result and a kicaderr.Error otherwise.
func (r *Result) Err() error {
	if r.Success {
		return nil
	}
	kind := r.Kind
	if kind == "" {
		kind = kicaderr.KindInternal
	}
	msg := r.Error
	if msg == "" {
		msg = r.Message
	}
	return kicaderr.Errorf(kind, "%s", msg)
}

// Decode unmarshals payload key of r into a T.
func Decode[T any](r *Result, key string) (T, error) {
	var v T
	raw, ok := r.Field(key)
	if !ok {
		return v, kicaderr.Errorf(kicaderr.KindParseFailed, "result has no %q", key)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, kicaderr.New(kicaderr.KindParseFailed, fmt.Errorf("failed to decode %s: %w", key, err))
	}
	return v, nil
}

// MarshalJSON flattens the envelope and the payload into one object.
func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+6)
	for k, v := range r.Fields {
		out[k] = v
	}
	out[KeySuccess] = r.Success
	if r.Message != "" {
		out[KeyMessage] = r.Message
	}
	if r.Error != "" {
		out[KeyError] = r.Error
	}
	if r.Kind != "" {
		out[KeyKind] = r.Kind
	}
	if r.Stdout != "" {
		out[KeyStdout] = r.Stdout
	}
	if r.Stderr != "" {
		out[KeyStderr] = r.Stderr
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits an object into envelope and payload. The success
// key is required.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("result must be a JSON object")
	}
	successRaw, ok := raw[KeySuccess]
	if !ok {
		return fmt.Errorf("result has no %q key", KeySuccess)
	}

	var res Result
	if err := json.Unmarshal(successRaw, &res.Success); err != nil {
		return fmt.Errorf("invalid %q: %w", KeySuccess, err)
	}
	for key, dst := range map[string]*string{
		KeyMessage: &res.Message,
		KeyError:   &res.Error,
		KeyStdout:  &res.Stdout,
		KeyStderr:  &res.Stderr,
	} {
		if v, ok := raw[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return fmt.Errorf("invalid %q: %w", key, err)
			}
		}
	}
	if v, ok := raw[KeyKind]; ok {
		var kind string
		if err := json.Unmarshal(v, &kind); err != nil {
			return fmt.Errorf("invalid %q: %w", KeyKind, err)
		}
		res.Kind = kicaderr.Kind(kind)
	}

	for _, key := range []string{KeySuccess, KeyMessage, KeyError, KeyKind, KeyStdout, KeyStderr} {
		delete(raw, key)
	}
	if len(raw) > 0 {
		res.Fields = raw
	}
	*r = res
	return nil
}
