package result

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// maxUnwrapDepth bounds how many "data" layers Unwrap peels off.
const maxUnwrapDepth = 2

// Unwrap strips the backend's data wrappers: body.data.data, else
// body.data, else body. A missing or null data field falls back to the
// enclosing object. Non-object bodies are returned untouched.
func Unwrap(raw json.RawMessage) json.RawMessage {
	body := raw
	for i := 0; i < maxUnwrapDepth; i++ {
		if !gjson.ValidBytes(body) {
			return body
		}
		parsed := gjson.ParseBytes(body)
		if !parsed.IsObject() {
			return body
		}
		inner := parsed.Get("data")
		if !inner.Exists() || inner.Type == gjson.Null {
			return body
		}
		body = json.RawMessage(inner.Raw)
	}
	return body
}

// Decode unwraps a gateway payload into T. Failures from the gateway are
// forwarded as is; payloads that do not match T are reported with the
// caller's default message and path.
func Decode[T any](env Envelope[json.RawMessage], path, fallback string) Envelope[T] {
	if !env.Success {
		return Forward[T](env)
	}
	var out T
	body := Unwrap(env.Data)
	if len(body) == 0 || string(body) == "null" {
		return OK(out)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return Fail[T](ErrorInfo{Message: fallback, Path: path, Args: []string{err.Error()}})
	}
	return OK(out)
}
