package gateway

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wanderplan/wanderplan/internal/result"
)

// httpFailure turns a non-2xx response into error details. Backends report
// errors in several shapes; the first readable one wins: an "errors" list,
// a "message" string or list, a nested "error.message", an "error" string.
func httpFailure(body []byte, status int, endpoint string) result.ErrorInfo {
	info := result.ErrorInfo{
		Message:    fmt.Sprintf("Request failed with status %d", status),
		StatusCode: status,
		Path:       endpoint,
	}
	if !gjson.ValidBytes(body) {
		return info
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return info
	}
	if msg := errorMessage(doc); msg != "" {
		info.Message = msg
	}
	if ts := doc.Get("timestamp"); ts.Type == gjson.String {
		info.Timestamp = ts.String()
	}
	if path := doc.Get("path"); path.Type == gjson.String && path.String() != "" {
		info.Path = path.String()
	}
	return info
}

func errorMessage(doc gjson.Result) string {
	if msg := joinMessages(doc.Get("errors")); msg != "" {
		return msg
	}
	message := doc.Get("message")
	if message.IsArray() {
		if msg := joinMessages(message); msg != "" {
			return msg
		}
	} else if message.Type == gjson.String && message.String() != "" {
		return message.String()
	}
	if nested := doc.Get("error.message"); nested.Type == gjson.String && nested.String() != "" {
		return nested.String()
	}
	if plain := doc.Get("error"); plain.Type == gjson.String && plain.String() != "" {
		return plain.String()
	}
	return ""
}

func joinMessages(list gjson.Result) string {
	if !list.IsArray() {
		return ""
	}
	var parts []string
	for _, item := range list.Array() {
		switch {
		case item.Type == gjson.String:
			if s := strings.TrimSpace(item.String()); s != "" {
				parts = append(parts, s)
			}
		case item.IsObject():
			for _, field := range []string{"message", "msg"} {
				if m := item.Get(field); m.Type == gjson.String && m.String() != "" {
					parts = append(parts, m.String())
					break
				}
			}
		}
	}
	return strings.Join(parts, ", ")
}
