package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

var ErrNotObject = errors.New("envelope is not a JSON object")

// MakeParamString serializes fields into a request envelope tagged with
// service, action and callbackTag. It returns "" when service or action is
// empty. fields is not modified.
func MakeParamString(service, action string, fields map[string]any, callbackTag string) string {
	if service == "" || action == "" {
		return ""
	}

	env := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		env[k] = v
	}
	env[KeyService] = service
	env[KeyAction] = action
	env[KeyCallbackTag] = callbackTag

	b, err := marshal(env)
	if err != nil {
		return ""
	}
	return string(b)
}

// MakeURL builds the custom-scheme address used by the navigation transport.
func MakeURL(scheme, payload string) string {
	if scheme == "" {
		scheme = DefaultScheme
	}
	return scheme + pluginPath + paramQuery + EncodeURIComponent(payload)
}

// ParseRequest is the host side of MakeParamString.
func ParseRequest(payload string) (Request, error) {
	var env map[string]any
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return Request{}, fmt.Errorf("parse request failed: %w", err)
	}
	if env == nil {
		return Request{}, ErrNotObject
	}

	req := Request{Fields: make(map[string]any, len(env))}
	req.Service, _ = env[KeyService].(string)
	req.Action, _ = env[KeyAction].(string)
	req.CallbackTag, _ = env[KeyCallbackTag].(string)
	for k, v := range env {
		switch k {
		case KeyService, KeyAction, KeyCallbackTag:
		default:
			req.Fields[k] = v
		}
	}
	return req, nil
}

// EncodeResponse produces the percent-encoded form the host hands to the
// page entry point.
func EncodeResponse(resp Response) (string, error) {
	b, err := marshal(resp)
	if err != nil {
		return "", err
	}
	return EncodeURIComponent(string(b)), nil
}

// DecodeResponse percent-decodes and parses an inbound envelope.
func DecodeResponse(raw string) (Response, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}
	if !utf8.ValidString(decoded) {
		return nil, errors.New("decode response failed: invalid UTF-8")
	}

	var resp Response
	if err := json.Unmarshal([]byte(decoded), &resp); err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}
	if resp == nil {
		return nil, ErrNotObject
	}
	return resp, nil
}

// RuntimeInfo reports the platform and version a response carries in its
// param object. ok is false unless param has a platform key.
func RuntimeInfo(resp Response) (platform int, version string, ok bool) {
	param, isObj := resp[KeyParam].(map[string]any)
	if !isObj {
		return 0, "", false
	}
	rawPlatform, has := param[KeyPlatform]
	if !has {
		return 0, "", false
	}

	// Loose equality against 1 and 2: "2" and true count, 2.5 does not.
	var n float64
	switch v := rawPlatform.(type) {
	case float64:
		n = v
	case string:
		n, _ = strconv.ParseFloat(strings.TrimSpace(v), 64)
	case bool:
		if v {
			n = 1
		}
	}
	switch n {
	case 1:
		platform = 1
	case 2:
		platform = 2
	}

	switch v := param[KeyVersion].(type) {
	case string:
		version = v
	case float64:
		version = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return platform, version, true
}

// EncodeURIComponent escapes s the way the browser function of the same name
// does.
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if uriUnreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0f])
	}
	return sb.String()
}

func uriUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

// marshal keeps <, > and & literal, as JSON.stringify does.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
