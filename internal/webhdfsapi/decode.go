// Package webhdfsapi decodes the JSON documents returned by WebHDFS NameNodes.
package webhdfsapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotObject is returned when a response body is valid JSON but not an object.
var ErrNotObject = errors.New("webhdfsapi: response is not a JSON object")

// RemoteException is the error envelope WebHDFS returns on failure:
//
//	{"RemoteException":{"exception":"FileNotFoundException","javaClassName":"...","message":"..."}}
type RemoteException struct {
	Exception     string `json:"exception"`
	JavaClassName string `json:"javaClassName"`
	Message       string `json:"message"`
}

func (e *RemoteException) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message == "" {
		return e.Exception
	}
	return e.Exception + ": " + e.Message
}

// DecodeObject parses body as a JSON object. Numbers are kept as json.Number
// so file lengths and timestamps survive without float rounding.
func DecodeObject(body []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("webhdfsapi: empty response body")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("webhdfsapi: decode: %w", err)
	}
	if dec.More() {
		return nil, errors.New("webhdfsapi: trailing data after JSON document")
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

// Truthy reports whether a decoded JSON value counts as a success flag.
// Absent keys, null, false, zero, "", "0" and empty containers are false.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != "" && val != "0"
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	case float64:
		return val != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

// Boolean extracts the "boolean" result flag carried by MKDIRS, RENAME and DELETE.
func Boolean(obj map[string]any) bool {
	if obj == nil {
		return false
	}
	return Truthy(obj["boolean"])
}

// String returns obj[key] when it is a non-empty string.
func String(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}
	s, _ := obj[key].(string)
	return s
}

// DecodeField re-encodes obj[key] and decodes it into out. It returns false
// when the key is absent.
func DecodeField(obj map[string]any, key string, out any) (bool, error) {
	raw, ok := obj[key]
	if !ok {
		return false, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return true, fmt.Errorf("webhdfsapi: re-encode %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return true, fmt.Errorf("webhdfsapi: decode %s: %w", key, err)
	}
	return true, nil
}

// ExtractRemoteException returns the RemoteException carried by body, or nil
// when the body is not a WebHDFS error document.
func ExtractRemoteException(body []byte) *RemoteException {
	var envelope struct {
		RemoteException *RemoteException `json:"RemoteException"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &envelope); err != nil {
		return nil
	}
	if envelope.RemoteException == nil || envelope.RemoteException.Exception == "" {
		return nil
	}
	return envelope.RemoteException
}
