package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	dumpEnableEnv = "KINDRED_WIRE_DUMP"
	dumpDirEnv    = "KINDRED_WIRE_DUMP_DIR"
)

// DumpToTestdata writes a sanitized JSON fixture for an inbound event payload.
//
// It is used while developing against a live server to capture real payloads
// for decode tests. Enable by setting either:
//   - `KINDRED_WIRE_DUMP=1` (writes under protocol/wire/testdata/captured),
//     or
//   - `KINDRED_WIRE_DUMP_DIR=/abs/path`.
//
// Names and path data are replaced with placeholders before writing.
func DumpToTestdata(event string, args []any) {
	dir := dumpDir()
	if dir == "" {
		return
	}
	if event == "" {
		event = "unknown"
	}

	var payload any
	if len(args) > 0 {
		payload = args[0]
	}
	value, err := normalizeToAny(payload)
	if err != nil {
		return
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sanitize(value)); err != nil {
		return
	}

	_ = os.MkdirAll(dir, 0o755)
	name := fmt.Sprintf("%s_%d.json", safeFilename(event), time.Now().UnixMilli())
	_ = os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644)
}

// DumpEnabled reports whether DumpToTestdata will write anything.
func DumpEnabled() bool {
	return dumpDir() != ""
}

func dumpDir() string {
	if dir := os.Getenv(dumpDirEnv); dir != "" {
		return dir
	}
	if os.Getenv(dumpEnableEnv) == "" {
		return ""
	}
	return filepath.Join("protocol", "wire", "testdata", "captured")
}

func normalizeToAny(payload any) (any, error) {
	if payload == nil {
		return nil, nil
	}
	// Round-trip through JSON to detach from maps owned by the socket client.
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func sanitize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = sanitizeKV(k, vv)
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, vv := range t {
			out = append(out, sanitize(vv))
		}
		return out
	default:
		return t
	}
}

func sanitizeKV(key string, value any) any {
	switch strings.ToLower(key) {
	case "userid", "partnerid", "id":
		return "<id>"
	case "username", "fromusername", "name":
		return "<name>"
	case "d":
		if s, ok := value.(string); ok && len(s) > 40 {
			return s[:40] + "…"
		}
	}
	return sanitize(value)
}

func safeFilename(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, "_")
	if s == "" {
		return "unknown"
	}
	return s
}
