package textrepair

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"

	"voicetrans/internal/logging"
)

// structuralPattern matches a UTF-8 lead byte rendered as a Latin-1 letter
// followed by a continuation byte rendered as a Latin-1 character.
var structuralPattern = regexp.MustCompile(`[\x{00C0}-\x{00FF}][\x{0080}-\x{00BF}]`)

// CJKUnified covers the CJK Unified Ideographs block, U+4E00 through U+9FFF.
var CJKUnified = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x4E00, Hi: 0x9FFF, Stride: 1}},
}

// Repairer holds the policy for mojibake repair. The zero value repairs
// CJK Unified Ideographs and logs nothing.
type Repairer struct {
	// Script is the range a repair must newly reveal. Nil means CJKUnified.
	Script *unicode.RangeTable
	Logger *slog.Logger
}

var defaultRepairer = &Repairer{}

// RepairText repairs s with the default policy.
func RepairText(s string) string {
	return defaultRepairer.Text(s)
}

// RepairValue repairs every string in a decoded JSON value with the default policy.
func RepairValue(v any) any {
	return defaultRepairer.Value(v)
}

// RepairJSON repairs every string in a JSON document with the default policy.
func RepairJSON(data []byte) ([]byte, error) {
	return defaultRepairer.JSON(data)
}

// NormalizeText returns the NFC form of s, or s itself if normalization fails.
func NormalizeText(s string) (out string) {
	defer func() {
		if recover() != nil {
			out = s
		}
	}()
	return norm.NFC.String(s)
}

// Text returns the repaired form of s when the mojibake gate passes and s
// otherwise.
func (r *Repairer) Text(s string) (out string) {
	if !structuralPattern.MatchString(s) {
		return s
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.warn(fmt.Errorf("panic: %v", rec))
			out = s
		}
	}()

	decoded, err := redecode(s)
	if err != nil {
		r.warn(err)
		return s
	}
	if decoded == s || !revealsScript(s, decoded, r.script()) {
		return s
	}
	return decoded
}

// Value walks maps and slices produced by encoding/json and returns a copy
// with every string repaired. Non-string leaves are returned as-is and v is
// never modified.
func (r *Repairer) Value(v any) any {
	switch typed := v.(type) {
	case string:
		return r.Text(typed)
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[key] = r.Value(value)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = r.Value(value)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(typed))
		for key, value := range typed {
			out[key] = r.Text(value)
		}
		return out
	case []string:
		out := make([]string, len(typed))
		for i, value := range typed {
			out[i] = r.Text(value)
		}
		return out
	default:
		return v
	}
}

// JSON decodes data, repairs every string value, and re-encodes it. Numbers
// keep their original literal form.
func (r *Repairer) JSON(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.Value(doc)); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (r *Repairer) script() *unicode.RangeTable {
	if r == nil || r.Script == nil {
		return CJKUnified
	}
	return r.Script
}

func (r *Repairer) warn(err error) {
	if r == nil || r.Logger == nil {
		return
	}
	logging.WarnWithContext(r.Logger, "text repair failed", "text_repair_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "original text kept"))
}

// redecode treats every character of s as one raw byte of a UTF-8 stream and
// decodes the result. Characters above U+00FF are mapped through Windows-1252
// when possible, otherwise they contribute their low byte.
func redecode(s string) (string, error) {
	raw := make([]byte, 0, len(s))
	for _, ch := range s {
		raw = append(raw, toByte(ch))
	}
	decoded, err := xunicode.UTF8BOM.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode utf-8: %w", err)
	}
	return string(decoded), nil
}

func toByte(ch rune) byte {
	if ch <= 0xFF {
		return byte(ch)
	}
	if b, ok := charmap.Windows1252.EncodeRune(ch); ok {
		return b
	}
	return byte(ch & 0xFF)
}

func revealsScript(before, after string, script *unicode.RangeTable) bool {
	seen := make(map[rune]struct{})
	for _, ch := range before {
		if unicode.Is(script, ch) {
			seen[ch] = struct{}{}
		}
	}
	for _, ch := range after {
		if !unicode.Is(script, ch) {
			continue
		}
		if _, ok := seen[ch]; !ok {
			return true
		}
	}
	return false
}
