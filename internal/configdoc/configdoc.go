// Package configdoc manages the OpenClaw JSON configuration and the agent
// auth-profiles document. Both are loosely typed JSON objects that other
// tools rewrite freely, so documents are kept as raw JSON and edited with
// targeted gjson/sjson operations instead of being bound to structs.
//
// Parse failures are never fatal: a missing or corrupt file loads as an
// empty object, and any non-object value found along a traversed key path
// is replaced with an empty object before writes.
package configdoc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/sjson"
)

// Document is a mutable JSON object held as raw JSON text.
type Document struct {
	raw string
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{raw: "{}"}
}

// Parse builds a document from raw file content. Strict JSON is tried
// first, then a JSON-with-comments/relaxed dialect; when both fail, or the
// root is not an object, the result is an empty document.
func Parse(content []byte) *Document {
	text := strings.TrimSpace(string(content))
	if text != "" && gjson.Valid(text) {
		if doc := objectRooted(text); doc != nil {
			return doc
		}
	}
	relaxed := strings.TrimSpace(string(jsonc.ToJSON(content)))
	if relaxed != "" && gjson.Valid(relaxed) {
		if doc := objectRooted(relaxed); doc != nil {
			return doc
		}
	}
	return NewDocument()
}

func objectRooted(text string) *Document {
	if gjson.Parse(text).IsObject() {
		return &Document{raw: text}
	}
	return nil
}

// Load reads and parses the document at path. Missing files and parse
// errors load as an empty document.
func Load(path string) *Document {
	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debugf("config document %s unreadable: %v", path, err)
		}
		return NewDocument()
	}
	return Parse(content)
}

// Save serializes the document with stable indentation and writes it to
// path, creating parent directories as needed. The destination is only
// touched after serialization succeeds.
func (d *Document) Save(path string) error {
	pretty := gjson.Get(d.raw, "@pretty").Raw
	if strings.TrimSpace(pretty) == "" {
		return fmt.Errorf("failed to serialize config document for %s", path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(pretty), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Raw returns the document's JSON text.
func (d *Document) Raw() string {
	return d.raw
}

// Get reads a dotted path.
func (d *Document) Get(path string) gjson.Result {
	return gjson.Get(d.raw, path)
}

// GetString reads a dotted path as a trimmed string, returning "" for
// missing or non-string values.
func (d *Document) GetString(path string) string {
	value := d.Get(path)
	if value.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(value.String())
}

// PathKey escapes a single object key for use in a dotted gjson/sjson
// path. Keys such as federated profile ids carry emails whose dots would
// otherwise be read as path separators.
func PathKey(key string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `.`, `\.`, `*`, `\*`, `?`, `\?`)
	return replacer.Replace(key)
}

// splitPath splits a dotted path on unescaped dots.
func splitPath(path string) []string {
	var segments []string
	var current strings.Builder
	escaped := false
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch {
		case escaped:
			current.WriteByte(c)
			escaped = false
		case c == '\\':
			current.WriteByte(c)
			escaped = true
		case c == '.':
			segments = append(segments, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	segments = append(segments, current.String())
	return segments
}

func parentPath(path string) string {
	segments := splitPath(path)
	if len(segments) < 2 {
		return ""
	}
	return strings.Join(segments[:len(segments)-1], ".")
}

// EnsureObject walks the dotted path and coerces every traversed key to an
// object, replacing missing or wrong-typed values with {}. This is the
// self-healing primitive every writer relies on.
func (d *Document) EnsureObject(path string) {
	prefix := ""
	for _, segment := range splitPath(path) {
		if prefix == "" {
			prefix = segment
		} else {
			prefix = prefix + "." + segment
		}
		if d.Get(prefix).IsObject() {
			continue
		}
		raw, err := sjson.SetRaw(d.raw, prefix, "{}")
		if err != nil {
			log.Debugf("ensure object %s: %v", prefix, err)
			return
		}
		d.raw = raw
	}
}

// Set writes a value at a dotted path, coercing the parent chain to
// objects first.
func (d *Document) Set(path string, value any) {
	if parent := parentPath(path); parent != "" {
		d.EnsureObject(parent)
	}
	raw, err := sjson.Set(d.raw, path, value)
	if err != nil {
		log.Debugf("set %s: %v", path, err)
		return
	}
	d.raw = raw
}

// SetRaw writes pre-encoded JSON at a dotted path, coercing the parent
// chain to objects first.
func (d *Document) SetRaw(path, rawValue string) {
	if parent := parentPath(path); parent != "" {
		d.EnsureObject(parent)
	}
	raw, err := sjson.SetRaw(d.raw, path, rawValue)
	if err != nil {
		log.Debugf("set raw %s: %v", path, err)
		return
	}
	d.raw = raw
}

// Delete removes a dotted path if present.
func (d *Document) Delete(path string) {
	raw, err := sjson.Delete(d.raw, path)
	if err != nil {
		return
	}
	d.raw = raw
}
