// Package envelope classifies the backend's inconsistent response shapes
// into one discriminated union and decodes the payload into domain types.
//
// Shapes are checked in a fixed priority order, first match wins:
//
//  1. {"data": {"content": [...]}}  paginated list
//  2. {"data": [...]}               wrapped list
//  3. [...]                         bare list
//  4. {"data": {...}}               wrapped record
//  5. {...} without "data"          bare record
//  6. anything else                 empty
//
// Lists always win over records when a payload could be read either way.
// Unknown shapes never produce an error on read; they are simply empty.
package envelope

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind identifies which envelope shape a payload matched.
type Kind int

const (
	KindEmpty Kind = iota
	KindPage
	KindDataList
	KindBareList
	KindRecord
	KindBareRecord
)

func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindDataList:
		return "data_list"
	case KindBareList:
		return "bare_list"
	case KindRecord:
		return "record"
	case KindBareRecord:
		return "bare_record"
	default:
		return "empty"
	}
}

// IsList reports whether k is one of the list shapes.
func (k Kind) IsList() bool { return k == KindPage || k == KindDataList || k == KindBareList }

// IsRecord reports whether k is one of the single-record shapes.
func (k Kind) IsRecord() bool { return k == KindRecord || k == KindBareRecord }

// Payload is a classified envelope. Raw holds the unwrapped JSON (the list
// or the record); it is empty for KindEmpty. Envelope keeps the original
// bytes for callers that need other fields (messages, ids).
type Payload struct {
	Kind     Kind
	Raw      json.RawMessage
	Envelope json.RawMessage
}

// Classify applies the shape priority order to raw.
func Classify(raw []byte) Payload {
	p := Payload{Kind: KindEmpty, Envelope: json.RawMessage(raw)}
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return p
	}
	root := gjson.ParseBytes(raw)

	var data gjson.Result
	if root.IsObject() {
		data = root.Get("data")
	}

	switch {
	case data.IsObject() && data.Get("content").IsArray():
		p.Kind, p.Raw = KindPage, rawOf(data.Get("content"))
	case data.IsArray():
		p.Kind, p.Raw = KindDataList, rawOf(data)
	case root.IsArray():
		p.Kind, p.Raw = KindBareList, rawOf(root)
	case data.IsObject():
		p.Kind, p.Raw = KindRecord, rawOf(data)
	case root.IsObject() && !data.Exists() && isRecordLike(root):
		p.Kind, p.Raw = KindBareRecord, rawOf(root)
	}
	return p
}

// isRecordLike rejects empty objects and pure status objects such as
// {"message": "ok"} or {"success": true, "message": "..."}.
func isRecordLike(obj gjson.Result) bool {
	meta := map[string]struct{}{
		"message": {}, "success": {}, "status": {}, "code": {}, "error": {},
	}
	hasField := false
	nonMeta := false
	obj.ForEach(func(k, _ gjson.Result) bool {
		hasField = true
		if _, ok := meta[strings.ToLower(k.String())]; !ok {
			nonMeta = true
			return false
		}
		return true
	})
	return hasField && nonMeta
}

func rawOf(r gjson.Result) json.RawMessage { return json.RawMessage(r.Raw) }

// Len returns the number of list items (0 for records and empty payloads).
func (p Payload) Len() int {
	if !p.Kind.IsList() {
		return 0
	}
	return int(gjson.ParseBytes(p.Raw).Get("#").Int())
}

// List decodes a list-returning read.
//
// List shapes decode as is; either record shape becomes a one-element list;
// an empty or null payload and any unknown shape yield an empty (non-nil)
// slice. The only error is a payload whose items do not fit T.
func List[T any](raw []byte) ([]T, error) {
	return ListOf[T](Classify(raw))
}

// ListOf is List for an already classified payload.
func ListOf[T any](p Payload) ([]T, error) {
	out := []T{}
	switch p.Kind {
	case KindPage, KindDataList, KindBareList:
		var items []T
		if err := json.Unmarshal(p.Raw, &items); err != nil {
			return out, fmt.Errorf("envelope: decode %s: %w", p.Kind, err)
		}
		if items != nil {
			out = items
		}
	case KindRecord, KindBareRecord:
		var one T
		if err := json.Unmarshal(p.Raw, &one); err != nil {
			return out, fmt.Errorf("envelope: decode %s: %w", p.Kind, err)
		}
		out = append(out, one)
	}
	return out, nil
}

// One decodes a single-entity lookup. Record shapes decode directly; list
// shapes yield their first element; empty payloads yield nil without error.
func One[T any](raw []byte) (*T, error) {
	return OneOf[T](Classify(raw))
}

// OneOf is One for an already classified payload.
func OneOf[T any](p Payload) (*T, error) {
	switch {
	case p.Kind.IsRecord():
		var v T
		if err := json.Unmarshal(p.Raw, &v); err != nil {
			return nil, fmt.Errorf("envelope: decode %s: %w", p.Kind, err)
		}
		return &v, nil
	case p.Kind.IsList():
		first := gjson.ParseBytes(p.Raw).Get("0")
		if !first.Exists() || first.Type == gjson.Null {
			return nil, nil
		}
		var v T
		if err := json.Unmarshal([]byte(first.Raw), &v); err != nil {
			return nil, fmt.Errorf("envelope: decode %s item: %w", p.Kind, err)
		}
		return &v, nil
	}
	return nil, nil
}

// Extract returns the first non-blank string (or number rendered as a
// string) found at the given gjson paths, in order.
func Extract(raw []byte, paths ...string) string {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return ""
	}
	for _, path := range paths {
		v := gjson.GetBytes(raw, path)
		switch v.Type {
		case gjson.String:
			if s := strings.TrimSpace(v.Str); s != "" {
				return s
			}
		case gjson.Number:
			return v.Raw
		}
	}
	return ""
}

// Message returns the server-supplied message of a payload, if any.
func (p Payload) Message() string {
	return Extract(p.Envelope, "message", "data.message")
}
