package feed

import (
	"bytes"
	"encoding/json"
)

// ItemKind tags one argument of an inbound data event.
type ItemKind int

// Item kinds.
const (
	ItemText ItemKind = iota
	ItemBinary
	ItemUnrecognized
)

// String returns the lowercase kind name.
func (k ItemKind) String() string {
	switch k {
	case ItemText:
		return "text"
	case ItemBinary:
		return "binary"
	default:
		return "unrecognized"
	}
}

// Item is one argument of an inbound data event.
type Item struct {
	Kind ItemKind
	Text string          // ItemText: the encoded blob
	Data []byte          // ItemBinary
	Raw  json.RawMessage // ItemUnrecognized
}

// classify never fails: every transport argument lands in one of the
// three cases.
func classify(arg any) Item {
	switch v := arg.(type) {
	case []byte:
		return Item{Kind: ItemBinary, Data: v}
	case json.RawMessage:
		// Only a JSON string is text; null would otherwise unmarshal to "".
		if t := bytes.TrimSpace(v); len(t) > 0 && t[0] == '"' {
			var s string
			if err := json.Unmarshal(t, &s); err == nil {
				return Item{Kind: ItemText, Text: s}
			}
		}
		return Item{Kind: ItemUnrecognized, Raw: v}
	case string:
		return Item{Kind: ItemText, Text: v}
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			raw = json.RawMessage(`null`)
		}
		return Item{Kind: ItemUnrecognized, Raw: raw}
	}
}
