package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrQuotaExceeded     = errors.New("storage quota exceeded")
	ErrInvalidBackup     = errors.New("invalid backup format")
	ErrMalformedDocument = errors.New("malformed stored document")
)

// Document is the root persisted object: the unit of local persistence,
// remote mirroring and backup.
type Document struct {
	Items   []InventoryItem `json:"items"`
	Bundles []Bundle        `json:"bundles"`
}

func EmptyDocument() Document {
	return Document{Items: []InventoryItem{}, Bundles: []Bundle{}}
}

// Normalize replaces nil lists so the encoded form always has arrays.
func (d Document) Normalize() Document {
	if d.Items == nil {
		d.Items = []InventoryItem{}
	}
	if d.Bundles == nil {
		d.Bundles = []Bundle{}
	}
	for i := range d.Bundles {
		if d.Bundles[i].ItemIDs == nil {
			d.Bundles[i].ItemIDs = []string{}
		}
	}
	return d
}

func (d Document) IsEmpty() bool {
	return len(d.Items) == 0 && len(d.Bundles) == 0
}

func (d Document) ItemIndex(id string) int {
	for i, it := range d.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (d Document) BundleIndex(id string) int {
	for i, b := range d.Bundles {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (d Document) Clone() Document {
	out := Document{
		Items:   append([]InventoryItem(nil), d.Items...),
		Bundles: make([]Bundle, len(d.Bundles)),
	}
	for i, b := range d.Bundles {
		b.ItemIDs = append([]string(nil), b.ItemIDs...)
		out.Bundles[i] = b
	}
	return out.Normalize()
}

// ParseBackup decodes a backup file. Both top-level fields must be present
// and must be JSON arrays.
func ParseBackup(data []byte) (Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	for _, field := range []string{"items", "bundles"} {
		v, ok := raw[field]
		if !ok {
			return Document{}, fmt.Errorf("%w: missing %q", ErrInvalidBackup, field)
		}
		if v = bytes.TrimSpace(v); len(v) == 0 || v[0] != '[' {
			return Document{}, fmt.Errorf("%w: %q is not an array", ErrInvalidBackup, field)
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	return doc.Normalize(), nil
}
