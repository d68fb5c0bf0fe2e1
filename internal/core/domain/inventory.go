package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidItem   = errors.New("invalid item")
	ErrInvalidBundle = errors.New("invalid bundle")
	ErrItemNotFound  = errors.New("item not found")
	ErrDuplicateID   = errors.New("duplicate id")
)

type Size string

const (
	SizeXS    Size = "XS"
	SizeS     Size = "S"
	SizeM     Size = "M"
	SizeL     Size = "L"
	SizeOther Size = "Other"
)

// Sizes lists the stock keys in display order.
var Sizes = []Size{SizeXS, SizeS, SizeM, SizeL, SizeOther}

// Stock holds the per-size counts of an item. Missing keys decode as zero.
type Stock struct {
	XS    int `json:"XS"`
	S     int `json:"S"`
	M     int `json:"M"`
	L     int `json:"L"`
	Other int `json:"Other"`
}

func (s Stock) Get(size Size) int {
	switch size {
	case SizeXS:
		return s.XS
	case SizeS:
		return s.S
	case SizeM:
		return s.M
	case SizeL:
		return s.L
	default:
		return s.Other
	}
}

func (s *Stock) Set(size Size, n int) {
	switch size {
	case SizeXS:
		s.XS = n
	case SizeS:
		s.S = n
	case SizeM:
		s.M = n
	case SizeL:
		s.L = n
	default:
		s.Other = n
	}
}

func (s Stock) Total() int {
	return s.XS + s.S + s.M + s.L + s.Other
}

// ParseSize accepts a stock key case-insensitively.
func ParseSize(v string) (Size, error) {
	for _, s := range Sizes {
		if strings.EqualFold(string(s), strings.TrimSpace(v)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown size %q", v)
}

type InventoryItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Stock     Stock  `json:"stock"`
	Location  string `json:"location,omitempty"`
	Note      string `json:"note,omitempty"`
	CreatedAt int64  `json:"createdAt"` // epoch milliseconds
}

func (i InventoryItem) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidItem)
	}
	for _, size := range Sizes {
		if i.Stock.Get(size) < 0 {
			return fmt.Errorf("%w: negative stock for %s", ErrInvalidItem, size)
		}
	}
	return nil
}
