// Package models defines the drink log data types shared by both device
// replicas: the immutable Entry and the Replica collection they live in.
package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/waterlog/internal/common"
	"github.com/google/uuid"
)

// DrinkSize classifies a logged drink. Each size maps to a fixed volume in
// ounces; adding a size is a change to the table below, not to any logic.
type DrinkSize string

const (
	SizeGlass  DrinkSize = "glass"
	SizeCup    DrinkSize = "cup"
	SizeMug    DrinkSize = "mug"
	SizeBottle DrinkSize = "bottle"
)

type sizeInfo struct {
	Title  string
	Ounces float64
}

var sizes = map[DrinkSize]sizeInfo{
	SizeGlass:  {Title: "Glass", Ounces: 7.5},
	SizeCup:    {Title: "Cup", Ounces: 12},
	SizeMug:    {Title: "Mug", Ounces: 16},
	SizeBottle: {Title: "Bottle", Ounces: 20},
}

// AllSizes lists the known sizes in menu order.
func AllSizes() []DrinkSize {
	return []DrinkSize{SizeGlass, SizeCup, SizeMug, SizeBottle}
}

// ParseSize validates a user-supplied size tag.
func ParseSize(s string) (DrinkSize, error) {
	size := DrinkSize(s)
	if _, ok := sizes[size]; !ok {
		return "", fmt.Errorf("%w: %q", common.ErrUnknownSize, s)
	}
	return size, nil
}

// Entry is one logged drink. It is created exactly once, on the device where
// the user tapped, and never mutated afterwards. The random Id is what makes
// the cross-device merge idempotent and commutative.
type Entry struct {
	Id       string    `json:"id"`
	Size     DrinkSize `json:"size"`
	LoggedAt time.Time `json:"logged_at"`
}

// NewEntry constructs an Entry with a fresh uuid and the given creation
// instant (the device-local clock of the caller).
func NewEntry(size DrinkSize, now time.Time) (Entry, error) {
	if _, ok := sizes[size]; !ok {
		return Entry{}, fmt.Errorf("%w: %q", common.ErrUnknownSize, size)
	}
	return Entry{Id: uuid.NewString(), Size: size, LoggedAt: now}, nil
}

// Ounces returns the fixed volume for the entry's size. Unknown sizes
// (possible only for payloads from a newer app version) count as zero.
func (e Entry) Ounces() float64 {
	return sizes[e.Size].Ounces
}

// Title returns the display name for the entry's size.
func (e Entry) Title() string {
	return sizes[e.Size].Title
}
