// Package models defines the client-side data model of prayerkeeper:
// per-day prayer records, the record set exchanged with the cloud and the
// bookkeeping types of the sync engine.
package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/prayerkeeper/internal/common"
)

// Slot is one of the five obligatory daily prayers.
type Slot string

const (
	SlotDawn      Slot = "dawn"
	SlotNoon      Slot = "noon"
	SlotAfternoon Slot = "afternoon"
	SlotSunset    Slot = "sunset"
	SlotNight     Slot = "night"
)

// Slots lists the prayers in their daily order.
var Slots = []Slot{SlotDawn, SlotNoon, SlotAfternoon, SlotSunset, SlotNight}

// ParseSlot accepts a slot name in any case.
func ParseSlot(s string) (Slot, error) {
	slot := Slot(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Slots {
		if slot == known {
			return slot, nil
		}
	}
	return "", fmt.Errorf("%w: %q", common.ErrInvalidSlot, s)
}

// Status records how a prayer was performed.
type Status string

const (
	StatusOnTime Status = "ontime"
	StatusMakeup Status = "makeup"
)

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if err := st.Validate(); err != nil {
		return "", err
	}
	return st, nil
}

func (s Status) Validate() error {
	switch s {
	case StatusOnTime, StatusMakeup:
		return nil
	default:
		return fmt.Errorf("%w: %q", common.ErrInvalidStatus, string(s))
	}
}
