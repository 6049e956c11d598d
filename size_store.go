package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/wailsapp/wails/v2/pkg/logger"
)

// SizeRecordKey identifies the persisted window size record.
const SizeRecordKey = "system.size"

// WindowSize is the persisted width/height pair.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DisplayBounds are the pixel dimensions of a screen.
type DisplayBounds struct {
	Width  int
	Height int
}

// sizeStore is what the window manager needs from the persistence layer.
type sizeStore interface {
	GetSize(display DisplayBounds) (WindowSize, error)
	SetSize(width, height int) error
	Compact() error
}

// SizeStore owns the system.size record.
type SizeStore struct {
	db    *Datastore
	ratio float64
	log   logger.Logger
}

// NewSizeStore wraps db. A ratio outside (0,1] selects DefaultSizeRatio.
func NewSizeStore(db *Datastore, ratio float64, log logger.Logger) *SizeStore {
	if ratio <= 0 || ratio > 1 {
		ratio = DefaultSizeRatio
	}
	return &SizeStore{db: db, ratio: ratio, log: log}
}

// DefaultSize scales the display bounds by ratio and floors the result.
// Degenerate bounds produce a zero size.
func DefaultSize(display DisplayBounds, ratio float64) WindowSize {
	return WindowSize{
		Width:  int(math.Floor(float64(max(display.Width, 0)) * ratio)),
		Height: int(math.Floor(float64(max(display.Height, 0)) * ratio)),
	}
}

// GetSize returns the persisted size, creating the record from the display
// bounds when it does not exist yet.
func (s *SizeStore) GetSize(display DisplayBounds) (WindowSize, error) {
	doc, err := s.db.FindOne(SizeRecordKey)
	if errors.Is(err, ErrNotFound) {
		size := DefaultSize(display, s.ratio)
		value, err := json.Marshal(size)
		if err != nil {
			return WindowSize{}, fmt.Errorf("failed to encode window size: %w", err)
		}
		if err := s.db.Insert(&Document{Key: SizeRecordKey, Value: value}); err != nil {
			return WindowSize{}, fmt.Errorf("failed to create window size record: %w", err)
		}
		s.log.Info(fmt.Sprintf("Window size record created with default %dx%d", size.Width, size.Height))
		return size, nil
	}
	if err != nil {
		return WindowSize{}, fmt.Errorf("failed to look up window size: %w", err)
	}

	fallback := DefaultSize(display, s.ratio)
	size, ok := decodeWindowSize(doc.Value)
	if ok && (hasArea(size) || !hasArea(fallback)) {
		return size, nil
	}

	// Damaged or empty record: repair it with the computed default. An empty
	// record is kept while the display itself has no usable area.
	size = fallback
	s.log.Warning(fmt.Sprintf("Window size record is incomplete (%s), using default %dx%d", string(doc.Value), size.Width, size.Height))
	if err := s.SetSize(size.Width, size.Height); err != nil {
		return WindowSize{}, err
	}
	return size, nil
}

// SetSize overwrites the value of the size record, creating it if needed.
func (s *SizeStore) SetSize(width, height int) error {
	value, err := json.Marshal(WindowSize{Width: width, Height: height})
	if err != nil {
		return fmt.Errorf("failed to encode window size: %w", err)
	}
	if _, err := s.db.Update(SizeRecordKey, value, true); err != nil {
		return fmt.Errorf("failed to persist window size %dx%d: %w", width, height, err)
	}
	return nil
}

// Compact shrinks the datafile after a burst of writes.
func (s *SizeStore) Compact() error {
	return s.db.Compact()
}

func hasArea(size WindowSize) bool {
	return size.Width > 0 && size.Height > 0
}

// decodeWindowSize accepts only values carrying both non-negative dimensions.
func decodeWindowSize(raw json.RawMessage) (WindowSize, bool) {
	var partial struct {
		Width  *float64 `json:"width"`
		Height *float64 `json:"height"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &partial) != nil {
		return WindowSize{}, false
	}
	if partial.Width == nil || partial.Height == nil || *partial.Width < 0 || *partial.Height < 0 {
		return WindowSize{}, false
	}
	return WindowSize{Width: int(*partial.Width), Height: int(*partial.Height)}, true
}

// unavailableSizeStore stands in when the datafile cannot be opened. Every
// operation reports the open error.
type unavailableSizeStore struct {
	err error
}

func (s unavailableSizeStore) GetSize(DisplayBounds) (WindowSize, error) {
	return WindowSize{}, fmt.Errorf("size store unavailable: %w", s.err)
}

func (s unavailableSizeStore) SetSize(int, int) error {
	return fmt.Errorf("size store unavailable: %w", s.err)
}

func (s unavailableSizeStore) Compact() error {
	return nil
}
