// Package leddisplay controls a two-digit large seven-segment display driven
// by a daisy chain of 8-bit shift registers.
//
// Three GPIO lines drive the chain: clock, data and latch.
//
// See the examples for how to use this package.
package leddisplay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/speedsqueak/leddisplay/segment"
	"periph.io/x/conn/v3/gpio"
)

// NumDigits is the number of digits in the chain.
const NumDigits = 2

// Default flash timing.
const (
	DefaultFlashes       = 2
	DefaultFlashInterval = 250 * time.Millisecond
	DefaultHold          = 3 * time.Second
)

var (
	// ErrValueRange is returned when a value does not fit on two digits.
	ErrValueRange = errors.New("leddisplay: value must be between 0 and 99")

	errHalted = errors.New("leddisplay: halted")
)

// Line is a single output line of the shift register bus.
//
// gpio.PinOut from periph.io satisfies it.
type Line interface {
	Out(l gpio.Level) error
}

// Opts is the configuration for the display.
type Opts struct {
	// Shift register bus lines (required)
	Clock Line // Register clock, data is captured on the rising edge
	Data  Line // Serial data
	Latch Line // Output latch, shifted bits are committed on the rising edge

	// Flash sequence timing
	Flashes       int           // Show/clear cycles before the hold (default: 2)
	FlashInterval time.Duration // Duration of each show and each clear (default: 250ms)
	Hold          time.Duration // Duration of the final show (default: 3s)
}

// Dev is the device handle for the display.
type Dev struct {
	// Serializes frames on the single physical bus
	mu sync.Mutex

	// Bus
	clk   Line
	data  Line
	latch Line

	// Flash timing
	flashes  int
	interval time.Duration
	hold     time.Duration
	sleep    func(ctx context.Context, d time.Duration) error

	// State
	halted bool
}

// New creates a new display on the given lines.
//
// All three lines are driven low. opts.Clock, opts.Data and opts.Latch must
// be set; zero timing fields are replaced by the defaults.
func New(opts *Opts) (*Dev, error) {
	if opts == nil {
		return nil, errors.New("leddisplay: options are required")
	}
	if opts.Clock == nil || opts.Data == nil || opts.Latch == nil {
		return nil, errors.New("leddisplay: clock, data and latch lines are required")
	}
	if opts.Flashes < 0 || opts.FlashInterval < 0 || opts.Hold < 0 {
		return nil, errors.New("leddisplay: flash timing must not be negative")
	}

	d := &Dev{
		clk:      opts.Clock,
		data:     opts.Data,
		latch:    opts.Latch,
		flashes:  opts.Flashes,
		interval: opts.FlashInterval,
		hold:     opts.Hold,
		sleep:    sleep,
	}
	if d.flashes == 0 {
		d.flashes = DefaultFlashes
	}
	if d.interval == 0 {
		d.interval = DefaultFlashInterval
	}
	if d.hold == 0 {
		d.hold = DefaultHold
	}

	for _, l := range []Line{d.clk, d.data, d.latch} {
		if err := l.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("leddisplay: failed to initialize line: %w", err)
		}
	}
	return d, nil
}

// ShiftOut shifts one digit pattern into the chain, most significant bit first.
//
// Nothing is visible until Latch is called. Call it once per digit, farthest
// digit first.
func (d *Dev) ShiftOut(p segment.Pattern) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return errHalted
	}
	return d.shiftOut(p)
}

// Latch commits all shifted digits to the display outputs at once.
func (d *Dev) Latch() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return errHalted
	}
	return d.commit()
}

// Clear blanks both digits.
func (d *Dev) Clear() error {
	blank := segment.MustEncode(segment.Blank, false)
	return d.writeFrame(blank, blank)
}

// ShowValue shows value (0-99) on the display.
//
// Each digit whose value is 0 is left blank, in both positions, so 40 shows
// as "4 " and 0 shows nothing.
func (d *Dev) ShowValue(value int) error {
	if value < 0 || value > 99 {
		return fmt.Errorf("%w: %d", ErrValueRange, value)
	}
	ones, err := digitSymbol(value % 10)
	if err != nil {
		return err
	}
	tens, err := digitSymbol(value / 10 % 10)
	if err != nil {
		return err
	}
	return d.ShowSymbols(tens, ones)
}

// ShowSymbols shows tens on the left digit and ones on the right digit.
func (d *Dev) ShowSymbols(tens, ones segment.Symbol) error {
	t, err := segment.Encode(tens, false)
	if err != nil {
		return err
	}
	o, err := segment.Encode(ones, false)
	if err != nil {
		return err
	}
	return d.writeFrame(o, t)
}

// Halt blanks the display.
// After calling Halt, the display will not accept further writes.
func (d *Dev) Halt() error {
	blank := segment.MustEncode(segment.Blank, false)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.halted = true
	for i := 0; i < NumDigits; i++ {
		if err := d.shiftOut(blank); err != nil {
			return err
		}
	}
	return d.commit()
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("leddisplay.Dev{%d digits}", NumDigits)
}

// writeFrame shifts out one pattern per digit, in chain order, then latches.
// The whole frame is written under the bus lock.
func (d *Dev) writeFrame(patterns ...segment.Pattern) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return errHalted
	}
	for _, p := range patterns {
		if err := d.shiftOut(p); err != nil {
			return err
		}
	}
	return d.commit()
}

func (d *Dev) shiftOut(p segment.Pattern) error {
	for x := 0; x < 8; x++ {
		if err := d.clk.Out(gpio.Low); err != nil {
			return fmt.Errorf("leddisplay: failed to pull clock low: %w", err)
		}
		bit := p&(1<<(7-x)) != 0
		if err := d.data.Out(gpio.Level(bit)); err != nil {
			return fmt.Errorf("leddisplay: failed to set data: %w", err)
		}
		// Data transfers to the register on the rising edge
		if err := d.clk.Out(gpio.High); err != nil {
			return fmt.Errorf("leddisplay: failed to pull clock high: %w", err)
		}
	}
	return nil
}

func (d *Dev) commit() error {
	if err := d.latch.Out(gpio.Low); err != nil {
		return fmt.Errorf("leddisplay: failed to pull latch low: %w", err)
	}
	if err := d.latch.Out(gpio.High); err != nil {
		return fmt.Errorf("leddisplay: failed to pull latch high: %w", err)
	}
	return nil
}

// digitSymbol maps a digit to its symbol, with 0 shown as blank.
func digitSymbol(n int) (segment.Symbol, error) {
	if n == 0 {
		return segment.Blank, nil
	}
	return segment.Digit(n)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
