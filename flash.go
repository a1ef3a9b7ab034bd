package leddisplay

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Flash renders value with the attention sequence: the value is shown and
// cleared Flashes times, FlashInterval each, then shown for Hold and cleared.
//
// Flash blocks until the sequence completes. If ctx is cancelled, the
// display is blanked and ctx.Err() is returned. Frames are never cut short,
// only the delays between them.
func (d *Dev) Flash(ctx context.Context, value int) error {
	if value < 0 || value > 99 {
		return fmt.Errorf("%w: %d", ErrValueRange, value)
	}

	for i := 0; i < d.flashes; i++ {
		if err := d.showFor(ctx, value, d.interval); err != nil {
			return err
		}
		if err := d.clearFor(ctx, d.interval); err != nil {
			return err
		}
	}
	if err := d.showFor(ctx, value, d.hold); err != nil {
		return err
	}
	return d.Clear()
}

// Duration returns the total scheduled delay of one Flash sequence.
func (d *Dev) Duration() time.Duration {
	return time.Duration(2*d.flashes)*d.interval + d.hold
}

func (d *Dev) showFor(ctx context.Context, value int, dur time.Duration) error {
	if err := d.ShowValue(value); err != nil {
		return err
	}
	return d.wait(ctx, dur)
}

func (d *Dev) clearFor(ctx context.Context, dur time.Duration) error {
	if err := d.Clear(); err != nil {
		return err
	}
	return d.wait(ctx, dur)
}

// wait sleeps for dur, blanking the display if ctx ends first.
func (d *Dev) wait(ctx context.Context, dur time.Duration) error {
	err := d.sleep(ctx, dur)
	if err == nil {
		return nil
	}
	if cerr := d.Clear(); cerr != nil && !errors.Is(cerr, errHalted) {
		return cerr
	}
	return err
}
