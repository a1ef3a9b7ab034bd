// Package cdevline provides display bus lines on top of the Linux GPIO
// character device (/dev/gpiochipN).
//
// Use it on hosts where periph.io has no GPIO driver, or where the lines are
// known by chip offset rather than by name.
package cdevline

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"
)

// Consumer is the label the kernel reports for lines requested by this package.
const Consumer = "leddisplay"

// setter is the part of *gpiocdev.Line used by Line.
type setter interface {
	SetValue(value int) error
	Close() error
}

// Line is a single output line requested from a GPIO chip.
// It implements leddisplay.Line.
type Line struct {
	l      setter
	chip   string
	offset int
}

// Open requests offset on chip as an output, initially low.
func Open(chip string, offset int) (*Line, error) {
	l, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("cdevline: failed to request %s:%d: %w", chip, offset, err)
	}
	return &Line{l: l, chip: chip, offset: offset}, nil
}

// Out sets the line level.
func (l *Line) Out(level gpio.Level) error {
	v := 0
	if level {
		v = 1
	}
	if err := l.l.SetValue(v); err != nil {
		return fmt.Errorf("cdevline: %s: %w", l, err)
	}
	return nil
}

// Close releases the line.
func (l *Line) Close() error {
	return l.l.Close()
}

func (l *Line) String() string {
	return fmt.Sprintf("%s:%d", l.chip, l.offset)
}

// Set is a group of lines requested together, closed together.
type Set struct {
	Clock *Line
	Data  *Line
	Latch *Line
}

// OpenSet requests the clock, data and latch offsets on chip. Lines already
// requested are released if a later request fails.
func OpenSet(chip string, clock, data, latch int) (*Set, error) {
	var opened []*Line
	for _, off := range []int{clock, data, latch} {
		l, err := Open(chip, off)
		if err != nil {
			for _, o := range opened {
				o.Close()
			}
			return nil, err
		}
		opened = append(opened, l)
	}
	return &Set{Clock: opened[0], Data: opened[1], Latch: opened[2]}, nil
}

// Close releases all lines of the set and returns the first error.
func (s *Set) Close() error {
	var first error
	for _, l := range []*Line{s.Clock, s.Data, s.Latch} {
		if err := l.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
