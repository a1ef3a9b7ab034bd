package main

import (
	"fmt"
	"strconv"

	"github.com/speedsqueak/leddisplay"
	"github.com/speedsqueak/leddisplay/cdevline"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// busLines holds the three display lines and releases them on Close.
type busLines struct {
	clock, data, latch leddisplay.Line
	close              func() error
}

func (b *busLines) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func openLines(backend, chip, clock, data, latch string) (*busLines, error) {
	switch backend {
	case "periph":
		return openPeriphLines(clock, data, latch)
	case "cdev":
		return openCdevLines(chip, clock, data, latch)
	}
	return nil, fmt.Errorf("unknown GPIO backend %q", backend)
}

func openPeriphLines(names ...string) (*busLines, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph.io: %w", err)
	}
	var lines [3]leddisplay.Line
	for i, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("GPIO pin %s not found", name)
		}
		lines[i] = p
	}
	return &busLines{clock: lines[0], data: lines[1], latch: lines[2]}, nil
}

func openCdevLines(chip string, offsets ...string) (*busLines, error) {
	var offs [3]int
	for i, s := range offsets {
		n, err := parseOffset(s)
		if err != nil {
			return nil, err
		}
		offs[i] = n
	}
	set, err := cdevline.OpenSet(chip, offs[0], offs[1], offs[2])
	if err != nil {
		return nil, err
	}
	return &busLines{clock: set.Clock, data: set.Data, latch: set.Latch, close: set.Close}, nil
}

// parseOffset accepts a bare line offset or a periph style "GPIO<n>" name.
func parseOffset(s string) (int, error) {
	if len(s) > 4 && s[:4] == "GPIO" {
		s = s[4:]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid line offset %q", s)
	}
	return n, nil
}
