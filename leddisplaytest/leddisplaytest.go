// Package leddisplaytest is meant to be used to test drivers over a fake
// shift register chain.
//
// A Chain models N daisy-chained 8-bit serial-in/parallel-out registers with
// a shared clock and latch, the way the large digit driver boards are wired.
package leddisplaytest

import (
	"fmt"
	"sync"

	"github.com/speedsqueak/leddisplay/segment"
	"periph.io/x/conn/v3/gpio"
)

// Line names used in the transition log.
const (
	ClockLine = "clock"
	DataLine  = "data"
	LatchLine = "latch"
)

// Transition is a single Out call on one of the chain lines.
type Transition struct {
	Line  string
	Level gpio.Level
}

func (t Transition) String() string {
	return fmt.Sprintf("%s=%s", t.Line, t.Level)
}

// Frame holds one pattern per register, in shift order: the first element is
// the register farthest from the controller, which holds the first pattern
// shifted in.
type Frame []segment.Pattern

// Chain is a fake daisy chain of shift registers.
type Chain struct {
	// Fail, when set, is returned by every Out call and the line state is
	// left unchanged.
	Fail error

	mu     sync.Mutex
	regs   []segment.Pattern // regs[0] is nearest to the controller
	out    Frame
	levels map[string]gpio.Level
	log    []Transition
	frames []Frame
}

// NewChain returns a chain of n registers with all lines low and all outputs blank.
func NewChain(n int) *Chain {
	return &Chain{
		regs:   make([]segment.Pattern, n),
		out:    make(Frame, n),
		levels: map[string]gpio.Level{ClockLine: gpio.Low, DataLine: gpio.Low, LatchLine: gpio.Low},
	}
}

// Clock returns the register clock line.
func (c *Chain) Clock() *Pin { return &Pin{c: c, name: ClockLine} }

// Data returns the serial data line.
func (c *Chain) Data() *Pin { return &Pin{c: c, name: DataLine} }

// Latch returns the output latch line.
func (c *Chain) Latch() *Pin { return &Pin{c: c, name: LatchLine} }

// Outputs returns the patterns currently visible on the register outputs.
func (c *Chain) Outputs() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(Frame(nil), c.out...)
}

// Frames returns every frame committed by a latch rising edge, oldest first.
func (c *Chain) Frames() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Frame(nil), c.frames...)
}

// Transitions returns the log of every Out call, oldest first.
func (c *Chain) Transitions() []Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Transition(nil), c.log...)
}

// Reset clears the transition log and the committed frames. Register and
// output state are kept.
func (c *Chain) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = nil
	c.frames = nil
}

func (c *Chain) set(name string, l gpio.Level) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail != nil {
		return c.Fail
	}
	prev := c.levels[name]
	c.levels[name] = l
	c.log = append(c.log, Transition{Line: name, Level: l})

	rising := prev == gpio.Low && l == gpio.High
	if !rising {
		return nil
	}
	switch name {
	case ClockLine:
		c.shift(c.levels[DataLine])
	case LatchLine:
		for i, r := range c.regs {
			c.out[len(c.regs)-1-i] = r
		}
		c.frames = append(c.frames, append(Frame(nil), c.out...))
	}
	return nil
}

// shift moves every register one bit towards the far end of the chain and
// clocks bit into the nearest register.
func (c *Chain) shift(bit gpio.Level) {
	carry := segment.Pattern(0)
	if bit {
		carry = 1
	}
	for i := range c.regs {
		next := c.regs[i] >> 7
		c.regs[i] = c.regs[i]<<1 | carry
		carry = next
	}
}

// Pin is one of the chain lines. It implements leddisplay.Line.
type Pin struct {
	c    *Chain
	name string
}

// Out sets the line level.
func (p *Pin) Out(l gpio.Level) error {
	return p.c.set(p.name, l)
}

// Read returns the last level set on the line.
func (p *Pin) Read() gpio.Level {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	return p.c.levels[p.name]
}

func (p *Pin) String() string {
	return p.name
}
