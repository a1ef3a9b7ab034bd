package leddisplay

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/speedsqueak/leddisplay/leddisplaytest"
	"github.com/speedsqueak/leddisplay/segment"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func newTestDev(t *testing.T) (*Dev, *leddisplaytest.Chain) {
	t.Helper()
	c := leddisplaytest.NewChain(NumDigits)
	dev, err := New(&Opts{Clock: c.Clock(), Data: c.Data(), Latch: c.Latch()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c.Reset()
	return dev, c
}

func TestOptsValidation(t *testing.T) {
	c := leddisplaytest.NewChain(NumDigits)
	tests := []struct {
		name    string
		opts    *Opts
		wantErr bool
	}{
		{"nil options", nil, true},
		{"all lines", &Opts{Clock: c.Clock(), Data: c.Data(), Latch: c.Latch()}, false},
		{"missing clock", &Opts{Data: c.Data(), Latch: c.Latch()}, true},
		{"missing data", &Opts{Clock: c.Clock(), Latch: c.Latch()}, true},
		{"missing latch", &Opts{Clock: c.Clock(), Data: c.Data()}, true},
		{"negative flashes", &Opts{Clock: c.Clock(), Data: c.Data(), Latch: c.Latch(), Flashes: -1}, true},
		{"negative hold", &Opts{Clock: c.Clock(), Data: c.Data(), Latch: c.Latch(), Hold: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	dev, _ := newTestDev(t)
	if dev.flashes != DefaultFlashes {
		t.Errorf("flashes = %d, want %d", dev.flashes, DefaultFlashes)
	}
	if dev.interval != DefaultFlashInterval {
		t.Errorf("interval = %v, want %v", dev.interval, DefaultFlashInterval)
	}
	if dev.hold != DefaultHold {
		t.Errorf("hold = %v, want %v", dev.hold, DefaultHold)
	}
}

func TestNewDrivesLinesLow(t *testing.T) {
	clk := &gpiotest.Pin{N: "GPIO17", L: gpio.High}
	data := &gpiotest.Pin{N: "GPIO22", L: gpio.High}
	latch := &gpiotest.Pin{N: "GPIO27", L: gpio.High}

	if _, err := New(&Opts{Clock: clk, Data: data, Latch: latch}); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, p := range []*gpiotest.Pin{clk, data, latch} {
		if p.Read() != gpio.Low {
			t.Errorf("%s = %s after New, want Low", p.N, p.Read())
		}
	}
}

func TestNewLineFailure(t *testing.T) {
	c := leddisplaytest.NewChain(NumDigits)
	c.Fail = errors.New("bus fault")
	if _, err := New(&Opts{Clock: c.Clock(), Data: c.Data(), Latch: c.Latch()}); err == nil {
		t.Error("New should fail when a line cannot be driven")
	}
}

func TestShiftOutBitOrder(t *testing.T) {
	dev, c := newTestDev(t)

	// 0b10000001: MSB first, so data goes high on the first and last bit
	if err := dev.ShiftOut(0x81); err != nil {
		t.Fatalf("ShiftOut() error = %v", err)
	}

	log := c.Transitions()
	if len(log) != 8*3 {
		t.Fatalf("len(Transitions()) = %d, want 24", len(log))
	}
	for x := 0; x < 8; x++ {
		step := log[x*3 : x*3+3]
		wantData := gpio.Level(x == 0 || x == 7)
		want := []leddisplaytest.Transition{
			{Line: leddisplaytest.ClockLine, Level: gpio.Low},
			{Line: leddisplaytest.DataLine, Level: wantData},
			{Line: leddisplaytest.ClockLine, Level: gpio.High},
		}
		for i := range want {
			if step[i] != want[i] {
				t.Errorf("bit %d step %d = %v, want %v", x, i, step[i], want[i])
			}
		}
	}

	// Shifted but not latched
	if n := len(c.Frames()); n != 0 {
		t.Errorf("len(Frames()) = %d before Latch, want 0", n)
	}
}

func TestLatchPulse(t *testing.T) {
	dev, c := newTestDev(t)
	if err := dev.Latch(); err != nil {
		t.Fatalf("Latch() error = %v", err)
	}
	want := []leddisplaytest.Transition{
		{Line: leddisplaytest.LatchLine, Level: gpio.Low},
		{Line: leddisplaytest.LatchLine, Level: gpio.High},
	}
	got := c.Transitions()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Transitions() = %v, want %v", got, want)
	}
}

func TestShowValue(t *testing.T) {
	tests := []struct {
		name       string
		value      int
		tens, ones segment.Symbol
	}{
		{"zero", 0, segment.Blank, segment.Blank},
		{"single digit", 7, segment.Blank, segment.Seven},
		{"tens with zero ones", 40, segment.Four, segment.Blank},
		{"both digits", 47, segment.Four, segment.Seven},
		{"max", 99, segment.Nine, segment.Nine},
		{"ten", 10, segment.One, segment.Blank},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, c := newTestDev(t)
			if err := dev.ShowValue(tt.value); err != nil {
				t.Fatalf("ShowValue(%d) error = %v", tt.value, err)
			}
			out := c.Outputs()
			if want := segment.MustEncode(tt.ones, false); out[0] != want {
				t.Errorf("ones = %q, want %q", out[0], want)
			}
			if want := segment.MustEncode(tt.tens, false); out[1] != want {
				t.Errorf("tens = %q, want %q", out[1], want)
			}
		})
	}
}

func TestShowValueAllValues(t *testing.T) {
	dev, c := newTestDev(t)
	for v := 0; v <= 99; v++ {
		if err := dev.ShowValue(v); err != nil {
			t.Fatalf("ShowValue(%d) error = %v", v, err)
		}
		out := c.Outputs()
		for i, digit := range []int{v % 10, v / 10} {
			want := segment.MustEncode(segment.Symbol(digit), false)
			if digit == 0 {
				want = 0
			}
			if out[i] != want {
				t.Errorf("ShowValue(%d) position %d = %q, want %q", v, i, out[i], want)
			}
		}
	}
}

func TestShowValueRange(t *testing.T) {
	dev, c := newTestDev(t)
	for _, v := range []int{-1, 100, 1000} {
		if err := dev.ShowValue(v); !errors.Is(err, ErrValueRange) {
			t.Errorf("ShowValue(%d) error = %v, want ErrValueRange", v, err)
		}
	}
	if n := len(c.Transitions()); n != 0 {
		t.Errorf("out of range values must not touch the bus, got %d transitions", n)
	}
}

func TestShowSymbols(t *testing.T) {
	dev, c := newTestDev(t)
	if err := dev.ShowSymbols(segment.Dash, segment.C); err != nil {
		t.Fatalf("ShowSymbols() error = %v", err)
	}
	out := c.Outputs()
	if out[0].String() != "deg" || out[1].String() != "g" {
		t.Errorf("Outputs() = [%q %q], want [\"deg\" \"g\"]", out[0], out[1])
	}

	if err := dev.ShowSymbols(segment.Symbol(99), segment.One); !errors.Is(err, segment.ErrInvalidSymbol) {
		t.Errorf("ShowSymbols(invalid) error = %v, want ErrInvalidSymbol", err)
	}
}

func TestClear(t *testing.T) {
	dev, c := newTestDev(t)
	for _, v := range []int{88, 0, 5} {
		if err := dev.ShowValue(v); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 2; i++ {
			if err := dev.Clear(); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			if out := c.Outputs(); out[0] != 0 || out[1] != 0 {
				t.Errorf("Outputs() after Clear = %v, want blank", out)
			}
		}
	}
}

func TestClearTransitions(t *testing.T) {
	dev, c := newTestDev(t)
	if err := dev.Clear(); err != nil {
		t.Fatal(err)
	}

	// Two blank digits then one latch pulse
	log := c.Transitions()
	if len(log) != 2*8*3+2 {
		t.Fatalf("len(Transitions()) = %d, want %d", len(log), 2*8*3+2)
	}
	for i, tr := range log[:48] {
		if tr.Line == leddisplaytest.DataLine && tr.Level != gpio.Low {
			t.Errorf("transition %d = %v, blank data must stay low", i, tr)
		}
	}
	if log[48].Line != leddisplaytest.LatchLine || log[49].Line != leddisplaytest.LatchLine {
		t.Errorf("last transitions = %v, want latch pulse", log[48:])
	}
}

func TestDevHalt(t *testing.T) {
	dev, c := newTestDev(t)
	if err := dev.ShowValue(42); err != nil {
		t.Fatal(err)
	}

	if dev.halted {
		t.Error("device should not be halted initially")
	}
	if err := dev.Halt(); err != nil {
		t.Fatalf("Halt() error = %v", err)
	}
	if out := c.Outputs(); out[0] != 0 || out[1] != 0 {
		t.Errorf("Outputs() after Halt = %v, want blank", out)
	}

	// Operations fail once halted
	if err := dev.ShowValue(1); err == nil {
		t.Error("ShowValue should fail when halted")
	}
	if err := dev.Clear(); err == nil {
		t.Error("Clear should fail when halted")
	}
	if err := dev.ShiftOut(0xFF); err == nil {
		t.Error("ShiftOut should fail when halted")
	}
	if err := dev.Latch(); err == nil {
		t.Error("Latch should fail when halted")
	}

	// Halt again still blanks
	if err := dev.Halt(); err != nil {
		t.Errorf("second Halt() error = %v", err)
	}
}

func TestGPIOFailure(t *testing.T) {
	dev, c := newTestDev(t)
	c.Fail = errors.New("bus fault")

	err := dev.ShowValue(12)
	if err == nil {
		t.Fatal("ShowValue should fail on GPIO error")
	}
	if !strings.HasPrefix(err.Error(), "leddisplay: ") {
		t.Errorf("error = %q, want leddisplay prefix", err)
	}
	if !errors.Is(err, c.Fail) {
		t.Errorf("error = %v, want wrapped bus fault", err)
	}
}

func TestDevString(t *testing.T) {
	dev := &Dev{}
	want := "leddisplay.Dev{2 digits}"
	if got := dev.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
