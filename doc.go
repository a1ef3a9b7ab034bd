// Package leddisplay controls a two-digit large seven-segment display driven
// by a daisy chain of serial shift registers.
//
// Each digit sits on its own 8-bit driver board (for example the SparkFun
// Large Digit Driver, TPIC6C596 based). The boards share a clock and a latch
// line; the serial output of one board feeds the serial input of the next.
//
// # Hardware Connection
//
// Connect the first board of the chain to three GPIO outputs:
//
//	Board Pin → System Pin
//	GND       → GND
//	5V        → 5V
//	12V       → 12V (segment supply)
//	CLK       → GPIO (register clock)
//	SER       → GPIO (serial data)
//	LAT       → GPIO (output latch)
//
// The first pattern shifted in ends up on the digit farthest from the
// controller, so the ones digit is shifted before the tens digit.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/host/v3"
//		"github.com/speedsqueak/leddisplay"
//	)
//
//	func main() {
//		// Initialize periph.io
//		host.Init()
//
//		dev, _ := leddisplay.New(&leddisplay.Opts{
//			Clock: gpioreg.ByName("GPIO17"),
//			Data:  gpioreg.ByName("GPIO22"),
//			Latch: gpioreg.ByName("GPIO27"),
//		})
//		defer dev.Halt()
//
//		// Show 47 steadily
//		dev.ShowValue(47)
//	}
//
// # Flash Sequence
//
// Flash draws attention to a new reading. With the default timing it shows
// the value for 250ms, blanks for 250ms, repeats once, then holds the value
// for 3s and blanks the display:
//
//	dev.Flash(ctx, 47)
//
// Cancelling ctx blanks the display and returns early. Frames are always
// written whole, so a cancellation never leaves half a frame in the chain.
//
// # Zero Digits
//
// A digit whose value is 0 is left blank, in both positions. 40 shows as
// "4 ", 7 as " 7" and 0 as an empty display.
//
// # Other Symbols
//
// Dash and "c" are available through ShowSymbols:
//
//	dev.ShowSymbols(segment.Dash, segment.Dash)
//
// # Line Backends
//
// Any value with an Out(gpio.Level) error method can drive the bus. periph.io
// gpio.PinOut satisfies Line directly; the cdevline package provides lines on
// top of the Linux GPIO character device.
package leddisplay
