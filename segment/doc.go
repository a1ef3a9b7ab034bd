// Package segment provides the seven-segment encoding used by the large digit
// drivers.
//
// Each digit is driven by one 8-bit shift register. A Pattern holds one bit
// per stroke plus the decimal point, in the order the driver boards are wired:
//
//	    -       A
//	   / /     F/B
//	    -       G
//	   / /     E/C
//	    -.     D/DP
//
//	Bit:     7   6   5   4   3   2   1   0
//	Segment: DP  B   C   D   E   G   F   A
//
// This package provides:
//
// - Symbol: the closed set of characters a digit can show (0-9, blank, dash, "c")
// - Pattern: the segment bitmask shifted out to the register
// - Encode: Symbol to Pattern, with an optional decimal point
//
// Example usage:
//
//	p, err := segment.Encode(segment.Seven, false)
//	if err != nil {
//		return err
//	}
//	fmt.Println(p) // Output: abc
//
//	// Digits 0-9 map onto symbols directly
//	s, _ := segment.Digit(4)
//	fmt.Println(segment.MustEncode(s, true)) // Output: bcfg.
package segment
