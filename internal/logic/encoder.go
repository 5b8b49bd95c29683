package logic

// SequenceCap is the number of LED positions on the board.
const SequenceCap = 11

// Pair maps one bit of the packed time word to the port pattern that lights
// the corresponding LED.
type Pair struct {
	Selector uint16
	Pattern  byte
}

// Table lists the LEDs from D0 (least significant minute bit) to D10 (most
// significant hour bit). Bit 0 of every pattern is set because port bit 0 is
// the hours button input and must keep its pull-up.
var Table = [SequenceCap]Pair{
	{0b00000000001, 0b00000011}, // D0
	{0b00000000010, 0b01111101}, // D1
	{0b00000000100, 0b00000101}, // D2
	{0b00000001000, 0b01111011}, // D3
	{0b00000010000, 0b00001001}, // D4
	{0b00000100000, 0b01110111}, // D5
	{0b00001000000, 0b00100001}, // D6
	{0b00010000000, 0b01011111}, // D7
	{0b00100000000, 0b01000001}, // D8
	{0b01000000000, 0b00111111}, // D9
	{0b10000000000, 0b10000001}, // D10
}

// Sequence holds the patterns to multiplex, packed to the front. The first
// zero byte terminates it.
type Sequence [SequenceCap]byte

// Len returns the number of patterns before the sentinel.
func (s Sequence) Len() int {
	for i, p := range s {
		if p == 0 {
			return i
		}
	}
	return len(s)
}

// Patterns returns the patterns before the sentinel.
func (s Sequence) Patterns() []byte {
	return s[:s.Len()]
}

// PackFunc combines hours and minutes into the word that selects LEDs.
type PackFunc func(hours, minutes int) uint16

// PackXOR is the packing used by the original board. Hours occupy bits 6 and
// up, minutes bits 0-5. For in-range values the fields never overlap, so it
// only differs from PackOR when the adjust path pushes a field out of range.
func PackXOR(hours, minutes int) uint16 {
	return uint16(hours<<6) ^ uint16(minutes)
}

// PackOR packs the fields with a bitwise or.
func PackOR(hours, minutes int) uint16 {
	return uint16(hours<<6) | uint16(minutes)
}

// EncodeWord returns the patterns of every table entry whose selector bit is
// set in word, in table order. A zero word (midnight) yields an empty
// sequence.
func EncodeWord(word uint16) Sequence {
	var seq Sequence
	if word == 0 {
		return seq
	}
	n := 0
	for _, p := range Table {
		if p.Selector&word == 0 {
			continue
		}
		seq[n] = p.Pattern
		n++
	}
	return seq
}

// Encode packs hours and minutes the way the original board does and
// encodes the result.
func Encode(hours, minutes int) Sequence {
	return EncodeWord(PackXOR(hours, minutes))
}
