// Package keypad turns the I2C keyboard into a stream of single key bytes.
package keypad

// Key byte values emitted by the CardKB-style keyboard. Arrows and
// specials are single bytes above ASCII; printable characters arrive as
// plain ASCII.
const (
	KeyUp    byte = 0xB5
	KeyDown  byte = 0xB6
	KeyLeft  byte = 0xB4
	KeyRight byte = 0xB7
	KeyEsc   byte = 0x1B
	KeyBack  byte = 0x08
	KeyDel   byte = 0x7F
	KeyTab   byte = 0x09
	KeyEnter byte = 0x0D
)

// Reader produces key bytes from some input device.
type Reader interface {
	// Keys yields one byte per keypress. The channel closes when the
	// reader shuts down.
	Keys() <-chan byte
	Close() error
}
