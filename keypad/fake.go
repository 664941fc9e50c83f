package keypad

// Fake is a channel-backed Reader for tests and desktop runs.
type Fake struct {
	keys chan byte
}

func NewFake() *Fake {
	return &Fake{keys: make(chan byte, 64)}
}

// Press queues key bytes as if they were typed.
func (f *Fake) Press(keys ...byte) {
	for _, k := range keys {
		f.keys <- k
	}
}

// Type queues every byte of s.
func (f *Fake) Type(s string) {
	f.Press([]byte(s)...)
}

func (f *Fake) Keys() <-chan byte {
	return f.keys
}

func (f *Fake) Close() error {
	close(f.keys)
	return nil
}
