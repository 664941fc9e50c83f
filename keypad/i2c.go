package keypad

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// DefaultAddr is the CardKB keyboard's fixed I2C address.
const DefaultAddr = 0x5F

// I2C polls the keyboard over I2C and forwards keypresses. The device
// reports the pending key on every read and 0x00 when nothing is pressed,
// so polling is the protocol; there is no interrupt line.
type I2C struct {
	bus  i2c.BusCloser
	keys chan byte
	stop chan struct{}
}

// OpenI2C opens the named I2C bus ("" selects the first available one) and
// starts polling the keyboard at addr. host.Init must have been called.
func OpenI2C(busName string, addr uint16) (*I2C, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}

	k := &I2C{
		bus:  bus,
		keys: make(chan byte, 16),
		stop: make(chan struct{}),
	}
	go k.poll(&i2c.Dev{Bus: bus, Addr: addr})
	return k, nil
}

// poll reads the device on a fixed interval. 50ms keeps fast typing
// responsive without measurable CPU load.
func (k *I2C) poll(dev *i2c.Dev) {
	defer close(k.keys)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	buf := make([]byte, 1)
	for {
		select {
		case <-k.stop:
			return
		case <-ticker.C:
			if err := dev.Tx(nil, buf); err != nil {
				// Transient bus glitches happen; keep polling.
				continue
			}
			if buf[0] == 0 {
				continue
			}
			select {
			case k.keys <- buf[0]:
			default:
				// Consumer stalled; dropping beats blocking the poll.
			}
		}
	}
}

func (k *I2C) Keys() <-chan byte {
	return k.keys
}

func (k *I2C) Close() error {
	close(k.stop)
	return k.bus.Close()
}
