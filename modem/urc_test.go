package modem_test

import (
	"testing"
	"time"
)

// awaitURC waits for the next URC or fails the test.
func awaitURC(t *testing.T, urc <-chan string) string {
	t.Helper()
	select {
	case token := <-urc:
		return token
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for URC")
		return ""
	}
}

func TestURCDelivery(t *testing.T) {
	t.Run("CMTI notification split across reads", func(t *testing.T) {
		// Serial reads chunk arbitrarily; the scanner must reassemble a
		// notification that arrives in pieces before dispatching it.
		m, tr, cleanup := newTestModem(t)
		defer cleanup()

		tr.SendData("+C")
		tr.SendData("MTI: \"SM\"")
		tr.SendData(",9\r\n")

		got := awaitURC(t, m.URC())
		if got != "+CMTI: \"SM\",9" {
			t.Errorf("unexpected URC: %q", got)
		}
	})

	t.Run("Ring and voice call lifecycle", func(t *testing.T) {
		m, tr, cleanup := newTestModem(t)
		defer cleanup()

		tr.SendData("RING\r\n")
		tr.SendData("VOICE CALL: BEGIN\r\n")
		tr.SendData("VOICE CALL: END: 000015\r\n")

		for _, want := range []string{"RING", "VOICE CALL: BEGIN", "VOICE CALL: END: 000015"} {
			if got := awaitURC(t, m.URC()); got != want {
				t.Errorf("expected URC %q, got %q", want, got)
			}
		}
	})

	t.Run("Unsolicited NO CARRIER surfaces as URC", func(t *testing.T) {
		// NO CARRIER with no command in flight means the remote side hung
		// up; it must reach the URC channel instead of being dropped.
		m, tr, cleanup := newTestModem(t)
		defer cleanup()

		tr.SendData("NO CARRIER\r\n")

		if got := awaitURC(t, m.URC()); got != "NO CARRIER" {
			t.Errorf("unexpected URC: %q", got)
		}
	})

	t.Run("Unsolicited BUSY surfaces as URC", func(t *testing.T) {
		m, tr, cleanup := newTestModem(t)
		defer cleanup()

		tr.SendData("BUSY\r\n")

		if got := awaitURC(t, m.URC()); got != "BUSY" {
			t.Errorf("unexpected URC: %q", got)
		}
	})
}
