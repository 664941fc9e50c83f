package modem_test

import (
	"context"
	"testing"
	"time"

	"github.com/waterbearfieldschool/diy-phone/modem"
)

// staticDialer hands out a pre-built transport, so tests can drive the modem
// through a TestTransport instead of gomock expectations.
type staticDialer struct {
	transport modem.Transport
}

func (d staticDialer) Dial(ctx context.Context) (modem.Transport, error) {
	return d.transport, nil
}

// queueInitReplies pre-loads the replies for the power-on handshake, in
// order: AT (echo still on), ATE0, AT+CMEE=2, AT+CPIN?, AT+CMGF=1.
func queueInitReplies(tr *modem.TestTransport) {
	tr.SendData("AT\r\nOK\r\n")
	tr.SendData("ATE0\r\nOK\r\n")
	tr.SendData("OK\r\n")
	tr.SendData("+CPIN: READY\r\nOK\r\n")
	tr.SendData("OK\r\n")
}

// newTestModem builds a modem over a TestTransport with the initialization
// replies pre-queued, and starts the Loop. The returned cleanup stops the
// Loop and closes the modem.
func newTestModem(t *testing.T) (*modem.Modem, *modem.TestTransport, func()) {
	t.Helper()

	tr := modem.NewTestTransport()
	queueInitReplies(tr)

	config, err := modem.NewConfigBuilder().
		WithDialer(staticDialer{transport: tr}).
		Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m, err := modem.New(ctx, config)
	if err != nil {
		cancel()
		t.Fatalf("failed to create modem: %v", err)
	}

	// Drain the init writes so awaitWrite only sees test traffic.
	for len(tr.Writes()) > 0 {
		<-tr.Writes()
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		m.Loop(ctx)
	}()

	cleanup := func() {
		cancel()
		m.Close()
		<-loopDone
	}
	return m, tr, cleanup
}

// awaitWrite blocks until the transport sees the expected wire bytes,
// skipping unrelated writes, or fails the test after a timeout.
func awaitWrite(t *testing.T, tr *modem.TestTransport, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-tr.Writes():
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for write %q", want)
		}
	}
}
