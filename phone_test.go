package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/waterbearfieldschool/diy-phone/contacts"
	"github.com/waterbearfieldschool/diy-phone/keypad"
	"github.com/waterbearfieldschool/diy-phone/modem"
	"github.com/waterbearfieldschool/diy-phone/store"
	"github.com/waterbearfieldschool/diy-phone/ui"
)

// fakeGSM stands in for the modem. Stored messages and errors are set by
// the test; every method records that it ran. Safe for concurrent use so
// the loop-level test can observe it.
type fakeGSM struct {
	mu sync.Mutex

	stored  []modem.SMS
	listErr error
	readErr error
	sendErr error
	dialErr error

	listed   int
	reads    int
	sentTo   string
	sentBody string
	dialed   string
	answered int
	hungUp   int

	urc chan string
}

func newFakeGSM() *fakeGSM {
	return &fakeGSM{urc: make(chan string, 10)}
}

func (g *fakeGSM) SendSMS(_ context.Context, recipient, message string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return g.sendErr
	}
	g.sentTo = recipient
	g.sentBody = message
	return nil
}

func (g *fakeGSM) ListMessages(_ context.Context) ([]modem.SMS, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listed++
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.stored, nil
}

func (g *fakeGSM) ReadMessage(_ context.Context, index int) (modem.SMS, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reads++
	if g.readErr != nil {
		return modem.SMS{}, g.readErr
	}
	for _, sms := range g.stored {
		if sms.Index == index {
			return sms, nil
		}
	}
	return modem.SMS{}, errors.New("no message at index")
}

func (g *fakeGSM) DeleteAllStored(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stored = nil
	return nil
}

func (g *fakeGSM) Dial(_ context.Context, number string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dialErr != nil {
		return g.dialErr
	}
	g.dialed = number
	return nil
}

func (g *fakeGSM) Answer(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answered++
	return nil
}

func (g *fakeGSM) Hangup(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hungUp++
	return nil
}

func (g *fakeGSM) URC() <-chan string { return g.urc }

func (g *fakeGSM) listCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.listed
}

func (g *fakeGSM) readCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reads
}

type phoneFixture struct {
	phone  *Phone
	gsm    *fakeGSM
	keys   *keypad.Fake
	screen *ui.Recorder
	store  *store.Store
	clock  time.Time
}

func newPhoneFixture(t *testing.T) *phoneFixture {
	t.Helper()

	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}

	f := &phoneFixture{
		gsm:    newFakeGSM(),
		keys:   keypad.NewFake(),
		screen: ui.NewRecorder(),
		store:  st,
		clock:  time.Date(2025, 12, 26, 10, 0, 0, 0, time.UTC),
	}

	book := contacts.Load(filepath.Join(t.TempDir(), "contacts.csv"))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.phone = NewPhone(f.gsm, st, book, f.keys, f.screen, logger)
	f.phone.now = func() time.Time { return f.clock }
	f.phone.nav.Start()
	return f
}

func (f *phoneFixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func TestHandleNewMessage(t *testing.T) {
	incoming := modem.SMS{
		Index:  9,
		Status: "REC UNREAD",
		Sender: "16174299144",
		Time:   "25/12/25,16:25:06-32",
		FileID: "251225_162506",
		Text:   "dock at noon",
	}

	t.Run("Fetches the indexed message", func(t *testing.T) {
		f := newPhoneFixture(t)
		f.gsm.stored = []modem.SMS{incoming}

		f.phone.handleNotification(`+CMTI: "SM",9`)

		list, err := f.store.List(false)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("store has %d messages, want 1", len(list))
		}
		if list[0].FileID != "251225_162506" || list[0].Content != "dock at noon" {
			t.Errorf("stored message = %+v", list[0])
		}
		if f.screen.Status != "MSG 1/1" {
			t.Errorf("status = %q, inbox should refresh in place", f.screen.Status)
		}
	})

	t.Run("Falls back to full fetch on a bad index", func(t *testing.T) {
		f := newPhoneFixture(t)
		f.gsm.stored = []modem.SMS{incoming}

		f.phone.handleNotification(`+CMTI: "SM",junk`)

		if got := f.gsm.listCount(); got != 1 {
			t.Errorf("list calls = %d, want 1", got)
		}
		list, _ := f.store.List(false)
		if len(list) != 1 {
			t.Errorf("store has %d messages, want 1 from fallback", len(list))
		}
	})

	t.Run("Falls back when the indexed read fails", func(t *testing.T) {
		f := newPhoneFixture(t)
		f.gsm.stored = []modem.SMS{incoming}
		f.gsm.readErr = errors.New("CMS ERROR: 321")

		f.phone.handleNotification(`+CMTI: "SM",9`)

		if got := f.gsm.listCount(); got != 1 {
			t.Errorf("list calls = %d, want 1", got)
		}
	})
}

func TestCallEvents(t *testing.T) {
	t.Run("Outbound call lifecycle", func(t *testing.T) {
		f := newPhoneFixture(t)

		if err := f.phone.StartCall("16512524765", "Don (voip)"); err != nil {
			t.Fatalf("StartCall: %v", err)
		}
		if f.gsm.dialed != "16512524765" {
			t.Errorf("dialed = %q", f.gsm.dialed)
		}

		// The navigator is not on the call view in this fixture; put it
		// there the way the UI would.
		f.phone.nav.HandleKey(' ')
		f.phone.handleNotification("VOICE CALL: BEGIN")
		if f.screen.Status != "Call in progress" {
			t.Errorf("status = %q, want Call in progress", f.screen.Status)
		}

		f.phone.handleNotification("VOICE CALL: END: 000015")
		if !strings.Contains(f.screen.BannerBody, "15s") {
			t.Errorf("banner body = %q, want reported duration 15s", f.screen.BannerBody)
		}
	})

	t.Run("Ring shows the incoming call screen", func(t *testing.T) {
		f := newPhoneFixture(t)

		f.phone.handleNotification("RING")
		if f.screen.BannerTitle != "INCOMING CALL" {
			t.Errorf("banner title = %q, want INCOMING CALL", f.screen.BannerTitle)
		}

		// Repeats while ringing must not reset the screen state.
		f.phone.handleNotification("RING")
		if f.screen.BannerTitle != "INCOMING CALL" {
			t.Errorf("banner title = %q after repeat ring", f.screen.BannerTitle)
		}
	})

	t.Run("No carrier ends a dialing call", func(t *testing.T) {
		f := newPhoneFixture(t)

		f.phone.StartCall("16512524765", "Don (voip)")
		f.phone.nav.HandleKey(' ')
		f.phone.handleNotification("NO CARRIER")

		if !strings.HasPrefix(f.screen.BannerTitle, "CALL ENDED") {
			t.Errorf("banner title = %q, want CALL ENDED prefix", f.screen.BannerTitle)
		}
	})

	t.Run("Unanswered dial fails the call", func(t *testing.T) {
		f := newPhoneFixture(t)

		f.phone.StartCall("16512524765", "Don (voip)")
		f.phone.nav.HandleKey(' ')
		f.phone.handleNotification("NO ANSWER")

		if !strings.HasPrefix(f.screen.BannerTitle, "CALL FAILED") {
			t.Errorf("banner title = %q, want CALL FAILED prefix", f.screen.BannerTitle)
		}
	})

	t.Run("Countdown returns to the inbox", func(t *testing.T) {
		f := newPhoneFixture(t)

		f.phone.StartCall("16512524765", "Don (voip)")
		f.phone.nav.HandleKey(' ')
		f.phone.handleNotification("VOICE CALL: BEGIN")
		f.phone.handleNotification("VOICE CALL: END: 000007")

		f.advance(5 * time.Second)
		f.phone.tick()
		if f.screen.Title != "CALL" {
			t.Errorf("title = %q, should still show the call banner", f.screen.Title)
		}

		f.advance(6 * time.Second)
		f.phone.tick()
		if f.screen.Title != "INBOX" {
			t.Errorf("title = %q, want INBOX after the countdown", f.screen.Title)
		}
	})
}

func TestSendMessage(t *testing.T) {
	t.Run("Stores an outbound copy on success", func(t *testing.T) {
		f := newPhoneFixture(t)

		if err := f.phone.SendMessage("16174299144", "on my way"); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}

		list, err := f.store.List(false)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("store has %d messages, want 1", len(list))
		}
		msg := list[0]
		if msg.Status != "STO SENT" {
			t.Errorf("status = %q, want STO SENT", msg.Status)
		}
		if msg.FileID != "251226_100000" {
			t.Errorf("fileID = %q, want 251226_100000", msg.FileID)
		}
		if msg.Sender != "16174299144" {
			t.Errorf("sender = %q, outbound copy should key on the recipient", msg.Sender)
		}
	})

	t.Run("Stores nothing on failure", func(t *testing.T) {
		f := newPhoneFixture(t)
		f.gsm.sendErr = errors.New("+CMS ERROR: 500")

		if err := f.phone.SendMessage("16174299144", "on my way"); err == nil {
			t.Fatal("expected send error")
		}

		list, _ := f.store.List(false)
		if len(list) != 0 {
			t.Errorf("store has %d messages, want 0 after failed send", len(list))
		}
	})
}

func TestRefreshMessages(t *testing.T) {
	f := newPhoneFixture(t)
	f.gsm.stored = []modem.SMS{
		{Index: 1, Status: "REC READ", Sender: "16174299144", Time: "25/12/25,16:25:06-32", FileID: "251225_162506", Text: "first"},
		{Index: 2, Status: "REC UNREAD", Sender: "16512524765", Time: "25/12/26,09:15:00-32", FileID: "251226_091500", Text: "second"},
	}

	if err := f.phone.RefreshMessages(); err != nil {
		t.Fatalf("RefreshMessages: %v", err)
	}
	// Fetching again must not duplicate anything.
	if err := f.phone.RefreshMessages(); err != nil {
		t.Fatalf("RefreshMessages again: %v", err)
	}

	list, err := f.store.List(false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("store has %d messages, want 2", len(list))
	}
}

func TestRun(t *testing.T) {
	t.Run("Processes keys from the keypad", func(t *testing.T) {
		f := newPhoneFixture(t)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- f.phone.Run(ctx) }()

		// startup fetch is list call number one; the refresh key is two
		f.keys.Press('n')

		deadline := time.After(2 * time.Second)
		for f.gsm.listCount() < 2 {
			select {
			case <-deadline:
				t.Fatal("timed out waiting for the refresh key to reach the modem")
			case <-time.After(5 * time.Millisecond):
			}
		}

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Run returned %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not stop on context cancel")
		}
	})

	t.Run("Notification wakes the loop", func(t *testing.T) {
		f := newPhoneFixture(t)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- f.phone.Run(ctx) }()

		// Wait out the startup fetch, then deliver a message the fetch
		// could not have seen.
		startup := time.After(2 * time.Second)
		for f.gsm.listCount() < 1 {
			select {
			case <-startup:
				t.Fatal("timed out waiting for the startup fetch")
			case <-time.After(5 * time.Millisecond):
			}
		}
		f.gsm.mu.Lock()
		f.gsm.stored = []modem.SMS{{
			Index: 3, Status: "REC UNREAD", Sender: "17813230341",
			Time: "25/12/27,08:00:00-32", FileID: "251227_080000", Text: "hello",
		}}
		f.gsm.mu.Unlock()

		f.gsm.urc <- `+CMTI: "SM",3`

		deadline := time.After(2 * time.Second)
		for f.gsm.readCount() < 1 {
			select {
			case <-deadline:
				t.Fatal("timed out waiting for the notification to reach the modem")
			case <-time.After(5 * time.Millisecond):
			}
		}

		cancel()
		<-done

		list, err := f.store.List(true)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 1 || list[0].FileID != "251227_080000" {
			t.Errorf("stored messages = %+v, want the notified message", list)
		}
	})
}
