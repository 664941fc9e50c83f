package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/waterbearfieldschool/diy-phone/at"
	"github.com/waterbearfieldschool/diy-phone/callsession"
	"github.com/waterbearfieldschool/diy-phone/contacts"
	"github.com/waterbearfieldschool/diy-phone/keypad"
	"github.com/waterbearfieldschool/diy-phone/modem"
	"github.com/waterbearfieldschool/diy-phone/store"
	"github.com/waterbearfieldschool/diy-phone/ui"
)

// gsm is the subset of the modem the phone drives. The concrete *modem.Modem
// satisfies it; tests substitute a fake.
type gsm interface {
	SendSMS(ctx context.Context, recipient, message string) error
	ListMessages(ctx context.Context) ([]modem.SMS, error)
	ReadMessage(ctx context.Context, index int) (modem.SMS, error)
	DeleteAllStored(ctx context.Context) error
	Dial(ctx context.Context, number string) error
	Answer(ctx context.Context) error
	Hangup(ctx context.Context) error
	URC() <-chan string
}

// opTimeout bounds any single modem operation issued from the phone loop.
const opTimeout = 30 * time.Second

// tickInterval drives timer housekeeping (call duration refresh, the
// end-of-call countdown). The tracker does its own deadline arithmetic, so
// this only needs to be comfortably under a second.
const tickInterval = 100 * time.Millisecond

// Phone wires the modem, message store, contacts, call tracker and UI into
// one event loop. It implements ui.Controller, so every side effect the
// Navigator asks for comes back through here.
type Phone struct {
	modem   gsm
	store   *store.Store
	keys    keypad.Reader
	tracker *callsession.Tracker
	nav     *ui.Navigator
	logger  *slog.Logger
	now     func() time.Time

	ctx context.Context
}

func NewPhone(m gsm, st *store.Store, book *contacts.Directory, keys keypad.Reader, surface ui.Surface, logger *slog.Logger) *Phone {
	p := &Phone{
		modem:  m,
		store:  st,
		keys:   keys,
		logger: logger,
		now:    time.Now,
	}
	p.tracker = callsession.New(func() time.Time { return p.now() })
	p.nav = ui.NewNavigator(surface, st, book, p.tracker, p, logger.With("component", "ui"))
	return p
}

// Run is the phone's main loop. Each iteration drains pending modem
// notifications first (new messages, call events), then takes one key
// press, then runs timer housekeeping. The fixed priority keeps the screen
// consistent with the modem before the next key is interpreted.
//
// Run blocks until ctx is cancelled or an input channel closes.
func (p *Phone) Run(ctx context.Context) error {
	p.ctx = ctx

	// Pull whatever is already sitting in modem storage so the inbox has
	// content on first paint. A failure here is not fatal; the user can
	// refresh manually.
	if err := p.RefreshMessages(); err != nil {
		p.logger.Warn("initial message fetch failed", "error", err)
	}
	p.nav.Start()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		if closed := p.drainNotifications(); closed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-p.modem.URC():
			if !ok {
				return nil
			}
			p.handleNotification(line)

		case key, ok := <-p.keys.Keys():
			if !ok {
				return nil
			}
			p.nav.HandleKey(key)

		case <-ticker.C:
			p.tick()
		}
	}
}

// drainNotifications empties the URC channel without blocking. Reports
// whether the channel closed.
func (p *Phone) drainNotifications() bool {
	for {
		select {
		case line, ok := <-p.modem.URC():
			if !ok {
				return true
			}
			p.handleNotification(line)
		default:
			return false
		}
	}
}

func (p *Phone) handleNotification(line string) {
	if strings.Contains(line, "CMTI") {
		p.handleNewMessage(line)
		return
	}

	ev, ok := at.ParseCallEvent(line)
	if !ok {
		p.logger.Debug("unhandled notification", "line", line)
		return
	}
	p.handleCallEvent(ev)
}

// handleNewMessage fetches the message named by a +CMTI notification into
// local storage. When the index cannot be parsed or read, it falls back to
// fetching everything; a notification must never be silently lost.
func (p *Phone) handleNewMessage(line string) {
	index, err := at.ParseCMTI(line)
	if err != nil {
		p.logger.Warn("message notification unparseable, fetching all", "line", line, "error", err)
		if err := p.RefreshMessages(); err != nil {
			p.logger.Error("fallback message fetch failed", "error", err)
			return
		}
		p.nav.NotifyNewMessage()
		return
	}

	ctx, cancel := p.opCtx()
	defer cancel()

	sms, err := p.modem.ReadMessage(ctx, index)
	if err != nil {
		p.logger.Warn("read new message failed, fetching all", "index", index, "error", err)
		if err := p.RefreshMessages(); err != nil {
			p.logger.Error("fallback message fetch failed", "error", err)
			return
		}
		p.nav.NotifyNewMessage()
		return
	}

	if err := p.store.Put(storeMessage(sms)); err != nil {
		p.logger.Error("store new message", "fileID", sms.FileID, "error", err)
		return
	}
	p.logger.Info("new message stored", "fileID", sms.FileID, "sender", sms.Sender)
	p.nav.NotifyNewMessage()
}

func (p *Phone) handleCallEvent(ev at.CallEvent) {
	var changed bool
	switch ev.Kind {
	case at.CallRing:
		if p.tracker.HandleEvent(callsession.EventRing) {
			p.logger.Info("incoming call")
			p.nav.ShowIncomingCall()
		}
		return

	case at.CallBegin:
		changed = p.tracker.HandleEvent(callsession.EventBegin)

	case at.CallEnd:
		changed = p.tracker.HandleEvent(callsession.EventEnd)
		if ev.HasDuration {
			p.tracker.SetDuration(ev.Duration)
		}

	case at.CallNoCarrier:
		changed = p.tracker.HandleEvent(callsession.EventNoCarrier)

	case at.CallFailed:
		changed = p.tracker.HandleEvent(callsession.EventFailed)
	}

	if changed {
		p.logger.Info("call state", "state", p.tracker.State().String())
		p.nav.RenderCallStatus()
	}
}

func (p *Phone) tick() {
	switch p.tracker.Tick() {
	case callsession.TickRefresh:
		p.nav.RenderCallStatus()
	case callsession.TickReturn:
		p.nav.ReturnToInbox()
	}
}

// RefreshMessages copies every message from modem storage into the local
// store. Already-stored messages overwrite in place (same FileID, same
// content), so the operation is idempotent.
func (p *Phone) RefreshMessages() error {
	ctx, cancel := p.opCtx()
	defer cancel()

	list, err := p.modem.ListMessages(ctx)
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}

	for _, sms := range list {
		if err := p.store.Put(storeMessage(sms)); err != nil {
			return fmt.Errorf("store message %s: %w", sms.FileID, err)
		}
	}
	return nil
}

// SendMessage sends body to number and, only on success, records an
// outbound copy so the thread view shows both sides.
func (p *Phone) SendMessage(number, body string) error {
	ctx, cancel := p.opCtx()
	defer cancel()

	if err := p.modem.SendSMS(ctx, number, body); err != nil {
		return err
	}

	now := p.now()
	sent := store.Message{
		FileID:  now.Format("060102_150405"),
		Sender:  number,
		Time:    now.Format("06/01/02,15:04:05") + "-00",
		Status:  "STO SENT",
		Content: body,
	}
	if err := p.store.Put(sent); err != nil {
		// The message went out; losing the local copy is not a send error.
		p.logger.Warn("store sent copy", "fileID", sent.FileID, "error", err)
	}
	return nil
}

func (p *Phone) DeleteAllOnDevice() error {
	ctx, cancel := p.opCtx()
	defer cancel()
	return p.modem.DeleteAllStored(ctx)
}

func (p *Phone) StartCall(number, name string) error {
	ctx, cancel := p.opCtx()
	defer cancel()

	if err := p.modem.Dial(ctx, number); err != nil {
		return err
	}
	p.tracker.StartDial(name)
	p.logger.Info("dialing", "name", name)
	return nil
}

func (p *Phone) AnswerCall() error {
	ctx, cancel := p.opCtx()
	defer cancel()

	if err := p.modem.Answer(ctx); err != nil {
		return err
	}
	p.tracker.Answer()
	return nil
}

func (p *Phone) RejectCall() error {
	ctx, cancel := p.opCtx()
	defer cancel()

	err := p.modem.Hangup(ctx)
	p.tracker.Reject()
	return err
}

func (p *Phone) HangupCall() error {
	ctx, cancel := p.opCtx()
	defer cancel()

	err := p.modem.Hangup(ctx)
	p.tracker.Hangup()
	return err
}

func (p *Phone) opCtx() (context.Context, context.CancelFunc) {
	ctx := p.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, opTimeout)
}

// storeMessage converts a modem-side message to its stored form.
func storeMessage(sms modem.SMS) store.Message {
	return store.Message{
		FileID:  sms.FileID,
		Sender:  sms.Sender,
		Time:    sms.Time,
		Status:  sms.Status,
		Content: sms.Text,
	}
}
