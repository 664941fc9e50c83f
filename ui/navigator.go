package ui

import (
	"log/slog"

	"github.com/waterbearfieldschool/diy-phone/callsession"
	"github.com/waterbearfieldschool/diy-phone/contacts"
	"github.com/waterbearfieldschool/diy-phone/keypad"
	"github.com/waterbearfieldschool/diy-phone/store"
)

// Controller is what the Navigator asks the application to do. Every
// method talks to the modem (or the store) on the Navigator's behalf;
// errors come back as values and end up in the status region.
type Controller interface {
	// RefreshMessages pulls new messages from the modem into the store.
	RefreshMessages() error
	// SendMessage sends body to the given number and records the
	// outbound copy on success.
	SendMessage(number, body string) error
	// DeleteAllOnDevice wipes the modem's own message storage.
	DeleteAllOnDevice() error
	// StartCall dials number; name is the resolved display name.
	StartCall(number, name string) error
	AnswerCall() error
	RejectCall() error
	HangupCall() error
}

// view identifies the active screen.
type view int

const (
	viewInbox view = iota
	viewThread
	viewDetail
	viewCompose
	viewSelectRecipient
	viewCall
	viewIncomingCall
)

// entryMode switches recipient/call entry between the address book picker
// and typed numbers.
type entryMode int

const (
	modeContacts entryMode = iota
	modeManual
)

// Navigator is the view state machine. It owns all transient per-view
// state (selection, scroll, text buffers) and renders through the Surface.
// It is driven from a single goroutine; nothing here is safe for
// concurrent use.
type Navigator struct {
	surface Surface
	store   *store.Store
	book    *contacts.Directory
	tracker *callsession.Tracker
	ctrl    Controller
	logger  *slog.Logger

	view view

	// inbox
	selected int
	scroll   int

	// thread
	threadContact  string
	threadMessages []store.Message
	threadLines    []string
	threadLineMsg  []int // display line index -> thread message index
	threadScroll   int
	threadSelected int

	// compose
	composeBuf      string
	recipientName   string
	recipientNumber string

	// recipient selection
	recipientIdx int
	entryMode    entryMode
	manualNumber string

	// call screen
	callIdx    int
	callMode   entryMode
	callNumber string
}

func NewNavigator(surface Surface, st *store.Store, book *contacts.Directory, tracker *callsession.Tracker, ctrl Controller, logger *slog.Logger) *Navigator {
	return &Navigator{
		surface: surface,
		store:   st,
		book:    book,
		tracker: tracker,
		ctrl:    ctrl,
		logger:  logger,
	}
}

// Start renders the initial inbox.
func (n *Navigator) Start() {
	n.showInbox()
}

// HandleKey processes one keypad byte against the active view's key table.
func (n *Navigator) HandleKey(key byte) {
	switch n.view {
	case viewInbox:
		n.inboxKey(key)
	case viewThread:
		n.threadKey(key)
	case viewDetail:
		n.detailKey(key)
	case viewCompose:
		n.composeKey(key)
	case viewSelectRecipient:
		n.recipientKey(key)
	case viewCall:
		n.callKey(key)
	case viewIncomingCall:
		n.incomingCallKey(key)
	}
}

// NotifyNewMessage is called after a new message landed in the store.
// The inbox refreshes in place; other views keep their context.
func (n *Navigator) NotifyNewMessage() {
	if n.view == viewInbox {
		n.refreshInbox()
	}
}

// ShowIncomingCall switches to the incoming-call screen. The tracker has
// already recorded the ringing session.
func (n *Navigator) ShowIncomingCall() {
	n.view = viewIncomingCall
	n.renderIncomingCall()
}

// RenderCallStatus redraws the call screen from the tracker's state. The
// main loop calls this on call events and on duration-refresh ticks.
func (n *Navigator) RenderCallStatus() {
	if n.view != viewCall && n.view != viewIncomingCall {
		return
	}
	n.view = viewCall
	n.renderCallStatus()
}

// ReturnToInbox leaves whatever view is active and rebuilds the inbox.
// Used when the call end countdown expires.
func (n *Navigator) ReturnToInbox() {
	n.showInbox()
}

// showInbox is the full-rebuild entry into the inbox view; every
// transition into the inbox goes through here.
func (n *Navigator) showInbox() {
	n.view = viewInbox
	n.renderInbox()
}

// isBack reports the shared back/cancel chord.
func isBack(key byte) bool {
	return key == 'b' || key == keypad.KeyBack || key == keypad.KeyLeft || key == keypad.KeyEsc
}

// isConfirm reports the shared confirm/open chord.
func isConfirm(key byte) bool {
	return key == keypad.KeyEnter || key == keypad.KeyRight
}

func isDigit(key byte) bool {
	return key >= '0' && key <= '9'
}

func isPrintable(key byte) bool {
	return key >= 0x20 && key < 0x7F
}

// messages returns the cached store listing; a read failure renders as an
// empty inbox with a status note rather than stopping the loop.
func (n *Navigator) messages() []store.Message {
	list, err := n.store.List(false)
	if err != nil {
		n.logger.Error("load messages", "error", err)
		n.surface.SetStatus("Storage error")
		return nil
	}
	return list
}

// displayName resolves a raw number through the address book.
func (n *Navigator) displayName(number string) string {
	return n.book.Lookup(number)
}
