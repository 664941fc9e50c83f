package ui

import (
	"strings"

	"github.com/waterbearfieldschool/diy-phone/keypad"
)

// recipientPickerRows is how many address book entries the picker shows.
const recipientPickerRows = 5

// startCompose begins a new message: recipient selection first.
func (n *Navigator) startCompose() {
	n.composeBuf = ""
	n.recipientIdx = 0
	n.entryMode = modeContacts
	n.manualNumber = ""
	n.view = viewSelectRecipient
	n.renderRecipientSelect()
}

// startReply skips recipient selection; to is the raw number of the
// message being answered.
func (n *Navigator) startReply(to string) {
	n.composeBuf = ""
	n.recipientNumber = to
	n.recipientName = n.displayName(to)
	n.view = viewCompose
	n.renderCompose()
}

func (n *Navigator) renderRecipientSelect() {
	n.surface.ClearBody()
	n.surface.SetTitle("COMPOSE")

	if n.entryMode == modeContacts {
		n.surface.SetLine(0, "Select Contact:", ColorSelected)
		for i, c := range n.book.All() {
			if i >= recipientPickerRows {
				break
			}
			row := "  " + c.Name + " (" + c.Number + ")"
			color := ColorNormal
			if i == n.recipientIdx {
				row = "> " + c.Name + " (" + c.Number + ")"
				color = ColorSelected
			}
			n.surface.SetLine(1+i, row, color)
		}
		n.surface.SetStatus("TAB:next ENTER:select N:new# ESC:cancel")
		n.surface.SetInfo("TAB:next contact  ENTER:select  N:manual entry  ESC:cancel")
		return
	}

	n.surface.SetLine(0, "Enter Number:", ColorSelected)
	n.surface.SetLine(1, "> "+n.manualNumber, ColorNormal)
	n.surface.SetStatus("Type number, ENTER:select, ESC:cancel")
	n.surface.SetInfo("Type phone number  ENTER:select  ESC:cancel  BACK:delete")
}

func (n *Navigator) recipientKey(key byte) {
	switch {
	case key == keypad.KeyEsc:
		n.showInbox()

	case key == keypad.KeyEnter:
		n.selectRecipient()

	case key == keypad.KeyTab && n.entryMode == modeContacts:
		// Explicit cycle operation: wraps, unlike list navigation.
		if count := len(n.book.All()); count > 0 {
			n.recipientIdx = (n.recipientIdx + 1) % count
			n.renderRecipientSelect()
		}

	case key == 'n' && n.entryMode == modeContacts:
		n.entryMode = modeManual
		n.manualNumber = ""
		n.recipientIdx = 0
		n.renderRecipientSelect()

	case key == keypad.KeyBack && n.entryMode == modeManual:
		if len(n.manualNumber) > 0 {
			n.manualNumber = n.manualNumber[:len(n.manualNumber)-1]
			n.renderRecipientSelect()
		}

	case n.entryMode == modeManual && isPrintable(key) && key != 'n':
		n.manualNumber += string(key)
		n.renderRecipientSelect()
	}
}

// selectRecipient resolves the picker or manual entry into a recipient and
// moves on to the compose screen. An empty manual number is an error
// surfaced in the status region.
func (n *Navigator) selectRecipient() {
	if n.entryMode == modeContacts {
		book := n.book.All()
		if n.recipientIdx >= len(book) {
			return
		}
		c := book[n.recipientIdx]
		n.recipientName = c.Name
		n.recipientNumber = c.Number
	} else {
		number := strings.TrimSpace(n.manualNumber)
		if number == "" {
			n.surface.SetStatus("Error: No number found")
			return
		}
		n.recipientNumber = number
		n.recipientName = n.displayName(number)
	}

	n.composeBuf = ""
	n.view = viewCompose
	n.renderCompose()
}

func (n *Navigator) renderCompose() {
	n.surface.ClearBody()
	n.surface.SetTitle("COMPOSE")
	n.surface.SetLine(0, "To: "+n.recipientName, ColorSelected)

	lines := wrap("> "+n.composeBuf, wrapWidth)
	for i := 0; i < BodyLines-1; i++ {
		if i < len(lines) {
			n.surface.SetLine(1+i, lines[i], ColorNormal)
		} else {
			n.surface.SetLine(1+i, "", ColorNormal)
		}
	}

	n.surface.SetStatus("Type message, ENTER:send ESC:cancel")
	n.surface.SetInfo("Type your message  ENTER:send  ESC:cancel  BACK:delete char")
}

func (n *Navigator) composeKey(key byte) {
	switch {
	case key == keypad.KeyEsc:
		n.showInbox()

	case key == keypad.KeyEnter:
		n.sendComposed()

	case key == keypad.KeyBack:
		if len(n.composeBuf) > 0 {
			n.composeBuf = n.composeBuf[:len(n.composeBuf)-1]
			n.renderCompose()
		}

	case isPrintable(key):
		n.composeBuf += string(key)
		n.renderCompose()
	}
}

// sendComposed hands the message to the controller. On success the view
// returns to the inbox; on failure the compose buffer stays for another
// try.
func (n *Navigator) sendComposed() {
	if n.recipientNumber == "" {
		n.surface.SetStatus("Error: No number found")
		return
	}

	n.surface.SetStatus("Sending...")
	if err := n.ctrl.SendMessage(n.recipientNumber, n.composeBuf); err != nil {
		n.logger.Error("send message", "error", err, "to", n.recipientNumber)
		n.surface.SetStatus("Send failed")
		return
	}

	n.composeBuf = ""
	n.showInbox()
}
