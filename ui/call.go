package ui

import (
	"fmt"

	"github.com/waterbearfieldschool/diy-phone/callsession"
	"github.com/waterbearfieldschool/diy-phone/keypad"
)

// callPickerRows is how many address book entries the call screen shows.
const callPickerRows = 7

// startCallScreen enters the call screen in contact-picker mode.
func (n *Navigator) startCallScreen() {
	n.callIdx = 0
	n.callMode = modeContacts
	n.callNumber = ""
	n.view = viewCall
	n.renderCallScreen()
}

func (n *Navigator) renderCallScreen() {
	n.surface.ClearBody()
	n.surface.SetTitle("CALL")

	if n.callMode == modeContacts {
		n.surface.SetLine(0, "Select Contact:", ColorSelected)
		for i, c := range n.book.All() {
			if i >= callPickerRows {
				break
			}
			row := "  " + c.Name + " (" + c.Number + ")"
			color := ColorNormal
			if i == n.callIdx {
				row = "> " + c.Name + " (" + c.Number + ")"
				color = ColorSelected
			}
			n.surface.SetLine(1+i, row, color)
		}
		n.surface.SetStatus("Select contact to call")
		n.surface.SetInfo("UP/DN:select  ENTER:call  0-9:manual  ESC:cancel")
		return
	}

	n.surface.SetLine(0, "Enter Number:", ColorSelected)
	n.surface.SetLine(1, "> "+n.callNumber, ColorNormal)
	n.surface.SetStatus("Enter phone number to call")
	n.surface.SetInfo("Type number  ENTER:call  ESC:cancel  BACK:delete")
}

// renderCallStatus mirrors the tracker's state onto the banner regions.
func (n *Navigator) renderCallStatus() {
	n.surface.ClearBody()
	n.surface.SetTitle("CALL")

	name := n.tracker.ContactName()
	switch n.tracker.State() {
	case callsession.Dialing:
		n.surface.SetBanner(name, "Dialing...")
		n.surface.SetStatus("Connecting call")
		n.surface.SetInfo("Connecting... ESC:hangup")

	case callsession.Answered:
		n.surface.SetBanner(name, "Connecting...")
		n.surface.SetStatus("Connecting call")
		n.surface.SetInfo("Connecting... ESC:hangup")

	case callsession.Connected:
		n.surface.SetBanner(name, fmt.Sprintf("%ds", n.tracker.Duration()))
		n.surface.SetStatus("Call in progress")
		n.surface.SetInfo("Call connected - ESC:hangup")

	case callsession.Ended:
		body := "Call finished"
		if d := n.tracker.Duration(); d > 0 {
			body = fmt.Sprintf("Call finished\nDuration: %ds", d)
		}
		n.surface.SetBanner("CALL ENDED: "+name, body)
		n.surface.SetStatus("Call ended")
		n.surface.SetInfo("Returning to inbox in a moment...")

	case callsession.Failed:
		n.surface.SetBanner("CALL FAILED: "+name, "Call could not connect\nBusy or network error")
		n.surface.SetStatus("Call failed")
		n.surface.SetInfo("Returning to inbox in a moment...")

	default:
		n.renderCallScreen()
	}
}

func (n *Navigator) renderIncomingCall() {
	n.surface.ClearBody()
	n.surface.SetTitle("CALL")
	n.surface.SetBanner("INCOMING CALL", n.tracker.ContactName())
	n.surface.SetStatus("Incoming call...")
	n.surface.SetInfo("ENTER:answer  ESC:reject")
}

func (n *Navigator) callKey(key byte) {
	switch {
	case key == keypad.KeyEsc:
		if n.tracker.Active() {
			// Hanging up returns straight to the inbox, no countdown.
			if err := n.ctrl.HangupCall(); err != nil {
				n.logger.Error("hang up", "error", err)
			}
		}
		n.showInbox()

	case key == keypad.KeyEnter:
		if !n.tracker.Active() {
			n.placeSelectedCall()
		}

	case n.callMode == modeContacts && !n.tracker.Active():
		switch {
		case key == keypad.KeyUp:
			if n.callIdx > 0 {
				n.callIdx--
				n.renderCallScreen()
			}
		case key == keypad.KeyDown:
			if n.callIdx < len(n.book.All())-1 {
				n.callIdx++
				n.renderCallScreen()
			}
		case isDigit(key):
			n.callMode = modeManual
			n.callNumber = string(key)
			n.callIdx = 0
			n.renderCallScreen()
		}

	case n.callMode == modeManual && !n.tracker.Active():
		switch {
		case key == keypad.KeyBack:
			if len(n.callNumber) > 0 {
				n.callNumber = n.callNumber[:len(n.callNumber)-1]
				n.renderCallScreen()
			}
		case isDigit(key), key == '+', key == '-', key == ' ', key == '(', key == ')':
			n.callNumber += string(key)
			n.renderCallScreen()
		}
	}
}

// placeSelectedCall resolves the picker or manual entry and dials.
func (n *Navigator) placeSelectedCall() {
	var number, name string
	if n.callMode == modeContacts {
		book := n.book.All()
		if n.callIdx >= len(book) {
			return
		}
		number, name = book[n.callIdx].Number, book[n.callIdx].Name
	} else {
		number = n.callNumber
		if number == "" {
			n.surface.SetStatus("Error: No number found")
			return
		}
		name = number
	}

	if err := n.ctrl.StartCall(number, name); err != nil {
		n.logger.Error("start call", "error", err, "number", number)
		n.surface.SetStatus("Call failed to start")
		return
	}
	n.renderCallStatus()
}

func (n *Navigator) incomingCallKey(key byte) {
	switch key {
	case keypad.KeyEnter:
		if err := n.ctrl.AnswerCall(); err != nil {
			n.logger.Error("answer call", "error", err)
			n.surface.SetStatus("Answer failed")
			return
		}
		n.view = viewCall
		n.renderCallStatus()

	case keypad.KeyEsc:
		if err := n.ctrl.RejectCall(); err != nil {
			n.logger.Error("reject call", "error", err)
		}
		n.showInbox()
	}
}
