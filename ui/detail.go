package ui

import (
	"fmt"

	"github.com/waterbearfieldschool/diy-phone/keypad"
)

// detailContentLines is how many wrapped body rows the detail view shows;
// the remaining rows carry the From/Time header and the action hints.
const detailContentLines = 5

func (n *Navigator) showDetail() {
	n.view = viewDetail
	n.renderDetail()
}

func (n *Navigator) renderDetail() {
	n.surface.ClearBody()
	n.surface.SetTitle("INBOX")

	list := n.messages()
	if len(list) == 0 || n.selected >= len(list) {
		n.surface.SetLine(0, "Message not found", ColorNormal)
		return
	}
	msg := list[n.selected]

	n.surface.SetLine(0, "From: "+msg.Sender, ColorSelected)
	n.surface.SetLine(1, "Time: "+msg.Time, ColorDim)

	lines := wrap(msg.Content, wrapWidth)
	for i := 0; i < detailContentLines; i++ {
		if i < len(lines) {
			n.surface.SetLine(2+i, lines[i], ColorNormal)
		} else {
			n.surface.SetLine(2+i, "", ColorNormal)
		}
	}
	n.surface.SetLine(7, "R:reply B:back DEL:delete", ColorSelected)

	n.surface.SetStatus(fmt.Sprintf("MESSAGE DETAIL %d/%d", n.selected+1, len(list)))
	n.surface.SetInfo("R:reply  B:back  DEL:delete")
}

func (n *Navigator) detailKey(key byte) {
	switch {
	case isBack(key):
		n.showInbox()

	case key == 'r':
		list := n.messages()
		if len(list) > 0 && n.selected < len(list) {
			n.startReply(list[n.selected].Sender)
		}

	case key == keypad.KeyDel:
		n.deleteCurrentMessage()
	}
}

// deleteCurrentMessage removes the selected message from local storage and
// returns to the inbox. A storage failure stays on the detail view with a
// status note.
func (n *Navigator) deleteCurrentMessage() {
	list := n.messages()
	if len(list) == 0 || n.selected >= len(list) {
		return
	}

	if err := n.store.Delete(list[n.selected].FileID); err != nil {
		n.logger.Error("delete message", "error", err)
		n.surface.SetStatus("Delete failed")
		return
	}

	if n.selected >= len(list)-1 {
		n.selected = len(list) - 2
		if n.selected < 0 {
			n.selected = 0
		}
	}
	n.showInbox()
}
