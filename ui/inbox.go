package ui

import (
	"fmt"

	"github.com/waterbearfieldschool/diy-phone/at"
	"github.com/waterbearfieldschool/diy-phone/keypad"
	"github.com/waterbearfieldschool/diy-phone/store"
)

const (
	senderCol  = 10
	timeCol    = 11
	previewLen = 15
)

// renderInbox fully rebuilds the inbox: reloads the (cached) message list
// and redraws every row. Entering the view always comes through here;
// arrow-key movement uses the cheaper refreshInbox path.
func (n *Navigator) renderInbox() {
	n.surface.ClearBody()
	n.surface.SetTitle("INBOX")

	list := n.messages()
	if len(list) == 0 {
		n.surface.SetLine(0, "No messages", ColorNormal)
		n.surface.SetStatus("")
		n.surface.SetInfo("C:compose  SPACE:call  N:refresh  0-9:dial")
		return
	}

	n.clampInboxSelection(len(list))
	n.drawInboxRows(list)
}

// refreshInbox redraws rows and highlight from the cached list without a
// view reset.
func (n *Navigator) refreshInbox() {
	list := n.messages()
	if len(list) == 0 {
		return
	}
	n.clampInboxSelection(len(list))
	n.drawInboxRows(list)
}

func (n *Navigator) clampInboxSelection(count int) {
	if n.selected >= count {
		n.selected = count - 1
	}
	if n.selected < 0 {
		n.selected = 0
	}
	// Keep the selection inside the visible window.
	if n.selected < n.scroll {
		n.scroll = n.selected
	} else if n.selected >= n.scroll+BodyLines {
		n.scroll = n.selected - BodyLines + 1
	}
}

// drawInboxRows renders the visible window in three fixed columns:
// sender, time, content preview. The selected row carries a ">" marker
// and the highlight color.
func (n *Navigator) drawInboxRows(list []store.Message) {
	for i := 0; i < BodyLines; i++ {
		idx := n.scroll + i
		if idx >= len(list) {
			n.surface.SetLine(i, "", ColorNormal)
			continue
		}
		msg := list[idx]
		row := fmt.Sprintf("%s %s %s",
			pad(shortName(n.displayName(msg.Sender)), senderCol),
			pad(at.DisplayTime(msg.Time), timeCol),
			preview(msg.Content, previewLen))

		if idx == n.selected {
			n.surface.SetLine(i, ">"+row, ColorSelected)
		} else {
			n.surface.SetLine(i, " "+row, ColorNormal)
		}
	}

	n.surface.SetStatus(fmt.Sprintf("MSG %d/%d", n.selected+1, len(list)))
	n.surface.SetInfo("UP/DN:select  ENTER:thread  C:compose  SPACE:call  N:refresh  D:del  0-9:dial")
}

func (n *Navigator) inboxKey(key byte) {
	switch {
	case key == keypad.KeyUp:
		if n.selected > 0 {
			n.selected--
			n.refreshInbox()
		}

	case key == keypad.KeyDown:
		if list := n.messages(); n.selected < len(list)-1 {
			n.selected++
			n.refreshInbox()
		}

	case isConfirm(key):
		n.openThread()

	case key == 'n':
		n.surface.SetStatus("(checking messages...)")
		if err := n.ctrl.RefreshMessages(); err != nil {
			n.logger.Error("refresh messages", "error", err)
			n.surface.SetStatus("Refresh failed")
			return
		}
		n.renderInbox()

	case key == 'd':
		if err := n.ctrl.DeleteAllOnDevice(); err != nil {
			n.logger.Error("delete all on device", "error", err)
			n.surface.SetStatus("Delete failed")
			return
		}
		n.surface.SetStatus("Device storage cleared")

	case key == 'c':
		n.startCompose()

	case key == ' ':
		n.startCallScreen()

	case isDigit(key):
		// Fast path: typing a digit in the inbox jumps straight to
		// manual call entry with that digit.
		n.callMode = modeManual
		n.callNumber = string(key)
		n.callIdx = 0
		n.view = viewCall
		n.renderCallScreen()
	}
}
