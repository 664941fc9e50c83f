package ui

import (
	"fmt"
	"strings"

	"github.com/waterbearfieldschool/diy-phone/at"
	"github.com/waterbearfieldschool/diy-phone/keypad"
)

// openThread enters the thread view for the sender of the currently
// selected inbox message.
func (n *Navigator) openThread() {
	list := n.messages()
	if len(list) == 0 || n.selected >= len(list) {
		return
	}
	opened := list[n.selected]
	n.threadContact = opened.Sender

	// Collect every message exchanged with this contact, oldest first
	// (the store list is already ascending).
	n.threadMessages = n.threadMessages[:0]
	n.threadSelected = 0
	for _, msg := range list {
		if msg.Sender == n.threadContact {
			if msg.FileID == opened.FileID {
				n.threadSelected = len(n.threadMessages)
			}
			n.threadMessages = append(n.threadMessages, msg)
		}
	}

	n.buildThreadLines()
	n.centerThreadSelection()
	n.view = viewThread
	n.renderThread()
}

// buildThreadLines word-wraps the whole thread into a line cache with a
// line-to-message map. The cache is rebuilt only when the thread content
// changes, not on every scroll.
func (n *Navigator) buildThreadLines() {
	n.threadLines = n.threadLines[:0]
	n.threadLineMsg = n.threadLineMsg[:0]

	contentWidth := wrapWidth - timeCol - 1
	indent := strings.Repeat(" ", timeCol+1)

	for msgIdx, msg := range n.threadMessages {
		stamp := pad(at.DisplayTime(msg.Time), timeCol)
		body := strings.ReplaceAll(msg.Content, "\n", " ")
		lines := wrap(body, contentWidth)
		if len(lines) == 0 {
			lines = []string{""}
		}
		for i, line := range lines {
			if i == 0 {
				n.threadLines = append(n.threadLines, stamp+" "+line)
			} else {
				n.threadLines = append(n.threadLines, indent+line)
			}
			n.threadLineMsg = append(n.threadLineMsg, msgIdx)
		}
	}
}

// centerThreadSelection scrolls so the selected message's first line sits
// near the middle of the screen, clamped to the content bounds.
func (n *Navigator) centerThreadSelection() {
	firstLine := -1
	for lineIdx, msgIdx := range n.threadLineMsg {
		if msgIdx == n.threadSelected {
			firstLine = lineIdx
			break
		}
	}
	if firstLine < 0 {
		n.threadScroll = 0
		return
	}

	n.threadScroll = firstLine - BodyLines/2
	maxScroll := len(n.threadLines) - BodyLines
	if n.threadScroll > maxScroll {
		n.threadScroll = maxScroll
	}
	if n.threadScroll < 0 {
		n.threadScroll = 0
	}
}

func (n *Navigator) renderThread() {
	n.surface.ClearBody()
	n.surface.SetTitle(shortName(n.displayName(n.threadContact)))

	if len(n.threadMessages) == 0 {
		n.surface.SetLine(0, "No messages in thread", ColorNormal)
		return
	}

	for i := 0; i < BodyLines; i++ {
		lineIdx := n.threadScroll + i
		if lineIdx >= len(n.threadLines) {
			n.surface.SetLine(i, "", ColorNormal)
			continue
		}
		color := ColorNormal
		if n.threadLineMsg[lineIdx] == n.threadSelected {
			color = ColorSelected
		}
		n.surface.SetLine(i, n.threadLines[lineIdx], color)
	}

	n.surface.SetStatus(fmt.Sprintf("MSG %d/%d", n.threadSelected+1, len(n.threadMessages)))
	n.surface.SetInfo("UP/DN:select  ENTER:view  R:reply  B:back")
}

func (n *Navigator) threadKey(key byte) {
	switch {
	case key == keypad.KeyUp:
		if n.threadSelected > 0 {
			n.threadSelected--
			n.centerThreadSelection()
			n.renderThread()
		}

	case key == keypad.KeyDown:
		if n.threadSelected < len(n.threadMessages)-1 {
			n.threadSelected++
			n.centerThreadSelection()
			n.renderThread()
		}

	case isConfirm(key):
		n.openThreadMessage()

	case key == 'r':
		n.startReply(n.threadContact)

	case isBack(key):
		n.showInbox()
	}
}

// openThreadMessage maps the thread selection back to the inbox index and
// opens the detail view.
func (n *Navigator) openThreadMessage() {
	if n.threadSelected >= len(n.threadMessages) {
		return
	}
	target := n.threadMessages[n.threadSelected]
	for i, msg := range n.messages() {
		if msg.FileID == target.FileID {
			n.selected = i
			break
		}
	}
	n.showDetail()
}
