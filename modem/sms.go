package modem

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/waterbearfieldschool/diy-phone/at"
)

// SMS represents a text message stored on the modem.
type SMS struct {
	// Index is the modem storage index, or -1 when unknown.
	Index  int
	Status string // "REC UNREAD", "REC READ", "STO UNSENT", "STO SENT"
	Sender string
	Time   string // reassembled service-center timestamp
	FileID string // sortable storage key derived from Time
	Text   string
}

// SendSMS sends a text message to the specified recipient.
//
// The message is sent in text mode (not PDU mode). The recipient should be
// in international format (e.g., "+1234567890").
//
// Network registration is verified first; sending without registration
// fails with a +CMS ERROR only after the prompt round trip, so checking up
// front gives the caller a usable error before anything hits the wire.
//
// This method blocks until the message is accepted by the network or an error
// occurs. Network delivery (to the final recipient) happens asynchronously.
func (m *Modem) SendSMS(ctx context.Context, recipient, message string) error {
	// Space sends out so a burst cannot trip the network's rate limits.
	if wait := m.minSendInterval - time.Since(m.lastSend); wait > 0 && !m.lastSend.IsZero() {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	registered, err := m.Registered(ctx)
	if err != nil {
		return fmt.Errorf("check registration: %w", err)
	}
	if !registered {
		return ErrNotRegistered
	}

	// Use exec to send the initial command and get the prompt
	resp, err := m.exec(ctx, fmt.Sprintf(`AT+CMGS="%s"`, recipient))
	if err != nil {
		return fmt.Errorf("AT+CMGS command failed: %w", err)
	}

	// Check if we got the prompt
	if !strings.Contains(resp, at.Prompt) {
		return fmt.Errorf("did not receive SMS prompt, got: %q", resp)
	}

	// Now send the message body and wait for confirmation
	// This is essentially another exec(), but we just send the message text
	messageCmd := message + at.CtrlZ
	resp, err = m.execRaw(ctx, messageCmd)
	if err != nil {
		return fmt.Errorf("SMS send failed: %w", err)
	}

	// Check for successful send (should contain +CMGS and OK)
	if !strings.Contains(resp, at.OK) {
		return fmt.Errorf("unexpected SMS response: %s", resp)
	}

	m.lastSend = time.Now()
	return nil
}

// ListMessages retrieves every message stored on the modem via AT+CMGL="ALL".
//
// The reply interleaves +CMGL: header lines with the message bodies that
// follow them; a body may span several lines. Header lines that do not parse
// are skipped (along with any body attached to them) rather than failing the
// whole listing.
func (m *Modem) ListMessages(ctx context.Context) ([]SMS, error) {
	resp, err := m.exec(ctx, at.CmdListAllSMS)
	if err != nil {
		return nil, fmt.Errorf("AT+CMGL command failed: %w", err)
	}

	var (
		messages []SMS
		current  *SMS
	)
	flush := func() {
		if current != nil {
			current.Text = strings.TrimSpace(current.Text)
			messages = append(messages, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(resp, "\n") {
		if hdr, err := at.ParseCMGL(line); err == nil {
			flush()
			current = &SMS{
				Index:  hdr.Index,
				Status: hdr.Status,
				Sender: hdr.Sender,
				Time:   hdr.Timestamp,
				FileID: hdr.FileID,
			}
			continue
		}
		if current == nil || line == "" || at.Classify(line) == at.TypeFinal {
			continue
		}
		if current.Text != "" {
			current.Text += "\n"
		}
		current.Text += line
	}
	flush()

	return messages, nil
}

// ReadMessage retrieves a single stored message by index via AT+CMGR.
// Used to fetch the message a +CMTI notification points at.
func (m *Modem) ReadMessage(ctx context.Context, index int) (SMS, error) {
	resp, err := m.exec(ctx, fmt.Sprintf("AT+CMGR=%d", index))
	if err != nil {
		return SMS{}, fmt.Errorf("AT+CMGR command failed: %w", err)
	}

	var (
		msg   SMS
		found bool
	)
	for _, line := range strings.Split(resp, "\n") {
		if !found {
			hdr, err := at.ParseCMGR(line)
			if err != nil {
				continue
			}
			msg = SMS{
				Index:  index,
				Status: hdr.Status,
				Sender: hdr.Sender,
				Time:   hdr.Timestamp,
				FileID: hdr.FileID,
			}
			found = true
			continue
		}
		if at.Classify(line) == at.TypeFinal {
			break
		}
		if msg.Text != "" {
			msg.Text += "\n"
		}
		msg.Text += line
	}

	if !found {
		return SMS{}, fmt.Errorf("no +CMGR header in reply %q: %w", resp, at.ErrNotParseable)
	}
	msg.Text = strings.TrimSpace(msg.Text)
	return msg, nil
}

// DeleteAllStored removes every message from modem storage
// (AT+CMGDA="DEL ALL"). The local message store is not touched.
func (m *Modem) DeleteAllStored(ctx context.Context) error {
	if err := m.expectOk(ctx, at.CmdDeleteAllSMS); err != nil {
		return fmt.Errorf("delete all stored SMS: %w", err)
	}
	return nil
}
