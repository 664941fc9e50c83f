package modem

import (
	"context"
	"fmt"
	"strings"

	"github.com/waterbearfieldschool/diy-phone/at"
)

// Dial places a voice call to the given number.
//
// The audio path is configured first (headphone routing, speaker volume,
// mic gain) so the call is audible the moment it connects. The dial command
// itself returns OK as soon as the modem accepts it; connection progress
// arrives later as VOICE CALL: BEGIN / NO CARRIER / BUSY URCs on the URC
// channel.
func (m *Modem) Dial(ctx context.Context, number string) error {
	// Audio setup failures are tolerated: a call with default routing is
	// still better than no call.
	for _, cmd := range []string{at.CmdAudioHeadphones, at.CmdVolume, at.CmdMicGain} {
		if _, err := m.exec(ctx, cmd); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("audio setup: %w", ctx.Err())
			}
		}
	}

	number = strings.TrimPrefix(number, "+")
	if err := m.expectOk(ctx, fmt.Sprintf("ATD+%s;", number)); err != nil {
		return fmt.Errorf("dial %q: %w", number, err)
	}
	return nil
}

// Answer accepts an incoming (ringing) call with ATA.
func (m *Modem) Answer(ctx context.Context) error {
	if err := m.expectOk(ctx, at.CmdAnswer); err != nil {
		return fmt.Errorf("answer call: %w", err)
	}
	return nil
}

// Hangup terminates the active call, or rejects a ringing one, with AT+CHUP.
func (m *Modem) Hangup(ctx context.Context) error {
	if err := m.expectOk(ctx, at.CmdHangup); err != nil {
		return fmt.Errorf("hang up call: %w", err)
	}
	return nil
}
