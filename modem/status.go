package modem

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/waterbearfieldschool/diy-phone/at"
)

// SignalQuality queries AT+CSQ and returns the RSSI value (0-31, 99 when
// unknown).
func (m *Modem) SignalQuality(ctx context.Context) (int, error) {
	resp, err := m.exec(ctx, at.CmdSignal)
	if err != nil {
		return 0, fmt.Errorf("AT+CSQ command failed: %w", err)
	}

	for _, line := range strings.Split(resp, "\n") {
		if !strings.HasPrefix(line, at.RespSignal) {
			continue
		}
		value, err := at.Value(line)
		if err != nil {
			return 0, err
		}
		rssiField, _, _ := strings.Cut(value, ",")
		rssi, err := strconv.Atoi(strings.TrimSpace(rssiField))
		if err != nil {
			return 0, fmt.Errorf("parse signal value %q: %w", value, err)
		}
		return rssi, nil
	}

	return 0, fmt.Errorf("no +CSQ line in reply %q: %w", resp, at.ErrNotParseable)
}

// Registered queries AT+CREG? and reports whether the modem is registered
// on the home network ("0,1") or roaming ("0,5").
func (m *Modem) Registered(ctx context.Context) (bool, error) {
	resp, err := m.exec(ctx, at.CmdNetworkReg)
	if err != nil {
		return false, fmt.Errorf("AT+CREG command failed: %w", err)
	}

	for _, line := range strings.Split(resp, "\n") {
		if !strings.HasPrefix(line, at.RespNetworkReg) {
			continue
		}
		value, err := at.Value(line)
		if err != nil {
			return false, err
		}
		return value == "0,1" || value == "0,5", nil
	}

	return false, fmt.Errorf("no +CREG line in reply %q: %w", resp, at.ErrNotParseable)
}
