package at

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotParseable is wrapped by every parser in this file when a line does
// not match its grammar. Callers treat it as "no record", never as fatal.
var ErrNotParseable = errors.New("not parseable")

// SMSHeader is the parsed header line of a stored message, as reported by
// +CMGL (list) or +CMGR (read) replies.
type SMSHeader struct {
	// Index is the modem storage index. -1 when the reply form does not
	// carry one (+CMGR replies omit it).
	Index int
	// Status is the modem-reported state, e.g. "REC UNREAD", "REC READ".
	Status string
	// Sender is the raw originating address.
	Sender string
	// Timestamp is the reassembled service-center timestamp, e.g.
	// "25/12/25,16:25:06-32".
	Timestamp string
	// FileID is the sortable storage key derived from Timestamp,
	// e.g. "251225_162506".
	FileID string
}

// ParseCMGL parses one +CMGL header line.
//
// The wire layout is index,"status","sender","",timestamp, but the
// timestamp itself contains a comma ("25/12/25,16:25:06-32"), so a plain
// comma split yields it as two fields that must be glued back together.
func ParseCMGL(line string) (SMSHeader, error) {
	if !strings.HasPrefix(line, RespSMSList) {
		return SMSHeader{}, fmt.Errorf("%w: no %s prefix", ErrNotParseable, RespSMSList)
	}

	parts := strings.Split(line, ",")
	if len(parts) < 6 {
		return SMSHeader{}, fmt.Errorf("%w: %d fields in %q", ErrNotParseable, len(parts), line)
	}

	_, indexField, ok := strings.Cut(parts[0], ":")
	if !ok {
		return SMSHeader{}, fmt.Errorf("%w: no index in %q", ErrNotParseable, parts[0])
	}
	index, err := strconv.Atoi(strings.TrimSpace(indexField))
	if err != nil {
		return SMSHeader{}, fmt.Errorf("%w: bad index %q", ErrNotParseable, indexField)
	}

	timestamp := unquote(parts[4]) + "," + unquote(parts[5])

	return SMSHeader{
		Index:     index,
		Status:    unquote(parts[1]),
		Sender:    unquote(parts[2]),
		Timestamp: timestamp,
		FileID:    FileID(timestamp),
	}, nil
}

// ParseCMGR parses one +CMGR header line: "status","sender","",timestamp.
// The comma inside the timestamp means the split legitimately produces
// either 4 fields (date-only timestamp) or 5; both forms are accepted.
func ParseCMGR(line string) (SMSHeader, error) {
	if !strings.HasPrefix(line, RespSMSRead) {
		return SMSHeader{}, fmt.Errorf("%w: no %s prefix", ErrNotParseable, RespSMSRead)
	}

	parts := strings.Split(line, ",")
	if len(parts) < 4 {
		return SMSHeader{}, fmt.Errorf("%w: %d fields in %q", ErrNotParseable, len(parts), line)
	}

	_, statusField, ok := strings.Cut(parts[0], ":")
	if !ok {
		return SMSHeader{}, fmt.Errorf("%w: no status in %q", ErrNotParseable, parts[0])
	}

	timestamp := unquote(parts[3])
	if len(parts) >= 5 {
		timestamp = timestamp + "," + unquote(parts[4])
	}

	return SMSHeader{
		Index:     -1,
		Status:    unquote(statusField),
		Sender:    unquote(parts[1]),
		Timestamp: timestamp,
		FileID:    FileID(timestamp),
	}, nil
}

// ParseCMTI extracts the storage index from a +CMTI: "SM",<idx> notification.
// A malformed index is an error; the caller recovers by fetching all
// messages instead.
func ParseCMTI(line string) (int, error) {
	if !strings.Contains(line, "CMTI:") {
		return 0, fmt.Errorf("%w: no CMTI marker in %q", ErrNotParseable, line)
	}
	parts := strings.Split(line, ",")
	if len(parts) < 2 {
		return 0, fmt.Errorf("%w: no index field in %q", ErrNotParseable, line)
	}
	index, err := strconv.Atoi(unquote(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("%w: bad index %q", ErrNotParseable, parts[1])
	}
	return index, nil
}

// CallEventKind enumerates the call-lifecycle notifications the modem emits.
type CallEventKind int

const (
	CallRing      CallEventKind = iota // incoming call
	CallBegin                          // VOICE CALL: BEGIN
	CallEnd                            // VOICE CALL: END, optional duration
	CallNoCarrier                      // NO CARRIER
	CallFailed                         // BUSY / NO ANSWER / NO DIALTONE / ERROR
)

// CallEvent is one parsed call-status line.
type CallEvent struct {
	Kind CallEventKind
	// Duration is the modem-reported call length in seconds, valid only
	// when HasDuration is set (VOICE CALL: END:000015).
	Duration    int
	HasDuration bool
}

// ParseCallEvent matches a line against the call-status vocabulary by
// case-insensitive substring. First match wins; at most one call
// interpretation is produced per line.
func ParseCallEvent(line string) (CallEvent, bool) {
	upper := strings.ToUpper(strings.TrimSpace(line))

	switch {
	case strings.Contains(upper, "RING"):
		return CallEvent{Kind: CallRing}, true

	case strings.Contains(upper, "VOICE CALL: BEGIN"):
		return CallEvent{Kind: CallBegin}, true

	case strings.Contains(upper, "VOICE CALL: END"):
		ev := CallEvent{Kind: CallEnd}
		if fields := strings.Split(line, ":"); len(fields) > 2 {
			if secs, err := strconv.Atoi(strings.TrimSpace(fields[len(fields)-1])); err == nil {
				ev.Duration = secs
				ev.HasDuration = true
			}
		}
		return ev, true

	case strings.Contains(upper, "NO CARRIER"):
		return CallEvent{Kind: CallNoCarrier}, true

	case strings.Contains(upper, "NO ANSWER"), strings.Contains(upper, "NO DIALTONE"),
		strings.Contains(upper, "BUSY"), strings.Contains(upper, "ERROR"):
		return CallEvent{Kind: CallFailed}, true
	}

	return CallEvent{}, false
}

// Value returns the text after the first colon of a reply line, trimmed.
// Used for +CSQ: and +CREG: replies.
func Value(line string) (string, error) {
	_, rest, ok := strings.Cut(line, ":")
	if !ok {
		return "", fmt.Errorf("%w: no colon in %q", ErrNotParseable, line)
	}
	return strings.TrimSpace(rest), nil
}

func unquote(field string) string {
	return strings.Trim(strings.TrimSpace(field), `"`)
}
