// Package store persists SMS messages as one file per message and serves
// reads through an invalidatable in-memory cache. The backing directory is
// expected to live on removable media, so every I/O failure is reported as
// an error value rather than treated as fatal.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Message is one stored SMS, inbound or outbound.
type Message struct {
	// FileID is the storage key, YYMMDD_HHMMSS derived from the modem
	// timestamp. Lexical order is chronological order.
	FileID  string
	Sender  string
	Time    string // raw modem timestamp, e.g. "25/12/25,16:25:06-32"
	Status  string // "REC UNREAD", "REC READ", "STO SENT", ...
	Content string
}

// Store is a file-backed message store with a read cache.
//
// The cache follows a single-writer discipline: the owning loop is the only
// mutator, so invalidate-then-lazy-rebuild is sufficient and no locking is
// needed.
type Store struct {
	dir        string
	cache      []Message
	cacheValid bool
}

// New opens (creating if needed) a message store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create message dir %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Put writes msg to its own file and invalidates the cache.
// A message with an already-stored FileID is overwritten, which makes
// re-fetching the same modem message idempotent.
func (s *Store) Put(msg Message) error {
	if msg.FileID == "" {
		return fmt.Errorf("store message: empty file id")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", msg.Sender)
	fmt.Fprintf(&b, "Time: %s\n", msg.Time)
	fmt.Fprintf(&b, "Status: %s\n", msg.Status)
	fmt.Fprintf(&b, "Content: %s\n", msg.Content)

	if err := os.WriteFile(s.path(msg.FileID), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("store message %q: %w", msg.FileID, err)
	}
	s.Invalidate()
	return nil
}

// List returns all stored messages sorted by FileID ascending (oldest
// first). The cached result is returned unless force is set or the cache
// was invalidated by a mutation.
func (s *Store) List(force bool) ([]Message, error) {
	if s.cacheValid && !force {
		return s.cache, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan message dir %q: %w", s.dir, err)
	}

	var messages []Message
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "sms_") || !strings.HasSuffix(name, ".txt") {
			continue
		}
		msg, ok, err := s.load(name)
		if err != nil {
			// One unreadable file should not hide the rest.
			continue
		}
		if ok {
			messages = append(messages, msg)
		}
	}

	sort.Slice(messages, func(i, j int) bool {
		return messages[i].FileID < messages[j].FileID
	})

	s.cache = messages
	s.cacheValid = true
	return messages, nil
}

// Delete removes the message with the given FileID. If removal fails, the
// file is truncated instead as a soft delete; truncated files are skipped
// on load. The cache is invalidated either way.
func (s *Store) Delete(fileID string) error {
	path := s.path(fileID)
	if err := os.Remove(path); err != nil {
		if werr := os.WriteFile(path, nil, 0o644); werr != nil {
			return fmt.Errorf("delete message %q: %w", fileID, err)
		}
	}
	s.Invalidate()
	return nil
}

// Invalidate marks the cache stale; the next List rescans storage.
func (s *Store) Invalidate() {
	s.cacheValid = false
}

func (s *Store) path(fileID string) string {
	return filepath.Join(s.dir, "sms_"+fileID+".txt")
}

// load reads one message file. ok is false for soft-deleted (empty) or
// malformed files.
func (s *Store) load(name string) (Message, bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return Message{}, false, err
	}
	if len(data) == 0 {
		return Message{}, false, nil
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) < 4 {
		return Message{}, false, nil
	}

	content := strings.TrimPrefix(lines[3], "Content: ")
	// Bodies can span multiple lines; everything after the Content
	// marker belongs to the body.
	if len(lines) > 4 {
		content = content + "\n" + strings.Join(lines[4:], "\n")
	}

	return Message{
		FileID:  strings.TrimSuffix(strings.TrimPrefix(name, "sms_"), ".txt"),
		Sender:  strings.TrimPrefix(lines[0], "From: "),
		Time:    strings.TrimPrefix(lines[1], "Time: "),
		Status:  strings.TrimPrefix(lines[2], "Status: "),
		Content: content,
	}, true, nil
}
