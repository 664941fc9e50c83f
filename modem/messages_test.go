package modem_test

import (
	"context"
	"testing"

	"github.com/waterbearfieldschool/diy-phone/modem"
)

func TestListMessages(t *testing.T) {
	t.Run("Parses interleaved headers and bodies", func(t *testing.T) {
		m, tr, cleanup := newTestModem(t)
		defer cleanup()

		type result struct {
			messages []modem.SMS
			err      error
		}
		done := make(chan result, 1)
		go func() {
			messages, err := m.ListMessages(context.Background())
			done <- result{messages, err}
		}()

		awaitWrite(t, tr, "AT+CMGL=\"ALL\"\r")
		tr.SendData("+CMGL: 1,\"REC UNREAD\",\"+16512524765\",\"\",\"25/12/25\",\"16:25:06-32\"\r\n" +
			"hello from don\r\n" +
			"+CMGL: 2,\"REC READ\",\"+16174299144\",\"\",\"25/12/26\",\"09:01:00-32\"\r\n" +
			"first line\r\n" +
			"second line\r\n" +
			"OK\r\n")

		res := <-done
		if res.err != nil {
			t.Fatalf("unexpected error: %v", res.err)
		}
		if len(res.messages) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(res.messages))
		}

		first := res.messages[0]
		if first.Index != 1 || first.Status != "REC UNREAD" || first.Sender != "+16512524765" {
			t.Errorf("unexpected first header: %+v", first)
		}
		if first.FileID != "251225_162506" {
			t.Errorf("unexpected first FileID: %q", first.FileID)
		}
		if first.Text != "hello from don" {
			t.Errorf("unexpected first body: %q", first.Text)
		}

		second := res.messages[1]
		if second.Text != "first line\nsecond line" {
			t.Errorf("multi-line body not preserved: %q", second.Text)
		}
	})

	t.Run("Empty storage yields no messages", func(t *testing.T) {
		m, tr, cleanup := newTestModem(t)
		defer cleanup()

		type result struct {
			messages []modem.SMS
			err      error
		}
		done := make(chan result, 1)
		go func() {
			messages, err := m.ListMessages(context.Background())
			done <- result{messages, err}
		}()

		awaitWrite(t, tr, "AT+CMGL=\"ALL\"\r")
		tr.SendData("OK\r\n")

		res := <-done
		if res.err != nil {
			t.Fatalf("unexpected error: %v", res.err)
		}
		if len(res.messages) != 0 {
			t.Errorf("expected no messages, got %d", len(res.messages))
		}
	})

	t.Run("Skips malformed headers", func(t *testing.T) {
		m, tr, cleanup := newTestModem(t)
		defer cleanup()

		type result struct {
			messages []modem.SMS
			err      error
		}
		done := make(chan result, 1)
		go func() {
			messages, err := m.ListMessages(context.Background())
			done <- result{messages, err}
		}()

		awaitWrite(t, tr, "AT+CMGL=\"ALL\"\r")
		tr.SendData("+CMGL: garbage\r\n" +
			"+CMGL: 3,\"REC READ\",\"+17813230341\",\"\",\"25/11/02\",\"18:30:00-20\"\r\n" +
			"still here\r\n" +
			"OK\r\n")

		res := <-done
		if res.err != nil {
			t.Fatalf("unexpected error: %v", res.err)
		}
		if len(res.messages) != 1 {
			t.Fatalf("expected 1 message, got %d", len(res.messages))
		}
		if res.messages[0].Index != 3 || res.messages[0].Text != "still here" {
			t.Errorf("unexpected message: %+v", res.messages[0])
		}
	})
}

func TestReadMessage(t *testing.T) {
	t.Run("Fetches a single message by index", func(t *testing.T) {
		m, tr, cleanup := newTestModem(t)
		defer cleanup()

		type result struct {
			msg modem.SMS
			err error
		}
		done := make(chan result, 1)
		go func() {
			msg, err := m.ReadMessage(context.Background(), 9)
			done <- result{msg, err}
		}()

		awaitWrite(t, tr, "AT+CMGR=9\r")
		tr.SendData("+CMGR: \"REC UNREAD\",\"+16512524765\",\"\",\"25/12/25,16:25:06-32\"\r\n" +
			"dinner at 7?\r\n" +
			"OK\r\n")

		res := <-done
		if res.err != nil {
			t.Fatalf("unexpected error: %v", res.err)
		}
		if res.msg.Index != 9 {
			t.Errorf("expected index 9, got %d", res.msg.Index)
		}
		if res.msg.Sender != "+16512524765" || res.msg.Text != "dinner at 7?" {
			t.Errorf("unexpected message: %+v", res.msg)
		}
		if res.msg.FileID != "251225_162506" {
			t.Errorf("unexpected FileID: %q", res.msg.FileID)
		}
	})

	t.Run("Error when no header in reply", func(t *testing.T) {
		m, tr, cleanup := newTestModem(t)
		defer cleanup()

		done := make(chan error, 1)
		go func() {
			_, err := m.ReadMessage(context.Background(), 4)
			done <- err
		}()

		awaitWrite(t, tr, "AT+CMGR=4\r")
		tr.SendData("OK\r\n")

		if err := <-done; err == nil {
			t.Error("expected error for empty +CMGR reply")
		}
	})
}

func TestDeleteAllStored(t *testing.T) {
	m, tr, cleanup := newTestModem(t)
	defer cleanup()

	done := make(chan error, 1)
	go func() {
		done <- m.DeleteAllStored(context.Background())
	}()

	awaitWrite(t, tr, "AT+CMGDA=\"DEL ALL\"\r")
	tr.SendData("OK\r\n")

	if err := <-done; err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
