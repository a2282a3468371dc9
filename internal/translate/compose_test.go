package translate

import (
	"io"
	"strings"
	"testing"

	"github.com/mailreactor/mailreactor/pkg/models"
)

type recordSendConn struct {
	from   string
	to     []string
	raw    []byte
	err    error
	closed bool
}

func (c *recordSendConn) Send(from string, to []string, msg io.Reader) error {
	if c.err != nil {
		return c.err
	}
	c.from = from
	c.to = to
	c.raw, _ = io.ReadAll(msg)
	return nil
}

func (c *recordSendConn) Close() error { c.closed = true; return nil }

func TestBuildMessageHeaders(t *testing.T) {
	id, raw, err := BuildMessage("alice@example.org", models.ComposedMessage{
		To:      []string{"bob@example.net"},
		Cc:      []string{"carol@example.net"},
		Bcc:     []string{"hidden@example.net"},
		Subject: "quarterly report",
		Text:    "see attached",
	})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasSuffix(id, "@example.org") {
		t.Fatalf("message id %q not scoped to sender domain", id)
	}

	msg := string(raw)
	for _, want := range []string{
		"From: <alice@example.org>",
		"To: <bob@example.net>",
		"Cc: <carol@example.net>",
		"Subject: quarterly report",
		"Message-Id: <" + id + ">",
		"see attached",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("rendered message missing %q", want)
		}
	}
	if strings.Contains(msg, "hidden@example.net") {
		t.Error("bcc recipient leaked into message headers")
	}
}

func TestBuildMessageHTMLAndAttachment(t *testing.T) {
	_, raw, err := BuildMessage("alice@example.org", models.ComposedMessage{
		To:   []string{"bob@example.net"},
		Text: "plain",
		HTML: "<p>rich</p>",
		Attachments: []models.Attachment{
			{Filename: "report.csv", ContentType: "text/csv", Data: []byte("a,b\n1,2\n")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	msg := string(raw)
	for _, want := range []string{"text/plain", "text/html", "<p>rich</p>", "report.csv"} {
		if !strings.Contains(msg, want) {
			t.Errorf("rendered message missing %q", want)
		}
	}
}

func TestSendMessageNoRecipients(t *testing.T) {
	conn := &recordSendConn{}
	_, err := SendMessage(conn, "alice@example.org", models.ComposedMessage{Subject: "empty"})
	if !models.IsKind(err, models.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if conn.raw != nil {
		t.Fatal("nothing must be sent without recipients")
	}
}

func TestSendMessageEnvelopeIncludesBcc(t *testing.T) {
	conn := &recordSendConn{}
	id, err := SendMessage(conn, "alice@example.org", models.ComposedMessage{
		To:   []string{"bob@example.net"},
		Bcc:  []string{"hidden@example.net"},
		Text: "hi",
	})
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("expected a generated message id")
	}
	if conn.from != "alice@example.org" {
		t.Fatalf("unexpected envelope sender %q", conn.from)
	}
	if len(conn.to) != 2 || conn.to[0] != "bob@example.net" || conn.to[1] != "hidden@example.net" {
		t.Fatalf("unexpected envelope recipients %v", conn.to)
	}
}
