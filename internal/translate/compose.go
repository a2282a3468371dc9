package translate

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/mailreactor/mailreactor/internal/session"
	"github.com/mailreactor/mailreactor/pkg/models"
)

// SendMessage assembles an RFC 5322 message from the composed parts and hands
// it to the outbound connection. Returns the generated Message-ID once the
// server has accepted the message for delivery; final delivery is outside the
// gateway's control.
func SendMessage(conn session.SendConn, from string, msg models.ComposedMessage) (string, error) {
	rcpts := msg.Recipients()
	if len(rcpts) == 0 {
		return "", models.Errf(models.KindConfiguration, from, "message has no recipients")
	}

	messageID, raw, err := BuildMessage(from, msg)
	if err != nil {
		return "", err
	}
	if err := conn.Send(from, rcpts, bytes.NewReader(raw)); err != nil {
		return "", err
	}
	return messageID, nil
}

// BuildMessage renders a composed message into wire format. Bcc recipients
// appear only in the envelope, never in the headers.
func BuildMessage(from string, msg models.ComposedMessage) (string, []byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	h.SetAddressList("To", toAddressList(msg.To))
	if len(msg.Cc) > 0 {
		h.SetAddressList("Cc", toAddressList(msg.Cc))
	}
	h.SetSubject(msg.Subject)

	messageID := fmt.Sprintf("%s@%s", uuid.NewString(), domainOf(from))
	h.Set("Message-Id", "<"+messageID+">")

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create message writer: %w", err)
	}

	iw, err := mw.CreateInline()
	if err != nil {
		return "", nil, fmt.Errorf("failed to create inline part: %w", err)
	}
	text := msg.Text
	if text == "" && msg.HTML == "" {
		text = "\r\n"
	}
	if text != "" {
		var th mail.InlineHeader
		th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		pw, err := iw.CreatePart(th)
		if err != nil {
			return "", nil, fmt.Errorf("failed to create text part: %w", err)
		}
		io.WriteString(pw, text)
		pw.Close()
	}
	if msg.HTML != "" {
		var th mail.InlineHeader
		th.SetContentType("text/html", map[string]string{"charset": "utf-8"})
		pw, err := iw.CreatePart(th)
		if err != nil {
			return "", nil, fmt.Errorf("failed to create html part: %w", err)
		}
		io.WriteString(pw, msg.HTML)
		pw.Close()
	}
	iw.Close()

	for _, att := range msg.Attachments {
		var ah mail.AttachmentHeader
		ah.SetFilename(att.Filename)
		if att.ContentType != "" {
			ah.Set("Content-Type", att.ContentType)
		}
		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return "", nil, fmt.Errorf("failed to create attachment %s: %w", att.Filename, err)
		}
		aw.Write(att.Data)
		aw.Close()
	}
	mw.Close()

	return messageID, buf.Bytes(), nil
}

func toAddressList(addrs []string) []*mail.Address {
	list := make([]*mail.Address, 0, len(addrs))
	for _, a := range addrs {
		list = append(list, &mail.Address{Address: a})
	}
	return list
}

func domainOf(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[1] == "" {
		return "localhost"
	}
	return parts[1]
}
