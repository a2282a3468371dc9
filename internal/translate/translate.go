// Package translate converts domain-level requests into ordered sequences of
// protocol operations and protocol responses back into the API data model. It
// holds no connection state; every function operates on a handle passed in.
package translate

import (
	"io"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-message/mail"

	"github.com/mailreactor/mailreactor/internal/session"
	"github.com/mailreactor/mailreactor/pkg/models"
)

// BuildSearchCriteria converts a MessageQuery into an IMAP search
// expression. All set filters are ANDed; a zero query matches everything in
// the folder.
func BuildSearchCriteria(q models.MessageQuery) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()
	if q.UnseenOnly {
		criteria.WithoutFlags = []string{imap.SeenFlag}
	}
	if q.Sender != "" {
		criteria.Header.Add("From", q.Sender)
	}
	if !q.Since.IsZero() {
		criteria.Since = q.Since
	}
	return criteria
}

// ListMessages selects the target folder, searches with the query's filters
// and fetches summaries for the matches. Results keep the order the server
// returned them; when the match count exceeds MaxResults only the newest
// UIDs are fetched, bounding latency and memory.
func ListMessages(h *session.Handle, q models.MessageQuery) ([]models.MessageSummary, error) {
	conn := h.Conn()
	if err := conn.Select(q.FolderOrDefault()); err != nil {
		return nil, err
	}

	uids, err := conn.UIDSearch(BuildSearchCriteria(q))
	if err != nil {
		return nil, err
	}
	if q.MaxResults > 0 && len(uids) > q.MaxResults {
		uids = uids[len(uids)-q.MaxResults:]
	}
	if len(uids) == 0 {
		return nil, nil
	}

	set := new(imap.SeqSet)
	set.AddNum(uids...)
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid, imap.FetchRFC822Size}
	msgs, err := conn.UIDFetch(set, items)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.MessageSummary, 0, len(msgs))
	for _, msg := range msgs {
		summaries = append(summaries, summarize(msg))
	}
	return summaries, nil
}

// NewerSummaries fetches summaries for messages with UID greater than
// sinceUID. A range ending in * always matches at least the last message, so
// the cutoff is applied again after the fetch.
func NewerSummaries(h *session.Handle, folder string, sinceUID uint32) ([]models.MessageSummary, error) {
	conn := h.Conn()
	if folder == "" {
		folder = "INBOX"
	}
	if err := conn.Select(folder); err != nil {
		return nil, err
	}

	set := new(imap.SeqSet)
	set.AddRange(sinceUID+1, 0) // 0 means *
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid, imap.FetchRFC822Size}
	msgs, err := conn.UIDFetch(set, items)
	if err != nil {
		return nil, err
	}

	var summaries []models.MessageSummary
	for _, msg := range msgs {
		if msg.Uid <= sinceUID {
			continue
		}
		summaries = append(summaries, summarize(msg))
	}
	return summaries, nil
}

// HighestUID returns the largest UID in the folder, or 0 when it is empty.
func HighestUID(h *session.Handle, folder string) (uint32, error) {
	conn := h.Conn()
	if folder == "" {
		folder = "INBOX"
	}
	if err := conn.Select(folder); err != nil {
		return 0, err
	}
	uids, err := conn.UIDSearch(imap.NewSearchCriteria())
	if err != nil {
		return 0, err
	}
	var highest uint32
	for _, uid := range uids {
		if uid > highest {
			highest = uid
		}
	}
	return highest, nil
}

// FetchBody fetches full content for one UID. Returns a not-found error when
// the UID no longer exists in the folder, e.g. the message was deleted by
// another client between search and fetch.
func FetchBody(h *session.Handle, folder string, uid uint32) (*models.MessageBody, error) {
	conn := h.Conn()
	if folder == "" {
		folder = "INBOX"
	}
	if err := conn.Select(folder); err != nil {
		return nil, err
	}

	set := new(imap.SeqSet)
	set.AddNum(uid)
	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid,
		imap.FetchRFC822Size, section.FetchItem()}

	msgs, err := conn.UIDFetch(set, items)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, models.Errf(models.KindNotFound, h.Email(), "message %d not found in %s", uid, folder)
	}

	msg := msgs[0]
	body := &models.MessageBody{MessageSummary: summarize(msg)}
	if r := msg.GetBody(section); r != nil {
		parseBody(r, body)
	}
	return body, nil
}

// summarize maps an IMAP envelope/flags response onto the API summary shape.
func summarize(msg *imap.Message) models.MessageSummary {
	s := models.MessageSummary{
		UID:  msg.Uid,
		Size: msg.Size,
	}
	for _, flag := range msg.Flags {
		if flag == imap.SeenFlag {
			s.Seen = true
			break
		}
	}
	if env := msg.Envelope; env != nil {
		s.Subject = env.Subject
		s.Date = env.Date
		s.MessageID = env.MessageId
		if len(env.From) > 0 {
			s.From = models.Address{Name: env.From[0].PersonalName, Address: env.From[0].Address()}
		}
		for _, to := range env.To {
			s.To = append(s.To, models.Address{Name: to.PersonalName, Address: to.Address()})
		}
	}
	return s
}

// parseBody walks the MIME parts of a raw message, filling in text and HTML
// bodies and decoding attachments.
func parseBody(r io.Reader, body *models.MessageBody) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := h.ContentType()
			data, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			if strings.HasPrefix(ct, "text/html") {
				body.HTML = string(data)
			} else if strings.HasPrefix(ct, "text/plain") {
				body.Text = string(data)
			}
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			ct, _, _ := h.ContentType()
			data, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			body.Attachments = append(body.Attachments, models.Attachment{
				Filename:    filename,
				ContentType: ct,
				Data:        data,
			})
		}
	}
}
