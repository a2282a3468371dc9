package models

import "time"

// Address represents an email address with an optional display name.
type Address struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// MessageQuery is a normalized list request. All set filters are ANDed
// together; a zero query means "all messages in the folder". Immutable once
// constructed.
type MessageQuery struct {
	Folder     string
	UnseenOnly bool
	Sender     string
	Since      time.Time
	MaxResults int
}

// FolderOrDefault returns the target folder, defaulting to INBOX.
func (q MessageQuery) FolderOrDefault() string {
	if q.Folder == "" {
		return "INBOX"
	}
	return q.Folder
}

// MessageSummary is the API-facing representation of one fetched message
// header. UIDs are only meaningful within the session that produced them and
// must never be persisted across a reconnect.
type MessageSummary struct {
	UID       uint32    `json:"uid"`
	MessageID string    `json:"message_id,omitempty"`
	Subject   string    `json:"subject"`
	From      Address   `json:"from"`
	To        []Address `json:"to,omitempty"`
	Date      time.Time `json:"date"`
	Size      uint32    `json:"size"`
	Seen      bool      `json:"seen"`
}

// MessageBody is the full content of one fetched message.
type MessageBody struct {
	MessageSummary
	Text        string       `json:"text,omitempty"`
	HTML        string       `json:"html,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is one decoded message attachment.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data,omitempty"`
}

// ComposedMessage is a fully-composed outbound message. The sender address is
// always the account address; the gateway never spoofs the From header.
type ComposedMessage struct {
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Recipients returns all envelope recipients (To, Cc and Bcc).
func (m ComposedMessage) Recipients() []string {
	rcpts := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	rcpts = append(rcpts, m.To...)
	rcpts = append(rcpts, m.Cc...)
	rcpts = append(rcpts, m.Bcc...)
	return rcpts
}
