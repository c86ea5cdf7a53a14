package leads

import (
	"strings"
	"time"
)

// Lead is a contact captured from an interview conversation.
type Lead struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Source         string    `json:"source"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateLeadRequest is the payload for creating a lead, either from the
// chat widget or from the HTTP API.
type CreateLeadRequest struct {
	ConversationID string `json:"conversation_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Source         string `json:"source"`
}

// Validate checks the request before storage.
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.ConversationID) == "" {
		return ErrMissingConversation
	}
	if r.Email == "" && r.Phone == "" {
		return ErrMissingContact
	}
	return nil
}

// FieldName, FieldEmail and FieldPhone are the collectable lead fields.
// A deployment configures which of them it wants, in order.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
)

// Draft accumulates lead fields one conversational turn at a time. The
// zero value is not usable; build one with NewDraft.
type Draft struct {
	Fields []string          `json:"fields"`
	Values map[string]string `json:"values"`
}

// NewDraft returns a draft wanting the given fields in order. Unknown
// field names are dropped so a typo in configuration cannot wedge the
// collection loop on a field nothing can fill.
func NewDraft(fields []string) Draft {
	known := make([]string, 0, len(fields))
	for _, f := range fields {
		switch f {
		case FieldName, FieldEmail, FieldPhone:
			known = append(known, f)
		}
	}
	return Draft{Fields: known, Values: make(map[string]string)}
}

// Apply records a value for a wanted field. It reports whether anything
// changed: blank values and fields the draft does not want are ignored,
// and a field already filled keeps its first value.
func (d *Draft) Apply(field, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	for _, f := range d.Fields {
		if f != field {
			continue
		}
		if _, ok := d.Values[f]; ok {
			return false
		}
		if d.Values == nil {
			d.Values = make(map[string]string)
		}
		d.Values[f] = value
		return true
	}
	return false
}

// NextMissing returns the first wanted field without a value.
func (d *Draft) NextMissing() (string, bool) {
	for _, f := range d.Fields {
		if _, ok := d.Values[f]; !ok {
			return f, true
		}
	}
	return "", false
}

// Complete reports whether every wanted field has a value.
func (d *Draft) Complete() bool {
	_, missing := d.NextMissing()
	return !missing
}

// Request converts the draft into a storable lead request.
func (d *Draft) Request(conversationID, source string) *CreateLeadRequest {
	return &CreateLeadRequest{
		ConversationID: conversationID,
		Name:           d.Values[FieldName],
		Email:          d.Values[FieldEmail],
		Phone:          d.Values[FieldPhone],
		Source:         source,
	}
}
