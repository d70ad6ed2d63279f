package model

import "strings"

type RecipientKind string

const (
	RecipientContact RecipientKind = "contact"
	RecipientGroup   RecipientKind = "group"
)

type Contact struct {
	Name     string    `yaml:"name" json:"name"`
	Phone    string    `yaml:"phone" json:"phone"`
	Messages []Message `yaml:"messages" json:"messages"`
}

// Group is addressed by its exact WhatsApp subject, there is no phone number.
type Group struct {
	Name     string    `yaml:"name" json:"name"`
	Messages []Message `yaml:"messages" json:"messages"`
}

// Recipient is the resolved target of a dispatch.
type Recipient struct {
	Kind    RecipientKind `json:"kind"`
	Name    string        `json:"name"`
	Address string        `json:"address"`
}

func (c Contact) Recipient() Recipient {
	name := c.Name
	if strings.TrimSpace(name) == "" {
		name = c.Phone
	}
	return Recipient{Kind: RecipientContact, Name: name, Address: c.Phone}
}

func (g Group) Recipient() Recipient {
	return Recipient{Kind: RecipientGroup, Name: g.Name, Address: g.Name}
}

// PhoneRecipient builds an ad-hoc contact recipient, as used by the test command.
func PhoneRecipient(phone string) Recipient {
	phone = NormalizePhone(phone)
	return Recipient{Kind: RecipientContact, Name: phone, Address: phone}
}

func (r Recipient) IsGroup() bool {
	return r.Kind == RecipientGroup
}

func (r Recipient) String() string {
	if r.Kind == RecipientGroup {
		return r.Name + " (group)"
	}
	if r.Name == r.Address || r.Address == "" {
		return r.Name
	}
	return r.Name + " (" + r.Address + ")"
}

// NormalizePhone strips the formatting characters people tend to paste
// along with a number: spaces, dashes and parentheses.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\t", "").Replace(strings.TrimSpace(phone))
}

// PhoneDigits returns the number without the leading plus sign.
func PhoneDigits(phone string) string {
	return strings.TrimPrefix(NormalizePhone(phone), "+")
}
