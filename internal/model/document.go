package model

// Document is the whole configuration file.
type Document struct {
	Contacts struct {
		Personal []Contact `yaml:"personal" json:"personal"`
		Groups   []Group   `yaml:"groups" json:"groups"`
	} `yaml:"contacts" json:"contacts"`
	Settings Settings `yaml:"settings" json:"settings"`
}

// Entry pairs a message with the recipient it belongs to.
type Entry struct {
	Recipient Recipient
	Message   Message
}

// Entries flattens the scheduled messages in file order: personal contacts
// first, then groups.
func (d *Document) Entries() []Entry {
	var out []Entry
	for _, c := range d.Contacts.Personal {
		r := c.Recipient()
		for _, m := range c.Messages {
			if m.Scheduled() {
				out = append(out, Entry{Recipient: r, Message: m})
			}
		}
	}
	for _, g := range d.Contacts.Groups {
		r := g.Recipient()
		for _, m := range g.Messages {
			if m.Scheduled() {
				out = append(out, Entry{Recipient: r, Message: m})
			}
		}
	}
	return out
}
