package model

// PersonName is the CRM's name-parts object, reused on contact creation
// and in the legacy inbound payload shape.
type PersonName struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Phone carries the CRM phone object; only the number is meaningful here.
type Phone struct {
	Number string `json:"number"`
}

// Contact is a CRM contact. The id is opaque and CRM-assigned; this
// service never deletes contacts.
type Contact struct {
	ID         string      `json:"id"`
	Name       string      `json:"name,omitempty"`
	PersonName *PersonName `json:"person_name,omitempty"`
	Phone      *Phone      `json:"phone,omitempty"`
}

// Tag is a label attached to a contact. Presence of the tag named
// "Dhiraagu OTT" marks a contact as participating in this product line.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OTTTagName is the authorization marker tag.
const OTTTagName = "Dhiraagu OTT"

// ContactPage is the CRM listing envelope for contacts. Listing order is
// CRM-determined and treated as authoritative.
type ContactPage struct {
	Content []Contact `json:"content"`
}

// TagPage is the CRM listing envelope for contact tags.
type TagPage struct {
	Content []Tag `json:"content"`
}
