package model

import "strings"

// Sponsor is a document in the sponsors collection.
type Sponsor struct {
	Name string `json:"name" validate:"required"`
	Logo string `json:"logo" validate:"required,weburl"`
}

// NewSponsor builds a validated sponsor.
func NewSponsor(name, logo string) (Sponsor, error) {
	s := Sponsor{Name: strings.TrimSpace(name), Logo: strings.TrimSpace(logo)}
	return s, s.Validate()
}

// Validate rejects a sponsor without an uploaded logo before any other check.
func (s Sponsor) Validate() error {
	if strings.TrimSpace(s.Logo) == "" {
		return &Error{Kind: KindValidation, Op: "sponsors.validate", Message: "Please upload a logo.",
			Fields: map[string]string{"logo": "Please upload a logo."}}
	}
	return validateRecord("sponsors.validate", s)
}

// FallbackSponsors are shown by the public sponsor strip while the
// collection is empty.
var FallbackSponsors = []Sponsor{
	{Name: "GitHub", Logo: "/assets/github.png"},
	{Name: "Google", Logo: "/assets/google.png"},
	{Name: "Microsoft", Logo: "/assets/microsoft.png"},
	{Name: "Amazon", Logo: "/assets/amazon.png"},
	{Name: "Meta", Logo: "/assets/meta.png"},
	{Name: "Netflix", Logo: "/assets/netflix.png"},
}
