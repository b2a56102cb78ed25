package profile

// NewProfile holds the fields a user supplies when creating a profile.
type NewProfile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Bio       string `json:"bio"`
	Img       []byte `json:"img"`
}

// Profile is a user profile keyed by the owner's principal.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Bio       string `json:"bio"`
	Img       []byte `json:"img"`
}

// DisplayName joins first and last name.
func (p Profile) DisplayName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}
