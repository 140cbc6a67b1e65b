package domain

// UserProfile is the marketplace profile kept by the user service.
type UserProfile struct {
	ID          int64  `json:"id"`
	Username    string `json:"username,omitempty"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Blocked     bool   `json:"blocked"`
}

// AdminProfile is the profile record the user service keeps for ADMIN and GOD
// accounts.
type AdminProfile struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
}
