package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Profile genders and roles accepted on update. An empty gender clears it.
var (
	Genders = []string{"", "Male", "Female", "Other"}
	Roles   = []string{"Patient", "Doctor", "Admin"}
)

const (
	maxAge          = 150
	maxPhoneLen     = 20
	maxCountryLen   = 50
	DefaultUserRole = "Patient"
)

// UserProfile is a user's account and personal details.
type UserProfile struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Age       *int      `json:"age"`
	Gender    string    `json:"gender"`
	Phone     string    `json:"phone"`
	Country   string    `json:"country"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// ProfileUpdate changes the fields that are set and leaves the rest alone.
type ProfileUpdate struct {
	Email   string  `json:"email"`
	Name    *string `json:"name,omitempty"`
	Age     *int    `json:"age,omitempty"`
	Gender  *string `json:"gender,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Country *string `json:"country,omitempty"`
	Role    *string `json:"role,omitempty"`
}

// Normalize trims the string fields in place.
func (u *ProfileUpdate) Normalize() {
	u.Email = strings.TrimSpace(u.Email)
	for _, f := range []*string{u.Name, u.Gender, u.Phone, u.Country, u.Role} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

// Validate reports the first field that cannot be stored.
func (u *ProfileUpdate) Validate() error {
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	if u.Age != nil && (*u.Age < 0 || *u.Age > maxAge) {
		return fmt.Errorf("age must be between 0 and %d", maxAge)
	}
	if u.Gender != nil && !slices.Contains(Genders, *u.Gender) {
		return fmt.Errorf("gender must be one of Male, Female, Other")
	}
	if u.Role != nil && !slices.Contains(Roles, *u.Role) {
		return fmt.Errorf("role must be one of %s", strings.Join(Roles, ", "))
	}
	if u.Phone != nil && len(*u.Phone) > maxPhoneLen {
		return fmt.Errorf("phone must be at most %d characters", maxPhoneLen)
	}
	if u.Country != nil && len(*u.Country) > maxCountryLen {
		return fmt.Errorf("country must be at most %d characters", maxCountryLen)
	}
	return nil
}

// Empty reports whether the update sets no field.
func (u *ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Age == nil && u.Gender == nil && u.Phone == nil && u.Country == nil && u.Role == nil
}
