package domain

import "time"

// Authority is the role carried in issued tokens.
type Authority string

const (
	AuthorityUser  Authority = "ROLE_USER"
	AuthorityAdmin Authority = "ROLE_ADMIN"
)

// Gender is the self-declared profile gender.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ParseGender maps free-form input to a Gender, defaulting to GenderOther.
func ParseGender(s string) Gender {
	switch Gender(s) {
	case GenderMale, GenderFemale:
		return Gender(s)
	default:
		return GenderOther
	}
}

// User is a forum member as held by the credential store.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	NickName     string
	Birth        *time.Time
	Gender       Gender
	Authority    Authority
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
