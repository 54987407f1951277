package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	SideFront = "front"
	SideBack  = "back"
)

// User is the single persisted document: identity, profile, settings and
// identity-document artifacts. Sub-documents live in JSON columns.
type User struct {
	ID                     string     `db:"id" json:"id"`
	Email                  string     `db:"email" json:"email"`
	Name                   string     `db:"name" json:"name"`
	PasswordHash           string     `db:"password_hash" json:"-"`
	Role                   string     `db:"role" json:"role"`
	EmailVerifiedAt        *time.Time `db:"email_verified_at" json:"emailVerified,omitempty"`
	EmailVerificationToken *string    `db:"email_verification_token" json:"-"`

	Avatar         string          `db:"avatar" json:"avatar,omitempty"`
	Phone          string          `db:"phone" json:"phone,omitempty"`
	Address        *Address        `db:"address" json:"address,omitempty"`
	PersonalInfo   *PersonalInfo   `db:"personal_info" json:"personalInfo,omitempty"`
	RegulatoryInfo *RegulatoryInfo `db:"regulatory_info" json:"regulatoryInfo,omitempty"`
	Settings       *Settings       `db:"settings" json:"settings,omitempty"`

	IDFrontImage           string     `db:"id_front_image" json:"idFrontImage,omitempty"`
	IDBackImage            string     `db:"id_back_image" json:"idBackImage,omitempty"`
	VerificationQRCode     *string    `db:"verification_qr_code" json:"-"`
	VerificationQRIssuedAt *time.Time `db:"verification_qr_issued_at" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// UserSummary is one row of the admin user table. Identity images are
// reduced to a flag by the query, so list pages never load them.
type UserSummary struct {
	ID               string     `db:"id"`
	Email            string     `db:"email"`
	Name             string     `db:"name"`
	Role             string     `db:"role"`
	EmailVerifiedAt  *time.Time `db:"email_verified_at"`
	IdentityVerified bool       `db:"identity_verified"`
	CreatedAt        time.Time  `db:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// IdentityVerified is true once both sides of the identity document are stored.
func (u *User) IdentityVerified() bool {
	return u.IDFrontImage != "" && u.IDBackImage != ""
}

// BasicInfoComplete is true once nationality, address and phone are all set.
func (u *User) BasicInfoComplete() bool {
	return u.PersonalInfo != nil && u.PersonalInfo.Nationality != nil &&
		u.Address != nil && u.Phone != ""
}

// IdentityImage returns the stored reference for one side of the document.
func (u *User) IdentityImage(side string) string {
	if side == SideBack {
		return u.IDBackImage
	}
	return u.IDFrontImage
}

// ValidRole reports whether role is one of the assignable roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// ValidSide reports whether side names one face of the identity document.
func ValidSide(side string) bool {
	return side == SideFront || side == SideBack
}

type Address struct {
	Street  string `json:"street"`
	Region  string `json:"region"`
	Commune string `json:"commune"`
}

type PersonalInfo struct {
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	SecondLastName string `json:"secondLastName,omitempty"`
	Gender         string `json:"gender,omitempty"`
	BirthDate      string `json:"birthDate,omitempty"`
	IDExpiryDate   string `json:"idExpiryDate,omitempty"`
	MaritalStatus  string `json:"maritalStatus,omitempty"`
	Nationality    *bool  `json:"nationality,omitempty"`
}

type RegulatoryInfo struct {
	IllicitActivities  bool     `json:"illicitActivities"`
	PoliticallyExposed bool     `json:"politicallyExposed"`
	FundOrigins        []string `json:"fundOrigins"`
}

type Notifications struct {
	Opportunities bool `json:"opportunities"`
	Updates       bool `json:"updates"`
	Newsletter    bool `json:"newsletter"`
}

type Settings struct {
	Notifications Notifications `json:"notifications"`
	Language      string        `json:"language"`
	Theme         string        `json:"theme"`
}

// DefaultSettings is what a user sees before saving any preference.
func DefaultSettings() Settings {
	return Settings{
		Notifications: Notifications{
			Opportunities: true,
			Updates:       true,
			Newsletter:    false,
		},
		Language: "es",
		Theme:    "light",
	}
}

func (a Address) Value() (driver.Value, error)        { return jsonValue(a) }
func (a *Address) Scan(src any) error                 { return jsonScan(src, a) }
func (p PersonalInfo) Value() (driver.Value, error)   { return jsonValue(p) }
func (p *PersonalInfo) Scan(src any) error            { return jsonScan(src, p) }
func (r RegulatoryInfo) Value() (driver.Value, error) { return jsonValue(r) }
func (r *RegulatoryInfo) Scan(src any) error          { return jsonScan(src, r) }
func (s Settings) Value() (driver.Value, error)       { return jsonValue(s) }
func (s *Settings) Scan(src any) error                { return jsonScan(src, s) }

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		return json.Unmarshal([]byte(v), dst)
	case []byte:
		return json.Unmarshal(v, dst)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}
