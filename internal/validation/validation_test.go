package validation

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"too short", "pass123", ErrPasswordTooShort},
		{"minimum", "password", nil},
		{"scenario password", "password1", nil},
		{"max bcrypt length", strings.Repeat("a", 72), nil},
		{"past bcrypt length", strings.Repeat("a", 73), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidatePassword() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"ana@x.com", false},
		{"ana.maria+test@brickfund.cl", false},
		{"", true},
		{"ana", true},
		{"Ana <ana@x.com>", true},
		{strings.Repeat("a", 250) + "@x.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone   string
		wantErr bool
	}{
		{"+56 9 1234 5678", false},
		{"(2) 2345-6789", false},
		{"912345678", false},
		{"", true},
		{"1234567", true},
		{"+1234567890123456", true},
		{"56+912345678", true},
		{"9123abc45678", true},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			err := ValidatePhone(tt.phone)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePhone(%q) error = %v, wantErr %v", tt.phone, err, tt.wantErr)
			}
		})
	}
}

func TestRequired(t *testing.T) {
	err := Required("street", "Av. Grecia 100", "region", " ", "commune", "")
	if err == nil || err.Error() != "region is required" {
		t.Errorf("Required() = %v, want region is required", err)
	}

	err = Required("street", "a", "region", "b")
	if err != nil {
		t.Errorf("Required() = %v, want nil", err)
	}
}

func TestValidateDate(t *testing.T) {
	if err := ValidateDate("birthDate", ""); err != nil {
		t.Errorf("empty date: %v", err)
	}
	if err := ValidateDate("birthDate", "1990-02-28"); err != nil {
		t.Errorf("valid date: %v", err)
	}
	err := ValidateDate("birthDate", "28/02/1990")
	if err == nil || !strings.HasPrefix(err.Error(), "birthDate") {
		t.Errorf("invalid date error = %v", err)
	}
}

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func TestParseImageDataURI(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpeg := []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")

	tests := []struct {
		name     string
		uri      string
		wantMime string
		wantExt  string
		wantErr  bool
	}{
		{"png", dataURI("image/png", png), "image/png", ".png", false},
		{"jpeg", dataURI("image/jpeg", jpeg), "image/jpeg", ".jpg", false},
		{"jpg alias", dataURI("image/jpg", jpeg), "image/jpeg", ".jpg", false},
		{"not a data uri", "https://x.com/a.png", "", "", true},
		{"missing base64 marker", "data:image/png," + base64.StdEncoding.EncodeToString(png), "", "", true},
		{"unsupported type", dataURI("image/gif", []byte("GIF89a")), "", "", true},
		{"declared type mismatch", dataURI("image/png", jpeg), "", "", true},
		{"bad base64", "data:image/png;base64,@@@", "", "", true},
		{"empty payload", "data:image/png;base64,", "", "", true},
		{"too large", dataURI("image/png", append(png, make([]byte, ImageConstraints.MaxSize)...)), "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := ParseImageDataURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseImageDataURI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if img.MimeType != tt.wantMime || img.Extension != tt.wantExt {
				t.Errorf("got %s %s, want %s %s", img.MimeType, img.Extension, tt.wantMime, tt.wantExt)
			}
		})
	}
}
