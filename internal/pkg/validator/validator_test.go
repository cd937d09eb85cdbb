package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   "))
	assert.True(t, IsEmpty("\t\n"))
	assert.False(t, IsEmpty("x"))
	assert.False(t, IsEmpty("  x  "))
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"john.doe@company.com",
		"admin@company.com",
		"first+tag@sub.domain.co",
	}
	for _, email := range valid {
		assert.True(t, IsValidEmail(email), email)
	}

	invalid := []string{
		"",
		"not-an-email",
		"@company.com",
		"john@",
		"john@company",
	}
	for _, email := range invalid {
		assert.False(t, IsValidEmail(email), email)
	}
}

func TestIsValidDate(t *testing.T) {
	_, ok := IsValidDate("2026-08-29")
	assert.True(t, ok)

	for _, s := range []string{"", "29-08-2026", "2026-13-01", "2026-08-29T09:00:00"} {
		_, ok := IsValidDate(s)
		assert.False(t, ok, s)
	}
}

func TestIsValidDateTime(t *testing.T) {
	// Both the zoned and the local wall-clock form are accepted.
	_, ok := IsValidDateTime("2026-08-29T09:00:00Z")
	assert.True(t, ok)
	_, ok = IsValidDateTime("2026-08-29T09:00:00")
	assert.True(t, ok)

	for _, s := range []string{"", "2026-08-29", "09:00:00"} {
		_, ok := IsValidDateTime(s)
		assert.False(t, ok, s)
	}
}

func TestCoordinateRanges(t *testing.T) {
	assert.True(t, IsValidLatitude(0))
	assert.True(t, IsValidLatitude(-90))
	assert.True(t, IsValidLatitude(90))
	assert.False(t, IsValidLatitude(90.01))
	assert.False(t, IsValidLatitude(-91))

	assert.True(t, IsValidLongitude(180))
	assert.True(t, IsValidLongitude(-180))
	assert.False(t, IsValidLongitude(180.5))
}

func TestIsImageFilename(t *testing.T) {
	assert.True(t, IsImageFilename("selfie.jpg"))
	assert.True(t, IsImageFilename("selfie.JPEG"))
	assert.True(t, IsImageFilename("photo.png"))
	assert.False(t, IsImageFilename("document.pdf"))
	assert.False(t, IsImageFilename("noextension"))
	assert.False(t, IsImageFilename("archive.jpg.zip"))
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "email", Message: "email is required"},
		{Field: "password", Message: "password is required"},
	}

	assert.Equal(t, "email: email is required; password: password is required", errs.Error())
	assert.Equal(t, map[string]string{
		"email":    "email is required",
		"password": "password is required",
	}, errs.ToMap())
}
