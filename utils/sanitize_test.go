package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validItem() APILeadItem {
	return APILeadItem{
		FirstName:    "Marie",
		LastName:     "Dupont",
		Email:        "marie@example.com",
		Phone:        "06 12 34 56 78",
		Source:       "facebook",
		ResponseDate: "2026-08-20",
	}
}

func TestSanitizeNormalizesEmail(t *testing.T) {
	item := validItem()
	item.Email = "  User@Example.COM "

	out, err := SanitizeLeadItem(item)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", out.Email)
}

func TestSanitizeNormalizesPhone(t *testing.T) {
	item := validItem()
	item.Phone = "06 12 34 56 78"

	out, err := SanitizeLeadItem(item)
	require.NoError(t, err)
	assert.Equal(t, "0612345678", out.Phone)
}

func TestSanitizeRejectsShortPhone(t *testing.T) {
	item := validItem()
	item.Email = ""
	item.Phone = "1234"

	_, err := SanitizeLeadItem(item)
	require.Error(t, err)
	assert.Equal(t, "phone must contain at least 10 digits", err.Error())
}

func TestSanitizeRequiresFirstName(t *testing.T) {
	item := validItem()
	item.FirstName = "   "

	_, err := SanitizeLeadItem(item)
	require.Error(t, err)
	assert.Equal(t, "first_name is required", err.Error())
}

func TestSanitizeRequiresEmailOrPhone(t *testing.T) {
	item := validItem()
	item.Email = ""
	item.Phone = ""

	_, err := SanitizeLeadItem(item)
	require.Error(t, err)
	assert.Equal(t, "email or phone is required", err.Error())

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSanitizeRequiresResponseDate(t *testing.T) {
	item := validItem()
	item.ResponseDate = ""

	_, err := SanitizeLeadItem(item)
	require.Error(t, err)
	assert.Equal(t, "response_date is required", err.Error())

	item.ResponseDate = "20/08/2026"
	_, err = SanitizeLeadItem(item)
	require.Error(t, err)
	assert.Equal(t, "response_date must be a valid date (YYYY-MM-DD)", err.Error())
}

func TestSanitizeRejectsBadEmail(t *testing.T) {
	for _, email := range []string{"not-an-email", "user@", "@example.com", "user@host"} {
		item := validItem()
		item.Email = email

		_, err := SanitizeLeadItem(item)
		require.Error(t, err, "email %q should be rejected", email)
		assert.Equal(t, "email format is invalid", err.Error())
	}
}

func TestSanitizeDefaultsSource(t *testing.T) {
	item := validItem()
	item.Source = ""

	out, err := SanitizeLeadItem(item)
	require.NoError(t, err)
	assert.Equal(t, DefaultSource, out.Source)
}

func TestSanitizeUppercasesSource(t *testing.T) {
	item := validItem()
	item.Source = "  google_ads "

	out, err := SanitizeLeadItem(item)
	require.NoError(t, err)
	assert.Equal(t, "GOOGLE_ADS", out.Source)
}

func TestSanitizeValidatesConsentDate(t *testing.T) {
	item := validItem()
	item.ConsentDate = "not-a-date"

	_, err := SanitizeLeadItem(item)
	require.Error(t, err)
	assert.Equal(t, "consent_date must be a valid date (YYYY-MM-DD)", err.Error())

	item.ConsentDate = "2026-08-01"
	out, err := SanitizeLeadItem(item)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-01", out.ConsentDate)
}

func TestSanitizePassesOtherFieldsThrough(t *testing.T) {
	item := validItem()
	item.City = "Lyon"
	item.PostalCode = "69003"
	item.BranchID = 42
	item.ExamCenterID = 7

	out, err := SanitizeLeadItem(item)
	require.NoError(t, err)
	assert.Equal(t, "Lyon", out.City)
	assert.Equal(t, "69003", out.PostalCode)
	assert.Equal(t, 42, out.BranchID)
	assert.Equal(t, 7, out.ExamCenterID)
	assert.Equal(t, "Marie", out.FirstName)
	assert.Equal(t, "Dupont", out.LastName)
}
