package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@sub.example.org",
		"name+tag@example.ru",
	}
	for _, email := range valid {
		assert.NoError(t, ValidateEmail(email), "email %q", email)
	}

	invalid := []string{
		"",
		"no-at-sign",
		"two@@example.com",
		"@example.com",
		"user@nodot",
		"user name@example.com",
	}
	for _, email := range invalid {
		assert.Error(t, ValidateEmail(email), "email %q", email)
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Анна"))
	assert.Error(t, ValidateName(""))
	assert.Error(t, ValidateName("А"))
	assert.Error(t, ValidateName(strings.Repeat("а", MaxNameLength+1)))
}

func TestValidateListingTitle(t *testing.T) {
	assert.NoError(t, ValidateListingTitle("Кожаная куртка"))
	assert.Error(t, ValidateListingTitle(""))
	assert.Error(t, ValidateListingTitle("ок"))
	// Лимит eBay — 80 символов.
	assert.Error(t, ValidateListingTitle(strings.Repeat("x", MaxListingTitleLength+1)))
	assert.NoError(t, ValidateListingTitle(strings.Repeat("x", MaxListingTitleLength)))
}

func TestValidatePriceCents(t *testing.T) {
	assert.NoError(t, ValidatePriceCents(1))
	assert.NoError(t, ValidatePriceCents(450000))
	assert.Error(t, ValidatePriceCents(0))
	assert.Error(t, ValidatePriceCents(-100))
	assert.Error(t, ValidatePriceCents(MaxPriceCents+1))
}

func TestValidateSearchQuery(t *testing.T) {
	assert.NoError(t, ValidateSearchQuery("синяя рубашка"))
	assert.Error(t, ValidateSearchQuery(""))
	assert.Error(t, ValidateSearchQuery("   "))
	assert.Error(t, ValidateSearchQuery(strings.Repeat("q", MaxSearchQueryLength+1)))
}

func TestValidateWornDate(t *testing.T) {
	wornOn, err := ValidateWornDate("2026-08-20")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), wornOn)

	_, err = ValidateWornDate("")
	assert.Error(t, err)

	_, err = ValidateWornDate("20.08.2026")
	assert.Error(t, err)

	future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	_, err = ValidateWornDate(future)
	assert.Error(t, err)
}

func TestValidateItemField(t *testing.T) {
	assert.NoError(t, ValidateItemField("цвет", "синий"))
	assert.NoError(t, ValidateItemField("цвет", ""))
	assert.Error(t, ValidateItemField("цвет", strings.Repeat("x", MaxItemFieldLength+1)))
}
