package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Константы валидации
const (
	MinNameLength = 2
	MaxNameLength = 100

	MinItemNameLength = 1
	MaxItemNameLength = 200
	MaxItemFieldLength = 100

	MinListingTitleLength       = 3
	MaxListingTitleLength       = 80 // лимит заголовка на eBay
	MaxListingDescriptionLength = 4000

	MinPriceCents = 1
	MaxPriceCents = 100000000 // миллион в основной валюте

	MaxSearchQueryLength = 500
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	if !strings.Contains(email, "@") {
		return fmt.Errorf("email должен содержать символ @")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	if !strings.Contains(domainPart, ".") {
		return fmt.Errorf("доменная часть email должна содержать точку")
	}

	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateName проверяет отображаемое имя пользователя.
func ValidateName(name string) error {
	if err := ValidateNonEmpty("имя", name); err != nil {
		return err
	}
	return ValidateLength("имя", strings.TrimSpace(name), MinNameLength, MaxNameLength)
}

// ValidateItemName проверяет название вещи.
func ValidateItemName(name string) error {
	if err := ValidateNonEmpty("название вещи", name); err != nil {
		return err
	}
	return ValidateLength("название вещи", strings.TrimSpace(name), MinItemNameLength, MaxItemNameLength)
}

// ValidateItemField проверяет опциональное текстовое поле вещи
// (размер, цвет, стиль, бренд, тег).
func ValidateItemField(fieldName, value string) error {
	return ValidateLength(fieldName, value, 0, MaxItemFieldLength)
}

// ValidateListingTitle проверяет заголовок объявления.
func ValidateListingTitle(title string) error {
	if err := ValidateNonEmpty("заголовок объявления", title); err != nil {
		return err
	}
	return ValidateLength("заголовок объявления", strings.TrimSpace(title), MinListingTitleLength, MaxListingTitleLength)
}

// ValidateListingDescription проверяет описание объявления.
func ValidateListingDescription(description string) error {
	return ValidateLength("описание объявления", description, 0, MaxListingDescriptionLength)
}

// ValidatePriceCents проверяет цену объявления в минорных единицах.
func ValidatePriceCents(priceCents int64) error {
	if priceCents < MinPriceCents {
		return fmt.Errorf("цена должна быть положительной")
	}
	if priceCents > MaxPriceCents {
		return fmt.Errorf("цена слишком большая")
	}
	return nil
}

// ValidateSearchQuery проверяет поисковый запрос.
func ValidateSearchQuery(query string) error {
	if err := ValidateNonEmpty("поисковый запрос", query); err != nil {
		return err
	}
	return ValidateLength("поисковый запрос", query, 1, MaxSearchQueryLength)
}

// ValidateWornDate разбирает дату носки в формате YYYY-MM-DD
// и проверяет, что она не в будущем.
func ValidateWornDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("дата носки обязательна")
	}

	wornOn, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("дата носки должна быть в формате YYYY-MM-DD")
	}

	if wornOn.After(time.Now().AddDate(0, 0, 1)) {
		return time.Time{}, fmt.Errorf("дата носки не может быть в будущем")
	}

	return wornOn, nil
}
