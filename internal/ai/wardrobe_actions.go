package ai

import (
	"context"
	"fmt"
	"strings"
)

// ItemDescriptor описывает одну вещь, распознанную на фотографии.
type ItemDescriptor struct {
	Type        string `json:"type"`
	Size        string `json:"size"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

const extractItemsPrompt = `Ты ассистент гардероба. Посмотри на фотографию и перечисли все предметы одежды, обуви и аксессуаров, которые на ней видны.
Ответь строго JSON-массивом объектов вида:
[{"type": "...", "size": "...", "color": "...", "description": "..."}]
Поле type выбери из: Shirt, Pants, Shoes, Outerwear, Accessories.
Поле description — короткое описание предмета на английском (фасон, материал, узнаваемые детали).
Если размер определить нельзя, оставь size пустой строкой. Не добавляй ничего кроме JSON.`

const describeOutfitPrompt = `Ты ассистент гардероба. Опиши образ (аутфит) на фотографии одним абзацем на английском: стиль, сочетание вещей, повод, для которого он подходит. Не перечисляй вещи списком и не добавляй лишнего текста.`

// ExtractItems распознаёт предметы одежды на фотографии по её URL.
func (c *Client) ExtractItems(ctx context.Context, imageURL string) ([]ItemDescriptor, error) {
	messages := []map[string]any{
		{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": extractItemsPrompt},
				{"type": "image_url", "image_url": map[string]any{"url": imageURL}},
			},
		},
	}

	response, err := c.chatCompletion(ctx, messages, 1024)
	if err != nil {
		return nil, fmt.Errorf("ai: распознавание вещей: %w", err)
	}

	var descriptors []ItemDescriptor
	if err := parseJSONArrayFromText(response, &descriptors); err != nil {
		return nil, fmt.Errorf("ai: распознавание вещей: %w", err)
	}

	// Пустой type делает дескриптор бесполезным, отбрасываем такие сразу.
	result := make([]ItemDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if strings.TrimSpace(d.Type) == "" {
			continue
		}
		result = append(result, d)
	}

	return result, nil
}

// DescribeOutfit формирует текстовое описание образа на фотографии.
func (c *Client) DescribeOutfit(ctx context.Context, imageURL string) (string, error) {
	messages := []map[string]any{
		{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": describeOutfitPrompt},
				{"type": "image_url", "image_url": map[string]any{"url": imageURL}},
			},
		},
	}

	response, err := c.chatCompletion(ctx, messages, 512)
	if err != nil {
		return "", fmt.Errorf("ai: описание образа: %w", err)
	}

	description := strings.TrimSpace(response)
	if description == "" {
		return "", fmt.Errorf("ai: пустое описание образа")
	}

	return description, nil
}

// SearchText возвращает текст, по которому вещь индексируется и ищется.
// Один и тот же текст используется и при добавлении в индекс, и при
// сопоставлении новых фотографий с гардеробом.
func (d ItemDescriptor) SearchText() string {
	parts := make([]string, 0, 4)
	for _, part := range []string{d.Type, d.Color, d.Size, d.Description} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, strings.TrimSpace(part))
		}
	}
	return strings.Join(parts, " ")
}
