package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONArrayFromText_MarkdownBlock(t *testing.T) {
	text := "Вот распознанные вещи:\n```json\n[{\"type\": \"Shirt\", \"color\": \"blue\"}]\n```"

	var descriptors []ItemDescriptor
	err := parseJSONArrayFromText(text, &descriptors)

	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "Shirt", descriptors[0].Type)
	assert.Equal(t, "blue", descriptors[0].Color)
}

func TestParseJSONArrayFromText_BareArray(t *testing.T) {
	text := `[{"type": "Pants", "size": "32"}, {"type": "Shoes"}]`

	var descriptors []ItemDescriptor
	err := parseJSONArrayFromText(text, &descriptors)

	require.NoError(t, err)
	assert.Len(t, descriptors, 2)
}

func TestParseJSONArrayFromText_ProseAroundArray(t *testing.T) {
	text := `На фотографии видно: [{"type": "Outerwear", "color": "black"}] — это всё.`

	var descriptors []ItemDescriptor
	err := parseJSONArrayFromText(text, &descriptors)

	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "Outerwear", descriptors[0].Type)
}

func TestParseJSONArrayFromText_Garbage(t *testing.T) {
	var descriptors []ItemDescriptor
	err := parseJSONArrayFromText("не могу распознать вещи на фотографии", &descriptors)
	assert.Error(t, err)
}

func TestItemDescriptor_SearchText(t *testing.T) {
	d := ItemDescriptor{Type: "Shirt", Color: "blue", Size: "", Description: "oxford cotton shirt"}
	assert.Equal(t, "Shirt blue oxford cotton shirt", d.SearchText())

	empty := ItemDescriptor{}
	assert.Equal(t, "", empty.SearchText())
}

func TestClient_ExtractItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		messages := payload["messages"].([]any)
		require.Len(t, messages, 1)

		// Мультимодальное сообщение: текст промпта плюс ссылка на фото.
		content := messages[0].(map[string]any)["content"].([]any)
		require.Len(t, content, 2)
		imagePart := content[1].(map[string]any)
		assert.Equal(t, "image_url", imagePart["type"])

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"content": `[{"type": "Shirt", "color": "blue", "description": "blue shirt"}, {"type": "", "color": "???"}]`,
				}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", "test-embedding", time.Second)

	descriptors, err := client.ExtractItems(context.Background(), "https://example.com/photo.jpg")

	require.NoError(t, err)
	// Дескриптор без типа отбрасывается.
	require.Len(t, descriptors, 1)
	assert.Equal(t, "Shirt", descriptors[0].Type)
}

func TestClient_EmbedBatch_PreservesOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		// Ответ приходит не в порядке запроса.
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0.4, 0.5}},
				{"index": 0, "embedding": []float32{0.1, 0.2}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", "test-embedding", time.Second)

	vectors, err := client.EmbedBatch(context.Background(), []string{"first", "second"})

	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.4, 0.5}, vectors[1])
}

func TestClient_EmbedBatch_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 0, "embedding": []float32{0.1}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", "test-embedding", time.Second)

	_, err := client.EmbedBatch(context.Background(), []string{"first", "second"})
	assert.Error(t, err)
}
