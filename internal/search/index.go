package search

import (
	"context"

	"github.com/google/uuid"
)

// Имена коллекций похожестного индекса.
const (
	CollectionClothing = "clothing_items"
	CollectionOutfits  = "outfits"
)

// Match — одно совпадение похожестного поиска. Distance считается как
// 1 - косинусная похожесть: 0 означает идентичные описания.
type Match struct {
	ID       uuid.UUID
	Distance float64
	Text     string
}

// Index хранит текстовые описания под идентификаторами записей базы и
// ищет ближайшие по смыслу. Запись индекса живёт и умирает вместе со
// строкой в Postgres с тем же id.
type Index interface {
	Add(ctx context.Context, collection string, id uuid.UUID, text string) error
	Query(ctx context.Context, collection string, text string, topK int) ([]Match, error)
	Delete(ctx context.Context, collection string, id uuid.UUID) error
	Close() error
}

// Embedder переводит текст в вектор. Реализуется AI клиентом.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
