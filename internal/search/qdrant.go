package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// QdrantIndex реализует Index поверх Qdrant по gRPC.
type QdrantIndex struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	embedder    Embedder

	mu      sync.Mutex
	ensured map[string]bool
}

// NewQdrantIndex создаёт индекс поверх Qdrant.
func NewQdrantIndex(host string, port int, embedder Embedder) (*QdrantIndex, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}

	return &QdrantIndex{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		embedder:    embedder,
		ensured:     make(map[string]bool),
	}, nil
}

// ensureCollection создаёт коллекцию при первом обращении. Размерность
// векторов берётся из первого проиндексированного текста.
func (q *QdrantIndex) ensureCollection(ctx context.Context, collection string, dim int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ensured[collection] {
		return nil
	}

	exists, err := q.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{
		CollectionName: collection,
	})
	if err != nil {
		return fmt.Errorf("qdrant collection exists: %w", err)
	}

	if exists.GetResult().GetExists() {
		q.ensured[collection] = true
		return nil
	}

	_, err = q.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dim),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant create collection: %w", err)
	}

	q.ensured[collection] = true
	return nil
}

// Add индексирует текст под идентификатором записи базы. Повторный Add
// с тем же id перезаписывает точку.
func (q *QdrantIndex) Add(ctx context.Context, collection string, id uuid.UUID, text string) error {
	vector, err := q.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("qdrant add: %w", err)
	}

	if err := q.ensureCollection(ctx, collection, len(vector)); err != nil {
		return err
	}

	point := &pb.PointStruct{
		Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id.String()}},
		Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vector}}},
		Payload: map[string]*pb.Value{
			"content": {Kind: &pb.Value_StringValue{StringValue: text}},
		},
	}

	wait := true
	_, err = q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Points:         []*pb.PointStruct{point},
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}

	return nil
}

// Query возвращает до topK ближайших записей, отсортированных по
// возрастанию дистанции.
func (q *QdrantIndex) Query(ctx context.Context, collection string, text string, topK int) ([]Match, error) {
	vector, err := q.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	if err := q.ensureCollection(ctx, collection, len(vector)); err != nil {
		return nil, err
	}

	resp, err := q.points.Search(ctx, &pb.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	matches := make([]Match, 0, len(resp.Result))
	for _, pt := range resp.Result {
		id, err := uuid.Parse(pt.Id.GetUuid())
		if err != nil {
			continue
		}

		matches = append(matches, Match{
			ID:       id,
			Distance: 1 - float64(pt.Score),
			Text:     pt.Payload["content"].GetStringValue(),
		})
	}

	return matches, nil
}

// Delete удаляет запись из индекса. Отсутствующая точка не считается
// ошибкой.
func (q *QdrantIndex) Delete(ctx context.Context, collection string, id uuid.UUID) error {
	_, err := q.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{
						{PointIdOptions: &pb.PointId_Uuid{Uuid: id.String()}},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant delete: %w", err)
	}

	return nil
}

// Close освобождает gRPC соединение.
func (q *QdrantIndex) Close() error {
	return q.conn.Close()
}

var _ Index = (*QdrantIndex)(nil)
