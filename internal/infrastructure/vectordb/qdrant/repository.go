// Package qdrant provides a VectorDB implementation using Qdrant.
package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/infrastructure/config"
)

// Repository implements ports.VectorDB and ports.CollectionManager using Qdrant.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	if cfg.Collection == "" {
		return nil, errors.New("qdrant collection is required")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: cfg.Collection,
		conn:       conn,
	}, nil
}

// apiKeyInterceptor attaches the Qdrant Cloud api-key header to every call.
func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// DeleteCollection removes the collection and all its data.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.client.Delete(ctx, &pb.DeleteCollection{
		CollectionName: r.collection,
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// waitForResult makes writes visible to the next read.
var waitForResult = true

// Save stores an entry with its embedding. The entry ID must be a UUID.
func (r *Repository) Save(ctx context.Context, entry entities.HistoryEntry, embedding []float32) error {
	if entry.ID == "" {
		return errors.New("entry id is required")
	}

	payload, err := entryPayload(entry)
	if err != nil {
		return err
	}

	_, err = r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Wait:           &waitForResult,
		Points: []*pb.PointStruct{
			{
				Id: &pb.PointId{
					PointIdOptions: &pb.PointId_Uuid{Uuid: entry.ID},
				},
				Vectors: &pb.Vectors{
					VectorsOptions: &pb.Vectors_Vector{
						Vector: &pb.Vector{Data: embedding},
					},
				},
				Payload: payload,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("upserting point: %w", err)
	}

	return nil
}

// Search performs a semantic search and returns similar submissions.
func (r *Repository) Search(ctx context.Context, embedding []float32, limit int) ([]entities.SimilarSubmission, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	results := make([]entities.SimilarSubmission, 0, len(resp.Result))
	for _, point := range resp.Result {
		entry := payloadToEntry(point.Id.GetUuid(), point.Payload)
		results = append(results, entities.SimilarSubmission{
			Entry: entry,
			Score: point.Score,
		})
	}
	return results, nil
}

// DeleteAll removes every indexed entry.
func (r *Repository) DeleteAll(ctx context.Context) error {
	_, err := r.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collection,
		Wait:           &waitForResult,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: &pb.Filter{},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting all points: %w", err)
	}

	return nil
}

// Count returns the number of indexed entries.
func (r *Repository) Count(ctx context.Context) (uint64, error) {
	resp, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("getting collection info: %w", err)
	}

	if resp.Result.PointsCount == nil {
		return 0, nil
	}

	return *resp.Result.PointsCount, nil
}

// entryPayload converts an entry into a Qdrant payload.
func entryPayload(entry entities.HistoryEntry) (map[string]*pb.Value, error) {
	signals, err := json.Marshal(entry.Signals)
	if err != nil {
		return nil, fmt.Errorf("marshaling signals: %w", err)
	}

	return map[string]*pb.Value{
		"text":         {Kind: &pb.Value_StringValue{StringValue: entry.Text}},
		"label":        {Kind: &pb.Value_StringValue{StringValue: string(entry.Result.Label)}},
		"confidence":   {Kind: &pb.Value_IntegerValue{IntegerValue: int64(entry.Result.Confidence)}},
		"classifier":   {Kind: &pb.Value_StringValue{StringValue: entry.Classifier}},
		"signals":      {Kind: &pb.Value_StringValue{StringValue: string(signals)}},
		"submitted_at": {Kind: &pb.Value_StringValue{StringValue: entry.SubmittedAt.UTC().Format(time.RFC3339Nano)}},
	}, nil
}

// payloadToEntry converts a Qdrant payload back into an entry.
// Malformed optional fields are left zero.
func payloadToEntry(id string, payload map[string]*pb.Value) entities.HistoryEntry {
	entry := entities.HistoryEntry{
		ID:         id,
		Text:       getStringValue(payload, "text"),
		Classifier: getStringValue(payload, "classifier"),
		Result: entities.AnalysisResult{
			Label:      entities.Label(getStringValue(payload, "label")),
			Confidence: int(getIntValue(payload, "confidence")),
		},
	}

	if ts := getStringValue(payload, "submitted_at"); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.SubmittedAt = t
		}
	}

	if raw := getStringValue(payload, "signals"); raw != "" && raw != "null" {
		var signals []string
		if err := json.Unmarshal([]byte(raw), &signals); err == nil {
			entry.Signals = signals
		}
	}

	return entry
}

// Helper functions for payload extraction.
func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func getIntValue(payload map[string]*pb.Value, key string) int64 {
	if v, ok := payload[key]; ok {
		return v.GetIntegerValue()
	}
	return 0
}
