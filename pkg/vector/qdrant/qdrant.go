// Package qdrant provides a Qdrant vector driver over the gRPC API.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"

	"github.com/papercomputeco/ragembed/pkg/vector"
)

const (
	// DefaultAddr is Qdrant's default gRPC address.
	DefaultAddr = "localhost:6334"

	apiKeyHeader = "api-key"
)

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Addr is the gRPC address ("host:port"). Defaults to DefaultAddr.
	Addr string

	// APIKey is sent as the api-key header when set.
	APIKey string
}

// QdrantDriver implements vector.Driver using Qdrant's points service.
// Collections must already exist.
type QdrantDriver struct {
	client qdrant.PointsClient
	conn   *grpc.ClientConn
	apiKey string
	logger *slog.Logger
}

// NewQdrantDriver creates a Qdrant driver. The connection is established
// lazily on the first upsert.
func NewQdrantDriver(c Config, logger *slog.Logger) (*QdrantDriver, error) {
	addr := c.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant %s: %w", vector.ErrConnection, addr, err)
	}

	logger.Info("qdrant vector driver configured", "addr", addr)

	d := NewQdrantDriverWithClient(qdrant.NewPointsClient(conn), c.APIKey, logger)
	d.conn = conn
	return d, nil
}

// NewQdrantDriverWithClient wraps an existing points client.
func NewQdrantDriverWithClient(client qdrant.PointsClient, apiKey string, logger *slog.Logger) *QdrantDriver {
	return &QdrantDriver{
		client: client,
		apiKey: apiKey,
		logger: logger,
	}
}

// mapToPayload converts a point payload to Qdrant values.
func mapToPayload(data map[string]any) (map[string]*qdrant.Value, error) {
	payload := make(map[string]*qdrant.Value, len(data))
	for key, val := range data {
		switch v := val.(type) {
		case string:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
		case int:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(v)}}
		case int64:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: v}}
		case float64:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: v}}
		case bool:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: v}}
		default:
			return nil, fmt.Errorf("unsupported type for payload field %q: %T", key, v)
		}
	}
	return payload, nil
}

// Upsert writes points with numeric ids and waits for the write to be
// applied.
func (d *QdrantDriver) Upsert(ctx context.Context, collection string, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		payload, err := mapToPayload(p.Payload)
		if err != nil {
			return fmt.Errorf("%w: point %d: %w", vector.ErrInvalidPoint, p.ID, err)
		}

		structs = append(structs, &qdrant.PointStruct{
			Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: p.ID}},
			Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: p.Vector}}},
			Payload: payload,
		})
	}

	if d.apiKey != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, apiKeyHeader, d.apiKey)
	}

	resp, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         structs,
		Wait:           proto.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("%w: qdrant collection %q: %w", vector.ErrUpsert, collection, err)
	}

	d.logger.Debug("upserted points to qdrant",
		"collection", collection,
		"count", len(structs),
		"status", resp.GetResult().GetStatus().String(),
	)

	return nil
}

// Close closes the gRPC connection.
func (d *QdrantDriver) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

var _ vector.Driver = (*QdrantDriver)(nil)
