package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/ragembed/pkg/vector"
	"github.com/papercomputeco/ragembed/pkg/vector/chroma"
	"github.com/papercomputeco/ragembed/pkg/vector/pgvector"
	"github.com/papercomputeco/ragembed/pkg/vector/qdrant"
	"github.com/papercomputeco/ragembed/pkg/vector/sqlitevec"
)

const (
	// DefaultChromaURL is used when the chroma provider has no target.
	DefaultChromaURL = "http://localhost:8000"

	// DefaultSQLitePath is used when the sqlite provider has no target.
	DefaultSQLitePath = "ragembed.db"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// Target is the provider-specific location: a gRPC address for qdrant,
	// a URL for chroma, a file path for sqlite and a connection string for
	// pgvector.
	Target string
	APIKey string

	// Collection is verified at construction where the provider supports it.
	Collection string

	// Dimensions is required by providers that create their own tables.
	Dimensions uint

	Logger *slog.Logger
}

// SupportedProviders returns the vector store providers NewVectorDriver accepts.
func SupportedProviders() []string {
	return []string{"qdrant", "chroma", "sqlite", "pgvector"}
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "qdrant":
		return qdrant.NewQdrantDriver(qdrant.Config{
			Addr:   o.Target,
			APIKey: o.APIKey,
		}, o.Logger)
	case "chroma":
		url := o.Target
		if url == "" {
			url = DefaultChromaURL
		}
		return chroma.NewDriver(chroma.Config{
			URL:        url,
			Collection: o.Collection,
		}, o.Logger)
	case "sqlite":
		path := o.Target
		if path == "" {
			path = DefaultSQLitePath
		}
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     path,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "pgvector":
		return pgvector.NewDriver(ctx, o.Target, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
