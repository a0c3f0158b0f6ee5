// Package inferenceutils builds execution contexts by provider name.
package inferenceutils

import (
	"fmt"

	"github.com/papercomputeco/ragembed/pkg/inference"
	"github.com/papercomputeco/ragembed/pkg/inference/ollama"
	"github.com/papercomputeco/ragembed/pkg/inference/openai"
)

type NewExecutionContextOpts struct {
	ProviderType string
	Options      inference.Options
}

// SupportedProviders lists the provider names NewExecutionContext accepts.
func SupportedProviders() []string {
	return []string{"ollama", "openai"}
}

func NewExecutionContext(o *NewExecutionContextOpts) (inference.ExecutionContext, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.NewContext(o.Options)
	case "openai":
		return openai.NewContext(o.Options)
	default:
		return nil, fmt.Errorf("unsupported inference provider: %s", o.ProviderType)
	}
}
