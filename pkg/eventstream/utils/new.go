package eventstreamutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/ragembed/pkg/eventstream"
	"github.com/papercomputeco/ragembed/pkg/eventstream/kafka"
	"github.com/papercomputeco/ragembed/pkg/eventstream/nop"
)

type NewPublisherOpts struct {
	ProviderType string
	Brokers      []string
	Topic        string
	Logger       *slog.Logger
}

// SupportedProviders returns the event publisher providers NewPublisher accepts.
func SupportedProviders() []string {
	return []string{"none", "kafka"}
}

func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "", "none":
		return nop.NewPublisher(), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: o.Brokers,
			Topic:   o.Topic,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", o.ProviderType)
	}
}
