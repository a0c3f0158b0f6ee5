package inferenceutils_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragembed/pkg/inference"
	"github.com/papercomputeco/ragembed/pkg/inference/ollama"
	"github.com/papercomputeco/ragembed/pkg/inference/openai"
	inferenceutils "github.com/papercomputeco/ragembed/pkg/inference/utils"
)

var _ = Describe("NewExecutionContext", func() {
	opts := inference.Options{Model: "nomic-embed-text", Embedding: true}

	It("builds an ollama context", func() {
		ectx, err := inferenceutils.NewExecutionContext(&inferenceutils.NewExecutionContextOpts{
			ProviderType: "ollama",
			Options:      opts,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(ectx).To(BeAssignableToTypeOf(&ollama.Context{}))
	})

	It("builds an openai context", func() {
		ectx, err := inferenceutils.NewExecutionContext(&inferenceutils.NewExecutionContextOpts{
			ProviderType: "openai",
			Options:      opts,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(ectx).To(BeAssignableToTypeOf(&openai.Context{}))
	})

	It("rejects unknown providers", func() {
		_, err := inferenceutils.NewExecutionContext(&inferenceutils.NewExecutionContextOpts{ProviderType: "wasi-nn"})
		Expect(err).To(MatchError(ContainSubstring("unsupported inference provider")))
	})
})
