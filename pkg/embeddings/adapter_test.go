package embeddings_test

import (
	"context"
	"errors"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragembed/pkg/embeddings"
	"github.com/papercomputeco/ragembed/pkg/inference"
	"github.com/papercomputeco/ragembed/pkg/logger"
	testutils "github.com/papercomputeco/ragembed/pkg/utils/test"
)

var _ = Describe("Adapter", func() {
	var (
		ctx  context.Context
		stub *testutils.StubExecutionContext
	)

	newAdapter := func(vectorSize uint) *embeddings.Adapter {
		a, err := embeddings.NewAdapter(stub, embeddings.AdapterConfig{VectorSize: vectorSize}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		return a
	}

	BeforeEach(func() {
		ctx = context.Background()
		stub = testutils.NewStubExecutionContext([]byte(`{"embedding":[0.5,1.5,2.5,3.5]}`))
	})

	Describe("NewAdapter", func() {
		It("requires an execution context", func() {
			_, err := embeddings.NewAdapter(nil, embeddings.AdapterConfig{VectorSize: 4}, nil)
			Expect(err).To(HaveOccurred())
		})

		It("requires a vector size", func() {
			_, err := embeddings.NewAdapter(stub, embeddings.AdapterConfig{}, nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("OutputSizeFor", func() {
		It("never goes below the historical minimum", func() {
			Expect(embeddings.OutputSizeFor(384)).To(Equal(61568))
		})

		It("grows with large vectors", func() {
			Expect(embeddings.OutputSizeFor(4096)).To(Equal(4096*32 + 128))
		})
	})

	Describe("Embed", func() {
		It("loads the text as input tensor 0", func() {
			a := newAdapter(4)
			_, err := a.Embed(ctx, "hello\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(stub.Inputs).To(Equal([]string{"hello\n"}))
		})

		It("returns exactly vector size entries", func() {
			a := newAdapter(2)
			vec, err := a.Embed(ctx, "x")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(Equal([]float32{0.5, 1.5}))
		})

		It("fails on a short embedding", func() {
			a := newAdapter(5)
			_, err := a.Embed(ctx, "x")
			Expect(err).To(MatchError(embeddings.ErrOutputParse))
		})

		It("fails on malformed output", func() {
			stub.Output = []byte(`not json`)
			a := newAdapter(2)
			_, err := a.Embed(ctx, "x")
			Expect(err).To(MatchError(embeddings.ErrOutputParse))
		})

		It("fails when the embedding field is missing", func() {
			stub.Output = []byte(`{"vectors":[1,2]}`)
			a := newAdapter(2)
			_, err := a.Embed(ctx, "x")
			Expect(err).To(MatchError(embeddings.ErrOutputParse))
		})

		It("decodes output with invalid UTF-8 outside the numbers", func() {
			stub.Output = append([]byte(`{"note":"`), 0xff, 0xfe)
			stub.Output = append(stub.Output, []byte(`","embedding":[1,2]}`)...)
			a := newAdapter(2)
			vec, err := a.Embed(ctx, "x")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(Equal([]float32{1, 2}))
		})

		It("skips recoverable errors without reading stale output", func() {
			a := newAdapter(4)
			_, err := a.Embed(ctx, "first")
			Expect(err).NotTo(HaveOccurred())

			stub.Output = []byte(`{"embedding":[9,9,9,9]}`)
			stub.ComputeErrs = []error{fmt.Errorf("%w: n_ctx 4096", inference.ErrContextFull)}

			vec, err := a.Embed(ctx, "second")
			Expect(err).To(MatchError(embeddings.ErrRecoverable))
			Expect(vec).To(BeNil())

			stub.ComputeErrs = []error{inference.ErrPromptTooLong}
			_, err = a.Embed(ctx, "third")
			Expect(err).To(MatchError(embeddings.ErrRecoverable))
		})

		It("maps other engine errors to ErrInference", func() {
			stub.ComputeErrs = []error{errors.New("backend exploded")}
			a := newAdapter(4)
			_, err := a.Embed(ctx, "x")
			Expect(err).To(MatchError(embeddings.ErrInference))
			Expect(err).NotTo(MatchError(embeddings.ErrRecoverable))
		})

		It("recovers after an error", func() {
			stub.ComputeErrs = []error{inference.ErrPromptTooLong, nil}
			a := newAdapter(4)

			_, err := a.Embed(ctx, strings.Repeat("x", 10))
			Expect(err).To(HaveOccurred())

			vec, err := a.Embed(ctx, "y")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(HaveLen(4))
		})
	})

	It("closes the execution context", func() {
		a := newAdapter(4)
		Expect(a.Close()).To(Succeed())
		Expect(stub.Closed).To(BeTrue())
	})
})
