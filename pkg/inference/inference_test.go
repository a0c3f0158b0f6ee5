package inference_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragembed/pkg/inference"
)

var _ = Describe("Tensors", func() {
	var t *inference.Tensors

	BeforeEach(func() {
		t = &inference.Tensors{}
	})

	It("reports ErrNoInput before anything is loaded", func() {
		_, err := t.Input()
		Expect(err).To(MatchError(inference.ErrNoInput))
	})

	It("stores a copy of input tensor 0", func() {
		data := []byte("hello")
		Expect(t.SetInput(0, data)).To(Succeed())
		data[0] = 'j'

		in, err := t.Input()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(in)).To(Equal("hello"))
	})

	It("rejects other tensor indexes", func() {
		Expect(t.SetInput(1, []byte("x"))).To(MatchError(inference.ErrInvalidTensor))

		_, err := t.GetOutput(2, make([]byte, 4))
		Expect(err).To(MatchError(inference.ErrInvalidTensor))
	})

	It("returns zero bytes before any output exists", func() {
		n, err := t.GetOutput(0, make([]byte, 8))
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
	})

	It("cuts output at the buffer length", func() {
		t.SetOutput([]byte("0123456789"))
		buf := make([]byte, 4)
		n, err := t.GetOutput(0, buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(4))
		Expect(string(buf)).To(Equal("0123"))
	})
})

var _ = Describe("EncodeEmbedding", func() {
	It("renders the embedding field", func() {
		out, err := inference.EncodeEmbedding([]float32{0.5, -1})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal(`{"embedding":[0.5,-1]}`))
	})
})

var _ = Describe("ClassifyMessage", func() {
	DescribeTable("maps engine wording onto sentinels",
		func(msg string, want error) {
			got := inference.ClassifyMessage(msg)
			if want == nil {
				Expect(got).To(BeNil())
				return
			}
			Expect(got).To(Equal(want))
		},
		Entry("wasi-nn context full", "Context full", inference.ErrContextFull),
		Entry("llama.cpp context size", "the request exceeds the available context size, try increasing it", inference.ErrContextFull),
		Entry("wasi-nn prompt too long", "Prompt too long", inference.ErrPromptTooLong),
		Entry("ollama context length", "the input length exceeds the context length", inference.ErrPromptTooLong),
		Entry("llama.cpp batch size", "input is too large to process. increase the physical batch size", inference.ErrPromptTooLong),
		Entry("unrelated", "model not found", nil),
	)
})

var _ = Describe("IsRecoverable", func() {
	It("matches wrapped recoverable errors", func() {
		Expect(inference.IsRecoverable(fmt.Errorf("%w: x", inference.ErrContextFull))).To(BeTrue())
		Expect(inference.IsRecoverable(fmt.Errorf("%w: x", inference.ErrPromptTooLong))).To(BeTrue())
	})

	It("does not match other errors", func() {
		Expect(inference.IsRecoverable(inference.ErrBackend)).To(BeFalse())
		Expect(inference.IsRecoverable(errors.New("boom"))).To(BeFalse())
	})
})
