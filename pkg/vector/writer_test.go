package vector_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	testutils "github.com/papercomputeco/ragembed/pkg/utils/test"
	"github.com/papercomputeco/ragembed/pkg/vector"
)

var _ = Describe("Writer", func() {
	var (
		ctx    context.Context
		driver *testutils.MockVectorDriver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewMockVectorDriver()
	})

	It("requires a driver and a collection", func() {
		_, err := vector.NewWriter(nil, "docs", 0)
		Expect(err).To(HaveOccurred())

		_, err = vector.NewWriter(driver, "", 0)
		Expect(err).To(HaveOccurred())
	})

	It("offsets ids by the start id", func() {
		w, err := vector.NewWriter(driver, "docs", 100)
		Expect(err).NotTo(HaveOccurred())

		for seq := range uint64(3) {
			id, err := w.Write(ctx, seq, []float32{1, 2}, "text")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(100 + seq))
		}

		Expect(driver.Points()).To(HaveLen(3))
		Expect(driver.Points()[2].ID).To(Equal(uint64(102)))
	})

	It("issues one upsert per point with the source payload", func() {
		w, err := vector.NewWriter(driver, "docs", 0)
		Expect(err).NotTo(HaveOccurred())

		_, err = w.Write(ctx, 7, []float32{0.5}, "a\nb\n")
		Expect(err).NotTo(HaveOccurred())

		Expect(driver.Calls).To(HaveLen(1))
		call := driver.Calls[0]
		Expect(call.Collection).To(Equal("docs"))
		Expect(call.Points).To(HaveLen(1))
		Expect(call.Points[0].ID).To(Equal(uint64(7)))
		Expect(call.Points[0].Vector).To(Equal([]float32{0.5}))
		Expect(call.Points[0].Payload).To(Equal(map[string]any{"source": "a\nb\n"}))
	})

	It("wraps driver failures in ErrUpsert and still reports the id", func() {
		driver.FailIDs[5] = true
		w, err := vector.NewWriter(driver, "docs", 5)
		Expect(err).NotTo(HaveOccurred())

		id, err := w.Write(ctx, 0, []float32{1}, "x")
		Expect(err).To(MatchError(vector.ErrUpsert))
		Expect(id).To(Equal(uint64(5)))
		Expect(driver.Points()).To(BeEmpty())
	})

	It("refuses ids past the end of the id space instead of wrapping", func() {
		w, err := vector.NewWriter(driver, "docs", math.MaxUint64-1)
		Expect(err).NotTo(HaveOccurred())

		id, err := w.PointID(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(uint64(math.MaxUint64)))

		_, err = w.PointID(2)
		Expect(err).To(MatchError(vector.ErrInvalidPoint))

		_, err = w.Write(ctx, 2, []float32{1}, "x")
		Expect(err).To(MatchError(vector.ErrInvalidPoint))
		Expect(driver.Calls).To(BeEmpty())
	})
})
