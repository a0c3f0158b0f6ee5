package chroma_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	ragembedlogger "github.com/papercomputeco/ragembed/pkg/logger"
	"github.com/papercomputeco/ragembed/pkg/vector"
	"github.com/papercomputeco/ragembed/pkg/vector/chroma"
)

const collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"

var _ = Describe("Driver", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = ragembedlogger.Nop()
	})

	Describe("NewDriver", func() {
		It("should return an error when URL is empty", func() {
			_, err := chroma.NewDriver(chroma.Config{URL: ""}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("chroma URL is required"))
		})

		It("should not contact Chroma when no collection is given", func() {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
			}))
			defer server.Close()

			_, err := chroma.NewDriver(chroma.Config{URL: server.URL}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits.Load()).To(BeZero())
		})

		It("should succeed after retrying when Chroma becomes available", func() {
			var attempts atomic.Int32

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempt := attempts.Add(1)

				// Fail the first 4 lookups to simulate Chroma still starting up.
				if attempt <= 4 {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{
					"id":   "test-collection-id",
					"name": "docs",
				})
			}))
			defer server.Close()

			driver, err := chroma.NewDriver(chroma.Config{
				URL:           server.URL,
				Collection:    "docs",
				MaxRetries:    5,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
			Expect(attempts.Load()).To(BeNumerically(">=", int32(5)))
		})

		It("should return an error after exhausting all retries", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			}))
			defer server.Close()

			_, err := chroma.NewDriver(chroma.Config{
				URL:           server.URL,
				Collection:    "docs",
				MaxRetries:    3,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err).To(MatchError(vector.ErrConnection))
			Expect(err.Error()).To(ContainSubstring("after 3 attempts"))
		})

		It("should not create or retry a missing collection", func() {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				attempts.Add(1)
				Expect(r.Method).To(Equal(http.MethodGet))
				http.NotFound(w, r)
			}))
			defer server.Close()

			_, err := chroma.NewDriver(chroma.Config{
				URL:        server.URL,
				Collection: "missing",
				RetryDelay: time.Millisecond,
			}, logger)
			Expect(err).To(MatchError(vector.ErrCollectionNotFound))
			Expect(attempts.Load()).To(Equal(int32(1)))
		})
	})

	Describe("Upsert", func() {
		var (
			server   *httptest.Server
			lookups  atomic.Int32
			upserts  []map[string]any
			failNext bool
		)

		BeforeEach(func() {
			lookups.Store(0)
			upserts = nil
			failNext = false

			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				switch {
				case r.Method == http.MethodGet && r.URL.Path == collectionsPath+"/docs":
					lookups.Add(1)
					json.NewEncoder(w).Encode(map[string]string{"id": "c-123", "name": "docs"})
				case r.Method == http.MethodPost && r.URL.Path == collectionsPath+"/c-123/upsert":
					if failNext {
						http.Error(w, "dimension mismatch", http.StatusBadRequest)
						return
					}
					var body map[string]any
					Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
					upserts = append(upserts, body)
					w.WriteHeader(http.StatusOK)
					_, _ = w.Write([]byte("{}"))
				case strings.HasPrefix(r.URL.Path, collectionsPath+"/"):
					http.NotFound(w, r)
				default:
					w.WriteHeader(http.StatusTeapot)
				}
			}))
		})

		AfterEach(func() {
			server.Close()
		})

		newDriver := func() *chroma.Driver {
			d, err := chroma.NewDriver(chroma.Config{URL: server.URL, Collection: "docs"}, logger)
			Expect(err).NotTo(HaveOccurred())
			return d
		}

		It("sends decimal ids, the source as document and no empty metadata", func() {
			d := newDriver()
			err := d.Upsert(context.Background(), "docs", []vector.Point{{
				ID:      42,
				Vector:  []float32{0.5, 0.25},
				Payload: map[string]any{vector.PayloadSourceKey: "hello\n"},
			}})
			Expect(err).NotTo(HaveOccurred())

			Expect(upserts).To(HaveLen(1))
			Expect(upserts[0]["ids"]).To(Equal([]any{"42"}))
			Expect(upserts[0]["documents"]).To(Equal([]any{"hello\n"}))
			Expect(upserts[0]["embeddings"]).To(Equal([]any{[]any{0.5, 0.25}}))
			Expect(upserts[0]).NotTo(HaveKey("metadatas"))
		})

		It("puts other payload entries in metadata", func() {
			d := newDriver()
			err := d.Upsert(context.Background(), "docs", []vector.Point{{
				ID:      1,
				Vector:  []float32{1},
				Payload: map[string]any{vector.PayloadSourceKey: "x", "file": "README.md"},
			}})
			Expect(err).NotTo(HaveOccurred())
			Expect(upserts[0]["metadatas"]).To(Equal([]any{map[string]any{"file": "README.md"}}))
		})

		It("caches the collection id", func() {
			d := newDriver()
			for i := range 3 {
				Expect(d.Upsert(context.Background(), "docs", []vector.Point{{ID: uint64(i), Vector: []float32{1}}})).To(Succeed())
			}
			Expect(lookups.Load()).To(Equal(int32(1)))
		})

		It("wraps rejected writes in ErrUpsert", func() {
			d := newDriver()
			failNext = true
			err := d.Upsert(context.Background(), "docs", []vector.Point{{ID: 1, Vector: []float32{1}}})
			Expect(err).To(MatchError(vector.ErrUpsert))
			Expect(err.Error()).To(ContainSubstring("dimension mismatch"))
		})

		It("fails writes to unknown collections", func() {
			d := newDriver()
			err := d.Upsert(context.Background(), "other", []vector.Point{{ID: 1, Vector: []float32{1}}})
			Expect(err).To(MatchError(vector.ErrUpsert))
			Expect(err).To(MatchError(vector.ErrCollectionNotFound))
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Driver interface", func() {
			var _ vector.Driver = (*chroma.Driver)(nil)
		})
	})
})
