package gateway_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ardiansyahn/crm-backoffice/internal/apitest"
	"github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"
	"github.com/ardiansyahn/crm-backoffice/internal/gateway"
)

// memTokens is an in-memory TokenSource for tests that do not need
// persistence.
type memTokens struct {
	mu      sync.Mutex
	access  string
	refresh string
	cleared bool
}

func (m *memTokens) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access
}

func (m *memTokens) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh
}

func (m *memTokens) UpdateTokens(access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = access
	if refresh != "" {
		m.refresh = refresh
	}
	return nil
}

func (m *memTokens) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = "", ""
	m.cleared = true
	return nil
}

func newClient(baseURL string, tokens gateway.TokenSource) *gateway.Client {
	log := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
	return gateway.NewClient(gateway.Config{
		BaseURL:        baseURL,
		RequestTimeout: 5 * time.Second,
	}, tokens, log)
}

var _ = Describe("Client", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("the refresh-and-retry path", func() {
		var (
			backend *apitest.Server
			server  *httptest.Server
			tokens  *memTokens
			client  *gateway.Client
		)

		BeforeEach(func() {
			backend = apitest.NewServer()
			backend.AddUser("user@crm.io", "secret", "employee")
			backend.SeedCollection("leads", []map[string]interface{}{
				{"id": 1, "name": "Alpha", "phone": "9876543210"},
			})
			server = httptest.NewServer(backend)

			access, refresh := backend.IssueTokens("user@crm.io", -time.Minute)
			tokens = &memTokens{access: access, refresh: refresh}
			client = newClient(server.URL, tokens)
		})

		AfterEach(func() {
			server.Close()
		})

		It("should deliver the payload with no visible error after a 401", func() {
			raw, err := client.Do(ctx, http.MethodGet, "/leads/", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(raw).NotTo(BeNil())

			records, err := gateway.DecodeList(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))

			Expect(backend.RefreshCalls()).To(Equal(1))
			Expect(backend.ListCalls("leads")).To(Equal(2))
		})

		It("should swap in the new access token for later requests", func() {
			before := tokens.AccessToken()
			_, err := client.Do(ctx, http.MethodGet, "/leads/", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken()).NotTo(Equal(before))

			_, err = client.Do(ctx, http.MethodGet, "/leads/", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(backend.RefreshCalls()).To(Equal(1))
		})

		It("should keep the old refresh token when the backend does not rotate it", func() {
			before := tokens.RefreshToken()
			_, err := client.Do(ctx, http.MethodGet, "/leads/", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.RefreshToken()).To(Equal(before))
		})

		It("should tear down the session when the refresh itself fails", func() {
			backend.RejectRefresh = true

			failures := 0
			client.SetAuthFailureHandler(func() { failures++ })

			_, err := client.Do(ctx, http.MethodGet, "/leads/", nil)
			Expect(gateway.StatusOf(err)).To(Equal(http.StatusUnauthorized))
			Expect(failures).To(Equal(1))
		})
	})

	Describe("retry discipline", func() {
		It("should retry exactly once even when the retry 401s again", func() {
			var listCalls, refreshCalls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/auth/token/refresh/" {
					atomic.AddInt32(&refreshCalls, 1)
					w.Header().Set("Content-Type", "application/json")
					w.Write([]byte(`{"access":"still-bad"}`))
					return
				}
				atomic.AddInt32(&listCalls, 1)
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			tokens := &memTokens{access: "old", refresh: "valid"}
			client := newClient(server.URL, tokens)

			_, err := client.Do(ctx, http.MethodGet, "/leads/", nil)
			Expect(gateway.StatusOf(err)).To(Equal(http.StatusUnauthorized))
			Expect(atomic.LoadInt32(&listCalls)).To(Equal(int32(2)))
			Expect(atomic.LoadInt32(&refreshCalls)).To(Equal(int32(1)))
		})

		It("should share one refresh across concurrent 401s", func() {
			var refreshCalls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/auth/token/refresh/" {
					atomic.AddInt32(&refreshCalls, 1)
					time.Sleep(50 * time.Millisecond)
					w.Header().Set("Content-Type", "application/json")
					w.Write([]byte(`{"access":"fresh"}`))
					return
				}
				if r.Header.Get("Authorization") != "Bearer fresh" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`[]`))
			}))
			defer server.Close()

			tokens := &memTokens{access: "stale", refresh: "valid"}
			client := newClient(server.URL, tokens)

			var wg sync.WaitGroup
			errs := make([]error, 5)
			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = client.Do(ctx, http.MethodGet, "/leads/", nil)
				}(i)
			}
			wg.Wait()

			for _, err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(atomic.LoadInt32(&refreshCalls)).To(Equal(int32(1)))
		})
	})

	Describe("response decoding", func() {
		newServer := func(status int, body string) *httptest.Server {
			return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if body != "" {
					w.Header().Set("Content-Type", "application/json")
				}
				w.WriteHeader(status)
				w.Write([]byte(body))
			}))
		}

		It("should return nil for a 204", func() {
			server := newServer(http.StatusNoContent, "")
			defer server.Close()

			raw, err := newClient(server.URL, &memTokens{access: "t"}).Do(ctx, http.MethodDelete, "/leads/1/", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(raw).To(BeNil())
		})

		It("should return nil for a 2xx with an unparsable body", func() {
			server := newServer(http.StatusOK, "<html>not json</html>")
			defer server.Close()

			raw, err := newClient(server.URL, &memTokens{access: "t"}).Do(ctx, http.MethodGet, "/leads/", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(raw).To(BeNil())
		})

		It("should flatten Django field errors into the error details", func() {
			server := newServer(http.StatusBadRequest, `{"phone":["this field is required"]}`)
			defer server.Close()

			_, err := newClient(server.URL, &memTokens{access: "t"}).Do(ctx, http.MethodPost, "/leads/", map[string]string{})
			Expect(err).To(HaveOccurred())

			httpErr, ok := err.(*gateway.HTTPError)
			Expect(ok).To(BeTrue())
			Expect(httpErr.Status).To(Equal(http.StatusBadRequest))
			Expect(httpErr.Details).To(ContainSubstring("phone: this field is required"))
			Expect(httpErr.Fields).To(HaveKey("phone"))
		})
	})
})

var _ = Describe("DecodeList", func() {
	It("should pass a bare array through", func() {
		records, err := gateway.DecodeList(json.RawMessage(`[{"id":1},{"id":2}]`))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))
	})

	It("should unwrap the paginated envelope", func() {
		records, err := gateway.DecodeList(json.RawMessage(`{"count":2,"results":[{"id":1},{"id":2}]}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))
	})

	It("should treat an empty body as an empty list", func() {
		records, err := gateway.DecodeList(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(BeEmpty())
	})

	It("should treat an envelope without results as empty", func() {
		records, err := gateway.DecodeList(json.RawMessage(`{"count":0}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(BeEmpty())
	})

	It("should reject scalars", func() {
		_, err := gateway.DecodeList(json.RawMessage(`42`))
		Expect(err).To(HaveOccurred())
	})

	It("should yield records that unmarshal into typed DTOs", func() {
		raw := json.RawMessage(`{"count":1,"results":[{"id":7,"user":3,"user_name":"Jane","action":"create","module":"leads","details":"Lead Alpha","created_at":"2025-06-01T10:00:00Z"}]}`)
		records, err := gateway.DecodeList(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))

		var dto datamodel.ActivityLogDTO
		Expect(json.Unmarshal(records[0], &dto)).To(Succeed())
		entry := dto.ToActivityLog()
		Expect(entry.UserName).To(Equal("Jane"))
		Expect(entry.Module).To(Equal("leads"))
		Expect(entry.ID.String()).To(Equal("7"))
	})
})
