package datacache_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ardiansyahn/crm-backoffice/internal"
	"github.com/ardiansyahn/crm-backoffice/internal/apitest"
	"github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"
	"github.com/ardiansyahn/crm-backoffice/internal/core/events"
	"github.com/ardiansyahn/crm-backoffice/internal/datacache"
	"github.com/ardiansyahn/crm-backoffice/internal/gateway"
)

type memTokens struct {
	mu      sync.Mutex
	access  string
	refresh string
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
	return nil
}

var _ = Describe("Cache", func() {
	var (
		backend *apitest.Server
		server  *httptest.Server
		cache   *datacache.Cache
		bus     *events.Bus
		ctx     context.Context
	)

	seedAll := func() {
		backend.SeedCollection("leads", []map[string]interface{}{
			{"id": 1, "name": "Alpha", "phone": "9876543210", "status": "new"},
			{"id": 2, "name": "Beta", "phone": "9123456789", "status": "contacted"},
		})
		backend.SeedCollection("tasks", []map[string]interface{}{
			{"id": 3, "title": "Call back", "status": "in_progress"},
		})
		backend.SeedCollection("projects", []map[string]interface{}{
			{"id": 4, "name": "Skyline Towers", "status": "active"},
		})
		backend.SeedCollection("announcements", []map[string]interface{}{})
		backend.SeedCollection("leaves", []map[string]interface{}{})
		backend.SeedCollection("holidays", []map[string]interface{}{})
		backend.SeedCollection("customers", []map[string]interface{}{})
	}

	BeforeEach(func() {
		ctx = context.Background()
		backend = apitest.NewServer()
		backend.AddUser("user@crm.io", "secret", "admin")
		seedAll()
		server = httptest.NewServer(backend)

		access, refresh := backend.IssueTokens("user@crm.io", time.Hour)
		log := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		client := gateway.NewClient(gateway.Config{
			BaseURL:        server.URL,
			RequestTimeout: 5 * time.Second,
		}, &memTokens{access: access, refresh: refresh}, log)

		bus = events.NewBus(log)
		cache = datacache.New(client, nil, bus, log)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Refresh", func() {
		It("should populate every collection", func() {
			Expect(cache.Refresh(ctx, false)).To(Succeed())

			snap := cache.Snapshot()
			Expect(snap.Leads).To(HaveLen(2))
			Expect(snap.Tasks).To(HaveLen(1))
			Expect(snap.Projects).To(HaveLen(1))
			Expect(snap.LastUpdated).NotTo(BeZero())
		})

		It("should normalize record shapes into canonical types", func() {
			Expect(cache.Refresh(ctx, false)).To(Succeed())

			leads := cache.Leads()
			Expect(leads[0].ID).To(Equal(datamodel.ID("1")))
			Expect(leads[0].Status).To(Equal(datamodel.LeadStatusNew))
		})

		It("should accept bare list responses as well", func() {
			backend.Paginate = false
			Expect(cache.Refresh(ctx, false)).To(Succeed())
			Expect(cache.Leads()).To(HaveLen(2))
		})

		It("should publish a refreshed event", func() {
			var got []events.Event
			bus.Subscribe(events.TypeDataRefreshed, func(_ context.Context, e events.Event) {
				got = append(got, e)
			})

			Expect(cache.Refresh(ctx, false)).To(Succeed())
			Expect(got).To(HaveLen(1))
		})
	})

	Describe("partial failure", func() {
		It("should keep the previous snapshot untouched", func() {
			Expect(cache.Refresh(ctx, false)).To(Succeed())
			first := cache.Snapshot()

			backend.SeedCollection("leads", []map[string]interface{}{
				{"id": 9, "name": "Gamma", "phone": "9000000000"},
			})
			backend.FailNextList("tasks", 1)

			err := cache.Refresh(ctx, false)
			Expect(err).To(HaveOccurred())

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodePartialRefresh))

			after := cache.Snapshot()
			Expect(after.Leads).To(Equal(first.Leads))
			Expect(after.LastUpdated).To(Equal(first.LastUpdated))
		})

		It("should publish a refresh-failed event instead of refreshed", func() {
			var failed, refreshed int
			bus.Subscribe(events.TypeRefreshFailed, func(_ context.Context, _ events.Event) { failed++ })
			bus.Subscribe(events.TypeDataRefreshed, func(_ context.Context, _ events.Event) { refreshed++ })

			backend.FailNextList("projects", 1)
			Expect(cache.Refresh(ctx, false)).NotTo(Succeed())
			Expect(failed).To(Equal(1))
			Expect(refreshed).To(BeZero())
		})

		It("should recover on the next clean cycle", func() {
			backend.FailNextList("tasks", 1)
			Expect(cache.Refresh(ctx, false)).NotTo(Succeed())

			Expect(cache.Refresh(ctx, false)).To(Succeed())
			Expect(cache.Leads()).To(HaveLen(2))
		})
	})

	Describe("coalescing", func() {
		It("should collapse rapid concurrent refreshes into one fetch cycle", func() {
			var wg sync.WaitGroup
			errs := make([]error, 4)
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs[i] = cache.Refresh(ctx, false)
				}(i)
			}
			wg.Wait()

			for _, err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(backend.ListCalls("leads")).To(Equal(1))
			Expect(backend.ListCalls("tasks")).To(Equal(1))
		})
	})

	Describe("Clear", func() {
		It("should drop the snapshot", func() {
			Expect(cache.Refresh(ctx, false)).To(Succeed())
			cache.Clear()

			snap := cache.Snapshot()
			Expect(snap.Leads).To(BeEmpty())
			Expect(snap.LastUpdated).To(BeZero())
		})
	})
})

// memPersister fakes the sqlite-backed store.
type memPersister struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	failLoad error
}

func newMemPersister() *memPersister {
	return &memPersister{blobs: make(map[string][]byte)}
}

func (m *memPersister) SaveCollection(name string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = payload
	return nil
}

func (m *memPersister) LoadCollection(name string) ([]byte, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLoad != nil {
		return nil, time.Time{}, m.failLoad
	}
	payload, ok := m.blobs[name]
	if !ok {
		return nil, time.Time{}, nil
	}
	return payload, time.Now(), nil
}

func (m *memPersister) ClearCollections() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs = make(map[string][]byte)
	return nil
}

func (m *memPersister) seed(name string, records interface{}) {
	payload, err := json.Marshal(records)
	Expect(err).NotTo(HaveOccurred())
	Expect(m.SaveCollection(name, payload)).To(Succeed())
}

func (m *memPersister) seedRaw(name string, payload []byte) {
	Expect(m.SaveCollection(name, payload)).To(Succeed())
}

var _ = Describe("Cache persistence", func() {
	var p *memPersister

	BeforeEach(func() {
		p = newMemPersister()
	})

	It("should persist collections after a successful refresh", func() {
		backend := apitest.NewServer()
		backend.AddUser("user@crm.io", "secret", "admin")
		backend.SeedCollection("leads", []map[string]interface{}{
			{"id": 1, "name": "Alpha", "phone": "9876543210"},
		})
		server := httptest.NewServer(backend)
		defer server.Close()

		access, refresh := backend.IssueTokens("user@crm.io", time.Hour)
		log := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		client := gateway.NewClient(gateway.Config{
			BaseURL:        server.URL,
			RequestTimeout: 5 * time.Second,
		}, &memTokens{access: access, refresh: refresh}, log)

		cache := datacache.New(client, p, events.NewBus(log), log)
		Expect(cache.Refresh(context.Background(), false)).To(Succeed())

		restored := datacache.New(nil, p, events.NewBus(log), log)
		Expect(restored.LoadPersisted()).To(Succeed())
		Expect(restored.Leads()).To(HaveLen(1))
	})

	It("should restore the persisted snapshot for offline reads", func() {
		log := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		cache := datacache.New(nil, p, events.NewBus(log), log)

		leads := []datamodel.Lead{{ID: "1", Name: "Alpha", Phone: "9876543210"}}
		p.seed("leads", leads)

		Expect(cache.LoadPersisted()).To(Succeed())
		Expect(cache.Leads()).To(HaveLen(1))
		Expect(cache.Leads()[0].Name).To(Equal("Alpha"))
	})

	It("should skip unreadable persisted blobs without failing", func() {
		log := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		cache := datacache.New(nil, p, events.NewBus(log), log)

		p.seedRaw("leads", []byte("not json"))

		Expect(cache.LoadPersisted()).To(Succeed())
		Expect(cache.Leads()).To(BeEmpty())
	})

	It("should propagate storage read errors", func() {
		log := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		cache := datacache.New(nil, p, events.NewBus(log), log)

		p.failLoad = errors.New("disk gone")
		Expect(cache.LoadPersisted()).NotTo(Succeed())
	})
})
