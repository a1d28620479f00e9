package datacache

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ardiansyahn/crm-backoffice/internal"
	"github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"
	"github.com/ardiansyahn/crm-backoffice/internal/core/events"
	"github.com/ardiansyahn/crm-backoffice/internal/gateway"
)

// API is the slice of the gateway the cache needs.
type API interface {
	Do(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error)
}

// Persister is the optional local persistence behind the cache. A nil
// persister turns the cache memory-only.
type Persister interface {
	SaveCollection(name string, payload []byte) error
	LoadCollection(name string) ([]byte, time.Time, error)
	ClearCollections() error
}

// Cache holds the normalized snapshot of all backend collections.
// Refreshes are all-or-nothing: the snapshot is replaced only when every
// collection fetched, so a flaky endpoint can never leave readers with a
// half-updated view. Concurrent refreshes coalesce into one fetch cycle.
type Cache struct {
	mu       sync.RWMutex
	snapshot Snapshot

	api    API
	store  Persister
	bus    *events.Bus
	logger *slog.Logger
	group  singleflight.Group
}

func New(api API, store Persister, bus *events.Bus, logger *slog.Logger) *Cache {
	return &Cache{
		api:    api,
		store:  store,
		bus:    bus,
		logger: logger,
	}
}

// Refresh fetches every collection and swaps the snapshot in atomically.
// verbose controls whether progress is logged at info level; background
// refreshes pass false to stay quiet. Callers arriving while a refresh is
// in flight share its outcome instead of starting another cycle.
func (c *Cache) Refresh(ctx context.Context, verbose bool) error {
	_, err, shared := c.group.Do("refresh", func() (interface{}, error) {
		return nil, c.refresh(ctx, verbose)
	})
	if shared {
		c.logger.Debug("refresh coalesced with in-flight cycle")
	}
	return err
}

func (c *Cache) refresh(ctx context.Context, verbose bool) error {
	if verbose {
		c.logger.Info("refreshing collections")
	}
	started := time.Now()

	var next Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return fetchInto(gctx, c.api, "/leads/", &next.Leads, datamodel.LeadDTO.ToLead)
	})
	g.Go(func() error {
		return fetchInto(gctx, c.api, "/tasks/", &next.Tasks, datamodel.TaskDTO.ToTask)
	})
	g.Go(func() error {
		return fetchInto(gctx, c.api, "/projects/", &next.Projects, datamodel.ProjectDTO.ToProject)
	})
	g.Go(func() error {
		return fetchInto(gctx, c.api, "/announcements/", &next.Announcements, datamodel.AnnouncementDTO.ToAnnouncement)
	})
	g.Go(func() error {
		return fetchInto(gctx, c.api, "/leaves/", &next.Leaves, datamodel.LeaveDTO.ToLeave)
	})
	g.Go(func() error {
		return fetchInto(gctx, c.api, "/holidays/", &next.Holidays, datamodel.HolidayDTO.ToHoliday)
	})
	g.Go(func() error {
		return fetchInto(gctx, c.api, "/customers/", &next.Customers, datamodel.CustomerDTO.ToCustomer)
	})

	if err := g.Wait(); err != nil {
		c.logger.Warn("refresh failed, keeping previous snapshot", "error", err)
		c.bus.Publish(ctx, events.New(events.TypeRefreshFailed, "data refresh failed", map[string]interface{}{
			"error": err.Error(),
		}))
		if gateway.StatusOf(err) == http.StatusUnauthorized {
			return internal.ErrRefreshFailed.WithCause(err)
		}
		return (&internal.AppError{
			Type:       internal.ErrorTypeExternal,
			Code:       internal.ErrCodePartialRefresh,
			Message:    "could not refresh all collections",
			StatusCode: gateway.StatusOf(err),
		}).WithCause(err)
	}

	next.LastUpdated = time.Now()

	c.mu.Lock()
	c.snapshot = next
	c.mu.Unlock()

	c.persist(next)

	c.logger.Info("collections refreshed",
		"duration", time.Since(started).Round(time.Millisecond),
		"counts", next.Counts())
	c.bus.Publish(ctx, events.New(events.TypeDataRefreshed, "data refreshed", nil))
	return nil
}

// fetchInto pulls one collection, normalizes the list shape, and maps
// every record through its DTO conversion.
func fetchInto[D, R any](ctx context.Context, api API, path string, dst *[]R, convert func(D) R) error {
	raw, err := api.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	records, err := gateway.DecodeList(raw)
	if err != nil {
		return internal.NewInternalError("unexpected response for "+path, err)
	}

	out := make([]R, 0, len(records))
	for _, record := range records {
		var dto D
		if err := json.Unmarshal(record, &dto); err != nil {
			return internal.NewInternalError("unreadable record in "+path, err)
		}
		out = append(out, convert(dto))
	}
	*dst = out
	return nil
}

// Snapshot returns a copy of the current snapshot.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.clone()
}

func (c *Cache) LastUpdated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.LastUpdated
}

func (c *Cache) Leads() []datamodel.Lead {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]datamodel.Lead(nil), c.snapshot.Leads...)
}

func (c *Cache) Tasks() []datamodel.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]datamodel.Task(nil), c.snapshot.Tasks...)
}

func (c *Cache) Projects() []datamodel.Project {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]datamodel.Project(nil), c.snapshot.Projects...)
}

func (c *Cache) Announcements() []datamodel.Announcement {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]datamodel.Announcement(nil), c.snapshot.Announcements...)
}

func (c *Cache) Leaves() []datamodel.Leave {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]datamodel.Leave(nil), c.snapshot.Leaves...)
}

func (c *Cache) Holidays() []datamodel.Holiday {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]datamodel.Holiday(nil), c.snapshot.Holidays...)
}

func (c *Cache) Customers() []datamodel.Customer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]datamodel.Customer(nil), c.snapshot.Customers...)
}

// Clear drops the snapshot and the persisted copy. Wired as a logout
// hook so one user's data never leaks into the next session.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.snapshot = Snapshot{}
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.ClearCollections(); err != nil {
			c.logger.Error("failed to clear persisted collections", "error", err)
		}
	}
}

// LoadPersisted restores the last synced snapshot from local storage so
// list commands work before the first refresh. Missing or unreadable
// blobs leave the matching collection empty.
func (c *Cache) LoadPersisted() error {
	if c.store == nil {
		return nil
	}

	var restored Snapshot
	var latest time.Time
	load := func(name string, dst interface{}) error {
		payload, updatedAt, err := c.store.LoadCollection(name)
		if err != nil {
			return err
		}
		if payload == nil {
			return nil
		}
		if err := json.Unmarshal(payload, dst); err != nil {
			c.logger.Warn("discarding unreadable persisted collection", "collection", name, "error", err)
			return nil
		}
		if updatedAt.After(latest) {
			latest = updatedAt
		}
		return nil
	}

	for name, dst := range map[string]interface{}{
		"leads":         &restored.Leads,
		"tasks":         &restored.Tasks,
		"projects":      &restored.Projects,
		"announcements": &restored.Announcements,
		"leaves":        &restored.Leaves,
		"holidays":      &restored.Holidays,
		"customers":     &restored.Customers,
	} {
		if err := load(name, dst); err != nil {
			return err
		}
	}
	restored.LastUpdated = latest

	c.mu.Lock()
	c.snapshot = restored
	c.mu.Unlock()
	return nil
}

func (c *Cache) persist(snap Snapshot) {
	if c.store == nil {
		return
	}

	for name, value := range map[string]interface{}{
		"leads":         snap.Leads,
		"tasks":         snap.Tasks,
		"projects":      snap.Projects,
		"announcements": snap.Announcements,
		"leaves":        snap.Leaves,
		"holidays":      snap.Holidays,
		"customers":     snap.Customers,
	} {
		payload, err := json.Marshal(value)
		if err != nil {
			c.logger.Error("failed to serialize collection", "collection", name, "error", err)
			continue
		}
		if err := c.store.SaveCollection(name, payload); err != nil {
			c.logger.Error("failed to persist collection", "collection", name, "error", err)
		}
	}
}
