package events_test

import (
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ardiansyahn/crm-backoffice/internal/core/events"
)

var _ = Describe("Bus", func() {
	var bus *events.Bus

	BeforeEach(func() {
		bus = events.NewBus(slog.New(slog.NewTextHandler(GinkgoWriter, nil)))
	})

	It("should deliver events to subscribers in registration order", func() {
		var order []string
		bus.Subscribe(events.TypeDataRefreshed, func(context.Context, events.Event) {
			order = append(order, "first")
		})
		bus.Subscribe(events.TypeDataRefreshed, func(context.Context, events.Event) {
			order = append(order, "second")
		})

		bus.Publish(context.Background(), events.New(events.TypeDataRefreshed, "done", nil))
		Expect(order).To(Equal([]string{"first", "second"}))
	})

	It("should not deliver events of other types", func() {
		delivered := false
		bus.Subscribe(events.TypeRefreshFailed, func(context.Context, events.Event) {
			delivered = true
		})

		bus.Publish(context.Background(), events.New(events.TypeDataRefreshed, "done", nil))
		Expect(delivered).To(BeFalse())
	})

	It("should contain a panicking handler", func() {
		reached := false
		bus.Subscribe(events.TypeSessionExpired, func(context.Context, events.Event) {
			panic("broken sink")
		})
		bus.Subscribe(events.TypeSessionExpired, func(context.Context, events.Event) {
			reached = true
		})

		Expect(func() {
			bus.Publish(context.Background(), events.New(events.TypeSessionExpired, "expired", nil))
		}).NotTo(Panic())
		Expect(reached).To(BeTrue())
	})

	It("should stamp new events with an id and timestamp", func() {
		event := events.New(events.TypeDataRefreshed, "done", map[string]interface{}{"count": 3})
		Expect(event.ID).NotTo(BeEmpty())
		Expect(event.Timestamp).NotTo(BeZero())
		Expect(event.Fields).To(HaveKeyWithValue("count", 3))
	})
})
