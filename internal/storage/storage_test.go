package storage_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ardiansyahn/crm-backoffice/internal/storage"
)

var _ = Describe("Store", func() {
	var store *storage.Store

	BeforeEach(func() {
		var err error
		store, err = storage.Open(filepath.Join(GinkgoT().TempDir(), "state.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	Describe("tokens", func() {
		It("should return empty strings before anything is saved", func() {
			access, refresh, err := store.LoadTokens()
			Expect(err).NotTo(HaveOccurred())
			Expect(access).To(BeEmpty())
			Expect(refresh).To(BeEmpty())
		})

		It("should round-trip the pair", func() {
			Expect(store.SaveTokens("acc-1", "ref-1")).To(Succeed())

			access, refresh, err := store.LoadTokens()
			Expect(err).NotTo(HaveOccurred())
			Expect(access).To(Equal("acc-1"))
			Expect(refresh).To(Equal("ref-1"))
		})

		It("should overwrite on subsequent saves", func() {
			Expect(store.SaveTokens("acc-1", "ref-1")).To(Succeed())
			Expect(store.SaveTokens("acc-2", "ref-2")).To(Succeed())

			access, refresh, err := store.LoadTokens()
			Expect(err).NotTo(HaveOccurred())
			Expect(access).To(Equal("acc-2"))
			Expect(refresh).To(Equal("ref-2"))
		})

		It("should clear both tokens together", func() {
			Expect(store.SaveTokens("acc-1", "ref-1")).To(Succeed())
			Expect(store.ClearTokens()).To(Succeed())

			access, refresh, err := store.LoadTokens()
			Expect(err).NotTo(HaveOccurred())
			Expect(access).To(BeEmpty())
			Expect(refresh).To(BeEmpty())
		})
	})

	Describe("collections", func() {
		It("should return a nil payload for a missing collection", func() {
			payload, _, err := store.LoadCollection("leads")
			Expect(err).NotTo(HaveOccurred())
			Expect(payload).To(BeNil())
		})

		It("should round-trip a payload and stamp the write time", func() {
			Expect(store.SaveCollection("leads", []byte(`[{"id":"1"}]`))).To(Succeed())

			payload, updatedAt, err := store.LoadCollection("leads")
			Expect(err).NotTo(HaveOccurred())
			Expect(payload).To(Equal([]byte(`[{"id":"1"}]`)))
			Expect(updatedAt).NotTo(BeZero())
		})

		It("should clear every collection at once", func() {
			Expect(store.SaveCollection("leads", []byte(`[]`))).To(Succeed())
			Expect(store.SaveCollection("tasks", []byte(`[]`))).To(Succeed())
			Expect(store.ClearCollections()).To(Succeed())

			payload, _, err := store.LoadCollection("leads")
			Expect(err).NotTo(HaveOccurred())
			Expect(payload).To(BeNil())
		})
	})
})
