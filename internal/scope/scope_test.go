package scope_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"
	"github.com/ardiansyahn/crm-backoffice/internal/scope"
	"github.com/ardiansyahn/crm-backoffice/internal/session"
)

var _ = Describe("MaskPhone", func() {
	It("should keep the last four characters and star the rest", func() {
		Expect(scope.MaskPhone("1234567890")).To(Equal("******7890"))
		Expect(scope.MaskPhone("9876543210")).To(Equal("******3210"))
	})

	It("should preserve the input length", func() {
		for _, phone := range []string{"1234", "12345", "+919876543210"} {
			Expect(scope.MaskPhone(phone)).To(HaveLen(len(phone)))
		}
	})

	It("should fully mask values shorter than four characters", func() {
		Expect(scope.MaskPhone("123")).To(Equal("****"))
		Expect(scope.MaskPhone("1")).To(Equal("****"))
	})

	It("should collapse the empty string to the placeholder", func() {
		Expect(scope.MaskPhone("")).To(Equal("****"))
	})

	It("should never leak characters before the last four", func() {
		masked := scope.MaskPhone("9876543210")
		Expect(strings.Count(masked, "*")).To(Equal(6))
		Expect(masked[len(masked)-4:]).To(Equal("3210"))
	})
})

var _ = Describe("MaskEmail", func() {
	It("should keep the first two characters and the domain", func() {
		Expect(scope.MaskEmail("jane.smith@example.com")).To(Equal("ja***@example.com"))
	})

	It("should keep short local parts intact before the stars", func() {
		Expect(scope.MaskEmail("jo@example.com")).To(Equal("jo***@example.com"))
	})

	It("should pass through values without an @", func() {
		Expect(scope.MaskEmail("not-an-email")).To(Equal("not-an-email"))
	})
})

var _ = Describe("VisibleLeads", func() {
	var leads []datamodel.Lead

	BeforeEach(func() {
		leads = []datamodel.Lead{
			{ID: "1", Name: "Alpha", Phone: "9876543210", CreatedBy: "10", AssignedTo: "10"},
			{ID: "2", Name: "Beta", Phone: "9123456789", CreatedBy: "20", AssignedTo: "30"},
		}
	})

	Context("for an admin", func() {
		It("should return every lead unmasked", func() {
			sess := session.Session{UserID: "1", Role: datamodel.RoleAdmin}
			visible := scope.VisibleLeads(sess, leads, nil)
			Expect(visible).To(HaveLen(2))
			Expect(visible[0].Phone).To(Equal("9876543210"))
		})
	})

	Context("for a manager", func() {
		It("should mask every phone number", func() {
			sess := session.Session{UserID: "5", Role: datamodel.RoleManager}
			visible := scope.VisibleLeads(sess, leads, nil)
			Expect(visible).To(HaveLen(2))
			Expect(visible[0].Phone).To(Equal("******3210"))
			Expect(visible[1].Phone).To(Equal("******6789"))
		})

		It("should not double-mask when re-filtering its own output", func() {
			sess := session.Session{UserID: "5", Role: datamodel.RoleManager}
			once := scope.VisibleLeads(sess, leads, nil)
			twice := scope.VisibleLeads(sess, once, nil)
			Expect(twice).To(Equal(once))
		})

		It("should honor the team policy", func() {
			sess := session.Session{UserID: "5", Role: datamodel.RoleManager}
			visible := scope.VisibleLeads(sess, leads, scope.TeamOf("10"))
			Expect(visible).To(HaveLen(1))
			Expect(visible[0].ID).To(Equal(datamodel.ID("1")))
		})
	})

	Context("for an employee", func() {
		It("should only show own records, unmasked", func() {
			sess := session.Session{UserID: "10", Role: datamodel.RoleEmployee}
			visible := scope.VisibleLeads(sess, leads, nil)
			Expect(visible).To(HaveLen(1))
			Expect(visible[0].Phone).To(Equal("9876543210"))
		})

		It("should include records assigned to the employee", func() {
			sess := session.Session{UserID: "30", Role: datamodel.RoleEmployee}
			visible := scope.VisibleLeads(sess, leads, nil)
			Expect(visible).To(HaveLen(1))
			Expect(visible[0].ID).To(Equal(datamodel.ID("2")))
		})
	})

	Context("for an unknown role", func() {
		It("should show nothing", func() {
			sess := session.Session{UserID: "1", Role: datamodel.Role("intern")}
			Expect(scope.VisibleLeads(sess, leads, nil)).To(BeEmpty())
		})
	})

	It("should never mutate the input slice", func() {
		sess := session.Session{UserID: "5", Role: datamodel.RoleManager}
		scope.VisibleLeads(sess, leads, nil)
		Expect(leads[0].Phone).To(Equal("9876543210"))
	})

	It("should be idempotent per session", func() {
		for _, role := range []datamodel.Role{datamodel.RoleAdmin, datamodel.RoleManager, datamodel.RoleEmployee} {
			sess := session.Session{UserID: "10", Role: role}
			first := scope.VisibleLeads(sess, leads, nil)
			second := scope.VisibleLeads(sess, leads, nil)
			Expect(second).To(Equal(first))
		}
	})
})

var _ = Describe("VisibleTasks", func() {
	tasks := []datamodel.Task{
		{ID: "1", LeadName: "Alpha", LeadPhone: "9876543210", AssignedTo: "10"},
		{ID: "2", LeadName: "Beta", LeadPhone: "9123456789", AssignedTo: "20"},
	}

	It("should mask the embedded lead phone for managers", func() {
		sess := session.Session{UserID: "5", Role: datamodel.RoleManager}
		visible := scope.VisibleTasks(sess, tasks, nil)
		Expect(visible[0].LeadPhone).To(Equal("******3210"))
	})

	It("should restrict employees to their assignments", func() {
		sess := session.Session{UserID: "20", Role: datamodel.RoleEmployee}
		visible := scope.VisibleTasks(sess, tasks, nil)
		Expect(visible).To(HaveLen(1))
		Expect(visible[0].LeadPhone).To(Equal("9123456789"))
	})
})

var _ = Describe("VisibleCustomers", func() {
	customers := []datamodel.Customer{
		{ID: "1", Name: "Acme", Phone: "9876543210", CreatedBy: "10"},
		{ID: "2", Name: "Globex", Phone: "9123456789", CreatedBy: "20", AssignedTo: "10"},
	}

	It("should keep raw phones on every customer the employee sees", func() {
		sess := session.Session{UserID: "10", Role: datamodel.RoleEmployee}
		visible := scope.VisibleCustomers(sess, customers, nil)
		Expect(visible).To(HaveLen(2))
		Expect(visible[0].Phone).To(Equal("9876543210"))
		Expect(visible[1].Phone).To(Equal("9123456789"))
	})

	It("should unmask only the customers the manager created", func() {
		sess := session.Session{UserID: "20", Role: datamodel.RoleManager}
		visible := scope.VisibleCustomers(sess, customers, nil)
		Expect(visible).To(HaveLen(2))
		Expect(visible[0].Phone).To(Equal("******3210"))
		Expect(visible[1].Phone).To(Equal("9123456789"))
	})

	It("should mask everything for a manager who created none of them", func() {
		sess := session.Session{UserID: "5", Role: datamodel.RoleManager}
		for _, customer := range scope.VisibleCustomers(sess, customers, nil) {
			Expect(customer.Phone).To(HavePrefix("******"))
		}
	})
})

var _ = Describe("CanViewCustomerPhone", func() {
	It("should always allow admins", func() {
		sess := session.Session{UserID: "1", Role: datamodel.RoleAdmin}
		Expect(scope.CanViewCustomerPhone(sess, "99")).To(BeTrue())
	})

	It("should always allow employees", func() {
		sess := session.Session{UserID: "10", Role: datamodel.RoleEmployee}
		Expect(scope.CanViewCustomerPhone(sess, "10")).To(BeTrue())
		Expect(scope.CanViewCustomerPhone(sess, "20")).To(BeTrue())
	})

	It("should allow managers only on customers they created", func() {
		sess := session.Session{UserID: "5", Role: datamodel.RoleManager}
		Expect(scope.CanViewCustomerPhone(sess, "5")).To(BeTrue())
		Expect(scope.CanViewCustomerPhone(sess, "20")).To(BeFalse())
	})

	It("should deny unknown roles", func() {
		sess := session.Session{UserID: "1", Role: datamodel.Role("intern")}
		Expect(scope.CanViewCustomerPhone(sess, "1")).To(BeFalse())
	})
})
