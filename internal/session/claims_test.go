package session_test

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ardiansyahn/crm-backoffice/internal/session"
)

func mintToken(userID string, expiresAt time.Time) string {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-secret"))
	Expect(err).NotTo(HaveOccurred())
	return signed
}

var _ = Describe("ParseAccessClaims", func() {
	It("should read claims without verifying the signature", func() {
		token := mintToken("42", time.Now().Add(time.Hour))

		claims, err := session.ParseAccessClaims(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.UserID).To(Equal("42"))
	})

	It("should reject strings that are not tokens", func() {
		_, err := session.ParseAccessClaims("not-a-token")
		Expect(err).To(HaveOccurred())
	})

	Describe("ExpiresIn", func() {
		It("should report the remaining validity", func() {
			claims, err := session.ParseAccessClaims(mintToken("42", time.Now().Add(time.Hour)))
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.ExpiresIn(time.Now())).To(BeNumerically(">", 55*time.Minute))
		})

		It("should report zero for an expired token", func() {
			claims, err := session.ParseAccessClaims(mintToken("42", time.Now().Add(-time.Hour)))
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.ExpiresIn(time.Now())).To(BeZero())
		})
	})
})
