//go:build unit

package properties_test

import (
	"github.com/animalet/cascade-go/pkg/properties"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AllProperties", func() {
	var m *properties.Manager

	BeforeEach(func() {
		m = newFixture(map[string]string{
			properties.DefaultBaseFile: `
app.name=Default
DEV.app.name=Widget
PROD.app.url=https://{app.name}.example.com
greeting=hello {app.name}
`,
		}).withEnvironment("DEV").build()
	})

	It("should resolve every key as seen from the requested environment", func() {
		dev, err := m.AllProperties("dev")
		Expect(err).NotTo(HaveOccurred())
		Expect(dev).To(HaveKeyWithValue("app.name", "Widget"))
		Expect(dev).To(HaveKeyWithValue("greeting", "hello Widget"))
		Expect(dev).To(HaveKeyWithValue("PROD.app.url", "https://Widget.example.com"))
		Expect(dev).NotTo(HaveKey("DEV.app.name"))

		prod, err := m.AllProperties("PROD")
		Expect(err).NotTo(HaveOccurred())
		Expect(prod).To(HaveKeyWithValue("app.name", "Default"))
		Expect(prod).To(HaveKeyWithValue("app.url", "https://Default.example.com"))
		Expect(prod).To(HaveKeyWithValue("greeting", "hello Default"))
	})

	It("should leave the default environment alone", func() {
		_, err := m.AllProperties("PROD")
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Environment()).To(Equal("DEV"))
		Expect(m.SearchEnvironments()).To(Equal([]string{"DEV", ""}))
		Expect(m.Get("app", "name", "")).To(Equal("Widget"))
	})

	It("should reject invalid environments", func() {
		_, err := m.AllProperties("not valid")
		Expect(err).To(HaveOccurred())
	})
})
