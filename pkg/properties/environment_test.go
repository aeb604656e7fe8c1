//go:build unit

package properties_test

import (
	"github.com/animalet/cascade-go/pkg/properties"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Environment", func() {
	var files map[string]string

	BeforeEach(func() {
		files = map[string]string{
			properties.DefaultEnvironmentFile: "environment=dev\n",
			properties.DefaultBaseFile:        "app.name=Default\n",
		}
	})

	Context("Resolution precedence", func() {
		It("should prefer the system property", func() {
			f := newFixture(files)
			f.sysProp[properties.EnvironmentProperty] = "qa"
			f.environ = []string{properties.EnvironmentVariable + "=stage"}
			Expect(f.build().Environment()).To(Equal("QA"))
		})

		It("should accept the upper-case system property name", func() {
			f := newFixture(files)
			f.sysProp[properties.EnvironmentVariable] = "uat"
			Expect(f.build().Environment()).To(Equal("UAT"))
		})

		It("should use the process environment next", func() {
			f := newFixture(files)
			f.environ = []string{properties.EnvironmentVariable + "=stage"}
			Expect(f.build().Environment()).To(Equal("STAGE"))
		})

		It("should fall back to the bootstrap file", func() {
			Expect(newFixture(files).build().Environment()).To(Equal("DEV"))
		})

		It("should skip invalid candidates", func() {
			f := newFixture(files)
			f.sysProp[properties.EnvironmentProperty] = "TEST "
			m := f.build()
			Expect(m.Environment()).To(Equal("DEV"))
			Expect(f.logs.String()).To(ContainSubstring("Ignoring invalid environment"))
		})

		It("should use ERROR when nothing is configured", func() {
			delete(files, properties.DefaultEnvironmentFile)
			f := newFixture(files)
			Expect(f.build().Environment()).To(Equal(properties.ErrorEnvironment))
			Expect(f.logs.String()).To(ContainSubstring("Unable to load environment property file"))
		})

		It("should use ERROR for an invalid bootstrap value", func() {
			files[properties.DefaultEnvironmentFile] = "environment=dev/1\n"
			Expect(newFixture(files).build().Environment()).To(Equal(properties.ErrorEnvironment))
		})

		It("should use the configured environment without reading the bootstrap file", func() {
			Expect(newFixture(files).withEnvironment("prod").build().Environment()).To(Equal("PROD"))
		})
	})

	Context("Validation", func() {
		DescribeTable("ValidEnvironment",
			func(name string, valid bool) {
				Expect(properties.ValidEnvironment(name)).To(Equal(valid))
			},
			Entry("letters", "DEV", true),
			Entry("lower case", "dev", true),
			Entry("digits", "QA2", true),
			Entry("underscore", "QA_2", false),
			Entry("lone underscore", "_", false),
			Entry("empty", "", false),
			Entry("trailing space", "TEST ", false),
			Entry("dot", "DEV.1", false),
			Entry("dash", "pre-prod", false),
		)
	})

	Context("SetEnvironment", func() {
		It("should replace the environment and warn", func() {
			f := newFixture(files)
			m := f.build()
			Expect(m.Environment()).To(Equal("DEV"))

			m.SetEnvironment("prod")
			Expect(m.Environment()).To(Equal("PROD"))
			Expect(f.logs.String()).To(ContainSubstring("The default environment has been overridden"))
		})

		It("should use ERROR for invalid names", func() {
			m := newFixture(files).build()
			m.SetEnvironment("no way")
			Expect(m.Environment()).To(Equal(properties.ErrorEnvironment))
		})

		It("should trim surrounding blanks", func() {
			m := newFixture(files).build()
			m.SetEnvironment("  qa\t")
			Expect(m.Environment()).To(Equal("QA"))
		})

		It("should be honoured when called before the first load", func() {
			m := newFixture(files).build()
			m.SetEnvironment("QA")
			Expect(m.Environment()).To(Equal("QA"))
		})
	})

	Context("Search chain", func() {
		It("should end with the global environment and drop duplicates", func() {
			files[properties.DefaultBaseFile] = "FOO.ENVIRONMENTS=BAR, BAR\tBAZ FOO,,BAZ\n"
			m := newFixture(files).withEnvironment("FOO").build()
			Expect(m.SearchEnvironments()).To(Equal([]string{"FOO", "BAR", "BAZ", ""}))
		})

		It("should be just the environment and the global one without fallbacks", func() {
			m := newFixture(files).withEnvironment("PROD").build()
			Expect(m.SearchEnvironments()).To(Equal([]string{"PROD", ""}))
		})

		It("should return a copy", func() {
			files[properties.DefaultBaseFile] = "FOO.ENVIRONMENTS=BAR\n"
			m := newFixture(files).withEnvironment("FOO").build()
			chain := m.SearchEnvironments()
			chain[0] = "HACKED"
			Expect(m.SearchEnvironments()).To(Equal([]string{"FOO", "BAR", ""}))
		})

		It("should be recomputed after SetEnvironment", func() {
			files[properties.DefaultBaseFile] = "FOO.ENVIRONMENTS=BAR\nQA.ENVIRONMENTS=DEV\n"
			m := newFixture(files).withEnvironment("FOO").build()
			Expect(m.SearchEnvironments()).To(Equal([]string{"FOO", "BAR", ""}))
			m.SetEnvironment("QA")
			Expect(m.SearchEnvironments()).To(Equal([]string{"QA", "DEV", ""}))
		})

		It("should be recomputed when ENVIRONMENTS is overridden", func() {
			m := newFixture(files).withEnvironment("FOO").build()
			Expect(m.SearchEnvironments()).To(Equal([]string{"FOO", ""}))

			changed, err := m.Override("ENVIRONMENTS", "PROD")
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeTrue())
			Expect(m.SearchEnvironments()).To(Equal([]string{"FOO", "PROD", ""}))
		})
	})

	Context("Tiers", func() {
		BeforeEach(func() {
			files[properties.DefaultBaseFile] = `
JDOE.ENVIRONMENTS=DEV
STAGE.ENVIRONMENTS=TEST,DEV
LIVE.ENVIRONMENTS=PROD TEST DEV
`
		})

		DescribeTable("flags",
			func(env string, dev, test, prod bool) {
				m := newFixture(files).withEnvironment(env).build()
				Expect(m.IsDEV()).To(Equal(dev))
				Expect(m.IsTEST()).To(Equal(test))
				Expect(m.IsPROD()).To(Equal(prod))
			},
			Entry("developer box", "JDOE", true, false, false),
			Entry("staging", "STAGE", false, true, false),
			Entry("live", "LIVE", false, false, true),
			Entry("plain PROD", "PROD", false, false, true),
			Entry("unrelated", "QA", false, false, false),
		)

		It("should reset on SetEnvironment", func() {
			m := newFixture(files).withEnvironment("JDOE").build()
			Expect(m.IsDEV()).To(BeTrue())
			m.SetEnvironment("LIVE")
			Expect(m.IsDEV()).To(BeFalse())
			Expect(m.IsPROD()).To(BeTrue())
		})
	})
})
