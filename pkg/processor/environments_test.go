//go:build unit

package processor_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/animalet/cascade-go/pkg/processor"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const envSource = `outside=dropped
#env DEV, TEST
dev.only=1
#env PROD
nested=inner
#vne
#vne
#env ALL
everyone=yes
#vne
#env prod
prod.only=1
#vne
`

var _ = Describe("Environments", func() {
	DescribeTable("block selection",
		func(env string, expected []string) {
			var out bytes.Buffer
			Expect(processor.Environments(strings.NewReader(envSource), &out, env)).To(Succeed())
			Expect(strings.Fields(out.String())).To(Equal(expected))
		},
		Entry("DEV keeps nested blocks", "DEV", []string{"dev.only=1", "nested=inner", "everyone=yes"}),
		Entry("test is case-insensitive", "test", []string{"dev.only=1", "nested=inner", "everyone=yes"}),
		Entry("PROD matches a block nested in another environment", "PROD", []string{"nested=inner", "everyone=yes", "prod.only=1"}),
		Entry("unknown environment gets ALL blocks", "QA", []string{"everyone=yes"}),
	)

	It("should recover from an unexpected #vne", func() {
		var out bytes.Buffer
		source := "#vne\n#env ALL\na=1\n#vne\n"
		Expect(processor.Environments(strings.NewReader(source), &out, "DEV")).To(Succeed())
		Expect(out.String()).To(Equal("a=1\n"))
	})

	It("should process files", func() {
		dir := GinkgoT().TempDir()
		src := filepath.Join(dir, "in.properties")
		dst := filepath.Join(dir, "out.properties")
		Expect(os.WriteFile(src, []byte(envSource), 0o600)).To(Succeed())

		Expect(processor.EnvironmentFiles(src, dst, "PROD")).To(Succeed())
		data, err := os.ReadFile(dst)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("nested=inner\neveryone=yes\nprod.only=1\n"))
	})

	It("should fail on a missing source", func() {
		dir := GinkgoT().TempDir()
		Expect(processor.EnvironmentFiles(filepath.Join(dir, "missing"), filepath.Join(dir, "out"), "DEV")).NotTo(Succeed())
	})
})
