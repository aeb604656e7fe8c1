//go:build unit

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/animalet/cascade-go/pkg/obfuscation"
	"github.com/rs/zerolog/log"
)

var _ = Describe("cascade", func() {
	var (
		dir            string
		stdout, stderr *bytes.Buffer
	)

	BeforeEach(func() {
		saved := log.Logger
		DeferCleanup(func() { log.Logger = saved })

		dir = GinkgoT().TempDir()
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
		Expect(os.WriteFile(filepath.Join(dir, "cascade.properties"), []byte(
			"DEV.ENVIRONMENTS=COMMON\n"+
				"COMMON.db.url=jdbc:{ENVIRONMENT}\n"+
				"DEV._db.password=hunter2\n"+
				"DEV.web.port=8080\n"), 0o644)).To(Succeed())
	})

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	Describe("usage", func() {
		It("exits with 2 on an unknown command", func() {
			Expect(run([]string{"frobnicate"}, stdout, stderr)).To(Equal(exitUsage))
			Expect(stderr.String()).To(ContainSubstring("Error:"))
		})

		It("exits with 2 when a required argument is missing", func() {
			Expect(run([]string{"includes", "only-source"}, stdout, stderr)).To(Equal(exitUsage))
		})
	})

	Describe("obfuscate and clarify", func() {
		It("prints the wrapped form of each value", func() {
			Expect(run([]string{"obfuscate", "I'm a happy string."}, stdout, stderr)).To(Equal(exitOK))
			Expect(stdout.String()).To(Equal("[[[794F205926105D09203C4A604647365900407A]]]\n"))
		})

		It("accepts wrapped and bare values", func() {
			code := run([]string{"clarify", "[[[794F205926105D09203C4A604647365900407A]]]", "794F205926105D09203C4A604647365900407A"}, stdout, stderr)
			Expect(code).To(Equal(exitOK))
			Expect(stdout.String()).To(Equal("I'm a happy string.\nI'm a happy string.\n"))
		})

		It("fails on malformed input", func() {
			Expect(run([]string{"clarify", "7G"}, stdout, stderr)).To(Equal(exitError))
			Expect(stderr.String()).To(ContainSubstring("failed to clarify"))
		})
	})

	Describe("includes", func() {
		It("flattens include directives into the target file", func() {
			write("child.properties", "child.key=value\n")
			src := write("parent.properties", "#include "+filepath.Join(dir, "child.properties")+"\nparent.key=1\n")
			dst := filepath.Join(dir, "out.properties")

			Expect(run([]string{"-p", dir, "-e", "DEV", "includes", src, dst}, stdout, stderr)).To(Equal(exitOK))
			out, err := os.ReadFile(dst)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(out)).To(ContainSubstring("child.key=value"))
			Expect(string(out)).To(ContainSubstring("parent.key=1"))
		})

		It("obfuscates values outside the DEV tier", func() {
			src := write("parent.properties", "db.password=hunter2\ndb.url={host}\n")
			dst := filepath.Join(dir, "out.properties")

			code := run([]string{"-Dcascade.environment=PROD", "-p", dir, "includes", src, dst}, stdout, stderr)
			Expect(code).To(Equal(exitOK))
			out, err := os.ReadFile(dst)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(out)).To(ContainSubstring("db.password=" + obfuscation.Wrap("hunter2")))
			Expect(string(out)).NotTo(ContainSubstring("hunter2"))
			Expect(string(out)).To(ContainSubstring("db.url={host}"))
		})

		It("obfuscates for environments outside every tier", func() {
			src := write("parent.properties", "db.password=hunter2\n")
			dst := filepath.Join(dir, "out.properties")

			Expect(run([]string{"-e", "QA", "-p", dir, "includes", src, dst}, stdout, stderr)).To(Equal(exitOK))
			out, err := os.ReadFile(dst)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(out)).NotTo(ContainSubstring("hunter2"))
		})

		It("honours an explicit flag over the environment", func() {
			src := write("parent.properties", "db.password=hunter2\n")
			dst := filepath.Join(dir, "out.properties")

			Expect(run([]string{"-e", "PROD", "-p", dir, "includes", "--no-obfuscate", src, dst}, stdout, stderr)).To(Equal(exitOK))
			out, err := os.ReadFile(dst)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(out)).To(ContainSubstring("db.password=hunter2"))

			Expect(run([]string{"-e", "DEV", "-p", dir, "includes", "--obfuscate", src, dst}, stdout, stderr)).To(Equal(exitOK))
			out, err = os.ReadFile(dst)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(out)).To(ContainSubstring("db.password=" + obfuscation.Wrap("hunter2")))
		})

		It("fails when the target cannot be created", func() {
			src := write("parent.properties", "parent.key=1\n")
			code := run([]string{"-e", "DEV", "-p", dir, "includes", src, filepath.Join(dir, "missing", "out.properties")}, stdout, stderr)
			Expect(code).To(Equal(exitError))
		})
	})

	Describe("environments", func() {
		It("keeps only the matching blocks", func() {
			src := write("env.properties", "everyone=yes\n#env PROD\nprod.only=1\n#vne\n#env DEV\ndev.only=1\n#vne\n")
			dst := filepath.Join(dir, "prod.properties")

			Expect(run([]string{"environments", src, dst, "PROD"}, stdout, stderr)).To(Equal(exitOK))
			out, err := os.ReadFile(dst)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(out)).To(ContainSubstring("prod.only=1"))
			Expect(string(out)).NotTo(ContainSubstring("dev.only"))
		})
	})

	Describe("get", func() {
		It("resolves a key through the search chain", func() {
			Expect(run([]string{"-p", dir, "-e", "DEV", "get", "db.url"}, stdout, stderr)).To(Equal(exitOK))
			Expect(stdout.String()).To(Equal("jdbc:DEV\n"))
		})

		It("masks protected values unless asked to reveal them", func() {
			Expect(run([]string{"-p", dir, "-e", "DEV", "get", "_db.password"}, stdout, stderr)).To(Equal(exitOK))
			Expect(stdout.String()).To(Equal("***PROTECTED***\n"))

			stdout.Reset()
			Expect(run([]string{"-p", dir, "-e", "DEV", "get", "--reveal", "_db.password"}, stdout, stderr)).To(Equal(exitOK))
			Expect(stdout.String()).To(Equal("hunter2\n"))
		})

		It("resolves namespaced keys", func() {
			Expect(run([]string{"-p", dir, "-e", "DEV", "get", "-n", "web", "port"}, stdout, stderr)).To(Equal(exitOK))
			Expect(stdout.String()).To(Equal("8080\n"))
		})

		It("applies system property overrides", func() {
			code := run([]string{"-Dweb.port=9090", "-p", dir, "-e", "DEV", "get", "web.port"}, stdout, stderr)
			Expect(code).To(Equal(exitOK))
			Expect(stdout.String()).To(Equal("9090\n"))
		})

		It("prints the default for missing keys", func() {
			Expect(run([]string{"-p", dir, "-e", "DEV", "get", "--default", "none", "missing"}, stdout, stderr)).To(Equal(exitOK))
			Expect(stdout.String()).To(Equal("none\n"))
		})

		It("fails for missing keys without a default", func() {
			Expect(run([]string{"-p", dir, "-e", "DEV", "get", "missing"}, stdout, stderr)).To(Equal(exitError))
			Expect(stderr.String()).To(ContainSubstring(`property "missing" not found`))
		})
	})

	Describe("dump", func() {
		It("exports masked properties as JSON", func() {
			Expect(run([]string{"-p", dir, "-e", "DEV", "dump", "--format", "json"}, stdout, stderr)).To(Equal(exitOK))

			var values map[string]string
			Expect(json.Unmarshal(stdout.Bytes(), &values)).To(Succeed())
			Expect(values).To(HaveKeyWithValue("db.url", "jdbc:DEV"))
			Expect(values).To(HaveKeyWithValue("web.port", "8080"))
			Expect(values).To(HaveKeyWithValue("_db.password", "***PROTECTED***"))
		})

		It("rejects unknown formats", func() {
			Expect(run([]string{"-p", dir, "-e", "DEV", "dump", "--format", "xml"}, stdout, stderr)).To(Equal(exitError))
		})
	})

	Describe("serve", func() {
		It("listens on loopback by default", func() {
			c := newCLI(stderr)
			command, err := c.app.Parse([]string{"serve"})
			Expect(err).NotTo(HaveOccurred())
			Expect(command).To(Equal("serve"))
			Expect(*c.serveAddress).To(Equal("127.0.0.1:8089"))
		})
	})

	Describe("options file", func() {
		It("reads the search path from YAML", func() {
			opts := write("options.yaml", "search_path:\n  - "+dir+"\nenvironment: DEV\n")
			Expect(run([]string{"--options", opts, "get", "web.port"}, stdout, stderr)).To(Equal(exitOK))
			Expect(stdout.String()).To(Equal("8080\n"))
		})
	})
})
