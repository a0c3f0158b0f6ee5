package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/ragembed/pkg/config"
)

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("engine.provider")).To(Equal(defaults.Engine.Provider))
		Expect(v.GetString("engine.target")).To(Equal(defaults.Engine.Target))
		Expect(v.GetUint("engine.context_size")).To(Equal(defaults.Engine.ContextSize))
		Expect(v.GetString("vector_store.target")).To(Equal(defaults.VectorStore.Target))
		Expect(v.GetString("events.topic")).To(Equal(defaults.Events.Topic))
		Expect(v.GetUint64("ingest.start_vector_id")).To(BeZero())
	})

	It("reads config file values over defaults", func() {
		data := `[vector_store]
provider = "chroma"
target = "http://chroma:8000"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("vector_store.provider")).To(Equal("chroma"))
		Expect(v.GetString("vector_store.target")).To(Equal("http://chroma:8000"))
		Expect(v.GetString("engine.provider")).To(Equal(config.NewDefaultConfig().Engine.Provider))
	})

	It("returns an error for a malformed config file", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[[[ nope"), 0o600)).To(Succeed())

		_, err := config.InitViper(tmpDir)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("reading config"))
	})

	It("respects environment variables with RAGEMBED_ prefix", func() {
		GinkgoT().Setenv("RAGEMBED_ENGINE_PROVIDER", "openai")
		GinkgoT().Setenv("RAGEMBED_VECTOR_STORE_API_KEY", "secret")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("engine.provider")).To(Equal("openai"))
		Expect(v.GetString("vector_store.api_key")).To(Equal("secret"))
	})

	It("env vars take precedence over config file values", func() {
		data := `[engine]
provider = "ollama"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())
		GinkgoT().Setenv("RAGEMBED_ENGINE_PROVIDER", "openai")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("engine.provider")).To(Equal("openai"))
	})
})

var _ = Describe("BindFlags", func() {
	var (
		tmpDir string
		fs     config.FlagSet
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		fs = config.FlagSet{
			config.FlagEngineTarget:     {Name: "engine-target", Shorthand: "e", ViperKey: "engine.target", Description: "Inference engine URL"},
			config.FlagContextSize:      {Name: "context-size", ViperKey: "engine.context_size", Description: "Engine context size"},
			config.FlagStartVectorID:    {Name: "start-vector-id", ViperKey: "ingest.start_vector_id", Description: "First point id"},
			config.FlagMaxContextLength: {Name: "maximum-context-length", ViperKey: "ingest.max_context_length", Description: "Character cap"},
		}
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var target string
		var start uint64
		config.AddStringFlag(cmd, fs, config.FlagEngineTarget, &target)
		config.AddUint64Flag(cmd, fs, config.FlagStartVectorID, &start)

		Expect(cmd.Flags().Set("engine-target", "http://other:11434")).To(Succeed())
		Expect(cmd.Flags().Set("start-vector-id", "100")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, fs, []string{config.FlagEngineTarget, config.FlagStartVectorID})

		Expect(v.GetString("engine.target")).To(Equal("http://other:11434"))
		Expect(v.GetUint64("ingest.start_vector_id")).To(Equal(uint64(100)))
	})

	It("falls through to config when flag not set", func() {
		data := `[ingest]
max_context_length = 300
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var maxLen uint
		config.AddUintFlag(cmd, fs, config.FlagMaxContextLength, &maxLen)

		config.BindRegisteredFlags(v, cmd, fs, []string{config.FlagMaxContextLength})

		Expect(v.GetUint("ingest.max_context_length")).To(Equal(uint(300)))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.FlagSet{}, []string{"nonexistent"})

		Expect(v.GetString("engine.target")).To(Equal(config.NewDefaultConfig().Engine.Target))
	})

	It("AddStringFlag pulls name, shorthand, and description from FlagSet", func() {
		cmd := &cobra.Command{Use: "test"}
		var target string
		config.AddStringFlag(cmd, fs, config.FlagEngineTarget, &target)

		f := cmd.Flags().Lookup("engine-target")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("e"))
		Expect(f.Usage).To(Equal("Inference engine URL"))
		Expect(f.DefValue).To(Equal(config.NewDefaultConfig().Engine.Target))
	})

	It("AddUintFlag takes its default from the config defaults", func() {
		cmd := &cobra.Command{Use: "test"}
		var size uint
		config.AddUintFlag(cmd, fs, config.FlagContextSize, &size)

		f := cmd.Flags().Lookup("context-size")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("4096"))
	})

	It("ignores registry keys missing from the FlagSet", func() {
		cmd := &cobra.Command{Use: "test"}
		var topic string
		config.AddStringFlag(cmd, fs, config.FlagEventsTopic, &topic)

		Expect(cmd.Flags().Lookup("events-topic")).To(BeNil())
	})
})
