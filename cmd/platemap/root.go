package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"platemap/internal/blob"
	"platemap/internal/config"
	"platemap/internal/core"
	"platemap/internal/logging"
	"platemap/pkg/domain"
)

// app holds everything a subcommand needs once configuration is loaded.
type app struct {
	stdout, stderr io.Writer

	configFile string
	v          *viper.Viper
	cfg        *config.Config
	log        *logging.Logger
	metrics    *prometheus.Registry
	store      blob.Store
	service    *core.Service
}

// persistent flags bound onto config keys
var flagKeys = map[string]string{
	"category":         "import.category",
	"capacity":         "import.chunk_capacity",
	"finalize":         "import.finalize_layout",
	"delimiter":        "import.delimiter",
	"log-level":        "logging.level",
	"blob-driver":      "blob.driver",
	"blob-root":        "blob.fs_root",
	"metrics-textfile": "metrics.textfile",
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "platemap",
		Short: "Laboratory plate map importer",
		Long: `platemap reads two-section plate documents (a metadata section and a
plate_data section), validates every field against the category schema,
chunks the wells into fixed-capacity plates and renders grid, attribute
table and full record views.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configFile, "config", "c", "", "config file (YAML)")
	pf.String("category", "", "schema category of the document (pcr, gdna, kingfisher, quantit, p7 index, p5 index)")
	pf.Int("capacity", core.DefaultChunkCapacity, "wells per output plate")
	pf.Bool("finalize", true, "recompute row/column/index from each well's final position")
	pf.String("delimiter", ",", `input field delimiter (use \t for tab)`)
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("blob-driver", string(blob.DriverFilesystem), "blob driver: fs, s3, memory")
	pf.String("blob-root", ".", "root directory of the fs blob driver")
	pf.String("metrics-textfile", "", "write Prometheus metrics to this file on exit")

	root.AddCommand(
		newImportCommand(a),
		newGridCommand(a),
		newTableCommand(a),
		newRecordsCommand(a),
		newExportCommand(a),
		newCategoriesCommand(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	v, err := config.New(a.configFile)
	if err != nil {
		return err
	}
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.v, a.cfg = v, cfg
	a.log = logging.NewLogger(a.stderr, cfg.Logging.Level)

	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	chunker, err := core.NewChunker(reg, cfg.Import.ChunkCapacity, cfg.Import.FinalizeLayout)
	if err != nil {
		return err
	}
	a.store, err = blob.Open(cmd.Context(), cfg.Blob)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	a.metrics = prometheus.NewRegistry()
	a.service, err = core.NewService(reg, chunker,
		core.WithStore(a.store),
		core.WithLogger(a.log),
		core.WithMetrics(core.NewPrometheusRecorder(a.metrics)),
		core.WithDelimiter(cfg.Import.Comma()),
	)
	return err
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	if a.cfg == nil || a.cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.cfg.Metrics.Textfile, a.metrics); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func (a *app) category() domain.Category {
	return domain.Category(a.cfg.Import.Category)
}

// load imports the named document. With fromStore the name is a blob key,
// otherwise a local file path.
func (a *app) load(ctx context.Context, name string, fromStore bool) (core.ImportResult, error) {
	if fromStore {
		return a.service.ImportDocument(ctx, name, a.category())
	}
	f, err := os.Open(name)
	if err != nil {
		return core.ImportResult{}, err
	}
	defer func() { _ = f.Close() }()
	res, err := a.service.Import(ctx, f, a.category())
	if err != nil {
		return core.ImportResult{}, err
	}
	res.Source = name
	return res, nil
}
