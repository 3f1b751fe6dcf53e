package inventory

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/gorpher/idpc-plugins/report"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	Revision  = "untracked"
	Version   = "0.0.0"
	GOARCH    = runtime.GOARCH
	GOOS      = runtime.GOOS
	GOVersion = runtime.Version()
)

// newSource builds the fact source for a run. dryRun receives planned
// external calls when set.
var newSource = func(ctx context.Context, cfg Config, dryRun io.Writer) (Source, error) {
	var chain Chain
	switch {
	case cfg.AidaReport != "":
		aida, err := LoadAidaReport(cfg.AidaReport, cfg.AidaCharset)
		if err != nil {
			return nil, err
		}
		chain = append(chain, aida)
	case cfg.RunAida && dryRun != nil:
		fmt.Fprintf(dryRun, "aida64 %s /R <tmp>/aida-summary.xml /SUM\n", strings.Join(aidaParams, " "))
	case cfg.RunAida:
		dir, err := os.MkdirTemp("", "inventory-aida")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(dir)
		aida, err := RunAidaReport(ctx, CallCMD, cfg.Tools["aida64"], dir, cfg.AidaCharset)
		if err != nil {
			// the other sources still answer
			log.Warn().Err(err).Msg("aida64 report unavailable")
			break
		}
		chain = append(chain, aida)
	}
	cmds := NewCommandSource(cfg.Tools)
	cmds.Timeout = cfg.CommandTimeout()
	cmds.DryRun = dryRun
	return append(chain, cmds, NewGHWSource()), nil
}

// NewCommand returns the firmware-inventory command line.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "firmware-inventory",
		Short: "Report hardware component models and firmware/software versions",
		Long: `firmware-inventory queries the BIOS, management controller, enclosure, storage
controllers, disks, network adapters and installed packages of this machine and
writes them as a nested name/value report, or as XML with --xml.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()})
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected arguments %v", args)
			}
			return run(cmd)
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "print debug diagnostics to stderr")
	for _, s := range AllSections {
		cmd.Flags().Bool(string(s), false, fmt.Sprintf("include the %s section (default: all sections)", s))
	}
	cmd.Flags().Bool("xml", false, "write XML instead of the text format")
	cmd.Flags().Bool("version-only", false, "only write firmware and software versions")
	cmd.Flags().Bool("dry-run", false, "print the external commands that would run instead of running them")
	cmd.Flags().StringP("config", "c", "", "config file (env, yml/yaml or json)")
	cmd.Flags().String("ipmitool", "", "path of the ipmitool executable")
	cmd.Flags().StringToString("tool", nil, "explicit tool locations, e.g. --tool ipmitool=/opt/ipmitool")
	cmd.Flags().Bool("aida", false, "run AIDA64 (windows) and read facts from its summary report")
	cmd.Flags().String("aida-report", "", "read facts from an AIDA64 XML report")
	cmd.Flags().String("aida-charset", "", "charset of the AIDA64 report, overriding its declaration")
	cmd.Flags().Duration("timeout", DefaultCommandTimeout, "timeout of each external command")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print the plugin version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "firmware-inventory %s (%s) %s %s/%s\n", Version, Revision, GOVersion, GOOS, GOARCH)
		},
	})
	return cmd
}

// loadConfig merges the config file with the flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (Config, error) {
	flags := cmd.Flags()
	cfg := Config{}
	if path, _ := flags.GetString("config"); path != "" {
		var err error
		if cfg, err = ReadConfigFile(path); err != nil {
			return Config{}, err
		}
	}

	if flags.Changed("xml") {
		cfg.XML, _ = flags.GetBool("xml")
	}
	if flags.Changed("version-only") {
		cfg.VersionOnly, _ = flags.GetBool("version-only")
	}
	if flags.Changed("dry-run") {
		cfg.DryRun, _ = flags.GetBool("dry-run")
	}
	if flags.Changed("aida") {
		cfg.RunAida, _ = flags.GetBool("aida")
	}
	if flags.Changed("aida-report") {
		cfg.AidaReport, _ = flags.GetString("aida-report")
	}
	if flags.Changed("aida-charset") {
		cfg.AidaCharset, _ = flags.GetString("aida-charset")
	}
	if flags.Changed("timeout") {
		d, _ := flags.GetDuration("timeout")
		cfg.Timeout = d.String()
	}
	if flags.Changed("tool") {
		tools, _ := flags.GetStringToString("tool")
		if cfg.Tools == nil {
			cfg.Tools = map[string]string{}
		}
		for k, v := range tools {
			cfg.Tools[k] = v
		}
	}
	if flags.Changed("ipmitool") {
		if cfg.Tools == nil {
			cfg.Tools = map[string]string{}
		}
		cfg.Tools["ipmitool"], _ = flags.GetString("ipmitool")
	}

	var selected []string
	for _, s := range AllSections {
		if on, _ := flags.GetBool(string(s)); on {
			selected = append(selected, string(s))
		}
	}
	if len(selected) > 0 {
		cfg.Sections = selected
	}
	return cfg, cfg.validate()
}

func run(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sections, err := ParseSections(strings.Join(cfg.Sections, ","))
	if err != nil {
		return err
	}

	var dryRun io.Writer
	if cfg.DryRun {
		dryRun = cmd.ErrOrStderr()
	}
	src, err := newSource(cmd.Context(), cfg, dryRun)
	if err != nil {
		return err
	}

	mode := report.Text
	if cfg.XML {
		mode = report.XML
	}
	host, err := os.Hostname()
	if err != nil {
		log.Debug().Err(err).Msg("hostname unavailable")
	}

	start := time.Now()
	em := report.NewEmitter(cmd.OutOrStdout(), mode)
	err = NewAssembler(src, em).Assemble(cmd.Context(), Options{
		Sections:    sections,
		VersionOnly: cfg.VersionOnly,
		Host:        host,
	})
	log.Debug().Dur("took", time.Since(start)).Str("mode", mode.String()).Msg("inventory written")
	return err
}

// Do runs the plugin.
func Do() {
	if err := NewCommand().Execute(); err != nil {
		log.Fatal().Err(err).Send()
	}
}
