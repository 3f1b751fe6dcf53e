package smartupdate

import (
	"fmt"
	"runtime"

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

// NewCommand returns the smartupdate-metadata command line.
func NewCommand() *cobra.Command {
	var (
		lang    string
		asXML   bool
		asTable bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "smartupdate-metadata [paths...]",
		Short: "List the metadata of Smart Update component packages",
		Long: `smartupdate-metadata reads the descriptor embedded in each Smart Update
component (cp*.exe, cp*.zip, ...) and lists name, version, release date and
category. Directories are scanned one level deep; files that are not
components are skipped.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()})
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if asXML && asTable {
				return fmt.Errorf("--xml and --table cannot be combined")
			}
			if len(args) == 0 {
				args = []string{"."}
			}
			pkgs := NewInspector(lang).Scan(args)
			log.Debug().Int("packages", len(pkgs)).Msg("scan finished")

			out := cmd.OutOrStdout()
			if asTable {
				_, err := fmt.Fprintln(out, Table(pkgs))
				return err
			}
			mode := report.Text
			if asXML {
				mode = report.XML
			}
			em := report.NewEmitter(out, mode)
			return em.WithBlock("packages", nil, func() error {
				for _, m := range pkgs {
					if err := m.Emit(em); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug diagnostics to stderr")
	cmd.Flags().StringVarP(&lang, "lang", "l", DefaultLang, "preferred language of localized fields")
	cmd.Flags().BoolVar(&asXML, "xml", false, "write XML instead of the text format")
	cmd.Flags().BoolVar(&asTable, "table", false, "write a table")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print the plugin version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "smartupdate-metadata %s (%s) %s %s/%s\n", Version, Revision, GOVersion, GOOS, GOARCH)
		},
	})
	return cmd
}

// Do runs the plugin.
func Do() {
	if err := NewCommand().Execute(); err != nil {
		log.Fatal().Err(err).Send()
	}
}
