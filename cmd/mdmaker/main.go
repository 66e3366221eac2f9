package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gubarz/mdmaker/internal/config"
	"github.com/gubarz/mdmaker/internal/logging"
	"github.com/gubarz/mdmaker/internal/maker"
	"github.com/gubarz/mdmaker/internal/output"
	"github.com/gubarz/mdmaker/internal/parser"
	"github.com/gubarz/mdmaker/internal/stylesheet"
	"github.com/gubarz/mdmaker/internal/ui"
	"github.com/gubarz/mdmaker/internal/watch"
)

var version = "0.2.0"

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "Print the effective style table",
	Long: `Prints every annotation token with the markdown template it renders with,
after applying config file styles and --styles.

Tokens without an entry render with "` + parser.DefaultStyle + `".`,
	Args: cobra.NoArgs,
	RunE: runStyles,
}

var rootCmd = &cobra.Command{
	Use:   "mdmaker [flags] INFILES...",
	Short: "Markdown API docs from annotated comments",
	Long: `Generates one markdown document from /** ... */ doc comments.

Source files are scanned for @annotations, markdown (.md) files are
included as-is, and everything is joined in argument order.`,
	Args: cobra.ArbitraryArgs,
	RunE: runMake,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(stylesCmd)

	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "No preview and errors-only logging")
	rootCmd.PersistentFlags().String("styles", "", "Style sheet (.toml or .yaml) overriding templates")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().StringP("output", "o", "", "Output file (\"null\" discards, default stdout)")
	rootCmd.Flags().Bool("copy", false, "Copy the document to the clipboard")
	rootCmd.Flags().Bool("check", false, "Exit non-zero with a diff if the output file is stale")
	rootCmd.Flags().Bool("watch", false, "Regenerate when inputs change")
	rootCmd.Flags().Bool("no-footer", false, "Omit the generated-by footer")
	rootCmd.Flags().IntP("jobs", "j", 0, "Files parsed at once (0 = one per CPU)")

	rootCmd.MarkFlagsMutuallyExclusive("check", "watch")
	rootCmd.MarkFlagsMutuallyExclusive("check", "copy")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("workers", rootCmd.Flags().Lookup("jobs"))
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}
}

// applyFlags overrides config values with the flags given on the command line
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		o, _ := flags.GetString("output")
		config.SetOutput(o)
	}
	if flags.Changed("quiet") {
		q, _ := flags.GetBool("quiet")
		config.SetQuiet(q)
	}
	if flags.Changed("styles") {
		s, _ := flags.GetString("styles")
		config.SetStyleFile(s)
	}
	if noFooter, _ := flags.GetBool("no-footer"); noFooter {
		config.SetFooter("")
	}
}

func runStyles(cmd *cobra.Command, args []string) error {
	applyFlags(cmd)
	styles, err := buildStyles(afero.NewOsFs(), config.GetStyles(), config.GetStyleFile())
	if err != nil {
		return err
	}
	printStyles(cmd.OutOrStdout(), styles)
	return nil
}

func runMake(cmd *cobra.Command, args []string) error {
	applyFlags(cmd)
	copyOut, _ := cmd.Flags().GetBool("copy")
	check, _ := cmd.Flags().GetBool("check")
	watchInputs, _ := cmd.Flags().GetBool("watch")

	log := logging.New(os.Stderr, config.GetLogLevel(), config.GetQuiet())
	fs := afero.NewOsFs()

	styles, err := buildStyles(fs, config.GetStyles(), config.GetStyleFile())
	if err != nil {
		return err
	}

	m := maker.New(
		maker.WithFs(fs),
		maker.WithStyles(styles),
		maker.WithLogger(log),
		maker.WithWorkers(config.GetWorkers()),
		maker.WithFooter(config.GetFooter()),
		maker.WithDateLayout(config.GetDateFormat()),
	)
	for _, path := range args {
		m.Add(path)
	}
	if !m.HasInput() {
		return cmd.Help()
	}

	target := config.GetOutput()
	sink := output.NewSink(fs).WithStdout(cmd.OutOrStdout())

	if check {
		return checkStale(m, sink, target, cmd.OutOrStdout())
	}

	mode := output.ModeFor(target, copyOut)
	text, err := emit(m, sink, mode, target)
	if err != nil {
		return err
	}
	log.Info().Str("mode", string(mode)).Str("output", target).Int("files", len(args)).Msg("document generated")

	if watchInputs {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, m, sink, mode, target, log)
	}

	if !config.GetQuiet() && mode == output.ModeFile && ui.HasTTY() {
		return ui.Run(target, text, config.GetGlamourStyle(), sink.Clipboard())
	}
	return nil
}

// buildStyles layers config file styles, then the style sheet, over the defaults
func buildStyles(fs afero.Fs, overrides map[string]string, styleFile string) (*parser.StyleRegistry, error) {
	registry := parser.NewStyleRegistry()

	if err := stylesheet.Validate(overrides); err != nil {
		return nil, fmt.Errorf("config styles: %w", err)
	}
	stylesheet.Register(registry, overrides)

	if styleFile != "" {
		sheet, err := stylesheet.Load(fs, styleFile)
		if err != nil {
			return nil, err
		}
		stylesheet.Register(registry, sheet)
	}
	return registry, nil
}

func printStyles(w io.Writer, styles *parser.StyleRegistry) {
	for _, token := range styles.Tokens() {
		fmt.Fprintf(w, "%-14s %s\n", token, styles.Style(token))
	}
}

// emit generates the document and delivers it
func emit(m *maker.Maker, sink *output.Sink, mode output.Mode, target string) (string, error) {
	text := m.Make()
	if err := sink.Write(mode, target, text); err != nil {
		return "", err
	}
	return text, nil
}

// checkStale prints a diff and fails when target differs from a fresh build
func checkStale(m *maker.Maker, sink *output.Sink, target string, w io.Writer) error {
	if target == "" || target == output.NullTarget {
		return errors.New("--check needs an output file (-o)")
	}
	diff, err := sink.Check(target, m.Make())
	if err != nil {
		return err
	}
	if diff == "" {
		return nil
	}
	fmt.Fprint(w, diff)
	return fmt.Errorf("%s is out of date", target)
}

func runWatch(ctx context.Context, m *maker.Maker, sink *output.Sink, mode output.Mode, target string, log zerolog.Logger) error {
	w, err := watch.New(m.Inputs(), config.GetWatchDebounce(), log)
	if err != nil {
		return err
	}
	defer w.Close()

	log.Info().Strs("files", m.Inputs()).Msg("watching for changes")
	return w.Run(ctx, func() {
		if _, err := emit(m, sink, mode, target); err != nil {
			log.Error().Err(err).Msg("regenerate failed")
			return
		}
		log.Info().Str("output", target).Msg("regenerated")
	})
}

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
