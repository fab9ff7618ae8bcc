package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/marketvet-labs/marketvet/internal/config"
	"github.com/marketvet-labs/marketvet/internal/engine"
	"github.com/marketvet-labs/marketvet/internal/report"
)

// exitFatal distinguishes an unusable environment (nothing was validated)
// from "validation found issues", which exits 1.
const exitFatal = 2

var (
	validatePlugin     string
	validateSkipSkills bool
	validateOutput     string
	validateVerbose    bool
	validateNoColor    bool
	validateStrict     bool
	validateTimeout    time.Duration
	validateWorkers    int
	validateSkillsRef  string
)

func init() {
	validateCmd.Flags().StringVar(&validatePlugin, "plugin", "", "Validate a single plugin directory")
	validateCmd.Flags().BoolVar(&validateSkipSkills, "skip-skills", false, "Skip skill compliance checks (faster)")
	validateCmd.Flags().StringVar(&validateOutput, "output", "", "Output format: text or json")
	validateCmd.Flags().BoolVarP(&validateVerbose, "verbose", "v", false, "Verbose output")
	validateCmd.Flags().BoolVar(&validateNoColor, "no-color", false, "Disable colored output")
	validateCmd.Flags().BoolVar(&validateStrict, "strict-warnings", false, "Treat warnings as errors")
	validateCmd.Flags().DurationVar(&validateTimeout, "timeout", 0, "Per-skill validation timeout")
	validateCmd.Flags().IntVar(&validateWorkers, "concurrency", 0, "Worker pool size (0 = number of cores)")
	validateCmd.Flags().StringVar(&validateSkillsRef, "skills-ref", "", "External skill validator command")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [root]",
	Short: "Validate plugins and the marketplace catalog",
	Long: `Validate every plugin manifest, the marketplace catalog manifest, their
cross-document consistency, and the structure of each skill directory.

Exit codes: 0 when everything passes, 1 when any issue was found, 2 when
the repository could not be validated at all.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Load()

		root := "."
		if len(args) == 1 {
			root = args[0]
		}

		if validateNoColor {
			color.NoColor = true
		}

		output := validateOutput
		if output == "" {
			output = config.Get(config.KeyOutput)
		}
		if output != "text" && output != "json" {
			return fmt.Errorf("unknown output format %q: expected text or json", output)
		}

		timeout := validateTimeout
		if timeout <= 0 {
			timeout = config.GetDuration(config.KeySkillTimeout)
		}
		workers := validateWorkers
		if workers <= 0 {
			workers = config.GetInt(config.KeyConcurrency)
		}
		skillsRef := validateSkillsRef
		if skillsRef == "" {
			skillsRef = config.Get(config.KeySkillsRef)
		}

		rep, err := engine.Run(cmd.Context(), engine.Options{
			Root:             root,
			PluginDir:        validatePlugin,
			SkipSkills:       validateSkipSkills,
			StrictWarnings:   validateStrict,
			Concurrency:      workers,
			SkillTimeout:     timeout,
			SkillsRefCommand: skillsRef,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(exitFatal)
		}

		if output == "json" {
			if err := report.RenderJSON(os.Stdout, rep); err != nil {
				fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
				os.Exit(exitFatal)
			}
		} else {
			report.RenderText(os.Stdout, rep, validateVerbose)
		}

		if code := rep.ExitCode(); code != 0 {
			os.Exit(code)
		}
		return nil
	},
}
