package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"polyclassify/internal/app"
	"polyclassify/internal/clix"
	"polyclassify/internal/costtracker"
	"polyclassify/internal/models"
	"polyclassify/internal/services"
	"polyclassify/internal/store"
	"polyclassify/internal/util"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	classifyFile       string
	classifyNoDefaults bool
	classifyOutput     string
	classifyShowUsage  bool
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Classify a text against the session labels and examples",
	Long: `Classifies one text with the configured provider. The text comes from the
argument, --file, or stdin. Labels and examples from config.yaml are used unless
--no-defaults is given; --label and --example add to them.`,
	Example: `  polyclassify classify "La livraison est arrivée en retard"
  echo "Server is down" | polyclassify classify --no-defaults --label Urgent --label Routine --example "Weekly report=Routine"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		if classifyOutput != "table" && classifyOutput != "json" {
			return fmt.Errorf("invalid --output %q: must be 'table' or 'json'", classifyOutput)
		}

		text, err := readClassifyInput(cmd.InOrStdin(), args, classifyFile)
		if err != nil {
			return err
		}
		if err := applySessionFlags(appInstance, cmd.Flags(), classifyNoDefaults); err != nil {
			return err
		}

		state, err := appInstance.ClassificationService.Submit(cmd.Context(), text)
		if errors.Is(err, services.ErrEmptyInput) {
			return fmt.Errorf("nothing to classify: provide text as an argument, with --file, or on stdin")
		}

		var usage *costtracker.Summary
		if classifyShowUsage {
			if s, sumErr := appInstance.CostTracker.Summary(cmd.Context()); sumErr == nil {
				usage = &s
			}
		}
		if renderErr := renderState(cmd.OutOrStdout(), classifyOutput, state, usage); renderErr != nil {
			return renderErr
		}
		if err != nil {
			return fmt.Errorf("classification failed: %w", err)
		}
		return nil
	},
}

func readClassifyInput(stdin io.Reader, args []string, file string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		text, err := util.CleanInputText(raw, file)
		if err != nil || !util.IsHTMLFile(file) {
			return text, err
		}
		return util.HTMLToText(text)
	}
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return util.CleanInputText(raw, "stdin")
}

// applySessionFlags adjusts the seeded session from --no-defaults, --label and --example.
// An example whose label is not in the session adds that label.
func applySessionFlags(a *app.App, flags *pflag.FlagSet, noDefaults bool) error {
	labels, err := clix.ParseLabels(flags)
	if err != nil {
		return err
	}
	examples, err := clix.ParseExamples(flags)
	if err != nil {
		return err
	}

	svc := a.SessionService
	if noDefaults {
		for _, l := range svc.Labels() {
			if err := svc.RemoveLabel(l); err != nil {
				return fmt.Errorf("failed to clear default label %q: %w", l, err)
			}
		}
	}

	for _, l := range labels {
		if _, err := svc.AddLabel(l); err != nil && !errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("invalid --label %q: %w", l, err)
		}
	}
	for _, ex := range examples {
		if _, err := svc.AddLabel(ex.Label); err != nil && !errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("invalid --example label %q: %w", ex.Label, err)
		}
		if _, err := svc.AddExample(ex.Text, ex.Label, ""); err != nil {
			return fmt.Errorf("invalid --example %q: %w", ex.Text, err)
		}
	}
	log.Debugf("Classifying with labels %v and %d examples", svc.Labels(), len(svc.Examples()))
	return nil
}

func renderState(w io.Writer, format string, state models.ClassificationState, usage *costtracker.Summary) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if usage != nil {
			return enc.Encode(struct {
				models.ClassificationState
				Usage *costtracker.Summary `json:"usage"`
			}{state, usage})
		}
		return enc.Encode(state)
	}

	if state.Status != models.StatusSuccess || state.Result == nil {
		msg := state.Error
		if msg == "" {
			msg = string(state.Status)
		}
		fmt.Fprintf(w, "%s: %s\n", color.RedString("ERROR"), msg)
		return nil
	}

	res := state.Result
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Label", "Confidence", "Language", "Reasoning"})
	table.SetBorder(true)
	table.SetRowLine(true)
	table.SetAutoWrapText(true)
	table.Append([]string{
		color.GreenString(res.Label),
		fmt.Sprintf("%.0f%%", res.Confidence*100),
		res.DetectedLanguage,
		strings.TrimSpace(res.Reasoning),
	})
	table.Render()

	if usage != nil {
		fmt.Fprintf(w, "Tokens: %d in / %d out, cost $%.6f\n", usage.InputTokens, usage.OutputTokens, usage.TotalCostUSD)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringArrayP("label", "l", nil, "Label to classify into (repeatable, or comma-separated)")
	classifyCmd.Flags().StringArrayP("example", "e", nil, `Few-shot example as "text=label" (repeatable)`)
	classifyCmd.Flags().StringVarP(&classifyFile, "file", "f", "", "Read the text to classify from a file (HTML is reduced to its visible text)")
	classifyCmd.Flags().BoolVar(&classifyNoDefaults, "no-defaults", false, "Ignore labels and examples from config.yaml")
	classifyCmd.Flags().StringVarP(&classifyOutput, "output", "o", "table", "Output format (table, json)")
	classifyCmd.Flags().BoolVar(&classifyShowUsage, "show-usage", false, "Print token usage and cost of the call")
}
