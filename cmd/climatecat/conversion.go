package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/primap-community/climate-categories/pkg/conversion"
)

// conversionCmd groups the conversion subcommands
var conversionCmd = &cobra.Command{
	Use:     "conversion",
	Aliases: []string{"conv"},
	Short:   "Work with conversions between categorizations",
}

func loadConversion(path string) (*conversion.Conversion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return conversion.Load(f)
}

var overcountingSide string

// conversionCheckCmd validates a conversion and reports overcounting
var conversionCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a conversion file and report overcounting problems",
	Long: `Loads a conversion file, resolving every referenced category against the
categorizations it names, and then searches for overcounting: pairs of
rules whose source categories overlap, so that converted data would count
some emissions twice.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, err := loadConversion(args[0])
		if err != nil {
			return err
		}
		logger.Debug("Loaded conversion",
			zap.String("name", conv.Name()),
			zap.Int("rules", len(conv.Rules())))

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d rules, all categories resolved.\n", conv.Name(), len(conv.Rules()))

		sides := []conversion.Side{conversion.SideA, conversion.SideB}
		switch overcountingSide {
		case "A":
			sides = sides[:1]
		case "B":
			sides = sides[1:]
		case "both":
		default:
			return fmt.Errorf("invalid --side %q, want A, B or both", overcountingSide)
		}

		problems := 0
		for _, side := range sides {
			found, err := conv.FindOvercountingProblems(side)
			if err != nil {
				fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("Side %s skipped: %v", side, err)))
				continue
			}
			for _, p := range found {
				rules := conv.Rules()
				fmt.Fprintf(out, "Overcounting on side %s (%s): rules on lines %d and %d both cover %s\n",
					side, conv.Categorization(side).Name(),
					rules[p.RuleA].Line(), rules[p.RuleB].Line(),
					strings.Join(p.Leaves, ", "))
			}
			problems += len(found)
		}
		if problems > 0 {
			return fmt.Errorf("found %d overcounting problem(s)", problems)
		}
		fmt.Fprintln(out, "No overcounting problems found.")
		return nil
	},
}

// conversionDescribeCmd renders a human-readable conversion report
var conversionDescribeCmd = &cobra.Command{
	Use:   "describe [file]",
	Short: "Render a human-readable description of a conversion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, err := loadConversion(args[0])
		if err != nil {
			return err
		}
		markdown := conv.Describe()
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			// Fall back to raw markdown on dumb terminals.
			fmt.Fprint(cmd.OutOrStdout(), markdown)
			return nil
		}
		rendered, err := renderer.Render(markdown)
		if err != nil {
			fmt.Fprint(cmd.OutOrStdout(), markdown)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	},
}

var unmappedSide string

// conversionUnmappedCmd lists categories without a conversion rule
var conversionUnmappedCmd = &cobra.Command{
	Use:   "unmapped [file]",
	Short: "List categories of one side that no rule maps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, err := loadConversion(args[0])
		if err != nil {
			return err
		}
		side := conversion.SideA
		if unmappedSide == "B" {
			side = conversion.SideB
		} else if unmappedSide != "A" {
			return fmt.Errorf("invalid --side %q, want A or B", unmappedSide)
		}
		out := cmd.OutOrStdout()
		unmapped := conv.FindUnmapped(side)
		if len(unmapped) == 0 {
			fmt.Fprintf(out, "All categories of %s are mapped.\n", conv.Categorization(side).Name())
			return nil
		}
		fmt.Fprintf(out, "%d unmapped categories in %s:\n", len(unmapped), conv.Categorization(side).Name())
		for _, cat := range unmapped {
			fmt.Fprintf(out, "  %s\n", cat.String())
		}
		return nil
	},
}

func init() {
	conversionCheckCmd.Flags().StringVar(&overcountingSide, "side", "both", "Side to check for overcounting (A, B or both)")
	conversionUnmappedCmd.Flags().StringVar(&unmappedSide, "side", "A", "Side to list unmapped categories for (A or B)")

	conversionCmd.AddCommand(conversionCheckCmd)
	conversionCmd.AddCommand(conversionDescribeCmd)
	conversionCmd.AddCommand(conversionUnmappedCmd)
}
