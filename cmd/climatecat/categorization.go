package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/primap-community/climate-categories/pkg/categories"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// listCmd lists the available categorizations
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available categorizations",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := categories.Names()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, name := range names {
			cat, err := categories.Get(name)
			if err != nil {
				logger.Warn("Skipping unreadable definition", zap.String("name", name), zap.Error(err))
				continue
			}
			kind := "flat"
			if cat.Hierarchical() {
				kind = "hierarchical"
			}
			fmt.Fprintf(w, "%s\t%s\t%d categories\t%s\n", cat.Name(), kind, cat.Len(), cat.Title())
		}
		return w.Flush()
	},
}

// showCmd prints the metadata of one categorization
var showCmd = &cobra.Command{
	Use:   "show [categorization]",
	Short: "Show the metadata of a categorization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := categories.Get(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headingStyle.Render(cat.Name()))
		fmt.Fprintf(out, "Title:        %s\n", cat.Title())
		if cat.Comment() != "" {
			fmt.Fprintf(out, "Comment:      %s\n", cat.Comment())
		}
		if cat.References() != "" {
			fmt.Fprintf(out, "References:   %s\n", cat.References())
		}
		if cat.Institution() != "" {
			fmt.Fprintf(out, "Institution:  %s\n", cat.Institution())
		}
		fmt.Fprintf(out, "Last update:  %s\n", cat.LastUpdate().Format("2006-01-02"))
		if cat.Version() != "" {
			fmt.Fprintf(out, "Version:      %s\n", cat.Version())
		}
		fmt.Fprintf(out, "Hierarchical: %t\n", cat.Hierarchical())
		if cat.Hierarchical() {
			fmt.Fprintf(out, "Total sum:    %t\n", cat.TotalSum())
			if top := cat.CanonicalTopLevelCategory(); top != nil {
				fmt.Fprintf(out, "Top level:    %s\n", top.String())
			}
		}
		fmt.Fprintf(out, "Categories:   %d\n", cat.Len())
		for _, warning := range cat.ValidationWarnings() {
			fmt.Fprintln(out, warnStyle.Render("Warning: "+warning))
		}
		return nil
	},
}

// lookupCmd resolves one code or alias within a categorization
var lookupCmd = &cobra.Command{
	Use:   "lookup [categorization] [code]",
	Short: "Look up a category by code or alias",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := categories.Get(args[0])
		if err != nil {
			return err
		}
		category, err := cat.Lookup(args[1])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headingStyle.Render(category.String()))
		if codes := category.Codes(); len(codes) > 1 {
			fmt.Fprintf(out, "Aliases: %s\n", strings.Join(codes[1:], ", "))
		}
		if category.Comment() != "" {
			fmt.Fprintf(out, "Comment: %s\n", category.Comment())
		}
		if info := category.Info(); len(info) > 0 {
			keys := make([]string, 0, len(info))
			for k := range info {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "%s: %v\n", k, info[k])
			}
		}
		if cat.Hierarchical() {
			printRelatives(cmd, cat, category)
		}
		return nil
	},
}

func printRelatives(cmd *cobra.Command, cat *categories.Categorization, category *categories.Category) {
	out := cmd.OutOrStdout()
	if parents, err := cat.Parents(category.Code()); err == nil && len(parents) > 0 {
		names := make([]string, len(parents))
		for i, p := range parents {
			names[i] = p.Code()
		}
		fmt.Fprintf(out, "Parents: %s\n", strings.Join(names, ", "))
	}
	children, err := cat.Children(category.Code())
	if err != nil || len(children) == 0 {
		return
	}
	for i, set := range children {
		names := make([]string, len(set))
		for j, child := range set {
			names[j] = child.Code()
		}
		label := "Children"
		if len(children) > 1 {
			label = fmt.Sprintf("Children (option %d)", i+1)
		}
		fmt.Fprintf(out, "%s: %s\n", label, strings.Join(names, ", "))
	}
}

// searchCmd finds a code in every available categorization
var searchCmd = &cobra.Command{
	Use:   "search [code]",
	Short: "Search for a code across all categorizations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		found := categories.FindCode(args[0])
		if len(found) == 0 {
			return fmt.Errorf("code %q not found in any categorization", args[0])
		}
		names := make([]string, 0, len(found))
		for name := range found {
			names = append(names, name)
		}
		sort.Strings(names)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, name := range names {
			fmt.Fprintf(w, "%s\t%s\n", name, found[name].String())
		}
		return w.Flush()
	},
}

var (
	treeRoot     string
	treeMaxDepth int
)

// treeCmd renders the hierarchy of a categorization
var treeCmd = &cobra.Command{
	Use:   "tree [categorization]",
	Short: "Render a hierarchical categorization as a tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := categories.Get(args[0])
		if err != nil {
			return err
		}
		rendered, err := cat.ShowAsTree(categories.TreeOptions{
			Root:     treeRoot,
			MaxDepth: treeMaxDepth,
		})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	},
}

// tableCmd prints all categories as a flat table
var tableCmd = &cobra.Command{
	Use:   "table [categorization]",
	Short: "Print all categories of a categorization as a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := categories.Get(args[0])
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, row := range cat.TableRows() {
			level := ""
			if row.Level != nil {
				level = fmt.Sprintf("%d", *row.Level)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", row.Code, level, row.Title)
		}
		return w.Flush()
	},
}

// levelsCmd checks that all levels in a hierarchy are unambiguous
var levelsCmd = &cobra.Command{
	Use:   "levels [categorization]",
	Short: "Check a hierarchical categorization for ambiguous levels",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := categories.Get(args[0])
		if err != nil {
			return err
		}
		if err := cat.CheckLevels(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "All levels of %s are unambiguous.\n", cat.Name())
		return nil
	},
}

func init() {
	treeCmd.Flags().StringVar(&treeRoot, "root", "", "Render only the subtree below this code")
	treeCmd.Flags().IntVar(&treeMaxDepth, "max-depth", 0, "Limit the rendered depth (0 = unlimited)")
}
