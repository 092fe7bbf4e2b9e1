package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/bipbuf/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage buffer profiles",
	Long: `Manage buffer profiles.

A profile names a buffer setup: initial capacity, page size, stream limit,
copy chunk size, allocator and an optional growth ceiling. Sizes accept
suffixes such as 4K, 64KB or 1MiB.

Examples:
  bipbuf config list
  bipbuf config set small capacity 4K
  bipbuf config set small allocator pool
  bipbuf config use small
  bipbuf config show
  bipbuf config delete small`,
}

var configListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		names := cfg.ListProfiles()
		if structured() {
			return output(cmd, names)
		}

		out := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintln(out, "No profiles configured.")
			fmt.Fprintln(out, "Create one with: bipbuf config set <profile> capacity <size>")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tCAPACITY\tPAGE\tLIMIT\tALLOCATOR")
		for _, name := range names {
			p := cfg.Profiles[name]
			current := ""
			if name == cfg.CurrentProfile {
				current = "*"
			}
			alloc := p.Allocator
			if alloc == "" {
				alloc = cli.AllocatorHeap
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", current, name,
				cli.FormatBytes(int64(p.Capacity)), cli.FormatBytes(int64(p.PageSize)),
				cli.FormatBytes(int64(p.Limit)), alloc)
		}
		return w.Flush()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [profile]",
	Short: "Show a profile (default: the one in use)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		name := profileName
		if len(args) == 1 {
			name = args[0]
		}
		p, err := cfg.ResolveProfile(name)
		if err != nil {
			return err
		}
		return output(cmd, p)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <profile> <key> <value>",
	Short: "Set a profile value, creating the profile if needed",
	Long: `Set a profile value, creating the profile from the defaults if needed.

Keys: capacity, page_size, limit, chunk_size, allocator, max_capacity`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		name, key, value := args[0], args[1], args[2]

		p := cli.DefaultProfile()
		if existing, ok := cfg.Profiles[name]; ok {
			cp := *existing
			p = &cp
		}
		if err := p.Set(key, value); err != nil {
			return err
		}
		if err := cfg.SetProfile(name, p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s.%s = %s\n", name, key, value)
		return nil
	},
}

var configUseCmd = &cobra.Command{
	Use:   "use <profile>",
	Short: "Set the current profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseProfile(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Switched to profile %q\n", args[0])
		return nil
	},
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete <profile>",
	Aliases: []string{"rm"},
	Short:   "Delete a profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteProfile(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted profile %q\n", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUseCmd)
	configCmd.AddCommand(configDeleteCmd)
	rootCmd.AddCommand(configCmd)
}
