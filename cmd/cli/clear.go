package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newClearCmd(open Opener, configFile *string) *cobra.Command {
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete limiter or usage records",
		Long: `Delete limiter or usage records.

Optionally provide an identifier as the next argument to delete a single key.`,
	}

	clearCmd.AddCommand(
		newClearPrefixCmd("usage", "Clear daily usage counters", open, configFile,
			func(t *Target) string { return t.UsagePrefix }),
		newClearPrefixCmd("rate", "Clear sliding-window records", open, configFile,
			func(t *Target) string { return t.RateLimitPrefix }),
		&cobra.Command{
			Use:   "all",
			Short: "Flush the entire configured Redis database",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withTarget(cmd.Context(), open, *configFile, func(ctx context.Context, t *Target) error {
					out := cmd.OutOrStdout()
					fmt.Fprintln(out, "Flushing the entire Redis database...")
					if err := t.Maintainer.FlushAll(ctx); err != nil {
						return err
					}
					fmt.Fprintln(out, "All keys have been deleted from the Redis database.")
					return nil
				})
			},
		},
	)
	return clearCmd
}

func newClearPrefixCmd(name, short string, open Opener, configFile *string, prefixOf func(*Target) string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " [identifier]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var identifier string
			if len(args) == 1 {
				identifier = args[0]
			}
			return withTarget(cmd.Context(), open, *configFile, func(ctx context.Context, t *Target) error {
				return clearPrefix(ctx, cmd.OutOrStdout(), t.Maintainer, prefixOf(t), identifier)
			})
		},
	}
}

func clearPrefix(ctx context.Context, out io.Writer, m Maintainer, prefix, identifier string) error {
	if identifier == "" {
		fmt.Fprintf(out, "Scanning for keys with pattern: %s:*\n", prefix)
	}

	res, err := m.ClearByPrefix(ctx, prefix, identifier)
	if err != nil {
		return err
	}

	switch {
	case identifier != "" && res.Deleted > 0:
		fmt.Fprintf(out, "Deleted key: %s:%s\n", prefix, identifier)
	case identifier != "":
		fmt.Fprintf(out, "No key found for identifier %q with prefix %q\n", identifier, prefix)
	case res.Deleted > 0:
		fmt.Fprintf(out, "Deleted %d keys with prefix %q\n", res.Deleted, prefix)
	default:
		fmt.Fprintf(out, "No keys found with prefix %q to delete.\n", prefix)
	}
	return nil
}

func withTarget(ctx context.Context, open Opener, configFile string, fn func(context.Context, *Target) error) error {
	t, err := open(ctx, configFile)
	if err != nil {
		return &execError{err: err}
	}
	if t.Close != nil {
		defer t.Close()
	}
	if err := fn(ctx, t); err != nil {
		return &execError{err: err}
	}
	return nil
}
