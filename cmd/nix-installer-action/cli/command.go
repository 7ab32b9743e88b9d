// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node of the command tree: the root binary, a phase
// (main, post) or a local tool (summarize, annotate).
type Command struct {
	// Name is the word typed to select this command (e.g., "post").
	Name string

	// Summary is the one-line description listed in the parent's help.
	Summary string

	// Description is the longer text at the top of this command's own
	// help. Summary is used when it is empty.
	Description string

	// Usage overrides the synthesized usage line (e.g.,
	// "nix-installer-action summarize [flags]").
	Usage string

	// Examples follow the flag table in help output.
	Examples []Example

	// Flags builds this command's flag set. It is called once per parse
	// or help request, so each call must return a fresh set bound to
	// the caller's variables. Nil means the command takes no flags.
	Flags func() *pflag.FlagSet

	// Subcommands are selected by the first positional argument.
	Subcommands []*Command

	// Run receives the positional arguments left after flag parsing.
	// A command with both Subcommands and Run falls back to Run when
	// the first argument is a flag.
	Run func(ctx context.Context, args []string) error

	// HelpOutput receives help text for this command and its
	// descendants. Nil defers to the parent, then os.Stderr.
	HelpOutput io.Writer

	// parent is set during dispatch so help and errors can print the
	// full command path.
	parent *Command
}

// Example is a command line shown in help output, with an optional
// comment above it.
type Example struct {
	Description string
	Command     string
}

// Execute runs the command tree against args: help flags first, then
// subcommand dispatch, then flag parsing and Run. Errors for unknown
// commands and flags carry a "did you mean" suggestion when a close
// match exists.
func (c *Command) Execute(ctx context.Context, args []string) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(c.helpOutput())
		return nil
	}

	if len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub := c.lookup(args[0])
		if sub == nil {
			return c.unknownCommand(args[0])
		}
		sub.parent = c
		return sub.Execute(ctx, args[1:])
	}

	if len(c.Subcommands) > 0 && c.Run == nil {
		// A group command alone, or followed only by flags.
		c.PrintHelp(c.helpOutput())
		if len(args) == 0 {
			return fmt.Errorf("subcommand required")
		}
		return fmt.Errorf("subcommand required (got flag %q)", args[0])
	}

	positional, err := c.parseFlags(args)
	if err != nil {
		return err
	}

	if c.Run == nil {
		c.PrintHelp(c.helpOutput())
		return fmt.Errorf("no action defined for %q", c.fullName())
	}
	return c.Run(ctx, positional)
}

func (c *Command) lookup(name string) *Command {
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

func (c *Command) unknownCommand(name string) error {
	if suggestion := suggestCommand(name, c.Subcommands); suggestion != "" {
		return c.usageError("unknown command %q (did you mean %q?)", name, suggestion)
	}
	return c.usageError("unknown command %q", name)
}

// parseFlags parses args against a fresh flag set and returns the
// positional arguments. Commands without flags get args unchanged.
func (c *Command) parseFlags(args []string) ([]string, error) {
	if c.Flags == nil {
		return args, nil
	}

	flagSet := c.Flags()
	// pflag would otherwise print its own error and usage dump before
	// returning; the error returned here replaces both.
	flagSet.SetOutput(io.Discard)

	err := flagSet.Parse(args)
	if err == nil {
		return flagSet.Args(), nil
	}

	message := err.Error()
	if strings.Contains(message, "unknown flag") || strings.Contains(message, "unknown shorthand flag") {
		// The failed parse left flagSet partly populated; suggestions
		// come from an untouched set.
		if suggestion := suggestFlag(args, c.Flags()); suggestion != "" {
			return nil, c.usageError("%s (did you mean %s?)", message, suggestion)
		}
	}
	return nil, c.usageError("%s", message)
}

// usageError formats a command-line mistake followed by a pointer to
// this command's help.
func (c *Command) usageError(format string, args ...any) error {
	return fmt.Errorf(format+"\n\nRun '%s --help' for usage.", append(args, c.fullName())...)
}

// PrintHelp writes the description, usage line, subcommand listing,
// flag table and examples to w, skipping empty sections.
func (c *Command) PrintHelp(w io.Writer) {
	name := c.fullName()

	if text := c.Description; text != "" {
		fmt.Fprintf(w, "%s\n\n", text)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	fmt.Fprintf(w, "Usage:\n  %s\n", c.usageLine(name))

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		table := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(table, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		table.Flush()
	}

	if c.Flags != nil {
		if usage := c.Flags().FlagUsages(); usage != "" {
			fmt.Fprintf(w, "\nFlags:\n%s", usage)
		}
	}

	c.printExamples(w)

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

func (c *Command) usageLine(name string) string {
	switch {
	case c.Usage != "":
		return c.Usage
	case len(c.Subcommands) > 0:
		return name + " <command> [flags]"
	default:
		return name + " [flags]"
	}
}

// printExamples separates described examples with a blank line; bare
// command lines are listed back to back.
func (c *Command) printExamples(w io.Writer) {
	if len(c.Examples) == 0 {
		return
	}
	fmt.Fprintf(w, "\nExamples:\n")
	for _, example := range c.Examples {
		if example.Description == "" {
			fmt.Fprintf(w, "  %s\n", example.Command)
			continue
		}
		fmt.Fprintf(w, "  # %s\n  %s\n\n", example.Description, example.Command)
	}
}

func (c *Command) helpOutput() io.Writer {
	for command := c; command != nil; command = command.parent {
		if command.HelpOutput != nil {
			return command.HelpOutput
		}
	}
	return os.Stderr
}

// fullName returns the command path from the root, e.g.
// "nix-installer-action summarize".
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

// isHelpFlag reports whether arg asks for help.
func isHelpFlag(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	}
	return false
}
