package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cPrompt = color.New(color.FgCyan, color.Bold)
	cCmd    = color.New(color.FgYellow, color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive session",
	Long:  "Run lolrank commands one per line without restarting. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(_ *cobra.Command, _ []string) error {
	color.New(color.Bold).Println("lolrank shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("lolrank")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 {
			continue
		}

		switch tokens[0] {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "shell":
			cWarn.Fprintln(os.Stderr, "already in a shell")
		default:
			shellDispatch(tokens)
		}
	}
	return nil
}

// shellDispatch runs one line as a subcommand. Flags of the target command
// are reset first because cobra keeps parsed values between executions.
func shellDispatch(tokens []string) {
	c, _, err := rootCmd.Find(tokens)
	if err != nil || c == rootCmd {
		cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", tokens[0])
		return
	}
	c.LocalFlags().VisitAll(func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	})

	rootCmd.SetArgs(tokens)
	if err := rootCmd.Execute(); err != nil {
		cErr.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func shellHelp() {
	fmt.Println()
	for _, c := range rootCmd.Commands() {
		if c.Name() == "shell" || !c.IsAvailableCommand() {
			continue
		}
		fmt.Print("  ")
		cCmd.Printf("%-28s", c.Use)
		fmt.Println(c.Short)
	}
	fmt.Print("  ")
	cCmd.Printf("%-28s", "exit / quit")
	fmt.Println("close the session")
	fmt.Println()
}
