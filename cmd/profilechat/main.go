package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

// errReported is returned by commands that already wrote their JSON result
// to stdout; main only sets the exit code.
var errReported = errors.New("result reported")

var rootCmd = &cobra.Command{
	Use:   "profilechat",
	Short: "Personalized chat with a persistent user profile",
	Long: `profilechat wraps a chat-completion API with file-backed conversation
history and a user profile distilled from past sessions.

Without flags it starts the HTTP server. With --init or --chat it runs a
single operation and prints the JSON result on stdout.

Examples:
  profilechat
  profilechat --init
  profilechat --chat '{"message":"Hello, my name is Sam"}'
  echo '{"message":"hi","context":{...}}' | profilechat --chat -`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("no-color"); v || os.Getenv("NO_COLOR") != "" {
			noColor = true
		}
	},
	RunE: runRoot,
}

func init() {
	rootCmd.Flags().Bool("init", false, "initialize a new chat session and print the result as JSON")
	rootCmd.Flags().String("chat", "", "run one chat turn for a JSON payload {message, context}; '-' reads it from stdin")
	rootCmd.MarkFlagsMutuallyExclusive("init", "chat")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			printError("error: %v", err)
		}
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	initMode, _ := cmd.Flags().GetBool("init")
	chatPayload, _ := cmd.Flags().GetString("chat")

	switch {
	case initMode:
		return runInit(cmd.Context(), cmd.OutOrStdout())
	case cmd.Flags().Changed("chat"):
		return runChat(cmd.Context(), chatPayload, cmd.InOrStdin(), cmd.OutOrStdout())
	default:
		return runServer(cmd.Context())
	}
}

// setupLogging installs a text slog handler on stderr. stdout is reserved
// for JSON results.
func setupLogging(level string) {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}
