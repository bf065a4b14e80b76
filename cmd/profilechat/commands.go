package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/profilechat/internal/api"
	"github.com/kalambet/profilechat/internal/config"
	"github.com/kalambet/profilechat/internal/session"
)

// --- --init ---

func runInit(ctx context.Context, out io.Writer) error {
	a, _, err := loadApp(true)
	if err != nil {
		writeResult(out, session.InitFailure(err))
		return errReported
	}
	defer a.Close()

	return initCommand(ctx, a.manager, out)
}

// initCommand prints the Init result and reports failure through the exit code.
func initCommand(ctx context.Context, svc api.Service, out io.Writer) error {
	res, err := svc.Init(ctx)
	writeResult(out, res)
	if err != nil {
		return errReported
	}
	return nil
}

// --- --chat ---

func runChat(ctx context.Context, payload string, stdin io.Reader, out io.Writer) error {
	req, err := parseChatPayload(payload, stdin)
	if err != nil {
		return reportChatError(out, err)
	}

	a, _, err := loadApp(true)
	if err != nil {
		return reportChatError(out, err)
	}
	defer a.Close()

	return chatCommand(ctx, a.manager, req, out)
}

// chatCommand prints the turn's result. A failed turn still exits 0; the
// failure is carried in the JSON.
func chatCommand(ctx context.Context, svc api.Service, req session.ChatRequest, out io.Writer) error {
	writeResult(out, svc.Chat(ctx, req.Message, req.Context))
	return nil
}

// chatErrorEnvelope is printed when --chat fails before a turn runs.
type chatErrorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// reportChatError prints {error:{message,type}} and sets exit code 1.
func reportChatError(out io.Writer, err error) error {
	var env chatErrorEnvelope
	env.Error.Message = err.Error()
	env.Error.Type = session.Classify(err)
	writeResult(out, env)
	return errReported
}

// parseChatPayload decodes the --chat argument. "-" reads the payload from stdin.
func parseChatPayload(payload string, stdin io.Reader) (session.ChatRequest, error) {
	if payload == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return session.ChatRequest{}, fmt.Errorf("%w: reading stdin: %v", session.ErrInvalidRequest, err)
		}
		payload = string(data)
	}
	if strings.TrimSpace(payload) == "" {
		return session.ChatRequest{}, fmt.Errorf("%w: empty chat payload", session.ErrInvalidRequest)
	}

	var req session.ChatRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return session.ChatRequest{}, fmt.Errorf("%w: decoding chat payload: %v", session.ErrInvalidRequest, err)
	}
	return req, nil
}

func writeResult(out io.Writer, v any) {
	if err := json.NewEncoder(out).Encode(v); err != nil {
		slog.Error("writing result", "error", err)
	}
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve init, chat and the user profile over MCP (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := loadApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		mcpSrv := api.NewMCPServer(a.manager, version)
		stdioSrv := server.NewStdioServer(mcpSrv)
		slog.Info("MCP server started (stdio transport)")
		if err := stdioSrv.Listen(cmd.Context(), os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP stdio server: %w", err)
		}
		return nil
	},
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Print the latest user profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := loadApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		p := a.manager.Profile()
		if p.IsEmpty() {
			printWarning("No profile yet; run profilechat --init after a few conversations")
		}
		fmt.Fprintln(cmd.OutOrStdout(), p.Indented())
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadLocal()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s  (%s)\n", colorize(colorBold, k.Key), k.Value, k.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Valid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		if key == "llm.api_key" {
			value = "(secret)"
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
