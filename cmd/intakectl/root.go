package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "intakectl",
		Short:         "Inspect complaint question payloads offline",
		Long:          "intakectl classifies and normalizes complaint question payloads with the same rules the intake service applies.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("data", "-", "Payload file to read, or - for stdin")

	root.AddCommand(newClassifyCmd())
	root.AddCommand(newNormalizeCmd())
	root.AddCommand(newTokenCmd())
	return root
}

// readPayload returns the --data file contents, or stdin when the flag is "-".
func readPayload(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("data")
	var (
		raw []byte
		err error
	)
	if path == "" || path == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read payload: %w", err)
	}
	return string(raw), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
