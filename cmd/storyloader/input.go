package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"storyloader/internal/config"
	"storyloader/internal/ingest"
)

// parseFlags are shared by parse and create.
type parseFlags struct {
	declaredType string
	name         string
	strict       bool
}

func (f *parseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.declaredType, "type", "", "Content type when the file name has no known extension (e.g. text/csv)")
	cmd.Flags().StringVar(&f.name, "name", "", "File name hint used for format detection when reading stdin")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Fail instead of treating unrecognised input as plain text")
}

// parseInput reads a file, or stdin for "-", and parses it.
func parseInput(cmd *cobra.Command, ctx *commandContext, path string, flags parseFlags) (ingest.Result, string, error) {
	opts := ctx.parseOptions(flags.declaredType, flags.strict)
	path = strings.TrimSpace(path)
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return ingest.Result{}, "", fmt.Errorf("read stdin: %w", err)
		}
		hint := strings.TrimSpace(flags.name)
		result, err := ingest.Parse(data, hint, opts)
		return result, firstNonEmpty(hint, "stdin"), err
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return ingest.Result{}, "", err
	}
	result, err := ingest.ParseFile(expanded, opts)
	return result, expanded, err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
