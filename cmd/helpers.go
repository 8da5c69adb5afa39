package cmd

import (
	"fmt"
	"strings"

	cfgpkg "github.com/KaramelBytes/orderlens-cli/internal/config"
	"github.com/KaramelBytes/orderlens-cli/internal/dataset"
	"github.com/KaramelBytes/orderlens-cli/internal/merge"
	"github.com/KaramelBytes/orderlens-cli/internal/utils"
	"github.com/spf13/cobra"
)

// settings returns the loaded config, loading it on demand.
func settings() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}

func dataPath() (string, error) {
	p := settings().DataPath
	if p == "" {
		p = merge.DefaultOutputName
	}
	return utils.ExpandHome(p)
}

func delimiter() (rune, error) {
	return cfgpkg.ParseDelimiter(settings().Delimiter)
}

// loadTable reads the merged dataset named by --data or data_path.
func loadTable(cmd *cobra.Command) (*dataset.Table, error) {
	path, err := dataPath()
	if err != nil {
		return nil, err
	}
	delim, err := delimiter()
	if err != nil {
		return nil, err
	}
	t, err := dataset.Load(path, delim)
	if err != nil {
		return nil, fmt.Errorf("load dataset (run 'orderlens merge' first?): %w", err)
	}
	debugf(cmd, "loaded %s: %d rows", path, t.Len())
	return t, nil
}

func topN(flag int) int {
	if flag > 0 {
		return flag
	}
	return settings().TopN
}

func checkFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", "markdown", "md":
		return "markdown", nil
	case "json":
		return "json", nil
	default:
		return "", fmt.Errorf("unsupported --format: %s (use markdown|json)", format)
	}
}

// emit renders v as JSON or calls md for Markdown, then writes the result to
// output or stdout.
func emit(cmd *cobra.Command, format, output string, v any, md func() string) error {
	var body []byte
	if format == "json" {
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		body = append(b, '\n')
	} else {
		body = []byte(md())
	}
	if output != "" {
		if err := utils.SafeWriteFile(output, body); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s to %s\n", format, output)
		return nil
	}
	_, err := cmd.OutOrStdout().Write(body)
	return err
}
