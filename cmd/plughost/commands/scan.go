package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/justyntemme/plughost/internal/printer"
	"github.com/justyntemme/plughost/pkg/adapter"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List plugins under the search paths",
	Long: `List every plugin file under the search paths of each registered format.

Search paths come from the paths section of the configuration and from --path.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	total := 0
	for _, name := range e.Formats().Names() {
		format, _ := e.Formats().Get(name)
		paths := cfg.Paths[name]
		if len(paths) == 0 {
			printer.Warning("no search paths for %s\n", name)
			continue
		}

		found := adapter.Scan(format, paths)
		printer.Header("%s (%d)", name, len(found))
		for _, path := range found {
			label := path
			for _, root := range paths {
				if rel, err := filepath.Rel(root, path); err == nil && filepath.IsLocal(rel) {
					label = filepath.ToSlash(rel)
					break
				}
			}
			printer.Info("  %s\n", label)
		}
		total += len(found)
	}

	printer.Success("%d plugins found\n", total)
	return nil
}
