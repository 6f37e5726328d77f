package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/justyntemme/plughost/internal/printer"
	"github.com/justyntemme/plughost/pkg/engine"
	"github.com/justyntemme/plughost/pkg/store"
)

const defaultPresetDB = "plughost.db"

var (
	presetDB       string
	presetSettings []string
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Save, load and list plugin presets",
	Long: `Manage the preset library, a SQLite database of plugin state blobs.

The database is taken from --db, then from preset_db in the configuration,
then defaults to plughost.db.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var presetSaveCmd = &cobra.Command{
	Use:   "save <plugin> <name>",
	Short: "Save a plugin's state as a preset",
	Args:  cobra.ExactArgs(2),
	RunE:  runPresetSave,
}

var presetLoadCmd = &cobra.Command{
	Use:   "load <plugin> <id>",
	Short: "Load a preset into a plugin and show the result",
	Args:  cobra.ExactArgs(2),
	RunE:  runPresetLoad,
}

var presetListCmd = &cobra.Command{
	Use:   "list [label]",
	Short: "List presets, optionally for one plugin label",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPresetList,
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetDelete,
}

func init() {
	presetCmd.PersistentFlags().StringVar(&presetDB, "db", "", "preset database path")
	presetSaveCmd.Flags().StringSliceVar(&presetSettings, "set", nil, "parameter value as id=value or name=value (repeatable)")

	presetCmd.AddCommand(presetSaveCmd, presetLoadCmd, presetListCmd, presetDeleteCmd)
	rootCmd.AddCommand(presetCmd)
}

func openStore(cfg *engine.Config) (*store.Store, error) {
	path := presetDB
	if path == "" {
		path = cfg.PresetDB
	}
	if path == "" {
		path = defaultPresetDB
	}

	s, err := store.New(path)
	if err != nil {
		return nil, printer.Error("cannot open preset database", err.Error(), nil)
	}
	return s, nil
}

func runPresetSave(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	inst, err := addPlugin(e, args[0])
	if err != nil {
		return err
	}
	if err := applySettings(inst, presetSettings); err != nil {
		return printer.Error("invalid --set", err.Error(), []string{"Run 'plughost info' to list parameter ids"})
	}

	blob, err := inst.Chunk()
	if err != nil {
		return printer.Error("cannot save plugin state", err.Error(), []string{"Check that the plugin supports state chunks"})
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	p := &store.Preset{PluginLabel: inst.Label(), Name: args[1], Blob: blob}
	if err := s.Save(p); err != nil {
		return err
	}

	printer.Success("saved %q for %s as %s\n", p.Name, p.PluginLabel, p.ID)
	return nil
}

func runPresetLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.Get(args[1])
	if errors.Is(err, store.ErrNotFound) {
		return printer.Error(fmt.Sprintf("preset %s not found", args[1]), "", []string{"Run 'plughost preset list' to see the presets"})
	}
	if err != nil {
		return err
	}

	e, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	inst, err := addPlugin(e, args[0])
	if err != nil {
		return err
	}
	if p.PluginLabel != inst.Label() {
		printer.Warning("preset was saved for %s, loading into %s\n", p.PluginLabel, inst.Label())
	}

	if err := inst.SetChunk(p.Blob); err != nil {
		return printer.Error("plugin rejected the preset", err.Error(), nil)
	}

	printer.Success("loaded %q into %s\n", p.Name, inst.Name())
	for _, param := range inst.Parameters() {
		printer.Field(param.Name, inst.ValueText(param.ID))
	}
	return nil
}

func runPresetList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	label := ""
	if len(args) == 1 {
		label = args[0]
	}

	presets, err := s.List(label)
	if err != nil {
		return err
	}
	if len(presets) == 0 {
		printer.Info("no presets\n")
		return nil
	}

	for _, p := range presets {
		printer.Info("%s  %-20s %-24s %s\n", p.ID, p.Name, p.PluginLabel, p.CreatedAt.Local().Format(time.DateTime))
	}
	return nil
}

func runPresetDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Delete(args[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return printer.Error(fmt.Sprintf("preset %s not found", args[0]), "", nil)
		}
		return err
	}

	printer.Success("deleted %s\n", args[0])
	return nil
}
