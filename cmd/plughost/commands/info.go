package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justyntemme/plughost/internal/printer"
	"github.com/justyntemme/plughost/pkg/framework/param"
	"github.com/justyntemme/plughost/pkg/framework/port"
	"github.com/justyntemme/plughost/pkg/plugin"
)

var infoCmd = &cobra.Command{
	Use:   "info <plugin>",
	Short: "Show a plugin's ports, parameters and programs",
	Long: `Load a plugin and print what the host sees: identity, latency, ports,
parameters with their ranges and current values, and programs.

<plugin> is a file path or a label relative to a search path.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
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

	printInfo(inst)
	return nil
}

func printInfo(inst *plugin.Instance) {
	printer.Header("%s", inst.Name())
	printer.Field("label", inst.Label())
	printer.Field("file", inst.Filename())
	printer.Field("format", inst.Format())
	printer.Field("maker", inst.Maker())
	printer.Field("category", inst.Category())
	printer.Field("latency", fmt.Sprintf("%d frames", inst.Latency()))
	printer.Field("options", strings.Join(inst.Options().Names(), ", "))

	printer.Header("Ports")
	for _, p := range inst.Ports().AudioIns() {
		printer.Info("  audio in  %d  %s\n", p.Index, p.Name)
	}
	for _, p := range inst.Ports().AudioOuts() {
		printer.Info("  audio out %d  %s\n", p.Index, p.Name)
	}
	if p, ok := inst.Ports().Get(port.KindEvent, port.DirectionInput, 0); ok {
		printer.Info("  event in     %s\n", p.Name)
	}
	if p, ok := inst.Ports().Get(port.KindEvent, port.DirectionOutput, 0); ok {
		printer.Info("  event out    %s\n", p.Name)
	}

	printer.Header("Parameters (%d)", inst.ParameterCount())
	for _, p := range inst.Parameters() {
		printer.Info("  %2d  %-20s %10s  [%s .. %s]%s\n",
			p.ID, p.Name, inst.ValueText(p.ID),
			param.FormatValue(p.Range.Min), param.FormatValue(p.Range.Max),
			scalePoints(inst, p.ID))
	}

	if n := inst.ProgramCount(); n > 0 {
		printer.Header("Programs (%d)", n)
		for k := 0; k < n; k++ {
			printer.Info("  %2d  %s\n", k, inst.ProgramName(k))
		}
	}
}

func scalePoints(inst *plugin.Instance, id int32) string {
	n := inst.ScalePointCount(id)
	if n == 0 {
		return ""
	}
	labels := make([]string, 0, n)
	for sp := 0; sp < n; sp++ {
		label, err := inst.ScalePointLabel(id, sp)
		if err != nil {
			break
		}
		labels = append(labels, label)
	}
	return " {" + strings.Join(labels, ", ") + "}"
}
