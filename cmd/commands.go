package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"mixergy_bridge/internal/service"
	"mixergy_bridge/internal/tank"
)

var (
	outputFormat string
	cmdTimeout   time.Duration
)

var errUnknownFormat = errors.New("unknown format")

func init() {
	for _, c := range []*cobra.Command{tanksCmd, stateCmd} {
		c.Flags().StringVarP(&outputFormat, "format", "o", "table", "Output format (table, json, yaml)")
		c.Flags().DurationVar(&cmdTimeout, "timeout", 2*time.Minute, "Give up after this long")
	}

	rootCmd.AddCommand(tanksCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(versionCmd)
}

var tanksCmd = &cobra.Command{
	Use:   "tanks",
	Short: "List the tanks visible to the Mixergy account",
	Example: `  # Find the serial number to put in mixergy.serial_number
  mixergy-bridge tanks`,
	RunE: runTanks,
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Fetch and print the current tank state",
	Example: `  mixergy-bridge state
  mixergy-bridge state -o json`,
	RunE: runState,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash a password for auth.password_hash",
	Long: `Reads a password from the terminal (or stdin when piped) and prints the
bcrypt hash to put in auth.password_hash.`,
	RunE: runHashPassword,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mixergy-bridge %s (commit: %s)\n", version, commit)
	},
}

// newTankClient builds a client from the config without any sinks.
func newTankClient() (*tank.Client, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Mixergy.Username == "" || cfg.Mixergy.Password == "" {
		return nil, fmt.Errorf("mixergy.username and mixergy.password are required")
	}
	return tank.NewClient(cfg.TankConfig(log)), nil
}

func runTanks(cmd *cobra.Command, args []string) error {
	client, err := newTankClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cmdTimeout)
	defer cancel()

	tanks, err := client.ListTanks(ctx)
	if err != nil {
		return fmt.Errorf("list tanks: %w", err)
	}
	return render(cmd.OutOrStdout(), tanks, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "SERIAL\tMODEL\tFIRMWARE")
		for _, t := range tanks {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.SerialNumber, t.ModelCode, t.FirmwareVersion)
		}
	})
}

func runState(cmd *cobra.Command, args []string) error {
	client, err := newTankClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cmdTimeout)
	defer cancel()

	if err := client.ResolveResources(ctx); err != nil {
		return fmt.Errorf("resolve tank: %w", err)
	}
	client.FetchAll(ctx)

	snap, err := service.NewMonitoringService(client).GetState(ctx)
	if err != nil {
		return err
	}
	st := snap.State
	return render(cmd.OutOrStdout(), snap, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Tank:\t%s (%s)\n", snap.Info.SerialNumber, snap.Info.ModelCode)
		fmt.Fprintf(w, "Charge:\t%.1f%% (target %.0f%%)\n", st.Charge, st.TargetCharge)
		fmt.Fprintf(w, "Hot water:\t%.1f °C\n", st.HotWaterTemperature)
		fmt.Fprintf(w, "Coldest water:\t%.1f °C\n", st.ColdestWaterTemperature)
		fmt.Fprintf(w, "Target temperature:\t%.0f °C\n", st.TargetTemperature)
		fmt.Fprintf(w, "Heat source:\t%s\n", heatSource(st.ElectricHeatSource, st.IndirectHeatSource, st.HeatpumpHeatSource))
		fmt.Fprintf(w, "Holiday mode:\t%t\n", st.InHolidayMode)
		if snap.HolidayStart != nil && snap.HolidayEnd != nil {
			fmt.Fprintf(w, "Holiday:\t%s to %s\n", snap.HolidayStart.Format(time.DateOnly), snap.HolidayEnd.Format(time.DateOnly))
		}
		if snap.Info.HasPVDiverter {
			fmt.Fprintf(w, "PV power:\t%.2f kW\n", st.PVPower)
			fmt.Fprintf(w, "Clamp power:\t%.0f W\n", st.ClampPower)
		}
		fmt.Fprintf(w, "Updated:\t%s\n", st.UpdatedAt.Format(time.RFC3339))
	})
}

func heatSource(electric, indirect, heatpump bool) string {
	var on []string
	if electric {
		on = append(on, "electric")
	}
	if indirect {
		on = append(on, "indirect")
	}
	if heatpump {
		on = append(on, "heatpump")
	}
	if len(on) == 0 {
		return "none"
	}
	return strings.Join(on, ", ")
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

// render writes v in the selected format; table uses the given writer func.
func render(out io.Writer, v any, table func(w *tabwriter.Writer)) error {
	switch outputFormat {
	case "", "table":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		table(w)
		return w.Flush()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		return writeYAML(out, v)
	default:
		return fmt.Errorf("%w %q", errUnknownFormat, outputFormat)
	}
}

// writeYAML round-trips v through JSON so the output keys match the API.
func writeYAML(out io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}
