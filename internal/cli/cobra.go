package cli

import (
	"fmt"
	"log/slog"
	"os"

	"starpick/internal/session"
	"starpick/internal/version"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root Cobra command.
func NewRootCmd(log *slog.Logger) *cobra.Command {
	var (
		settingsPath string
		dbPath       string
	)

	rootCmd := &cobra.Command{
		Use:   "starpick",
		Short: "Starpick measures source positions in astronomical images",
		Long: `Starpick places a centering region on an image, finds the source inside it
with a peak search or 2D Gaussian fit, and collects the measured pixel and
sky positions into an astrometric report.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", session.SettingsPath(), "settings file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", DefaultDBPath(), "measurement archive (empty to disable)")

	newRoot := func() *Root {
		settings := session.LoadSettings(settingsPath)
		settings.ApplyEnv()
		return NewRoot(settings, dbPath, log)
	}

	rootCmd.AddCommand(newMeasureCmd(newRoot))
	rootCmd.AddCommand(newReportCmd(newRoot))
	rootCmd.AddCommand(newConfigCmd(newRoot, &settingsPath))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newMeasureCmd(newRoot func() *Root) *cobra.Command {
	var (
		x, y          float64
		method        string
		regionType    string
		width, height float64
		target        string
		date          string
		location      string
		output        string
	)

	cmd := &cobra.Command{
		Use:   "measure <image> --x <px> --y <px>",
		Short: "Measure the source near a position in an image",
		Long: `Place a centering region at the given pixel position, centroid the source
inside it, and print the measured pixel and sky coordinates. The measurement
is stored in the archive and can additionally be written to an ECSV report.

Examples:
  starpick measure comet.tiff --x 512 --y 384
  starpick measure comet.tiff --x 512 --y 384 --method peak --width 15
  starpick measure comet.tiff --x 512 --y 384 --target 2P --report out.ecsv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := newRoot()
			if method != "" {
				root.settings.CenteringMethod = method
			}
			if regionType != "" {
				root.settings.RegionType = regionType
			}
			if width > 0 {
				root.settings.RegionWidth = width
			}
			if height > 0 {
				root.settings.RegionHeight = height
			}

			store, err := root.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			sess, err := root.newSession(args[0], store)
			if err != nil {
				return err
			}
			defer sess.CloseRegion()

			if target != "" {
				sess.SetTarget(target)
			}
			if date != "" {
				sess.SetDate(date)
			}
			if location != "" {
				sess.SetLocation(location)
			}

			if err := sess.PlaceRegion(x, y); err != nil {
				return err
			}

			m := sess.Measurement()
			if !m.HasPixel {
				return fmt.Errorf("no source measured at (%.1f, %.1f)", x, y)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "x=%.3f y=%.3f value=%.6g\n", m.X, m.Y, m.Value)
			if m.HasSky {
				fmt.Fprintf(cmd.OutOrStdout(), "ra=%.6f dec=%.6f\n", m.RA, m.Dec)
			}

			if err := sess.AddToReport(); err != nil {
				return err
			}
			if output != "" {
				return sess.Report().Save(output)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&x, "x", 0, "x pixel coordinate of the region center")
	cmd.Flags().Float64Var(&y, "y", 0, "y pixel coordinate of the region center")
	cmd.Flags().StringVar(&method, "method", "", "centroid method (none|peak|\"2D Gaussian\"), settings default if empty")
	cmd.Flags().StringVar(&regionType, "shape", "", "region shape (box|squarebox|rectangle|circle|ellipse)")
	cmd.Flags().Float64Var(&width, "width", 0, "region width in pixels")
	cmd.Flags().Float64Var(&height, "height", 0, "region height in pixels")
	cmd.Flags().StringVar(&target, "target", "", "target name (autofilled from the header if empty)")
	cmd.Flags().StringVar(&date, "date", "", "observation date (autofilled from the header if empty)")
	cmd.Flags().StringVar(&location, "location", "", "observer location")
	cmd.Flags().StringVarP(&output, "report", "o", "", "also write the report to this ECSV file")
	cmd.MarkFlagRequired("x")
	cmd.MarkFlagRequired("y")

	return cmd
}

func newReportCmd(newRoot func() *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Manage the archived measurement report",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "List archived measurements",
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := newRoot().archivedReport()
			if err != nil {
				return err
			}
			for _, row := range rep.Rows() {
				if row.HasSky {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  x=%.3f y=%.3f ra=%.6f dec=%.6f\n",
						row.Name, row.Target, row.X, row.Y, row.RA, row.Dec)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  x=%.3f y=%.3f\n",
						row.Name, row.Target, row.X, row.Y)
				}
			}
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <output.ecsv>",
		Short: "Write archived measurements to an ECSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := newRoot().archivedReport()
			if err != nil {
				return err
			}
			return rep.Save(args[0])
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all archived measurements",
		RunE: func(cmd *cobra.Command, args []string) error {
			root := newRoot()
			store, err := root.openStore()
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("no archive configured")
			}
			defer store.Close()
			return store.Clear()
		},
	}

	cmd.AddCommand(showCmd, exportCmd, clearCmd)
	return cmd
}

func newConfigCmd(newRoot func() *Root, settingsPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage settings",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newRoot().settings
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Settings file:    %s\n", *settingsPath)
			fmt.Fprintf(out, "Region type:      %s\n", s.RegionType)
			fmt.Fprintf(out, "Region color:     %s\n", s.RegionColor)
			fmt.Fprintf(out, "Region size:      %.0fx%.0f\n", s.RegionWidth, s.RegionHeight)
			fmt.Fprintf(out, "Max region size:  %d\n", s.MaxRegionSize)
			fmt.Fprintf(out, "Centering method: %s\n", s.CenteringMethod)
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(*settingsPath); err == nil {
				return fmt.Errorf("%s already exists", *settingsPath)
			}
			return session.DefaultSettings().Save(*settingsPath)
		},
	}

	cmd.AddCommand(showCmd, initCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "starpick %s (%s, built %s)\n",
				version.Version, version.GitCommit, version.BuildTime)
		},
	}
}
