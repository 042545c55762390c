package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/flemzord/dbset/internal/provision"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively write a starter configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			path := "dbset.yaml"
			dataDir := ".dbset"
			driver := "sqlite"
			withReplica := true

			drivers := make([]string, 0, 2)
			for _, b := range provision.Backends() {
				drivers = append(drivers, b.Driver)
			}

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Config file path").
						Value(&path),
					huh.NewSelect[string]().
						Title("Database driver").
						Options(huh.NewOptions(drivers...)...).
						Value(&driver),
					huh.NewInput().
						Title("Data directory").
						Value(&dataDir),
					huh.NewConfirm().
						Title("Add a replica alias mirroring default?").
						Value(&withReplica),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}

			if err := os.WriteFile(path, starterConfig(driver, dataDir, withReplica), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
}

func starterConfig(driver, dataDir string, withReplica bool) []byte {
	var buf bytes.Buffer
	buf.WriteString("version: \"1\"\n\n")
	fmt.Fprintf(&buf, "provisioner:\n  data_dir: %s\n\n", dataDir)
	buf.WriteString("databases:\n")
	fmt.Fprintf(&buf, "  default:\n    driver: %s\n", driver)
	if withReplica {
		buf.WriteString("  replica:\n    mirror: default\n")
	}
	return buf.Bytes()
}
