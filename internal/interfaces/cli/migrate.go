package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/MolSieve/pkg/errors"
)

// NewMigrateCmd manages the run store schema.
func NewMigrateCmd(factory MigratorFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the generation run database schema",
	}

	migrator := func(cmd *cobra.Command) (Migrator, error) {
		cc, err := GetCLIContext(cmd)
		if err != nil {
			return nil, err
		}
		if factory == nil {
			return nil, errors.New(errors.ErrCodeServiceUnavailable, "migrations are not available in this build")
		}
		if !cc.Config.Database.Enabled {
			return nil, errors.InvalidParam("database is disabled; set database.enabled")
		}
		return factory(cc.Config.Database, cc.Logger), nil
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migrator(cmd)
			if err != nil {
				return err
			}
			if err := m.Up(); err != nil {
				return err
			}
			PrintSuccess(cmd, "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return errors.InvalidParam("--steps must be at least 1")
			}
			m, err := migrator(cmd)
			if err != nil {
				return err
			}
			if err := m.Down(steps); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migrator(cmd)
			if err != nil {
				return err
			}
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			return PrintResult(cmd, map[string]interface{}{"version": v, "dirty": dirty})
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

//Personal.AI order the ending
