// Command molsieve is the command line for validating, screening and
// generating candidate molecules.
package main

import (
	"os"

	"github.com/turtacn/MolSieve/internal/config"
	"github.com/turtacn/MolSieve/internal/infrastructure/database/postgres"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/internal/interfaces/cli"
)

func main() {
	deps := cli.CommandDependencies{
		LocalBackend: cli.AppBackend,
		Migrator: func(cfg config.DatabaseConfig, log logging.Logger) cli.Migrator {
			return postgres.NewMigrator(cfg, log)
		},
	}
	if err := cli.Execute(deps); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
