// Command blocksql is a thin wrapper around the blocksql package: create
// a new database file, or open one and run statements against it. The
// interactive query experience itself lives outside this package — this
// binary is the external collaborator spec.md calls out, not a REPL.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arjadhav/blocksql"
	"github.com/arjadhav/blocksql/internal/catalog"
	"github.com/arjadhav/blocksql/internal/db"
	"github.com/arjadhav/blocksql/internal/rowcodec"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})

	root := &cobra.Command{
		Use:   "blocksql",
		Short: "A single-file embedded relational store",
	}
	root.PersistentFlags().String("file", "", "path to the database file")
	if err := viper.BindPFlag("file", root.PersistentFlags().Lookup("file")); err != nil {
		logger.Fatal("bind --file flag", "err", err)
	}

	root.AddCommand(newCreateCmd(logger))
	root.AddCommand(newExecCmd(logger))
	return root
}

func newCreateCmd(logger *log.Logger) *cobra.Command {
	var blockSizeExp uint8
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new, empty database file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("file")
			if path == "" {
				return fmt.Errorf("--file is required")
			}
			database, err := blocksql.Create(path, blockSizeExp, blocksql.WithLogger(logger))
			if err != nil {
				return err
			}
			return database.Close()
		},
	}
	cmd.Flags().Uint8Var(&blockSizeExp, "block-size-exp", db.DefaultBlockSizeExp, "log2 of the block size in bytes")
	return cmd
}

func newExecCmd(logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "exec [sql]",
		Short: "Run one or more ';'-terminated statements against an existing database file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("file")
			if path == "" {
				return fmt.Errorf("--file is required")
			}
			database, err := blocksql.Open(path, blocksql.WithLogger(logger))
			if err != nil {
				return err
			}
			defer database.Close()

			results, err := database.Execute(args[0])
			if err != nil {
				return err
			}
			for _, res := range results {
				if res.Rows == nil {
					continue
				}
				printResultSet(cmd, res.Rows)
			}
			return nil
		},
	}
}

func printResultSet(cmd *cobra.Command, rs *blocksql.ResultSet) {
	cols := rs.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		if c.Table != "" {
			names[i] = c.Table + "." + c.Name
		} else {
			names[i] = c.Name
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), names)
	for {
		ok, err := rs.Next()
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			return
		}
		if !ok {
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatRow(rs.Row()))
	}
}

func formatRow(row []rowcodec.Cell) []string {
	out := make([]string, len(row))
	for i, c := range row {
		switch c.Kind {
		case catalog.KindNumber:
			out[i] = fmt.Sprintf("%d", c.Number)
		case catalog.KindStr:
			out[i] = c.Str
		case catalog.KindBlob:
			out[i] = fmt.Sprintf("%x", c.Blob)
		}
	}
	return out
}
