package cmd

import (
	"fmt"
	"io"

	"github.com/biocache/opdk/avro"
	"github.com/biocache/opdk/records"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewSchemaCommand returns a command printing the Avro schema of an aspect.
func NewSchemaCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:       "schema <aspect>",
		Short:     "print the Avro schema of the records of an aspect",
		Args:      cobra.ExactArgs(1),
		ValidArgs: aspectNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := records.ParseAspect(args[0])
			if err != nil {
				return err
			}
			schema, err := avro.Schema(a)
			if err != nil {
				return errors.Wrap(err, "building schema")
			}
			_, err = fmt.Fprintln(stdout, schema)
			return err
		},
	}
}

func aspectNames() []string {
	as := records.Aspects()
	ret := make([]string, len(as))
	for i, a := range as {
		ret[i] = a.String()
	}
	return ret
}

func init() {
	subcommandFns["schema"] = NewSchemaCommand
}
