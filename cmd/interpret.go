package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/biocache/opdk/ingest"
	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"
)

// InterpretMain is wrapped by NewInterpretCommand and only exported for
// testing purposes.
var InterpretMain *ingest.Main

// NewInterpretCommand returns a new cobra command wrapping InterpretMain.
func NewInterpretCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	InterpretMain = ingest.NewMain()
	interpretCommand := &cobra.Command{
		Use:   "interpret",
		Short: "interpret verbatim occurrence records into typed records with issues",
		Long: `Reads verbatim records from a file, csv, S3, Kafka, NATS or http source,
interprets every requested aspect, and writes the results as Avro object
container files (one per aspect) or JSON lines.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return InterpretMain.RunContext(ctx)
		},
	}
	flags := interpretCommand.Flags()
	err := commandeer.Flags(flags, InterpretMain)
	if err != nil {
		panic(err)
	}
	return interpretCommand
}

func init() {
	subcommandFns["interpret"] = NewInterpretCommand
}
