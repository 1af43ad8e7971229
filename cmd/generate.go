package cmd

import (
	"io"
	"log"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/kafkagen"
	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"
)

// GenerateMain is wrapped by NewGenerateCommand and only exported for
// testing purposes.
var GenerateMain *kafkagen.Main

// NewGenerateCommand returns a new cobra command wrapping GenerateMain.
func NewGenerateCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	GenerateMain = kafkagen.NewMain()
	GenerateMain.Out = stdout
	GenerateMain.Log = opdk.StdLogger{Logger: log.New(stderr, "", log.LstdFlags)}
	generateCommand := &cobra.Command{
		Use:   "generate",
		Short: "generate fake verbatim occurrence records",
		Long: `Generates plausible occurrence records, some with values the
interpreters will reject, and writes them as JSON lines or publishes them to
a Kafka topic or NATS subject.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return GenerateMain.Run()
		},
	}
	flags := generateCommand.Flags()
	err := commandeer.Flags(flags, GenerateMain)
	if err != nil {
		panic(err)
	}
	return generateCommand
}

func init() {
	subcommandFns["generate"] = NewGenerateCommand
}
