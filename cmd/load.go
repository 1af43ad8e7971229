package cmd

import (
	"io"
	"log"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/ingest"
	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"
)

// VocabularyMain is wrapped by NewImportVocabularyCommand and only exported
// for testing purposes.
var VocabularyMain *ingest.VocabularyMain

// NewImportVocabularyCommand returns a new cobra command wrapping
// VocabularyMain.
func NewImportVocabularyCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	VocabularyMain = ingest.NewVocabularyMain()
	VocabularyMain.Log = opdk.StdLogger{Logger: log.New(stderr, "", log.LstdFlags)}
	com := &cobra.Command{
		Use:   "import-vocabulary",
		Short: "import a JSON vocabulary export into a LevelDB vocabulary directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return VocabularyMain.Run()
		},
	}
	if err := commandeer.Flags(com.Flags(), VocabularyMain); err != nil {
		panic(err)
	}
	return com
}

// AttributionMain is wrapped by NewLoadAttributionCommand and only exported
// for testing purposes.
var AttributionMain *ingest.AttributionMain

// NewLoadAttributionCommand returns a new cobra command wrapping
// AttributionMain.
func NewLoadAttributionCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	AttributionMain = ingest.NewAttributionMain()
	AttributionMain.Log = opdk.StdLogger{Logger: log.New(stderr, "", log.LstdFlags)}
	com := &cobra.Command{
		Use:   "load-attribution",
		Short: "load dataset attribution records into a bolt file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return AttributionMain.Run()
		},
	}
	if err := commandeer.Flags(com.Flags(), AttributionMain); err != nil {
		panic(err)
	}
	return com
}

func init() {
	subcommandFns["import-vocabulary"] = NewImportVocabularyCommand
	subcommandFns["load-attribution"] = NewLoadAttributionCommand
}
