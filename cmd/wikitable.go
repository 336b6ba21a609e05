package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wikiharvest/wikiharvest/internal/dataset"
	"github.com/wikiharvest/wikiharvest/internal/wikitext"
)

func newWikitableCmd() *cobra.Command {
	var (
		output       string
		caption      string
		defaultLimit int
		groupDecades bool
	)
	cmd := &cobra.Command{
		Use:   "wikitable <project> <combined.csv[:limit]> ...",
		Short: "Render combined datasets as MediaWiki tables",
		Long: `Renders one sortable wikitext table section per combined CSV, ready
to paste into a wiki page. The project name fills the quality-class template
on each row, for example "video game" yields
{{B-Class|category=Category:B-Class video game articles}}. Append :N to an
input path to cap its row count. With --group-decades, rows are bucketed by
the leading year of their provenance category into decade subsections.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWikitable(cmd, args[0], args[1:], wikitext.Options{
				WikiProject:  args[0],
				Caption:      caption,
				GroupDecades: groupDecades,
			}, defaultLimit, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "wikitable.txt",
		"output wikitext path")
	cmd.Flags().StringVar(&caption, "caption", "",
		"table caption (default a Category link placeholder)")
	cmd.Flags().IntVar(&defaultLimit, "default-limit", wikitext.DefaultLimit,
		"row cap for inputs without an explicit :limit")
	cmd.Flags().BoolVar(&groupDecades, "group-decades", false,
		"bucket rows into decade subsections by provenance category year")
	return cmd
}

func runWikitable(cmd *cobra.Command, project string, specs []string, opts wikitext.Options, defaultLimit int, output string) error {
	application, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	var (
		inputs    []wikitext.Input
		totalRows int
	)
	for _, spec := range specs {
		path, limit, err := wikitext.ParseSpec(spec, defaultLimit)
		if err != nil {
			return err
		}
		records, err := dataset.ReadCombined(path)
		if err != nil {
			return err
		}
		inputs = append(inputs, wikitext.Input{
			Section: sectionTitle(path),
			Limit:   limit,
			Records: records,
		})
		totalRows += len(records)
	}

	run, err := application.StartRun("wikitable")
	if err != nil {
		return err
	}
	err = func() error {
		text := wikitext.Render(inputs, opts)
		if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		if err := run.RecordOutput(output, totalRows); err != nil {
			return err
		}
		application.Logger().Info("wikitable rendered",
			zap.String("project", project),
			zap.Int("sections", len(inputs)),
			zap.String("output", output))
		return nil
	}()
	run.Finish(cmd.Context(), err)
	return err
}

// sectionTitle names a table section after its input file, extension
// dropped.
func sectionTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
