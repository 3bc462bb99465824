package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/muratoffalex/ytscribe/internal/app/di"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/pipeline"
	"github.com/muratoffalex/ytscribe/internal/transcript"
	"github.com/spf13/cobra"
)

var (
	getFormat string
	getLang   string
	getQuiet  bool
)

var getCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Print the transcript of one video to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := transcript.ParseVideoRef(args[0])
		if err != nil {
			return err
		}
		format, err := transcript.ParseFormat(getFormat)
		if err != nil {
			return err
		}

		cfg, l, err := loadConfig()
		if err != nil {
			return err
		}
		if getQuiet {
			l = logger.Noop{}
		}

		container, err := di.NewContainer(cfg, l)
		if err != nil {
			return err
		}
		defer container.Close()

		lang := getLang
		if lang == "" {
			lang = cfg.Global().Language
		}

		result, err := container.Orchestrator.Run(cmd.Context(), pipeline.Request{
			ID:       uuid.NewString(),
			Ref:      ref,
			Language: lang,
			Format:   format,
		})
		if err != nil {
			hint := container.Localizer.Hint("", transcript.HintFor(err))
			for _, a := range transcript.AttemptsOf(err) {
				l.WithFields(logger.Fields{
					"strategy": a.Strategy,
					"kind":     a.Kind,
					"steps":    len(a.Steps),
				}).Warn(a.Error)
			}
			return fmt.Errorf("%w\n%s", err, hint)
		}

		l.WithFields(logger.Fields{
			"video_id": result.VideoID,
			"source":   result.Source,
			"attempts": len(result.Attempts),
		}).Info("Transcript acquired")

		_, err = fmt.Fprint(cmd.OutOrStdout(), format.Render(result.Segments))
		if err == nil && format == transcript.FormatText {
			_, err = fmt.Fprintln(cmd.OutOrStdout())
		}
		return err
	},
}

func init() {
	getCmd.Flags().StringVarP(&getFormat, "format", "f", "txt", "Output format: txt or srt")
	getCmd.Flags().StringVarP(&getLang, "lang", "l", "", "Preferred caption language")
	getCmd.Flags().BoolVarP(&getQuiet, "quiet", "q", false, "Do not log progress to stderr")
}
