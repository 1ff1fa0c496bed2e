package main

import (
	"github.com/spf13/cobra"
)

const (
	groupNarrate = "narrate"
	groupManage  = "manage"
)

func newRootCommand() *cobra.Command {
	ctx := newCommandContext()

	root := &cobra.Command{
		Use:   "narrator",
		Short: "Narrate novels into audio with synchronized LRC subtitles",
		Long: "narrator splits novels into chapters, narrates them through an external\n" +
			"speech synthesizer and writes an .lrc subtitle file next to each audio file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}
	ctx.bindFlags(root)

	root.AddGroup(
		&cobra.Group{ID: groupNarrate, Title: "Narration:"},
		&cobra.Group{ID: groupManage, Title: "Setup and monitoring:"},
	)
	for _, cmd := range []*cobra.Command{
		newChaptersCommand(ctx),
		newQueueCommand(ctx),
		newConvertCommand(ctx),
		newAlignCommand(ctx),
	} {
		cmd.GroupID = groupNarrate
		root.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{
		newStatusCommand(ctx),
		newLogsCommand(ctx),
		newConfigCommand(ctx),
		newTestNotifyCommand(ctx),
	} {
		cmd.GroupID = groupManage
		root.AddCommand(cmd)
	}
	return root
}
