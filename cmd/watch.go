package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/pkgshape/internal/orchestrator"
	"github.com/conneroisu/pkgshape/internal/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:     "watch [package-dir]",
	Aliases: []string{"w"},
	Short:   "Resynthesize the development manifest on every source change",
	Long: `Watch the package's source directory and rerun development synthesis
whenever a source file changes. Changes arriving while a pass is running
coalesce into exactly one follow-up pass. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "quiet window before a change batch triggers a pass")
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pkgDir := "."
	if len(args) == 1 {
		pkgDir = args[0]
	}

	o := orchestrator.New(cfg, log)

	// Synthesize once up front so the manifest is correct before the first
	// change arrives.
	if err := o.Develop(pkgDir); err != nil {
		return err
	}

	serializer := watcher.NewSerializer(func() {
		if err := o.Develop(pkgDir); err != nil {
			log.Error(err, "resynthesis failed")
		}
	})

	fw, err := watcher.NewFileWatcher(watchDebounce, log)
	if err != nil {
		return err
	}
	defer fw.Stop()

	fw.AddFilter(watcher.SourceFilter(cfg))
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		log.Debug("source changed", "files", len(events))
		serializer.Trigger()

		return nil
	})

	if err := fw.AddRecursive(filepath.Join(pkgDir, cfg.Source.Dir)); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fw.Start(ctx)
	log.Info("watching for changes", "dir", filepath.Join(pkgDir, cfg.Source.Dir), "debounce", watchDebounce.String())

	<-ctx.Done()
	serializer.Wait()
	log.Info("stopped")

	return nil
}
