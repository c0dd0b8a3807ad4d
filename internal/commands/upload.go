package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"github.com/finchat-dev/finchat/internal/activitylog"
	"github.com/finchat-dev/finchat/internal/importer"
	"github.com/finchat-dev/finchat/internal/log"
	"github.com/finchat-dev/finchat/internal/render"
	"github.com/finchat-dev/finchat/internal/upload"
)

func newUploadCommand(flags *globalFlags) *cobra.Command {
	var all bool
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "upload [file...]",
		Short: "Upload ledger CSVs to the gateway",
		Long: "Upload ledger CSVs to the gateway. With --all every CSV in the import " +
			"directory is uploaded and moved to its processed/ subdirectory on success.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("pass either file paths or --all")
			}
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}

			var paths []string
			if all {
				files, err := importer.Scan(a.importDir())
				if err != nil {
					return err
				}
				for _, f := range files {
					paths = append(paths, f.Path)
				}
				if len(paths) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No CSV files in %s\n", a.importDir())
					return nil
				}
			} else {
				paths = args
			}

			return runUpload(cmd, a, paths, all, skipCheck)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "upload every CSV in the import directory")
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "do not check the CSV header before uploading")

	return cmd
}

func runUpload(cmd *cobra.Command, a *app, paths []string, markProcessed, skipCheck bool) error {
	out := cmd.OutOrStdout()
	tracker := a.dash.NewUploadTracker(upload.WithObserver(progressPrinter(out, a.renderer)))

	failed := 0
	for _, path := range paths {
		name := filepath.Base(path)
		session, err := uploadOne(cmd, a, tracker, path, skipCheck)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", name, err)
			a.recordActivity(activitylog.Entry{
				Action:  activitylog.ActionUpload,
				Subject: name,
				Details: err.Error(),
				Outcome: activitylog.OutcomeFailed,
			})
			continue
		}

		if session.Phase != upload.PhaseSucceeded {
			failed++
			a.recordActivity(activitylog.Entry{
				Action:  activitylog.ActionUpload,
				Subject: name,
				Details: session.ErrorMessage,
				Outcome: activitylog.OutcomeFailed,
			})
			continue
		}

		a.recordActivity(activitylog.Entry{
			Action:  activitylog.ActionUpload,
			Subject: name,
			Details: strconv.Itoa(session.Rows) + " rows imported",
			Outcome: activitylog.OutcomeOK,
		})
		if markProcessed {
			if err := importer.MarkProcessed(filepath.Dir(path), name); err != nil {
				a.logger.WithComponent(log.ComponentImporter).Warn("could not move uploaded file", log.FieldFile, name, log.FieldError, err)
			}
		}
	}

	if snap, ok := a.dash.Snapshot(); ok {
		fmt.Fprintln(out, a.renderer.NetPosition(snap.Net))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(paths))
	}
	return nil
}

func uploadOne(cmd *cobra.Command, a *app, tracker *upload.Tracker, path string, skipCheck bool) (upload.Session, error) {
	if err := importer.CheckName(path); err != nil {
		return upload.Session{}, err
	}
	if !skipCheck {
		ledger, err := importer.InspectFile(path)
		if err != nil {
			return upload.Session{}, err
		}
		if len(ledger.BadAmounts) > 0 {
			a.logger.WithComponent(log.ComponentImporter).Warn("rows with unreadable amounts will be dropped by the gateway",
				log.FieldFile, filepath.Base(path), log.FieldLines, ledger.BadAmounts)
		}
	}

	f, err := upload.OpenFile(path)
	if err != nil {
		return upload.Session{}, err
	}
	if err := tracker.Select(f); err != nil {
		return upload.Session{}, err
	}
	return tracker.Submit(cmd.Context())
}

// progressPrinter prints every phase change and each further 25% of progress.
func progressPrinter(out io.Writer, r *render.Renderer) func(upload.Session) {
	var mu sync.Mutex
	lastPhase := upload.Phase(-1)
	lastStep := -1
	return func(s upload.Session) {
		mu.Lock()
		defer mu.Unlock()
		step := -1
		if s.Phase == upload.PhaseInFlight && s.PercentKnown {
			step = s.Percent / 25
		}
		if s.Phase == lastPhase && step == lastStep {
			return
		}
		lastPhase, lastStep = s.Phase, step
		fmt.Fprintln(out, r.Upload(s))
	}
}
