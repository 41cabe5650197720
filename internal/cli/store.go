package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/huddle-api/internal/models"
	"github.com/noah-isme/huddle-api/internal/repository"
	"github.com/noah-isme/huddle-api/internal/service"
	"github.com/noah-isme/huddle-api/migrations"
	"github.com/noah-isme/huddle-api/pkg/localstore"
)

func (a *App) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema to the configured database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer func() { _ = db.Close() }()

			applied, err := migrations.Apply(ctx, db, nil)
			for _, v := range applied {
				a.printf(colorGood, "applied %s\n", v)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				a.printf(colorMuted, "schema up to date\n")
			}
			return nil
		},
	}
}

func (a *App) snapshotCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Keep offline copies of meetings",
		Long: `Snapshots copy a meeting with its windows and responses into a local
SQLite file so overlaps can be inspected without the API database.`,
	}
	cmd.PersistentFlags().StringVar(&path, "store", "", "Local store path (defaults to LOCAL_STORE_PATH)")

	storePath := func() string {
		if path != "" {
			return path
		}
		return a.cfg.LocalStore.Path
	}

	save := &cobra.Command{
		Use:   "save <meeting-id>",
		Short: "Copy a meeting from the database into the local store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer func() { _ = db.Close() }()

			meetings := service.NewMeetingService(
				repository.NewMeetingRepository(db),
				repository.NewWindowRepository(db),
				repository.NewInviteeRepository(db),
				repository.NewResponseRepository(db),
				repository.NewLocationRepository(db),
				nil, nil, nil, service.MeetingServiceConfig{},
			)
			snapshot, err := meetings.Snapshot(ctx, args[0])
			if err != nil {
				return err
			}
			return a.withStore(storePath(), func(s *localstore.Store) error {
				if err := s.Save(ctx, args[0], *snapshot); err != nil {
					return err
				}
				a.printf(colorGood, "saved %q (%d windows, %d responses)\n", snapshot.Meeting.Title, len(snapshot.Windows), len(snapshot.Responses))
				return nil
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <meeting-id>",
		Short: "Print a stored meeting with recomputed overlaps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(storePath(), func(s *localstore.Store) error {
				snapshot, err := s.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				a.printSnapshot(snapshot)
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(storePath(), func(s *localstore.Store) error {
				entries, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					a.printf(colorMuted, "no snapshots\n")
					return nil
				}
				for _, e := range entries {
					fmt.Fprintf(a.out, "%s  %s  ", e.MeetingID, e.Title)
					a.printf(colorMuted, "%s\n", e.SavedAt.Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}

	cmd.AddCommand(save, show, list)
	return cmd
}

func (a *App) withStore(path string, fn func(*localstore.Store) error) error {
	store, err := a.openStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

func (a *App) printSnapshot(s *models.MeetingSnapshot) {
	a.printf(colorHeader, "=== %s ===\n", s.Meeting.Title)
	fmt.Fprintf(a.out, "status %s, slug %s, saved %s\n\n", s.Meeting.Status, s.Meeting.ShareSlug, s.SavedAt.Format("2006-01-02 15:04"))

	overlaps := make(map[string]models.OverlapResult)
	for _, o := range service.ComputeOverlaps(s.Windows, s.Responses) {
		overlaps[o.WindowID] = o
	}
	for _, w := range s.Windows {
		fmt.Fprintf(a.out, "%-16s %s-%s  ", w.DateLabel, w.StartTime, w.EndTime)
		if o, ok := overlaps[w.ID]; ok {
			a.printf(colorGood, "overlap %s-%s (%d min, %d responders)\n", o.OverlapStart, o.OverlapEnd, o.DurationMinutes, len(o.Responders))
		} else {
			a.printf(colorBad, "no overlap\n")
		}
		for _, r := range s.ResponsesFor(w.ID) {
			a.printf(colorMuted, "    %s %s-%s\n", r.ResponderName, r.StartTime, r.EndTime)
		}
	}
}
