package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/mcb/internal/formatter"
	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/queue"
	"github.com/desertthunder/mcb/internal/shared"
	"github.com/desertthunder/mcb/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistLoad fetches a remote playlist, reconciles it against the local catalog and queues the known tracks.
func (r *Runner) PlaylistLoad(ctx context.Context, cmd *cli.Command) error {
	url, err := requireArg(cmd, "url")
	if err != nil {
		return err
	}
	id, err := tasks.ParsePlaylistURL(url)
	if err != nil {
		return err
	}

	e, err := r.open()
	if err != nil {
		return err
	}
	defer e.Close()

	progress := make(chan tasks.ProgressUpdate, 16)
	done := r.printProgress(progress)

	result, err := e.engine.LoadRemote(ctx, progress, r.remote, id)
	if err == nil && cmd.String("save") != "" {
		_, err = e.engine.SavePlaylist(progress, cmd.String("save"))
	}
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("✓ Loaded %d tracks (%d not in catalog)\n", len(result.Loaded), len(result.Skipped))
	return r.writeQueue(e.player, id, cmd)
}

// PlaylistList prints every saved playlist.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	e, err := r.open()
	if err != nil {
		return err
	}
	defer e.Close()

	playlists, err := e.playlists.List()
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		r.writePlain("No saved playlists\n")
		return nil
	}

	rows := models.RowSet{{"Name", "Tracks", "ID"}}
	for _, p := range playlists {
		rows = append(rows, []string{p.Name(), strconv.Itoa(len(p.TrackIDs())), p.ID()})
	}
	return formatter.WriteRows(r.output, rows, formatter.Table)
}

// PlaylistPlay loads a saved playlist into the queue and walks it with the --moves sequence.
func (r *Runner) PlaylistPlay(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	e, err := r.open()
	if err != nil {
		return err
	}
	defer e.Close()

	result, err := e.engine.LoadSaved(nil, name)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("no saved playlist named %q: %w", name, err)
		}
		return err
	}
	if len(result.Skipped) > 0 {
		r.writePlain("⚠ %d tracks are no longer in the catalog\n", len(result.Skipped))
	}

	return r.playQueue(e.player, name, cmd)
}

// RemoteList prints the playlists of the signed-in account.
func (r *Runner) RemoteList(ctx context.Context, cmd *cli.Command) error {
	playlists, err := r.remote.Playlists(ctx)
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		r.writePlain("No playlists on this account\n")
		return nil
	}

	rows := models.RowSet{{"Name", "Tracks", "Public", "ID"}}
	for _, p := range playlists {
		rows = append(rows, []string{p.Name, strconv.Itoa(len(p.TrackIDs)), strconv.FormatBool(p.Public), p.ID})
	}
	return formatter.WriteRows(r.output, rows, formatter.Table)
}

// RemoteSave queues the saved playlist named by --from and uploads that queue to the account.
func (r *Runner) RemoteSave(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	from := cmd.String("from")
	if from == "" {
		return fmt.Errorf("%w: --from", shared.ErrMissingArgument)
	}

	e, err := r.open()
	if err != nil {
		return err
	}
	defer e.Close()

	if _, err := e.engine.LoadSaved(nil, from); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("no saved playlist named %q: %w", from, err)
		}
		return err
	}

	saved, err := e.engine.UploadQueue(ctx, r.remote, name, cmd.Bool("public"))
	if err != nil {
		return err
	}
	r.writePlain("✓ Saved %d tracks to %q (%s)\n", len(saved.TrackIDs), saved.Name, saved.ID)
	return nil
}

// RemoteRename renames an account playlist and, with --public, sets its visibility.
func (r *Runner) RemoteRename(ctx context.Context, cmd *cli.Command) error {
	ref, err := requireArg(cmd, "playlist")
	if err != nil {
		return err
	}
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	p, err := tasks.FindRemote(ctx, r.remote, ref)
	if err != nil {
		return err
	}
	edit := models.PlaylistEdit{Name: &name}
	if cmd.IsSet("public") {
		public := cmd.Bool("public")
		edit.Public = &public
	}
	if err := r.remote.EditPlaylist(ctx, p.ID, edit); err != nil {
		return err
	}
	r.writePlain("✓ Renamed %q to %q\n", p.Name, name)
	return nil
}

// RemoteDelete removes an account playlist.
func (r *Runner) RemoteDelete(ctx context.Context, cmd *cli.Command) error {
	ref, err := requireArg(cmd, "playlist")
	if err != nil {
		return err
	}

	p, err := tasks.FindRemote(ctx, r.remote, ref)
	if err != nil {
		return err
	}
	if err := r.remote.EditPlaylist(ctx, p.ID, models.PlaylistEdit{Deleted: true}); err != nil {
		return err
	}
	r.writePlain("✓ Deleted %q\n", p.Name)
	return nil
}

// QueuePlay queues the local catalog and walks it with the --moves sequence.
func (r *Runner) QueuePlay(ctx context.Context, cmd *cli.Command) error {
	e, err := r.open()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.catalog.Load(); err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	tracks := e.catalog.Tracks()
	if limit := int(cmd.Int("limit")); limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	if !e.player.PlayTracks(tracks) {
		return fmt.Errorf("%w: the catalog is empty, run 'mcb catalog sync' first", shared.ErrQueueEmpty)
	}

	return r.playQueue(e.player, "Catalog", cmd)
}

func (r *Runner) playQueue(player *queue.Player, name string, cmd *cli.Command) error {
	player.Queue().SetShuffle(cmd.Bool("shuffle"))
	player.Queue().SetRepeat(cmd.Bool("repeat"))

	if err := r.walk(player, cmd.String("moves")); err != nil {
		return err
	}
	return r.writeQueue(player, name, cmd)
}

// walk applies moves to player: 'n' plays the next track and 'p' goes back. A move with nowhere to go is reported
// and leaves playback unchanged.
func (r *Runner) walk(player *queue.Player, moves string) error {
	for i, move := range moves {
		var (
			t  models.Track
			ok bool
		)
		switch move {
		case 'n':
			t, ok = player.Next()
		case 'p':
			t, ok = player.Previous()
		default:
			return fmt.Errorf("%w: move %d is %q, want 'n' or 'p'", shared.ErrInvalidArgument, i+1, move)
		}

		if !ok {
			r.writePlain("%c  (nothing to play)\n", move)
			continue
		}
		r.writePlain("%c  ▶ %s\n", move, t)
	}
	return nil
}

func (r *Runner) writeQueue(player *queue.Player, name string, cmd *cli.Command) error {
	q := player.Queue()
	current, ok := q.CurrentIndex()
	if !ok {
		current = -1
	}

	if path := cmd.String("output"); path != "" {
		format, err := formatter.WriteFile(path, name, q.Tracks())
		if err != nil {
			return err
		}
		r.writePlain("✓ Queue written to %s (%s)\n", path, format)
		return nil
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	return formatter.WriteTracks(r.output, name, q.Tracks(), current, format)
}
