package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/mcb/internal/cache"
	"github.com/desertthunder/mcb/internal/formatter"
	"github.com/desertthunder/mcb/internal/models"
	"github.com/urfave/cli/v3"
)

// inspectDisk returns the row-set cache enabled regardless of config: the cache commands always act on the files.
func (r *Runner) inspectDisk() (*cache.Disk, error) {
	disk, err := r.disk()
	if err != nil {
		return nil, err
	}
	disk.SetEnabled(true)
	return disk, nil
}

// CacheList prints every cached source with its size and modification time.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	disk, err := r.inspectDisk()
	if err != nil {
		return err
	}

	keys, err := disk.Keys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		r.writePlain("No cached sources in %s\n", disk.Dir())
		return nil
	}

	rows := models.RowSet{{"Key", "Size", "Modified"}}
	for _, key := range keys {
		path, err := disk.Path(key)
		if err != nil {
			return err
		}
		info, err := os.Stat(path)
		if err != nil {
			r.logger.Warn("failed to stat cache entry", "key", key, "error", err)
			continue
		}
		rows = append(rows, []string{key, strconv.FormatInt(info.Size(), 10), info.ModTime().Format("2006-01-02 15:04:05")})
	}

	return formatter.WriteRows(r.output, rows, formatter.Table)
}

// CacheShow prints the row-set cached for a source.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	key, err := requireArg(cmd, "key")
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	disk, err := r.inspectDisk()
	if err != nil {
		return err
	}

	rows, err := disk.Read(key)
	if err != nil {
		return fmt.Errorf("failed to read cache entry %q: %w", key, err)
	}
	return formatter.WriteRows(r.output, rows, format)
}

// CacheClear deletes the cache entry for one source, or every entry with --all.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	disk, err := r.inspectDisk()
	if err != nil {
		return err
	}

	if cmd.Bool("all") {
		if err := disk.ClearAll(); err != nil {
			return err
		}
		r.writePlain("✓ Cleared every cached source\n")
		return nil
	}

	key, err := requireArg(cmd, "key")
	if err != nil {
		return err
	}
	if err := disk.Clear(key); err != nil {
		return fmt.Errorf("failed to clear cache entry %q: %w", key, err)
	}
	r.writePlain("✓ Cleared %s\n", key)
	return nil
}
