package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/itinerary/internal/offline"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage offline cache versions",
}

var cacheLsCmd = &cobra.Command{
	Use:   "ls [name]",
	Short: "List cache versions, or the entries of one version",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheLs,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [name...]",
	Short: "Delete cache versions (all of them when no name is given)",
	RunE:  runCacheClear,
}

func init() {
	cacheClearCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	cacheCmd.AddCommand(cacheLsCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

type bucketSummary struct {
	name    string
	entries int
	size    int64
	newest  time.Time
}

func summarize(ctx context.Context, storage offline.Storage, name string) (bucketSummary, []*offline.Entry, error) {
	s := bucketSummary{name: name}
	b, err := storage.Open(ctx, name)
	if err != nil {
		return s, nil, err
	}
	keys, err := b.Keys(ctx)
	if err != nil {
		return s, nil, err
	}
	entries := make([]*offline.Entry, 0, len(keys))
	for _, k := range keys {
		e, err := b.Match(ctx, k)
		if err != nil {
			if errors.Is(err, offline.ErrNotFound) {
				continue
			}
			return s, nil, err
		}
		entries = append(entries, e)
		s.entries++
		s.size += int64(e.Size())
		if e.StoredAt.After(s.newest) {
			s.newest = e.StoredAt
		}
	}
	return s, entries, nil
}

func runCacheLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	storage, closer, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if len(args) == 1 {
		ok, err := storage.Has(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no cache named %q", args[0])
		}
		_, entries, err := summarize(ctx, storage, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "URL\tSTATUS\tSIZE\tSTORED")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", e.URL, e.Status, humanize.Bytes(uint64(e.Size())), humanize.Time(e.StoredAt))
		}
		return nil
	}

	names, err := storage.Names(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No caches.")
		return nil
	}
	current := offline.CacheName(cfg.Cache.Prefix, cfg.Cache.Version)
	fmt.Fprintln(tw, "NAME\tENTRIES\tSIZE\tUPDATED\t")
	for _, name := range names {
		s, _, err := summarize(ctx, storage, name)
		if err != nil {
			return err
		}
		marker := ""
		if name == current {
			marker = "(current)"
		}
		updated := "-"
		if !s.newest.IsZero() {
			updated = humanize.Time(s.newest)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", s.name, s.entries, humanize.Bytes(uint64(s.size)), updated, marker)
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	storage, closer, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	names := args
	if len(names) == 0 {
		names, err = storage.Names(ctx)
		if err != nil {
			return err
		}
	}
	if len(names) == 0 {
		fmt.Println("Nothing to clear.")
		return nil
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete %d cache(s)", len(names)),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			if errors.Is(err, promptui.ErrAbort) {
				fmt.Println("Aborted.")
				return nil
			}
			return err
		}
	}

	for _, name := range names {
		ok, err := storage.Delete(ctx, name)
		if err != nil {
			return fmt.Errorf("deleting %s: %w", name, err)
		}
		if ok {
			fmt.Printf("Deleted %s\n", name)
		} else {
			fmt.Fprintf(os.Stderr, "No cache named %s\n", name)
		}
	}
	return nil
}
