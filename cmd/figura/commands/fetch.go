package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tsawler/figura/cmd/figura/ui"
	"github.com/tsawler/figura/fetch"
	"github.com/tsawler/figura/format"
)

var (
	fetchOut   string
	fetchProbe bool
	assumeYes  bool
)

var errDeclined = errors.New("download declined")

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download a PDF and check that it can be read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]
		if !format.IsURL(url) {
			return fmt.Errorf("not an http(s) URL: %s", url)
		}
		f := cfg.Fetch.NewFetcher(logger)

		if fetchProbe {
			info, err := f.Probe(cmd.Context(), url)
			if err != nil {
				return err
			}
			ui.Row("URL", info.URL)
			describe(info)
			return nil
		}

		path, err := download(cmd.Context(), url, fetchOut)
		if err != nil {
			return err
		}
		ui.Success("Saved %s", path)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", ".", "directory to save into")
	fetchCmd.Flags().BoolVar(&fetchProbe, "probe", false, "only report type and size")
	fetchCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "download without asking")
	rootCmd.AddCommand(fetchCmd)
}

// download probes url, asks before fetching it when stdin is a terminal
// and --yes is unset, then fetches it into dir behind a spinner and
// returns the path. A server that names another format stops it early.
func download(ctx context.Context, url, dir string) (string, error) {
	f := cfg.Fetch.NewFetcher(logger)

	info, err := f.Probe(ctx, url)
	switch {
	case errors.Is(err, fetch.ErrNotPDF):
		describe(info)
		return "", err
	case err != nil:
		ui.Warning("Could not inspect %s: %v", url, err)
	default:
		describe(info)
	}

	if !assumeYes && ui.Interactive() {
		ok, err := ui.Confirm("Download " + url + "?")
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errDeclined
		}
	}

	spin := ui.NewSpinner("Downloading " + url)
	spin.Start()
	info, err = f.Download(ctx, url, dir)
	spin.Stop()
	if err != nil {
		return "", err
	}
	ui.Success("Downloaded %s (%s, %s)", filepath.Base(info.Path), info.HumanSize, plural(info.Pages, "page"))
	return info.Path, nil
}

func describe(info *fetch.Info) {
	if info == nil {
		return
	}
	ct := info.ContentType
	if ct == "" {
		ct = "not given"
	}
	ui.Row("Content type", ct)
	ui.Row("Size", info.HumanSize)
	if info.Unverified {
		ui.Warning("The server did not say this is a PDF; the body will be checked")
	}
}
