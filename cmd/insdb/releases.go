package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/instrumentdb/insdb/internal/cli/ui"
	"github.com/instrumentdb/insdb/pkg/insdb"
)

var releasesCmd = &cobra.Command{
	Use:   "releases [tag]",
	Short: "List releases or show the content of one release",
	Long: `Without arguments, list the releases of a local database. With a tag,
show that release and the data files it contains; this form also works
against a remote server.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return showRelease(cmd, args[0])
		}
		return listReleases()
	},
}

func listReleases() error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	db, err := openLocal(logger)
	if err != nil {
		return err
	}

	idx := db.Index()
	tags := make([]string, 0, len(idx.Releases))
	for tag := range idx.Releases {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	table := ui.NewTable(os.Stdout, []string{"TAG", "DATE", "FILES", "COMMENT"}, false)
	for _, tag := range tags {
		release := idx.Releases[tag]
		table.AddRow(
			release.Tag,
			release.RelDate.Format("2006-01-02"),
			strconv.Itoa(len(release.DataFiles)),
			release.Comment,
		)
	}
	table.Render()
	return nil
}

func showRelease(cmd *cobra.Command, tag string) error {
	ctx := cmd.Context()
	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}

	release, err := db.QueryRelease(ctx, tag)
	if err != nil {
		return err
	}

	fmt.Printf("Release %s  %s\n", entityColor.Sprint(release.Tag), release.RelDate.Format("2006-01-02"))
	if release.Comment != "" {
		fmt.Printf("  %s\n", release.Comment)
	}
	for _, id := range release.DataFiles.Sorted() {
		df, err := insdb.QueryUUID(ctx, db, id, false)
		if err != nil {
			return err
		}
		fmt.Printf("  %s  %s  %s\n",
			df.UploadDate.Format("2006-01-02"),
			dataFileColor.Sprint(df.Name),
			uuidColor.Sprint(df.UUID))
	}
	return nil
}
