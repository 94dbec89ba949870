package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/instrumentdb/insdb/internal/cli/ui"
	"github.com/instrumentdb/insdb/pkg/insdb"
)

var queryDownload string

var queryCmd = &cobra.Command{
	Use:   "query <identifier>",
	Short: "Resolve an identifier and print the record it names",
	Long: `Resolve an identifier against the database and print the matching
record. The identifier can be a bare UUID, a typed path such as
/quantities/<uuid>, a release path such as /releases/<tag>/<path>, or an
entity or quantity path such as /LFI/frequency_030_ghz.

When the identifier resolves to a data file, --download saves its content
to the given path.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDatabase(ctx)
		if err != nil {
			return err
		}

		obj, err := insdb.Query(ctx, db, args[0], false)
		if err != nil {
			return err
		}

		switch rec := obj.(type) {
		case *insdb.FormatSpecification:
			printFormatSpec(rec)
		case *insdb.Entity:
			printEntityRecord(rec)
		case *insdb.Quantity:
			printQuantity(rec)
		case *insdb.DataFile:
			printDataFile(rec)
			if queryDownload != "" {
				if err := downloadDataFile(cmd, db, rec); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("unexpected record type %T", obj)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryDownload, "download", "", "save the data file content to this path")
}

func printFormatSpec(spec *insdb.FormatSpecification) {
	fmt.Printf("Format specification %s\n", uuidColor.Sprint(spec.UUID))

	table := ui.NewKeyValueTable(os.Stdout, false)
	table.AddRow("Document ref", spec.DocumentRef)
	table.AddRow("Title", spec.Title)
	table.AddRow("Doc MIME type", spec.DocMIMEType)
	table.AddRow("File MIME type", spec.FileMIMEType)
	table.Render()
}

func printEntityRecord(entity *insdb.Entity) {
	fmt.Printf("Entity %s  %s\n", entityColor.Sprint(entity.Name), uuidColor.Sprint(entity.UUID))

	table := ui.NewKeyValueTable(os.Stdout, false)
	if entity.FullPath != "" {
		table.AddRow("Path", entity.FullPath)
	}
	table.AddRow("Quantities", fmt.Sprint(len(entity.Quantities)))
	table.Render()
}

func printQuantity(quantity *insdb.Quantity) {
	fmt.Printf("Quantity %s  %s\n", quantityColor.Sprint(quantity.Name), uuidColor.Sprint(quantity.UUID))

	table := ui.NewKeyValueTable(os.Stdout, false)
	table.AddRow("Entity", quantity.Entity.String())
	table.AddRow("Format spec", quantity.FormatSpec.String())
	table.AddRow("Data files", fmt.Sprint(len(quantity.DataFiles)))
	table.Render()
}

func printDataFile(df *insdb.DataFile) {
	fmt.Printf("Data file %s  %s\n", dataFileColor.Sprint(df.Name), uuidColor.Sprint(df.UUID))

	table := ui.NewKeyValueTable(os.Stdout, false)
	table.AddRow("Upload date", df.UploadDate.Format("2006-01-02 15:04:05"))
	table.AddRow("Quantity", df.Quantity.String())
	if df.SpecVersion != "" {
		table.AddRow("Spec version", df.SpecVersion)
	}
	if df.Comment != "" {
		table.AddRow("Comment", df.Comment)
	}
	if tags := df.ReleaseTags.Sorted(); len(tags) > 0 {
		table.AddRow("Releases", strings.Join(tags, ", "))
	}
	table.Render()

	if len(df.Metadata) > 0 {
		fmt.Println("Metadata:")
		keys := make([]string, 0, len(df.Metadata))
		for key := range df.Metadata {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Printf("  %s: %v\n", key, df.Metadata[key])
		}
	}
}

func downloadDataFile(cmd *cobra.Command, db insdb.Database, df *insdb.DataFile) error {
	reader, err := db.OpenDataFile(cmd.Context(), df)
	if err != nil {
		return fmt.Errorf("failed to open data file %s: %w", df.UUID, err)
	}
	defer reader.Close()

	out, err := os.Create(queryDownload)
	if err != nil {
		return err
	}
	defer out.Close()

	written, err := io.Copy(out, reader)
	if err != nil {
		return fmt.Errorf("failed to save data file: %w", err)
	}
	fmt.Printf("Saved %d bytes to %s\n", written, queryDownload)
	return nil
}
