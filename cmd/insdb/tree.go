package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/instrumentdb/insdb/pkg/insdb"
	"github.com/instrumentdb/insdb/pkg/insdb/local"
)

var treeDataFiles bool

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the entity hierarchy of a local database",
	Long: `Walk a local database and print its entities as an indented tree,
with the quantities owned by each entity. Pass --data-files to list the
data files of every quantity as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		db, err := openLocal(logger)
		if err != nil {
			return err
		}

		idx := db.Index()
		for _, root := range idx.RootEntities() {
			printEntity(idx, root, 0)
		}
		return nil
	},
}

func init() {
	treeCmd.Flags().BoolVar(&treeDataFiles, "data-files", false, "list the data files of each quantity")
}

var (
	entityColor   = color.New(color.FgCyan, color.Bold)
	quantityColor = color.New(color.FgWhite)
	dataFileColor = color.New(color.FgGreen)
	uuidColor     = color.New(color.FgYellow)
)

func printEntity(idx *local.Index, entity *insdb.Entity, depth int) {
	indent := strings.Repeat("    ", depth)
	fmt.Printf("%s%s  %s\n", indent, entityColor.Sprint(entity.Name), uuidColor.Sprint(entity.UUID))

	for _, quantity := range idx.QuantitiesOf(entity) {
		fmt.Printf("%s    %s  %s\n", indent, quantityColor.Sprint(quantity.Name), uuidColor.Sprint(quantity.UUID))
		if treeDataFiles {
			for _, id := range quantity.DataFiles.Sorted() {
				df := idx.DataFiles[id]
				fmt.Printf("%s        %s  %s  %s\n",
					indent,
					df.UploadDate.Format("2006-01-02"),
					dataFileColor.Sprint(df.Name),
					uuidColor.Sprint(df.UUID))
			}
		}
	}

	for _, child := range idx.ChildEntities(entity.UUID) {
		printEntity(idx, child, depth+1)
	}
}
