package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	datawiki "lorekeeper/app/internal/data/wiki"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the wiki document as JSON",
	Long: `Export writes every community's entries and aliases in the wiki document
layout {"entries": {...}, "aliases": {...}} to stdout or the --out file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		data, err := datawiki.MarshalDocument(a.result.Store.Snapshot())
		if err != nil {
			return eris.Wrap(err, "encoding wiki document")
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return eris.Wrapf(err, "writing %s", out)
		}

		a.logger.WithField("path", out).Info("wiki document exported")
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the wiki with a JSON document",
	Long: `Import reads a wiki document, including files written by earlier versions of
the bot, and replaces the contents of the configured backend with it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "reading %s", args[0])
		}

		doc, err := datawiki.UnmarshalDocument(data)
		if err != nil {
			return eris.Wrapf(err, "decoding %s", args[0])
		}

		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.result.Store.Replace(cmd.Context(), doc); err != nil {
			return eris.Wrap(err, "replacing wiki document")
		}

		entries := 0
		for _, community := range doc.Communities {
			entries += len(community.Entries)
		}
		a.logger.WithFields(logrus.Fields{
			"path":        args[0],
			"communities": len(doc.Communities),
			"entries":     entries,
		}).Info("wiki document imported")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "file to write instead of stdout")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
