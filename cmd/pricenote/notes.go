package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/use-agent/pricenote/notes"
)

func newNotesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Inspect and add knowledge base notes",
	}
	cmd.AddCommand(newNotesListCmd(a), newNotesAddCmd(a))
	return cmd
}

func newNotesListCmd(a *app) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := notes.Open(cmd.Context(), a.cfg.Notes.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(cmd.Context(), query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No notes found.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.AppendHeader(table.Row{"ID", "Title", "Tags", "Updated"})
			for _, n := range list {
				t.AppendRow(table.Row{n.ID, n.Title, n.Tags, n.UpdatedAt})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Only show notes whose title, content or tags contain this text")
	return cmd
}

func newNotesAddCmd(a *app) *cobra.Command {
	var title, content, tags string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := notes.Open(cmd.Context(), a.cfg.Notes.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Create(cmd.Context(), title, content, tags)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved note %d: %s\n", n.ID, n.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Note title")
	cmd.Flags().StringVar(&content, "content", "", "Note body")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}
