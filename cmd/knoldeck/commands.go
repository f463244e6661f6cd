package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/importer"
	"github.com/conorfennell/knoldeck/internal/sm2"
	"github.com/conorfennell/knoldeck/internal/stats"
	"github.com/conorfennell/knoldeck/internal/sync"
	"github.com/spf13/cobra"
)

func syncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync every deck source once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := a.syncer(db).Run(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Synced %d sources: %d decks, %d new cards, %d cards removed, %d decks removed.\n",
				report.Sources, report.Decks, report.Cards, report.CardsRemoved, report.DecksRemoved)
			for _, e := range report.Errors {
				fmt.Fprintf(out, "- %s\n", e)
			}
			return nil
		},
	}
}

func sourceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage deck sources",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <path-or-git-url>",
		Short: "Add a local directory or git repository of markdown decks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			src, err := sync.AddSource(cmd.Context(), db, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s source %d: %s\n", src.Type, src.ID, src.Path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List deck sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			sources, err := db.GetAllSources(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tPATH\tLAST SCANNED")
			for _, s := range sources {
				scanned := "never"
				if s.LastScanned.Valid {
					scanned = s.LastScanned.Time.Format(time.DateTime)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, s.Type, s.Path, scanned)
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a source and the decks it produced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid source ID %q", args[0])
			}
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteSource(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed source %d\n", id)
			return nil
		},
	})

	return cmd
}

func importCmd(a *app) *cobra.Command {
	var deckName string
	opts := importer.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "import <file.xlsx|file.csv>",
		Short: "Import a spreadsheet as a new deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := importer.Import(args[0], opts)
			if err != nil {
				return err
			}

			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			deck := &domain.Deck{Name: deckName}
			for i := range result.Cards {
				deck.Cards = append(deck.Cards, &result.Cards[i])
			}
			if err := db.CreateDeck(cmd.Context(), deck); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created deck %s (%s) with %d cards, %d rows skipped.\n",
				deck.Name, deck.ID, len(deck.Cards), result.Skipped)
			for _, e := range result.Errors {
				fmt.Fprintf(out, "- %s\n", e)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&deckName, "deck", "", "name of the new deck")
	cmd.Flags().StringVar(&opts.SheetName, "sheet", opts.SheetName, "sheet to read (default: first sheet)")
	cmd.Flags().StringVar(&opts.FrontColumn, "front", opts.FrontColumn, "column holding card fronts")
	cmd.Flags().StringVar(&opts.BackColumn, "back", opts.BackColumn, "column holding card backs")
	cmd.Flags().StringVar(&opts.ContextColumn, "context", opts.ContextColumn, "column holding card context (empty to skip)")
	cmd.Flags().IntVar(&opts.StartRow, "start-row", opts.StartRow, "first row to import")
	_ = cmd.MarkFlagRequired("deck")
	return cmd
}

func dueCmd(a *app) *cobra.Command {
	var deckID string

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List the cards due for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			queue, err := a.sessions(db).Queue(cmd.Context(), deckID, a.cfg.Review.Limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DECK\tCARD\tFRONT")
			for _, dc := range queue {
				fmt.Fprintf(w, "%s\t%s\t%s\n", dc.DeckName, shortID(dc.Card.ID), firstLine(dc.Card.Front))
			}
			fmt.Fprintf(w, "\n%d cards due\n", len(queue))
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&deckID, "deck", "", "only this deck ID")
	return cmd
}

// reviewCmd runs an interactive review session on the terminal.
func reviewCmd(a *app) *cobra.Command {
	var deckID string

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review due cards interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			sessions := a.sessions(db)
			queue, err := sessions.Queue(cmd.Context(), deckID, a.cfg.Review.Limit)
			if err != nil {
				return err
			}

			in := bufio.NewScanner(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			reviewed := 0
			for _, dc := range queue {
				fmt.Fprintf(out, "\n[%s] %s\n", dc.DeckName, dc.Card.Front)
				fmt.Fprint(out, "(enter to reveal) ")
				if !in.Scan() {
					break
				}
				fmt.Fprintln(out, dc.Card.Back)
				if dc.Card.Context != "" {
					fmt.Fprintf(out, "  %s\n", dc.Card.Context)
				}

				grade, ok := promptGrade(in, out)
				if !ok {
					break
				}
				card, err := sessions.Grade(cmd.Context(), dc.DeckID, dc.Card.ID, grade)
				if err != nil {
					return err
				}
				reviewed++
				fmt.Fprintf(out, "%s: next review in %d days\n", grade, *card.Interval)
			}
			fmt.Fprintf(out, "\nReviewed %d of %d due cards.\n", reviewed, len(queue))
			return nil
		},
	}

	cmd.Flags().StringVar(&deckID, "deck", "", "only this deck ID")
	return cmd
}

// promptGrade asks until it reads a grade from 0 to 5. It returns false
// when input ends or the user types q.
func promptGrade(in *bufio.Scanner, out io.Writer) (sm2.Grade, bool) {
	for {
		fmt.Fprint(out, "grade 0-5 (q to quit): ")
		if !in.Scan() {
			return 0, false
		}
		text := strings.TrimSpace(in.Text())
		if text == "q" {
			return 0, false
		}
		n, err := strconv.Atoi(text)
		if err == nil && sm2.Grade(n).IsValid() {
			return sm2.Grade(n), true
		}
		fmt.Fprintln(out, "please enter a number from 0 to 5")
	}
}

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <deck-id>",
		Short: "Show scheduling statistics for a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			deck, err := db.GetDeck(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := stats.Summarize(deck, time.Now())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Deck\t%s\n", s.DeckName)
			fmt.Fprintf(w, "Cards\t%d\n", s.Total)
			fmt.Fprintf(w, "New\t%d\n", s.New)
			fmt.Fprintf(w, "Due\t%d\n", s.Due)
			fmt.Fprintf(w, "Mastered\t%d\n", s.Mastered)
			fmt.Fprintf(w, "Struggling\t%d\n", s.Struggling)
			fmt.Fprintf(w, "Avg ease\t%.2f\n", s.AvgEase)
			fmt.Fprintf(w, "Avg interval\t%.1f days\n", s.AvgInterval)
			return w.Flush()
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
