package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dmitrijs2005/decksync/internal/client/models"
)

// Sync pulls field changes for one deck, or with "all" (or no argument) for
// every installed deck. Conflicts reported by a single-deck pull are
// resolved interactively.
func (a *App) Sync(ctx context.Context, args []string) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	if len(args) == 1 && args[0] != "all" {
		return a.syncOne(ctx, args[0])
	}

	records, err := a.decks.Installed(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		printlnFn("No decks installed")
		return nil
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.DeckID)
	}

	result, err := a.batch.SyncAll(ctx, ids)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Synced %d deck(s), %d failed", result.SuccessCount, len(result.Failures)))
	for _, f := range result.Failures {
		printlnFn(" ", f.DeckID+":", f.Message)
	}
	return nil
}

func (a *App) syncOne(ctx context.Context, deckID string) error {
	result, err := a.sync.Pull(ctx, deckID)
	if err != nil {
		printlnFn("Sync failed:", err.Error())
		return err
	}

	printlnFn(fmt.Sprintf("%s: %d applied, %d protected, %d missing, %d errors",
		deckID, result.Summary.Applied, result.Summary.SkippedProtected,
		result.Summary.NotFound, result.Summary.Errors))

	if len(result.Conflicts) == 0 {
		return nil
	}
	return a.resolveConflicts(ctx, deckID, result.Conflicts)
}

// resolveConflicts walks the user through each conflicted field and applies
// the chosen resolutions in one pass.
func (a *App) resolveConflicts(ctx context.Context, deckID string, conflicts []models.Conflict) error {
	rec, err := a.deckRepo.GetByID(ctx, deckID)
	if err != nil {
		return err
	}

	printlnFn(len(conflicts), "conflict(s) need resolution")
	choices := make(map[string]models.ResolutionChoice, len(conflicts))
	for i := range conflicts {
		c := &conflicts[i]
		printlnFn(fmt.Sprintf("card %s, field %q", c.CardGUID, c.FieldName))
		printlnFn("  local: ", c.LocalValue)
		printlnFn("  server:", c.ServerValue)
		answer, err := GetChoice(a.reader, "Keep which value?", []string{"local", "server"}, os.Stdout)
		if err != nil {
			return err
		}
		if answer == "server" {
			choices[c.Key()] = models.TakeServer
		} else {
			choices[c.Key()] = models.KeepLocal
		}
	}

	result := a.resolve.ResolveAll(ctx, rec.LocalRef, deckID, conflicts, choices, models.KeepLocal)
	printlnFn(fmt.Sprintf("Resolved %d conflict(s), %d failed", result.Resolved, result.Failed))
	return nil
}

// Rollback restores a single card to its pre-version values.
func (a *App) Rollback(ctx context.Context, args []string) error {
	if len(args) != 3 {
		printlnFn("Usage: rollback <deck-id> <card-guid> <version>")
		return nil
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	result, err := a.rollback.Rollback(ctx, args[0], args[1], args[2])
	if err != nil {
		printlnFn("Rollback failed:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Restored %d field(s), %d protected field(s) untouched",
		result.Restored, result.SkippedProtected))
	return nil
}

// History prints a card's recorded versions, newest first.
func (a *App) History(ctx context.Context, args []string) error {
	if len(args) != 2 {
		printlnFn("Usage: history <deck-id> <card-guid>")
		return nil
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	entries, err := a.rollback.History(ctx, args[0], args[1], 20)
	if err != nil {
		printlnFn("History failed:", err.Error())
		return err
	}
	if len(entries) == 0 {
		printlnFn("No recorded versions")
		return nil
	}
	for _, e := range entries {
		fields := make([]string, 0, len(e.Changes))
		for name := range e.Changes {
			fields = append(fields, name)
		}
		sort.Strings(fields)
		printlnFn(fmt.Sprintf("%s  %s  %s  fields: %s",
			e.Version, e.ChangedAt.Format("2006-01-02 15:04"), e.ChangedBy,
			strings.Join(fields, ", ")))
	}
	return nil
}

// Protect shows or replaces the protected fields of a deck.
//
//	protect <deck-id>                 — show effective protections
//	protect <deck-id> f1,f2,...       — replace the deck's protections
func (a *App) Protect(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: protect <deck-id> [field,field,...]")
		return nil
	}
	deckID := args[0]

	if len(args) == 1 {
		guard, err := a.protected.Get(ctx, deckID)
		if err != nil {
			return err
		}
		if len(guard) == 0 {
			printlnFn("No protected fields")
			return nil
		}
		names := make([]string, 0, len(guard))
		for name := range guard {
			names = append(names, name)
		}
		sort.Strings(names)
		printlnFn("Protected fields:", strings.Join(names, ", "))
		return nil
	}

	fields := strings.Split(strings.Join(args[1:], " "), ",")
	if err := a.protected.Set(ctx, deckID, fields); err != nil {
		printlnFn("Setting protected fields failed:", err.Error())
		return err
	}
	printlnFn("Protected fields updated")
	return nil
}
