package cli

import (
	"context"
	"fmt"
)

// Decks lists the account's decks with their installed state.
func (a *App) Decks(ctx context.Context) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	listings, err := a.decks.List(ctx)
	if err != nil {
		printlnFn("Listing decks failed:", err.Error())
		return err
	}

	installed := make(map[string]string)
	records, err := a.decks.Installed(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		installed[rec.DeckID] = rec.Version
	}

	if len(listings) == 0 {
		printlnFn("No decks available")
		return nil
	}
	for _, d := range listings {
		state := "not installed"
		if v, ok := installed[d.DeckID]; ok {
			state = "installed " + v
			if v != d.LatestVersion {
				state += ", latest " + d.LatestVersion
			}
		}
		printlnFn(fmt.Sprintf("%s  %s (%s)", d.DeckID, d.Title, state))
	}
	return nil
}

// Install downloads and installs one deck.
func (a *App) Install(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: install <deck-id>")
		return nil
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	rec, err := a.decks.Install(ctx, args[0])
	if err != nil {
		printlnFn("Install failed:", err.Error())
		return err
	}
	printlnFn("Installed", rec.DeckID, "version", rec.Version)
	return nil
}

// Update applies a pending update to one deck, or with "all" (or no
// argument) to every deck that has one.
func (a *App) Update(ctx context.Context, args []string) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	if len(args) == 1 && args[0] != "all" {
		rec, err := a.decks.Update(ctx, args[0])
		if err != nil {
			printlnFn("Update failed:", err.Error())
			return err
		}
		printlnFn("Updated", rec.DeckID, "to version", rec.Version)
		return nil
	}

	pending, err := a.updates.Available(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		printlnFn("No pending updates, run 'check' first")
		return nil
	}
	ids := make([]string, 0, len(pending))
	for _, u := range pending {
		ids = append(ids, u.DeckID)
	}

	result, err := a.batch.UpdateAll(ctx, ids)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Updated %d deck(s), %d failed", result.SuccessCount, len(result.Failures)))
	for _, f := range result.Failures {
		printlnFn(" ", f.DeckID+":", f.Message)
	}
	return nil
}

// Remove stops tracking a deck and drops its local collection.
func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: remove <deck-id>")
		return nil
	}
	if err := a.decks.Remove(ctx, args[0]); err != nil {
		printlnFn("Remove failed:", err.Error())
		return err
	}
	printlnFn("Removed", args[0])
	return nil
}

// Check runs a forced update scan and prints the verdicts.
func (a *App) Check(ctx context.Context) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	updates, err := a.updates.Scan(ctx, true)
	if err != nil {
		printlnFn("Update check failed:", err.Error())
		return err
	}
	if len(updates) == 0 {
		printlnFn("All decks are up to date")
		return nil
	}
	for _, u := range updates {
		line := fmt.Sprintf("%s  %s -> %s", u.DeckID, u.CurrentVersion, u.LatestVersion)
		if u.ChangelogSummary != "" {
			line += "  (" + u.ChangelogSummary + ")"
		}
		printlnFn(line)
	}
	printlnFn("Run 'update all' to apply")
	return nil
}

// Changelog prints the released versions of one deck.
func (a *App) Changelog(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: changelog <deck-id>")
		return nil
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	entries, err := a.decks.Changelog(ctx, args[0])
	if err != nil {
		printlnFn("Changelog failed:", err.Error())
		return err
	}
	if len(entries) == 0 {
		printlnFn("No released versions")
		return nil
	}
	for _, e := range entries {
		printlnFn(fmt.Sprintf("%s  %s  %s",
			e.Version, e.ReleasedAt.Format("2006-01-02"), e.Summary))
	}
	return nil
}
