package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
	"github.com/mmynk/tripsplit/internal/receipt"
	"github.com/mmynk/tripsplit/internal/tripsync"
)

const dateLayout = "2006-01-02"

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.Usage = func() { fmt.Fprintln(a.out, "usage: tripsplit", commands[name].usage) }
	return fs
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func activeTrip(a *app) (*models.Trip, error) {
	trip := a.coord.Trip()
	if trip == nil {
		return nil, errors.New("no active trip: run \"tripsplit create\" or \"tripsplit join\" first")
	}
	return trip, nil
}

func cmdCreate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "create")
	name := fs.String("name", "", "trip name")
	people := fs.String("people", "", "comma-separated participant names")
	start := fs.String("start", "", "start date (YYYY-MM-DD, default today)")
	end := fs.String("end", "", "end date (YYYY-MM-DD, default start date)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := models.TripInput{Name: *name, ParticipantNames: splitList(*people)}
	var err error
	if in.StartDate, err = parseDate(*start); err != nil {
		return err
	}
	if in.EndDate, err = parseDate(*end); err != nil {
		return err
	}
	if in.StartDate.IsZero() {
		y, m, d := time.Now().Date()
		in.StartDate = time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	}
	if in.EndDate.IsZero() {
		in.EndDate = in.StartDate
	}

	trip, err := a.coord.CreateTrip(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created trip %q with %d participants.\n", trip.Name, len(trip.Participants))
	fmt.Fprintf(a.out, "Share code: %s\n", trip.ShareCode)
	a.flush(ctx)
	return nil
}

func cmdAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "add")
	title := fs.String("title", "", "what the expense was for")
	amount := fs.String("amount", "", "amount, e.g. 150000 or Rp150.000")
	payer := fs.String("payer", "", "name of the participant who paid")
	split := fs.String("split", "", "comma-separated names sharing the cost (default everyone)")
	category := fs.String("category", "", "one of: "+categoryNames())
	date := fs.String("date", "", "date (YYYY-MM-DD, default today)")
	notes := fs.String("notes", "", "free-form notes")
	receiptFile := fs.String("receipt", "", "recognized receipt text used to suggest missing fields")
	yes := fs.Bool("yes", false, "save fields suggested by -receipt without reviewing them first")
	if err := fs.Parse(args); err != nil {
		return err
	}

	trip, err := activeTrip(a)
	if err != nil {
		return err
	}

	in := models.ExpenseInput{Title: *title, Notes: *notes}
	if *amount != "" {
		if in.Amount, err = money.Parse(*amount); err != nil {
			return err
		}
	}
	if *payer != "" {
		p, ok := trip.ParticipantByName(*payer)
		if !ok {
			return fmt.Errorf("%q is not on this trip", *payer)
		}
		in.PaidBy = &p
	}
	if *split == "" {
		in.SplitAmong = trip.Participants
	} else {
		for _, name := range splitList(*split) {
			p, ok := trip.ParticipantByName(name)
			if !ok {
				return fmt.Errorf("%q is not on this trip", name)
			}
			in.SplitAmong = append(in.SplitAmong, p)
		}
	}
	if *category != "" {
		if in.Category, err = models.ParseCategory(*category); err != nil {
			return err
		}
	}
	if in.Date, err = parseDate(*date); err != nil {
		return err
	}

	if *receiptFile != "" {
		suggestion, err := scanFile(ctx, *receiptFile)
		if err != nil {
			return err
		}
		before := in
		suggestion.Apply(&in)
		if suggested := suggestedFields(before, in); len(suggested) > 0 && !*yes {
			fmt.Fprintln(a.out, "The receipt suggests:")
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			for _, f := range suggested {
				fmt.Fprintf(w, "  %s\t%s\n", f.flag, f.value)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Not saved. Re-run with -yes to accept these values, or pass them yourself.")
			return nil
		}
	}

	expense, err := a.coord.AddExpense(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %q (%s) paid by %s, split %d ways.\n",
		expense.Title, expense.Amount.Format(), expense.PaidBy.Name, len(expense.SplitAmong))
	fmt.Fprintf(a.out, "Expense id: %s\n", expense.ID)
	a.flush(ctx)
	return nil
}

type suggestedField struct {
	flag  string
	value string
}

// suggestedFields lists the form fields a receipt filled that the user left empty.
// The attached image is not listed: the user named the receipt file.
func suggestedFields(before, after models.ExpenseInput) []suggestedField {
	var out []suggestedField
	if after.Title != before.Title {
		out = append(out, suggestedField{"-title", after.Title})
	}
	if after.Amount != before.Amount {
		out = append(out, suggestedField{"-amount", after.Amount.Format()})
	}
	if after.Notes != before.Notes {
		out = append(out, suggestedField{"-notes", strings.ReplaceAll(after.Notes, "\n", "; ")})
	}
	return out
}

func categoryNames() string {
	var names []string
	for _, c := range models.Categories() {
		names = append(names, strings.ToLower(string(c)))
	}
	return strings.Join(names, ", ")
}

func cmdDelete(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tripsplit %s", commands["delete"].usage)
	}
	trip, err := activeTrip(a)
	if err != nil {
		return err
	}
	expense, ok := trip.Expense(args[0])
	if !ok {
		return models.ErrExpenseNotFound
	}
	if err := a.coord.DeleteExpense(ctx, expense.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %q (%s).\n", expense.Title, expense.Amount.Format())
	a.flush(ctx)
	return nil
}

func cmdJoin(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tripsplit %s", commands["join"].usage)
	}
	trip, err := a.coord.JoinTripWithCode(ctx, args[0])
	if err != nil {
		if errors.Is(err, tripsync.ErrOffline) {
			return fmt.Errorf("joining needs an internet connection: %w", err)
		}
		return err
	}
	fmt.Fprintf(a.out, "Joined %q: %d participants, %d expenses.\n",
		trip.Name, len(trip.Participants), len(trip.Expenses))
	return nil
}

func cmdShow(_ context.Context, a *app, _ []string) error {
	trip, err := activeTrip(a)
	if err != nil {
		return err
	}

	names := make([]string, len(trip.Participants))
	for i, p := range trip.Participants {
		names[i] = p.Name
	}
	fmt.Fprintf(a.out, "%s (share code %s)\n", trip.Name, trip.ShareCode)
	fmt.Fprintf(a.out, "%s to %s\n", trip.StartDate.Format("2 Jan 2006"), trip.EndDate.Format("2 Jan 2006"))
	fmt.Fprintf(a.out, "Participants: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(a.out, "Last updated %s\n\n", humanize.Time(trip.LastUpdated))

	if len(trip.Expenses) == 0 {
		fmt.Fprintln(a.out, "No expenses yet.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTITLE\tCATEGORY\tPAID BY\tAMOUNT\tSPLIT")
	for _, e := range trip.Expenses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			e.ID, e.Date.Format(dateLayout), e.Title, e.Category, e.PaidBy.Name, e.Amount.Format(), len(e.SplitAmong))
	}
	fmt.Fprintf(w, "\t\tTotal\t\t\t%s\t\n", trip.TotalExpenses().Format())
	return w.Flush()
}

func cmdBalances(_ context.Context, a *app, _ []string) error {
	balances, err := a.coord.Balances()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, b := range balances {
		var state string
		switch {
		case b.Amount.IsPositive():
			state = "is owed"
		case b.Amount.IsNegative():
			state = "owes"
		default:
			state = "is settled"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", b.Person.Name, state, b.Amount.Abs().Format())
	}
	return w.Flush()
}

func cmdSettle(_ context.Context, a *app, _ []string) error {
	settlements, err := a.coord.Settlements()
	if err != nil {
		return err
	}
	if len(settlements) == 0 {
		fmt.Fprintln(a.out, "All settled up!")
		return nil
	}
	for _, s := range settlements {
		fmt.Fprintf(a.out, "%s pays %s %s\n", s.From.Name, s.To.Name, s.Amount.Format())
	}
	fmt.Fprintf(a.out, "%d payments, %s in total\n", len(settlements), calculator.TotalTransferred(settlements).Format())
	return nil
}

func cmdSummary(_ context.Context, a *app, _ []string) error {
	summary, err := a.coord.Summary()
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Total spent: %s across %d expenses\n", summary.TotalExpenses.Format(), summary.ExpenseCount)
	fmt.Fprintf(a.out, "Average per person: %s\n\n", summary.AveragePerPerson.Format())

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, c := range summary.ByCategory {
		fmt.Fprintf(w, "%s\t%s\t%d%%\n", c.Category, c.Amount.FormatShort(), c.Percent)
	}
	if len(summary.ByCategory) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "NAME\tPAID\tSHARE\tNET")
	for _, m := range summary.Members {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Person.Name, m.TotalPaid.Format(), m.TotalOwed.Format(), m.Net.Format())
	}
	return w.Flush()
}

func cmdStatus(_ context.Context, a *app, _ []string) error {
	status := a.coord.Status()
	fmt.Fprintf(a.out, "Connectivity: %s\n", status.State)
	fmt.Fprintf(a.out, "Ledger: %s\n", a.cfg.RemoteURL)
	if trip := a.coord.Trip(); trip != nil {
		fmt.Fprintf(a.out, "Active trip: %s (%s), updated %s\n", trip.Name, trip.ShareCode, humanize.Time(trip.LastUpdated))
	} else {
		fmt.Fprintln(a.out, "Active trip: none")
	}
	return nil
}

func scanFile(ctx context.Context, path string) (receipt.Suggestion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return receipt.Suggestion{}, fmt.Errorf("failed to read receipt: %w", err)
	}
	return receipt.Scan(ctx, receipt.TextExtractor{}, data)
}

func cmdScan(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tripsplit %s", commands["scan"].usage)
	}
	suggestion, err := scanFile(ctx, args[0])
	if err != nil {
		return err
	}
	if suggestion.IsEmpty() {
		fmt.Fprintln(a.out, "Nothing recognized on this receipt.")
		return nil
	}

	if suggestion.Merchant != "" {
		fmt.Fprintf(a.out, "Merchant: %s\n", suggestion.Merchant)
	}
	if suggestion.Total > 0 {
		fmt.Fprintf(a.out, "Total: %s\n", suggestion.Total.Format())
	}
	if len(suggestion.Items) > 0 {
		fmt.Fprintln(a.out, "Items:")
		w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		for _, item := range suggestion.Items {
			fmt.Fprintf(w, "  %s\t%s\n", item.Name, item.Price.Format())
		}
		return w.Flush()
	}
	return nil
}
