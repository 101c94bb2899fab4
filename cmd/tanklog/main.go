// Command tanklog is a CLI client for a spreadsheet-backed aquarium log.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/lavolpecheprogramma/tanklog/internal/config"
	"github.com/lavolpecheprogramma/tanklog/internal/errs"
	"github.com/lavolpecheprogramma/tanklog/internal/model"
	"github.com/lavolpecheprogramma/tanklog/internal/service"
	"github.com/lavolpecheprogramma/tanklog/internal/session"
	"github.com/lavolpecheprogramma/tanklog/internal/sheets"
)

// ---- utils ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, errs.ErrAuthRequired) {
		fmt.Fprintln(os.Stderr, "run 'tanklog login' first")
	}
	os.Exit(1)
}

func optFloat(s string) (*float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("bad number %q", s)
	}
	return &f, nil
}

func optInt(s string) (*int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("bad integer %q", s)
	}
	return &n, nil
}

func statusColor(s model.RangeStatus) *color.Color {
	switch s {
	case model.RangeOptimal:
		return color.New(color.FgGreen)
	case model.RangeCritical:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `tanklog CLI
Usage:
  tanklog [-sheet ID] [-v] <cmd> [args]

Commands:
  version
  login      [-prompt select_account|consent]
  logout     [-revoke=false]
  whoami

  events     list | add -date D -type T -desc S [-qty N -unit U -product P -note S]
             edit -id ID ... | rm -id ID
  livestock  list | add -name S -category C [-sci S -sub S -zone Z -origin O
             -added D -removed D -status S -notes S] | edit -id ID ... | rm -id ID
  tests      list | add -date D -m param=value[:unit] [-m ...] [-method S -note S]
             rm -id ID | rm -group ID
  reminders  list | add -title S -due D [-every N -notes S] | edit -id ID ...
             done -id ID [-at D] | rm -id ID
  photos     list | add -date D -related tank|animal [-related-id ID]
             -file-id ID -url URL [-note S] | rm -id ID
  ranges     list | show | save-defaults -kind freshwater|planted|marine|reef

The spreadsheet id comes from -sheet or TANKLOG_SPREADSHEET_ID.
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// app bundles the wired dependencies every subcommand needs.
type app struct {
	cfg     config.Config
	sheetID string
	mgr     *session.Manager
	tank    *service.Tank
}

func (a *app) requireSheet() string {
	if a.sheetID == "" {
		fail(errors.New("no spreadsheet id; pass -sheet or set TANKLOG_SPREADSHEET_ID"))
	}
	return a.sheetID
}

func main() {
	// global flags
	sheet := flag.String("sheet", "", "spreadsheet id (overrides env)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}

	log := zap.NewNop()
	if *verbose {
		log, _ = zap.NewDevelopment()
	}
	defer func() { _ = log.Sync() }()

	identity := newDeviceIdentity(cfg)
	mgr := session.NewManager(identity, session.NewHTTPProfileFetcher(cfg.UserinfoURL), session.NewFileStore(cfg.StateDir), log)
	mgr.Hydrate()

	var tank *service.Tank
	client := sheets.NewClient(cfg.SheetsBaseURL, mgr, log, sheets.WithAuthErrorHook(func() {
		// a rejected token invalidates both what we know about the
		// document's sheets and the session that produced it
		tank.InvalidateProvisioning()
		mgr.Invalidate()
	}))
	tank = service.NewTank(client, log)

	a := &app{cfg: cfg, mgr: mgr, tank: tank}
	a.sheetID = cfg.SpreadsheetID
	if *sheet != "" {
		a.sheetID = *sheet
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {

	case "version":
		fmt.Printf("tanklog %s (%s)\n", version, buildDate)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		promptStr := fs.String("prompt", "select_account", "select_account or consent")
		_ = fs.Parse(flag.Args()[1:])

		prompt := session.PromptSelectAccount
		if *promptStr == "consent" {
			prompt = session.PromptConsent
		}

		// device approval happens in the user's browser, give it time
		loginCtx, loginCancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer loginCancel()

		sess, err := a.mgr.Login(loginCtx, prompt)
		if err != nil {
			fail(err)
		}
		if sess.User != nil {
			fmt.Printf("logged in as %s\n", color.New(color.Bold).Sprint(sess.User.Email))
		} else {
			fmt.Println("logged in")
		}

	case "logout":
		fs := flag.NewFlagSet("logout", flag.ExitOnError)
		revoke := fs.Bool("revoke", true, "revoke the token upstream")
		_ = fs.Parse(flag.Args()[1:])
		a.mgr.Logout(ctx, *revoke)
		fmt.Println("ok")

	case "whoami":
		if !a.mgr.IsAuthenticated() {
			fail(errs.ErrAuthRequired)
		}
		u := a.mgr.CurrentUser()
		if u == nil {
			u = &model.UserProfile{}
		}
		out := struct {
			Email     string    `json:"email,omitempty"`
			Name      string    `json:"name,omitempty"`
			ExpiresAt time.Time `json:"expiresAt"`
		}{Email: u.Email, Name: u.Name}
		if sess := a.mgr.Session(); sess != nil {
			out.ExpiresAt = sess.ExpiresAt
		}
		printJSON(out)

	case "events":
		cmdEvents(ctx, a, flag.Args()[1:])
	case "livestock":
		cmdLivestock(ctx, a, flag.Args()[1:])
	case "tests":
		cmdTests(ctx, a, flag.Args()[1:])
	case "reminders":
		cmdReminders(ctx, a, flag.Args()[1:])
	case "photos":
		cmdPhotos(ctx, a, flag.Args()[1:])
	case "ranges":
		cmdRanges(ctx, a, flag.Args()[1:])
	default:
		usage()
	}
}

// ---- events ----

func eventFlags(fs *flag.FlagSet) (date, typ, desc, qty, unit, product, note *string) {
	date = fs.String("date", "", "YYYY-MM-DD or RFC 3339")
	typ = fs.String("type", "", "water_change|dosing|maintenance|livestock_addition|livestock_removal")
	desc = fs.String("desc", "", "description")
	qty = fs.String("qty", "", "quantity (number, optional)")
	unit = fs.String("unit", "", "unit")
	product = fs.String("product", "", "product")
	note = fs.String("note", "", "note")
	return
}

func cmdEvents(ctx context.Context, a *app, args []string) {
	if len(args) < 1 {
		usage()
	}
	sid := a.requireSheet()

	switch args[0] {
	case "list":
		out, err := a.tank.Events.List(ctx, sid)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "add":
		fs := flag.NewFlagSet("events add", flag.ExitOnError)
		date, typ, desc, qty, unit, product, note := eventFlags(fs)
		_ = fs.Parse(args[1:])

		q, err := optFloat(*qty)
		if err != nil {
			fail(err)
		}
		ev, err := a.tank.Events.Create(ctx, sid, service.EventInput{
			Date: *date, Type: model.EventType(*typ), Description: *desc,
			Quantity: q, Unit: *unit, Product: *product, Note: *note,
		})
		if err != nil {
			fail(err)
		}
		printJSON(ev)

	case "edit":
		fs := flag.NewFlagSet("events edit", flag.ExitOnError)
		id := fs.String("id", "", "event id")
		date, typ, desc, qty, unit, product, note := eventFlags(fs)
		_ = fs.Parse(args[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		q, err := optFloat(*qty)
		if err != nil {
			fail(err)
		}
		ev, err := a.tank.Events.Update(ctx, sid, *id, service.EventInput{
			Date: *date, Type: model.EventType(*typ), Description: *desc,
			Quantity: q, Unit: *unit, Product: *product, Note: *note,
		})
		if err != nil {
			fail(err)
		}
		printJSON(ev)

	case "rm":
		fs := flag.NewFlagSet("events rm", flag.ExitOnError)
		id := fs.String("id", "", "event id")
		_ = fs.Parse(args[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		if err := a.tank.Events.Delete(ctx, sid, *id); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	default:
		usage()
	}
}

// ---- livestock ----

func livestockFlags(fs *flag.FlagSet) (in *service.LivestockInput, parse func([]string)) {
	in = &service.LivestockInput{}
	name := fs.String("name", "", "common name")
	sci := fs.String("sci", "", "scientific name")
	category := fs.String("category", "", "fish|coral|invertebrate|plant")
	sub := fs.String("sub", "", "sub-category")
	zone := fs.String("zone", "", "tank zone")
	origin := fs.String("origin", "", "origin")
	added := fs.String("added", "", "date added")
	removed := fs.String("removed", "", "date removed")
	status := fs.String("status", "active", "active|removed|dead")
	notes := fs.String("notes", "", "notes")
	parse = func(args []string) {
		_ = fs.Parse(args)
		in.NameCommon = *name
		in.NameScientific = *sci
		in.Category = model.LivestockCategory(*category)
		in.SubCategory = *sub
		in.TankZone = model.LivestockZone(*zone)
		in.Origin = model.LivestockOrigin(*origin)
		in.DateAdded = *added
		in.DateRemoved = *removed
		in.Status = model.LivestockStatus(*status)
		in.Notes = *notes
	}
	return
}

func cmdLivestock(ctx context.Context, a *app, args []string) {
	if len(args) < 1 {
		usage()
	}
	sid := a.requireSheet()

	switch args[0] {
	case "list":
		out, err := a.tank.Livestock.List(ctx, sid)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "add":
		fs := flag.NewFlagSet("livestock add", flag.ExitOnError)
		in, parse := livestockFlags(fs)
		parse(args[1:])
		ls, err := a.tank.Livestock.Create(ctx, sid, *in)
		if err != nil {
			fail(err)
		}
		printJSON(ls)

	case "edit":
		fs := flag.NewFlagSet("livestock edit", flag.ExitOnError)
		id := fs.String("id", "", "livestock id")
		in, parse := livestockFlags(fs)
		parse(args[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		ls, err := a.tank.Livestock.Update(ctx, sid, *id, *in)
		if err != nil {
			fail(err)
		}
		printJSON(ls)

	case "rm":
		fs := flag.NewFlagSet("livestock rm", flag.ExitOnError)
		id := fs.String("id", "", "livestock id")
		_ = fs.Parse(args[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		if err := a.tank.Livestock.Delete(ctx, sid, *id); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	default:
		usage()
	}
}

// ---- water tests ----

// measurementList collects repeated -m param=value[:unit] flags.
type measurementList []service.MeasurementInput

func (m *measurementList) String() string { return fmt.Sprint([]service.MeasurementInput(*m)) }

func (m *measurementList) Set(s string) error {
	param, rest, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("want param=value[:unit], got %q", s)
	}
	valStr, unit, _ := strings.Cut(rest, ":")
	val, err := strconv.ParseFloat(strings.TrimSpace(valStr), 64)
	if err != nil {
		return fmt.Errorf("bad value in %q", s)
	}
	*m = append(*m, service.MeasurementInput{Parameter: strings.TrimSpace(param), Value: val, Unit: strings.TrimSpace(unit)})
	return nil
}

func cmdTests(ctx context.Context, a *app, args []string) {
	if len(args) < 1 {
		usage()
	}
	sid := a.requireSheet()

	switch args[0] {
	case "list":
		out, err := a.tank.WaterTests.ListSessions(ctx, sid)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "add":
		fs := flag.NewFlagSet("tests add", flag.ExitOnError)
		date := fs.String("date", "", "YYYY-MM-DD or RFC 3339")
		method := fs.String("method", "", "test method")
		note := fs.String("note", "", "note")
		var ms measurementList
		fs.Var(&ms, "m", "measurement param=value[:unit] (repeatable)")
		_ = fs.Parse(args[1:])
		if len(ms) == 0 {
			fmt.Fprintln(os.Stderr, "need at least one -m")
			os.Exit(1)
		}

		sess, err := a.tank.WaterTests.CreateSession(ctx, sid, service.SessionInput{
			Date: *date, Measurements: ms, Method: *method, Note: *note,
		})
		if err != nil {
			fail(err)
		}
		printJSON(sess)

	case "rm":
		fs := flag.NewFlagSet("tests rm", flag.ExitOnError)
		id := fs.String("id", "", "measurement id")
		group := fs.String("group", "", "session group id")
		_ = fs.Parse(args[1:])

		switch {
		case *id != "":
			if err := a.tank.WaterTests.DeleteMeasurement(ctx, sid, *id); err != nil {
				fail(err)
			}
		case *group != "":
			if err := a.tank.WaterTests.DeleteSession(ctx, sid, *group); err != nil {
				fail(err)
			}
		default:
			fmt.Fprintln(os.Stderr, "need -id or -group")
			os.Exit(1)
		}
		fmt.Println("ok")

	default:
		usage()
	}
}

// ---- reminders ----

func cmdReminders(ctx context.Context, a *app, args []string) {
	if len(args) < 1 {
		usage()
	}
	sid := a.requireSheet()

	switch args[0] {
	case "list":
		out, err := a.tank.Reminders.List(ctx, sid)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "add", "edit":
		fs := flag.NewFlagSet("reminders "+args[0], flag.ExitOnError)
		id := fs.String("id", "", "reminder id (edit only)")
		title := fs.String("title", "", "title")
		due := fs.String("due", "", "next due date")
		every := fs.String("every", "", "repeat every N days (optional)")
		notes := fs.String("notes", "", "notes")
		_ = fs.Parse(args[1:])

		repeat, err := optInt(*every)
		if err != nil {
			fail(err)
		}
		in := service.ReminderInput{Title: *title, NextDue: *due, RepeatEveryDays: repeat, Notes: *notes}

		var r model.TankReminder
		if args[0] == "add" {
			r, err = a.tank.Reminders.Create(ctx, sid, in)
		} else {
			if *id == "" {
				fmt.Fprintln(os.Stderr, "need -id")
				os.Exit(1)
			}
			r, err = a.tank.Reminders.Update(ctx, sid, *id, in)
		}
		if err != nil {
			fail(err)
		}
		printJSON(r)

	case "done":
		fs := flag.NewFlagSet("reminders done", flag.ExitOnError)
		id := fs.String("id", "", "reminder id")
		at := fs.String("at", "", "completion instant (RFC 3339, default now)")
		_ = fs.Parse(args[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		var doneAt time.Time
		if *at != "" {
			var err error
			doneAt, err = time.Parse(time.RFC3339, *at)
			if err != nil {
				fail(fmt.Errorf("bad -at: %w", err))
			}
		}
		r, err := a.tank.Reminders.MarkDone(ctx, sid, *id, doneAt)
		if err != nil {
			fail(err)
		}
		printJSON(r)

	case "rm":
		fs := flag.NewFlagSet("reminders rm", flag.ExitOnError)
		id := fs.String("id", "", "reminder id")
		_ = fs.Parse(args[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		if err := a.tank.Reminders.Delete(ctx, sid, *id); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	default:
		usage()
	}
}

// ---- photos ----

func cmdPhotos(ctx context.Context, a *app, args []string) {
	if len(args) < 1 {
		usage()
	}
	sid := a.requireSheet()

	switch args[0] {
	case "list":
		out, err := a.tank.Photos.List(ctx, sid)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "add":
		fs := flag.NewFlagSet("photos add", flag.ExitOnError)
		date := fs.String("date", "", "YYYY-MM-DD or RFC 3339")
		related := fs.String("related", "tank", "tank or animal")
		relatedID := fs.String("related-id", "", "livestock id (animal photos only)")
		fileID := fs.String("file-id", "", "storage file id")
		url := fs.String("url", "", "storage url")
		note := fs.String("note", "", "note")
		_ = fs.Parse(args[1:])

		p, err := a.tank.Photos.Create(ctx, sid, service.PhotoInput{
			Date: *date, RelatedType: model.PhotoRelatedType(*related), RelatedID: *relatedID,
			StorageFileID: *fileID, StorageURL: *url, Note: *note,
		})
		if err != nil {
			fail(err)
		}
		printJSON(p)

	case "rm":
		fs := flag.NewFlagSet("photos rm", flag.ExitOnError)
		id := fs.String("id", "", "photo id")
		_ = fs.Parse(args[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		if err := a.tank.Photos.Delete(ctx, sid, *id); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	default:
		usage()
	}
}

// ---- ranges ----

func printRanges(ranges []model.ParameterRange) {
	bold := color.New(color.Bold)
	fmt.Printf("%s\n", bold.Sprintf("%-12s %-12s %10s %10s %-8s %s", "PARAMETER", "STATUS", "MIN", "MAX", "UNIT", "COLOR"))
	for _, r := range ranges {
		min, max := "-", "-"
		if r.MinValue != nil {
			min = strconv.FormatFloat(*r.MinValue, 'f', -1, 64)
		}
		if r.MaxValue != nil {
			max = strconv.FormatFloat(*r.MaxValue, 'f', -1, 64)
		}
		fmt.Printf("%-12s %-12s %10s %10s %-8s %s\n",
			r.Parameter, statusColor(r.Status).Sprintf("%-12s", r.Status), min, max, r.Unit, r.Color)
	}
}

func cmdRanges(ctx context.Context, a *app, args []string) {
	if len(args) < 1 {
		usage()
	}
	sid := a.requireSheet()

	switch args[0] {
	case "list":
		out, err := a.tank.Ranges.List(ctx, sid)
		if err != nil {
			fail(err)
		}
		printRanges(out)

	case "show":
		out, err := a.tank.Ranges.ReadSheet(ctx, sid)
		if err != nil {
			fail(err)
		}
		printRanges(out)

	case "save-defaults":
		fs := flag.NewFlagSet("ranges save-defaults", flag.ExitOnError)
		kindStr := fs.String("kind", "", "freshwater|planted|marine|reef")
		_ = fs.Parse(args[1:])

		kind := model.TankKind(*kindStr)
		switch kind {
		case model.TankFreshwater, model.TankPlanted, model.TankMarine, model.TankReef:
		default:
			fmt.Fprintln(os.Stderr, "need -kind freshwater|planted|marine|reef")
			os.Exit(1)
		}
		n, err := a.tank.Ranges.ApplyDefaults(ctx, sid, kind)
		if err != nil {
			fail(err)
		}
		fmt.Printf("wrote %d rows\n", n)

	default:
		usage()
	}
}
