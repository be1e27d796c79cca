package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/lotas/tabgruppen/internal/applog"
	"github.com/lotas/tabgruppen/internal/bridge"
	"github.com/lotas/tabgruppen/internal/config"
	"github.com/lotas/tabgruppen/internal/dispatch"
	"github.com/lotas/tabgruppen/internal/engine"
	"github.com/lotas/tabgruppen/internal/export"
	"github.com/lotas/tabgruppen/internal/firefox"
	"github.com/lotas/tabgruppen/internal/nav"
	"github.com/lotas/tabgruppen/internal/rules"
	"github.com/lotas/tabgruppen/internal/storage"
	"github.com/lotas/tabgruppen/internal/suggest"
	"github.com/lotas/tabgruppen/internal/tui"
	"github.com/lotas/tabgruppen/internal/types"
)

func main() {
	// .env is optional; real environment wins either way.
	godotenv.Load()

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if dir := logDir(); dir != "" {
		applog.Init(dir)
		defer applog.Close()
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "group":
			runGroup(cfg, os.Args[2:])
			return
		case "move":
			runMove(cfg, os.Args[2:])
			return
		case "rules":
			runRules(cfg, os.Args[2:])
			return
		case "classify":
			runClassify(cfg, os.Args[2:])
			return
		case "export":
			runExport(cfg, os.Args[2:])
			return
		case "suggest":
			runSuggest(cfg, os.Args[2:])
			return
		case "runs":
			runRuns(cfg)
			return
		case "profiles":
			runProfiles()
			return
		case "help", "--help", "-h":
			printHelp()
			return
		}
	}

	runTUI(cfg, os.Args[1:])
}

func printHelp() {
	fmt.Print(`tabgruppen — rule-based tab grouping

Usage:
  tabgruppen                                Start the TUI (default)
    --profile <name>       Firefox profile for offline mode
    --live                 Connect to the browser extension
    --port <n>             WebSocket port for live mode (default: 19192)

  tabgruppen group                          Auto-group all open tabs (live)
    --port <n>             WebSocket port (default: 19192)

  tabgruppen move <group>                   Move uncategorized tabs into a group (live)
    --port <n>             WebSocket port (default: 19192)

  tabgruppen rules list                     Show grouping rules and custom groups
  tabgruppen rules add <name> <domain>...   Create a custom group

  tabgruppen classify [--profile X]         Offline classification report (markdown)
  tabgruppen export [--profile X]           Export the report
    --json                 JSON instead of markdown
    --out <file>           Output file path (default: stdout)

  tabgruppen suggest [--profile X]          Fetch context for uncategorized domains
  tabgruppen runs                           Show the grouping run history
  tabgruppen profiles                       List Firefox profiles

Environment:
  TABGRUPPEN_PORT          WebSocket port
  TABGRUPPEN_PROFILE       Default Firefox profile
  TABGRUPPEN_DB            Database file path
  TABGRUPPEN_MOVE_TARGET   Target group for the move-uncategorized command
`)
}

func logDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "tabgruppen")
}

func openDB(cfg config.Config) (*sql.DB, error) {
	path := cfg.DBPath
	if path == "" {
		var err error
		path, err = storage.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return storage.OpenDB(path)
}

// openStore opens the database and the initialized rule store.
func openStore(cfg config.Config) (*sql.DB, *rules.Store, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	store := rules.NewStore(db, cfg.SeedGroups)
	if err := store.Initialize(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("initialize rules: %w", err)
	}
	return db, store, nil
}

// connectLive starts the bridge and waits for the extension.
func connectLive(port int) (*bridge.Server, *bridge.Host, context.CancelFunc, error) {
	srv := bridge.New(port)
	ctx, cancel := context.WithCancel(context.Background())
	go srv.ListenAndServe(ctx)

	fmt.Fprintf(os.Stderr, "Waiting for extension on port %d...\n", port)
	if err := srv.WaitConnected(10 * time.Second); err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return srv, bridge.NewHost(srv, 0), cancel, nil
}

func resolveProfileName(flagValue string, cfg config.Config) string {
	if flagValue != "" {
		return flagValue
	}
	return cfg.Profile
}

func readSession(profileName string) (*types.Session, error) {
	profile, err := firefox.ResolveProfile(profileName)
	if err != nil {
		return nil, err
	}
	session, err := firefox.ReadSession(profile.Path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	session.Profile = profile
	return session, nil
}

func runTUI(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("tabgruppen", flag.ExitOnError)
	profileName := fs.String("profile", "", "Firefox profile name")
	liveMode := fs.Bool("live", false, "Connect to the browser extension")
	port := fs.Int("port", cfg.Port, "WebSocket port for live mode")
	fs.Parse(args)

	db, store, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	var profile types.Profile
	if !*liveMode {
		profile, err = firefox.ResolveProfile(resolveProfileName(*profileName, cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	// The server is cheap to create; it only listens in live mode.
	srv := bridge.New(*port)
	host := bridge.NewHost(srv, 0)

	var engineHost engine.Host
	var navHost nav.Host
	if *liveMode {
		engineHost = host
		navHost = host
	}
	eng := engine.New(engineHost, store, db)
	dispatcher := &dispatch.Dispatcher{
		Engine:     eng,
		Nav:        nav.New(navHost),
		Rules:      store,
		MoveTarget: cfg.MoveTarget,
	}

	model := tui.New(store, eng, dispatcher, srv, host, profile, *liveMode)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runGroup(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("group", flag.ExitOnError)
	port := fs.Int("port", cfg.Port, "WebSocket port")
	fs.Parse(args)

	db, store, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	_, host, cancel, err := connectLive(*port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cancel()

	eng := engine.New(host, store, db)
	result, err := eng.AutoGroup(context.Background(), "cli")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, g := range result.Groups {
		if g.Err != nil {
			fmt.Printf("  %s: failed (%v)\n", g.Name, g.Err)
			continue
		}
		fmt.Printf("  %s [%s]: %d tabs\n", g.Name, g.Color, len(g.TabIDs))
	}
	fmt.Printf("Grouped %d tabs into %d groups.\n", result.TabCount, len(result.Groups))
}

func runMove(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("move", flag.ExitOnError)
	port := fs.Int("port", cfg.Port, "WebSocket port")
	fs.Parse(reorderArgs(args))

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabgruppen move <group> [--port N]")
		os.Exit(1)
	}
	target := fs.Arg(0)

	db, store, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	_, host, cancel, err := connectLive(*port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cancel()

	eng := engine.New(host, store, db)
	result, err := eng.MoveUncategorized(context.Background(), target, "cli")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Moved %d tabs to %s.\n", len(result.TabIDs), target)
	if len(result.NewDomains) > 0 {
		fmt.Printf("Learned domains: %s\n", strings.Join(result.NewDomains, ", "))
	}
}

func runRules(cfg config.Config, args []string) {
	db, store, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if len(args) == 0 || args[0] == "list" {
		rs, err := store.Get()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		custom, err := store.CustomGroups()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		customNames := make(map[string]bool, len(custom))
		for _, g := range custom {
			customNames[g.Name] = true
		}

		for _, r := range rs {
			marker := ""
			if customNames[r.Group] {
				marker = " (custom)"
			}
			fmt.Printf("%s [%s]%s\n", r.Group, rules.ColorFor(r.Group), marker)
			for _, d := range r.Domains {
				fmt.Printf("  - %s\n", d)
			}
		}
		return
	}

	if args[0] == "add" {
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: tabgruppen rules add <name> <domain>...")
			os.Exit(1)
		}
		name, domains := args[1], args[2:]
		group, err := store.AddCustomGroup(name, domains)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added group %s [%s] with %d domains.\n", group.Name, group.Color, len(group.Domains))
		return
	}

	fmt.Fprintf(os.Stderr, "Unknown rules command %q. Use list or add.\n", args[0])
	os.Exit(1)
}

func runClassify(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	profileName := fs.String("profile", "", "Firefox profile name")
	fs.Parse(args)

	report, err := buildReport(cfg, resolveProfileName(*profileName, cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(export.Markdown(report))
}

func runExport(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	profileName := fs.String("profile", "", "Firefox profile name")
	jsonFlag := fs.Bool("json", false, "Export as JSON instead of markdown")
	outFile := fs.String("out", "", "Output file path (default: stdout)")
	fs.Parse(args)

	report, err := buildReport(cfg, resolveProfileName(*profileName, cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var output string
	if *jsonFlag {
		output, err = export.JSON(report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating JSON: %v\n", err)
			os.Exit(1)
		}
	} else {
		output = export.Markdown(report)
	}

	if *outFile != "" {
		if err := os.WriteFile(*outFile, []byte(output), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Print(output)
	}
}

func buildReport(cfg config.Config, profileName string) (*export.Report, error) {
	session, err := readSession(profileName)
	if err != nil {
		return nil, err
	}

	db, store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rs, err := store.Get()
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return export.Build(rs, session), nil
}

func runSuggest(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	profileName := fs.String("profile", "", "Firefox profile name")
	fs.Parse(args)

	session, err := readSession(resolveProfileName(*profileName, cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	db, store, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	rs, err := store.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	suggestions := suggest.Run(rs, session.Tabs)
	if len(suggestions) == 0 {
		fmt.Println("No uncategorized tabs.")
		return
	}

	for _, s := range suggestions {
		fmt.Printf("%s\n", s.Host)
		if s.Err != nil {
			fmt.Printf("  (could not fetch: %v)\n", s.Err)
			continue
		}
		if s.Title != "" {
			fmt.Printf("  %s\n", s.Title)
		}
		if s.Excerpt != "" {
			fmt.Printf("  %s\n", s.Excerpt)
		}
	}
}

func runRuns(cfg config.Config) {
	db, err := openDB(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	runs, err := storage.ListRuns(db, 20)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No grouping runs recorded.")
		return
	}

	for _, r := range runs {
		fmt.Printf("#%d  %s  %s  %d tabs\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Trigger, r.TabCount)
		for _, g := range r.Groups {
			if g.Error != "" {
				fmt.Printf("    %s: failed (%s)\n", g.Name, g.Error)
				continue
			}
			fmt.Printf("    %s [%s]: %d tabs\n", g.Name, g.Color, g.TabCount)
		}
	}
}

func runProfiles() {
	profiles, err := firefox.DiscoverProfiles()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering Firefox profiles: %v\n", err)
		os.Exit(1)
	}
	if len(profiles) == 0 {
		fmt.Fprintln(os.Stderr, "No Firefox profiles found.")
		os.Exit(1)
	}

	for _, p := range profiles {
		suffix := ""
		if p.IsDefault {
			suffix = " [default]"
		}
		fmt.Printf("%s (%s)%s\n", p.Name, p.Path, suffix)
	}
}

// reorderArgs moves flag arguments before positional arguments so that
// flag.Parse handles them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			flags = append(flags, args[i])
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
