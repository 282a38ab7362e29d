package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"jordanella.com/freedogs-go/internal/config"
	"jordanella.com/freedogs-go/internal/database"
	"jordanella.com/freedogs-go/internal/logging"
)

func main() {
	dbPath := flag.String("db", "", "Path to run history database (default: databaseFile from config.ini)")
	numCycles := flag.Int("cycles", 10, "Number of recent cycles to show")
	accountID := flag.Int64("account", 0, "Show recent outcomes for this account id")
	flag.Parse()

	logger := logging.NewLogger("history")

	path := *dbPath
	if path == "" {
		cfg, err := config.Load("config.ini")
		if err != nil {
			cfg = config.Default()
		}
		path = cfg.DatabaseFile
	}
	if path == "" {
		logger.Error("Run history is disabled in config.ini and no -db was given", nil)
		os.Exit(1)
	}

	if _, err := os.Stat(path); err != nil {
		logger.Error(fmt.Sprintf("Cannot open %s", path), err)
		os.Exit(1)
	}

	db, err := database.Open(path)
	if err != nil {
		logger.Error("Failed to open database", err)
		os.Exit(1)
	}
	defer db.Close()

	version, err := db.GetVersion()
	if err != nil || version < database.LatestVersion() {
		logger.Warnf("Database schema is at version %d, the bot will migrate it on next start", version)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if *accountID != 0 {
		printOutcomes(w, db, *accountID, *numCycles, logger)
		return
	}

	printCycles(w, db, *numCycles, logger)
	fmt.Fprintln(w)
	printSummaries(w, db, logger)
}

func printCycles(w *tabwriter.Writer, db *database.DB, limit int, logger *logging.Logger) {
	cycles, err := db.RecentCycles(limit)
	if err != nil {
		logger.Error("Failed to read cycles", err)
		return
	}

	fmt.Fprintln(w, "CYCLE\tSTARTED\tSTATUS\tOK\tFAILED\tCOINS\tTASKS")
	for _, c := range cycles {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\n",
			c.Sequence, c.StartedAt.Local().Format("2006-01-02 15:04:05"), c.Status,
			c.AccountsSucceeded, c.AccountsFailed, c.CoinsCollected, c.TasksCompleted)
	}
}

func printSummaries(w *tabwriter.Writer, db *database.DB, logger *logging.Logger) {
	summaries, err := db.AccountSummaries()
	if err != nil {
		logger.Error("Failed to read account summaries", err)
		return
	}

	fmt.Fprintln(w, "ACCOUNT\tNAME\tRUNS\tOK\tCOINS\tTASKS\tLAST RUN")
	for _, s := range summaries {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\t%s\n",
			s.AccountID, s.DisplayName, s.Runs, s.Successes, s.CoinsCollected, s.TasksCompleted, s.LastRunAt)
	}
}

func printOutcomes(w *tabwriter.Writer, db *database.DB, accountID int64, limit int, logger *logging.Logger) {
	outcomes, err := db.RecentOutcomes(accountID, limit)
	if err != nil {
		logger.Error("Failed to read outcomes", err)
		return
	}

	fmt.Fprintln(w, "RECORDED\tSTAGE\tRESULT\tCOINS\tTASKS\tMESSAGE")
	for _, o := range outcomes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d/%d\t%s\n",
			o.RecordedAt.Local().Format("2006-01-02 15:04:05"), o.Stage, o.Result,
			o.CoinsCollected, o.TasksCompleted, o.TasksCompleted+o.TasksFailed, o.Message)
	}
}
