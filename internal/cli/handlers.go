package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/diegofalves/ominideck/internal/config"
	"github.com/diegofalves/ominideck/internal/dashboard"
	"github.com/diegofalves/ominideck/internal/errs"
	"github.com/diegofalves/ominideck/internal/etl"
	"github.com/diegofalves/ominideck/internal/policy"
	"github.com/diegofalves/ominideck/internal/schema"
	"github.com/diegofalves/ominideck/internal/server"
	"github.com/diegofalves/ominideck/internal/sqlparse"
	"github.com/diegofalves/ominideck/internal/stats"
	"github.com/diegofalves/ominideck/internal/store"
	"github.com/diegofalves/ominideck/internal/validate"
	"github.com/diegofalves/ominideck/pkg/database"
	"github.com/diegofalves/ominideck/pkg/logger"
	"github.com/diegofalves/ominideck/pkg/models"
	"github.com/diegofalves/ominideck/pkg/utils"
)

// app holds the catalogs and the store built from the configuration.
type app struct {
	cfg       *config.Config
	schema    *schema.Repository
	validator *validate.Validator
	store     *store.Store
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	st := stats.NewReader(cfg.DomainStatsFile)
	sc := schema.NewRepository(cfg.SchemaDir)
	v := validate.New(st, sc)
	n := &store.Normalizer{Stats: st, Policy: policy.New(cfg.EligibilityFile)}

	return &app{
		cfg:       cfg,
		schema:    sc,
		validator: v,
		store:     store.New(cfg.ProjectFile, n, v),
	}, nil
}

func runNormalize(c *cobra.Command) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	doc, rewritten, err := a.store.Sync()
	if err != nil {
		return err
	}

	out := c.OutOrStdout()
	if rewritten {
		fmt.Fprintf(out, "Normalized %s (%d groups, %d items).\n", a.store.Path(), len(doc.Groups), len(doc.Items()))
	} else {
		fmt.Fprintf(out, "%s is already canonical.\n", a.store.Path())
	}
	return nil
}

func runValidate(c *cobra.Command) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	// 1. Read and normalize in memory
	doc, err := a.store.Read()
	if err != nil {
		return err
	}
	if err := a.store.Normalize(doc); err != nil {
		return err
	}

	// 2. Validate
	msgs, err := a.validator.Messages(doc)
	if err != nil {
		return err
	}

	out := c.OutOrStdout()
	if len(msgs) == 0 {
		fmt.Fprintln(out, "Migration project is valid.")
		return nil
	}
	for _, m := range msgs {
		fmt.Fprintf(out, " - %s\n", m)
	}
	return fmt.Errorf("migration project has %d validation errors", len(msgs))
}

func runDashboard(c *cobra.Command, opts *DashboardOptions) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	doc, err := a.store.Load()
	if err != nil {
		return err
	}
	rep := dashboard.Build(doc)

	out := c.OutOrStdout()
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(rep)
	}

	fmt.Fprintf(out, "%s (%s)\n", rep.ProjectName, rep.ProjectCode)
	fmt.Fprintf(out, "Overall: %.1f%%  Groups: %d  Items: %d  Ignored: %d\n\n",
		rep.OverallPct, rep.TotalGroups, rep.TotalItems, rep.IgnoredItems)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PHASE\tDONE\tTOTAL\tPCT")
	for _, phase := range dashboard.Phases {
		p := rep.Phases[phase]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\n", phase, p.Done, p.Total, p.Pct)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "GROUP\tITEMS\tPROGRESS")
	for _, g := range rep.Groups {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", g.Label, g.Items, g.Progress)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CRITICAL ITEM\tGROUP\tPENDING")
	for _, ci := range rep.CriticalItems {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", ci.Name, ci.GroupLabel, strings.Join(ci.PendingPhases, ","))
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "DEPLOYMENT TYPE\tITEMS\tPCT")
	for _, d := range rep.DeploymentTypes {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", d.Type, d.Count, d.Pct)
	}
	return tw.Flush()
}

func runSQLTables(c *cobra.Command, args []string) error {
	var sql string
	if len(args) == 1 && args[0] != "-" {
		sql = args[0]
	} else {
		data, err := io.ReadAll(c.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read SQL from stdin: %w", err)
		}
		sql = string(data)
	}

	for _, t := range sqlparse.ExtractTables(sql) {
		fmt.Fprintln(c.OutOrStdout(), t)
	}
	return nil
}

func runTables(c *cobra.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	tables, err := schema.NewRepository(cfg.SchemaDir).ListTables()
	if err != nil {
		return err
	}
	for _, t := range tables {
		fmt.Fprintln(c.OutOrStdout(), t)
	}
	return nil
}

func runFields(c *cobra.Command, table string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	fields, err := schema.NewRepository(cfg.SchemaDir).FieldDescriptors(utils.NormalizeToken(table))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tLABEL\tTYPE\tREQUIRED\tSECTION\tLOOKUP")
	for _, f := range fields {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\n", f.Name, f.Label, f.Type, f.Required, f.Section, f.Lookup)
	}
	return tw.Flush()
}

func runIgnore(c *cobra.Command, opts *IgnoreOptions) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	doc, err := a.store.Load()
	if err != nil {
		return err
	}

	// 1. Locate the item
	g := doc.Group(utils.NormalizeToken(opts.Group))
	if g == nil {
		return errs.NotFound("group", opts.Group)
	}
	if opts.Index < 0 || opts.Index >= len(g.Objects) {
		return errs.NotFound("item", fmt.Sprintf("%s[%d]", g.GroupID, opts.Index))
	}
	it := g.Objects[opts.Index]

	// 2. Flag and save
	it.IgnoreTable = models.Flag(!opts.Undo)
	summary := fmt.Sprintf("item %q ignored", it.Name)
	if opts.Undo {
		summary = fmt.Sprintf("item %q restored", it.Name)
	}
	store.RecordChange(doc, a.cfg.Author, summary, time.Now())
	if err := a.store.Save(doc); err != nil {
		return err
	}

	// 3. Report where it landed
	for _, ref := range doc.Items() {
		if ref.Item == it {
			fmt.Fprintf(c.OutOrStdout(), "Item %q is now %s[%d].\n", it.Name, ref.Group.GroupID, ref.Index)
			return nil
		}
	}
	fmt.Fprintf(c.OutOrStdout(), "Item %q was merged during normalization.\n", it.Name)
	return nil
}

func runCollect(c *cobra.Command, opts *CollectOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireSQL(); err != nil {
		return err
	}

	tables := utils.UniqueTokens(opts.Tables)
	if len(tables) == 0 {
		if tables, err = schema.NewRepository(cfg.SchemaDir).ListTables(); err != nil {
			return err
		}
	}

	db, err := database.ConnectSQL(cfg.SQLDriver, cfg.SQLConnString)
	if err != nil {
		return err
	}
	defer db.Close()

	cat, err := (&stats.Collector{DB: db}).Collect(c.Context(), tables)
	if err != nil {
		return err
	}
	if err := stats.WriteCatalog(cfg.DomainStatsFile, cat); err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "Wrote statistics for %d of %d tables to %s.\n", len(cat.Tables), len(tables), cfg.DomainStatsFile)
	return nil
}

func runPublish(c *cobra.Command, opts *PublishOptions) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	doc, err := a.store.Load()
	if err != nil {
		return err
	}

	var loader etl.Loader
	if !opts.DryRun {
		if err := a.cfg.RequireMongo(); err != nil {
			return err
		}
		client, err := database.ConnectMongo(a.cfg.MongoConnString)
		if err != nil {
			return err
		}
		defer database.DisconnectMongo(client)
		loader = etl.NewMongoLoader(client, a.cfg.MongoDatabase, a.cfg.MongoCollection)
	}

	pipeline := etl.NewPipeline(etl.NewDocumentExtractor(doc), loader, opts.BatchSize, opts.DryRun)
	n, err := pipeline.Run(c.Context())
	if err != nil {
		return err
	}

	if opts.DryRun {
		fmt.Fprintf(c.OutOrStdout(), "[DRY RUN] %d items ready to publish.\n", n)
	} else {
		fmt.Fprintf(c.OutOrStdout(), "Published %d items to %s.%s.\n", n, a.cfg.MongoDatabase, a.cfg.MongoCollection)
	}
	return nil
}

func runServe(c *cobra.Command, opts *ServeOptions) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	addr := opts.Addr
	if addr == "" {
		addr = a.cfg.ListenAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(a.store, a.schema, a.cfg.Author).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
