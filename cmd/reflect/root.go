package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jacksakers/ProjectReflect/internal/assets"
	"github.com/jacksakers/ProjectReflect/internal/catalog"
	"github.com/jacksakers/ProjectReflect/internal/checkin"
	"github.com/jacksakers/ProjectReflect/internal/config"
	"github.com/jacksakers/ProjectReflect/internal/garden"
	"github.com/jacksakers/ProjectReflect/internal/storage"
)

// annotationCreatesConfig marks commands that may run before the config
// file named by --config exists.
const annotationCreatesConfig = "reflect/creates-config"

// app is the state shared by every command of one invocation.
type app struct {
	cfgFile string
	verbose bool

	v      *viper.Viper
	cfg    config.Config
	logger *slog.Logger
	in     *bufio.Reader
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "reflect",
		Short: "A journal that grows a garden",
		Long: `Reflect is a private journal. Quick thoughts and guided reflections
earn points for the plant you are growing; when it blooms it joins your
garden and a new seed is planted.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/reflect/config.toml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	flags.String("db", "", "database path (or REFLECT_DB_PATH)")
	flags.String("user", "", "journal owner (or REFLECT_USER)")
	_ = a.v.BindPFlag("db_path", flags.Lookup("db"))
	_ = a.v.BindPFlag("user", flags.Lookup("user"))

	root.AddCommand(
		newThoughtCmd(a),
		newSessionCmd(a),
		newJournalCmd(a),
		newCapsuleCmd(a),
		newGardenCmd(a),
		newCatalogCmd(a),
		newMeditateCmd(a),
		newImportCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	a.in = bufio.NewReader(cmd.InOrStdin())

	if err := config.ReadFile(a.v, a.cfgFile); err != nil {
		if cmd.Annotations[annotationCreatesConfig] != "true" || !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug("config loaded", "user", cfg.User, "db", cfg.DBPath, "file", a.v.ConfigFileUsed())
	return nil
}

// services are the opened store and the domain services over it.
type services struct {
	store   *storage.Store
	engine  *garden.Engine
	checkin *checkin.Service
	dbPath  string
	close   func()
}

// open opens the SQLite store, seeding the plant catalog on first use.
func (a *app) open(ctx context.Context) (*services, error) {
	dbPath, err := storage.ResolveDBPath(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}

	sqlDB, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	st, err := storage.New(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("new store: %w", err)
	}

	if err := seedCatalog(ctx, st); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	engine := garden.NewEngine(st, st,
		garden.WithLogger(a.logger),
		garden.WithDefaultThreshold(a.cfg.Garden.DefaultPointsToBloom),
	)
	svc := checkin.New(st, st, engine,
		checkin.WithLogger(a.logger),
		checkin.WithPoints(checkin.Points{
			QuickThought: a.cfg.Garden.QuickThoughtPoints,
			Reflection:   a.cfg.Garden.ReflectionPoints,
		}),
	)

	return &services{
		store:   st,
		engine:  engine,
		checkin: svc,
		dbPath:  dbPath,
		close:   func() { _ = sqlDB.Close() },
	}, nil
}

// seedCatalog loads the built-in plants into an empty catalog.
func seedCatalog(ctx context.Context, st *storage.Store) error {
	types, err := st.PlantTypes(ctx)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	if len(types) > 0 {
		return nil
	}
	if err := st.UpsertPlantTypes(ctx, catalog.Default()); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}

// imageResolver builds the plant image resolver from the assets config.
// Without an assets root every image resolves to its placeholder.
func (a *app) imageResolver() (*garden.ImageResolver, error) {
	var objects garden.ObjectStore
	if a.cfg.Assets.Root != "" {
		var opts []assets.Option
		if a.cfg.Assets.BaseURL != "" {
			opts = append(opts, assets.WithSigning(a.cfg.Assets.BaseURL, []byte(a.cfg.Assets.SigningKey), config.URLTTL(a.cfg)))
		}
		ds, err := assets.NewDirStore(a.cfg.Assets.Root, opts...)
		if err != nil {
			return nil, err
		}
		objects = ds
	}
	return garden.NewImageResolver(objects, a.cfg.Assets.Prefix, a.logger), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Reflect "+Version)
		},
	}
}
