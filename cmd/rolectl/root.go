package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/fernandezvara/roles"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// settings is the resolved rolectl configuration.
type settings struct {
	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
	Roles  roles.Config     `mapstructure:"roles"`
	Pool   roles.PoolConfig `mapstructure:"pool"`
	Log    logSettings      `mapstructure:"log"`
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	Cache struct {
		TTL time.Duration `mapstructure:"ttl"`
	} `mapstructure:"cache"`
}

type logSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// app carries what every subcommand needs once the config is loaded.
type app struct {
	v       *viper.Viper
	cfg     settings
	logger  *zap.Logger
	db      *dbkit.DBKit
	service *roles.Service
	metrics *roles.Metrics
	out     string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("database.url", "")
	v.SetDefault("roles.table_name", "roles")
	v.SetDefault("roles.associated_model", "user")
	v.SetDefault("roles.associated_model_table_name", "users")
	v.SetDefault("roles.pivot_table", "")
	v.SetDefault("roles.pivot_name", "")
	v.SetDefault("roles.subject_column", "")
	pool := roles.DefaultPoolConfig()
	v.SetDefault("pool.max_open_connections", pool.MaxOpenConnections)
	v.SetDefault("pool.max_idle_connections", pool.MaxIdleConnections)
	v.SetDefault("pool.connection_max_lifetime", pool.ConnectionMaxLifetime)
	v.SetDefault("pool.connection_max_idle_time", pool.ConnectionMaxIdleTime)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("cache.ttl", time.Duration(0))

	v.SetEnvPrefix("ROLECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func newRootCmd() *cobra.Command {
	a := &app{v: newViper()}

	root := &cobra.Command{
		Use:           "rolectl",
		Short:         "Manage roles and subject role assignments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().String("config", "", "config file (default is ./rolectl.yaml when present)")
	root.PersistentFlags().String("database-url", "", "Postgres URL (env ROLECTL_DATABASE_URL)")
	root.PersistentFlags().StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "", "Log format (json, text)")
	root.PersistentFlags().StringVar(&a.out, "out", "text", "Output format: json|text")

	_ = a.v.BindPFlag("database.url", root.PersistentFlags().Lookup("database-url"))
	_ = a.v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(
		newMigrateCmd(a),
		newRoleCmd(a),
		newSubjectCmd(a),
		newHealthCmd(a),
		newServeCmd(a),
	)
	return root
}

// load reads the config file and environment, then opens the database and builds the service.
func (a *app) load(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		a.v.SetConfigFile(configPath)
	} else {
		a.v.SetConfigName("rolectl")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	a.logger = newLogger(a.cfg.Log)

	if a.cfg.Database.URL == "" {
		return fmt.Errorf("database url is required (--database-url or ROLECTL_DATABASE_URL)")
	}

	db, err := dbkit.New(dbkit.Config{URL: a.cfg.Database.URL})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	a.db = db

	opts := []roles.ServiceOption{roles.WithServiceLogger(a.logger)}
	if a.cfg.Cache.TTL > 0 {
		opts = append(opts, roles.WithRoleCache(a.cfg.Cache.TTL))
	}
	if cmd.Name() == "serve" {
		metrics, err := roles.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		a.metrics = metrics
		opts = append(opts, roles.WithServiceMetrics(metrics))
	}

	service, err := roles.NewService(db, a.cfg.Roles, opts...)
	if err != nil {
		return err
	}
	a.service = service

	return service.ConfigureConnectionPool(a.cfg.Pool)
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) ctx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newLogger builds a console logger for "text" and a JSON logger for "json".
func newLogger(cfg logSettings) *zap.Logger {
	var zcfg zap.Config
	if strings.EqualFold(cfg.Format, "json") {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zcfg.DisableStacktrace = true
	}
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	l, err := zcfg.Build()
	if err != nil {
		l, _ = zap.NewProduction()
	}
	return l.Named("rolectl")
}

func parseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
