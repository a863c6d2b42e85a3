package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dastanaron/xbelmarks/internal/config"
	xlog "github.com/dastanaron/xbelmarks/internal/log"
	"github.com/dastanaron/xbelmarks/internal/repository"
	"github.com/dastanaron/xbelmarks/internal/service"
)

var rootCmd = &cobra.Command{
	Use:          "xbelmarks",
	Short:        "Terminal bookmark manager with XBEL import and export",
	Long:         "xbelmarks keeps a bookmark tree in a local database, browses it in the terminal and exchanges it as XBEL or browser HTML files.",
	SilenceUsage: true,
	RunE:         runBrowse,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default .xbelmarks.yaml)")
	flags.String("db", "", "path to database file (default ~/.bookmarks/xbelmarks.db)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text or json)")

	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log_format", flags.Lookup("log-format"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".xbelmarks")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("XBELMARKS")
	viper.AutomaticEnv()

	// no config file is fine
	_ = viper.ReadInConfig()
}

// session is an opened bookmark store with its loaded tree
type session struct {
	cfg  *config.Config
	log  *logrus.Logger
	repo *repository.SQLiteRepository
	svc  *service.BookmarkService
}

func openSession(dbPath string) (*session, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.WithDBPath(dbPath)
	}

	logger, err := xlog.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logger.WithField("file", used).Debug("config loaded")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	repo, err := repository.NewSQLiteRepository(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	svc := service.NewBookmarkService(repo, logger).WithIconSize(cfg.IconSize)
	if err := svc.Load(); err != nil {
		repo.Close()
		return nil, err
	}

	logger.WithField("db", cfg.DBPath).Debug("bookmarks loaded")
	return &session{cfg: cfg, log: logger, repo: repo, svc: svc}, nil
}

func (s *session) Close() {
	if err := s.repo.Close(); err != nil {
		s.log.WithError(err).Warn("failed to close database")
	}
}

// withSession opens the store around fn
func withSession(cmd *cobra.Command, fn func(s *session) error) error {
	dbPath, _ := cmd.Flags().GetString("db")
	s, err := openSession(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
