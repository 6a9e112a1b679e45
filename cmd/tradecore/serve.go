package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	httpadp "tradecore/internal/adapter/http"
	"tradecore/internal/adapter/lock"
	"tradecore/internal/adapter/middleware"
	"tradecore/internal/adapter/repository/mysql"
	"tradecore/internal/adapter/valuation"
	"tradecore/internal/config"
	"tradecore/internal/domain/trade"
	"tradecore/internal/domain/uow"
	"tradecore/internal/infrastructure/cache"
	"tradecore/internal/infrastructure/db"
	"tradecore/internal/infrastructure/logging"
	"tradecore/internal/policy"
	ucApproval "tradecore/internal/usecase/approval"
	ucRule "tradecore/internal/usecase/rule"
	ucTrade "tradecore/internal/usecase/trade"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, config.Load(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply schema migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.AppEnv)
	zerolog.DefaultContextLogger = &log

	gdb, err := db.Open(cfg.DBDriver, cfg.DSN(), db.GormLogLevel(cfg.LogLevel))
	if err != nil {
		return err
	}
	if migrate {
		if err := mysql.Migrate(gdb); err != nil {
			return err
		}
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		if rdb, err = cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB); err != nil {
			return err
		}
		defer rdb.Close()
	}

	var locker uow.Locker = lock.NewKeyedMutex()
	if cfg.LockBackend == "redis" {
		locker = lock.NewRedisLocker(rdb, cfg.LockTTL())
	}

	var valuer trade.Valuer
	if cfg.ValuationURL != "" {
		valuer = valuation.NewClient(cfg.ValuationURL, cfg.ValuationTimeout(), log)
	}

	pol, err := policy.Open(cfg.PolicyFile)
	if err != nil {
		return err
	}
	if cfg.PolicyFile != "" {
		go func() {
			if err := pol.Watch(ctx, log); err != nil {
				log.Warn().Err(err).Str("file", cfg.PolicyFile).Msg("policy watch stopped")
			}
		}()
	}

	tx := mysql.NewGormUoW(gdb)
	rules := mysql.NewRuleRepository(gdb)
	trades := mysql.NewTradeRepository(gdb)
	workflows := mysql.NewWorkflowRepository(gdb)

	tradeUC := ucTrade.NewUsecase(ucTrade.Deps{
		Trades:         trades,
		Rules:          rules,
		Workflows:      workflows,
		Audit:          mysql.NewAuditRepository(gdb),
		UoW:            tx,
		Locker:         locker,
		Valuer:         valuer,
		Policy:         pol,
		LifecycleRules: mysql.NewLifecycleRuleRepository(gdb),
		Templates:      mysql.NewTemplateRepository(gdb),
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Recover(), middleware.Trace(), middleware.WithLogger(log), middleware.Actor(), middleware.AccessLog(log))
	if rdb != nil {
		e.Use(middleware.Idempotency(rdb, cfg.IdempotencyTTL()))
	}
	httpadp.Register(e, httpadp.Handlers{
		Service:   httpadp.NewHandler(pinger(gdb, rdb), pol),
		Rules:     httpadp.NewRuleHandler(ucRule.NewUsecase(rules, trades, tx, valuer)),
		Trades:    httpadp.NewTradeHandler(tradeUC),
		Approvals: httpadp.NewApprovalHandler(ucApproval.NewUsecase(workflows, tx, locker, nil)),
	})

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.AppPort
		log.Info().Str("addr", addr).Str("db", cfg.DBDriver).Str("lock", cfg.LockBackend).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(sctx)
}

// pinger checks the database and, when configured, redis.
func pinger(gdb *gorm.DB, rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return err
		}
		if rdb != nil {
			return rdb.Ping(ctx).Err()
		}
		return nil
	}
}
