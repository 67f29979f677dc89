package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/hospital-guard-duty/internal/config"
	"github.com/hackgods/hospital-guard-duty/internal/db"
	"github.com/hackgods/hospital-guard-duty/internal/guard"
	redisclient "github.com/hackgods/hospital-guard-duty/internal/redis"
)

// audit-verify periodically reports guard assignments that were persisted
// without an audit entry. The engine surfaces such partial failures to the
// caller at write time; this tool catches the ones nobody resolved.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("audit-verify starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running audit-verify in env=%s interval=%s", cfg.Env, cfg.WorkerInterval)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	repo := guard.NewPgRepository(pgPool)
	locker := redisclient.NewRedisDoctorLocker(rdb, cfg.LockTTL)
	vacations := guard.NewVacationService(repo, locker)
	recorder := guard.NewRecorder(repo)
	svc := guard.NewService(repo, vacations, recorder, locker, cfg)

	// Run once at startup
	runOnce(rootCtx, svc)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping audit-verify")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *guard.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	missing, err := svc.FindUnaudited(runCtx, 500)
	if err != nil {
		log.Printf("audit-verify run error: %v", err)
		return
	}

	for _, a := range missing {
		log.Printf("assignment %d (doctor %d, scheduled %s) has no audit entry",
			a.Number, a.DoctorLicense, a.ScheduledAt.Format(time.RFC3339))
	}

	log.Printf("audit-verify run complete in %s, %d unaudited assignments", time.Since(start), len(missing))
}
