package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/westock/internal/adapter/storage"
	"github.com/rl1809/westock/internal/core/domain"
	"github.com/rl1809/westock/internal/core/service"
)

const (
	redisAddr      = "localhost:6379"
	totalWrites    = 200
	shareReceivers = 10
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()
	remote := storage.NewRedisAdapter(rdb)

	dir, err := os.MkdirTemp("", "westock-stress")
	if err != nil {
		log.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	db, err := storage.OpenSQLite(ctx, filepath.Join(dir, "sender.db"))
	if err != nil {
		log.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	user := domain.Identity("stress-" + uuid.NewString())
	defer rdb.Del(ctx, "doc:"+string(user))

	repo := service.NewRepository(logger, storage.NewSQLiteStore(db, 64<<20, logger))
	syncSvc := service.NewSyncService(logger, repo, remote, 0)
	if err := syncSvc.Bind(ctx, user); err != nil {
		log.Fatalf("failed to bind: %v", err)
	}

	// Concurrent local writes; the mirror only has to converge on the last state.
	var failCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalWrites; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := repo.CreateItem(ctx, domain.InventoryItem{
				Name:  fmt.Sprintf("item-%d", n),
				Stock: domain.Stock{M: n % 5},
			})
			if err != nil {
				failCount.Add(1)
			}
		}(i)
	}
	wg.Wait()
	syncSvc.Close()
	writeElapsed := time.Since(start)

	local := repo.Document(ctx)
	mirrored, err := remote.GetDocument(ctx, user)
	if err != nil {
		log.Fatalf("failed to read remote document: %v", err)
	}

	// Share every item in one bundle and import it on several fresh devices in parallel.
	ids := make([]string, 0, len(local.Items))
	for _, it := range local.Items {
		ids = append(ids, it.ID)
	}
	bundle, err := repo.CreateBundle(ctx, domain.Bundle{Name: "stress", ItemIDs: ids})
	if err != nil {
		log.Fatalf("failed to create bundle: %v", err)
	}

	start = time.Now()
	token, err := service.NewShareService(logger, repo, remote, 0).Export(ctx, bundle.ID)
	if err != nil {
		log.Fatalf("failed to export bundle: %v", err)
	}
	exportElapsed := time.Since(start)

	var importOK atomic.Int32
	start = time.Now()
	for i := 0; i < shareReceivers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			recvDB, err := storage.OpenSQLite(ctx, filepath.Join(dir, fmt.Sprintf("receiver-%d.db", n)))
			if err != nil {
				return
			}
			defer recvDB.Close()

			r := service.NewRepository(logger, storage.NewSQLiteStore(recvDB, 64<<20, logger))
			result, err := service.NewShareService(logger, r, remote, 0).Import(ctx, token)
			if err == nil && result.ItemsAdded == len(ids) {
				importOK.Add(1)
			}
		}(i)
	}
	wg.Wait()
	importElapsed := time.Since(start)

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Concurrent writes:  %d\n", totalWrites)
	fmt.Printf("Failed writes:      %d\n", failCount.Load())
	fmt.Printf("Local items:        %d\n", len(local.Items))
	fmt.Printf("Write duration:     %v\n", writeElapsed)
	fmt.Printf("Export duration:    %v\n", exportElapsed)
	fmt.Printf("Imports succeeded:  %d/%d\n", importOK.Load(), shareReceivers)
	fmt.Printf("Import duration:    %v\n", importElapsed)
	fmt.Println("==========================================")

	if failCount.Load() == 0 && len(local.Items) == totalWrites {
		fmt.Printf("PASS: all %d writes stored locally\n", totalWrites)
	} else {
		fmt.Printf("FAIL: expected %d local items, got %d\n", totalWrites, len(local.Items))
	}

	if mirrored != nil && len(mirrored.Items) == len(local.Items) {
		fmt.Println("PASS: remote mirror converged on the last local state")
	} else {
		n := 0
		if mirrored != nil {
			n = len(mirrored.Items)
		}
		fmt.Printf("FAIL: remote mirror has %d items, local has %d\n", n, len(local.Items))
	}

	if importOK.Load() == shareReceivers {
		fmt.Println("PASS: every receiver imported the full bundle")
	} else {
		fmt.Printf("FAIL: %d receivers imported the full bundle\n", importOK.Load())
	}
}
