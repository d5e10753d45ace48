package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"

	"pigeon/config"
	"pigeon/internal/bus"
	"pigeon/internal/database"
	"pigeon/internal/handler"
	"pigeon/internal/logger"
	"pigeon/internal/remote"
	"pigeon/internal/repository"
	"pigeon/internal/router"
	"pigeon/internal/service"
	"pigeon/internal/session"
	"pigeon/pkg/attachment"
)

// logRenderer is the default notification renderer: it writes render and
// clear decisions to the log. Embedders replace it with a platform renderer.
type logRenderer struct{}

func (logRenderer) Render(roomID int64, window []service.NotificationItem, total int, newest service.NotificationItem) error {
	log.Printf("[render] room %d: %q (%d shown, %d total)", roomID, newest.Text, len(window), total)
	return nil
}

func (logRenderer) Clear(roomID int64) error {
	log.Printf("[render] room %d: cleared", roomID)
	return nil
}

// syncGate combines session and transport state for the scheduler.
type syncGate struct {
	sess *session.Session
	rt   *remote.Realtime
}

func (g syncGate) LoggedIn() bool     { return g.sess.LoggedIn() }
func (g syncGate) Connected() bool    { return g.rt.IsConnected() }
func (g syncGate) Foregrounded() bool { return g.sess.Foregrounded() }

func main() {
	cfg := config.Load()
	if err := logger.Setup(&cfg.Logger); err != nil {
		log.Fatalf("logger: %v", err)
	}
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	cache, err := attachment.NewCache(cfg.Attachment.CacheDir)
	if err != nil {
		log.Fatalf("attachment cache: %v", err)
	}

	b := bus.New()
	sess := session.New(b)

	msgRepo := repository.NewMessageRepository(db, cache)
	roomRepo := repository.NewRoomRepository(db)
	cursorRepo := repository.NewCursorRepository(db)

	token := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.API.Token})
	client := remote.NewClient(&cfg.API, token)

	var uploader attachment.Uploader
	if cfg.Attachment.CloudName != "" {
		uploader, err = attachment.NewUploader(cfg.Attachment.CloudName,
			cfg.Attachment.APIKey, cfg.Attachment.APISecret)
		if err != nil {
			log.Fatalf("uploader: %v", err)
		}
	}

	deletionSvc := service.NewDeletionService(msgRepo, b)
	fetchRoom := func(ctx context.Context, roomID int64) error {
		room, _, err := client.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		return roomRepo.UpsertRoom(room)
	}
	notifSvc := service.NewNotificationService(msgRepo, roomRepo, sess,
		cfg.Notification, logRenderer{}, fetchRoom, b)
	deletionSvc.SetListener(notifSvc.OnDeletion)
	msgSvc := service.NewMessageService(client, msgRepo, roomRepo, sess, uploader)

	realtime := remote.NewRealtime(&cfg.Realtime, b, notifSvc.OnMessage, deletionSvc.Process)

	syncSvc := service.NewSyncService(client, cursorRepo, syncGate{sess: sess, rt: realtime},
		deletionSvc, notifSvc, b, cfg.Sync.Interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncSvc.Bind(ctx)
	realtime.Start(ctx)

	if cfg.API.Token != "" {
		if _, err := sess.SetUser(cfg.API.Token); err != nil {
			log.Fatalf("session: %v", err)
		}
	}

	var srv *http.Server
	if cfg.Debug.Enabled {
		statusHandler := handler.NewStatusHandler(syncSvc, notifSvc, cursorRepo, roomRepo, realtime)
		messageHandler := handler.NewMessageHandler(msgSvc)
		engine := router.Setup(cfg, statusHandler, messageHandler)
		srv = &http.Server{Addr: "127.0.0.1:" + cfg.Debug.Port, Handler: engine}
		go func() {
			log.Printf("debug server listening on 127.0.0.1:%s", cfg.Debug.Port)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("listen: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	syncSvc.Stop()
	realtime.Stop()
	cancel()
	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Fatal("server shutdown:", err)
		}
	}
	fmt.Println("stopped")
}
