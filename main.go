package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "teleferico/internal/config"
	router "teleferico/internal/http"
	"teleferico/internal/http/handlers"
	"teleferico/internal/repositories"
	"teleferico/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	opts := services.DispatcherOptions{
		Scheduler:      services.TimerScheduler{},
		TravelDuration: env.TravelDuration,
	}

	var journal handlers.TripJournal
	if env.JournalEnabled() {
		db := intconfig.ConnectDB(env.DBDSN)
		defer intconfig.CloseDB()

		repo := repositories.TripLogRepository{DB: db}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := repo.EnsureTable(ctx); err != nil {
			log.Printf("warning: trip_log belum siap: %v", err)
		}
		cancel()
		opts.Recorder = repo
		journal = repo
	} else {
		log.Println("DB_DSN kosong, trip journal nonaktif")
	}

	dispatcher := services.NewDispatcher(opts)
	r := router.NewRouter(env, handlers.New(dispatcher, journal))

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Teleferico berjalan di http://localhost%s (travel=%s)", env.AppAddr, dispatcher.TravelDuration())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Gagal menjalankan server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Mematikan server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Shutdown server gagal: %v", err)
	}
	dispatcher.Close()

	log.Println("Server berhenti dengan aman.")
}
