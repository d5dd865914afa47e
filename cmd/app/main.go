package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-app/internal/config"
	"github.com/BuzzLyutic/todo-app/internal/handler"
	"github.com/BuzzLyutic/todo-app/internal/repo"
	"github.com/BuzzLyutic/todo-app/internal/service"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Подключаем логгер
	logger := newLogger(cfg)
	defer logger.Sync()

	taskRepo, closeRepo := openRepo(cfg, logger)
	defer closeRepo()

	taskService := service.NewTaskService(taskRepo)
	taskHandler := handler.NewTaskHandler(taskService, logger, cfg.IsProduction())

	r := handler.NewRouter(taskHandler, logger, handler.RouterOptions{
		Production:     cfg.IsProduction(),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := http.Server{ // Создаем сервер
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("storage", cfg.Storage),
			zap.String("version", handler.Version),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
		return
	}
	logger.Info("Server stopped successfully!")
}

func newLogger(cfg config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	return logger
}

// openRepo выбирает хранилище по конфигурации и возвращает функцию закрытия.
func openRepo(cfg config.Config, logger *zap.Logger) (repo.TaskRepository, func()) {
	if cfg.Storage != config.StoragePostgres {
		logger.Info("Using file storage", zap.String("path", cfg.DataFile))
		return repo.NewFileRepo(cfg.DataFile, logger), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL) // Создаем новое соединение к БД
	if err != nil {
		logger.Fatal("Failed to connect to Database", zap.Error(err)) // Fatal потому что дальнейшая работа теряет смысл
	}
	if err := pool.Ping(ctx); err != nil { // Пытаемся пингануть БД
		logger.Fatal("Failed to ping the Database", zap.Error(err))
	}

	pgRepo := repo.NewPostgresRepo(pool)
	if err := pgRepo.Init(ctx); err != nil {
		logger.Fatal("Failed to init schema", zap.Error(err))
	}
	logger.Info("Successfully connected to the Database!")
	return pgRepo, pool.Close
}
