package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Sayannath2003/local-text-gif-generator/internal/animation"
	"github.com/Sayannath2003/local-text-gif-generator/internal/config"
	"github.com/Sayannath2003/local-text-gif-generator/internal/engine"
	"github.com/Sayannath2003/local-text-gif-generator/internal/manifest"
	"github.com/Sayannath2003/local-text-gif-generator/internal/server"
	"github.com/Sayannath2003/local-text-gif-generator/internal/storage"
	"github.com/Sayannath2003/local-text-gif-generator/internal/system"
	"github.com/Sayannath2003/local-text-gif-generator/internal/text"
)

func main() {
	// .env необязателен
	_ = godotenv.Load()

	promptPtr := flag.String("prompt", "", "Текст для анимации (обязателен без -serve)")
	configPtr := flag.String("config", "", "Путь к YAML конфигу")
	outputPtr := flag.String("output", "", "Папка для GIF (по умолчанию: static/output)")
	fontPtr := flag.String("font", "", "Путь к TTF/OTF шрифту (по умолчанию: встроенный Go Bold)")
	workersPtr := flag.Int("workers", 0, "Потоки (0 - авто по CPU и памяти)")
	statsPtr := flag.Bool("stats", false, "Показать статистику производительности")
	servePtr := flag.Bool("serve", false, "Запустить веб-интерфейс")
	addrPtr := flag.String("addr", "", "Адрес веб-интерфейса (по умолчанию: :8080)")
	manifestPtr := flag.Bool("manifest", false, "Записать manifest.yaml рядом с GIF")
	logLevelPtr := flag.String("log-level", "", "Уровень логов: debug, info, warn, error")

	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output":
			cfg.OutputDir = *outputPtr
		case "font":
			cfg.FontPath = *fontPtr
		case "workers":
			cfg.Workers = *workersPtr
		case "stats":
			cfg.ShowStats = *statsPtr
		case "addr":
			cfg.Addr = *addrPtr
		case "log-level":
			cfg.LogLevel = *logLevelPtr
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("[-] Неизвестный уровень логов %q", cfg.LogLevel)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	font, err := text.LoadFont(cfg.FontPath)
	if err != nil {
		log.Fatalf("[-] Ошибка загрузки шрифта: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatalf("[-] Ошибка хранилища: %v", err)
	}

	matrix := engine.NewStyleMatrix(cfg, font, &animation.GIFEncoder{}, store)

	// Лимит файлов по числу потоков (для macOS/Linux)
	workers := matrix.PoolSize()
	if limit, err := system.RaiseOpenFilesLimit(system.OpenFilesNeeded(workers)); err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	} else {
		fmt.Printf("[*] Потоков: %d | Лимит открытых файлов: %d\n", workers, limit)
	}

	fmt.Println("--- [TEXT GIF GENERATOR] ---")
	fmt.Printf("[*] Шрифт: %s | Холст: %dx%d | Кадров: %d x %v\n",
		font.Name(), cfg.Width, cfg.Height, cfg.FrameCount, cfg.FrameDuration)
	fmt.Printf("[*] Хранилище: %s | Папка: %s\n", cfg.Storage, cfg.OutputDir)
	fmt.Println("-----------------------------")

	if *servePtr {
		linker, _ := store.(storage.Linker)
		if err := serve(ctx, cfg, matrix, linker); err != nil {
			log.Fatalf("[-] Ошибка сервера: %v", err)
		}
		return
	}

	if *promptPtr == "" {
		log.Fatalf("[-] Ошибка: укажите -prompt или -serve")
	}

	styles, err := matrix.Run(ctx, *promptPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка генерации: %v", err)
	}
	for _, s := range styles {
		fmt.Printf("[>] %s: %s (%s / %s)\n", s.Name, s.Path, s.Background, s.Motion)
	}

	if *manifestPtr && len(styles) > 0 {
		path := filepath.Join(cfg.OutputDir, "manifest.yaml")
		if err := manifest.Write(manifest.New(*promptPtr, styles, time.Now()), path); err != nil {
			log.Fatalf("[-] Ошибка записи манифеста: %v", err)
		}
		fmt.Printf("[*] Манифест: %s\n", path)
	}

	fmt.Printf("[+++] ГОТОВО! Стилей: %d\n", len(styles))
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	// Локальная папка нужна и для S3: веб-интерфейс раздает из нее статику
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, err
	}
	if cfg.Storage == config.StorageS3 {
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:       cfg.S3.Bucket,
			Prefix:       cfg.S3.Prefix,
			Region:       cfg.S3.Region,
			Profile:      cfg.S3.Profile,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
	}
	return storage.NewLocalStore(cfg.OutputDir)
}

func serve(ctx context.Context, cfg *config.Config, matrix *engine.StyleMatrix, linker storage.Linker) error {
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.New(matrix, cfg.OutputDir, linker, slog.Default()).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("[*] Веб-интерфейс: http://localhost%s\n", cfg.Addr)
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

	fmt.Println("[*] Остановка сервера...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
