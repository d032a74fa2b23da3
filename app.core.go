package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/go-chi/cors"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger         *zap.Logger
	config         *Config
	server         *http.Server
	cleanups       []func()
	queueConsumers []func(context.Context) error
}

// NewApp provides an instance of App.
func NewApp() (AppProvider, error) {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	// ensure the logs folder exists and setup the logging module.
	if err = os.MkdirAll(config.LogFolder, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create logging folder: %s", err)
	}
	clock := NewClock(config.IsProduction)
	logWriter := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, logWriter, NewTickClock(clock))

	app := &App{logger: logger, config: config}
	app.cleanups = append(app.cleanups, func() {
		if err := flusher(); err != nil {
			fmt.Println("error during flushing of logs: ", err)
		}
		if err := logWriter.Close(); err != nil {
			fmt.Println("error during closing of log file: ", err)
		}
	})

	storage, closeStorage, err := SetupBookStorage(config, logger)
	if err != nil {
		app.Clean()
		return nil, err
	}
	app.cleanups = append([]func(){closeStorage}, app.cleanups...)

	images, err := SetupImageStore(context.Background(), config, logger)
	if err != nil {
		app.Clean()
		return nil, err
	}

	var queue Queuer
	if config.Mirror.Enable {
		queue, err = app.setupMirror()
		if err != nil {
			app.Clean()
			return nil, err
		}
	}

	bookService := NewBookService(logger, config, clock, NewObjectIDHandler(), storage, images, queue)
	apiService := NewAPIHandler(
		logger,
		config,
		&Statistics{
			version:   config.GitTag,
			container: IsAppRunningInDocker(),
			started:   clock.Now(),
			runtime:   runtime.Version(),
			platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		bookService,
		images,
	)

	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		apiService.stats.version = config.GitCommit
	}

	app.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        apiService.Handler(),
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
	}
	return app, nil
}

// Handler builds the full http handler of the api: routes with their
// middlewares, the default timeout handler and the cors policy.
func (api *APIHandler) Handler() http.Handler {
	middlewaresPublic, middlewaresOps := api.MiddlewaresStacks()
	router := api.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)

	routerWithTimeout := http.TimeoutHandler(
		router,
		api.config.Server.RequestTimeout,
		"Timeout. Processing taking too long. Please reach out to support.")

	return cors.Handler(cors.Options{
		AllowedOrigins: api.config.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Origin"},
		MaxAge:         300,
	})(routerWithTimeout)
}

// SetupImageStore provides the configured images store.
func SetupImageStore(ctx context.Context, config *Config, logger *zap.Logger) (ImageStore, error) {
	switch config.Images.Driver {
	case ImagesDisk:
		store, err := NewDiskImageStore(config.Images.Folder)
		if err != nil {
			return nil, fmt.Errorf("failed to setup images folder: %s", err)
		}
		return store, nil
	case ImagesS3:
		client, err := GetS3Client(ctx, &config.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to setup s3 client: %s", err)
		}
		return NewS3ImageStore(logger, client, config.S3.BucketName), nil
	}
	return nil, fmt.Errorf("unsupported images driver %q", config.Images.Driver)
}

// setupMirror connects the redis queues and the bolt archive
// then registers the consumer replaying the books changes.
func (app *App) setupMirror() (Queuer, error) {
	redisClient, err := GetRedisClient(app.config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis server: %s", err)
	}
	mirrorConfig := app.config.Mirror.BoltDB()
	if err = os.MkdirAll(filepath.Dir(mirrorConfig.FilePath), 0o700); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to create mirror folder: %s", err)
	}
	boltDBClient, err := GetBoltDBClient(&mirrorConfig)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to open mirror database: %s", err)
	}
	app.cleanups = append([]func(){
		func() {
			if err := redisClient.Close(); err != nil {
				app.logger.Error("failed to close redis client", zap.Error(err))
			}
		},
		func() {
			if err := boltDBClient.Close(); err != nil {
				app.logger.Error("failed to close mirror database", zap.Error(err))
			}
		},
	}, app.cleanups...)

	queue := NewRedisQueue(redisClient)
	consumer := NewBoltDBConsumer(app.logger, queue, NewBoltBookStorage(app.logger, &mirrorConfig, boltDBClient))
	app.queueConsumers = append(app.queueConsumers, func(ctx context.Context) error {
		return consumer.Consume(ctx, CreateQueue, UpdateQueue, DeleteQueue)
	})
	return queue, nil
}

// Run starts the api web server and a goroutine which is responsible to stop it.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	g.Go(app.ConsumeQueues(gCtx, g))
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		f()
	}
}

// Serve starts the api web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
			zap.String("app.store", app.config.Store.Driver),
			zap.String("app.images", app.config.Images.Driver),
		)
		err := app.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It states the reason of its call. We proceed with a brutal shutdown if the
// the graceful did not complete successfully. We explicitly return `nil` to
// allow the errorgroup catches only the `Serve` method result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch {
		case err == nil, errors.Is(err, http.ErrServerClosed):
			app.logger.Info("api server graceful shutdown succeeded")
		case errors.Is(err, context.DeadlineExceeded):
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}
		return nil
	}
}

// ConsumeQueues runs all queue consumers into separate controlled goroutines.
func (app *App) ConsumeQueues(gCtx context.Context, g *errgroup.Group) func() error {
	return func() error {
		for _, consume := range app.queueConsumers {
			consume := consume
			g.Go(func() error {
				return consume(gCtx)
			})
		}
		return nil
	}
}
