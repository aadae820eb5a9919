package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"printstudio/editor"
	"printstudio/handlers/api/designs"
	"printstudio/handlers/api/sessions"
	"printstudio/handlers/api/shares"
	"printstudio/handlers/api/templates"
	"printstudio/handlers/events"
	"printstudio/render"
	"printstudio/stores"
)

// Config is the service configuration, populated from the environment.
type Config struct {
	Storage         stores.Config
	TemplateCatalog string `envconfig:"TEMPLATE_CATALOG"`
}

func setupRouter(store stores.Store, manager *editor.Manager, catalog *templates.Catalog, hub *events.Hub) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-CSRF-Token", "X-Owner-ID", "Origin", "Host", "Connection", "Accept-Encoding", "Accept-Language", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/api/v2", func(r chi.Router) {
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", templates.HandleList(catalog))
			r.Get("/{id}", templates.HandleGet(catalog))
		})

		r.Route("/designs", func(r chi.Router) {
			r.Get("/", designs.HandleList(store))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", designs.HandleGet(store))
				r.Get("/preview", designs.HandleGetPreview(store))
				r.Delete("/", designs.HandleDelete(store))
			})
		})

		r.Route("/shares", func(r chi.Router) {
			r.Post("/", shares.HandleCreate(store))
			r.Get("/{id}", shares.HandleGet(store))
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessions.HandleCreate(manager, catalog, hub))
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", sessions.HandleGetState(manager))
				r.Delete("/", sessions.HandleClose(manager))
				r.Put("/template", sessions.HandleSetTemplate(manager, catalog))
				r.Put("/color", sessions.HandleSetColor(manager))
				r.Put("/guide", sessions.HandleSetGuide(manager))
				r.Post("/pointer", sessions.HandlePointer(manager))
				r.Delete("/selection", sessions.HandleClearSelection(manager))
				r.Get("/export", sessions.HandleExport(manager))
				r.Post("/save", sessions.HandleSaveDesign(manager, store))
				r.Post("/share", sessions.HandleShare(manager, store))
				r.Post("/load", sessions.HandleLoadScene(manager, catalog))

				r.Route("/objects", func(r chi.Router) {
					r.Post("/text", sessions.HandleAddText(manager))
					r.Post("/shape", sessions.HandleAddShape(manager))
					r.Post("/image", sessions.HandleAddImage(manager))
					r.Route("/{objectID}", func(r chi.Router) {
						r.Get("/panel", sessions.HandleGetPanel(manager))
						r.Patch("/style", sessions.HandleUpdateStyle(manager))
						r.Put("/transform", sessions.HandleUpdateTransform(manager))
						r.Post("/duplicate", sessions.HandleDuplicate(manager))
						r.Post("/reorder", sessions.HandleReorder(manager))
						r.Put("/visibility", sessions.HandleSetVisibility(manager))
						r.Put("/lock", sessions.HandleSetLock(manager))
						r.Put("/select", sessions.HandleSelect(manager))
						r.Delete("/", sessions.HandleDeleteObject(manager))
					})
				})
			})
		})
	})

	return r
}

func waitForShutdown(hub *events.Hub) {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("Shutting down...")
	hub.Close()
	os.Exit(0)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		logrus.Fatalf("Failed to process configuration: %v", err)
	}

	store := stores.GetStore(cfg.Storage)

	catalog, err := templates.LoadCatalog(cfg.TemplateCatalog)
	if err != nil {
		logrus.Fatalf("Failed to load template catalog: %v", err)
	}

	fonts, err := render.NewFontCatalog()
	if err != nil {
		logrus.Fatalf("Failed to load font catalog: %v", err)
	}
	manager := editor.NewManager(fonts)

	hub := events.NewHub()

	r := setupRouter(store, manager, catalog, hub)
	r.Mount("/socket.io/", hub.Server().ServeHandler(nil))

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddress, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(hub)
}
