package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	kcs "github.com/mlopslab/mlreg/pkg/configs/server"
	kdb "github.com/mlopslab/mlreg/pkg/domain/experiment/db"
	kpg "github.com/mlopslab/mlreg/pkg/domain/experiment/db/postgres"
	ksqlite "github.com/mlopslab/mlreg/pkg/domain/experiment/db/sqlite"
	"github.com/mlopslab/mlreg/pkg/utils/echoutil"
	"github.com/mlopslab/mlreg/pkg/utils/filewatch"

	"github.com/mlopslab/mlreg/cmd/mlregd/handlers"
)

func main() {

	configPath := flag.String("config-path", "", "registry config path. without it, built-in defaults are used")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	flag.Parse()

	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	// set log
	echoutil.SetLevel(e, *loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)
	e.Use(middleware.CORS())

	// read configfile
	conf, err := kcs.Unmarshal([]byte("{}"))
	if err != nil {
		log.Fatalf("can not build default configration: %s", err)
	}
	if *configPath != "" {
		conf, err = kcs.LoadServerConfig(*configPath)
		if err != nil {
			log.Fatalf("can not read configration: %s", err)
		}

		ctx, cancel, err := filewatch.UntilModifyContext(context.Background(), *configPath)
		if err != nil {
			log.Fatalf("can not watch configration: %s", err)
		}
		defer cancel()
		context.AfterFunc(ctx, func() {
			log.Println("config file is updated. quit to restart server.")
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by config update: %s", err)
			}
		})
	}

	// get dbaccesor
	ctx := context.Background()
	db, err := getDBAccesor(ctx, conf.DBURI)
	if err != nil {
		log.Fatalf("can not open experiment store: %s", err.Error())
	}
	defer db.Close()

	// handlers
	{
		experimentId := "experimentId"

		e.GET("/health/", handlers.HealthHandler())

		e.POST("/api/experiments/track/", handlers.TrackExperimentHandler(db.Experiments()))
		e.GET("/api/experiments/", handlers.FindExperimentHandler(db.Experiments()))
		e.GET("/api/experiments/:experimentId/", handlers.GetExperimentHandler(db.Experiments(), experimentId))
		e.POST("/api/experiments/:experimentId/metrics/", handlers.LogMetricHandler(db.Experiments(), experimentId))
	}
	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	cert, key := *pcert, *pkey
	if cert != "" && key != "" {
		e.Logger.Fatal(e.StartTLS(":"+conf.Port, cert, key))
	} else {
		e.Logger.Fatal(e.Start(":" + conf.Port))
	}
}

// select the store backend by the connection string.
//
// "postgres://" (or "postgresql://") URIs go to postgres; anything else
// is a file path of the embedded sqlite store. a "sqlite:" prefix, if
// any, is stripped.
func getDBAccesor(ctx context.Context, dburi string) (kdb.Database, error) {
	if strings.HasPrefix(dburi, "postgres://") || strings.HasPrefix(dburi, "postgresql://") {
		return kpg.New(ctx, dburi)
	}
	return ksqlite.New(strings.TrimPrefix(dburi, "sqlite:"))
}
