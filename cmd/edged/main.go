//go:generate go run github.com/Songmu/gocredits/cmd/gocredits@v0.3.0 -w
package main

import (
	"context"
	_ "embed"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fyurikon/foodgram-project-react/cmd/edged/handlers"
	"github.com/fyurikon/foodgram-project-react/pkg/configs/extras"
	"github.com/fyurikon/foodgram-project-react/pkg/configs/gateway"
	"github.com/fyurikon/foodgram-project-react/pkg/metrics"
	"github.com/fyurikon/foodgram-project-react/pkg/utils/echoutil"
	"github.com/fyurikon/foodgram-project-react/pkg/utils/filewatch"
	kstrings "github.com/fyurikon/foodgram-project-react/pkg/utils/strings"
	"github.com/fyurikon/foodgram-project-react/pkg/waitfor"
)

//go:embed CREDITS
var CREDITS string

func main() {

	configPath := flag.String("config-path", "", "gateway config path")
	extraConfigPath := flag.String("extra-apis-config", "", "path to extra api config file")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	plic := flag.Bool("license", false, "show licenses of dependencies")
	flag.Parse()

	if *plic {
		log.Println(CREDITS)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := echo.New()

	// set log
	echoutil.SetLevel(e, *loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)
	e.Use(metrics.Middleware())

	// read configfile
	conf, err := gateway.LoadGatewayConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}

	extraApis := extras.Config{}
	if *extraConfigPath != "" {
		x, err := extras.Load(*extraConfigPath)
		if err != nil {
			log.Fatalf("can not read configration: %s", err)
		}
		extraApis = x

		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *extraConfigPath)
		if err != nil {
			log.Fatalf("can not watch configration: %s", err)
		}
		defer cancel()
		context.AfterFunc(wctx, func() {
			log.Println("extra API config file is updated. quit to restart server.")
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by extra API config update: %s", err)
			}
		})
	}

	// wait for peers coming up, like compose's depends_on does
	if conf.DBURI != "" {
		if err := waitfor.Database(ctx, conf.DBURI); err != nil {
			log.Fatalf("database is not ready: %s", err)
		}
	}
	if err := waitfor.HTTP(ctx, kstrings.SuppySuffix(conf.Backend.String(), "/")); err != nil {
		log.Fatalf("backend is not ready: %s", err)
	}

	if rl := conf.RateLimit; rl != nil {
		limiter := echoutil.NewRateLimiter(rl.PerSecond, rl.Burst)
		limiter.StartCleanup(ctx, 10*time.Minute)
		e.Use(limiter.Middleware())
	}

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	if err := handlers.Register(e, conf, extraApis, echoutil.Proxy); err != nil {
		log.Fatalf("can not set routes: %s", err)
	}

	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	context.AfterFunc(ctx, func() {
		graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := e.Shutdown(graceful); err != nil {
			log.Printf("error on shutdown by signal: %s", err)
		}
	})

	cert, key := *pcert, *pkey
	if cert != "" && key != "" {
		e.Logger.Fatal(e.StartTLS(":"+conf.ServerPort, cert, key))
	} else {
		e.Logger.Fatal(e.Start(":" + conf.ServerPort))
	}
}
