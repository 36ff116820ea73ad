package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/blocklist"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/cache"
	http_recogniser "gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/recogniser/http-recogniser"
)

// config structure
type restAPIConfig struct {
	Server struct {
		HttpPort     int      `mapstructure:"http_port"`
		AllowOrigins []string `mapstructure:"allow_origins"`
	}
	Termite   http_recogniser.Config
	Cache     cache.Config
	Blocklist string
}

var config restAPIConfig

func initConfig() {
	err := lib.InitializeConfig("./config/rest-api.yml", map[string]interface{}{
		"log_level":  "info",
		"log_format": "json",
		"server": map[string]interface{}{
			"http_port":     8080,
			"allow_origins": []string{},
		},
		"termite": map[string]interface{}{
			"url":      "http://localhost:9090/termite",
			"username": "",
			"password": "",
			"insecure": false,
			"timeout":  "60s",
		},
		"cache": map[string]interface{}{
			"type": "local",
			"ttl":  "24h",
			"redis": map[string]interface{}{
				"host": "localhost",
				"port": 6379,
			},
		},
		"blocklist": "",
	}, &config)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}

func newController() controller {
	var c controller

	if config.Termite.Url != "" {
		client, err := http_recogniser.NewClient(config.Termite)
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		cacheClient, err := cache.New(config.Cache)
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		if cacheClient != nil {
			client.WithCache(cacheClient)
		}
		c.client = client
	} else {
		log.Warn().Msg("no termite url configured, only posted responses can be normalized")
	}

	if config.Blocklist != "" {
		bl, err := blocklist.Load(config.Blocklist)
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		c.blocklist = bl
	}
	return c
}

func newRouter(c controller) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.LoggerWithFormatter(lib.JsonLogFormatter), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(config.Server.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = config.Server.AllowOrigins
	}
	r.Use(cors.New(corsConfig))

	s := server{controller: c}
	s.RegisterRoutes(r)
	return r
}

func main() {
	initConfig()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Server.HttpPort),
		Handler: newRouter(newController()),
	}

	ctx, cancel := lib.InterruptContext(context.Background())
	defer cancel()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Send()
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Send()
	}
}
