package main

import (
	"log"
	"os"

	"github.com/dtnguyen/shop-api/cmd/shop-api/app"
	"github.com/dtnguyen/shop-api/configs"
)

func main() {
	env := os.Getenv("APP_ENV") // dev | staging | prod
	if env == "" {
		env = "dev"
	}

	cfg, err := configs.Load("configs", env)
	if err != nil {
		log.Fatal(err)
	}

	srv, cleanup, err := app.InitWithConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	log.Printf("shop-api (%s) listening on %s", env, cfg.App.HTTPAddr)
	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
