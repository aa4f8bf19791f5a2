package main

import (
	"fmt"
	"log"

	"github.com/Speshl/gorrc_tracker/internal/app"
	"github.com/Speshl/gorrc_tracker/internal/config"
	socketio "github.com/googollee/go-socket.io"
)

func main() {
	cfg := config.GetConfig()

	err := cfg.Validate()
	if err != nil {
		log.Fatalf("invalid config: %s", err.Error())
	}

	var client *socketio.Client
	if cfg.ServerCfg.Enabled {
		socketURI := fmt.Sprintf("http://%s", cfg.ServerCfg.Server)
		client, err = socketio.NewClient(socketURI, nil)
		if err != nil {
			err = fmt.Errorf("error creating client - %w", err)
			panic(err)
		}
	}

	app, err := app.NewApp(cfg, client)
	if err != nil {
		log.Fatalf("failed creating tracker: %s", err.Error())
	}

	err = app.RegisterHandlers()
	if err != nil {
		log.Fatalf("failed registering handlers: %s", err.Error())
	}

	err = app.Start()
	if err != nil {
		log.Printf("tracker shutdown with error: %s", err.Error())
	} else {
		log.Println("tracker shutdown successfully")
	}
}
