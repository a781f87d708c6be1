package main

import (
	"context"
	"fmt"

	"taxidispatch/config"
	"taxidispatch/pkg/logger"
	"taxidispatch/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	pg, err := postgres.New(context.Background(), cfg, log)

	if err != nil {
		panic(err)
	}
	defer pg.Close()

	_, err = pg.GetPool().Exec(context.Background(), "TRUNCATE TABLE orders, drivers")
	if err != nil {
		log.Error(fmt.Sprintf("Failed to truncate tables: %v", err))
	} else {
		log.Info("Successfully truncated orders and drivers tables.")
	}
}
