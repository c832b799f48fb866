package main

import (
	"github.com/brightstack/coursekart/internal/config"
	"github.com/brightstack/coursekart/internal/migration"
	"github.com/brightstack/coursekart/internal/observability"
	"github.com/brightstack/coursekart/internal/server"
	"github.com/brightstack/coursekart/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
