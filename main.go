package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/gqgmc-mqtt/cmd"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/config"
)

func main() {
	app := &cli.App{
		Name:   "gqgmc-mqtt",
		Usage:  "publish GQ GMC geiger counter readings to Home Assistant over MQTT",
		Action: cmd.GatewayCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-file",
				EnvVars: []string{"CONFIG_FILE_PATH"},
				Value:   config.DefaultPath,
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   config.DefaultLogLevel,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
