package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "topic-scanner",
		Usage: "categorize incoming mail and turn the interesting parts into blog topic suggestions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file (default: search standard locations)",
				EnvVars: []string{"TOPIC_SCANNER_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "print body previews and topic descriptions",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "init-config",
				Usage: "write the default configuration to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "config.yaml", Usage: "destination file"},
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
				},
				Action: initConfig,
			},
			{
				Name:   "validate",
				Usage:  "check the configuration and report every problem",
				Action: validate,
			},
			{
				Name:  "scan",
				Usage: "run one scan now",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "folder", Usage: "mailbox folder to scan"},
					&cli.IntFlag{Name: "max-messages", Usage: "maximum number of messages to fetch"},
					&cli.IntFlag{Name: "days-back", Usage: "only fetch messages from the last N days"},
					&cli.BoolFlag{Name: "unread-only", Usage: "only fetch unread messages"},
					&cli.BoolFlag{Name: "no-report", Usage: "do not send the summary email"},
				},
				Action: scan,
			},
			{
				Name:   "schedule",
				Usage:  "run scans at the configured times until interrupted",
				Action: schedule,
			},
			{
				Name:  "status",
				Usage: "show store statistics and recent results",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 10, Usage: "number of recent messages and topics"},
				},
				Action: status,
			},
		},
	}
}
