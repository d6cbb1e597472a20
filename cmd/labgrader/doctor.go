package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	pretty_table "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/programme-lv/labgrader/internal/environment"
	"github.com/programme-lv/labgrader/internal/isolate"
	"github.com/programme-lv/labgrader/internal/sandbox"
	"github.com/urfave/cli/v3"
)

type health int

const (
	healthOk health = iota
	healthWarn
	healthError
)

type feedbackRow struct {
	unit    string
	health  health
	message string
}

func doctorCommand() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "check the tools and sinks the grader can use",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			nodeBin := "node"
			var opts sandbox.Options

			var feedback []feedbackRow
			l, err := loadLab(cmd)
			if err != nil {
				feedback = append(feedback, feedbackRow{unit: "Lab", health: healthError, message: err.Error()})
			} else {
				feedback = append(feedback, feedbackRow{
					unit:    "Lab",
					health:  healthOk,
					message: fmt.Sprintf("%s, backend %s, deadline %s", l.Name, l.Executor.Backend, l.Deadline.Format(time.RFC3339)),
				})
				opts = l.ExecutorOptions()
				if opts.NodeBin != "" {
					nodeBin = opts.NodeBin
				}
			}

			feedback = append(feedback,
				checkBinary(ctx, "Git", "git", "--version"),
				checkBinary(ctx, "Node", nodeBin, "--version"),
				checkIsolate(ctx),
				checkDocker(ctx, opts),
			)
			feedback = append(feedback, checkSinks(environment.ReadEnvConfig(cmd.String("env-file")))...)

			outputFeedback(feedback)
			for _, row := range feedback {
				if row.health == healthError {
					return errors.New("some checks failed")
				}
			}
			return nil
		},
	}
}

func checkBinary(ctx context.Context, unit, bin string, args ...string) feedbackRow {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, bin, args...).CombinedOutput()
	if err != nil {
		msg := err.Error()
		if len(out) > 0 {
			msg = msg + ": " + strings.TrimSpace(string(out))
		}
		return feedbackRow{unit: unit, health: healthWarn, message: msg}
	}
	return feedbackRow{unit: unit, health: healthOk, message: strings.TrimSpace(string(out))}
}

func checkIsolate(ctx context.Context) feedbackRow {
	if !isolate.GetInstance().Available() {
		return feedbackRow{unit: "Isolate", health: healthWarn, message: "isolate binary not found, isolate backend unavailable"}
	}
	row := checkBinary(ctx, "Isolate", "isolate", "--version")
	if row.health == healthOk {
		row.message = firstLine(row.message)
	}
	return row
}

func checkDocker(ctx context.Context, opts sandbox.Options) feedbackRow {
	c, err := sandbox.NewContainer(opts.NodeImage, opts.MemoryMB)
	if err != nil {
		return feedbackRow{unit: "Docker", health: healthWarn, message: err.Error()}
	}
	defer closeQuietly("docker client", c)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		return feedbackRow{unit: "Docker", health: healthWarn, message: err.Error()}
	}
	return feedbackRow{unit: "Docker", health: healthOk, message: "daemon reachable"}
}

func checkSinks(cfg *environment.EnvConfig) []feedbackRow {
	sink := func(unit, value string) feedbackRow {
		if value == "" {
			return feedbackRow{unit: unit, health: healthOk, message: "not configured"}
		}
		return feedbackRow{unit: unit, health: healthOk, message: "configured"}
	}
	return []feedbackRow{
		sink("NATS", cfg.NatsURL),
		sink("SQS", cfg.SQSQueueURL),
		sink("Postgres", cfg.PostgresDSN),
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func outputFeedback(feedback []feedbackRow) {
	t := pretty_table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(pretty_table.Row{"Unit", "Health", "Message"})
	for _, row := range feedback {
		healthCode := ""
		switch row.health {
		case healthOk:
			healthCode = "OKAY"
		case healthWarn:
			healthCode = "WARN"
		case healthError:
			healthCode = "ERROR"
		}

		t.AppendRow(
			pretty_table.Row{
				row.unit,
				healthCode,
				row.message,
			})
	}
	t.SetStyle(pretty_table.StyleColoredDark)
	textColor := text.Transformer(func(s interface{}) string {
		switch s.(string) {
		case "OKAY":
			return text.FgHiGreen.Sprint(s)
		case "WARN":
			return text.FgHiYellow.Sprint(s)
		case "ERROR":
			return text.FgHiRed.Sprint(s)
		}
		return ""
	})

	t.SetColumnConfigs([]pretty_table.ColumnConfig{
		{
			Name:        "Health",
			Transformer: textColor,
			Align:       text.AlignCenter,
		},
	})
	t.Render()
}
