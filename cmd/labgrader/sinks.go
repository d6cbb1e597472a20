package main

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/nats-io/nats.go"
	"github.com/programme-lv/labgrader/internal/environment"
	"github.com/programme-lv/labgrader/internal/gatherer/natsgath"
	"github.com/programme-lv/labgrader/internal/gatherer/pggath"
	"github.com/programme-lv/labgrader/internal/gatherer/sqsgath"
	"github.com/programme-lv/labgrader/internal/pipeline"
	"gorm.io/gorm"
)

// sinks are the optional result destinations configured by LABGRADER_* variables.
// A sink that cannot be reached is logged and skipped.
type sinks struct {
	nc  *nats.Conn
	db  *gorm.DB
	sqs *sqs.Client
	cfg *environment.EnvConfig
}

func openSinks(ctx context.Context, cfg *environment.EnvConfig) *sinks {
	s := &sinks{cfg: cfg}

	if cfg.NatsURL != "" {
		nc, err := natsgath.Connect(cfg.NatsURL)
		if err != nil {
			slog.Warn("nats sink disabled", "err", err)
		} else {
			s.nc = nc
		}
	}

	if cfg.SQSQueueURL != "" {
		client, err := sqsgath.NewClient(ctx, "")
		if err != nil {
			slog.Warn("sqs sink disabled", "err", err)
		} else {
			s.sqs = client
		}
	}

	if cfg.PostgresDSN != "" {
		db, err := pggath.Open(cfg.PostgresDSN)
		if err != nil {
			slog.Warn("postgres sink disabled", "err", err)
		} else {
			s.db = db
		}
	}
	return s
}

// gatherers returns one gatherer per open sink for the given run.
func (s *sinks) gatherers(runUuid string) []pipeline.ResultGatherer {
	var gs []pipeline.ResultGatherer
	if s.nc != nil {
		gs = append(gs, natsgath.New(s.nc, runUuid, s.cfg.NatsSubject))
	}
	if s.sqs != nil {
		gs = append(gs, sqsgath.NewSqsResponseQueueGatherer(s.sqs, runUuid, s.cfg.SQSQueueURL))
	}
	if s.db != nil {
		gs = append(gs, pggath.New(s.db))
	}
	return gs
}

func (s *sinks) Close() {
	if s.nc != nil {
		if err := s.nc.Drain(); err != nil {
			slog.Warn("failed to drain nats connection", "err", err)
		}
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			closeQuietly("postgres", sqlDB)
		}
	}
}
