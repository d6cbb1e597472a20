package natsgath

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/programme-lv/labgrader/internal/report"
)

const (
	HeaderRunUuid         = "Labgrader-Run-Uuid"
	HeaderContentEncoding = "Content-Encoding"
)

type publisher interface {
	PublishMsg(m *nats.Msg) error
	Flush() error
}

func (s *natsGatherer) send(msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal message", "err", err)
		return
	}

	m := nats.NewMsg(s.subject)
	m.Header.Set(HeaderRunUuid, s.runUuid)
	m.Data = b
	if err := s.nc.PublishMsg(m); err != nil {
		slog.Warn("failed to publish message to NATS", "subject", s.subject, "err", err)
	}
}

func (s *natsGatherer) sendRecord(rec any) {
	b, err := json.Marshal(rec)
	if err != nil {
		slog.Error("failed to marshal record", "err", err)
		return
	}
	compressed, err := report.Compress(b)
	if err != nil {
		slog.Error("failed to compress record", "err", err)
		return
	}

	m := nats.NewMsg(s.subject + ".record")
	m.Header.Set(HeaderRunUuid, s.runUuid)
	m.Header.Set(HeaderContentEncoding, "zstd")
	m.Data = compressed
	if err := s.nc.PublishMsg(m); err != nil {
		slog.Warn("failed to publish record to NATS", "subject", m.Subject, "err", err)
	}
	if err := s.nc.Flush(); err != nil {
		slog.Warn("failed to flush NATS connection", "err", err)
	}
}
