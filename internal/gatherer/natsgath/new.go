package natsgath

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "labgrader.grades"

// Connect dials the NATS server at url.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("labgrader"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return nc, nil
}

// New creates a gatherer that streams events of one run to subject and the
// final record, zstd-compressed, to subject.record.
func New(nc publisher, runUuid string, subject string) *natsGatherer {
	if subject == "" {
		subject = DefaultSubject
	}
	return &natsGatherer{
		nc:      nc,
		subject: subject,
		runUuid: runUuid,
	}
}
