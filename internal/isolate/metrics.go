package isolate

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Status codes written by isolate to the meta file.
const (
	StatusRuntimeError = "RE"
	StatusSignaled     = "SG"
	StatusTimedOut     = "TO"
	StatusInternal     = "XX"
)

type Metrics struct {
	TimeSec      float64
	TimeWallSec  float64
	MaxRssKb     int64
	CswVoluntary int64
	CswForced    int64
	CgMemKb      int64
	ExitCode     int64
	ExitSignal   int64
	Killed       bool
	CgOomKilled  bool
	Status       string
	Message      string
}

func (m *Metrics) TimedOut() bool {
	return m.Status == StatusTimedOut
}

func parseMetaFile(content []byte) (*Metrics, error) {
	m := &Metrics{}
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed meta line %q", line)
		}

		var err error
		switch key {
		case "time":
			m.TimeSec, err = strconv.ParseFloat(value, 64)
		case "time-wall":
			m.TimeWallSec, err = strconv.ParseFloat(value, 64)
		case "max-rss":
			m.MaxRssKb, err = strconv.ParseInt(value, 10, 64)
		case "csw-voluntary":
			m.CswVoluntary, err = strconv.ParseInt(value, 10, 64)
		case "csw-forced":
			m.CswForced, err = strconv.ParseInt(value, 10, 64)
		case "cg-mem":
			m.CgMemKb, err = strconv.ParseInt(value, 10, 64)
		case "exitcode":
			m.ExitCode, err = strconv.ParseInt(value, 10, 64)
		case "exitsig":
			m.ExitSignal, err = strconv.ParseInt(value, 10, 64)
		case "killed":
			m.Killed = value == "1"
		case "cg-oom-killed":
			m.CgOomKilled = value == "1"
		case "status":
			m.Status = value
		case "message":
			m.Message = value
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse meta %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
