package environment

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type EnvConfig struct {
	GithubRepository string
	GithubActor      string
	StudentUsername  string
	StepSummaryPath  string
	LogLevel         string

	NatsURL     string
	NatsSubject string
	SQSQueueURL string
	PostgresDSN string
}

// ReadEnvConfig loads the optional .env files and reads the process environment.
// Variables already set in the environment win over .env values.
func ReadEnvConfig(files ...string) *EnvConfig {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to load env file", "file", f, "err", err)
		}
	}

	return &EnvConfig{
		GithubRepository: os.Getenv("GITHUB_REPOSITORY"),
		GithubActor:      os.Getenv("GITHUB_ACTOR"),
		StudentUsername:  os.Getenv("STUDENT_USERNAME"),
		StepSummaryPath:  os.Getenv("GITHUB_STEP_SUMMARY"),
		LogLevel:         os.Getenv("LABGRADER_LOG_LEVEL"),

		NatsURL:     os.Getenv("LABGRADER_NATS_URL"),
		NatsSubject: os.Getenv("LABGRADER_NATS_SUBJECT"),
		SQSQueueURL: os.Getenv("LABGRADER_SQS_QUEUE_URL"),
		PostgresDSN: os.Getenv("LABGRADER_POSTGRES_DSN"),
	}
}

// RepoName is the part of GITHUB_REPOSITORY after the owner.
func (c *EnvConfig) RepoName() string {
	if _, name, ok := strings.Cut(c.GithubRepository, "/"); ok {
		return name
	}
	return c.GithubRepository
}

// StudentID picks STUDENT_USERNAME, then the repository name suffix after
// its last '-', then GITHUB_ACTOR, then the repository name, then "student".
func (c *EnvConfig) StudentID() string {
	repo := c.RepoName()
	for _, candidate := range []string{c.StudentUsername, RepoSuffix(repo), c.GithubActor, repo} {
		if candidate != "" {
			return candidate
		}
	}
	return "student"
}

// RepoSuffix is the part of a classroom repository name after its last '-',
// which GitHub Classroom sets to the student's login.
func RepoSuffix(repo string) string {
	if i := strings.LastIndex(repo, "-"); i >= 0 {
		return repo[i+1:]
	}
	return ""
}
