package bpupload

import (
	"net/http"
	"net/url"
	"time"

	cookiejar "github.com/juju/persistent-cookiejar"
	"go.uber.org/zap"
)

type Config struct {
	BaseURL  string
	Username string
	Password string

	// CookieFile keeps the session across runs. Empty means in-memory only.
	CookieFile string
	Timeout    time.Duration

	Logger     *zap.Logger
	ReportFunc func(o Outcome)
}

type Client struct {
	config Config
	base   *url.URL
	jar    *cookiejar.Jar
	client *http.Client
	logger *zap.Logger

	// headers are attached to every POST; login adds X-Requested-With.
	headers  http.Header
	authForm Form
}

type Result struct {
	OK      bool
	Message string
}

type Phase string

const (
	PhaseDelete Phase = "delete"
	PhaseUpload Phase = "upload"
)

// Outcome records one half of an update.
type Outcome struct {
	Phase  Phase
	Name   string
	Result Result
	Err    error
}

type UpdateResult struct {
	Delete Outcome
	Upload Outcome
}
