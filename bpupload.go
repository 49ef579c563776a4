package bpupload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	cookiejar "github.com/juju/persistent-cookiejar"
	"go.uber.org/zap"
	"gopkg.in/errgo.v1"
)

const (
	rootEndpoint   = "/icingaweb2"
	loginEndpoint  = "/icingaweb2/authentication/login"
	uploadEndpoint = "/icingaweb2/businessprocess/process/upload"
	configEndpoint = "/icingaweb2/businessprocess/process/config?config=%s"

	configFormName = "IcingaModuleBusinessprocessFormsBpConfigForm"
	uploadFormName = "IcingaModuleBusinessprocessFormsBpUploadForm"

	headerRedirect     = "X-Icinga-Redirect"
	headerNotification = "X-Icinga-Notification"

	defaultTimeout = 30 * time.Second
)

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errgo.New("no base url configured")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errgo.Notef(err, "invalid base url")
	}
	jar, err := cookiejar.New(&cookiejar.Options{
		Filename:  cfg.CookieFile,
		NoPersist: cfg.CookieFile == "",
	})
	if err != nil {
		return nil, errgo.Notef(err, "cannot open cookie jar")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.ReportFunc == nil {
		cfg.ReportFunc = LogReporter(cfg.Logger)
	}

	headers := make(http.Header)
	headers.Set("X-Icinga-Accept", "text/html")

	return &Client{
		config:  cfg,
		base:    base,
		jar:     jar,
		client:  &http.Client{Jar: jar, Timeout: cfg.Timeout},
		logger:  cfg.Logger,
		headers: headers,
		authForm: Form{
			{Name: "username", Value: cfg.Username},
			{Name: "password", Value: cfg.Password},
			{Name: loginTokenField},
			{Name: "btn_submit", Value: "Login"},
			{Name: "formUID", Value: "form_login"},
		},
	}, nil
}

// Login authenticates the session. The response is returned as is; its body
// must be closed by the caller.
func (c *Client) Login(ctx context.Context) (*http.Response, error) {
	defer c.save()
	token, err := c.FetchToken(ctx, rootEndpoint, loginTokenField)
	if err != nil {
		return nil, errgo.NoteMask(err, "login", errgo.Any)
	}
	c.authForm = c.authForm.Set(loginTokenField, token)
	c.headers.Set("X-Requested-With", "XMLHttpRequest")

	return c.post(ctx, loginEndpoint, strings.NewReader(c.authForm.Encode()), "application/x-www-form-urlencoded")
}

// Delete removes the named configuration. Success is signalled by Icinga
// through the X-Icinga-Redirect header only.
func (c *Client) Delete(ctx context.Context, name string) (Result, error) {
	defer c.save()
	endpoint := fmt.Sprintf(configEndpoint, url.QueryEscape(name))
	token, err := c.FetchToken(ctx, endpoint, formTokenField)
	if err != nil {
		return Result{}, errgo.NoteMask(err, "delete "+name, errgo.Any)
	}
	form := Form{
		{Name: "__FORM_NAME", Value: configFormName},
		{Name: formTokenField, Value: token},
		{Name: "name", Value: name},
		{Name: "Delete", Value: "Delete"},
	}
	resp, err := c.post(ctx, endpoint, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return Result{}, errgo.NoteMask(err, "delete "+name, errgo.Any)
	}
	defer resp.Body.Close()
	return headerResult(resp.Header, headerRedirect), nil
}

// Upload stores source under name. Success is signalled by Icinga through
// the X-Icinga-Notification header only.
func (c *Client) Upload(ctx context.Context, name string, source []byte) (Result, error) {
	defer c.save()
	token, err := c.FetchToken(ctx, uploadEndpoint, formTokenField)
	if err != nil {
		return Result{}, errgo.NoteMask(err, "upload "+name, errgo.Any)
	}
	form := Form{
		{Name: "__FORM_NAME", Value: uploadFormName},
		{Name: formTokenField, Value: token},
		{Name: "name", Value: name},
		{Name: "source", Value: string(source)},
		{Name: "Store", Value: "Store"},
	}
	body, contentType, err := form.Multipart()
	if err != nil {
		return Result{}, errgo.Notef(err, "cannot encode upload form")
	}
	resp, err := c.post(ctx, uploadEndpoint, bytes.NewReader(body), contentType)
	if err != nil {
		return Result{}, errgo.NoteMask(err, "upload "+name, errgo.Any)
	}
	defer resp.Body.Close()
	return headerResult(resp.Header, headerNotification), nil
}

// Update replaces the named configuration by deleting it and uploading
// source. Both steps always run; a failed delete (the configuration may not
// exist yet) does not stop the upload. Outcomes are reported through
// Config.ReportFunc and returned, never raised.
func (c *Client) Update(ctx context.Context, name string, source []byte) *UpdateResult {
	rs := &UpdateResult{}
	rs.Delete = c.runPhase(PhaseDelete, name, func() (Result, error) {
		return c.Delete(ctx, name)
	})
	rs.Upload = c.runPhase(PhaseUpload, name, func() (Result, error) {
		return c.Upload(ctx, name, source)
	})
	return rs
}

func (c *Client) runPhase(phase Phase, name string, fn func() (Result, error)) Outcome {
	res, err := fn()
	o := Outcome{Phase: phase, Name: name, Result: res, Err: err}
	c.config.ReportFunc(o)
	return o
}

func (c *Client) resolve(endpoint string) (*url.URL, error) {
	u, err := c.base.Parse(endpoint)
	if err != nil {
		return nil, errgo.Notef(err, "invalid endpoint %q", endpoint)
	}
	return u, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body io.Reader, contentType string) (*http.Response, error) {
	u, err := c.resolve(endpoint)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), body)
	if err != nil {
		return nil, errgo.Mask(err)
	}
	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("method", req.Method), zap.String("url", req.URL.String()), zap.Error(err))
		return nil, err
	}
	c.logger.Debug("request done", zap.String("method", req.Method), zap.String("url", req.URL.String()), zap.Int("status", resp.StatusCode))
	return resp, nil
}

func (c *Client) save() {
	if err := c.jar.Save(); err != nil {
		c.logger.Warn("save cookie jar failed", zap.String("file", c.config.CookieFile), zap.Error(err))
	}
}

func headerResult(h http.Header, key string) Result {
	v := h.Get(key)
	if v == "" {
		return Result{}
	}
	return Result{OK: true, Message: unescapeHeader(v)}
}

// unescapeHeader percent-decodes v without treating '+' as a space. An
// invalid escape is kept as is while the rest of the value is decoded.
func unescapeHeader(v string) string {
	if !strings.Contains(v, "%") {
		return v
	}
	var buf strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '%' && i+2 < len(v) {
			hi, ok1 := unhex(v[i+1])
			lo, ok2 := unhex(v[i+2])
			if ok1 && ok2 {
				buf.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		buf.WriteByte(v[i])
	}
	return buf.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
