package bpupload

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/errgo.v1"
)

const (
	loginTokenField = "CSRFToken"
	formTokenField  = "__FORM_CSRF"
)

// FetchToken loads endpoint (the application root when empty) through the
// session and returns the value of the first input named field (CSRFToken
// when empty).
func (c *Client) FetchToken(ctx context.Context, endpoint, field string) (string, error) {
	if endpoint == "" {
		endpoint = rootEndpoint
	}
	if field == "" {
		field = loginTokenField
	}
	u, err := c.resolve(endpoint)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", errgo.Mask(err)
	}
	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", &TokenNotFoundError{
			StatusCode: resp.StatusCode,
			Status:     reason(resp),
			URL:        resp.Request.URL.String(),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", errgo.Notef(err, "cannot parse %s", resp.Request.URL)
	}
	input := doc.Find("input").FilterFunction(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		return name == field
	}).First()
	if input.Length() == 0 {
		return "", errgo.WithCausef(nil, ErrTokenFieldAbsent, "csrf token field %q absent @ %s", field, resp.Request.URL)
	}
	val, _ := input.Attr("value")
	return val, nil
}

func reason(resp *http.Response) string {
	if r := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); r != "" && r != resp.Status {
		return r
	}
	return http.StatusText(resp.StatusCode)
}
