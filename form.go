package bpupload

import (
	"bytes"
	"mime/multipart"
	"net/url"
	"strings"
)

const multipartBoundary = "WebKitFormBoundary"

type Field struct {
	Name  string
	Value string
}

// Form is an ordered list of fields. Icinga's form processor reads them in
// the order they were rendered, so they are never sorted.
type Form []Field

// Set replaces the value of an existing field or appends a new one.
func (f Form) Set(name, value string) Form {
	for i := range f {
		if f[i].Name == name {
			f[i].Value = value
			return f
		}
	}
	return append(f, Field{Name: name, Value: value})
}

func (f Form) Get(name string) (string, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Value, true
		}
	}
	return "", false
}

// Encode renders the form as application/x-www-form-urlencoded.
func (f Form) Encode() string {
	var buf strings.Builder
	for i, field := range f {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(url.QueryEscape(field.Name))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(field.Value))
	}
	return buf.String()
}

// Multipart renders the form as multipart/form-data using the fixed
// WebKitFormBoundary marker and returns the body with its content type.
func (f Form) Multipart() ([]byte, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.SetBoundary(multipartBoundary); err != nil {
		return nil, "", err
	}
	for _, field := range f {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}
