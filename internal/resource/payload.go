package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"sort"
)

// MethodOverrideField carries the intended verb when a multipart update has to be
// sent as POST.
const MethodOverrideField = "_method"

// Payload is a write body. Use JSON or Multipart to build one.
type Payload interface {
	encode() (body io.Reader, contentType string, err error)
}

type jsonPayload struct {
	value any
}

// JSON wraps any JSON-serializable value.
func JSON(v any) Payload { return jsonPayload{value: v} }

func (p jsonPayload) encode() (io.Reader, string, error) {
	b, err := json.Marshal(p.value)
	if err != nil {
		return nil, "", fmt.Errorf("encode payload: %w", err)
	}
	return bytes.NewReader(b), "application/json", nil
}

// File is one uploaded part of a multipart payload.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

type multipartPayload struct {
	fields url.Values
	files  []File
}

// Multipart builds a binary payload; the boundary content type is negotiated when
// the request is encoded.
func Multipart(fields url.Values, files ...File) Payload {
	return multipartPayload{fields: cloneValues(fields), files: files}
}

func (p multipartPayload) with(key, value string) multipartPayload {
	fields := cloneValues(p.fields)
	fields.Set(key, value)
	return multipartPayload{fields: fields, files: p.files}
}

func (p multipartPayload) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(p.fields))
	for k := range p.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range p.fields[k] {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", fmt.Errorf("write field %s: %w", k, err)
			}
		}
	}

	for _, f := range p.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Name))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", f.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
