package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"StockDesk/internal/logger"
	"StockDesk/internal/resource"
)

const maxMultipartMemory = 32 << 20

var errBadBody = errors.New("malformed request body")

// decodeBody reads a JSON, urlencoded or multipart body into a flat map. Form values
// are strings; a file part contributes its file name. The _method override field is
// returned separately.
func decodeBody(r *http.Request) (map[string]any, string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, "", fmt.Errorf("%w: %v", errBadBody, err)
		}
		out := formValues(r.MultipartForm.Value)
		for field, files := range r.MultipartForm.File {
			if len(files) == 0 {
				continue
			}
			out[field] = files[0].Filename
			logger.Debug("upload_received", map[string]any{
				"field": field,
				"name":  files[0].Filename,
				"bytes": files[0].Size,
			})
		}
		return splitMethod(out)

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, "", fmt.Errorf("%w: %v", errBadBody, err)
		}
		return splitMethod(formValues(r.PostForm))

	default:
		out := map[string]any{}
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&out); err != nil {
			return nil, "", fmt.Errorf("%w: %v", errBadBody, err)
		}
		return splitMethod(out)
	}
}

func formValues(v map[string][]string) map[string]any {
	out := make(map[string]any, len(v))
	for k, vals := range v {
		if len(vals) > 0 {
			out[k] = vals[0]
		}
	}
	return out
}

func splitMethod(body map[string]any) (map[string]any, string, error) {
	raw, ok := body[resource.MethodOverrideField]
	if !ok {
		return body, "", nil
	}
	delete(body, resource.MethodOverrideField)
	s, _ := raw.(string)
	return body, strings.ToUpper(strings.TrimSpace(s)), nil
}
