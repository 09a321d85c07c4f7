package resource

import (
	"context"
	"net/http"

	"StockDesk/internal/query"
)

// List fetches one page of path with the encoded options.
func List[T any, R ~string](ctx context.Context, c *Client, path string, opts query.Options[R]) (Page[T], error) {
	if err := opts.Validate(); err != nil {
		return Page[T]{}, &Error{Message: err.Error(), Cause: err}
	}
	body, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   path,
		query:  query.Encode(opts).Values(),
	})
	if err != nil {
		return Page[T]{}, err
	}
	page, err := decodePage[T](body)
	if err != nil {
		return Page[T]{}, &Error{Message: "invalid response: " + err.Error(), Cause: err}
	}
	return page, nil
}

// GetOne fetches a single record; opts usually only carries Include.
func GetOne[T any, R ~string](ctx context.Context, c *Client, path string, opts query.Options[R]) (T, error) {
	var zero T
	if err := opts.Validate(); err != nil {
		return zero, &Error{Message: err.Error(), Cause: err}
	}
	body, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   path,
		query:  query.Encode(opts).Values(),
	})
	if err != nil {
		return zero, err
	}
	return decodeResult[T](body)
}

// Create POSTs payload to path.
func Create[T any](ctx context.Context, c *Client, path string, payload Payload, audit ...Audit) (T, error) {
	return write[T](ctx, c, http.MethodPost, path, payload, audit)
}

// Update PATCHes plain payloads. Multipart bodies must stay POST at the transport
// layer, so they are POSTed with _method=PATCH instead.
func Update[T any](ctx context.Context, c *Client, path string, payload Payload, audit ...Audit) (T, error) {
	if mp, ok := payload.(multipartPayload); ok {
		return write[T](ctx, c, http.MethodPost, path, mp.with(MethodOverrideField, http.MethodPatch), audit)
	}
	return write[T](ctx, c, http.MethodPatch, path, payload, audit)
}

func Delete(ctx context.Context, c *Client, path string, audit ...Audit) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, path: path, audit: audit})
	return err
}

func write[T any](ctx context.Context, c *Client, method, path string, payload Payload, audit []Audit) (T, error) {
	var zero T
	if payload == nil {
		payload = JSON(struct{}{})
	}
	body, contentType, err := payload.encode()
	if err != nil {
		return zero, &Error{Message: err.Error(), Cause: err}
	}
	resp, err := c.do(ctx, request{
		method:      method,
		path:        path,
		body:        body,
		contentType: contentType,
		audit:       audit,
	})
	if err != nil {
		return zero, err
	}
	return decodeResult[T](resp)
}

func decodeResult[T any](body []byte) (T, error) {
	out, err := decodeItem[T](body)
	if err != nil {
		return out, &Error{Message: "invalid response: " + err.Error(), Cause: err}
	}
	return out, nil
}
