package orchestrator

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"

	"git.home.luguber.info/inful/jenkinsrest/internal/classify"
	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
	"git.home.luguber.info/inful/jenkinsrest/internal/operation"
	"git.home.luguber.info/inful/jenkinsrest/internal/pagination"
)

// Result is a decoded success.
type Result[T any] struct {
	Value     T
	Status    int
	Header    http.Header
	Attempts  int
	RequestID string
}

// Do invokes d and decodes the body into T. String and []byte targets
// receive the raw body; anything else is decoded as JSON. An empty body
// leaves the zero value.
func Do[T any](ctx context.Context, o *Orchestrator, d operation.Descriptor, body any) (Result[T], error) {
	resp, err := o.Invoke(ctx, d, body)
	if err != nil {
		return Result[T]{}, err
	}
	res := Result[T]{
		Status:    resp.Status,
		Header:    resp.Header,
		Attempts:  resp.Attempts,
		RequestID: resp.RequestID,
	}
	if err := decode(resp, &res.Value); err != nil {
		return Result[T]{}, err
	}
	return res, nil
}

func decode[T any](resp *Response, out *T) error {
	switch p := any(out).(type) {
	case *string:
		*p = string(resp.Body)
		return nil
	case *[]byte:
		*p = resp.Body
		return nil
	}
	if len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return classify.DecodeFailure(err, resp.Status).WithAttempts(resp.Attempts)
	}
	return nil
}

// PageCodec adapts a list endpoint to the cursor.
type PageCodec[T any] struct {
	Mode pagination.Mode
	// PageSize overrides the orchestrator default when positive.
	PageSize int
	// Apply addresses the requested page on the base descriptor.
	Apply func(d operation.Descriptor, req pagination.Request) operation.Descriptor
	// Decode extracts one page from a response.
	Decode func(resp *Response) (pagination.Page[T], error)
}

// JSONPage decodes the response as JSON into P and extracts its items.
func JSONPage[P, T any](items func(P) []T) func(*Response) (pagination.Page[T], error) {
	return func(resp *Response) (pagination.Page[T], error) {
		var page P
		if err := decode(resp, &page); err != nil {
			return pagination.Page[T]{}, err
		}
		return pagination.Page[T]{Items: items(page)}, nil
	}
}

// FetchAll lazily walks every page of the paginated descriptor d, yielding
// de-duplicated items in page order. Iteration stops after the first error,
// which is yielded with the zero item. Breaking out of the loop stops
// further requests. All pages share one request ID and the total deadline
// bounds the whole walk.
func FetchAll[T any, K comparable](
	ctx context.Context,
	o *Orchestrator,
	d operation.Descriptor,
	codec PageCodec[T],
	identity func(T) K,
) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if !d.IsPaginated() {
			yield(zero, errors.InvalidRequestError("operation is not paginated").
				WithContext("operation", d.Name()).
				Build())
			return
		}
		size := codec.PageSize
		if size <= 0 {
			size = o.pageSize
		}
		ctx, cancel := o.withDeadline(ctx)
		defer cancel()
		ctx = o.withRequestID(ctx)
		cursor := pagination.NewCursor(codec.Mode, size, identity)

		step := cursor.Next(nil)
		for !step.Done {
			if err := ctx.Err(); err != nil {
				yield(zero, contextFailure(err))
				return
			}

			resp, err := o.run(ctx, codec.Apply(d, *step.Request), nil)
			if err != nil {
				yield(zero, err)
				return
			}
			page, err := codec.Decode(resp)
			if err != nil {
				if _, ok := errors.AsClassified(err); !ok {
					err = classify.DecodeFailure(err, resp.Status)
				}
				yield(zero, err)
				return
			}

			step = cursor.Next(&page)
			o.recorder.IncPage(d.Name(), len(step.Items))
			for _, item := range step.Items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// Collect materializes seq, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for item, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}
