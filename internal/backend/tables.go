package backend

import (
	"context"

	"github.com/go-resty/resty/v2"
)

const restPrefix = "/rest/v1/"

const (
	preferReturn = "return=representation"
	preferUpsert = "resolution=merge-duplicates,return=representation"
	preferIgnore = "resolution=ignore-duplicates,return=minimal"
)

// eq PostgREST equality filter value.
func eq(v string) string { return "eq." + v }

// selectRows GET /rest/v1/<table>?<params> into out (pointer to slice).
func (c *Client) selectRows(ctx context.Context, table string, params map[string]string, out any) error {
	return c.do(ctx, "select "+table, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParams(withSelect(params)).SetResult(out).Get(restPrefix + table)
	})
}

// insertRows POST body; inserted rows are decoded into out when non-nil.
func (c *Client) insertRows(ctx context.Context, table string, body, out any) error {
	return c.do(ctx, "insert "+table, func(r *resty.Request) (*resty.Response, error) {
		r.SetHeader("Prefer", preferReturn).SetBody(body)
		if out != nil {
			r.SetResult(out)
		}
		return r.Post(restPrefix + table)
	})
}

// insertNewRows POST body, skipping rows whose onConflict key already
// exists. A replayed insert is a no-op.
func (c *Client) insertNewRows(ctx context.Context, table, onConflict string, body any) error {
	return c.do(ctx, "insert "+table, func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("Prefer", preferIgnore).
			SetQueryParam("on_conflict", onConflict).
			SetBody(body).
			Post(restPrefix + table)
	})
}

// patchRows PATCH rows matching params; updated rows go to out. sent counts
// the requests issued, so callers can tell when an earlier attempt may have
// committed without its response arriving.
func (c *Client) patchRows(ctx context.Context, table string, params map[string]string, body, out any) (sent int, err error) {
	err = c.do(ctx, "update "+table, func(r *resty.Request) (*resty.Response, error) {
		sent++
		return r.SetHeader("Prefer", preferReturn).
			SetQueryParams(params).
			SetBody(body).
			SetResult(out).
			Patch(restPrefix + table)
	})
	return sent, err
}

// upsertRows POST with merge-duplicates on the onConflict columns.
func (c *Client) upsertRows(ctx context.Context, table, onConflict string, body, out any) error {
	return c.do(ctx, "upsert "+table, func(r *resty.Request) (*resty.Response, error) {
		r.SetHeader("Prefer", preferUpsert).
			SetQueryParam("on_conflict", onConflict).
			SetBody(body)
		if out != nil {
			r.SetResult(out)
		}
		return r.Post(restPrefix + table)
	})
}

func withSelect(params map[string]string) map[string]string {
	out := make(map[string]string, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	if _, ok := out["select"]; !ok {
		out["select"] = "*"
	}
	return out
}

// deleteRows DELETE rows matching params. Repeating it is harmless.
func (c *Client) deleteRows(ctx context.Context, table string, params map[string]string) error {
	return c.do(ctx, "delete "+table, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParams(params).Delete(restPrefix + table)
	})
}
