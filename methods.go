package webclient

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/GriffinCanCode/webclient/internal/catalog"
)

// MethodFunc calls one fixed API method.
type MethodFunc func(ctx context.Context, args map[string]any) (*Result, error)

// Method returns a function that calls name. Names outside the built-in
// catalog are allowed; their arguments are simply not checked.
func (c *Client) Method(name string) MethodFunc {
	return func(ctx context.Context, args map[string]any) (*Result, error) {
		return c.APICall(ctx, name, args)
	}
}

// Methods lists the catalog's method names in sorted order.
func Methods() []string {
	return catalog.Default().Names()
}

// Families lists the catalog's method families, e.g. "chat" or
// "users.profile", in sorted order.
func Families() []string {
	return catalog.Default().Families()
}

// RequiredArgs returns the arguments name cannot be called without, and
// whether name is in the catalog.
func RequiredArgs(name string) ([]string, bool) {
	d, ok := catalog.Default().Lookup(name)
	if !ok {
		return nil, false
	}
	return append([]string(nil), d.Required...), true
}

// CursorArg is the argument that carries a pagination cursor.
const CursorArg = "cursor"

// ErrCursorRepeated is returned by Paginate when the server hands back a
// cursor it already gave for this walk.
var ErrCursorRepeated = errors.New("pagination cursor repeated")

// Paginate calls a cursor-paginated method repeatedly, passing each page to
// fn, until response_metadata.next_cursor is empty or fn returns false.
// A cursor seen earlier in the walk stops it with ErrCursorRepeated.
// args is not modified.
func (c *Client) Paginate(ctx context.Context, method string, args map[string]any, fn func(page *Result) bool) error {
	pageArgs := maps.Clone(args)
	if pageArgs == nil {
		pageArgs = make(map[string]any, 1)
	}
	seen := make(map[string]struct{})
	if cursor, ok := pageArgs[CursorArg].(string); ok && cursor != "" {
		seen[cursor] = struct{}{}
	}

	for {
		res, err := c.APICall(ctx, method, pageArgs)
		if err != nil {
			return err
		}
		if !fn(res) {
			return nil
		}

		next := res.ResponseMetadata.NextCursor
		if next == "" {
			return nil
		}
		if _, dup := seen[next]; dup {
			return fmt.Errorf("%s: %w: %q", method, ErrCursorRepeated, next)
		}
		seen[next] = struct{}{}
		pageArgs[CursorArg] = next
	}
}
