package publish

import (
	"context"
	"net/http"

	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

type sessionCookiesKey struct{}

// WithSessionCookies returns a context whose storage calls carry cookies
// from the originating browser session.
func WithSessionCookies(ctx context.Context, cookies []*http.Cookie) context.Context {
	if len(cookies) == 0 {
		return ctx
	}
	return context.WithValue(ctx, sessionCookiesKey{}, cookies)
}

// SessionCookies returns the cookies attached by WithSessionCookies.
func SessionCookies(ctx context.Context) []*http.Cookie {
	cookies, _ := ctx.Value(sessionCookiesKey{}).([]*http.Cookie)
	return cookies
}

// SelectCookies picks the named cookies from a request.
func SelectCookies(r *http.Request, names []string) []*http.Cookie {
	var out []*http.Cookie
	for _, name := range names {
		if c, err := r.Cookie(name); err == nil {
			out = append(out, c)
		}
	}
	return out
}

func forwardSessionCookies(stack *middleware.Stack) error {
	return stack.Build.Add(middleware.BuildMiddlewareFunc("ForwardSessionCookies",
		func(ctx context.Context, in middleware.BuildInput, next middleware.BuildHandler) (middleware.BuildOutput, middleware.Metadata, error) {
			if req, ok := in.Request.(*smithyhttp.Request); ok {
				for _, c := range SessionCookies(ctx) {
					req.AddCookie(c)
				}
			}
			return next.HandleBuild(ctx, in)
		},
	), middleware.After)
}
