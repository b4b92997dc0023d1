// Package service implements the business logic for the view counter.
package service

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	"github.com/rwool/viewcounter/pkg/service/counterstore"
)

// WebsiteViews is the name of the counter tracking website views.
const WebsiteViews = "website_views"

// ViewService is the user accessible service.
type ViewService interface {
	// IncrementView records one view and returns the new total.
	IncrementView(ctx context.Context) (int64, error)
	// Views returns the current total without recording a view.
	Views(ctx context.Context) (int64, error)
}

type viewService struct {
	c    counterstore.Counter
	name string
	l    log.Logger
}

// IncrementView records one view.
//
// Store failures are logged and returned; they are never retried.
func (v *viewService) IncrementView(ctx context.Context) (int64, error) {
	count, err := v.c.IncrementAndGet(ctx, v.name)
	if err != nil {
		_ = v.l.Log("LEVEL", "ERROR", "MESSAGE", "Error incrementing view count", "COUNTER", v.name, "ERROR", err.Error())
		return 0, errors.WithStack(err)
	}
	_ = v.l.Log("LEVEL", "DEBUG", "MESSAGE", "Incremented view count", "COUNTER", v.name, "COUNT", count)
	return count, nil
}

// Views returns the current number of views.
func (v *viewService) Views(ctx context.Context) (int64, error) {
	count, err := v.c.Get(ctx, v.name)
	if err != nil {
		_ = v.l.Log("LEVEL", "ERROR", "MESSAGE", "Error fetching view count", "COUNTER", v.name, "ERROR", err.Error())
		return 0, errors.WithStack(err)
	}
	return count, nil
}

func newViewService(c counterstore.Counter, name string, l log.Logger) *viewService {
	if name == "" {
		name = WebsiteViews
	}
	if l == nil {
		l = log.NewNopLogger()
	}
	return &viewService{
		c:    c,
		name: name,
		l:    l,
	}
}

// NewViewService returns a ViewService counting into the named counter. An
// empty name selects WebsiteViews.
func NewViewService(c counterstore.Counter, name string, l log.Logger) ViewService {
	return newViewService(c, name, l)
}
