package models

import "time"

// NewPageView returns a page view for url recorded at t, in UTC.
func NewPageView(url string, t time.Time) *PageView {
	return &PageView{URL: url, Date: t.UTC()}
}

func (v *PageView) Validate() error {
	return validate.Struct(v)
}
