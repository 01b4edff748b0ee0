package domain

import "context"

// FetchOK is Fetch for callers that only want a body: a non-2xx page becomes
// a BadStatus *FetchError.
func FetchOK(ctx context.Context, f Fetcher, url string) (*Page, error) {
	page, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if !page.OK() {
		status := 0
		if page != nil {
			status = page.StatusCode
		}
		return nil, &FetchError{Kind: ErrBadStatus, URL: url, Status: status}
	}
	return page, nil
}
