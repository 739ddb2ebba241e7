package service

import (
	"context"
)

// Key is a special keyboard key sent to a page element
type Key string

const (
	KeyArrowDown Key = "ArrowDown"
	KeyEnter     Key = "Enter"
)

// PageSession is one browser-automation session. Selectors are CSS selectors.
// Every method blocks until it completes or ctx is done.
type PageSession interface {
	// Navigate opens url in the session
	Navigate(ctx context.Context, url string) error

	// WaitPresent blocks until an element matching selector is in the DOM
	WaitPresent(ctx context.Context, selector string) error

	// WaitClickable blocks until the element is visible and enabled
	WaitClickable(ctx context.Context, selector string) error

	Click(ctx context.Context, selector string) error

	// Clear removes the current content of an input
	Clear(ctx context.Context, selector string) error

	// Type sends text to the element as keystrokes
	Type(ctx context.Context, selector, text string) error

	// Press sends a single special key to the element
	Press(ctx context.Context, selector string, key Key) error

	// Value reads the value of an input element
	Value(ctx context.Context, selector string) (string, error)

	// Close terminates the session and releases the browser
	Close() error
}

// SessionFactory starts new browser sessions
type SessionFactory interface {
	NewSession(ctx context.Context) (PageSession, error)
}
