// internal/infrastructure/browser/chromedp_session_test.go
package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/chromedp/chromedp/kb"
	"github.com/damon-houk/fx-threshold-checker/internal/domain/service"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/logger"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyCode(t *testing.T) {
	k, err := keyCode(service.KeyArrowDown)
	require.NoError(t, err)
	assert.Equal(t, kb.ArrowDown, k)

	k, err = keyCode(service.KeyEnter)
	require.NoError(t, err)
	assert.Equal(t, kb.Enter, k)

	_, err = keyCode(service.Key("F13"))
	assert.Error(t, err)
}

func TestNewChromeSessionFactory_Defaults(t *testing.T) {
	f := NewChromeSessionFactory(ChromeOptions{Headless: true}, logger.NewNopLogger())

	assert.Equal(t, 1920, f.opts.WindowWidth)
	assert.Equal(t, 1080, f.opts.WindowHeight)
	assert.NotEmpty(t, f.allocatorOptions())
}

const testPage = `<!DOCTYPE html>
<html><body>
<div class="root">
  <input id="base" value="">
  <input id="rate" value="1.2345">
  <button id="accept" onclick="this.dataset.clicked='yes'">Accept</button>
</div>
</body></html>`

// Drives a local page with a real Chrome. Requires a Chrome binary.
func TestChromeSession_Live(t *testing.T) {
	if testing.Short() || os.Getenv("RATECHECK_LIVE_TESTS") != "1" {
		t.Skip("Skipping browser test; set RATECHECK_LIVE_TESTS=1 to run")
	}

	router := mux.NewRouter()
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, testPage)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	factory := NewChromeSessionFactory(ChromeOptions{Headless: true, ExecPath: os.Getenv("RATECHECK_CHROME_PATH")}, logger.NewNopLogger())
	session, err := factory.NewSession(ctx)
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.Navigate(ctx, server.URL))
	require.NoError(t, session.WaitPresent(ctx, ".root"))
	require.NoError(t, session.WaitClickable(ctx, "#accept"))
	require.NoError(t, session.Click(ctx, "#accept"))

	require.NoError(t, session.Click(ctx, "#base"))
	require.NoError(t, session.Clear(ctx, "#base"))
	require.NoError(t, session.Type(ctx, "#base", "GBP"))
	require.NoError(t, session.Press(ctx, "#base", service.KeyEnter))

	value, err := session.Value(ctx, "#base")
	require.NoError(t, err)
	assert.Equal(t, "GBP", value)

	rate, err := session.Value(ctx, "#rate")
	require.NoError(t, err)
	assert.Equal(t, "1.2345", rate)

	// A missing element times out with the caller's deadline
	waitCtx, waitCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer waitCancel()
	err = session.WaitPresent(waitCtx, "#missing")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
