package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/viant/afs"

	bootstrap "github.com/phillip/chama-tracker-go/bootstrap"
	config "github.com/phillip/chama-tracker-go/config"
)

var (
	stdout     io.Writer = os.Stdout
	loadConfig           = config.Load

	appOnce sync.Once
	appInst *bootstrap.App
	appErr  error

	fs = afs.New()
)

// appSingleton builds the configured backend once per invocation.
func appSingleton(ctx context.Context) (*bootstrap.App, error) {
	appOnce.Do(func() {
		appInst, appErr = bootstrap.Run(ctx, loadConfig())
	})
	return appInst, appErr
}

// closeApp releases the backend and lets the next Run build a fresh one.
func closeApp() {
	if appInst != nil {
		_ = appInst.Close(context.Background())
	}
	appOnce, appInst, appErr = sync.Once{}, nil, nil
}

// location turns a local path into something afs accepts; URLs pass through.
func location(p string) (string, error) {
	if strings.Contains(p, "://") {
		return p, nil
	}
	return filepath.Abs(p)
}

func download(ctx context.Context, p string) ([]byte, error) {
	loc, err := location(p)
	if err != nil {
		return nil, err
	}
	return fs.DownloadWithURL(ctx, loc)
}
